package report

import "github.com/tkabeya/darasa/core"

type (
	// Repository provides read-only aggregations over the stored data.
	Repository interface {
		QueryPaymentSummaries(period string) ([]PaymentSummary, error)
		QueryAttendanceSummaries(classRoom, month string) ([]AttendanceSummary, error)
		QuerySubjectAverages(classRoom, term string) ([]SubjectAverage, error)
	}

	Service interface {
		PaymentSummaries(period string) ([]PaymentSummary, error)
		AttendanceSummaries(classRoom, month string) ([]AttendanceSummary, error)
		SubjectAverages(classRoom, term string) ([]SubjectAverage, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// PaymentSummaries returns billing aggregates, optionally scoped to one period.
func (svc service) PaymentSummaries(period string) ([]PaymentSummary, error) {
	return svc.repo.QueryPaymentSummaries(core.CleanString(period))
}

// AttendanceSummaries returns attendance aggregates, optionally scoped to one
// class room and month.
func (svc service) AttendanceSummaries(classRoom, month string) ([]AttendanceSummary, error) {
	return svc.repo.QueryAttendanceSummaries(core.CleanString(classRoom), core.CleanString(month))
}

// SubjectAverages returns grade aggregates, optionally scoped to one class
// room and term.
func (svc service) SubjectAverages(classRoom, term string) ([]SubjectAverage, error) {
	return svc.repo.QuerySubjectAverages(core.CleanString(classRoom), core.CleanString(term))
}
