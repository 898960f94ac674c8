package billing

import (
	"time"

	"github.com/tkabeya/darasa/core"
	"github.com/tkabeya/darasa/core/student"
	"github.com/tkabeya/darasa/core/user"
)

type serviceMock struct {
	service
}

// NewServiceMock returns a Service whose receipt mail is sent synchronously so
// tests can assert on it.
func NewServiceMock(repo Repository, stdRepo student.Repository, usrRepo user.Repository, mailSvc core.EmailService, conf *core.Config) Service {
	return &serviceMock{
		service: service{
			repo:    repo,
			stdRepo: stdRepo,
			usrRepo: usrRepo,
			mailSvc: mailSvc,
			conf:    conf,
		},
	}
}

func (svc *serviceMock) AddPayment(recordID string, np NewPaymentEntry, paidAt time.Time, receivedBy string) (BillingRecord, error) {
	rec, entry, err := svc.addPayment(recordID, np, paidAt, receivedBy)
	if err != nil {
		return BillingRecord{}, err
	}
	// run synchronously
	svc.sendReceiptMail(rec, entry)
	return rec, nil
}
