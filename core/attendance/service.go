package attendance

import (
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/tkabeya/darasa/core"
	"github.com/tkabeya/darasa/core/student"
)

var (
	// errors
	ErrNotFound = errors.New("attendance record not found")
)

type (
	Repository interface {
		// UpsertAttendance replaces any existing mark for the same student and day.
		UpsertAttendance(att Attendance) (Attendance, error)
		GetAttendanceByID(id string) (Attendance, error)
		FilterAttendance(filter QueryFilter, orderings ...core.DBOrdering) ([]Attendance, error)
		DeleteAttendanceByID(ids ...string) error
	}

	Service interface {
		Mark(ma MarkAttendance, day time.Time, markedBy string) (Attendance, error)
		GetByID(id string) (Attendance, error)
		Query(filter *QueryFilter, orderings ...core.DBOrdering) ([]Attendance, error)
		Delete(ids ...string) error
	}

	service struct {
		repo    Repository
		stdRepo student.Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, stdRepo student.Repository) Service {
	return &service{repo: repo, stdRepo: stdRepo}
}

func (svc *service) Mark(ma MarkAttendance, day time.Time, markedBy string) (Attendance, error) {
	std, err := svc.stdRepo.GetStudentByID(ma.StudentID)
	if err != nil {
		return Attendance{}, err
	}

	att := Attendance{
		StudentID: std.ID,
		ClassRoom: std.ClassRoom,
		Day:       day,
		Status:    ma.Status,
		MarkedBy:  markedBy,
		Notes:     null.NewString(ma.Notes, ma.Notes != ""),
		CreatedAt: time.Now().UTC(),
	}
	return svc.repo.UpsertAttendance(att)
}

func (svc *service) GetByID(id string) (Attendance, error) {
	return svc.repo.GetAttendanceByID(id)
}

func (svc *service) Query(filter *QueryFilter, orderings ...core.DBOrdering) ([]Attendance, error) {
	if filter == nil {
		filter = new(QueryFilter)
	}
	return svc.repo.FilterAttendance(*filter, orderings...)
}

func (svc *service) Delete(ids ...string) error {
	return svc.repo.DeleteAttendanceByID(ids...)
}
