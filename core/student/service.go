package student

import (
	"time"

	"github.com/pkg/errors"

	"github.com/tkabeya/darasa/core"
)

var (
	// errors
	ErrNotFound   = errors.New("student not found")
	ErrCodeExists = errors.New("a student with this code already exists")
)

type (
	Repository interface {
		CheckCodeUniqueness(code string, excludedStudents ...Student) error
		CreateStudent(std Student) (Student, error)
		QueryAllStudents() ([]Student, error)
		GetStudentByID(id string) (Student, error)
		GetStudentByCode(code string) (Student, error)
		// FilterStudents applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of FirstName, LastName or Code.
		FilterStudents(filter QueryFilter, orderings ...core.DBOrdering) ([]Student, error)
		UpdateStudent(std Student, isActive *bool) (Student, error)
		DeleteStudentsByID(ids ...string) error
	}

	Service interface {
		CheckCodeUniqueness(code string, exclStudents ...Student) error
		Create(ns NewStudent) (Student, error)
		QueryAll() ([]Student, error)
		GetByID(id string) (Student, error)
		GetByCode(code string) (Student, error)
		Query(filter *QueryFilter, orderings ...core.DBOrdering) ([]Student, error)
		Update(id string, us UpdateStudent) (Student, error)
		Delete(ids ...string) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) CheckCodeUniqueness(code string, exclStudents ...Student) error {
	if err := svc.repo.CheckCodeUniqueness(code, exclStudents...); err != nil {
		if errors.Cause(err) == ErrCodeExists {
			return core.NewValidationError(err, core.FieldError{Field: "code", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) Create(ns NewStudent) (Student, error) {
	now := time.Now().UTC()
	std := Student{
		Code:       ns.Code,
		FirstName:  ns.FirstName,
		LastName:   ns.LastName,
		ClassRoom:  ns.ClassRoom,
		GuardianID: ns.GuardianID,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return svc.repo.CreateStudent(std)
}

func (svc *service) QueryAll() ([]Student, error) {
	return svc.repo.QueryAllStudents()
}

func (svc *service) GetByID(id string) (Student, error) {
	return svc.repo.GetStudentByID(id)
}

func (svc *service) GetByCode(code string) (Student, error) {
	return svc.repo.GetStudentByCode(core.CleanString(code, true /* lower */))
}

func (svc *service) Query(filter *QueryFilter, orderings ...core.DBOrdering) ([]Student, error) {
	if filter == nil || filter.IsEmpty() {
		if len(orderings) == 0 {
			return svc.repo.QueryAllStudents()
		}
		filter = new(QueryFilter)
	}
	return svc.repo.FilterStudents(*filter, orderings...)
}

func (svc *service) Update(id string, us UpdateStudent) (Student, error) {
	std := Student{
		ID:         id,
		Code:       us.Code,
		FirstName:  us.FirstName,
		LastName:   us.LastName,
		ClassRoom:  us.ClassRoom,
		GuardianID: us.GuardianID,
		UpdatedAt:  time.Now().UTC(),
	}
	return svc.repo.UpdateStudent(std, us.IsActive)
}

func (svc *service) Delete(ids ...string) error {
	return svc.repo.DeleteStudentsByID(ids...)
}
