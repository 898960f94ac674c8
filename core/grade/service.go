package grade

import (
	"time"

	"github.com/pkg/errors"

	"github.com/tkabeya/darasa/core"
	"github.com/tkabeya/darasa/core/student"
)

var (
	// errors
	ErrNotFound = errors.New("grade not found")
)

type (
	Repository interface {
		CreateGrade(g Grade) (Grade, error)
		GetGradeByID(id string) (Grade, error)
		FilterGrades(filter QueryFilter, orderings ...core.DBOrdering) ([]Grade, error)
		UpdateGrade(g Grade) (Grade, error)
		DeleteGradesByID(ids ...string) error
	}

	Service interface {
		Record(ng NewGrade, recordedBy string) (Grade, error)
		GetByID(id string) (Grade, error)
		Query(filter *QueryFilter, orderings ...core.DBOrdering) ([]Grade, error)
		Update(id string, ug UpdateGrade) (Grade, error)
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

func (svc *service) Record(ng NewGrade, recordedBy string) (Grade, error) {
	std, err := svc.stdRepo.GetStudentByID(ng.StudentID)
	if err != nil {
		return Grade{}, err
	}

	now := time.Now().UTC()
	g := Grade{
		StudentID:  std.ID,
		Subject:    ng.Subject,
		ClassRoom:  std.ClassRoom,
		Term:       ng.Term,
		Score:      ng.Score,
		MaxScore:   ng.MaxScore,
		RecordedBy: recordedBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return svc.repo.CreateGrade(g)
}

func (svc *service) GetByID(id string) (Grade, error) {
	return svc.repo.GetGradeByID(id)
}

func (svc *service) Query(filter *QueryFilter, orderings ...core.DBOrdering) ([]Grade, error) {
	if filter == nil {
		filter = new(QueryFilter)
	}
	return svc.repo.FilterGrades(*filter, orderings...)
}

func (svc *service) Update(id string, ug UpdateGrade) (Grade, error) {
	g, err := svc.repo.GetGradeByID(id)
	if err != nil {
		return Grade{}, err
	}
	if ug.Score != nil {
		g.Score = *ug.Score
	}
	if ug.MaxScore != nil {
		g.MaxScore = *ug.MaxScore
	}
	if g.Score > g.MaxScore {
		return Grade{}, core.NewValidationError(nil, core.FieldError{Field: "score", Error: "score cannot exceed max_score"})
	}
	g.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateGrade(g)
}

func (svc *service) Delete(ids ...string) error {
	return svc.repo.DeleteGradesByID(ids...)
}
