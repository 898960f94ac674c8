package grade

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tkabeya/darasa/core"
)

type Grade struct {
	ID         string    `json:"id" db:"id"`
	StudentID  string    `json:"student_id" db:"student_id"`
	Subject    string    `json:"subject" db:"subject"`
	ClassRoom  string    `json:"class_room" db:"class_room"`
	Term       string    `json:"term" db:"term"`
	Score      float64   `json:"score" db:"score"`
	MaxScore   float64   `json:"max_score" db:"max_score"`
	RecordedBy string    `json:"recorded_by" db:"recorded_by"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"` // UTC
}

// Percent returns the score as a percentage of MaxScore.
func (g *Grade) Percent() float64 {
	if g.MaxScore == 0 {
		return 0
	}
	return g.Score / g.MaxScore * 100
}

// NewGrade contains information needed to record a student's assessment score.
type NewGrade struct {
	StudentID string  `json:"student_id" validate:"required,uuid4"`
	Subject   string  `json:"subject" validate:"required"`
	Term      string  `json:"term" validate:"required"`
	Score     float64 `json:"score" validate:"gte=0"`
	MaxScore  float64 `json:"max_score" validate:"omitempty,gt=0,gtefield=Score"`
}

func (ng *NewGrade) Validate(validate *validator.Validate) error {
	ng.Subject = core.CleanString(ng.Subject)
	ng.Term = core.CleanString(ng.Term)
	if ng.MaxScore == 0 {
		ng.MaxScore = 100
	}
	return validate.Struct(ng)
}

// UpdateGrade defines what information may be provided to correct an existing Grade.
type UpdateGrade struct {
	Score    *float64 `json:"score" validate:"omitempty,gte=0"`
	MaxScore *float64 `json:"max_score" validate:"omitempty,gt=0"`
}

func (ug *UpdateGrade) Validate(validate *validator.Validate) error {
	return validate.Struct(ug)
}

type QueryFilter struct {
	StudentID string `query:"student_id"`
	ClassRoom string `query:"class_room"`
	Subject   string `query:"subject"`
	Term      string `query:"term"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.StudentID == "" && qf.ClassRoom == "" && qf.Subject == "" && qf.Term == ""
}

func (qf *QueryFilter) Clean() {
	qf.ClassRoom = core.CleanString(qf.ClassRoom)
	qf.Subject = core.CleanString(qf.Subject)
	qf.Term = core.CleanString(qf.Term)
}
