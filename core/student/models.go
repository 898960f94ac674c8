package student

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tkabeya/darasa/core"
)

type Student struct {
	ID         string    `json:"id" db:"id"`
	Code       string    `json:"code" db:"code"`
	FirstName  string    `json:"first_name" db:"first_name"`
	LastName   string    `json:"last_name" db:"last_name"`
	ClassRoom  string    `json:"class_room" db:"class_room"`
	GuardianID string    `json:"guardian_id,omitempty" db:"guardian_id"`
	IsActive   bool      `json:"is_active" db:"is_active"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"` // UTC
}

func (s *Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

// NewStudent contains information needed to register a new Student.
type NewStudent struct {
	Code       string `json:"code" validate:"required,alphanum_"`
	FirstName  string `json:"first_name" validate:"required"`
	LastName   string `json:"last_name" validate:"required"`
	ClassRoom  string `json:"class_room" validate:"omitempty"`
	GuardianID string `json:"guardian_id" validate:"omitempty,uuid4"`
}

func (ns *NewStudent) Validate(validate *validator.Validate, svc Service) error {
	ns.Code = core.CleanString(ns.Code, true /* lower */)
	ns.FirstName = core.CleanString(ns.FirstName)
	ns.LastName = core.CleanString(ns.LastName)
	ns.ClassRoom = core.CleanString(ns.ClassRoom)

	if err := validate.Struct(ns); err != nil {
		return err
	}
	return svc.CheckCodeUniqueness(ns.Code)
}

// UpdateStudent defines what information may be provided to modify an existing Student.
type UpdateStudent struct {
	Code       string `json:"code" validate:"omitempty,alphanum_"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	ClassRoom  string `json:"class_room"`
	GuardianID string `json:"guardian_id" validate:"omitempty,uuid4"`
	IsActive   *bool  `json:"is_active"`
}

func (us *UpdateStudent) Validate(orig Student, validate *validator.Validate, svc Service) error {
	code := core.CleanString(us.Code, true /* lower */)
	if code != "" {
		us.Code = code
	} else {
		us.Code = orig.Code
	}

	name := core.CleanString(us.FirstName)
	if name != "" {
		us.FirstName = name
	} else {
		us.FirstName = orig.FirstName
	}

	name = core.CleanString(us.LastName)
	if name != "" {
		us.LastName = name
	} else {
		us.LastName = orig.LastName
	}

	if err := validate.Struct(us); err != nil {
		return err
	}
	if us.Code != orig.Code {
		return svc.CheckCodeUniqueness(us.Code)
	}
	return nil
}

type QueryFilter struct {
	Search     string `query:"search"`
	ClassRoom  string `query:"class_room"`
	GuardianID string `query:"guardian_id"`
	IsActive   *bool  `query:"is_active"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.ClassRoom == "" && qf.GuardianID == "" && qf.IsActive == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.ClassRoom = core.CleanString(qf.ClassRoom)
}
