package attendance

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/tkabeya/darasa/core"
)

// Statuses
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusLate    = "late"
	StatusExcused = "excused"
)

var AllStatuses = []string{StatusPresent, StatusAbsent, StatusLate, StatusExcused}

// DayFormat is the wire format of an attendance day.
const DayFormat = "2006-01-02"

type Attendance struct {
	ID        string      `json:"id" db:"id"`
	StudentID string      `json:"student_id" db:"student_id"`
	ClassRoom string      `json:"class_room" db:"class_room"`
	Day       time.Time   `json:"day" db:"day"`
	Status    string      `json:"status" db:"status"`
	MarkedBy  string      `json:"marked_by" db:"marked_by"`
	Notes     null.String `json:"notes,omitempty" db:"notes"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"` // UTC
}

// MarkAttendance contains information needed to mark a student's attendance
// for a day. Marking the same student and day again replaces the earlier mark.
type MarkAttendance struct {
	StudentID string `json:"student_id" validate:"required,uuid4"`
	Day       string `json:"day" validate:"required"`
	Status    string `json:"status" validate:"required,oneof=present absent late excused"`
	Notes     string `json:"notes"`
}

func (ma *MarkAttendance) Validate(validate *validator.Validate) (time.Time, error) {
	ma.Notes = core.CleanString(ma.Notes)
	if err := validate.Struct(ma); err != nil {
		return time.Time{}, err
	}
	day, err := time.Parse(DayFormat, ma.Day)
	if err != nil {
		return time.Time{}, core.NewValidationError(err, core.FieldError{Field: "day", Error: "must be a valid date in YYYY-MM-DD format"})
	}
	return day, nil
}

type QueryFilter struct {
	StudentID string `query:"student_id"`
	ClassRoom string `query:"class_room"`
	Status    string `query:"status"`
	DayFrom   string `query:"day_from"`
	DayTo     string `query:"day_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.StudentID == "" && qf.ClassRoom == "" && qf.Status == "" && qf.DayFrom == "" && qf.DayTo == ""
}

func (qf *QueryFilter) Clean() {
	qf.ClassRoom = core.CleanString(qf.ClassRoom)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}
