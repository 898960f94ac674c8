package report

import "github.com/shopspring/decimal"

// PaymentSummary aggregates billing records of one billing period.
type PaymentSummary struct {
	Period           string          `json:"period" db:"period"`
	RecordCount      int             `json:"record_count" db:"record_count"`
	PendingCount     int             `json:"pending_count" db:"pending_count"`
	PartialCount     int             `json:"partial_count" db:"partial_count"`
	PaidCount        int             `json:"paid_count" db:"paid_count"`
	TotalBilled      decimal.Decimal `json:"total_billed" db:"total_billed"`
	TotalCollected   decimal.Decimal `json:"total_collected" db:"total_collected"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding" db:"total_outstanding"`
}

// AttendanceSummary aggregates attendance marks of one class and month.
type AttendanceSummary struct {
	ClassRoom    string  `json:"class_room" db:"class_room"`
	Month        string  `json:"month" db:"month"` // eg. "2026-01"
	PresentCount int     `json:"present_count" db:"present_count"`
	AbsentCount  int     `json:"absent_count" db:"absent_count"`
	LateCount    int     `json:"late_count" db:"late_count"`
	ExcusedCount int     `json:"excused_count" db:"excused_count"`
	TotalCount   int     `json:"total_count" db:"total_count"`
	PresentRate  float64 `json:"present_rate" db:"present_rate"` // (present + late) / total
}

// SubjectAverage aggregates grades of one subject within a class and term.
type SubjectAverage struct {
	Subject        string  `json:"subject" db:"subject"`
	ClassRoom      string  `json:"class_room" db:"class_room"`
	Term           string  `json:"term" db:"term"`
	AveragePercent float64 `json:"average_percent" db:"average_percent"`
	GradeCount     int     `json:"grade_count" db:"grade_count"`
}
