package billing

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/tkabeya/darasa/core"
)

// Status classifies how much of a billing record's total has been collected.
type Status string

const (
	StatusPending Status = "pending"
	StatusPartial Status = "partial"
	StatusPaid    Status = "paid"
)

// Payment methods
const (
	MethodCash         = "cash"
	MethodMobileMoney  = "mobile_money"
	MethodBankTransfer = "bank_transfer"
	MethodCard         = "card"
)

var AllMethods = []string{MethodCash, MethodMobileMoney, MethodBankTransfer, MethodCard}

// DateFormat is the wire format of a payment date.
const DateFormat = "2006-01-02"

// PaymentEntry is a single payment recorded against a BillingRecord. Entries
// are immutable once created; corrections are modeled as delete + re-add.
type PaymentEntry struct {
	ReceiptNumber string          `json:"receipt_number" db:"receipt_number"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	PaidAt        time.Time       `json:"paid_at" db:"paid_at"`
	Method        string          `json:"method" db:"method"`
	ReceivedBy    string          `json:"received_by" db:"received_by"`
	Notes         null.String     `json:"notes,omitempty" db:"notes"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"` // UTC
}

// BillingRecord bills a student for a period. AmountPaid, Balance and Status
// are derived from Payments by Reconcile and are never set independently.
type BillingRecord struct {
	ID          string          `json:"id" db:"id"`
	StudentID   string          `json:"student_id" db:"student_id"`
	Period      string          `json:"period" db:"period"` // eg. "2026-01"
	TotalAmount decimal.Decimal `json:"total_amount" db:"total_amount"`
	AmountPaid  decimal.Decimal `json:"amount_paid" db:"amount_paid"`
	Balance     decimal.Decimal `json:"balance" db:"balance"`
	Status      Status          `json:"status" db:"status"`
	Payments    []PaymentEntry  `json:"payments" db:"-"` // insertion order
	CreatedAt   time.Time       `json:"created_at" db:"created_at"` // UTC
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"` // UTC
}

// Overpaid reports whether more than the total due has been collected.
func (rec *BillingRecord) Overpaid() bool {
	return rec.AmountPaid.GreaterThan(rec.TotalAmount)
}

// NewBillingRecord contains information needed to bill a student for a period.
type NewBillingRecord struct {
	StudentID   string          `json:"student_id" validate:"required,uuid4"`
	Period      string          `json:"period" validate:"required,period"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

func (nb *NewBillingRecord) Validate(validate *validator.Validate, svc Service) error {
	nb.Period = core.CleanString(nb.Period)

	if err := validate.Struct(nb); err != nil {
		return err
	}
	if nb.TotalAmount.IsNegative() {
		return core.NewValidationError(nil, core.FieldError{Field: "total_amount", Error: "total amount cannot be negative"})
	}
	return svc.CheckPeriodUniqueness(nb.StudentID, nb.Period)
}

// NewPaymentEntry contains information needed to record a payment against a
// billing record. ReceiptNumber is optional; one is generated when omitted.
type NewPaymentEntry struct {
	Amount        decimal.Decimal `json:"amount"`
	PaidAt        string          `json:"paid_at" validate:"omitempty"`
	Method        string          `json:"method" validate:"required,oneof=cash mobile_money bank_transfer card"`
	ReceiptNumber string          `json:"receipt_number" validate:"omitempty,max=40"`
	Notes         string          `json:"notes"`
}

func (np *NewPaymentEntry) Validate(validate *validator.Validate) (time.Time, error) {
	np.ReceiptNumber = core.CleanString(np.ReceiptNumber, true /* lower */)
	np.Notes = core.CleanString(np.Notes)

	if err := validate.Struct(np); err != nil {
		return time.Time{}, err
	}
	if !np.Amount.IsPositive() {
		return time.Time{}, core.NewValidationError(ErrInvalidAmount, core.FieldError{Field: "amount", Error: ErrInvalidAmount.Error()})
	}

	paidAt := time.Now().UTC()
	if np.PaidAt != "" {
		var err error
		if paidAt, err = time.Parse(DateFormat, np.PaidAt); err != nil {
			return time.Time{}, core.NewValidationError(err, core.FieldError{Field: "paid_at", Error: "must be a valid date in YYYY-MM-DD format"})
		}
	}
	return paidAt, nil
}

type QueryFilter struct {
	StudentID string `query:"student_id"`
	Period    string `query:"period"`
	Status    string `query:"status"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.StudentID == "" && qf.Period == "" && qf.Status == ""
}

func (qf *QueryFilter) Clean() {
	qf.Period = core.CleanString(qf.Period)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}
