package billing

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/tkabeya/darasa/core"
	"github.com/tkabeya/darasa/core/student"
	"github.com/tkabeya/darasa/core/user"
)

var (
	// errors
	ErrNotFound        = errors.New("billing record not found")
	ErrReceiptNotFound = errors.New("no payment with this receipt number on this record")
	ErrReceiptExists   = errors.New("a payment with this receipt number already exists on this record")
	ErrPeriodBilled    = errors.New("the student has already been billed for this period")
	ErrInvalidAmount   = errors.New("payment amount must be greater than zero")
)

type (
	Repository interface {
		CreateRecord(rec BillingRecord) (BillingRecord, error)
		// GetRecordByID returns the record with its full payments list in insertion order.
		GetRecordByID(id string) (BillingRecord, error)
		GetRecordByStudentAndPeriod(studentID, period string) (BillingRecord, error)
		FilterRecords(filter QueryFilter, orderings ...core.DBOrdering) ([]BillingRecord, error)
		// SaveRecord persists the record's derived summary fields and payments list.
		SaveRecord(rec BillingRecord) (BillingRecord, error)
		DeleteRecordsByID(ids ...string) error
	}

	Service interface {
		CheckPeriodUniqueness(studentID, period string) error
		Create(nb NewBillingRecord) (BillingRecord, error)
		GetByID(id string) (BillingRecord, error)
		Query(filter *QueryFilter, orderings ...core.DBOrdering) ([]BillingRecord, error)
		// AddPayment appends a payment entry, reconciles and persists the record.
		AddPayment(recordID string, np NewPaymentEntry, paidAt time.Time, receivedBy string) (BillingRecord, error)
		// RemovePayment deletes the entry with the given receipt number,
		// reconciles and persists the record.
		RemovePayment(recordID, receiptNumber string) (BillingRecord, error)
		Delete(ids ...string) error
	}

	service struct {
		repo    Repository
		stdRepo student.Repository
		usrRepo user.Repository
		mailSvc core.EmailService
		conf    *core.Config
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, stdRepo student.Repository, usrRepo user.Repository, mailSvc core.EmailService, conf *core.Config) Service {
	return &service{
		repo:    repo,
		stdRepo: stdRepo,
		usrRepo: usrRepo,
		mailSvc: mailSvc,
		conf:    conf,
	}
}

// NewReceiptNumber generates a server-side receipt number.
func NewReceiptNumber() string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "rcp-" + id[:12]
}

func (svc *service) CheckPeriodUniqueness(studentID, period string) error {
	if _, err := svc.repo.GetRecordByStudentAndPeriod(studentID, period); err == nil {
		return core.NewValidationError(ErrPeriodBilled, core.FieldError{Field: "period", Error: ErrPeriodBilled.Error()})
	} else if errors.Cause(err) != ErrNotFound {
		return err
	}
	return nil
}

func (svc *service) Create(nb NewBillingRecord) (BillingRecord, error) {
	if _, err := svc.stdRepo.GetStudentByID(nb.StudentID); err != nil {
		return BillingRecord{}, err
	}

	now := time.Now().UTC()
	rec := BillingRecord{
		StudentID:   nb.StudentID,
		Period:      nb.Period,
		TotalAmount: nb.TotalAmount,
		Payments:    []PaymentEntry{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	rec = Reconcile(rec)
	return svc.repo.CreateRecord(rec)
}

func (svc *service) GetByID(id string) (BillingRecord, error) {
	rec, err := svc.repo.GetRecordByID(id)
	if err != nil {
		return BillingRecord{}, err
	}
	// never trust stored derived fields
	return Reconcile(rec), nil
}

func (svc *service) Query(filter *QueryFilter, orderings ...core.DBOrdering) ([]BillingRecord, error) {
	if filter == nil {
		filter = new(QueryFilter)
	}
	recs, err := svc.repo.FilterRecords(*filter, orderings...)
	if err != nil {
		return nil, err
	}
	for i, rec := range recs {
		recs[i] = Reconcile(rec)
	}
	return recs, nil
}

func (svc *service) AddPayment(recordID string, np NewPaymentEntry, paidAt time.Time, receivedBy string) (BillingRecord, error) {
	rec, entry, err := svc.addPayment(recordID, np, paidAt, receivedBy)
	if err != nil {
		return BillingRecord{}, err
	}
	go svc.sendReceiptMail(rec, entry)
	return rec, nil
}

func (svc *service) addPayment(recordID string, np NewPaymentEntry, paidAt time.Time, receivedBy string) (BillingRecord, PaymentEntry, error) {
	rec, err := svc.repo.GetRecordByID(recordID)
	if err != nil {
		return BillingRecord{}, PaymentEntry{}, err
	}

	receipt := np.ReceiptNumber
	if receipt == "" {
		receipt = NewReceiptNumber()
	}
	for _, p := range rec.Payments {
		if p.ReceiptNumber == receipt {
			return BillingRecord{}, PaymentEntry{},
				core.NewValidationError(ErrReceiptExists, core.FieldError{Field: "receipt_number", Error: ErrReceiptExists.Error()})
		}
	}

	entry := PaymentEntry{
		ReceiptNumber: receipt,
		Amount:        np.Amount,
		PaidAt:        paidAt,
		Method:        np.Method,
		ReceivedBy:    receivedBy,
		Notes:         null.NewString(np.Notes, np.Notes != ""),
		CreatedAt:     time.Now().UTC(),
	}
	rec.Payments = append(rec.Payments, entry)
	rec = Reconcile(rec)
	rec.UpdatedAt = time.Now().UTC()

	rec, err = svc.repo.SaveRecord(rec)
	if err != nil {
		return BillingRecord{}, PaymentEntry{}, err
	}
	return rec, entry, nil
}

func (svc *service) RemovePayment(recordID, receiptNumber string) (BillingRecord, error) {
	rec, err := svc.repo.GetRecordByID(recordID)
	if err != nil {
		return BillingRecord{}, err
	}

	idx := -1
	for i, p := range rec.Payments {
		if p.ReceiptNumber == receiptNumber {
			idx = i
			break
		}
	}
	if idx < 0 {
		return BillingRecord{}, ErrReceiptNotFound
	}

	rec.Payments = append(rec.Payments[:idx], rec.Payments[idx+1:]...)
	rec = Reconcile(rec)
	rec.UpdatedAt = time.Now().UTC()
	return svc.repo.SaveRecord(rec)
}

func (svc *service) Delete(ids ...string) error {
	return svc.repo.DeleteRecordsByID(ids...)
}

func (svc *service) sendReceiptMail(rec BillingRecord, entry PaymentEntry) {
	std, err := svc.stdRepo.GetStudentByID(rec.StudentID)
	if err != nil || std.GuardianID == "" {
		return
	}
	guardian, err := svc.usrRepo.GetUserByID(std.GuardianID)
	if err != nil || guardian.Email == "" {
		return
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: guardian.Name, Address: guardian.Email}},
		Subject:      "Payment received - " + rec.Period,
		TemplateName: "payment-receipt",
		TemplateData: struct {
			GuardianName  string
			StudentName   string
			Period        string
			ReceiptNumber string
			Amount        string
			Method        string
			TotalAmount   string
			AmountPaid    string
			Balance       string
			Status        string
			Overpaid      bool
			OverpaidBy    string
		}{
			GuardianName:  guardian.Name,
			StudentName:   std.FullName(),
			Period:        rec.Period,
			ReceiptNumber: entry.ReceiptNumber,
			Amount:        entry.Amount.StringFixed(2),
			Method:        entry.Method,
			TotalAmount:   rec.TotalAmount.StringFixed(2),
			AmountPaid:    rec.AmountPaid.StringFixed(2),
			Balance:       rec.Balance.StringFixed(2),
			Status:        string(rec.Status),
			Overpaid:      rec.Overpaid(),
			OverpaidBy:    rec.AmountPaid.Sub(rec.TotalAmount).StringFixed(2),
		},
	})
}
