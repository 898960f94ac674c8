package database

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/tkabeya/darasa/core"
	"github.com/tkabeya/darasa/core/billing"
)

type billingRepository struct {
	db *sqlx.DB
}

var _ billing.Repository = (*billingRepository)(nil)

func NewBillingRepository(db *sqlx.DB) billing.Repository {
	return &billingRepository{db: db}
}

const (
	recordColumns  = `id, student_id, period, total_amount, amount_paid, balance, status, created_at, updated_at`
	paymentColumns = `receipt_number, amount, paid_at, method, received_by, notes, created_at`
)

func (repo billingRepository) CreateRecord(rec billing.BillingRecord) (billing.BillingRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	query := `
	INSERT INTO billing_record (id, student_id, period, total_amount, amount_paid, balance, status, created_at, updated_at)
	VALUES (:id, :student_id, :period, :total_amount, :amount_paid, :balance, :status, :created_at, :updated_at)`
	if _, err := repo.db.NamedExec(query, rec); err != nil {
		return rec, errors.Wrap(err, "creating billing record")
	}
	return rec, nil
}

func (repo billingRepository) GetRecordByID(id string) (billing.BillingRecord, error) {
	return repo.getRecord(`SELECT `+recordColumns+` FROM billing_record WHERE id = $1`, id)
}

func (repo billingRepository) GetRecordByStudentAndPeriod(studentID, period string) (billing.BillingRecord, error) {
	return repo.getRecord(
		`SELECT `+recordColumns+` FROM billing_record WHERE student_id = $1 AND period = $2`,
		studentID, period,
	)
}

func (repo billingRepository) FilterRecords(filter billing.QueryFilter, orderings ...core.DBOrdering) ([]billing.BillingRecord, error) {
	var conditions []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.StudentID != "" {
		conditions = append(conditions, "student_id = "+arg(filter.StudentID))
	}
	if filter.Period != "" {
		conditions = append(conditions, "period = "+arg(filter.Period))
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = "+arg(filter.Status))
	}

	query := `SELECT ` + recordColumns + ` FROM billing_record`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += orderingClause(orderings, "period DESC, created_at DESC")

	var recs []billing.BillingRecord
	if err := repo.db.Select(&recs, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying billing records")
	}
	for i := range recs {
		payments, err := repo.queryPayments(recs[i].ID)
		if err != nil {
			return nil, err
		}
		recs[i].Payments = payments
	}
	return recs, nil
}

// SaveRecord persists the record's summary fields and replaces its payments
// list in a single transaction.
func (repo billingRepository) SaveRecord(rec billing.BillingRecord) (billing.BillingRecord, error) {
	tx, err := repo.db.Beginx()
	if err != nil {
		return rec, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	query := `
	UPDATE billing_record
	SET total_amount = :total_amount, amount_paid = :amount_paid, balance = :balance,
	    status = :status, updated_at = :updated_at
	WHERE id = :id`
	res, err := tx.NamedExec(query, rec)
	if err != nil {
		return rec, errors.Wrap(err, "updating billing record")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return rec, billing.ErrNotFound
	}

	if _, err = tx.Exec(`DELETE FROM payment_entry WHERE record_id = $1`, rec.ID); err != nil {
		return rec, errors.Wrap(err, "clearing payments")
	}
	insert := `
	INSERT INTO payment_entry (record_id, receipt_number, amount, paid_at, method, received_by, notes, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for _, p := range rec.Payments {
		_, err = tx.Exec(insert, rec.ID, p.ReceiptNumber, p.Amount, p.PaidAt, p.Method, p.ReceivedBy, p.Notes, p.CreatedAt)
		if err != nil {
			return rec, errors.Wrap(err, "inserting payment")
		}
	}

	if err = tx.Commit(); err != nil {
		return rec, errors.Wrap(err, "committing transaction")
	}
	return rec, nil
}

func (repo billingRepository) DeleteRecordsByID(ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM billing_record WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "preparing billing record delete")
	}
	if _, err := repo.db.Exec(repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deleting billing records")
	}
	return nil
}

func (repo billingRepository) getRecord(query string, args ...interface{}) (billing.BillingRecord, error) {
	var rec billing.BillingRecord
	if err := repo.db.Get(&rec, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return rec, billing.ErrNotFound
		}
		return rec, errors.Wrap(err, "getting billing record")
	}
	payments, err := repo.queryPayments(rec.ID)
	if err != nil {
		return rec, err
	}
	rec.Payments = payments
	return rec, nil
}

func (repo billingRepository) queryPayments(recordID string) ([]billing.PaymentEntry, error) {
	var payments []billing.PaymentEntry
	query := `SELECT ` + paymentColumns + ` FROM payment_entry WHERE record_id = $1 ORDER BY position`
	if err := repo.db.Select(&payments, query, recordID); err != nil {
		return nil, errors.Wrap(err, "querying payments")
	}
	return payments, nil
}
