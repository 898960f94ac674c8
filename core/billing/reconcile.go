package billing

import "github.com/shopspring/decimal"

// Reconcile recomputes a record's derived payment summary (AmountPaid, Balance
// and Status) from scratch off its TotalAmount and current Payments list,
// ignoring whatever derived values the record carried in. It is pure and
// idempotent; Payments are returned untouched.
//
// Classification, first match wins:
//   - nothing collected        -> pending, balance = total
//   - collected >= total       -> paid, balance forced to exactly 0
//     (an overpayment keeps its true AmountPaid; the balance never goes negative)
//   - otherwise                -> partial, balance = total - collected
func Reconcile(rec BillingRecord) BillingRecord {
	amountPaid := decimal.Zero
	for _, p := range rec.Payments {
		amountPaid = amountPaid.Add(p.Amount)
	}
	rec.AmountPaid = amountPaid

	switch {
	case amountPaid.LessThanOrEqual(decimal.Zero):
		rec.Status = StatusPending
		rec.Balance = rec.TotalAmount.Sub(amountPaid)
	case amountPaid.GreaterThanOrEqual(rec.TotalAmount):
		rec.Status = StatusPaid
		rec.Balance = decimal.Zero
	default:
		rec.Status = StatusPartial
		rec.Balance = rec.TotalAmount.Sub(amountPaid)
	}
	return rec
}
