package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func entries(amounts ...string) []PaymentEntry {
	res := make([]PaymentEntry, 0, len(amounts))
	for i, a := range amounts {
		res = append(res, PaymentEntry{
			ReceiptNumber: "rcp-" + string(rune('a'+i)),
			Amount:        dec(a),
			Method:        MethodCash,
		})
	}
	return res
}

func TestReconcile(t *testing.T) {
	tests := []struct {
		name           string
		total          string
		amounts        []string
		wantAmountPaid string
		wantBalance    string
		wantStatus     Status
	}{
		{
			name: "no payments", total: "15000", amounts: nil,
			wantAmountPaid: "0", wantBalance: "15000", wantStatus: StatusPending,
		},
		{
			name: "paid in full", total: "15000", amounts: []string{"15000"},
			wantAmountPaid: "15000", wantBalance: "0", wantStatus: StatusPaid,
		},
		{
			name: "partial across entries", total: "15000", amounts: []string{"5000", "5000"},
			wantAmountPaid: "10000", wantBalance: "5000", wantStatus: StatusPartial,
		},
		{
			name: "overpayment clamps balance", total: "15000", amounts: []string{"20000"},
			wantAmountPaid: "20000", wantBalance: "0", wantStatus: StatusPaid,
		},
		{
			name: "paid in installments", total: "15000", amounts: []string{"7500", "2500", "5000"},
			wantAmountPaid: "15000", wantBalance: "0", wantStatus: StatusPaid,
		},
		{
			name: "small partial", total: "15000", amounts: []string{"0.01"},
			wantAmountPaid: "0.01", wantBalance: "14999.99", wantStatus: StatusPartial,
		},
		{
			name: "zero total with no payments", total: "0", amounts: nil,
			wantAmountPaid: "0", wantBalance: "0", wantStatus: StatusPending,
		},
		{
			name: "zero total with payment", total: "0", amounts: []string{"100"},
			wantAmountPaid: "100", wantBalance: "0", wantStatus: StatusPaid,
		},
		{
			name: "cent amounts add up exactly", total: "0.30", amounts: []string{"0.10", "0.10", "0.10"},
			wantAmountPaid: "0.30", wantBalance: "0", wantStatus: StatusPaid,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Reconcile(BillingRecord{
				TotalAmount: dec(tt.total),
				Payments:    entries(tt.amounts...),
			})

			assert.True(t, rec.AmountPaid.Equal(dec(tt.wantAmountPaid)),
				"AmountPaid = %s; want %s", rec.AmountPaid, tt.wantAmountPaid)
			assert.True(t, rec.Balance.Equal(dec(tt.wantBalance)),
				"Balance = %s; want %s", rec.Balance, tt.wantBalance)
			assert.Equal(t, tt.wantStatus, rec.Status)
			assert.Len(t, rec.Payments, len(tt.amounts))
		})
	}
}

// Reconcile must not read previously stored derived fields; records whose
// stored summary drifted from their entries come out corrected.
func TestReconcile_ignoresStoredDerivedFields(t *testing.T) {
	rec := BillingRecord{
		TotalAmount: dec("15000"),
		AmountPaid:  dec("999999"),
		Balance:     dec("-42"),
		Status:      StatusPaid,
		Payments:    entries("5000"),
	}
	rec = Reconcile(rec)

	assert.True(t, rec.AmountPaid.Equal(dec("5000")))
	assert.True(t, rec.Balance.Equal(dec("10000")))
	assert.Equal(t, StatusPartial, rec.Status)
}

func TestReconcile_idempotent(t *testing.T) {
	rec := BillingRecord{
		TotalAmount: dec("15000"),
		Payments:    entries("5000", "2500"),
	}
	once := Reconcile(rec)
	twice := Reconcile(once)

	assert.True(t, once.AmountPaid.Equal(twice.AmountPaid))
	assert.True(t, once.Balance.Equal(twice.Balance))
	assert.Equal(t, once.Status, twice.Status)
	assert.Equal(t, once.Payments, twice.Payments)
}

// Any status is reachable from any other in a single call; paid is not terminal.
func TestReconcile_statusRegression(t *testing.T) {
	rec := BillingRecord{
		TotalAmount: dec("15000"),
		Payments:    entries("15000"),
	}
	rec = Reconcile(rec)
	assert.Equal(t, StatusPaid, rec.Status)

	// deleting the only entry moves paid -> pending directly
	rec.Payments = nil
	rec = Reconcile(rec)
	assert.Equal(t, StatusPending, rec.Status)
	assert.True(t, rec.AmountPaid.IsZero())
	assert.True(t, rec.Balance.Equal(dec("15000")))
}
