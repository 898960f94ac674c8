package tests

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkabeya/darasa/core/billing"
	"github.com/tkabeya/darasa/core/user"
	emailsvc "github.com/tkabeya/darasa/services/email"
	testutil "github.com/tkabeya/darasa/tests"
)

func dec(t *testing.T, s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("dec(): %v", err)
	}
	return d
}

func Test_billingApi_accessControl(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin1", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher1", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	parent := testutil.CreateUser(t, usrRepo, "Parent", "parent1", "parent@test.cd", "", []string{user.RoleParent}, true)
	otherParent := testutil.CreateUser(t, usrRepo, "Other", "parent2", "other@test.cd", "", []string{user.RoleParent}, true)

	ward := testutil.CreateStudent(t, stdRepo, "std-001", "Amani", "Kazadi", "P5-A", parent.ID)
	rec := testutil.CreateBillingRecord(t, bilRepo, ward.ID, "2026-01", dec(t, "15000"))

	newRec := marchallObj(t, billing.NewBillingRecord{StudentID: ward.ID, Period: "2026-02", TotalAmount: dec(t, "15000")})
	payment := marchallObj(t, map[string]interface{}{"amount": "5000", "method": "cash"})

	tests := []httpTest{
		{name: "query: auth required", method: http.MethodGet, path: "/v1/billing", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "create: admin required", method: http.MethodPost, path: "/v1/billing", body: newRec, token: getToken(t, teacher), wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied)},
		{name: "create: parents forbidden", method: http.MethodPost, path: "/v1/billing", body: newRec, token: getToken(t, parent), wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied)},
		{name: "add payment: admin required", method: http.MethodPost, path: "/v1/billing/" + rec.ID + "/payments", body: payment, token: getToken(t, teacher), wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied)},
		{name: "remove payment: admin required", method: http.MethodDelete, path: "/v1/billing/" + rec.ID + "/payments/rcp-lol", token: getToken(t, parent), wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied)},
		{name: "retrieve: guardian allowed", method: http.MethodGet, path: "/v1/billing/" + rec.ID, token: getToken(t, parent), wantCode: http.StatusOK, wantData: marchallObj(t, rec)},
		{name: "retrieve: other parent gets 404", method: http.MethodGet, path: "/v1/billing/" + rec.ID, token: getToken(t, otherParent), wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
		{name: "retrieve: teacher allowed", method: http.MethodGet, path: "/v1/billing/" + rec.ID, token: getToken(t, teacher), wantCode: http.StatusOK, wantData: marchallObj(t, rec)},
		{name: "retrieve: unknown record", method: http.MethodGet, path: "/v1/billing/00000000-0000-0000-0000-000000000000", token: getToken(t, admin), wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, resp := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(resp, req)
			checkCodeAndData(t, tt, resp)
		})
	}
}

func Test_billingApi_paymentLifecycle(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin1", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	parent := testutil.CreateUser(t, usrRepo, "Parent", "parent1", "parent@test.cd", "", []string{user.RoleParent}, true)
	ward := testutil.CreateStudent(t, stdRepo, "std-001", "Amani", "Kazadi", "P5-A", parent.ID)
	rec := testutil.CreateBillingRecord(t, bilRepo, ward.ID, "2026-01", dec(t, "15000"))

	adminToken := getToken(t, admin)

	do := func(method, path string, body []byte) (*billing.BillingRecord, int) {
		req, resp := newAuthRequest(method, path, adminToken, body)
		app.ServeHTTP(resp, req)
		if resp.Code >= http.StatusBadRequest {
			return nil, resp.Code
		}
		var out billing.BillingRecord
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
		return &out, resp.Code
	}

	paymentsPath := "/v1/billing/" + rec.ID + "/payments"

	// a student cannot be billed twice for the same period
	_, code := do(http.MethodPost, "/v1/billing", marchallObj(t, billing.NewBillingRecord{
		StudentID: ward.ID, Period: "2026-01", TotalAmount: dec(t, "15000"),
	}))
	assert.Equal(t, http.StatusBadRequest, code)

	// billing an unknown student is a 404
	_, code = do(http.MethodPost, "/v1/billing", marchallObj(t, billing.NewBillingRecord{
		StudentID: "6b1e1b2e-0000-4000-8000-000000000000", Period: "2026-03", TotalAmount: dec(t, "15000"),
	}))
	assert.Equal(t, http.StatusNotFound, code)

	// fresh record is pending with full balance
	assert.Equal(t, billing.StatusPending, rec.Status)
	assert.True(t, rec.Balance.Equal(dec(t, "15000")))

	// partial payment
	out, code := do(http.MethodPost, paymentsPath, marchallObj(t, map[string]interface{}{
		"amount": "5000", "method": "cash", "receipt_number": "rcp-aaa",
	}))
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, billing.StatusPartial, out.Status)
	assert.True(t, out.AmountPaid.Equal(dec(t, "5000")))
	assert.True(t, out.Balance.Equal(dec(t, "10000")))

	// receipt email goes to the guardian
	require.NotEmpty(t, emailsvc.SentMessages)
	msg := emailsvc.SentMessages[len(emailsvc.SentMessages)-1]
	require.Len(t, msg.To, 1)
	assert.Equal(t, parent.Email, msg.To[0].Address)
	assert.Contains(t, msg.TextContent, "rcp-aaa")

	// duplicate receipt number is rejected
	_, code = do(http.MethodPost, paymentsPath, marchallObj(t, map[string]interface{}{
		"amount": "1000", "method": "cash", "receipt_number": "rcp-aaa",
	}))
	assert.Equal(t, http.StatusBadRequest, code)

	// non-positive amounts are rejected
	for _, amount := range []string{"0", "-50"} {
		_, code = do(http.MethodPost, paymentsPath, marchallObj(t, map[string]interface{}{
			"amount": amount, "method": "cash",
		}))
		assert.Equal(t, http.StatusBadRequest, code)
	}

	// settle the rest; receipt number is generated server-side
	out, code = do(http.MethodPost, paymentsPath, marchallObj(t, map[string]interface{}{
		"amount": "10000", "method": "mobile_money",
	}))
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, billing.StatusPaid, out.Status)
	assert.True(t, out.Balance.IsZero())
	require.Len(t, out.Payments, 2)
	generated := out.Payments[1].ReceiptNumber
	assert.True(t, strings.HasPrefix(generated, "rcp-"))

	// overpayment keeps the true amount paid but clamps balance to zero
	out, code = do(http.MethodPost, paymentsPath, marchallObj(t, map[string]interface{}{
		"amount": "2000", "method": "card", "receipt_number": "rcp-over",
	}))
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, billing.StatusPaid, out.Status)
	assert.True(t, out.AmountPaid.Equal(dec(t, "17000")))
	assert.True(t, out.Balance.IsZero())

	// removing an unknown receipt is a 404
	_, code = do(http.MethodDelete, paymentsPath+"/rcp-nope", nil)
	assert.Equal(t, http.StatusNotFound, code)

	// corrections are delete + re-add; status regresses accordingly
	out, code = do(http.MethodDelete, paymentsPath+"/rcp-over", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, billing.StatusPaid, out.Status)
	assert.True(t, out.AmountPaid.Equal(dec(t, "15000")))

	out, code = do(http.MethodDelete, paymentsPath+"/"+generated, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, billing.StatusPartial, out.Status)
	assert.True(t, out.Balance.Equal(dec(t, "10000")))

	out, code = do(http.MethodDelete, paymentsPath+"/rcp-aaa", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, billing.StatusPending, out.Status)
	assert.True(t, out.AmountPaid.IsZero())
	assert.True(t, out.Balance.Equal(dec(t, "15000")))
}

func Test_billingApi_parentQueryScoping(t *testing.T) {
	app := setup(t)

	parent := testutil.CreateUser(t, usrRepo, "Parent", "parent1", "parent@test.cd", "", []string{user.RoleParent}, true)
	otherParent := testutil.CreateUser(t, usrRepo, "Other", "parent2", "other@test.cd", "", []string{user.RoleParent}, true)

	ward := testutil.CreateStudent(t, stdRepo, "std-001", "Amani", "Kazadi", "P5-A", parent.ID)
	otherWard := testutil.CreateStudent(t, stdRepo, "std-002", "Bahati", "Ilunga", "P5-A", otherParent.ID)

	rec := testutil.CreateBillingRecord(t, bilRepo, ward.ID, "2026-01", dec(t, "15000"))
	testutil.CreateBillingRecord(t, bilRepo, otherWard.ID, "2026-01", dec(t, "15000"))

	req, resp := newAuthRequest(http.MethodGet, "/v1/billing", getToken(t, parent))
	app.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)

	var recs []billing.BillingRecord
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, rec.ID, recs[0].ID)
	assert.Equal(t, ward.ID, recs[0].StudentID)
}
