package tests

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkabeya/darasa/core/attendance"
	"github.com/tkabeya/darasa/core/billing"
	"github.com/tkabeya/darasa/core/grade"
	"github.com/tkabeya/darasa/core/report"
	"github.com/tkabeya/darasa/core/user"
	testutil "github.com/tkabeya/darasa/tests"
)

func Test_reportApi_accessControl(t *testing.T) {
	app := setup(t)

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher1", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	parent := testutil.CreateUser(t, usrRepo, "Parent", "parent1", "parent@test.cd", "", []string{user.RoleParent}, true)

	tests := []httpTest{
		{name: "payments: auth required", path: "/v1/reports/payments", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "payments: admin required", path: "/v1/reports/payments", token: getToken(t, teacher), wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied)},
		{name: "attendance: staff required", path: "/v1/reports/attendance", token: getToken(t, parent), wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied)},
		{name: "grades: staff required", path: "/v1/reports/grades", token: getToken(t, parent), wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied)},
		{name: "attendance: teachers allowed", path: "/v1/reports/attendance", token: getToken(t, teacher), wantCode: http.StatusOK, wantData: marchallList(t, []interface{}{}...)},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_reportApi_paymentSummaries(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin1", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	parent := testutil.CreateUser(t, usrRepo, "Parent", "parent1", "parent@test.cd", "", []string{user.RoleParent}, true)
	std1 := testutil.CreateStudent(t, stdRepo, "std-001", "Amani", "Kazadi", "P5-A", parent.ID)
	std2 := testutil.CreateStudent(t, stdRepo, "std-002", "Bahati", "Ilunga", "P5-A", parent.ID)

	// one fully paid, one untouched for January; one partial for February
	paid := testutil.CreateBillingRecord(t, bilRepo, std1.ID, "2026-01", dec(t, "10000"))
	paid.Payments = append(paid.Payments, billing.PaymentEntry{
		ReceiptNumber: "rcp-001", Amount: dec(t, "10000"), PaidAt: time.Now().UTC(), Method: billing.MethodCash, CreatedAt: time.Now().UTC(),
	})
	if _, err := bilRepo.SaveRecord(billing.Reconcile(paid)); err != nil {
		t.Fatalf("SaveRecord(): %v", err)
	}
	testutil.CreateBillingRecord(t, bilRepo, std2.ID, "2026-01", dec(t, "10000"))

	partial := testutil.CreateBillingRecord(t, bilRepo, std1.ID, "2026-02", dec(t, "10000"))
	partial.Payments = append(partial.Payments, billing.PaymentEntry{
		ReceiptNumber: "rcp-002", Amount: dec(t, "4000"), PaidAt: time.Now().UTC(), Method: billing.MethodCash, CreatedAt: time.Now().UTC(),
	})
	if _, err := bilRepo.SaveRecord(billing.Reconcile(partial)); err != nil {
		t.Fatalf("SaveRecord(): %v", err)
	}

	req, rec := newAuthRequest(http.MethodGet, "/v1/reports/payments", getToken(t, admin))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var summaries []report.PaymentSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
	require.Len(t, summaries, 2) // newest period first

	feb, jan := summaries[0], summaries[1]

	assert.Equal(t, "2026-02", feb.Period)
	assert.Equal(t, 1, feb.RecordCount)
	assert.Equal(t, 1, feb.PartialCount)
	assert.True(t, feb.TotalBilled.Equal(dec(t, "10000")))
	assert.True(t, feb.TotalCollected.Equal(dec(t, "4000")))
	assert.True(t, feb.TotalOutstanding.Equal(dec(t, "6000")))

	assert.Equal(t, "2026-01", jan.Period)
	assert.Equal(t, 2, jan.RecordCount)
	assert.Equal(t, 1, jan.PendingCount)
	assert.Equal(t, 1, jan.PaidCount)
	assert.True(t, jan.TotalBilled.Equal(dec(t, "20000")))
	assert.True(t, jan.TotalCollected.Equal(dec(t, "10000")))
	assert.True(t, jan.TotalOutstanding.Equal(dec(t, "10000")))

	// filter on a single period
	req, rec = newAuthRequest(http.MethodGet, "/v1/reports/payments?period=2026-01", getToken(t, admin))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, "2026-01", summaries[0].Period)
}

func Test_reportApi_attendanceSummaries(t *testing.T) {
	app := setup(t)

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher1", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	std := testutil.CreateStudent(t, stdRepo, "std-001", "Amani", "Kazadi", "P5-A", "")

	day := func(s string) time.Time {
		d, err := time.Parse(attendance.DayFormat, s)
		if err != nil {
			t.Fatalf("time.Parse(): %v", err)
		}
		return d
	}
	for _, att := range []attendance.Attendance{
		{StudentID: std.ID, ClassRoom: "P5-A", Day: day("2026-03-02"), Status: attendance.StatusPresent, MarkedBy: teacher.ID},
		{StudentID: std.ID, ClassRoom: "P5-A", Day: day("2026-03-03"), Status: attendance.StatusLate, MarkedBy: teacher.ID},
		{StudentID: std.ID, ClassRoom: "P5-A", Day: day("2026-03-04"), Status: attendance.StatusAbsent, MarkedBy: teacher.ID},
		{StudentID: std.ID, ClassRoom: "P5-A", Day: day("2026-03-05"), Status: attendance.StatusExcused, MarkedBy: teacher.ID},
		{StudentID: std.ID, ClassRoom: "P5-A", Day: day("2026-04-01"), Status: attendance.StatusPresent, MarkedBy: teacher.ID},
	} {
		att.CreatedAt = time.Now().UTC()
		if _, err := attRepo.UpsertAttendance(att); err != nil {
			t.Fatalf("UpsertAttendance(): %v", err)
		}
	}

	req, rec := newAuthRequest(http.MethodGet, "/v1/reports/attendance?class_room=P5-A&month=2026-03", getToken(t, teacher))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var summaries []report.AttendanceSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
	require.Len(t, summaries, 1)

	sum := summaries[0]
	assert.Equal(t, "P5-A", sum.ClassRoom)
	assert.Equal(t, "2026-03", sum.Month)
	assert.Equal(t, 4, sum.TotalCount)
	assert.Equal(t, 1, sum.PresentCount)
	assert.Equal(t, 1, sum.LateCount)
	assert.Equal(t, 1, sum.AbsentCount)
	assert.Equal(t, 1, sum.ExcusedCount)
	assert.InDelta(t, 0.5, sum.PresentRate, 1e-9) // late counts as present

	// without the month filter both months come back, newest first
	req, rec = newAuthRequest(http.MethodGet, "/v1/reports/attendance", getToken(t, teacher))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
	require.Len(t, summaries, 2)
	assert.Equal(t, "2026-04", summaries[0].Month)
	assert.Equal(t, "2026-03", summaries[1].Month)
}

func Test_reportApi_subjectAverages(t *testing.T) {
	app := setup(t)

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher1", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	std := testutil.CreateStudent(t, stdRepo, "std-001", "Amani", "Kazadi", "P5-A", "")

	for _, g := range []grade.Grade{
		{StudentID: std.ID, Subject: "Math", ClassRoom: "P5-A", Term: "2026-T1", Score: 15, MaxScore: 20, RecordedBy: teacher.ID},
		{StudentID: std.ID, Subject: "Math", ClassRoom: "P5-A", Term: "2026-T1", Score: 10, MaxScore: 20, RecordedBy: teacher.ID},
		{StudentID: std.ID, Subject: "French", ClassRoom: "P5-A", Term: "2026-T1", Score: 18, MaxScore: 20, RecordedBy: teacher.ID},
	} {
		now := time.Now().UTC()
		g.CreatedAt, g.UpdatedAt = now, now
		if _, err := grdRepo.CreateGrade(g); err != nil {
			t.Fatalf("CreateGrade(): %v", err)
		}
	}

	req, rec := newAuthRequest(http.MethodGet, "/v1/reports/grades?class_room=P5-A&term=2026-T1", getToken(t, teacher))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var averages []report.SubjectAverage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &averages))
	require.Len(t, averages, 2) // sorted by subject

	assert.Equal(t, "French", averages[0].Subject)
	assert.Equal(t, 1, averages[0].GradeCount)
	assert.InDelta(t, 90.0, averages[0].AveragePercent, 1e-9)

	assert.Equal(t, "Math", averages[1].Subject)
	assert.Equal(t, 2, averages[1].GradeCount)
	assert.InDelta(t, 62.5, averages[1].AveragePercent, 1e-9)
}
