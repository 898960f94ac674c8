package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkabeya/darasa/core/attendance"
	"github.com/tkabeya/darasa/core/user"
	testutil "github.com/tkabeya/darasa/tests"
)

func Test_attendanceApi_mark(t *testing.T) {
	app := setup(t)

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher1", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	parent := testutil.CreateUser(t, usrRepo, "Parent", "parent1", "parent@test.cd", "", []string{user.RoleParent}, true)
	ward := testutil.CreateStudent(t, stdRepo, "std_001", "Amani", "Kazadi", "P5-A", parent.ID)

	mark := func(studentID, day, status string) []byte {
		return marchallObj(t, attendance.MarkAttendance{StudentID: studentID, Day: day, Status: status})
	}

	tests := []httpTest{
		{name: "Auth required", body: mark(ward.ID, "2026-03-02", "present"), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Staff required", body: mark(ward.ID, "2026-03-02", "present"), token: getToken(t, parent), wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied)},
		{
			name: "invalid status", body: mark(ward.ID, "2026-03-02", "lol"), token: getToken(t, teacher), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"status": "status must be one of [present absent late excused]"}),
		},
		{
			name: "invalid day", body: mark(ward.ID, "lol", "present"), token: getToken(t, teacher), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"day": "must be a valid date in YYYY-MM-DD format"}),
		},
		{
			name: "unknown student", body: mark("6b1e1b2e-0000-4000-8000-000000000000", "2026-03-02", "present"),
			token: getToken(t, teacher), wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/attendance"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("re-marking the same day replaces the earlier mark", func(t *testing.T) {
		teacherToken := getToken(t, teacher)

		req, rec := newAuthRequest(http.MethodPost, "/v1/attendance", teacherToken, mark(ward.ID, "2026-03-02", "absent"))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)

		var first attendance.Attendance
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
		assert.Equal(t, attendance.StatusAbsent, first.Status)
		assert.Equal(t, "P5-A", first.ClassRoom) // class room comes from the student record
		assert.Equal(t, teacher.ID, first.MarkedBy)

		req, rec = newAuthRequest(http.MethodPost, "/v1/attendance", teacherToken, mark(ward.ID, "2026-03-02", "late"))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)

		var second attendance.Attendance
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, attendance.StatusLate, second.Status)

		atts, err := attRepo.FilterAttendance(attendance.QueryFilter{StudentID: ward.ID})
		require.NoError(t, err)
		require.Len(t, atts, 1)
		assert.Equal(t, attendance.StatusLate, atts[0].Status)
	})
}

func Test_attendanceApi_query(t *testing.T) {
	app := setup(t)

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher1", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	parent := testutil.CreateUser(t, usrRepo, "Parent", "parent1", "parent@test.cd", "", []string{user.RoleParent}, true)
	ward := testutil.CreateStudent(t, stdRepo, "std_001", "Amani", "Kazadi", "P5-A", parent.ID)
	other := testutil.CreateStudent(t, stdRepo, "std_002", "Bahati", "Ilunga", "P5-A", "")

	teacherToken := getToken(t, teacher)
	markDay := func(studentID, day, status string) {
		body := marchallObj(t, attendance.MarkAttendance{StudentID: studentID, Day: day, Status: status})
		req, rec := newAuthRequest(http.MethodPost, "/v1/attendance", teacherToken, body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	markDay(ward.ID, "2026-03-02", "present")
	markDay(ward.ID, "2026-03-03", "absent")
	markDay(other.ID, "2026-03-02", "present")

	query := func(token, path string) []attendance.Attendance {
		req, rec := newAuthRequest(http.MethodGet, path, token)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		var atts []attendance.Attendance
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &atts))
		return atts
	}

	// staff see everything, most recent day first
	atts := query(teacherToken, "/v1/attendance")
	require.Len(t, atts, 3)
	assert.Equal(t, "2026-03-03", atts[0].Day.Format(attendance.DayFormat))

	// parents only see their own wards
	atts = query(getToken(t, parent), "/v1/attendance")
	require.Len(t, atts, 2)
	for _, att := range atts {
		assert.Equal(t, ward.ID, att.StudentID)
	}

	// day range filter
	atts = query(teacherToken, "/v1/attendance?day_from=2026-03-03&day_to=2026-03-03")
	require.Len(t, atts, 1)
	assert.Equal(t, attendance.StatusAbsent, atts[0].Status)

	// status filter
	atts = query(teacherToken, "/v1/attendance?status=present")
	require.Len(t, atts, 2)
}
