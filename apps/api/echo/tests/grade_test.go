package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkabeya/darasa/core/grade"
	"github.com/tkabeya/darasa/core/user"
	testutil "github.com/tkabeya/darasa/tests"
)

func Test_gradeApi_record(t *testing.T) {
	app := setup(t)

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher1", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	parent := testutil.CreateUser(t, usrRepo, "Parent", "parent1", "parent@test.cd", "", []string{user.RoleParent}, true)
	ward := testutil.CreateStudent(t, stdRepo, "std_001", "Amani", "Kazadi", "P5-A", parent.ID)

	newGrade := marchallObj(t, grade.NewGrade{StudentID: ward.ID, Subject: "Math", Term: "2026-T1", Score: 15, MaxScore: 20})

	tests := []httpTest{
		{name: "Auth required", body: newGrade, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Staff required", body: newGrade, token: getToken(t, parent), wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied)},
		{
			name: "required fields", body: marchallObj(t, grade.NewGrade{}), token: getToken(t, teacher), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"student_id": "this field is required",
				"subject":    "this field is required",
				"term":       "this field is required",
			}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/grades"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("Grade recorded", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/grades", getToken(t, teacher), newGrade)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)

		var g grade.Grade
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &g))
		assert.Equal(t, "P5-A", g.ClassRoom) // class room comes from the student record
		assert.Equal(t, teacher.ID, g.RecordedBy)
		assert.InDelta(t, 75.0, g.Percent(), 1e-9)
	})

	t.Run("MaxScore defaults to 100", func(t *testing.T) {
		body := marchallObj(t, grade.NewGrade{StudentID: ward.ID, Subject: "French", Term: "2026-T1", Score: 80})
		req, rec := newAuthRequest(http.MethodPost, "/v1/grades", getToken(t, teacher), body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)

		var g grade.Grade
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &g))
		assert.Equal(t, 100.0, g.MaxScore)
	})
}

func Test_gradeApi_queryAndUpdate(t *testing.T) {
	app := setup(t)

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher1", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin1", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	parent := testutil.CreateUser(t, usrRepo, "Parent", "parent1", "parent@test.cd", "", []string{user.RoleParent}, true)
	ward := testutil.CreateStudent(t, stdRepo, "std_001", "Amani", "Kazadi", "P5-A", parent.ID)
	other := testutil.CreateStudent(t, stdRepo, "std_002", "Bahati", "Ilunga", "P5-A", "")

	teacherToken := getToken(t, teacher)
	record := func(studentID, subject string, score float64) grade.Grade {
		body := marchallObj(t, grade.NewGrade{StudentID: studentID, Subject: subject, Term: "2026-T1", Score: score, MaxScore: 20})
		req, rec := newAuthRequest(http.MethodPost, "/v1/grades", teacherToken, body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)
		var g grade.Grade
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &g))
		return g
	}
	wardMath := record(ward.ID, "Math", 15)
	record(other.ID, "Math", 12)

	query := func(token, path string) []grade.Grade {
		req, rec := newAuthRequest(http.MethodGet, path, token)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		var grades []grade.Grade
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &grades))
		return grades
	}

	// staff see everything
	assert.Len(t, query(teacherToken, "/v1/grades"), 2)

	// parents only see their own wards
	grades := query(getToken(t, parent), "/v1/grades")
	require.Len(t, grades, 1)
	assert.Equal(t, wardMath.ID, grades[0].ID)

	t.Run("corrections replace the score", func(t *testing.T) {
		score := 17.0
		body := marchallObj(t, grade.UpdateGrade{Score: &score})
		req, rec := newAuthRequest(http.MethodPut, "/v1/grades/"+wardMath.ID, teacherToken, body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var g grade.Grade
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &g))
		assert.Equal(t, 17.0, g.Score)
		assert.Equal(t, 20.0, g.MaxScore)
	})

	t.Run("delete requires admin", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/grades/"+wardMath.ID, teacherToken)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		req, rec = newAuthRequest(http.MethodDelete, "/v1/grades/"+wardMath.ID, getToken(t, admin))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}
