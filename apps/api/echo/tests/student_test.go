package tests

import (
	"net/http"
	"testing"

	"github.com/tkabeya/darasa/core/student"
	"github.com/tkabeya/darasa/core/user"
	testutil "github.com/tkabeya/darasa/tests"
)

func Test_studentApi_create(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin1", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher1", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	parent := testutil.CreateUser(t, usrRepo, "Parent", "parent1", "parent@test.cd", "", []string{user.RoleParent}, true)
	testutil.CreateStudent(t, stdRepo, "std_001", "Amani", "Kazadi", "P5-A", parent.ID)

	newStd := func(code string) []byte {
		return marchallObj(t, student.NewStudent{Code: code, FirstName: "Neema", LastName: "Mwamba", ClassRoom: "P5-A", GuardianID: parent.ID})
	}

	tests := []httpTest{
		{name: "Auth required", body: newStd("std_002"), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Admin required", body: newStd("std_002"), token: getToken(t, teacher), wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied)},
		{name: "Parents forbidden", body: newStd("std_002"), token: getToken(t, parent), wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied)},
		{
			name: "required fields", body: marchallObj(t, student.NewStudent{}), token: getToken(t, admin), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"code":       "this field is required",
				"first_name": "this field is required",
				"last_name":  "this field is required",
			}),
		},
		{
			name: "code must be alphanumeric", body: newStd("std-002"), token: getToken(t, admin), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"code": "only alphanumeric characters and underscores are allowed"}),
		},
		{
			name: "duplicate code", body: newStd("std_001"), token: getToken(t, admin), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"code": student.ErrCodeExists.Error()}),
		},
		{name: "Student created", body: newStd("std_002"), token: getToken(t, admin), wantCode: http.StatusCreated},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/students"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				if _, err := stdRepo.GetStudentByCode("std_002"); err != nil {
					t.Errorf("GetStudentByCode() failed: %v", err)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_studentApi_query(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin1", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher1", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	parent := testutil.CreateUser(t, usrRepo, "Parent", "parent1", "parent@test.cd", "", []string{user.RoleParent}, true)

	ward1 := testutil.CreateStudent(t, stdRepo, "std_001", "Amani", "Kazadi", "P5-A", parent.ID)
	ward2 := testutil.CreateStudent(t, stdRepo, "std_003", "Neema", "Kazadi", "P6-B", parent.ID)
	other := testutil.CreateStudent(t, stdRepo, "std_002", "Bahati", "Ilunga", "P5-A", "")

	tests := []httpTest{
		{name: "Auth required", path: "/v1/students", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Admin sees all", path: "/v1/students", token: getToken(t, admin), wantData: marchallList(t, ward1, other, ward2)},
		{name: "Teacher sees all", path: "/v1/students", token: getToken(t, teacher), wantData: marchallList(t, ward1, other, ward2)},
		{name: "Parent sees own wards only", path: "/v1/students", token: getToken(t, parent), wantData: marchallList(t, ward1, ward2)},
		{name: "Parent cannot widen the filter", path: "/v1/students?guardian_id=", token: getToken(t, parent), wantData: marchallList(t, ward1, ward2)},
		{name: "search", path: "/v1/students?search=bahati", token: getToken(t, admin), wantData: marchallList(t, other)},
		{name: "filter by class room", path: "/v1/students?class_room=P5-A", token: getToken(t, admin), wantData: marchallList(t, ward1, other)},
		{name: "parent + class room filter", path: "/v1/students?class_room=P5-A", token: getToken(t, parent), wantData: marchallList(t, ward1)},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_studentApi_detail(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin1", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	parent := testutil.CreateUser(t, usrRepo, "Parent", "parent1", "parent@test.cd", "", []string{user.RoleParent}, true)
	otherParent := testutil.CreateUser(t, usrRepo, "Other", "parent2", "other@test.cd", "", []string{user.RoleParent}, true)

	ward := testutil.CreateStudent(t, stdRepo, "std_001", "Amani", "Kazadi", "P5-A", parent.ID)

	tests := []httpTest{
		{name: "Guardian can retrieve", method: http.MethodGet, path: "/v1/students/" + ward.ID, token: getToken(t, parent), wantCode: http.StatusOK, wantData: marchallObj(t, ward)},
		{name: "Other parent gets 404", method: http.MethodGet, path: "/v1/students/" + ward.ID, token: getToken(t, otherParent), wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
		{name: "Update: admin required", method: http.MethodPut, path: "/v1/students/" + ward.ID, body: marchallObj(t, student.UpdateStudent{ClassRoom: "P6-B"}), token: getToken(t, parent), wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied)},
		{name: "Delete: admin required", method: http.MethodDelete, path: "/v1/students/" + ward.ID, token: getToken(t, otherParent), wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied)},
		{name: "Unknown student", method: http.MethodGet, path: "/v1/students/00000000-0000-0000-0000-000000000000", token: getToken(t, admin), wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("Admin can update", func(t *testing.T) {
		body := marchallObj(t, student.UpdateStudent{ClassRoom: "P6-B"})
		req, rec := newAuthRequest(http.MethodPut, "/v1/students/"+ward.ID, getToken(t, admin), body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
		}
		refreshed, err := stdRepo.GetStudentByID(ward.ID)
		if err != nil {
			t.Fatalf("GetStudentByID() failed: %v", err)
		}
		if refreshed.ClassRoom != "P6-B" {
			t.Errorf("failed! ClassRoom = %s; want P6-B", refreshed.ClassRoom)
		}
	})
}
