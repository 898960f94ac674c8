package tests

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/tkabeya/darasa/apps/api/echo"
	"github.com/tkabeya/darasa/core"
	"github.com/tkabeya/darasa/core/attendance"
	"github.com/tkabeya/darasa/core/billing"
	"github.com/tkabeya/darasa/core/grade"
	"github.com/tkabeya/darasa/core/report"
	"github.com/tkabeya/darasa/core/student"
	"github.com/tkabeya/darasa/core/user"
	emailsvc "github.com/tkabeya/darasa/services/email"
	logsvc "github.com/tkabeya/darasa/services/logger"
	inmemdb "github.com/tkabeya/darasa/storage/database/inmem"
	testutil "github.com/tkabeya/darasa/tests"
)

var (
	conf *core.Config

	usrRepo user.Repository
	stdRepo student.Repository
	attRepo attendance.Repository
	grdRepo grade.Repository
	bilRepo billing.Repository

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errPermDenied   = httpErr{Error: "permission denied"}
	errNotFound     = httpErr{Error: "not found"}
)

func setup(t *testing.T) Server {
	t.Helper()

	conf = testutil.NewTestConfig()

	// set up DB & repos
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open(): %v", err)
	}
	usrRepo = inmemdb.NewUserRepository(db)
	stdRepo = inmemdb.NewStudentRepository(db)
	attRepo = inmemdb.NewAttendanceRepository(db)
	grdRepo = inmemdb.NewGradeRepository(db)
	bilRepo = inmemdb.NewBillingRepository(db)
	rptRepo := inmemdb.NewReportRepository(db)

	// set up services
	emailsvc.ClearSentMessages()
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrSvc := user.NewServiceMock(usrRepo, mailSvc, conf)
	stdSvc := student.NewService(stdRepo)
	attSvc := attendance.NewService(attRepo, stdRepo)
	grdSvc := grade.NewService(grdRepo, stdRepo)
	bilSvc := billing.NewServiceMock(bilRepo, stdRepo, usrRepo, mailSvc, conf)
	rptSvc := report.NewService(rptRepo)

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.RegisterValidators(validate, translator)

	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags), conf)
	logger.Enable(false)

	// set up server
	return NewServer(
		&Options{
			Conf:           conf,
			Logger:         logger,
			Validate:       validate,
			Translator:     translator,
			DisableReqLogs: true,
			SignalShutdown: func() {},
			UserSvc:        usrSvc,
			StudentSvc:     stdSvc,
			AttendanceSvc:  attSvc,
			GradeSvc:       grdSvc,
			BillingSvc:     bilSvc,
			ReportSvc:      rptSvc,
		},
	)
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(conf, usr)
	token, err := GenerateToken(conf, claims)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ObjectsAreEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
