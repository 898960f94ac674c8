package echoapi

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	ut "github.com/go-playground/universal-translator"

	"github.com/tkabeya/darasa/core"
	"github.com/tkabeya/darasa/core/attendance"
	"github.com/tkabeya/darasa/core/billing"
	"github.com/tkabeya/darasa/core/grade"
	"github.com/tkabeya/darasa/core/report"
	"github.com/tkabeya/darasa/core/student"
	"github.com/tkabeya/darasa/core/user"
)

type (
	Options struct {
		Conf           *core.Config
		Logger         core.Logger
		Validate       *validator.Validate
		Translator     ut.Translator
		DisableReqLogs bool
		SignalShutdown func()

		UserSvc       user.Service
		StudentSvc    student.Service
		AttendanceSvc attendance.Service
		GradeSvc      grade.Service
		BillingSvc    billing.Service
		ReportSvc     report.Service
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.opts.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator, s.opts.SignalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(newJWTConfig(conf))

	registerUserAPI(v1, jwt, conf, s.opts.UserSvc, s.opts.Validate)
	registerStudentAPI(v1, jwt, s.opts.StudentSvc, s.opts.Validate)
	registerAttendanceAPI(v1, jwt, s.opts.AttendanceSvc, s.opts.StudentSvc, s.opts.Validate)
	registerGradeAPI(v1, jwt, s.opts.GradeSvc, s.opts.StudentSvc, s.opts.Validate)
	registerBillingAPI(v1, jwt, s.opts.BillingSvc, s.opts.StudentSvc, s.opts.Validate)
	registerReportAPI(v1, jwt, s.opts.ReportSvc)
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Conf.Server.Addr))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Darasa API!")
}
