package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/tkabeya/darasa/apps/api/echo"
	"github.com/tkabeya/darasa/core"
	"github.com/tkabeya/darasa/core/attendance"
	"github.com/tkabeya/darasa/core/billing"
	"github.com/tkabeya/darasa/core/grade"
	"github.com/tkabeya/darasa/core/report"
	"github.com/tkabeya/darasa/core/student"
	"github.com/tkabeya/darasa/core/user"
	emailsvc "github.com/tkabeya/darasa/services/email"
	logsvc "github.com/tkabeya/darasa/services/logger"
	"github.com/tkabeya/darasa/storage/database"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	workDir, err := os.Getwd()
	errAndDie(err)
	conf, err := core.NewConfig(workDir)
	errAndDie(err)

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error("closing database", err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	usrRepo := database.NewUserRepository(db)
	stdRepo := database.NewStudentRepository(db)
	attRepo := database.NewAttendanceRepository(db)
	grdRepo := database.NewGradeRepository(db)
	bilRepo := database.NewBillingRepository(db)
	rptRepo := database.NewReportRepository(db)

	usrSvc := user.NewService(usrRepo, mailSvc, conf)
	stdSvc := student.NewService(stdRepo)
	attSvc := attendance.NewService(attRepo, stdRepo)
	grdSvc := grade.NewService(grdRepo, stdRepo)
	bilSvc := billing.NewService(bilRepo, stdRepo, usrRepo, mailSvc, conf)
	rptSvc := report.NewService(rptRepo)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.RegisterValidators(validate, translator)

	// =========================================================================
	// Start API Service

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	server := echoapi.NewServer(
		&echoapi.Options{
			Conf:           conf,
			Logger:         logger,
			Validate:       validate,
			Translator:     translator,
			SignalShutdown: func() { shutdown <- syscall.SIGTERM },
			UserSvc:        usrSvc,
			StudentSvc:     stdSvc,
			AttendanceSvc:  attSvc,
			GradeSvc:       grdSvc,
			BillingSvc:     bilSvc,
			ReportSvc:      rptSvc,
		},
	)

	go server.Start()

	// =========================================================================
	// Shutdown

	sig := <-shutdown
	logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

	// give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer cancel()

	if err = server.Stop(ctx); err != nil {
		logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB); err != nil {
		return nil, err
	}
	return db, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func errAndDie(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
