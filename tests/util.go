package testutil

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tkabeya/darasa/core"
	"github.com/tkabeya/darasa/core/billing"
	"github.com/tkabeya/darasa/core/student"
	"github.com/tkabeya/darasa/core/user"
)

// NewTestConfig returns a Config suitable for tests.
func NewTestConfig() *core.Config {
	return &core.Config{
		Debug:           false,
		TestMode:        true,
		Env:             "test",
		AppName:         "Darasa",
		SecretKey:       "s3cr3t-t3st-k3y",
		FrontendBaseURL: "http://localhost:8080",
		DefaultFromName: "Darasa",
		DefaultFromAddress: "noreply@darasa.test",
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		Server: core.ServerConfig{
			Host:                      "localhost",
			Addr:                      ":8000",
			ShutdownTimeout:           5 * time.Second,
			JWTExpirationDelta:        7 * 24 * time.Hour,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
	}
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateStudent(
	t *testing.T,
	repo student.Repository,
	code, firstName, lastName, classRoom, guardianID string,
) student.Student {
	now := time.Now().UTC()
	std := student.Student{
		Code:       code,
		FirstName:  firstName,
		LastName:   lastName,
		ClassRoom:  classRoom,
		GuardianID: guardianID,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	std, err := repo.CreateStudent(std)
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return std
}

func CreateBillingRecord(
	t *testing.T,
	repo billing.Repository,
	studentID, period string,
	totalAmount decimal.Decimal,
) billing.BillingRecord {
	now := time.Now().UTC()
	rec := billing.BillingRecord{
		StudentID:   studentID,
		Period:      period,
		TotalAmount: totalAmount,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	rec = billing.Reconcile(rec)
	rec, err := repo.CreateRecord(rec)
	if err != nil {
		t.Fatalf("CreateBillingRecord() failed: %v", err)
	}
	return rec
}
