// Package inmemdb provides in-memory implementations of the storage
// repositories, used by tests and local development.
package inmemdb

import (
	"sync"

	"github.com/tkabeya/darasa/core/attendance"
	"github.com/tkabeya/darasa/core/billing"
	"github.com/tkabeya/darasa/core/grade"
	"github.com/tkabeya/darasa/core/student"
	"github.com/tkabeya/darasa/core/user"
)

type (
	DB struct {
		user       *userTable
		student    *studentTable
		attendance *attendanceTable
		grade      *gradeTable
		billing    *billingTable
	}

	userTable struct {
		table map[string]*user.User
		mutex sync.RWMutex
	}

	studentTable struct {
		table map[string]*student.Student
		mutex sync.RWMutex
	}

	attendanceTable struct {
		table map[string]*attendance.Attendance
		mutex sync.RWMutex
	}

	gradeTable struct {
		table map[string]*grade.Grade
		mutex sync.RWMutex
	}

	billingTable struct {
		table map[string]*billing.BillingRecord
		mutex sync.RWMutex
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:       &userTable{table: make(map[string]*user.User)},
		student:    &studentTable{table: make(map[string]*student.Student)},
		attendance: &attendanceTable{table: make(map[string]*attendance.Attendance)},
		grade:      &gradeTable{table: make(map[string]*grade.Grade)},
		billing:    &billingTable{table: make(map[string]*billing.BillingRecord)},
	}
	return db, nil
}
