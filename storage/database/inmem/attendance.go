package inmemdb

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/tkabeya/darasa/core"
	"github.com/tkabeya/darasa/core/attendance"
)

type attendanceRepository struct {
	db *attendanceTable
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db.attendance}
}

func (repo *attendanceRepository) query() []attendance.Attendance {
	atts := make([]attendance.Attendance, 0, len(repo.db.table))
	for _, att := range repo.db.table {
		atts = append(atts, *att)
	}
	sort.Slice(atts, func(i, j int) bool {
		if atts[i].Day.Equal(atts[j].Day) {
			return atts[i].CreatedAt.After(atts[j].CreatedAt)
		}
		return atts[i].Day.After(atts[j].Day)
	})
	return atts
}

func (repo *attendanceRepository) UpsertAttendance(att attendance.Attendance) (attendance.Attendance, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	// same student and day replaces the earlier mark
	for id, existing := range repo.db.table {
		if existing.StudentID == att.StudentID && existing.Day.Equal(att.Day) {
			att.ID = id
			att.CreatedAt = existing.CreatedAt
			repo.db.table[id] = &att
			return att, nil
		}
	}
	if att.ID == "" {
		att.ID = uuid.NewString()
	}
	repo.db.table[att.ID] = &att
	return att, nil
}

func (repo *attendanceRepository) GetAttendanceByID(id string) (attendance.Attendance, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if att, ok := repo.db.table[id]; ok {
		return *att, nil
	}
	return attendance.Attendance{}, attendance.ErrNotFound
}

func (repo *attendanceRepository) FilterAttendance(filter attendance.QueryFilter, orderings ...core.DBOrdering) ([]attendance.Attendance, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var dayFrom, dayTo time.Time
	var err error
	if filter.DayFrom != "" {
		if dayFrom, err = time.Parse(attendance.DayFormat, filter.DayFrom); err != nil {
			return nil, err
		}
	}
	if filter.DayTo != "" {
		if dayTo, err = time.Parse(attendance.DayFormat, filter.DayTo); err != nil {
			return nil, err
		}
	}

	var atts []attendance.Attendance
	for _, att := range repo.query() {
		if filter.StudentID != "" && att.StudentID != filter.StudentID {
			continue
		}
		if filter.ClassRoom != "" && att.ClassRoom != filter.ClassRoom {
			continue
		}
		if filter.Status != "" && att.Status != filter.Status {
			continue
		}
		if !dayFrom.IsZero() && att.Day.Before(dayFrom) {
			continue
		}
		if !dayTo.IsZero() && att.Day.After(dayTo) {
			continue
		}
		atts = append(atts, att)
	}
	return atts, nil
}

func (repo *attendanceRepository) DeleteAttendanceByID(ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}
