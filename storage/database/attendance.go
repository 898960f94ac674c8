package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/tkabeya/darasa/core"
	"github.com/tkabeya/darasa/core/attendance"
)

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *sqlx.DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

const attendanceColumns = `id, student_id, class_room, day, status, marked_by, notes, created_at`

func (repo attendanceRepository) UpsertAttendance(att attendance.Attendance) (attendance.Attendance, error) {
	if att.ID == "" {
		att.ID = uuid.NewString()
	}
	query := `
	INSERT INTO attendance (id, student_id, class_room, day, status, marked_by, notes, created_at)
	VALUES (:id, :student_id, :class_room, :day, :status, :marked_by, :notes, :created_at)
	ON CONFLICT (student_id, day) DO UPDATE
	SET class_room = EXCLUDED.class_room,
	    status     = EXCLUDED.status,
	    marked_by  = EXCLUDED.marked_by,
	    notes      = EXCLUDED.notes
	RETURNING ` + attendanceColumns
	rows, err := repo.db.NamedQuery(query, att)
	if err != nil {
		return att, errors.Wrap(err, "upserting attendance")
	}
	defer func() { _ = rows.Close() }()
	if rows.Next() {
		if err = rows.StructScan(&att); err != nil {
			return att, errors.Wrap(err, "scanning attendance")
		}
	}
	return att, nil
}

func (repo attendanceRepository) GetAttendanceByID(id string) (attendance.Attendance, error) {
	var att attendance.Attendance
	if err := repo.db.Get(&att, `SELECT `+attendanceColumns+` FROM attendance WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return att, attendance.ErrNotFound
		}
		return att, errors.Wrap(err, "getting attendance")
	}
	return att, nil
}

func (repo attendanceRepository) FilterAttendance(filter attendance.QueryFilter, orderings ...core.DBOrdering) ([]attendance.Attendance, error) {
	var conditions []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.StudentID != "" {
		conditions = append(conditions, "student_id = "+arg(filter.StudentID))
	}
	if filter.ClassRoom != "" {
		conditions = append(conditions, "class_room = "+arg(filter.ClassRoom))
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = "+arg(filter.Status))
	}
	if filter.DayFrom != "" {
		day, err := time.Parse(attendance.DayFormat, filter.DayFrom)
		if err != nil {
			return nil, errors.Wrap(err, "parsing day_from")
		}
		conditions = append(conditions, "day >= "+arg(day))
	}
	if filter.DayTo != "" {
		day, err := time.Parse(attendance.DayFormat, filter.DayTo)
		if err != nil {
			return nil, errors.Wrap(err, "parsing day_to")
		}
		conditions = append(conditions, "day <= "+arg(day))
	}

	query := `SELECT ` + attendanceColumns + ` FROM attendance`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += orderingClause(orderings, "day DESC, created_at DESC")

	var atts []attendance.Attendance
	if err := repo.db.Select(&atts, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying attendance")
	}
	return atts, nil
}

func (repo attendanceRepository) DeleteAttendanceByID(ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM attendance WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "preparing attendance delete")
	}
	if _, err := repo.db.Exec(repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deleting attendance")
	}
	return nil
}
