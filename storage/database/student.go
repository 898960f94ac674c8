package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/tkabeya/darasa/core"
	"github.com/tkabeya/darasa/core/student"
)

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *sqlx.DB) student.Repository {
	return &studentRepository{db: db}
}

type studentRow struct {
	student.Student
	GuardianID sql.NullString `db:"guardian_id"`
}

func (r studentRow) model() student.Student {
	std := r.Student
	if r.GuardianID.Valid {
		std.GuardianID = r.GuardianID.String
	}
	return std
}

func nullGuardianID(id string) sql.NullString {
	return sql.NullString{String: id, Valid: id != ""}
}

const studentColumns = `id, code, first_name, last_name, class_room, guardian_id, is_active, created_at, updated_at`

func (repo studentRepository) CheckCodeUniqueness(code string, excludedStudents ...student.Student) error {
	query := `SELECT COUNT(1) FROM student WHERE LOWER(code) = LOWER($1)`
	args := []interface{}{code}
	if len(excludedStudents) > 0 {
		ids := make([]string, len(excludedStudents))
		for i, std := range excludedStudents {
			ids[i] = std.ID
		}
		query += ` AND id != ALL($2)`
		args = append(args, pq.Array(ids))
	}
	var count int
	if err := repo.db.Get(&count, query, args...); err != nil {
		return errors.Wrap(err, "checking student code uniqueness")
	}
	if count > 0 {
		return student.ErrCodeExists
	}
	return nil
}

func (repo studentRepository) CreateStudent(std student.Student) (student.Student, error) {
	if std.ID == "" {
		std.ID = uuid.NewString()
	}
	query := `
	INSERT INTO student (id, code, first_name, last_name, class_room, guardian_id, is_active, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := repo.db.Exec(query,
		std.ID, std.Code, std.FirstName, std.LastName, std.ClassRoom,
		nullGuardianID(std.GuardianID), std.IsActive, std.CreatedAt, std.UpdatedAt,
	)
	if err != nil {
		return std, errors.Wrap(err, "creating student")
	}
	return std, nil
}

func (repo studentRepository) QueryAllStudents() ([]student.Student, error) {
	return repo.queryStudents(`SELECT `+studentColumns+` FROM student ORDER BY code`, nil)
}

func (repo studentRepository) GetStudentByID(id string) (student.Student, error) {
	return repo.getStudent(`SELECT `+studentColumns+` FROM student WHERE id = $1`, id)
}

func (repo studentRepository) GetStudentByCode(code string) (student.Student, error) {
	return repo.getStudent(`SELECT `+studentColumns+` FROM student WHERE LOWER(code) = LOWER($1)`, code)
}

func (repo studentRepository) FilterStudents(filter student.QueryFilter, orderings ...core.DBOrdering) ([]student.Student, error) {
	var conditions []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		conditions = append(conditions, fmt.Sprintf("(first_name ILIKE %s OR last_name ILIKE %s OR code ILIKE %s)", p, p, p))
	}
	if filter.ClassRoom != "" {
		conditions = append(conditions, "class_room = "+arg(filter.ClassRoom))
	}
	if filter.GuardianID != "" {
		conditions = append(conditions, "guardian_id = "+arg(filter.GuardianID))
	}
	if filter.IsActive != nil {
		conditions = append(conditions, "is_active = "+arg(*filter.IsActive))
	}

	query := `SELECT ` + studentColumns + ` FROM student`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += orderingClause(orderings, "code ASC")
	return repo.queryStudents(query, args)
}

func (repo studentRepository) UpdateStudent(std student.Student, isActive *bool) (student.Student, error) {
	sets := []string{"updated_at = $2"}
	args := []interface{}{std.ID, time.Now().UTC()}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if std.Code != "" {
		sets = append(sets, "code = "+arg(std.Code))
	}
	if std.FirstName != "" {
		sets = append(sets, "first_name = "+arg(std.FirstName))
	}
	if std.LastName != "" {
		sets = append(sets, "last_name = "+arg(std.LastName))
	}
	if std.ClassRoom != "" {
		sets = append(sets, "class_room = "+arg(std.ClassRoom))
	}
	if std.GuardianID != "" {
		sets = append(sets, "guardian_id = "+arg(std.GuardianID))
	}
	if isActive != nil {
		sets = append(sets, "is_active = "+arg(*isActive))
	}

	query := `UPDATE student SET ` + strings.Join(sets, ", ") + ` WHERE id = $1`
	res, err := repo.db.Exec(query, args...)
	if err != nil {
		return std, errors.Wrap(err, "updating student")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return std, student.ErrNotFound
	}
	return repo.GetStudentByID(std.ID)
}

func (repo studentRepository) DeleteStudentsByID(ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM student WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "preparing student delete")
	}
	if _, err := repo.db.Exec(repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deleting students")
	}
	return nil
}

func (repo studentRepository) getStudent(query string, args ...interface{}) (student.Student, error) {
	var row studentRow
	if err := repo.db.Get(&row, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, errors.Wrap(err, "getting student")
	}
	return row.model(), nil
}

func (repo studentRepository) queryStudents(query string, args []interface{}) ([]student.Student, error) {
	var rows []studentRow
	if err := repo.db.Select(&rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	students := make([]student.Student, len(rows))
	for i, row := range rows {
		students[i] = row.model()
	}
	return students, nil
}
