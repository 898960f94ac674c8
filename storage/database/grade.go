package database

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/tkabeya/darasa/core"
	"github.com/tkabeya/darasa/core/grade"
)

type gradeRepository struct {
	db *sqlx.DB
}

var _ grade.Repository = (*gradeRepository)(nil)

func NewGradeRepository(db *sqlx.DB) grade.Repository {
	return &gradeRepository{db: db}
}

const gradeColumns = `id, student_id, subject, class_room, term, score, max_score, recorded_by, created_at, updated_at`

func (repo gradeRepository) CreateGrade(g grade.Grade) (grade.Grade, error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	query := `
	INSERT INTO grade (id, student_id, subject, class_room, term, score, max_score, recorded_by, created_at, updated_at)
	VALUES (:id, :student_id, :subject, :class_room, :term, :score, :max_score, :recorded_by, :created_at, :updated_at)`
	if _, err := repo.db.NamedExec(query, g); err != nil {
		return g, errors.Wrap(err, "creating grade")
	}
	return g, nil
}

func (repo gradeRepository) GetGradeByID(id string) (grade.Grade, error) {
	var g grade.Grade
	if err := repo.db.Get(&g, `SELECT `+gradeColumns+` FROM grade WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return g, grade.ErrNotFound
		}
		return g, errors.Wrap(err, "getting grade")
	}
	return g, nil
}

func (repo gradeRepository) FilterGrades(filter grade.QueryFilter, orderings ...core.DBOrdering) ([]grade.Grade, error) {
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
	if filter.Subject != "" {
		conditions = append(conditions, "subject ILIKE "+arg(filter.Subject))
	}
	if filter.Term != "" {
		conditions = append(conditions, "term = "+arg(filter.Term))
	}

	query := `SELECT ` + gradeColumns + ` FROM grade`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += orderingClause(orderings, "created_at DESC")

	var grades []grade.Grade
	if err := repo.db.Select(&grades, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying grades")
	}
	return grades, nil
}

func (repo gradeRepository) UpdateGrade(g grade.Grade) (grade.Grade, error) {
	query := `
	UPDATE grade
	SET score = :score, max_score = :max_score, updated_at = :updated_at
	WHERE id = :id`
	res, err := repo.db.NamedExec(query, g)
	if err != nil {
		return g, errors.Wrap(err, "updating grade")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return g, grade.ErrNotFound
	}
	return g, nil
}

func (repo gradeRepository) DeleteGradesByID(ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM grade WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "preparing grade delete")
	}
	if _, err := repo.db.Exec(repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deleting grades")
	}
	return nil
}
