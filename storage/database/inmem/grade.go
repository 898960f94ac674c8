package inmemdb

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/tkabeya/darasa/core"
	"github.com/tkabeya/darasa/core/grade"
)

type gradeRepository struct {
	db *gradeTable
}

var _ grade.Repository = (*gradeRepository)(nil)

func NewGradeRepository(db *DB) grade.Repository {
	return &gradeRepository{db: db.grade}
}

func (repo *gradeRepository) query() []grade.Grade {
	grades := make([]grade.Grade, 0, len(repo.db.table))
	for _, g := range repo.db.table {
		grades = append(grades, *g)
	}
	sort.Slice(grades, func(i, j int) bool { return grades[i].CreatedAt.After(grades[j].CreatedAt) })
	return grades
}

func (repo *gradeRepository) CreateGrade(g grade.Grade) (grade.Grade, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	repo.db.table[g.ID] = &g
	return g, nil
}

func (repo *gradeRepository) GetGradeByID(id string) (grade.Grade, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if g, ok := repo.db.table[id]; ok {
		return *g, nil
	}
	return grade.Grade{}, grade.ErrNotFound
}

func (repo *gradeRepository) FilterGrades(filter grade.QueryFilter, orderings ...core.DBOrdering) ([]grade.Grade, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var grades []grade.Grade
	for _, g := range repo.query() {
		if filter.StudentID != "" && g.StudentID != filter.StudentID {
			continue
		}
		if filter.ClassRoom != "" && g.ClassRoom != filter.ClassRoom {
			continue
		}
		if filter.Subject != "" && !strings.EqualFold(g.Subject, filter.Subject) {
			continue
		}
		if filter.Term != "" && g.Term != filter.Term {
			continue
		}
		grades = append(grades, g)
	}
	return grades, nil
}

func (repo *gradeRepository) UpdateGrade(g grade.Grade) (grade.Grade, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.table[g.ID]
	if !ok {
		return grade.Grade{}, grade.ErrNotFound
	}
	orig.Score = g.Score
	orig.MaxScore = g.MaxScore
	orig.UpdatedAt = g.UpdatedAt

	repo.db.table[g.ID] = orig
	return *orig, nil
}

func (repo *gradeRepository) DeleteGradesByID(ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}
