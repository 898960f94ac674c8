package inmemdb

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tkabeya/darasa/core"
	"github.com/tkabeya/darasa/core/student"
)

type studentRepository struct {
	db *studentTable
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db.student}
}

func (repo *studentRepository) query() []student.Student {
	students := make([]student.Student, 0, len(repo.db.table))
	for _, std := range repo.db.table {
		students = append(students, *std)
	}
	sort.Slice(students, func(i, j int) bool { return students[i].Code < students[j].Code })
	return students
}

func (repo *studentRepository) CheckCodeUniqueness(code string, excludedStudents ...student.Student) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	excluded := make(map[string]struct{}, len(excludedStudents))
	for _, std := range excludedStudents {
		excluded[std.ID] = struct{}{}
	}

	for _, std := range repo.query() {
		if _, ok := excluded[std.ID]; ok {
			continue
		}
		if strings.EqualFold(std.Code, code) {
			return student.ErrCodeExists
		}
	}
	return nil
}

func (repo *studentRepository) CreateStudent(std student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if std.ID == "" {
		std.ID = uuid.NewString()
	}
	repo.db.table[std.ID] = &std
	return std, nil
}

func (repo *studentRepository) QueryAllStudents() ([]student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(), nil
}

func (repo *studentRepository) GetStudentByID(id string) (student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if std, ok := repo.db.table[id]; ok {
		return *std, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) GetStudentByCode(code string) (student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, std := range repo.query() {
		if strings.EqualFold(std.Code, code) {
			return std, nil
		}
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) FilterStudents(filter student.QueryFilter, orderings ...core.DBOrdering) ([]student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var students []student.Student
	for _, std := range repo.query() {
		if matchStudent(std, filter) {
			students = append(students, std)
		}
	}
	orderStudents(students, orderings)
	return students, nil
}

func matchStudent(std student.Student, filter student.QueryFilter) bool {
	if filter.Search != "" {
		search := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(std.FirstName), search) &&
			!strings.Contains(strings.ToLower(std.LastName), search) &&
			!strings.Contains(strings.ToLower(std.Code), search) {
			return false
		}
	}
	if filter.ClassRoom != "" && std.ClassRoom != filter.ClassRoom {
		return false
	}
	if filter.GuardianID != "" && std.GuardianID != filter.GuardianID {
		return false
	}
	if filter.IsActive != nil && std.IsActive != *filter.IsActive {
		return false
	}
	return true
}

func orderStudents(students []student.Student, orderings []core.DBOrdering) {
	if len(orderings) == 0 {
		return
	}
	ord := orderings[0]
	sort.SliceStable(students, func(i, j int) bool {
		var less bool
		switch ord.Field {
		case "first_name":
			less = students[i].FirstName < students[j].FirstName
		case "last_name":
			less = students[i].LastName < students[j].LastName
		case "class_room":
			less = students[i].ClassRoom < students[j].ClassRoom
		case "created_at":
			less = students[i].CreatedAt.Before(students[j].CreatedAt)
		default:
			less = students[i].Code < students[j].Code
		}
		if !ord.Ascending {
			return !less
		}
		return less
	})
}

func (repo *studentRepository) UpdateStudent(std student.Student, isActive *bool) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	// only save set fields
	origStd, ok := repo.db.table[std.ID]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	if std.Code != "" {
		origStd.Code = std.Code
	}
	if std.FirstName != "" {
		origStd.FirstName = std.FirstName
	}
	if std.LastName != "" {
		origStd.LastName = std.LastName
	}
	if std.ClassRoom != "" {
		origStd.ClassRoom = std.ClassRoom
	}
	if std.GuardianID != "" {
		origStd.GuardianID = std.GuardianID
	}
	if isActive != nil {
		origStd.IsActive = *isActive
	}
	origStd.UpdatedAt = time.Now().UTC()

	repo.db.table[std.ID] = origStd
	return *origStd, nil
}

func (repo *studentRepository) DeleteStudentsByID(ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}
