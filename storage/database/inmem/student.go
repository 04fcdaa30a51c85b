package inmemdb

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/student"
)

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) *studentRepository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) CheckEmailUniqueness(email string, excludedStudents ...student.Student) error {
	repo.db.student.mutex.RLock()
	defer repo.db.student.mutex.RUnlock()

	ids := make([]string, 0, len(excludedStudents))
	for _, s := range excludedStudents {
		ids = append(ids, s.ID)
	}
	for _, s := range repo.db.student.table {
		if s.Email == email && !isExcluded(s.ID, ids) {
			return student.ErrEmailExists
		}
	}
	return nil
}

func (repo *studentRepository) CreateStudent(s student.Student) (student.Student, error) {
	repo.db.student.mutex.Lock()
	defer repo.db.student.mutex.Unlock()

	s.ID = uuid.New().String()
	repo.db.student.table[s.ID] = &s
	return s, nil
}

func (repo *studentRepository) GetStudentByID(id string) (student.Student, error) {
	repo.db.student.mutex.RLock()
	defer repo.db.student.mutex.RUnlock()

	if s, ok := repo.db.student.table[id]; ok {
		return *s, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) GetStudentByEmail(email string) (student.Student, error) {
	repo.db.student.mutex.RLock()
	defer repo.db.student.mutex.RUnlock()

	for _, s := range repo.db.student.table {
		if s.Email == email {
			return *s, nil
		}
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) GetOwnedStudentByID(id, ownerID string) (student.Student, error) {
	repo.db.student.mutex.RLock()
	defer repo.db.student.mutex.RUnlock()

	if s, ok := repo.db.student.table[id]; ok && s.OwnerID == ownerID {
		return *s, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) QueryStudentsByOwner(ownerID string, orderings ...core.DBOrdering) ([]student.Student, error) {
	repo.db.student.mutex.RLock()
	defer repo.db.student.mutex.RUnlock()

	students := make([]student.Student, 0)
	for _, s := range repo.db.student.table {
		if s.OwnerID == ownerID {
			students = append(students, *s)
		}
	}
	sortStudents(students, orderings)
	return students, nil
}

func sortStudents(students []student.Student, orderings []core.DBOrdering) {
	if len(orderings) == 0 {
		orderings = []core.DBOrdering{{Field: "name", Ascending: true}}
	}
	sort.SliceStable(students, func(i, j int) bool {
		for _, ord := range orderings {
			a, b := studentField(students[i], ord.Field), studentField(students[j], ord.Field)
			if a == b {
				continue
			}
			if ord.Ascending {
				return a < b
			}
			return a > b
		}
		return false
	})
}

func studentField(s student.Student, field string) string {
	switch field {
	case "email":
		return s.Email
	case "class":
		return s.Class
	case "age":
		return fmt.Sprintf("%03d", s.Age)
	default:
		return s.Name
	}
}

func (repo *studentRepository) UpdateStudent(s student.Student) (student.Student, error) {
	repo.db.student.mutex.Lock()
	defer repo.db.student.mutex.Unlock()

	if _, ok := repo.db.student.table[s.ID]; !ok {
		return student.Student{}, student.ErrNotFound
	}
	repo.db.student.table[s.ID] = &s
	return s, nil
}

func (repo *studentRepository) UpdateStudentTokens(id string, tokens []string) error {
	repo.db.student.mutex.Lock()
	defer repo.db.student.mutex.Unlock()

	s, ok := repo.db.student.table[id]
	if !ok {
		return student.ErrNotFound
	}
	s.Tokens = tokens
	return nil
}

func (repo *studentRepository) UpdateStudentAvatar(id string, avatar []byte) error {
	repo.db.student.mutex.Lock()
	defer repo.db.student.mutex.Unlock()

	s, ok := repo.db.student.table[id]
	if !ok {
		return student.ErrNotFound
	}
	s.Avatar = avatar
	return nil
}

func (repo *studentRepository) DeleteStudent(id, ownerID string) error {
	repo.db.student.mutex.Lock()
	defer repo.db.student.mutex.Unlock()

	if s, ok := repo.db.student.table[id]; ok && s.OwnerID == ownerID {
		delete(repo.db.student.table, id)
		return nil
	}
	return student.ErrNotFound
}
