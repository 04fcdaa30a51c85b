package inmemdb

import (
	"github.com/google/uuid"

	"github.com/trezcool/shule/core/teacher"
)

type teacherRepository struct {
	db *DB
}

var _ teacher.Repository = (*teacherRepository)(nil) // interface compliance check

func NewTeacherRepository(db *DB) *teacherRepository {
	return &teacherRepository{db: db}
}

func (repo *teacherRepository) CheckEmailUniqueness(email string, excludedTeachers ...teacher.Teacher) error {
	repo.db.teacher.mutex.RLock()
	defer repo.db.teacher.mutex.RUnlock()

	for _, t := range repo.db.teacher.table {
		if t.Email == email && !isExcluded(t.ID, teacherIDs(excludedTeachers)) {
			return teacher.ErrEmailExists
		}
	}
	return nil
}

func (repo *teacherRepository) CreateTeacher(t teacher.Teacher) (teacher.Teacher, error) {
	repo.db.teacher.mutex.Lock()
	defer repo.db.teacher.mutex.Unlock()

	t.ID = uuid.New().String()
	repo.db.teacher.table[t.ID] = &t
	return t, nil
}

func (repo *teacherRepository) GetTeacherByID(id string) (teacher.Teacher, error) {
	repo.db.teacher.mutex.RLock()
	defer repo.db.teacher.mutex.RUnlock()

	if t, ok := repo.db.teacher.table[id]; ok {
		return *t, nil
	}
	return teacher.Teacher{}, teacher.ErrNotFound
}

func (repo *teacherRepository) GetTeacherByEmail(email string) (teacher.Teacher, error) {
	repo.db.teacher.mutex.RLock()
	defer repo.db.teacher.mutex.RUnlock()

	for _, t := range repo.db.teacher.table {
		if t.Email == email {
			return *t, nil
		}
	}
	return teacher.Teacher{}, teacher.ErrNotFound
}

func (repo *teacherRepository) UpdateTeacher(t teacher.Teacher) (teacher.Teacher, error) {
	repo.db.teacher.mutex.Lock()
	defer repo.db.teacher.mutex.Unlock()

	if _, ok := repo.db.teacher.table[t.ID]; !ok {
		return teacher.Teacher{}, teacher.ErrNotFound
	}
	repo.db.teacher.table[t.ID] = &t
	return t, nil
}

func (repo *teacherRepository) UpdateTeacherTokens(id string, tokens []string) error {
	repo.db.teacher.mutex.Lock()
	defer repo.db.teacher.mutex.Unlock()

	t, ok := repo.db.teacher.table[id]
	if !ok {
		return teacher.ErrNotFound
	}
	t.Tokens = tokens
	return nil
}

func (repo *teacherRepository) UpdateTeacherAvatar(id string, avatar []byte) error {
	repo.db.teacher.mutex.Lock()
	defer repo.db.teacher.mutex.Unlock()

	t, ok := repo.db.teacher.table[id]
	if !ok {
		return teacher.ErrNotFound
	}
	t.Avatar = avatar
	return nil
}

// DeleteTeacher cascades to owned students and subjects.
func (repo *teacherRepository) DeleteTeacher(id string) error {
	repo.db.teacher.mutex.Lock()
	defer repo.db.teacher.mutex.Unlock()

	if _, ok := repo.db.teacher.table[id]; !ok {
		return teacher.ErrNotFound
	}
	delete(repo.db.teacher.table, id)

	repo.db.student.mutex.Lock()
	for sid, s := range repo.db.student.table {
		if s.OwnerID == id {
			delete(repo.db.student.table, sid)
		}
	}
	repo.db.student.mutex.Unlock()

	repo.db.subject.mutex.Lock()
	for sid, sub := range repo.db.subject.table {
		if sub.OwnerID == id {
			delete(repo.db.subject.table, sid)
		}
	}
	repo.db.subject.mutex.Unlock()
	return nil
}

func teacherIDs(teachers []teacher.Teacher) []string {
	ids := make([]string, 0, len(teachers))
	for _, t := range teachers {
		ids = append(ids, t.ID)
	}
	return ids
}

func isExcluded(id string, excludedIDs []string) bool {
	for _, exclID := range excludedIDs {
		if id == exclID {
			return true
		}
	}
	return false
}
