package inmemdb

import (
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/shule/core/subject"
)

type subjectRepository struct {
	db *DB
}

var _ subject.Repository = (*subjectRepository)(nil) // interface compliance check

func NewSubjectRepository(db *DB) *subjectRepository {
	return &subjectRepository{db: db}
}

func (repo *subjectRepository) CreateSubject(sub subject.Subject) (subject.Subject, error) {
	repo.db.subject.mutex.Lock()
	defer repo.db.subject.mutex.Unlock()

	sub.ID = uuid.New().String()
	stored := sub
	stored.Grades = copyGrades(sub.Grades)
	repo.db.subject.table[sub.ID] = &stored
	return sub, nil
}

func (repo *subjectRepository) GetOwnedSubjectByID(id, ownerID string) (subject.Subject, error) {
	repo.db.subject.mutex.RLock()
	defer repo.db.subject.mutex.RUnlock()

	if sub, ok := repo.db.subject.table[id]; ok && sub.OwnerID == ownerID {
		cp := *sub
		cp.Grades = copyGrades(sub.Grades)
		return cp, nil
	}
	return subject.Subject{}, subject.ErrNotFound
}

func (repo *subjectRepository) QuerySubjectsByOwner(ownerID string) ([]subject.Subject, error) {
	repo.db.subject.mutex.RLock()
	defer repo.db.subject.mutex.RUnlock()

	subjects := make([]subject.Subject, 0)
	for _, sub := range repo.db.subject.table {
		if sub.OwnerID == ownerID {
			cp := *sub
			cp.Grades = copyGrades(sub.Grades)
			subjects = append(subjects, cp)
		}
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].Title < subjects[j].Title })
	return subjects, nil
}

func (repo *subjectRepository) UpdateSubject(sub subject.Subject) (subject.Subject, error) {
	repo.db.subject.mutex.Lock()
	defer repo.db.subject.mutex.Unlock()

	if _, ok := repo.db.subject.table[sub.ID]; !ok {
		return subject.Subject{}, subject.ErrNotFound
	}
	stored := sub
	stored.Grades = copyGrades(sub.Grades)
	repo.db.subject.table[sub.ID] = &stored
	return sub, nil
}

func (repo *subjectRepository) DeleteSubject(id, ownerID string) error {
	repo.db.subject.mutex.Lock()
	defer repo.db.subject.mutex.Unlock()

	if sub, ok := repo.db.subject.table[id]; ok && sub.OwnerID == ownerID {
		delete(repo.db.subject.table, id)
		return nil
	}
	return subject.ErrNotFound
}

// copyGrades keeps stored grade lists isolated from caller slices.
func copyGrades(grades []subject.Grade) []subject.Grade {
	cp := make([]subject.Grade, len(grades))
	copy(cp, grades)
	return cp
}
