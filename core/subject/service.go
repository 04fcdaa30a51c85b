package subject

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/shule/core/student"
)

var (
	// errors
	ErrNotFound        = errors.New("subject not found")
	ErrGradeNotFound   = errors.New("grade not found")
	ErrDuplicateGrade  = errors.New("a score for this term is already recorded for this student")
	ErrStudentNotOwned = errors.New("cannot grade another teacher's student")
)

type (
	Repository interface {
		CreateSubject(sub Subject) (Subject, error)
		// GetOwnedSubjectByID scopes the lookup to the owning teacher;
		// another teacher's subject behaves as not found.
		GetOwnedSubjectByID(id, ownerID string) (Subject, error)
		QuerySubjectsByOwner(ownerID string) ([]Subject, error)
		// UpdateSubject persists the title and the whole embedded grade list.
		UpdateSubject(sub Subject) (Subject, error)
		DeleteSubject(id, ownerID string) error
	}

	Service struct {
		repo        Repository
		studentRepo student.Repository
	}
)

func NewService(repo Repository, studentRepo student.Repository) *Service {
	return &Service{repo: repo, studentRepo: studentRepo}
}

func (svc *Service) Create(ns NewSubject, ownerID string) (Subject, error) {
	if err := ns.Validate(); err != nil {
		return Subject{}, err
	}
	now := time.Now().UTC()
	sub := Subject{
		Title:     ns.Title,
		OwnerID:   ownerID,
		Grades:    []Grade{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateSubject(sub)
}

func (svc *Service) GetOwnedByID(id, ownerID string) (Subject, error) {
	return svc.repo.GetOwnedSubjectByID(id, ownerID)
}

func (svc *Service) QueryOwned(ownerID string) ([]Subject, error) {
	return svc.repo.QuerySubjectsByOwner(ownerID)
}

func (svc *Service) Update(id, ownerID string, ns NewSubject) (Subject, error) {
	if err := ns.Validate(); err != nil {
		return Subject{}, err
	}
	sub, err := svc.repo.GetOwnedSubjectByID(id, ownerID)
	if err != nil {
		return Subject{}, err
	}
	sub.Title = ns.Title
	sub.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateSubject(sub)
}

func (svc *Service) Delete(id, ownerID string) error {
	return svc.repo.DeleteSubject(id, ownerID)
}

// gradeKey identifies a grade within a subject for duplicate detection.
type gradeKey struct {
	year      string
	term      string
	studentID string
}

func indexGrades(grades []Grade) map[gradeKey]int {
	idx := make(map[gradeKey]int, len(grades))
	for i, g := range grades {
		idx[gradeKey{g.Year, g.Term, g.OwnerID}] = i
	}
	return idx
}

// CreateGrade records a term score for a student on an owned subject.
//
// The subject lookup is scoped to the acting teacher (ErrNotFound on a miss
// or a foreign subject); the target student must belong to the same teacher
// (ErrStudentNotOwned); and only one grade may exist per
// (year, term, student) on a subject (ErrDuplicateGrade).
//
// The subject document is read, modified and written back without a
// compare-and-swap: concurrent grade mutations against the same subject can
// lose an update. Known limitation.
func (svc *Service) CreateGrade(subjectID, teacherID string, ng NewGrade) (Grade, error) {
	if err := ng.Validate(); err != nil {
		return Grade{}, err
	}

	sub, err := svc.repo.GetOwnedSubjectByID(subjectID, teacherID)
	if err != nil {
		return Grade{}, err
	}

	st, err := svc.studentRepo.GetStudentByID(ng.StudentID)
	if err != nil {
		return Grade{}, err
	}
	if st.OwnerID != teacherID {
		return Grade{}, ErrStudentNotOwned
	}

	if _, ok := indexGrades(sub.Grades)[gradeKey{ng.Year, ng.Term, ng.StudentID}]; ok {
		return Grade{}, ErrDuplicateGrade
	}

	now := time.Now().UTC()
	g := Grade{
		ID:        uuid.New().String(),
		Year:      ng.Year,
		Term:      ng.Term,
		Score:     ng.Score,
		Grade:     LetterGrade(ng.Score),
		OwnerID:   st.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	sub.Grades = append(sub.Grades, g)
	sub.UpdatedAt = now
	if _, err := svc.repo.UpdateSubject(sub); err != nil {
		return Grade{}, err
	}
	return g, nil
}

// UpdateGrade overwrites the score of an existing grade and recomputes its
// letter band. Same ownership rules and the same read-modify-write
// limitation as CreateGrade.
func (svc *Service) UpdateGrade(subjectID, teacherID string, ug UpdateGrade) (Grade, error) {
	if err := ug.Validate(); err != nil {
		return Grade{}, err
	}

	sub, err := svc.repo.GetOwnedSubjectByID(subjectID, teacherID)
	if err != nil {
		return Grade{}, err
	}

	idx := -1
	for i := range sub.Grades {
		if sub.Grades[i].ID == ug.GradeID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Grade{}, ErrGradeNotFound
	}

	st, err := svc.studentRepo.GetStudentByID(sub.Grades[idx].OwnerID)
	if err != nil {
		return Grade{}, err
	}
	if st.OwnerID != teacherID {
		return Grade{}, ErrStudentNotOwned
	}

	now := time.Now().UTC()
	g := &sub.Grades[idx]
	g.Score = ug.Score
	g.Grade = LetterGrade(ug.Score)
	g.UpdatedAt = now
	sub.UpdatedAt = now
	if _, err := svc.repo.UpdateSubject(sub); err != nil {
		return Grade{}, err
	}
	return *g, nil
}

// StudentGrades is the student self-view: every subject owned by the
// student's teacher, projected down to the grade entries belonging to the
// requesting student. Read-only.
func (svc *Service) StudentGrades(st student.Student) ([]StudentSubjectGrades, error) {
	subs, err := svc.repo.QuerySubjectsByOwner(st.OwnerID)
	if err != nil {
		return nil, err
	}

	view := make([]StudentSubjectGrades, 0, len(subs))
	for _, sub := range subs {
		mine := make([]Grade, 0)
		for _, g := range sub.Grades {
			if g.OwnerID == st.ID {
				mine = append(mine, g)
			}
		}
		view = append(view, StudentSubjectGrades{Subject: sub.Title, Grades: mine})
	}
	return view, nil
}
