package student

import (
	"errors"
	"time"

	"github.com/trezcool/shule/core"
)

var (
	// errors
	ErrNotFound    = errors.New("student not found")
	ErrEmailExists = errors.New("a student with this email already exists")
)

type (
	Repository interface {
		CheckEmailUniqueness(email string, excludedStudents ...Student) error
		CreateStudent(s Student) (Student, error)
		// GetStudentByID looks a student up regardless of owner; reserved for
		// authentication and for cross-ownership checks in the grade ledger.
		GetStudentByID(id string) (Student, error)
		GetStudentByEmail(email string) (Student, error)
		// GetOwnedStudentByID scopes the lookup to the owning teacher;
		// another teacher's student behaves as not found.
		GetOwnedStudentByID(id, ownerID string) (Student, error)
		// QueryStudentsByOwner lists a teacher's students, sorted by name
		// unless other orderings are given.
		QueryStudentsByOwner(ownerID string, orderings ...core.DBOrdering) ([]Student, error)
		// UpdateStudent replaces the stored record.
		UpdateStudent(s Student) (Student, error)
		UpdateStudentTokens(id string, tokens []string) error
		UpdateStudentAvatar(id string, avatar []byte) error
		DeleteStudent(id, ownerID string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) checkUniqueness(email string, exclStudents ...Student) error {
	if err := svc.repo.CheckEmailUniqueness(email, exclStudents...); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

// Create registers a Student owned by the given teacher, with the derived
// default password set.
func (svc *Service) Create(ns NewStudent, ownerID string) (Student, error) {
	now := time.Now().UTC()
	s := Student{
		Name:      ns.Name,
		Email:     ns.Email,
		Class:     ns.Class,
		Guardian:  ns.Guardian,
		House:     ns.House,
		Club:      ns.Club,
		Address:   ns.Address,
		Age:       ns.Age,
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if s.House == "" {
		s.House = DefaultHouse
	}
	if s.Club == "" {
		s.Club = DefaultClub
	}
	if s.Address == "" {
		s.Address = DefaultAddress
	}
	if err := s.SetPassword(DefaultPassword(s.Name)); err != nil {
		return Student{}, err
	}
	return svc.repo.CreateStudent(s)
}

func (svc *Service) GetByID(id string) (Student, error) {
	return svc.repo.GetStudentByID(id)
}

func (svc *Service) GetByEmail(email string) (Student, error) {
	return svc.repo.GetStudentByEmail(core.CleanString(email, true /* lower */))
}

func (svc *Service) GetOwnedByID(id, ownerID string) (Student, error) {
	return svc.repo.GetOwnedStudentByID(id, ownerID)
}

func (svc *Service) QueryOwned(ownerID string, orderings ...core.DBOrdering) ([]Student, error) {
	return svc.repo.QueryStudentsByOwner(ownerID, orderings...)
}

// Update patches an owned student. The owner scope is enforced by fetching
// through GetOwnedStudentByID before validation against the original record.
func (svc *Service) Update(id, ownerID string, us UpdateStudent) (Student, error) {
	origS, err := svc.repo.GetOwnedStudentByID(id, ownerID)
	if err != nil {
		return Student{}, err
	}
	if err := us.Validate(origS, svc); err != nil {
		return Student{}, err
	}

	s := origS
	if us.Name != "" {
		s.Name = us.Name
	}
	if us.Email != "" {
		s.Email = us.Email
	}
	if us.Class != "" {
		s.Class = us.Class
	}
	if us.Guardian != "" {
		s.Guardian = us.Guardian
	}
	if us.House != "" {
		s.House = us.House
	}
	if us.Address != "" {
		s.Address = us.Address
	}
	if us.Age != nil {
		s.Age = *us.Age
	}
	if us.Password != "" {
		if err := s.SetPassword(us.Password); err != nil {
			return Student{}, err
		}
	}
	s.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateStudent(s)
}

func (svc *Service) Delete(id, ownerID string) error {
	return svc.repo.DeleteStudent(id, ownerID)
}

func (svc *Service) SetAvatar(s Student, avatar []byte) error {
	return svc.repo.UpdateStudentAvatar(s.ID, avatar)
}

func (svc *Service) ClearAvatar(s Student) error {
	return svc.repo.UpdateStudentAvatar(s.ID, nil)
}

func (svc *Service) SaveTokens(s Student) error {
	return svc.repo.UpdateStudentTokens(s.ID, s.Tokens)
}
