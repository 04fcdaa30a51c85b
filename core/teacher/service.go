package teacher

import (
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/trezcool/shule/core"
)

var (
	// errors
	ErrNotFound    = errors.New("teacher not found")
	ErrEmailExists = errors.New("a teacher with this email already exists")
)

type (
	Repository interface {
		CheckEmailUniqueness(email string, excludedTeachers ...Teacher) error
		CreateTeacher(t Teacher) (Teacher, error)
		GetTeacherByID(id string) (Teacher, error)
		GetTeacherByEmail(email string) (Teacher, error)
		// UpdateTeacher replaces the stored record.
		UpdateTeacher(t Teacher) (Teacher, error)
		UpdateTeacherTokens(id string, tokens []string) error
		// UpdateTeacherAvatar overwrites the stored avatar; nil clears it.
		UpdateTeacherAvatar(id string, avatar []byte) error
		// DeleteTeacher removes the teacher along with all owned Students and Subjects.
		DeleteTeacher(id string) error
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
	}
)

func NewService(repo Repository, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, mailSvc: mailSvc}
}

func (svc *Service) checkUniqueness(email string, exclTeachers ...Teacher) error {
	if err := svc.repo.CheckEmailUniqueness(email, exclTeachers...); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(nt NewTeacher) (Teacher, error) {
	now := time.Now().UTC()
	t := Teacher{
		Name:        nt.Name,
		Email:       nt.Email,
		Class:       nt.Class,
		House:       nt.House,
		Address:     nt.Address,
		Designation: nt.Designation,
		Age:         nt.Age,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if t.Designation == "" {
		t.Designation = DefaultDesignation
	}
	if err := t.SetPassword(nt.Password); err != nil {
		return Teacher{}, err
	}
	t, err := svc.repo.CreateTeacher(t)
	if err != nil {
		return Teacher{}, err
	}
	svc.sendWelcomeMail(t)
	return t, nil
}

func (svc *Service) GetByID(id string) (Teacher, error) {
	return svc.repo.GetTeacherByID(id)
}

func (svc *Service) GetByEmail(email string) (Teacher, error) {
	return svc.repo.GetTeacherByEmail(core.CleanString(email, true /* lower */))
}

// Update applies the provided fields on top of the authenticated teacher's
// record; callers validate the payload against the original record first.
func (svc *Service) Update(origT Teacher, ut UpdateTeacher) (Teacher, error) {
	t := origT
	if ut.Name != "" {
		t.Name = ut.Name
	}
	if ut.Email != "" {
		t.Email = ut.Email
	}
	if ut.Class != "" {
		t.Class = ut.Class
	}
	if ut.House != "" {
		t.House = ut.House
	}
	if ut.Address != "" {
		t.Address = ut.Address
	}
	if ut.Age != nil {
		t.Age = *ut.Age
	}
	if ut.Password != "" {
		if err := t.SetPassword(ut.Password); err != nil {
			return Teacher{}, err
		}
	}
	t.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateTeacher(t)
}

// Delete removes the teacher account. Owned Students and Subjects are deleted
// along with it.
func (svc *Service) Delete(t Teacher) error {
	if err := svc.repo.DeleteTeacher(t.ID); err != nil {
		return err
	}
	svc.sendExitMail(t)
	return nil
}

func (svc *Service) SetAvatar(t Teacher, avatar []byte) error {
	return svc.repo.UpdateTeacherAvatar(t.ID, avatar)
}

func (svc *Service) ClearAvatar(t Teacher) error {
	return svc.repo.UpdateTeacherAvatar(t.ID, nil)
}

func (svc *Service) SaveTokens(t Teacher) error {
	return svc.repo.UpdateTeacherTokens(t.ID, t.Tokens)
}

func (svc *Service) sendWelcomeMail(t Teacher) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: t.Name, Address: t.Email}},
		Subject: "Welcome aboard!",
		Body: fmt.Sprintf(
			"Welcome %s! You can now register your students and record their term scores.", t.Name),
	})
}

func (svc *Service) sendExitMail(t Teacher) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: t.Name, Address: t.Email}},
		Subject: "Sorry to see you go",
		Body:    fmt.Sprintf("Goodbye %s. We hope to see you back sometime soon.", t.Name),
	})
}
