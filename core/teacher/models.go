package teacher

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/shule/core"
)

const DefaultDesignation = "Class Teacher"

// UpdateFields lists the fields a Teacher may patch on themselves.
// Anything else in a patch payload is rejected before any mutation happens.
var UpdateFields = []string{"name", "email", "password", "age", "class", "house", "address"}

type Teacher struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"-"`
	Class        string    `json:"class"`
	House        string    `json:"house,omitempty"`
	Address      string    `json:"address,omitempty"`
	Designation  string    `json:"designation"`
	Age          int       `json:"age"`
	Tokens       []string  `json:"-"`
	Avatar       []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

func (t *Teacher) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	t.PasswordHash = hash
	return nil
}

func (t *Teacher) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(t.PasswordHash, []byte(pwd))
}

// HasToken reports whether the literal token string is in the active-token
// list. Signature validity alone does not authenticate a request.
func (t *Teacher) HasToken(token string) bool {
	for _, tk := range t.Tokens {
		if tk == token {
			return true
		}
	}
	return false
}

func (t *Teacher) AddToken(token string) {
	t.Tokens = append(t.Tokens, token)
}

// RemoveToken removes exactly the presented token, leaving other sessions active.
func (t *Teacher) RemoveToken(token string) {
	tokens := t.Tokens[:0]
	for _, tk := range t.Tokens {
		if tk != token {
			tokens = append(tokens, tk)
		}
	}
	t.Tokens = tokens
}

func (t *Teacher) ClearTokens() {
	t.Tokens = nil
}

func (t Teacher) PrincipalID() string    { return t.ID }
func (t Teacher) PrincipalName() string  { return t.Name }
func (t Teacher) PrincipalEmail() string { return t.Email }

// NewTeacher contains information needed to register a new Teacher.
type NewTeacher struct {
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=7,excludes_insensitive=pass"`
	Class       string `json:"class" validate:"required"`
	House       string `json:"house"`
	Address     string `json:"address"`
	Designation string `json:"designation"`
	Age         int    `json:"age" validate:"gte=0"`
}

func (nt *NewTeacher) Validate(svc *Service) error {
	nt.Name = core.CleanString(nt.Name)
	nt.Email = core.CleanString(nt.Email, true /* lower */)
	nt.Class = core.CleanString(nt.Class)
	nt.House = core.CleanString(nt.House)
	nt.Address = core.CleanString(nt.Address)
	nt.Designation = core.CleanString(nt.Designation)

	if err := core.Validate.Struct(nt); err != nil {
		return err
	}
	return svc.checkUniqueness(nt.Email)
}

// UpdateTeacher defines what information may be provided to modify an existing Teacher.
type UpdateTeacher struct {
	Name     string `json:"name"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"omitempty,min=7,excludes_insensitive=pass"`
	Class    string `json:"class"`
	House    string `json:"house"`
	Address  string `json:"address"`
	Age      *int   `json:"age" validate:"omitempty,gte=0"`
}

func (ut *UpdateTeacher) Validate(origT Teacher, svc *Service) error {
	ut.Name = core.CleanString(ut.Name)
	ut.Email = core.CleanString(ut.Email, true /* lower */)
	ut.Class = core.CleanString(ut.Class)
	ut.House = core.CleanString(ut.House)
	ut.Address = core.CleanString(ut.Address)

	if err := core.Validate.Struct(ut); err != nil {
		return err
	}
	if ut.Email != "" && ut.Email != origT.Email {
		return svc.checkUniqueness(ut.Email, origT)
	}
	return nil
}
