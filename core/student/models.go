package student

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/shule/core"
)

// Field defaults applied on registration.
const (
	DefaultHouse   = "No house registered"
	DefaultClub    = "Reader's Club"
	DefaultAddress = "No address on file."

	defaultPasswordSuffix = "123"
)

// UpdateFields lists the fields a Teacher may patch on an owned Student.
var UpdateFields = []string{"name", "email", "password", "age", "class", "house", "address", "guardian"}

type Student struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"-"`
	Class        string    `json:"class"`
	Guardian     string    `json:"guardian"`
	House        string    `json:"house"`
	Club         string    `json:"club"`
	Address      string    `json:"address"`
	Age          int       `json:"age"`
	Tokens       []string  `json:"-"`
	Avatar       []byte    `json:"-"`
	OwnerID      string    `json:"owner_id"` // owning Teacher
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

func (s *Student) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	s.PasswordHash = hash
	return nil
}

func (s *Student) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(s.PasswordHash, []byte(pwd))
}

// HasToken reports whether the literal token string is in the active-token
// list. Signature validity alone does not authenticate a request.
func (s *Student) HasToken(token string) bool {
	for _, tk := range s.Tokens {
		if tk == token {
			return true
		}
	}
	return false
}

func (s *Student) AddToken(token string) {
	s.Tokens = append(s.Tokens, token)
}

// RemoveToken removes exactly the presented token, leaving other sessions active.
func (s *Student) RemoveToken(token string) {
	tokens := s.Tokens[:0]
	for _, tk := range s.Tokens {
		if tk != token {
			tokens = append(tokens, tk)
		}
	}
	s.Tokens = tokens
}

func (s *Student) ClearTokens() {
	s.Tokens = nil
}

func (s Student) PrincipalID() string    { return s.ID }
func (s Student) PrincipalName() string  { return s.Name }
func (s Student) PrincipalEmail() string { return s.Email }

// DefaultPassword derives a student's initial password from their name: the
// second whitespace-separated token, lowercased, suffixed with a fixed literal.
// Single-token names fall back to the whole name.
func DefaultPassword(name string) string {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return defaultPasswordSuffix
	}
	part := parts[0]
	if len(parts) > 1 {
		part = parts[1]
	}
	return strings.ToLower(part) + defaultPasswordSuffix
}

// NewStudent contains information needed to register a new Student.
// The initial password is derived from the name; see DefaultPassword.
type NewStudent struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Class    string `json:"class" validate:"required"`
	Guardian string `json:"guardian" validate:"required"`
	House    string `json:"house"`
	Club     string `json:"club"`
	Address  string `json:"address"`
	Age      int    `json:"age" validate:"gte=0"`
}

func (ns *NewStudent) Validate(svc *Service) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.Class = core.CleanString(ns.Class)
	ns.Guardian = core.CleanString(ns.Guardian)
	ns.House = core.CleanString(ns.House)
	ns.Club = core.CleanString(ns.Club)
	ns.Address = core.CleanString(ns.Address)

	if err := core.Validate.Struct(ns); err != nil {
		return err
	}
	return svc.checkUniqueness(ns.Email)
}

// UpdateStudent defines what information may be provided to modify an existing Student.
type UpdateStudent struct {
	Name     string `json:"name"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"omitempty,min=3,excludes_insensitive=password"`
	Class    string `json:"class"`
	Guardian string `json:"guardian"`
	House    string `json:"house"`
	Address  string `json:"address"`
	Age      *int   `json:"age" validate:"omitempty,gte=0"`
}

func (us *UpdateStudent) Validate(origS Student, svc *Service) error {
	us.Name = core.CleanString(us.Name)
	us.Email = core.CleanString(us.Email, true /* lower */)
	us.Class = core.CleanString(us.Class)
	us.Guardian = core.CleanString(us.Guardian)
	us.House = core.CleanString(us.House)
	us.Address = core.CleanString(us.Address)

	if err := core.Validate.Struct(us); err != nil {
		return err
	}
	if us.Email != "" && us.Email != origS.Email {
		return svc.checkUniqueness(us.Email, origS)
	}
	return nil
}
