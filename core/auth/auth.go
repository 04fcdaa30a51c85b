package auth

import (
	"errors"
	"time"

	"github.com/dgrijalva/jwt-go"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/student"
	"github.com/trezcool/shule/core/teacher"
)

// ErrAuthenticationFailed is deliberately generic: malformed tokens, bad
// signatures, unknown principals and revoked tokens are indistinguishable to
// the caller.
var ErrAuthenticationFailed = errors.New("authentication failed")

// Kind selects which principal type a token must resolve to.
type Kind string

const (
	KindTeacher Kind = "teacher"
	KindStudent Kind = "student"
)

// Principal is an authenticated Teacher or Student identity attached to a request.
type Principal interface {
	PrincipalID() string
	PrincipalName() string
	PrincipalEmail() string
}

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
}

type Service struct {
	teacherRepo teacher.Repository
	studentRepo student.Repository
}

func NewService(teacherRepo teacher.Repository, studentRepo student.Repository) *Service {
	return &Service{teacherRepo: teacherRepo, studentRepo: studentRepo}
}

// GenerateToken generates a signed JWT token string for the principal.
// The token only authenticates once appended to the principal's active-token
// list; see the Issue* and Login* methods.
func (svc *Service) GenerateToken(p Principal) (string, error) {
	now := time.Now()
	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    core.Conf.AppName,
			Subject:   p.PrincipalID(),
			ExpiresAt: now.Add(core.Conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(core.Conf.SecretKey))
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

// parseSubject verifies the token signature and expiry and extracts the
// subject identifier.
func (svc *Service) parseSubject(token string) (string, error) {
	claims := new(Claims)
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrAuthenticationFailed
		}
		return []byte(core.Conf.SecretKey), nil
	})
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return "", ErrAuthenticationFailed
	}
	return claims.Subject, nil
}

// Authenticate resolves a bearer token to exactly one principal of the given
// kind. A valid signature is not enough: the literal token string must still
// be in the principal's active-token list (revocation is by list membership).
func (svc *Service) Authenticate(token string, kind Kind) (Principal, error) {
	switch kind {
	case KindStudent:
		return svc.AuthenticateStudent(token)
	default:
		return svc.AuthenticateTeacher(token)
	}
}

func (svc *Service) AuthenticateTeacher(token string) (teacher.Teacher, error) {
	id, err := svc.parseSubject(token)
	if err != nil {
		return teacher.Teacher{}, err
	}
	t, err := svc.teacherRepo.GetTeacherByID(id)
	if err != nil {
		return teacher.Teacher{}, ErrAuthenticationFailed
	}
	if !t.HasToken(token) {
		return teacher.Teacher{}, ErrAuthenticationFailed
	}
	return t, nil
}

func (svc *Service) AuthenticateStudent(token string) (student.Student, error) {
	id, err := svc.parseSubject(token)
	if err != nil {
		return student.Student{}, err
	}
	s, err := svc.studentRepo.GetStudentByID(id)
	if err != nil {
		return student.Student{}, ErrAuthenticationFailed
	}
	if !s.HasToken(token) {
		return student.Student{}, ErrAuthenticationFailed
	}
	return s, nil
}

// LoginTeacher checks credentials and opens a new session.
func (svc *Service) LoginTeacher(email, pwd string) (teacher.Teacher, string, error) {
	t, err := svc.teacherRepo.GetTeacherByEmail(core.CleanString(email, true /* lower */))
	if err != nil {
		return teacher.Teacher{}, "", ErrAuthenticationFailed
	}
	if err := t.CheckPassword(pwd); err != nil {
		return teacher.Teacher{}, "", ErrAuthenticationFailed
	}
	token, err := svc.IssueTeacherToken(&t)
	if err != nil {
		return teacher.Teacher{}, "", err
	}
	return t, token, nil
}

// LoginStudent checks credentials and opens a new session.
func (svc *Service) LoginStudent(email, pwd string) (student.Student, string, error) {
	s, err := svc.studentRepo.GetStudentByEmail(core.CleanString(email, true /* lower */))
	if err != nil {
		return student.Student{}, "", ErrAuthenticationFailed
	}
	if err := s.CheckPassword(pwd); err != nil {
		return student.Student{}, "", ErrAuthenticationFailed
	}
	token, err := svc.IssueStudentToken(&s)
	if err != nil {
		return student.Student{}, "", err
	}
	return s, token, nil
}

// IssueTeacherToken signs a fresh token and appends it to the active list.
// Used at login and at account creation.
func (svc *Service) IssueTeacherToken(t *teacher.Teacher) (string, error) {
	token, err := svc.GenerateToken(*t)
	if err != nil {
		return "", err
	}
	t.AddToken(token)
	if err := svc.teacherRepo.UpdateTeacherTokens(t.ID, t.Tokens); err != nil {
		return "", err
	}
	return token, nil
}

// IssueStudentToken signs a fresh token and appends it to the active list.
func (svc *Service) IssueStudentToken(s *student.Student) (string, error) {
	token, err := svc.GenerateToken(*s)
	if err != nil {
		return "", err
	}
	s.AddToken(token)
	if err := svc.studentRepo.UpdateStudentTokens(s.ID, s.Tokens); err != nil {
		return "", err
	}
	return token, nil
}

// LogoutTeacher revokes exactly the presented token.
func (svc *Service) LogoutTeacher(t teacher.Teacher, token string) error {
	t.RemoveToken(token)
	return svc.teacherRepo.UpdateTeacherTokens(t.ID, t.Tokens)
}

// LogoutTeacherAll revokes every active session.
func (svc *Service) LogoutTeacherAll(t teacher.Teacher) error {
	t.ClearTokens()
	return svc.teacherRepo.UpdateTeacherTokens(t.ID, t.Tokens)
}

// LogoutStudent revokes exactly the presented token.
func (svc *Service) LogoutStudent(s student.Student, token string) error {
	s.RemoveToken(token)
	return svc.studentRepo.UpdateStudentTokens(s.ID, s.Tokens)
}

// LogoutStudentAll revokes every active session.
func (svc *Service) LogoutStudentAll(s student.Student) error {
	s.ClearTokens()
	return svc.studentRepo.UpdateStudentTokens(s.ID, s.Tokens)
}
