package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/auth"
	"github.com/trezcool/shule/core/student"
	"github.com/trezcool/shule/core/teacher"
)

var (
	contextPrincipalKey = "principal"
	contextTokenKey     = "token"

	errPrincipalNotInCtx = errors.New("principal object not found in echo.Context")
)

// bearerToken extracts the literal token string from the Authorization header.
func bearerToken(ctx echo.Context) (string, error) {
	header := ctx.Request().Header.Get(echo.HeaderAuthorization)
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		if token := strings.TrimSpace(header[7:]); token != "" {
			return token, nil
		}
	}
	return "", errUnauthorized
}

// teacherAuthMiddleware authenticates the request's bearer token as an active
// Teacher session and stashes the Teacher and the presented token in the context.
func teacherAuthMiddleware(svc *auth.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			token, err := bearerToken(ctx)
			if err != nil {
				return err
			}
			t, err := svc.AuthenticateTeacher(token)
			if err != nil {
				return err
			}
			ctx.Set(contextPrincipalKey, t)
			ctx.Set(contextTokenKey, token)
			return next(ctx)
		}
	}
}

// studentAuthMiddleware is the Student counterpart of teacherAuthMiddleware.
func studentAuthMiddleware(svc *auth.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			token, err := bearerToken(ctx)
			if err != nil {
				return err
			}
			s, err := svc.AuthenticateStudent(token)
			if err != nil {
				return err
			}
			ctx.Set(contextPrincipalKey, s)
			ctx.Set(contextTokenKey, token)
			return next(ctx)
		}
	}
}

func contextPrincipal(ctx echo.Context) (auth.Principal, error) {
	if p, ok := ctx.Get(contextPrincipalKey).(auth.Principal); ok {
		return p, nil
	}
	return nil, errPrincipalNotInCtx
}

func contextTeacher(ctx echo.Context) (teacher.Teacher, error) {
	if t, ok := ctx.Get(contextPrincipalKey).(teacher.Teacher); ok {
		return t, nil
	}
	return teacher.Teacher{}, errPrincipalNotInCtx
}

func contextStudent(ctx echo.Context) (student.Student, error) {
	if s, ok := ctx.Get(contextPrincipalKey).(student.Student); ok {
		return s, nil
	}
	return student.Student{}, errPrincipalNotInCtx
}

func contextToken(ctx echo.Context) (string, error) {
	if token, ok := ctx.Get(contextTokenKey).(string); ok {
		return token, nil
	}
	return "", errPrincipalNotInCtx
}
