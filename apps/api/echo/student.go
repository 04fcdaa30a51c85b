package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/auth"
	"github.com/trezcool/shule/core/student"
)

type studentApi struct {
	svc     *student.Service
	authSvc *auth.Service
}

type studentAuthResponse struct {
	Student student.Student `json:"student"`
	Token   string          `json:"token"`
}

func registerStudentAPI(
	g *echo.Group,
	teacherAuth, studentAuth echo.MiddlewareFunc,
	svc *student.Service,
	authSvc *auth.Service,
) {
	api := studentApi{svc: svc, authSvc: authSvc}

	sg := g.Group("/students")

	// un-authed endpoints
	sg.POST("/login", api.login)

	// student session endpoints
	sg.POST("/logout", api.logout, studentAuth)
	sg.POST("/logout-all", api.logoutAll, studentAuth)

	// management endpoints; always scoped to the authenticated teacher
	tg := sg.Group("", teacherAuth)
	tg.POST("", api.create)
	tg.GET("", api.query)

	dg := tg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PATCH("", api.update)
	dg.DELETE("", api.destroy)
	dg.GET("/avatar", api.avatar)
	dg.POST("/avatar", api.setAvatar)
	dg.DELETE("/avatar", api.clearAvatar)
}

// Handlers

func (api *studentApi) create(ctx echo.Context) error {
	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.svc); err != nil {
		return err
	}

	t, err := contextTeacher(ctx)
	if err != nil {
		return err
	}
	s, err := api.svc.Create(data, t.ID)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	token, err := api.authSvc.IssueStudentToken(&s)
	if err != nil {
		return errors.Wrap(err, "issuing token")
	}

	return ctx.JSON(http.StatusCreated, studentAuthResponse{Student: s, Token: token})
}

func (api *studentApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	s, token, err := api.authSvc.LoginStudent(data.Email, data.Password)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, studentAuthResponse{Student: s, Token: token})
}

func (api *studentApi) logout(ctx echo.Context) error {
	s, err := contextStudent(ctx)
	if err != nil {
		return err
	}
	token, err := contextToken(ctx)
	if err != nil {
		return err
	}
	if err := api.authSvc.LogoutStudent(s, token); err != nil {
		return errors.Wrap(err, "logging out")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "logged out"})
}

func (api *studentApi) logoutAll(ctx echo.Context) error {
	s, err := contextStudent(ctx)
	if err != nil {
		return err
	}
	if err := api.authSvc.LogoutStudentAll(s); err != nil {
		return errors.Wrap(err, "logging out all sessions")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "logged out of all sessions"})
}

func (api *studentApi) query(ctx echo.Context) error {
	t, err := contextTeacher(ctx)
	if err != nil {
		return err
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	students, err := api.svc.QueryOwned(t.ID, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []student.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	t, err := contextTeacher(ctx)
	if err != nil {
		return err
	}
	s, err := api.svc.GetOwnedByID(ctx.Param("id"), t.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *studentApi) update(ctx echo.Context) error {
	var data student.UpdateStudent
	if err := bindPatch(ctx, &data, student.UpdateFields...); err != nil {
		return err
	}

	t, err := contextTeacher(ctx)
	if err != nil {
		return err
	}
	s, err := api.svc.Update(ctx.Param("id"), t.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	t, err := contextTeacher(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Param("id"), t.ID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *studentApi) avatar(ctx echo.Context) error {
	t, err := contextTeacher(ctx)
	if err != nil {
		return err
	}
	s, err := api.svc.GetOwnedByID(ctx.Param("id"), t.ID)
	if err != nil {
		return err
	}
	if len(s.Avatar) == 0 {
		return errHttpNotFound
	}
	return ctx.Blob(http.StatusOK, http.DetectContentType(s.Avatar), s.Avatar)
}

func (api *studentApi) setAvatar(ctx echo.Context) error {
	t, err := contextTeacher(ctx)
	if err != nil {
		return err
	}
	s, err := api.svc.GetOwnedByID(ctx.Param("id"), t.ID)
	if err != nil {
		return err
	}

	avatar, err := formFileBytes(ctx, "avatar")
	if err != nil {
		return err
	}
	if err := api.svc.SetAvatar(s, avatar); err != nil {
		return errors.Wrap(err, "setting avatar")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "avatar updated"})
}

func (api *studentApi) clearAvatar(ctx echo.Context) error {
	t, err := contextTeacher(ctx)
	if err != nil {
		return err
	}
	s, err := api.svc.GetOwnedByID(ctx.Param("id"), t.ID)
	if err != nil {
		return err
	}
	if err := api.svc.ClearAvatar(s); err != nil {
		return errors.Wrap(err, "clearing avatar")
	}
	return ctx.NoContent(http.StatusNoContent)
}
