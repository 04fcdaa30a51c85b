package echoapi

import (
	"io/ioutil"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/auth"
	"github.com/trezcool/shule/core/teacher"
)

type teacherApi struct {
	svc     *teacher.Service
	authSvc *auth.Service
}

type teacherAuthResponse struct {
	Teacher teacher.Teacher `json:"teacher"`
	Token   string          `json:"token"`
}

func registerTeacherAPI(g *echo.Group, teacherAuth echo.MiddlewareFunc, svc *teacher.Service, authSvc *auth.Service) {
	api := teacherApi{svc: svc, authSvc: authSvc}

	tg := g.Group("/teachers")

	// un-authed endpoints
	tg.POST("", api.create)
	tg.POST("/login", api.login)
	tg.GET("/:id/avatar", api.avatar)

	// authed endpoints
	ag := tg.Group("", teacherAuth)
	ag.POST("/logout", api.logout)
	ag.POST("/logout-all", api.logoutAll)

	mg := ag.Group("/me")
	mg.GET("", api.retrieve)
	mg.PATCH("", api.update)
	mg.DELETE("", api.destroy)
	mg.POST("/avatar", api.setAvatar)
	mg.DELETE("/avatar", api.clearAvatar)
}

// Handlers

func (api *teacherApi) create(ctx echo.Context) error {
	var data teacher.NewTeacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTeacher")
	}
	if err := data.Validate(api.svc); err != nil {
		return err
	}

	t, err := api.svc.Create(data)
	if err != nil {
		return errors.Wrap(err, "creating teacher")
	}
	token, err := api.authSvc.IssueTeacherToken(&t)
	if err != nil {
		return errors.Wrap(err, "issuing token")
	}

	return ctx.JSON(http.StatusCreated, teacherAuthResponse{Teacher: t, Token: token})
}

func (api *teacherApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	t, token, err := api.authSvc.LoginTeacher(data.Email, data.Password)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, teacherAuthResponse{Teacher: t, Token: token})
}

func (api *teacherApi) logout(ctx echo.Context) error {
	t, err := contextTeacher(ctx)
	if err != nil {
		return err
	}
	token, err := contextToken(ctx)
	if err != nil {
		return err
	}
	if err := api.authSvc.LogoutTeacher(t, token); err != nil {
		return errors.Wrap(err, "logging out")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "logged out"})
}

func (api *teacherApi) logoutAll(ctx echo.Context) error {
	t, err := contextTeacher(ctx)
	if err != nil {
		return err
	}
	if err := api.authSvc.LogoutTeacherAll(t); err != nil {
		return errors.Wrap(err, "logging out all sessions")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "logged out of all sessions"})
}

func (api *teacherApi) retrieve(ctx echo.Context) error {
	t, err := contextTeacher(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *teacherApi) update(ctx echo.Context) error {
	var data teacher.UpdateTeacher
	if err := bindPatch(ctx, &data, teacher.UpdateFields...); err != nil {
		return err
	}

	t, err := contextTeacher(ctx)
	if err != nil {
		return err
	}
	if err := data.Validate(t, api.svc); err != nil {
		return err
	}

	t, err = api.svc.Update(t, data)
	if err != nil {
		return errors.Wrap(err, "updating teacher")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *teacherApi) destroy(ctx echo.Context) error {
	t, err := contextTeacher(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(t); err != nil {
		return errors.Wrap(err, "deleting teacher")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *teacherApi) setAvatar(ctx echo.Context) error {
	t, err := contextTeacher(ctx)
	if err != nil {
		return err
	}

	avatar, err := formFileBytes(ctx, "avatar")
	if err != nil {
		return err
	}
	if err := api.svc.SetAvatar(t, avatar); err != nil {
		return errors.Wrap(err, "setting avatar")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "avatar updated"})
}

func (api *teacherApi) clearAvatar(ctx echo.Context) error {
	t, err := contextTeacher(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.ClearAvatar(t); err != nil {
		return errors.Wrap(err, "clearing avatar")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *teacherApi) avatar(ctx echo.Context) error {
	t, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		return err
	}
	if len(t.Avatar) == 0 {
		return errHttpNotFound
	}
	return ctx.Blob(http.StatusOK, http.DetectContentType(t.Avatar), t.Avatar)
}

// formFileBytes reads an uploaded form file into memory.
func formFileBytes(ctx echo.Context, name string) ([]byte, error) {
	fh, err := ctx.FormFile(name)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, name+" file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, errors.Wrap(err, "opening uploaded file")
	}
	defer func() { _ = f.Close() }()

	raw, err := ioutil.ReadAll(f)
	if err != nil {
		return nil, errors.Wrap(err, "reading uploaded file")
	}
	return raw, nil
}
