package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/subject"
)

type subjectApi struct {
	svc *subject.Service
}

func registerSubjectAPI(g *echo.Group, teacherAuth, studentAuth echo.MiddlewareFunc, svc *subject.Service) {
	api := subjectApi{svc: svc}

	// student self-view; static route wins over /subjects/:id
	g.GET("/subjects/grades/me", api.myGrades, studentAuth)

	sg := g.Group("/subjects", teacherAuth)
	sg.POST("", api.create)
	sg.GET("", api.query)
	sg.GET("/:id", api.retrieve)
	sg.PATCH("/:id", api.update)
	sg.DELETE("/:id", api.destroy)
	sg.POST("/:id/grades", api.createGrade)
	sg.PATCH("/:id/grades", api.updateGrade)
}

// Handlers

func (api *subjectApi) create(ctx echo.Context) error {
	var data subject.NewSubject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubject")
	}

	t, err := contextTeacher(ctx)
	if err != nil {
		return err
	}
	sub, err := api.svc.Create(data, t.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *subjectApi) query(ctx echo.Context) error {
	t, err := contextTeacher(ctx)
	if err != nil {
		return err
	}
	subjects, err := api.svc.QueryOwned(t.ID)
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	if subjects == nil {
		subjects = []subject.Subject{}
	}
	return ctx.JSON(http.StatusOK, subjects)
}

func (api *subjectApi) retrieve(ctx echo.Context) error {
	t, err := contextTeacher(ctx)
	if err != nil {
		return err
	}
	sub, err := api.svc.GetOwnedByID(ctx.Param("id"), t.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *subjectApi) update(ctx echo.Context) error {
	var data subject.NewSubject
	if err := bindPatch(ctx, &data, subject.UpdateFields...); err != nil {
		return err
	}

	t, err := contextTeacher(ctx)
	if err != nil {
		return err
	}
	sub, err := api.svc.Update(ctx.Param("id"), t.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *subjectApi) destroy(ctx echo.Context) error {
	t, err := contextTeacher(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Param("id"), t.ID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *subjectApi) createGrade(ctx echo.Context) error {
	var data subject.NewGrade
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGrade")
	}

	t, err := contextTeacher(ctx)
	if err != nil {
		return err
	}
	g, err := api.svc.CreateGrade(ctx.Param("id"), t.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, g)
}

func (api *subjectApi) updateGrade(ctx echo.Context) error {
	var data subject.UpdateGrade
	if err := bindPatch(ctx, &data, subject.GradeUpdateFields...); err != nil {
		return err
	}

	t, err := contextTeacher(ctx)
	if err != nil {
		return err
	}
	g, err := api.svc.UpdateGrade(ctx.Param("id"), t.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, g)
}

func (api *subjectApi) myGrades(ctx echo.Context) error {
	s, err := contextStudent(ctx)
	if err != nil {
		return err
	}
	view, err := api.svc.StudentGrades(s)
	if err != nil {
		return errors.Wrap(err, "querying student grades")
	}
	return ctx.JSON(http.StatusOK, view)
}
