package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/bursary/core/class"
	"github.com/trezcool/bursary/core/user"
)

type classAPI struct {
	svc      class.Service
	validate *validator.Validate
}

func registerClassAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc class.Service, validate *validator.Validate) {
	api := classAPI{svc: svc, validate: validate}
	canManage := requireCapability(user.PermManageClasses)
	canView := requireCapability(user.PermViewClasses)

	cg := g.Group("/classes", jwt)
	cg.POST("", api.createClass, canManage)
	cg.GET("", api.queryClasses, canView)
	cg.GET("/:id", api.retrieveClass, canView)
	cg.PUT("/:id", api.updateClass, canManage)
	cg.DELETE("/:id", api.destroyClass, canManage)
	cg.GET("/:id/sections", api.classSections, canView)

	g.POST("/sections", api.createSection, jwt, canManage)
	g.GET("/sections", api.querySections, jwt, canView)

	g.POST("/sessions", api.createSession, jwt, canManage)
	g.GET("/sessions", api.querySessions, jwt, canView)
}

// Classes

func (api *classAPI) createClass(ctx echo.Context) error {
	var data class.ClassInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ClassInput")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	cls, err := api.svc.CreateClass(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	return ctx.JSON(http.StatusCreated, cls)
}

func (api *classAPI) queryClasses(ctx echo.Context) error {
	clss, err := api.svc.QueryClasses(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	return ctx.JSON(http.StatusOK, clss)
}

func (api *classAPI) retrieveClass(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	cls, err := api.svc.GetClass(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "fetching class")
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *classAPI) updateClass(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	var data class.ClassInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ClassInput")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	cls, err := api.svc.UpdateClass(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating class")
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *classAPI) destroyClass(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteClass(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting class")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *classAPI) classSections(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	secs, err := api.svc.QuerySections(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying class sections")
	}
	return ctx.JSON(http.StatusOK, secs)
}

// Sections

func (api *classAPI) createSection(ctx echo.Context) error {
	var data class.SectionInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SectionInput")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	sec, err := api.svc.CreateSection(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating section")
	}
	return ctx.JSON(http.StatusCreated, sec)
}

func (api *classAPI) querySections(ctx echo.Context) error {
	var filter class.SectionFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to SectionFilter")
	}
	secs, err := api.svc.QuerySections(ctx.Request().Context(), filter.ClassID)
	if err != nil {
		return errors.Wrap(err, "querying sections")
	}
	return ctx.JSON(http.StatusOK, secs)
}

// Sessions

func (api *classAPI) createSession(ctx echo.Context) error {
	var data class.SessionInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SessionInput")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	sess, err := api.svc.CreateSession(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating session")
	}
	return ctx.JSON(http.StatusCreated, sess)
}

func (api *classAPI) querySessions(ctx echo.Context) error {
	sessions, err := api.svc.QuerySessions(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying sessions")
	}
	return ctx.JSON(http.StatusOK, sessions)
}
