package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/bursary/core/student"
	"github.com/trezcool/bursary/core/user"
)

type studentAPI struct {
	svc      student.Service
	validate *validator.Validate
}

func registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc student.Service, validate *validator.Validate) {
	api := studentAPI{svc: svc, validate: validate}

	sg := g.Group("/students", jwt)
	sg.POST("", api.create, requireCapability(user.PermCreateStudent))
	sg.GET("", api.query, requireCapability(user.PermViewStudent))

	// detail endpoints
	sg.GET("/:id", api.retrieve, requireCapability(user.PermViewStudent))
	sg.PUT("/:id", api.update, requireCapability(user.PermEditStudent))
	sg.DELETE("/:id", api.destroy, requireCapability(user.PermDeleteStudent))
	sg.GET("/:id/fees", api.fees, requireCapability(user.PermViewStudentFees))
	sg.GET("/:id/payments", api.payments, requireCapability(user.PermViewStudentFees))
}

func (api *studentAPI) create(ctx echo.Context) error {
	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	detail, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, detail)
}

func (api *studentAPI) query(ctx echo.Context) error {
	var filter student.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	stds, err := api.svc.Filter(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return ctx.JSON(http.StatusOK, stds)
}

func (api *studentAPI) retrieve(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	detail, err := api.svc.GetDetail(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "fetching student")
	}
	return ctx.JSON(http.StatusOK, detail)
}

func (api *studentAPI) update(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	var data student.UpdateStudent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	std, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *studentAPI) destroy(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *studentAPI) fees(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	entries, err := api.svc.Fees(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "fetching student fees")
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *studentAPI) payments(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	pmts, err := api.svc.Payments(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "fetching student payments")
	}
	return ctx.JSON(http.StatusOK, pmts)
}
