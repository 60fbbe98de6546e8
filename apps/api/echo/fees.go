package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/bursary/core/fees"
	"github.com/trezcool/bursary/core/user"
)

type feesAPI struct {
	svc      fees.Service
	validate *validator.Validate
}

func registerFeesAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc fees.Service, validate *validator.Validate) {
	api := feesAPI{svc: svc, validate: validate}

	fg := g.Group("/fees", jwt)
	canCreate := requireCapability(user.PermCreateFeesMaster)
	canView := requireCapability(user.PermViewFeesMaster)
	canEdit := requireCapability(user.PermEditFeesMaster)
	canDelete := requireCapability(user.PermDeleteFeesMaster)

	fg.POST("/groups", api.createGroup, canCreate)
	fg.GET("/groups", api.queryGroups, canView)
	fg.GET("/groups/:id", api.retrieveGroup, canView)
	fg.PUT("/groups/:id", api.updateGroup, canEdit)
	fg.DELETE("/groups/:id", api.destroyGroup, canDelete)

	fg.POST("/types", api.createType, canCreate)
	fg.GET("/types", api.queryTypes, canView)
	fg.GET("/types/:id", api.retrieveType, canView)
	fg.PUT("/types/:id", api.updateType, canEdit)
	fg.DELETE("/types/:id", api.destroyType, canDelete)

	fg.POST("/masters", api.createMaster, canCreate)
	fg.GET("/masters", api.queryMasters, canView)
	fg.GET("/masters/:id", api.retrieveMaster, canView)
	fg.PUT("/masters/:id", api.updateMaster, canEdit)
	fg.DELETE("/masters/:id", api.destroyMaster, canDelete)
}

// Groups

func (api *feesAPI) createGroup(ctx echo.Context) error {
	var data fees.GroupInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GroupInput")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	grp, err := api.svc.CreateGroup(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating fees group")
	}
	return ctx.JSON(http.StatusCreated, grp)
}

func (api *feesAPI) queryGroups(ctx echo.Context) error {
	grps, err := api.svc.QueryGroups(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying fees groups")
	}
	return ctx.JSON(http.StatusOK, grps)
}

func (api *feesAPI) retrieveGroup(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	grp, err := api.svc.GetGroup(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "fetching fees group")
	}
	return ctx.JSON(http.StatusOK, grp)
}

func (api *feesAPI) updateGroup(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	var data fees.GroupInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GroupInput")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	grp, err := api.svc.UpdateGroup(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating fees group")
	}
	return ctx.JSON(http.StatusOK, grp)
}

func (api *feesAPI) destroyGroup(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteGroup(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting fees group")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Types

func (api *feesAPI) createType(ctx echo.Context) error {
	var data fees.TypeInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TypeInput")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	typ, err := api.svc.CreateType(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating fees type")
	}
	return ctx.JSON(http.StatusCreated, typ)
}

func (api *feesAPI) queryTypes(ctx echo.Context) error {
	types, err := api.svc.QueryTypes(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying fees types")
	}
	return ctx.JSON(http.StatusOK, types)
}

func (api *feesAPI) retrieveType(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	typ, err := api.svc.GetType(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "fetching fees type")
	}
	return ctx.JSON(http.StatusOK, typ)
}

func (api *feesAPI) updateType(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	var data fees.TypeInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TypeInput")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	typ, err := api.svc.UpdateType(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating fees type")
	}
	return ctx.JSON(http.StatusOK, typ)
}

func (api *feesAPI) destroyType(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteType(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting fees type")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Masters

func (api *feesAPI) createMaster(ctx echo.Context) error {
	var data fees.MasterInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MasterInput")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	m, err := api.svc.CreateMaster(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating fees master")
	}
	return ctx.JSON(http.StatusCreated, m)
}

func (api *feesAPI) queryMasters(ctx echo.Context) error {
	var filter fees.MasterFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to MasterFilter")
	}
	masters, err := api.svc.QueryMasters(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying fees masters")
	}
	return ctx.JSON(http.StatusOK, masters)
}

func (api *feesAPI) retrieveMaster(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	m, err := api.svc.GetMaster(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "fetching fees master")
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *feesAPI) updateMaster(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	var data fees.MasterInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MasterInput")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	m, err := api.svc.UpdateMaster(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating fees master")
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *feesAPI) destroyMaster(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteMaster(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting fees master")
	}
	return ctx.NoContent(http.StatusNoContent)
}
