package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/bursary/core/account"
	"github.com/trezcool/bursary/core/user"
)

type accountAPI struct {
	svc      account.Service
	validate *validator.Validate
}

func registerAccountAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc account.Service, validate *validator.Validate) {
	api := accountAPI{svc: svc, validate: validate}

	canManage := requireCapability(user.PermManageAccounts)
	canView := requireCapability(user.PermViewAccounts)

	bg := g.Group("/bank-accounts", jwt)
	bg.POST("", api.createBank, canManage)
	bg.GET("", api.queryBanks, canView)
	bg.DELETE("/:id", api.destroyBank, canManage)

	mg := g.Group("/mfs-accounts", jwt)
	mg.POST("", api.createMfs, canManage)
	mg.GET("", api.queryMfs, canView)
	mg.DELETE("/:id", api.destroyMfs, canManage)

	g.GET("/payments/summary", api.summary, jwt, requireCapability(user.PermViewPaymentSummary))
}

func (api *accountAPI) createBank(ctx echo.Context) error {
	var data account.NewBankAccount
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewBankAccount")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	acc, err := api.svc.CreateBankAccount(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating bank account")
	}
	return ctx.JSON(http.StatusCreated, acc)
}

func (api *accountAPI) queryBanks(ctx echo.Context) error {
	accs, err := api.svc.QueryBankAccounts(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying bank accounts")
	}
	return ctx.JSON(http.StatusOK, accs)
}

func (api *accountAPI) destroyBank(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteBankAccount(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting bank account")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *accountAPI) createMfs(ctx echo.Context) error {
	var data account.NewMfsAccount
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMfsAccount")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	acc, err := api.svc.CreateMfsAccount(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating mfs account")
	}
	return ctx.JSON(http.StatusCreated, acc)
}

func (api *accountAPI) queryMfs(ctx echo.Context) error {
	accs, err := api.svc.QueryMfsAccounts(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying mfs accounts")
	}
	return ctx.JSON(http.StatusOK, accs)
}

func (api *accountAPI) destroyMfs(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteMfsAccount(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting mfs account")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *accountAPI) summary(ctx echo.Context) error {
	var filter account.SummaryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to SummaryFilter")
	}
	sum, err := api.svc.Summary(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "summarizing payments")
	}
	return ctx.JSON(http.StatusOK, sum)
}
