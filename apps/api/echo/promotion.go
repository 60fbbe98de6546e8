package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/bursary/core/promotion"
	"github.com/trezcool/bursary/core/user"
)

type promotionAPI struct {
	svc      promotion.Service
	validate *validator.Validate
}

func registerPromotionAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc promotion.Service, validate *validator.Validate) {
	api := promotionAPI{svc: svc, validate: validate}

	pg := g.Group("/student-promotions", jwt)
	pg.POST("", api.promote, requireCapability(user.PermPromoteStudent))
	pg.GET("", api.query, requireCapability(user.PermViewStudentPromotion))
}

func (api *promotionAPI) promote(ctx echo.Context) error {
	var data promotion.Input
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to promotion Input")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	out, err := api.svc.Promote(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "promoting students")
	}
	return ctx.JSON(http.StatusOK, out)
}

func (api *promotionAPI) query(ctx echo.Context) error {
	var filter promotion.RecordFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to RecordFilter")
	}
	recs, err := api.svc.Records(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying promotion records")
	}
	return ctx.JSON(http.StatusOK, recs)
}
