package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/bursary/core/collection"
	"github.com/trezcool/bursary/core/user"
)

type collectionAPI struct {
	svc      collection.Service
	validate *validator.Validate
}

func registerCollectionAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc collection.Service, validate *validator.Validate) {
	api := collectionAPI{svc: svc, validate: validate}

	cg := g.Group("/student-fees", jwt)
	cg.POST("/collect", api.collect, requireCapability(user.PermCollectStudentFees))
}

// collect accepts one request object or an array of them, and answers in the same shape.
func (api *collectionAPI) collect(ctx echo.Context) error {
	batch, isList, err := bindBatch(ctx)
	if err != nil {
		return err
	}
	if err = batch.Validate(api.validate); err != nil {
		return err
	}

	results, err := api.svc.Collect(ctx.Request().Context(), batch, contextUserID(ctx))
	if err != nil {
		return errors.Wrap(err, "collecting fees")
	}
	if isList {
		return ctx.JSON(http.StatusOK, results)
	}
	return ctx.JSON(http.StatusOK, results[0])
}
