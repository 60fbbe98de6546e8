package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/bursary/core/user"
)

// requireCapability lets the request through only if one of the token's roles grants perm.
func requireCapability(perm string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := contextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if user.HasPermission(claims.Roles, perm) {
				return next(ctx)
			}
			return errHTTPForbidden
		}
	}
}
