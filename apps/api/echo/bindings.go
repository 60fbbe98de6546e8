package echoapi

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/bursary/core"
	"github.com/trezcool/bursary/core/collection"
)

// paramID reads the :id path param; anything but a positive integer is a 404.
func paramID(ctx echo.Context) (int, error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id <= 0 {
		return 0, errHTTPNotFound
	}
	return id, nil
}

// bindBatch decodes either a single collection request or an array of them.
// isList reports which shape was sent so the response can mirror it.
func bindBatch(ctx echo.Context) (batch collection.Batch, isList bool, err error) {
	body, err := ioutil.ReadAll(ctx.Request().Body)
	if err != nil {
		return nil, false, errors.Wrap(err, "reading request body")
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, false, core.NewValidationError(collection.ErrEmptyBatch)
	}

	if body[0] == '[' {
		if err = json.Unmarshal(body, &batch); err != nil {
			return nil, true, core.NewValidationError(errors.Wrap(err, "invalid request body"))
		}
		return batch, true, nil
	}

	var req collection.Request
	if err = json.Unmarshal(body, &req); err != nil {
		return nil, false, core.NewValidationError(errors.Wrap(err, "invalid request body"))
	}
	return collection.Batch{req}, false, nil
}
