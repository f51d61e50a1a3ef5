package http

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/jmehdipour/crm-tools/internal/apperr"
	"github.com/jmehdipour/crm-tools/internal/tools"
	"github.com/labstack/echo/v4"
)

func listToolsHandler(reg *tools.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{"tools": reg.Declarations()})
	}
}

// invokeToolHandler passes the request body to the registry as the tool's
// arguments and answers with the envelope.
func invokeToolHandler(reg *tools.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		body, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		res := reg.Invoke(c.Request().Context(), c.Param("name"), json.RawMessage(body))
		return c.JSON(statusFor(res), res)
	}
}

func statusFor(res tools.Result) int {
	if res.OK {
		return http.StatusOK
	}
	switch res.Error.Code {
	case apperr.CodeNotFound:
		return http.StatusNotFound
	case apperr.CodeDuplicateEmail:
		return http.StatusConflict
	case apperr.CodeInvalidQuery, apperr.CodeInvalidArgument:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
