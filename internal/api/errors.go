package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"memoryd/internal/apierr"
)

// errorResponse is the JSON body returned for every non-2xx response.
type errorResponse struct {
	Detail string `json:"detail"`
}

// mapError translates an internal error into an echo.HTTPError, using the
// Status of an *apierr.Error when the error carries one and falling back to 500
// otherwise, grounded on tarsy's mapServiceError.
func mapError(err error) *echo.HTTPError {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		return echo.NewHTTPError(ae.Status, errorResponse{Detail: ae.Message})
	}
	return echo.NewHTTPError(http.StatusInternalServerError, errorResponse{Detail: "internal server error"})
}

// httpErrorHandler renders every error, including echo's own binding and
// routing errors, as {"detail": "..."} rather than echo's default shape.
func httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if body, ok := he.Message.(errorResponse); ok {
			_ = c.JSON(he.Code, body)
			return
		}
		_ = c.JSON(he.Code, errorResponse{Detail: toDetail(he.Message)})
		return
	}
	_ = c.JSON(http.StatusInternalServerError, errorResponse{Detail: "internal server error"})
}

func toDetail(msg any) string {
	if s, ok := msg.(string); ok {
		return s
	}
	if e, ok := msg.(error); ok {
		return e.Error()
	}
	return "internal server error"
}
