package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"memoryd/internal/apierr"
)

func TestMapError_SentinelKindsTranslateToConfiguredStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", apierr.ValidationError("bad input"), http.StatusBadRequest},
		{"auth", apierr.AuthError("nope"), http.StatusUnauthorized},
		{"disabled", apierr.DisabledAccountError("disabled"), http.StatusForbidden},
		{"not_found", apierr.NotFoundError("missing"), http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			he := mapError(tc.err)
			assert.Equal(t, tc.want, he.Code)
		})
	}
}

func TestMapError_UnknownErrorFallsBackTo500(t *testing.T) {
	he := mapError(assert.AnError)
	assert.Equal(t, http.StatusInternalServerError, he.Code)
}

func TestHTTPErrorHandler_RendersDetailBody(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	httpErrorHandler(mapError(apierr.ValidationError("missing field")), c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing field")
}

func TestHTTPErrorHandler_SkipsAlreadyCommittedResponse(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	_ = c.NoContent(http.StatusOK)

	httpErrorHandler(mapError(apierr.ValidationError("ignored")), c)

	assert.Equal(t, http.StatusOK, rec.Code)
}
