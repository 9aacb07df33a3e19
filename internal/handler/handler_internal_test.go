package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/atom-referral-tracker/internal/service"
)

func TestStatusFor(t *testing.T) {
	cases := map[service.Kind]int{
		service.KindValidation:   http.StatusBadRequest,
		service.KindConflict:     http.StatusBadRequest,
		service.KindUnauthorized: http.StatusUnauthorized,
		service.KindForbidden:    http.StatusForbidden,
		service.KindNotFound:     http.StatusNotFound,
		service.KindRateLimited:  http.StatusTooManyRequests,
		service.KindInternal:     http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, statusFor(kind), kind.String())
	}
}

func TestRespondErrorHidesInternalDetails(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/api/x", nil), rec)

	_ = respondError(c, errors.New("dial tcp 10.0.0.5:3306: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodPost, "/api/x", nil), rec)
	_ = respondError(c, service.Conflict("reward already paid"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"reward already paid"}`, rec.Body.String())
}

func TestSameEmail(t *testing.T) {
	assert.True(t, sameEmail(" C@y.com", "c@y.com"))
	assert.False(t, sameEmail("d@y.com", "c@y.com"))
}
