package handler // package handler adapts HTTP requests to the service layer

import (
	"net/http" // HTTP status codes
	"strings"  // email comparison

	"github.com/labstack/echo/v4" // Echo framework for request/response handling

	"github.com/iliyamo/atom-referral-tracker/internal/logger"     // structured logging for internal errors
	"github.com/iliyamo/atom-referral-tracker/internal/middleware" // authenticated client identity
	"github.com/iliyamo/atom-referral-tracker/internal/service"    // referral and payment rules
)

// Handler exposes every API endpoint. All business rules live in the
// service; handlers only bind requests, pick the acting client and shape
// the JSON response.
type Handler struct {
	Svc *service.Service
}

// New constructs a Handler and panics if the service is missing.
func New(svc *service.Service) *Handler {
	if svc == nil {
		panic("nil service passed to handler.New")
	}
	return &Handler{Svc: svc}
}

// statusFor maps a service error kind to its HTTP status. Conflicts answer
// 400 because existing clients match on that status.
func statusFor(k service.Kind) int {
	switch k {
	case service.KindValidation, service.KindConflict:
		return http.StatusBadRequest
	case service.KindUnauthorized:
		return http.StatusUnauthorized
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindRateLimited:
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

// respondError writes {error} for err. Internal errors are logged with the
// request and hidden from the caller.
func respondError(c echo.Context, err error) error {
	kind := service.KindOf(err)
	status := statusFor(kind)
	if kind == service.KindInternal {
		logger.Error("request failed",
			"method", c.Request().Method,
			"path", c.Path(),
			"ip", c.RealIP(),
			"error", err,
		)
		return c.JSON(status, echo.Map{"error": "internal server error"})
	}
	return c.JSON(status, echo.Map{"error": err.Error()})
}

// success writes fields plus "success": true.
func success(c echo.Context, status int, fields echo.Map) error {
	if fields == nil {
		fields = echo.Map{}
	}
	fields["success"] = true
	return c.JSON(status, fields)
}

func invalidBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
}

// actingClient returns the authenticated client's email. A body email that
// names a different client is refused.
func actingClient(c echo.Context, bodyEmail string) (string, error) {
	email := middleware.ClientEmail(c)
	if email == "" {
		return "", service.Unauthorized("missing client session")
	}
	if bodyEmail != "" && !sameEmail(bodyEmail, email) {
		return "", service.Forbidden("cannot act on behalf of another client")
	}
	return email, nil
}

func sameEmail(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// HTTPErrorHandler renders errors raised outside the handlers (unknown
// route, wrong method, oversized body) in the same {error} shape.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := http.StatusInternalServerError
	msg := "internal server error"
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(status)
		}
	} else {
		logger.Error("unhandled error", "method", c.Request().Method, "path", c.Path(), "error", err)
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, echo.Map{"error": msg})
}
