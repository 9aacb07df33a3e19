package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/atom-referral-tracker/internal/service"
)

type signupReq struct {
	ReferralCode string `json:"referralCode"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Password     string `json:"password"`
}

func (r signupReq) input() service.SignupInput {
	return service.SignupInput{
		ReferralCode: r.ReferralCode,
		Name:         r.Name,
		Email:        r.Email,
		Phone:        r.Phone,
		Password:     r.Password,
	}
}

// ClientSignup handles POST /api/clientSignup.
func (h *Handler) ClientSignup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	client, err := h.Svc.Signup(c.Request().Context(), req.input())
	if err != nil {
		return respondError(c, err)
	}
	return success(c, http.StatusCreated, echo.Map{"client": client})
}

// DirectClientSignup handles POST /api/directClientSignup.
func (h *Handler) DirectClientSignup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	client, err := h.Svc.DirectSignup(c.Request().Context(), req.input())
	if err != nil {
		return respondError(c, err)
	}
	return success(c, http.StatusCreated, echo.Map{"client": client})
}

// ClientLogin handles POST /api/clientLogin and returns the bearer token
// used by the client portal endpoints.
func (h *Handler) ClientLogin(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	res, err := h.Svc.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, http.StatusOK, echo.Map{
		"client":    res.Client,
		"referrer":  res.Referrer,
		"token":     res.Token.Token,
		"expiresAt": res.Token.Exp,
	})
}

// UpdateClientStatus handles POST /api/updateClientStatus (admin).
func (h *Handler) UpdateClientStatus(c echo.Context) error {
	var req struct {
		AdminKey string `json:"adminKey"`
		Email    string `json:"email"`
		Active   *bool  `json:"active"`
	}
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if req.Active == nil {
		if err := h.Svc.Authorize(req.AdminKey); err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "active is required"})
	}
	client, err := h.Svc.SetActive(c.Request().Context(), req.AdminKey, req.Email, *req.Active)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"client": client})
}
