package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/atom-referral-tracker/internal/model"
	"github.com/iliyamo/atom-referral-tracker/internal/service"
)

// SubmitChangeRequest handles POST /api/submitChangeRequest (client session).
func (h *Handler) SubmitChangeRequest(c echo.Context) error {
	var req struct {
		ClientEmail string `json:"clientEmail"`
		ProjectID   string `json:"projectId"`
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	email, err := actingClient(c, req.ClientEmail)
	if err != nil {
		return respondError(c, err)
	}
	cr, err := h.Svc.SubmitChangeRequest(c.Request().Context(), service.ChangeRequestInput{
		ClientEmail: email,
		ProjectID:   req.ProjectID,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		return respondError(c, err)
	}
	return success(c, http.StatusCreated, echo.Map{"changeRequest": cr})
}

// ListChangeRequests handles POST /api/listChangeRequests (client session).
func (h *Handler) ListChangeRequests(c echo.Context) error {
	var req struct {
		ClientEmail string `json:"clientEmail"`
	}
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	email, err := actingClient(c, req.ClientEmail)
	if err != nil {
		return respondError(c, err)
	}
	crs, err := h.Svc.ListChangeRequests(c.Request().Context(), email)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"changeRequests": crs})
}

// UpdateChangeRequestStatus handles POST /api/updateChangeRequestStatus (admin).
func (h *Handler) UpdateChangeRequestStatus(c echo.Context) error {
	var req struct {
		AdminKey   string `json:"adminKey"`
		ID         string `json:"id"`
		Status     string `json:"status"`
		AdminNotes string `json:"adminNotes"`
	}
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	cr, err := h.Svc.UpdateChangeRequestStatus(c.Request().Context(), req.AdminKey, req.ID, model.ChangeRequestStatus(req.Status), req.AdminNotes)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"changeRequest": cr})
}
