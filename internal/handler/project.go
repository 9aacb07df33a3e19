package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/atom-referral-tracker/internal/model"
	"github.com/iliyamo/atom-referral-tracker/internal/service"
)

// parseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
func parseDate(field string, v *string) (*time.Time, error) {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil, nil
	}
	s := strings.TrimSpace(*v)
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, service.Validation("invalid %s, expected YYYY-MM-DD", field)
}

type projectFields struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	ClientEmail *string   `json:"clientEmail"`
	Status      *string   `json:"status"`
	Priority    *string   `json:"priority"`
	Technology  *[]string `json:"technology"`
	Budget      *int64    `json:"budget"`
	StartDate   *string   `json:"startDate"`
	DueDate     *string   `json:"dueDate"`
	Progress    *int      `json:"progress"`
	AssignedTo  *string   `json:"assignedTo"`
}

func (f projectFields) update() (service.ProjectUpdate, error) {
	up := service.ProjectUpdate{
		Name:        f.Name,
		Description: f.Description,
		ClientEmail: f.ClientEmail,
		Priority:    f.Priority,
		Technology:  f.Technology,
		Budget:      f.Budget,
		Progress:    f.Progress,
		AssignedTo:  f.AssignedTo,
	}
	if f.Status != nil {
		st := model.ProjectStatus(*f.Status)
		up.Status = &st
	}
	var err error
	if up.StartDate, err = parseDate("startDate", f.StartDate); err != nil {
		return up, err
	}
	if up.DueDate, err = parseDate("dueDate", f.DueDate); err != nil {
		return up, err
	}
	return up, nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// CreateProject handles POST /api/createProject (admin).
func (h *Handler) CreateProject(c echo.Context) error {
	var req struct {
		AdminKey string `json:"adminKey"`
		projectFields
	}
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	up, err := req.update()
	if err != nil {
		return respondError(c, err)
	}
	p, err := h.Svc.CreateProject(c.Request().Context(), req.AdminKey, service.ProjectInput{
		Name:        deref(up.Name),
		Description: deref(up.Description),
		ClientEmail: deref(up.ClientEmail),
		Status:      deref(up.Status),
		Priority:    deref(up.Priority),
		Technology:  deref(up.Technology),
		Budget:      deref(up.Budget),
		StartDate:   up.StartDate,
		DueDate:     up.DueDate,
		Progress:    deref(up.Progress),
		AssignedTo:  deref(up.AssignedTo),
	})
	if err != nil {
		return respondError(c, err)
	}
	return success(c, http.StatusCreated, echo.Map{"project": p})
}

// UpdateProject handles POST /api/updateProject (admin). Only fields present
// in the body are changed.
func (h *Handler) UpdateProject(c echo.Context) error {
	var req struct {
		AdminKey  string `json:"adminKey"`
		ProjectID string `json:"projectId"`
		projectFields
	}
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	up, err := req.update()
	if err != nil {
		return respondError(c, err)
	}
	p, err := h.Svc.UpdateProject(c.Request().Context(), req.AdminKey, req.ProjectID, up)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"project": p})
}

// DeleteProject handles POST /api/deleteProject (admin).
func (h *Handler) DeleteProject(c echo.Context) error {
	var req struct {
		AdminKey  string `json:"adminKey"`
		ProjectID string `json:"projectId"`
	}
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := h.Svc.DeleteProject(c.Request().Context(), req.AdminKey, req.ProjectID); err != nil {
		return respondError(c, err)
	}
	return success(c, http.StatusOK, nil)
}

// GetClientProjectDetails handles POST /api/getClientProjectDetails (client
// session).
func (h *Handler) GetClientProjectDetails(c echo.Context) error {
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
	d, err := h.Svc.ProjectDetails(c.Request().Context(), email)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, http.StatusOK, echo.Map{
		"client":          d.Client,
		"project":         d.Project,
		"projects":        d.Projects,
		"paymentSchedule": d.Schedule,
	})
}
