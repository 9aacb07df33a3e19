package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// AdminDashboard handles GET /api/adminDashboard?adminKey=...
func (h *Handler) AdminDashboard(c echo.Context) error {
	d, err := h.Svc.Dashboard(c.Request().Context(), c.QueryParam("adminKey"))
	if err != nil {
		return respondError(c, err)
	}
	return success(c, http.StatusOK, echo.Map{
		"stats":                 d.Stats,
		"proofsToReview":        d.ProofsToReview,
		"rewardsToPay":          d.RewardsToPay,
		"pendingChangeRequests": d.ChangeRequests,
		"clients":               d.Clients,
		"projectsByStatus":      d.ProjectsByState,
	})
}
