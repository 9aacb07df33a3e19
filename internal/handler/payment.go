package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/atom-referral-tracker/internal/model"
	"github.com/iliyamo/atom-referral-tracker/internal/service"
)

// GeneratePaymentQR handles POST /api/generatePaymentQR (client session).
func (h *Handler) GeneratePaymentQR(c echo.Context) error {
	var req struct {
		ClientEmail string `json:"clientEmail"`
		ProjectID   string `json:"projectId"`
		PaymentStep int    `json:"paymentStep"`
	}
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	email, err := actingClient(c, req.ClientEmail)
	if err != nil {
		return respondError(c, err)
	}
	pay, err := h.Svc.RequestPayment(c.Request().Context(), email, req.ProjectID, req.PaymentStep)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, http.StatusCreated, echo.Map{
		"payment": pay,
		"upiLink": pay.UPILink,
		"amount":  pay.Amount,
		"dueDate": pay.DueDate,
	})
}

// SubmitPaymentProof handles POST /api/submitPaymentProof (client session).
func (h *Handler) SubmitPaymentProof(c echo.Context) error {
	var req struct {
		ClientEmail       string `json:"clientEmail"`
		PaymentID         string `json:"paymentId"`
		TransactionID     string `json:"transactionId"`
		PaymentMethod     string `json:"paymentMethod"`
		Notes             string `json:"notes"`
		PaymentScreenshot string `json:"paymentScreenshot"`
	}
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	email, err := actingClient(c, req.ClientEmail)
	if err != nil {
		return respondError(c, err)
	}
	pay, err := h.Svc.SubmitProof(c.Request().Context(), service.SubmitProofInput{
		PaymentID:     req.PaymentID,
		ClientEmail:   email,
		TransactionID: req.TransactionID,
		Method:        req.PaymentMethod,
		Notes:         req.Notes,
		Screenshot:    req.PaymentScreenshot,
	})
	if err != nil {
		return respondError(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"payment": pay})
}

// ReopenPayment handles POST /api/reopenPayment (client session).
func (h *Handler) ReopenPayment(c echo.Context) error {
	var req struct {
		ClientEmail string `json:"clientEmail"`
		PaymentID   string `json:"paymentId"`
	}
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	email, err := actingClient(c, req.ClientEmail)
	if err != nil {
		return respondError(c, err)
	}
	pay, err := h.Svc.ReopenPayment(c.Request().Context(), req.PaymentID, email)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"payment": pay})
}

// GetClientPayments handles POST /api/getClientPayments (client session).
func (h *Handler) GetClientPayments(c echo.Context) error {
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
	ps, err := h.Svc.ListPayments(c.Request().Context(), email)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"payments": ps})
}

// VerifyPayment handles POST /api/verifyPayment (admin).
func (h *Handler) VerifyPayment(c echo.Context) error {
	var req struct {
		AdminKey   string `json:"adminKey"`
		PaymentID  string `json:"paymentId"`
		Approved   *bool  `json:"approved"`
		AdminNotes string `json:"adminNotes"`
	}
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if req.Approved == nil {
		if err := h.Svc.Authorize(req.AdminKey); err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "approved is required"})
	}
	res, err := h.Svc.VerifyPayment(c.Request().Context(), req.AdminKey, req.PaymentID, *req.Approved, req.AdminNotes)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, http.StatusOK, echo.Map{
		"payment":        res.Payment,
		"client":         res.Client,
		"rewardEligible": res.RewardEligible,
	})
}

// UpdatePaymentStatus handles POST /api/updatePaymentStatus (admin), the
// direct edit of a client's amounts and statuses.
func (h *Handler) UpdatePaymentStatus(c echo.Context) error {
	var req struct {
		AdminKey      string  `json:"adminKey"`
		ClientEmail   string  `json:"clientEmail"`
		TotalAmount   *int64  `json:"totalAmount"`
		PaidAmount    *int64  `json:"paidAmount"`
		PaymentStatus *string `json:"paymentStatus"`
		ProjectStatus *string `json:"projectStatus"`
	}
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	up := service.PaymentStatusUpdate{TotalAmount: req.TotalAmount, PaidAmount: req.PaidAmount}
	if req.PaymentStatus != nil {
		ps := model.PaymentStatus(*req.PaymentStatus)
		up.PaymentStatus = &ps
	}
	if req.ProjectStatus != nil {
		ps := model.ProjectStatus(*req.ProjectStatus)
		up.ProjectStatus = &ps
	}
	res, err := h.Svc.UpdatePaymentStatus(c.Request().Context(), req.AdminKey, req.ClientEmail, up)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"client": res.Client, "rewardEligible": res.RewardEligible})
}
