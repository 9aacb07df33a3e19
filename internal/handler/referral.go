package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/atom-referral-tracker/internal/model"
	"github.com/iliyamo/atom-referral-tracker/internal/service"
)

type generateCodeReq struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	UPI      string `json:"upiId"`
	Password string `json:"password"`
}

// GenerateReferralCode handles POST /api/generateReferralCode.
func (h *Handler) GenerateReferralCode(c echo.Context) error {
	var req generateCodeReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	res, err := h.Svc.GenerateCode(c.Request().Context(), service.GenerateCodeInput{
		Email: req.Email, Phone: req.Phone, UPI: req.UPI, Password: req.Password,
	})
	if err != nil {
		return respondError(c, err)
	}
	return success(c, http.StatusCreated, echo.Map{
		"referralCode":   res.Code,
		"codesRemaining": res.CodesRemaining,
		"referrer":       res.Referrer,
		"newReferrer":    res.NewReferrer,
	})
}

// ValidateReferralCode handles POST /api/validateReferralCode.
func (h *Handler) ValidateReferralCode(c echo.Context) error {
	var req struct {
		Code string `json:"referralCode"`
	}
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	res, err := h.Svc.ValidateCode(c.Request().Context(), req.Code)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, http.StatusOK, echo.Map{
		"valid":        res.Valid,
		"referralCode": res.Code,
		"discount":     res.Discount,
	})
}

// GetReferrerStatus handles POST /api/getReferrerStatus. The referrer
// authenticates with the password chosen when their first code was issued.
func (h *Handler) GetReferrerStatus(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	st, err := h.Svc.GetReferrerStatus(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, http.StatusOK, echo.Map{
		"referrer":      st.Referrer,
		"referralCodes": st.Codes,
		"summary":       st.Summary,
	})
}

// UpdateReferrerInfo handles POST /api/updateReferrerInfo (admin).
func (h *Handler) UpdateReferrerInfo(c echo.Context) error {
	var req struct {
		AdminKey string  `json:"adminKey"`
		Email    string  `json:"email"`
		Phone    *string `json:"phone"`
		UPI      *string `json:"upiId"`
	}
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	ref, err := h.Svc.UpdateContactInfo(c.Request().Context(), req.AdminKey, req.Email, req.Phone, req.UPI)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"referrer": ref})
}

// ApproveReferralReward handles POST /api/approveReferralReward (admin).
func (h *Handler) ApproveReferralReward(c echo.Context) error {
	var req struct {
		AdminKey string `json:"adminKey"`
		Code     string `json:"referralCode"`
	}
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	res, err := h.Svc.ApproveReward(c.Request().Context(), req.AdminKey, req.Code)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"referralCode": res.Code, "referrer": res.Referrer})
}

// UpdateReferralBonusStatus handles POST /api/updateReferralBonusStatus
// (admin). Setting "Paid" pays the reward exactly like approveReferralReward.
func (h *Handler) UpdateReferralBonusStatus(c echo.Context) error {
	var req struct {
		AdminKey    string `json:"adminKey"`
		Code        string `json:"referralCode"`
		BonusStatus string `json:"bonusStatus"`
	}
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	rc, err := h.Svc.UpdateBonusStatus(c.Request().Context(), req.AdminKey, req.Code, model.BonusStatus(req.BonusStatus))
	if err != nil {
		return respondError(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"referralCode": rc})
}
