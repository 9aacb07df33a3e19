package model

import "time"

// PaymentStatus is the client-level summary of how far payment has got.
type PaymentStatus string

const (
	PaymentPending       PaymentStatus = "Pending"
	PaymentPaidStep1     PaymentStatus = "Paid Step 1"
	PaymentPartiallyPaid PaymentStatus = "Partially Paid"
	PaymentFullyPaid     PaymentStatus = "Fully Paid"
)

// Rank orders statuses so they can only move forward; unknown values rank -1.
func (s PaymentStatus) Rank() int {
	switch s {
	case PaymentPending:
		return 0
	case PaymentPaidStep1:
		return 1
	case PaymentPartiallyPaid:
		return 2
	case PaymentFullyPaid:
		return 3
	}
	return -1
}

func (s PaymentStatus) Valid() bool { return s.Rank() >= 0 }

// ReferralDiscountPercent is granted to a client who signs up with a valid code.
const ReferralDiscountPercent = 25

// Client is stored in `clients` keyed by lowercased email.
type Client struct {
	Email           string        `json:"email"`
	Name            string        `json:"name"`
	Phone           string        `json:"phone"`
	PasswordHash    string        `json:"passwordHash"`
	ReferralCode    *string       `json:"referralCode"`
	Discount        int           `json:"discount"`
	PaymentStatus   PaymentStatus `json:"paymentStatus"`
	ProjectStatus   ProjectStatus `json:"projectStatus"`
	TotalAmount     int64         `json:"totalAmount"`
	PaidAmount      int64         `json:"paidAmount"`
	Active          bool          `json:"active"`
	LastPaymentDate *time.Time    `json:"lastPaymentDate,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// ClientView is the client as returned to callers (no credentials).
type ClientView struct {
	Email           string        `json:"email"`
	Name            string        `json:"name"`
	Phone           string        `json:"phone"`
	ReferralCode    *string       `json:"referralCode"`
	Discount        int           `json:"discount"`
	PaymentStatus   PaymentStatus `json:"paymentStatus"`
	ProjectStatus   ProjectStatus `json:"projectStatus"`
	TotalAmount     int64         `json:"totalAmount"`
	PaidAmount      int64         `json:"paidAmount"`
	Active          bool          `json:"active"`
	LastPaymentDate *time.Time    `json:"lastPaymentDate,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

func (c Client) View() ClientView {
	return ClientView{
		Email:           c.Email,
		Name:            c.Name,
		Phone:           c.Phone,
		ReferralCode:    c.ReferralCode,
		Discount:        c.Discount,
		PaymentStatus:   c.PaymentStatus,
		ProjectStatus:   c.ProjectStatus,
		TotalAmount:     c.TotalAmount,
		PaidAmount:      c.PaidAmount,
		Active:          c.Active,
		LastPaymentDate: c.LastPaymentDate,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}
