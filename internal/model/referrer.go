package model

import "time"

// Reward limits shared by referrers and referral codes.
const (
	MaxCodesPerReferrer   = 10 // referrer.referralCodes never grows past this
	MaxRewardsPerReferrer = 10 // referrer.totalRewards never grows past this
)

// Referrer is a person who shares referral codes and earns a flat reward per
// converted client. Stored in the `referrers` collection keyed by lowercased
// email.
//
// Fields:
//  Email         – document key, lowercased.
//  Phone         – 10-digit Indian mobile number, unique across referrers.
//  UPI           – payout identifier (VPA) rewards are sent to.
//  PasswordHash  – bcrypt hash used to re-authenticate code requests.
//  ReferralCodes – codes owned by this referrer, at most MaxCodesPerReferrer.
//  TotalRewards  – number of rewards paid out, at most MaxRewardsPerReferrer.
type Referrer struct {
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	UPI           string    `json:"upi"`
	PasswordHash  string    `json:"passwordHash"`
	ReferralCodes []string  `json:"referralCodes"`
	TotalRewards  int       `json:"totalRewards"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ReferrerView is the referrer as returned to callers (no credentials).
type ReferrerView struct {
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	UPI           string    `json:"upi"`
	ReferralCodes []string  `json:"referralCodes"`
	TotalRewards  int       `json:"totalRewards"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (r Referrer) View() ReferrerView {
	return ReferrerView{
		Email:         r.Email,
		Phone:         r.Phone,
		UPI:           r.UPI,
		ReferralCodes: append([]string{}, r.ReferralCodes...),
		TotalRewards:  r.TotalRewards,
		CreatedAt:     r.CreatedAt,
	}
}
