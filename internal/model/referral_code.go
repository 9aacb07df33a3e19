package model

import "time"

// BonusStatus is the admin-facing label for a code's reward. It is derived
// from the Used/RewardEligible/RewardPaid flags except for Processing and
// Rejected, which an admin may set as annotations while a reward is unpaid.
type BonusStatus string

const (
	BonusPending    BonusStatus = "Pending"
	BonusEligible   BonusStatus = "Eligible"
	BonusProcessing BonusStatus = "Processing"
	BonusPaid       BonusStatus = "Paid"
	BonusRejected   BonusStatus = "Rejected"
)

// Valid reports whether s is one of the known labels.
func (s BonusStatus) Valid() bool {
	switch s {
	case BonusPending, BonusEligible, BonusProcessing, BonusPaid, BonusRejected:
		return true
	}
	return false
}

// ReferralCode is stored in `referralCodes` keyed by the code itself
// (ATOM followed by four digits). A code moves issued → used → eligible →
// paid and never goes back.
type ReferralCode struct {
	Code           string      `json:"code"`
	ReferrerEmail  string      `json:"referrerEmail"`
	Used           bool        `json:"used"`
	ClientEmail    *string     `json:"clientEmail"`
	ClientName     string      `json:"clientName,omitempty"`
	RewardEligible bool        `json:"rewardEligible"`
	RewardPaid     bool        `json:"rewardPaid"`
	BonusStatus    BonusStatus `json:"bonusStatus"`
	IssuedAt       time.Time   `json:"issuedAt"`
	UsedAt         *time.Time  `json:"usedAt,omitempty"`
	EligibleAt     *time.Time  `json:"eligibleAt,omitempty"`
	RewardPaidAt   *time.Time  `json:"rewardPaidAt,omitempty"`
}
