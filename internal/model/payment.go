package model

import "time"

// PaymentState is the per-installment status. Allowed moves:
// pending → proof_submitted → verified_approved | verified_rejected,
// and verified_rejected → pending when the client reopens it.
type PaymentState string

const (
	PaymentStatePending        PaymentState = "pending"
	PaymentStateProofSubmitted PaymentState = "proof_submitted"
	PaymentStateApproved       PaymentState = "verified_approved"
	PaymentStateRejected       PaymentState = "verified_rejected"
)

// Payment is one installment request, stored in `payments`. The id embeds
// the project id, step and creation time.
type Payment struct {
	ID                string       `json:"id"`
	ClientEmail       string       `json:"clientEmail"`
	ProjectID         string       `json:"projectId"`
	PaymentStep       int          `json:"paymentStep"`
	Amount            int64        `json:"amount"`
	Status            PaymentState `json:"status"`
	UPILink           string       `json:"upiLink"`
	DueDate           time.Time    `json:"dueDate"`
	TransactionID     string       `json:"transactionId,omitempty"`
	PaymentScreenshot string       `json:"paymentScreenshot,omitempty"`
	PaymentMethod     string       `json:"paymentMethod,omitempty"`
	ClientNotes       string       `json:"clientNotes,omitempty"`
	AdminNotes        string       `json:"adminNotes,omitempty"`
	CreatedAt         time.Time    `json:"createdAt"`
	ProofSubmittedAt  *time.Time   `json:"proofSubmittedAt,omitempty"`
	VerifiedAt        *time.Time   `json:"verifiedAt,omitempty"`
	ReopenedAt        *time.Time   `json:"reopenedAt,omitempty"`
	LastReminderAt    *time.Time   `json:"lastReminderAt,omitempty"`
}
