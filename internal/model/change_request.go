package model

import "time"

type ChangeRequestStatus string

const (
	ChangePending  ChangeRequestStatus = "pending"
	ChangeApproved ChangeRequestStatus = "approved"
	ChangeRejected ChangeRequestStatus = "rejected"
)

// ChangeRequest is a free-text ticket a client raises against their project.
type ChangeRequest struct {
	ID          string              `json:"id"`
	ClientEmail string              `json:"clientEmail"`
	ProjectID   string              `json:"projectId,omitempty"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      ChangeRequestStatus `json:"status"`
	AdminNotes  string              `json:"adminNotes,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}
