package model

import "time"

type ProjectStatus string

const (
	ProjectNotStarted ProjectStatus = "Not Started"
	ProjectInProgress ProjectStatus = "In Progress"
	ProjectTesting    ProjectStatus = "Testing"
	ProjectCompleted  ProjectStatus = "Completed"
	ProjectOnHold     ProjectStatus = "On Hold"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectNotStarted, ProjectInProgress, ProjectTesting, ProjectCompleted, ProjectOnHold:
		return true
	}
	return false
}

// Project is stored in `projects` keyed by a generated uuid. ClientName is
// copied from the client when the project is created or re-assigned.
type Project struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	ClientEmail string        `json:"clientEmail"`
	ClientName  string        `json:"clientName"`
	Status      ProjectStatus `json:"status"`
	Priority    string        `json:"priority"`
	Technology  []string      `json:"technology"`
	Budget      int64         `json:"budget"`
	StartDate   *time.Time    `json:"startDate,omitempty"`
	DueDate     *time.Time    `json:"dueDate,omitempty"`
	Progress    int           `json:"progress"`
	AssignedTo  string        `json:"assignedTo"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}
