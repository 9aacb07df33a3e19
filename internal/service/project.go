package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/iliyamo/atom-referral-tracker/internal/docstore"
	"github.com/iliyamo/atom-referral-tracker/internal/model"
)

type ProjectInput struct {
	Name        string
	Description string
	ClientEmail string
	Status      model.ProjectStatus
	Priority    string
	Technology  []string
	Budget      int64
	StartDate   *time.Time
	DueDate     *time.Time
	Progress    int
	AssignedTo  string
}

// ProjectUpdate is a partial update: nil fields keep their stored value.
type ProjectUpdate struct {
	Name        *string
	Description *string
	ClientEmail *string
	Status      *model.ProjectStatus
	Priority    *string
	Technology  *[]string
	Budget      *int64
	StartDate   *time.Time
	DueDate     *time.Time
	Progress    *int
	AssignedTo  *string
}

func checkProgress(p int) error {
	if p < 0 || p > 100 {
		return Validation("progress must be between 0 and 100")
	}
	return nil
}

func checkBudget(b int64) error {
	if b < 0 {
		return Validation("budget cannot be negative")
	}
	return nil
}

// syncProjectStatus mirrors a project's status onto its client record.
func (s *Service) syncProjectStatus(ctx context.Context, tx docstore.Querier, client model.Client, status model.ProjectStatus, now time.Time) error {
	if client.ProjectStatus == status {
		return nil
	}
	client.ProjectStatus = status
	client.UpdatedAt = now
	if err := s.repos.Clients.Save(ctx, tx, client); err != nil {
		return fmt.Errorf("save client: %w", err)
	}
	return nil
}

func (s *Service) CreateProject(ctx context.Context, adminKey string, in ProjectInput) (model.Project, error) {
	if err := s.Authorize(adminKey); err != nil {
		return model.Project{}, err
	}
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.ClientEmail)
	if err := required("name", name); err != nil {
		return model.Project{}, err
	}
	if err := checkEmail(email); err != nil {
		return model.Project{}, err
	}
	if in.Status == "" {
		in.Status = model.ProjectNotStarted
	}
	if !in.Status.Valid() {
		return model.Project{}, Validation("invalid project status %q", in.Status)
	}
	if err := checkBudget(in.Budget); err != nil {
		return model.Project{}, err
	}
	if err := checkProgress(in.Progress); err != nil {
		return model.Project{}, err
	}
	if in.Technology == nil {
		in.Technology = []string{}
	}

	var p model.Project
	err := s.inTx(ctx, func(ctx context.Context, tx docstore.Querier, _ *outbox) error {
		now := s.clock()
		client, err := s.repos.Clients.Get(ctx, tx, email)
		if err != nil {
			return err
		}
		p = model.Project{
			ID:          s.newID(),
			Name:        name,
			Description: in.Description,
			ClientEmail: email,
			ClientName:  client.Name,
			Status:      in.Status,
			Priority:    in.Priority,
			Technology:  in.Technology,
			Budget:      in.Budget,
			StartDate:   in.StartDate,
			DueDate:     in.DueDate,
			Progress:    in.Progress,
			AssignedTo:  in.AssignedTo,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.repos.Projects.Create(ctx, tx, p); err != nil {
			return fmt.Errorf("create project: %w", err)
		}
		return s.syncProjectStatus(ctx, tx, client, p.Status, now)
	})
	if err != nil {
		return model.Project{}, classify("create project", err)
	}
	return p, nil
}

func (s *Service) UpdateProject(ctx context.Context, adminKey, id string, up ProjectUpdate) (model.Project, error) {
	if err := s.Authorize(adminKey); err != nil {
		return model.Project{}, err
	}
	if err := required("projectId", id); err != nil {
		return model.Project{}, err
	}
	if up.Name != nil {
		if err := required("name", *up.Name); err != nil {
			return model.Project{}, err
		}
	}
	if up.Status != nil && !up.Status.Valid() {
		return model.Project{}, Validation("invalid project status %q", *up.Status)
	}
	if up.Budget != nil {
		if err := checkBudget(*up.Budget); err != nil {
			return model.Project{}, err
		}
	}
	if up.Progress != nil {
		if err := checkProgress(*up.Progress); err != nil {
			return model.Project{}, err
		}
	}

	var p model.Project
	err := s.inTx(ctx, func(ctx context.Context, tx docstore.Querier, _ *outbox) error {
		now := s.clock()
		var err error
		p, err = s.repos.Projects.Get(ctx, tx, id)
		if err != nil {
			return err
		}
		if up.ClientEmail != nil {
			email := normalizeEmail(*up.ClientEmail)
			if err := checkEmail(email); err != nil {
				return err
			}
			if email != p.ClientEmail {
				client, err := s.repos.Clients.Get(ctx, tx, email)
				if err != nil {
					return err
				}
				p.ClientEmail = client.Email
				p.ClientName = client.Name
			}
		}
		if up.Name != nil {
			p.Name = strings.TrimSpace(*up.Name)
		}
		if up.Description != nil {
			p.Description = *up.Description
		}
		if up.Status != nil {
			p.Status = *up.Status
		}
		if up.Priority != nil {
			p.Priority = *up.Priority
		}
		if up.Technology != nil {
			p.Technology = *up.Technology
		}
		if up.Budget != nil {
			p.Budget = *up.Budget
		}
		if up.StartDate != nil {
			p.StartDate = up.StartDate
		}
		if up.DueDate != nil {
			p.DueDate = up.DueDate
		}
		if up.Progress != nil {
			p.Progress = *up.Progress
		}
		if up.AssignedTo != nil {
			p.AssignedTo = *up.AssignedTo
		}
		p.UpdatedAt = now
		if err := s.repos.Projects.Save(ctx, tx, p); err != nil {
			return fmt.Errorf("save project: %w", err)
		}
		if up.Status == nil && up.ClientEmail == nil {
			return nil
		}
		client, err := s.repos.Clients.Get(ctx, tx, p.ClientEmail)
		if err != nil {
			return err
		}
		return s.syncProjectStatus(ctx, tx, client, p.Status, now)
	})
	if err != nil {
		return model.Project{}, classify("update project", err)
	}
	return p, nil
}

func (s *Service) DeleteProject(ctx context.Context, adminKey, id string) error {
	if err := s.Authorize(adminKey); err != nil {
		return err
	}
	if err := required("projectId", id); err != nil {
		return err
	}
	err := s.repos.Projects.Delete(ctx, s.store, id)
	return classify("delete project", err)
}

// ListProjects returns the client's projects, most recently updated first.
func (s *Service) ListProjects(ctx context.Context, rawEmail string) ([]model.Project, error) {
	email := normalizeEmail(rawEmail)
	ps, err := s.repos.Projects.ListByClient(ctx, s.store, email)
	if err != nil {
		return nil, classify("list projects", err)
	}
	sort.SliceStable(ps, func(i, j int) bool {
		if !ps[i].UpdatedAt.Equal(ps[j].UpdatedAt) {
			return ps[i].UpdatedAt.After(ps[j].UpdatedAt)
		}
		return ps[i].CreatedAt.After(ps[j].CreatedAt)
	})
	return ps, nil
}

// StepInfo describes one installment of a client's schedule.
type StepInfo struct {
	Step      int                `json:"step"`
	Percent   int                `json:"percent"`
	Amount    int64              `json:"amount"`
	Status    model.PaymentState `json:"status,omitempty"` // latest payment for the step, empty if never requested
	PaymentID string             `json:"paymentId,omitempty"`
}

type ProjectDetails struct {
	Client   model.ClientView `json:"client"`
	Project  *model.Project   `json:"project"`
	Projects []model.Project  `json:"projects"`
	Schedule []StepInfo       `json:"paymentSchedule"`
}

// ProjectDetails returns the client's current project (the most recently
// updated one) with its payment schedule.
func (s *Service) ProjectDetails(ctx context.Context, rawEmail string) (ProjectDetails, error) {
	email := normalizeEmail(rawEmail)
	if err := checkEmail(email); err != nil {
		return ProjectDetails{}, err
	}
	client, err := s.activeClient(ctx, s.store, email)
	if err != nil {
		return ProjectDetails{}, classify("load client", err)
	}
	ps, err := s.ListProjects(ctx, email)
	if err != nil {
		return ProjectDetails{}, err
	}
	out := ProjectDetails{Client: client.View(), Projects: ps, Schedule: []StepInfo{}}
	if len(ps) == 0 {
		return out, nil
	}
	cur := ps[0]
	out.Project = &cur

	payments, err := s.repos.Payments.ListByProject(ctx, s.store, cur.ID)
	if err != nil {
		return ProjectDetails{}, classify("list payments", err)
	}
	total := scheduleTotal(client, cur)
	for step := 1; step <= 3; step++ {
		info := StepInfo{Step: step, Percent: stepPercent[step], Amount: StepAmount(total, step)}
		for _, pay := range payments {
			// later payments win; Find returns insertion order
			if pay.PaymentStep == step {
				info.Status = pay.Status
				info.PaymentID = pay.ID
			}
		}
		out.Schedule = append(out.Schedule, info)
	}
	return out, nil
}
