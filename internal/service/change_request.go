package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/iliyamo/atom-referral-tracker/internal/docstore"
	"github.com/iliyamo/atom-referral-tracker/internal/model"
	"github.com/iliyamo/atom-referral-tracker/internal/notify"
)

const maxChangeTitle = 200

type ChangeRequestInput struct {
	ClientEmail string
	ProjectID   string
	Title       string
	Description string
}

// SubmitChangeRequest files a client ticket. A project id, when given, must
// name one of the client's projects.
func (s *Service) SubmitChangeRequest(ctx context.Context, in ChangeRequestInput) (model.ChangeRequest, error) {
	email := normalizeEmail(in.ClientEmail)
	title := strings.TrimSpace(in.Title)
	desc := strings.TrimSpace(in.Description)
	if err := checkEmail(email); err != nil {
		return model.ChangeRequest{}, err
	}
	if err := required("title", title); err != nil {
		return model.ChangeRequest{}, err
	}
	if len(title) > maxChangeTitle {
		return model.ChangeRequest{}, Validation("title must be at most %d characters", maxChangeTitle)
	}
	if err := required("description", desc); err != nil {
		return model.ChangeRequest{}, err
	}

	var cr model.ChangeRequest
	err := s.inTx(ctx, func(ctx context.Context, tx docstore.Querier, out *outbox) error {
		now := s.clock()
		client, err := s.activeClient(ctx, tx, email)
		if err != nil {
			return err
		}
		if in.ProjectID != "" {
			p, err := s.repos.Projects.Get(ctx, tx, in.ProjectID)
			if err != nil {
				return err
			}
			if p.ClientEmail != email {
				return Forbidden("project does not belong to this client")
			}
		}
		cr = model.ChangeRequest{
			ID:          s.newID(),
			ClientEmail: email,
			ProjectID:   in.ProjectID,
			Title:       title,
			Description: desc,
			Status:      model.ChangePending,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.repos.ChangeRequests.Create(ctx, tx, cr); err != nil {
			return fmt.Errorf("create change request: %w", err)
		}
		out.add(s.adminMessage(MsgChangeRequest, "Change request from "+client.Name+": "+title, desc))
		return nil
	})
	if err != nil {
		return model.ChangeRequest{}, classify("submit change request", err)
	}
	return cr, nil
}

// ListChangeRequests returns the client's tickets, newest first.
func (s *Service) ListChangeRequests(ctx context.Context, rawEmail string) ([]model.ChangeRequest, error) {
	email := normalizeEmail(rawEmail)
	if err := checkEmail(email); err != nil {
		return nil, err
	}
	if _, err := s.activeClient(ctx, s.store, email); err != nil {
		return nil, classify("list change requests", err)
	}
	crs, err := s.repos.ChangeRequests.ListByClient(ctx, s.store, email)
	if err != nil {
		return nil, classify("list change requests", err)
	}
	sort.SliceStable(crs, func(i, j int) bool { return crs[i].CreatedAt.After(crs[j].CreatedAt) })
	return crs, nil
}

func (s *Service) UpdateChangeRequestStatus(ctx context.Context, adminKey, id string, status model.ChangeRequestStatus, notes string) (model.ChangeRequest, error) {
	if err := s.Authorize(adminKey); err != nil {
		return model.ChangeRequest{}, err
	}
	if err := required("id", id); err != nil {
		return model.ChangeRequest{}, err
	}
	switch status {
	case model.ChangePending, model.ChangeApproved, model.ChangeRejected:
	default:
		return model.ChangeRequest{}, Validation("invalid change request status %q", status)
	}

	var cr model.ChangeRequest
	err := s.inTx(ctx, func(ctx context.Context, tx docstore.Querier, out *outbox) error {
		var err error
		cr, err = s.repos.ChangeRequests.Get(ctx, tx, id)
		if err != nil {
			return err
		}
		cr.Status = status
		if n := strings.TrimSpace(notes); n != "" {
			cr.AdminNotes = n
		}
		cr.UpdatedAt = s.clock()
		if err := s.repos.ChangeRequests.Save(ctx, tx, cr); err != nil {
			return fmt.Errorf("save change request: %w", err)
		}
		text := fmt.Sprintf("Your change request %q is now %s.", cr.Title, cr.Status)
		if cr.AdminNotes != "" {
			text += " Notes: " + cr.AdminNotes
		}
		out.add(notify.Message{Kind: MsgChangeRequestUpdate, To: cr.ClientEmail, Subject: "Change request " + string(cr.Status), Text: text})
		return nil
	})
	if err != nil {
		return model.ChangeRequest{}, classify("update change request", err)
	}
	return cr, nil
}
