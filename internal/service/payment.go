package service

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/atom-referral-tracker/internal/docstore"
	"github.com/iliyamo/atom-referral-tracker/internal/logger"
	"github.com/iliyamo/atom-referral-tracker/internal/model"
)

const (
	paymentDueIn     = 7 * 24 * time.Hour
	reminderInterval = 24 * time.Hour
)

// stepPercent is the 30/40/30 installment split, indexed by step.
var stepPercent = [4]int{0, 30, 40, 30}

// StepAmount is the rounded share of total owed for step (1..3).
func StepAmount(total int64, step int) int64 {
	if step < 1 || step > 3 {
		return 0
	}
	// integer half-up rounding of total*pct/100
	return (total*int64(stepPercent[step]) + 50) / 100
}

// scheduleTotal is the amount installments are computed from: the client's
// agreed total, or the project budget while no total has been set.
func scheduleTotal(c model.Client, p model.Project) int64 {
	if c.TotalAmount > 0 {
		return c.TotalAmount
	}
	return p.Budget
}

// stepPaymentStatus is the client summary reached by approving step.
func stepPaymentStatus(step int) model.PaymentStatus {
	switch step {
	case 1:
		return model.PaymentPaidStep1
	case 2:
		return model.PaymentPartiallyPaid
	case 3:
		return model.PaymentFullyPaid
	}
	return model.PaymentPending
}

func (s *Service) upiLink(amount int64, note string) string {
	return "upi://pay?pa=" + url.QueryEscape(s.opts.UPIPayeeVPA) +
		"&pn=" + url.QueryEscape(s.opts.UPIPayeeName) +
		"&am=" + strconv.FormatInt(amount, 10) +
		"&cu=INR" +
		"&tn=" + url.QueryEscape(note)
}

// RequestPayment opens a payment request for one installment of a project
// and returns it with its UPI deep link.
func (s *Service) RequestPayment(ctx context.Context, rawEmail, projectID string, step int) (model.Payment, error) {
	email := normalizeEmail(rawEmail)
	if err := checkEmail(email); err != nil {
		return model.Payment{}, err
	}
	if err := required("projectId", projectID); err != nil {
		return model.Payment{}, err
	}
	if step < 1 || step > 3 {
		return model.Payment{}, Validation("payment step must be 1, 2 or 3")
	}

	var pay model.Payment
	err := s.inTx(ctx, func(ctx context.Context, tx docstore.Querier, _ *outbox) error {
		now := s.clock()
		client, err := s.activeClient(ctx, tx, email)
		if err != nil {
			return err
		}
		project, err := s.repos.Projects.Get(ctx, tx, projectID)
		if err != nil {
			return err
		}
		if project.ClientEmail != email {
			return Forbidden("project does not belong to this client")
		}
		amount := StepAmount(scheduleTotal(client, project), step)
		if amount <= 0 {
			return Validation("invalid amount")
		}

		existing, err := s.repos.Payments.ListByProject(ctx, tx, projectID)
		if err != nil {
			return fmt.Errorf("list payments: %w", err)
		}
		prevPaid := step == 1
		for _, p := range existing {
			if p.PaymentStep == step-1 && p.Status == model.PaymentStateApproved {
				prevPaid = true
			}
			if p.PaymentStep != step {
				continue
			}
			switch p.Status {
			case model.PaymentStateApproved:
				return Conflict(fmt.Sprintf("step %d is already paid", step))
			case model.PaymentStatePending, model.PaymentStateProofSubmitted:
				return Conflict(fmt.Sprintf("a payment for step %d is already open", step))
			}
		}
		// installments are paid in order
		if !prevPaid {
			return Conflict(fmt.Sprintf("step %d must be paid before step %d", step-1, step))
		}

		pay = model.Payment{
			ID:          fmt.Sprintf("%s_step%d_%d", projectID, step, now.UnixMilli()),
			ClientEmail: email,
			ProjectID:   projectID,
			PaymentStep: step,
			Amount:      amount,
			Status:      model.PaymentStatePending,
			UPILink:     s.upiLink(amount, fmt.Sprintf("%s step %d", project.Name, step)),
			DueDate:     now.Add(paymentDueIn),
			CreatedAt:   now,
		}
		if err := s.repos.Payments.Create(ctx, tx, pay); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Payment{}, classify("request payment", err)
	}
	return pay, nil
}

type SubmitProofInput struct {
	PaymentID     string
	ClientEmail   string
	TransactionID string
	Method        string
	Notes         string
	Screenshot    string
}

// SubmitProof records the client's claim that a pending payment was made.
// The payment is read under lock, so of two concurrent submissions the
// second finds it already submitted.
func (s *Service) SubmitProof(ctx context.Context, in SubmitProofInput) (model.Payment, error) {
	email := normalizeEmail(in.ClientEmail)
	txID := strings.TrimSpace(in.TransactionID)
	if err := required("paymentId", in.PaymentID); err != nil {
		return model.Payment{}, err
	}
	if err := checkEmail(email); err != nil {
		return model.Payment{}, err
	}
	if err := required("transactionId", txID); err != nil {
		return model.Payment{}, err
	}

	var pay model.Payment
	err := s.inTx(ctx, func(ctx context.Context, tx docstore.Querier, out *outbox) error {
		now := s.clock()
		var err error
		pay, err = s.repos.Payments.Get(ctx, tx, in.PaymentID)
		if err != nil {
			return err
		}
		if pay.ClientEmail != email {
			return Forbidden("payment does not belong to this client")
		}
		if _, err := s.activeClient(ctx, tx, email); err != nil {
			return err
		}
		if pay.Status != model.PaymentStatePending {
			return Conflict(fmt.Sprintf("payment is %s, proof can only be submitted for pending payments", pay.Status))
		}
		pay.Status = model.PaymentStateProofSubmitted
		pay.TransactionID = txID
		pay.PaymentMethod = strings.TrimSpace(in.Method)
		pay.ClientNotes = strings.TrimSpace(in.Notes)
		pay.PaymentScreenshot = strings.TrimSpace(in.Screenshot)
		pay.ProofSubmittedAt = timePtr(now)
		if err := s.repos.Payments.Save(ctx, tx, pay); err != nil {
			return fmt.Errorf("save payment: %w", err)
		}
		out.add(s.adminMessage(MsgProofSubmitted,
			fmt.Sprintf("Payment proof submitted: step %d by %s", pay.PaymentStep, pay.ClientEmail),
			fmt.Sprintf("Payment %s for Rs %d, transaction %s (%s). Client notes: %s",
				pay.ID, pay.Amount, pay.TransactionID, pay.PaymentMethod, pay.ClientNotes)))
		return nil
	})
	if err != nil {
		return model.Payment{}, classify("submit payment proof", err)
	}
	return pay, nil
}

type VerifyResult struct {
	Payment        model.Payment    `json:"payment"`
	Client         model.ClientView `json:"client"`
	RewardEligible bool             `json:"rewardEligible"`
}

// VerifyPayment is the admin decision on submitted proof. Approval credits
// the client through applyPaymentState, which also runs the reward check.
func (s *Service) VerifyPayment(ctx context.Context, adminKey, paymentID string, approved bool, notes string) (VerifyResult, error) {
	if err := s.Authorize(adminKey); err != nil {
		return VerifyResult{}, err
	}
	if err := required("paymentId", paymentID); err != nil {
		return VerifyResult{}, err
	}

	var res VerifyResult
	err := s.inTx(ctx, func(ctx context.Context, tx docstore.Querier, out *outbox) error {
		now := s.clock()
		pay, err := s.repos.Payments.Get(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		if pay.Status != model.PaymentStateProofSubmitted {
			return Conflict(fmt.Sprintf("payment is %s, only submitted proofs can be verified", pay.Status))
		}
		client, err := s.repos.Clients.Get(ctx, tx, pay.ClientEmail)
		if err != nil {
			return err
		}

		pay.AdminNotes = strings.TrimSpace(notes)
		pay.VerifiedAt = timePtr(now)
		if approved {
			pay.Status = model.PaymentStateApproved
			ch := paymentChange{credit: pay.Amount, step: pay.PaymentStep}
			if client.TotalAmount == 0 {
				// the schedule was drawn from the budget; adopt it as the total
				if project, err := s.repos.Projects.Get(ctx, tx, pay.ProjectID); err == nil && project.Budget > 0 {
					ch.totalAmount = &project.Budget
				}
			}
			res.RewardEligible, err = s.applyPaymentState(ctx, tx, &client, ch, out)
			if err != nil {
				return err
			}
		} else {
			pay.Status = model.PaymentStateRejected
		}
		if err := s.repos.Payments.Save(ctx, tx, pay); err != nil {
			return fmt.Errorf("save payment: %w", err)
		}
		out.add(paymentVerifiedMessage(pay, client))
		res.Payment = pay
		res.Client = client.View()
		return nil
	})
	if err != nil {
		return VerifyResult{}, classify("verify payment", err)
	}
	return res, nil
}

// ReopenPayment moves a rejected payment back to pending so the client can
// pay again and resubmit proof.
func (s *Service) ReopenPayment(ctx context.Context, paymentID, rawEmail string) (model.Payment, error) {
	email := normalizeEmail(rawEmail)
	if err := required("paymentId", paymentID); err != nil {
		return model.Payment{}, err
	}
	if err := checkEmail(email); err != nil {
		return model.Payment{}, err
	}

	var pay model.Payment
	err := s.inTx(ctx, func(ctx context.Context, tx docstore.Querier, _ *outbox) error {
		now := s.clock()
		var err error
		pay, err = s.repos.Payments.Get(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		if pay.ClientEmail != email {
			return Forbidden("payment does not belong to this client")
		}
		if _, err := s.activeClient(ctx, tx, email); err != nil {
			return err
		}
		if pay.Status != model.PaymentStateRejected {
			return Conflict(fmt.Sprintf("payment is %s, only rejected payments can be reopened", pay.Status))
		}
		pay.Status = model.PaymentStatePending
		pay.TransactionID = ""
		pay.PaymentMethod = ""
		pay.PaymentScreenshot = ""
		pay.ClientNotes = ""
		pay.ProofSubmittedAt = nil
		pay.VerifiedAt = nil
		pay.LastReminderAt = nil
		pay.ReopenedAt = timePtr(now)
		pay.DueDate = now.Add(paymentDueIn)
		if err := s.repos.Payments.Save(ctx, tx, pay); err != nil {
			return fmt.Errorf("save payment: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Payment{}, classify("reopen payment", err)
	}
	return pay, nil
}

// ListPayments returns the client's payments, newest first.
func (s *Service) ListPayments(ctx context.Context, rawEmail string) ([]model.Payment, error) {
	email := normalizeEmail(rawEmail)
	if err := checkEmail(email); err != nil {
		return nil, err
	}
	if _, err := s.activeClient(ctx, s.store, email); err != nil {
		return nil, classify("list payments", err)
	}
	ps, err := s.repos.Payments.ListByClient(ctx, s.store, email)
	if err != nil {
		return nil, classify("list payments", err)
	}
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].CreatedAt.After(ps[j].CreatedAt) })
	return ps, nil
}

// SendPaymentReminders emails clients whose pending payments are past due,
// at most once per payment per reminderInterval. It returns how many
// reminders were queued.
func (s *Service) SendPaymentReminders(ctx context.Context) (int, error) {
	pending, err := s.repos.Payments.ListByStatus(ctx, s.store, model.PaymentStatePending)
	if err != nil {
		return 0, classify("list pending payments", err)
	}
	now := s.clock()
	sent := 0
	for _, p := range pending {
		if !now.After(p.DueDate) {
			continue
		}
		if p.LastReminderAt != nil && now.Sub(*p.LastReminderAt) < reminderInterval {
			continue
		}
		queued := false
		err := s.inTx(ctx, func(ctx context.Context, tx docstore.Querier, out *outbox) error {
			queued = false
			cur, err := s.repos.Payments.Get(ctx, tx, p.ID)
			if err != nil {
				return err
			}
			if cur.Status != model.PaymentStatePending {
				return nil
			}
			cur.LastReminderAt = timePtr(now)
			if err := s.repos.Payments.Save(ctx, tx, cur); err != nil {
				return err
			}
			out.add(reminderMessage(cur))
			queued = true
			return nil
		})
		if err != nil {
			logger.Warn("payment reminder failed", "payment_id", p.ID, "error", err)
			continue
		}
		if queued {
			sent++
		}
	}
	return sent, nil
}
