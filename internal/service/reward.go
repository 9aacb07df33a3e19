package service

import (
	"context"
	"fmt"

	"github.com/iliyamo/atom-referral-tracker/internal/docstore"
	"github.com/iliyamo/atom-referral-tracker/internal/logger"
	"github.com/iliyamo/atom-referral-tracker/internal/model"
)

// paymentChange is a change to a client's money and status fields. credit
// and step come from an approved installment; the pointer fields come from
// the admin's direct edit.
type paymentChange struct {
	credit int64
	step   int

	totalAmount   *int64
	paidAmount    *int64
	paymentStatus *model.PaymentStatus
	projectStatus *model.ProjectStatus
}

// applyPaymentState is the only place a client's amounts and payment status
// change. It saves the client and then evaluates reward eligibility in the
// same transaction, reporting whether eligibility fired.
func (s *Service) applyPaymentState(ctx context.Context, tx docstore.Querier, client *model.Client, ch paymentChange, out *outbox) (bool, error) {
	now := s.clock()
	if ch.totalAmount != nil {
		if *ch.totalAmount < 0 {
			return false, Validation("total amount cannot be negative")
		}
		client.TotalAmount = *ch.totalAmount
	}
	if ch.paidAmount != nil {
		if *ch.paidAmount < client.PaidAmount {
			return false, Validation("paid amount cannot decrease")
		}
		if *ch.paidAmount > client.PaidAmount {
			client.LastPaymentDate = timePtr(now)
		}
		client.PaidAmount = *ch.paidAmount
	}
	if ch.credit > 0 {
		client.PaidAmount += ch.credit
		client.LastPaymentDate = timePtr(now)
		if next := stepPaymentStatus(ch.step); next.Rank() > client.PaymentStatus.Rank() {
			client.PaymentStatus = next
		}
	}
	if ch.paymentStatus != nil {
		if !ch.paymentStatus.Valid() {
			return false, Validation("invalid payment status %q", *ch.paymentStatus)
		}
		client.PaymentStatus = *ch.paymentStatus
	}
	if ch.projectStatus != nil {
		if !ch.projectStatus.Valid() {
			return false, Validation("invalid project status %q", *ch.projectStatus)
		}
		client.ProjectStatus = *ch.projectStatus
	}
	client.UpdatedAt = now
	if err := s.repos.Clients.Save(ctx, tx, *client); err != nil {
		return false, fmt.Errorf("save client: %w", err)
	}
	return s.evaluateEligibility(ctx, tx, *client, out)
}

// qualifies reports whether paid reaches one third of the discounted total,
// (total*0.75)/3 = total/4, boundary included.
func qualifies(total, paid int64) bool {
	return total > 0 && paid*4 >= total
}

// evaluateEligibility marks the client's referral code reward-eligible once
// the first installment threshold is met.
func (s *Service) evaluateEligibility(ctx context.Context, tx docstore.Querier, client model.Client, out *outbox) (bool, error) {
	if client.ReferralCode == nil || *client.ReferralCode == "" {
		return false, nil
	}
	if client.PaymentStatus != model.PaymentPaidStep1 || !qualifies(client.TotalAmount, client.PaidAmount) {
		return false, nil
	}
	code, err := s.repos.Codes.Get(ctx, tx, *client.ReferralCode)
	if err != nil {
		return false, err
	}
	if !code.Used || code.RewardEligible || code.RewardPaid {
		return false, nil
	}
	ref, err := s.repos.Referrers.Get(ctx, tx, code.ReferrerEmail)
	if err != nil {
		return false, err
	}
	if ref.TotalRewards >= model.MaxRewardsPerReferrer {
		logger.Info("reward not marked eligible: referrer at reward limit", "code", code.Code, "referrer", ref.Email)
		return false, nil
	}

	now := s.clock()
	code.RewardEligible = true
	code.EligibleAt = timePtr(now)
	code.ClientName = client.Name
	code.BonusStatus = model.BonusEligible
	if err := s.repos.Codes.Save(ctx, tx, code); err != nil {
		return false, fmt.Errorf("save code: %w", err)
	}
	out.add(rewardEligibleMessage(code))
	out.add(s.adminMessage(MsgRewardEligibleAdmin, "Referral reward ready for approval: "+code.Code,
		fmt.Sprintf("%s (code %s, referrer %s, UPI %s) completed step 1. Approve the reward to pay it out.",
			client.Name, code.Code, ref.Email, ref.UPI)))
	return true, nil
}

// PaymentStatusUpdate is the admin's direct edit of a client's payment
// fields. Nil fields are unchanged.
type PaymentStatusUpdate struct {
	TotalAmount   *int64
	PaidAmount    *int64
	PaymentStatus *model.PaymentStatus
	ProjectStatus *model.ProjectStatus
}

type PaymentStatusResult struct {
	Client         model.ClientView `json:"client"`
	RewardEligible bool             `json:"rewardEligible"`
}

func (s *Service) UpdatePaymentStatus(ctx context.Context, adminKey, rawEmail string, up PaymentStatusUpdate) (PaymentStatusResult, error) {
	if err := s.Authorize(adminKey); err != nil {
		return PaymentStatusResult{}, err
	}
	email := normalizeEmail(rawEmail)
	if err := checkEmail(email); err != nil {
		return PaymentStatusResult{}, err
	}
	if up.TotalAmount == nil && up.PaidAmount == nil && up.PaymentStatus == nil && up.ProjectStatus == nil {
		return PaymentStatusResult{}, Validation("nothing to update")
	}

	var res PaymentStatusResult
	err := s.inTx(ctx, func(ctx context.Context, tx docstore.Querier, out *outbox) error {
		client, err := s.repos.Clients.Get(ctx, tx, email)
		if err != nil {
			return err
		}
		eligible, err := s.applyPaymentState(ctx, tx, &client, paymentChange{
			totalAmount:   up.TotalAmount,
			paidAmount:    up.PaidAmount,
			paymentStatus: up.PaymentStatus,
			projectStatus: up.ProjectStatus,
		}, out)
		if err != nil {
			return err
		}
		res = PaymentStatusResult{Client: client.View(), RewardEligible: eligible}
		return nil
	})
	if err != nil {
		return PaymentStatusResult{}, classify("update payment status", err)
	}
	return res, nil
}

type RewardResult struct {
	Code     model.ReferralCode `json:"referralCode"`
	Referrer model.ReferrerView `json:"referrer"`
}

// ApproveReward pays out the reward for an eligible code. It can succeed
// only once per code.
func (s *Service) ApproveReward(ctx context.Context, adminKey, rawCode string) (RewardResult, error) {
	if err := s.Authorize(adminKey); err != nil {
		return RewardResult{}, err
	}
	code := normalizeCode(rawCode)
	if err := checkCode(code); err != nil {
		return RewardResult{}, err
	}
	var res RewardResult
	err := s.inTx(ctx, func(ctx context.Context, tx docstore.Querier, out *outbox) error {
		var err error
		res, err = s.approveReward(ctx, tx, code, out)
		return err
	})
	if err != nil {
		return RewardResult{}, classify("approve reward", err)
	}
	return res, nil
}

func (s *Service) approveReward(ctx context.Context, tx docstore.Querier, code string, out *outbox) (RewardResult, error) {
	rc, err := s.repos.Codes.Get(ctx, tx, code)
	if err != nil {
		return RewardResult{}, err
	}
	if rc.RewardPaid {
		return RewardResult{}, Conflict("reward already paid")
	}
	if !rc.RewardEligible {
		return RewardResult{}, Conflict("reward is not eligible")
	}
	ref, err := s.incrementTotalRewards(ctx, tx, rc.ReferrerEmail)
	if err != nil {
		return RewardResult{}, err
	}
	rc.RewardPaid = true
	rc.RewardPaidAt = timePtr(s.clock())
	rc.BonusStatus = model.BonusPaid
	if err := s.repos.Codes.Save(ctx, tx, rc); err != nil {
		return RewardResult{}, fmt.Errorf("save code: %w", err)
	}
	out.add(rewardPaidMessage(rc, ref))
	return RewardResult{Code: rc, Referrer: ref.View()}, nil
}

// UpdateBonusStatus sets the admin-facing bonus label of a code. "Paid"
// performs the payout through the same path as ApproveReward; the other
// labels never touch the reward flags.
func (s *Service) UpdateBonusStatus(ctx context.Context, adminKey, rawCode string, status model.BonusStatus) (model.ReferralCode, error) {
	if err := s.Authorize(adminKey); err != nil {
		return model.ReferralCode{}, err
	}
	code := normalizeCode(rawCode)
	if err := checkCode(code); err != nil {
		return model.ReferralCode{}, err
	}
	if !status.Valid() {
		return model.ReferralCode{}, Validation("invalid bonus status %q", status)
	}

	var rc model.ReferralCode
	err := s.inTx(ctx, func(ctx context.Context, tx docstore.Querier, out *outbox) error {
		if status == model.BonusPaid {
			res, err := s.approveReward(ctx, tx, code, out)
			rc = res.Code
			return err
		}
		var err error
		rc, err = s.repos.Codes.Get(ctx, tx, code)
		if err != nil {
			return err
		}
		if rc.RewardPaid {
			return Conflict("reward already paid")
		}
		if status == model.BonusEligible && !rc.RewardEligible {
			return Conflict("reward is not eligible")
		}
		rc.BonusStatus = status
		if err := s.repos.Codes.Save(ctx, tx, rc); err != nil {
			return fmt.Errorf("save code: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.ReferralCode{}, classify("update bonus status", err)
	}
	return rc, nil
}
