package service

import (
	"context"
	"fmt"

	"github.com/iliyamo/atom-referral-tracker/internal/docstore"
	"github.com/iliyamo/atom-referral-tracker/internal/model"
	"github.com/iliyamo/atom-referral-tracker/internal/utils"
)

// UpdateContactInfo lets an admin change a referrer's phone and payout id.
// Nil fields are left alone.
func (s *Service) UpdateContactInfo(ctx context.Context, adminKey, rawEmail string, phone, upi *string) (model.ReferrerView, error) {
	if err := s.Authorize(adminKey); err != nil {
		return model.ReferrerView{}, err
	}
	email := normalizeEmail(rawEmail)
	if err := checkEmail(email); err != nil {
		return model.ReferrerView{}, err
	}
	if phone == nil && upi == nil {
		return model.ReferrerView{}, Validation("nothing to update")
	}
	if phone != nil {
		if err := checkPhone(*phone); err != nil {
			return model.ReferrerView{}, err
		}
	}
	if upi != nil {
		if err := checkUPI(*upi); err != nil {
			return model.ReferrerView{}, err
		}
	}

	var view model.ReferrerView
	err := s.inTx(ctx, func(ctx context.Context, tx docstore.Querier, _ *outbox) error {
		ref, err := s.repos.Referrers.Get(ctx, tx, email)
		if err != nil {
			return err
		}
		if phone != nil && *phone != ref.Phone {
			owners, err := s.repos.Referrers.FindByPhone(ctx, tx, *phone)
			if err != nil {
				return fmt.Errorf("find referrer by phone: %w", err)
			}
			for _, o := range owners {
				if o.Email != email {
					return Conflict("phone already registered")
				}
			}
			ref.Phone = *phone
		}
		if upi != nil {
			ref.UPI = *upi
		}
		ref.UpdatedAt = s.clock()
		if err := s.repos.Referrers.Save(ctx, tx, ref); err != nil {
			return fmt.Errorf("save referrer: %w", err)
		}
		view = ref.View()
		return nil
	})
	if err != nil {
		return model.ReferrerView{}, classify("update referrer", err)
	}
	return view, nil
}

// incrementTotalRewards counts one more paid reward. Callers hold the
// transaction that marks the code paid.
func (s *Service) incrementTotalRewards(ctx context.Context, tx docstore.Querier, email string) (model.Referrer, error) {
	ref, err := s.repos.Referrers.Get(ctx, tx, email)
	if err != nil {
		return ref, err
	}
	if ref.TotalRewards >= model.MaxRewardsPerReferrer {
		return ref, Conflict("referrer reward limit reached")
	}
	ref.TotalRewards++
	ref.UpdatedAt = s.clock()
	if err := s.repos.Referrers.Save(ctx, tx, ref); err != nil {
		return ref, fmt.Errorf("save referrer: %w", err)
	}
	return ref, nil
}

type ReferrerSummary struct {
	TotalCodes       int `json:"totalCodes"`
	UsedCodes        int `json:"usedCodes"`
	EligibleRewards  int `json:"eligibleRewards"`
	PaidRewards      int `json:"paidRewards"`
	RemainingCodes   int `json:"remainingCodes"`
	RemainingRewards int `json:"remainingRewards"`
}

type ReferrerStatus struct {
	Referrer model.ReferrerView   `json:"referrer"`
	Codes    []model.ReferralCode `json:"referralCodes"`
	Summary  ReferrerSummary      `json:"summary"`
}

// GetReferrerStatus is the referrer's own dashboard, authenticated by email and
// password.
func (s *Service) GetReferrerStatus(ctx context.Context, rawEmail, password string) (ReferrerStatus, error) {
	email := normalizeEmail(rawEmail)
	if err := checkEmail(email); err != nil {
		return ReferrerStatus{}, err
	}
	if password == "" {
		return ReferrerStatus{}, Validation("password is required")
	}
	ref, err := s.repos.Referrers.Get(ctx, s.store, email)
	if err != nil {
		return ReferrerStatus{}, classify("load referrer", err)
	}
	if !utils.VerifyPassword(ref.PasswordHash, password) {
		return ReferrerStatus{}, Unauthorized("invalid credentials")
	}
	codes, err := s.repos.Codes.ListByReferrer(ctx, s.store, email)
	if err != nil {
		return ReferrerStatus{}, classify("list referral codes", err)
	}

	sum := ReferrerSummary{
		TotalCodes:       len(codes),
		PaidRewards:      ref.TotalRewards,
		RemainingCodes:   max(model.MaxCodesPerReferrer-len(codes), 0),
		RemainingRewards: max(model.MaxRewardsPerReferrer-ref.TotalRewards, 0),
	}
	for _, c := range codes {
		if c.Used {
			sum.UsedCodes++
		}
		if c.RewardEligible && !c.RewardPaid {
			sum.EligibleRewards++
		}
	}
	return ReferrerStatus{Referrer: ref.View(), Codes: codes, Summary: sum}, nil
}
