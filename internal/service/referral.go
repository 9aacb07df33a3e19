package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/atom-referral-tracker/internal/docstore"
	"github.com/iliyamo/atom-referral-tracker/internal/model"
	"github.com/iliyamo/atom-referral-tracker/internal/repository"
	"github.com/iliyamo/atom-referral-tracker/internal/utils"
)

// maxCodeAttempts bounds the search for a free code in the 9000-code space.
const maxCodeAttempts = 50

type GenerateCodeInput struct {
	Email    string
	Phone    string
	UPI      string
	Password string
}

type GenerateCodeResult struct {
	Code           string             `json:"referralCode"`
	Referrer       model.ReferrerView `json:"referrer"`
	CodesRemaining int                `json:"codesRemaining"`
	NewReferrer    bool               `json:"newReferrer"`
}

// GenerateCode issues a new code to the referrer identified by email,
// creating the referrer on first use. A returning referrer must present the
// same password and phone they registered with.
func (s *Service) GenerateCode(ctx context.Context, in GenerateCodeInput) (GenerateCodeResult, error) {
	email := normalizeEmail(in.Email)
	if err := checkEmail(email); err != nil {
		return GenerateCodeResult{}, err
	}
	if err := checkPhone(in.Phone); err != nil {
		return GenerateCodeResult{}, err
	}
	if err := checkUPI(in.UPI); err != nil {
		return GenerateCodeResult{}, err
	}
	if err := checkPassword(in.Password); err != nil {
		return GenerateCodeResult{}, err
	}

	var res GenerateCodeResult
	err := s.inTx(ctx, func(ctx context.Context, tx docstore.Querier, out *outbox) error {
		now := s.clock()
		ref, err := s.repos.Referrers.Get(ctx, tx, email)
		isNew := errors.Is(err, repository.ErrReferrerNotFound)
		switch {
		case isNew:
			owners, err := s.repos.Referrers.FindByPhone(ctx, tx, in.Phone)
			if err != nil {
				return fmt.Errorf("find referrer by phone: %w", err)
			}
			if len(owners) > 0 {
				return Conflict("phone already registered")
			}
			hash, err := utils.HashPassword(in.Password, s.opts.BcryptCost)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			ref = model.Referrer{
				Email:         email,
				Phone:         in.Phone,
				UPI:           in.UPI,
				PasswordHash:  hash,
				ReferralCodes: []string{},
				CreatedAt:     now,
			}
		case err != nil:
			return fmt.Errorf("load referrer: %w", err)
		default:
			if !utils.VerifyPassword(ref.PasswordHash, in.Password) {
				return Unauthorized("invalid credentials")
			}
			if ref.Phone != in.Phone {
				return Validation("phone does not match registered phone")
			}
		}

		count, err := s.repos.Codes.CountByReferrer(ctx, tx, email)
		if err != nil {
			return fmt.Errorf("count codes: %w", err)
		}
		if count >= model.MaxCodesPerReferrer || len(ref.ReferralCodes) >= model.MaxCodesPerReferrer {
			return Conflict("referral code limit reached")
		}

		code, err := s.issueCode(ctx, tx, email, now)
		if err != nil {
			return err
		}
		ref.ReferralCodes = append(ref.ReferralCodes, code)
		ref.UpdatedAt = now
		if isNew {
			err = s.repos.Referrers.Create(ctx, tx, ref)
			if errors.Is(err, repository.ErrExists) {
				return Conflict("referrer already registered, try again")
			}
		} else {
			err = s.repos.Referrers.Save(ctx, tx, ref)
		}
		if err != nil {
			return fmt.Errorf("save referrer: %w", err)
		}

		out.add(codeIssuedMessage(ref, code))
		res = GenerateCodeResult{
			Code:           code,
			Referrer:       ref.View(),
			CodesRemaining: model.MaxCodesPerReferrer - len(ref.ReferralCodes),
			NewReferrer:    isNew,
		}
		return nil
	})
	if err != nil {
		return GenerateCodeResult{}, classify("generate referral code", err)
	}
	return res, nil
}

// issueCode draws candidates until one can be created. Create refuses taken
// keys, so two concurrent issuers can never end up sharing a code.
func (s *Service) issueCode(ctx context.Context, tx docstore.Querier, referrerEmail string, now time.Time) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code := fmt.Sprintf("ATOM%04d", 1000+s.intn(9000))
		taken, err := s.repos.Codes.Exists(ctx, tx, code)
		if err != nil {
			return "", fmt.Errorf("check code: %w", err)
		}
		if taken {
			continue
		}
		err = s.repos.Codes.Create(ctx, tx, model.ReferralCode{
			Code:          code,
			ReferrerEmail: referrerEmail,
			BonusStatus:   model.BonusPending,
			IssuedAt:      now,
		})
		if errors.Is(err, repository.ErrExists) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create code: %w", err)
		}
		return code, nil
	}
	return "", fmt.Errorf("no free referral code after %d attempts", maxCodeAttempts)
}

// CodeCheck is the public answer to a code validation.
type CodeCheck struct {
	Code     string `json:"referralCode"`
	Valid    bool   `json:"valid"`
	Discount int    `json:"discount"`
}

// ValidateCode reports whether code can still be redeemed.
func (s *Service) ValidateCode(ctx context.Context, raw string) (CodeCheck, error) {
	code := normalizeCode(raw)
	if err := checkCode(code); err != nil {
		return CodeCheck{}, err
	}
	rc, err := s.repos.Codes.Get(ctx, s.store, code)
	if err != nil {
		return CodeCheck{}, classify("validate referral code", err)
	}
	if rc.Used {
		return CodeCheck{}, Conflict("referral code already used")
	}
	return CodeCheck{Code: rc.Code, Valid: true, Discount: model.ReferralDiscountPercent}, nil
}

// consumeCode marks code as redeemed by clientEmail. It must run inside the
// signup transaction so the code and the new client commit together.
func (s *Service) consumeCode(ctx context.Context, tx docstore.Querier, code, clientEmail string, now time.Time) (model.ReferralCode, error) {
	rc, err := s.repos.Codes.Get(ctx, tx, code)
	if err != nil {
		return rc, err
	}
	if rc.Used {
		return rc, Conflict("referral code already used")
	}
	if rc.ReferrerEmail == clientEmail {
		return rc, Validation("cannot use your own referral code")
	}
	rc.Used = true
	rc.ClientEmail = &clientEmail
	rc.UsedAt = timePtr(now)
	rc.BonusStatus = model.BonusPending
	if err := s.repos.Codes.Save(ctx, tx, rc); err != nil {
		return rc, fmt.Errorf("save code: %w", err)
	}
	return rc, nil
}
