package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/atom-referral-tracker/internal/docstore"
	"github.com/iliyamo/atom-referral-tracker/internal/model"
	"github.com/iliyamo/atom-referral-tracker/internal/repository"
	"github.com/iliyamo/atom-referral-tracker/internal/utils"
)

type SignupInput struct {
	ReferralCode string
	Name         string
	Email        string
	Phone        string
	Password     string
}

// Signup registers a client. A referral code is optional; when one is given
// it must be redeemable and the client gets the referral discount.
func (s *Service) Signup(ctx context.Context, in SignupInput) (model.ClientView, error) {
	return s.signup(ctx, in)
}

// DirectSignup registers a client without a referral. A code in the input
// is ignored.
func (s *Service) DirectSignup(ctx context.Context, in SignupInput) (model.ClientView, error) {
	in.ReferralCode = ""
	return s.signup(ctx, in)
}

func (s *Service) signup(ctx context.Context, in SignupInput) (model.ClientView, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	code := normalizeCode(in.ReferralCode)
	if err := required("name", name); err != nil {
		return model.ClientView{}, err
	}
	if err := checkEmail(email); err != nil {
		return model.ClientView{}, err
	}
	if err := checkPhone(in.Phone); err != nil {
		return model.ClientView{}, err
	}
	if err := checkPassword(in.Password); err != nil {
		return model.ClientView{}, err
	}
	if code != "" {
		if err := checkCode(code); err != nil {
			return model.ClientView{}, err
		}
	}
	hash, err := utils.HashPassword(in.Password, s.opts.BcryptCost)
	if err != nil {
		return model.ClientView{}, fmt.Errorf("hash password: %w", err)
	}

	var view model.ClientView
	err = s.inTx(ctx, func(ctx context.Context, tx docstore.Querier, out *outbox) error {
		now := s.clock()
		if _, err := s.repos.Clients.Get(ctx, tx, email); err == nil {
			return Conflict("email already registered")
		} else if !errors.Is(err, repository.ErrClientNotFound) {
			return fmt.Errorf("load client: %w", err)
		}

		client := model.Client{
			Email:         email,
			Name:          name,
			Phone:         in.Phone,
			PasswordHash:  hash,
			PaymentStatus: model.PaymentPending,
			ProjectStatus: model.ProjectNotStarted,
			Active:        true,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		var used *model.ReferralCode
		if code != "" {
			rc, err := s.consumeCode(ctx, tx, code, email, now)
			if err != nil {
				return err
			}
			client.ReferralCode = &rc.Code
			client.Discount = model.ReferralDiscountPercent
			used = &rc
		}

		if err := s.repos.Clients.Create(ctx, tx, client); err != nil {
			if errors.Is(err, repository.ErrExists) {
				return Conflict("email already registered")
			}
			return fmt.Errorf("create client: %w", err)
		}

		via := "direct signup"
		if used != nil {
			via = "referral code " + used.Code
			out.add(codeUsedMessage(*used, client))
		}
		out.add(s.adminMessage(MsgNewClient, "New client: "+client.Name,
			fmt.Sprintf("%s <%s>, phone %s, joined via %s.", client.Name, client.Email, client.Phone, via)))
		view = client.View()
		return nil
	})
	if err != nil {
		return model.ClientView{}, classify("client signup", err)
	}
	return view, nil
}

// ReferrerInfo is the public part of the referrer behind a client's code.
type ReferrerInfo struct {
	Email string `json:"email"`
	Code  string `json:"referralCode"`
}

type LoginResult struct {
	Client   model.ClientView  `json:"client"`
	Referrer *ReferrerInfo     `json:"referrer,omitempty"`
	Token    utils.AccessToken `json:"-"`
}

// Login checks a client's password and issues a session token scoped to
// that client.
func (s *Service) Login(ctx context.Context, rawEmail, password string) (LoginResult, error) {
	email := normalizeEmail(rawEmail)
	if err := checkEmail(email); err != nil {
		return LoginResult{}, err
	}
	if password == "" {
		return LoginResult{}, Validation("password is required")
	}
	client, err := s.repos.Clients.Get(ctx, s.store, email)
	if err != nil {
		return LoginResult{}, classify("load client", err)
	}
	if !utils.VerifyPassword(client.PasswordHash, password) {
		return LoginResult{}, Unauthorized("invalid credentials")
	}
	if !client.Active {
		return LoginResult{}, Forbidden("account is deactivated")
	}

	res := LoginResult{Client: client.View()}
	if client.ReferralCode != nil {
		rc, err := s.repos.Codes.Get(ctx, s.store, *client.ReferralCode)
		switch {
		case err == nil:
			res.Referrer = &ReferrerInfo{Email: rc.ReferrerEmail, Code: rc.Code}
		case errors.Is(err, repository.ErrReferralCodeNotFound):
			// the code document is gone; log in without referrer details
		default:
			return LoginResult{}, classify("load referral code", err)
		}
	}

	tok, err := utils.NewAccessToken(s.opts.JWTSecret, client.Email, utils.RoleClient, s.opts.AccessTTLMin)
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue access token: %w", err)
	}
	res.Token = tok
	return res, nil
}

// SetActive activates or deactivates a client account.
func (s *Service) SetActive(ctx context.Context, adminKey, rawEmail string, active bool) (model.ClientView, error) {
	if err := s.Authorize(adminKey); err != nil {
		return model.ClientView{}, err
	}
	email := normalizeEmail(rawEmail)
	if err := checkEmail(email); err != nil {
		return model.ClientView{}, err
	}
	var view model.ClientView
	err := s.inTx(ctx, func(ctx context.Context, tx docstore.Querier, _ *outbox) error {
		client, err := s.repos.Clients.Get(ctx, tx, email)
		if err != nil {
			return err
		}
		client.Active = active
		client.UpdatedAt = s.clock()
		if err := s.repos.Clients.Save(ctx, tx, client); err != nil {
			return fmt.Errorf("save client: %w", err)
		}
		view = client.View()
		return nil
	})
	if err != nil {
		return model.ClientView{}, classify("update client status", err)
	}
	return view, nil
}

// activeClient loads a client that may use the portal.
func (s *Service) activeClient(ctx context.Context, q docstore.Querier, email string) (model.Client, error) {
	client, err := s.repos.Clients.Get(ctx, q, email)
	if err != nil {
		return client, err
	}
	if !client.Active {
		return client, Forbidden("account is deactivated")
	}
	return client, nil
}
