package repository

import (
	"context"

	"github.com/iliyamo/atom-referral-tracker/internal/docstore"
	"github.com/iliyamo/atom-referral-tracker/internal/model"
)

var referralCodes = docstore.Collection[model.ReferralCode]{Name: "referralCodes"}

// ReferralCodeRepo persists codes keyed by the upper-case code string.
type ReferralCodeRepo struct{}

func (ReferralCodeRepo) Get(ctx context.Context, q docstore.Querier, code string) (model.ReferralCode, error) {
	c, err := referralCodes.Get(ctx, q, code)
	return c, notFound(err, ErrReferralCodeNotFound)
}

// Exists reports whether a document is stored under code.
func (r ReferralCodeRepo) Exists(ctx context.Context, q docstore.Querier, code string) (bool, error) {
	_, err := r.Get(ctx, q, code)
	switch err {
	case nil:
		return true, nil
	case ErrReferralCodeNotFound:
		return false, nil
	}
	return false, err
}

// Create fails with ErrExists when the code is already taken.
func (ReferralCodeRepo) Create(ctx context.Context, q docstore.Querier, c model.ReferralCode) error {
	return referralCodes.Create(ctx, q, c.Code, c)
}

func (ReferralCodeRepo) Save(ctx context.Context, q docstore.Querier, c model.ReferralCode) error {
	return referralCodes.Put(ctx, q, c.Code, c)
}

func (ReferralCodeRepo) ListByReferrer(ctx context.Context, q docstore.Querier, email string) ([]model.ReferralCode, error) {
	return referralCodes.Find(ctx, q, docstore.Eq("referrerEmail", email))
}

func (ReferralCodeRepo) CountByReferrer(ctx context.Context, q docstore.Querier, email string) (int, error) {
	return referralCodes.Count(ctx, q, docstore.Eq("referrerEmail", email))
}

func (ReferralCodeRepo) List(ctx context.Context, q docstore.Querier) ([]model.ReferralCode, error) {
	return referralCodes.Find(ctx, q)
}
