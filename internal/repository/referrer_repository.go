package repository

import (
	"context"

	"github.com/iliyamo/atom-referral-tracker/internal/docstore"
	"github.com/iliyamo/atom-referral-tracker/internal/model"
)

var referrers = docstore.Collection[model.Referrer]{Name: "referrers"}

// ReferrerRepo persists referrers keyed by lowercased email.
type ReferrerRepo struct{}

func (ReferrerRepo) Get(ctx context.Context, q docstore.Querier, email string) (model.Referrer, error) {
	r, err := referrers.Get(ctx, q, email)
	return r, notFound(err, ErrReferrerNotFound)
}

func (ReferrerRepo) Create(ctx context.Context, q docstore.Querier, r model.Referrer) error {
	return referrers.Create(ctx, q, r.Email, r)
}

func (ReferrerRepo) Save(ctx context.Context, q docstore.Querier, r model.Referrer) error {
	return referrers.Put(ctx, q, r.Email, r)
}

// FindByPhone returns every referrer registered with phone. Phone is meant
// to be unique, so more than one result indicates legacy data.
func (ReferrerRepo) FindByPhone(ctx context.Context, q docstore.Querier, phone string) ([]model.Referrer, error) {
	return referrers.Find(ctx, q, docstore.Eq("phone", phone))
}

func (ReferrerRepo) List(ctx context.Context, q docstore.Querier) ([]model.Referrer, error) {
	return referrers.Find(ctx, q)
}
