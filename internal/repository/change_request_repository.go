package repository

import (
	"context"

	"github.com/iliyamo/atom-referral-tracker/internal/docstore"
	"github.com/iliyamo/atom-referral-tracker/internal/model"
)

var changeRequests = docstore.Collection[model.ChangeRequest]{Name: "changeRequests"}

type ChangeRequestRepo struct{}

func (ChangeRequestRepo) Get(ctx context.Context, q docstore.Querier, id string) (model.ChangeRequest, error) {
	cr, err := changeRequests.Get(ctx, q, id)
	return cr, notFound(err, ErrChangeRequestNotFound)
}

func (ChangeRequestRepo) Create(ctx context.Context, q docstore.Querier, cr model.ChangeRequest) error {
	return changeRequests.Create(ctx, q, cr.ID, cr)
}

func (ChangeRequestRepo) Save(ctx context.Context, q docstore.Querier, cr model.ChangeRequest) error {
	return changeRequests.Put(ctx, q, cr.ID, cr)
}

func (ChangeRequestRepo) ListByClient(ctx context.Context, q docstore.Querier, email string) ([]model.ChangeRequest, error) {
	return changeRequests.Find(ctx, q, docstore.Eq("clientEmail", email))
}

func (ChangeRequestRepo) ListByStatus(ctx context.Context, q docstore.Querier, status model.ChangeRequestStatus) ([]model.ChangeRequest, error) {
	return changeRequests.Find(ctx, q, docstore.Eq("status", string(status)))
}
