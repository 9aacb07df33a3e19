package repository

import (
	"context"

	"github.com/iliyamo/atom-referral-tracker/internal/docstore"
	"github.com/iliyamo/atom-referral-tracker/internal/model"
)

var payments = docstore.Collection[model.Payment]{Name: "payments"}

type PaymentRepo struct{}

func (PaymentRepo) Get(ctx context.Context, q docstore.Querier, id string) (model.Payment, error) {
	p, err := payments.Get(ctx, q, id)
	return p, notFound(err, ErrPaymentNotFound)
}

func (PaymentRepo) Create(ctx context.Context, q docstore.Querier, p model.Payment) error {
	return payments.Create(ctx, q, p.ID, p)
}

func (PaymentRepo) Save(ctx context.Context, q docstore.Querier, p model.Payment) error {
	return payments.Put(ctx, q, p.ID, p)
}

func (PaymentRepo) ListByClient(ctx context.Context, q docstore.Querier, email string) ([]model.Payment, error) {
	return payments.Find(ctx, q, docstore.Eq("clientEmail", email))
}

func (PaymentRepo) ListByProject(ctx context.Context, q docstore.Querier, projectID string) ([]model.Payment, error) {
	return payments.Find(ctx, q, docstore.Eq("projectId", projectID))
}

func (PaymentRepo) ListByStatus(ctx context.Context, q docstore.Querier, status model.PaymentState) ([]model.Payment, error) {
	return payments.Find(ctx, q, docstore.Eq("status", string(status)))
}
