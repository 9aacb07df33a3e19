package repository

import (
	"context"

	"github.com/iliyamo/atom-referral-tracker/internal/docstore"
	"github.com/iliyamo/atom-referral-tracker/internal/model"
)

var clients = docstore.Collection[model.Client]{Name: "clients"}

// ClientRepo persists clients keyed by lowercased email.
type ClientRepo struct{}

func (ClientRepo) Get(ctx context.Context, q docstore.Querier, email string) (model.Client, error) {
	c, err := clients.Get(ctx, q, email)
	return c, notFound(err, ErrClientNotFound)
}

// Create fails with ErrExists when the email is already registered.
func (ClientRepo) Create(ctx context.Context, q docstore.Querier, c model.Client) error {
	return clients.Create(ctx, q, c.Email, c)
}

func (ClientRepo) Save(ctx context.Context, q docstore.Querier, c model.Client) error {
	return clients.Put(ctx, q, c.Email, c)
}

func (ClientRepo) List(ctx context.Context, q docstore.Querier) ([]model.Client, error) {
	return clients.Find(ctx, q)
}
