package repository

import (
	"context"

	"github.com/iliyamo/atom-referral-tracker/internal/docstore"
	"github.com/iliyamo/atom-referral-tracker/internal/model"
)

var projects = docstore.Collection[model.Project]{Name: "projects"}

type ProjectRepo struct{}

func (ProjectRepo) Get(ctx context.Context, q docstore.Querier, id string) (model.Project, error) {
	p, err := projects.Get(ctx, q, id)
	return p, notFound(err, ErrProjectNotFound)
}

func (ProjectRepo) Create(ctx context.Context, q docstore.Querier, p model.Project) error {
	return projects.Create(ctx, q, p.ID, p)
}

func (ProjectRepo) Save(ctx context.Context, q docstore.Querier, p model.Project) error {
	return projects.Put(ctx, q, p.ID, p)
}

func (ProjectRepo) Delete(ctx context.Context, q docstore.Querier, id string) error {
	return notFound(projects.Delete(ctx, q, id), ErrProjectNotFound)
}

// ListByClient returns the client's projects in creation order.
func (ProjectRepo) ListByClient(ctx context.Context, q docstore.Querier, email string) ([]model.Project, error) {
	return projects.Find(ctx, q, docstore.Eq("clientEmail", email))
}

func (ProjectRepo) List(ctx context.Context, q docstore.Querier) ([]model.Project, error) {
	return projects.Find(ctx, q)
}
