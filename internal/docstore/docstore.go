// Package docstore is a small keyed JSON document store. Every entity of the
// service lives in a flat collection keyed by a string id; relationships are
// plain id/email references with no foreign-key enforcement.
//
// All multi-document mutations must go through Store.RunInTx. Inside a
// transaction reads lock what they return, so a read-check-write sequence is
// safe against concurrent writers of the same documents.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
)

// ErrNotFound is returned when no document exists under the requested key.
var ErrNotFound = errors.New("document not found")

// ErrExists is returned by Create when the key is already taken.
var ErrExists = errors.New("document already exists")

// Where is an equality filter on a top-level JSON field. Values are compared
// in their string form, so booleans match "true"/"false".
type Where struct {
	Field string
	Value string
}

// Eq builds a Where filter.
func Eq(field, value string) Where { return Where{Field: field, Value: value} }

var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validateWhere(where []Where) error {
	for _, w := range where {
		if !fieldPattern.MatchString(w.Field) {
			return fmt.Errorf("docstore: invalid filter field %q", w.Field)
		}
	}
	return nil
}

// Document is a raw stored document.
type Document struct {
	ID   string
	Body []byte
}

// Querier reads and writes documents. Both a Store (each call stands alone)
// and the transaction handle passed to RunInTx satisfy it.
type Querier interface {
	Get(ctx context.Context, collection, id string) ([]byte, error)
	Create(ctx context.Context, collection, id string, body []byte) error
	Put(ctx context.Context, collection, id string, body []byte) error
	Delete(ctx context.Context, collection, id string) error
	// Find returns matching documents in insertion order.
	Find(ctx context.Context, collection string, where ...Where) ([]Document, error)
}

// Store is a Querier that can also run a function inside a transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
type Store interface {
	Querier
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Querier) error) error
}

// Collection gives typed access to one collection.
type Collection[T any] struct {
	Name string
}

func (c Collection[T]) Get(ctx context.Context, q Querier, id string) (T, error) {
	var v T
	body, err := q.Get(ctx, c.Name, id)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return v, fmt.Errorf("decode %s/%s: %w", c.Name, id, err)
	}
	return v, nil
}

func (c Collection[T]) Create(ctx context.Context, q Querier, id string, v T) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", c.Name, id, err)
	}
	return q.Create(ctx, c.Name, id, body)
}

func (c Collection[T]) Put(ctx context.Context, q Querier, id string, v T) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", c.Name, id, err)
	}
	return q.Put(ctx, c.Name, id, body)
}

func (c Collection[T]) Delete(ctx context.Context, q Querier, id string) error {
	return q.Delete(ctx, c.Name, id)
}

func (c Collection[T]) Find(ctx context.Context, q Querier, where ...Where) ([]T, error) {
	docs, err := q.Find(ctx, c.Name, where...)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		var v T
		if err := json.Unmarshal(d.Body, &v); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", c.Name, d.ID, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func (c Collection[T]) Count(ctx context.Context, q Querier, where ...Where) (int, error) {
	docs, err := q.Find(ctx, c.Name, where...)
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}
