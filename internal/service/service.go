// Package service holds the referral and staged-payment rules. Every
// operation that touches more than one document runs inside a single
// docstore transaction; notifications are queued while the transaction runs
// and handed to the notify.Sink only after it commits.
package service

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/atom-referral-tracker/internal/docstore"
	"github.com/iliyamo/atom-referral-tracker/internal/notify"
	"github.com/iliyamo/atom-referral-tracker/internal/repository"
)

// Options carries the settings the rules depend on.
type Options struct {
	AdminKey     string
	AdminEmail   string
	JWTSecret    string
	AccessTTLMin int
	BcryptCost   int
	UPIPayeeVPA  string
	UPIPayeeName string
}

type Service struct {
	store docstore.Store
	repos repository.Repos
	sink  notify.Sink
	opts  Options

	now   func() time.Time
	intn  func(n int) int // random int in [0, n)
	newID func() string
}

// Option customizes a Service, mostly for tests.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithRand replaces the source used to draw referral code digits.
func WithRand(intn func(n int) int) Option { return func(s *Service) { s.intn = intn } }

// WithIDs replaces the uuid generator used for project and change-request ids.
func WithIDs(newID func() string) Option { return func(s *Service) { s.newID = newID } }

func New(store docstore.Store, sink notify.Sink, opts Options, options ...Option) *Service {
	s := &Service{
		store: store,
		sink:  sink,
		opts:  opts,
		now:   time.Now,
		intn:  rand.Intn,
		newID: func() string { return uuid.NewString() },
	}
	for _, o := range options {
		o(s)
	}
	return s
}

func (s *Service) clock() time.Time { return s.now().UTC() }

// outbox collects notifications produced inside a transaction.
type outbox []notify.Message

func (o *outbox) add(m notify.Message) { *o = append(*o, m) }

// flush dispatches queued messages. Call only after the transaction commits.
func (s *Service) flush(o outbox) {
	if s.sink == nil {
		return
	}
	for _, m := range o {
		s.sink.Dispatch(m)
	}
}

// inTx runs fn in a store transaction and dispatches the outbox on commit.
func (s *Service) inTx(ctx context.Context, fn func(ctx context.Context, tx docstore.Querier, out *outbox) error) error {
	var out outbox
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx docstore.Querier) error {
		out = out[:0]
		return fn(ctx, tx, &out)
	})
	if err != nil {
		return err
	}
	s.flush(out)
	return nil
}

func normalizeEmail(v string) string { return strings.ToLower(strings.TrimSpace(v)) }
func normalizeCode(v string) string  { return strings.ToUpper(strings.TrimSpace(v)) }

func timePtr(t time.Time) *time.Time { return &t }
