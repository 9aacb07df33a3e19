package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/atom-referral-tracker/internal/docstore"
	"github.com/iliyamo/atom-referral-tracker/internal/notify"
)

const testAdminKey = "admin-secret"

type recorder struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (r *recorder) Notify(ctx context.Context, m notify.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, m)
	return nil
}

func (r *recorder) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.msgs))
	for _, m := range r.msgs {
		out = append(out, m.Kind)
	}
	return out
}

func (r *recorder) byKind(kind string) []notify.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notify.Message
	for _, m := range r.msgs {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// seqRand returns vals in order, then keeps counting up from the last one.
func seqRand(vals ...int) func(int) int {
	var mu sync.Mutex
	i := 0
	return func(n int) int {
		mu.Lock()
		defer mu.Unlock()
		var v int
		if i < len(vals) {
			v = vals[i]
		} else {
			v = vals[len(vals)-1] + (i - len(vals) + 1)
		}
		i++
		return v % n
	}
}

type env struct {
	svc   *Service
	store *docstore.MemoryStore
	disp  *notify.Dispatcher
	rec   *recorder
	clock *fakeClock
}

// sent waits for in-flight notifications and returns their kinds.
func (e *env) sent() []string {
	e.disp.Wait()
	return e.rec.kinds()
}

func newEnv(t *testing.T, opts ...Option) *env {
	t.Helper()
	store := docstore.NewMemoryStore()
	rec := &recorder{}
	disp := notify.NewDispatcher(rec, time.Second)
	clock := &fakeClock{t: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	ids := 0
	base := []Option{
		WithClock(clock.now),
		WithRand(seqRand(234)),
		WithIDs(func() string { ids++; return "id-" + string(rune('a'+ids-1)) }),
	}
	svc := New(store, disp, Options{
		AdminKey:     testAdminKey,
		AdminEmail:   "admin@atom.test",
		JWTSecret:    "jwt-secret",
		AccessTTLMin: 60,
		BcryptCost:   4,
		UPIPayeeVPA:  "atom@upi",
		UPIPayeeName: "Atom Studio",
	}, append(base, opts...)...)
	t.Cleanup(disp.Wait)
	return &env{svc: svc, store: store, disp: disp, rec: rec, clock: clock}
}

func (e *env) referrer(t *testing.T, email, phone string) string {
	t.Helper()
	res, err := e.svc.GenerateCode(context.Background(), GenerateCodeInput{Email: email, Phone: phone, UPI: "ref@okaxis", Password: "abc123"})
	require.NoError(t, err)
	return res.Code
}

func (e *env) client(t *testing.T, email, code string) {
	t.Helper()
	_, err := e.svc.Signup(context.Background(), SignupInput{ReferralCode: code, Name: "Client " + email, Email: email, Phone: "9123456780", Password: "secret1"})
	require.NoError(t, err)
}

func requireKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, KindOf(err), "error: %v", err)
}
