package notify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (r *recorder) Notify(ctx context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return r.err
}

func TestDispatcher_DeliversAsync(t *testing.T) {
	rec := &recorder{}
	d := NewDispatcher(rec, 0)

	d.Dispatch(Message{Kind: "a", To: "x@y.com"})
	d.Dispatch(Message{Kind: "b", To: "z@y.com"})
	d.Wait()

	assert.Len(t, rec.sent, 2)
}

func TestDispatcher_FailureIsSwallowed(t *testing.T) {
	rec := &recorder{err: errors.New("smtp down")}
	d := NewDispatcher(rec, 0)

	assert.NotPanics(t, func() {
		d.Dispatch(Message{Kind: "a", To: "x@y.com"})
		d.Wait()
	})
	assert.Len(t, rec.sent, 1)
}

func TestDispatcher_DropsMessagesWithoutRecipient(t *testing.T) {
	rec := &recorder{}
	d := NewDispatcher(rec, 0)

	d.Dispatch(Message{Kind: "a"})
	d.Wait()

	assert.Empty(t, rec.sent)
}
