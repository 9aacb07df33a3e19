// Package notify delivers best-effort email notifications. Nothing in here
// may block or fail a workflow: the Dispatcher runs every send on its own
// goroutine and only logs failures.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/iliyamo/atom-referral-tracker/internal/logger"
)

// Message is a single email.
type Message struct {
	Kind    string `json:"kind"` // short machine label, e.g. "reward_eligible"
	To      string `json:"to"`
	ToName  string `json:"toName,omitempty"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

// Notifier sends one message synchronously.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// Sink accepts messages without blocking the caller.
type Sink interface {
	Dispatch(msg Message)
}

// Dispatcher is the fire-and-forget Sink used by the services.
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
	wg       sync.WaitGroup
}

func NewDispatcher(n Notifier, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{notifier: n, timeout: timeout}
}

func (d *Dispatcher) Dispatch(msg Message) {
	if msg.To == "" {
		logger.Warn("notification dropped: no recipient", "kind", msg.Kind)
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				logger.Error("notification panicked", "kind", msg.Kind, "panic", r)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if err := d.notifier.Notify(ctx, msg); err != nil {
			logger.Error("notification failed", "kind", msg.Kind, "to", msg.To, "error", err)
		}
	}()
}

// Wait blocks until every dispatched message has been attempted.
func (d *Dispatcher) Wait() { d.wg.Wait() }
