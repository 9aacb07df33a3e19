package jobs

import (
	"context"

	"github.com/iliyamo/atom-referral-tracker/internal/logger"
)

// Reminder sends reminders for payments past their due date.
type Reminder interface {
	SendPaymentReminders(ctx context.Context) (int, error)
}

// Pruner evicts expired rate-limit windows.
type Pruner interface {
	Prune() int
}

// PaymentReminders returns the job body for overdue payment reminders.
func PaymentReminders(r Reminder) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		n, err := r.SendPaymentReminders(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Info("payment reminders sent", "count", n)
		}
		return nil
	}
}

// PruneRateLimits returns the job body for evicting expired windows.
func PruneRateLimits(p Pruner) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if n := p.Prune(); n > 0 {
			logger.Debug("rate limit windows pruned", "count", n)
		}
		return nil
	}
}
