package notify

import (
	"context"

	"github.com/iliyamo/atom-referral-tracker/internal/logger"
)

// LogNotifier writes messages to the log instead of sending them. Used when
// no mail provider is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, msg Message) error {
	logger.Info("email (not sent)", "kind", msg.Kind, "to", msg.To, "subject", msg.Subject)
	return nil
}
