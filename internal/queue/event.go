// Package queue moves notification emails through RabbitMQ so that sending
// happens outside the request path and survives provider outages.
package queue

import (
	"time"

	"github.com/iliyamo/atom-referral-tracker/internal/notify"
)

// NotificationQueueName is the durable queue email events are published to.
const NotificationQueueName = "notifications.email"

// EmailEvent is the message body on NotificationQueueName. It carries the
// full rendered email so consumers need no access to the document store.
type EmailEvent struct {
	Message   notify.Message `json:"message"`
	QueuedAt  time.Time      `json:"queued_at"`
}
