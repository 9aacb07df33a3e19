package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/atom-referral-tracker/internal/logger"
	"github.com/iliyamo/atom-referral-tracker/internal/notify"
)

// Publisher implements notify.Notifier by enqueueing each message as a
// persistent EmailEvent. The broker connection is opened lazily and dropped
// after any failure so the next publish redials.
type Publisher struct {
	url  string
	mu   sync.Mutex
	conn *amqp.Connection
}

func NewPublisher(url string) *Publisher { return &Publisher{url: url} }

func (p *Publisher) connection() (*amqp.Connection, error) {
	if p.conn != nil && !p.conn.IsClosed() {
		return p.conn, nil
	}
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	p.conn = conn
	return conn, nil
}

func (p *Publisher) reset() {
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// Notify publishes msg. Errors are returned so the dispatcher can log them.
func (p *Publisher) Notify(ctx context.Context, msg notify.Message) error {
	body, err := json.Marshal(EmailEvent{Message: msg, QueuedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	conn, err := p.connection()
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		p.reset()
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(NotificationQueueName, true, false, false, false, nil); err != nil {
		p.reset()
		return fmt.Errorf("queue declare: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", NotificationQueueName, false, false, pub); err != nil {
		p.reset()
		return fmt.Errorf("publish: %w", err)
	}
	logger.Debug("notification queued", "kind", msg.Kind, "to", msg.To)
	return nil
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}
