package notifier

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shield-staffing/shield/backend/internal/domain"
)

// Queue is the durable queue the notification worker consumes from.
const Queue = "notification_queue"

// Publisher is the subset of *amqp.Channel the notifier uses.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange string, key string, mandatory bool, immediate bool, msg amqp.Publishing) error
}

// Notifier hands notification messages to the broker. Publishing carries its
// own short deadline so a slow broker cannot hold up the caller's response;
// delivery beyond the broker is the worker's problem, at most-effort.
type Notifier struct {
	publisher Publisher
	timeout   time.Duration
}

func New(publisher Publisher, timeout time.Duration) *Notifier {
	return &Notifier{
		publisher: publisher,
		timeout:   timeout,
	}
}

func (n *Notifier) Notify(ctx context.Context, msg *domain.NotificationMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	return n.publisher.PublishWithContext(
		ctx,
		"",
		Queue,
		true,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}
