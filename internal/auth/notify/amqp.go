// Package notify delivers password reset links through RabbitMQ so a
// separate mailer can pick them up.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/aussiebroadwan/taskboard/internal/auth/service"
	"github.com/aussiebroadwan/taskboard/pkg/slogx"
)

// DefaultResetQueue is the queue reset deliveries are published to.
const DefaultResetQueue = "auth.password_reset"

// ErrClosed is returned after Close.
var ErrClosed = errors.New("notify: notifier closed")

// channel is the part of *amqp.Channel the notifier uses.
type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// dialFunc opens a channel with the queue already declared.
type dialFunc func(ctx context.Context) (channel, func() error, error)

// AMQPNotifier publishes each reset delivery as a persistent JSON message
// on a durable queue. The connection is opened lazily and reopened after a
// failed publish.
type AMQPNotifier struct {
	queue string
	dial  dialFunc
	now   func() time.Time

	mu        sync.Mutex
	ch        channel
	closeConn func() error
	closed    bool
}

var _ service.ResetNotifier = (*AMQPNotifier)(nil)

// NewAMQPNotifier returns a notifier for the broker at url. An empty queue
// selects DefaultResetQueue.
func NewAMQPNotifier(url, queue string) *AMQPNotifier {
	if queue == "" {
		queue = DefaultResetQueue
	}
	n := &AMQPNotifier{queue: queue, now: time.Now}
	n.dial = func(context.Context) (channel, func() error, error) {
		conn, err := amqp.Dial(url)
		if err != nil {
			return nil, nil, fmt.Errorf("dial broker: %w", err)
		}
		ch, err := conn.Channel()
		if err != nil {
			_ = conn.Close()
			return nil, nil, fmt.Errorf("open channel: %w", err)
		}
		return ch, conn.Close, nil
	}
	return n
}

// Connect opens the connection and declares the queue. Calling it at
// startup surfaces a bad AMQP_URL before the first reset request.
func (n *AMQPNotifier) Connect(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, err := n.channelLocked(ctx)
	return err
}

func (n *AMQPNotifier) channelLocked(ctx context.Context) (channel, error) {
	if n.closed {
		return nil, ErrClosed
	}
	if n.ch != nil {
		return n.ch, nil
	}

	ch, closeConn, err := n.dial(ctx)
	if err != nil {
		return nil, err
	}
	// Durable so pending links survive a broker restart.
	if _, err := ch.QueueDeclare(n.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		if closeConn != nil {
			_ = closeConn()
		}
		return nil, fmt.Errorf("declare queue %q: %w", n.queue, err)
	}

	n.ch, n.closeConn = ch, closeConn
	return ch, nil
}

func (n *AMQPNotifier) resetLocked() {
	if n.ch != nil {
		_ = n.ch.Close()
	}
	if n.closeConn != nil {
		_ = n.closeConn()
	}
	n.ch, n.closeConn = nil, nil
}

// NotifyReset publishes d to the reset queue.
func (n *AMQPNotifier) NotifyReset(ctx context.Context, d service.ResetDelivery) error {
	body, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal reset delivery: %w", err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	ch, err := n.channelLocked(ctx)
	if err != nil {
		return err
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    n.now().UTC(),
		Type:         "password_reset",
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", n.queue, false, false, msg); err != nil {
		n.resetLocked()
		return fmt.Errorf("publish reset delivery: %w", err)
	}

	slogx.FromContext(ctx).Info("password reset delivery queued",
		"user_id", d.UserID,
		slogx.Email(d.Email),
		"queue", n.queue,
	)
	return nil
}

// Close releases the broker connection. Further deliveries fail with
// ErrClosed.
func (n *AMQPNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.resetLocked()
	n.closed = true
	return nil
}
