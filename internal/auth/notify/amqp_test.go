package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/taskboard/internal/auth/service"
	"github.com/aussiebroadwan/taskboard/pkg/slogx"
)

type fakeChannel struct {
	declared   []string
	published  []amqp.Publishing
	keys       []string
	publishErr error
	closed     bool
}

func (c *fakeChannel) QueueDeclare(name string, durable, _, _, _ bool, _ amqp.Table) (amqp.Queue, error) {
	if !durable {
		return amqp.Queue{}, errors.New("queue must be durable")
	}
	c.declared = append(c.declared, name)
	return amqp.Queue{Name: name}, nil
}

func (c *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if c.publishErr != nil {
		return c.publishErr
	}
	c.keys = append(c.keys, exchange+"/"+key)
	c.published = append(c.published, msg)
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func newTestNotifier(chans ...*fakeChannel) (*AMQPNotifier, *int) {
	dials := 0
	n := NewAMQPNotifier("amqp://unused", "")
	n.now = func() time.Time { return time.Unix(1700000000, 0) }
	n.dial = func(context.Context) (channel, func() error, error) {
		if dials >= len(chans) {
			return nil, nil, errors.New("broker unreachable")
		}
		ch := chans[dials]
		dials++
		return ch, nil, nil
	}
	return n, &dials
}

func testCtx() context.Context {
	return slogx.WithContext(context.Background(), slogx.Discard())
}

func TestNotifyResetPublishesPersistentJSON(t *testing.T) {
	ch := &fakeChannel{}
	n, dials := newTestNotifier(ch)

	d := service.ResetDelivery{
		UserID:    "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV",
		Email:     "jane@example.com",
		Name:      "Jane",
		Token:     "tok",
		Link:      "http://localhost:3000/reset-password?token=tok",
		ExpiresAt: time.Unix(1700003600, 0).UTC(),
	}
	require.NoError(t, n.NotifyReset(testCtx(), d))
	require.NoError(t, n.NotifyReset(testCtx(), d))

	require.Equal(t, 1, *dials, "connection is reused")
	require.Equal(t, []string{DefaultResetQueue}, ch.declared)
	require.Equal(t, []string{"/" + DefaultResetQueue, "/" + DefaultResetQueue}, ch.keys)

	msg := ch.published[0]
	require.Equal(t, "application/json", msg.ContentType)
	require.Equal(t, uint8(amqp.Persistent), msg.DeliveryMode)
	require.Equal(t, "password_reset", msg.Type)

	var got service.ResetDelivery
	require.NoError(t, json.Unmarshal(msg.Body, &got))
	require.Equal(t, d, got)
}

func TestNotifyResetReconnectsAfterFailure(t *testing.T) {
	broken := &fakeChannel{publishErr: errors.New("channel closed")}
	healthy := &fakeChannel{}
	n, dials := newTestNotifier(broken, healthy)

	err := n.NotifyReset(testCtx(), service.ResetDelivery{UserID: "u1"})
	require.Error(t, err)
	require.True(t, broken.closed)

	require.NoError(t, n.NotifyReset(testCtx(), service.ResetDelivery{UserID: "u1"}))
	require.Equal(t, 2, *dials)
	require.Len(t, healthy.published, 1)
}

func TestNotifyResetDialFailure(t *testing.T) {
	n, _ := newTestNotifier()
	require.Error(t, n.Connect(testCtx()))
	require.Error(t, n.NotifyReset(testCtx(), service.ResetDelivery{}))
}

func TestNotifyResetAfterClose(t *testing.T) {
	ch := &fakeChannel{}
	n, _ := newTestNotifier(ch)
	require.NoError(t, n.Connect(testCtx()))
	require.NoError(t, n.Close())
	require.True(t, ch.closed)

	err := n.NotifyReset(testCtx(), service.ResetDelivery{})
	require.ErrorIs(t, err, ErrClosed)
}

func TestCustomQueue(t *testing.T) {
	ch := &fakeChannel{}
	n, _ := newTestNotifier(ch)
	n.queue = "mailer.reset"
	require.NoError(t, n.NotifyReset(testCtx(), service.ResetDelivery{}))
	require.Equal(t, []string{"mailer.reset"}, ch.declared)
}
