package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/samber/lo"

	"chat-relay/contract"
	"chat-relay/domain"
	apperrors "chat-relay/errors"
)

// NatsQueue is the fleet bus over a NATS subject. Every instance publishes
// and subscribes to the same subject; instance-local filtering happens in the
// handler.
type NatsQueue struct {
	conn    *nats.Conn
	subject string
	log     *slog.Logger
	subs    []*nats.Subscription
	closed  bool
}

func NewNatsQueue(url, subject, name string, log *slog.Logger) (*NatsQueue, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(500*time.Millisecond),
		nats.Timeout(3*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %q: %w", url, err)
	}
	return &NatsQueue{conn: conn, subject: subject, log: log}, nil
}

func (q *NatsQueue) AcceptTypes() []domain.MessageType {
	return BroadcastTypes
}

func (q *NatsQueue) Publish(_ context.Context, msg domain.QueueMessage) (bool, error) {
	if !lo.Contains(BroadcastTypes, msg.Type) {
		return false, nil
	}
	if q.closed {
		return false, apperrors.ErrQueueClosed
	}

	encoded, err := json.Marshal(msg)
	if err != nil {
		return false, fmt.Errorf("encode queue message: %w", err)
	}
	if err := q.conn.Publish(q.subject, encoded); err != nil {
		return false, fmt.Errorf("publish to %q: %w", q.subject, err)
	}
	return true, nil
}

func (q *NatsQueue) Subscribe(handler contract.QueueHandler) error {
	if q.closed {
		return apperrors.ErrQueueClosed
	}

	sub, err := q.conn.Subscribe(q.subject, func(m *nats.Msg) {
		var msg domain.QueueMessage
		if err := json.Unmarshal(m.Data, &msg); err != nil {
			q.log.Error("Dropping undecodable queue message", "subject", q.subject, "err", err)
			return
		}
		handler(context.Background(), msg)
	})
	if err != nil {
		return fmt.Errorf("subscribe to %q: %w", q.subject, err)
	}
	q.subs = append(q.subs, sub)
	return nil
}

// Close drains pending deliveries before disconnecting.
func (q *NatsQueue) Close() {
	if q.closed {
		return
	}
	q.closed = true
	for _, sub := range q.subs {
		if err := sub.Drain(); err != nil {
			q.log.Warn("Draining subscription failed", "err", err)
		}
	}
	if err := q.conn.Drain(); err != nil {
		q.log.Warn("Draining connection failed", "err", err)
	}
	q.conn.Close()
}
