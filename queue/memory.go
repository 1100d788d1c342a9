package queue

import (
	"context"
	"log/slog"
	"sync"

	"github.com/samber/lo"

	"chat-relay/contract"
	"chat-relay/domain"
	apperrors "chat-relay/errors"
)

// BroadcastTypes is the bus allow-list: only fleet-relevant events cross the
// queue, request/response frames stay on their own connection.
var BroadcastTypes = []domain.MessageType{
	domain.TypeConnected,
	domain.TypeDisconnected,
	domain.TypeJoined,
	domain.TypeLeft,
	domain.TypeClosed,
	domain.TypeDeleted,
	domain.TypeUpdated,
	domain.TypeMessageUpdated,
	domain.TypeMessageDeleted,
	domain.TypeText,
	domain.TypeFile,
}

const memoryQueueDepth = 1024

// MemoryQueue is a single-process bus. Published messages go through a
// buffered channel consumed by one dispatcher goroutine, so subscribers run
// asynchronously in publish order and a handler can publish without
// deadlocking on its own delivery.
type MemoryQueue struct {
	mu       sync.Mutex
	handlers []contract.QueueHandler
	messages chan domain.QueueMessage
	done     chan struct{}
	closed   bool
	log      *slog.Logger
}

func NewMemoryQueue(log *slog.Logger) *MemoryQueue {
	q := &MemoryQueue{
		messages: make(chan domain.QueueMessage, memoryQueueDepth),
		done:     make(chan struct{}),
		log:      log,
	}
	go q.dispatch()
	return q
}

func (q *MemoryQueue) AcceptTypes() []domain.MessageType {
	return BroadcastTypes
}

func (q *MemoryQueue) Publish(_ context.Context, msg domain.QueueMessage) (bool, error) {
	if !lo.Contains(BroadcastTypes, msg.Type) {
		return false, nil
	}

	q.mu.Lock()
	closed := q.closed
	q.mu.Unlock()
	if closed {
		return false, apperrors.ErrQueueClosed
	}

	// Never block: publishers hold their session mutex, and the dispatcher
	// may be waiting on that same mutex inside a delivery.
	select {
	case q.messages <- msg:
		return true, nil
	default:
		q.log.Error("Dropping bus message, queue is full", "type", msg.Type, "conversationId", msg.ConversationID)
		return false, nil
	}
}

func (q *MemoryQueue) Subscribe(handler contract.QueueHandler) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return apperrors.ErrQueueClosed
	}
	q.handlers = append(q.handlers, handler)
	return nil
}

func (q *MemoryQueue) dispatch() {
	for {
		select {
		case msg := <-q.messages:
			q.mu.Lock()
			handlers := make([]contract.QueueHandler, len(q.handlers))
			copy(handlers, q.handlers)
			q.mu.Unlock()

			for _, handler := range handlers {
				handler(context.Background(), msg)
			}
		case <-q.done:
			return
		}
	}
}

// Close stops the dispatcher. Messages still buffered are dropped.
func (q *MemoryQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.done)
}
