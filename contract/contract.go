//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"

	"chat-relay/domain"
)

// TransportState mirrors the lifecycle of a websocket-like connection.
type TransportState int

const (
	StateConnecting TransportState = iota
	StateOpen
	StateClosing
	StateClosed
)

// Close codes used on the transport. CodeWrongState is a sentinel reported
// when a send or close is attempted while the transport is not open; it never
// goes over the wire.
const (
	CodePolicyViolation = 1000
	CodeInternalError   = 1011
	CodeWrongState      = -1
)

// CloseReasonLimit is the transport's close-reason byte budget (websocket
// control frames cap the payload at 125 bytes, minus the 2-byte status code).
const CloseReasonLimit = 123

// Transport is one connection's byte-message channel. Send and Close report
// CodeWrongState-style failures through their error; frame reception is owned
// by the server's per-connection receive loop, which dispatches frames to the
// session one at a time.
type Transport interface {
	State() TransportState
	Send(text string) error
	Close(code int, reason string) error
}

// Save results reported by the message store.
const (
	SaveCreated = "created"
	SaveUpdated = "updated"
	SaveFailed  = "failed"
)

// SaveResponse reports the id and outcome of a store write.
type SaveResponse struct {
	ID     string
	Result string
}

// MessageStore is the persistence collaborator. Implementations decide
// whether ids are counters or uuids; save operations report created/updated
// so callers can distinguish create-on-first-use paths.
type MessageStore interface {
	FindMessages(ctx context.Context, r domain.FindRequest) (domain.FindResult, error)
	GetConversationByID(ctx context.Context, id string) (*domain.Conversation, error)
	GetConversationByCreator(ctx context.Context, createdBy, id string) (*domain.Conversation, error)
	GetParticipantConversationByID(ctx context.Context, participant, id string) (*domain.Conversation, error)
	GetParticipantConversations(ctx context.Context, participant string, excludeIDs []string, from, size int) (domain.ConversationsResult, error)
	GetLastMessagesTimestamps(ctx context.Context, fromID string, conversationIDs []string) (map[string]domain.ConversationLastMessages, error)
	GetParticipantLastMessage(ctx context.Context, participant, conversationID string) (*domain.Message, error)
	// GetPeerToPeerConversationID returns the deterministic id for an
	// untitled two-party conversation, creating the mapping on first use.
	GetPeerToPeerConversationID(ctx context.Context, peer1, peer2 string) (string, error)
	SaveConnection(ctx context.Context, userID, instanceID string) (SaveResponse, error)
	SaveConversation(ctx context.Context, c *domain.Conversation) (SaveResponse, error)
	SaveMessage(ctx context.Context, msg *domain.Message) (SaveResponse, error)
	SaveInstance(ctx context.Context, appID string) (SaveResponse, error)
}

// QueueHandler consumes one bus message.
type QueueHandler func(ctx context.Context, msg domain.QueueMessage)

// MessageQueue is the fleet bus. Publishing a type outside AcceptTypes is a
// no-op success, so sessions keep working bus-less.
type MessageQueue interface {
	// AcceptTypes returns the allow-list, or nil to accept every type.
	AcceptTypes() []domain.MessageType
	Publish(ctx context.Context, msg domain.QueueMessage) (bool, error)
	Subscribe(handler QueueHandler) error
}

// UserStore authenticates credentials. An empty user id means rejected.
type UserStore interface {
	Authenticate(ctx context.Context, info domain.AuthInfo) (string, error)
}
