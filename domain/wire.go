package domain

import (
	"encoding/json"
	"time"
)

// Envelope is the inbound frame shape for every frame after the first:
// {type, clientMessageId?, data}. Data stays raw until the session knows
// which state-specific payload to decode it into.
type Envelope struct {
	Type            MessageType     `json:"type"`
	ClientMessageID string          `json:"clientMessageId,omitempty"`
	Data            json.RawMessage `json:"data"`
}

// AuthInfo carries client credentials. Either a name/password pair or a
// previously issued token.
type AuthInfo struct {
	Name     string `json:"name,omitempty"`
	Password string `json:"password,omitempty"`
	Token    string `json:"token,omitempty"`
}

// ConnectRequest is the very first frame on a connection.
type ConnectRequest struct {
	AuthInfo          AuthInfo `json:"authInfo"`
	ConversationsSize *int     `json:"conversationsSize,omitempty"`
}

// JoinRequest resolves the target conversation three ways: an explicit id the
// caller already participates in, an untitled two-party set (deterministic
// peer-to-peer lookup-or-create), or a titled set of two or more.
type JoinRequest struct {
	ConversationID       string   `json:"conversationId,omitempty"`
	ClientConversationID string   `json:"clientConversationId,omitempty"`
	Title                string   `json:"title,omitempty"`
	Participants         []string `json:"participants,omitempty"`
}

// FindRequest is the message search filter, also the store-level query shape.
type FindRequest struct {
	From             int           `json:"from,omitempty"`
	Size             int           `json:"size,omitempty"`
	Sort             string        `json:"sort,omitempty"`
	SortDesc         bool          `json:"sortDesc,omitempty"`
	IDs              []string      `json:"ids,omitempty"`
	ClientMessageIDs []string      `json:"clientMessageIds,omitempty"`
	ExcludeIDs       []string      `json:"excludeIds,omitempty"`
	ConversationIDs  []string      `json:"conversationIds,omitempty"`
	FromIDs          []string      `json:"fromIds,omitempty"`
	Types            []MessageType `json:"types,omitempty"`
	CreatedFrom      *time.Time    `json:"createdFrom,omitempty"`
	CreatedTo        *time.Time    `json:"createdTo,omitempty"`
	Text             string        `json:"text,omitempty"`
}

// FindResult is one page of matching messages.
type FindResult struct {
	Messages []Message `json:"messages"`
	From     int       `json:"from"`
	Size     int       `json:"size"`
	Total    int       `json:"total"`
}

// LoadRequest pages conversation lists and message history.
type LoadRequest struct {
	From       int        `json:"from,omitempty"`
	Size       int        `json:"size,omitempty"`
	ExcludeIDs []string   `json:"excludeIds,omitempty"`
	Before     *time.Time `json:"before,omitempty"`
}

// Outbound frames. Broadcast echoes (text, joined, updated, ...) reuse the
// Message shape directly; the frames below are the session-scoped responses.

type HelloFrame struct {
	Type       MessageType `json:"type"`
	InstanceID string      `json:"instanceId"`
}

type ConnectionFrame struct {
	Type          MessageType         `json:"type"`
	ConnectionID  string              `json:"connectionId"`
	ID            string              `json:"id"`
	Token         string              `json:"token,omitempty"`
	Conversations ConversationsResult `json:"conversations"`
}

type ConversationFrame struct {
	Type         MessageType   `json:"type"`
	Conversation *Conversation `json:"conversation"`
	Connected    []string      `json:"connected"`
	Messages     []Message     `json:"messages,omitempty"`
	Total        int           `json:"total"`
	LeftAt       *time.Time    `json:"leftAt,omitempty"`
	ClosedAt     *time.Time    `json:"closedAt,omitempty"`
}

type WatchingFrame struct {
	Type          MessageType         `json:"type"`
	Conversations ConversationsResult `json:"conversations"`
}

type FindFrame struct {
	Type            MessageType `json:"type"`
	ClientMessageID string      `json:"clientMessageId,omitempty"`
	Messages        []Message   `json:"messages"`
	From            int         `json:"from"`
	Size            int         `json:"size"`
	Total           int         `json:"total"`
}

type LoadedFrame struct {
	Type            MessageType           `json:"type"`
	ClientMessageID string                `json:"clientMessageId,omitempty"`
	Conversations   []ConversationSummary `json:"conversations"`
	Count           int                   `json:"count"`
}

type LoadedMessagesFrame struct {
	Type            MessageType `json:"type"`
	ClientMessageID string      `json:"clientMessageId,omitempty"`
	Messages        []Message   `json:"messages"`
	Count           int         `json:"count"`
}

// PresenceFrame is the trimmed connected/disconnected notice delivered to
// watchers; payload and conversation fields are stripped.
type PresenceFrame struct {
	Type         MessageType `json:"type"`
	ID           string      `json:"id,omitempty"`
	ConnectionID string      `json:"connectionId"`
	FromID       string      `json:"fromId"`
	CreatedAt    time.Time   `json:"createdAt"`
}
