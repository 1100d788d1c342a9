// Package domain holds the chat data model: conversations, messages, the
// tagged-union message payload and the envelopes exchanged over the wire and
// over the fleet bus.
package domain

import "time"

type MessageType string

const (
	TypeHello          MessageType = "hello"
	TypeConnection     MessageType = "connection"
	TypeConversation   MessageType = "conversation"
	TypeWatch          MessageType = "watch"
	TypeWatching       MessageType = "watching"
	TypeConnected      MessageType = "connected"
	TypeDisconnected   MessageType = "disconnected"
	TypeJoin           MessageType = "join"
	TypeJoined         MessageType = "joined"
	TypeLeft           MessageType = "left"
	TypeClose          MessageType = "close"
	TypeClosed         MessageType = "closed"
	TypeDelete         MessageType = "delete"
	TypeDeleted        MessageType = "deleted"
	TypeUpdate         MessageType = "update"
	TypeUpdated        MessageType = "updated"
	TypeText           MessageType = "text"
	TypeFile           MessageType = "file"
	TypeMessageUpdate  MessageType = "message-update"
	TypeMessageUpdated MessageType = "message-updated"
	TypeMessageDelete  MessageType = "message-delete"
	TypeMessageDeleted MessageType = "message-deleted"
	TypeFind           MessageType = "find"
	TypeLoad           MessageType = "load"
	TypeLoaded         MessageType = "loaded"
	TypeLoadMessages   MessageType = "load-messages"
	TypeLoadedMessages MessageType = "loaded-messages"
)

// StoredTypes are the message types that carry user content; history queries
// page over these.
var StoredTypes = []MessageType{TypeFile, TypeText}

// Message is a store-owned record. Updates and deletes are soft: the record
// stays in place and gets stamped.
type Message struct {
	ID              string      `json:"id,omitempty"`
	ConversationID  string      `json:"conversationId"`
	Participants    []string    `json:"participants"`
	ConnectionID    string      `json:"connectionId"`
	FromID          string      `json:"fromId"`
	Type            MessageType `json:"type"`
	ClientMessageID string      `json:"clientMessageId,omitempty"`
	Data            MessageData `json:"data"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       *time.Time  `json:"updatedAt,omitempty"`
	DeletedAt       *time.Time  `json:"deletedAt,omitempty"`
}

// QueueMessage is the envelope published on the fleet bus. Every instance,
// including the producer, consumes it through the translator.
type QueueMessage struct {
	Type            MessageType `json:"type"`
	ID              string      `json:"id,omitempty"`
	InstanceID      string      `json:"instanceId"`
	ConversationID  string      `json:"conversationId,omitempty"`
	Participants    []string    `json:"participants,omitempty"`
	ConnectionID    string      `json:"connectionId"`
	FromID          string      `json:"fromId"`
	ClientMessageID string      `json:"clientMessageId,omitempty"`
	Data            MessageData `json:"data"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       *time.Time  `json:"updatedAt,omitempty"`
}

// AsMessage projects the bus envelope back onto the store message shape used
// for local fanout frames.
func (qm QueueMessage) AsMessage() Message {
	return Message{
		ID:              qm.ID,
		ConversationID:  qm.ConversationID,
		Participants:    qm.Participants,
		ConnectionID:    qm.ConnectionID,
		FromID:          qm.FromID,
		Type:            qm.Type,
		ClientMessageID: qm.ClientMessageID,
		Data:            qm.Data,
		CreatedAt:       qm.CreatedAt,
		UpdatedAt:       qm.UpdatedAt,
	}
}
