package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// TextData is the payload of a text message.
type TextData struct {
	Text string `json:"text"`
}

// FileData is the payload of a file message. Only metadata travels through
// the chat core; the file body lives behind the link.
type FileData struct {
	Link string `json:"link"`
	Name string `json:"name" validate:"required"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

// ConversationUpdateData is the payload of update/updated messages.
type ConversationUpdateData struct {
	ConversationID string   `json:"conversationId,omitempty"`
	Title          string   `json:"title,omitempty"`
	Participants   []string `json:"participants,omitempty"`
}

// MessageUpdateData is the payload of message-update/message-updated. The
// file and text fields are alternatives; which one applies is decided by the
// stored type of the target message.
type MessageUpdateData struct {
	MessageID string `json:"messageId" validate:"required"`
	Text      string `json:"text,omitempty"`
	Link      string `json:"link,omitempty"`
	Name      string `json:"name,omitempty"`
	Type      string `json:"type,omitempty"`
	Size      int64  `json:"size,omitempty"`
}

// MessageDeleteData is the payload of message-delete/message-deleted.
type MessageDeleteData struct {
	MessageID string     `json:"messageId" validate:"required"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

// MessageData is the polymorphic payload of a message, modeled as a tagged
// union: at most one branch is set, chosen by the message type. A zero
// MessageData marshals as JSON null, which is the payload of presence and
// lifecycle messages (connected, joined, left, closed, ...).
type MessageData struct {
	Text               *TextData
	File               *FileData
	ConversationUpdate *ConversationUpdateData
	MessageUpdate      *MessageUpdateData
	MessageDelete      *MessageDeleteData
}

// IsZero reports whether no branch is set.
func (d MessageData) IsZero() bool {
	return d.Text == nil && d.File == nil && d.ConversationUpdate == nil &&
		d.MessageUpdate == nil && d.MessageDelete == nil
}

func (d MessageData) MarshalJSON() ([]byte, error) {
	switch {
	case d.Text != nil:
		return json.Marshal(d.Text)
	case d.File != nil:
		return json.Marshal(d.File)
	case d.ConversationUpdate != nil:
		return json.Marshal(d.ConversationUpdate)
	case d.MessageUpdate != nil:
		return json.Marshal(d.MessageUpdate)
	case d.MessageDelete != nil:
		return json.Marshal(d.MessageDelete)
	default:
		return []byte("null"), nil
	}
}

// DecodeData parses a raw payload into the branch selected by the message
// type. Types whose payload is null (presence, joined, left, closed, ...)
// return a zero MessageData regardless of raw.
func DecodeData(t MessageType, raw json.RawMessage) (MessageData, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return MessageData{}, nil
	}

	switch t {
	case TypeText:
		var v TextData
		if err := json.Unmarshal(raw, &v); err != nil {
			return MessageData{}, fmt.Errorf("decode text payload: %w", err)
		}
		return MessageData{Text: &v}, nil
	case TypeFile:
		var v FileData
		if err := json.Unmarshal(raw, &v); err != nil {
			return MessageData{}, fmt.Errorf("decode file payload: %w", err)
		}
		return MessageData{File: &v}, nil
	case TypeUpdate, TypeUpdated, TypeClose, TypeClosed, TypeDelete, TypeDeleted:
		var v ConversationUpdateData
		if err := json.Unmarshal(raw, &v); err != nil {
			return MessageData{}, fmt.Errorf("decode conversation payload: %w", err)
		}
		return MessageData{ConversationUpdate: &v}, nil
	case TypeMessageUpdate, TypeMessageUpdated:
		var v MessageUpdateData
		if err := json.Unmarshal(raw, &v); err != nil {
			return MessageData{}, fmt.Errorf("decode message-update payload: %w", err)
		}
		return MessageData{MessageUpdate: &v}, nil
	case TypeMessageDelete, TypeMessageDeleted:
		var v MessageDeleteData
		if err := json.Unmarshal(raw, &v); err != nil {
			return MessageData{}, fmt.Errorf("decode message-delete payload: %w", err)
		}
		return MessageData{MessageDelete: &v}, nil
	default:
		return MessageData{}, nil
	}
}

func (m *Message) UnmarshalJSON(b []byte) error {
	type alias Message
	var a struct {
		alias
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	data, err := DecodeData(a.Type, a.Data)
	if err != nil {
		return err
	}
	*m = Message(a.alias)
	m.Data = data
	return nil
}

func (qm *QueueMessage) UnmarshalJSON(b []byte) error {
	type alias QueueMessage
	var a struct {
		alias
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	data, err := DecodeData(a.Type, a.Data)
	if err != nil {
		return err
	}
	*qm = QueueMessage(a.alias)
	qm.Data = data
	return nil
}
