package domain

import "time"

// Conversation is a named or peer-to-peer room with a participant list that
// can change over time. It is owned by the message store; sessions hold a
// snapshot of it while joined.
type Conversation struct {
	ID                   string     `json:"id,omitempty"`
	ClientConversationID string     `json:"clientConversationId,omitempty"`
	Title                string     `json:"title,omitempty"`
	Participants         []string   `json:"participants"`
	CreatedBy            string     `json:"createdBy"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            *time.Time `json:"updatedAt,omitempty"`
	ClosedAt             *time.Time `json:"closedAt,omitempty"`
	DeletedAt            *time.Time `json:"deletedAt,omitempty"`
}

// HasParticipant reports whether userID is currently part of the conversation.
func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// ConversationSummary is a conversation annotated for list pages: the latest
// text/file message and the timestamp of the requesting user's own last message.
type ConversationSummary struct {
	Conversation
	LeftAt        *time.Time `json:"leftAt,omitempty"`
	LatestMessage *Message   `json:"latestMessage,omitempty"`
}

// ConversationsResult is one page of a participant's conversation list,
// ordered by recent activity first.
type ConversationsResult struct {
	Conversations []ConversationSummary `json:"conversations"`
	From          int                   `json:"from"`
	Size          int                   `json:"size"`
	Total         int                   `json:"total"`
}

// ConversationLastMessages carries per-conversation timestamps used to
// annotate list pages: the latest text/file message and the requesting
// participant's own last message.
type ConversationLastMessages struct {
	Latest *Message   `json:"latest,omitempty"`
	Left   *time.Time `json:"left,omitempty"`
}
