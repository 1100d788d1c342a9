package errors

import "fmt"

// Business failures surfaced to the client inside the close reason. The texts
// are part of the protocol contract with existing clients, hence the casing.
var (
	ErrAuthenticationFailed      = fmt.Errorf("Authentication failed")
	ErrWrongConversation         = fmt.Errorf("Wrong conversation")
	ErrTooFewParticipants        = fmt.Errorf("Less than 2 participants")
	ErrTitleRequired             = fmt.Errorf("Conversation title required")
	ErrPeerToPeerID              = fmt.Errorf("Unable to get peer to peer conversation identifier")
	ErrSaveConversationFailed    = fmt.Errorf("Save conversation failed")
	ErrConversationClosed        = fmt.Errorf("Conversation closed")
	ErrConversationAlreadyClosed = fmt.Errorf("Conversation already closed")
	ErrConversationDeleted       = fmt.Errorf("Conversation already deleted")
	ErrUpdateConversationFailed  = fmt.Errorf("Update conversation failed")
	ErrCloseConversationFailed   = fmt.Errorf("Close conversation failed")
	ErrWrongMessage              = fmt.Errorf("Wrong message")
	ErrWrongMessageType          = fmt.Errorf("Wrong message type")
	ErrWrongFileName             = fmt.Errorf("Wrong file name")
	ErrNotMessageSenderUpdate    = fmt.Errorf("User is not allowed to update message")
	ErrNotMessageSenderDelete    = fmt.Errorf("User is not allowed to delete message")
	ErrNotCreatorUpdate          = fmt.Errorf("User is not allowed to update conversation")
	ErrUpdateMessageFailed       = fmt.Errorf("Update message failed")
	ErrDeleteMessageFailed       = fmt.Errorf("Delete message failed")
)

// Infrastructure failures.
var (
	ErrTransportNotOpen = fmt.Errorf("transport is not open")
	ErrQueueClosed      = fmt.Errorf("queue is closed")
)
