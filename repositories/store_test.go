package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"chat-relay/contract"
	"chat-relay/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	require.NoError(t, err)

	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = writer.Close()
		_ = db.Close()
	})
	return NewStore(db, writer, slog.Default())
}

func textMessage(conversationID, from, text string, at time.Time) *domain.Message {
	return &domain.Message{
		Type:           domain.TypeText,
		ConversationID: conversationID,
		FromID:         from,
		Data:           domain.MessageData{Text: &domain.TextData{Text: text}},
		CreatedAt:      at,
	}
}

func Test_Save_And_Find_Sorted_Messages(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)
	ctx := context.Background()

	// Given messages saved out of chronological order
	at := time.Now().UTC()
	conversation := &domain.Conversation{Title: "general", Participants: []string{"alice", "bob"}, CreatedBy: "alice", CreatedAt: at}
	saved, err := store.SaveConversation(ctx, conversation)
	req.NoError(err)
	req.Equal(contract.SaveCreated, saved.Result)
	conversationID := saved.ID

	for _, offset := range []time.Duration{2 * time.Minute, 0, 1 * time.Minute} {
		_, err = store.SaveMessage(ctx, textMessage(conversationID, "alice", fmt.Sprintf("at %s", offset), at.Add(offset)))
		req.NoError(err)
	}

	// When fetching them sorted by creation time
	result, err := store.FindMessages(ctx, domain.FindRequest{
		ConversationIDs: []string{conversationID},
		Sort:            "createdAt",
	})
	req.NoError(err)

	// Then they come back oldest first
	req.Equal(3, result.Total)
	req.Len(result.Messages, 3)
	req.Equal("at 0s", result.Messages[0].Data.Text.Text)
	req.Equal("at 1m0s", result.Messages[1].Data.Text.Text)
	req.Equal("at 2m0s", result.Messages[2].Data.Text.Text)
}

func Test_Find_Messages_Pagination(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)
	ctx := context.Background()

	at := time.Now().UTC()
	for i := 1; i <= 10; i++ {
		_, err := store.SaveMessage(ctx, textMessage("room", "alice", fmt.Sprintf("message %d", i), at.Add(time.Duration(i)*time.Minute)))
		req.NoError(err)
	}

	result, err := store.FindMessages(ctx, domain.FindRequest{
		ConversationIDs: []string{"room"},
		Sort:            "createdAt",
		SortDesc:        true,
		From:            4,
		Size:            4,
	})
	req.NoError(err)
	req.Equal(10, result.Total)
	req.Len(result.Messages, 4)
	req.Equal("message 6", result.Messages[0].Data.Text.Text)
	req.Equal("message 3", result.Messages[3].Data.Text.Text)
}

func Test_Find_Messages_By_Text(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)
	ctx := context.Background()

	at := time.Now().UTC()
	_, err := store.SaveMessage(ctx, textMessage("room", "alice", "the quick brown fox", at))
	req.NoError(err)
	_, err = store.SaveMessage(ctx, textMessage("room", "bob", "a slow green turtle", at.Add(time.Minute)))
	req.NoError(err)
	_, err = store.SaveMessage(ctx, textMessage("other", "clara", "another quick fox", at.Add(2*time.Minute)))
	req.NoError(err)

	// When searching scoped to one conversation
	result, err := store.FindMessages(ctx, domain.FindRequest{
		Text:            "quick",
		ConversationIDs: []string{"room"},
	})
	req.NoError(err)

	req.Equal(1, result.Total)
	req.Equal("the quick brown fox", result.Messages[0].Data.Text.Text)
}

func Test_Deleted_Message_Leaves_Text_Index(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)
	ctx := context.Background()

	at := time.Now().UTC()
	message := textMessage("room", "alice", "ephemeral content", at)
	saved, err := store.SaveMessage(ctx, message)
	req.NoError(err)

	// When soft deleting the message
	now := time.Now().UTC()
	message.ID = saved.ID
	message.DeletedAt = &now
	updated, err := store.SaveMessage(ctx, message)
	req.NoError(err)
	req.Equal(contract.SaveUpdated, updated.Result)

	// Then text search no longer returns it
	result, err := store.FindMessages(ctx, domain.FindRequest{Text: "ephemeral"})
	req.NoError(err)
	req.Zero(result.Total)
}

func Test_PeerToPeer_Conversation_ID_Is_Stable(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.GetPeerToPeerConversationID(ctx, "alice", "bob")
	req.NoError(err)
	req.NotEmpty(first)

	// Same pair in either order resolves to the same conversation
	second, err := store.GetPeerToPeerConversationID(ctx, "bob", "alice")
	req.NoError(err)
	req.Equal(first, second)

	other, err := store.GetPeerToPeerConversationID(ctx, "alice", "clara")
	req.NoError(err)
	req.NotEqual(first, other)
}

func Test_Participant_Conversations_Excludes_Deleted(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)
	ctx := context.Background()

	at := time.Now().UTC()
	kept, err := store.SaveConversation(ctx, &domain.Conversation{Title: "kept", Participants: []string{"alice", "bob"}, CreatedBy: "alice", CreatedAt: at})
	req.NoError(err)

	now := at.Add(time.Minute)
	_, err = store.SaveConversation(ctx, &domain.Conversation{Title: "gone", Participants: []string{"alice", "bob"}, CreatedBy: "alice", CreatedAt: at, DeletedAt: &now})
	req.NoError(err)

	_, err = store.SaveConversation(ctx, &domain.Conversation{Title: "other", Participants: []string{"bob", "clara"}, CreatedBy: "bob", CreatedAt: at})
	req.NoError(err)

	result, err := store.GetParticipantConversations(ctx, "alice", nil, 0, 10)
	req.NoError(err)
	req.Equal(1, result.Total)
	req.Equal(kept.ID, result.Conversations[0].ID)
}

func Test_Last_Messages_Timestamps(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)
	ctx := context.Background()

	at := time.Now().UTC()
	_, err := store.SaveMessage(ctx, textMessage("room", "alice", "first", at))
	req.NoError(err)
	_, err = store.SaveMessage(ctx, textMessage("room", "bob", "second", at.Add(time.Minute)))
	req.NoError(err)

	timestamps, err := store.GetLastMessagesTimestamps(ctx, "alice", []string{"room"})
	req.NoError(err)

	last, ok := timestamps["room"]
	req.True(ok)
	req.NotNil(last.Latest)
	req.Equal("second", last.Latest.Data.Text.Text)
	req.NotNil(last.Left)
	req.WithinDuration(at, *last.Left, time.Second)
}

func Test_Conversation_By_Creator_And_Participant(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)
	ctx := context.Background()

	saved, err := store.SaveConversation(ctx, &domain.Conversation{
		Title:        "ops",
		Participants: []string{"alice", "bob"},
		CreatedBy:    "alice",
		CreatedAt:    time.Now().UTC(),
	})
	req.NoError(err)

	byCreator, err := store.GetConversationByCreator(ctx, "alice", saved.ID)
	req.NoError(err)
	req.NotNil(byCreator)

	notCreator, err := store.GetConversationByCreator(ctx, "bob", saved.ID)
	req.NoError(err)
	req.Nil(notCreator)

	byParticipant, err := store.GetParticipantConversationByID(ctx, "bob", saved.ID)
	req.NoError(err)
	req.NotNil(byParticipant)

	stranger, err := store.GetParticipantConversationByID(ctx, "clara", saved.ID)
	req.NoError(err)
	req.Nil(stranger)
}
