package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chat-relay/domain"
	"chat-relay/queue"
	"chat-relay/repositories"
)

func newTestRegistry(t *testing.T) (*Registry, *Service) {
	t.Helper()
	log := slog.Default()
	store := repositories.NewMemoryStore()
	bus := queue.NewMemoryQueue(log)
	t.Cleanup(bus.Close)

	registry := NewRegistry(store, log)
	svc := NewService(Config{InstanceID: "test-instance"}, registry, store, bus, repositories.NewMemoryUserStore(), nil, nil, log)
	return registry, svc
}

func stubSession(svc *Service, userID string) (*ClientSession, *fakeTransport) {
	transport := newFakeTransport()
	s := svc.NewSession(transport)
	s.userID = userID
	s.state = stateSession
	return s, transport
}

func Test_AddSession_Evicts_Users_Outside_Participant_Set(t *testing.T) {
	req := require.New(t)
	registry, svc := newTestRegistry(t)

	stale, staleTransport := stubSession(svc, "ghost")
	registry.AddSession([]string{"alice", "bob"}, "c1", stale)

	// Given the stale session is already tracked, a new join re-checks everyone
	fresh, freshTransport := stubSession(svc, "alice")
	registry.AddSession([]string{"alice", "bob"}, "c1", fresh)

	code, reason := staleTransport.closed()
	req.Equal(1000, code)
	req.Contains(reason, "Removed by new participant")

	freshCode, _ := freshTransport.closed()
	req.Equal(-100, freshCode)
}

func Test_AddSession_Refreshes_Stale_Participant_Set(t *testing.T) {
	req := require.New(t)
	registry, svc := newTestRegistry(t)

	// Given a live membership whose participant set predates bob's admission
	alice, aliceTransport := stubSession(svc, "alice")
	registry.AddSession([]string{"alice"}, "c1", alice)

	// When bob joins while holding his session mutex, the way join does
	bob, bobTransport := stubSession(svc, "bob")
	bob.mu.Lock()
	done := make(chan struct{})
	go func() {
		registry.AddSession([]string{"alice", "bob"}, "c1", bob)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("AddSession blocked force-stopping the joining session")
	}
	bob.mu.Unlock()

	// Then nobody is evicted and the live set carries the fresh participants
	aliceCode, _ := aliceTransport.closed()
	req.Equal(-100, aliceCode)
	bobCode, _ := bobTransport.closed()
	req.Equal(-100, bobCode)

	registry.mu.Lock()
	_, member := registry.memberships["c1"].participants["bob"]
	registry.mu.Unlock()
	req.True(member)
}

func Test_RemoveSession_Preserves_Cache_For_Watchers(t *testing.T) {
	req := require.New(t)
	registry, svc := newTestRegistry(t)

	member, _ := stubSession(svc, "alice")
	registry.AddSession([]string{"alice", "walter"}, "c1", member)

	watcher, _ := stubSession(svc, "walter")
	watcher.state = stateWatchSession
	req.True(registry.AddWatcher(watcher))

	// When the last session leaves a conversation a watcher cares about
	req.True(registry.RemoveSession("c1", member))

	// Then the participants stay resolvable without a store round trip
	participants := registry.resolveParticipants(context.Background(), "c1")
	req.NotNil(participants)
	req.Contains(participants, "walter")

	// When the watcher goes away, the cache entry is pruned
	req.True(registry.RemoveWatcher(watcher))
	registry.mu.Lock()
	_, cached := registry.cache["c1"]
	registry.mu.Unlock()
	req.False(cached)
}

func Test_ResolveParticipants_Falls_Back_To_Store(t *testing.T) {
	req := require.New(t)
	registry, svc := newTestRegistry(t)
	ctx := context.Background()

	saved, err := svc.store.SaveConversation(ctx, &domain.Conversation{
		Participants: []string{"alice", "bob"},
		CreatedBy:    "alice",
		Title:        "t",
	})
	req.NoError(err)

	participants := registry.resolveParticipants(ctx, saved.ID)
	req.Contains(participants, "alice")
	req.Contains(participants, "bob")

	req.Nil(registry.resolveParticipants(ctx, "missing"))
}

func Test_JoinedSubset_Tracks_Joined_And_Left(t *testing.T) {
	req := require.New(t)
	registry, _ := newTestRegistry(t)

	registry.MarkJoined("c1", "alice")
	registry.MarkJoined("c1", "bob")
	req.ElementsMatch([]string{"alice", "bob"}, registry.JoinedSubset("c1", []string{"alice", "bob", "carol"}))

	registry.MarkLeft("c1", "alice")
	req.Equal([]string{"bob"}, registry.JoinedSubset("c1", []string{"alice", "bob", "carol"}))
}

func Test_SyncConversationMembership_Reports_Changes(t *testing.T) {
	req := require.New(t)
	registry, svc := newTestRegistry(t)
	ctx := context.Background()

	saved, err := svc.store.SaveConversation(ctx, &domain.Conversation{
		Participants: []string{"alice", "bob"},
		CreatedBy:    "alice",
		Title:        "t",
	})
	req.NoError(err)

	member, _ := stubSession(svc, "alice")
	registry.AddSession([]string{"alice", "bob"}, saved.ID, member)

	// Unchanged set reports false
	req.False(registry.SyncConversationMembership(ctx, saved.ID))

	// When the store copy gains a participant
	_, err = svc.store.SaveConversation(ctx, &domain.Conversation{
		ID:           saved.ID,
		Participants: []string{"alice", "bob", "carol"},
		CreatedBy:    "alice",
		Title:        "t",
	})
	req.NoError(err)

	req.True(registry.SyncConversationMembership(ctx, saved.ID))
	req.True(registry.IsMember(saved.ID, "carol"))
}
