package services

import (
	"context"
	"log/slog"
	"sync"

	"chat-relay/contract"
)

// Registry is the process-wide membership hub: live conversation memberships,
// the watcher set, the participant cache for conversations watchers still care
// about, and the fleet-derived joined/online sets. One Registry per process,
// handed to every session; all fields are guarded by a single mutex.
//
// Deliveries and force-stops always happen outside the lock: targets are
// collected under the lock, acted on after release, so a session callback can
// re-enter the registry without deadlocking.
type Registry struct {
	mu          sync.Mutex
	memberships map[string]*membership
	cache       map[string]map[string]struct{}
	watchers    map[string]*ClientSession
	joined      map[string]map[string]struct{}
	online      map[string]struct{}

	store contract.MessageStore
	log   *slog.Logger
}

type membership struct {
	participants map[string]struct{}
	sessions     []*ClientSession
}

func NewRegistry(store contract.MessageStore, log *slog.Logger) *Registry {
	return &Registry{
		memberships: make(map[string]*membership),
		cache:       make(map[string]map[string]struct{}),
		watchers:    make(map[string]*ClientSession),
		joined:      make(map[string]map[string]struct{}),
		online:      make(map[string]struct{}),
		store:       store,
		log:         log,
	}
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// AddSession binds a session to its conversation's live membership and
// invalidates the cache entry. Any co-located session whose user fell out of
// the refreshed participant set is force-stopped.
func (r *Registry) AddSession(participants []string, conversationID string, s *ClientSession) {
	r.mu.Lock()
	info, ok := r.memberships[conversationID]
	if !ok {
		info = &membership{}
		r.memberships[conversationID] = info
	}
	// The joiner just read or persisted this participant set, so it is
	// fresher than whatever the live membership holds.
	info.participants = toSet(participants)
	delete(r.cache, conversationID)
	info.sessions = append(info.sessions, s)

	var evicted []*ClientSession
	for _, existing := range info.sessions {
		// The joiner holds its own mutex here and was just validated as a
		// participant; stopping it would deadlock.
		if existing == s {
			continue
		}
		if _, member := info.participants[existing.userID]; existing.userID != "" && !member {
			evicted = append(evicted, existing)
		}
	}
	r.mu.Unlock()

	for _, e := range evicted {
		e.Stop("Removed by new participant")
	}
}

// RemoveSession drops a session from the live membership. When the last local
// session leaves, the participant set survives in the cache only if a watcher
// still cares about it.
func (r *Registry) RemoveSession(conversationID string, s *ClientSession) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, ok := r.memberships[conversationID]
	if !ok {
		return false
	}

	index := -1
	for i, existing := range info.sessions {
		if existing == s {
			index = i
			break
		}
	}
	if index < 0 {
		return false
	}
	info.sessions = append(info.sessions[:index], info.sessions[index+1:]...)

	if len(info.sessions) == 0 {
		delete(r.memberships, conversationID)
		for id := range info.participants {
			if _, watching := r.watchers[id]; watching {
				r.cache[conversationID] = info.participants
				break
			}
		}
	}
	return true
}

func (r *Registry) AddWatcher(s *ClientSession) bool {
	if s.userID == "" {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watchers[s.userID] = s
	return true
}

// RemoveWatcher deregisters a watcher and prunes cache entries no remaining
// watcher is interested in.
func (r *Registry) RemoveWatcher(s *ClientSession) bool {
	if s.userID == "" {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.watchers[s.userID]; !ok || current != s {
		return false
	}
	delete(r.watchers, s.userID)

	for conversationID, participants := range r.cache {
		if _, member := participants[s.userID]; !member {
			continue
		}
		keep := false
		for id := range participants {
			if _, watching := r.watchers[id]; watching {
				keep = true
				break
			}
		}
		if !keep {
			delete(r.cache, conversationID)
		}
	}
	return true
}

// resolveParticipants answers live set first, then cache, then store,
// populating the cache on a store hit. A nil result means the conversation is
// unresolvable.
func (r *Registry) resolveParticipants(ctx context.Context, conversationID string) map[string]struct{} {
	r.mu.Lock()
	if info, ok := r.memberships[conversationID]; ok {
		participants := info.participants
		r.mu.Unlock()
		return participants
	}
	if participants, ok := r.cache[conversationID]; ok {
		r.mu.Unlock()
		return participants
	}
	r.mu.Unlock()

	conversation, err := r.store.GetConversationByID(ctx, conversationID)
	if err != nil {
		r.log.Error("Resolving conversation participants failed", "conversationId", conversationID, "err", err)
		return nil
	}
	if conversation == nil {
		return nil
	}

	participants := toSet(conversation.Participants)
	r.mu.Lock()
	r.cache[conversationID] = participants
	r.mu.Unlock()
	return participants
}

// ConversationTargets is the fanout set for one conversation: every locally
// joined session plus every active watcher among its resolved participants.
func (r *Registry) ConversationTargets(ctx context.Context, conversationID string) []*ClientSession {
	r.mu.Lock()
	var targets []*ClientSession
	if info, ok := r.memberships[conversationID]; ok {
		targets = append(targets, info.sessions...)
	}
	hasWatchers := len(r.watchers) > 0
	r.mu.Unlock()

	if !hasWatchers {
		return targets
	}

	participants := r.resolveParticipants(ctx, conversationID)

	r.mu.Lock()
	for id := range participants {
		if watcher, ok := r.watchers[id]; ok {
			targets = append(targets, watcher)
		}
	}
	r.mu.Unlock()
	return targets
}

// FanoutToConversation delivers concurrently to every conversation target.
// One session's failure never blocks the others; the call returns once every
// delivery attempt finished.
func (r *Registry) FanoutToConversation(ctx context.Context, conversationID string, action func(*ClientSession)) {
	fanout(r.ConversationTargets(ctx, conversationID), action)
}

// WatcherTargetsOf is the presence fanout set for one user: their own watcher
// entry plus every watcher participating in any live or cached conversation
// the user belongs to.
func (r *Registry) WatcherTargetsOf(userID string) []*ClientSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.watchers) == 0 {
		return nil
	}

	interested := map[string]struct{}{userID: {}}
	for _, info := range r.memberships {
		if _, member := info.participants[userID]; member {
			for p := range info.participants {
				interested[p] = struct{}{}
			}
		}
	}
	for _, participants := range r.cache {
		if _, member := participants[userID]; member {
			for p := range participants {
				interested[p] = struct{}{}
			}
		}
	}

	var targets []*ClientSession
	for id := range interested {
		if watcher, ok := r.watchers[id]; ok {
			targets = append(targets, watcher)
		}
	}
	return targets
}

// FanoutToWatchersOf delivers a presence notice to every watcher interested
// in the given user.
func (r *Registry) FanoutToWatchersOf(userID string, action func(*ClientSession)) {
	fanout(r.WatcherTargetsOf(userID), action)
}

func fanout(targets []*ClientSession, action func(*ClientSession)) {
	var wg sync.WaitGroup
	for _, target := range targets {
		wg.Add(1)
		go func(s *ClientSession) {
			defer wg.Done()
			action(s)
		}(target)
	}
	wg.Wait()
}

// SyncConversationMembership re-reads the conversation from the store,
// invalidates the cache and refreshes the live participant set. It reports
// whether the set actually changed.
func (r *Registry) SyncConversationMembership(ctx context.Context, conversationID string) bool {
	conversation, err := r.store.GetConversationByID(ctx, conversationID)
	if err != nil {
		r.log.Error("Syncing conversation membership failed", "conversationId", conversationID, "err", err)
		return false
	}
	if conversation == nil {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.cache, conversationID)

	info, ok := r.memberships[conversationID]
	if !ok {
		return true
	}

	refreshed := toSet(conversation.Participants)
	if len(refreshed) == len(info.participants) {
		same := true
		for p := range refreshed {
			if _, member := info.participants[p]; !member {
				same = false
				break
			}
		}
		if same {
			return false
		}
	}

	info.participants = refreshed
	return true
}

// IsMember reports whether userID is in the live participant set of the
// conversation, if any.
func (r *Registry) IsMember(conversationID, userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	info, ok := r.memberships[conversationID]
	if !ok {
		return false
	}
	_, member := info.participants[userID]
	return member
}

// DropCache clears the cached participant set of a conversation.
func (r *Registry) DropCache(conversationID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cache, conversationID)
}

// MarkJoined records a fleet-wide joined event.
func (r *Registry) MarkJoined(conversationID, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.joined[conversationID]
	if !ok {
		set = make(map[string]struct{})
		r.joined[conversationID] = set
	}
	set[userID] = struct{}{}
}

// MarkLeft records a fleet-wide left event.
func (r *Registry) MarkLeft(conversationID, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.joined[conversationID]
	if !ok {
		return
	}
	delete(set, userID)
	if len(set) == 0 {
		delete(r.joined, conversationID)
	}
}

// JoinedSubset filters participants down to those currently broadcast as
// joined to the conversation fleet-wide.
func (r *Registry) JoinedSubset(conversationID string, participants []string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := r.joined[conversationID]
	connected := make([]string, 0, len(participants))
	for _, p := range participants {
		if _, ok := set[p]; ok {
			connected = append(connected, p)
		}
	}
	return connected
}

// SetOnline tracks the fleet-wide online user set.
func (r *Registry) SetOnline(userID string, online bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if online {
		r.online[userID] = struct{}{}
	} else {
		delete(r.online, userID)
	}
}

// Counts reports registry sizes for monitoring.
func (r *Registry) Counts() (memberships, watchers, online int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.memberships), len(r.watchers), len(r.online)
}
