package repositories

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/samber/lo"

	"chat-relay/contract"
	"chat-relay/domain"
)

const defaultPageSize = 100

// MemoryStore is a mutex-guarded in-memory MessageStore. It backs tests and
// bus-less single-instance deployments. Ids are sequential counters so
// behavior is deterministic.
type MemoryStore struct {
	mu sync.Mutex

	connectionSeq   int
	conversationSeq int
	instanceSeq     int
	messageSeq      int

	conversations map[string]*memoryConversation
	messages      map[string]domain.Message
	peerToPeer    map[string]string
}

type memoryConversation struct {
	conversation domain.Conversation
	messageIDs   []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: make(map[string]*memoryConversation),
		messages:      make(map[string]domain.Message),
		peerToPeer:    make(map[string]string),
	}
}

func (s *MemoryStore) FindMessages(_ context.Context, r domain.FindRequest) (domain.FindResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var found []domain.Message

	switch {
	case len(r.IDs) > 0:
		for _, id := range r.IDs {
			if m, ok := s.messages[id]; ok && matchesFilter(m, r) {
				found = append(found, m)
			}
		}
	case len(r.ConversationIDs) > 0:
		for _, cid := range r.ConversationIDs {
			entry, ok := s.conversations[cid]
			if !ok {
				continue
			}
			for _, id := range entry.messageIDs {
				if m, ok := s.messages[id]; ok && matchesFilter(m, r) {
					found = append(found, m)
				}
			}
		}
	default:
		for _, m := range s.messages {
			if matchesFilter(m, r) {
				found = append(found, m)
			}
		}
		sort.Slice(found, func(i, j int) bool { return found[i].ID < found[j].ID })
	}

	if r.Sort == "createdAt" {
		sort.SliceStable(found, func(i, j int) bool {
			if r.SortDesc {
				return found[i].CreatedAt.After(found[j].CreatedAt)
			}
			return found[i].CreatedAt.Before(found[j].CreatedAt)
		})
	}

	from, size := normalizePage(r.From, r.Size)

	page := paginate(found, from, size)

	return domain.FindResult{
		Messages: page,
		From:     from,
		Size:     size,
		Total:    len(found),
	}, nil
}

func (s *MemoryStore) GetConversationByID(_ context.Context, id string) (*domain.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.conversations[id]
	if !ok || entry.conversation.DeletedAt != nil {
		return nil, nil
	}
	c := entry.conversation
	return &c, nil
}

func (s *MemoryStore) GetConversationByCreator(_ context.Context, createdBy, id string) (*domain.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.conversations[id]
	if !ok || entry.conversation.DeletedAt != nil || entry.conversation.CreatedBy != createdBy {
		return nil, nil
	}
	c := entry.conversation
	return &c, nil
}

func (s *MemoryStore) GetParticipantConversationByID(_ context.Context, participant, id string) (*domain.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.conversations[id]
	if !ok || entry.conversation.DeletedAt != nil {
		return nil, nil
	}
	if participant != "" && !entry.conversation.HasParticipant(participant) {
		return nil, nil
	}
	c := entry.conversation
	return &c, nil
}

func (s *MemoryStore) GetParticipantConversations(_ context.Context, participant string, excludeIDs []string, from, size int) (domain.ConversationsResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var all []domain.Conversation
	for _, entry := range s.conversations {
		c := entry.conversation
		if c.DeletedAt != nil || lo.Contains(excludeIDs, c.ID) {
			continue
		}
		if c.HasParticipant(participant) {
			all = append(all, c)
		}
	}

	// Most recent first, id as the tiebreaker.
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	from, size = normalizePage(from, size)

	page := paginate(all, from, size)

	return domain.ConversationsResult{
		Conversations: lo.Map(page, func(c domain.Conversation, _ int) domain.ConversationSummary {
			return domain.ConversationSummary{Conversation: c}
		}),
		From:  from,
		Size:  size,
		Total: len(all),
	}, nil
}

func (s *MemoryStore) GetLastMessagesTimestamps(_ context.Context, fromID string, conversationIDs []string) (map[string]domain.ConversationLastMessages, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make(map[string]domain.ConversationLastMessages)
	for _, cid := range conversationIDs {
		entry, ok := s.conversations[cid]
		if !ok || entry.conversation.DeletedAt != nil || len(entry.messageIDs) == 0 {
			continue
		}

		var latest *domain.Message
		var left *time.Time
		for i := len(entry.messageIDs) - 1; i >= 0; i-- {
			m, ok := s.messages[entry.messageIDs[i]]
			if !ok || m.DeletedAt != nil {
				continue
			}
			if latest == nil && lo.Contains(domain.StoredTypes, m.Type) {
				msg := m
				latest = &msg
			}
			if left == nil && m.FromID == fromID {
				at := m.CreatedAt
				left = &at
			}
			if latest != nil && left != nil {
				break
			}
		}

		result[cid] = domain.ConversationLastMessages{Latest: latest, Left: left}
	}
	return result, nil
}

func (s *MemoryStore) GetParticipantLastMessage(_ context.Context, participant, conversationID string) (*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.conversations[conversationID]
	if !ok || entry.conversation.DeletedAt != nil || !entry.conversation.HasParticipant(participant) {
		return nil, nil
	}

	for i := len(entry.messageIDs) - 1; i >= 0; i-- {
		m, ok := s.messages[entry.messageIDs[i]]
		if ok && m.DeletedAt == nil && m.FromID == participant {
			msg := m
			return &msg, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) GetPeerToPeerConversationID(_ context.Context, peer1, peer2 string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := peerToPeerKey(peer1, peer2)
	if id, ok := s.peerToPeer[key]; ok {
		return id, nil
	}

	s.conversationSeq++
	id := strconv.Itoa(s.conversationSeq)
	s.conversations[id] = &memoryConversation{
		conversation: domain.Conversation{ID: id, CreatedAt: time.Now()},
	}
	s.peerToPeer[key] = id
	return id, nil
}

func (s *MemoryStore) SaveConnection(_ context.Context, userID, instanceID string) (contract.SaveResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.connectionSeq++
	return contract.SaveResponse{ID: strconv.Itoa(s.connectionSeq), Result: contract.SaveCreated}, nil
}

func (s *MemoryStore) SaveConversation(_ context.Context, c *domain.Conversation) (contract.SaveResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exists := c.ID != "" && s.conversations[c.ID] != nil

	id := c.ID
	if id == "" {
		s.conversationSeq++
		id = strconv.Itoa(s.conversationSeq)
	}

	saved := *c
	saved.ID = id

	if exists {
		s.conversations[id].conversation = saved
		return contract.SaveResponse{ID: id, Result: contract.SaveUpdated}, nil
	}
	s.conversations[id] = &memoryConversation{conversation: saved}
	return contract.SaveResponse{ID: id, Result: contract.SaveCreated}, nil
}

func (s *MemoryStore) SaveMessage(_ context.Context, m *domain.Message) (contract.SaveResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, convExists := s.conversations[m.ConversationID]
	_, msgExists := s.messages[m.ID]
	exists := m.ID != "" && msgExists && convExists

	id := m.ID
	if id == "" {
		s.messageSeq++
		id = strconv.Itoa(s.messageSeq)
	}

	saved := *m
	saved.ID = id
	s.messages[id] = saved

	if !exists && convExists {
		s.conversations[m.ConversationID].messageIDs = append(s.conversations[m.ConversationID].messageIDs, id)
	}

	result := contract.SaveCreated
	if exists {
		result = contract.SaveUpdated
	}
	return contract.SaveResponse{ID: id, Result: result}, nil
}

func (s *MemoryStore) SaveInstance(_ context.Context, appID string) (contract.SaveResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.instanceSeq++
	return contract.SaveResponse{ID: strconv.Itoa(s.instanceSeq), Result: contract.SaveCreated}, nil
}
