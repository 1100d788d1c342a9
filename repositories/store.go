package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"chat-relay/contract"
	"chat-relay/domain"
)

// Store persists conversations and messages in BadgerDB and mirrors text/file
// content into a Bluge index for full-text search.
//
// Message keys are formatted as "msg:{conversation_id}:{timestamp_padded}:{id}" to:
//  1. Ensure chronological sorting using 19-digit zero padding
//     (lexicographical order).
//  2. Prevent data loss by using the message id as a collision disconnector
//     if two messages arrive at the same nanosecond.
//
// A secondary "msgid:{id}" key holds the chronological key so messages can be
// re-read and re-written by id for soft update/delete.
type Store struct {
	db     *badger.DB
	writer *bluge.Writer
	log    *slog.Logger
}

func NewStore(db *badger.DB, writer *bluge.Writer, log *slog.Logger) *Store {
	return &Store{db: db, writer: writer, log: log}
}

type connectionRecord struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	InstanceID string    `json:"instanceId"`
	Timestamp  time.Time `json:"timestamp"`
}

type instanceRecord struct {
	ID        string    `json:"id"`
	AppID     string    `json:"appId"`
	Timestamp time.Time `json:"timestamp"`
}

func conversationKey(id string) []byte { return []byte("conv:" + id) }
func messageIDKey(id string) []byte    { return []byte("msgid:" + id) }

func messageKey(conversationID string, createdAt time.Time, id string) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", conversationID, createdAt.UnixNano(), id))
}

func (s *Store) FindMessages(ctx context.Context, r domain.FindRequest) (domain.FindResult, error) {
	var candidates []domain.Message
	var err error

	switch {
	case r.Text != "":
		candidates, err = s.searchMessages(ctx, r)
	case len(r.IDs) > 0:
		candidates, err = s.messagesByIDs(r.IDs)
	case len(r.ConversationIDs) > 0:
		candidates, err = s.messagesByConversations(r.ConversationIDs)
	default:
		candidates, err = s.messagesByConversations(nil)
	}
	if err != nil {
		return domain.FindResult{}, err
	}

	var found []domain.Message
	for _, m := range candidates {
		if len(r.IDs) > 0 && !lo.Contains(r.IDs, m.ID) {
			continue
		}
		if len(r.ConversationIDs) > 0 && !lo.Contains(r.ConversationIDs, m.ConversationID) {
			continue
		}
		if matchesFilter(m, r) {
			found = append(found, m)
		}
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

	return domain.FindResult{
		Messages: paginate(found, from, size),
		From:     from,
		Size:     size,
		Total:    len(found),
	}, nil
}

// searchMessages resolves the full-text part of a find through the Bluge
// index, then loads the matching records from Badger. The remaining filters
// are applied by the caller.
func (s *Store) searchMessages(ctx context.Context, r domain.FindRequest) ([]domain.Message, error) {
	reader, err := s.writer.Reader()
	if err != nil {
		return nil, fmt.Errorf("open bluge reader: %w", err)
	}
	defer reader.Close()

	query := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(r.Text).SetField("content"))

	if len(r.ConversationIDs) > 0 {
		scope := bluge.NewBooleanQuery()
		for _, id := range r.ConversationIDs {
			scope.AddShould(bluge.NewTermQuery(id).SetField("conversationId"))
		}
		query.AddMust(scope)
	}

	search := bluge.NewTopNSearch(maxSearchHits, query)

	iter, err := reader.Search(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("bluge search: %w", err)
	}

	var ids []string
	for {
		match, err := iter.Next()
		if err != nil {
			return nil, fmt.Errorf("bluge iterate: %w", err)
		}
		if match == nil {
			break
		}
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				ids = append(ids, string(value))
			}
			return true
		})
		if err != nil {
			return nil, fmt.Errorf("bluge stored fields: %w", err)
		}
	}

	return s.messagesByIDs(ids)
}

const maxSearchHits = 1000

func (s *Store) messagesByIDs(ids []string) ([]domain.Message, error) {
	var messages []domain.Message
	err := s.db.View(func(txn *badger.Txn) error {
		for _, id := range ids {
			item, err := txn.Get(messageIDKey(id))
			if err == badger.ErrKeyNotFound {
				continue
			}
			if err != nil {
				return err
			}

			var chronoKey []byte
			if err := item.Value(func(v []byte) error {
				chronoKey = append([]byte(nil), v...)
				return nil
			}); err != nil {
				return err
			}

			record, err := txn.Get(chronoKey)
			if err == badger.ErrKeyNotFound {
				continue
			}
			if err != nil {
				return err
			}

			var m domain.Message
			if err := record.Value(func(v []byte) error {
				return json.Unmarshal(v, &m)
			}); err != nil {
				return err
			}
			messages = append(messages, m)
		}
		return nil
	})
	return messages, err
}

// messagesByConversations prefix-scans chronological keys; an empty id list
// scans the whole message keyspace.
func (s *Store) messagesByConversations(conversationIDs []string) ([]domain.Message, error) {
	prefixes := lo.Map(conversationIDs, func(id string, _ int) []byte {
		return []byte("msg:" + id + ":")
	})
	if len(prefixes) == 0 {
		prefixes = [][]byte{[]byte("msg:")}
	}

	var messages []domain.Message
	err := s.db.View(func(txn *badger.Txn) error {
		for _, prefix := range prefixes {
			options := badger.DefaultIteratorOptions
			options.Prefix = prefix
			it := txn.NewIterator(options)

			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				var m domain.Message
				if err := it.Item().Value(func(v []byte) error {
					return json.Unmarshal(v, &m)
				}); err != nil {
					it.Close()
					return err
				}
				messages = append(messages, m)
			}
			it.Close()
		}
		return nil
	})
	return messages, err
}

func (s *Store) getConversation(id string) (*domain.Conversation, error) {
	var c *domain.Conversation
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(conversationKey(id))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			var decoded domain.Conversation
			if err := json.Unmarshal(v, &decoded); err != nil {
				return err
			}
			c = &decoded
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if c == nil || c.DeletedAt != nil {
		return nil, nil
	}
	return c, nil
}

func (s *Store) GetConversationByID(_ context.Context, id string) (*domain.Conversation, error) {
	return s.getConversation(id)
}

func (s *Store) GetConversationByCreator(_ context.Context, createdBy, id string) (*domain.Conversation, error) {
	c, err := s.getConversation(id)
	if err != nil || c == nil {
		return nil, err
	}
	if c.CreatedBy != createdBy {
		return nil, nil
	}
	return c, nil
}

func (s *Store) GetParticipantConversationByID(_ context.Context, participant, id string) (*domain.Conversation, error) {
	c, err := s.getConversation(id)
	if err != nil || c == nil {
		return nil, err
	}
	if participant != "" && !c.HasParticipant(participant) {
		return nil, nil
	}
	return c, nil
}

func (s *Store) GetParticipantConversations(_ context.Context, participant string, excludeIDs []string, from, size int) (domain.ConversationsResult, error) {
	var all []domain.Conversation

	prefix := []byte("conv:")
	err := s.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var c domain.Conversation
			if err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &c)
			}); err != nil {
				return err
			}
			if c.DeletedAt != nil || lo.Contains(excludeIDs, c.ID) {
				continue
			}
			if c.HasParticipant(participant) {
				all = append(all, c)
			}
		}
		return nil
	})
	if err != nil {
		return domain.ConversationsResult{}, err
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	from, size = normalizePage(from, size)

	return domain.ConversationsResult{
		Conversations: lo.Map(paginate(all, from, size), func(c domain.Conversation, _ int) domain.ConversationSummary {
			return domain.ConversationSummary{Conversation: c}
		}),
		From:  from,
		Size:  size,
		Total: len(all),
	}, nil
}

func (s *Store) GetLastMessagesTimestamps(_ context.Context, fromID string, conversationIDs []string) (map[string]domain.ConversationLastMessages, error) {
	result := make(map[string]domain.ConversationLastMessages)

	err := s.db.View(func(txn *badger.Txn) error {
		for _, cid := range conversationIDs {
			prefixStr := "msg:" + cid + ":"
			prefix := []byte(prefixStr)

			options := badger.DefaultIteratorOptions
			options.Reverse = true
			options.Prefix = prefix
			it := txn.NewIterator(options)

			// Reverse iteration needs a seek key past the last possible entry.
			seekKey := append(append([]byte(nil), prefix...), 0xFF)

			var latest *domain.Message
			var left *time.Time
			for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
				var m domain.Message
				if err := it.Item().Value(func(v []byte) error {
					return json.Unmarshal(v, &m)
				}); err != nil {
					it.Close()
					return err
				}
				if m.DeletedAt != nil {
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
			it.Close()

			if latest != nil || left != nil {
				result[cid] = domain.ConversationLastMessages{Latest: latest, Left: left}
			}
		}
		return nil
	})
	return result, err
}

func (s *Store) GetParticipantLastMessage(ctx context.Context, participant, conversationID string) (*domain.Message, error) {
	c, err := s.getConversation(conversationID)
	if err != nil || c == nil {
		return nil, err
	}
	if !c.HasParticipant(participant) {
		return nil, nil
	}

	var last *domain.Message
	prefixStr := "msg:" + conversationID + ":"
	prefix := []byte(prefixStr)
	err = s.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		seekKey := append(append([]byte(nil), prefix...), 0xFF)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			var m domain.Message
			if err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &m)
			}); err != nil {
				return err
			}
			if m.DeletedAt == nil && m.FromID == participant {
				last = &m
				return nil
			}
		}
		return nil
	})
	return last, err
}

func (s *Store) GetPeerToPeerConversationID(ctx context.Context, peer1, peer2 string) (string, error) {
	key := []byte("p2p:" + peerToPeerKey(peer1, peer2))

	var id string
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err == nil {
			return item.Value(func(v []byte) error {
				id = string(v)
				return nil
			})
		}
		if err != badger.ErrKeyNotFound {
			return err
		}

		id = uuid.NewString()
		shell := domain.Conversation{ID: id, CreatedAt: time.Now().UTC()}
		encoded, err := json.Marshal(shell)
		if err != nil {
			return err
		}
		if err := txn.Set(conversationKey(id), encoded); err != nil {
			return err
		}
		return txn.Set(key, []byte(id))
	})
	if err != nil {
		return "", fmt.Errorf("peer to peer conversation id: %w", err)
	}
	return id, nil
}

func (s *Store) SaveConnection(_ context.Context, userID, instanceID string) (contract.SaveResponse, error) {
	record := connectionRecord{
		ID:         uuid.NewString(),
		UserID:     userID,
		InstanceID: instanceID,
		Timestamp:  time.Now().UTC(),
	}
	encoded, err := json.Marshal(record)
	if err != nil {
		return contract.SaveResponse{Result: contract.SaveFailed}, err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("conn:"+record.ID), encoded)
	})
	if err != nil {
		return contract.SaveResponse{Result: contract.SaveFailed}, fmt.Errorf("save connection: %w", err)
	}
	return contract.SaveResponse{ID: record.ID, Result: contract.SaveCreated}, nil
}

func (s *Store) SaveConversation(_ context.Context, c *domain.Conversation) (contract.SaveResponse, error) {
	saved := *c
	result := contract.SaveCreated

	err := s.db.Update(func(txn *badger.Txn) error {
		if saved.ID == "" {
			saved.ID = uuid.NewString()
		} else if _, err := txn.Get(conversationKey(saved.ID)); err == nil {
			result = contract.SaveUpdated
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		encoded, err := json.Marshal(saved)
		if err != nil {
			return err
		}
		return txn.Set(conversationKey(saved.ID), encoded)
	})
	if err != nil {
		return contract.SaveResponse{Result: contract.SaveFailed}, fmt.Errorf("save conversation: %w", err)
	}
	return contract.SaveResponse{ID: saved.ID, Result: result}, nil
}

func (s *Store) SaveMessage(_ context.Context, m *domain.Message) (contract.SaveResponse, error) {
	saved := *m
	result := contract.SaveCreated

	err := s.db.Update(func(txn *badger.Txn) error {
		if saved.ID == "" {
			saved.ID = uuid.NewString()
		} else if _, err := txn.Get(messageIDKey(saved.ID)); err == nil {
			result = contract.SaveUpdated
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		encoded, err := json.Marshal(saved)
		if err != nil {
			return err
		}

		chronoKey := messageKey(saved.ConversationID, saved.CreatedAt, saved.ID)
		if err := txn.Set(chronoKey, encoded); err != nil {
			return err
		}
		return txn.Set(messageIDKey(saved.ID), chronoKey)
	})
	if err != nil {
		return contract.SaveResponse{Result: contract.SaveFailed}, fmt.Errorf("save message: %w", err)
	}

	if err := s.index(saved); err != nil {
		s.log.Error("Indexing message failed", "id", saved.ID, "err", err)
	}

	return contract.SaveResponse{ID: saved.ID, Result: result}, nil
}

// index mirrors text/file content into Bluge. Soft-deleted messages leave the
// index so text search stops returning them.
func (s *Store) index(m domain.Message) error {
	if !lo.Contains(domain.StoredTypes, m.Type) {
		return nil
	}

	if m.DeletedAt != nil {
		return s.writer.Delete(bluge.Identifier(m.ID))
	}

	var content string
	switch {
	case m.Data.Text != nil:
		content = m.Data.Text.Text
	case m.Data.File != nil:
		content = m.Data.File.Name
	}

	doc := bluge.NewDocument(m.ID).
		AddField(bluge.NewKeywordField("conversationId", m.ConversationID)).
		AddField(bluge.NewKeywordField("fromId", m.FromID)).
		AddField(bluge.NewKeywordField("type", string(m.Type))).
		AddField(bluge.NewTextField("content", content)).
		AddField(bluge.NewDateTimeField("createdAt", m.CreatedAt))

	return s.writer.Update(doc.ID(), doc)
}

func (s *Store) SaveInstance(_ context.Context, appID string) (contract.SaveResponse, error) {
	record := instanceRecord{
		ID:        uuid.NewString(),
		AppID:     appID,
		Timestamp: time.Now().UTC(),
	}
	encoded, err := json.Marshal(record)
	if err != nil {
		return contract.SaveResponse{Result: contract.SaveFailed}, err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("inst:"+record.ID), encoded)
	})
	if err != nil {
		return contract.SaveResponse{Result: contract.SaveFailed}, fmt.Errorf("save instance: %w", err)
	}
	return contract.SaveResponse{ID: record.ID, Result: contract.SaveCreated}, nil
}
