package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"chat-relay/auth"
	"chat-relay/contract"
	"chat-relay/domain"
	apperrors "chat-relay/errors"
	"chat-relay/moderation"
)

type sessionState int

const (
	stateNone sessionState = iota
	stateAuthenticated
	stateConnected
	stateSession
	stateWatchSession
	stateDisconnected
)

const defaultPageSize = 100

// Config carries the per-process session service settings.
type Config struct {
	InstanceID string
	// PageSize bounds conversation-list and message-history pages.
	PageSize int
	// WatchConversationID, when set, turns a join on that id into a watch.
	WatchConversationID string
}

// Service owns the collaborators shared by every session on this instance and
// consumes the fleet bus on their behalf.
type Service struct {
	cfg       Config
	registry  *Registry
	store     contract.MessageStore
	queue     contract.MessageQueue
	users     contract.UserStore
	tokens    *auth.Tokens
	moderator *moderation.Moderator
	validate  *validator.Validate
	log       *slog.Logger
}

// NewService wires the session service. Tokens and moderator are optional.
func NewService(cfg Config, registry *Registry, store contract.MessageStore, queue contract.MessageQueue, users contract.UserStore, tokens *auth.Tokens, moderator *moderation.Moderator, log *slog.Logger) *Service {
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	return &Service{
		cfg:       cfg,
		registry:  registry,
		store:     store,
		queue:     queue,
		users:     users,
		tokens:    tokens,
		moderator: moderator,
		validate:  validator.New(),
		log:       log,
	}
}

// Subscribe attaches the bus translator. Call once at startup.
func (svc *Service) Subscribe() error {
	return svc.queue.Subscribe(svc.TranslateQueueMessage)
}

func (svc *Service) Registry() *Registry { return svc.registry }

// ClientSession is one connection's protocol state machine. All public entry
// points (HandleFrame, Stop, OnTransportClose, deliver) serialize on the
// session mutex; internals with a Locked suffix assume it is held.
type ClientSession struct {
	svc       *Service
	transport contract.Transport

	mu           sync.Mutex
	state        sessionState
	userID       string
	connectionID string
	conversation *domain.Conversation
	// boundConversationID survives stop so the transport-close path can
	// still deregister the membership.
	boundConversationID string
	watching            bool
	lastErr             error
}

// NewSession starts the state machine for one accepted transport and sends
// the hello frame.
func (svc *Service) NewSession(t contract.Transport) *ClientSession {
	s := &ClientSession{svc: svc, transport: t}

	hello, _ := json.Marshal(domain.HelloFrame{Type: domain.TypeHello, InstanceID: svc.cfg.InstanceID})
	if err := t.Send(string(hello)); err != nil {
		svc.log.Warn("Sending hello failed", "err", err)
	}
	return s
}

// HandleFrame processes one inbound frame. The server's receive loop calls it
// serially per connection.
func (s *ClientSession) HandleFrame(ctx context.Context, payload []byte, isBinary bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == stateDisconnected {
		return
	}

	if isBinary {
		s.stopLocked("Failed processing message", fmt.Errorf("Binary message"))
		return
	}

	switch s.state {
	case stateNone:
		var request domain.ConnectRequest
		if err := json.Unmarshal(payload, &request); err != nil {
			s.stopLocked("Failed connect", err)
			return
		}
		if err := s.connect(ctx, request); err != nil {
			s.finishLocked("Failed connect", err)
		}
	case stateConnected, stateSession, stateWatchSession:
		var envelope domain.Envelope
		if err := json.Unmarshal(payload, &envelope); err != nil {
			s.stopLocked("Failed processing message", err)
			return
		}
		s.dispatchLocked(ctx, envelope)
	}
}

// finishLocked routes a business failure to a 1000 close and anything else to
// a 1011 close, keeping the business error in the reason text.
func (s *ClientSession) finishLocked(reason string, err error) {
	if isBusinessError(err) {
		s.lastErr = err
		s.stopLocked(reason, nil)
		return
	}
	s.stopLocked(reason, err)
}

func isBusinessError(err error) bool {
	switch err {
	case apperrors.ErrAuthenticationFailed, apperrors.ErrWrongConversation,
		apperrors.ErrTooFewParticipants, apperrors.ErrTitleRequired,
		apperrors.ErrPeerToPeerID, apperrors.ErrSaveConversationFailed,
		apperrors.ErrConversationClosed, apperrors.ErrConversationAlreadyClosed,
		apperrors.ErrConversationDeleted, apperrors.ErrUpdateConversationFailed,
		apperrors.ErrCloseConversationFailed, apperrors.ErrWrongMessage,
		apperrors.ErrWrongMessageType, apperrors.ErrWrongFileName,
		apperrors.ErrNotMessageSenderUpdate, apperrors.ErrNotMessageSenderDelete,
		apperrors.ErrNotCreatorUpdate, apperrors.ErrUpdateMessageFailed,
		apperrors.ErrDeleteMessageFailed:
		return true
	}
	return false
}

func (s *ClientSession) dispatchLocked(ctx context.Context, envelope domain.Envelope) {
	if s.state == stateConnected {
		switch envelope.Type {
		case domain.TypeWatch:
			if err := s.watch(ctx); err != nil {
				s.finishLocked("Failed watch", err)
			}
			return
		case domain.TypeJoin:
			var request domain.JoinRequest
			if err := json.Unmarshal(envelope.Data, &request); err != nil {
				s.stopLocked("Failed join", err)
				return
			}
			if s.svc.cfg.WatchConversationID != "" && request.ConversationID == s.svc.cfg.WatchConversationID {
				if err := s.watch(ctx); err != nil {
					s.finishLocked("Failed watch", err)
				}
				return
			}
			if err := s.join(ctx, request); err != nil {
				s.finishLocked("Failed join", err)
			}
			return
		}
	}

	if err := s.processRequest(ctx, envelope); err != nil {
		s.finishLocked("Failed processing message", err)
	}
}

func (s *ClientSession) connect(ctx context.Context, request domain.ConnectRequest) error {
	userID, err := s.authenticate(ctx, request.AuthInfo)
	if err != nil {
		return err
	}
	if userID == "" {
		return apperrors.ErrAuthenticationFailed
	}

	s.userID = userID
	s.state = stateAuthenticated

	response, err := s.svc.store.SaveConnection(ctx, userID, s.svc.cfg.InstanceID)
	if err != nil {
		return fmt.Errorf("save connection: %w", err)
	}
	if response.Result != contract.SaveCreated {
		return fmt.Errorf("save connection: unexpected result %q", response.Result)
	}

	s.state = stateConnected
	s.connectionID = response.ID

	s.svc.log.Debug("Connection saved", "connectionId", s.connectionID, "userId", userID)

	size := s.svc.cfg.PageSize
	if request.ConversationsSize != nil {
		size = *request.ConversationsSize
	}
	conversations, err := s.getConversations(ctx, 0, size, nil)
	if err != nil {
		return err
	}

	var token string
	if s.svc.tokens != nil && request.AuthInfo.Token == "" {
		if token, err = s.svc.tokens.Generate(userID); err != nil {
			s.svc.log.Warn("Generating token failed", "userId", userID, "err", err)
			token = ""
		}
	}

	frame, err := json.Marshal(domain.ConnectionFrame{
		Type:          domain.TypeConnection,
		ConnectionID:  s.connectionID,
		ID:            userID,
		Token:         token,
		Conversations: conversations,
	})
	if err != nil {
		return err
	}
	if err := s.transport.Send(string(frame)); err != nil {
		return err
	}

	_, err = s.publishMessage(ctx, domain.TypeConnected, "", domain.MessageData{}, false)
	return err
}

// authenticate accepts either a previously issued token or a name/password
// pair.
func (s *ClientSession) authenticate(ctx context.Context, info domain.AuthInfo) (string, error) {
	if info.Token != "" {
		if s.svc.tokens == nil {
			return "", apperrors.ErrAuthenticationFailed
		}
		claims, err := s.svc.tokens.Validate(info.Token)
		if err != nil {
			return "", apperrors.ErrAuthenticationFailed
		}
		return claims.UserID, nil
	}
	return s.svc.users.Authenticate(ctx, info)
}

func (s *ClientSession) join(ctx context.Context, request domain.JoinRequest) error {
	var conversation *domain.Conversation
	created := false

	if request.ConversationID != "" {
		existing, err := s.svc.store.GetParticipantConversationByID(ctx, s.userID, request.ConversationID)
		if err != nil {
			return err
		}
		if existing == nil {
			return apperrors.ErrWrongConversation
		}
		conversation = existing
	} else {
		participants := distinctTrimmed(append(request.Participants, s.userID))
		if len(participants) < 2 {
			return apperrors.ErrTooFewParticipants
		}

		var conversationID string
		if request.Title == "" && len(participants) == 2 {
			id, err := s.svc.store.GetPeerToPeerConversationID(ctx, participants[0], participants[1])
			if err != nil || id == "" {
				s.svc.log.Error("Peer to peer conversation id unavailable", "err", err)
				return apperrors.ErrPeerToPeerID
			}
			conversationID = id

			if conversation, err = s.svc.store.GetConversationByID(ctx, conversationID); err != nil {
				return err
			}
		} else if request.Title == "" {
			return apperrors.ErrTitleRequired
		}

		if conversation == nil || !sameParticipants(conversation.Participants, participants) {
			now := time.Now().UTC()

			next := domain.Conversation{
				ID:                   conversationID,
				ClientConversationID: request.ClientConversationID,
				Participants:         participants,
				Title:                request.Title,
				CreatedBy:            s.userID,
				CreatedAt:            now,
			}
			if conversation != nil {
				if conversation.ClientConversationID != "" {
					next.ClientConversationID = conversation.ClientConversationID
				}
				if conversation.Title != "" {
					next.Title = conversation.Title
				}
				if conversation.CreatedBy != "" {
					next.CreatedBy = conversation.CreatedBy
				}
				if !conversation.CreatedAt.IsZero() {
					next.CreatedAt = conversation.CreatedAt
					next.UpdatedAt = &now
				}
			}

			response, err := s.svc.store.SaveConversation(ctx, &next)
			if err != nil {
				return err
			}
			created = response.Result == contract.SaveCreated
			if !created && response.Result != contract.SaveUpdated {
				s.svc.log.Error("Save conversation failed", "conversationId", next.ID)
				return apperrors.ErrSaveConversationFailed
			}
			next.ID = response.ID
			conversation = &next
		}
	}

	s.state = stateSession
	s.conversation = conversation
	s.boundConversationID = conversation.ID

	s.svc.registry.AddSession(conversation.Participants, conversation.ID, s)

	var messages []domain.Message
	var total int
	var leftAt *time.Time
	if !created {
		page, err := s.svc.store.FindMessages(ctx, domain.FindRequest{
			Size:            s.svc.cfg.PageSize,
			ConversationIDs: []string{conversation.ID},
			Types:           domain.StoredTypes,
			Sort:            "createdAt",
			SortDesc:        true,
		})
		if err != nil {
			return err
		}
		messages = reverseMessages(page.Messages)
		total = page.Total

		last, err := s.svc.store.GetParticipantLastMessage(ctx, s.userID, conversation.ID)
		if err != nil {
			return err
		}
		if last != nil {
			leftAt = &last.CreatedAt
		}
	}

	connected := s.svc.registry.JoinedSubset(conversation.ID, conversation.Participants)

	if err := s.sendLocked(domain.ConversationFrame{
		Type:         domain.TypeConversation,
		Conversation: conversation,
		Connected:    connected,
		Messages:     messages,
		Total:        total,
		LeftAt:       leftAt,
		ClosedAt:     conversation.ClosedAt,
	}); err != nil {
		return err
	}

	s.svc.log.Debug("Session joined", "userId", s.userID, "conversationId", conversation.ID)

	_, err := s.publishMessage(ctx, domain.TypeJoined, "", domain.MessageData{}, true)
	return err
}

// watch registers the session for cross-conversation presence fanout. No
// store write happens.
func (s *ClientSession) watch(ctx context.Context) error {
	s.state = stateWatchSession
	s.watching = true

	conversations, err := s.getConversations(ctx, 0, s.svc.cfg.PageSize, nil)
	if err != nil {
		return err
	}

	s.svc.registry.AddWatcher(s)

	s.svc.log.Debug("Watcher added", "userId", s.userID)

	return s.sendLocked(domain.WatchingFrame{Type: domain.TypeWatching, Conversations: conversations})
}

func (s *ClientSession) processRequest(ctx context.Context, envelope domain.Envelope) error {
	hasData := len(envelope.Data) > 0 && string(envelope.Data) != "null"
	if !hasData && envelope.Type != domain.TypeClose && envelope.Type != domain.TypeDelete {
		return apperrors.ErrWrongMessage
	}

	data, err := domain.DecodeData(envelope.Type, envelope.Data)
	if err != nil {
		return apperrors.ErrWrongMessage
	}

	switch envelope.Type {
	case domain.TypeText:
		if s.conversation == nil {
			return apperrors.ErrWrongMessageType
		}
		if s.conversation.ClosedAt != nil {
			return apperrors.ErrConversationClosed
		}
		if data.Text == nil {
			return apperrors.ErrWrongMessage
		}
		s.censorLocked(data.Text)
		_, err = s.publishMessage(ctx, domain.TypeText, envelope.ClientMessageID, data, true)
		return err

	case domain.TypeFile:
		if s.conversation == nil {
			return apperrors.ErrWrongMessageType
		}
		if s.conversation.ClosedAt != nil {
			return apperrors.ErrConversationClosed
		}
		if data.File == nil || s.svc.validate.Struct(data.File) != nil {
			return apperrors.ErrWrongFileName
		}
		_, err = s.publishMessage(ctx, domain.TypeFile, envelope.ClientMessageID, data, true)
		return err

	case domain.TypeMessageUpdate:
		if s.conversation == nil {
			return apperrors.ErrWrongMessageType
		}
		if data.MessageUpdate == nil || s.svc.validate.Struct(data.MessageUpdate) != nil {
			return apperrors.ErrWrongMessage
		}
		if err := s.updateMessage(ctx, data.MessageUpdate); err != nil {
			return err
		}
		_, err = s.publishMessage(ctx, domain.TypeMessageUpdated, envelope.ClientMessageID, data, true)
		return err

	case domain.TypeMessageDelete:
		if s.conversation == nil {
			return apperrors.ErrWrongMessageType
		}
		if data.MessageDelete == nil || s.svc.validate.Struct(data.MessageDelete) != nil {
			return apperrors.ErrWrongMessage
		}
		if err := s.deleteMessage(ctx, data.MessageDelete); err != nil {
			return err
		}
		_, err = s.publishMessage(ctx, domain.TypeMessageDeleted, envelope.ClientMessageID, data, true)
		return err

	case domain.TypeUpdate:
		if data.ConversationUpdate == nil {
			return apperrors.ErrWrongMessage
		}
		target, err := s.updateConversation(ctx, data.ConversationUpdate)
		if err != nil {
			return err
		}
		_, err = s.publishConversationMessage(ctx, domain.TypeUpdated, envelope.ClientMessageID, data, true, target)
		return err

	case domain.TypeClose:
		return s.closeOrDelete(ctx, envelope, data, false)

	case domain.TypeDelete:
		return s.closeOrDelete(ctx, envelope, data, true)

	case domain.TypeFind:
		var request domain.FindRequest
		if err := json.Unmarshal(envelope.Data, &request); err != nil {
			return apperrors.ErrWrongMessage
		}
		return s.findMessages(ctx, request, envelope.ClientMessageID)

	case domain.TypeLoad:
		var request domain.LoadRequest
		if err := json.Unmarshal(envelope.Data, &request); err != nil {
			return apperrors.ErrWrongMessage
		}
		return s.loadConversations(ctx, request, envelope.ClientMessageID)

	case domain.TypeLoadMessages:
		if s.conversation == nil {
			return apperrors.ErrWrongMessageType
		}
		var request domain.LoadRequest
		if err := json.Unmarshal(envelope.Data, &request); err != nil {
			return apperrors.ErrWrongMessage
		}
		return s.loadMessages(ctx, request, envelope.ClientMessageID)
	}

	return apperrors.ErrWrongMessageType
}

func (s *ClientSession) censorLocked(text *domain.TextData) {
	if s.svc.moderator == nil {
		return
	}
	censored, matched := s.svc.moderator.Censor(text.Text)
	if len(matched) > 0 {
		s.svc.log.Info("Censored message content", "userId", s.userID, "words", len(matched))
		text.Text = censored
	}
}

func (s *ClientSession) updateMessage(ctx context.Context, request *domain.MessageUpdateData) error {
	found, err := s.svc.store.FindMessages(ctx, domain.FindRequest{
		IDs:             []string{request.MessageID},
		ConversationIDs: []string{s.conversation.ID},
	})
	if err != nil {
		return err
	}
	if len(found.Messages) == 0 {
		return apperrors.ErrWrongMessage
	}

	message := found.Messages[0]
	if message.FromID != s.userID {
		return apperrors.ErrNotMessageSenderUpdate
	}

	// The stored type is immutable; only the matching payload shape applies.
	switch message.Type {
	case domain.TypeFile:
		message.Data = domain.MessageData{File: &domain.FileData{
			Link: request.Link,
			Name: request.Name,
			Type: request.Type,
			Size: request.Size,
		}}
	case domain.TypeText:
		message.Data = domain.MessageData{Text: &domain.TextData{Text: request.Text}}
	}

	now := time.Now().UTC()
	message.UpdatedAt = &now

	response, err := s.svc.store.SaveMessage(ctx, &message)
	if err != nil || response.Result != contract.SaveUpdated {
		s.svc.log.Error("Update message failed", "messageId", message.ID, "err", err)
		return apperrors.ErrUpdateMessageFailed
	}
	return nil
}

func (s *ClientSession) deleteMessage(ctx context.Context, request *domain.MessageDeleteData) error {
	found, err := s.svc.store.FindMessages(ctx, domain.FindRequest{
		IDs:             []string{request.MessageID},
		ConversationIDs: []string{s.conversation.ID},
	})
	if err != nil {
		return err
	}
	if len(found.Messages) == 0 || found.Messages[0].FromID != s.userID {
		return apperrors.ErrNotMessageSenderDelete
	}

	message := found.Messages[0]
	now := time.Now().UTC()
	message.DeletedAt = &now

	response, err := s.svc.store.SaveMessage(ctx, &message)
	if err != nil || response.Result != contract.SaveUpdated {
		s.svc.log.Error("Delete message failed", "messageId", message.ID, "err", err)
		return apperrors.ErrDeleteMessageFailed
	}
	return nil
}

// updateConversation persists the membership/title change and returns the
// resolved conversation so the broadcast is tagged with the target, not the
// session's current conversation.
func (s *ClientSession) updateConversation(ctx context.Context, request *domain.ConversationUpdateData) (*domain.Conversation, error) {
	conversation, err := s.targetConversation(ctx, request.ConversationID)
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, apperrors.ErrWrongConversation
	}
	if s.userID != conversation.CreatedBy {
		return nil, apperrors.ErrNotCreatorUpdate
	}

	now := time.Now().UTC()
	conversation.Title = request.Title
	conversation.UpdatedAt = &now
	// The creator always stays in.
	conversation.Participants = distinctTrimmed(append([]string{conversation.CreatedBy}, request.Participants...))

	response, err := s.svc.store.SaveConversation(ctx, conversation)
	if err != nil || response.Result != contract.SaveUpdated {
		s.svc.log.Error("Update conversation failed", "conversationId", conversation.ID, "err", err)
		return nil, apperrors.ErrUpdateConversationFailed
	}

	request.Participants = conversation.Participants
	request.ConversationID = conversation.ID
	return conversation, nil
}

// targetConversation resolves the payload conversation id when present, the
// session's current conversation otherwise.
func (s *ClientSession) targetConversation(ctx context.Context, id string) (*domain.Conversation, error) {
	if id == "" || (s.conversation != nil && s.conversation.ID == id) {
		return s.conversation, nil
	}
	return s.svc.store.GetParticipantConversationByID(ctx, s.userID, id)
}

func (s *ClientSession) closeOrDelete(ctx context.Context, envelope domain.Envelope, data domain.MessageData, del bool) error {
	var targetID string
	if data.ConversationUpdate != nil {
		targetID = data.ConversationUpdate.ConversationID
	}

	target, err := s.targetConversation(ctx, targetID)
	if err != nil {
		return err
	}
	if target == nil {
		return apperrors.ErrWrongConversation
	}
	if target.DeletedAt != nil {
		return apperrors.ErrConversationDeleted
	}
	if !del && target.ClosedAt != nil {
		return apperrors.ErrConversationAlreadyClosed
	}

	owned, err := s.svc.store.GetConversationByCreator(ctx, s.userID, target.ID)
	if err != nil {
		return err
	}

	if owned == nil {
		if !del {
			return apperrors.ErrWrongConversation
		}
		return s.leaveConversation(ctx, target, envelope.ClientMessageID)
	}

	now := time.Now().UTC()
	owned.ClosedAt = &now
	if del {
		owned.DeletedAt = &now
	}

	response, err := s.svc.store.SaveConversation(ctx, owned)
	if err != nil || response.Result != contract.SaveUpdated {
		s.svc.log.Error("Close conversation failed", "conversationId", owned.ID, "err", err)
		return apperrors.ErrCloseConversationFailed
	}

	if s.conversation != nil && s.conversation.ID == owned.ID {
		s.conversation = owned
	}

	broadcastType := domain.TypeClosed
	if del {
		broadcastType = domain.TypeDeleted
	}
	_, err = s.publishConversationMessage(ctx, broadcastType, envelope.ClientMessageID, domain.MessageData{}, true, owned)
	return err
}

// leaveConversation is a non-creator delete: the caller drops out of the
// participant list and the change goes out as an update, the conversation
// itself stays open.
func (s *ClientSession) leaveConversation(ctx context.Context, target *domain.Conversation, clientMessageID string) error {
	remaining := make([]string, 0, len(target.Participants))
	for _, p := range target.Participants {
		if p != s.userID {
			remaining = append(remaining, p)
		}
	}

	now := time.Now().UTC()
	target.Participants = remaining
	target.UpdatedAt = &now

	response, err := s.svc.store.SaveConversation(ctx, target)
	if err != nil || response.Result != contract.SaveUpdated {
		s.svc.log.Error("Leave conversation failed", "conversationId", target.ID, "err", err)
		return apperrors.ErrUpdateConversationFailed
	}

	data := domain.MessageData{ConversationUpdate: &domain.ConversationUpdateData{
		ConversationID: target.ID,
		Title:          target.Title,
		Participants:   target.Participants,
	}}
	_, err = s.publishConversationMessage(ctx, domain.TypeUpdated, clientMessageID, data, true, target)
	return err
}

func (s *ClientSession) findMessages(ctx context.Context, request domain.FindRequest, clientMessageID string) error {
	own, err := s.svc.store.GetParticipantConversations(ctx, s.userID, nil, 0, s.svc.cfg.PageSize)
	if err != nil {
		return err
	}

	ownIDs := make([]string, 0, len(own.Conversations))
	for _, c := range own.Conversations {
		ownIDs = append(ownIDs, c.ID)
	}

	// Scope the search to the caller's own conversations plus what they asked
	// for explicitly.
	if len(request.ConversationIDs) > 0 {
		request.ConversationIDs = distinctTrimmed(append(ownIDs, request.ConversationIDs...))
	} else {
		request.ConversationIDs = ownIDs
	}

	result, err := s.svc.store.FindMessages(ctx, request)
	if err != nil {
		return err
	}

	return s.sendLocked(domain.FindFrame{
		Type:            domain.TypeFind,
		ClientMessageID: clientMessageID,
		Messages:        result.Messages,
		From:            result.From,
		Size:            result.Size,
		Total:           result.Total,
	})
}

func (s *ClientSession) loadConversations(ctx context.Context, request domain.LoadRequest, clientMessageID string) error {
	result, err := s.getConversations(ctx, request.From, request.Size, request.ExcludeIDs)
	if err != nil {
		return err
	}
	return s.sendLocked(domain.LoadedFrame{
		Type:            domain.TypeLoaded,
		ClientMessageID: clientMessageID,
		Conversations:   result.Conversations,
		Count:           result.Total,
	})
}

func (s *ClientSession) loadMessages(ctx context.Context, request domain.LoadRequest, clientMessageID string) error {
	result, err := s.svc.store.FindMessages(ctx, domain.FindRequest{
		From:            request.From,
		Size:            request.Size,
		Sort:            "createdAt",
		SortDesc:        true,
		ConversationIDs: []string{s.conversation.ID},
		CreatedTo:       request.Before,
		Types:           domain.StoredTypes,
		ExcludeIDs:      request.ExcludeIDs,
	})
	if err != nil {
		return err
	}

	return s.sendLocked(domain.LoadedMessagesFrame{
		Type:            domain.TypeLoadedMessages,
		ClientMessageID: clientMessageID,
		Messages:        reverseMessages(result.Messages),
		Count:           result.Total,
	})
}

func (s *ClientSession) getConversations(ctx context.Context, from, size int, excludeIDs []string) (domain.ConversationsResult, error) {
	if size <= 0 {
		size = s.svc.cfg.PageSize
	}

	result, err := s.svc.store.GetParticipantConversations(ctx, s.userID, excludeIDs, from, size)
	if err != nil {
		return domain.ConversationsResult{}, err
	}
	if len(result.Conversations) == 0 {
		return domain.ConversationsResult{Conversations: []domain.ConversationSummary{}, From: from, Size: size}, nil
	}

	ids := make([]string, 0, len(result.Conversations))
	for _, c := range result.Conversations {
		ids = append(ids, c.ID)
	}

	timestamps, err := s.svc.store.GetLastMessagesTimestamps(ctx, s.userID, ids)
	if err != nil {
		return domain.ConversationsResult{}, err
	}

	for i := range result.Conversations {
		if info, ok := timestamps[result.Conversations[i].ID]; ok {
			result.Conversations[i].LeftAt = info.Left
			result.Conversations[i].LatestMessage = info.Latest
		}
	}
	return result, nil
}

// publishMessage persists the event when asked, then routes it onto the bus.
// Bus types outside the allow-list are silently accepted so the session works
// bus-less.
func (s *ClientSession) publishMessage(ctx context.Context, t domain.MessageType, clientMessageID string, data domain.MessageData, save bool) (bool, error) {
	return s.publishConversationMessage(ctx, t, clientMessageID, data, save, s.conversation)
}

func (s *ClientSession) publishConversationMessage(ctx context.Context, t domain.MessageType, clientMessageID string, data domain.MessageData, save bool, conversation *domain.Conversation) (bool, error) {
	var id string
	createdAt := time.Now().UTC()

	if save {
		if conversation == nil || conversation.ID == "" {
			return false, fmt.Errorf("publish %s: no conversation", t)
		}

		message := domain.Message{
			Type:            t,
			ConversationID:  conversation.ID,
			Participants:    conversation.Participants,
			ConnectionID:    s.connectionID,
			FromID:          s.userID,
			ClientMessageID: clientMessageID,
			Data:            data,
			CreatedAt:       createdAt,
		}

		response, err := s.svc.store.SaveMessage(ctx, &message)
		if err != nil {
			return false, err
		}
		if response.Result != contract.SaveCreated {
			s.svc.log.Error("Saving broadcast message failed", "type", t, "result", response.Result)
			return false, fmt.Errorf("save %s message: unexpected result %q", t, response.Result)
		}
		id = response.ID
	}

	accepted := s.svc.queue.AcceptTypes()
	if accepted != nil && !containsType(accepted, t) {
		return true, nil
	}

	qm := domain.QueueMessage{
		Type:            t,
		ID:              id,
		InstanceID:      s.svc.cfg.InstanceID,
		ConnectionID:    s.connectionID,
		FromID:          s.userID,
		ClientMessageID: clientMessageID,
		Data:            data,
		CreatedAt:       createdAt,
	}
	if conversation != nil {
		qm.ConversationID = conversation.ID
		qm.Participants = conversation.Participants
	}

	return s.svc.queue.Publish(ctx, qm)
}

// sendLocked writes a response frame. Sends are only legal once connected.
func (s *ClientSession) sendLocked(frame any) error {
	switch s.state {
	case stateConnected, stateSession, stateWatchSession:
	default:
		return nil
	}
	if s.transport.State() != contract.StateOpen {
		return nil
	}

	payload, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return s.transport.Send(string(payload))
}

// deliver is the fanout entry point used by the registry and translator.
func (s *ClientSession) deliver(frame any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.sendLocked(frame); err != nil {
		s.svc.log.Warn("Delivering frame failed", "userId", s.userID, "err", err)
	}
}

// Stop terminates the session: publishes left/disconnected as applicable and
// closes the transport. Idempotent.
func (s *ClientSession) Stop(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked(reason, nil)
}

func (s *ClientSession) stopLocked(reason string, cause error) {
	if s.state == stateDisconnected {
		return
	}
	s.state = stateDisconnected

	if s.lastErr != nil {
		reason += ". " + s.lastErr.Error()
	}
	if cause != nil {
		reason += ". " + cause.Error()
	}
	if len(reason) > contract.CloseReasonLimit {
		// The close frame must stay valid UTF-8, so back off to a rune start.
		limit := contract.CloseReasonLimit
		for limit > 0 && !utf8.RuneStart(reason[limit]) {
			limit--
		}
		reason = reason[:limit]
	}

	code := contract.CodePolicyViolation
	if cause != nil {
		code = contract.CodeInternalError
	}

	if state := s.transport.State(); state != contract.StateClosing && state != contract.StateClosed {
		if err := s.transport.Close(code, reason); err != nil {
			s.svc.log.Warn("Closing transport failed", "err", err)
		}
	}

	conversation := s.conversation
	s.conversation = nil

	if s.connectionID == "" || s.userID == "" {
		return
	}

	ctx := context.Background()
	if conversation != nil {
		if _, err := s.publishConversationMessage(ctx, domain.TypeLeft, "", domain.MessageData{}, true, conversation); err != nil {
			s.svc.log.Error("Publishing left failed", "userId", s.userID, "err", err)
		}
	}
	if _, err := s.publishConversationMessage(ctx, domain.TypeDisconnected, "", domain.MessageData{}, false, nil); err != nil {
		s.svc.log.Error("Publishing disconnected failed", "userId", s.userID, "err", err)
	}
}

// OnTransportClose runs when the connection drops, client- or server-side.
// It stops the session and deregisters it from the registry.
func (s *ClientSession) OnTransportClose() {
	s.mu.Lock()
	conversationID := s.boundConversationID
	s.boundConversationID = ""
	watching := s.watching
	s.watching = false
	userID := s.userID
	s.stopLocked("Stopped", nil)
	s.mu.Unlock()

	if conversationID != "" {
		s.svc.registry.RemoveSession(conversationID, s)
		s.svc.log.Debug("Session removed", "userId", userID, "conversationId", conversationID)
	}
	if watching {
		s.svc.registry.RemoveWatcher(s)
		s.svc.log.Debug("Watcher removed", "userId", userID)
	}
}

// ConversationID reports the conversation the session is currently bound to.
func (s *ClientSession) ConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.boundConversationID
}

// UserID reports the authenticated user, empty before authentication.
func (s *ClientSession) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

func distinctTrimmed(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func sameParticipants(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := toSet(a)
	for _, id := range b {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}

func reverseMessages(messages []domain.Message) []domain.Message {
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages
}

func containsType(types []domain.MessageType, t domain.MessageType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}
