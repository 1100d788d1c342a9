package services

import (
	"context"

	"chat-relay/domain"
)

// TranslateQueueMessage dispatches one bus message to the local sessions and
// watchers it concerns. Every instance, including the producer, consumes its
// own publishes through this path.
func (svc *Service) TranslateQueueMessage(ctx context.Context, qm domain.QueueMessage) {
	svc.log.Debug("Queue message received", "type", qm.Type, "conversationId", qm.ConversationID, "fromId", qm.FromID)

	switch qm.Type {
	case domain.TypeConnected, domain.TypeDisconnected:
		svc.registry.SetOnline(qm.FromID, qm.Type == domain.TypeConnected)

		frame := domain.PresenceFrame{
			Type:         qm.Type,
			ID:           qm.ID,
			ConnectionID: qm.ConnectionID,
			FromID:       qm.FromID,
			CreatedAt:    qm.CreatedAt,
		}
		svc.registry.FanoutToWatchersOf(qm.FromID, func(w *ClientSession) {
			// The originating connection does not get its own echo.
			if qm.InstanceID == svc.cfg.InstanceID && qm.ConnectionID == w.connectionID {
				return
			}
			w.deliver(frame)
		})
		return
	}

	if qm.ConversationID == "" {
		return
	}

	msg := qm.AsMessage()

	switch qm.Type {
	case domain.TypeClosed, domain.TypeDeleted:
		svc.registry.FanoutToConversation(ctx, msg.ConversationID, func(s *ClientSession) {
			s.deliver(msg)
			if qm.Type == domain.TypeDeleted && s.ConversationID() == msg.ConversationID {
				s.Stop("Deleted")
			}
		})
		if qm.Type == domain.TypeDeleted {
			svc.registry.DropCache(msg.ConversationID)
		}

	case domain.TypeJoined:
		svc.registry.MarkJoined(msg.ConversationID, msg.FromID)
		svc.registry.FanoutToConversation(ctx, msg.ConversationID, func(s *ClientSession) {
			s.deliver(msg)
		})

	case domain.TypeLeft:
		svc.registry.MarkLeft(msg.ConversationID, msg.FromID)
		svc.registry.FanoutToConversation(ctx, msg.ConversationID, func(s *ClientSession) {
			s.deliver(msg)
		})

	case domain.TypeText, domain.TypeFile:
		if msg.Data.IsZero() {
			return
		}
		svc.registry.FanoutToConversation(ctx, msg.ConversationID, func(s *ClientSession) {
			s.deliver(msg)
		})

	case domain.TypeMessageUpdated, domain.TypeMessageDeleted:
		svc.registry.FanoutToConversation(ctx, msg.ConversationID, func(s *ClientSession) {
			s.deliver(msg)
		})

	case domain.TypeUpdated:
		// Capture the targets before the sync so participants removed by this
		// update still receive the notice.
		targets := svc.registry.ConversationTargets(ctx, msg.ConversationID)
		changed := svc.registry.SyncConversationMembership(ctx, msg.ConversationID)

		fanout(targets, func(s *ClientSession) {
			s.deliver(msg)
			if changed && s.ConversationID() == msg.ConversationID && !svc.registry.IsMember(msg.ConversationID, s.UserID()) {
				s.Stop("Removed")
			}
		})
	}
}
