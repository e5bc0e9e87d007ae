package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"go.opentelemetry.io/otel/codes"

	"github.com/agentput/agentput/internal/adapter/otel"
	"github.com/agentput/agentput/internal/adapter/ws"
	"github.com/agentput/agentput/internal/domain/conversation"
	"github.com/agentput/agentput/internal/port/broadcast"
	"github.com/agentput/agentput/internal/port/database"
	"github.com/agentput/agentput/internal/port/messagequeue"
)

// ConversationService handles conversation lifecycle: creation against a
// team, the pending/running/terminal state machine, and owner-scoped reads.
type ConversationService struct {
	store   database.Store
	queue   messagequeue.Queue
	caster  broadcast.Broadcaster
	metrics *otel.Metrics
	logger  *slog.Logger
}

// NewConversationService creates a new ConversationService. queue, caster
// and metrics may be nil.
func NewConversationService(store database.Store, queue messagequeue.Queue, caster broadcast.Broadcaster, metrics *otel.Metrics, logger *slog.Logger) *ConversationService {
	return &ConversationService{store: store, queue: queue, caster: caster, metrics: metrics, logger: logger}
}

// Create starts a new conversation record in the pending state, owned by
// userID.
func (s *ConversationService) Create(ctx context.Context, userID string, req conversation.CreateRequest) (*conversation.Conversation, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.store.CreateConversation(ctx, userID, req)
}

// Get returns a conversation owned by userID. Conversations owned by other
// users are reported as not found.
func (s *ConversationService) Get(ctx context.Context, userID, id string) (*conversation.Conversation, error) {
	return s.store.GetConversation(ctx, userID, id)
}

// List returns a page of userID's conversations, newest first.
func (s *ConversationService) List(ctx context.Context, userID string, page database.Page) ([]conversation.Conversation, error) {
	return s.store.ListConversations(ctx, userID, page)
}

// Delete removes a conversation owned by userID along with its trace.
func (s *ConversationService) Delete(ctx context.Context, userID, id string) error {
	return s.store.DeleteConversation(ctx, userID, id)
}

// Transition moves a conversation to a new lifecycle status, enforcing the
// state machine and stamping timestamps atomically. The change is published
// on the queue and broadcast to connected clients after it is durable.
func (s *ConversationService) Transition(ctx context.Context, id string, to conversation.Status) (*conversation.Conversation, error) {
	ctx, span := otel.StartTransitionSpan(ctx, id, string(to))
	defer span.End()

	conv, err := s.store.TransitionConversation(ctx, id, to)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.count(ctx, to)
	s.notify(ctx, conv)
	return conv, nil
}

func (s *ConversationService) count(ctx context.Context, to conversation.Status) {
	if s.metrics == nil {
		return
	}
	switch to {
	case conversation.StatusRunning:
		s.metrics.ConversationsStarted.Add(ctx, 1)
	case conversation.StatusCompleted:
		s.metrics.ConversationsCompleted.Add(ctx, 1)
	case conversation.StatusFailed:
		s.metrics.ConversationsFailed.Add(ctx, 1)
	}
}

func (s *ConversationService) notify(ctx context.Context, conv *conversation.Conversation) {
	payload := ws.ConversationStatusEvent{
		ConversationID: conv.ID,
		Status:         string(conv.Status),
	}
	if s.queue != nil {
		data, err := json.Marshal(payload)
		if err == nil {
			err = s.queue.Publish(ctx, messagequeue.SubjectConversationStatus+"."+conv.ID, data)
		}
		if err != nil && s.logger != nil {
			s.logger.Warn("publish conversation status", "conversation_id", conv.ID, "error", err)
		}
	}
	if s.caster != nil {
		s.caster.BroadcastEvent(ctx, ws.EventConversationStatus, payload)
	}
}
