package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/codes"

	"github.com/agentput/agentput/internal/adapter/otel"
	"github.com/agentput/agentput/internal/adapter/ws"
	"github.com/agentput/agentput/internal/domain/event"
	"github.com/agentput/agentput/internal/port/broadcast"
	"github.com/agentput/agentput/internal/port/database"
	"github.com/agentput/agentput/internal/port/eventstore"
	"github.com/agentput/agentput/internal/port/messagequeue"
)

// EventService handles the append-only conversation trace. Appends are
// serialized per conversation so sequence numbers come out gapless.
type EventService struct {
	events  eventstore.Store
	store   database.Store
	queue   messagequeue.Queue
	caster  broadcast.Broadcaster
	metrics *otel.Metrics
	logger  *slog.Logger
}

// NewEventService creates a new EventService. queue, caster and metrics may
// be nil.
func NewEventService(events eventstore.Store, store database.Store, queue messagequeue.Queue, caster broadcast.Broadcaster, metrics *otel.Metrics, logger *slog.Logger) *EventService {
	return &EventService{events: events, store: store, queue: queue, caster: caster, metrics: metrics, logger: logger}
}

// Append records a new event at the next sequence number of the
// conversation's trace, then publishes it for live consumers.
func (s *EventService) Append(ctx context.Context, conversationID string, req event.AppendRequest) (*event.Event, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, span := otel.StartAppendSpan(ctx, conversationID, string(req.Type))
	defer span.End()

	start := time.Now()
	ev, err := s.events.Append(ctx, conversationID, req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.EventsAppended.Add(ctx, 1)
		s.metrics.AppendDuration.Record(ctx, time.Since(start).Seconds())
	}

	s.notify(ctx, ev)
	return ev, nil
}

// List returns the trace of a conversation owned by userID, in sequence
// order, starting after afterSequence.
func (s *EventService) List(ctx context.Context, userID, conversationID string, afterSequence int64) ([]event.Event, error) {
	// Ownership check doubles as the existence check.
	if _, err := s.store.GetConversation(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	return s.events.List(ctx, conversationID, afterSequence)
}

func (s *EventService) notify(ctx context.Context, ev *event.Event) {
	payload := ws.ConversationTraceEvent{
		ConversationID: ev.ConversationID,
		EventID:        ev.ID,
		EventType:      string(ev.Type),
		AgentName:      ev.AgentName,
		Sequence:       ev.Sequence,
		Data:           ev.Data,
	}
	if s.queue != nil {
		data, err := json.Marshal(payload)
		if err == nil {
			err = s.queue.Publish(ctx, messagequeue.SubjectConversationEvents+"."+ev.ConversationID, data)
		}
		if err != nil && s.logger != nil {
			s.logger.Warn("publish trace event", "conversation_id", ev.ConversationID, "sequence", ev.Sequence, "error", err)
		}
	}
	if s.caster != nil {
		s.caster.BroadcastEvent(ctx, ws.EventConversationEvent, payload)
	}
}
