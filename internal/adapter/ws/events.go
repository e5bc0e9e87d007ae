package ws

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Event type constants for WebSocket messages.
const (
	EventConversationStatus = "conversation.status"
	EventConversationEvent  = "conversation.event"
)

// ConversationStatusEvent is broadcast when a conversation's lifecycle
// status changes.
type ConversationStatusEvent struct {
	ConversationID string `json:"conversation_id"`
	Status         string `json:"status"`
}

// ConversationTraceEvent is broadcast when an event is appended to a
// conversation's trace. Data carries the engine-owned payload verbatim.
type ConversationTraceEvent struct {
	ConversationID string          `json:"conversation_id"`
	EventID        string          `json:"event_id"`
	EventType      string          `json:"event_type"`
	AgentName      string          `json:"agent_name,omitempty"`
	Sequence       int64           `json:"sequence"`
	Data           json.RawMessage `json:"data"`
}

// BroadcastEvent is a convenience method that marshals a typed event and broadcasts it.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	h.Broadcast(ctx, Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	})
}
