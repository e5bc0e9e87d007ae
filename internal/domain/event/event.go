// Package event defines the Event domain entity: one immutable, sequenced
// record in a conversation's append-only execution trace.
package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/agentput/agentput/internal/domain"
)

// Type identifies the kind of execution event. The wire names match what the
// execution engine emits.
type Type string

const (
	TypeTextMessage       Type = "TextMessage"
	TypeToolCallRequest   Type = "ToolCallRequestEvent"
	TypeToolCallExecution Type = "ToolCallExecutionEvent"
	TypeToolCallSummary   Type = "ToolCallSummaryMessage"
	TypeAgentMessageChunk Type = "AgentMessageChunk"
	TypeHandoffMessage    Type = "HandoffMessage"
)

// Valid reports whether t is a known event type.
func (t Type) Valid() bool {
	switch t {
	case TypeTextMessage, TypeToolCallRequest, TypeToolCallExecution,
		TypeToolCallSummary, TypeAgentMessageChunk, TypeHandoffMessage:
		return true
	}
	return false
}

// Event is one record of a conversation's trace. Sequence is 1-based,
// gapless, and unique within the conversation; it defines the total order.
// Data is the engine-owned payload, stored opaquely.
type Event struct {
	ID             string          `json:"id"`
	ConversationID string          `json:"conversation_id"`
	Type           Type            `json:"event_type"`
	Timestamp      time.Time       `json:"timestamp"`
	AgentName      string          `json:"agent_name,omitempty"`
	Data           json.RawMessage `json:"data"`
	Sequence       int64           `json:"sequence"`
}

// AppendRequest holds the engine-supplied fields of a new event. Sequence
// and timestamp are assigned by the store.
type AppendRequest struct {
	Type      Type            `json:"event_type"`
	AgentName string          `json:"agent_name"`
	Data      json.RawMessage `json:"data"`
}

// Validate checks the envelope; the payload shape is owned by the engine and
// not inspected here.
func (r *AppendRequest) Validate() error {
	if !r.Type.Valid() {
		return fmt.Errorf("unknown event type %q: %w", r.Type, domain.ErrValidation)
	}
	return nil
}
