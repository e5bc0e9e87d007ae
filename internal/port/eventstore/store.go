// Package eventstore defines the append-only event log port.
package eventstore

import (
	"context"

	"github.com/agentput/agentput/internal/domain/event"
)

// Store is the port interface for a conversation's event trace.
//
// Append must assign sequence = 1 + max(existing sequence for the
// conversation) atomically with the insert: concurrent appends to one
// conversation get distinct consecutive numbers with no gaps, while appends
// to different conversations never serialize against each other.
type Store interface {
	Append(ctx context.Context, conversationID string, req event.AppendRequest) (*event.Event, error)

	// List returns events with sequence > afterSequence in ascending
	// sequence order. afterSequence 0 yields the full trace; a later value
	// supports incremental polling without re-reading history.
	List(ctx context.Context, conversationID string, afterSequence int64) ([]event.Event, error)
}
