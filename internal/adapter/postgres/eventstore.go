package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agentput/agentput/internal/domain/event"
	"github.com/agentput/agentput/internal/port/eventstore"
)

// EventStore implements eventstore.Store using PostgreSQL (append-only).
type EventStore struct {
	pool *pgxpool.Pool
}

// NewEventStore creates a new EventStore backed by the given connection pool.
func NewEventStore(pool *pgxpool.Pool) *EventStore {
	return &EventStore{pool: pool}
}

var _ eventstore.Store = (*EventStore)(nil)

// eventColumns is the SELECT column list for events queries.
const eventColumns = `id, conversation_id, event_type, timestamp, COALESCE(agent_name, ''), data, sequence`

func scanEvent(row scannable, ev *event.Event) error {
	return row.Scan(&ev.ID, &ev.ConversationID, &ev.Type, &ev.Timestamp,
		&ev.AgentName, &ev.Data, &ev.Sequence)
}

// Append inserts the next event of a conversation's trace. The conversation
// row is locked for the duration of the transaction, which linearizes
// sequence assignment per conversation: concurrent appenders get distinct
// consecutive numbers with no gaps, and appends to other conversations
// proceed in parallel. The lock also makes the missing-conversation check
// race-free against deletes.
func (s *EventStore) Append(ctx context.Context, conversationID string, req event.AppendRequest) (*event.Event, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin append: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var lockedID string
	err = tx.QueryRow(ctx,
		`SELECT id FROM conversations WHERE id = $1 FOR UPDATE`, conversationID).Scan(&lockedID)
	if err != nil {
		return nil, notFoundWrap(err, "append to conversation %s", conversationID)
	}

	var ev event.Event
	row := tx.QueryRow(ctx,
		`INSERT INTO events (id, conversation_id, event_type, agent_name, data, sequence)
		 VALUES ($1, $2, $3, $4, $5,
		         COALESCE((SELECT MAX(sequence) FROM events WHERE conversation_id = $2), 0) + 1)
		 RETURNING `+eventColumns,
		uuid.New().String(), conversationID, string(req.Type),
		nullIfEmpty(req.AgentName), req.Data)
	if err := scanEvent(row, &ev); err != nil {
		return nil, fmt.Errorf("append event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit append: %w", err)
	}
	return &ev, nil
}

// List returns events with sequence greater than afterSequence in ascending
// order. afterSequence 0 yields the full trace; passing the last seen
// sequence turns the same query into an incremental poll.
func (s *EventStore) List(ctx context.Context, conversationID string, afterSequence int64) ([]event.Event, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+eventColumns+` FROM events
		 WHERE conversation_id = $1 AND sequence > $2
		 ORDER BY sequence ASC`,
		conversationID, afterSequence)
	if err != nil {
		return nil, fmt.Errorf("list events for conversation %s: %w", conversationID, err)
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		var ev event.Event
		if err := scanEvent(rows, &ev); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
