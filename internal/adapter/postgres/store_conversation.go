package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/agentput/agentput/internal/domain"
	"github.com/agentput/agentput/internal/domain/conversation"
	"github.com/agentput/agentput/internal/port/database"
)

// conversationColumns is the SELECT column list for conversations queries.
const conversationColumns = `id, user_id, team_id, task, status, started_at, completed_at, created_at`

func scanConversation(row scannable, c *conversation.Conversation) error {
	return row.Scan(&c.ID, &c.UserID, &c.TeamID, &c.Task, &c.Status,
		&c.StartedAt, &c.CompletedAt, &c.CreatedAt)
}

// CreateConversation opens a conversation in the pending state. The team
// row is locked FOR KEY SHARE for the span of the insert transaction, which
// blocks a concurrent team delete until the conversation is committed.
func (s *Store) CreateConversation(ctx context.Context, userID string, req conversation.CreateRequest) (*conversation.Conversation, error) {
	var created conversation.Conversation
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		var one int
		err := tx.QueryRow(ctx,
			`SELECT 1 FROM teams WHERE id = $1 FOR KEY SHARE`, req.TeamID).Scan(&one)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return fmt.Errorf("team %s: %w", req.TeamID, domain.ErrNotFound)
		case err != nil:
			return fmt.Errorf("check team: %w", err)
		}

		row := tx.QueryRow(ctx,
			`INSERT INTO conversations (id, user_id, team_id, task)
			 VALUES ($1, $2, $3, $4)
			 RETURNING `+conversationColumns,
			uuid.New().String(), userID, req.TeamID, req.Task)
		if err := scanConversation(row, &created); err != nil {
			return fmt.Errorf("create conversation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// GetConversation is owner-scoped: a conversation owned by another user is
// indistinguishable from a missing one.
func (s *Store) GetConversation(ctx context.Context, userID, id string) (*conversation.Conversation, error) {
	var c conversation.Conversation
	row := s.pool.QueryRow(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE id = $1 AND user_id = $2`,
		id, userID)
	if err := scanConversation(row, &c); err != nil {
		return nil, notFoundWrap(err, "get conversation %s", id)
	}
	return &c, nil
}

func (s *Store) ListConversations(ctx context.Context, userID string, page database.Page) ([]conversation.Conversation, error) {
	page = clampPage(page)
	rows, err := s.pool.Query(ctx,
		`SELECT `+conversationColumns+` FROM conversations
		 WHERE user_id = $1 ORDER BY created_at DESC, id DESC OFFSET $2 LIMIT $3`,
		userID, page.Offset, page.Limit)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var result []conversation.Conversation
	for rows.Next() {
		var c conversation.Conversation
		if err := scanConversation(rows, &c); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// TransitionConversation advances the lifecycle with an atomic
// read-validate-swap: the UPDATE is guarded by the status read in the same
// iteration, so two racing transitions on one edge produce exactly one
// winner. Entering running stamps started_at; entering a terminal state
// stamps completed_at. The loop re-reads on a lost race; it terminates
// because status only ever advances toward a terminal state.
func (s *Store) TransitionConversation(ctx context.Context, id string, to conversation.Status) (*conversation.Conversation, error) {
	for {
		var cur conversation.Status
		err := s.pool.QueryRow(ctx,
			`SELECT status FROM conversations WHERE id = $1`, id).Scan(&cur)
		if err != nil {
			return nil, notFoundWrap(err, "transition conversation %s", id)
		}

		if err := conversation.CheckTransition(cur, to); err != nil {
			return nil, fmt.Errorf("conversation %s: %w", id, err)
		}

		var c conversation.Conversation
		row := s.pool.QueryRow(ctx,
			`UPDATE conversations SET status = $2,
			        started_at = CASE WHEN $2 = 'running' AND started_at IS NULL THEN now() ELSE started_at END,
			        completed_at = CASE WHEN $2 IN ('completed', 'failed', 'cancelled') AND completed_at IS NULL THEN now() ELSE completed_at END
			 WHERE id = $1 AND status = $3
			 RETURNING `+conversationColumns,
			id, string(to), string(cur))
		err = scanConversation(row, &c)
		if err == nil {
			return &c, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("transition conversation %s: %w", id, err)
		}
		// Lost the race: another writer consumed the edge. Re-read and
		// re-validate against the new status.
	}
}

// DeleteConversation is owner-scoped and cascades to the conversation's
// events via the foreign key.
func (s *Store) DeleteConversation(ctx context.Context, userID, id string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM conversations WHERE id = $1 AND user_id = $2`, id, userID)
	return execExpectOne(tag, err, "delete conversation %s", id)
}
