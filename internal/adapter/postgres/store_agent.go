package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/agentput/agentput/internal/domain"
	"github.com/agentput/agentput/internal/domain/agent"
	"github.com/agentput/agentput/internal/port/database"
)

// agentColumns is the SELECT column list for agents queries.
const agentColumns = `id, name, system_message, handoffs, tools, COALESCE(created_by::text, ''), created_at, updated_at`

func scanAgent(row scannable, a *agent.Agent) error {
	if err := row.Scan(&a.ID, &a.Name, &a.SystemMessage, &a.Handoffs, &a.Tools,
		&a.CreatedBy, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return err
	}
	a.Handoffs = orEmpty(a.Handoffs)
	a.Tools = orEmpty(a.Tools)
	return nil
}

// CreateAgent inserts a new agent after checking name uniqueness inside the
// insert transaction. Handoffs and tools are deduplicated, order preserved.
func (s *Store) CreateAgent(ctx context.Context, createdBy string, req agent.CreateRequest) (*agent.Agent, error) {
	var created agent.Agent
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		var taken bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM agents WHERE name = $1)`, req.Name).Scan(&taken); err != nil {
			return fmt.Errorf("check agent name: %w", err)
		}
		if taken {
			return fmt.Errorf("agent name %q: %w", req.Name, domain.ErrConflict)
		}

		row := tx.QueryRow(ctx,
			`INSERT INTO agents (id, name, system_message, handoffs, tools, created_by)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING `+agentColumns,
			uuid.New().String(), req.Name, req.SystemMessage,
			pgTextArray(agent.Dedupe(req.Handoffs)), pgTextArray(agent.Dedupe(req.Tools)),
			nullIfEmpty(createdBy))
		if err := scanAgent(row, &created); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("agent name %q: %w", req.Name, domain.ErrConflict)
			}
			return fmt.Errorf("create agent: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *Store) GetAgent(ctx context.Context, id string) (*agent.Agent, error) {
	var a agent.Agent
	row := s.pool.QueryRow(ctx,
		`SELECT `+agentColumns+` FROM agents WHERE id = $1`, id)
	if err := scanAgent(row, &a); err != nil {
		return nil, notFoundWrap(err, "get agent %s", id)
	}
	return &a, nil
}

// ListAgents returns the reduced list projection ordered by creation time
// descending, with id as a stable tie-break.
func (s *Store) ListAgents(ctx context.Context, page database.Page) ([]agent.ListItem, error) {
	page = clampPage(page)
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, COALESCE(created_by::text, ''), created_at,
		        cardinality(handoffs), cardinality(tools)
		 FROM agents ORDER BY created_at DESC, id DESC OFFSET $1 LIMIT $2`,
		page.Offset, page.Limit)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()

	return scanAgentItems(rows)
}

// ListAvailableAgents returns every agent ordered by name, for handoff
// target selection.
func (s *Store) ListAvailableAgents(ctx context.Context) ([]agent.ListItem, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, COALESCE(created_by::text, ''), created_at,
		        cardinality(handoffs), cardinality(tools)
		 FROM agents ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list available agents: %w", err)
	}
	defer rows.Close()

	return scanAgentItems(rows)
}

func scanAgentItems(rows pgx.Rows) ([]agent.ListItem, error) {
	var items []agent.ListItem
	for rows.Next() {
		var it agent.ListItem
		if err := rows.Scan(&it.ID, &it.Name, &it.CreatedBy, &it.CreatedAt,
			&it.HandoffCount, &it.ToolCount); err != nil {
			return nil, fmt.Errorf("scan agent item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// UpdateAgent applies a partial update. A name change re-checks uniqueness
// excluding the agent's own row, inside the update transaction.
func (s *Store) UpdateAgent(ctx context.Context, id string, req agent.UpdateRequest) (*agent.Agent, error) {
	var updated agent.Agent
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		var cur agent.Agent
		row := tx.QueryRow(ctx,
			`SELECT `+agentColumns+` FROM agents WHERE id = $1 FOR UPDATE`, id)
		if err := scanAgent(row, &cur); err != nil {
			return notFoundWrap(err, "update agent %s", id)
		}

		if req.Name != nil && *req.Name != cur.Name {
			var taken bool
			if err := tx.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM agents WHERE name = $1 AND id <> $2)`,
				*req.Name, id).Scan(&taken); err != nil {
				return fmt.Errorf("check agent name: %w", err)
			}
			if taken {
				return fmt.Errorf("agent name %q: %w", *req.Name, domain.ErrConflict)
			}
			cur.Name = *req.Name
		}
		if req.SystemMessage != nil {
			cur.SystemMessage = *req.SystemMessage
		}
		if req.Handoffs != nil {
			cur.Handoffs = agent.Dedupe(*req.Handoffs)
		}
		if req.Tools != nil {
			cur.Tools = agent.Dedupe(*req.Tools)
		}

		row = tx.QueryRow(ctx,
			`UPDATE agents SET name = $2, system_message = $3, handoffs = $4, tools = $5, updated_at = now()
			 WHERE id = $1
			 RETURNING `+agentColumns,
			id, cur.Name, cur.SystemMessage, pgTextArray(cur.Handoffs), pgTextArray(cur.Tools))
		if err := scanAgent(row, &updated); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("agent name %q: %w", cur.Name, domain.ErrConflict)
			}
			return fmt.Errorf("update agent %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteAgent removes an agent unless a team still references it. The
// delete runs first: it waits on any key-share lock a concurrent team write
// holds on the row, so the reference check that follows sees every team
// committed meanwhile. A found reference rolls the delete back.
func (s *Store) DeleteAgent(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM agents WHERE id = $1`, id)
		if err := execExpectOne(tag, err, "delete agent %s", id); err != nil {
			return err
		}

		var teamID string
		err = tx.QueryRow(ctx,
			`SELECT id FROM teams WHERE $1 = ANY(agents) LIMIT 1`, id).Scan(&teamID)
		switch {
		case err == nil:
			return fmt.Errorf("agent %s is referenced by team %s: %w", id, teamID, domain.ErrValidation)
		case !errors.Is(err, pgx.ErrNoRows):
			return fmt.Errorf("check agent references: %w", err)
		}
		return nil
	})
}
