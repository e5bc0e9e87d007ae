package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/agentput/agentput/internal/domain"
	"github.com/agentput/agentput/internal/domain/agent"
	"github.com/agentput/agentput/internal/domain/conversation"
	"github.com/agentput/agentput/internal/domain/team"
	"github.com/agentput/agentput/internal/port/database"
)

// teamColumns is the SELECT column list for teams queries.
const teamColumns = `id, name, description, agents, entry_agent, COALESCE(created_by::text, ''), created_at, updated_at`

func scanTeam(row scannable, t *team.Team) error {
	if err := row.Scan(&t.ID, &t.Name, &t.Description, &t.Agents, &t.EntryAgent,
		&t.CreatedBy, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return err
	}
	t.Agents = orEmpty(t.Agents)
	return nil
}

// checkAgentsExist verifies each id resolves to a stored agent, reporting
// the first missing one. Ids are checked individually so the error names the
// offender. Each member row is locked FOR KEY SHARE, which blocks a
// concurrent delete of that agent until this transaction commits.
func checkAgentsExist(ctx context.Context, tx pgx.Tx, ids []string) error {
	for _, id := range ids {
		var one int
		err := tx.QueryRow(ctx,
			`SELECT 1 FROM agents WHERE id = $1 FOR KEY SHARE`, id).Scan(&one)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return fmt.Errorf("agent %s does not exist: %w", id, domain.ErrValidation)
		case err != nil:
			return fmt.Errorf("check agent %s: %w", id, err)
		}
	}
	return nil
}

// CreateTeam validates the composition and inserts the team in a single
// transaction: member existence first (rule 1), then entry membership
// (rule 2). A concurrent agent delete cannot race the write.
func (s *Store) CreateTeam(ctx context.Context, createdBy string, req team.CreateRequest) (*team.Team, error) {
	members := agent.Dedupe(req.Agents)

	var created team.Team
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		if err := checkAgentsExist(ctx, tx, members); err != nil {
			return err
		}
		if err := team.CheckEntry(req.EntryAgent, members); err != nil {
			return err
		}

		row := tx.QueryRow(ctx,
			`INSERT INTO teams (id, name, description, agents, entry_agent, created_by)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING `+teamColumns,
			uuid.New().String(), req.Name, req.Description, pgTextArray(members),
			req.EntryAgent, nullIfEmpty(createdBy))
		if err := scanTeam(row, &created); err != nil {
			return fmt.Errorf("create team: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *Store) GetTeam(ctx context.Context, id string) (*team.Team, error) {
	var t team.Team
	row := s.pool.QueryRow(ctx,
		`SELECT `+teamColumns+` FROM teams WHERE id = $1`, id)
	if err := scanTeam(row, &t); err != nil {
		return nil, notFoundWrap(err, "get team %s", id)
	}
	return &t, nil
}

// ListTeams returns the reduced list projection; agent_count is derived at
// read time from the stored member set.
func (s *Store) ListTeams(ctx context.Context, page database.Page) ([]team.ListItem, error) {
	page = clampPage(page)
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, description, cardinality(agents), entry_agent, created_at
		 FROM teams ORDER BY created_at DESC, id DESC OFFSET $1 LIMIT $2`,
		page.Offset, page.Limit)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()

	var items []team.ListItem
	for rows.Next() {
		var it team.ListItem
		if err := rows.Scan(&it.ID, &it.Name, &it.Description, &it.AgentCount,
			&it.EntryAgent, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan team item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// UpdateTeam applies a partial update, re-validating the composition
// against the effective member set: the supplied one when agents is part of
// the update, the stored one otherwise. All checks and the write share one
// transaction; any failure leaves the stored row untouched.
func (s *Store) UpdateTeam(ctx context.Context, id string, req team.UpdateRequest) (*team.Team, error) {
	var updated team.Team
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		var cur team.Team
		row := tx.QueryRow(ctx,
			`SELECT `+teamColumns+` FROM teams WHERE id = $1 FOR UPDATE`, id)
		if err := scanTeam(row, &cur); err != nil {
			return notFoundWrap(err, "update team %s", id)
		}

		if req.Agents != nil {
			members := agent.Dedupe(*req.Agents)
			if err := checkAgentsExist(ctx, tx, members); err != nil {
				return err
			}
			cur.Agents = members
		}
		if req.EntryAgent != nil {
			cur.EntryAgent = *req.EntryAgent
		}
		if req.Agents != nil || req.EntryAgent != nil {
			if err := team.CheckEntry(cur.EntryAgent, cur.Agents); err != nil {
				return err
			}
		}
		if req.Name != nil {
			cur.Name = *req.Name
		}
		if req.Description != nil {
			cur.Description = *req.Description
		}

		row = tx.QueryRow(ctx,
			`UPDATE teams SET name = $2, description = $3, agents = $4, entry_agent = $5, updated_at = now()
			 WHERE id = $1
			 RETURNING `+teamColumns,
			id, cur.Name, cur.Description, pgTextArray(cur.Agents), cur.EntryAgent)
		if err := scanTeam(row, &updated); err != nil {
			return fmt.Errorf("update team %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteTeam removes a team unless a non-terminal conversation still
// references it. The delete runs first: it waits on any key-share lock a
// concurrent conversation create holds on the row, so the check that
// follows sees every conversation committed meanwhile. A live conversation
// rolls the delete back. Terminal conversations keep their frozen team_id.
func (s *Store) DeleteTeam(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM teams WHERE id = $1`, id)
		if err := execExpectOne(tag, err, "delete team %s", id); err != nil {
			return err
		}

		var convID string
		err = tx.QueryRow(ctx,
			`SELECT id FROM conversations WHERE team_id = $1 AND status = ANY($2) LIMIT 1`,
			id, []string{string(conversation.StatusPending), string(conversation.StatusRunning)}).Scan(&convID)
		switch {
		case err == nil:
			return fmt.Errorf("team %s has active conversation %s: %w", id, convID, domain.ErrConflict)
		case !errors.Is(err, pgx.ErrNoRows):
			return fmt.Errorf("check team conversations: %w", err)
		}
		return nil
	})
}

// ResolveTeam builds the read-model the execution engine consumes: the entry
// point plus every member's prompt, handoff edges, and tool list. Member
// order follows the stored member set.
func (s *Store) ResolveTeam(ctx context.Context, id string) (*team.Resolved, error) {
	t, err := s.GetTeam(ctx, id)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, name, system_message, handoffs, tools FROM agents WHERE id::text = ANY($1)`,
		pgTextArray(t.Agents))
	if err != nil {
		return nil, fmt.Errorf("resolve team %s: %w", id, err)
	}
	defer rows.Close()

	byID := make(map[string]team.ResolvedAgent, len(t.Agents))
	for rows.Next() {
		var ra team.ResolvedAgent
		if err := rows.Scan(&ra.ID, &ra.Name, &ra.SystemMessage, &ra.Handoffs, &ra.Tools); err != nil {
			return nil, fmt.Errorf("scan resolved agent: %w", err)
		}
		ra.Handoffs = orEmpty(ra.Handoffs)
		ra.Tools = orEmpty(ra.Tools)
		byID[ra.ID] = ra
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	resolved := &team.Resolved{
		ID:         t.ID,
		Name:       t.Name,
		EntryAgent: t.EntryAgent,
		Members:    make([]team.ResolvedAgent, 0, len(t.Agents)),
	}
	for _, memberID := range t.Agents {
		if ra, ok := byID[memberID]; ok {
			resolved.Members = append(resolved.Members, ra)
		}
	}
	return resolved, nil
}
