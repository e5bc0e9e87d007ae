// Package service implements the application services over the store ports.
package service

import (
	"context"
	"fmt"

	"github.com/agentput/agentput/internal/domain/agent"
	"github.com/agentput/agentput/internal/port/database"
)

// AgentService handles the agent registry: reusable agent definitions keyed
// by unique name.
type AgentService struct {
	store database.Store
	teams *TeamService
}

// NewAgentService creates a new AgentService. teams may be nil in tests; it
// is used to invalidate resolved-team caches when agent definitions change.
func NewAgentService(store database.Store, teams *TeamService) *AgentService {
	return &AgentService{store: store, teams: teams}
}

// Create registers a new agent definition.
func (s *AgentService) Create(ctx context.Context, createdBy string, req agent.CreateRequest) (*agent.Agent, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.store.CreateAgent(ctx, createdBy, req)
}

// Get returns an agent by id.
func (s *AgentService) Get(ctx context.Context, id string) (*agent.Agent, error) {
	return s.store.GetAgent(ctx, id)
}

// List returns a page of agents, newest first.
func (s *AgentService) List(ctx context.Context, page database.Page) ([]agent.ListItem, error) {
	return s.store.ListAgents(ctx, page)
}

// ListAvailable returns every agent ordered by name, for handoff pickers.
func (s *AgentService) ListAvailable(ctx context.Context) ([]agent.ListItem, error) {
	return s.store.ListAvailableAgents(ctx)
}

// Update applies a partial update. Resolved team graphs embedding this
// agent's definition are invalidated.
func (s *AgentService) Update(ctx context.Context, id string, req agent.UpdateRequest) (*agent.Agent, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	updated, err := s.store.UpdateAgent(ctx, id, req)
	if err != nil {
		return nil, fmt.Errorf("update agent: %w", err)
	}
	if s.teams != nil {
		s.teams.InvalidateResolved()
	}
	return updated, nil
}

// Delete removes an agent. The store rejects the delete while any team
// still references the agent.
func (s *AgentService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteAgent(ctx, id); err != nil {
		return err
	}
	if s.teams != nil {
		s.teams.InvalidateResolved()
	}
	return nil
}
