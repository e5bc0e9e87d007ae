package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agentput/agentput/internal/domain"
	"github.com/agentput/agentput/internal/domain/agent"
	"github.com/agentput/agentput/internal/domain/conversation"
	"github.com/agentput/agentput/internal/domain/event"
	"github.com/agentput/agentput/internal/domain/team"
	"github.com/agentput/agentput/internal/domain/user"
	"github.com/agentput/agentput/internal/port/broadcast"
	"github.com/agentput/agentput/internal/port/cache"
	"github.com/agentput/agentput/internal/port/database"
	"github.com/agentput/agentput/internal/port/eventstore"
	"github.com/agentput/agentput/internal/port/messagequeue"
)

// Ensure mock types implement their interfaces at compile time.
var (
	_ database.Store        = (*mockStore)(nil)
	_ eventstore.Store      = (*mockEventStore)(nil)
	_ messagequeue.Queue    = (*mockQueue)(nil)
	_ broadcast.Broadcaster = (*mockBroadcaster)(nil)
	_ cache.Cache           = (*mockCache)(nil)
)

type mockStore struct {
	agents        []agent.Agent
	teams         []team.Team
	conversations []conversation.Conversation
	users         []user.User

	// Error hooks, set to inject failures.
	createAgentErr   error
	resolveTeamErr   error
	transitionErr    error
	createConvErr    error
	resolveTeamCalls int
}

func (m *mockStore) CreateAgent(_ context.Context, createdBy string, req agent.CreateRequest) (*agent.Agent, error) {
	if m.createAgentErr != nil {
		return nil, m.createAgentErr
	}
	for i := range m.agents {
		if m.agents[i].Name == req.Name {
			return nil, fmt.Errorf("agent %q already exists: %w", req.Name, domain.ErrConflict)
		}
	}
	a := agent.Agent{
		ID:            uuid.New().String(),
		Name:          req.Name,
		SystemMessage: req.SystemMessage,
		Handoffs:      agent.Dedupe(req.Handoffs),
		Tools:         agent.Dedupe(req.Tools),
		CreatedBy:     createdBy,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	m.agents = append(m.agents, a)
	return &a, nil
}

func (m *mockStore) GetAgent(_ context.Context, id string) (*agent.Agent, error) {
	for i := range m.agents {
		if m.agents[i].ID == id {
			return &m.agents[i], nil
		}
	}
	return nil, fmt.Errorf("agent %s: %w", id, domain.ErrNotFound)
}

func (m *mockStore) ListAgents(_ context.Context, page database.Page) ([]agent.ListItem, error) {
	return m.agentItems(), nil
}

func (m *mockStore) ListAvailableAgents(_ context.Context) ([]agent.ListItem, error) {
	return m.agentItems(), nil
}

func (m *mockStore) agentItems() []agent.ListItem {
	items := make([]agent.ListItem, 0, len(m.agents))
	for i := range m.agents {
		a := &m.agents[i]
		items = append(items, agent.ListItem{
			ID:           a.ID,
			Name:         a.Name,
			CreatedBy:    a.CreatedBy,
			CreatedAt:    a.CreatedAt,
			HandoffCount: len(a.Handoffs),
			ToolCount:    len(a.Tools),
		})
	}
	return items
}

func (m *mockStore) UpdateAgent(_ context.Context, id string, req agent.UpdateRequest) (*agent.Agent, error) {
	for i := range m.agents {
		if m.agents[i].ID != id {
			continue
		}
		a := &m.agents[i]
		if req.Name != nil {
			a.Name = *req.Name
		}
		if req.SystemMessage != nil {
			a.SystemMessage = *req.SystemMessage
		}
		if req.Handoffs != nil {
			a.Handoffs = agent.Dedupe(*req.Handoffs)
		}
		if req.Tools != nil {
			a.Tools = agent.Dedupe(*req.Tools)
		}
		a.UpdatedAt = time.Now()
		return a, nil
	}
	return nil, fmt.Errorf("agent %s: %w", id, domain.ErrNotFound)
}

func (m *mockStore) DeleteAgent(_ context.Context, id string) error {
	for _, t := range m.teams {
		for _, member := range t.Agents {
			if member == id {
				return fmt.Errorf("agent %s is referenced by team %s: %w", id, t.ID, domain.ErrValidation)
			}
		}
	}
	for i := range m.agents {
		if m.agents[i].ID == id {
			m.agents = append(m.agents[:i], m.agents[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("agent %s: %w", id, domain.ErrNotFound)
}

func (m *mockStore) CreateTeam(_ context.Context, createdBy string, req team.CreateRequest) (*team.Team, error) {
	members := agent.Dedupe(req.Agents)
	for _, id := range members {
		if !m.hasAgent(id) {
			return nil, fmt.Errorf("agent %s does not exist: %w", id, domain.ErrValidation)
		}
	}
	if err := team.CheckEntry(req.EntryAgent, members); err != nil {
		return nil, err
	}
	t := team.Team{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		Agents:      members,
		EntryAgent:  req.EntryAgent,
		CreatedBy:   createdBy,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	m.teams = append(m.teams, t)
	return &t, nil
}

func (m *mockStore) hasAgent(id string) bool {
	for i := range m.agents {
		if m.agents[i].ID == id {
			return true
		}
	}
	return false
}

func (m *mockStore) GetTeam(_ context.Context, id string) (*team.Team, error) {
	for i := range m.teams {
		if m.teams[i].ID == id {
			return &m.teams[i], nil
		}
	}
	return nil, fmt.Errorf("team %s: %w", id, domain.ErrNotFound)
}

func (m *mockStore) ListTeams(_ context.Context, page database.Page) ([]team.ListItem, error) {
	items := make([]team.ListItem, 0, len(m.teams))
	for i := range m.teams {
		t := &m.teams[i]
		items = append(items, team.ListItem{
			ID:         t.ID,
			Name:       t.Name,
			AgentCount: len(t.Agents),
			EntryAgent: t.EntryAgent,
			CreatedAt:  t.CreatedAt,
		})
	}
	return items, nil
}

func (m *mockStore) UpdateTeam(_ context.Context, id string, req team.UpdateRequest) (*team.Team, error) {
	for i := range m.teams {
		if m.teams[i].ID != id {
			continue
		}
		t := &m.teams[i]
		agents := t.Agents
		entry := t.EntryAgent
		if req.Agents != nil {
			agents = agent.Dedupe(*req.Agents)
			for _, aid := range agents {
				if !m.hasAgent(aid) {
					return nil, fmt.Errorf("agent %s does not exist: %w", aid, domain.ErrValidation)
				}
			}
		}
		if req.EntryAgent != nil {
			entry = *req.EntryAgent
		}
		if req.Agents != nil || req.EntryAgent != nil {
			if err := team.CheckEntry(entry, agents); err != nil {
				return nil, err
			}
		}
		if req.Name != nil {
			t.Name = *req.Name
		}
		if req.Description != nil {
			t.Description = *req.Description
		}
		t.Agents = agents
		t.EntryAgent = entry
		t.UpdatedAt = time.Now()
		return t, nil
	}
	return nil, fmt.Errorf("team %s: %w", id, domain.ErrNotFound)
}

func (m *mockStore) DeleteTeam(_ context.Context, id string) error {
	for _, c := range m.conversations {
		if c.TeamID == id && !c.Status.IsTerminal() {
			return fmt.Errorf("team %s has active conversations: %w", id, domain.ErrConflict)
		}
	}
	for i := range m.teams {
		if m.teams[i].ID == id {
			m.teams = append(m.teams[:i], m.teams[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("team %s: %w", id, domain.ErrNotFound)
}

func (m *mockStore) ResolveTeam(ctx context.Context, id string) (*team.Resolved, error) {
	m.resolveTeamCalls++
	if m.resolveTeamErr != nil {
		return nil, m.resolveTeamErr
	}
	t, err := m.GetTeam(ctx, id)
	if err != nil {
		return nil, err
	}
	resolved := &team.Resolved{
		ID:         t.ID,
		Name:       t.Name,
		EntryAgent: t.EntryAgent,
		Members:    make([]team.ResolvedAgent, 0, len(t.Agents)),
	}
	for _, aid := range t.Agents {
		a, err := m.GetAgent(ctx, aid)
		if err != nil {
			return nil, err
		}
		resolved.Members = append(resolved.Members, team.ResolvedAgent{
			ID:            a.ID,
			Name:          a.Name,
			SystemMessage: a.SystemMessage,
			Handoffs:      a.Handoffs,
			Tools:         a.Tools,
		})
	}
	return resolved, nil
}

func (m *mockStore) CreateConversation(_ context.Context, userID string, req conversation.CreateRequest) (*conversation.Conversation, error) {
	if m.createConvErr != nil {
		return nil, m.createConvErr
	}
	found := false
	for i := range m.teams {
		if m.teams[i].ID == req.TeamID {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("team %s: %w", req.TeamID, domain.ErrNotFound)
	}
	c := conversation.Conversation{
		ID:        uuid.New().String(),
		UserID:    userID,
		TeamID:    req.TeamID,
		Task:      req.Task,
		Status:    conversation.StatusPending,
		CreatedAt: time.Now(),
	}
	m.conversations = append(m.conversations, c)
	return &c, nil
}

func (m *mockStore) GetConversation(_ context.Context, userID, id string) (*conversation.Conversation, error) {
	for i := range m.conversations {
		if m.conversations[i].ID == id && m.conversations[i].UserID == userID {
			return &m.conversations[i], nil
		}
	}
	return nil, fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
}

func (m *mockStore) ListConversations(_ context.Context, userID string, page database.Page) ([]conversation.Conversation, error) {
	var out []conversation.Conversation
	for i := range m.conversations {
		if m.conversations[i].UserID == userID {
			out = append(out, m.conversations[i])
		}
	}
	return out, nil
}

func (m *mockStore) TransitionConversation(_ context.Context, id string, to conversation.Status) (*conversation.Conversation, error) {
	if m.transitionErr != nil {
		return nil, m.transitionErr
	}
	for i := range m.conversations {
		if m.conversations[i].ID != id {
			continue
		}
		c := &m.conversations[i]
		if err := conversation.CheckTransition(c.Status, to); err != nil {
			return nil, err
		}
		now := time.Now()
		c.Status = to
		if to == conversation.StatusRunning && c.StartedAt == nil {
			c.StartedAt = &now
		}
		if to.IsTerminal() && c.CompletedAt == nil {
			c.CompletedAt = &now
		}
		return c, nil
	}
	return nil, fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
}

func (m *mockStore) DeleteConversation(_ context.Context, userID, id string) error {
	for i := range m.conversations {
		if m.conversations[i].ID == id && m.conversations[i].UserID == userID {
			m.conversations = append(m.conversations[:i], m.conversations[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
}

func (m *mockStore) CreateUser(_ context.Context, req user.CreateRequest) (*user.User, error) {
	for i := range m.users {
		if m.users[i].Email == req.Email {
			return nil, fmt.Errorf("user %q already exists: %w", req.Email, domain.ErrConflict)
		}
	}
	u := user.User{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Email:     req.Email,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.users = append(m.users, u)
	return &u, nil
}

func (m *mockStore) GetUser(_ context.Context, id string) (*user.User, error) {
	for i := range m.users {
		if m.users[i].ID == id {
			return &m.users[i], nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
}

func (m *mockStore) ListUsers(_ context.Context, page database.Page) ([]user.User, error) {
	return m.users, nil
}

type mockEventStore struct {
	mu        sync.Mutex
	events    map[string][]event.Event
	appendErr error
}

func (m *mockEventStore) Append(_ context.Context, conversationID string, req event.AppendRequest) (*event.Event, error) {
	if m.appendErr != nil {
		return nil, m.appendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.events == nil {
		m.events = make(map[string][]event.Event)
	}
	ev := event.Event{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Type:           req.Type,
		Timestamp:      time.Now(),
		AgentName:      req.AgentName,
		Data:           req.Data,
		Sequence:       int64(len(m.events[conversationID])) + 1,
	}
	m.events[conversationID] = append(m.events[conversationID], ev)
	return &ev, nil
}

func (m *mockEventStore) List(_ context.Context, conversationID string, afterSequence int64) ([]event.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []event.Event
	for _, ev := range m.events[conversationID] {
		if ev.Sequence > afterSequence {
			out = append(out, ev)
		}
	}
	return out, nil
}

type mockQueue struct {
	published []struct {
		subject string
		data    []byte
	}
	publishErr error
}

func (m *mockQueue) Publish(_ context.Context, subject string, data []byte) error {
	if m.publishErr != nil {
		return m.publishErr
	}
	m.published = append(m.published, struct {
		subject string
		data    []byte
	}{subject, data})
	return nil
}

func (m *mockQueue) Subscribe(_ context.Context, _ string, _ messagequeue.Handler) (func(), error) {
	return func() {}, nil
}

func (m *mockQueue) Close() error { return nil }

type mockBroadcaster struct {
	events []struct {
		eventType string
		payload   any
	}
}

func (m *mockBroadcaster) BroadcastEvent(_ context.Context, eventType string, payload any) {
	m.events = append(m.events, struct {
		eventType string
		payload   any
	}{eventType, payload})
}

type mockCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	gets    int
	hits    int
}

func (m *mockCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	v, ok := m.entries[key]
	if ok {
		m.hits++
	}
	return v, ok, nil
}

func (m *mockCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries == nil {
		m.entries = make(map[string][]byte)
	}
	m.entries[key] = value
	return nil
}

func (m *mockCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}
