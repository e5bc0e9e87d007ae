package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	aphttp "github.com/agentput/agentput/internal/adapter/http"
	"github.com/agentput/agentput/internal/config"
	"github.com/agentput/agentput/internal/domain"
	"github.com/agentput/agentput/internal/domain/agent"
	"github.com/agentput/agentput/internal/domain/conversation"
	"github.com/agentput/agentput/internal/domain/event"
	"github.com/agentput/agentput/internal/domain/team"
	"github.com/agentput/agentput/internal/domain/user"
	"github.com/agentput/agentput/internal/middleware"
	"github.com/agentput/agentput/internal/port/database"
	"github.com/agentput/agentput/internal/service"
)

// mockStore implements database.Store for testing.
type mockStore struct {
	agents        []agent.Agent
	teams         []team.Team
	conversations []conversation.Conversation
	users         []user.User
}

var _ database.Store = (*mockStore)(nil)

func (m *mockStore) CreateAgent(_ context.Context, createdBy string, req agent.CreateRequest) (*agent.Agent, error) {
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

func (m *mockStore) ListAgents(_ context.Context, _ database.Page) ([]agent.ListItem, error) {
	items := make([]agent.ListItem, 0, len(m.agents))
	for i := range m.agents {
		a := &m.agents[i]
		items = append(items, agent.ListItem{
			ID:           a.ID,
			Name:         a.Name,
			HandoffCount: len(a.Handoffs),
			ToolCount:    len(a.Tools),
		})
	}
	return items, nil
}

func (m *mockStore) ListAvailableAgents(ctx context.Context) ([]agent.ListItem, error) {
	return m.ListAgents(ctx, database.Page{})
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

func (m *mockStore) hasAgent(id string) bool {
	for i := range m.agents {
		if m.agents[i].ID == id {
			return true
		}
	}
	return false
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
		ID:         uuid.New().String(),
		Name:       req.Name,
		Agents:     members,
		EntryAgent: req.EntryAgent,
		CreatedBy:  createdBy,
		CreatedAt:  time.Now(),
	}
	m.teams = append(m.teams, t)
	return &t, nil
}

func (m *mockStore) GetTeam(_ context.Context, id string) (*team.Team, error) {
	for i := range m.teams {
		if m.teams[i].ID == id {
			return &m.teams[i], nil
		}
	}
	return nil, fmt.Errorf("team %s: %w", id, domain.ErrNotFound)
}

func (m *mockStore) ListTeams(_ context.Context, _ database.Page) ([]team.ListItem, error) {
	items := make([]team.ListItem, 0, len(m.teams))
	for i := range m.teams {
		t := &m.teams[i]
		items = append(items, team.ListItem{ID: t.ID, Name: t.Name, AgentCount: len(t.Agents), EntryAgent: t.EntryAgent})
	}
	return items, nil
}

func (m *mockStore) UpdateTeam(_ context.Context, id string, req team.UpdateRequest) (*team.Team, error) {
	t, err := m.GetTeam(context.Background(), id)
	if err != nil {
		return nil, err
	}
	agents := t.Agents
	entry := t.EntryAgent
	if req.Agents != nil {
		agents = agent.Dedupe(*req.Agents)
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
	t.Agents = agents
	t.EntryAgent = entry
	return t, nil
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
	t, err := m.GetTeam(ctx, id)
	if err != nil {
		return nil, err
	}
	resolved := &team.Resolved{ID: t.ID, Name: t.Name, EntryAgent: t.EntryAgent}
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
	if _, err := m.GetTeam(context.Background(), req.TeamID); err != nil {
		return nil, err
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

func (m *mockStore) ListConversations(_ context.Context, userID string, _ database.Page) ([]conversation.Conversation, error) {
	var out []conversation.Conversation
	for i := range m.conversations {
		if m.conversations[i].UserID == userID {
			out = append(out, m.conversations[i])
		}
	}
	return out, nil
}

func (m *mockStore) TransitionConversation(_ context.Context, id string, to conversation.Status) (*conversation.Conversation, error) {
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
	u := user.User{ID: uuid.New().String(), Name: req.Name, Email: req.Email}
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

func (m *mockStore) ListUsers(_ context.Context, _ database.Page) ([]user.User, error) {
	return m.users, nil
}

// mockEventStore implements eventstore.Store for testing.
type mockEventStore struct {
	events map[string][]event.Event
}

func (m *mockEventStore) Append(_ context.Context, conversationID string, req event.AppendRequest) (*event.Event, error) {
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
	var out []event.Event
	for _, ev := range m.events[conversationID] {
		if ev.Sequence > afterSequence {
			out = append(out, ev)
		}
	}
	return out, nil
}

type testEnv struct {
	store   *mockStore
	router  chi.Router
	ownerID string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := &mockStore{users: []user.User{{ID: "u1", Name: "Ada", Email: "ada@example.com"}}}

	users := service.NewUserService(store)
	teams := service.NewTeamService(store, nil, 0)
	agents := service.NewAgentService(store, teams)
	conversations := service.NewConversationService(store, nil, nil, nil, nil)
	events := service.NewEventService(&mockEventStore{}, store, nil, nil, nil, nil)

	h := aphttp.NewHandlers(agents, teams, conversations, events, users, config.Defaults().Limits)

	r := chi.NewRouter()
	r.Use(middleware.Identity(users))
	aphttp.MountRoutes(r, h)

	return &testEnv{store: store, router: r, ownerID: "u1"}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, asUser string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if asUser != "" {
		req.Header.Set("X-User-ID", asUser)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestCreateAgentEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/agents", agent.CreateRequest{
		Name:          "planner",
		SystemMessage: "You plan tasks.",
	}, env.ownerID)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	a := decode[agent.Agent](t, rec)
	if a.ID == "" || a.Name != "planner" {
		t.Fatalf("unexpected agent %+v", a)
	}

	// Duplicate name.
	rec = env.do(t, http.MethodPost, "/api/v1/agents", agent.CreateRequest{
		Name:          "planner",
		SystemMessage: "x",
	}, env.ownerID)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestCreateAgentValidation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/agents", agent.CreateRequest{Name: "planner"}, env.ownerID)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetAgentNotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/agents/ghost", nil, env.ownerID)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCreateTeamUnknownMember(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/teams", team.CreateRequest{
		Name:       "pipeline",
		Agents:     []string{"ghost"},
		EntryAgent: "ghost",
	}, env.ownerID)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func (e *testEnv) seedTeam(t *testing.T) team.Team {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/v1/agents", agent.CreateRequest{
		Name:          "planner",
		SystemMessage: "plan",
	}, e.ownerID)
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed agent: %d %s", rec.Code, rec.Body.String())
	}
	a := decode[agent.Agent](t, rec)

	rec = e.do(t, http.MethodPost, "/api/v1/teams", team.CreateRequest{
		Name:       "pipeline",
		Agents:     []string{a.ID},
		EntryAgent: a.ID,
	}, e.ownerID)
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed team: %d %s", rec.Code, rec.Body.String())
	}
	return decode[team.Team](t, rec)
}

func TestResolveTeamEndpoint(t *testing.T) {
	env := newTestEnv(t)
	tm := env.seedTeam(t)

	// The engine calls resolve without an identity header.
	rec := env.do(t, http.MethodGet, "/api/v1/teams/"+tm.ID+"/resolve", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resolved := decode[team.Resolved](t, rec)
	if len(resolved.Members) != 1 || resolved.Members[0].SystemMessage != "plan" {
		t.Fatalf("unexpected resolved team %+v", resolved)
	}
}

func TestConversationRequiresIdentity(t *testing.T) {
	env := newTestEnv(t)
	tm := env.seedTeam(t)

	rec := env.do(t, http.MethodPost, "/api/v1/conversations", conversation.CreateRequest{
		TeamID: tm.ID,
		Task:   "do it",
	}, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestConversationLifecycleEndpoints(t *testing.T) {
	env := newTestEnv(t)
	tm := env.seedTeam(t)

	rec := env.do(t, http.MethodPost, "/api/v1/conversations", conversation.CreateRequest{
		TeamID: tm.ID,
		Task:   "do it",
	}, env.ownerID)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	conv := decode[conversation.Conversation](t, rec)
	if conv.Status != conversation.StatusPending {
		t.Fatalf("expected pending, got %q", conv.Status)
	}

	// Engine transitions without identity.
	rec = env.do(t, http.MethodPost, "/api/v1/conversations/"+conv.ID+"/transition",
		conversation.TransitionRequest{Status: conversation.StatusRunning}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// Illegal edge maps to 409.
	rec = env.do(t, http.MethodPost, "/api/v1/conversations/"+conv.ID+"/transition",
		conversation.TransitionRequest{Status: conversation.StatusPending}, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}

	// Unknown status maps to 400.
	rec = env.do(t, http.MethodPost, "/api/v1/conversations/"+conv.ID+"/transition",
		map[string]string{"status": "warp"}, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestConversationOwnerScoping(t *testing.T) {
	env := newTestEnv(t)
	env.store.users = append(env.store.users, user.User{ID: "u2", Name: "Eve", Email: "eve@example.com"})
	tm := env.seedTeam(t)

	rec := env.do(t, http.MethodPost, "/api/v1/conversations", conversation.CreateRequest{
		TeamID: tm.ID,
		Task:   "do it",
	}, env.ownerID)
	conv := decode[conversation.Conversation](t, rec)

	// Another user sees 404, never 403.
	rec = env.do(t, http.MethodGet, "/api/v1/conversations/"+conv.ID, nil, "u2")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign owner, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/conversations/"+conv.ID, nil, env.ownerID)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for owner, got %d", rec.Code)
	}
}

func TestEventEndpoints(t *testing.T) {
	env := newTestEnv(t)
	tm := env.seedTeam(t)

	rec := env.do(t, http.MethodPost, "/api/v1/conversations", conversation.CreateRequest{
		TeamID: tm.ID,
		Task:   "do it",
	}, env.ownerID)
	conv := decode[conversation.Conversation](t, rec)

	// Engine appends without identity.
	rec = env.do(t, http.MethodPost, "/api/v1/conversations/"+conv.ID+"/events", event.AppendRequest{
		Type:      event.TypeTextMessage,
		AgentName: "planner",
		Data:      json.RawMessage(`{"content":"hello"}`),
	}, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	ev := decode[event.Event](t, rec)
	if ev.Sequence != 1 {
		t.Fatalf("expected sequence 1, got %d", ev.Sequence)
	}

	// Unknown event type.
	rec = env.do(t, http.MethodPost, "/api/v1/conversations/"+conv.ID+"/events",
		map[string]string{"event_type": "Bogus"}, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	// Owner reads the trace.
	rec = env.do(t, http.MethodGet, "/api/v1/conversations/"+conv.ID+"/events", nil, env.ownerID)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	events := decode[[]event.Event](t, rec)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
}

func TestDeleteAgentReferencedByTeam(t *testing.T) {
	env := newTestEnv(t)
	tm := env.seedTeam(t)

	rec := env.do(t, http.MethodDelete, "/api/v1/agents/"+tm.Agents[0], nil, env.ownerID)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 while referenced, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestDeleteTeamWithActiveConversation(t *testing.T) {
	env := newTestEnv(t)
	tm := env.seedTeam(t)

	rec := env.do(t, http.MethodPost, "/api/v1/conversations", conversation.CreateRequest{
		TeamID: tm.ID,
		Task:   "do it",
	}, env.ownerID)
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed conversation: %d", rec.Code)
	}

	rec = env.do(t, http.MethodDelete, "/api/v1/teams/"+tm.ID, nil, env.ownerID)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 with active conversation, got %d", rec.Code)
	}
}
