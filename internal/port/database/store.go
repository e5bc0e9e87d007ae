// Package database defines the database store port (interface).
package database

import (
	"context"

	"github.com/agentput/agentput/internal/domain/agent"
	"github.com/agentput/agentput/internal/domain/conversation"
	"github.com/agentput/agentput/internal/domain/team"
	"github.com/agentput/agentput/internal/domain/user"
)

// Page bounds a list query. Offset is 0-based; Limit is clamped by the
// implementation.
type Page struct {
	Offset int
	Limit  int
}

// Store is the port interface for database operations. Implementations must
// run multi-step validations (team member existence, entry agent membership,
// name uniqueness) inside the same transaction as the guarded write.
type Store interface {
	// Agents
	CreateAgent(ctx context.Context, createdBy string, req agent.CreateRequest) (*agent.Agent, error)
	GetAgent(ctx context.Context, id string) (*agent.Agent, error)
	ListAgents(ctx context.Context, page Page) ([]agent.ListItem, error)
	ListAvailableAgents(ctx context.Context) ([]agent.ListItem, error)
	UpdateAgent(ctx context.Context, id string, req agent.UpdateRequest) (*agent.Agent, error)
	DeleteAgent(ctx context.Context, id string) error

	// Teams
	CreateTeam(ctx context.Context, createdBy string, req team.CreateRequest) (*team.Team, error)
	GetTeam(ctx context.Context, id string) (*team.Team, error)
	ListTeams(ctx context.Context, page Page) ([]team.ListItem, error)
	UpdateTeam(ctx context.Context, id string, req team.UpdateRequest) (*team.Team, error)
	DeleteTeam(ctx context.Context, id string) error
	ResolveTeam(ctx context.Context, id string) (*team.Resolved, error)

	// Conversations
	CreateConversation(ctx context.Context, userID string, req conversation.CreateRequest) (*conversation.Conversation, error)
	GetConversation(ctx context.Context, userID, id string) (*conversation.Conversation, error)
	ListConversations(ctx context.Context, userID string, page Page) ([]conversation.Conversation, error)
	TransitionConversation(ctx context.Context, id string, to conversation.Status) (*conversation.Conversation, error)
	DeleteConversation(ctx context.Context, userID, id string) error

	// Users
	CreateUser(ctx context.Context, req user.CreateRequest) (*user.User, error)
	GetUser(ctx context.Context, id string) (*user.User, error)
	ListUsers(ctx context.Context, page Page) ([]user.User, error)
}
