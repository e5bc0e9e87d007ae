package http

import (
	"github.com/agentput/agentput/internal/config"
	"github.com/agentput/agentput/internal/service"
)

// Handlers bundles the application services the HTTP layer dispatches to.
type Handlers struct {
	Agents        *service.AgentService
	Teams         *service.TeamService
	Conversations *service.ConversationService
	Events        *service.EventService
	Users         *service.UserService
	Limits        config.Limits
}

// NewHandlers creates the handler set.
func NewHandlers(agents *service.AgentService, teams *service.TeamService, conversations *service.ConversationService, events *service.EventService, users *service.UserService, limits config.Limits) *Handlers {
	return &Handlers{
		Agents:        agents,
		Teams:         teams,
		Conversations: conversations,
		Events:        events,
		Users:         users,
		Limits:        limits,
	}
}
