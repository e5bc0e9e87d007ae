// Package team defines the Team domain entity: a validated composition of
// agents with one designated entry point.
package team

import (
	"fmt"
	"strings"
	"time"

	"github.com/agentput/agentput/internal/domain"
	"github.com/agentput/agentput/internal/domain/agent"
)

const maxNameLength = 100

// Team groups agents under a named composition. Agents holds member agent
// ids; EntryAgent must always be one of them.
type Team struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Agents      []string  `json:"agents"`
	EntryAgent  string    `json:"entry_agent"`
	CreatedBy   string    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListItem is the reduced projection returned by list endpoints. AgentCount
// is derived from the member set at read time, never stored.
type ListItem struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	AgentCount  int       `json:"agent_count"`
	EntryAgent  string    `json:"entry_agent"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateRequest holds the fields needed to create a new team.
type CreateRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Agents      []string `json:"agents"`
	EntryAgent  string   `json:"entry_agent"`
}

// UpdateRequest holds a partial update. Nil fields are left unchanged.
type UpdateRequest struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Agents      *[]string `json:"agents"`
	EntryAgent  *string   `json:"entry_agent"`
}

// Validate checks the request fields that don't require registry lookups.
// Agent existence is checked by the service inside the write transaction.
func (r *CreateRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name is required: %w", domain.ErrValidation)
	}
	if len(r.Name) > maxNameLength {
		return fmt.Errorf("name exceeds %d characters: %w", maxNameLength, domain.ErrValidation)
	}
	if len(agent.Dedupe(r.Agents)) == 0 {
		return fmt.Errorf("at least one agent is required: %w", domain.ErrValidation)
	}
	if r.EntryAgent == "" {
		return fmt.Errorf("entry_agent is required: %w", domain.ErrValidation)
	}
	return nil
}

// Validate checks an UpdateRequest's field-level constraints.
func (r *UpdateRequest) Validate() error {
	if r.Name != nil {
		if strings.TrimSpace(*r.Name) == "" {
			return fmt.Errorf("name cannot be empty: %w", domain.ErrValidation)
		}
		if len(*r.Name) > maxNameLength {
			return fmt.Errorf("name exceeds %d characters: %w", maxNameLength, domain.ErrValidation)
		}
	}
	if r.Agents != nil && len(agent.Dedupe(*r.Agents)) == 0 {
		return fmt.Errorf("at least one agent is required: %w", domain.ErrValidation)
	}
	if r.EntryAgent != nil && *r.EntryAgent == "" {
		return fmt.Errorf("entry_agent cannot be empty: %w", domain.ErrValidation)
	}
	return nil
}

// CheckEntry verifies the entry agent is an element of the member set.
func CheckEntry(entryAgent string, agents []string) error {
	for _, id := range agents {
		if id == entryAgent {
			return nil
		}
	}
	return fmt.Errorf("entry agent %s is not a team member: %w", entryAgent, domain.ErrValidation)
}

// Resolved is the read-model the execution engine consumes: the entry point
// plus every member's behavior, handoff edges, and tool list.
type Resolved struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	EntryAgent string          `json:"entry_agent"`
	Members    []ResolvedAgent `json:"members"`
}

// ResolvedAgent is one member of a resolved team graph.
type ResolvedAgent struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	SystemMessage string   `json:"system_message"`
	Handoffs      []string `json:"handoffs"`
	Tools         []string `json:"tools"`
}
