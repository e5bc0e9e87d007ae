// Package agent defines the Agent domain entity: a named, reusable behavior
// specification (system prompt, allowed handoff targets, allowed tools).
package agent

import (
	"fmt"
	"strings"
	"time"

	"github.com/agentput/agentput/internal/domain"
)

const maxNameLength = 100

// Agent represents a reusable agent definition. Handoffs reference other
// agents by name; tools are opaque identifiers consumed by the execution
// engine.
type Agent struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	SystemMessage string    `json:"system_message"`
	Handoffs      []string  `json:"handoffs"`
	Tools         []string  `json:"tools"`
	CreatedBy     string    `json:"created_by,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ListItem is the reduced projection returned by list endpoints.
type ListItem struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	CreatedBy    string    `json:"created_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	HandoffCount int       `json:"handoff_count"`
	ToolCount    int       `json:"tool_count"`
}

// CreateRequest holds the fields needed to create a new agent.
type CreateRequest struct {
	Name          string   `json:"name"`
	SystemMessage string   `json:"system_message"`
	Handoffs      []string `json:"handoffs"`
	Tools         []string `json:"tools"`
}

// UpdateRequest holds a partial update. Nil fields are left unchanged.
type UpdateRequest struct {
	Name          *string   `json:"name"`
	SystemMessage *string   `json:"system_message"`
	Handoffs      *[]string `json:"handoffs"`
	Tools         *[]string `json:"tools"`
}

// Validate checks that a CreateRequest is well-formed.
func (r *CreateRequest) Validate() error {
	if err := validateName(r.Name); err != nil {
		return err
	}
	if strings.TrimSpace(r.SystemMessage) == "" {
		return fmt.Errorf("system_message is required: %w", domain.ErrValidation)
	}
	return nil
}

// Validate checks that an UpdateRequest is well-formed.
func (r *UpdateRequest) Validate() error {
	if r.Name != nil {
		if err := validateName(*r.Name); err != nil {
			return err
		}
	}
	if r.SystemMessage != nil && strings.TrimSpace(*r.SystemMessage) == "" {
		return fmt.Errorf("system_message cannot be empty: %w", domain.ErrValidation)
	}
	return nil
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name is required: %w", domain.ErrValidation)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("name exceeds %d characters: %w", maxNameLength, domain.ErrValidation)
	}
	return nil
}

// Dedupe removes duplicate identifiers while preserving first-occurrence
// order. A nil slice becomes an empty one so JSON renders [] instead of null.
func Dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
