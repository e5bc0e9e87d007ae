// Package conversation defines the Conversation entity and its lifecycle
// state machine.
package conversation

import (
	"fmt"
	"strings"
	"time"

	"github.com/agentput/agentput/internal/domain"
)

// Status is the lifecycle state of a conversation.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// transitions is the edge table of the lifecycle state machine, keyed by
// target status. A transition is legal iff the current status appears in the
// target's source set.
var transitions = map[Status][]Status{
	StatusRunning:   {StatusPending},
	StatusCompleted: {StatusRunning},
	StatusFailed:    {StatusRunning},
	StatusCancelled: {StatusPending, StatusRunning},
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusRunning, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal returns true once no further transitions are permitted.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Sources returns the set of statuses from which target may be entered.
// An empty set means target is never a transition destination (pending is
// initial-only).
func Sources(target Status) []Status {
	return transitions[target]
}

// CanTransition reports whether from→to is an edge of the state machine.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[to] {
		if s == from {
			return true
		}
	}
	return false
}

// CheckTransition validates a requested edge, wrapping ErrInvalidTransition
// with both endpoints so the caller can surface the rejected edge.
func CheckTransition(from, to Status) error {
	if !to.Valid() {
		return fmt.Errorf("unknown status %q: %w", to, domain.ErrValidation)
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%s -> %s: %w", from, to, domain.ErrInvalidTransition)
	}
	return nil
}

// Conversation is one execution instance of a task against a team. TeamID
// and Task are fixed at creation.
type Conversation struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	TeamID      string     `json:"team_id"`
	Task        string     `json:"task"`
	Status      Status     `json:"status"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

// CreateRequest holds the fields needed to open a conversation.
type CreateRequest struct {
	TeamID string `json:"team_id"`
	Task   string `json:"task"`
}

// Validate checks field-level constraints; team existence is verified by the
// service against the store.
func (r *CreateRequest) Validate() error {
	if r.TeamID == "" {
		return fmt.Errorf("team_id is required: %w", domain.ErrValidation)
	}
	if strings.TrimSpace(r.Task) == "" {
		return fmt.Errorf("task is required: %w", domain.ErrValidation)
	}
	return nil
}

// TransitionRequest is the engine-facing request to advance a conversation.
type TransitionRequest struct {
	Status Status `json:"status"`
}
