// Package user defines the User identity entity. Credentials and token
// handling live outside this core; the transport layer resolves the caller
// and conversations are scoped to the resolved user id.
package user

import (
	"fmt"
	"strings"
	"time"

	"github.com/agentput/agentput/internal/domain"
)

// User is an owner identity for conversations and a creator reference for
// agents and teams.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateRequest holds the fields needed to register a user identity.
type CreateRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Validate checks that a CreateRequest is well-formed.
func (r *CreateRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name is required: %w", domain.ErrValidation)
	}
	if !strings.Contains(r.Email, "@") {
		return fmt.Errorf("invalid email format: %w", domain.ErrValidation)
	}
	return nil
}
