package service

import (
	"context"

	"github.com/agentput/agentput/internal/domain/user"
	"github.com/agentput/agentput/internal/port/database"
)

// UserService handles user identities. Identities scope conversation
// ownership; there are no credentials here.
type UserService struct {
	store database.Store
}

// NewUserService creates a new UserService.
func NewUserService(store database.Store) *UserService {
	return &UserService{store: store}
}

// Create registers a new user identity.
func (s *UserService) Create(ctx context.Context, req user.CreateRequest) (*user.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.store.CreateUser(ctx, req)
}

// Get returns a user by id.
func (s *UserService) Get(ctx context.Context, id string) (*user.User, error) {
	return s.store.GetUser(ctx, id)
}

// List returns a page of users.
func (s *UserService) List(ctx context.Context, page database.Page) ([]user.User, error) {
	return s.store.ListUsers(ctx, page)
}
