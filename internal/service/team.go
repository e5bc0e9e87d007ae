package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/agentput/agentput/internal/domain/team"
	"github.com/agentput/agentput/internal/port/cache"
	"github.com/agentput/agentput/internal/port/database"
)

// TeamService handles team graphs: ordered agent rosters with a designated
// entry point. Resolved graphs (full member definitions) are cached because
// the engine fetches them on every conversation start.
type TeamService struct {
	store database.Store
	cache cache.Cache
	ttl   time.Duration

	// gen is bumped on every agent write so that stale resolved graphs
	// stop being addressable without enumerating cache keys.
	gen   atomic.Int64
	group singleflight.Group
}

// NewTeamService creates a new TeamService. cache may be nil, in which case
// every Resolve hits the store.
func NewTeamService(store database.Store, c cache.Cache, ttl time.Duration) *TeamService {
	return &TeamService{store: store, cache: c, ttl: ttl}
}

// Create stores a new team after validating each member agent exists and the
// entry agent is a member.
func (s *TeamService) Create(ctx context.Context, createdBy string, req team.CreateRequest) (*team.Team, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.store.CreateTeam(ctx, createdBy, req)
}

// Get returns a team by id.
func (s *TeamService) Get(ctx context.Context, id string) (*team.Team, error) {
	return s.store.GetTeam(ctx, id)
}

// List returns a page of teams, newest first.
func (s *TeamService) List(ctx context.Context, page database.Page) ([]team.ListItem, error) {
	return s.store.ListTeams(ctx, page)
}

// Update applies a partial update, re-validating membership rules against
// the effective member set.
func (s *TeamService) Update(ctx context.Context, id string, req team.UpdateRequest) (*team.Team, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	updated, err := s.store.UpdateTeam(ctx, id, req)
	if err != nil {
		return nil, fmt.Errorf("update team: %w", err)
	}
	s.invalidate(id)
	return updated, nil
}

// Delete removes a team. The store rejects the delete while any non-terminal
// conversation still runs on it.
func (s *TeamService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteTeam(ctx, id); err != nil {
		return err
	}
	s.invalidate(id)
	return nil
}

// Resolve returns the team with its member agent definitions expanded in
// roster order. Concurrent resolves of the same team are collapsed into a
// single store round trip.
func (s *TeamService) Resolve(ctx context.Context, id string) (*team.Resolved, error) {
	key := s.resolveKey(id)
	if s.cache != nil {
		if raw, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			var resolved team.Resolved
			if err := json.Unmarshal(raw, &resolved); err == nil {
				return &resolved, nil
			}
			_ = s.cache.Delete(ctx, key)
		}
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		resolved, err := s.store.ResolveTeam(ctx, id)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if raw, err := json.Marshal(resolved); err == nil {
				_ = s.cache.Set(ctx, key, raw, s.ttl)
			}
		}
		return resolved, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*team.Resolved), nil
}

// InvalidateResolved drops every cached resolved graph. Called when agent
// definitions change, since any team may embed them.
func (s *TeamService) InvalidateResolved() {
	s.gen.Add(1)
}

func (s *TeamService) invalidate(id string) {
	if s.cache != nil {
		_ = s.cache.Delete(context.Background(), s.resolveKey(id))
	}
}

func (s *TeamService) resolveKey(id string) string {
	return fmt.Sprintf("team:resolve:%d:%s", s.gen.Load(), id)
}
