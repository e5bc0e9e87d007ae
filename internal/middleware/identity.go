package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/agentput/agentput/internal/domain/user"
	"github.com/agentput/agentput/internal/service"
)

type identityCtxKey struct{}

const headerUserID = "X-User-ID"

// identityExempt reports whether the request accepts anonymous callers:
// health probes, the websocket upgrade, and user registration. Listing or
// reading users still requires an identity.
func identityExempt(r *http.Request) bool {
	switch r.URL.Path {
	case "/health", "/ws":
		return true
	case "/api/v1/users":
		return r.Method == http.MethodPost
	}
	return false
}

// engineExempt reports whether the request belongs to the engine-facing
// surface, which authenticates at the network boundary and carries no owner
// identity: status transitions, trace appends, and team graph resolution.
func engineExempt(r *http.Request) bool {
	path := r.URL.Path
	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(path, "/transition"):
		return strings.HasPrefix(path, "/api/v1/conversations/")
	case r.Method == http.MethodPost && strings.HasSuffix(path, "/events"):
		return strings.HasPrefix(path, "/api/v1/conversations/")
	case r.Method == http.MethodGet && strings.HasSuffix(path, "/resolve"):
		return strings.HasPrefix(path, "/api/v1/teams/")
	}
	return false
}

// Identity resolves the caller from the X-User-ID header against the user
// registry and stores the identity in the request context. Requests without
// a resolvable identity are rejected; ownership checks downstream rely on
// the id being real.
func Identity(users *service.UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if identityExempt(r) || engineExempt(r) {
				next.ServeHTTP(w, r)
				return
			}

			id := r.Header.Get(headerUserID)
			if id == "" {
				http.Error(w, `{"error":"X-User-ID header required"}`, http.StatusUnauthorized)
				return
			}

			u, err := users.Get(r.Context(), id)
			if err != nil {
				http.Error(w, `{"error":"unknown user"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), identityCtxKey{}, u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFrom returns the identity resolved by the Identity middleware, or nil
// when the request was exempt.
func UserFrom(ctx context.Context) *user.User {
	u, _ := ctx.Value(identityCtxKey{}).(*user.User)
	return u
}
