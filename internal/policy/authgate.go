package policy

import (
	"context"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/kaino/kaino-api/auth"
	"github.com/kaino/kaino-api/gate"
	"github.com/kaino/kaino-api/httpx"
)

// AuthGate is the single authorization checkpoint for the HTTP surface.
// Every guarded route declares its gate.Requirement statically and wraps
// itself in Require; no handler re-implements permission logic.
type AuthGate struct {
	Resolver *gate.CachedResolver
}

// NewAuthGate creates the gate with a DB-backed resolver wrapped in a TTL
// cache so authorization does not query the store on every request.
func NewAuthGate(db *gorm.DB, cacheTTL time.Duration) *AuthGate {
	return &AuthGate{
		Resolver: gate.NewCachedResolver(NewDBGrantResolver(db), cacheTTL),
	}
}

// Authorize checks the current user against a requirement.
// Unauthenticated requests never reach this point: auth.RequireAuth runs
// earlier in the chain.
func (ag *AuthGate) Authorize(ctx context.Context, req gate.Requirement) error {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return gate.ErrPermissionDenied
	}
	role, grants, err := ag.Resolver.Resolve(ctx, userID)
	if err != nil {
		return gate.ErrPermissionDenied
	}
	return gate.Authorize(role, grants, req)
}

// Require returns middleware enforcing the requirement with a 403 JSON
// response on deny.
func (ag *AuthGate) Require(req gate.Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := ag.Authorize(r.Context(), req); err != nil {
				httpx.JSONError(w, http.StatusForbidden, "permission_denied", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// InvalidateUser clears the grant cache for one user.
// Call this when a user's role or permissions change.
func (ag *AuthGate) InvalidateUser(userID uint) {
	ag.Resolver.Invalidate(userID)
}

// InvalidateAll clears the entire grant cache.
func (ag *AuthGate) InvalidateAll() {
	ag.Resolver.InvalidateAll()
}
