package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"taskjar/internal/security"
	"taskjar/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ActorContextKey holds the authenticated caller's identity
const ActorContextKey ContextKey = "actor"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	tokens  *security.TokenIssuer
	limiter *security.RateLimiter
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(tokens *security.TokenIssuer, limiter *security.RateLimiter) *Middleware {
	return &Middleware{
		tokens:  tokens,
		limiter: limiter,
	}
}

// RequireParent requires a valid parent bearer token
func (m *Middleware) RequireParent(next http.HandlerFunc) http.HandlerFunc {
	return m.requireRole(next, security.RoleParent)
}

// RequireChild requires a valid child bearer token
func (m *Middleware) RequireChild(next http.HandlerFunc) http.HandlerFunc {
	return m.requireRole(next, security.RoleChild)
}

// RequireAuth requires any valid bearer token, parent or child
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return m.requireRole(next, "")
}

func (m *Middleware) requireRole(next http.HandlerFunc, role string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := m.verifyBearer(w, r)
		if !ok {
			return
		}
		if role != "" && claims.Role != role {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}

		actor := service.Actor{ID: claims.SubjectID, Role: claims.Role}
		ctx := context.WithValue(r.Context(), ActorContextKey, actor)
		next(w, r.WithContext(ctx))
	}
}

func (m *Middleware) verifyBearer(w http.ResponseWriter, r *http.Request) (*security.TokenClaims, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return nil, false
	}

	claims, err := m.tokens.Verify(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid or expired token")
		return nil, false
	}

	return claims, true
}

// RateLimit rejects requests from IPs that exceed the login rate limit
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := security.GetClientIP(r)
		if !m.limiter.Allow(ip) {
			writeError(w, http.StatusTooManyRequests, "too many requests, slow down")
			return
		}
		next(w, r)
	}
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

// GetActorFromContext retrieves the authenticated caller from the request context
func GetActorFromContext(ctx context.Context) (service.Actor, bool) {
	actor, ok := ctx.Value(ActorContextKey).(service.Actor)
	return actor, ok
}
