package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/internmatch/internmatch-engine/pkg/apperrors"
	"github.com/internmatch/internmatch-engine/pkg/models"
	"github.com/internmatch/internmatch-engine/pkg/repositories"
)

// Middleware authenticates requests with a Bearer token and resolves the
// subject to a live account. Handlers downstream read the actor from the
// request context.
type Middleware struct {
	tokens *TokenService
	users  repositories.UserRepository
	logger *zap.Logger
}

// NewMiddleware creates a new auth middleware.
func NewMiddleware(tokens *TokenService, users repositories.UserRepository, logger *zap.Logger) *Middleware {
	return &Middleware{
		tokens: tokens,
		users:  users,
		logger: logger,
	}
}

// RequireAuth validates the Bearer token and loads the current account.
// The account is loaded fresh so a role change applies to the very next
// request carrying an older token.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString, ok := bearerToken(r)
		if !ok {
			m.unauthorized(w, "Authentication required")
			return
		}

		userID, claims, err := m.tokens.Parse(tokenString)
		if err != nil {
			m.unauthorized(w, "Invalid or expired token")
			return
		}

		actor, err := m.users.GetByID(r.Context(), userID)
		if err != nil {
			if !errors.Is(err, apperrors.ErrNotFound) {
				m.logger.Error("failed to load authenticated user",
					zap.Int64("user_id", userID),
					zap.Error(err))
			}
			m.unauthorized(w, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), ActorKey, actor)
		ctx = context.WithValue(ctx, ClaimsKey, claims)
		next(w, r.WithContext(ctx))
	}
}

// RequireRole wraps RequireAuth and additionally requires the account's
// current role to be one of the given roles.
func (m *Middleware) RequireRole(roles ...models.Role) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
			actor, _ := ActorFromContext(r.Context())
			for _, role := range roles {
				if actor.Role == role {
					next(w, r)
					return
				}
			}
			m.forbidden(w, "Insufficient role")
		})
	}
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return header[len(prefix):], true
}

// unauthorized returns a 401 response with JSON error body.
func (m *Middleware) unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "unauthorized",
		"message": message,
	})
}

// forbidden returns a 403 response with JSON error body.
func (m *Middleware) forbidden(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "forbidden",
		"message": message,
	})
}
