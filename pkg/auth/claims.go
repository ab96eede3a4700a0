// Package auth provides JWT-based authentication for internmatch-engine.
// Tokens are self-issued with an HMAC secret; the middleware resolves the
// subject to a live account on every request so role changes take effect
// on the next call, not at token expiry.
package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/internmatch/internmatch-engine/pkg/apperrors"
	"github.com/internmatch/internmatch-engine/pkg/models"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// ActorKey is the context key for the authenticated user.
	ActorKey contextKey = "actor"
	// ClaimsKey is the context key for the parsed JWT claims.
	ClaimsKey contextKey = "claims"
)

// Claims is the token payload. Subject carries the user id in decimal;
// the role claim is informational only, authorization always consults
// the account's current role.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

// ActorFromContext retrieves the authenticated user from the request
// context. Returns nil and false if the request is unauthenticated.
func ActorFromContext(ctx context.Context) (*models.User, bool) {
	actor, ok := ctx.Value(ActorKey).(*models.User)
	return actor, ok
}

// RequireActor is ActorFromContext with an error for required paths.
func RequireActor(ctx context.Context) (*models.User, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor == nil {
		return nil, fmt.Errorf("no authenticated user in context: %w", apperrors.ErrUnauthenticated)
	}
	return actor, nil
}

// ClaimsFromContext retrieves the parsed JWT claims from the request
// context. Returns nil and false if claims are not present.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*Claims)
	return claims, ok
}
