package auth

import (
	"context"

	"github.com/agentboard/api/internal/db"
)

/* Context key types for type-safe context values */
type contextKey string

const (
	userKey   contextKey = "user"
	claimsKey contextKey = "claims"
)

/* SetUser stores the authenticated user in ctx */
func SetUser(ctx context.Context, user *db.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

/* GetUserFromContext gets the authenticated user from context */
func GetUserFromContext(ctx context.Context) (*db.User, bool) {
	user, ok := ctx.Value(userKey).(*db.User)
	return user, ok && user != nil
}

/* GetUsernameFromContext gets the authenticated username from context */
func GetUsernameFromContext(ctx context.Context) (string, bool) {
	user, ok := GetUserFromContext(ctx)
	if !ok {
		return "", false
	}
	return user.Username, true
}

/* SetClaims sets claims in context */
func SetClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

/* GetClaimsFromContext gets the claims from context */
func GetClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok
}
