package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/agentboard/api/internal/db"
	"github.com/google/uuid"
)

// UserLookup resolves a token subject to a stored user.
type UserLookup interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*db.User, error)
}

// ErrorWriter renders an authentication failure.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// JWTMiddleware requires a valid bearer token whose subject is a stored user. Requests that
// fail any check are answered through onError and never reach next.
func JWTMiddleware(issuer *TokenIssuer, users UserLookup, onError ErrorWriter) func(http.Handler) http.Handler {
	if onError == nil {
		onError = func(w http.ResponseWriter, r *http.Request, err error) {
			if errors.Is(err, ErrUnauthorized) {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip auth for OPTIONS requests (CORS preflight)
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			tokenString, err := ExtractToken(r.Header.Get("Authorization"))
			if err != nil {
				onError(w, r, err)
				return
			}

			claims, err := issuer.Validate(tokenString)
			if err != nil {
				onError(w, r, err)
				return
			}

			userID, _ := claims.UserID()
			user, err := users.GetUserByID(r.Context(), userID)
			if errors.Is(err, db.ErrNotFound) {
				onError(w, r, fmt.Errorf("%w: subject does not resolve", ErrUnauthorized))
				return
			}
			if err != nil {
				// Store failures are not credential failures; next is still never reached.
				onError(w, r, fmt.Errorf("failed to resolve token subject: %w", err))
				return
			}

			ctx := SetUser(r.Context(), user)
			ctx = SetClaims(ctx, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
