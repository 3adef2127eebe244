package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

var errNoToken = errors.New("auth: missing bearer token")

// contextKey is an unexported type for context keys in this package.
//
// Using a package-private type (instead of a plain string) means no other
// package can read or shadow the identity we store in the context — only
// code in this package can create a key of this type.
type contextKey string

const identityKey contextKey = "identity"

// RequireAuth enforces authentication on the song routes.
//
// It reads the JWT from the Authorization header ("Bearer <token>"),
// validates it, and stores the caller's Identity in the request context.
// Missing, malformed, expired, or tampered tokens get a 401 envelope and
// the request never reaches the handler — or the store.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := extractIdentity(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"success":false,"message":"Access denied. Valid authentication token required."}`))
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext retrieves the authenticated caller from the request
// context. The second return is false for anonymous requests — which, on
// routes behind RequireAuth, indicates a wiring bug rather than a user
// error.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok && id.UserID != ""
}

// extractIdentity reads and validates the bearer token.
func extractIdentity(r *http.Request, tokens *TokenService) (Identity, error) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return Identity{}, errNoToken
	}

	return tokens.Validate(strings.TrimSpace(token))
}
