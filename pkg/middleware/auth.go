// Package middleware provides authentication middleware for the HTTP API.
package middleware

import (
	"net/http"
	"strings"

	"github.com/platinummonkey/brandhub/pkg/auth"
	"github.com/platinummonkey/brandhub/pkg/contextkeys"
	"github.com/platinummonkey/brandhub/pkg/httputil"
)

// TokenValidator resolves a bearer token to a verified caller identity.
type TokenValidator interface {
	ValidateToken(token string) (*auth.AuthContext, error)
}

// AuthMiddleware provides bearer-token authentication.
//
// In optional mode requests without credentials pass through without an
// AuthContext; handlers on the public invitation surface (get-by-token,
// decline) accept those, everything else rejects them via GetAuthContext.
type AuthMiddleware struct {
	validator TokenValidator
	optional  bool
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(validator TokenValidator, optional bool) *AuthMiddleware {
	return &AuthMiddleware{
		validator: validator,
		optional:  optional,
	}
}

// Handler wraps an HTTP handler with authentication
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Format: "Bearer <token>"
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			if m.optional {
				next.ServeHTTP(w, r)
				return
			}
			httputil.WriteUnauthorized(w, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			httputil.WriteUnauthorized(w, "invalid authorization header format")
			return
		}

		authCtx, err := m.validator.ValidateToken(parts[1])
		if err != nil {
			httputil.WriteUnauthorized(w, "invalid or expired token")
			return
		}

		ctx := contextkeys.WithAuth(r.Context(), authCtx)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetAuthContext extracts the caller identity from a request, or nil when the
// request is unauthenticated.
func GetAuthContext(r *http.Request) *auth.AuthContext {
	if authCtx, ok := r.Context().Value(contextkeys.AuthKey).(*auth.AuthContext); ok {
		return authCtx
	}
	return nil
}
