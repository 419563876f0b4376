package middleware

import (
	"context"
	"net/http"
	"strings"

	jwtinfra "github.com/huntier-api/internal/infrastructure/jwt"
)

type contextKey string

const claimsKey contextKey = "claims"

// AccessCookie carries the access token for browser clients.
const AccessCookie = "huntier_access"

// TokenVerifier parses and validates an access token.
type TokenVerifier interface {
	Verify(token string) (*jwtinfra.Claims, error)
}

// SessionChecker reports an error unless the session is still signed in.
type SessionChecker interface {
	Active(ctx context.Context, sessionID string) error
}

// Auth validates the access token from the Authorization header or the access
// cookie, rejects tokens whose session was signed out, and injects claims into
// the request context.
func Auth(verifier TokenVerifier, sessions SessionChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := bearerToken(r)
			if tokenStr == "" {
				writeJSONError(w, http.StatusUnauthorized, "missing access token")
				return
			}
			claims, err := verifier.Verify(tokenStr)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			if err := sessions.Active(r.Context(), claims.SessionID); err != nil {
				writeJSONError(w, http.StatusUnauthorized, "session signed out")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if strings.HasPrefix(h, "Bearer ") {
			return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		}
		return ""
	}
	if c, err := r.Cookie(AccessCookie); err == nil {
		return c.Value
	}
	return ""
}

// WithClaims returns ctx carrying claims.
func WithClaims(ctx context.Context, claims *jwtinfra.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext extracts JWT claims from the request context.
func ClaimsFromContext(ctx context.Context) (*jwtinfra.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*jwtinfra.Claims)
	return c, ok
}
