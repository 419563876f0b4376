package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/huntier-api/internal/domain"
	jwtinfra "github.com/huntier-api/internal/infrastructure/jwt"
	"github.com/stretchr/testify/assert"
)

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name    string
		role    string // empty means no claims in context
		allowed []string
		want    int
	}{
		{"no claims", "", []string{domain.RoleAdmin}, http.StatusUnauthorized},
		{"candidate on admin route", domain.RoleCandidate, []string{domain.RoleAdmin}, http.StatusForbidden},
		{"admin on admin route", domain.RoleAdmin, []string{domain.RoleAdmin}, http.StatusOK},
		{"any of several", domain.RoleCandidate, []string{domain.RoleAdmin, domain.RoleCandidate}, http.StatusOK},
		{"unknown role", "recruiter", []string{domain.RoleAdmin, domain.RoleCandidate}, http.StatusForbidden},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.role != "" {
				req = req.WithContext(WithClaims(req.Context(), &jwtinfra.Claims{UserID: "u1", Role: tc.role}))
			}
			rr := httptest.NewRecorder()
			RequireRole(tc.allowed...)(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)
			assert.Equal(t, tc.want, rr.Code)
		})
	}
}
