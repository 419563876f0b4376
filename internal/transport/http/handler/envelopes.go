package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/huntier-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
}

// ErrorEnvelope is written for every failed request.
type ErrorEnvelope struct {
	Error             string            `json:"error"`
	Fields            map[string]string `json:"fields,omitempty"`
	RetryAfter        int               `json:"retry_after,omitempty"`
	AttemptsRemaining *int              `json:"attempts_remaining,omitempty"`
}

// AuthEnvelope wraps sign-in and refresh responses.
type AuthEnvelope struct {
	AccessToken      string          `json:"access_token"`
	AccessExpiresAt  time.Time       `json:"access_expires_at"`
	RefreshToken     string          `json:"refresh_token"`
	RefreshExpiresAt time.Time       `json:"refresh_expires_at"`
	Session          *domain.Session `json:"session,omitempty"`
	User             *domain.User    `json:"user,omitempty"`
	NewUser          bool            `json:"new_user,omitempty"`
}

// SessionEnvelope wraps current-session responses.
type SessionEnvelope struct {
	Session *domain.Session `json:"session"`
	User    *domain.User    `json:"user,omitempty"`
}

// DataEnvelope wraps a single resource or a list.
type DataEnvelope struct {
	Data any `json:"data"`
}

// PageEnvelope wraps paginated list responses.
type PageEnvelope struct {
	Data       any `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalPages int `json:"total_pages"`
}

func newPage(data any, total, page, perPage int) PageEnvelope {
	pages := 0
	if perPage > 0 {
		pages = (total + perPage - 1) / perPage
	}
	return PageEnvelope{Data: data, Total: total, Page: page, PerPage: perPage, TotalPages: pages}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorEnvelope{Error: msg})
}
