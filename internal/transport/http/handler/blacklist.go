package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/huntier-api/internal/application/blacklist"
	"github.com/huntier-api/internal/domain"
	"github.com/huntier-api/internal/pkg/contact"
	appmw "github.com/huntier-api/internal/transport/http/middleware"
)

// BlacklistHandler lets admins inspect and lift contact blocks.
type BlacklistHandler struct {
	svc blacklist.Service
}

func NewBlacklistHandler(svc blacklist.Service) *BlacklistHandler { return &BlacklistHandler{svc: svc} }

func (h *BlacklistHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	items, next, err := h.svc.List(r.Context(), int32(limit), r.URL.Query().Get("cursor"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": items, "next_cursor": next})
}

func (h *BlacklistHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := contactParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	e, err := h.svc.Get(r.Context(), c.Value)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DataEnvelope{Data: e})
}

func (h *BlacklistHandler) Block(w http.ResponseWriter, r *http.Request) {
	var req domain.BlockRequest
	if !decode(w, r, &req) {
		return
	}
	c, err := contact.Parse(req.Contact)
	if err != nil {
		respondError(w, r, err)
		return
	}
	actor := domain.BlockedBySystem
	if claims, ok := appmw.ClaimsFromContext(r.Context()); ok {
		actor = claims.UserID
	}
	e, err := h.svc.Block(r.Context(), c.Value, req.Reason, time.Duration(req.DurationMinutes)*time.Minute, actor)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, DataEnvelope{Data: e})
}

func (h *BlacklistHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	c, err := contactParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.svc.Unblock(r.Context(), c.Value); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "contact unblocked"})
}

// contactParam reads the {contact} path segment. Clients may percent-encode
// the leading "+" of a phone number or the "@" of an address.
func contactParam(r *http.Request) (domain.Contact, error) {
	raw, err := url.PathUnescape(chi.URLParam(r, "contact"))
	if err != nil {
		return domain.Contact{}, fmt.Errorf("malformed contact: %w", domain.ErrBadRequest)
	}
	return contact.Parse(raw)
}
