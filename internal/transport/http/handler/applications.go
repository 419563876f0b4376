package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/huntier-api/internal/application/application"
	"github.com/huntier-api/internal/domain"
)

type ApplicationHandler struct {
	svc application.Service
}

func NewApplicationHandler(svc application.Service) *ApplicationHandler {
	return &ApplicationHandler{svc: svc}
}

func (h *ApplicationHandler) Apply(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req domain.ApplyRequest
	if !decode(w, r, &req) {
		return
	}
	a, err := h.svc.Apply(r.Context(), uid, req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, DataEnvelope{Data: a})
}

func (h *ApplicationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	page, perPage := parsePagination(r)
	p, err := h.svc.ListMine(r.Context(), uid, page, perPage)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(p.Items, p.Total, p.Page, p.PerPage))
}

func (h *ApplicationHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	a, err := h.svc.Get(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DataEnvelope{Data: a})
}

func (h *ApplicationHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	a, err := h.svc.Withdraw(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DataEnvelope{Data: a})
}

// UpdateStatus is admin only.
func (h *ApplicationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateApplicationStatusRequest
	if !decode(w, r, &req) {
		return
	}
	a, err := h.svc.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DataEnvelope{Data: a})
}
