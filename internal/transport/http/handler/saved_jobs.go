package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/huntier-api/internal/application/savedjob"
)

type SavedJobHandler struct {
	svc savedjob.Service
}

func NewSavedJobHandler(svc savedjob.Service) *SavedJobHandler { return &SavedJobHandler{svc: svc} }

func (h *SavedJobHandler) Save(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	sj, err := h.svc.Save(r.Context(), uid, chi.URLParam(r, "jobID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DataEnvelope{Data: sj})
}

func (h *SavedJobHandler) Remove(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Remove(r.Context(), uid, chi.URLParam(r, "jobID")); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "job removed from saved list"})
}

func (h *SavedJobHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	page, perPage := parsePagination(r)
	p, err := h.svc.List(r.Context(), uid, page, perPage)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(p.Items, p.Total, p.Page, p.PerPage))
}

func (h *SavedJobHandler) IsSaved(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	saved, err := h.svc.IsSaved(r.Context(), uid, chi.URLParam(r, "jobID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"saved": saved})
}
