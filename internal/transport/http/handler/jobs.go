package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/huntier-api/internal/application/job"
	"github.com/huntier-api/internal/domain"
)

type JobHandler struct {
	svc job.Service
}

func NewJobHandler(svc job.Service) *JobHandler { return &JobHandler{svc: svc} }

// List serves the public job board. Closed postings are hidden.
func (h *JobHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, false)
}

// ListAll is the admin listing, closed postings included.
func (h *JobHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true)
}

func (h *JobHandler) list(w http.ResponseWriter, r *http.Request, includeClosed bool) {
	page, perPage := parsePagination(r)
	p, err := h.svc.List(r.Context(), jobFilter(r, includeClosed), page, perPage)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(p.Items, p.Total, p.Page, p.PerPage))
}

func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	j, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DataEnvelope{Data: j})
}

func (h *JobHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateJobRequest
	if !decode(w, r, &req) {
		return
	}
	j, err := h.svc.Create(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, DataEnvelope{Data: j})
}

func (h *JobHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status" validate:"required,oneof=open closed"`
	}
	if !decode(w, r, &req) {
		return
	}
	j, err := h.svc.SetStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DataEnvelope{Data: j})
}

// jobFilter reads q, location, employment_type, remote and language from the query string.
func jobFilter(r *http.Request, includeClosed bool) domain.JobFilter {
	q := r.URL.Query()
	f := domain.JobFilter{
		Query:          strings.TrimSpace(q.Get("q")),
		Location:       strings.TrimSpace(q.Get("location")),
		EmploymentType: q.Get("employment_type"),
		Remote:         q.Get("remote"),
		IncludeClosed:  includeClosed,
	}
	if l, ok := domain.ParseLocale(q.Get("language")); ok {
		f.Language = string(l)
	}
	return f
}
