package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/huntier-api/internal/application/profile"
	"github.com/huntier-api/internal/domain"
	appmw "github.com/huntier-api/internal/transport/http/middleware"
)

// ProfileHandler handles the candidate profile, onboarding and secondary
// contact verification.
type ProfileHandler struct {
	svc profile.Service
}

func NewProfileHandler(svc profile.Service) *ProfileHandler { return &ProfileHandler{svc: svc} }

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	p, err := h.svc.GetProfile(r.Context(), uid)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DataEnvelope{Data: p})
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req domain.UpdateProfileRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.svc.UpdateProfile(r.Context(), uid, req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DataEnvelope{Data: p})
}

func (h *ProfileHandler) OnboardingStatus(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	st, err := h.svc.OnboardingStatus(r.Context(), uid)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DataEnvelope{Data: st})
}

// SubmitStep dispatches /onboarding/{step} to the matching step.
func (h *ProfileHandler) SubmitStep(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var (
		st  *domain.OnboardingStatus
		err error
	)
	switch chi.URLParam(r, "step") {
	case domain.StepPersonal:
		var req domain.PersonalStepRequest
		if !decode(w, r, &req) {
			return
		}
		st, err = h.svc.SubmitPersonal(r.Context(), uid, req)
	case domain.StepResume:
		var req domain.ResumeStepRequest
		if !decode(w, r, &req) {
			return
		}
		st, err = h.svc.SubmitResume(r.Context(), uid, req)
	case domain.StepPreferences:
		var req domain.PreferencesStepRequest
		if !decode(w, r, &req) {
			return
		}
		st, err = h.svc.SubmitPreferences(r.Context(), uid, req)
	default:
		writeError(w, http.StatusNotFound, "unknown onboarding step")
		return
	}
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DataEnvelope{Data: st})
}

func (h *ProfileHandler) CompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	st, err := h.svc.CompleteOnboarding(r.Context(), uid)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DataEnvelope{Data: st})
}

func (h *ProfileHandler) RequestContactVerification(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req profile.ContactVerificationRequest
	if !decode(w, r, &req) {
		return
	}
	issued, err := h.svc.RequestContactVerification(r.Context(), uid, req.Contact, appmw.LocaleFromContext(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DataEnvelope{Data: issued})
}

func (h *ProfileHandler) ResendContactVerification(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req profile.ContactVerificationRequest
	if !decode(w, r, &req) {
		return
	}
	issued, err := h.svc.ResendContactVerification(r.Context(), uid, req.Contact, appmw.LocaleFromContext(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DataEnvelope{Data: issued})
}

func (h *ProfileHandler) VerifyContact(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req profile.VerifyContactRequest
	if !decode(w, r, &req) {
		return
	}
	u, err := h.svc.VerifyContact(r.Context(), uid, req.Contact, req.Code)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DataEnvelope{Data: u})
}
