package handler

import (
	"net/http"

	"github.com/huntier-api/internal/application/auth"
	"github.com/huntier-api/internal/domain"
	appmw "github.com/huntier-api/internal/transport/http/middleware"
)

// AuthHandler handles passwordless and Google sign-in.
type AuthHandler struct {
	svc     auth.Service
	cookies CookieConfig
}

func NewAuthHandler(svc auth.Service, cookies CookieConfig) *AuthHandler {
	return &AuthHandler{svc: svc, cookies: cookies}
}

func (h *AuthHandler) RequestCode(w http.ResponseWriter, r *http.Request) {
	var req auth.RequestCodeRequest
	if !decode(w, r, &req) {
		return
	}
	sent, err := h.svc.RequestCode(r.Context(), req.Contact, appmw.LocaleFromContext(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sent)
}

func (h *AuthHandler) ResendCode(w http.ResponseWriter, r *http.Request) {
	var req auth.RequestCodeRequest
	if !decode(w, r, &req) {
		return
	}
	sent, err := h.svc.ResendCode(r.Context(), req.Contact, appmw.LocaleFromContext(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sent)
}

func (h *AuthHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req auth.VerifyCodeRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.VerifyCode(r.Context(), req.Contact, req.Code, appmw.LocaleFromContext(r.Context()), clientMeta(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.signedIn(w, res)
}

func (h *AuthHandler) Google(w http.ResponseWriter, r *http.Request) {
	var req auth.GoogleSignInRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.GoogleSignIn(r.Context(), req.IDToken, explicitLocale(r), clientMeta(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.signedIn(w, res)
}

func (h *AuthHandler) signedIn(w http.ResponseWriter, res *auth.SignIn) {
	h.cookies.set(w, res.Result)
	status := http.StatusOK
	if res.NewUser {
		status = http.StatusCreated
	}
	writeJSON(w, status, authEnvelope(res.Result, res.NewUser))
}

// explicitLocale is empty unless the request chose a language, so a new Google
// account can take the locale from its Google profile instead.
func explicitLocale(r *http.Request) domain.Locale {
	l, _ := appmw.ExplicitLocale(r.Context())
	return l
}
