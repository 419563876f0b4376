package handler

import (
	"net/http"
	"time"

	"github.com/huntier-api/internal/application/session"
	appmw "github.com/huntier-api/internal/transport/http/middleware"
)

// RefreshCookie carries the refresh token. It is scoped to the session routes.
const RefreshCookie = "huntier_refresh"

const refreshCookiePath = "/v1/sessions"

// CookieConfig controls the auth cookies set alongside JSON token responses.
type CookieConfig struct {
	Domain string
	Secure bool
}

func (c CookieConfig) set(w http.ResponseWriter, res *session.Result) {
	http.SetCookie(w, &http.Cookie{
		Name:     appmw.AccessCookie,
		Value:    res.AccessToken,
		Path:     "/",
		Domain:   c.Domain,
		Expires:  res.AccessExpiresAt,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookie,
		Value:    res.RefreshToken,
		Path:     refreshCookiePath,
		Domain:   c.Domain,
		Expires:  res.RefreshExpiresAt,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (c CookieConfig) clear(w http.ResponseWriter) {
	for _, ck := range []struct{ name, path string }{
		{appmw.AccessCookie, "/"},
		{RefreshCookie, refreshCookiePath},
	} {
		http.SetCookie(w, &http.Cookie{
			Name:     ck.name,
			Value:    "",
			Path:     ck.path,
			Domain:   c.Domain,
			Expires:  time.Unix(0, 0),
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   c.Secure,
		})
	}
}

func authEnvelope(res *session.Result, newUser bool) AuthEnvelope {
	env := AuthEnvelope{
		AccessToken:      res.AccessToken,
		AccessExpiresAt:  res.AccessExpiresAt,
		RefreshToken:     res.RefreshToken,
		RefreshExpiresAt: res.RefreshExpiresAt,
		Session:          res.Session,
		NewUser:          newUser,
	}
	if res.Session != nil {
		env.User = res.Session.User
	}
	return env
}
