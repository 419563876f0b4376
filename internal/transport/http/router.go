package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/huntier-api/internal/config"
	"github.com/huntier-api/internal/domain"
	"github.com/huntier-api/internal/transport/http/handler"
	appmiddleware "github.com/huntier-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router. ctx bounds the
// background work of the rate limiters.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(appmiddleware.ClientIP(cfg.TrustedProxyHops))
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	defLocale, ok := domain.ParseLocale(cfg.DefaultLocale)
	if !ok {
		defLocale = domain.LocaleEN
	}
	r.Use(appmiddleware.Locale(defLocale))

	authMw := appmiddleware.Auth(deps.Tokens, deps.Sessions)
	storedLocale := appmiddleware.StoredLocale(userLocales{repo: deps.Users})

	// Code delivery costs money and is the main abuse target.
	codeRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(0.2), 5)
	// 5 requests/second, burst of 10, for sign-in and token refresh.
	sessionRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(5), 10)

	cookies := handler.CookieConfig{Domain: cfg.CookieDomain, Secure: cfg.CookieSecure}
	healthH := handler.NewHealthHandler(deps.HealthChecks)
	authH := handler.NewAuthHandler(deps.Auth, cookies)
	sessionH := handler.NewSessionHandler(deps.Sessions, cookies)
	profileH := handler.NewProfileHandler(deps.Profiles)
	resumeH := handler.NewResumeHandler(deps.Resumes)
	jobH := handler.NewJobHandler(deps.Jobs)
	appH := handler.NewApplicationHandler(deps.Applications)
	savedH := handler.NewSavedJobHandler(deps.SavedJobs)
	blacklistH := handler.NewBlacklistHandler(deps.Blacklist)
	userH := handler.NewUserHandler(deps.AdminUsers)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)

		r.Group(func(r chi.Router) {
			r.Use(codeRL.Limit)
			r.Post("/auth/code", authH.RequestCode)
			r.Post("/auth/code/resend", authH.ResendCode)
		})
		r.Group(func(r chi.Router) {
			r.Use(sessionRL.Limit)
			r.Post("/auth/code/verify", authH.VerifyCode)
			r.Post("/auth/google", authH.Google)
			r.Post("/sessions/refresh", sessionH.Refresh)
		})

		r.Get("/jobs", jobH.List)
		r.Get("/jobs/{id}", jobH.Get)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)
			r.Use(storedLocale)

			r.Get("/sessions", sessionH.GetCurrent)
			r.Post("/sessions/logout", sessionH.Logout)
			r.Post("/sessions/logout-all", sessionH.LogoutAll)

			r.Get("/me/profile", profileH.Get)
			r.Patch("/me/profile", profileH.Update)
			r.Get("/me/onboarding", profileH.OnboardingStatus)
			r.Put("/me/onboarding/{step}", profileH.SubmitStep)
			r.Post("/me/onboarding/complete", profileH.CompleteOnboarding)
			r.With(codeRL.Limit).Post("/me/contacts", profileH.RequestContactVerification)
			r.With(codeRL.Limit).Post("/me/contacts/resend", profileH.ResendContactVerification)
			r.With(sessionRL.Limit).Post("/me/contacts/verify", profileH.VerifyContact)

			r.Get("/me/resumes", resumeH.List)
			r.Post("/me/resumes", resumeH.Upload)
			r.Get("/me/resumes/{id}/download", resumeH.Download)
			r.Delete("/me/resumes/{id}", resumeH.Delete)

			r.Get("/me/applications", appH.ListMine)
			r.Post("/me/applications", appH.Apply)
			r.Get("/me/applications/{id}", appH.Get)
			r.Post("/me/applications/{id}/withdraw", appH.Withdraw)

			r.Get("/me/saved-jobs", savedH.List)
			r.Get("/me/saved-jobs/{jobID}", savedH.IsSaved)
			r.Put("/me/saved-jobs/{jobID}", savedH.Save)
			r.Delete("/me/saved-jobs/{jobID}", savedH.Remove)

			// Admin-only routes
			r.Route("/admin", func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Get("/jobs", jobH.ListAll)
				r.Post("/jobs", jobH.Create)
				r.Put("/jobs/{id}/status", jobH.SetStatus)
				r.Put("/applications/{id}/status", appH.UpdateStatus)

				r.Get("/users", userH.List)
				r.Get("/users/{id}", userH.Get)
				r.Patch("/users/{id}", userH.Update)

				r.Get("/blacklist", blacklistH.List)
				r.Post("/blacklist", blacklistH.Block)
				r.Get("/blacklist/{contact}", blacklistH.Get)
				r.Delete("/blacklist/{contact}", blacklistH.Unblock)
			})
		})
	})

	return r
}
