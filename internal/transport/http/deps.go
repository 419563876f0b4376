package http

import (
	"context"

	"github.com/huntier-api/internal/application/application"
	"github.com/huntier-api/internal/application/auth"
	"github.com/huntier-api/internal/application/blacklist"
	"github.com/huntier-api/internal/application/job"
	"github.com/huntier-api/internal/application/profile"
	"github.com/huntier-api/internal/application/resume"
	"github.com/huntier-api/internal/application/savedjob"
	"github.com/huntier-api/internal/application/session"
	"github.com/huntier-api/internal/application/user"
	"github.com/huntier-api/internal/domain"
	"github.com/huntier-api/internal/transport/http/handler"
	appmw "github.com/huntier-api/internal/transport/http/middleware"
)

// Deps holds the services and infrastructure the router wires into handlers.
type Deps struct {
	Auth         auth.Service
	Sessions     session.Service
	Profiles     profile.Service
	Resumes      resume.Service
	Jobs         job.Service
	Applications application.Service
	SavedJobs    savedjob.Service
	Blacklist    blacklist.Service
	AdminUsers   user.Service

	Tokens appmw.TokenVerifier
	Users  UserRepository

	// HealthChecks are probed by /health-check/ready.
	HealthChecks map[string]handler.Pinger
}

// UserRepository is the minimal interface the router requires from a user store.
type UserRepository interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

// userLocales reads the stored locale for the locale middleware.
type userLocales struct {
	repo UserRepository
}

func (u userLocales) Locale(ctx context.Context, userID string) (domain.Locale, error) {
	usr, err := u.repo.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	return usr.Locale, nil
}
