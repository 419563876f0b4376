package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/huntier-api/internal/domain"
	"github.com/huntier-api/internal/pkg/clock"
	"github.com/huntier-api/internal/pkg/id"
)

// Page is one slice of a user's applications.
type Page struct {
	Items   []domain.Application `json:"items"`
	Total   int                  `json:"total"`
	Page    int                  `json:"page"`
	PerPage int                  `json:"per_page"`
}

type Service interface {
	Apply(ctx context.Context, userID string, req domain.ApplyRequest) (*domain.Application, error)
	ListMine(ctx context.Context, userID string, page, perPage int) (*Page, error)
	Get(ctx context.Context, userID, applicationID string) (*domain.Application, error)
	Withdraw(ctx context.Context, userID, applicationID string) (*domain.Application, error)
	UpdateStatus(ctx context.Context, applicationID, status string) (*domain.Application, error)
}

type applicationStore interface {
	Create(ctx context.Context, a *domain.Application) error
	Get(ctx context.Context, applicationID string) (*domain.Application, error)
	ListByUser(ctx context.Context, userID string, page, perPage int) ([]domain.Application, int, error)
	UpdateStatus(ctx context.Context, applicationID, from, to string) error
}

type jobStore interface {
	Get(ctx context.Context, jobID string) (*domain.Job, error)
}

type resumeStore interface {
	Get(ctx context.Context, resumeID string) (*domain.Resume, error)
}

type profileStore interface {
	Get(ctx context.Context, userID string) (*domain.Profile, error)
}

type ServiceDeps struct {
	ApplicationRepo applicationStore
	JobRepo         jobStore
	ResumeRepo      resumeStore
	ProfileRepo     profileStore
	Clock           clock.Clock
}

type service struct {
	repo     applicationStore
	jobs     jobStore
	resumes  resumeStore
	profiles profileStore
	clock    clock.Clock
}

func NewService(deps ServiceDeps) Service {
	c := deps.Clock
	if c == nil {
		c = clock.System()
	}
	return &service{
		repo:     deps.ApplicationRepo,
		jobs:     deps.JobRepo,
		resumes:  deps.ResumeRepo,
		profiles: deps.ProfileRepo,
		clock:    c,
	}
}

func (s *service) Apply(ctx context.Context, userID string, req domain.ApplyRequest) (*domain.Application, error) {
	job, err := s.jobs.Get(ctx, req.JobID)
	if err != nil {
		return nil, err
	}
	if job.Status != domain.JobStatusOpen {
		return nil, fmt.Errorf("job is closed: %w", domain.ErrUnprocessable)
	}

	resumeID, err := s.resumeFor(ctx, userID, req.ResumeID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	a := &domain.Application{
		ApplicationID: id.NewUUID(),
		UserID:        userID,
		JobID:         job.JobID,
		ResumeID:      resumeID,
		CoverLetter:   strings.TrimSpace(req.CoverLetter),
		Status:        domain.AppStatusSubmitted,
		CreatedAt:     now,
		UpdatedAt:     now,
		Job:           job,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("already applied to this job: %w", domain.ErrConflict)
		}
		return nil, err
	}
	slog.Info("application submitted", "application_id", a.ApplicationID, "user_id", userID, "job_id", job.JobID)
	return a, nil
}

// resumeFor picks the resume attached to an application: the requested one,
// which must belong to the user, or else the profile's resume if any.
func (s *service) resumeFor(ctx context.Context, userID string, requested *string) (*string, error) {
	if requested == nil || *requested == "" {
		p, err := s.profiles.Get(ctx, userID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return p.ResumeID, nil
	}
	r, err := s.resumes.Get(ctx, *requested)
	if err != nil {
		return nil, err
	}
	if r.UserID != userID {
		return nil, fmt.Errorf("resume not found: %w", domain.ErrNotFound)
	}
	return &r.ResumeID, nil
}

func (s *service) ListMine(ctx context.Context, userID string, page, perPage int) (*Page, error) {
	page, perPage = clampPage(page, perPage)
	items, total, err := s.repo.ListByUser(ctx, userID, page, perPage)
	if err != nil {
		return nil, err
	}
	return &Page{Items: items, Total: total, Page: page, PerPage: perPage}, nil
}

func (s *service) Get(ctx context.Context, userID, applicationID string) (*domain.Application, error) {
	a, err := s.get(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if a.UserID != userID {
		return nil, fmt.Errorf("application not found: %w", domain.ErrNotFound)
	}
	return a, nil
}

func (s *service) Withdraw(ctx context.Context, userID, applicationID string) (*domain.Application, error) {
	a, err := s.Get(ctx, userID, applicationID)
	if err != nil {
		return nil, err
	}
	if domain.IsFinalStatus(a.Status) {
		return nil, fmt.Errorf("application is already %s: %w", a.Status, domain.ErrUnprocessable)
	}
	return s.transition(ctx, a, domain.AppStatusWithdrawn)
}

// UpdateStatus is the admin-side move along the application pipeline.
func (s *service) UpdateStatus(ctx context.Context, applicationID, status string) (*domain.Application, error) {
	a, err := s.get(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(a.Status, status) {
		return nil, fmt.Errorf("cannot move application from %s to %s: %w", a.Status, status, domain.ErrUnprocessable)
	}
	return s.transition(ctx, a, status)
}

func (s *service) transition(ctx context.Context, a *domain.Application, to string) (*domain.Application, error) {
	if err := s.repo.UpdateStatus(ctx, a.ApplicationID, a.Status, to); err != nil {
		return nil, err
	}
	slog.Info("application status changed", "application_id", a.ApplicationID, "from", a.Status, "to", to)
	a.Status = to
	a.UpdatedAt = s.clock.Now().UTC()
	return a, nil
}

func (s *service) get(ctx context.Context, applicationID string) (*domain.Application, error) {
	if !id.IsUUID(applicationID) {
		return nil, fmt.Errorf("application not found: %w", domain.ErrNotFound)
	}
	return s.repo.Get(ctx, applicationID)
}

func clampPage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}
	return page, perPage
}
