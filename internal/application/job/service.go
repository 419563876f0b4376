package job

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/huntier-api/internal/domain"
	"github.com/huntier-api/internal/pkg/clock"
	"github.com/huntier-api/internal/pkg/id"
)

// Page is one slice of a job listing.
type Page struct {
	Items   []domain.Job `json:"items"`
	Total   int          `json:"total"`
	Page    int          `json:"page"`
	PerPage int          `json:"per_page"`
}

type Service interface {
	List(ctx context.Context, f domain.JobFilter, page, perPage int) (*Page, error)
	Get(ctx context.Context, jobID string) (*domain.Job, error)
	Create(ctx context.Context, req domain.CreateJobRequest) (*domain.Job, error)
	SetStatus(ctx context.Context, jobID, status string) (*domain.Job, error)
}

type jobStore interface {
	Create(ctx context.Context, j *domain.Job) error
	Get(ctx context.Context, jobID string) (*domain.Job, error)
	SetStatus(ctx context.Context, jobID, status string) error
	List(ctx context.Context, f domain.JobFilter, page, perPage int) ([]domain.Job, int, error)
}

type ServiceDeps struct {
	JobRepo jobStore
	Clock   clock.Clock
}

type service struct {
	repo  jobStore
	clock clock.Clock
}

func NewService(deps ServiceDeps) Service {
	c := deps.Clock
	if c == nil {
		c = clock.System()
	}
	return &service{repo: deps.JobRepo, clock: c}
}

func (s *service) List(ctx context.Context, f domain.JobFilter, page, perPage int) (*Page, error) {
	page, perPage = Normalize(page, perPage)
	items, total, err := s.repo.List(ctx, f, page, perPage)
	if err != nil {
		return nil, err
	}
	return &Page{Items: items, Total: total, Page: page, PerPage: perPage}, nil
}

func (s *service) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	if !id.IsUUID(jobID) {
		return nil, fmt.Errorf("job not found: %w", domain.ErrNotFound)
	}
	return s.repo.Get(ctx, jobID)
}

func (s *service) Create(ctx context.Context, req domain.CreateJobRequest) (*domain.Job, error) {
	if req.SalaryMin != nil && req.SalaryMax != nil && *req.SalaryMin > *req.SalaryMax {
		return nil, fmt.Errorf("salary_min exceeds salary_max: %w", domain.ErrBadRequest)
	}
	now := s.clock.Now().UTC()
	j := &domain.Job{
		JobID:          id.NewUUID(),
		Title:          strings.TrimSpace(req.Title),
		Company:        strings.TrimSpace(req.Company),
		Location:       strings.TrimSpace(req.Location),
		Description:    req.Description,
		EmploymentType: req.EmploymentType,
		Remote:         req.Remote,
		SalaryMin:      req.SalaryMin,
		SalaryMax:      req.SalaryMax,
		SalaryCurrency: strings.ToUpper(req.SalaryCurrency),
		Language:       domain.Locale(req.Language),
		ApplyURL:       req.ApplyURL,
		Status:         domain.JobStatusOpen,
		PostedAt:       now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, j); err != nil {
		return nil, err
	}
	slog.Info("job created", "job_id", j.JobID, "company", j.Company)
	return j, nil
}

func (s *service) SetStatus(ctx context.Context, jobID, status string) (*domain.Job, error) {
	if status != domain.JobStatusOpen && status != domain.JobStatusClosed {
		return nil, fmt.Errorf("unknown job status %q: %w", status, domain.ErrBadRequest)
	}
	if !id.IsUUID(jobID) {
		return nil, fmt.Errorf("job not found: %w", domain.ErrNotFound)
	}
	if err := s.repo.SetStatus(ctx, jobID, status); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, jobID)
}

// Normalize clamps paging input to page >= 1 and 1 <= perPage <= 100, defaulting perPage to 20.
func Normalize(page, perPage int) (int, int) {
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
