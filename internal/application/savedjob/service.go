package savedjob

import (
	"context"
	"fmt"

	"github.com/huntier-api/internal/domain"
	"github.com/huntier-api/internal/pkg/clock"
	"github.com/huntier-api/internal/pkg/id"
)

type Page struct {
	Items   []domain.SavedJob `json:"items"`
	Total   int               `json:"total"`
	Page    int               `json:"page"`
	PerPage int               `json:"per_page"`
}

type Service interface {
	// Save bookmarks a job. Saving an already saved job is a no-op.
	Save(ctx context.Context, userID, jobID string) (*domain.SavedJob, error)
	Remove(ctx context.Context, userID, jobID string) error
	List(ctx context.Context, userID string, page, perPage int) (*Page, error)
	IsSaved(ctx context.Context, userID, jobID string) (bool, error)
}

type savedJobStore interface {
	Save(ctx context.Context, s *domain.SavedJob) error
	Delete(ctx context.Context, userID, jobID string) error
	Exists(ctx context.Context, userID, jobID string) (bool, error)
	ListByUser(ctx context.Context, userID string, page, perPage int) ([]domain.SavedJob, int, error)
}

type jobStore interface {
	Get(ctx context.Context, jobID string) (*domain.Job, error)
}

type ServiceDeps struct {
	SavedJobRepo savedJobStore
	JobRepo      jobStore
	Clock        clock.Clock
}

type service struct {
	repo  savedJobStore
	jobs  jobStore
	clock clock.Clock
}

func NewService(deps ServiceDeps) Service {
	c := deps.Clock
	if c == nil {
		c = clock.System()
	}
	return &service{repo: deps.SavedJobRepo, jobs: deps.JobRepo, clock: c}
}

func (s *service) Save(ctx context.Context, userID, jobID string) (*domain.SavedJob, error) {
	if !id.IsUUID(jobID) {
		return nil, fmt.Errorf("job not found: %w", domain.ErrNotFound)
	}
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	sj := &domain.SavedJob{UserID: userID, JobID: job.JobID, CreatedAt: s.clock.Now().UTC(), Job: job}
	if err := s.repo.Save(ctx, sj); err != nil {
		return nil, err
	}
	return sj, nil
}

func (s *service) Remove(ctx context.Context, userID, jobID string) error {
	if !id.IsUUID(jobID) {
		return fmt.Errorf("saved job not found: %w", domain.ErrNotFound)
	}
	return s.repo.Delete(ctx, userID, jobID)
}

func (s *service) List(ctx context.Context, userID string, page, perPage int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}
	items, total, err := s.repo.ListByUser(ctx, userID, page, perPage)
	if err != nil {
		return nil, err
	}
	return &Page{Items: items, Total: total, Page: page, PerPage: perPage}, nil
}

func (s *service) IsSaved(ctx context.Context, userID, jobID string) (bool, error) {
	if !id.IsUUID(jobID) {
		return false, nil
	}
	return s.repo.Exists(ctx, userID, jobID)
}
