package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/huntier-api/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const applicationColumns = `a.id, a.user_id, a.job_id, a.resume_id, a.cover_letter, a.status,
	a.created_at, a.updated_at`

// ApplicationRepo stores job applications. (user_id, job_id) is unique.
type ApplicationRepo struct {
	pool *pgxpool.Pool
}

func NewApplicationRepo(pool *pgxpool.Pool) *ApplicationRepo {
	return &ApplicationRepo{pool: pool}
}

func (r *ApplicationRepo) Create(ctx context.Context, a *domain.Application) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO applications (id, user_id, job_id, resume_id, cover_letter, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ApplicationID, a.UserID, a.JobID, a.ResumeID, a.CoverLetter, a.Status, a.CreatedAt, a.UpdatedAt)
	return mapError(err, "application")
}

// Get returns the application with its job joined.
func (r *ApplicationRepo) Get(ctx context.Context, applicationID string) (*domain.Application, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+applicationColumns+`, `+jobColumns+`
		FROM applications a JOIN jobs j ON j.id = a.job_id WHERE a.id = $1`, applicationID)
	a, err := scanApplicationWithJob(row)
	if err != nil {
		return nil, mapError(err, "application")
	}
	return a, nil
}

// ListByUser returns a page of the user's applications, newest first, with jobs joined.
func (r *ApplicationRepo) ListByUser(ctx context.Context, userID string, pageNum, perPage int) ([]domain.Application, int, error) {
	limit, offset := page(pageNum, perPage)
	rows, err := r.pool.Query(ctx, `SELECT `+applicationColumns+`, `+jobColumns+`, count(*) OVER ()
		FROM applications a JOIN jobs j ON j.id = a.job_id
		WHERE a.user_id = $1
		ORDER BY a.created_at DESC, a.id LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, 0, mapError(err, "applications")
	}
	defer rows.Close()

	apps := []domain.Application{}
	total := 0
	for rows.Next() {
		a, err := scanApplicationWithJob(rows, &total)
		if err != nil {
			return nil, 0, mapError(err, "applications")
		}
		apps = append(apps, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapError(err, "applications")
	}
	return apps, total, nil
}

// UpdateStatus moves an application from one status to another. The update
// only applies while the row still holds from, so concurrent transitions
// cannot both succeed.
func (r *ApplicationRepo) UpdateStatus(ctx context.Context, applicationID, from, to string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE applications SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2`, applicationID, from, to, time.Now().UTC())
	if err != nil {
		return mapError(err, "application")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("application status changed concurrently: %w", domain.ErrConflict)
	}
	return nil
}

func scanApplicationWithJob(row pgx.Row, extra ...any) (*domain.Application, error) {
	var a domain.Application
	var j domain.Job
	var language string
	targets := []any{&a.ApplicationID, &a.UserID, &a.JobID, &a.ResumeID, &a.CoverLetter, &a.Status,
		&a.CreatedAt, &a.UpdatedAt}
	targets = append(targets, jobScanTargets(&j, &language)...)
	targets = append(targets, extra...)
	if err := row.Scan(targets...); err != nil {
		return nil, err
	}
	j.Language = domain.Locale(language)
	a.Job = &j
	return &a, nil
}
