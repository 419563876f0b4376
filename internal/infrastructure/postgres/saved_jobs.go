package postgres

import (
	"context"
	"fmt"

	"github.com/huntier-api/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SavedJobRepo stores bookmarks. Primary key (user_id, job_id).
type SavedJobRepo struct {
	pool *pgxpool.Pool
}

func NewSavedJobRepo(pool *pgxpool.Pool) *SavedJobRepo {
	return &SavedJobRepo{pool: pool}
}

// Save is idempotent: saving twice keeps the first timestamp.
func (r *SavedJobRepo) Save(ctx context.Context, s *domain.SavedJob) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO saved_jobs (user_id, job_id, created_at)
		VALUES ($1, $2, $3) ON CONFLICT (user_id, job_id) DO NOTHING`,
		s.UserID, s.JobID, s.CreatedAt)
	return mapError(err, "saved job")
}

func (r *SavedJobRepo) Delete(ctx context.Context, userID, jobID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM saved_jobs WHERE user_id = $1 AND job_id = $2`, userID, jobID)
	if err != nil {
		return mapError(err, "saved job")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("saved job not found: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *SavedJobRepo) Exists(ctx context.Context, userID, jobID string) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM saved_jobs WHERE user_id = $1 AND job_id = $2)`,
		userID, jobID).Scan(&ok)
	if err != nil {
		return false, mapError(err, "saved job")
	}
	return ok, nil
}

// ListByUser returns a page of bookmarks, most recently saved first, with jobs joined.
func (r *SavedJobRepo) ListByUser(ctx context.Context, userID string, pageNum, perPage int) ([]domain.SavedJob, int, error) {
	limit, offset := page(pageNum, perPage)
	rows, err := r.pool.Query(ctx, `SELECT s.user_id, s.job_id, s.created_at, `+jobColumns+`, count(*) OVER ()
		FROM saved_jobs s JOIN jobs j ON j.id = s.job_id
		WHERE s.user_id = $1
		ORDER BY s.created_at DESC, s.job_id LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, 0, mapError(err, "saved jobs")
	}
	defer rows.Close()

	saved := []domain.SavedJob{}
	total := 0
	for rows.Next() {
		var s domain.SavedJob
		var j domain.Job
		var language string
		targets := append([]any{&s.UserID, &s.JobID, &s.CreatedAt}, jobScanTargets(&j, &language)...)
		if err := rows.Scan(append(targets, &total)...); err != nil {
			return nil, 0, mapError(err, "saved jobs")
		}
		j.Language = domain.Locale(language)
		s.Job = &j
		saved = append(saved, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapError(err, "saved jobs")
	}
	return saved, total, nil
}
