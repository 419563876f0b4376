package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/huntier-api/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const resumeColumns = `id, user_id, object, name, content_type, size, hash, deleted_at, created_at`

// ResumeRepo stores resume metadata. The bytes live in S3 under Object.
type ResumeRepo struct {
	pool *pgxpool.Pool
}

func NewResumeRepo(pool *pgxpool.Pool) *ResumeRepo {
	return &ResumeRepo{pool: pool}
}

func (r *ResumeRepo) Create(ctx context.Context, rs *domain.Resume) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO resumes (`+resumeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rs.ResumeID, rs.UserID, rs.Object, rs.Name, rs.ContentType, rs.Size, rs.Hash, rs.DeletedAt, rs.CreatedAt)
	return mapError(err, "resume")
}

// Get returns a resume that has not been deleted.
func (r *ResumeRepo) Get(ctx context.Context, resumeID string) (*domain.Resume, error) {
	var rs domain.Resume
	err := r.pool.QueryRow(ctx, `SELECT `+resumeColumns+` FROM resumes
		WHERE id = $1 AND deleted_at IS NULL`, resumeID).Scan(
		&rs.ResumeID, &rs.UserID, &rs.Object, &rs.Name, &rs.ContentType, &rs.Size, &rs.Hash, &rs.DeletedAt, &rs.CreatedAt)
	if err != nil {
		return nil, mapError(err, "resume")
	}
	return &rs, nil
}

func (r *ResumeRepo) ListByUser(ctx context.Context, userID string) ([]domain.Resume, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+resumeColumns+` FROM resumes
		WHERE user_id = $1 AND deleted_at IS NULL ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, mapError(err, "resumes")
	}
	defer rows.Close()

	out := []domain.Resume{}
	for rows.Next() {
		var rs domain.Resume
		if err := rows.Scan(&rs.ResumeID, &rs.UserID, &rs.Object, &rs.Name, &rs.ContentType,
			&rs.Size, &rs.Hash, &rs.DeletedAt, &rs.CreatedAt); err != nil {
			return nil, mapError(err, "resumes")
		}
		out = append(out, rs)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "resumes")
	}
	return out, nil
}

// SoftDelete hides the resume and detaches it from the owner's profile.
func (r *ResumeRepo) SoftDelete(ctx context.Context, resumeID string) error {
	now := time.Now().UTC()
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE resumes SET deleted_at = $2
			WHERE id = $1 AND deleted_at IS NULL`, resumeID, now)
		if err != nil {
			return mapError(err, "resume")
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("resume not found: %w", domain.ErrNotFound)
		}
		_, err = tx.Exec(ctx, `UPDATE profiles SET resume_id = NULL, updated_at = $2
			WHERE resume_id = $1`, resumeID, now)
		return mapError(err, "profile")
	})
}
