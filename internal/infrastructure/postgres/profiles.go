package postgres

import (
	"context"
	"time"

	"github.com/huntier-api/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProfileRepo stores candidate profiles. Every user has exactly one row,
// created together with the user.
type ProfileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

func (r *ProfileRepo) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	var p domain.Profile
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, first_name, last_name, headline, location, bio, years_experience,
			linkedin_url, resume_id, desired_roles, desired_locations, job_types,
			remote_preference, salary_min, salary_max, salary_currency, created_at, updated_at
		FROM profiles WHERE user_id = $1`, userID).Scan(
		&p.UserID, &p.FirstName, &p.LastName, &p.Headline, &p.Location, &p.Bio, &p.YearsExperience,
		&p.LinkedInURL, &p.ResumeID, &p.DesiredRoles, &p.DesiredLocs, &p.JobTypes,
		&p.RemotePref, &p.SalaryMin, &p.SalaryMax, &p.SalaryCurrency, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, mapError(err, "profile")
	}
	return &p, nil
}

// Save writes every mutable column of p. Services load, patch and save.
func (r *ProfileRepo) Save(ctx context.Context, p *domain.Profile) error {
	p.UpdatedAt = time.Now().UTC()
	tag, err := r.pool.Exec(ctx, `
		UPDATE profiles SET first_name = $2, last_name = $3, headline = $4, location = $5,
			bio = $6, years_experience = $7, linkedin_url = $8, resume_id = $9,
			desired_roles = $10, desired_locations = $11, job_types = $12,
			remote_preference = $13, salary_min = $14, salary_max = $15,
			salary_currency = $16, updated_at = $17
		WHERE user_id = $1`,
		p.UserID, p.FirstName, p.LastName, p.Headline, p.Location, p.Bio, p.YearsExperience,
		p.LinkedInURL, p.ResumeID, nonNil(p.DesiredRoles), nonNil(p.DesiredLocs), nonNil(p.JobTypes),
		p.RemotePref, p.SalaryMin, p.SalaryMax, p.SalaryCurrency, p.UpdatedAt)
	if err != nil {
		return mapError(err, "profile")
	}
	if tag.RowsAffected() == 0 {
		return mapError(pgx.ErrNoRows, "profile")
	}
	return nil
}

// nonNil keeps NOT NULL text[] columns from receiving SQL NULL.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
