package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/huntier-api/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const jobColumns = `j.id, j.title, j.company, j.location, j.description, j.employment_type,
	j.remote, j.salary_min, j.salary_max, j.salary_currency, j.language, j.apply_url,
	j.status, j.posted_at, j.created_at, j.updated_at`

// JobRepo stores job postings.
type JobRepo struct {
	pool *pgxpool.Pool
}

func NewJobRepo(pool *pgxpool.Pool) *JobRepo {
	return &JobRepo{pool: pool}
}

func jobScanTargets(j *domain.Job, language *string) []any {
	return []any{&j.JobID, &j.Title, &j.Company, &j.Location, &j.Description, &j.EmploymentType,
		&j.Remote, &j.SalaryMin, &j.SalaryMax, &j.SalaryCurrency, language, &j.ApplyURL,
		&j.Status, &j.PostedAt, &j.CreatedAt, &j.UpdatedAt}
}

func scanJob(row pgx.Row) (*domain.Job, error) {
	var j domain.Job
	var language string
	if err := row.Scan(jobScanTargets(&j, &language)...); err != nil {
		return nil, err
	}
	j.Language = domain.Locale(language)
	return &j, nil
}

func (r *JobRepo) Create(ctx context.Context, j *domain.Job) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO jobs (id, title, company, location, description, employment_type, remote,
			salary_min, salary_max, salary_currency, language, apply_url, status,
			posted_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		j.JobID, j.Title, j.Company, j.Location, j.Description, j.EmploymentType, j.Remote,
		j.SalaryMin, j.SalaryMax, j.SalaryCurrency, string(j.Language), j.ApplyURL, j.Status,
		j.PostedAt, j.CreatedAt, j.UpdatedAt)
	return mapError(err, "job")
}

func (r *JobRepo) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	j, err := scanJob(r.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs j WHERE j.id = $1`, jobID))
	if err != nil {
		return nil, mapError(err, "job")
	}
	return j, nil
}

func (r *JobRepo) SetStatus(ctx context.Context, jobID, status string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE jobs SET status = $2, updated_at = $3 WHERE id = $1`,
		jobID, status, time.Now().UTC())
	if err != nil {
		return mapError(err, "job")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("job not found: %w", domain.ErrNotFound)
	}
	return nil
}

// List returns one page of jobs matching f, newest first, and the total match count.
func (r *JobRepo) List(ctx context.Context, f domain.JobFilter, pageNum, perPage int) ([]domain.Job, int, error) {
	where, args := jobWhere(f)
	limit, offset := page(pageNum, perPage)
	args = append(args, limit, offset)

	query := fmt.Sprintf(`SELECT %s, count(*) OVER () FROM jobs j %s
		ORDER BY j.posted_at DESC, j.id LIMIT $%d OFFSET $%d`,
		jobColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, mapError(err, "jobs")
	}
	defer rows.Close()

	jobs := []domain.Job{}
	total := 0
	for rows.Next() {
		var j domain.Job
		var language string
		if err := rows.Scan(append(jobScanTargets(&j, &language), &total)...); err != nil {
			return nil, 0, mapError(err, "jobs")
		}
		j.Language = domain.Locale(language)
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapError(err, "jobs")
	}
	return jobs, total, nil
}

// jobWhere builds the WHERE clause for f with positional arguments.
func jobWhere(f domain.JobFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if !f.IncludeClosed {
		add("j.status = $%d", domain.JobStatusOpen)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		add("(j.title ILIKE $%[1]d OR j.company ILIKE $%[1]d OR j.description ILIKE $%[1]d)", "%"+likeEscape(q)+"%")
	}
	if loc := strings.TrimSpace(f.Location); loc != "" {
		add("j.location ILIKE $%d", "%"+likeEscape(loc)+"%")
	}
	if f.EmploymentType != "" {
		add("j.employment_type = $%d", f.EmploymentType)
	}
	if f.Remote != "" {
		add("j.remote = $%d", f.Remote)
	}
	if f.Language != "" {
		add("j.language = $%d", f.Language)
	}

	if len(conds) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func likeEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
