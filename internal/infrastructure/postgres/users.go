package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/huntier-api/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, email, phone, email_verified, phone_verified, role, locale,
	google_sub, enable, onboarded_at, created_at, updated_at`

// UserRepo stores accounts in the users table.
type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func userScanTargets(u *domain.User, locale *string) []any {
	return []any{&u.UserID, &u.Email, &u.Phone, &u.EmailVerified, &u.PhoneVerified,
		&u.Role, locale, &u.GoogleSub, &u.Enable, &u.OnboardedAt, &u.CreatedAt, &u.UpdatedAt}
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	var locale string
	if err := row.Scan(userScanTargets(&u, &locale)...); err != nil {
		return nil, err
	}
	u.Locale = domain.Locale(locale)
	return &u, nil
}

// Create inserts the user and its empty profile in one transaction.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO users (id, email, phone, email_verified, phone_verified, role, locale,
				google_sub, enable, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			u.UserID, u.Email, u.Phone, u.EmailVerified, u.PhoneVerified, u.Role, string(u.Locale),
			u.GoogleSub, u.Enable, u.CreatedAt, u.UpdatedAt)
		if err != nil {
			return mapError(err, "user")
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO profiles (user_id, created_at, updated_at) VALUES ($1, $2, $2)`,
			u.UserID, u.CreatedAt)
		return mapError(err, "profile")
	})
}

func (r *UserRepo) Get(ctx context.Context, userID string) (*domain.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID))
	if err != nil {
		return nil, mapError(err, "user")
	}
	return u, nil
}

// GetByContact finds the user owning an email address or phone number.
func (r *UserRepo) GetByContact(ctx context.Context, c domain.Contact) (*domain.User, error) {
	column := "email"
	if c.Kind == domain.ContactPhone {
		column = "phone"
	}
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+column+` = $1`, c.Value))
	if err != nil {
		return nil, mapError(err, "user")
	}
	return u, nil
}

func (r *UserRepo) GetByGoogleSub(ctx context.Context, sub string) (*domain.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE google_sub = $1`, sub))
	if err != nil {
		return nil, mapError(err, "user")
	}
	return u, nil
}

// AttachContact sets the email or phone of a user and marks it verified.
// A contact owned by another account yields ErrConflict.
func (r *UserRepo) AttachContact(ctx context.Context, userID string, c domain.Contact) error {
	query := `UPDATE users SET email = $2, email_verified = true, updated_at = $3 WHERE id = $1`
	if c.Kind == domain.ContactPhone {
		query = `UPDATE users SET phone = $2, phone_verified = true, updated_at = $3 WHERE id = $1`
	}
	return r.exec(ctx, "user contact", query, userID, c.Value, time.Now().UTC())
}

// LinkGoogle records the Google subject for a user. The Google e-mail is
// verified by Google, so it is stored as verified when the user had none.
func (r *UserRepo) LinkGoogle(ctx context.Context, userID, sub, email string) error {
	return r.exec(ctx, "user google link", `
		UPDATE users SET google_sub = $2,
			email = COALESCE(email, $3),
			email_verified = email_verified OR email IS NULL OR email = $3,
			updated_at = $4
		WHERE id = $1`, userID, sub, email, time.Now().UTC())
}

func (r *UserRepo) SetLocale(ctx context.Context, userID string, locale domain.Locale) error {
	return r.exec(ctx, "user locale", `UPDATE users SET locale = $2, updated_at = $3 WHERE id = $1`,
		userID, string(locale), time.Now().UTC())
}

// MarkOnboarded stamps onboarded_at once. Later calls keep the first timestamp.
func (r *UserRepo) MarkOnboarded(ctx context.Context, userID string, at time.Time) (time.Time, error) {
	var stamped time.Time
	err := r.pool.QueryRow(ctx, `
		UPDATE users SET onboarded_at = COALESCE(onboarded_at, $2), updated_at = $2
		WHERE id = $1 RETURNING onboarded_at`, userID, at).Scan(&stamped)
	if err != nil {
		return time.Time{}, mapError(err, "user")
	}
	return stamped, nil
}

// List pages through accounts, oldest first, optionally restricted to one role.
func (r *UserRepo) List(ctx context.Context, role string, limit, offset int) ([]domain.User, int, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+`, count(*) OVER () FROM users
		WHERE $1 = '' OR role = $1
		ORDER BY created_at, id LIMIT $2 OFFSET $3`, role, limit, offset)
	if err != nil {
		return nil, 0, mapError(err, "users")
	}
	defer rows.Close()

	users := []domain.User{}
	total := 0
	for rows.Next() {
		var u domain.User
		var locale string
		if err := rows.Scan(append(userScanTargets(&u, &locale), &total)...); err != nil {
			return nil, 0, mapError(err, "users")
		}
		u.Locale = domain.Locale(locale)
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapError(err, "users")
	}
	return users, total, nil
}

func (r *UserRepo) SetRole(ctx context.Context, userID, role string) error {
	return r.exec(ctx, "user role", `UPDATE users SET role = $2, updated_at = $3 WHERE id = $1`,
		userID, role, time.Now().UTC())
}

func (r *UserRepo) SetEnable(ctx context.Context, userID string, enable bool) error {
	return r.exec(ctx, "user enable", `UPDATE users SET enable = $2, updated_at = $3 WHERE id = $1`,
		userID, enable, time.Now().UTC())
}

func (r *UserRepo) exec(ctx context.Context, what, query string, args ...any) error {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return mapError(err, what)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	return nil
}
