//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/huntier-api/internal/config"
	"github.com/huntier-api/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("huntier"),
		tcpostgres.WithUsername("huntier"),
		tcpostgres.WithPassword("huntier"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := Connect(ctx, &config.Config{DatabaseURL: dsn, DatabaseMaxConns: 4, DatabaseMinConns: 1})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	// migrations are idempotent
	require.NoError(t, Migrate(ctx, pool))
	return pool
}

func strPtr(s string) *string { return &s }

func newUser(email string) *domain.User {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.User{
		UserID:        uuid.NewString(),
		Email:         strPtr(email),
		EmailVerified: true,
		Role:          domain.RoleCandidate,
		Locale:        domain.LocaleZH,
		Enable:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func newJob(title string) *domain.Job {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Job{
		JobID:          uuid.NewString(),
		Title:          title,
		Company:        "Acme",
		Location:       "Shanghai",
		Description:    "Build things",
		EmploymentType: "full_time",
		Remote:         domain.RemoteHybrid,
		Language:       domain.LocaleEN,
		Status:         domain.JobStatusOpen,
		PostedAt:       now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestRepositories(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()

	users := NewUserRepo(pool)
	profiles := NewProfileRepo(pool)
	jobs := NewJobRepo(pool)
	apps := NewApplicationRepo(pool)
	saved := NewSavedJobRepo(pool)
	resumes := NewResumeRepo(pool)

	u := newUser("ada@example.com")
	require.NoError(t, users.Create(ctx, u))
	assert.ErrorIs(t, users.Create(ctx, newUser("ada@example.com")), domain.ErrConflict)

	t.Run("users", func(t *testing.T) {
		got, err := users.GetByContact(ctx, domain.Contact{Kind: domain.ContactEmail, Value: "ada@example.com"})
		require.NoError(t, err)
		assert.Equal(t, u.UserID, got.UserID)
		assert.Equal(t, domain.LocaleZH, got.Locale)

		phone := domain.Contact{Kind: domain.ContactPhone, Value: "+8613800138000"}
		require.NoError(t, users.AttachContact(ctx, u.UserID, phone))
		got, err = users.GetByContact(ctx, phone)
		require.NoError(t, err)
		assert.True(t, got.PhoneVerified)

		other := newUser("bob@example.com")
		require.NoError(t, users.Create(ctx, other))
		assert.ErrorIs(t, users.AttachContact(ctx, other.UserID, phone), domain.ErrConflict)

		at := time.Now().UTC().Truncate(time.Microsecond)
		first, err := users.MarkOnboarded(ctx, u.UserID, at)
		require.NoError(t, err)
		second, err := users.MarkOnboarded(ctx, u.UserID, at.Add(time.Hour))
		require.NoError(t, err)
		assert.True(t, first.Equal(second))

		_, err = users.Get(ctx, uuid.NewString())
		assert.ErrorIs(t, err, domain.ErrNotFound)

		require.NoError(t, users.SetRole(ctx, other.UserID, domain.RoleAdmin))
		require.NoError(t, users.SetEnable(ctx, other.UserID, false))
		admins, total, err := users.List(ctx, domain.RoleAdmin, 10, 0)
		require.NoError(t, err)
		require.Len(t, admins, 1)
		assert.Equal(t, 1, total)
		assert.False(t, admins[0].Enable)

		all, total, err := users.List(ctx, "", 1, 0)
		require.NoError(t, err)
		assert.Len(t, all, 1)
		assert.Equal(t, 2, total)
		assert.ErrorIs(t, users.SetEnable(ctx, uuid.NewString(), true), domain.ErrNotFound)
	})

	t.Run("profiles and resumes", func(t *testing.T) {
		p, err := profiles.Get(ctx, u.UserID)
		require.NoError(t, err)
		assert.Empty(t, p.DesiredRoles)

		rs := &domain.Resume{
			ResumeID: uuid.NewString(), UserID: u.UserID, Object: "resumes/x/cv.pdf",
			Name: "cv.pdf", ContentType: "application/pdf", Size: 42, Hash: "abc",
			CreatedAt: time.Now().UTC(),
		}
		require.NoError(t, resumes.Create(ctx, rs))

		p.FirstName = "Ada"
		p.DesiredRoles = []string{"Backend Engineer"}
		p.ResumeID = &rs.ResumeID
		require.NoError(t, profiles.Save(ctx, p))

		p, err = profiles.Get(ctx, u.UserID)
		require.NoError(t, err)
		assert.Equal(t, "Ada", p.FirstName)
		assert.Equal(t, []string{"Backend Engineer"}, p.DesiredRoles)
		require.NotNil(t, p.ResumeID)

		list, err := resumes.ListByUser(ctx, u.UserID)
		require.NoError(t, err)
		assert.Len(t, list, 1)

		require.NoError(t, resumes.SoftDelete(ctx, rs.ResumeID))
		assert.ErrorIs(t, resumes.SoftDelete(ctx, rs.ResumeID), domain.ErrNotFound)
		_, err = resumes.Get(ctx, rs.ResumeID)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		p, err = profiles.Get(ctx, u.UserID)
		require.NoError(t, err)
		assert.Nil(t, p.ResumeID)
	})

	t.Run("jobs applications saved", func(t *testing.T) {
		open := newJob("Go Engineer")
		closed := newJob("Rust Engineer")
		require.NoError(t, jobs.Create(ctx, open))
		require.NoError(t, jobs.Create(ctx, closed))
		require.NoError(t, jobs.SetStatus(ctx, closed.JobID, domain.JobStatusClosed))

		list, total, err := jobs.List(ctx, domain.JobFilter{Query: "engineer"}, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, list, 1)
		assert.Equal(t, open.JobID, list[0].JobID)

		_, total, err = jobs.List(ctx, domain.JobFilter{IncludeClosed: true}, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, 2, total)

		now := time.Now().UTC()
		a := &domain.Application{
			ApplicationID: uuid.NewString(), UserID: u.UserID, JobID: open.JobID,
			Status: domain.AppStatusSubmitted, CreatedAt: now, UpdatedAt: now,
		}
		require.NoError(t, apps.Create(ctx, a))
		dup := *a
		dup.ApplicationID = uuid.NewString()
		assert.ErrorIs(t, apps.Create(ctx, &dup), domain.ErrConflict)

		require.NoError(t, apps.UpdateStatus(ctx, a.ApplicationID, domain.AppStatusSubmitted, domain.AppStatusReviewing))
		assert.ErrorIs(t, apps.UpdateStatus(ctx, a.ApplicationID, domain.AppStatusSubmitted, domain.AppStatusRejected), domain.ErrConflict)

		got, err := apps.Get(ctx, a.ApplicationID)
		require.NoError(t, err)
		assert.Equal(t, domain.AppStatusReviewing, got.Status)
		require.NotNil(t, got.Job)
		assert.Equal(t, "Go Engineer", got.Job.Title)

		mine, total, err := apps.ListByUser(ctx, u.UserID, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Len(t, mine, 1)

		s := &domain.SavedJob{UserID: u.UserID, JobID: open.JobID, CreatedAt: now}
		require.NoError(t, saved.Save(ctx, s))
		require.NoError(t, saved.Save(ctx, s))
		ok, err := saved.Exists(ctx, u.UserID, open.JobID)
		require.NoError(t, err)
		assert.True(t, ok)

		bookmarks, total, err := saved.ListByUser(ctx, u.UserID, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, bookmarks, 1)
		assert.Equal(t, "Go Engineer", bookmarks[0].Job.Title)

		require.NoError(t, saved.Delete(ctx, u.UserID, open.JobID))
		assert.ErrorIs(t, saved.Delete(ctx, u.UserID, open.JobID), domain.ErrNotFound)
	})
}
