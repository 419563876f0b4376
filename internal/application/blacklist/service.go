package blacklist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/huntier-api/internal/domain"
	"github.com/huntier-api/internal/pkg/clock"
	"github.com/huntier-api/internal/pkg/contact"
	"github.com/samber/lo"
)

type Service interface {
	// IsBlocked returns the active entry for contact, or nil when it may proceed.
	IsBlocked(ctx context.Context, contact string) (*domain.BlacklistEntry, error)
	Block(ctx context.Context, contact, reason string, duration time.Duration, actor string) (*domain.BlacklistEntry, error)
	Unblock(ctx context.Context, contact string) error
	Get(ctx context.Context, contact string) (*domain.BlacklistEntry, error)
	List(ctx context.Context, limit int32, cursor string) ([]domain.BlacklistEntry, string, error)
}

type blacklistStore interface {
	Put(ctx context.Context, e *domain.BlacklistEntry) error
	Get(ctx context.Context, contact string) (*domain.BlacklistEntry, error)
	Delete(ctx context.Context, contact string) error
	ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.BlacklistEntry, string, error)
}

type ServiceDeps struct {
	Repo  blacklistStore
	Clock clock.Clock
}

type service struct {
	repo  blacklistStore
	clock clock.Clock
}

func NewService(deps ServiceDeps) Service {
	c := deps.Clock
	if c == nil {
		c = clock.System()
	}
	return &service{repo: deps.Repo, clock: c}
}

func (s *service) IsBlocked(ctx context.Context, c string) (*domain.BlacklistEntry, error) {
	e, err := s.repo.Get(ctx, c)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	// TTL deletion lags by up to a couple of days; expired rows are ignored.
	if !e.Active(s.clock.Now()) {
		return nil, nil
	}
	return e, nil
}

// Block records or replaces the entry for contact. A zero duration blocks permanently.
func (s *service) Block(ctx context.Context, c, reason string, duration time.Duration, actor string) (*domain.BlacklistEntry, error) {
	if strings.TrimSpace(c) == "" {
		return nil, fmt.Errorf("contact required: %w", domain.ErrBadRequest)
	}
	if duration < 0 {
		return nil, fmt.Errorf("duration must not be negative: %w", domain.ErrBadRequest)
	}
	if reason == "" {
		reason = domain.BlockReasonManual
	}
	now := s.clock.Now().UTC()
	e := &domain.BlacklistEntry{
		Contact:   c,
		Reason:    reason,
		BlockedBy: actor,
		CreatedAt: now,
	}
	if duration > 0 {
		e.ExpiresAt = now.Add(duration).Unix()
	}
	if err := s.repo.Put(ctx, e); err != nil {
		return nil, err
	}
	slog.Warn("contact blacklisted", "contact", contact.Mask(c), "reason", reason, "by", actor, "expires_at", e.ExpiresAt)
	return e, nil
}

func (s *service) Unblock(ctx context.Context, c string) error {
	if err := s.repo.Delete(ctx, c); err != nil {
		return err
	}
	slog.Info("contact unblocked", "contact", contact.Mask(c))
	return nil
}

func (s *service) Get(ctx context.Context, c string) (*domain.BlacklistEntry, error) {
	e, err := s.IsBlocked(ctx, c)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, fmt.Errorf("contact not blacklisted: %w", domain.ErrNotFound)
	}
	return e, nil
}

func (s *service) List(ctx context.Context, limit int32, cursor string) ([]domain.BlacklistEntry, string, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	items, next, err := s.repo.ScanPage(ctx, limit, cursor)
	if err != nil {
		return nil, "", err
	}
	now := s.clock.Now()
	active := lo.Filter(items, func(e domain.BlacklistEntry, _ int) bool { return e.Active(now) })
	return active, next, nil
}
