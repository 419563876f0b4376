package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/huntier-api/internal/domain"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// Service is the admin view of accounts.
type Service interface {
	List(ctx context.Context, role string, page, perPage int) ([]domain.User, int, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, actorID, userID string, req domain.UpdateUserRequest) (*domain.User, error)
}

type userStore interface {
	List(ctx context.Context, role string, limit, offset int) ([]domain.User, int, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	SetRole(ctx context.Context, userID, role string) error
	SetEnable(ctx context.Context, userID string, enable bool) error
}

type sessionStore interface {
	DisableByUser(ctx context.Context, userID string) error
}

type ServiceDeps struct {
	UserRepo    userStore
	SessionRepo sessionStore
}

type service struct {
	repo        userStore
	sessionRepo sessionStore
}

func NewService(deps ServiceDeps) Service {
	return &service{repo: deps.UserRepo, sessionRepo: deps.SessionRepo}
}

func (s *service) List(ctx context.Context, role string, page, perPage int) ([]domain.User, int, error) {
	if role != "" && !domain.ValidRole(role) {
		return nil, 0, fmt.Errorf("unknown role %q: %w", role, domain.ErrBadRequest)
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return s.repo.List(ctx, role, perPage, (page-1)*perPage)
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	return s.repo.Get(ctx, userID)
}

// Update changes the role or enable flag. Admins cannot demote or disable
// themselves. A role change or a disable signs out every session of the
// account, since access tokens carry the role they were issued with.
func (s *service) Update(ctx context.Context, actorID, userID string, req domain.UpdateUserRequest) (*domain.User, error) {
	u, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if userID == actorID {
		if (req.Role != nil && *req.Role != u.Role) || (req.Enable != nil && !*req.Enable) {
			return nil, fmt.Errorf("cannot change own role or disable own account: %w", domain.ErrForbidden)
		}
	}
	if req.Role != nil && *req.Role != u.Role {
		if !domain.ValidRole(*req.Role) {
			return nil, fmt.Errorf("unknown role %q: %w", *req.Role, domain.ErrBadRequest)
		}
		if err := s.repo.SetRole(ctx, userID, *req.Role); err != nil {
			return nil, err
		}
		if err := s.sessionRepo.DisableByUser(ctx, userID); err != nil {
			return nil, fmt.Errorf("sign out user after role change: %w", err)
		}
		slog.Info("user role changed", "user_id", userID, "role", *req.Role, "actor_id", actorID)
	}
	if req.Enable != nil && *req.Enable != u.Enable {
		if err := s.repo.SetEnable(ctx, userID, *req.Enable); err != nil {
			return nil, err
		}
		if !*req.Enable {
			if err := s.sessionRepo.DisableByUser(ctx, userID); err != nil {
				return nil, fmt.Errorf("sign out disabled user: %w", err)
			}
		}
		slog.Info("user enable changed", "user_id", userID, "enable", *req.Enable, "actor_id", actorID)
	}
	return s.repo.Get(ctx, userID)
}
