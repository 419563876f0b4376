package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/huntier-api/internal/domain"
	"github.com/huntier-api/internal/pkg/clock"
	"github.com/huntier-api/internal/pkg/id"
	pkgtoken "github.com/huntier-api/internal/pkg/token"
)

// Result carries the credentials handed to a client after sign-in or refresh.
type Result struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
	Session          *domain.Session
}

type Service interface {
	Create(ctx context.Context, u *domain.User, meta domain.ClientMeta) (*Result, error)
	Refresh(ctx context.Context, refreshToken string) (*Result, error)
	GetCurrent(ctx context.Context, sessionID string) (*domain.Session, error)
	// Active reports an error unless the session exists and is enabled.
	Active(ctx context.Context, sessionID string) error
	Logout(ctx context.Context, sessionID string) error
	LogoutAll(ctx context.Context, userID string) error
}

type sessionStore interface {
	Put(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	Disable(ctx context.Context, sessionID string) error
	DisableByUser(ctx context.Context, userID string) error
	GetByRefreshTokenHash(ctx context.Context, hash string) (*domain.Session, error)
	RotateRefreshToken(ctx context.Context, sessionID, oldHash, newHash string, newExpiry int64) error
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type jwtSigner interface {
	Sign(userID, role, sessionID string) (string, time.Time, error)
}

type ServiceDeps struct {
	SessionRepo     sessionStore
	UserRepo        userStore
	JWTProvider     jwtSigner
	RefreshTokenDur time.Duration
	Clock           clock.Clock
}

type service struct {
	sessionRepo     sessionStore
	userRepo        userStore
	jwtProvider     jwtSigner
	refreshTokenDur time.Duration
	clock           clock.Clock
}

func NewService(deps ServiceDeps) Service {
	c := deps.Clock
	if c == nil {
		c = clock.System()
	}
	return &service{
		sessionRepo:     deps.SessionRepo,
		userRepo:        deps.UserRepo,
		jwtProvider:     deps.JWTProvider,
		refreshTokenDur: deps.RefreshTokenDur,
		clock:           c,
	}
}

func (s *service) Create(ctx context.Context, u *domain.User, meta domain.ClientMeta) (*Result, error) {
	if !u.Enable {
		return nil, fmt.Errorf("account disabled: %w", domain.ErrForbidden)
	}
	refreshToken, err := pkgtoken.NewRefreshToken()
	if err != nil {
		return nil, err
	}
	now := s.clock.Now().UTC()
	refreshExp := now.Add(s.refreshTokenDur)
	sess := &domain.Session{
		SessionID:        id.New(),
		UserID:           u.UserID,
		Enable:           true,
		RefreshTokenHash: pkgtoken.Hash(refreshToken),
		RefreshExpiresAt: refreshExp.Unix(),
		UserAgent:        meta.UserAgent,
		IP:               meta.IP,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.sessionRepo.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	bearer, accessExp, err := s.jwtProvider.Sign(u.UserID, u.Role, sess.SessionID)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	sess.User = u
	slog.Info("session created", "session_id", sess.SessionID, "user_id", u.UserID)
	return &Result{
		AccessToken:      bearer,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExp,
		Session:          sess,
	}, nil
}

// Refresh redeems a refresh token once and issues a new token pair.
func (s *service) Refresh(ctx context.Context, refreshToken string) (*Result, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("refresh token required: %w", domain.ErrUnauthorized)
	}
	oldHash := pkgtoken.Hash(refreshToken)
	sess, err := s.sessionRepo.GetByRefreshTokenHash(ctx, oldHash)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrUnauthorized) {
			return nil, fmt.Errorf("invalid refresh token: %w", domain.ErrUnauthorized)
		}
		return nil, err
	}
	now := s.clock.Now().UTC()
	if sess.RefreshExpiresAt <= now.Unix() {
		return nil, fmt.Errorf("refresh token expired: %w", domain.ErrUnauthorized)
	}

	u, err := s.userRepo.Get(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	if !u.Enable {
		if err := s.sessionRepo.Disable(ctx, sess.SessionID); err != nil {
			slog.Warn("failed to disable session of disabled user", "session_id", sess.SessionID, "err", err)
		}
		return nil, fmt.Errorf("account disabled: %w", domain.ErrForbidden)
	}

	newToken, err := pkgtoken.NewRefreshToken()
	if err != nil {
		return nil, err
	}
	refreshExp := now.Add(s.refreshTokenDur)
	if err := s.sessionRepo.RotateRefreshToken(ctx, sess.SessionID, oldHash, pkgtoken.Hash(newToken), refreshExp.Unix()); err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			slog.Warn("refresh token reuse rejected", "session_id", sess.SessionID, "user_id", sess.UserID)
		}
		return nil, err
	}
	bearer, accessExp, err := s.jwtProvider.Sign(u.UserID, u.Role, sess.SessionID)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	sess.RefreshTokenHash = pkgtoken.Hash(newToken)
	sess.RefreshExpiresAt = refreshExp.Unix()
	sess.UpdatedAt = now
	sess.User = u
	return &Result{
		AccessToken:      bearer,
		AccessExpiresAt:  accessExp,
		RefreshToken:     newToken,
		RefreshExpiresAt: refreshExp,
		Session:          sess,
	}, nil
}

func (s *service) GetCurrent(ctx context.Context, sessionID string) (*domain.Session, error) {
	sess, err := s.active(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	u, err := s.userRepo.Get(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	sess.User = u
	return sess, nil
}

func (s *service) Active(ctx context.Context, sessionID string) error {
	_, err := s.active(ctx, sessionID)
	return err
}

func (s *service) active(ctx context.Context, sessionID string) (*domain.Session, error) {
	sess, err := s.sessionRepo.Get(ctx, sessionID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("session not found: %w", domain.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if !sess.Enable {
		return nil, fmt.Errorf("session signed out: %w", domain.ErrUnauthorized)
	}
	return sess, nil
}

func (s *service) Logout(ctx context.Context, sessionID string) error {
	return s.sessionRepo.Disable(ctx, sessionID)
}

func (s *service) LogoutAll(ctx context.Context, userID string) error {
	if err := s.sessionRepo.DisableByUser(ctx, userID); err != nil {
		return err
	}
	slog.Info("all sessions signed out", "user_id", userID)
	return nil
}
