package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"
	"time"

	"github.com/huntier-api/internal/config"
	"github.com/huntier-api/internal/domain"
	"github.com/huntier-api/internal/pkg/clock"
	"github.com/huntier-api/internal/pkg/contact"
	"golang.org/x/crypto/bcrypt"
)

// Issued describes a code that was just delivered. The code itself never
// leaves this package.
type Issued struct {
	Channel           domain.ContactKind `json:"channel"`
	ExpiresAt         time.Time          `json:"expires_at"`
	ResendAvailableAt time.Time          `json:"resend_available_at"`
	ResendsLeft       int                `json:"resends_left"`
}

type Service interface {
	Issue(ctx context.Context, c domain.Contact, purpose domain.OTPPurpose, locale domain.Locale) (*Issued, error)
	Resend(ctx context.Context, c domain.Contact, purpose domain.OTPPurpose, locale domain.Locale) (*Issued, error)
	// Verify consumes the pending code on success. Wrong codes return a
	// *domain.InvalidCodeError until attempts run out.
	Verify(ctx context.Context, c domain.Contact, purpose domain.OTPPurpose, code string) error
}

type codeStore interface {
	Put(ctx context.Context, c *domain.OTPCode) error
	Get(ctx context.Context, contact string, purpose domain.OTPPurpose) (*domain.OTPCode, error)
	Delete(ctx context.Context, contact string, purpose domain.OTPPurpose) error
	Consume(ctx context.Context, contact string, purpose domain.OTPPurpose, codeHash string) error
	IncrementAttempts(ctx context.Context, contact string, purpose domain.OTPPurpose, max int) (int, error)
	Replace(ctx context.Context, contact string, purpose domain.OTPPurpose, codeHash string, sentAt, expiresAt int64, max int) (int, error)
}

type windowStore interface {
	Increment(ctx context.Context, contact, window string, expiresAt int64) (int, error)
}

type blocker interface {
	IsBlocked(ctx context.Context, contact string) (*domain.BlacklistEntry, error)
	Block(ctx context.Context, contact, reason string, duration time.Duration, actor string) (*domain.BlacklistEntry, error)
}

type codeSender interface {
	SendCode(ctx context.Context, c domain.Contact, purpose domain.OTPPurpose, locale domain.Locale, code string, ttl time.Duration) error
}

type ServiceDeps struct {
	Codes     codeStore
	Windows   windowStore
	Blacklist blocker
	Sender    codeSender
	Policy    config.OTPPolicy
	Clock     clock.Clock
	// HashCost defaults to bcrypt.DefaultCost.
	HashCost int
}

type service struct {
	codes     codeStore
	windows   windowStore
	blacklist blocker
	sender    codeSender
	policy    config.OTPPolicy
	clock     clock.Clock
	hashCost  int
	generate  func(length int) (string, error)
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		codes:     deps.Codes,
		windows:   deps.Windows,
		blacklist: deps.Blacklist,
		sender:    deps.Sender,
		policy:    deps.Policy,
		clock:     deps.Clock,
		hashCost:  deps.HashCost,
		generate:  generateCode,
	}
	if s.clock == nil {
		s.clock = clock.System()
	}
	if s.hashCost == 0 {
		s.hashCost = bcrypt.DefaultCost
	}
	return s
}

func (s *service) Issue(ctx context.Context, c domain.Contact, purpose domain.OTPPurpose, locale domain.Locale) (*Issued, error) {
	if err := s.checkBlocked(ctx, c); err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if err := s.countIssue(ctx, c, now); err != nil {
		return nil, err
	}

	code, hash, err := s.newCode()
	if err != nil {
		return nil, err
	}
	rec := &domain.OTPCode{
		Contact:    c.Value,
		Purpose:    purpose,
		Channel:    c.Kind,
		CodeHash:   hash,
		LastSentAt: now.Unix(),
		ExpiresAt:  now.Add(s.policy.CodeTTL).Unix(),
		CreatedAt:  now.Unix(),
	}
	if err := s.codes.Put(ctx, rec); err != nil {
		return nil, fmt.Errorf("store code: %w", err)
	}
	if err := s.deliver(ctx, c, purpose, locale, code); err != nil {
		return nil, err
	}
	slog.Info("otp issued", "contact", contact.Mask(c.Value), "purpose", purpose, "channel", c.Kind)
	return s.issued(rec, 0), nil
}

func (s *service) Resend(ctx context.Context, c domain.Contact, purpose domain.OTPPurpose, locale domain.Locale) (*Issued, error) {
	if err := s.checkBlocked(ctx, c); err != nil {
		return nil, err
	}
	now := s.clock.Now()
	existing, err := s.codes.Get(ctx, c.Value, purpose)
	if errors.Is(err, domain.ErrNotFound) {
		return s.Issue(ctx, c, purpose, locale)
	}
	if err != nil {
		return nil, fmt.Errorf("load code: %w", err)
	}
	if existing.ExpiresAt <= now.Unix() {
		return s.Issue(ctx, c, purpose, locale)
	}

	if wait := time.Unix(existing.LastSentAt, 0).Add(s.policy.ResendCooldown).Sub(now); wait > 0 {
		return nil, &domain.RetryAfterError{After: wait, Reason: "resend cooldown"}
	}
	if err := s.countIssue(ctx, c, now); err != nil {
		return nil, err
	}

	code, hash, err := s.newCode()
	if err != nil {
		return nil, err
	}
	expiresAt := now.Add(s.policy.CodeTTL).Unix()
	count, err := s.codes.Replace(ctx, c.Value, purpose, hash, now.Unix(), expiresAt, s.policy.MaxResends)
	if errors.Is(err, domain.ErrLimitReached) {
		s.discard(ctx, c, purpose)
		s.block(ctx, c, domain.BlockReasonResends)
		return nil, domain.ErrContactBlocked
	}
	if err != nil {
		return nil, fmt.Errorf("replace code: %w", err)
	}
	if err := s.deliver(ctx, c, purpose, locale, code); err != nil {
		return nil, err
	}
	existing.CodeHash = hash
	existing.LastSentAt = now.Unix()
	existing.ExpiresAt = expiresAt
	slog.Info("otp resent", "contact", contact.Mask(c.Value), "purpose", purpose, "resend_count", count)
	return s.issued(existing, count), nil
}

func (s *service) Verify(ctx context.Context, c domain.Contact, purpose domain.OTPPurpose, code string) error {
	if err := s.checkBlocked(ctx, c); err != nil {
		return err
	}
	rec, err := s.codes.Get(ctx, c.Value, purpose)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("no pending code: %w", domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("load code: %w", err)
	}
	if rec.ExpiresAt <= s.clock.Now().Unix() {
		s.discard(ctx, c, purpose)
		return fmt.Errorf("code expired: %w", domain.ErrUnauthorized)
	}

	attempts, err := s.codes.IncrementAttempts(ctx, c.Value, purpose, s.policy.MaxAttempts)
	if errors.Is(err, domain.ErrLimitReached) {
		s.discard(ctx, c, purpose)
		s.block(ctx, c, domain.BlockReasonAttempts)
		return domain.ErrContactBlocked
	}
	if err != nil {
		return fmt.Errorf("count attempt: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(rec.CodeHash), []byte(code)) != nil {
		remaining := s.policy.MaxAttempts - attempts
		if remaining <= 0 {
			s.discard(ctx, c, purpose)
			s.block(ctx, c, domain.BlockReasonAttempts)
			return domain.ErrContactBlocked
		}
		return &domain.InvalidCodeError{Remaining: remaining}
	}

	// Single use: only the caller whose conditional delete wins is verified.
	if err := s.codes.Consume(ctx, c.Value, purpose, rec.CodeHash); err != nil {
		return fmt.Errorf("consume code: %w", err)
	}
	slog.Info("otp verified", "contact", contact.Mask(c.Value), "purpose", purpose)
	return nil
}

func (s *service) checkBlocked(ctx context.Context, c domain.Contact) error {
	e, err := s.blacklist.IsBlocked(ctx, c.Value)
	if err != nil {
		return fmt.Errorf("check blacklist: %w", err)
	}
	if e != nil {
		return domain.ErrContactBlocked
	}
	return nil
}

// countIssue bumps the per-contact issuance counter of the current fixed window.
func (s *service) countIssue(ctx context.Context, c domain.Contact, now time.Time) error {
	start := now.Truncate(s.policy.Window)
	end := start.Add(s.policy.Window)
	n, err := s.windows.Increment(ctx, c.Value, strconv.FormatInt(start.Unix(), 10), end.Unix())
	if err != nil {
		return fmt.Errorf("count issuance: %w", err)
	}
	if n > s.policy.MaxIssuesInWindow {
		s.block(ctx, c, domain.BlockReasonRate)
		return &domain.RetryAfterError{After: s.policy.BlacklistDuration, Reason: "too many codes requested"}
	}
	return nil
}

func (s *service) newCode() (code, hash string, err error) {
	code, err = s.generate(s.policy.CodeLength)
	if err != nil {
		return "", "", fmt.Errorf("generate code: %w", err)
	}
	h, err := bcrypt.GenerateFromPassword([]byte(code), s.hashCost)
	if err != nil {
		return "", "", fmt.Errorf("hash code: %w", err)
	}
	return code, string(h), nil
}

// deliver sends the code. A code that never reached the user is withdrawn so
// the next request starts clean.
func (s *service) deliver(ctx context.Context, c domain.Contact, purpose domain.OTPPurpose, locale domain.Locale, code string) error {
	if err := s.sender.SendCode(ctx, c, purpose, locale, code, s.policy.CodeTTL); err != nil {
		s.discard(ctx, c, purpose)
		slog.Error("otp delivery failed", "contact", contact.Mask(c.Value), "channel", c.Kind, "error", err)
		return fmt.Errorf("deliver code: %w", err)
	}
	return nil
}

func (s *service) discard(ctx context.Context, c domain.Contact, purpose domain.OTPPurpose) {
	if err := s.codes.Delete(ctx, c.Value, purpose); err != nil {
		slog.Warn("failed to delete otp code", "contact", contact.Mask(c.Value), "purpose", purpose, "error", err)
	}
}

func (s *service) block(ctx context.Context, c domain.Contact, reason string) {
	if _, err := s.blacklist.Block(ctx, c.Value, reason, s.policy.BlacklistDuration, domain.BlockedBySystem); err != nil {
		slog.Error("failed to blacklist contact", "contact", contact.Mask(c.Value), "reason", reason, "error", err)
	}
}

func (s *service) issued(rec *domain.OTPCode, resendCount int) *Issued {
	return &Issued{
		Channel:           rec.Channel,
		ExpiresAt:         time.Unix(rec.ExpiresAt, 0).UTC(),
		ResendAvailableAt: time.Unix(rec.LastSentAt, 0).Add(s.policy.ResendCooldown).UTC(),
		ResendsLeft:       max(s.policy.MaxResends-resendCount, 0),
	}
}

// generateCode returns a uniformly random numeric code of the given length.
func generateCode(length int) (string, error) {
	if length < 4 || length > 10 {
		return "", fmt.Errorf("code length %d out of range", length)
	}
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", length, n), nil
}
