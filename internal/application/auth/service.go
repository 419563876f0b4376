package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/huntier-api/internal/application/otp"
	"github.com/huntier-api/internal/application/session"
	"github.com/huntier-api/internal/domain"
	"github.com/huntier-api/internal/infrastructure/google"
	"github.com/huntier-api/internal/pkg/clock"
	pkgcontact "github.com/huntier-api/internal/pkg/contact"
	"github.com/huntier-api/internal/pkg/id"
)

type RequestCodeRequest struct {
	Contact string `json:"contact" validate:"required,max=254"`
}

type VerifyCodeRequest struct {
	Contact string `json:"contact" validate:"required,max=254"`
	Code    string `json:"code" validate:"required,numeric,min=4,max=10"`
}

type GoogleSignInRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

// CodeSent is returned after a code was delivered. Contact is masked.
type CodeSent struct {
	Contact string `json:"contact"`
	*otp.Issued
}

// SignIn is the outcome of a successful sign-in.
type SignIn struct {
	*session.Result
	NewUser bool
}

type Service interface {
	RequestCode(ctx context.Context, rawContact string, locale domain.Locale) (*CodeSent, error)
	ResendCode(ctx context.Context, rawContact string, locale domain.Locale) (*CodeSent, error)
	VerifyCode(ctx context.Context, rawContact, code string, locale domain.Locale, meta domain.ClientMeta) (*SignIn, error)
	GoogleSignIn(ctx context.Context, idToken string, locale domain.Locale, meta domain.ClientMeta) (*SignIn, error)
}

type codeService interface {
	Issue(ctx context.Context, c domain.Contact, purpose domain.OTPPurpose, locale domain.Locale) (*otp.Issued, error)
	Resend(ctx context.Context, c domain.Contact, purpose domain.OTPPurpose, locale domain.Locale) (*otp.Issued, error)
	Verify(ctx context.Context, c domain.Contact, purpose domain.OTPPurpose, code string) error
}

type userStore interface {
	Create(ctx context.Context, u *domain.User) error
	GetByContact(ctx context.Context, c domain.Contact) (*domain.User, error)
	GetByGoogleSub(ctx context.Context, sub string) (*domain.User, error)
	AttachContact(ctx context.Context, userID string, c domain.Contact) error
	LinkGoogle(ctx context.Context, userID, sub, email string) error
}

type profileStore interface {
	Get(ctx context.Context, userID string) (*domain.Profile, error)
	Save(ctx context.Context, p *domain.Profile) error
}

type sessionCreator interface {
	Create(ctx context.Context, u *domain.User, meta domain.ClientMeta) (*session.Result, error)
}

type googleVerifier interface {
	Verify(ctx context.Context, token string) (*google.Payload, error)
}

type ServiceDeps struct {
	OTP            codeService
	UserRepo       userStore
	ProfileRepo    profileStore
	Sessions       sessionCreator
	GoogleVerifier googleVerifier
	Clock          clock.Clock
}

type service struct {
	otp      codeService
	users    userStore
	profiles profileStore
	sessions sessionCreator
	google   googleVerifier
	clock    clock.Clock
}

func NewService(deps ServiceDeps) Service {
	c := deps.Clock
	if c == nil {
		c = clock.System()
	}
	return &service{
		otp:      deps.OTP,
		users:    deps.UserRepo,
		profiles: deps.ProfileRepo,
		sessions: deps.Sessions,
		google:   deps.GoogleVerifier,
		clock:    c,
	}
}

func (s *service) RequestCode(ctx context.Context, raw string, locale domain.Locale) (*CodeSent, error) {
	c, err := pkgcontact.Parse(raw)
	if err != nil {
		return nil, err
	}
	issued, err := s.otp.Issue(ctx, c, domain.OTPPurposeLogin, locale)
	if err != nil {
		return nil, err
	}
	return &CodeSent{Contact: pkgcontact.Mask(c.Value), Issued: issued}, nil
}

func (s *service) ResendCode(ctx context.Context, raw string, locale domain.Locale) (*CodeSent, error) {
	c, err := pkgcontact.Parse(raw)
	if err != nil {
		return nil, err
	}
	issued, err := s.otp.Resend(ctx, c, domain.OTPPurposeLogin, locale)
	if err != nil {
		return nil, err
	}
	return &CodeSent{Contact: pkgcontact.Mask(c.Value), Issued: issued}, nil
}

// VerifyCode signs in the owner of the contact, creating a candidate account
// on first sign-in.
func (s *service) VerifyCode(ctx context.Context, raw, code string, locale domain.Locale, meta domain.ClientMeta) (*SignIn, error) {
	c, err := pkgcontact.Parse(raw)
	if err != nil {
		return nil, err
	}
	if err := s.otp.Verify(ctx, c, domain.OTPPurposeLogin, code); err != nil {
		return nil, err
	}

	u, created, err := s.findOrCreate(ctx, c, locale)
	if err != nil {
		return nil, err
	}
	if !u.Enable {
		return nil, fmt.Errorf("account disabled: %w", domain.ErrForbidden)
	}
	res, err := s.sessions.Create(ctx, u, meta)
	if err != nil {
		return nil, err
	}
	return &SignIn{Result: res, NewUser: created}, nil
}

func (s *service) findOrCreate(ctx context.Context, c domain.Contact, locale domain.Locale) (*domain.User, bool, error) {
	u, err := s.users.GetByContact(ctx, c)
	if err == nil {
		// a code just reached this contact, so it is verified now
		if !contactVerified(u, c) {
			if err := s.users.AttachContact(ctx, u.UserID, c); err != nil {
				return nil, false, err
			}
			markVerified(u, c)
		}
		return u, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}

	now := s.clock.Now().UTC()
	u = &domain.User{
		UserID:    id.NewUUID(),
		Role:      domain.RoleCandidate,
		Locale:    locale,
		Enable:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	value := c.Value
	if c.Kind == domain.ContactEmail {
		u.Email = &value
	} else {
		u.Phone = &value
	}
	markVerified(u, c)

	if err := s.users.Create(ctx, u); err != nil {
		// lost a race with a concurrent first sign-in for the same contact
		if errors.Is(err, domain.ErrConflict) {
			u, err = s.users.GetByContact(ctx, c)
			return u, false, err
		}
		return nil, false, err
	}
	slog.Info("user created", "user_id", u.UserID, "channel", c.Kind)
	return u, true, nil
}

// GoogleSignIn signs in with a Google ID token. Accounts are matched by
// Google subject first, then by verified e-mail.
func (s *service) GoogleSignIn(ctx context.Context, idToken string, locale domain.Locale, meta domain.ClientMeta) (*SignIn, error) {
	p, err := s.google.Verify(ctx, idToken)
	if err != nil {
		return nil, err
	}
	if !p.EmailVerified || p.Email == "" {
		return nil, fmt.Errorf("google email not verified: %w", domain.ErrUnauthorized)
	}
	email := domain.Contact{Kind: domain.ContactEmail, Value: strings.ToLower(strings.TrimSpace(p.Email))}

	created := false
	u, err := s.users.GetByGoogleSub(ctx, p.Sub)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound):
		u, created, err = s.linkOrCreateGoogle(ctx, p, email, locale)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	if !u.Enable {
		return nil, fmt.Errorf("account disabled: %w", domain.ErrForbidden)
	}
	res, err := s.sessions.Create(ctx, u, meta)
	if err != nil {
		return nil, err
	}
	return &SignIn{Result: res, NewUser: created}, nil
}

func (s *service) linkOrCreateGoogle(ctx context.Context, p *google.Payload, email domain.Contact, locale domain.Locale) (*domain.User, bool, error) {
	u, err := s.users.GetByContact(ctx, email)
	if err == nil {
		if u.GoogleSub != nil && *u.GoogleSub != p.Sub {
			return nil, false, fmt.Errorf("email linked to another google account: %w", domain.ErrConflict)
		}
		if err := s.users.LinkGoogle(ctx, u.UserID, p.Sub, email.Value); err != nil {
			return nil, false, err
		}
		sub := p.Sub
		u.GoogleSub = &sub
		u.EmailVerified = true
		return u, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}

	if l, ok := domain.ParseLocale(p.Locale); ok && locale == "" {
		locale = l
	}
	if locale == "" {
		locale = domain.LocaleEN
	}
	now := s.clock.Now().UTC()
	addr, sub := email.Value, p.Sub
	u = &domain.User{
		UserID:        id.NewUUID(),
		Email:         &addr,
		EmailVerified: true,
		Role:          domain.RoleCandidate,
		Locale:        locale,
		GoogleSub:     &sub,
		Enable:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, false, err
	}
	s.prefillNames(ctx, u.UserID, p)
	slog.Info("user created", "user_id", u.UserID, "channel", "google")
	return u, true, nil
}

// prefillNames copies the Google profile names into the empty profile.
func (s *service) prefillNames(ctx context.Context, userID string, p *google.Payload) {
	if s.profiles == nil || (p.FirstName == "" && p.LastName == "") {
		return
	}
	prof, err := s.profiles.Get(ctx, userID)
	if err != nil {
		slog.Warn("failed to load new profile", "user_id", userID, "err", err)
		return
	}
	prof.FirstName = p.FirstName
	prof.LastName = p.LastName
	if err := s.profiles.Save(ctx, prof); err != nil {
		slog.Warn("failed to prefill profile names", "user_id", userID, "err", err)
	}
}

func contactVerified(u *domain.User, c domain.Contact) bool {
	if c.Kind == domain.ContactEmail {
		return u.EmailVerified
	}
	return u.PhoneVerified
}

func markVerified(u *domain.User, c domain.Contact) {
	if c.Kind == domain.ContactEmail {
		u.EmailVerified = true
	} else {
		u.PhoneVerified = true
	}
}
