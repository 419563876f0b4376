package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/huntier-api/internal/application/otp"
	"github.com/huntier-api/internal/domain"
	"github.com/huntier-api/internal/pkg/clock"
	pkgcontact "github.com/huntier-api/internal/pkg/contact"
	"github.com/huntier-api/internal/pkg/id"
	"github.com/samber/lo"
)

type ContactVerificationRequest struct {
	Contact string `json:"contact" validate:"required,max=254"`
}

type VerifyContactRequest struct {
	Contact string `json:"contact" validate:"required,max=254"`
	Code    string `json:"code" validate:"required,numeric,min=4,max=10"`
}

type Service interface {
	GetProfile(ctx context.Context, userID string) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, userID string, req domain.UpdateProfileRequest) (*domain.Profile, error)

	SubmitPersonal(ctx context.Context, userID string, req domain.PersonalStepRequest) (*domain.OnboardingStatus, error)
	SubmitResume(ctx context.Context, userID string, req domain.ResumeStepRequest) (*domain.OnboardingStatus, error)
	SubmitPreferences(ctx context.Context, userID string, req domain.PreferencesStepRequest) (*domain.OnboardingStatus, error)
	OnboardingStatus(ctx context.Context, userID string) (*domain.OnboardingStatus, error)
	CompleteOnboarding(ctx context.Context, userID string) (*domain.OnboardingStatus, error)

	RequestContactVerification(ctx context.Context, userID, rawContact string, locale domain.Locale) (*otp.Issued, error)
	ResendContactVerification(ctx context.Context, userID, rawContact string, locale domain.Locale) (*otp.Issued, error)
	VerifyContact(ctx context.Context, userID, rawContact, code string) (*domain.User, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByContact(ctx context.Context, c domain.Contact) (*domain.User, error)
	AttachContact(ctx context.Context, userID string, c domain.Contact) error
	SetLocale(ctx context.Context, userID string, locale domain.Locale) error
	MarkOnboarded(ctx context.Context, userID string, at time.Time) (time.Time, error)
}

type profileStore interface {
	Get(ctx context.Context, userID string) (*domain.Profile, error)
	Save(ctx context.Context, p *domain.Profile) error
}

type resumeStore interface {
	Get(ctx context.Context, resumeID string) (*domain.Resume, error)
}

type codeService interface {
	Issue(ctx context.Context, c domain.Contact, purpose domain.OTPPurpose, locale domain.Locale) (*otp.Issued, error)
	Resend(ctx context.Context, c domain.Contact, purpose domain.OTPPurpose, locale domain.Locale) (*otp.Issued, error)
	Verify(ctx context.Context, c domain.Contact, purpose domain.OTPPurpose, code string) error
}

type ServiceDeps struct {
	UserRepo    userStore
	ProfileRepo profileStore
	ResumeRepo  resumeStore
	OTP         codeService
	Clock       clock.Clock
}

type service struct {
	users    userStore
	profiles profileStore
	resumes  resumeStore
	otp      codeService
	clock    clock.Clock
}

func NewService(deps ServiceDeps) Service {
	c := deps.Clock
	if c == nil {
		c = clock.System()
	}
	return &service{
		users:    deps.UserRepo,
		profiles: deps.ProfileRepo,
		resumes:  deps.ResumeRepo,
		otp:      deps.OTP,
		clock:    c,
	}
}

func (s *service) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	return s.profiles.Get(ctx, userID)
}

// UpdateProfile applies the non-nil fields of req. Slices replace the stored
// lists when present.
func (s *service) UpdateProfile(ctx context.Context, userID string, req domain.UpdateProfileRequest) (*domain.Profile, error) {
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	setString(&p.FirstName, req.FirstName)
	setString(&p.LastName, req.LastName)
	setString(&p.Headline, req.Headline)
	setString(&p.Location, req.Location)
	setString(&p.Bio, req.Bio)
	setString(&p.LinkedInURL, req.LinkedInURL)
	setString(&p.RemotePref, req.RemotePref)
	if req.SalaryCurrency != nil {
		p.SalaryCurrency = strings.ToUpper(strings.TrimSpace(*req.SalaryCurrency))
	}
	if req.YearsExperience != nil {
		p.YearsExperience = req.YearsExperience
	}
	if req.SalaryMin != nil {
		p.SalaryMin = req.SalaryMin
	}
	if req.SalaryMax != nil {
		p.SalaryMax = req.SalaryMax
	}
	if req.DesiredRoles != nil {
		p.DesiredRoles = normalizeList(req.DesiredRoles)
	}
	if req.DesiredLocs != nil {
		p.DesiredLocs = normalizeList(req.DesiredLocs)
	}
	if req.JobTypes != nil {
		p.JobTypes = normalizeList(req.JobTypes)
	}
	if err := checkSalary(p.SalaryMin, p.SalaryMax); err != nil {
		return nil, err
	}
	if err := s.profiles.Save(ctx, p); err != nil {
		return nil, err
	}

	if req.Locale != nil {
		if l, ok := domain.ParseLocale(*req.Locale); ok {
			if err := s.users.SetLocale(ctx, userID, l); err != nil {
				return nil, err
			}
		}
	}
	return p, nil
}

func (s *service) SubmitPersonal(ctx context.Context, userID string, req domain.PersonalStepRequest) (*domain.OnboardingStatus, error) {
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	p.FirstName = strings.TrimSpace(req.FirstName)
	p.LastName = strings.TrimSpace(req.LastName)
	p.Location = strings.TrimSpace(req.Location)
	p.Headline = strings.TrimSpace(req.Headline)
	if err := s.profiles.Save(ctx, p); err != nil {
		return nil, err
	}
	return s.status(ctx, userID, p)
}

// SubmitResume attaches one of the user's uploaded resumes to the profile.
func (s *service) SubmitResume(ctx context.Context, userID string, req domain.ResumeStepRequest) (*domain.OnboardingStatus, error) {
	if !id.IsUUID(req.ResumeID) {
		return nil, fmt.Errorf("resume not found: %w", domain.ErrNotFound)
	}
	r, err := s.resumes.Get(ctx, req.ResumeID)
	if err != nil {
		return nil, err
	}
	if r.UserID != userID {
		return nil, fmt.Errorf("resume not found: %w", domain.ErrNotFound)
	}
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	p.ResumeID = &r.ResumeID
	if err := s.profiles.Save(ctx, p); err != nil {
		return nil, err
	}
	return s.status(ctx, userID, p)
}

func (s *service) SubmitPreferences(ctx context.Context, userID string, req domain.PreferencesStepRequest) (*domain.OnboardingStatus, error) {
	if err := checkSalary(req.SalaryMin, req.SalaryMax); err != nil {
		return nil, err
	}
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	p.DesiredRoles = normalizeList(req.DesiredRoles)
	p.DesiredLocs = normalizeList(req.DesiredLocs)
	p.JobTypes = normalizeList(req.JobTypes)
	p.RemotePref = req.RemotePref
	p.SalaryMin = req.SalaryMin
	p.SalaryMax = req.SalaryMax
	p.SalaryCurrency = strings.ToUpper(req.SalaryCurrency)
	if len(p.DesiredRoles) == 0 {
		return nil, fmt.Errorf("at least one desired role required: %w", domain.ErrBadRequest)
	}
	if err := s.profiles.Save(ctx, p); err != nil {
		return nil, err
	}
	return s.status(ctx, userID, p)
}

func (s *service) OnboardingStatus(ctx context.Context, userID string) (*domain.OnboardingStatus, error) {
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.status(ctx, userID, p)
}

// CompleteOnboarding stamps onboarded_at once every step is done.
func (s *service) CompleteOnboarding(ctx context.Context, userID string) (*domain.OnboardingStatus, error) {
	st, err := s.OnboardingStatus(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(st.Missing) > 0 {
		return nil, fmt.Errorf("onboarding incomplete, missing %s: %w", strings.Join(st.Missing, ", "), domain.ErrBadRequest)
	}
	at, err := s.users.MarkOnboarded(ctx, userID, s.clock.Now().UTC())
	if err != nil {
		return nil, err
	}
	st.Completed = true
	st.OnboardedAt = &at
	slog.Info("onboarding completed", "user_id", userID)
	return st, nil
}

func (s *service) status(ctx context.Context, userID string, p *domain.Profile) (*domain.OnboardingStatus, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	done := map[string]bool{
		domain.StepPersonal:    p.FirstName != "" && p.LastName != "",
		domain.StepResume:      p.ResumeID != nil,
		domain.StepPreferences: len(p.DesiredRoles) > 0,
	}
	st := &domain.OnboardingStatus{
		Completed:   u.OnboardedAt != nil,
		OnboardedAt: u.OnboardedAt,
		Done:        lo.Filter(domain.OnboardingSteps, func(step string, _ int) bool { return done[step] }),
		Missing:     lo.Reject(domain.OnboardingSteps, func(step string, _ int) bool { return done[step] }),
	}
	return st, nil
}

// RequestContactVerification sends a contact_verify code to a contact the
// user wants to add. Contacts owned by someone else are refused before any
// code is sent.
func (s *service) RequestContactVerification(ctx context.Context, userID, raw string, locale domain.Locale) (*otp.Issued, error) {
	c, err := s.claimable(ctx, userID, raw)
	if err != nil {
		return nil, err
	}
	return s.otp.Issue(ctx, c, domain.OTPPurposeContactVerify, locale)
}

func (s *service) ResendContactVerification(ctx context.Context, userID, raw string, locale domain.Locale) (*otp.Issued, error) {
	c, err := s.claimable(ctx, userID, raw)
	if err != nil {
		return nil, err
	}
	return s.otp.Resend(ctx, c, domain.OTPPurposeContactVerify, locale)
}

func (s *service) VerifyContact(ctx context.Context, userID, raw, code string) (*domain.User, error) {
	c, err := pkgcontact.Parse(raw)
	if err != nil {
		return nil, err
	}
	if err := s.otp.Verify(ctx, c, domain.OTPPurposeContactVerify, code); err != nil {
		return nil, err
	}
	if err := s.users.AttachContact(ctx, userID, c); err != nil {
		return nil, err
	}
	slog.Info("contact verified", "user_id", userID, "channel", c.Kind, "contact", pkgcontact.Mask(c.Value))
	return s.users.Get(ctx, userID)
}

func (s *service) claimable(ctx context.Context, userID, raw string) (domain.Contact, error) {
	c, err := pkgcontact.Parse(raw)
	if err != nil {
		return domain.Contact{}, err
	}
	owner, err := s.users.GetByContact(ctx, c)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c, nil
	case err != nil:
		return domain.Contact{}, err
	case owner.UserID != userID:
		return domain.Contact{}, fmt.Errorf("contact belongs to another account: %w", domain.ErrConflict)
	case (c.Kind == domain.ContactEmail && owner.EmailVerified) || (c.Kind == domain.ContactPhone && owner.PhoneVerified):
		return domain.Contact{}, fmt.Errorf("contact already verified: %w", domain.ErrConflict)
	}
	return c, nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

// normalizeList trims entries, drops blanks and removes case-insensitive duplicates.
func normalizeList(in []string) []string {
	trimmed := lo.Compact(lo.Map(in, func(s string, _ int) string { return strings.TrimSpace(s) }))
	return lo.UniqBy(trimmed, strings.ToLower)
}

func checkSalary(lower, upper *int) error {
	if lower != nil && upper != nil && *lower > *upper {
		return fmt.Errorf("salary_min must not exceed salary_max: %w", domain.ErrBadRequest)
	}
	return nil
}
