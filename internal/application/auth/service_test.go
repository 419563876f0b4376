package auth

import (
	"context"
	"testing"
	"time"

	"github.com/huntier-api/internal/application/otp"
	"github.com/huntier-api/internal/application/session"
	"github.com/huntier-api/internal/domain"
	"github.com/huntier-api/internal/infrastructure/google"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockOTP struct{ mock.Mock }

func (m *mockOTP) Issue(ctx context.Context, c domain.Contact, purpose domain.OTPPurpose, locale domain.Locale) (*otp.Issued, error) {
	args := m.Called(ctx, c, purpose, locale)
	if i, _ := args.Get(0).(*otp.Issued); i != nil {
		return i, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockOTP) Resend(ctx context.Context, c domain.Contact, purpose domain.OTPPurpose, locale domain.Locale) (*otp.Issued, error) {
	args := m.Called(ctx, c, purpose, locale)
	if i, _ := args.Get(0).(*otp.Issued); i != nil {
		return i, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockOTP) Verify(ctx context.Context, c domain.Contact, purpose domain.OTPPurpose, code string) error {
	return m.Called(ctx, c, purpose, code).Error(0)
}

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Create(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockUserStore) GetByContact(ctx context.Context, c domain.Contact) (*domain.User, error) {
	args := m.Called(ctx, c)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetByGoogleSub(ctx context.Context, sub string) (*domain.User, error) {
	args := m.Called(ctx, sub)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) AttachContact(ctx context.Context, userID string, c domain.Contact) error {
	return m.Called(ctx, userID, c).Error(0)
}
func (m *mockUserStore) LinkGoogle(ctx context.Context, userID, sub, email string) error {
	return m.Called(ctx, userID, sub, email).Error(0)
}

type mockProfileStore struct{ mock.Mock }

func (m *mockProfileStore) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	args := m.Called(ctx, userID)
	if p, _ := args.Get(0).(*domain.Profile); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockProfileStore) Save(ctx context.Context, p *domain.Profile) error {
	return m.Called(ctx, p).Error(0)
}

type mockSessions struct{ mock.Mock }

func (m *mockSessions) Create(ctx context.Context, u *domain.User, meta domain.ClientMeta) (*session.Result, error) {
	args := m.Called(ctx, u, meta)
	if r, _ := args.Get(0).(*session.Result); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockGoogle struct{ mock.Mock }

func (m *mockGoogle) Verify(ctx context.Context, token string) (*google.Payload, error) {
	args := m.Called(ctx, token)
	if p, _ := args.Get(0).(*google.Payload); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

// --- helpers ---

type fixture struct {
	otp      *mockOTP
	users    *mockUserStore
	profiles *mockProfileStore
	sessions *mockSessions
	google   *mockGoogle
	svc      Service
}

func newFixture() *fixture {
	f := &fixture{
		otp:      &mockOTP{},
		users:    &mockUserStore{},
		profiles: &mockProfileStore{},
		sessions: &mockSessions{},
		google:   &mockGoogle{},
	}
	f.svc = NewService(ServiceDeps{
		OTP:            f.otp,
		UserRepo:       f.users,
		ProfileRepo:    f.profiles,
		Sessions:       f.sessions,
		GoogleVerifier: f.google,
	})
	return f
}

var (
	email = domain.Contact{Kind: domain.ContactEmail, Value: "ada@example.com"}
	phone = domain.Contact{Kind: domain.ContactPhone, Value: "+8613800138000"}
	meta  = domain.ClientMeta{UserAgent: "test", IP: "10.0.0.1"}
)

func strPtr(s string) *string { return &s }

func sessionResult() *session.Result {
	return &session.Result{AccessToken: "bearer", RefreshToken: "refresh", Session: &domain.Session{SessionID: "sess-1"}}
}

// --- RequestCode / ResendCode ---

func TestRequestCode_NormalizesContact(t *testing.T) {
	f := newFixture()
	f.otp.On("Issue", mock.Anything, email, domain.OTPPurposeLogin, domain.LocaleEN).
		Return(&otp.Issued{Channel: domain.ContactEmail, ExpiresAt: time.Now()}, nil)

	sent, err := f.svc.RequestCode(context.Background(), "  Ada@Example.COM ", domain.LocaleEN)

	require.NoError(t, err)
	assert.Equal(t, "a***@example.com", sent.Contact)
	assert.Equal(t, domain.ContactEmail, sent.Channel)
}

func TestRequestCode_InvalidContact(t *testing.T) {
	f := newFixture()

	_, err := f.svc.RequestCode(context.Background(), "not a contact", domain.LocaleEN)

	assert.ErrorIs(t, err, domain.ErrBadRequest)
	f.otp.AssertNotCalled(t, "Issue", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestResendCode_PropagatesThrottle(t *testing.T) {
	f := newFixture()
	f.otp.On("Resend", mock.Anything, phone, domain.OTPPurposeLogin, domain.LocaleZH).
		Return(nil, &domain.RetryAfterError{After: 30 * time.Second, Reason: "resend cooldown"})

	_, err := f.svc.ResendCode(context.Background(), "+86 138-0013-8000", domain.LocaleZH)

	assert.ErrorIs(t, err, domain.ErrTooManyRequests)
}

// --- VerifyCode ---

func TestVerifyCode_CreatesUser(t *testing.T) {
	f := newFixture()
	f.otp.On("Verify", mock.Anything, phone, domain.OTPPurposeLogin, "123456").Return(nil)
	f.users.On("GetByContact", mock.Anything, phone).Return(nil, domain.ErrNotFound)
	f.users.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.Phone != nil && *u.Phone == phone.Value && u.PhoneVerified && !u.EmailVerified &&
			u.Email == nil && u.Role == domain.RoleCandidate && u.Locale == domain.LocaleZH && u.Enable
	})).Return(nil)
	f.sessions.On("Create", mock.Anything, mock.AnythingOfType("*domain.User"), meta).Return(sessionResult(), nil)

	res, err := f.svc.VerifyCode(context.Background(), "+8613800138000", "123456", domain.LocaleZH, meta)

	require.NoError(t, err)
	assert.True(t, res.NewUser)
	assert.Equal(t, "bearer", res.AccessToken)
	f.users.AssertExpectations(t)
}

func TestVerifyCode_ExistingUser(t *testing.T) {
	f := newFixture()
	u := &domain.User{UserID: "user-1", Email: strPtr(email.Value), EmailVerified: true, Enable: true}
	f.otp.On("Verify", mock.Anything, email, domain.OTPPurposeLogin, "123456").Return(nil)
	f.users.On("GetByContact", mock.Anything, email).Return(u, nil)
	f.sessions.On("Create", mock.Anything, u, meta).Return(sessionResult(), nil)

	res, err := f.svc.VerifyCode(context.Background(), email.Value, "123456", domain.LocaleEN, meta)

	require.NoError(t, err)
	assert.False(t, res.NewUser)
	f.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.users.AssertNotCalled(t, "AttachContact", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerifyCode_MarksUnverifiedContact(t *testing.T) {
	f := newFixture()
	u := &domain.User{UserID: "user-1", Email: strPtr(email.Value), Enable: true}
	f.otp.On("Verify", mock.Anything, email, domain.OTPPurposeLogin, "123456").Return(nil)
	f.users.On("GetByContact", mock.Anything, email).Return(u, nil)
	f.users.On("AttachContact", mock.Anything, "user-1", email).Return(nil)
	f.sessions.On("Create", mock.Anything, u, meta).Return(sessionResult(), nil)

	_, err := f.svc.VerifyCode(context.Background(), email.Value, "123456", domain.LocaleEN, meta)

	require.NoError(t, err)
	assert.True(t, u.EmailVerified)
}

func TestVerifyCode_CreateRaceFallsBackToLookup(t *testing.T) {
	f := newFixture()
	winner := &domain.User{UserID: "user-9", Email: strPtr(email.Value), EmailVerified: true, Enable: true}
	f.otp.On("Verify", mock.Anything, email, domain.OTPPurposeLogin, "123456").Return(nil)
	f.users.On("GetByContact", mock.Anything, email).Return(nil, domain.ErrNotFound).Once()
	f.users.On("Create", mock.Anything, mock.Anything).Return(domain.ErrConflict)
	f.users.On("GetByContact", mock.Anything, email).Return(winner, nil).Once()
	f.sessions.On("Create", mock.Anything, winner, meta).Return(sessionResult(), nil)

	res, err := f.svc.VerifyCode(context.Background(), email.Value, "123456", domain.LocaleEN, meta)

	require.NoError(t, err)
	assert.False(t, res.NewUser)
}

func TestVerifyCode_WrongCode(t *testing.T) {
	f := newFixture()
	f.otp.On("Verify", mock.Anything, email, domain.OTPPurposeLogin, "000000").Return(&domain.InvalidCodeError{Remaining: 2})

	_, err := f.svc.VerifyCode(context.Background(), email.Value, "000000", domain.LocaleEN, meta)

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	f.users.AssertNotCalled(t, "GetByContact", mock.Anything, mock.Anything)
}

func TestVerifyCode_DisabledUser(t *testing.T) {
	f := newFixture()
	u := &domain.User{UserID: "user-1", Email: strPtr(email.Value), EmailVerified: true, Enable: false}
	f.otp.On("Verify", mock.Anything, email, domain.OTPPurposeLogin, "123456").Return(nil)
	f.users.On("GetByContact", mock.Anything, email).Return(u, nil)

	_, err := f.svc.VerifyCode(context.Background(), email.Value, "123456", domain.LocaleEN, meta)

	assert.ErrorIs(t, err, domain.ErrForbidden)
	f.sessions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

// --- GoogleSignIn ---

func payload() *google.Payload {
	return &google.Payload{Sub: "g-1", Email: "Ada@Example.com", EmailVerified: true, FirstName: "Ada", LastName: "Lovelace", Locale: "zh-CN"}
}

func TestGoogleSignIn_KnownSubject(t *testing.T) {
	f := newFixture()
	u := &domain.User{UserID: "user-1", GoogleSub: strPtr("g-1"), Enable: true}
	f.google.On("Verify", mock.Anything, "tok").Return(payload(), nil)
	f.users.On("GetByGoogleSub", mock.Anything, "g-1").Return(u, nil)
	f.sessions.On("Create", mock.Anything, u, meta).Return(sessionResult(), nil)

	res, err := f.svc.GoogleSignIn(context.Background(), "tok", "", meta)

	require.NoError(t, err)
	assert.False(t, res.NewUser)
}

func TestGoogleSignIn_LinksExistingEmail(t *testing.T) {
	f := newFixture()
	u := &domain.User{UserID: "user-1", Email: strPtr(email.Value), Enable: true}
	f.google.On("Verify", mock.Anything, "tok").Return(payload(), nil)
	f.users.On("GetByGoogleSub", mock.Anything, "g-1").Return(nil, domain.ErrNotFound)
	f.users.On("GetByContact", mock.Anything, email).Return(u, nil)
	f.users.On("LinkGoogle", mock.Anything, "user-1", "g-1", email.Value).Return(nil)
	f.sessions.On("Create", mock.Anything, u, meta).Return(sessionResult(), nil)

	_, err := f.svc.GoogleSignIn(context.Background(), "tok", "", meta)

	require.NoError(t, err)
	require.NotNil(t, u.GoogleSub)
	assert.Equal(t, "g-1", *u.GoogleSub)
	assert.True(t, u.EmailVerified)
}

func TestGoogleSignIn_EmailOwnedByOtherGoogleAccount(t *testing.T) {
	f := newFixture()
	u := &domain.User{UserID: "user-1", Email: strPtr(email.Value), GoogleSub: strPtr("g-other"), Enable: true}
	f.google.On("Verify", mock.Anything, "tok").Return(payload(), nil)
	f.users.On("GetByGoogleSub", mock.Anything, "g-1").Return(nil, domain.ErrNotFound)
	f.users.On("GetByContact", mock.Anything, email).Return(u, nil)

	_, err := f.svc.GoogleSignIn(context.Background(), "tok", "", meta)

	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestGoogleSignIn_NewUserPrefillsProfile(t *testing.T) {
	f := newFixture()
	f.google.On("Verify", mock.Anything, "tok").Return(payload(), nil)
	f.users.On("GetByGoogleSub", mock.Anything, "g-1").Return(nil, domain.ErrNotFound)
	f.users.On("GetByContact", mock.Anything, email).Return(nil, domain.ErrNotFound)
	f.users.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.Locale == domain.LocaleZH && u.EmailVerified && *u.GoogleSub == "g-1"
	})).Return(nil)
	f.profiles.On("Get", mock.Anything, mock.Anything).Return(&domain.Profile{}, nil)
	f.profiles.On("Save", mock.Anything, mock.MatchedBy(func(p *domain.Profile) bool {
		return p.FirstName == "Ada" && p.LastName == "Lovelace"
	})).Return(nil)
	f.sessions.On("Create", mock.Anything, mock.Anything, meta).Return(sessionResult(), nil)

	res, err := f.svc.GoogleSignIn(context.Background(), "tok", "", meta)

	require.NoError(t, err)
	assert.True(t, res.NewUser)
	f.profiles.AssertExpectations(t)
}

func TestGoogleSignIn_UnverifiedEmail(t *testing.T) {
	f := newFixture()
	p := payload()
	p.EmailVerified = false
	f.google.On("Verify", mock.Anything, "tok").Return(p, nil)

	_, err := f.svc.GoogleSignIn(context.Background(), "tok", "", meta)

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
