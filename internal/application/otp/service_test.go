package otp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/huntier-api/internal/config"
	"github.com/huntier-api/internal/domain"
	"github.com/huntier-api/internal/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- mocks ---

type mockCodes struct{ mock.Mock }

func (m *mockCodes) Put(ctx context.Context, c *domain.OTPCode) error {
	return m.Called(ctx, c).Error(0)
}
func (m *mockCodes) Get(ctx context.Context, contact string, purpose domain.OTPPurpose) (*domain.OTPCode, error) {
	args := m.Called(ctx, contact, purpose)
	if c, _ := args.Get(0).(*domain.OTPCode); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockCodes) Delete(ctx context.Context, contact string, purpose domain.OTPPurpose) error {
	return m.Called(ctx, contact, purpose).Error(0)
}
func (m *mockCodes) Consume(ctx context.Context, contact string, purpose domain.OTPPurpose, codeHash string) error {
	return m.Called(ctx, contact, purpose, codeHash).Error(0)
}
func (m *mockCodes) IncrementAttempts(ctx context.Context, contact string, purpose domain.OTPPurpose, max int) (int, error) {
	args := m.Called(ctx, contact, purpose, max)
	return args.Int(0), args.Error(1)
}
func (m *mockCodes) Replace(ctx context.Context, contact string, purpose domain.OTPPurpose, codeHash string, sentAt, expiresAt int64, max int) (int, error) {
	args := m.Called(ctx, contact, purpose, codeHash, sentAt, expiresAt, max)
	return args.Int(0), args.Error(1)
}

type mockWindows struct{ mock.Mock }

func (m *mockWindows) Increment(ctx context.Context, contact, window string, expiresAt int64) (int, error) {
	args := m.Called(ctx, contact, window, expiresAt)
	return args.Int(0), args.Error(1)
}

type mockBlocker struct{ mock.Mock }

func (m *mockBlocker) IsBlocked(ctx context.Context, contact string) (*domain.BlacklistEntry, error) {
	args := m.Called(ctx, contact)
	if e, _ := args.Get(0).(*domain.BlacklistEntry); e != nil {
		return e, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockBlocker) Block(ctx context.Context, contact, reason string, duration time.Duration, actor string) (*domain.BlacklistEntry, error) {
	args := m.Called(ctx, contact, reason, duration, actor)
	if e, _ := args.Get(0).(*domain.BlacklistEntry); e != nil {
		return e, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSender struct{ mock.Mock }

func (m *mockSender) SendCode(ctx context.Context, c domain.Contact, purpose domain.OTPPurpose, locale domain.Locale, code string, ttl time.Duration) error {
	return m.Called(ctx, c, purpose, locale, code, ttl).Error(0)
}

// --- helpers ---

var (
	t0    = time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	email = domain.Contact{Kind: domain.ContactEmail, Value: "ada@example.com"}
)

func policy() config.OTPPolicy {
	return config.OTPPolicy{
		CodeLength:        6,
		CodeTTL:           10 * time.Minute,
		MaxAttempts:       5,
		ResendCooldown:    time.Minute,
		MaxResends:        3,
		Window:            time.Hour,
		MaxIssuesInWindow: 5,
		BlacklistDuration: 24 * time.Hour,
	}
}

type fixture struct {
	codes   *mockCodes
	windows *mockWindows
	bl      *mockBlocker
	sender  *mockSender
	clock   *clock.Fixed
	svc     *service
}

func newFixture() *fixture {
	f := &fixture{
		codes:   &mockCodes{},
		windows: &mockWindows{},
		bl:      &mockBlocker{},
		sender:  &mockSender{},
		clock:   &clock.Fixed{T: t0},
	}
	f.svc = NewService(ServiceDeps{
		Codes:     f.codes,
		Windows:   f.windows,
		Blacklist: f.bl,
		Sender:    f.sender,
		Policy:    policy(),
		Clock:     f.clock,
		HashCost:  bcrypt.MinCost,
	}).(*service)
	f.svc.generate = func(int) (string, error) { return "123456", nil }
	return f
}

func hashOf(t *testing.T, code string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func pending(t *testing.T, attempts, resends int, sentAt time.Time) *domain.OTPCode {
	return &domain.OTPCode{
		Contact:     email.Value,
		Purpose:     domain.OTPPurposeLogin,
		Channel:     domain.ContactEmail,
		CodeHash:    hashOf(t, "123456"),
		Attempts:    attempts,
		ResendCount: resends,
		LastSentAt:  sentAt.Unix(),
		ExpiresAt:   sentAt.Add(10 * time.Minute).Unix(),
		CreatedAt:   sentAt.Unix(),
	}
}

func windowKey() string {
	return strconv.FormatInt(t0.Truncate(time.Hour).Unix(), 10)
}

// --- Issue ---

func TestIssue_Success(t *testing.T) {
	f := newFixture()
	f.bl.On("IsBlocked", mock.Anything, email.Value).Return(nil, nil)
	f.windows.On("Increment", mock.Anything, email.Value, windowKey(), t0.Truncate(time.Hour).Add(time.Hour).Unix()).Return(1, nil)
	f.codes.On("Put", mock.Anything, mock.MatchedBy(func(c *domain.OTPCode) bool {
		return c.Attempts == 0 && c.ResendCount == 0 &&
			c.LastSentAt == t0.Unix() && c.ExpiresAt == t0.Add(10*time.Minute).Unix() &&
			bcrypt.CompareHashAndPassword([]byte(c.CodeHash), []byte("123456")) == nil
	})).Return(nil)
	f.sender.On("SendCode", mock.Anything, email, domain.OTPPurposeLogin, domain.LocaleZH, "123456", 10*time.Minute).Return(nil)

	out, err := f.svc.Issue(context.Background(), email, domain.OTPPurposeLogin, domain.LocaleZH)

	require.NoError(t, err)
	assert.Equal(t, domain.ContactEmail, out.Channel)
	assert.Equal(t, t0.Add(10*time.Minute), out.ExpiresAt)
	assert.Equal(t, t0.Add(time.Minute), out.ResendAvailableAt)
	assert.Equal(t, 3, out.ResendsLeft)
	f.codes.AssertExpectations(t)
	f.sender.AssertExpectations(t)
}

func TestIssue_Blacklisted(t *testing.T) {
	f := newFixture()
	f.bl.On("IsBlocked", mock.Anything, email.Value).Return(&domain.BlacklistEntry{Contact: email.Value}, nil)

	_, err := f.svc.Issue(context.Background(), email, domain.OTPPurposeLogin, domain.LocaleEN)

	assert.ErrorIs(t, err, domain.ErrContactBlocked)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	f.windows.AssertNotCalled(t, "Increment", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestIssue_WindowExceededBlacklists(t *testing.T) {
	f := newFixture()
	f.bl.On("IsBlocked", mock.Anything, email.Value).Return(nil, nil)
	f.windows.On("Increment", mock.Anything, email.Value, windowKey(), mock.Anything).Return(6, nil)
	f.bl.On("Block", mock.Anything, email.Value, domain.BlockReasonRate, 24*time.Hour, domain.BlockedBySystem).Return(&domain.BlacklistEntry{}, nil)

	_, err := f.svc.Issue(context.Background(), email, domain.OTPPurposeLogin, domain.LocaleEN)

	assert.ErrorIs(t, err, domain.ErrTooManyRequests)
	var ra *domain.RetryAfterError
	require.True(t, errors.As(err, &ra))
	assert.Equal(t, 24*time.Hour, ra.After)
	f.bl.AssertExpectations(t)
	f.codes.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestIssue_DeliveryFailureWithdrawsCode(t *testing.T) {
	f := newFixture()
	f.bl.On("IsBlocked", mock.Anything, email.Value).Return(nil, nil)
	f.windows.On("Increment", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(1, nil)
	f.codes.On("Put", mock.Anything, mock.Anything).Return(nil)
	f.sender.On("SendCode", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))
	f.codes.On("Delete", mock.Anything, email.Value, domain.OTPPurposeLogin).Return(nil)

	_, err := f.svc.Issue(context.Background(), email, domain.OTPPurposeLogin, domain.LocaleEN)

	require.Error(t, err)
	f.codes.AssertCalled(t, "Delete", mock.Anything, email.Value, domain.OTPPurposeLogin)
}

// --- Resend ---

func TestResend_NoPendingCodeIssues(t *testing.T) {
	f := newFixture()
	f.bl.On("IsBlocked", mock.Anything, email.Value).Return(nil, nil)
	f.codes.On("Get", mock.Anything, email.Value, domain.OTPPurposeLogin).Return(nil, domain.ErrNotFound)
	f.windows.On("Increment", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(1, nil)
	f.codes.On("Put", mock.Anything, mock.Anything).Return(nil)
	f.sender.On("SendCode", mock.Anything, mock.Anything, mock.Anything, mock.Anything, "123456", mock.Anything).Return(nil)

	out, err := f.svc.Resend(context.Background(), email, domain.OTPPurposeLogin, domain.LocaleEN)

	require.NoError(t, err)
	assert.Equal(t, 3, out.ResendsLeft)
	f.codes.AssertCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestResend_Cooldown(t *testing.T) {
	f := newFixture()
	f.bl.On("IsBlocked", mock.Anything, email.Value).Return(nil, nil)
	f.codes.On("Get", mock.Anything, email.Value, domain.OTPPurposeLogin).Return(pending(t, 0, 0, t0.Add(-20*time.Second)), nil)

	_, err := f.svc.Resend(context.Background(), email, domain.OTPPurposeLogin, domain.LocaleEN)

	assert.ErrorIs(t, err, domain.ErrTooManyRequests)
	var ra *domain.RetryAfterError
	require.True(t, errors.As(err, &ra))
	assert.Equal(t, 40*time.Second, ra.After)
}

func TestResend_ReplacesCode(t *testing.T) {
	f := newFixture()
	f.svc.generate = func(int) (string, error) { return "654321", nil }
	f.bl.On("IsBlocked", mock.Anything, email.Value).Return(nil, nil)
	f.codes.On("Get", mock.Anything, email.Value, domain.OTPPurposeLogin).Return(pending(t, 2, 1, t0.Add(-2*time.Minute)), nil)
	f.windows.On("Increment", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(2, nil)
	f.codes.On("Replace", mock.Anything, email.Value, domain.OTPPurposeLogin,
		mock.MatchedBy(func(h string) bool { return bcrypt.CompareHashAndPassword([]byte(h), []byte("654321")) == nil }),
		t0.Unix(), t0.Add(10*time.Minute).Unix(), 3).Return(2, nil)
	f.sender.On("SendCode", mock.Anything, email, domain.OTPPurposeLogin, domain.LocaleEN, "654321", 10*time.Minute).Return(nil)

	out, err := f.svc.Resend(context.Background(), email, domain.OTPPurposeLogin, domain.LocaleEN)

	require.NoError(t, err)
	assert.Equal(t, 1, out.ResendsLeft)
	assert.Equal(t, t0.Add(10*time.Minute), out.ExpiresAt)
	f.codes.AssertExpectations(t)
}

func TestResend_LimitBlacklists(t *testing.T) {
	f := newFixture()
	f.bl.On("IsBlocked", mock.Anything, email.Value).Return(nil, nil)
	f.codes.On("Get", mock.Anything, email.Value, domain.OTPPurposeLogin).Return(pending(t, 0, 3, t0.Add(-2*time.Minute)), nil)
	f.windows.On("Increment", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(4, nil)
	f.codes.On("Replace", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, 3).
		Return(0, domain.ErrLimitReached)
	f.codes.On("Delete", mock.Anything, email.Value, domain.OTPPurposeLogin).Return(nil)
	f.bl.On("Block", mock.Anything, email.Value, domain.BlockReasonResends, 24*time.Hour, domain.BlockedBySystem).Return(&domain.BlacklistEntry{}, nil)

	_, err := f.svc.Resend(context.Background(), email, domain.OTPPurposeLogin, domain.LocaleEN)

	assert.ErrorIs(t, err, domain.ErrContactBlocked)
	f.bl.AssertExpectations(t)
	f.sender.AssertNotCalled(t, "SendCode", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// --- Verify ---

func TestVerify_Success(t *testing.T) {
	f := newFixture()
	f.bl.On("IsBlocked", mock.Anything, email.Value).Return(nil, nil)
	rec := pending(t, 0, 0, t0)
	f.codes.On("Get", mock.Anything, email.Value, domain.OTPPurposeLogin).Return(rec, nil)
	f.codes.On("IncrementAttempts", mock.Anything, email.Value, domain.OTPPurposeLogin, 5).Return(1, nil)
	f.codes.On("Consume", mock.Anything, email.Value, domain.OTPPurposeLogin, rec.CodeHash).Return(nil).Once()

	err := f.svc.Verify(context.Background(), email, domain.OTPPurposeLogin, "123456")

	require.NoError(t, err)
	f.codes.AssertExpectations(t)
}

func TestVerify_CodeReplacedMeanwhile(t *testing.T) {
	f := newFixture()
	f.bl.On("IsBlocked", mock.Anything, email.Value).Return(nil, nil)
	rec := pending(t, 0, 0, t0)
	f.codes.On("Get", mock.Anything, email.Value, domain.OTPPurposeLogin).Return(rec, nil)
	f.codes.On("IncrementAttempts", mock.Anything, email.Value, domain.OTPPurposeLogin, 5).Return(1, nil)
	f.codes.On("Consume", mock.Anything, email.Value, domain.OTPPurposeLogin, rec.CodeHash).
		Return(fmt.Errorf("code already used or replaced: %w", domain.ErrUnauthorized))

	err := f.svc.Verify(context.Background(), email, domain.OTPPurposeLogin, "123456")

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestVerify_NoCode(t *testing.T) {
	f := newFixture()
	f.bl.On("IsBlocked", mock.Anything, email.Value).Return(nil, nil)
	f.codes.On("Get", mock.Anything, email.Value, domain.OTPPurposeLogin).Return(nil, domain.ErrNotFound)

	err := f.svc.Verify(context.Background(), email, domain.OTPPurposeLogin, "123456")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVerify_Expired(t *testing.T) {
	f := newFixture()
	f.bl.On("IsBlocked", mock.Anything, email.Value).Return(nil, nil)
	f.codes.On("Get", mock.Anything, email.Value, domain.OTPPurposeLogin).Return(pending(t, 0, 0, t0.Add(-11*time.Minute)), nil)
	f.codes.On("Delete", mock.Anything, email.Value, domain.OTPPurposeLogin).Return(nil)

	err := f.svc.Verify(context.Background(), email, domain.OTPPurposeLogin, "123456")

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	f.codes.AssertNotCalled(t, "IncrementAttempts", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestVerify_WrongCodeReportsRemaining(t *testing.T) {
	f := newFixture()
	f.bl.On("IsBlocked", mock.Anything, email.Value).Return(nil, nil)
	f.codes.On("Get", mock.Anything, email.Value, domain.OTPPurposeLogin).Return(pending(t, 1, 0, t0), nil)
	f.codes.On("IncrementAttempts", mock.Anything, email.Value, domain.OTPPurposeLogin, 5).Return(2, nil)

	err := f.svc.Verify(context.Background(), email, domain.OTPPurposeLogin, "000000")

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	var ic *domain.InvalidCodeError
	require.True(t, errors.As(err, &ic))
	assert.Equal(t, 3, ic.Remaining)
	f.codes.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerify_LastWrongAttemptBlacklists(t *testing.T) {
	f := newFixture()
	f.bl.On("IsBlocked", mock.Anything, email.Value).Return(nil, nil)
	f.codes.On("Get", mock.Anything, email.Value, domain.OTPPurposeLogin).Return(pending(t, 4, 0, t0), nil)
	f.codes.On("IncrementAttempts", mock.Anything, email.Value, domain.OTPPurposeLogin, 5).Return(5, nil)
	f.codes.On("Delete", mock.Anything, email.Value, domain.OTPPurposeLogin).Return(nil)
	f.bl.On("Block", mock.Anything, email.Value, domain.BlockReasonAttempts, 24*time.Hour, domain.BlockedBySystem).Return(&domain.BlacklistEntry{}, nil)

	err := f.svc.Verify(context.Background(), email, domain.OTPPurposeLogin, "000000")

	assert.ErrorIs(t, err, domain.ErrContactBlocked)
	f.codes.AssertExpectations(t)
	f.bl.AssertExpectations(t)
}

func TestVerify_AttemptsExhaustedConcurrently(t *testing.T) {
	f := newFixture()
	f.bl.On("IsBlocked", mock.Anything, email.Value).Return(nil, nil)
	f.codes.On("Get", mock.Anything, email.Value, domain.OTPPurposeLogin).Return(pending(t, 4, 0, t0), nil)
	f.codes.On("IncrementAttempts", mock.Anything, email.Value, domain.OTPPurposeLogin, 5).Return(0, domain.ErrLimitReached)
	f.codes.On("Delete", mock.Anything, email.Value, domain.OTPPurposeLogin).Return(nil)
	f.bl.On("Block", mock.Anything, email.Value, domain.BlockReasonAttempts, 24*time.Hour, domain.BlockedBySystem).Return(&domain.BlacklistEntry{}, nil)

	// even the right code is refused once the attempt budget is gone
	err := f.svc.Verify(context.Background(), email, domain.OTPPurposeLogin, "123456")

	assert.ErrorIs(t, err, domain.ErrContactBlocked)
	f.bl.AssertExpectations(t)
}

func TestVerify_Blacklisted(t *testing.T) {
	f := newFixture()
	f.bl.On("IsBlocked", mock.Anything, email.Value).Return(&domain.BlacklistEntry{}, nil)

	err := f.svc.Verify(context.Background(), email, domain.OTPPurposeLogin, "123456")

	assert.ErrorIs(t, err, domain.ErrContactBlocked)
	f.codes.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
}

// --- code generation ---

func TestGenerateCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := generateCode(6)
		require.NoError(t, err)
		require.Len(t, code, 6)
		_, err = strconv.Atoi(code)
		require.NoError(t, err)
	}
	_, err := generateCode(2)
	assert.Error(t, err)
}
