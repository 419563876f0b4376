package user

import (
	"context"
	"errors"
	"testing"

	"github.com/huntier-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) List(ctx context.Context, role string, limit, offset int) ([]domain.User, int, error) {
	args := m.Called(ctx, role, limit, offset)
	return args.Get(0).([]domain.User), args.Int(1), args.Error(2)
}
func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) SetRole(ctx context.Context, userID, role string) error {
	return m.Called(ctx, userID, role).Error(0)
}
func (m *mockUserStore) SetEnable(ctx context.Context, userID string, enable bool) error {
	return m.Called(ctx, userID, enable).Error(0)
}

type mockSessionStore struct{ mock.Mock }

func (m *mockSessionStore) DisableByUser(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

const (
	adminID  = "0b8c3a52-8d4e-4a43-9f3e-8f0d6f1b2a10"
	memberID = "5f1e2d3c-4b5a-4697-8877-665544332211"
)

func newSvc() (*mockUserStore, *mockSessionStore, Service) {
	users := &mockUserStore{}
	sessions := &mockSessionStore{}
	return users, sessions, NewService(ServiceDeps{UserRepo: users, SessionRepo: sessions})
}

func ptr[T any](v T) *T { return &v }

// --- List ---

func TestList_ClampsPaging(t *testing.T) {
	users, _, svc := newSvc()
	users.On("List", mock.Anything, "", 100, 100).Return([]domain.User{{UserID: memberID}}, 101, nil)

	got, total, err := svc.List(context.Background(), "", 2, 500)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 101, total)
	users.AssertExpectations(t)
}

func TestList_UnknownRole(t *testing.T) {
	_, _, svc := newSvc()
	_, _, err := svc.List(context.Background(), "owner", 1, 20)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

// --- Get ---

func TestGet_MalformedID(t *testing.T) {
	_, _, svc := newSvc()
	_, err := svc.Get(context.Background(), "nope")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

// --- Update ---

func TestUpdate_DisableSignsOut(t *testing.T) {
	users, sessions, svc := newSvc()
	before := &domain.User{UserID: memberID, Role: domain.RoleCandidate, Enable: true}
	after := &domain.User{UserID: memberID, Role: domain.RoleCandidate, Enable: false}
	users.On("Get", mock.Anything, memberID).Return(before, nil).Once()
	users.On("SetEnable", mock.Anything, memberID, false).Return(nil)
	sessions.On("DisableByUser", mock.Anything, memberID).Return(nil)
	users.On("Get", mock.Anything, memberID).Return(after, nil).Once()

	got, err := svc.Update(context.Background(), adminID, memberID, domain.UpdateUserRequest{Enable: ptr(false)})
	require.NoError(t, err)
	assert.False(t, got.Enable)
	users.AssertExpectations(t)
	sessions.AssertExpectations(t)
}

func TestUpdate_EnableKeepsSessions(t *testing.T) {
	users, sessions, svc := newSvc()
	u := &domain.User{UserID: memberID, Role: domain.RoleCandidate}
	users.On("Get", mock.Anything, memberID).Return(u, nil)
	users.On("SetEnable", mock.Anything, memberID, true).Return(nil)

	_, err := svc.Update(context.Background(), adminID, memberID, domain.UpdateUserRequest{Enable: ptr(true)})
	require.NoError(t, err)
	sessions.AssertNotCalled(t, "DisableByUser", mock.Anything, mock.Anything)
}

func TestUpdate_PromoteToAdmin(t *testing.T) {
	users, sessions, svc := newSvc()
	u := &domain.User{UserID: memberID, Role: domain.RoleCandidate, Enable: true}
	users.On("Get", mock.Anything, memberID).Return(u, nil)
	users.On("SetRole", mock.Anything, memberID, domain.RoleAdmin).Return(nil)
	sessions.On("DisableByUser", mock.Anything, memberID).Return(nil)

	_, err := svc.Update(context.Background(), adminID, memberID, domain.UpdateUserRequest{Role: ptr(domain.RoleAdmin)})
	require.NoError(t, err)
	users.AssertCalled(t, "SetRole", mock.Anything, memberID, domain.RoleAdmin)
	users.AssertNotCalled(t, "SetEnable", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdate_DemotionRevokesSessions(t *testing.T) {
	const otherAdmin = "9a7b6c5d-4e3f-4a2b-8c1d-0e9f8a7b6c5d"
	users, sessions, svc := newSvc()
	users.On("Get", mock.Anything, otherAdmin).Return(&domain.User{UserID: otherAdmin, Role: domain.RoleAdmin, Enable: true}, nil)
	users.On("SetRole", mock.Anything, otherAdmin, domain.RoleCandidate).Return(nil)
	sessions.On("DisableByUser", mock.Anything, otherAdmin).Return(nil).Once()

	_, err := svc.Update(context.Background(), adminID, otherAdmin, domain.UpdateUserRequest{Role: ptr(domain.RoleCandidate)})
	require.NoError(t, err)
	sessions.AssertExpectations(t)
}

func TestUpdate_UnchangedRoleKeepsSessions(t *testing.T) {
	users, sessions, svc := newSvc()
	users.On("Get", mock.Anything, memberID).Return(&domain.User{UserID: memberID, Role: domain.RoleCandidate, Enable: true}, nil)

	_, err := svc.Update(context.Background(), adminID, memberID, domain.UpdateUserRequest{Role: ptr(domain.RoleCandidate)})
	require.NoError(t, err)
	users.AssertNotCalled(t, "SetRole", mock.Anything, mock.Anything, mock.Anything)
	sessions.AssertNotCalled(t, "DisableByUser", mock.Anything, mock.Anything)
}

func TestUpdate_SelfDemotionForbidden(t *testing.T) {
	users, _, svc := newSvc()
	users.On("Get", mock.Anything, adminID).Return(&domain.User{UserID: adminID, Role: domain.RoleAdmin, Enable: true}, nil)

	tests := []struct {
		name string
		req  domain.UpdateUserRequest
	}{
		{"demote", domain.UpdateUserRequest{Role: ptr(domain.RoleCandidate)}},
		{"disable", domain.UpdateUserRequest{Enable: ptr(false)}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Update(context.Background(), adminID, adminID, tc.req)
			assert.True(t, errors.Is(err, domain.ErrForbidden))
		})
	}
	users.AssertNotCalled(t, "SetRole", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdate_UnknownUser(t *testing.T) {
	users, _, svc := newSvc()
	users.On("Get", mock.Anything, memberID).Return(nil, domain.ErrNotFound)

	_, err := svc.Update(context.Background(), adminID, memberID, domain.UpdateUserRequest{Enable: ptr(false)})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
