package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/huntier-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockUserSvc struct{ mock.Mock }

func (m *mockUserSvc) List(ctx context.Context, role string, page, perPage int) ([]domain.User, int, error) {
	args := m.Called(ctx, role, page, perPage)
	users, _ := args.Get(0).([]domain.User)
	return users, args.Int(1), args.Error(2)
}
func (m *mockUserSvc) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserSvc) Update(ctx context.Context, actorID, userID string, req domain.UpdateUserRequest) (*domain.User, error) {
	args := m.Called(ctx, actorID, userID, req)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func TestUserList_FiltersByRole(t *testing.T) {
	svc := &mockUserSvc{}
	svc.On("List", mock.Anything, domain.RoleAdmin, 1, 20).Return([]domain.User{{UserID: "u1"}}, 1, nil)

	rr := httptest.NewRecorder()
	NewUserHandler(svc).List(rr, httptest.NewRequest(http.MethodGet, "/?role=admin", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, decodeBody[PageEnvelope](t, rr).TotalPages)
	svc.AssertExpectations(t)
}

func TestUserUpdate_Disable(t *testing.T) {
	disable := false
	svc := &mockUserSvc{}
	svc.On("Update", mock.Anything, "admin1", "u1", domain.UpdateUserRequest{Enable: &disable}).
		Return(&domain.User{UserID: "u1"}, nil)

	r := withParam(jsonReq(t, http.MethodPatch, "/", map[string]bool{"enable": false}), "id", "u1")
	rr := httptest.NewRecorder()
	NewUserHandler(svc).Update(rr, asUser(r, "admin1", domain.RoleAdmin))

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func TestUserUpdate_SelfDemotion(t *testing.T) {
	svc := &mockUserSvc{}
	svc.On("Update", mock.Anything, "admin1", "admin1", mock.Anything).
		Return(nil, fmt.Errorf("cannot change own role: %w", domain.ErrForbidden))

	r := withParam(jsonReq(t, http.MethodPatch, "/", map[string]string{"role": "candidate"}), "id", "admin1")
	rr := httptest.NewRecorder()
	NewUserHandler(svc).Update(rr, asUser(r, "admin1", domain.RoleAdmin))

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestUserUpdate_UnknownRole(t *testing.T) {
	r := withParam(jsonReq(t, http.MethodPatch, "/", map[string]string{"role": "owner"}), "id", "u1")
	rr := httptest.NewRecorder()
	NewUserHandler(&mockUserSvc{}).Update(rr, asUser(r, "admin1", domain.RoleAdmin))

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}
