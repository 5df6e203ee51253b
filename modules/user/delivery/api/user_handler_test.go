package api

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"bill-tracker/common"
	"bill-tracker/domain"
	"bill-tracker/middleware"
	"bill-tracker/pkg/cache"
	"bill-tracker/pkg/log"
	"bill-tracker/validator"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedAuth struct{ user *domain.UserProfile }

func (a fixedAuth) Authenticate(context.Context, string) (*domain.UserSession, *domain.UserProfile, error) {
	return &domain.UserSession{ID: "sess-1", UserID: a.user.ID}, a.user, nil
}

type fixedResolver struct{ codes []string }

func (r fixedResolver) Resolve(_ context.Context, _ string, user *domain.UserProfile) *domain.SessionPermissions {
	perms := domain.NewSessionPermissions(user.ID, user.Role)
	perms.Confirm(r.codes)
	return perms
}

type stubUsers struct {
	profileFor string
	banned     map[string]bool
}

func profile(id string) *domain.UserProfile {
	u := &domain.UserProfile{Email: id + "@example.com", FullName: "User " + id, Role: domain.RoleFreeUser, IsActive: true}
	u.ID = id
	return u
}

func (s *stubUsers) List(context.Context, *domain.UserFilter, *domain.FindPageOption) ([]*domain.UserProfile, *domain.Pagination, error) {
	return []*domain.UserProfile{profile("u1"), profile("u2")}, domain.NewPagination(1, 10, 2), nil
}

func (s *stubUsers) GetByID(_ context.Context, userID string) (*domain.UserProfile, error) {
	return profile(userID), nil
}

func (s *stubUsers) UpdateRole(_ context.Context, userID string, req *domain.UpdateUserRoleRequest) (*domain.UserProfile, error) {
	u := profile(userID)
	u.Role = req.Role
	return u, nil
}

func (s *stubUsers) SetBanned(_ context.Context, userID string, req *domain.SetUserStatusRequest) (*domain.UserProfile, error) {
	s.banned[userID] = *req.IsBanned
	u := profile(userID)
	u.IsActive = !*req.IsBanned
	return u, nil
}

func (s *stubUsers) UpdateProfile(_ context.Context, userID string, req *domain.UpdateProfileRequest) (*domain.UserProfile, error) {
	s.profileFor = userID
	u := profile(userID)
	u.FullName = *req.FullName
	return u, nil
}

func (s *stubUsers) UploadAvatar(_ context.Context, userID string, _ *multipart.FileHeader) (*domain.UserProfile, error) {
	return profile(userID), nil
}

func newRouter(t *testing.T, users *stubUsers, codes ...string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validator.RegisterValidatorWithGin()
	logger := log.NewNop()
	memCache := cache.NewMemoryCache(&cache.Config{}, common.NewLoggerAdapter(logger))
	t.Cleanup(func() { _ = memCache.Close() })

	mw := middleware.NewMiddlewares(middleware.Dependencies{
		Cache:  memCache,
		Logger: logger,
		Auth:   fixedAuth{user: profile("caller")},
		Authz:  fixedResolver{codes: codes},
	})

	r := gin.New()
	NewUserHandler(users, mw).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func send(r http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer token")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestUserRoutes_RequireAdminAccessAndUsersManage(t *testing.T) {
	users := &stubUsers{banned: map[string]bool{}}

	r := newRouter(t, users, domain.PermissionUsersManage)
	assert.Equal(t, http.StatusForbidden, send(r, http.MethodGet, "/api/v1/users", nil).Code)
	assert.Equal(t, http.StatusForbidden, send(r, http.MethodPut, "/api/v1/users/u1/status", []byte(`{"is_banned":true}`)).Code)
	assert.Empty(t, users.banned)

	r = newRouter(t, users, domain.PermissionAdminAccess, domain.PermissionUsersManage)
	rec := send(r, http.MethodGet, "/api/v1/users", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body common.ResponseT[domain.PageResult[*domain.UserProfileResponse]]
	require.NoError(t, jsoniter.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Data.Items, 2)

	rec = send(r, http.MethodPut, "/api/v1/users/u1/status", []byte(`{"is_banned":true}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, users.banned["u1"])
}

func TestUserRoutes_StatusBodyRequired(t *testing.T) {
	r := newRouter(t, &stubUsers{banned: map[string]bool{}}, domain.PermissionAdminAccess, domain.PermissionUsersManage)

	rec := send(r, http.MethodPut, "/api/v1/users/u1/status", []byte(`{}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = send(r, http.MethodPut, "/api/v1/users/u1/role", []byte(`{"role":"not a role"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProfileRoutes_NeedOnlyAuthentication(t *testing.T) {
	users := &stubUsers{banned: map[string]bool{}}
	r := newRouter(t, users)

	rec := send(r, http.MethodPut, "/api/v1/me", []byte(`{"full_name":"New Name"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "caller", users.profileFor)

	var body common.ResponseT[domain.UserProfileResponse]
	require.NoError(t, jsoniter.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "New Name", body.Data.FullName)

	rec = send(r, http.MethodPost, "/api/v1/me/avatar", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
