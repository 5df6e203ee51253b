package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"bill-tracker/common"
	"bill-tracker/domain"
	"bill-tracker/middleware"
	activityrepo "bill-tracker/modules/activity/repository"
	activityuc "bill-tracker/modules/activity/usecase"
	"bill-tracker/modules/definition/repository"
	"bill-tracker/modules/definition/usecase"
	instancerepo "bill-tracker/modules/instance/repository"
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

func newRouter(t *testing.T, codes ...string) (*gin.Engine, *domain.ServiceDefinition) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validator.RegisterValidatorWithGin()
	logger := log.NewNop()
	memCache := cache.NewMemoryCache(&cache.Config{}, common.NewLoggerAdapter(logger))
	t.Cleanup(func() { _ = memCache.Close() })

	user := &domain.UserProfile{Email: "payer@example.com", Role: domain.RoleFreeUser, IsActive: true}
	user.ID = "payer-1"
	mw := middleware.NewMiddlewares(middleware.Dependencies{
		Cache:  memCache,
		Logger: logger,
		Auth:   fixedAuth{user: user},
		Authz:  fixedResolver{codes: codes},
	})

	defs := repository.NewDefinitionMemoryRepository()
	system := &domain.ServiceDefinition{Name: "Water", Category: domain.CategoryUtilities, IsSystem: true}
	require.NoError(t, defs.Create(context.Background(), system))

	activity := activityuc.NewActivityUsecase(activityrepo.NewActivityMemoryRepository(), logger)
	uc := usecase.NewDefinitionUsecase(defs, instancerepo.NewInstanceMemoryRepository(), activity, validator.DefaultValidator(), logger)

	r := gin.New()
	NewDefinitionHandler(uc, mw).RegisterRoutes(r.Group("/api/v1"))
	return r, system
}

func send(r http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer token")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestDefinitionHandler_RequiresServicesManage(t *testing.T) {
	r, _ := newRouter(t, domain.PermissionAdminAccess)

	rec := send(r, http.MethodGet, "/api/v1/definitions", nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	var body common.ResponseT[map[string]any]
	require.NoError(t, jsoniter.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "/", body.Data["redirect"])
}

func TestDefinitionHandler_CreateListDelete(t *testing.T) {
	r, system := newRouter(t, domain.PermissionServicesManage)

	rec := send(r, http.MethodPost, "/api/v1/definitions", []byte(`{"name":"Gym","color":"#00ff00","category":"SUBSCRIPTION"}`))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created common.ResponseT[domain.ServiceDefinition]
	require.NoError(t, jsoniter.Unmarshal(rec.Body.Bytes(), &created))
	require.NotNil(t, created.Data.UserID)
	assert.Equal(t, "payer-1", *created.Data.UserID)

	rec = send(r, http.MethodGet, "/api/v1/definitions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed common.ResponseT[[]*domain.ServiceDefinition]
	require.NoError(t, jsoniter.Unmarshal(rec.Body.Bytes(), &listed))
	ids := make([]string, 0, len(listed.Data))
	for _, d := range listed.Data {
		ids = append(ids, d.ID)
	}
	assert.ElementsMatch(t, []string{system.ID, created.Data.ID}, ids)

	rec = send(r, http.MethodDelete, "/api/v1/definitions/"+created.Data.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = send(r, http.MethodGet, "/api/v1/definitions/"+created.Data.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDefinitionHandler_SystemDefinitionsAreReadOnly(t *testing.T) {
	r, system := newRouter(t, domain.PermissionServicesManage)

	rec := send(r, http.MethodPut, "/api/v1/definitions/"+system.ID, []byte(`{"name":"Renamed"}`))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), domain.ErrProtectedEntity.ID())

	rec = send(r, http.MethodPost, "/api/v1/definitions", []byte(`{"name":"Gym","category":"GYM"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
