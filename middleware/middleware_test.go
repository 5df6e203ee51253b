package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bill-tracker/common"
	"bill-tracker/domain"
	"bill-tracker/pkg/cache"
	"bill-tracker/pkg/log"
	"bill-tracker/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuth struct {
	user *domain.UserProfile
}

func (s *stubAuth) Authenticate(_ context.Context, token string) (*domain.UserSession, *domain.UserProfile, error) {
	if token != "good" {
		return nil, nil, domain.ErrInvalidToken
	}
	return &domain.UserSession{ID: "sess-1", UserID: s.user.ID}, s.user, nil
}

type stubResolver struct {
	perms *domain.SessionPermissions
	calls int
}

func (s *stubResolver) Resolve(context.Context, string, *domain.UserProfile) *domain.SessionPermissions {
	s.calls++
	return s.perms
}

func newTestMiddlewares(t *testing.T, resolver *stubResolver, m *metrics.Metrics) Middlewares {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := log.NewNop()
	memCache := cache.NewMemoryCache(&cache.Config{}, common.NewLoggerAdapter(logger))
	t.Cleanup(func() { _ = memCache.Close() })

	user := &domain.UserProfile{Email: "a@example.com", Role: domain.RoleFreeUser, IsActive: true}
	user.ID = "user-1"

	return NewMiddlewares(Dependencies{
		Cache:   memCache,
		Logger:  logger,
		Metrics: m,
		Auth:    &stubAuth{user: user},
		Authz:   resolver,
		Guard:   GuardConfig{LoginPath: "/login", HomePath: "/home", RetryAfter: 2 * time.Second},
	})
}

func guardedRouter(mw Middlewares, codes ...string) *gin.Engine {
	r := gin.New()
	r.GET("/guarded", mw.Authenticator(), mw.RequirePermissions(codes...), func(c *gin.Context) {
		actor, _ := domain.ActorFromContext(c.Request.Context())
		c.String(http.StatusOK, actor.UserID)
	})
	return r
}

func doGet(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func confirmed(role domain.RoleName, codes ...string) *domain.SessionPermissions {
	p := domain.NewSessionPermissions("user-1", role)
	p.Confirm(codes)
	return p
}

func TestRequirePermissions_Decisions(t *testing.T) {
	tests := []struct {
		name       string
		token      string
		perms      *domain.SessionPermissions
		wantStatus int
		wantBody   string
	}{
		{
			name:       "anonymous is sent to login",
			wantStatus: http.StatusUnauthorized,
			wantBody:   `"redirect":"/login"`,
		},
		{
			name:       "bad token",
			token:      "bad",
			wantStatus: http.StatusUnauthorized,
			wantBody:   "INVALID_TOKEN",
		},
		{
			name:       "unresolved waits",
			token:      "good",
			perms:      domain.NewSessionPermissions("user-1", domain.RoleFreeUser),
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "missing code is sent home",
			token:      "good",
			perms:      confirmed(domain.RoleFreeUser, "core:dashboard:view"),
			wantStatus: http.StatusForbidden,
			wantBody:   `"redirect":"/home"`,
		},
		{
			name:       "held code passes",
			token:      "good",
			perms:      confirmed(domain.RoleFreeUser, "admin:roles:view", "core:dashboard:view"),
			wantStatus: http.StatusOK,
			wantBody:   "user-1",
		},
		{
			name:       "super admin bypasses",
			token:      "good",
			perms:      confirmed(domain.RoleSuperAdmin),
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mw := newTestMiddlewares(t, &stubResolver{perms: tt.perms}, nil)
			rec := doGet(guardedRouter(mw, "admin:roles:view"), "/guarded", tt.token)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestRequirePermissions_RetryAfterOnLoading(t *testing.T) {
	mw := newTestMiddlewares(t, &stubResolver{perms: domain.NewSessionPermissions("user-1", domain.RoleFreeUser)}, nil)
	rec := doGet(guardedRouter(mw, "admin:roles:view"), "/guarded", "good")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), domain.ErrPermissionsUnresolved.IDField)
}

func TestRequirePermissions_ResolvesOncePerRequest(t *testing.T) {
	resolver := &stubResolver{perms: confirmed(domain.RoleFreeUser, "a:b:c", "a:b:d")}
	mw := newTestMiddlewares(t, resolver, nil)

	r := gin.New()
	r.GET("/twice", mw.Authenticator(), mw.RequirePermissions("a:b:c"), mw.RequirePermissions("a:b:d"),
		func(c *gin.Context) { c.Status(http.StatusNoContent) })

	rec := doGet(r, "/twice", "good")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 1, resolver.calls)
}

func TestRequirePermissions_CountsDecisions(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	mw := newTestMiddlewares(t, &stubResolver{perms: confirmed(domain.RoleFreeUser)}, m)
	r := guardedRouter(mw, "admin:roles:view")

	doGet(r, "/guarded", "good")
	doGet(r, "/guarded", "")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthzDecisions.WithLabelValues("redirect_home")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.AuthzDecisions.WithLabelValues("allow")))
}

func TestRequestID(t *testing.T) {
	mw := newTestMiddlewares(t, &stubResolver{}, nil)
	r := gin.New()
	r.Use(mw.RequestID())
	r.GET("/id", func(c *gin.Context) {
		c.String(http.StatusOK, log.RequestIDFromContext(c.Request.Context()))
	})

	rec := doGet(r, "/id", "")
	generated := rec.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(generated)
	require.NoError(t, err)
	assert.Equal(t, generated, rec.Body.String())

	incoming := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/id", nil)
	req.Header.Set(RequestIDHeader, incoming)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, incoming, rec.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/id", nil)
	req.Header.Set(RequestIDHeader, "not a uuid\r\n")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.NotEqual(t, "not a uuid\r\n", rec.Header().Get(RequestIDHeader))
}

func TestRecovery(t *testing.T) {
	mw := newTestMiddlewares(t, &stubResolver{}, nil)
	r := gin.New()
	r.Use(mw.Recovery())
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	rec := doGet(r, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), domain.ErrInternalServerError.IDField)
}

func TestRateLimit(t *testing.T) {
	mw := newTestMiddlewares(t, &stubResolver{}, nil)
	r := gin.New()
	r.Use(mw.RateLimit(RateLimitConfig{WindowSize: time.Minute, MaxRequests: 2}))
	r.GET("/limited", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, doGet(r, "/limited", "").Code)
	assert.Equal(t, http.StatusOK, doGet(r, "/limited", "").Code)

	rec := doGet(r, "/limited", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, doGet(r, "/health", "").Code)
}

func TestRateLimit_ServerDefaults(t *testing.T) {
	logger := log.NewNop()
	memCache := cache.NewMemoryCache(&cache.Config{}, common.NewLoggerAdapter(logger))
	t.Cleanup(func() { _ = memCache.Close() })
	mw := NewMiddlewares(Dependencies{
		Cache:     memCache,
		Logger:    logger,
		RateLimit: RateLimitConfig{WindowSize: time.Minute, MaxRequests: 1},
	})

	r := gin.New()
	r.Use(mw.RateLimit())
	r.GET("/api/v1/things", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, doGet(r, "/api/v1/things", "").Code)
	rec := doGet(r, "/api/v1/things", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))

	assert.Equal(t, http.StatusOK, doGet(r, "/metrics", "").Code)
	assert.Equal(t, http.StatusOK, doGet(r, "/metrics", "").Code)
}

func TestCORS(t *testing.T) {
	mw := newTestMiddlewares(t, &stubResolver{}, nil)
	r := gin.New()
	r.Use(mw.CORS(CORSConfig{AllowOrigins: []string{"https://app.example.com"}, AllowMethods: []string{"GET"}}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestSecureHeaders(t *testing.T) {
	mw := newTestMiddlewares(t, &stubResolver{}, nil)
	r := gin.New()
	r.Use(mw.SecureHeaders())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := doGet(r, "/x", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}
