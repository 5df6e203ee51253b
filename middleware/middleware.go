package middleware

import (
	"context"
	"time"

	"bill-tracker/domain"
	"bill-tracker/pkg/cache"
	"bill-tracker/pkg/log"
	"bill-tracker/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// Middlewares defines all available middleware methods
type Middlewares interface {
	// Request plumbing
	RequestID() gin.HandlerFunc
	Recovery() gin.HandlerFunc
	LoggingMiddleware(config ...LoggerConfig) gin.HandlerFunc
	Metrics() gin.HandlerFunc

	// Edge protection
	CORS(config ...CORSConfig) gin.HandlerFunc
	SecureHeaders() gin.HandlerFunc
	RateLimit(config ...RateLimitConfig) gin.HandlerFunc
	AuthRateLimits() gin.HandlerFunc

	// Authentication and authorization
	Authenticator() gin.HandlerFunc
	RequirePermissions(codes ...string) gin.HandlerFunc
}

type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*domain.UserSession, *domain.UserProfile, error)
}

type PermissionResolver interface {
	Resolve(ctx context.Context, sessionID string, user *domain.UserProfile) *domain.SessionPermissions
}

// GuardConfig holds the redirect hints returned by RequirePermissions.
type GuardConfig struct {
	LoginPath  string
	HomePath   string
	RetryAfter time.Duration
}

type SecureConfig struct {
	IsDevelopment bool
	SSLRedirect   bool
}

// Dependencies holds all dependencies needed by middlewares
type Dependencies struct {
	Cache     cache.Client
	Logger    log.Logger
	Metrics   *metrics.Metrics
	Auth      Authenticator
	Authz     PermissionResolver
	Guard     GuardConfig
	Secure    SecureConfig
	RateLimit RateLimitConfig
}

// NewMiddlewares creates a new instance of middlewares with dependencies
func NewMiddlewares(deps Dependencies) Middlewares {
	if deps.Guard.LoginPath == "" {
		deps.Guard.LoginPath = "/login"
	}
	if deps.Guard.HomePath == "" {
		deps.Guard.HomePath = "/"
	}
	return &middlewares{
		cache:     deps.Cache,
		logger:    deps.Logger,
		metrics:   deps.Metrics,
		auth:      deps.Auth,
		authz:     deps.Authz,
		guard:     deps.Guard,
		secure:    deps.Secure,
		rateLimit: deps.RateLimit,
	}
}

// middlewares is the concrete implementation of Middlewares interface
type middlewares struct {
	cache     cache.Client
	logger    log.Logger
	metrics   *metrics.Metrics
	auth      Authenticator
	authz     PermissionResolver
	guard     GuardConfig
	secure    SecureConfig
	rateLimit RateLimitConfig
}
