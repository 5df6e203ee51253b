package middleware

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"bill-tracker/common"
	"bill-tracker/pkg/cache"
	"bill-tracker/pkg/log"

	"github.com/gin-gonic/gin"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	WindowSize  time.Duration
	MaxRequests int64

	KeyPrefix    string
	KeyGenerator func(*gin.Context) string

	SkipPaths []string
}

// RateLimitInfo contains rate limit status information
type RateLimitInfo struct {
	Key       string
	Limit     int64
	Remaining int64
	RetryAt   time.Time
}

func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		WindowSize:   time.Minute,
		MaxRequests:  100,
		KeyPrefix:    "rate_limit:",
		KeyGenerator: IPKeyGenerator,
		SkipPaths:    []string{"/health", "/metrics"},
	}
}

func (cfg *RateLimitConfig) setDefaults() {
	def := DefaultRateLimitConfig()
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = def.WindowSize
	}
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = def.MaxRequests
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = def.KeyPrefix
	}
	if cfg.KeyGenerator == nil {
		cfg.KeyGenerator = def.KeyGenerator
	}
	if cfg.SkipPaths == nil {
		cfg.SkipPaths = def.SkipPaths
	}
}

// RateLimit is a fixed window counter on the shared cache. Without an
// explicit config it uses the server-wide limits.
func (m *middlewares) RateLimit(config ...RateLimitConfig) gin.HandlerFunc {
	cfg := m.rateLimit
	if len(config) > 0 {
		cfg = config[0]
	}
	cfg.setDefaults()

	skipPaths := make(map[string]bool, len(cfg.SkipPaths))
	for _, path := range cfg.SkipPaths {
		skipPaths[path] = true
	}

	return func(c *gin.Context) {
		if skipPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		key := cfg.KeyPrefix + cfg.KeyGenerator(c)
		info, allowed := checkRateLimit(c.Request.Context(), m.cache, key, cfg)
		if !allowed {
			m.logger.Warn("Rate limit exceeded",
				log.String("key", info.Key),
				log.Int64("limit", info.Limit),
				log.String("path", c.Request.URL.Path),
			)
		}
		setRateLimitHeaders(c, info)

		if !allowed {
			common.ResponseRateLimitExceeded(c,
				fmt.Sprintf("Too many requests. Limit %d requests per %v", info.Limit, cfg.WindowSize),
				info.RetryAt)
			return
		}
		c.Next()
	}
}

// AuthRateLimits applies the stricter limits of the credential endpoints
// and passes everything else through.
func (m *middlewares) AuthRateLimits() gin.HandlerFunc {
	login := m.RateLimit(RateLimitConfig{
		WindowSize:  5 * time.Minute,
		MaxRequests: 5,
		KeyPrefix:   "login:",
	})
	register := m.RateLimit(RateLimitConfig{
		WindowSize:  time.Hour,
		MaxRequests: 3,
		KeyPrefix:   "register:",
	})

	return func(c *gin.Context) {
		switch {
		case strings.HasSuffix(c.Request.URL.Path, "/auth/login"):
			login(c)
		case strings.HasSuffix(c.Request.URL.Path, "/auth/register"):
			register(c)
		default:
			c.Next()
		}
	}
}

// checkRateLimit fails open when the cache is unavailable.
func checkRateLimit(ctx context.Context, store cache.Client, key string, cfg RateLimitConfig) (RateLimitInfo, bool) {
	info := RateLimitInfo{Key: key, Limit: cfg.MaxRequests, Remaining: cfg.MaxRequests}

	current, err := store.Increment(ctx, key, 1, cfg.WindowSize)
	if err != nil {
		return info, true
	}

	info.Remaining = max(cfg.MaxRequests-current, 0)
	if ttl, err := store.GetTTL(ctx, key); err == nil && ttl > 0 {
		info.RetryAt = time.Now().Add(ttl)
	} else {
		info.RetryAt = time.Now().Add(cfg.WindowSize)
	}
	return info, current <= cfg.MaxRequests
}

func setRateLimitHeaders(c *gin.Context, info RateLimitInfo) {
	c.Header("X-RateLimit-Limit", strconv.FormatInt(info.Limit, 10))
	c.Header("X-RateLimit-Remaining", strconv.FormatInt(info.Remaining, 10))
}

func IPKeyGenerator(c *gin.Context) string {
	return "ip:" + common.GetClientIP(c)
}

// UserKeyGenerator keys authenticated callers by user and falls back to IP.
func UserKeyGenerator(c *gin.Context) string {
	if user := common.GetUserFromCtx(c); user != nil {
		return "user:" + user.ID
	}
	return IPKeyGenerator(c)
}
