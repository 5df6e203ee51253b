package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Provider string

const (
	Redis  Provider = "redis"
	Memory Provider = "memory"
)

var (
	ErrKeyNotFound     = errors.New("key not found")
	ErrUnsupportedType = errors.New("unsupported cache provider")
)

type Error struct {
	Operation string
	Key       string
	Err       error
}

func (e *Error) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("cache %s operation failed for key '%s': %v", e.Operation, e.Key, e.Err)
	}
	return fmt.Sprintf("cache %s operation failed: %v", e.Operation, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
}

// Client is the cache surface the service needs: sessions, permission
// snapshots and rate limit counters.
type Client interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)

	// DeletePattern removes every key matching a glob and returns how many.
	DeletePattern(ctx context.Context, pattern string) (int64, error)

	// Increment adds delta and starts ttl only when the key is new, which
	// gives fixed window counters.
	Increment(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error)
	GetTTL(ctx context.Context, key string) (time.Duration, error)

	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	GetJSON(ctx context.Context, key string, dest interface{}) error

	Ping(ctx context.Context) error
	Close() error
}

type Config struct {
	Host     string
	Port     int
	Password string
	DB       int

	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	DefaultTTL time.Duration
	// KeyPrefix namespaces every key written through the client.
	KeyPrefix string
}

func (c *Config) setDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 6379
	}
	if c.PoolSize == 0 {
		c.PoolSize = 10
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = 5 * time.Second
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 3 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 3 * time.Second
	}
	if c.DefaultTTL == 0 {
		c.DefaultTTL = time.Hour
	}
}

type Factory struct {
	logger Logger
}

func NewCacheFactory(logger Logger) *Factory {
	return &Factory{logger: logger}
}

// CreateCache builds a client for provider. For Redis an existing client may
// be passed to share its pool with other components.
func (f *Factory) CreateCache(provider Provider, config *Config, shared ...*redis.Client) (Client, error) {
	config.setDefaults()
	switch provider {
	case Redis:
		var (
			c   *RedisCache
			err error
		)
		if len(shared) > 0 && shared[0] != nil {
			c = NewRedisCacheFromClient(shared[0], config, f.logger)
			err = c.Ping(context.Background())
		} else {
			c, err = NewRedisCache(config, f.logger)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis cache: %w", err)
		}
		f.logger.Info("Redis cache created",
			"host", config.Host,
			"port", config.Port,
			"db", config.DB,
			"default_ttl", config.DefaultTTL.String(),
		)
		return c, nil
	case Memory:
		f.logger.Info("Memory cache created", "default_ttl", config.DefaultTTL.String())
		return NewMemoryCache(config, f.logger), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, provider)
	}
}
