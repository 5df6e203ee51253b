package repository

import (
	"context"
	"testing"
	"time"

	"bill-tracker/common"
	"bill-tracker/domain"
	"bill-tracker/pkg/cache"
	"bill-tracker/pkg/log"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisCache(t *testing.T) (cache.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := cache.NewRedisCacheFromClient(
		redis.NewClient(&redis.Options{Addr: mr.Addr()}),
		&cache.Config{KeyPrefix: "bt"},
		common.NewLoggerAdapter(log.NewNop()),
	)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestSessionCacheRepository(t *testing.T) {
	c, mr := newRedisCache(t)
	repo := NewSessionCacheRepository(c)
	ctx := context.Background()

	session := &domain.UserSession{ID: "sess-1", UserID: "user-1", RefreshToken: "hash-1"}
	require.NoError(t, repo.Save(ctx, session, time.Hour))

	got, err := repo.FindByRefreshToken(ctx, "hash-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UserID)

	// rotate: the old lookup must stop resolving even if it still exists
	session.RefreshToken = "hash-2"
	require.NoError(t, repo.Save(ctx, session, time.Hour))
	_, err = repo.FindByRefreshToken(ctx, "hash-1")
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)

	mr.FastForward(2 * time.Hour)
	_, err = repo.FindByID(ctx, "sess-1")
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestSessionCacheRepository_Delete(t *testing.T) {
	c := cache.NewMemoryCache(&cache.Config{}, common.NewLoggerAdapter(log.NewNop()))
	t.Cleanup(func() { _ = c.Close() })
	repo := NewSessionCacheRepository(c)
	ctx := context.Background()

	session := &domain.UserSession{ID: "sess-1", UserID: "user-1", RefreshToken: "hash-1"}
	require.NoError(t, repo.Save(ctx, session, time.Hour))
	require.NoError(t, repo.Delete(ctx, session))

	_, err := repo.FindByID(ctx, "sess-1")
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
	_, err = repo.FindByRefreshToken(ctx, "hash-1")
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}
