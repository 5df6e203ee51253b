package repository

import (
	"context"
	"errors"
	"time"

	"bill-tracker/domain"
	"bill-tracker/pkg/cache"
)

// SessionCacheRepository keeps sessions in the cache so they expire with
// the refresh token. A session lives at auth:session:<id> and is reachable
// from auth:refresh:<token hash>.
type SessionCacheRepository struct {
	cache cache.Client
}

func NewSessionCacheRepository(c cache.Client) *SessionCacheRepository {
	return &SessionCacheRepository{cache: c}
}

func sessionKey(id string) string {
	return cache.Key("auth", "session", id)
}

func refreshKey(tokenHash string) string {
	return cache.Key("auth", "refresh", tokenHash)
}

func (r *SessionCacheRepository) Save(ctx context.Context, session *domain.UserSession, ttl time.Duration) error {
	if err := r.cache.SetJSON(ctx, sessionKey(session.ID), session, ttl); err != nil {
		return err
	}
	return r.cache.Set(ctx, refreshKey(session.RefreshToken), []byte(session.ID), ttl)
}

func (r *SessionCacheRepository) FindByID(ctx context.Context, id string) (*domain.UserSession, error) {
	var session domain.UserSession
	if err := r.cache.GetJSON(ctx, sessionKey(id), &session); err != nil {
		if errors.Is(err, cache.ErrKeyNotFound) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}
	return &session, nil
}

// FindByRefreshToken ignores a mapping left behind by a rotated token.
func (r *SessionCacheRepository) FindByRefreshToken(ctx context.Context, tokenHash string) (*domain.UserSession, error) {
	id, err := r.cache.Get(ctx, refreshKey(tokenHash))
	if err != nil {
		if errors.Is(err, cache.ErrKeyNotFound) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}
	session, err := r.FindByID(ctx, string(id))
	if err != nil {
		return nil, err
	}
	if session.RefreshToken != tokenHash {
		return nil, domain.ErrRecordNotFound
	}
	return session, nil
}

func (r *SessionCacheRepository) Delete(ctx context.Context, session *domain.UserSession) error {
	return r.cache.Delete(ctx, sessionKey(session.ID), refreshKey(session.RefreshToken))
}

// DeleteRefreshToken drops the lookup for a token that was rotated away.
func (r *SessionCacheRepository) DeleteRefreshToken(ctx context.Context, tokenHash string) error {
	return r.cache.Delete(ctx, refreshKey(tokenHash))
}
