package database

import (
	"bill-tracker/domain"
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func matchActivity(a *domain.Activity, f *domain.ActivityFilter) bool {
	if f.UserID != nil && a.UserID != *f.UserID {
		return false
	}
	if f.EntityType != nil && a.EntityType != *f.EntityType {
		return false
	}
	return true
}

func activityScore(a *domain.Activity) int64 { return a.CreatedAt }

type DocumentStoreSuite struct {
	suite.Suite
	newStore func() DocumentStore[domain.Activity, domain.ActivityFilter]
	store    DocumentStore[domain.Activity, domain.ActivityFilter]
	ctx      context.Context
}

func (s *DocumentStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.newStore()
}

func (s *DocumentStoreSuite) TestCreateAssignsIDAndTimestamp() {
	a := &domain.Activity{UserID: "u1", Type: domain.ActivityCreated}
	s.Require().NoError(s.store.Create(s.ctx, a))
	s.NotEmpty(a.ID)
	s.NotZero(a.CreatedAt)

	got, err := s.store.FindByID(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Equal("u1", got.UserID)
}

func (s *DocumentStoreSuite) TestFindByIDMissing() {
	_, err := s.store.FindByID(s.ctx, "nope")
	s.ErrorIs(err, domain.ErrRecordNotFound)
}

func (s *DocumentStoreSuite) TestFilterAndCount() {
	u1, u2 := "u1", "u2"
	for _, uid := range []string{u1, u1, u2} {
		s.Require().NoError(s.store.Create(s.ctx, &domain.Activity{UserID: uid}))
	}

	items, err := s.store.FindAll(s.ctx, &domain.ActivityFilter{UserID: &u1})
	s.Require().NoError(err)
	s.Len(items, 2)

	n, err := s.store.Count(s.ctx, nil)
	s.Require().NoError(err)
	s.EqualValues(3, n)

	n, err = s.store.Count(s.ctx, &domain.ActivityFilter{UserID: &u2})
	s.Require().NoError(err)
	s.EqualValues(1, n)
}

func (s *DocumentStoreSuite) TestFindByScore() {
	for _, ts := range []int64{100, 200, 300} {
		s.Require().NoError(s.store.Create(s.ctx, &domain.Activity{UserID: "u", CreatedAt: ts}))
	}
	from, to := int64(150), int64(300)
	items, err := s.store.FindByScore(s.ctx, &from, &to, nil)
	s.Require().NoError(err)
	s.Len(items, 2)
}

func (s *DocumentStoreSuite) TestUpdateMissing() {
	err := s.store.Update(s.ctx, &domain.Activity{ID: "ghost"})
	s.ErrorIs(err, domain.ErrRecordNotFound)
}

func (s *DocumentStoreSuite) TestDeleteByIDs() {
	var ids []string
	for i := 0; i < 3; i++ {
		a := &domain.Activity{UserID: "u"}
		s.Require().NoError(s.store.Create(s.ctx, a))
		ids = append(ids, a.ID)
	}

	n, err := s.store.DeleteByIDs(s.ctx, append(ids, "missing"))
	s.Require().NoError(err)
	s.EqualValues(3, n)

	for _, id := range ids {
		_, err := s.store.FindByID(s.ctx, id)
		s.ErrorIs(err, domain.ErrRecordNotFound)
	}
	s.ErrorIs(s.store.DeleteByID(s.ctx, ids[0]), domain.ErrRecordNotFound)
}

func TestMemoryHandler(t *testing.T) {
	suite.Run(t, &DocumentStoreSuite{
		newStore: func() DocumentStore[domain.Activity, domain.ActivityFilter] {
			return NewMemoryHandler(matchActivity).WithScoreFunc(activityScore)
		},
	})
}

func TestRedisHandler(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	suite.Run(t, &DocumentStoreSuite{
		newStore: func() DocumentStore[domain.Activity, domain.ActivityFilter] {
			mr.FlushAll()
			return NewRedisHandler(client, "test", "activities", matchActivity,
				WithScore[domain.Activity, domain.ActivityFilter](activityScore))
		},
	})
}

func TestPaginate(t *testing.T) {
	items := []*domain.Activity{{CreatedAt: 1}, {CreatedAt: 3}, {CreatedAt: 2}}
	newestFirst := func(a, b *domain.Activity) int { return int(b.CreatedAt - a.CreatedAt) }

	page, p := Paginate(items, &domain.FindPageOption{Page: 1, PerPage: 2}, newestFirst)
	require.Len(t, page, 2)
	require.EqualValues(t, 3, page[0].CreatedAt)
	require.EqualValues(t, 3, p.TotalItems)
	require.Equal(t, 2, p.TotalPages)

	page, _ = Paginate(items, &domain.FindPageOption{Page: 5, PerPage: 2}, newestFirst)
	require.Empty(t, page)
}

func TestRedisHandlerKeepsHiddenFields(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	h := NewRedisHandler[domain.UserProfile, domain.UserFilter](client, "bt", "users", nil)

	u := &domain.UserProfile{Email: "a@b.c", PasswordHash: "hash", IsActive: true}
	require.NoError(t, h.Create(context.Background(), u))

	got, err := h.FindByID(context.Background(), u.ID)
	require.NoError(t, err)
	require.Equal(t, "hash", got.PasswordHash)
	require.True(t, got.IsActive)
}
