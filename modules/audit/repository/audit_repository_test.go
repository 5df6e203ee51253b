package repository

import (
	"context"
	"testing"

	"bill-tracker/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
)

type auditRepo interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
	List(ctx context.Context, filter *domain.AuditLogFilter, option *domain.FindPageOption) ([]*domain.AuditLog, *domain.Pagination, error)
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) (int64, error)
}

type AuditRepositorySuite struct {
	suite.Suite
	newRepo func(t *testing.T) auditRepo

	repo auditRepo
	ctx  context.Context
}

func (s *AuditRepositorySuite) SetupTest() {
	s.ctx = context.Background()
	s.repo = s.newRepo(s.T())
}

func (s *AuditRepositorySuite) seed(userID string, action domain.AuditAction, createdAt int64) *domain.AuditLog {
	entry := &domain.AuditLog{
		ID:        domain.NewID(),
		UserID:    userID,
		Action:    action,
		Details:   domain.JSONB{"user_email": userID + "@example.com"},
		CreatedAt: createdAt,
	}
	s.Require().NoError(s.repo.Create(s.ctx, entry))
	return entry
}

func (s *AuditRepositorySuite) TestListNewestFirst() {
	s.seed("u1", domain.AuditActionLogin, 1_000)
	s.seed("u1", domain.AuditActionLogout, 3_000)
	s.seed("u2", domain.AuditActionLogin, 2_000)

	items, page, err := s.repo.List(s.ctx, nil, &domain.FindPageOption{Page: 1, PerPage: 2})
	s.Require().NoError(err)
	s.Equal(int64(3), page.TotalItems)
	s.Equal(2, page.TotalPages)
	s.Require().Len(items, 2)
	s.Equal(int64(3_000), items[0].CreatedAt)
	s.Equal(int64(2_000), items[1].CreatedAt)
	s.Equal("u1@example.com", items[0].Details["user_email"])
}

func (s *AuditRepositorySuite) TestListFilters() {
	s.seed("u1", domain.AuditActionLogin, 1_000)
	s.seed("u1", domain.AuditActionLogout, 2_000)
	s.seed("u2", domain.AuditActionLogin, 3_000)
	s.seed("u1", domain.AuditActionLogin, 4_000)

	userID, action := "u1", domain.AuditActionLogin
	items, _, err := s.repo.List(s.ctx, &domain.AuditLogFilter{UserID: &userID, Action: &action}, nil)
	s.Require().NoError(err)
	s.Len(items, 2)

	from, to := int64(2_000), int64(3_000)
	items, _, err = s.repo.List(s.ctx, &domain.AuditLogFilter{From: &from, To: &to}, nil)
	s.Require().NoError(err)
	s.ElementsMatch([]int64{2_000, 3_000}, lo.Map(items, func(e *domain.AuditLog, _ int) int64 { return e.CreatedAt }))
}

func (s *AuditRepositorySuite) TestDelete() {
	entry := s.seed("u1", domain.AuditActionLogin, 1_000)
	s.Require().NoError(s.repo.Delete(s.ctx, entry.ID))

	items, _, err := s.repo.List(s.ctx, nil, nil)
	s.Require().NoError(err)
	s.Empty(items)
}

func (s *AuditRepositorySuite) TestDeleteManyReturnsCount() {
	a := s.seed("u1", domain.AuditActionLogin, 1_000)
	b := s.seed("u1", domain.AuditActionLogout, 2_000)
	c := s.seed("u2", domain.AuditActionLogin, 3_000)
	keep := s.seed("u2", domain.AuditActionLogout, 4_000)

	n, err := s.repo.DeleteMany(s.ctx, []string{a.ID, b.ID, c.ID, domain.NewID()})
	s.Require().NoError(err)
	s.Equal(int64(3), n)

	items, _, err := s.repo.List(s.ctx, nil, nil)
	s.Require().NoError(err)
	s.Require().Len(items, 1)
	s.Equal(keep.ID, items[0].ID)
}

func TestAuditRepository_Memory(t *testing.T) {
	suite.Run(t, &AuditRepositorySuite{
		newRepo: func(*testing.T) auditRepo { return NewAuditMemoryRepository() },
	})
}

func TestAuditRepository_Redis(t *testing.T) {
	suite.Run(t, &AuditRepositorySuite{
		newRepo: func(t *testing.T) auditRepo {
			mr := miniredis.RunT(t)
			client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { _ = client.Close() })
			return NewAuditRedisRepository(client, "test")
		},
	})
}
