package repository

import (
	"context"
	"testing"

	"bill-tracker/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
)

type userRepo interface {
	Create(ctx context.Context, user *domain.UserProfile) error
	FindByID(ctx context.Context, userID string) (*domain.UserProfile, error)
	FindByEmail(ctx context.Context, email string) (*domain.UserProfile, error)
	List(ctx context.Context, filter *domain.UserFilter, option *domain.FindPageOption) ([]*domain.UserProfile, *domain.Pagination, error)
	Update(ctx context.Context, user *domain.UserProfile) error
	UpdateLastLogin(ctx context.Context, userID string, at int64) error
	Count(ctx context.Context, filter *domain.UserFilter) (int64, error)
}

type UserRepositorySuite struct {
	suite.Suite
	newRepo func(t *testing.T) userRepo

	repo userRepo
	ctx  context.Context
}

func (s *UserRepositorySuite) SetupTest() {
	s.ctx = context.Background()
	s.repo = s.newRepo(s.T())
}

func (s *UserRepositorySuite) seed(email, name string, role domain.RoleName, active bool) *domain.UserProfile {
	u := &domain.UserProfile{
		Email:        email,
		PasswordHash: "$2a$10$hash",
		FullName:     name,
		Role:         role,
		IsActive:     active,
	}
	s.Require().NoError(s.repo.Create(s.ctx, u))
	s.Require().NotEmpty(u.ID)
	return u
}

func (s *UserRepositorySuite) TestFindByEmailKeepsPasswordHash() {
	created := s.seed("ann@example.com", "Ann", domain.RoleFreeUser, true)

	got, err := s.repo.FindByEmail(s.ctx, "ann@example.com")
	s.Require().NoError(err)
	s.Equal(created.ID, got.ID)
	s.Equal("$2a$10$hash", got.PasswordHash)
	s.False(got.IsBanned())

	_, err = s.repo.FindByEmail(s.ctx, "nobody@example.com")
	s.ErrorIs(err, domain.ErrRecordNotFound)
}

func (s *UserRepositorySuite) TestListFilters() {
	s.seed("ann@example.com", "Ann Lee", domain.RoleFreeUser, true)
	s.seed("bob@example.com", "Bob Stone", domain.RoleAdmin, true)
	s.seed("cat@example.com", "Cat Lee", domain.RoleFreeUser, false)

	banned := true
	items, _, err := s.repo.List(s.ctx, &domain.UserFilter{IsBanned: &banned}, nil)
	s.Require().NoError(err)
	s.Require().Len(items, 1)
	s.Equal("cat@example.com", items[0].Email)

	search := "lee"
	items, page, err := s.repo.List(s.ctx, &domain.UserFilter{Search: &search}, &domain.FindPageOption{Page: 1, PerPage: 1})
	s.Require().NoError(err)
	s.Len(items, 1)
	s.Equal(int64(2), page.TotalItems)

	role := domain.RoleAdmin
	n, err := s.repo.Count(s.ctx, &domain.UserFilter{Role: &role})
	s.Require().NoError(err)
	s.Equal(int64(1), n)
}

func (s *UserRepositorySuite) TestUpdateAndLastLogin() {
	u := s.seed("ann@example.com", "Ann", domain.RoleFreeUser, true)
	u.Role = domain.RoleAdmin
	u.IsActive = false
	u.FullName = "Ann B"
	s.Require().NoError(s.repo.Update(s.ctx, u))
	s.Require().NoError(s.repo.UpdateLastLogin(s.ctx, u.ID, 42))

	got, err := s.repo.FindByID(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Equal(domain.RoleAdmin, got.Role)
	s.True(got.IsBanned())
	s.Equal("Ann B", got.FullName)
	s.Require().NotNil(got.LastLogin)
	s.Equal(int64(42), *got.LastLogin)
	s.Equal("$2a$10$hash", got.PasswordHash)
}

func TestUserRepository_Memory(t *testing.T) {
	suite.Run(t, &UserRepositorySuite{
		newRepo: func(*testing.T) userRepo { return NewUserMemoryRepository() },
	})
}

func TestUserRepository_Redis(t *testing.T) {
	suite.Run(t, &UserRepositorySuite{
		newRepo: func(t *testing.T) userRepo {
			mr := miniredis.RunT(t)
			client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { _ = client.Close() })
			return NewUserRedisRepository(client, "test")
		},
	})
}
