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

type definitionRepo interface {
	Create(ctx context.Context, def *domain.ServiceDefinition) error
	FindByID(ctx context.Context, id string) (*domain.ServiceDefinition, error)
	List(ctx context.Context, filter *domain.DefinitionFilter) ([]*domain.ServiceDefinition, error)
	Update(ctx context.Context, def *domain.ServiceDefinition) error
	Delete(ctx context.Context, id string) error
}

type DefinitionRepositorySuite struct {
	suite.Suite
	newRepo func(t *testing.T) definitionRepo

	repo definitionRepo
	ctx  context.Context
}

func (s *DefinitionRepositorySuite) SetupTest() {
	s.ctx = context.Background()
	s.repo = s.newRepo(s.T())
}

func (s *DefinitionRepositorySuite) seed(owner *string, name string, category domain.DefinitionCategory) *domain.ServiceDefinition {
	def := &domain.ServiceDefinition{UserID: owner, Name: name, Category: category, IsSystem: owner == nil}
	s.Require().NoError(s.repo.Create(s.ctx, def))
	return def
}

func names(defs []*domain.ServiceDefinition) []string {
	return lo.Map(defs, func(d *domain.ServiceDefinition, _ int) string { return d.Name })
}

func (s *DefinitionRepositorySuite) TestOwnerOrSystem() {
	s.seed(lo.ToPtr("u1"), "Netflix", domain.CategorySubscription)
	s.seed(nil, "Water", domain.CategoryUtilities)
	s.seed(lo.ToPtr("u2"), "Gym", domain.CategorySubscription)
	s.seed(lo.ToPtr("u1"), "Apartment", domain.CategoryRent)

	defs, err := s.repo.List(s.ctx, &domain.DefinitionFilter{OwnerOrSystem: lo.ToPtr("u1")})
	s.Require().NoError(err)
	s.Equal([]string{"Water", "Apartment", "Netflix"}, names(defs))

	defs, err = s.repo.List(s.ctx, &domain.DefinitionFilter{
		OwnerOrSystem: lo.ToPtr("u1"),
		Category:      lo.ToPtr(domain.CategorySubscription),
	})
	s.Require().NoError(err)
	s.Equal([]string{"Netflix"}, names(defs))

	defs, err = s.repo.List(s.ctx, &domain.DefinitionFilter{IsSystem: lo.ToPtr(true)})
	s.Require().NoError(err)
	s.Equal([]string{"Water"}, names(defs))
}

func (s *DefinitionRepositorySuite) TestUpdateAndDelete() {
	def := s.seed(lo.ToPtr("u1"), "Netflix", domain.CategorySubscription)

	def.Name, def.Color = "Disney", "#112233"
	s.Require().NoError(s.repo.Update(s.ctx, def))
	got, err := s.repo.FindByID(s.ctx, def.ID)
	s.Require().NoError(err)
	s.Equal("Disney", got.Name)
	s.Equal("#112233", got.Color)
	s.Equal("u1", *got.UserID)

	s.Require().NoError(s.repo.Delete(s.ctx, def.ID))
	_, err = s.repo.FindByID(s.ctx, def.ID)
	s.ErrorIs(err, domain.ErrRecordNotFound)
	s.ErrorIs(s.repo.Update(s.ctx, def), domain.ErrRecordNotFound)
}

func TestDefinitionRepository_Memory(t *testing.T) {
	suite.Run(t, &DefinitionRepositorySuite{
		newRepo: func(*testing.T) definitionRepo { return NewDefinitionMemoryRepository() },
	})
}

func TestDefinitionRepository_Redis(t *testing.T) {
	suite.Run(t, &DefinitionRepositorySuite{
		newRepo: func(t *testing.T) definitionRepo {
			mr := miniredis.RunT(t)
			client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { _ = client.Close() })
			return NewDefinitionRedisRepository(client, "test")
		},
	})
}
