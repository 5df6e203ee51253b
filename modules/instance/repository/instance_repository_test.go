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

type instanceRepo interface {
	Create(ctx context.Context, instance *domain.ServiceInstance) error
	FindByID(ctx context.Context, id string) (*domain.ServiceInstance, error)
	List(ctx context.Context, filter *domain.InstanceFilter, option *domain.FindPageOption) ([]*domain.ServiceInstance, *domain.Pagination, error)
	FindAll(ctx context.Context, filter *domain.InstanceFilter) ([]*domain.ServiceInstance, error)
	Update(ctx context.Context, instance *domain.ServiceInstance) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context, filter *domain.InstanceFilter) (int64, error)
}

type InstanceRepositorySuite struct {
	suite.Suite
	newRepo func(t *testing.T) instanceRepo

	repo instanceRepo
	ctx  context.Context
}

func (s *InstanceRepositorySuite) SetupTest() {
	s.ctx = context.Background()
	s.repo = s.newRepo(s.T())
}

func (s *InstanceRepositorySuite) seed(userID, defID string, due int64, status domain.InstanceStatus) *domain.ServiceInstance {
	inst := &domain.ServiceInstance{
		UserID:       userID,
		DefinitionID: defID,
		Amount:       due,
		Currency:     "EUR",
		DueDate:      due,
		Status:       status,
	}
	s.Require().NoError(s.repo.Create(s.ctx, inst))
	return inst
}

func dues(items []*domain.ServiceInstance) []int64 {
	return lo.Map(items, func(i *domain.ServiceInstance, _ int) int64 { return i.DueDate })
}

func (s *InstanceRepositorySuite) TestListFiltersAndOrder() {
	s.seed("u1", "d1", 3_000, domain.InstanceStatusPending)
	s.seed("u1", "d1", 1_000, domain.InstanceStatusPaid)
	s.seed("u1", "d2", 2_000, domain.InstanceStatusPending)
	s.seed("u2", "d1", 1_500, domain.InstanceStatusPending)

	userID := "u1"
	items, page, err := s.repo.List(s.ctx, &domain.InstanceFilter{UserID: &userID}, nil)
	s.Require().NoError(err)
	s.Equal(int64(3), page.TotalItems)
	s.Equal([]int64{1_000, 2_000, 3_000}, dues(items))

	from, to := int64(1_500), int64(3_000)
	items, _, err = s.repo.List(s.ctx, &domain.InstanceFilter{
		UserID:   &userID,
		StatusIn: []domain.InstanceStatus{domain.InstanceStatusPending},
		DueFrom:  &from,
		DueTo:    &to,
	}, nil)
	s.Require().NoError(err)
	s.Equal([]int64{2_000, 3_000}, dues(items))

	defID := "d1"
	n, err := s.repo.Count(s.ctx, &domain.InstanceFilter{DefinitionID: &defID})
	s.Require().NoError(err)
	s.Equal(int64(3), n)
}

func (s *InstanceRepositorySuite) TestUpdateMovesDueDate() {
	inst := s.seed("u1", "d1", 1_000, domain.InstanceStatusPending)

	paidAt, ref := int64(5_000), "tx"
	inst.DueDate, inst.Status, inst.PaidAt, inst.PaymentReference = 9_000, domain.InstanceStatusPaid, &paidAt, &ref
	s.Require().NoError(s.repo.Update(s.ctx, inst))

	from := int64(8_000)
	items, err := s.repo.FindAll(s.ctx, &domain.InstanceFilter{DueFrom: &from})
	s.Require().NoError(err)
	s.Require().Len(items, 1)
	s.Equal(domain.InstanceStatusPaid, items[0].Status)
	s.Equal("tx", *items[0].PaymentReference)

	s.Require().NoError(s.repo.Delete(s.ctx, inst.ID))
	_, err = s.repo.FindByID(s.ctx, inst.ID)
	s.ErrorIs(err, domain.ErrRecordNotFound)
}

func TestInstanceRepository_Memory(t *testing.T) {
	suite.Run(t, &InstanceRepositorySuite{
		newRepo: func(*testing.T) instanceRepo { return NewInstanceMemoryRepository() },
	})
}

func TestInstanceRepository_Redis(t *testing.T) {
	suite.Run(t, &InstanceRepositorySuite{
		newRepo: func(t *testing.T) instanceRepo {
			mr := miniredis.RunT(t)
			client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { _ = client.Close() })
			return NewInstanceRedisRepository(client, "test")
		},
	})
}
