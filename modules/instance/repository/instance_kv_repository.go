package repository

import (
	"cmp"
	"context"

	"bill-tracker/database"
	"bill-tracker/domain"

	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
)

const instancesCollection = "service_instances"

// InstanceKVRepository scores documents by due date so due ranges narrow
// the scan.
type InstanceKVRepository struct {
	docs database.DocumentStore[domain.ServiceInstance, domain.InstanceFilter]
}

func NewInstanceRedisRepository(client *redis.Client, prefix string) *InstanceKVRepository {
	return &InstanceKVRepository{
		docs: database.NewRedisHandler(client, prefix, instancesCollection, matchInstance,
			database.WithScore[domain.ServiceInstance, domain.InstanceFilter](dueDateScore)),
	}
}

func NewInstanceMemoryRepository() *InstanceKVRepository {
	return &InstanceKVRepository{
		docs: database.NewMemoryHandler(matchInstance).WithScoreFunc(dueDateScore),
	}
}

func dueDateScore(i *domain.ServiceInstance) int64 {
	return i.DueDate
}

func matchInstance(i *domain.ServiceInstance, filter *domain.InstanceFilter) bool {
	if filter.UserID != nil && i.UserID != *filter.UserID {
		return false
	}
	if filter.DefinitionID != nil && i.DefinitionID != *filter.DefinitionID {
		return false
	}
	if len(filter.StatusIn) > 0 && !lo.Contains(filter.StatusIn, i.Status) {
		return false
	}
	return true
}

func soonestDueFirst(a, b *domain.ServiceInstance) int {
	if c := cmp.Compare(a.DueDate, b.DueDate); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

func (r *InstanceKVRepository) find(ctx context.Context, filter *domain.InstanceFilter) ([]*domain.ServiceInstance, error) {
	if filter == nil {
		return r.docs.FindAll(ctx, nil)
	}
	return r.docs.FindByScore(ctx, filter.DueFrom, filter.DueTo, filter)
}

func (r *InstanceKVRepository) Create(ctx context.Context, instance *domain.ServiceInstance) error {
	return r.docs.Create(ctx, instance)
}

func (r *InstanceKVRepository) FindByID(ctx context.Context, id string) (*domain.ServiceInstance, error) {
	return r.docs.FindByID(ctx, id)
}

func (r *InstanceKVRepository) List(ctx context.Context, filter *domain.InstanceFilter, option *domain.FindPageOption) ([]*domain.ServiceInstance, *domain.Pagination, error) {
	instances, err := r.find(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	items, pagination := database.Paginate(instances, option, soonestDueFirst)
	return items, pagination, nil
}

func (r *InstanceKVRepository) FindAll(ctx context.Context, filter *domain.InstanceFilter) ([]*domain.ServiceInstance, error) {
	return r.find(ctx, filter)
}

func (r *InstanceKVRepository) Update(ctx context.Context, instance *domain.ServiceInstance) error {
	return r.docs.Update(ctx, instance)
}

func (r *InstanceKVRepository) Delete(ctx context.Context, id string) error {
	return r.docs.DeleteByID(ctx, id)
}

func (r *InstanceKVRepository) Count(ctx context.Context, filter *domain.InstanceFilter) (int64, error) {
	instances, err := r.find(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(instances)), nil
}
