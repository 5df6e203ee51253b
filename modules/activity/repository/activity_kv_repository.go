package repository

import (
	"cmp"
	"context"

	"bill-tracker/database"
	"bill-tracker/domain"

	"github.com/redis/go-redis/v9"
)

const activitiesCollection = "activities"

type ActivityKVRepository struct {
	docs database.DocumentStore[domain.Activity, domain.ActivityFilter]
}

func NewActivityRedisRepository(client *redis.Client, prefix string) *ActivityKVRepository {
	return &ActivityKVRepository{
		docs: database.NewRedisHandler(client, prefix, activitiesCollection, matchActivity,
			database.WithScore[domain.Activity, domain.ActivityFilter](activityScore)),
	}
}

func NewActivityMemoryRepository() *ActivityKVRepository {
	return &ActivityKVRepository{
		docs: database.NewMemoryHandler(matchActivity).WithScoreFunc(activityScore),
	}
}

func activityScore(a *domain.Activity) int64 {
	return a.CreatedAt
}

func matchActivity(a *domain.Activity, filter *domain.ActivityFilter) bool {
	if filter.UserID != nil && a.UserID != *filter.UserID {
		return false
	}
	if filter.EntityType != nil && a.EntityType != *filter.EntityType {
		return false
	}
	return true
}

func newestActivityFirst(a, b *domain.Activity) int {
	if c := cmp.Compare(b.CreatedAt, a.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(b.ID, a.ID)
}

func (r *ActivityKVRepository) Create(ctx context.Context, activity *domain.Activity) error {
	return r.docs.Create(ctx, activity)
}

func (r *ActivityKVRepository) FindByID(ctx context.Context, id string) (*domain.Activity, error) {
	return r.docs.FindByID(ctx, id)
}

func (r *ActivityKVRepository) List(ctx context.Context, filter *domain.ActivityFilter, option *domain.FindPageOption) ([]*domain.Activity, *domain.Pagination, error) {
	items, err := r.docs.FindAll(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	page, pagination := database.Paginate(items, option, newestActivityFirst)
	return page, pagination, nil
}

func (r *ActivityKVRepository) Delete(ctx context.Context, id string) error {
	return r.docs.DeleteByID(ctx, id)
}
