package repository

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"bill-tracker/database"
	"bill-tracker/domain"

	"github.com/redis/go-redis/v9"
)

const definitionsCollection = "service_definitions"

type DefinitionKVRepository struct {
	docs database.DocumentStore[domain.ServiceDefinition, domain.DefinitionFilter]
}

func NewDefinitionRedisRepository(client *redis.Client, prefix string) *DefinitionKVRepository {
	return &DefinitionKVRepository{docs: database.NewRedisHandler(client, prefix, definitionsCollection, matchDefinition)}
}

func NewDefinitionMemoryRepository() *DefinitionKVRepository {
	return &DefinitionKVRepository{docs: database.NewMemoryHandler(matchDefinition)}
}

func ownedBy(d *domain.ServiceDefinition, userID string) bool {
	return d.UserID != nil && *d.UserID == userID
}

func matchDefinition(d *domain.ServiceDefinition, filter *domain.DefinitionFilter) bool {
	if filter.OwnerOrSystem != nil && !d.IsSystem && !ownedBy(d, *filter.OwnerOrSystem) {
		return false
	}
	if filter.UserID != nil && !ownedBy(d, *filter.UserID) {
		return false
	}
	if filter.Category != nil && d.Category != *filter.Category {
		return false
	}
	if filter.IsSystem != nil && d.IsSystem != *filter.IsSystem {
		return false
	}
	return true
}

// systemThenName matches the SQL ordering "is_system DESC, name ASC, id ASC".
func systemThenName(a, b *domain.ServiceDefinition) int {
	if a.IsSystem != b.IsSystem {
		if a.IsSystem {
			return -1
		}
		return 1
	}
	if c := strings.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

func (r *DefinitionKVRepository) Create(ctx context.Context, def *domain.ServiceDefinition) error {
	return r.docs.Create(ctx, def)
}

func (r *DefinitionKVRepository) FindByID(ctx context.Context, id string) (*domain.ServiceDefinition, error) {
	return r.docs.FindByID(ctx, id)
}

func (r *DefinitionKVRepository) List(ctx context.Context, filter *domain.DefinitionFilter) ([]*domain.ServiceDefinition, error) {
	defs, err := r.docs.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(defs, systemThenName)
	return defs, nil
}

func (r *DefinitionKVRepository) Update(ctx context.Context, def *domain.ServiceDefinition) error {
	return r.docs.Update(ctx, def)
}

func (r *DefinitionKVRepository) Delete(ctx context.Context, id string) error {
	return r.docs.DeleteByID(ctx, id)
}
