package repository

import (
	"context"

	"bill-tracker/database"
	"bill-tracker/domain"
	"bill-tracker/pkg/utils"

	"gorm.io/gorm"
)

type DefinitionPgRepository struct {
	sqlHandler *database.SQLHandler[domain.ServiceDefinition, domain.DefinitionFilter]
}

func NewDefinitionPgRepository(db *gorm.DB) *DefinitionPgRepository {
	return &DefinitionPgRepository{
		sqlHandler: database.NewSQLHandler[domain.ServiceDefinition](db, applyDefinitionFilter),
	}
}

func applyDefinitionFilter(qb *gorm.DB, filter *domain.DefinitionFilter) *gorm.DB {
	if filter.OwnerOrSystem != nil {
		qb = qb.Where("(user_id = ? OR is_system = ?)", *filter.OwnerOrSystem, true)
	}
	if filter.UserID != nil {
		qb = qb.Where("user_id = ?", *filter.UserID)
	}
	if filter.Category != nil {
		qb = qb.Where("category = ?", *filter.Category)
	}
	if filter.IsSystem != nil {
		qb = qb.Where("is_system = ?", *filter.IsSystem)
	}
	return qb
}

func (r *DefinitionPgRepository) Create(ctx context.Context, def *domain.ServiceDefinition) error {
	return r.sqlHandler.Create(ctx, def)
}

func (r *DefinitionPgRepository) FindByID(ctx context.Context, id string) (*domain.ServiceDefinition, error) {
	return r.sqlHandler.FindByID(ctx, id)
}

// List puts system definitions first, then sorts by name.
func (r *DefinitionPgRepository) List(ctx context.Context, filter *domain.DefinitionFilter) ([]*domain.ServiceDefinition, error) {
	return r.sqlHandler.FindMany(ctx, filter, &domain.FindManyOption{
		Sort: []string{"is_system DESC", "name ASC", "id ASC"},
	})
}

func (r *DefinitionPgRepository) Update(ctx context.Context, def *domain.ServiceDefinition) error {
	def.UpdatedAt = utils.NowUnixMillis()
	return r.sqlHandler.UpdateFields(ctx, def.ID, map[string]any{
		"name":       def.Name,
		"icon":       def.Icon,
		"color":      def.Color,
		"category":   def.Category,
		"updated_at": def.UpdatedAt,
	})
}

func (r *DefinitionPgRepository) Delete(ctx context.Context, id string) error {
	return r.sqlHandler.DeleteByID(ctx, id)
}
