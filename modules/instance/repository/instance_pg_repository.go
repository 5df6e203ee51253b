package repository

import (
	"context"

	"bill-tracker/database"
	"bill-tracker/domain"
	"bill-tracker/pkg/utils"

	"gorm.io/gorm"
)

type InstancePgRepository struct {
	sqlHandler *database.SQLHandler[domain.ServiceInstance, domain.InstanceFilter]
}

func NewInstancePgRepository(db *gorm.DB) *InstancePgRepository {
	return &InstancePgRepository{
		sqlHandler: database.NewSQLHandler[domain.ServiceInstance](db, applyInstanceFilter),
	}
}

func applyInstanceFilter(qb *gorm.DB, filter *domain.InstanceFilter) *gorm.DB {
	if filter.UserID != nil {
		qb = qb.Where("user_id = ?", *filter.UserID)
	}
	if filter.DefinitionID != nil {
		qb = qb.Where("definition_id = ?", *filter.DefinitionID)
	}
	if len(filter.StatusIn) > 0 {
		qb = qb.Where("status IN ?", filter.StatusIn)
	}
	if filter.DueFrom != nil {
		qb = qb.Where("due_date >= ?", *filter.DueFrom)
	}
	if filter.DueTo != nil {
		qb = qb.Where("due_date <= ?", *filter.DueTo)
	}
	return qb
}

func (r *InstancePgRepository) Create(ctx context.Context, instance *domain.ServiceInstance) error {
	return r.sqlHandler.Create(ctx, instance)
}

func (r *InstancePgRepository) FindByID(ctx context.Context, id string) (*domain.ServiceInstance, error) {
	return r.sqlHandler.FindByID(ctx, id)
}

// List orders by due date, soonest first.
func (r *InstancePgRepository) List(ctx context.Context, filter *domain.InstanceFilter, option *domain.FindPageOption) ([]*domain.ServiceInstance, *domain.Pagination, error) {
	page := domain.FindPageOption{Sort: []string{"due_date ASC", "id ASC"}}
	if option != nil {
		page.Page, page.PerPage = option.Page, option.PerPage
	}
	return r.sqlHandler.FindPage(ctx, filter, &page)
}

func (r *InstancePgRepository) FindAll(ctx context.Context, filter *domain.InstanceFilter) ([]*domain.ServiceInstance, error) {
	return r.sqlHandler.FindMany(ctx, filter, nil)
}

func (r *InstancePgRepository) Update(ctx context.Context, instance *domain.ServiceInstance) error {
	instance.UpdatedAt = utils.NowUnixMillis()
	return r.sqlHandler.UpdateFields(ctx, instance.ID, map[string]any{
		"amount":            instance.Amount,
		"currency":          instance.Currency,
		"due_date":          instance.DueDate,
		"status":            instance.Status,
		"paid_at":           instance.PaidAt,
		"payment_reference": instance.PaymentReference,
		"notes":             instance.Notes,
		"updated_at":        instance.UpdatedAt,
	})
}

func (r *InstancePgRepository) Delete(ctx context.Context, id string) error {
	return r.sqlHandler.DeleteByID(ctx, id)
}

func (r *InstancePgRepository) Count(ctx context.Context, filter *domain.InstanceFilter) (int64, error) {
	return r.sqlHandler.Count(ctx, filter)
}
