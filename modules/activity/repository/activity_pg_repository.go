package repository

import (
	"context"

	"bill-tracker/database"
	"bill-tracker/domain"

	"gorm.io/gorm"
)

type ActivityPgRepository struct {
	sqlHandler *database.SQLHandler[domain.Activity, domain.ActivityFilter]
}

func NewActivityPgRepository(db *gorm.DB) *ActivityPgRepository {
	return &ActivityPgRepository{
		sqlHandler: database.NewSQLHandler[domain.Activity](db, applyActivityFilter),
	}
}

func applyActivityFilter(qb *gorm.DB, filter *domain.ActivityFilter) *gorm.DB {
	if filter.UserID != nil {
		qb = qb.Where("user_id = ?", *filter.UserID)
	}
	if filter.EntityType != nil {
		qb = qb.Where("entity_type = ?", *filter.EntityType)
	}
	return qb
}

func (r *ActivityPgRepository) Create(ctx context.Context, activity *domain.Activity) error {
	return r.sqlHandler.Create(ctx, activity)
}

func (r *ActivityPgRepository) FindByID(ctx context.Context, id string) (*domain.Activity, error) {
	return r.sqlHandler.FindByID(ctx, id)
}

func (r *ActivityPgRepository) List(ctx context.Context, filter *domain.ActivityFilter, option *domain.FindPageOption) ([]*domain.Activity, *domain.Pagination, error) {
	page := domain.FindPageOption{Sort: []string{"created_at DESC", "id DESC"}}
	if option != nil {
		page.Page, page.PerPage = option.Page, option.PerPage
	}
	return r.sqlHandler.FindPage(ctx, filter, &page)
}

func (r *ActivityPgRepository) Delete(ctx context.Context, id string) error {
	return r.sqlHandler.DeleteByID(ctx, id)
}
