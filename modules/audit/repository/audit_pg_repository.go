package repository

import (
	"context"

	"bill-tracker/database"
	"bill-tracker/domain"

	"gorm.io/gorm"
)

type AuditPgRepository struct {
	sqlHandler *database.SQLHandler[domain.AuditLog, domain.AuditLogFilter]
}

func NewAuditPgRepository(db *gorm.DB) *AuditPgRepository {
	return &AuditPgRepository{
		sqlHandler: database.NewSQLHandler[domain.AuditLog](db, applyAuditFilter),
	}
}

func applyAuditFilter(qb *gorm.DB, filter *domain.AuditLogFilter) *gorm.DB {
	if len(filter.IDIn) > 0 {
		qb = qb.Where("id IN ?", filter.IDIn)
	}
	if filter.UserID != nil {
		qb = qb.Where("user_id = ?", *filter.UserID)
	}
	if filter.Action != nil {
		qb = qb.Where("action = ?", *filter.Action)
	}
	if filter.From != nil {
		qb = qb.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		qb = qb.Where("created_at <= ?", *filter.To)
	}
	return qb
}

func (r *AuditPgRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	return r.sqlHandler.Create(ctx, entry)
}

func (r *AuditPgRepository) List(ctx context.Context, filter *domain.AuditLogFilter, option *domain.FindPageOption) ([]*domain.AuditLog, *domain.Pagination, error) {
	page := domain.FindPageOption{Sort: []string{"created_at DESC", "id DESC"}}
	if option != nil {
		page.Page, page.PerPage = option.Page, option.PerPage
	}
	return r.sqlHandler.FindPage(ctx, filter, &page)
}

func (r *AuditPgRepository) Delete(ctx context.Context, id string) error {
	return r.sqlHandler.DeleteByID(ctx, id)
}

func (r *AuditPgRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	return r.sqlHandler.DeleteByIDs(ctx, ids)
}
