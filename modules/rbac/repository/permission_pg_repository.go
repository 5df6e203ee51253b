package repository

import (
	"context"

	"bill-tracker/database"
	"bill-tracker/domain"
	"bill-tracker/pkg/utils"

	"gorm.io/gorm"
)

type PermissionPgRepository struct {
	sqlHandler *database.SQLHandler[domain.Permission, domain.PermissionFilter]
}

func NewPermissionPgRepository(db *gorm.DB) *PermissionPgRepository {
	return &PermissionPgRepository{
		sqlHandler: database.NewSQLHandler[domain.Permission](db, applyPermissionFilter),
	}
}

func applyPermissionFilter(qb *gorm.DB, filter *domain.PermissionFilter) *gorm.DB {
	if filter.ID != nil {
		qb = qb.Where("id = ?", *filter.ID)
	}
	if filter.Code != nil {
		qb = qb.Where("code = ?", *filter.Code)
	}
	if len(filter.Codes) > 0 {
		qb = qb.Where("code IN ?", filter.Codes)
	}
	if filter.Module != nil {
		qb = qb.Where("module = ?", *filter.Module)
	}
	return qb
}

func (r *PermissionPgRepository) GetAll(ctx context.Context) ([]*domain.Permission, error) {
	return r.sqlHandler.FindMany(ctx, nil, &domain.FindManyOption{Sort: []string{"code ASC"}})
}

func (r *PermissionPgRepository) FindByID(ctx context.Context, id string) (*domain.Permission, error) {
	return r.sqlHandler.FindByID(ctx, id)
}

func (r *PermissionPgRepository) FindByCode(ctx context.Context, code string) (*domain.Permission, error) {
	return r.sqlHandler.FindOne(ctx, &domain.PermissionFilter{Code: &code})
}

func (r *PermissionPgRepository) Create(ctx context.Context, permission *domain.Permission) error {
	return r.sqlHandler.Create(ctx, permission)
}

// Update writes the mutable columns only; code never changes.
func (r *PermissionPgRepository) Update(ctx context.Context, permission *domain.Permission) error {
	permission.UpdatedAt = utils.NowUnixMillis()
	return r.sqlHandler.UpdateFields(ctx, permission.ID, map[string]any{
		"description": permission.Description,
		"module":      permission.Module,
		"updated_at":  permission.UpdatedAt,
	})
}

// Delete removes every role link to the code before the permission row.
func (r *PermissionPgRepository) Delete(ctx context.Context, id string) error {
	return r.sqlHandler.Transaction(ctx, func(tx *gorm.DB) error {
		permission, err := r.sqlHandler.FindByID(ctx, id, database.WithTx(tx))
		if err != nil {
			return err
		}
		if err := tx.Where("permission_code = ?", permission.Code).
			Delete(&domain.RolePermission{}).Error; err != nil {
			return err
		}
		return r.sqlHandler.DeleteByID(ctx, id, database.WithTx(tx))
	})
}
