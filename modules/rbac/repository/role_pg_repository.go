package repository

import (
	"context"

	"bill-tracker/database"
	"bill-tracker/domain"
	"bill-tracker/pkg/utils"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

type RolePgRepository struct {
	sqlHandler *database.SQLHandler[domain.Role, domain.RoleFilter]
}

func NewRolePgRepository(db *gorm.DB) *RolePgRepository {
	return &RolePgRepository{
		sqlHandler: database.NewSQLHandler[domain.Role](db, applyRoleFilter),
	}
}

func applyRoleFilter(qb *gorm.DB, filter *domain.RoleFilter) *gorm.DB {
	if filter.ID != nil {
		qb = qb.Where("id = ?", *filter.ID)
	}
	if filter.Name != nil {
		qb = qb.Where("name = ?", *filter.Name)
	}
	return qb
}

// attachCodes loads the permission codes of every role in one query.
func (r *RolePgRepository) attachCodes(ctx context.Context, db *gorm.DB, roles ...*domain.Role) error {
	if len(roles) == 0 {
		return nil
	}
	ids := lo.Map(roles, func(role *domain.Role, _ int) string { return role.ID })

	var links []domain.RolePermission
	if err := db.WithContext(ctx).
		Where("role_id IN ?", ids).
		Order("permission_code ASC").
		Find(&links).Error; err != nil {
		return err
	}

	byRole := lo.GroupBy(links, func(l domain.RolePermission) string { return l.RoleID })
	for _, role := range roles {
		role.PermissionCodes = lo.Map(byRole[role.ID], func(l domain.RolePermission, _ int) string {
			return l.PermissionCode
		})
	}
	return nil
}

func linksOf(roleID string, codes []string) []domain.RolePermission {
	return lo.Map(codes, func(code string, _ int) domain.RolePermission {
		return domain.RolePermission{RoleID: roleID, PermissionCode: code}
	})
}

func (r *RolePgRepository) GetAllWithPermissions(ctx context.Context) ([]*domain.Role, error) {
	roles, err := r.sqlHandler.FindMany(ctx, nil, &domain.FindManyOption{Sort: []string{"name ASC"}})
	if err != nil {
		return nil, err
	}
	if err := r.attachCodes(ctx, r.sqlHandler.DB(), roles...); err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *RolePgRepository) FindByID(ctx context.Context, id string) (*domain.Role, error) {
	role, err := r.sqlHandler.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.attachCodes(ctx, r.sqlHandler.DB(), role); err != nil {
		return nil, err
	}
	return role, nil
}

func (r *RolePgRepository) FindByName(ctx context.Context, name domain.RoleName) (*domain.Role, error) {
	role, err := r.sqlHandler.FindOne(ctx, &domain.RoleFilter{Name: &name})
	if err != nil {
		return nil, err
	}
	if err := r.attachCodes(ctx, r.sqlHandler.DB(), role); err != nil {
		return nil, err
	}
	return role, nil
}

func (r *RolePgRepository) Create(ctx context.Context, role *domain.Role) error {
	role.PermissionCodes = domain.NormalizeCodes(role.PermissionCodes)
	return r.sqlHandler.Transaction(ctx, func(tx *gorm.DB) error {
		if err := r.sqlHandler.Create(ctx, role, database.WithTx(tx)); err != nil {
			return err
		}
		if len(role.PermissionCodes) == 0 {
			return nil
		}
		return tx.Create(linksOf(role.ID, role.PermissionCodes)).Error
	})
}

// Update writes label and description and replaces the whole permission
// set: old links are deleted before the new ones are inserted.
func (r *RolePgRepository) Update(ctx context.Context, role *domain.Role) error {
	role.PermissionCodes = domain.NormalizeCodes(role.PermissionCodes)
	role.UpdatedAt = utils.NowUnixMillis()
	return r.sqlHandler.Transaction(ctx, func(tx *gorm.DB) error {
		if err := r.sqlHandler.UpdateFields(ctx, role.ID, map[string]any{
			"label":       role.Label,
			"description": role.Description,
			"updated_at":  role.UpdatedAt,
		}, database.WithTx(tx)); err != nil {
			return err
		}
		if err := tx.Where("role_id = ?", role.ID).Delete(&domain.RolePermission{}).Error; err != nil {
			return err
		}
		if len(role.PermissionCodes) == 0 {
			return nil
		}
		return tx.Create(linksOf(role.ID, role.PermissionCodes)).Error
	})
}

func (r *RolePgRepository) Delete(ctx context.Context, id string) error {
	return r.sqlHandler.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", id).Delete(&domain.RolePermission{}).Error; err != nil {
			return err
		}
		return r.sqlHandler.DeleteByID(ctx, id, database.WithTx(tx))
	})
}

func (r *RolePgRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.sqlHandler.DB().DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
