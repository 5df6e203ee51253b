package repository

import (
	"context"

	"bill-tracker/database"
	"bill-tracker/domain"
	"bill-tracker/pkg/utils"

	"gorm.io/gorm"
)

type UserPgRepository struct {
	sqlHandler *database.SQLHandler[domain.UserProfile, domain.UserFilter]
}

func NewUserPgRepository(db *gorm.DB) *UserPgRepository {
	return &UserPgRepository{
		sqlHandler: database.NewSQLHandler[domain.UserProfile](db, applyFilter),
	}
}

func applyFilter(qb *gorm.DB, filter *domain.UserFilter) *gorm.DB {
	if filter.ID != nil {
		qb = qb.Where("id = ?", *filter.ID)
	}
	if len(filter.IDIn) > 0 {
		qb = qb.Where("id IN ?", filter.IDIn)
	}
	if filter.Email != nil {
		qb = qb.Where("email = ?", *filter.Email)
	}
	if filter.Role != nil {
		qb = qb.Where("role = ?", *filter.Role)
	}
	if filter.IsBanned != nil {
		qb = qb.Where("is_active = ?", !*filter.IsBanned)
	}
	if filter.Search != nil {
		qb = database.ApplySearch(qb, *filter.Search, "email", "full_name")
	}
	return qb
}

func (r *UserPgRepository) Create(ctx context.Context, user *domain.UserProfile) error {
	return r.sqlHandler.Create(ctx, user)
}

func (r *UserPgRepository) FindByID(ctx context.Context, userID string) (*domain.UserProfile, error) {
	return r.sqlHandler.FindByID(ctx, userID)
}

func (r *UserPgRepository) FindByEmail(ctx context.Context, email string) (*domain.UserProfile, error) {
	return r.sqlHandler.FindOne(ctx, &domain.UserFilter{Email: &email})
}

func (r *UserPgRepository) List(ctx context.Context, filter *domain.UserFilter, option *domain.FindPageOption) ([]*domain.UserProfile, *domain.Pagination, error) {
	page := domain.FindPageOption{Sort: []string{"created_at DESC", "id ASC"}}
	if option != nil {
		page.Page, page.PerPage = option.Page, option.PerPage
	}
	return r.sqlHandler.FindPage(ctx, filter, &page)
}

// Update writes every mutable column. Email and password hash are left
// alone; they change through dedicated flows only.
func (r *UserPgRepository) Update(ctx context.Context, user *domain.UserProfile) error {
	user.UpdatedAt = utils.NowUnixMillis()
	return r.sqlHandler.UpdateFields(ctx, user.ID, map[string]any{
		"full_name":            user.FullName,
		"avatar_url":           user.AvatarURL,
		"role":                 user.Role,
		"is_active":            user.IsActive,
		"is_protected_account": user.IsProtectedAccount,
		"updated_at":           user.UpdatedAt,
	})
}

func (r *UserPgRepository) UpdateLastLogin(ctx context.Context, userID string, at int64) error {
	return r.sqlHandler.UpdateFields(ctx, userID, map[string]any{"last_login": at})
}

func (r *UserPgRepository) Count(ctx context.Context, filter *domain.UserFilter) (int64, error) {
	return r.sqlHandler.Count(ctx, filter)
}
