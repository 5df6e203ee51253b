package repository

import (
	"cmp"
	"context"
	"strings"

	"bill-tracker/database"
	"bill-tracker/domain"

	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
)

const usersCollection = "users"

// UserKVRepository serves the redis and memory backends. Email uniqueness
// is checked by the caller before Create; without WATCH two concurrent
// registrations of one address can both land, and the later one wins
// lookups by email.
type UserKVRepository struct {
	docs database.DocumentStore[domain.UserProfile, domain.UserFilter]
}

func NewUserRedisRepository(client *redis.Client, prefix string) *UserKVRepository {
	return &UserKVRepository{docs: database.NewRedisHandler(client, prefix, usersCollection, matchUser)}
}

func NewUserMemoryRepository() *UserKVRepository {
	return &UserKVRepository{docs: database.NewMemoryHandler(matchUser)}
}

func matchUser(u *domain.UserProfile, filter *domain.UserFilter) bool {
	if filter.ID != nil && u.ID != *filter.ID {
		return false
	}
	if len(filter.IDIn) > 0 && !lo.Contains(filter.IDIn, u.ID) {
		return false
	}
	if filter.Email != nil && u.Email != *filter.Email {
		return false
	}
	if filter.Role != nil && u.Role != *filter.Role {
		return false
	}
	if filter.IsBanned != nil && u.IsBanned() != *filter.IsBanned {
		return false
	}
	if filter.Search != nil {
		term := strings.ToLower(strings.TrimSpace(*filter.Search))
		if term != "" &&
			!strings.Contains(strings.ToLower(u.Email), term) &&
			!strings.Contains(strings.ToLower(u.FullName), term) {
			return false
		}
	}
	return true
}

func newestUserFirst(a, b *domain.UserProfile) int {
	if c := cmp.Compare(b.CreatedAt, a.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

func (r *UserKVRepository) Create(ctx context.Context, user *domain.UserProfile) error {
	return r.docs.Create(ctx, user)
}

func (r *UserKVRepository) FindByID(ctx context.Context, userID string) (*domain.UserProfile, error) {
	return r.docs.FindByID(ctx, userID)
}

func (r *UserKVRepository) FindByEmail(ctx context.Context, email string) (*domain.UserProfile, error) {
	return r.docs.FindOne(ctx, &domain.UserFilter{Email: &email})
}

func (r *UserKVRepository) List(ctx context.Context, filter *domain.UserFilter, option *domain.FindPageOption) ([]*domain.UserProfile, *domain.Pagination, error) {
	users, err := r.docs.FindAll(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	items, pagination := database.Paginate(users, option, newestUserFirst)
	return items, pagination, nil
}

func (r *UserKVRepository) Update(ctx context.Context, user *domain.UserProfile) error {
	return r.docs.Update(ctx, user)
}

func (r *UserKVRepository) UpdateLastLogin(ctx context.Context, userID string, at int64) error {
	user, err := r.docs.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	user.LastLogin = &at
	return r.docs.Update(ctx, user)
}

func (r *UserKVRepository) Count(ctx context.Context, filter *domain.UserFilter) (int64, error) {
	return r.docs.Count(ctx, filter)
}
