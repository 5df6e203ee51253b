package repository

import (
	"context"
	"slices"

	"bill-tracker/database"
	"bill-tracker/domain"

	"github.com/redis/go-redis/v9"
)

const (
	rolesCollection       = "roles"
	permissionsCollection = "permissions"
)

// Role documents live at <prefix>:roles:<id> and their permission codes in
// a SET at <prefix>:roles:<id>:permissions. Existence checks run before
// MULTI without WATCH, so a concurrent writer can interleave and the last
// write wins.
type RoleRedisRepository struct {
	docs *database.RedisHandler[domain.Role, domain.RoleFilter]
}

func NewRoleRedisRepository(client *redis.Client, prefix string) *RoleRedisRepository {
	return &RoleRedisRepository{
		docs: database.NewRedisHandler(client, prefix, rolesCollection, matchRole),
	}
}

func rolePermissionsKey(docs *database.RedisHandler[domain.Role, domain.RoleFilter], roleID string) string {
	return docs.Key(roleID) + ":permissions"
}

func (r *RoleRedisRepository) attachCodes(ctx context.Context, roles ...*domain.Role) error {
	if len(roles) == 0 {
		return nil
	}
	cmds := make([]*redis.StringSliceCmd, len(roles))
	_, err := r.docs.Client().Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, role := range roles {
			cmds[i] = pipe.SMembers(ctx, rolePermissionsKey(r.docs, role.ID))
		}
		return nil
	})
	if err != nil {
		return err
	}
	for i, role := range roles {
		codes := cmds[i].Val()
		slices.Sort(codes)
		role.PermissionCodes = codes
	}
	return nil
}

func (r *RoleRedisRepository) GetAllWithPermissions(ctx context.Context) ([]*domain.Role, error) {
	roles, err := r.docs.FindAll(ctx, nil)
	if err != nil {
		return nil, err
	}
	if err := r.attachCodes(ctx, roles...); err != nil {
		return nil, err
	}
	slices.SortFunc(roles, byRoleName)
	return roles, nil
}

func (r *RoleRedisRepository) FindByID(ctx context.Context, id string) (*domain.Role, error) {
	role, err := r.docs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return role, r.attachCodes(ctx, role)
}

func (r *RoleRedisRepository) FindByName(ctx context.Context, name domain.RoleName) (*domain.Role, error) {
	role, err := r.docs.FindOne(ctx, &domain.RoleFilter{Name: &name})
	if err != nil {
		return nil, err
	}
	return role, r.attachCodes(ctx, role)
}

// save writes the document and replaces the code set in one MULTI.
func (r *RoleRedisRepository) save(ctx context.Context, role *domain.Role) error {
	if role.ID == "" {
		role.ID = domain.NewID()
	}
	codes := domain.NormalizeCodes(role.PermissionCodes)
	role.PermissionCodes = nil
	defer func() { role.PermissionCodes = codes }()

	return r.docs.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if err := r.docs.QueueSave(ctx, pipe, role); err != nil {
			return err
		}
		key := rolePermissionsKey(r.docs, role.ID)
		pipe.Del(ctx, key)
		if len(codes) > 0 {
			pipe.SAdd(ctx, key, toMembers(codes)...)
		}
		return nil
	})
}

func (r *RoleRedisRepository) Create(ctx context.Context, role *domain.Role) error {
	return r.save(ctx, role)
}

func (r *RoleRedisRepository) Update(ctx context.Context, role *domain.Role) error {
	if _, err := r.docs.FindByID(ctx, role.ID); err != nil {
		return err
	}
	return r.save(ctx, role)
}

func (r *RoleRedisRepository) Delete(ctx context.Context, id string) error {
	var del *redis.IntCmd
	err := r.docs.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = r.docs.QueueDelete(ctx, pipe, id)
		pipe.Del(ctx, rolePermissionsKey(r.docs, id))
		return nil
	})
	if err != nil {
		return err
	}
	if del.Val() == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

type PermissionRedisRepository struct {
	docs  *database.RedisHandler[domain.Permission, domain.PermissionFilter]
	roles *database.RedisHandler[domain.Role, domain.RoleFilter]
}

func NewPermissionRedisRepository(client *redis.Client, prefix string) *PermissionRedisRepository {
	return &PermissionRedisRepository{
		docs:  database.NewRedisHandler(client, prefix, permissionsCollection, matchPermission),
		roles: database.NewRedisHandler(client, prefix, rolesCollection, matchRole),
	}
}

func (r *PermissionRedisRepository) GetAll(ctx context.Context) ([]*domain.Permission, error) {
	items, err := r.docs.FindAll(ctx, nil)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(items, byPermissionCode)
	return items, nil
}

func (r *PermissionRedisRepository) FindByID(ctx context.Context, id string) (*domain.Permission, error) {
	return r.docs.FindByID(ctx, id)
}

func (r *PermissionRedisRepository) FindByCode(ctx context.Context, code string) (*domain.Permission, error) {
	return r.docs.FindOne(ctx, &domain.PermissionFilter{Code: &code})
}

func (r *PermissionRedisRepository) Create(ctx context.Context, permission *domain.Permission) error {
	return r.docs.Create(ctx, permission)
}

func (r *PermissionRedisRepository) Update(ctx context.Context, permission *domain.Permission) error {
	return r.docs.Update(ctx, permission)
}

// Delete SREMs the code from every role set and removes the document in a
// single MULTI.
func (r *PermissionRedisRepository) Delete(ctx context.Context, id string) error {
	permission, err := r.docs.FindByID(ctx, id)
	if err != nil {
		return err
	}
	roles, err := r.roles.FindAll(ctx, nil)
	if err != nil {
		return err
	}
	return r.docs.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, role := range roles {
			pipe.SRem(ctx, rolePermissionsKey(r.roles, role.ID), permission.Code)
		}
		r.docs.QueueDelete(ctx, pipe, id)
		return nil
	})
}

func toMembers(codes []string) []any {
	members := make([]any, len(codes))
	for i, c := range codes {
		members[i] = c
	}
	return members
}
