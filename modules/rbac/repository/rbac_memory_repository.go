package repository

import (
	"context"
	"slices"
	"sync"

	"bill-tracker/database"
	"bill-tracker/domain"

	"github.com/samber/lo"
)

// MemoryStore keeps roles, permissions and the links between them behind
// one mutex, so the permission cascade and the role set replacement are
// atomic. Use Roles and Permissions to get the two repositories.
type MemoryStore struct {
	mu          sync.Mutex
	roles       *database.MemoryHandler[domain.Role, domain.RoleFilter]
	permissions *database.MemoryHandler[domain.Permission, domain.PermissionFilter]
	links       map[string]map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		roles:       database.NewMemoryHandler(matchRole),
		permissions: database.NewMemoryHandler(matchPermission),
		links:       make(map[string]map[string]struct{}),
	}
}

func (s *MemoryStore) Roles() *RoleMemoryRepository {
	return &RoleMemoryRepository{store: s}
}

func (s *MemoryStore) Permissions() *PermissionMemoryRepository {
	return &PermissionMemoryRepository{store: s}
}

func (s *MemoryStore) codesOf(roleID string) []string {
	codes := lo.Keys(s.links[roleID])
	slices.Sort(codes)
	return codes
}

func (s *MemoryStore) setCodes(roleID string, codes []string) {
	s.links[roleID] = lo.SliceToMap(codes, func(c string) (string, struct{}) { return c, struct{}{} })
}

type RoleMemoryRepository struct {
	store *MemoryStore
}

func (r *RoleMemoryRepository) withCodes(role *domain.Role) *domain.Role {
	role.PermissionCodes = r.store.codesOf(role.ID)
	return role
}

// save stores the document without its codes; the link map owns them.
func (r *RoleMemoryRepository) save(ctx context.Context, role *domain.Role, write func(context.Context, *domain.Role) error) error {
	codes := domain.NormalizeCodes(role.PermissionCodes)
	role.PermissionCodes = nil
	err := write(ctx, role)
	role.PermissionCodes = codes
	if err != nil {
		return err
	}
	r.store.setCodes(role.ID, codes)
	return nil
}

func (r *RoleMemoryRepository) GetAllWithPermissions(ctx context.Context) ([]*domain.Role, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	roles, err := r.store.roles.FindAll(ctx, nil)
	if err != nil {
		return nil, err
	}
	for _, role := range roles {
		r.withCodes(role)
	}
	slices.SortFunc(roles, byRoleName)
	return roles, nil
}

func (r *RoleMemoryRepository) FindByID(ctx context.Context, id string) (*domain.Role, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	role, err := r.store.roles.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.withCodes(role), nil
}

func (r *RoleMemoryRepository) FindByName(ctx context.Context, name domain.RoleName) (*domain.Role, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	role, err := r.store.roles.FindOne(ctx, &domain.RoleFilter{Name: &name})
	if err != nil {
		return nil, err
	}
	return r.withCodes(role), nil
}

func (r *RoleMemoryRepository) Create(ctx context.Context, role *domain.Role) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.save(ctx, role, r.store.roles.Create)
}

func (r *RoleMemoryRepository) Update(ctx context.Context, role *domain.Role) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.save(ctx, role, r.store.roles.Update)
}

func (r *RoleMemoryRepository) Delete(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.roles.DeleteByID(ctx, id); err != nil {
		return err
	}
	delete(r.store.links, id)
	return nil
}

type PermissionMemoryRepository struct {
	store *MemoryStore
}

func (r *PermissionMemoryRepository) GetAll(ctx context.Context) ([]*domain.Permission, error) {
	items, err := r.store.permissions.FindAll(ctx, nil)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(items, byPermissionCode)
	return items, nil
}

func (r *PermissionMemoryRepository) FindByID(ctx context.Context, id string) (*domain.Permission, error) {
	return r.store.permissions.FindByID(ctx, id)
}

func (r *PermissionMemoryRepository) FindByCode(ctx context.Context, code string) (*domain.Permission, error) {
	return r.store.permissions.FindOne(ctx, &domain.PermissionFilter{Code: &code})
}

func (r *PermissionMemoryRepository) Create(ctx context.Context, permission *domain.Permission) error {
	return r.store.permissions.Create(ctx, permission)
}

func (r *PermissionMemoryRepository) Update(ctx context.Context, permission *domain.Permission) error {
	return r.store.permissions.Update(ctx, permission)
}

// Delete drops the code from every role and then the permission, under the
// store lock.
func (r *PermissionMemoryRepository) Delete(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	permission, err := r.store.permissions.FindByID(ctx, id)
	if err != nil {
		return err
	}
	for _, codes := range r.store.links {
		delete(codes, permission.Code)
	}
	return r.store.permissions.DeleteByID(ctx, id)
}
