package repository

import (
	"context"
	"testing"

	"bill-tracker/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type roleRepo interface {
	GetAllWithPermissions(ctx context.Context) ([]*domain.Role, error)
	FindByID(ctx context.Context, id string) (*domain.Role, error)
	FindByName(ctx context.Context, name domain.RoleName) (*domain.Role, error)
	Create(ctx context.Context, role *domain.Role) error
	Update(ctx context.Context, role *domain.Role) error
	Delete(ctx context.Context, id string) error
}

type permissionRepo interface {
	GetAll(ctx context.Context) ([]*domain.Permission, error)
	FindByID(ctx context.Context, id string) (*domain.Permission, error)
	FindByCode(ctx context.Context, code string) (*domain.Permission, error)
	Create(ctx context.Context, permission *domain.Permission) error
	Update(ctx context.Context, permission *domain.Permission) error
	Delete(ctx context.Context, id string) error
}

// RBACRepositorySuite holds the contract every backend must satisfy.
type RBACRepositorySuite struct {
	suite.Suite
	newRepos func(t *testing.T) (roleRepo, permissionRepo)

	roles       roleRepo
	permissions permissionRepo
	ctx         context.Context
}

func (s *RBACRepositorySuite) SetupTest() {
	s.ctx = context.Background()
	s.roles, s.permissions = s.newRepos(s.T())
}

func (s *RBACRepositorySuite) seedPermissions(codes ...string) map[string]*domain.Permission {
	out := make(map[string]*domain.Permission, len(codes))
	for _, code := range codes {
		p := &domain.Permission{Code: code, Module: domain.PermissionModuleAdmin}
		s.Require().NoError(s.permissions.Create(s.ctx, p))
		out[code] = p
	}
	return out
}

func (s *RBACRepositorySuite) TestCreateRoleRoundTrip() {
	s.seedPermissions("admin.audit.view", "admin.access")

	role := &domain.Role{
		Name:            "AUDITOR",
		Label:           "Auditor",
		PermissionCodes: []string{"admin.audit.view", "admin.access", "admin.audit.view"},
	}
	s.Require().NoError(s.roles.Create(s.ctx, role))
	s.NotEmpty(role.ID)

	got, err := s.roles.FindByName(s.ctx, "AUDITOR")
	s.Require().NoError(err)
	s.Equal(role.ID, got.ID)
	s.Equal("Auditor", got.Label)
	s.Equal([]string{"admin.access", "admin.audit.view"}, got.PermissionCodes)

	byID, err := s.roles.FindByID(s.ctx, role.ID)
	s.Require().NoError(err)
	s.Equal(got.PermissionCodes, byID.PermissionCodes)
}

func (s *RBACRepositorySuite) TestGetAllOrderedByName() {
	for _, name := range []domain.RoleName{"ZETA", "ALPHA", "MIDDLE"} {
		s.Require().NoError(s.roles.Create(s.ctx, &domain.Role{Name: name, Label: string(name)}))
	}

	roles, err := s.roles.GetAllWithPermissions(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(roles, 3)
	s.Equal(domain.RoleName("ALPHA"), roles[0].Name)
	s.Equal(domain.RoleName("MIDDLE"), roles[1].Name)
	s.Equal(domain.RoleName("ZETA"), roles[2].Name)
	s.Empty(roles[0].PermissionCodes)
}

func (s *RBACRepositorySuite) TestUpdateReplacesWholeSet() {
	s.seedPermissions("a.one", "a.two", "a.three")
	role := &domain.Role{Name: "EDITOR", Label: "Editor", PermissionCodes: []string{"a.one", "a.two"}}
	s.Require().NoError(s.roles.Create(s.ctx, role))

	role.Label = "Chief editor"
	role.PermissionCodes = []string{"a.three"}
	s.Require().NoError(s.roles.Update(s.ctx, role))

	got, err := s.roles.FindByID(s.ctx, role.ID)
	s.Require().NoError(err)
	s.Equal("Chief editor", got.Label)
	s.Equal([]string{"a.three"}, got.PermissionCodes)
}

func (s *RBACRepositorySuite) TestUpdateMissingRole() {
	err := s.roles.Update(s.ctx, &domain.Role{SQLModel: domain.SQLModel{ID: domain.NewID()}, Name: "GHOST"})
	s.ErrorIs(err, domain.ErrRecordNotFound)
}

func (s *RBACRepositorySuite) TestDeleteRole() {
	role := &domain.Role{Name: "TEMP", Label: "Temp"}
	s.Require().NoError(s.roles.Create(s.ctx, role))
	s.Require().NoError(s.roles.Delete(s.ctx, role.ID))

	_, err := s.roles.FindByID(s.ctx, role.ID)
	s.ErrorIs(err, domain.ErrRecordNotFound)
	s.ErrorIs(s.roles.Delete(s.ctx, role.ID), domain.ErrRecordNotFound)
}

func (s *RBACRepositorySuite) TestPermissionDeleteCascades() {
	perms := s.seedPermissions("x.keep", "x.drop")
	a := &domain.Role{Name: "A", Label: "A", PermissionCodes: []string{"x.keep", "x.drop"}}
	b := &domain.Role{Name: "B", Label: "B", PermissionCodes: []string{"x.drop"}}
	s.Require().NoError(s.roles.Create(s.ctx, a))
	s.Require().NoError(s.roles.Create(s.ctx, b))

	s.Require().NoError(s.permissions.Delete(s.ctx, perms["x.drop"].ID))

	gotA, err := s.roles.FindByID(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Equal([]string{"x.keep"}, gotA.PermissionCodes)

	gotB, err := s.roles.FindByID(s.ctx, b.ID)
	s.Require().NoError(err)
	s.Empty(gotB.PermissionCodes)

	_, err = s.permissions.FindByCode(s.ctx, "x.drop")
	s.ErrorIs(err, domain.ErrRecordNotFound)
}

func (s *RBACRepositorySuite) TestPermissionCRUD() {
	p := &domain.Permission{Code: "core.notes.read", Module: domain.PermissionModuleCore, Description: "old"}
	s.Require().NoError(s.permissions.Create(s.ctx, p))

	p.Description = "new"
	p.Module = domain.PermissionModuleSocial
	s.Require().NoError(s.permissions.Update(s.ctx, p))

	got, err := s.permissions.FindByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal("new", got.Description)
	s.Equal(domain.PermissionModuleSocial, got.Module)
	s.Equal("core.notes.read", got.Code)

	s.seedPermissions("admin.access")
	all, err := s.permissions.GetAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal("admin.access", all[0].Code)

	s.ErrorIs(s.permissions.Delete(s.ctx, domain.NewID()), domain.ErrRecordNotFound)
}

func TestRBACRepository_Memory(t *testing.T) {
	suite.Run(t, &RBACRepositorySuite{
		newRepos: func(*testing.T) (roleRepo, permissionRepo) {
			store := NewMemoryStore()
			return store.Roles(), store.Permissions()
		},
	})
}

func TestRBACRepository_Redis(t *testing.T) {
	suite.Run(t, &RBACRepositorySuite{
		newRepos: func(t *testing.T) (roleRepo, permissionRepo) {
			mr := miniredis.RunT(t)
			client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { _ = client.Close() })
			return NewRoleRedisRepository(client, "test"), NewPermissionRedisRepository(client, "test")
		},
	})
}

func TestRoleRedisRepository_KeyLayout(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := NewRoleRedisRepository(client, "bt")
	role := &domain.Role{Name: "AUDITOR", Label: "Auditor", PermissionCodes: []string{"admin.audit.view"}}
	require.NoError(t, repo.Create(context.Background(), role))

	require.True(t, mr.Exists("bt:roles:"+role.ID))
	members, err := mr.Members("bt:roles:" + role.ID + ":permissions")
	require.NoError(t, err)
	require.Equal(t, []string{"admin.audit.view"}, members)
}
