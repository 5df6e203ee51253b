package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"bill-tracker/common"
	"bill-tracker/domain"
	"bill-tracker/modules/rbac/repository"
	"bill-tracker/pkg/cache"
	"bill-tracker/pkg/log"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type staticConfig struct{}

func (staticConfig) SnapshotTTL() time.Duration  { return time.Minute }
func (staticConfig) FetchTimeout() time.Duration { return time.Second }

// flakyRoles fails every lookup while down is set and counts calls.
type flakyRoles struct {
	RoleReader
	down  atomic.Bool
	calls atomic.Int32
	gate  chan struct{}
}

func (f *flakyRoles) FindByName(ctx context.Context, name domain.RoleName) (*domain.Role, error) {
	f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	if f.down.Load() {
		return nil, errors.New("connection refused")
	}
	return f.RoleReader.FindByName(ctx, name)
}

type AuthzUsecaseSuite struct {
	suite.Suite
	ctx   context.Context
	store *repository.MemoryStore
	roles *flakyRoles
	cache cache.Client
	authz domain.AuthzUsecase
	user  *domain.UserProfile
}

func TestAuthzUsecaseSuite(t *testing.T) {
	suite.Run(t, new(AuthzUsecaseSuite))
}

func (s *AuthzUsecaseSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = repository.NewMemoryStore()
	for _, p := range domain.DefaultPermissions() {
		s.Require().NoError(s.store.Permissions().Create(s.ctx, p))
	}
	for _, r := range domain.SystemRoles() {
		s.Require().NoError(s.store.Roles().Create(s.ctx, r))
	}
	s.roles = &flakyRoles{RoleReader: s.store.Roles()}
	s.cache = cache.NewMemoryCache(&cache.Config{}, common.NewLoggerAdapter(log.NewNop()))
	s.authz = NewAuthzUsecase(s.roles, s.store.Permissions(), s.cache, staticConfig{}, log.NewNop())
	s.user = &domain.UserProfile{SQLModel: domain.SQLModel{ID: "user-1"}, Role: domain.RoleFreeUser}
}

func (s *AuthzUsecaseSuite) TearDownTest() {
	_ = s.cache.Close()
}

func (s *AuthzUsecaseSuite) addRole(name domain.RoleName, codes ...string) {
	s.Require().NoError(s.store.Roles().Create(s.ctx, &domain.Role{
		Name:            name,
		Label:           string(name),
		PermissionCodes: codes,
	}))
}

func (s *AuthzUsecaseSuite) TestResolve_ConfirmsAndWritesSnapshot() {
	perms := s.authz.Resolve(s.ctx, "sess-1", s.user)
	s.Equal(domain.PermissionStateConfirmed, perms.State())

	var snap domain.PermissionSnapshot
	s.Require().NoError(s.cache.GetJSON(s.ctx, snapshotKey("sess-1", domain.RoleFreeUser), &snap))
	s.Equal(domain.RoleFreeUser, snap.Role)
	s.Equal(perms.Codes(), snap.PermissionCodes)
}

func (s *AuthzUsecaseSuite) TestResolve_AdminHoldsEveryCode() {
	admin := &domain.UserProfile{SQLModel: domain.SQLModel{ID: "admin-1"}, Role: domain.RoleAdmin}
	perms := s.authz.Resolve(s.ctx, "sess-a", admin)

	s.Equal(domain.PermissionStateConfirmed, perms.State())
	s.Len(perms.Codes(), len(domain.DefaultPermissions()))
	s.Contains(perms.Codes(), domain.PermissionAdminAccess)
}

func (s *AuthzUsecaseSuite) TestResolve_MissingRoleIsEmptyConfirmed() {
	ghost := &domain.UserProfile{SQLModel: domain.SQLModel{ID: "user-2"}, Role: "GHOST"}
	perms := s.authz.Resolve(s.ctx, "sess-g", ghost)

	s.Equal(domain.PermissionStateConfirmed, perms.State())
	s.Empty(perms.Codes())
	s.False(s.authz.Check(s.ctx, "sess-g", ghost, domain.PermissionAdminAccess))
}

func (s *AuthzUsecaseSuite) TestResolve_BackendDownKeepsSnapshot() {
	s.addRole("AUDITOR", domain.PermissionAdminAccess, domain.PermissionAuditView)
	auditor := &domain.UserProfile{SQLModel: domain.SQLModel{ID: "user-3"}, Role: "AUDITOR"}

	s.Require().Equal(domain.PermissionStateConfirmed, s.authz.Resolve(s.ctx, "sess-3", auditor).State())

	s.roles.down.Store(true)
	perms := s.authz.Resolve(s.ctx, "sess-3", auditor)
	s.Equal(domain.PermissionStateOptimistic, perms.State())
	s.ElementsMatch([]string{domain.PermissionAdminAccess, domain.PermissionAuditView}, perms.Codes())
	s.Equal(domain.GuardAllow, domain.EvaluateGuard(perms.Subject(), perms.State(), domain.PermissionAuditView))
}

func (s *AuthzUsecaseSuite) TestResolve_BackendDownWithoutSnapshotIsUnresolved() {
	s.roles.down.Store(true)
	perms := s.authz.Resolve(s.ctx, "sess-4", s.user)

	s.Equal(domain.PermissionStateUnresolved, perms.State())
	s.Equal(domain.GuardLoading, domain.EvaluateGuard(perms.Subject(), perms.State(), domain.PermissionAdminAccess))
	s.False(s.authz.Check(s.ctx, "sess-4", s.user, domain.PermissionAdminAccess))
}

func (s *AuthzUsecaseSuite) TestResolve_SnapshotForOtherRoleIgnored() {
	s.Require().NoError(s.cache.SetJSON(s.ctx, snapshotKey("sess-5", domain.RoleFreeUser), &domain.PermissionSnapshot{
		State:           domain.PermissionStateConfirmed,
		Role:            domain.RoleAdmin,
		PermissionCodes: []string{domain.PermissionAdminAccess},
	}, time.Minute))

	s.roles.down.Store(true)
	perms := s.authz.Resolve(s.ctx, "sess-5", s.user)
	s.Equal(domain.PermissionStateUnresolved, perms.State())
}

func (s *AuthzUsecaseSuite) TestInvalidateRole_DropsOnlyThatRole() {
	admin := &domain.UserProfile{SQLModel: domain.SQLModel{ID: "admin-1"}, Role: domain.RoleAdmin}
	s.authz.Resolve(s.ctx, "sess-u", s.user)
	s.authz.Resolve(s.ctx, "sess-a", admin)

	s.Require().NoError(s.authz.InvalidateRole(s.ctx, domain.RoleFreeUser))

	ok, err := s.cache.Exists(s.ctx, snapshotKey("sess-u", domain.RoleFreeUser))
	s.Require().NoError(err)
	s.False(ok)
	ok, err = s.cache.Exists(s.ctx, snapshotKey("sess-a", domain.RoleAdmin))
	s.Require().NoError(err)
	s.True(ok)

	s.Require().NoError(s.authz.InvalidateAll(s.ctx))
	ok, err = s.cache.Exists(s.ctx, snapshotKey("sess-a", domain.RoleAdmin))
	s.Require().NoError(err)
	s.False(ok)
}

func (s *AuthzUsecaseSuite) TestCheck_SuperAdminBypass() {
	root := &domain.UserProfile{SQLModel: domain.SQLModel{ID: "root"}, Role: domain.RoleSuperAdmin}
	s.True(s.authz.Check(s.ctx, "sess-r", root, "anything.at_all"))
	s.False(s.authz.Check(s.ctx, "sess-x", nil, domain.PermissionAdminAccess))
}

func TestAuthzUsecase_ConcurrentResolvesShareOneFetch(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()
	for _, r := range domain.SystemRoles() {
		require.NoError(t, store.Roles().Create(ctx, r))
	}
	roles := &flakyRoles{RoleReader: store.Roles(), gate: make(chan struct{})}
	c := cache.NewMemoryCache(&cache.Config{}, common.NewLoggerAdapter(log.NewNop()))
	t.Cleanup(func() { _ = c.Close() })
	authz := NewAuthzUsecase(roles, store.Permissions(), c, staticConfig{}, log.NewNop())
	user := &domain.UserProfile{SQLModel: domain.SQLModel{ID: "user-1"}, Role: domain.RoleFreeUser}

	const callers = 8
	var wg sync.WaitGroup
	states := make([]domain.PermissionState, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			states[i] = authz.Resolve(ctx, "sess", user).State()
		}(i)
	}

	require.Eventually(t, func() bool { return roles.calls.Load() >= 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(roles.gate)
	wg.Wait()

	assert.LessOrEqual(t, roles.calls.Load(), int32(callers))
	for _, st := range states {
		assert.Equal(t, domain.PermissionStateConfirmed, st)
	}
}

func TestAuthzUsecase_CancelledCallerDoesNotFailFetch(t *testing.T) {
	store := repository.NewMemoryStore()
	for _, r := range domain.SystemRoles() {
		require.NoError(t, store.Roles().Create(context.Background(), r))
	}
	c := cache.NewMemoryCache(&cache.Config{}, common.NewLoggerAdapter(log.NewNop()))
	t.Cleanup(func() { _ = c.Close() })
	authz := NewAuthzUsecase(store.Roles(), store.Permissions(), c, staticConfig{}, log.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	perms := authz.Resolve(ctx, "sess", &domain.UserProfile{SQLModel: domain.SQLModel{ID: "u"}, Role: domain.RoleFreeUser})
	assert.Equal(t, domain.PermissionStateConfirmed, perms.State())
}
