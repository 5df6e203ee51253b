package usecase

import (
	"context"
	"errors"
	"time"

	"bill-tracker/domain"
	"bill-tracker/pkg/cache"
	"bill-tracker/pkg/log"

	"github.com/samber/lo"
	"golang.org/x/sync/singleflight"
)

type RoleReader interface {
	FindByName(ctx context.Context, name domain.RoleName) (*domain.Role, error)
}

type PermissionLister interface {
	GetAll(ctx context.Context) ([]*domain.Permission, error)
}

type Config interface {
	SnapshotTTL() time.Duration
	FetchTimeout() time.Duration
}

type authzUsecase struct {
	roles       RoleReader
	permissions PermissionLister
	cache       cache.Client
	cfg         Config
	logger      log.Logger
	fetches     singleflight.Group
}

func NewAuthzUsecase(
	roles RoleReader,
	permissions PermissionLister,
	cacheClient cache.Client,
	cfg Config,
	logger log.Logger,
) domain.AuthzUsecase {
	return &authzUsecase{
		roles:       roles,
		permissions: permissions,
		cache:       cacheClient,
		cfg:         cfg,
		logger:      logger,
	}
}

func snapshotKey(sessionID string, role domain.RoleName) string {
	return cache.Key("authz", "session", sessionID, string(role))
}

// Resolve seeds the state from the session's cached snapshot, then
// confirms it against the role store. When the store fails the optimistic
// state is kept; with no snapshot either the state stays unresolved.
func (u *authzUsecase) Resolve(ctx context.Context, sessionID string, user *domain.UserProfile) *domain.SessionPermissions {
	if user == nil {
		return domain.NewSessionPermissions("", "")
	}
	perms := domain.NewSessionPermissions(user.ID, user.Role)
	key := snapshotKey(sessionID, user.Role)

	var snap domain.PermissionSnapshot
	switch err := u.cache.GetJSON(ctx, key, &snap); {
	case err == nil && snap.Role == user.Role:
		perms.ApplySnapshot(snap.PermissionCodes)
	case err != nil && !errors.Is(err, cache.ErrKeyNotFound):
		u.logger.WarnContext(ctx, "permission snapshot read failed", log.SessionID(sessionID), log.Error(err))
	}

	codes, err := u.fetch(ctx, user.Role)
	if err != nil {
		u.logger.WarnContext(ctx, "authoritative permission fetch failed",
			log.String("role", string(user.Role)),
			log.String("state", string(perms.State())),
			log.Error(err),
		)
		return perms
	}
	perms.Confirm(codes)

	if err := u.cache.SetJSON(ctx, key, perms.Snapshot(), u.cfg.SnapshotTTL()); err != nil {
		u.logger.WarnContext(ctx, "permission snapshot write failed", log.SessionID(sessionID), log.Error(err))
	}
	return perms
}

// fetch collapses concurrent lookups of the same role. The lookup runs on a
// context detached from the first caller so its cancellation cannot fail
// the others.
func (u *authzUsecase) fetch(ctx context.Context, role domain.RoleName) ([]string, error) {
	v, err, _ := u.fetches.Do(string(role), func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), u.cfg.FetchTimeout())
		defer cancel()
		return u.effectiveCodes(fctx, role)
	})
	if err != nil {
		return nil, err
	}
	return append([]string(nil), v.([]string)...), nil
}

// effectiveCodes gives SUPER_ADMIN and ADMIN every existing code. A role
// that no longer exists holds nothing.
func (u *authzUsecase) effectiveCodes(ctx context.Context, role domain.RoleName) ([]string, error) {
	if role == domain.RoleSuperAdmin || role == domain.RoleAdmin {
		all, err := u.permissions.GetAll(ctx)
		if err != nil {
			return nil, err
		}
		return lo.Map(all, func(p *domain.Permission, _ int) string { return p.Code }), nil
	}

	r, err := u.roles.FindByName(ctx, role)
	if errors.Is(err, domain.ErrRecordNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	return r.PermissionCodes, nil
}

func (u *authzUsecase) Check(ctx context.Context, sessionID string, user *domain.UserProfile, code string) bool {
	if user == nil {
		return false
	}
	perms := u.Resolve(ctx, sessionID, user)
	if perms.State() == domain.PermissionStateUnresolved {
		return false
	}
	return domain.CheckPermission(perms.Subject(), code)
}

func (u *authzUsecase) Snapshot(ctx context.Context, sessionID string, user *domain.UserProfile) *domain.PermissionSnapshot {
	return u.Resolve(ctx, sessionID, user).Snapshot()
}

func (u *authzUsecase) InvalidateRole(ctx context.Context, role domain.RoleName) error {
	u.fetches.Forget(string(role))
	_, err := u.cache.DeletePattern(ctx, snapshotKey("*", role))
	return err
}

func (u *authzUsecase) InvalidateAll(ctx context.Context) error {
	_, err := u.cache.DeletePattern(ctx, cache.Key("authz", "session", "*"))
	return err
}
