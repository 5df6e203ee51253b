package usecase

import (
	"context"
	"errors"

	"bill-tracker/domain"
	"bill-tracker/pkg/log"
)

type permissionUsecase struct {
	repo      PermissionRepository
	audit     AuditLogger
	snapshots SnapshotInvalidator
	validator Validator
	policy    *domain.ProtectionPolicy
	logger    log.Logger
}

func NewPermissionUsecase(
	repo PermissionRepository,
	audit AuditLogger,
	snapshots SnapshotInvalidator,
	validator Validator,
	logger log.Logger,
) domain.PermissionUsecase {
	return &permissionUsecase{
		repo:      repo,
		audit:     audit,
		snapshots: snapshots,
		validator: validator,
		policy:    domain.DefaultProtectionPolicy,
		logger:    logger,
	}
}

func (u *permissionUsecase) GetAll(ctx context.Context) ([]*domain.Permission, error) {
	permissions, err := u.repo.GetAll(ctx)
	if err != nil {
		return nil, domain.BackendError(err, nil)
	}
	return permissions, nil
}

func (u *permissionUsecase) Create(ctx context.Context, req *domain.CreatePermissionRequest) (*domain.Permission, error) {
	if err := u.validator.Validate(req); err != nil {
		return nil, err
	}

	existing, err := u.repo.FindByCode(ctx, req.Code)
	if err != nil && !errors.Is(err, domain.ErrRecordNotFound) {
		return nil, domain.BackendError(err, nil)
	}
	if existing != nil {
		return nil, domain.ErrPermissionCodeExists.WithDetail("code", req.Code)
	}

	permission := &domain.Permission{
		Code:        req.Code,
		Description: req.Description,
		Module:      req.Module,
	}
	if err := u.repo.Create(ctx, permission); err != nil {
		return nil, domain.BackendError(err, nil)
	}

	// ADMIN resolves to every code, so its snapshots just went stale.
	u.invalidate(ctx, func() error { return u.snapshots.InvalidateRole(ctx, domain.RoleAdmin) })
	logEvent(ctx, u.audit, domain.AuditActionPermissionCreated, permission.ID, map[string]any{
		"code":   permission.Code,
		"module": permission.Module,
	})
	return permission, nil
}

func (u *permissionUsecase) Update(ctx context.Context, id string, req *domain.UpdatePermissionRequest) (*domain.Permission, error) {
	if err := u.validator.Validate(req); err != nil {
		return nil, err
	}

	permission, err := u.repo.FindByID(ctx, id)
	if err != nil {
		return nil, domain.BackendError(err, domain.ErrPermissionNotFound)
	}

	var changed []string
	if req.Description != nil && *req.Description != permission.Description {
		changed = append(changed, domain.FieldDescription)
	}
	if req.Module != nil && *req.Module != permission.Module {
		changed = append(changed, domain.FieldModule)
	}
	if err := u.policy.CheckEdit(domain.ProtectedKindPermission, permission.Code, changed...); err != nil {
		return nil, err
	}
	if len(changed) == 0 {
		return permission, nil
	}

	if req.Description != nil {
		permission.Description = *req.Description
	}
	if req.Module != nil {
		permission.Module = *req.Module
	}
	if err := u.repo.Update(ctx, permission); err != nil {
		return nil, domain.BackendError(err, domain.ErrPermissionNotFound)
	}

	logEvent(ctx, u.audit, domain.AuditActionPermissionUpdated, permission.ID, map[string]any{
		"code":    permission.Code,
		"changed": changed,
	})
	return permission, nil
}

// Delete cascades the code out of every role, so all cached snapshots are
// dropped afterwards.
func (u *permissionUsecase) Delete(ctx context.Context, id string) error {
	permission, err := u.repo.FindByID(ctx, id)
	if err != nil {
		return domain.BackendError(err, domain.ErrPermissionNotFound)
	}
	if err := u.policy.CheckDelete(domain.ProtectedKindPermission, permission.Code); err != nil {
		return err
	}
	if err := u.repo.Delete(ctx, id); err != nil {
		return domain.BackendError(err, domain.ErrPermissionNotFound)
	}

	u.invalidate(ctx, func() error { return u.snapshots.InvalidateAll(ctx) })
	logEvent(ctx, u.audit, domain.AuditActionPermissionDeleted, permission.ID, map[string]any{
		"code": permission.Code,
	})
	return nil
}

// invalidate runs after the write has committed; a failure only leaves
// snapshots stale until their TTL, so it is logged rather than returned.
func (u *permissionUsecase) invalidate(ctx context.Context, fn func() error) {
	if err := fn(); err != nil {
		u.logger.WarnContext(ctx, "permission snapshot invalidation failed", log.Error(err))
	}
}
