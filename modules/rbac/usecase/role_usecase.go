package usecase

import (
	"context"
	"errors"

	"bill-tracker/domain"
	"bill-tracker/pkg/log"

	"github.com/samber/lo"
)

type roleUsecase struct {
	repo        RoleRepository
	permissions PermissionRepository
	audit       AuditLogger
	snapshots   SnapshotInvalidator
	validator   Validator
	policy      *domain.ProtectionPolicy
	logger      log.Logger
}

func NewRoleUsecase(
	repo RoleRepository,
	permissions PermissionRepository,
	audit AuditLogger,
	snapshots SnapshotInvalidator,
	validator Validator,
	logger log.Logger,
) domain.RoleUsecase {
	return &roleUsecase{
		repo:        repo,
		permissions: permissions,
		audit:       audit,
		snapshots:   snapshots,
		validator:   validator,
		policy:      domain.DefaultProtectionPolicy,
		logger:      logger,
	}
}

func (u *roleUsecase) GetAllWithPermissions(ctx context.Context) ([]*domain.Role, error) {
	roles, err := u.repo.GetAllWithPermissions(ctx)
	if err != nil {
		return nil, domain.BackendError(err, nil)
	}
	return roles, nil
}

// checkCodesExist rejects codes that name no permission.
func (u *roleUsecase) checkCodesExist(ctx context.Context, codes []string) error {
	if len(codes) == 0 {
		return nil
	}
	all, err := u.permissions.GetAll(ctx)
	if err != nil {
		return domain.BackendError(err, nil)
	}
	known := lo.Map(all, func(p *domain.Permission, _ int) string { return p.Code })
	if unknown := lo.Without(codes, known...); len(unknown) > 0 {
		return domain.ErrUnknownPermissionCodes.WithDetail("codes", unknown)
	}
	return nil
}

func (u *roleUsecase) Create(ctx context.Context, req *domain.CreateRoleRequest) (*domain.Role, error) {
	if err := u.validator.Validate(req); err != nil {
		return nil, err
	}

	existing, err := u.repo.FindByName(ctx, req.Name)
	if err != nil && !errors.Is(err, domain.ErrRecordNotFound) {
		return nil, domain.BackendError(err, nil)
	}
	if existing != nil {
		return nil, domain.ErrRoleNameExists.WithDetail("name", req.Name)
	}

	codes := domain.NormalizeCodes(req.PermissionCodes)
	if err := u.checkCodesExist(ctx, codes); err != nil {
		return nil, err
	}

	role := &domain.Role{
		Name:            req.Name,
		Label:           req.Label,
		Description:     req.Description,
		PermissionCodes: codes,
	}
	if err := u.repo.Create(ctx, role); err != nil {
		return nil, domain.BackendError(err, nil)
	}

	logEvent(ctx, u.audit, domain.AuditActionRoleCreated, role.ID, map[string]any{
		"name":             role.Name,
		"permission_codes": role.PermissionCodes,
	})
	return role, nil
}

func (u *roleUsecase) Update(ctx context.Context, id string, req *domain.UpdateRoleRequest) (*domain.Role, error) {
	if err := u.validator.Validate(req); err != nil {
		return nil, err
	}

	role, err := u.repo.FindByID(ctx, id)
	if err != nil {
		return nil, domain.BackendError(err, domain.ErrRoleNotFound)
	}

	var changed []string
	if req.Label != nil && *req.Label != role.Label {
		changed = append(changed, domain.FieldLabel)
	}
	if req.Description != nil && *req.Description != role.Description {
		changed = append(changed, domain.FieldDescription)
	}
	codesChanged := req.PermissionCodes != nil && !domain.SameCodeSet(*req.PermissionCodes, role.PermissionCodes)
	if codesChanged {
		changed = append(changed, domain.FieldPermissionCodes)
	}
	if err := u.policy.CheckEdit(domain.ProtectedKindRole, string(role.Name), changed...); err != nil {
		return nil, err
	}
	if len(changed) == 0 {
		return role, nil
	}

	if req.Label != nil {
		role.Label = *req.Label
	}
	if req.Description != nil {
		role.Description = *req.Description
	}
	if codesChanged {
		codes := domain.NormalizeCodes(*req.PermissionCodes)
		if err := u.checkCodesExist(ctx, codes); err != nil {
			return nil, err
		}
		role.PermissionCodes = codes
	}
	if err := u.repo.Update(ctx, role); err != nil {
		return nil, domain.BackendError(err, domain.ErrRoleNotFound)
	}

	if codesChanged {
		u.invalidate(ctx, role.Name)
	}
	logEvent(ctx, u.audit, domain.AuditActionRoleUpdated, role.ID, map[string]any{
		"name":    role.Name,
		"changed": changed,
	})
	return role, nil
}

func (u *roleUsecase) Delete(ctx context.Context, id string) error {
	role, err := u.repo.FindByID(ctx, id)
	if err != nil {
		return domain.BackendError(err, domain.ErrRoleNotFound)
	}
	if err := u.policy.CheckDelete(domain.ProtectedKindRole, string(role.Name)); err != nil {
		return err
	}
	if err := u.repo.Delete(ctx, id); err != nil {
		return domain.BackendError(err, domain.ErrRoleNotFound)
	}

	u.invalidate(ctx, role.Name)
	logEvent(ctx, u.audit, domain.AuditActionRoleDeleted, role.ID, map[string]any{
		"name": role.Name,
	})
	return nil
}

func (u *roleUsecase) invalidate(ctx context.Context, name domain.RoleName) {
	if err := u.snapshots.InvalidateRole(ctx, name); err != nil {
		u.logger.WarnContext(ctx, "role snapshot invalidation failed",
			log.String("role", string(name)), log.Error(err))
	}
}
