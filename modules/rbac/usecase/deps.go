package usecase

import (
	"context"

	"bill-tracker/domain"
)

type RoleRepository interface {
	GetAllWithPermissions(ctx context.Context) ([]*domain.Role, error)
	FindByID(ctx context.Context, id string) (*domain.Role, error)
	FindByName(ctx context.Context, name domain.RoleName) (*domain.Role, error)
	Create(ctx context.Context, role *domain.Role) error
	Update(ctx context.Context, role *domain.Role) error
	Delete(ctx context.Context, id string) error
}

type PermissionRepository interface {
	GetAll(ctx context.Context) ([]*domain.Permission, error)
	FindByID(ctx context.Context, id string) (*domain.Permission, error)
	FindByCode(ctx context.Context, code string) (*domain.Permission, error)
	Create(ctx context.Context, permission *domain.Permission) error
	Update(ctx context.Context, permission *domain.Permission) error
	Delete(ctx context.Context, id string) error
}

type AuditLogger interface {
	LogEvent(ctx context.Context, userID, userEmail string, action domain.AuditAction, metadata map[string]any)
}

// SnapshotInvalidator drops cached session permission snapshots.
type SnapshotInvalidator interface {
	InvalidateRole(ctx context.Context, role domain.RoleName) error
	InvalidateAll(ctx context.Context) error
}

type Validator interface {
	Validate(obj any) error
}

// logEvent records action on behalf of the caller found in ctx.
func logEvent(ctx context.Context, audit AuditLogger, action domain.AuditAction, targetID string, metadata map[string]any) {
	actor, _ := domain.ActorFromContext(ctx)
	if metadata == nil {
		metadata = map[string]any{}
	}
	if targetID != "" {
		metadata[domain.AuditMetaTargetID] = targetID
	}
	audit.LogEvent(ctx, actor.UserID, actor.Email, action, metadata)
}
