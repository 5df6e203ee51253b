package domain

import (
	"context"
	"net/http"
	"regexp"
)

/****************************
*     Permission errors     *
****************************/
var (
	ErrPermissionNotFound = &DetailedError{
		IDField:         "PERMISSION_NOT_FOUND",
		StatusDescField: http.StatusText(http.StatusNotFound),
		ErrorField:      "Permission not found",
		StatusCodeField: http.StatusNotFound,
	}
	ErrPermissionCodeExists = &DetailedError{
		IDField:         "PERMISSION_CODE_EXISTS",
		StatusDescField: http.StatusText(http.StatusConflict),
		ErrorField:      "A permission with this code already exists",
		StatusCodeField: http.StatusConflict,
	}
)

/***************************************
*     Permission entities and types    *
***************************************/

type PermissionModule string

const (
	PermissionModuleCore      PermissionModule = "CORE"
	PermissionModuleSocial    PermissionModule = "SOCIAL"
	PermissionModuleEcommerce PermissionModule = "ECOMMERCE"
	PermissionModuleAdmin     PermissionModule = "ADMIN"
)

func (m PermissionModule) IsValid() bool {
	switch m {
	case PermissionModuleCore, PermissionModuleSocial, PermissionModuleEcommerce, PermissionModuleAdmin:
		return true
	}
	return false
}

// Codes the application itself checks. Everything else is data.
const (
	PermissionAdminAccess       = "admin.access"
	PermissionUsersManage       = "admin.users.manage"
	PermissionRolesManage       = "admin.roles.manage"
	PermissionPermissionsManage = "admin.permissions.manage"
	PermissionAuditView         = "admin.audit.view"
	PermissionAuditDelete       = "admin.audit.delete"
	PermissionServicesManage    = "services.manage"
)

var permissionCodePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*(\.[a-z][a-z0-9_]*)+$`)

// IsValidPermissionCode reports whether code is a lowercase dotted namespace
// with at least two segments.
func IsValidPermissionCode(code string) bool {
	return len(code) <= 100 && permissionCodePattern.MatchString(code)
}

type Permission struct {
	SQLModel
	Code        string           `json:"code" gorm:"type:varchar(100);uniqueIndex;not null"`
	Description string           `json:"description" gorm:"type:text"`
	Module      PermissionModule `json:"module" gorm:"type:varchar(20);not null"`
}

func (Permission) TableName() string {
	return "permissions"
}

type PermissionFilter struct {
	ID     *string           `json:"id,omitempty"`
	Code   *string           `json:"code,omitempty"`
	Codes  []string          `json:"codes,omitempty"`
	Module *PermissionModule `json:"module,omitempty"`
}

// DefaultPermissions is the catalogue seeded on first start.
func DefaultPermissions() []*Permission {
	return []*Permission{
		{Code: PermissionAdminAccess, Module: PermissionModuleAdmin, Description: "Enter the administration area"},
		{Code: PermissionUsersManage, Module: PermissionModuleAdmin, Description: "Change user roles and ban status"},
		{Code: PermissionRolesManage, Module: PermissionModuleAdmin, Description: "Create, edit and delete roles"},
		{Code: PermissionPermissionsManage, Module: PermissionModuleAdmin, Description: "Create, edit and delete permissions"},
		{Code: PermissionAuditView, Module: PermissionModuleAdmin, Description: "Read the audit trail"},
		{Code: PermissionAuditDelete, Module: PermissionModuleAdmin, Description: "Delete audit entries"},
		{Code: PermissionServicesManage, Module: PermissionModuleCore, Description: "Track own bills and subscriptions"},
	}
}

/*******************************************
*  Permission usecase interfaces and types *
*******************************************/
type PermissionUsecase interface {
	GetAll(ctx context.Context) ([]*Permission, error)
	Create(ctx context.Context, req *CreatePermissionRequest) (*Permission, error)
	Update(ctx context.Context, id string, req *UpdatePermissionRequest) (*Permission, error)
	Delete(ctx context.Context, id string) error
}

type CreatePermissionRequest struct {
	Code        string           `json:"code" binding:"required,permission_code"`
	Description string           `json:"description" binding:"max=500"`
	Module      PermissionModule `json:"module" binding:"required,permission_module"`
}

// UpdatePermissionRequest leaves nil fields untouched. Code is immutable.
type UpdatePermissionRequest struct {
	Description *string           `json:"description" binding:"omitempty,max=500"`
	Module      *PermissionModule `json:"module" binding:"omitempty,permission_module"`
}
