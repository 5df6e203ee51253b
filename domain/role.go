package domain

import (
	"context"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/samber/lo"
)

/****************************
*        Role errors        *
****************************/
var (
	ErrRoleNotFound = &DetailedError{
		IDField:         "ROLE_NOT_FOUND",
		StatusDescField: http.StatusText(http.StatusNotFound),
		ErrorField:      "Role not found",
		StatusCodeField: http.StatusNotFound,
	}
	ErrRoleNameExists = &DetailedError{
		IDField:         "ROLE_NAME_EXISTS",
		StatusDescField: http.StatusText(http.StatusConflict),
		ErrorField:      "A role with this name already exists",
		StatusCodeField: http.StatusConflict,
	}
	ErrUnknownPermissionCodes = &DetailedError{
		IDField:         "UNKNOWN_PERMISSION_CODES",
		StatusDescField: http.StatusText(http.StatusBadRequest),
		ErrorField:      "One or more permission codes do not exist",
		StatusCodeField: http.StatusBadRequest,
	}
)

/***************************************
*       Role entities and types        *
***************************************/

type RoleName string

const (
	RoleSuperAdmin RoleName = "SUPER_ADMIN"
	RoleAdmin      RoleName = "ADMIN"
	RoleFreeUser   RoleName = "FREE_USER"
)

var roleNamePattern = regexp.MustCompile(`^[A-Z][A-Z0-9]*(_[A-Z0-9]+)*$`)

func IsValidRoleName(name string) bool {
	return len(name) <= 50 && roleNamePattern.MatchString(name)
}

func (r RoleName) IsSystem() bool {
	return r == RoleSuperAdmin || r == RoleAdmin || r == RoleFreeUser
}

func (r RoleName) String() string {
	return string(r)
}

type Role struct {
	SQLModel
	Name            RoleName `json:"name" gorm:"type:varchar(50);uniqueIndex;not null"`
	Label           string   `json:"label" gorm:"type:varchar(100);not null"`
	Description     string   `json:"description" gorm:"type:text"`
	IsSystemRole    bool     `json:"is_system_role" gorm:"not null;default:false"`
	PermissionCodes []string `json:"permission_codes" gorm:"-"`
}

func (Role) TableName() string {
	return "roles"
}

// RolePermission joins roles to permissions by code.
type RolePermission struct {
	RoleID         string `json:"role_id" gorm:"type:varchar(36);primaryKey"`
	PermissionCode string `json:"permission_code" gorm:"type:varchar(100);primaryKey;index"`
}

func (RolePermission) TableName() string {
	return "role_permissions"
}

type RoleFilter struct {
	ID   *string   `json:"id,omitempty"`
	Name *RoleName `json:"name,omitempty"`
}

// NormalizeCodes returns codes as a sorted set.
func NormalizeCodes(codes []string) []string {
	out := lo.Uniq(lo.FilterMap(codes, func(c string, _ int) (string, bool) {
		c = strings.TrimSpace(c)
		return c, c != ""
	}))
	sort.Strings(out)
	return out
}

// SameCodeSet compares two code lists as sets.
func SameCodeSet(a, b []string) bool {
	na, nb := NormalizeCodes(a), NormalizeCodes(b)
	if len(na) != len(nb) {
		return false
	}
	for i := range na {
		if na[i] != nb[i] {
			return false
		}
	}
	return true
}

// SystemRoles is seeded on first start. ADMIN's stored set is informational;
// its effective set is every existing code.
func SystemRoles() []*Role {
	return []*Role{
		{
			Name:         RoleSuperAdmin,
			Label:        "Super administrator",
			Description:  "Bypasses every permission check",
			IsSystemRole: true,
		},
		{
			Name:            RoleAdmin,
			Label:           "Administrator",
			Description:     "Holds every permission",
			IsSystemRole:    true,
			PermissionCodes: lo.Map(DefaultPermissions(), func(p *Permission, _ int) string { return p.Code }),
		},
		{
			Name:            RoleFreeUser,
			Label:           "Free user",
			Description:     "Default role for self-registered accounts",
			IsSystemRole:    true,
			PermissionCodes: []string{PermissionServicesManage},
		},
	}
}

/*************************************
*  Role usecase interfaces and types *
**************************************/
type RoleUsecase interface {
	GetAllWithPermissions(ctx context.Context) ([]*Role, error)
	Create(ctx context.Context, req *CreateRoleRequest) (*Role, error)
	Update(ctx context.Context, id string, req *UpdateRoleRequest) (*Role, error)
	Delete(ctx context.Context, id string) error
}

type CreateRoleRequest struct {
	Name            RoleName `json:"name" binding:"required,role_name"`
	Label           string   `json:"label" binding:"required,not_empty,max=100"`
	Description     string   `json:"description" binding:"max=500"`
	PermissionCodes []string `json:"permission_codes" binding:"omitempty,dive,permission_code"`
}

// UpdateRoleRequest leaves nil fields untouched. A non-nil PermissionCodes
// replaces the whole set.
type UpdateRoleRequest struct {
	Label           *string   `json:"label" binding:"omitempty,not_empty,max=100"`
	Description     *string   `json:"description" binding:"omitempty,max=500"`
	PermissionCodes *[]string `json:"permission_codes" binding:"omitempty,dive,permission_code"`
}
