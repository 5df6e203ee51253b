package repository

import (
	"cmp"
	"strings"

	"bill-tracker/domain"

	"github.com/samber/lo"
)

func matchRole(role *domain.Role, filter *domain.RoleFilter) bool {
	if filter.ID != nil && role.ID != *filter.ID {
		return false
	}
	if filter.Name != nil && role.Name != *filter.Name {
		return false
	}
	return true
}

func matchPermission(p *domain.Permission, filter *domain.PermissionFilter) bool {
	if filter.ID != nil && p.ID != *filter.ID {
		return false
	}
	if filter.Code != nil && p.Code != *filter.Code {
		return false
	}
	if len(filter.Codes) > 0 && !lo.Contains(filter.Codes, p.Code) {
		return false
	}
	if filter.Module != nil && p.Module != *filter.Module {
		return false
	}
	return true
}

func byRoleName(a, b *domain.Role) int {
	return strings.Compare(string(a.Name), string(b.Name))
}

func byPermissionCode(a, b *domain.Permission) int {
	return cmp.Compare(a.Code, b.Code)
}
