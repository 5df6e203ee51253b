package domain

import (
	"github.com/samber/lo"
)

type ProtectedKind string

const (
	ProtectedKindRole       ProtectedKind = "role"
	ProtectedKindPermission ProtectedKind = "permission"
	ProtectedKindUser       ProtectedKind = "user"
	ProtectedKindDefinition ProtectedKind = "definition"
)

// ProtectedAccountKey and SystemDefinitionKey are table keys that stand for
// a flag on the record rather than a concrete name.
const (
	ProtectedAccountKey = "protected_account"
	SystemDefinitionKey = "system_definition"
)

// Field names used in edit checks.
const (
	FieldLabel           = "label"
	FieldDescription     = "description"
	FieldPermissionCodes = "permission_codes"
	FieldModule          = "module"
	FieldRole            = "role"
	FieldStatus          = "status"
	FieldFullName        = "full_name"
	FieldAvatarURL       = "avatar_url"
	FieldName            = "name"
	FieldIcon            = "icon"
	FieldColor           = "color"
	FieldCategory        = "category"
)

type ProtectionRule struct {
	Deletable      bool
	EditableFields []string
}

type protectionKey struct {
	kind ProtectedKind
	key  string
}

// ProtectionPolicy answers "may this entity be deleted or have these fields
// changed". Entries absent from the table are unrestricted.
type ProtectionPolicy struct {
	rules map[protectionKey]ProtectionRule
}

func NewProtectionPolicy() *ProtectionPolicy {
	return &ProtectionPolicy{rules: map[protectionKey]ProtectionRule{}}
}

func (p *ProtectionPolicy) Protect(kind ProtectedKind, key string, rule ProtectionRule) *ProtectionPolicy {
	p.rules[protectionKey{kind, key}] = rule
	return p
}

func (p *ProtectionPolicy) Rule(kind ProtectedKind, key string) (ProtectionRule, bool) {
	r, ok := p.rules[protectionKey{kind, key}]
	return r, ok
}

func (p *ProtectionPolicy) CheckDelete(kind ProtectedKind, key string) error {
	rule, ok := p.Rule(kind, key)
	if !ok || rule.Deletable {
		return nil
	}
	return ErrProtectedEntity.
		WithErrorf("%s %q cannot be deleted", kind, key).
		WithDetail("kind", kind).
		WithDetail("key", key)
}

// CheckEdit rejects the edit when any changed field is outside the rule's
// editable list. Callers pass only fields whose value actually differs.
func (p *ProtectionPolicy) CheckEdit(kind ProtectedKind, key string, changedFields ...string) error {
	rule, ok := p.Rule(kind, key)
	if !ok {
		return nil
	}
	blocked := lo.Without(lo.Uniq(changedFields), rule.EditableFields...)
	if len(blocked) == 0 {
		return nil
	}
	return ErrProtectedEntity.
		WithErrorf("%s %q does not allow changing %v", kind, key, blocked).
		WithDetail("kind", kind).
		WithDetail("key", key).
		WithDetail("fields", blocked)
}

// DefaultProtectionPolicy is the table every usecase consults.
var DefaultProtectionPolicy = NewProtectionPolicy().
	Protect(ProtectedKindRole, string(RoleSuperAdmin), ProtectionRule{
		EditableFields: []string{FieldLabel, FieldDescription},
	}).
	Protect(ProtectedKindRole, string(RoleAdmin), ProtectionRule{
		EditableFields: []string{FieldLabel, FieldDescription},
	}).
	Protect(ProtectedKindRole, string(RoleFreeUser), ProtectionRule{
		EditableFields: []string{FieldLabel, FieldDescription, FieldPermissionCodes},
	}).
	Protect(ProtectedKindPermission, PermissionAdminAccess, ProtectionRule{
		EditableFields: []string{FieldDescription},
	}).
	Protect(ProtectedKindUser, ProtectedAccountKey, ProtectionRule{
		EditableFields: []string{FieldFullName, FieldAvatarURL},
	}).
	Protect(ProtectedKindDefinition, SystemDefinitionKey, ProtectionRule{})
