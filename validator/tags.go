package validator

const (
	Email              = "email"
	Min                = "min"
	Max                = "max"
	Required           = "required"
	NotEmpty           = "not_empty"
	PermissionCode     = "permission_code"
	PermissionModule   = "permission_module"
	RoleName           = "role_name"
	DefinitionCategory = "definition_category"
	InstanceStatus     = "instance_status"
	Currency           = "currency"
)
