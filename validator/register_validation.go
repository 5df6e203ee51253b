package validator

import (
	"regexp"
	"strings"

	"bill-tracker/domain"

	"github.com/go-playground/validator/v10"
)

var currencyRegex = regexp.MustCompile(`^[A-Z]{3}$`)

type Registration struct {
	Tag  string
	Func validator.Func
}

var defaultRegistrations = [...]Registration{
	{
		Tag:  NotEmpty,
		Func: IsNotEmpty,
	},
	{
		Tag:  PermissionCode,
		Func: IsValidPermissionCode,
	},
	{
		Tag:  PermissionModule,
		Func: IsValidPermissionModule,
	},
	{
		Tag:  RoleName,
		Func: IsValidRoleName,
	},
	{
		Tag:  DefinitionCategory,
		Func: IsValidDefinitionCategory,
	},
	{
		Tag:  InstanceStatus,
		Func: IsValidInstanceStatus,
	},
	{
		Tag:  Currency,
		Func: IsValidCurrency,
	},
}

// IsNotEmpty rejects strings made only of whitespace.
func IsNotEmpty(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func IsValidPermissionCode(fl validator.FieldLevel) bool {
	return domain.IsValidPermissionCode(fl.Field().String())
}

func IsValidPermissionModule(fl validator.FieldLevel) bool {
	return domain.PermissionModule(fl.Field().String()).IsValid()
}

func IsValidRoleName(fl validator.FieldLevel) bool {
	return domain.IsValidRoleName(fl.Field().String())
}

func IsValidDefinitionCategory(fl validator.FieldLevel) bool {
	return domain.DefinitionCategory(fl.Field().String()).IsValid()
}

func IsValidInstanceStatus(fl validator.FieldLevel) bool {
	return domain.InstanceStatus(fl.Field().String()).IsValid()
}

// IsValidCurrency accepts an uppercase ISO 4217 style code.
func IsValidCurrency(fl validator.FieldLevel) bool {
	return currencyRegex.MatchString(fl.Field().String())
}
