package database

import (
	"bill-tracker/domain"

	"gorm.io/gorm"
)

func MigrateDB(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Permission{},
		&domain.Role{},
		&domain.RolePermission{},
		&domain.UserProfile{},
		&domain.AuditLog{},
		&domain.ServiceDefinition{},
		&domain.ServiceInstance{},
		&domain.Activity{},
	)
}
