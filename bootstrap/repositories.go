package bootstrap

import (
	"context"
	"fmt"

	"bill-tracker/config"
	activityUC "bill-tracker/modules/activity/usecase"
	auditUC "bill-tracker/modules/audit/usecase"
	authUC "bill-tracker/modules/auth/usecase"
	definitionUC "bill-tracker/modules/definition/usecase"
	instanceUC "bill-tracker/modules/instance/usecase"
	rbacUC "bill-tracker/modules/rbac/usecase"
	userUC "bill-tracker/modules/user/usecase"

	activityRepo "bill-tracker/modules/activity/repository"
	auditRepo "bill-tracker/modules/audit/repository"
	definitionRepo "bill-tracker/modules/definition/repository"
	instanceRepo "bill-tracker/modules/instance/repository"
	rbacRepo "bill-tracker/modules/rbac/repository"
	userRepo "bill-tracker/modules/user/repository"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// UserRepository is the union of what auth and user management need.
type UserRepository interface {
	authUC.UserRepository
	userUC.UserRepository
}

type InstanceRepository interface {
	instanceUC.InstanceRepository
	definitionUC.InstanceCounter
}

// Repositories is every store the application uses, all backed by the same
// provider.
type Repositories struct {
	Backend     string
	Permissions rbacUC.PermissionRepository
	Roles       rbacUC.RoleRepository
	Users       UserRepository
	Audit       auditUC.AuditRepository
	Definitions definitionUC.DefinitionRepository
	Instances   InstanceRepository
	Activities  activityUC.ActivityRepository
}

type Backends struct {
	Provider    string
	Production  bool
	DB          *gorm.DB
	Redis       *redis.Client
	RedisPrefix string
}

// NewRepositories selects the backend once; nothing downstream branches
// on it again.
func NewRepositories(b Backends) (*Repositories, error) {
	switch b.Provider {
	case config.BackendPostgres:
		if b.DB == nil {
			return nil, fmt.Errorf("postgres backend needs a database connection")
		}
		return &Repositories{
			Backend:     b.Provider,
			Permissions: rbacRepo.NewPermissionPgRepository(b.DB),
			Roles:       rbacRepo.NewRolePgRepository(b.DB),
			Users:       userRepo.NewUserPgRepository(b.DB),
			Audit:       auditRepo.NewAuditPgRepository(b.DB),
			Definitions: definitionRepo.NewDefinitionPgRepository(b.DB),
			Instances:   instanceRepo.NewInstancePgRepository(b.DB),
			Activities:  activityRepo.NewActivityPgRepository(b.DB),
		}, nil

	case config.BackendRedis:
		if b.Redis == nil {
			return nil, fmt.Errorf("redis backend needs a redis client")
		}
		return &Repositories{
			Backend:     b.Provider,
			Permissions: rbacRepo.NewPermissionRedisRepository(b.Redis, b.RedisPrefix),
			Roles:       rbacRepo.NewRoleRedisRepository(b.Redis, b.RedisPrefix),
			Users:       userRepo.NewUserRedisRepository(b.Redis, b.RedisPrefix),
			Audit:       auditRepo.NewAuditRedisRepository(b.Redis, b.RedisPrefix),
			Definitions: definitionRepo.NewDefinitionRedisRepository(b.Redis, b.RedisPrefix),
			Instances:   instanceRepo.NewInstanceRedisRepository(b.Redis, b.RedisPrefix),
			Activities:  activityRepo.NewActivityRedisRepository(b.Redis, b.RedisPrefix),
		}, nil

	case config.BackendMemory:
		if b.Production {
			return nil, fmt.Errorf("backend provider %q is not allowed in production", b.Provider)
		}
		store := rbacRepo.NewMemoryStore()
		return &Repositories{
			Backend:     b.Provider,
			Permissions: store.Permissions(),
			Roles:       store.Roles(),
			Users:       userRepo.NewUserMemoryRepository(),
			Audit:       auditRepo.NewAuditMemoryRepository(),
			Definitions: definitionRepo.NewDefinitionMemoryRepository(),
			Instances:   instanceRepo.NewInstanceMemoryRepository(),
			Activities:  activityRepo.NewActivityMemoryRepository(),
		}, nil
	}
	return nil, fmt.Errorf("unsupported backend provider: %q", b.Provider)
}

// Ping checks the backend connection; memory always answers.
func (b Backends) Ping(ctx context.Context) error {
	switch b.Provider {
	case config.BackendPostgres:
		sqlDB, err := b.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	case config.BackendRedis:
		return b.Redis.Ping(ctx).Err()
	}
	return nil
}
