package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bill-tracker/domain"
	"bill-tracker/pkg/log"

	"github.com/samber/lo"
)

type PasswordHasher interface {
	Hash(password string) (string, error)
}

// OwnerConfig names the protected owner account. An empty Email skips it.
type OwnerConfig struct {
	Email    string
	Password string
	FullName string
}

// Seeder creates whatever is missing from the initial catalogue. It never
// overwrites roles or permissions an administrator has since edited.
type Seeder struct {
	repos  *Repositories
	hasher PasswordHasher
	owner  OwnerConfig
	logger log.Logger
}

func NewSeeder(repos *Repositories, hasher PasswordHasher, owner OwnerConfig, logger log.Logger) *Seeder {
	return &Seeder{
		repos:  repos,
		hasher: hasher,
		owner:  owner,
		logger: logger,
	}
}

func (s *Seeder) Seed(ctx context.Context) error {
	steps := []struct {
		name string
		run  func(context.Context) error
	}{
		{"permissions", s.seedPermissions},
		{"roles", s.seedRoles},
		{"owner", s.seedOwner},
		{"definitions", s.seedDefinitions},
	}
	for _, step := range steps {
		if err := step.run(ctx); err != nil {
			return fmt.Errorf("seed %s: %w", step.name, err)
		}
	}
	return nil
}

func (s *Seeder) seedPermissions(ctx context.Context) error {
	created := 0
	for _, p := range domain.DefaultPermissions() {
		_, err := s.repos.Permissions.FindByCode(ctx, p.Code)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrRecordNotFound) {
			return err
		}
		if err := s.repos.Permissions.Create(ctx, p); err != nil {
			return err
		}
		created++
	}
	if created > 0 {
		s.logger.Info("Seeded permissions", log.Int("count", created))
	}
	return nil
}

func (s *Seeder) seedRoles(ctx context.Context) error {
	for _, role := range domain.SystemRoles() {
		_, err := s.repos.Roles.FindByName(ctx, role.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrRecordNotFound) {
			return err
		}
		if err := s.repos.Roles.Create(ctx, role); err != nil {
			return err
		}
		s.logger.Info("Seeded role", log.String("role", role.Name.String()))
	}
	return nil
}

// seedOwner creates the owner account, or re-asserts its protection, role
// and active flag if the account already exists. The password of an
// existing account is left alone.
func (s *Seeder) seedOwner(ctx context.Context) error {
	email := strings.ToLower(strings.TrimSpace(s.owner.Email))
	if email == "" {
		return nil
	}

	user, err := s.repos.Users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if user.IsProtectedAccount && user.Role == domain.RoleSuperAdmin && user.IsActive {
			return nil
		}
		user.IsProtectedAccount, user.Role, user.IsActive = true, domain.RoleSuperAdmin, true
		if err := s.repos.Users.Update(ctx, user); err != nil {
			return err
		}
		s.logger.Info("Restored owner account", log.String("user_id", user.ID))
		return nil
	case !errors.Is(err, domain.ErrRecordNotFound):
		return err
	}

	if s.owner.Password == "" {
		return fmt.Errorf("owner password is required to create %s", email)
	}
	hash, err := s.hasher.Hash(s.owner.Password)
	if err != nil {
		return err
	}
	owner := &domain.UserProfile{
		Email:              email,
		PasswordHash:       hash,
		FullName:           lo.Ternary(s.owner.FullName != "", s.owner.FullName, "Owner"),
		Role:               domain.RoleSuperAdmin,
		IsActive:           true,
		IsProtectedAccount: true,
	}
	if err := s.repos.Users.Create(ctx, owner); err != nil {
		return err
	}
	s.logger.Info("Seeded owner account", log.String("user_id", owner.ID))
	return nil
}

// seedDefinitions adds the shared catalogue only when no system definition
// exists yet.
func (s *Seeder) seedDefinitions(ctx context.Context) error {
	existing, err := s.repos.Definitions.List(ctx, &domain.DefinitionFilter{IsSystem: lo.ToPtr(true)})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	defs := domain.SystemDefinitions()
	for _, def := range defs {
		if err := s.repos.Definitions.Create(ctx, def); err != nil {
			return err
		}
	}
	s.logger.Info("Seeded system definitions", log.Int("count", len(defs)))
	return nil
}
