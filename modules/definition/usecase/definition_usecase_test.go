package usecase

import (
	"context"
	"testing"

	"bill-tracker/domain"
	activityrepo "bill-tracker/modules/activity/repository"
	activityuc "bill-tracker/modules/activity/usecase"
	"bill-tracker/modules/definition/repository"
	instancerepo "bill-tracker/modules/instance/repository"
	"bill-tracker/pkg/log"
	"bill-tracker/validator"

	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
)

type DefinitionUsecaseSuite struct {
	suite.Suite
	ctx       context.Context
	defs      *repository.DefinitionKVRepository
	instances *instancerepo.InstanceKVRepository
	activity  domain.ActivityUsecase
	usecase   domain.DefinitionUsecase
	system    *domain.ServiceDefinition
}

func TestDefinitionUsecaseSuite(t *testing.T) {
	suite.Run(t, new(DefinitionUsecaseSuite))
}

func (s *DefinitionUsecaseSuite) SetupTest() {
	s.ctx = context.Background()
	logger := log.NewNop()
	s.defs = repository.NewDefinitionMemoryRepository()
	s.instances = instancerepo.NewInstanceMemoryRepository()
	s.activity = activityuc.NewActivityUsecase(activityrepo.NewActivityMemoryRepository(), logger)
	s.usecase = NewDefinitionUsecase(s.defs, s.instances, s.activity, validator.DefaultValidator(), logger)

	s.system = &domain.ServiceDefinition{Name: "Electricity", Category: domain.CategoryUtilities, IsSystem: true}
	s.Require().NoError(s.defs.Create(s.ctx, s.system))
}

func (s *DefinitionUsecaseSuite) create(userID, name string) *domain.ServiceDefinition {
	def, err := s.usecase.Create(s.ctx, userID, &domain.CreateDefinitionRequest{
		Name:     name,
		Color:    "#ff8800",
		Category: domain.CategorySubscription,
	})
	s.Require().NoError(err)
	return def
}

func (s *DefinitionUsecaseSuite) TestListOwnPlusSystem() {
	s.create("u1", "Streaming")
	s.create("u2", "Gym")

	defs, err := s.usecase.List(s.ctx, "u1", nil)
	s.Require().NoError(err)
	s.Equal([]string{"Electricity", "Streaming"}, lo.Map(defs, func(d *domain.ServiceDefinition, _ int) string { return d.Name }))

	defs, err = s.usecase.List(s.ctx, "u1", lo.ToPtr(domain.CategoryUtilities))
	s.Require().NoError(err)
	s.Len(defs, 1)

	_, err = s.usecase.List(s.ctx, "u1", lo.ToPtr(domain.DefinitionCategory("GROCERIES")))
	s.ErrorIs(err, domain.ErrValidation)
}

func (s *DefinitionUsecaseSuite) TestOtherUsersDefinitionIsHidden() {
	def := s.create("u2", "Gym")

	_, err := s.usecase.Get(s.ctx, "u1", def.ID)
	s.ErrorIs(err, domain.ErrDefinitionNotFound)
	s.ErrorIs(s.usecase.Delete(s.ctx, "u1", def.ID), domain.ErrDefinitionNotFound)

	got, err := s.usecase.Get(s.ctx, "u1", s.system.ID)
	s.Require().NoError(err)
	s.True(got.IsSystem)
}

func (s *DefinitionUsecaseSuite) TestSystemDefinitionIsProtected() {
	_, err := s.usecase.Update(s.ctx, "u1", s.system.ID, &domain.UpdateDefinitionRequest{Name: lo.ToPtr("Power")})
	s.ErrorIs(err, domain.ErrProtectedEntity)
	s.ErrorIs(s.usecase.Delete(s.ctx, "u1", s.system.ID), domain.ErrProtectedEntity)

	// unchanged values are not an edit
	same, err := s.usecase.Update(s.ctx, "u1", s.system.ID, &domain.UpdateDefinitionRequest{Name: lo.ToPtr("Electricity")})
	s.Require().NoError(err)
	s.Equal("Electricity", same.Name)
}

func (s *DefinitionUsecaseSuite) TestUpdateRecordsActivity() {
	def := s.create("u1", "Streaming")

	updated, err := s.usecase.Update(s.ctx, "u1", def.ID, &domain.UpdateDefinitionRequest{
		Name:     lo.ToPtr("  Music  "),
		Category: lo.ToPtr(domain.CategoryOther),
	})
	s.Require().NoError(err)
	s.Equal("Music", updated.Name)
	s.Equal(domain.CategoryOther, updated.Category)

	items, _, err := s.activity.List(s.ctx, "u1", nil)
	s.Require().NoError(err)
	s.ElementsMatch([]domain.ActivityType{domain.ActivityCreated, domain.ActivityUpdated},
		lo.Map(items, func(a *domain.Activity, _ int) domain.ActivityType { return a.Type }))
}

func (s *DefinitionUsecaseSuite) TestDeleteInUse() {
	def := s.create("u1", "Streaming")
	s.Require().NoError(s.instances.Create(s.ctx, &domain.ServiceInstance{
		UserID:       "u1",
		DefinitionID: def.ID,
		Amount:       999,
		Currency:     "EUR",
		DueDate:      1_700_000_000_000,
		Status:       domain.InstanceStatusPending,
	}))

	s.ErrorIs(s.usecase.Delete(s.ctx, "u1", def.ID), domain.ErrDefinitionInUse)

	other := s.create("u1", "Spare")
	s.Require().NoError(s.usecase.Delete(s.ctx, "u1", other.ID))
	_, err := s.usecase.Get(s.ctx, "u1", other.ID)
	s.ErrorIs(err, domain.ErrDefinitionNotFound)
}

func (s *DefinitionUsecaseSuite) TestCreateValidation() {
	_, err := s.usecase.Create(s.ctx, "u1", &domain.CreateDefinitionRequest{Name: "   ", Category: domain.CategoryRent})
	s.ErrorIs(err, domain.ErrValidation)

	_, err = s.usecase.Create(s.ctx, "u1", &domain.CreateDefinitionRequest{Name: "Rent", Category: "HOUSING"})
	s.ErrorIs(err, domain.ErrValidation)
}
