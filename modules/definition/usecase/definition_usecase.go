package usecase

import (
	"context"
	"fmt"
	"strings"

	"bill-tracker/domain"
	"bill-tracker/pkg/log"
)

type DefinitionRepository interface {
	Create(ctx context.Context, def *domain.ServiceDefinition) error
	FindByID(ctx context.Context, id string) (*domain.ServiceDefinition, error)
	List(ctx context.Context, filter *domain.DefinitionFilter) ([]*domain.ServiceDefinition, error)
	Update(ctx context.Context, def *domain.ServiceDefinition) error
	Delete(ctx context.Context, id string) error
}

// InstanceCounter guards deletes of definitions that still have bills.
type InstanceCounter interface {
	Count(ctx context.Context, filter *domain.InstanceFilter) (int64, error)
}

type ActivityRecorder interface {
	Record(ctx context.Context, userID string, typ domain.ActivityType, entityType, entityID, description string)
}

type Validator interface {
	Validate(obj any) error
}

type definitionUsecase struct {
	repo      DefinitionRepository
	instances InstanceCounter
	activity  ActivityRecorder
	validator Validator
	logger    log.Logger
}

func NewDefinitionUsecase(
	repo DefinitionRepository,
	instances InstanceCounter,
	activity ActivityRecorder,
	validator Validator,
	logger log.Logger,
) domain.DefinitionUsecase {
	return &definitionUsecase{
		repo:      repo,
		instances: instances,
		activity:  activity,
		validator: validator,
		logger:    logger,
	}
}

func (u *definitionUsecase) List(ctx context.Context, userID string, category *domain.DefinitionCategory) ([]*domain.ServiceDefinition, error) {
	if category != nil && !category.IsValid() {
		return nil, domain.ErrValidation.WithDetail("category", "unknown category")
	}
	defs, err := u.repo.List(ctx, &domain.DefinitionFilter{OwnerOrSystem: &userID, Category: category})
	if err != nil {
		return nil, domain.BackendError(err, nil)
	}
	return defs, nil
}

// Get answers DEFINITION_NOT_FOUND for another user's definition.
func (u *definitionUsecase) Get(ctx context.Context, userID, id string) (*domain.ServiceDefinition, error) {
	def, err := u.repo.FindByID(ctx, id)
	if err != nil {
		return nil, domain.BackendError(err, domain.ErrDefinitionNotFound)
	}
	if !def.VisibleTo(userID) {
		return nil, domain.ErrDefinitionNotFound
	}
	return def, nil
}

func (u *definitionUsecase) Create(ctx context.Context, userID string, req *domain.CreateDefinitionRequest) (*domain.ServiceDefinition, error) {
	if err := u.validator.Validate(req); err != nil {
		return nil, err
	}
	def := &domain.ServiceDefinition{
		UserID:   &userID,
		Name:     strings.TrimSpace(req.Name),
		Icon:     req.Icon,
		Color:    req.Color,
		Category: req.Category,
	}
	if err := u.repo.Create(ctx, def); err != nil {
		return nil, domain.BackendError(err, nil)
	}
	u.activity.Record(ctx, userID, domain.ActivityCreated, domain.EntityTypeDefinition, def.ID,
		fmt.Sprintf("Created service %q", def.Name))
	return def, nil
}

func (u *definitionUsecase) Update(ctx context.Context, userID, id string, req *domain.UpdateDefinitionRequest) (*domain.ServiceDefinition, error) {
	if err := u.validator.Validate(req); err != nil {
		return nil, err
	}
	def, err := u.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	var changed []string
	if req.Name != nil {
		if name := strings.TrimSpace(*req.Name); name != def.Name {
			def.Name = name
			changed = append(changed, domain.FieldName)
		}
	}
	if req.Icon != nil && *req.Icon != def.Icon {
		def.Icon = *req.Icon
		changed = append(changed, domain.FieldIcon)
	}
	if req.Color != nil && *req.Color != def.Color {
		def.Color = *req.Color
		changed = append(changed, domain.FieldColor)
	}
	if req.Category != nil && *req.Category != def.Category {
		def.Category = *req.Category
		changed = append(changed, domain.FieldCategory)
	}
	if len(changed) == 0 {
		return def, nil
	}
	if err := domain.DefaultProtectionPolicy.CheckEdit(domain.ProtectedKindDefinition, def.PolicyKey(), changed...); err != nil {
		return nil, err
	}

	if err := u.repo.Update(ctx, def); err != nil {
		return nil, domain.BackendError(err, domain.ErrDefinitionNotFound)
	}
	u.activity.Record(ctx, userID, domain.ActivityUpdated, domain.EntityTypeDefinition, def.ID,
		fmt.Sprintf("Updated service %q", def.Name))
	return def, nil
}

func (u *definitionUsecase) Delete(ctx context.Context, userID, id string) error {
	def, err := u.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := domain.DefaultProtectionPolicy.CheckDelete(domain.ProtectedKindDefinition, def.PolicyKey()); err != nil {
		return err
	}

	inUse, err := u.instances.Count(ctx, &domain.InstanceFilter{DefinitionID: &def.ID})
	if err != nil {
		return domain.BackendError(err, nil)
	}
	if inUse > 0 {
		return domain.ErrDefinitionInUse.WithDetail("instances", inUse)
	}

	if err := u.repo.Delete(ctx, def.ID); err != nil {
		return domain.BackendError(err, domain.ErrDefinitionNotFound)
	}
	u.activity.Record(ctx, userID, domain.ActivityDeleted, domain.EntityTypeDefinition, def.ID,
		fmt.Sprintf("Deleted service %q", def.Name))
	return nil
}
