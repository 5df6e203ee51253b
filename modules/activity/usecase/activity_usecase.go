package usecase

import (
	"context"

	"bill-tracker/domain"
	"bill-tracker/pkg/log"
	"bill-tracker/pkg/utils"
)

type ActivityRepository interface {
	Create(ctx context.Context, activity *domain.Activity) error
	FindByID(ctx context.Context, id string) (*domain.Activity, error)
	List(ctx context.Context, filter *domain.ActivityFilter, option *domain.FindPageOption) ([]*domain.Activity, *domain.Pagination, error)
	Delete(ctx context.Context, id string) error
}

type activityUsecase struct {
	repo   ActivityRepository
	logger log.Logger
}

func NewActivityUsecase(repo ActivityRepository, logger log.Logger) domain.ActivityUsecase {
	return &activityUsecase{repo: repo, logger: logger}
}

func (u *activityUsecase) Record(ctx context.Context, userID string, typ domain.ActivityType, entityType, entityID, description string) {
	activity := &domain.Activity{
		UserID:      userID,
		Type:        typ,
		EntityType:  entityType,
		EntityID:    entityID,
		Description: description,
		CreatedAt:   utils.NowUnixMillis(),
	}
	if err := u.repo.Create(ctx, activity); err != nil {
		u.logger.WarnContext(ctx, "activity not recorded",
			log.UserID(userID),
			log.String("type", string(typ)),
			log.String("entity_id", entityID),
			log.Error(err),
		)
	}
}

func (u *activityUsecase) List(ctx context.Context, userID string, option *domain.FindPageOption) ([]*domain.Activity, *domain.Pagination, error) {
	items, pagination, err := u.repo.List(ctx, &domain.ActivityFilter{UserID: &userID}, option)
	if err != nil {
		return nil, nil, domain.BackendError(err, nil)
	}
	return items, pagination, nil
}

// Delete hides other users' entries behind ACTIVITY_NOT_FOUND.
func (u *activityUsecase) Delete(ctx context.Context, userID, id string) error {
	activity, err := u.repo.FindByID(ctx, id)
	if err != nil {
		return domain.BackendError(err, domain.ErrActivityNotFound)
	}
	if activity.UserID != userID {
		return domain.ErrActivityNotFound
	}
	return domain.BackendError(u.repo.Delete(ctx, id), domain.ErrActivityNotFound)
}
