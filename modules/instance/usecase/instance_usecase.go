package usecase

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"bill-tracker/domain"
	"bill-tracker/pkg/log"
	"bill-tracker/pkg/utils"

	"github.com/samber/lo"
)

type InstanceRepository interface {
	Create(ctx context.Context, instance *domain.ServiceInstance) error
	FindByID(ctx context.Context, id string) (*domain.ServiceInstance, error)
	List(ctx context.Context, filter *domain.InstanceFilter, option *domain.FindPageOption) ([]*domain.ServiceInstance, *domain.Pagination, error)
	FindAll(ctx context.Context, filter *domain.InstanceFilter) ([]*domain.ServiceInstance, error)
	Update(ctx context.Context, instance *domain.ServiceInstance) error
	Delete(ctx context.Context, id string) error
}

type DefinitionReader interface {
	FindByID(ctx context.Context, id string) (*domain.ServiceDefinition, error)
}

type ActivityRecorder interface {
	Record(ctx context.Context, userID string, typ domain.ActivityType, entityType, entityID, description string)
}

type Validator interface {
	Validate(obj any) error
}

type instanceUsecase struct {
	repo        InstanceRepository
	definitions DefinitionReader
	activity    ActivityRecorder
	validator   Validator
	logger      log.Logger
	now         func() int64
}

func NewInstanceUsecase(
	repo InstanceRepository,
	definitions DefinitionReader,
	activity ActivityRecorder,
	validator Validator,
	logger log.Logger,
) domain.InstanceUsecase {
	return &instanceUsecase{
		repo:        repo,
		definitions: definitions,
		activity:    activity,
		validator:   validator,
		logger:      logger,
		now:         utils.NowUnixMillis,
	}
}

/****************************
*          Read side        *
****************************/

func (u *instanceUsecase) List(ctx context.Context, userID string, query *domain.InstanceQuery) ([]*domain.ServiceInstance, *domain.Pagination, error) {
	if query == nil {
		query = &domain.InstanceQuery{}
	}
	if err := u.validator.Validate(query); err != nil {
		return nil, nil, err
	}
	now := u.now()
	filter, err := toInstanceFilter(userID, query, now)
	if err != nil {
		return nil, nil, err
	}

	items, pagination, err := u.repo.List(ctx, filter, &domain.FindPageOption{Page: query.Page, PerPage: query.PerPage})
	if err != nil {
		return nil, nil, domain.BackendError(err, nil)
	}
	return lo.Map(items, func(i *domain.ServiceInstance, _ int) *domain.ServiceInstance {
		return i.WithEffectiveStatus(now)
	}), pagination, nil
}

// toInstanceFilter rewrites the derived statuses into stored ones: OVERDUE
// is PENDING with a due date before now, PENDING is PENDING from now on.
func toInstanceFilter(userID string, query *domain.InstanceQuery, now int64) (*domain.InstanceFilter, error) {
	from, err := utils.ParseRangeStart(query.DueFrom)
	if err != nil {
		return nil, domain.ErrInvalidDateRange.WithWrap(err)
	}
	to, err := utils.ParseRangeEnd(query.DueTo)
	if err != nil {
		return nil, domain.ErrInvalidDateRange.WithWrap(err)
	}
	if from != nil && to != nil && *from > *to {
		return nil, domain.ErrInvalidDateRange
	}

	filter := &domain.InstanceFilter{UserID: &userID, DueFrom: from, DueTo: to}
	if query.DefinitionID != "" {
		filter.DefinitionID = &query.DefinitionID
	}
	switch query.Status {
	case "":
	case domain.InstanceStatusOverdue:
		filter.StatusIn = []domain.InstanceStatus{domain.InstanceStatusPending}
		if limit := now - 1; filter.DueTo == nil || *filter.DueTo > limit {
			filter.DueTo = &limit
		}
	case domain.InstanceStatusPending:
		filter.StatusIn = []domain.InstanceStatus{domain.InstanceStatusPending}
		if filter.DueFrom == nil || *filter.DueFrom < now {
			filter.DueFrom = &now
		}
	default:
		filter.StatusIn = []domain.InstanceStatus{query.Status}
	}
	return filter, nil
}

func (u *instanceUsecase) find(ctx context.Context, userID, id string) (*domain.ServiceInstance, error) {
	instance, err := u.repo.FindByID(ctx, id)
	if err != nil {
		return nil, domain.BackendError(err, domain.ErrInstanceNotFound)
	}
	if instance.UserID != userID {
		return nil, domain.ErrInstanceNotFound
	}
	return instance, nil
}

func (u *instanceUsecase) Get(ctx context.Context, userID, id string) (*domain.ServiceInstance, error) {
	instance, err := u.find(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return instance.WithEffectiveStatus(u.now()), nil
}

// Summary aggregates in memory. Cancelled bills are counted in Total only.
func (u *instanceUsecase) Summary(ctx context.Context, userID string) (*domain.InstanceSummary, error) {
	instances, err := u.repo.FindAll(ctx, &domain.InstanceFilter{UserID: &userID})
	if err != nil {
		return nil, domain.BackendError(err, nil)
	}

	now := u.now()
	byCurrency := map[string]*domain.CurrencySummary{}
	for _, inst := range instances {
		sum, ok := byCurrency[inst.Currency]
		if !ok {
			sum = &domain.CurrencySummary{Currency: inst.Currency}
			byCurrency[inst.Currency] = sum
		}
		switch inst.EffectiveStatus(now) {
		case domain.InstanceStatusPending:
			sum.PendingAmount += inst.Amount
			sum.PendingCount++
		case domain.InstanceStatusOverdue:
			sum.OverdueAmount += inst.Amount
			sum.OverdueCount++
		case domain.InstanceStatusPaid:
			sum.PaidAmount += inst.Amount
			sum.PaidCount++
		}
	}

	currencies := lo.Values(byCurrency)
	slices.SortFunc(currencies, func(a, b *domain.CurrencySummary) int {
		return strings.Compare(a.Currency, b.Currency)
	})
	return &domain.InstanceSummary{Currencies: currencies, Total: len(instances)}, nil
}

/****************************
*         Write side        *
****************************/

func (u *instanceUsecase) Create(ctx context.Context, userID string, req *domain.CreateInstanceRequest) (*domain.ServiceInstance, error) {
	req.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	if err := u.validator.Validate(req); err != nil {
		return nil, err
	}
	def, err := u.definitions.FindByID(ctx, req.DefinitionID)
	if err != nil {
		return nil, domain.BackendError(err, domain.ErrDefinitionNotFound)
	}
	if !def.VisibleTo(userID) {
		return nil, domain.ErrDefinitionNotFound
	}

	instance := &domain.ServiceInstance{
		UserID:       userID,
		DefinitionID: def.ID,
		Amount:       req.Amount,
		Currency:     req.Currency,
		DueDate:      req.DueDate,
		Status:       domain.InstanceStatusPending,
		Notes:        req.Notes,
	}
	if err := u.repo.Create(ctx, instance); err != nil {
		return nil, domain.BackendError(err, nil)
	}
	u.activity.Record(ctx, userID, domain.ActivityCreated, domain.EntityTypeInstance, instance.ID,
		fmt.Sprintf("Added %s bill of %s", def.Name, formatAmount(instance.Amount, instance.Currency)))
	return instance.WithEffectiveStatus(u.now()), nil
}

// Update moves a paid bill back to PENDING or CANCELLED by clearing its
// payment fields.
func (u *instanceUsecase) Update(ctx context.Context, userID, id string, req *domain.UpdateInstanceRequest) (*domain.ServiceInstance, error) {
	if req.Currency != nil {
		req.Currency = lo.ToPtr(strings.ToUpper(strings.TrimSpace(*req.Currency)))
	}
	if err := u.validator.Validate(req); err != nil {
		return nil, err
	}
	instance, err := u.find(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Amount != nil {
		instance.Amount = *req.Amount
	}
	if req.Currency != nil {
		instance.Currency = *req.Currency
	}
	if req.DueDate != nil {
		instance.DueDate = *req.DueDate
	}
	if req.Notes != nil {
		instance.Notes = *req.Notes
	}
	if req.Status != nil && *req.Status != instance.Status {
		instance.Status = *req.Status
		instance.PaidAt = nil
		instance.PaymentReference = nil
	}

	if err := u.repo.Update(ctx, instance); err != nil {
		return nil, domain.BackendError(err, domain.ErrInstanceNotFound)
	}
	u.activity.Record(ctx, userID, domain.ActivityUpdated, domain.EntityTypeInstance, instance.ID,
		fmt.Sprintf("Updated bill of %s", formatAmount(instance.Amount, instance.Currency)))
	return instance.WithEffectiveStatus(u.now()), nil
}

func (u *instanceUsecase) Delete(ctx context.Context, userID, id string) error {
	instance, err := u.find(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := u.repo.Delete(ctx, instance.ID); err != nil {
		return domain.BackendError(err, domain.ErrInstanceNotFound)
	}
	u.activity.Record(ctx, userID, domain.ActivityDeleted, domain.EntityTypeInstance, instance.ID,
		fmt.Sprintf("Deleted bill of %s", formatAmount(instance.Amount, instance.Currency)))
	return nil
}

func (u *instanceUsecase) MarkPaid(ctx context.Context, userID, id string, req *domain.MarkPaidRequest) (*domain.ServiceInstance, error) {
	if err := u.validator.Validate(req); err != nil {
		return nil, err
	}
	instance, err := u.find(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	now := u.now()
	switch instance.EffectiveStatus(now) {
	case domain.InstanceStatusPending, domain.InstanceStatusOverdue:
	default:
		return nil, domain.ErrInstanceNotPayable.WithDetail("status", instance.Status)
	}

	paidAt := now
	if req.PaidAt != nil {
		paidAt = *req.PaidAt
	}
	instance.Status = domain.InstanceStatusPaid
	instance.PaidAt = &paidAt
	instance.PaymentReference = nil
	if ref := strings.TrimSpace(req.PaymentReference); ref != "" {
		instance.PaymentReference = &ref
	}

	if err := u.repo.Update(ctx, instance); err != nil {
		return nil, domain.BackendError(err, domain.ErrInstanceNotFound)
	}
	u.activity.Record(ctx, userID, domain.ActivityPaid, domain.EntityTypeInstance, instance.ID,
		fmt.Sprintf("Paid bill of %s", formatAmount(instance.Amount, instance.Currency)))
	return instance, nil
}

// formatAmount renders minor units with two decimals, e.g. 1250 EUR as
// "12.50 EUR".
func formatAmount(minor int64, currency string) string {
	sign := ""
	if minor < 0 {
		sign, minor = "-", -minor
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, minor/100, minor%100, currency)
}
