package usecase

import (
	"context"
	"testing"
	"time"

	"bill-tracker/domain"
	activityrepo "bill-tracker/modules/activity/repository"
	activityuc "bill-tracker/modules/activity/usecase"
	definitionrepo "bill-tracker/modules/definition/repository"
	"bill-tracker/modules/instance/repository"
	"bill-tracker/pkg/log"
	"bill-tracker/validator"

	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
)

const day = int64(24 * time.Hour / time.Millisecond)

type InstanceUsecaseSuite struct {
	suite.Suite
	ctx      context.Context
	now      int64
	repo     *repository.InstanceKVRepository
	activity domain.ActivityUsecase
	usecase  *instanceUsecase
	def      *domain.ServiceDefinition
}

func TestInstanceUsecaseSuite(t *testing.T) {
	suite.Run(t, new(InstanceUsecaseSuite))
}

func (s *InstanceUsecaseSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC).UnixMilli()
	logger := log.NewNop()

	defs := definitionrepo.NewDefinitionMemoryRepository()
	s.def = &domain.ServiceDefinition{Name: "Water", Category: domain.CategoryUtilities, IsSystem: true}
	s.Require().NoError(defs.Create(s.ctx, s.def))

	s.repo = repository.NewInstanceMemoryRepository()
	s.activity = activityuc.NewActivityUsecase(activityrepo.NewActivityMemoryRepository(), logger)
	s.usecase = NewInstanceUsecase(s.repo, defs, s.activity, validator.DefaultValidator(), logger).(*instanceUsecase)
	s.usecase.now = func() int64 { return s.now }
}

func (s *InstanceUsecaseSuite) create(userID string, amount int64, currency string, due int64) *domain.ServiceInstance {
	inst, err := s.usecase.Create(s.ctx, userID, &domain.CreateInstanceRequest{
		DefinitionID: s.def.ID,
		Amount:       amount,
		Currency:     currency,
		DueDate:      due,
	})
	s.Require().NoError(err)
	return inst
}

func statuses(items []*domain.ServiceInstance) []domain.InstanceStatus {
	return lo.Map(items, func(i *domain.ServiceInstance, _ int) domain.InstanceStatus { return i.Status })
}

func (s *InstanceUsecaseSuite) TestEffectiveStatusIsDerived() {
	past := s.create("u1", 1000, "eur", s.now-day)
	s.Equal(domain.InstanceStatusOverdue, past.Status)
	s.Equal("EUR", past.Currency)

	stored, err := s.repo.FindByID(s.ctx, past.ID)
	s.Require().NoError(err)
	s.Equal(domain.InstanceStatusPending, stored.Status)

	got, err := s.usecase.Get(s.ctx, "u1", past.ID)
	s.Require().NoError(err)
	s.Equal(domain.InstanceStatusOverdue, got.Status)
}

func (s *InstanceUsecaseSuite) TestListByEffectiveStatus() {
	s.create("u1", 100, "EUR", s.now-2*day)
	s.create("u1", 200, "EUR", s.now+day)
	paid := s.create("u1", 300, "EUR", s.now-day)
	_, err := s.usecase.MarkPaid(s.ctx, "u1", paid.ID, &domain.MarkPaidRequest{PaymentReference: "tx-1"})
	s.Require().NoError(err)
	s.create("u2", 400, "EUR", s.now-day)

	items, page, err := s.usecase.List(s.ctx, "u1", nil)
	s.Require().NoError(err)
	s.Equal(int64(3), page.TotalItems)
	s.Equal([]domain.InstanceStatus{domain.InstanceStatusOverdue, domain.InstanceStatusPaid, domain.InstanceStatusPending}, statuses(items))

	items, _, err = s.usecase.List(s.ctx, "u1", &domain.InstanceQuery{Status: domain.InstanceStatusOverdue})
	s.Require().NoError(err)
	s.Require().Len(items, 1)
	s.Equal(int64(100), items[0].Amount)

	items, _, err = s.usecase.List(s.ctx, "u1", &domain.InstanceQuery{Status: domain.InstanceStatusPending})
	s.Require().NoError(err)
	s.Require().Len(items, 1)
	s.Equal(int64(200), items[0].Amount)
}

func (s *InstanceUsecaseSuite) TestListDueRange() {
	s.create("u1", 100, "EUR", time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC).UnixMilli())
	s.create("u1", 200, "EUR", time.Date(2025, 3, 31, 23, 0, 0, 0, time.UTC).UnixMilli())
	s.create("u1", 300, "EUR", time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC).UnixMilli())

	items, _, err := s.usecase.List(s.ctx, "u1", &domain.InstanceQuery{DueFrom: "2025-03-01", DueTo: "2025-03-31"})
	s.Require().NoError(err)
	s.Len(items, 2)

	_, _, err = s.usecase.List(s.ctx, "u1", &domain.InstanceQuery{DueFrom: "2025-04-01", DueTo: "2025-03-01"})
	s.ErrorIs(err, domain.ErrInvalidDateRange)

	_, _, err = s.usecase.List(s.ctx, "u1", &domain.InstanceQuery{DueFrom: "next week"})
	s.ErrorIs(err, domain.ErrInvalidDateRange)
}

func (s *InstanceUsecaseSuite) TestMarkPaid() {
	inst := s.create("u1", 1250, "EUR", s.now-day)

	paid, err := s.usecase.MarkPaid(s.ctx, "u1", inst.ID, &domain.MarkPaidRequest{PaymentReference: " ref-42 "})
	s.Require().NoError(err)
	s.Equal(domain.InstanceStatusPaid, paid.Status)
	s.Equal(s.now, *paid.PaidAt)
	s.Equal("ref-42", *paid.PaymentReference)

	_, err = s.usecase.MarkPaid(s.ctx, "u1", inst.ID, &domain.MarkPaidRequest{})
	s.ErrorIs(err, domain.ErrInstanceNotPayable)

	_, err = s.usecase.MarkPaid(s.ctx, "u2", inst.ID, &domain.MarkPaidRequest{})
	s.ErrorIs(err, domain.ErrInstanceNotFound)

	items, _, err := s.activity.List(s.ctx, "u1", nil)
	s.Require().NoError(err)
	s.Contains(lo.Map(items, func(a *domain.Activity, _ int) string { return a.Description }), "Paid bill of 12.50 EUR")
}

func (s *InstanceUsecaseSuite) TestUpdateClearsPayment() {
	inst := s.create("u1", 500, "USD", s.now+day)
	_, err := s.usecase.MarkPaid(s.ctx, "u1", inst.ID, &domain.MarkPaidRequest{PaymentReference: "r"})
	s.Require().NoError(err)

	updated, err := s.usecase.Update(s.ctx, "u1", inst.ID, &domain.UpdateInstanceRequest{
		Status: lo.ToPtr(domain.InstanceStatusCancelled),
		Notes:  lo.ToPtr("duplicate"),
	})
	s.Require().NoError(err)
	s.Equal(domain.InstanceStatusCancelled, updated.Status)
	s.Nil(updated.PaidAt)
	s.Nil(updated.PaymentReference)

	_, err = s.usecase.Update(s.ctx, "u1", inst.ID, &domain.UpdateInstanceRequest{Status: lo.ToPtr(domain.InstanceStatusPaid)})
	s.ErrorIs(err, domain.ErrValidation)
}

func (s *InstanceUsecaseSuite) TestCreateRequiresVisibleDefinition() {
	_, err := s.usecase.Create(s.ctx, "u1", &domain.CreateInstanceRequest{
		DefinitionID: domain.NewID(),
		Amount:       1,
		Currency:     "EUR",
		DueDate:      s.now,
	})
	s.ErrorIs(err, domain.ErrDefinitionNotFound)
}

func (s *InstanceUsecaseSuite) TestSummary() {
	s.create("u1", 100, "EUR", s.now-day)
	s.create("u1", 200, "EUR", s.now+day)
	s.create("u1", 50, "USD", s.now+day)
	paid := s.create("u1", 700, "EUR", s.now+day)
	_, err := s.usecase.MarkPaid(s.ctx, "u1", paid.ID, &domain.MarkPaidRequest{})
	s.Require().NoError(err)
	cancelled := s.create("u1", 900, "EUR", s.now+day)
	_, err = s.usecase.Update(s.ctx, "u1", cancelled.ID, &domain.UpdateInstanceRequest{Status: lo.ToPtr(domain.InstanceStatusCancelled)})
	s.Require().NoError(err)

	summary, err := s.usecase.Summary(s.ctx, "u1")
	s.Require().NoError(err)
	s.Equal(5, summary.Total)
	s.Require().Len(summary.Currencies, 2)

	eur := summary.Currencies[0]
	s.Equal("EUR", eur.Currency)
	s.Equal(int64(200), eur.PendingAmount)
	s.Equal(1, eur.PendingCount)
	s.Equal(int64(100), eur.OverdueAmount)
	s.Equal(int64(700), eur.PaidAmount)
	s.Equal("USD", summary.Currencies[1].Currency)
	s.Equal(int64(50), summary.Currencies[1].PendingAmount)
}

func (s *InstanceUsecaseSuite) TestDelete() {
	inst := s.create("u1", 100, "EUR", s.now)

	s.ErrorIs(s.usecase.Delete(s.ctx, "u2", inst.ID), domain.ErrInstanceNotFound)
	s.Require().NoError(s.usecase.Delete(s.ctx, "u1", inst.ID))
	_, err := s.usecase.Get(s.ctx, "u1", inst.ID)
	s.ErrorIs(err, domain.ErrInstanceNotFound)
}

func (s *InstanceUsecaseSuite) TestFormatAmount() {
	s.Equal("0.05 EUR", formatAmount(5, "EUR"))
	s.Equal("-12.00 USD", formatAmount(-1200, "USD"))
}
