package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"bill-tracker/common"
	"bill-tracker/domain"
	"bill-tracker/modules/audit/repository"
	"bill-tracker/pkg/email"
	"bill-tracker/pkg/log"
	"bill-tracker/pkg/metrics"
	"bill-tracker/validator"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
)

type auditConfig struct {
	actions    []string
	recipients []string
}

func (c auditConfig) WriteTimeout() time.Duration { return time.Second }
func (c auditConfig) AlertActions() []string      { return c.actions }
func (c auditConfig) AlertRecipients() []string   { return c.recipients }

type brokenRepo struct {
	AuditRepository
}

func (brokenRepo) Create(context.Context, *domain.AuditLog) error {
	return errors.New("connection reset")
}

type AuditUsecaseSuite struct {
	suite.Suite
	ctx     context.Context
	repo    *repository.AuditKVRepository
	mailer  *email.MockClient
	metrics *metrics.Metrics
	audit   domain.AuditUsecase
}

func TestAuditUsecaseSuite(t *testing.T) {
	suite.Run(t, new(AuditUsecaseSuite))
}

func (s *AuditUsecaseSuite) SetupTest() {
	s.ctx = domain.ContextWithActor(context.Background(), domain.Actor{
		UserID:    "admin-1",
		Email:     "admin@example.com",
		IPAddress: "10.0.0.9",
	})
	s.repo = repository.NewAuditMemoryRepository()
	s.mailer = email.NewMockClient(&email.Config{DefaultFrom: "alerts@example.com"}, common.NewLoggerAdapter(log.NewNop()))
	s.metrics = metrics.New(prometheus.NewRegistry())
	cfg := auditConfig{
		actions:    []string{string(domain.AuditActionUserBanned)},
		recipients: []string{"owner@example.com"},
	}
	s.audit = NewAuditUsecase(s.repo, cfg, s.mailer, s.metrics, validator.DefaultValidator(), log.NewNop())
}

func (s *AuditUsecaseSuite) all() []*domain.AuditLog {
	items, _, err := s.audit.List(s.ctx, nil, &domain.FindPageOption{PerPage: domain.MaxPerPage})
	s.Require().NoError(err)
	return items
}

func (s *AuditUsecaseSuite) TestLogEvent_LiftsMetadata() {
	s.audit.LogEvent(s.ctx, "admin-1", "admin@example.com", domain.AuditActionRoleUpdated, map[string]any{
		domain.AuditMetaTargetID:  "role-7",
		domain.AuditMetaIPAddress: "192.0.2.1",
		"changed":                 "label",
	})
	s.audit.Flush()

	items := s.all()
	s.Require().Len(items, 1)
	entry := items[0]
	s.Equal(domain.AuditActionRoleUpdated, entry.Action)
	s.Require().NotNil(entry.TargetID)
	s.Equal("role-7", *entry.TargetID)
	s.Require().NotNil(entry.IPAddress)
	s.Equal("192.0.2.1", *entry.IPAddress)
	s.Equal("admin@example.com", entry.Details[domain.AuditMetaUserEmail])
	s.Equal("label", entry.Details["changed"])
	s.NotContains(entry.Details, domain.AuditMetaTargetID)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.AuditEventsWritten))
}

func (s *AuditUsecaseSuite) TestLogEvent_IPFromActor() {
	s.audit.LogEvent(s.ctx, "admin-1", "admin@example.com", domain.AuditActionLogout, nil)
	s.audit.Flush()

	items := s.all()
	s.Require().Len(items, 1)
	s.Require().NotNil(items[0].IPAddress)
	s.Equal("10.0.0.9", *items[0].IPAddress)
	s.Nil(items[0].TargetID)
}

func (s *AuditUsecaseSuite) TestLogEvent_SurvivesCancelledRequest() {
	ctx, cancel := context.WithCancel(s.ctx)
	s.audit.LogEvent(ctx, "u1", "u1@example.com", domain.AuditActionLogin, nil)
	cancel()
	s.audit.Flush()

	s.Len(s.all(), 1)
}

func (s *AuditUsecaseSuite) TestLogEvent_FailureIsCountedNotReturned() {
	audit := NewAuditUsecase(brokenRepo{}, auditConfig{}, nil, s.metrics, validator.DefaultValidator(), log.NewNop())
	s.NotPanics(func() {
		audit.LogEvent(s.ctx, "u1", "u1@example.com", domain.AuditActionLogin, nil)
		audit.Flush()
	})
	s.Equal(1.0, testutil.ToFloat64(s.metrics.AuditEventsDropped))
	s.Equal(0.0, testutil.ToFloat64(s.metrics.AuditEventsWritten))
}

func (s *AuditUsecaseSuite) TestLogEvent_AlertsConfiguredActions() {
	s.audit.LogEvent(s.ctx, "admin-1", "admin@example.com", domain.AuditActionUserBanned, map[string]any{
		domain.AuditMetaTargetID: "user-9",
	})
	s.audit.LogEvent(s.ctx, "admin-1", "admin@example.com", domain.AuditActionLogin, nil)
	s.audit.Flush()

	sent := s.mailer.Sent()
	s.Require().Len(sent, 1)
	s.Equal([]string{"owner@example.com"}, sent[0].To)
	s.Contains(sent[0].Subject, string(domain.AuditActionUserBanned))
	s.Contains(sent[0].Text, "Target: user-9")
}

func (s *AuditUsecaseSuite) TestDeleteMany_RemovesThree() {
	for i := 0; i < 4; i++ {
		s.audit.LogEvent(s.ctx, "u1", "u1@example.com", domain.AuditActionLogin, nil)
	}
	s.audit.Flush()
	ids := lo.Map(s.all(), func(e *domain.AuditLog, _ int) string { return e.ID })
	s.Require().Len(ids, 4)

	deleted, err := s.audit.DeleteMany(s.ctx, &domain.BulkDeleteAuditLogsRequest{IDs: ids[:3]})
	s.Require().NoError(err)
	s.Equal(int64(3), deleted)
	s.audit.Flush()

	remaining := s.all()
	for _, id := range ids[:3] {
		s.False(lo.ContainsBy(remaining, func(e *domain.AuditLog) bool { return e.ID == id }))
	}
	s.True(lo.ContainsBy(remaining, func(e *domain.AuditLog) bool {
		return e.Action == domain.AuditActionAuditLogsDeleted
	}))
}

func (s *AuditUsecaseSuite) TestDeleteMany_RejectsEmpty() {
	_, err := s.audit.DeleteMany(s.ctx, &domain.BulkDeleteAuditLogsRequest{})
	s.ErrorIs(err, domain.ErrValidation)
}

func (s *AuditUsecaseSuite) TestDelete_Missing() {
	s.ErrorIs(s.audit.Delete(s.ctx, domain.NewID()), domain.ErrAuditLogNotFound)
}

func (s *AuditUsecaseSuite) TestList_RejectsInvertedRange() {
	from, to := int64(2_000), int64(1_000)
	_, _, err := s.audit.List(s.ctx, &domain.AuditLogFilter{From: &from, To: &to}, nil)
	s.ErrorIs(err, domain.ErrInvalidDateRange)
}
