package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"bill-tracker/domain"
	"bill-tracker/pkg/email"
	"bill-tracker/pkg/log"
	"bill-tracker/pkg/metrics"
	"bill-tracker/pkg/utils"

	"github.com/samber/lo"
)

type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
	List(ctx context.Context, filter *domain.AuditLogFilter, option *domain.FindPageOption) ([]*domain.AuditLog, *domain.Pagination, error)
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) (int64, error)
}

type Config interface {
	WriteTimeout() time.Duration
	AlertActions() []string
	AlertRecipients() []string
}

type Validator interface {
	Validate(obj any) error
}

type auditUsecase struct {
	repo      AuditRepository
	cfg       Config
	mailer    email.Client
	metrics   *metrics.Metrics
	validator Validator
	logger    log.Logger
	inflight  sync.WaitGroup
}

// NewAuditUsecase builds the audit trail. mailer may be nil, which turns
// alerting off; metrics may be nil as well.
func NewAuditUsecase(
	repo AuditRepository,
	cfg Config,
	mailer email.Client,
	m *metrics.Metrics,
	validator Validator,
	logger log.Logger,
) domain.AuditUsecase {
	return &auditUsecase{
		repo:      repo,
		cfg:       cfg,
		mailer:    mailer,
		metrics:   m,
		validator: validator,
		logger:    logger,
	}
}

/****************************
*          Write side       *
****************************/

func (u *auditUsecase) LogEvent(ctx context.Context, userID, userEmail string, action domain.AuditAction, metadata map[string]any) {
	entry := newEntry(ctx, userID, userEmail, action, metadata)

	u.inflight.Add(1)
	go func() {
		defer u.inflight.Done()
		wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), u.cfg.WriteTimeout())
		defer cancel()

		if err := u.repo.Create(wctx, entry); err != nil {
			u.metrics.IncrementAuditDropped()
			u.logger.Error("audit write failed",
				log.String("action", string(action)),
				log.UserID(userID),
				log.Error(err),
			)
			return
		}
		u.metrics.IncrementAuditWritten()
		u.alert(wctx, entry, userEmail)
	}()
}

// newEntry lifts target and ip out of metadata; everything else, plus the
// caller's email, stays in details.
func newEntry(ctx context.Context, userID, userEmail string, action domain.AuditAction, metadata map[string]any) *domain.AuditLog {
	details := domain.JSONB{}
	for k, v := range metadata {
		details[k] = v
	}
	details[domain.AuditMetaUserEmail] = userEmail

	entry := &domain.AuditLog{
		ID:        domain.NewID(),
		UserID:    userID,
		Action:    action,
		Details:   details,
		CreatedAt: utils.NowUnixMillis(),
	}
	if target, ok := liftString(details, domain.AuditMetaTargetID); ok {
		entry.TargetID = &target
	}
	ip, ok := liftString(details, domain.AuditMetaIPAddress)
	if !ok {
		if actor, found := domain.ActorFromContext(ctx); found && actor.IPAddress != "" {
			ip, ok = actor.IPAddress, true
		}
	}
	if ok {
		entry.IPAddress = &ip
	}
	return entry
}

func liftString(details domain.JSONB, key string) (string, bool) {
	v, ok := details[key].(string)
	if !ok || v == "" {
		return "", false
	}
	delete(details, key)
	return v, true
}

func (u *auditUsecase) alert(ctx context.Context, entry *domain.AuditLog, userEmail string) {
	recipients := u.cfg.AlertRecipients()
	if u.mailer == nil || len(recipients) == 0 || !lo.Contains(u.cfg.AlertActions(), string(entry.Action)) {
		return
	}
	msg := &email.Message{
		To:      recipients,
		Subject: fmt.Sprintf("Audit alert: %s", entry.Action),
		Text:    alertBody(entry, userEmail),
		Tags:    map[string]string{"category": "audit_alert", "action": string(entry.Action)},
	}
	if err := u.mailer.Send(ctx, msg); err != nil {
		u.logger.Warn("audit alert not sent",
			log.String("action", string(entry.Action)),
			log.String("audit_id", entry.ID),
			log.Error(err),
		)
	}
}

func alertBody(entry *domain.AuditLog, userEmail string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Action: %s\n", entry.Action)
	fmt.Fprintf(&b, "User: %s (%s)\n", userEmail, entry.UserID)
	if entry.TargetID != nil {
		fmt.Fprintf(&b, "Target: %s\n", *entry.TargetID)
	}
	if entry.IPAddress != nil {
		fmt.Fprintf(&b, "IP address: %s\n", *entry.IPAddress)
	}
	fmt.Fprintf(&b, "At: %s\n", time.UnixMilli(entry.CreatedAt).UTC().Format(time.RFC3339))

	keys := lo.Keys(entry.Details)
	sort.Strings(keys)
	for _, k := range keys {
		if k == domain.AuditMetaUserEmail {
			continue
		}
		fmt.Fprintf(&b, "%s: %v\n", k, entry.Details[k])
	}
	return b.String()
}

func (u *auditUsecase) Flush() {
	u.inflight.Wait()
}

/****************************
*          Read side        *
****************************/

func (u *auditUsecase) List(ctx context.Context, filter *domain.AuditLogFilter, option *domain.FindPageOption) ([]*domain.AuditLog, *domain.Pagination, error) {
	if filter != nil && filter.From != nil && filter.To != nil && *filter.From > *filter.To {
		return nil, nil, domain.ErrInvalidDateRange
	}
	items, pagination, err := u.repo.List(ctx, filter, option)
	if err != nil {
		return nil, nil, domain.BackendError(err, nil)
	}
	return items, pagination, nil
}

func (u *auditUsecase) Delete(ctx context.Context, id string) error {
	if err := u.repo.Delete(ctx, id); err != nil {
		return domain.BackendError(err, domain.ErrAuditLogNotFound)
	}
	u.logDeletion(ctx, []string{id}, 1)
	return nil
}

func (u *auditUsecase) DeleteMany(ctx context.Context, req *domain.BulkDeleteAuditLogsRequest) (int64, error) {
	if err := u.validator.Validate(req); err != nil {
		return 0, err
	}
	ids := lo.Uniq(req.IDs)
	deleted, err := u.repo.DeleteMany(ctx, ids)
	if err != nil {
		return 0, domain.BackendError(err, nil)
	}
	u.logDeletion(ctx, ids, deleted)
	return deleted, nil
}

func (u *auditUsecase) logDeletion(ctx context.Context, ids []string, deleted int64) {
	actor, _ := domain.ActorFromContext(ctx)
	metadata := map[string]any{
		"ids":   ids,
		"count": deleted,
	}
	if len(ids) == 1 {
		metadata[domain.AuditMetaTargetID] = ids[0]
	}
	u.LogEvent(ctx, actor.UserID, actor.Email, domain.AuditActionAuditLogsDeleted, metadata)
}
