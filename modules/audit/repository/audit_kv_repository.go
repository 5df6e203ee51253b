package repository

import (
	"cmp"
	"context"

	"bill-tracker/database"
	"bill-tracker/domain"

	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
)

const auditCollection = "audit_logs"

// AuditKVRepository serves the redis and memory backends. Entries are
// indexed by created_at, so a date range narrows the scan before the
// remaining filter fields are matched.
type AuditKVRepository struct {
	docs database.DocumentStore[domain.AuditLog, domain.AuditLogFilter]
}

func NewAuditRedisRepository(client *redis.Client, prefix string) *AuditKVRepository {
	return &AuditKVRepository{
		docs: database.NewRedisHandler(client, prefix, auditCollection, matchAuditLog,
			database.WithScore[domain.AuditLog, domain.AuditLogFilter](auditScore)),
	}
}

func NewAuditMemoryRepository() *AuditKVRepository {
	return &AuditKVRepository{
		docs: database.NewMemoryHandler(matchAuditLog).WithScoreFunc(auditScore),
	}
}

func auditScore(entry *domain.AuditLog) int64 {
	return entry.CreatedAt
}

func matchAuditLog(entry *domain.AuditLog, filter *domain.AuditLogFilter) bool {
	if len(filter.IDIn) > 0 && !lo.Contains(filter.IDIn, entry.ID) {
		return false
	}
	if filter.UserID != nil && entry.UserID != *filter.UserID {
		return false
	}
	if filter.Action != nil && entry.Action != *filter.Action {
		return false
	}
	return true
}

// newestFirst breaks created_at ties by id so pages are stable.
func newestFirst(a, b *domain.AuditLog) int {
	if c := cmp.Compare(b.CreatedAt, a.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(b.ID, a.ID)
}

func (r *AuditKVRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	return r.docs.Create(ctx, entry)
}

func (r *AuditKVRepository) List(ctx context.Context, filter *domain.AuditLogFilter, option *domain.FindPageOption) ([]*domain.AuditLog, *domain.Pagination, error) {
	var from, to *int64
	if filter != nil {
		from, to = filter.From, filter.To
	}
	entries, err := r.docs.FindByScore(ctx, from, to, filter)
	if err != nil {
		return nil, nil, err
	}
	items, pagination := database.Paginate(entries, option, newestFirst)
	return items, pagination, nil
}

func (r *AuditKVRepository) Delete(ctx context.Context, id string) error {
	return r.docs.DeleteByID(ctx, id)
}

func (r *AuditKVRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	return r.docs.DeleteByIDs(ctx, ids)
}
