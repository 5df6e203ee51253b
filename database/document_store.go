package database

import (
	"bill-tracker/domain"
	"context"
	"slices"

	jsoniter "github.com/json-iterator/go"
)

// DocumentStore is the key-value side of the data layer. RedisHandler and
// MemoryHandler both implement it, so a repository written against it
// serves either backend. Filtering is a Go predicate over V.
type DocumentStore[T any, V any] interface {
	Create(ctx context.Context, entity *T) error
	FindByID(ctx context.Context, id string) (*T, error)
	FindOne(ctx context.Context, filter *V) (*T, error)
	FindAll(ctx context.Context, filter *V) ([]*T, error)
	// FindByScore narrows candidates by the score function configured
	// with WithScore (inclusive bounds, nil means open) before filtering.
	FindByScore(ctx context.Context, from, to *int64, filter *V) ([]*T, error)
	Count(ctx context.Context, filter *V) (int64, error)
	Update(ctx context.Context, entity *T) error
	DeleteByID(ctx context.Context, id string) error
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
	Ping(ctx context.Context) error
}

// MatchFunc reports whether entity satisfies filter. A nil filter matches
// everything and is never passed to the func.
type MatchFunc[T any, V any] func(entity *T, filter *V) bool

// ScoreFunc orders documents for range queries, typically a timestamp.
type ScoreFunc[T any] func(entity *T) int64

// documentCodec reads the "redis" struct tag, which no entity declares, so
// every exported field is stored. That keeps json:"-" fields such as the
// password hash that the API must never expose.
var documentCodec = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	TagKey:                 "redis",
}.Froze()

func asRecord(entity any) (domain.Record, error) {
	r, ok := entity.(domain.Record)
	if !ok {
		return nil, errNotRecord
	}
	return r, nil
}

// Paginate sorts items with cmp and returns the requested page.
func Paginate[T any](items []*T, option *domain.FindPageOption, cmp func(a, b *T) int) ([]*T, *domain.Pagination) {
	if cmp != nil {
		slices.SortStableFunc(items, cmp)
	}
	page, perPage, offset := option.Normalize()
	total := int64(len(items))
	if offset >= len(items) {
		return []*T{}, domain.NewPagination(page, perPage, total)
	}
	end := min(offset+perPage, len(items))
	return items[offset:end], domain.NewPagination(page, perPage, total)
}

func inRange(score int64, from, to *int64) bool {
	if from != nil && score < *from {
		return false
	}
	if to != nil && score > *to {
		return false
	}
	return true
}
