package database

import (
	"bill-tracker/domain"
	"bill-tracker/pkg/utils"
	"context"
	"sync"
)

// MemoryHandler is the in-process DocumentStore used by tests and local
// runs. Entities are copied on the way in and out through the same codec
// the redis handler uses, so both backends behave alike.
type MemoryHandler[T any, V any] struct {
	mu    sync.RWMutex
	items map[string][]byte
	match MatchFunc[T, V]
	score ScoreFunc[T]
	now   func() int64
}

func NewMemoryHandler[T any, V any](match MatchFunc[T, V]) *MemoryHandler[T, V] {
	return &MemoryHandler[T, V]{
		items: make(map[string][]byte),
		match: match,
		now:   utils.NowUnixMillis,
	}
}

// WithScoreFunc enables FindByScore.
func (h *MemoryHandler[T, V]) WithScoreFunc(fn ScoreFunc[T]) *MemoryHandler[T, V] {
	h.score = fn
	return h
}

func (h *MemoryHandler[T, V]) decode(data []byte) (*T, error) {
	entity := new(T)
	if err := documentCodec.Unmarshal(data, entity); err != nil {
		return nil, err
	}
	return entity, nil
}

func (h *MemoryHandler[T, V]) put(entity *T) error {
	r, err := asRecord(entity)
	if err != nil {
		return err
	}
	if r.GetID() == "" {
		r.SetID(domain.NewID())
	}
	r.Touch(h.now())
	data, err := documentCodec.Marshal(entity)
	if err != nil {
		return err
	}
	h.items[r.GetID()] = data
	return nil
}

func (h *MemoryHandler[T, V]) Create(_ context.Context, entity *T) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.put(entity)
}

func (h *MemoryHandler[T, V]) Update(_ context.Context, entity *T) error {
	r, err := asRecord(entity)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.items[r.GetID()]; !ok {
		return domain.ErrRecordNotFound
	}
	return h.put(entity)
}

func (h *MemoryHandler[T, V]) FindByID(_ context.Context, id string) (*T, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	data, ok := h.items[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return h.decode(data)
}

func (h *MemoryHandler[T, V]) scan(filter *V, keep func(*T) bool) ([]*T, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*T, 0, len(h.items))
	for _, data := range h.items {
		entity, err := h.decode(data)
		if err != nil {
			return nil, err
		}
		if keep != nil && !keep(entity) {
			continue
		}
		if filter == nil || h.match == nil || h.match(entity, filter) {
			out = append(out, entity)
		}
	}
	return out, nil
}

func (h *MemoryHandler[T, V]) FindAll(_ context.Context, filter *V) ([]*T, error) {
	return h.scan(filter, nil)
}

func (h *MemoryHandler[T, V]) FindByScore(_ context.Context, from, to *int64, filter *V) ([]*T, error) {
	if h.score == nil {
		return nil, errNoScore
	}
	return h.scan(filter, func(entity *T) bool {
		return inRange(h.score(entity), from, to)
	})
}

func (h *MemoryHandler[T, V]) FindOne(ctx context.Context, filter *V) (*T, error) {
	items, err := h.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domain.ErrRecordNotFound
	}
	return items[0], nil
}

func (h *MemoryHandler[T, V]) Count(ctx context.Context, filter *V) (int64, error) {
	if filter == nil {
		h.mu.RLock()
		defer h.mu.RUnlock()
		return int64(len(h.items)), nil
	}
	items, err := h.FindAll(ctx, filter)
	return int64(len(items)), err
}

func (h *MemoryHandler[T, V]) DeleteByID(_ context.Context, id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.items[id]; !ok {
		return domain.ErrRecordNotFound
	}
	delete(h.items, id)
	return nil
}

func (h *MemoryHandler[T, V]) DeleteByIDs(_ context.Context, ids []string) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := h.items[id]; ok {
			delete(h.items, id)
			n++
		}
	}
	return n, nil
}

func (h *MemoryHandler[T, V]) Ping(context.Context) error {
	return nil
}
