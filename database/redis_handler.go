package database

import (
	"bill-tracker/domain"
	"bill-tracker/pkg/utils"
	"context"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const mgetBatch = 500

// RedisHandler stores each entity as a JSON document at
// <prefix>:<collection>:<id>. The ids live in a SET at
// <prefix>:idx:<collection>, or in a ZSET when a score function is set.
type RedisHandler[T any, V any] struct {
	client     *redis.Client
	prefix     string
	collection string
	match      MatchFunc[T, V]
	score      ScoreFunc[T]
	now        func() int64
}

type RedisOption[T any, V any] func(*RedisHandler[T, V])

// WithScore switches the id index to a sorted set scored by fn.
func WithScore[T any, V any](fn ScoreFunc[T]) RedisOption[T, V] {
	return func(h *RedisHandler[T, V]) { h.score = fn }
}

func NewRedisHandler[T any, V any](
	client *redis.Client,
	prefix, collection string,
	match MatchFunc[T, V],
	opts ...RedisOption[T, V],
) *RedisHandler[T, V] {
	h := &RedisHandler[T, V]{
		client:     client,
		prefix:     prefix,
		collection: collection,
		match:      match,
		now:        utils.NowUnixMillis,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *RedisHandler[T, V]) Client() *redis.Client {
	return h.client
}

func (h *RedisHandler[T, V]) Key(id string) string {
	return h.prefix + ":" + h.collection + ":" + id
}

func (h *RedisHandler[T, V]) indexKey() string {
	return h.prefix + ":idx:" + h.collection
}

// TxPipelined runs fn inside MULTI/EXEC.
func (h *RedisHandler[T, V]) TxPipelined(ctx context.Context, fn func(pipe redis.Pipeliner) error) error {
	_, err := h.client.TxPipelined(ctx, fn)
	return err
}

// QueueSave stamps entity and queues its document and index writes on pipe.
func (h *RedisHandler[T, V]) QueueSave(ctx context.Context, pipe redis.Pipeliner, entity *T) error {
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
	pipe.Set(ctx, h.Key(r.GetID()), data, 0)
	if h.score != nil {
		pipe.ZAdd(ctx, h.indexKey(), redis.Z{Score: float64(h.score(entity)), Member: r.GetID()})
	} else {
		pipe.SAdd(ctx, h.indexKey(), r.GetID())
	}
	return nil
}

// QueueDelete queues document and index removal. The returned command
// reports how many documents existed once the pipeline runs.
func (h *RedisHandler[T, V]) QueueDelete(ctx context.Context, pipe redis.Pipeliner, ids ...string) *redis.IntCmd {
	keys := make([]string, len(ids))
	members := make([]any, len(ids))
	for i, id := range ids {
		keys[i] = h.Key(id)
		members[i] = id
	}
	del := pipe.Del(ctx, keys...)
	if h.score != nil {
		pipe.ZRem(ctx, h.indexKey(), members...)
	} else {
		pipe.SRem(ctx, h.indexKey(), members...)
	}
	return del
}

func (h *RedisHandler[T, V]) Create(ctx context.Context, entity *T) error {
	return h.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		return h.QueueSave(ctx, pipe, entity)
	})
}

// Update fails with ErrRecordNotFound when the document is gone. The check
// runs outside the transaction, so a concurrent delete can be overwritten.
func (h *RedisHandler[T, V]) Update(ctx context.Context, entity *T) error {
	r, err := asRecord(entity)
	if err != nil {
		return err
	}
	n, err := h.client.Exists(ctx, h.Key(r.GetID())).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrRecordNotFound
	}
	return h.Create(ctx, entity)
}

func (h *RedisHandler[T, V]) FindByID(ctx context.Context, id string) (*T, error) {
	data, err := h.client.Get(ctx, h.Key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	var entity T
	if err := documentCodec.Unmarshal(data, &entity); err != nil {
		return nil, err
	}
	return &entity, nil
}

func (h *RedisHandler[T, V]) ids(ctx context.Context) ([]string, error) {
	if h.score != nil {
		return h.client.ZRange(ctx, h.indexKey(), 0, -1).Result()
	}
	return h.client.SMembers(ctx, h.indexKey()).Result()
}

// load fetches documents in batches. Ids whose document vanished are skipped.
func (h *RedisHandler[T, V]) load(ctx context.Context, ids []string, filter *V) ([]*T, error) {
	out := make([]*T, 0, len(ids))
	for start := 0; start < len(ids); start += mgetBatch {
		end := min(start+mgetBatch, len(ids))
		keys := make([]string, 0, end-start)
		for _, id := range ids[start:end] {
			keys = append(keys, h.Key(id))
		}
		values, err := h.client.MGet(ctx, keys...).Result()
		if err != nil {
			return nil, err
		}
		for _, v := range values {
			s, ok := v.(string)
			if !ok {
				continue
			}
			entity := new(T)
			if err := documentCodec.UnmarshalFromString(s, entity); err != nil {
				return nil, err
			}
			if filter == nil || h.match == nil || h.match(entity, filter) {
				out = append(out, entity)
			}
		}
	}
	return out, nil
}

func (h *RedisHandler[T, V]) FindAll(ctx context.Context, filter *V) ([]*T, error) {
	ids, err := h.ids(ctx)
	if err != nil {
		return nil, err
	}
	return h.load(ctx, ids, filter)
}

func (h *RedisHandler[T, V]) FindByScore(ctx context.Context, from, to *int64, filter *V) ([]*T, error) {
	if h.score == nil {
		return nil, errNoScore
	}
	rng := &redis.ZRangeBy{Min: "-inf", Max: "+inf"}
	if from != nil {
		rng.Min = strconv.FormatInt(*from, 10)
	}
	if to != nil {
		rng.Max = strconv.FormatInt(*to, 10)
	}
	ids, err := h.client.ZRangeByScore(ctx, h.indexKey(), rng).Result()
	if err != nil {
		return nil, err
	}
	return h.load(ctx, ids, filter)
}

func (h *RedisHandler[T, V]) FindOne(ctx context.Context, filter *V) (*T, error) {
	items, err := h.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domain.ErrRecordNotFound
	}
	return items[0], nil
}

func (h *RedisHandler[T, V]) Count(ctx context.Context, filter *V) (int64, error) {
	if filter == nil {
		if h.score != nil {
			return h.client.ZCard(ctx, h.indexKey()).Result()
		}
		return h.client.SCard(ctx, h.indexKey()).Result()
	}
	items, err := h.FindAll(ctx, filter)
	return int64(len(items)), err
}

func (h *RedisHandler[T, V]) DeleteByID(ctx context.Context, id string) error {
	n, err := h.DeleteByIDs(ctx, []string{id})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

// DeleteByIDs returns how many documents existed and were removed.
func (h *RedisHandler[T, V]) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var del *redis.IntCmd
	_, err := h.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = h.QueueDelete(ctx, pipe, ids...)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return del.Val(), nil
}

func (h *RedisHandler[T, V]) Ping(ctx context.Context) error {
	return h.client.Ping(ctx).Err()
}
