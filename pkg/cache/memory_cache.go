package cache

import (
	"context"
	"path"
	"sync"
	"time"
)

// MemoryCache is a process-local Client for tests and single node dev runs.
type MemoryCache struct {
	mu     sync.RWMutex
	data   map[string]*memoryItem
	config *Config
	logger Logger
	now    func() time.Time
	stopCh chan struct{}
	once   sync.Once
}

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

func (i *memoryItem) expired(now time.Time) bool {
	return !i.expiresAt.IsZero() && now.After(i.expiresAt)
}

func NewMemoryCache(config *Config, logger Logger) *MemoryCache {
	if config.DefaultTTL == 0 {
		config.DefaultTTL = 5 * time.Minute
	}
	c := &MemoryCache{
		data:   make(map[string]*memoryItem),
		config: config,
		logger: logger,
		now:    time.Now,
		stopCh: make(chan struct{}),
	}
	go c.cleanupExpired()
	return c
}

func (m *MemoryCache) cleanupExpired() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.mu.Lock()
			now := m.now()
			for k, item := range m.data {
				if item.expired(now) {
					delete(m.data, k)
				}
			}
			m.mu.Unlock()
		case <-m.stopCh:
			return
		}
	}
}

func (m *MemoryCache) key(k string) string {
	return prefixed(m.config.KeyPrefix, k)
}

func (m *MemoryCache) expiry(ttl time.Duration) time.Time {
	if ttl == 0 {
		ttl = m.config.DefaultTTL
	}
	if ttl < 0 {
		return time.Time{}
	}
	return m.now().Add(ttl)
}

// live returns the item under lock or nil when missing or expired.
func (m *MemoryCache) live(full string) *memoryItem {
	item, ok := m.data[full]
	if !ok || item.expired(m.now()) {
		return nil
	}
	return item
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item := m.live(m.key(key))
	if item == nil {
		return nil, ErrKeyNotFound
	}
	return append([]byte(nil), item.value...), nil
}

func (m *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[m.key(key)] = &memoryItem{
		value:     append([]byte(nil), value...),
		expiresAt: m.expiry(ttl),
	}
	return nil
}

func (m *MemoryCache) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, m.key(k))
	}
	return nil
}

func (m *MemoryCache) Exists(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.live(m.key(key)) != nil, nil
}

// DeletePattern uses path.Match, which agrees with redis globs for the
// '*', '?' and '[...]' forms used here.
func (m *MemoryCache) DeletePattern(_ context.Context, pattern string) (int64, error) {
	full := m.key(pattern)
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted int64
	for k := range m.data {
		ok, err := path.Match(full, k)
		if err != nil {
			return deleted, &Error{Operation: "delete_pattern", Key: pattern, Err: err}
		}
		if ok {
			delete(m.data, k)
			deleted++
		}
	}
	return deleted, nil
}

func (m *MemoryCache) Increment(_ context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	full := m.key(key)
	m.mu.Lock()
	defer m.mu.Unlock()

	item := m.live(full)
	var current int64
	if item == nil {
		item = &memoryItem{expiresAt: m.expiry(ttl)}
		m.data[full] = item
	} else if err := json.Unmarshal(item.value, &current); err != nil {
		return 0, &Error{Operation: "increment", Key: key, Err: err}
	}
	current += delta
	data, err := json.Marshal(current)
	if err != nil {
		return 0, &Error{Operation: "increment", Key: key, Err: err}
	}
	item.value = data
	return current, nil
}

func (m *MemoryCache) GetTTL(_ context.Context, key string) (time.Duration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item := m.live(m.key(key))
	if item == nil {
		return 0, ErrKeyNotFound
	}
	if item.expiresAt.IsZero() {
		return -1, nil
	}
	return item.expiresAt.Sub(m.now()), nil
}

func (m *MemoryCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := marshalJSON(key, value)
	if err != nil {
		return err
	}
	return m.Set(ctx, key, data, ttl)
}

func (m *MemoryCache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := m.Get(ctx, key)
	if err != nil {
		return err
	}
	return unmarshalJSON(key, data, dest)
}

func (m *MemoryCache) Ping(context.Context) error {
	return nil
}

func (m *MemoryCache) Close() error {
	m.once.Do(func() { close(m.stopCh) })
	return nil
}
