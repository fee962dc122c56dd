package cache

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// memoryClient implementa Client sobre go-cache.
// go-cache es thread-safe por operación; mu serializa las operaciones compuestas (Take).
type memoryClient struct {
	mu     sync.Mutex
	c      *gocache.Cache
	prefix string
	hits   atomic.Int64
	misses atomic.Int64
}

// NewMemory crea un cliente de cache en memoria.
func NewMemory(prefix string, defaultTTL time.Duration) *memoryClient {
	if defaultTTL <= 0 {
		defaultTTL = gocache.NoExpiration
	}
	return &memoryClient{
		c:      gocache.New(defaultTTL, time.Minute),
		prefix: prefix,
	}
}

func (m *memoryClient) key(k string) string { return prefixed(m.prefix, k) }

func (m *memoryClient) Get(ctx context.Context, key string) (string, error) {
	v, ok := m.c.Get(m.key(key))
	if !ok {
		m.misses.Add(1)
		return "", ErrNotFound
	}
	m.hits.Add(1)
	s, _ := v.(string)
	return s, nil
}

func (m *memoryClient) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl == 0 {
		ttl = gocache.NoExpiration
	}
	m.mu.Lock()
	m.c.Set(m.key(key), value, ttl)
	m.mu.Unlock()
	return nil
}

func (m *memoryClient) Take(ctx context.Context, key string) (string, error) {
	k := m.key(key)

	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.c.Get(k)
	if !ok {
		m.misses.Add(1)
		return "", ErrNotFound
	}
	m.c.Delete(k)
	m.hits.Add(1)
	s, _ := v.(string)
	return s, nil
}

func (m *memoryClient) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	m.c.Delete(m.key(key))
	m.mu.Unlock()
	return nil
}

func (m *memoryClient) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	full := m.key(prefix)

	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for k := range m.c.Items() {
		if strings.HasPrefix(k, full) {
			m.c.Delete(k)
			n++
		}
	}
	return n, nil
}

func (m *memoryClient) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := m.c.Get(m.key(key))
	return ok, nil
}

func (m *memoryClient) Ping(ctx context.Context) error { return nil }

func (m *memoryClient) Close() error {
	m.c.Flush()
	return nil
}

func (m *memoryClient) Stats(ctx context.Context) (Stats, error) {
	return Stats{
		Driver: "memory",
		Keys:   int64(m.c.ItemCount()),
		Hits:   m.hits.Load(),
		Misses: m.misses.Load(),
	}, nil
}
