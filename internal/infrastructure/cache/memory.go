// Package cache provides a small in-process TTL cache used in front of read-heavy
// catalog and dashboard queries.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/moviestream/streaming-api/internal/pkg/metrics"
)

const DefaultSweepInterval = time.Minute

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Memory is a map guarded by an RWMutex. Expired entries are invisible to Get
// and removed by Sweep.
type Memory[V any] struct {
	name string
	ttl  time.Duration
	now  func() time.Time

	mu    sync.RWMutex
	items map[string]entry[V]
}

// NewMemory creates a cache whose entries live for ttl. name is used as the
// metrics label.
func NewMemory[V any](name string, ttl time.Duration) *Memory[V] {
	return &Memory[V]{
		name:  name,
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]entry[V]),
	}
}

func (m *Memory[V]) Get(key string) (V, bool) {
	m.mu.RLock()
	e, ok := m.items[key]
	m.mu.RUnlock()

	if !ok || !m.now().Before(e.expiresAt) {
		metrics.CacheLookupsTotal.WithLabelValues(m.name, "miss").Inc()
		var zero V
		return zero, false
	}
	metrics.CacheLookupsTotal.WithLabelValues(m.name, "hit").Inc()
	return e.value, true
}

func (m *Memory[V]) Set(key string, value V) {
	m.mu.Lock()
	m.items[key] = entry[V]{value: value, expiresAt: m.now().Add(m.ttl)}
	m.mu.Unlock()
}

func (m *Memory[V]) Delete(key string) {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
}

func (m *Memory[V]) Purge() {
	m.mu.Lock()
	clear(m.items)
	m.mu.Unlock()
}

func (m *Memory[V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Sweep removes expired entries and returns how many were dropped.
func (m *Memory[V]) Sweep() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for k, e := range m.items {
		if !now.Before(e.expiresAt) {
			delete(m.items, k)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is cancelled. Call it in its own goroutine.
func (m *Memory[V]) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
