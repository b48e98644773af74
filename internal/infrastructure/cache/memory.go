// Package cache provides an in-memory ports.Cache used in tests and
// single-process deployments without Redis.
package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value     []byte
	expiresAt time.Time // zero means no expiration
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Memory is a mutex-guarded map with TTL support and an optional janitor
// goroutine that scans for expired entries.
type Memory struct {
	mu      sync.Mutex
	entries map[string]entry

	done chan struct{}
	once sync.Once

	// test seam
	now func() time.Time
}

// NewMemory creates the cache. cleanupEvery <= 0 disables the janitor;
// expired entries are then only dropped lazily on Get.
func NewMemory(cleanupEvery time.Duration) *Memory {
	m := &Memory{
		entries: make(map[string]entry),
		done:    make(chan struct{}),
		now:     time.Now,
	}
	if cleanupEvery > 0 {
		go m.janitor(cleanupEvery)
	}
	return m
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if e.expired(m.now()) {
		delete(m.entries, key)
		return nil, false, nil
	}
	return e.value, true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Close stops the janitor. Safe to call multiple times.
func (m *Memory) Close() {
	m.once.Do(func() { close(m.done) })
}

func (m *Memory) janitor(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case now := <-ticker.C:
			m.mu.Lock()
			for k, e := range m.entries {
				if e.expired(now) {
					delete(m.entries, k)
				}
			}
			m.mu.Unlock()
		}
	}
}
