// Package listcache implements the TTL payload store for admin list pages and
// the public feed on top of a byte-level ports.Cache backend.
package listcache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/peakhr/console/internal/core/domain/listing"
	"github.com/peakhr/console/internal/core/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

var (
	cacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listcache_hits_total",
			Help: "List cache reads served from a valid entry",
		},
		[]string{"key"},
	)
	cacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listcache_misses_total",
			Help: "List cache reads that fell through to the network",
		},
		[]string{"key"},
	)
	cacheEvictions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listcache_evictions_total",
			Help: "List cache evictions by reason",
		},
		[]string{"key", "reason"},
	)
)

func init() {
	prometheus.MustRegister(cacheHits)
	prometheus.MustRegister(cacheMisses)
	prometheus.MustRegister(cacheEvictions)
}

// envelope is the persisted layout: the payload plus the write timestamp and
// the freshness window that was in force when it was written.
type envelope struct {
	Data      *listing.CachedPayload `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Expiry    time.Duration          `json:"expiry"`
}

// Store implements ports.ListCache. Write failures are swallowed and logged;
// a missing entry is always a legal, recoverable state.
type Store struct {
	backend ports.Cache
	ttl     time.Duration
	maxAge  time.Duration
	logger  *logrus.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer

	// test seam
	now func() time.Time
}

func NewStore(backend ports.Cache, ttl, maxAge time.Duration, logger *logrus.Logger) *Store {
	return &Store{
		backend: backend,
		ttl:     ttl,
		maxAge:  maxAge,
		logger:  logger,
		timers:  make(map[string]*time.Timer),
		now:     time.Now,
	}
}

func (s *Store) Write(ctx context.Context, key string, payload *listing.CachedPayload) {
	env := envelope{Data: payload, Timestamp: s.now(), Expiry: s.ttl}
	b, err := json.Marshal(env)
	if err != nil {
		if s.logger != nil {
			s.logger.WithField("key", key).WithError(err).Warn("list cache marshal failed")
		}
		return
	}
	// The backend TTL is the absolute age bound; freshness within it is
	// enforced by the envelope on read.
	if err := s.backend.Set(ctx, key, b, s.maxAge); err != nil {
		if s.logger != nil {
			s.logger.WithField("key", key).WithError(err).Warn("list cache write failed")
		}
	}
}

func (s *Store) Read(ctx context.Context, key string) (*listing.CachedPayload, bool) {
	b, ok, err := s.backend.Get(ctx, key)
	if err != nil || !ok {
		if err != nil && s.logger != nil {
			s.logger.WithField("key", key).WithError(err).Warn("list cache read failed")
		}
		cacheMisses.WithLabelValues(key).Inc()
		return nil, false
	}
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil || env.Data == nil {
		s.evict(ctx, key, "corrupt")
		cacheMisses.WithLabelValues(key).Inc()
		return nil, false
	}
	if s.now().Sub(env.Timestamp) >= env.Expiry {
		s.evict(ctx, key, "expired")
		cacheMisses.WithLabelValues(key).Inc()
		return nil, false
	}
	cacheHits.WithLabelValues(key).Inc()
	return env.Data, true
}

func (s *Store) Evict(ctx context.Context, key string) {
	s.evict(ctx, key, "explicit")
}

func (s *Store) evict(ctx context.Context, key, reason string) {
	if err := s.backend.Delete(ctx, key); err != nil {
		if s.logger != nil {
			s.logger.WithField("key", key).WithError(err).Warn("list cache evict failed")
		}
		return
	}
	cacheEvictions.WithLabelValues(key, reason).Inc()
}

// Housekeep evicts key after the absolute age bound regardless of read
// activity. Re-arming an already scheduled key restarts the clock.
func (s *Store) Housekeep(key string) (stop func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[key]; ok {
		t.Stop()
	}
	t := time.AfterFunc(s.maxAge, func() {
		s.evict(context.Background(), key, "housekeeping")
		s.mu.Lock()
		delete(s.timers, key)
		s.mu.Unlock()
	})
	s.timers[key] = t
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if cur, ok := s.timers[key]; ok && cur == t {
			t.Stop()
			delete(s.timers, key)
		}
	}
}

var _ ports.ListCache = (*Store)(nil)
