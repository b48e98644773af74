package services

import (
	"context"
	"sync"
	"time"

	"github.com/peakhr/console/internal/core/domain/listing"
	"github.com/peakhr/console/internal/core/domain/resource"
	"github.com/peakhr/console/internal/core/ports"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// FeedService serves the public testimonials feed for the marketing site:
// cache-aside with singleflight coalescing, plus one deferred forced refresh
// whenever cached data was served. A failed fetch falls back to the last
// successfully fetched items when there are any.
type FeedService struct {
	api    ports.UpstreamClient
	cache  ports.ListCache
	delay  time.Duration
	logger *logrus.Logger

	sf singleflight.Group

	mu       sync.Mutex
	timer    *time.Timer
	lastGood []resource.Entity
	closed   bool
}

func NewFeedService(api ports.UpstreamClient, cache ports.ListCache, delay time.Duration, logger *logrus.Logger) *FeedService {
	return &FeedService{api: api, cache: cache, delay: delay, logger: logger}
}

func (s *FeedService) ActiveTestimonials(ctx context.Context) ([]resource.Entity, error) {
	if payload, ok := s.cache.Read(ctx, resource.PublicFeedKey); ok {
		s.scheduleRefresh()
		return payload.Items, nil
	}
	return s.fetch(ctx)
}

func (s *FeedService) fetch(ctx context.Context) ([]resource.Entity, error) {
	v, err, _ := s.sf.Do(resource.PublicFeedKey, func() (any, error) {
		items, err := s.api.ActiveTestimonials(ctx)
		if err != nil {
			return nil, err
		}
		s.cache.Write(ctx, resource.PublicFeedKey, &listing.CachedPayload{
			Items:       items,
			CurrentPage: 1,
			TotalPages:  1,
		})
		s.mu.Lock()
		s.lastGood = items
		s.mu.Unlock()
		return items, nil
	})
	if err != nil {
		// The public page prefers stale testimonials over an empty one.
		s.mu.Lock()
		fallback := s.lastGood
		s.mu.Unlock()
		if len(fallback) > 0 {
			if s.logger != nil {
				s.logger.WithError(err).Warn("public feed fetch failed, serving last good data")
			}
			return fallback, nil
		}
		if s.logger != nil {
			s.logger.WithError(err).Error("public feed fetch failed")
		}
		return nil, err
	}
	return v.([]resource.Entity), nil
}

// scheduleRefresh arms at most one pending refresh at a time.
func (s *FeedService) scheduleRefresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.timer != nil {
		return
	}
	s.timer = time.AfterFunc(s.delay, func() {
		s.mu.Lock()
		s.timer = nil
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return
		}
		if _, err := s.fetch(context.Background()); err != nil && s.logger != nil {
			s.logger.WithError(err).Warn("public feed background refresh failed")
		}
	})
}

func (s *FeedService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

var _ ports.Feed = (*FeedService)(nil)
