package services

import (
	"context"
	"errors"
	"sync"
	"time"

	config "github.com/peakhr/console/configs"
	"github.com/peakhr/console/internal/core/domain/listing"
	"github.com/peakhr/console/internal/core/domain/resource"
	"github.com/peakhr/console/internal/core/ports"
	"github.com/sirupsen/logrus"
)

// ListService synchronizes one admin screen with its upstream collection.
// The default view is served from cache instantly when possible, followed by
// a single deferred forced refresh; every other view hits the network with a
// visible loading state. There is no request sequencing or cancellation: when
// loads overlap, the last response to land wins, and the list converges on
// the next successful load.
type ListService struct {
	desc     resource.Descriptor
	api      ports.UpstreamClient
	cache    ports.ListCache
	sessions ports.SessionService
	notifier ports.Notifier
	logger   *logrus.Logger

	refreshDelay   time.Duration
	searchDebounce time.Duration

	mu           sync.Mutex
	state        listing.State
	refreshTimer *time.Timer
	searchTimer  *time.Timer
	stopJanitor  func()
	closed       bool
}

func NewListService(
	desc resource.Descriptor,
	api ports.UpstreamClient,
	cache ports.ListCache,
	sessions ports.SessionService,
	notifier ports.Notifier,
	cfg *config.CacheConfig,
	logger *logrus.Logger,
) *ListService {
	s := &ListService{
		desc:           desc,
		api:            api,
		cache:          cache,
		sessions:       sessions,
		notifier:       notifier,
		logger:         logger,
		refreshDelay:   cfg.RefreshDelay,
		searchDebounce: cfg.SearchDebounce,
		state:          listing.NewState(),
	}
	s.stopJanitor = cache.Housekeep(desc.Key)
	return s
}

func (s *ListService) Load(ctx context.Context, q listing.Query, force bool) error {
	return s.load(ctx, q, force, false)
}

func (s *ListService) Reload(ctx context.Context) error {
	s.mu.Lock()
	q := s.state.Query()
	s.mu.Unlock()
	return s.load(ctx, q, true, false)
}

func (s *ListService) load(ctx context.Context, q listing.Query, force, background bool) error {
	if !force && q.IsDefaultView() {
		if payload, ok := s.cache.Read(ctx, s.desc.Key); ok {
			// Serve stale data instantly, reconcile in the background.
			s.mu.Lock()
			s.applyPayload(payload)
			s.mu.Unlock()
			s.scheduleRefresh(q)
			return nil
		}
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	if background {
		// A background refresh must not flicker the UI into a loading state.
		s.state.Refreshing = true
	} else {
		s.state.Loading = true
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.state.Loading = false
		s.state.Refreshing = false
		s.mu.Unlock()
	}()

	page, err := s.api.List(ctx, s.desc, q)
	if err != nil {
		// Last good list state is preserved on failure.
		return s.fail(ctx, err)
	}

	s.mu.Lock()
	s.state.Items = page.Items
	s.state.CurrentPage = page.CurrentPage
	s.state.TotalPages = page.TotalPages
	s.state.Stats = page.Stats
	s.mu.Unlock()

	if q.IsDefaultView() {
		s.cache.Write(ctx, s.desc.Key, &listing.CachedPayload{
			Items:       page.Items,
			CurrentPage: page.CurrentPage,
			TotalPages:  page.TotalPages,
			Stats:       page.Stats,
		})
	}
	return nil
}

func (s *ListService) applyPayload(p *listing.CachedPayload) {
	s.state.Items = p.Items
	s.state.CurrentPage = p.CurrentPage
	s.state.TotalPages = p.TotalPages
	s.state.Stats = p.Stats
}

func (s *ListService) scheduleRefresh(q listing.Query) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.refreshTimer != nil {
		s.refreshTimer.Stop()
	}
	s.refreshTimer = time.AfterFunc(s.refreshDelay, func() {
		// The mount context is long gone by the time this fires.
		_ = s.load(context.Background(), q, true, true)
	})
}

func (s *ListService) fail(ctx context.Context, err error) error {
	if errors.Is(err, ports.ErrUnauthorized) {
		s.sessions.Expire(ctx)
		return err
	}
	if s.logger != nil {
		s.logger.WithField("resource", s.desc.Path).WithError(err).Error("list load failed")
	}
	if s.notifier != nil {
		s.notifier.Error("Failed to load data. Please try again.")
	}
	return err
}

// SetSearch records every keystroke. Empty terms re-apply the cache-or-fetch
// path synchronously, single characters fetch nothing, and longer terms are
// debounced; a newer keystroke supersedes the pending timer so only the
// latest term is fetched after the quiet period.
func (s *ListService) SetSearch(ctx context.Context, term string) {
	s.mu.Lock()
	s.state.SearchTerm = term
	s.state.ClearSelection()
	if s.searchTimer != nil {
		s.searchTimer.Stop()
		s.searchTimer = nil
	}
	q := listing.Query{
		Page:      1,
		Search:    term,
		Status:    s.state.StatusFilter,
		Secondary: s.state.SecondaryFilter,
	}
	closed := s.closed
	// Arming happens in the same critical section as the stop above, so two
	// interleaved keystrokes can never leave a second live timer behind.
	if !closed && len([]rune(term)) >= 2 {
		s.searchTimer = time.AfterFunc(s.searchDebounce, func() {
			_ = s.load(context.Background(), q, false, false)
		})
	}
	s.mu.Unlock()

	// An empty term re-applies the cache-or-fetch path synchronously; a single
	// character fetches nothing and leaves the displayed list alone.
	if !closed && term == "" {
		_ = s.load(ctx, q, false, false)
	}
}

func (s *ListService) SetStatusFilter(ctx context.Context, v string) error {
	s.mu.Lock()
	s.state.StatusFilter = v
	s.state.ClearSelection()
	q := listing.Query{Page: 1, Search: s.state.SearchTerm, Status: v, Secondary: s.state.SecondaryFilter}
	s.mu.Unlock()
	return s.load(ctx, q, false, false)
}

func (s *ListService) SetSecondaryFilter(ctx context.Context, v string) error {
	s.mu.Lock()
	s.state.SecondaryFilter = v
	s.state.ClearSelection()
	q := listing.Query{Page: 1, Search: s.state.SearchTerm, Status: s.state.StatusFilter, Secondary: v}
	s.mu.Unlock()
	return s.load(ctx, q, false, false)
}

func (s *ListService) SetPage(ctx context.Context, page int) error {
	if page < 1 {
		page = 1
	}
	s.mu.Lock()
	s.state.ClearSelection()
	q := s.state.Query()
	q.Page = page
	s.mu.Unlock()
	return s.load(ctx, q, false, false)
}

func (s *ListService) ToggleSelect(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state.Selection[id]; ok {
		delete(s.state.Selection, id)
	} else {
		s.state.Selection[id] = struct{}{}
	}
}

// SelectAll toggles: if every row on the current page is already selected the
// selection is cleared, otherwise the whole page (and only this page) is
// selected.
func (s *ListService) SelectAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := len(s.state.Items) > 0
	for _, item := range s.state.Items {
		if _, ok := s.state.Selection[item.ID]; !ok {
			all = false
			break
		}
	}
	if all {
		s.state.ClearSelection()
		return
	}
	s.state.ClearSelection()
	for _, item := range s.state.Items {
		s.state.Selection[item.ID] = struct{}{}
	}
}

func (s *ListService) ClearSelection() {
	s.mu.Lock()
	s.state.ClearSelection()
	s.mu.Unlock()
}

func (s *ListService) ApplyPatch(ctx context.Context, id string, mutate func(*resource.Entity)) {
	s.mu.Lock()
	for i := range s.state.Items {
		if s.state.Items[i].ID == id {
			mutate(&s.state.Items[i])
			break
		}
	}
	delete(s.state.Selection, id)
	payload := s.defaultViewPayloadLocked()
	s.mu.Unlock()
	if payload != nil {
		s.cache.Write(ctx, s.desc.Key, payload)
	}
}

func (s *ListService) RemoveLocal(ctx context.Context, id string) {
	s.mu.Lock()
	items := s.state.Items[:0]
	for _, item := range s.state.Items {
		if item.ID != id {
			items = append(items, item)
		}
	}
	s.state.Items = items
	delete(s.state.Selection, id)
	payload := s.defaultViewPayloadLocked()
	s.mu.Unlock()
	if payload != nil {
		s.cache.Write(ctx, s.desc.Key, payload)
	}
}

// defaultViewPayloadLocked returns the payload to rewrite, or nil when the
// current view is not cacheable. Caller holds s.mu.
func (s *ListService) defaultViewPayloadLocked() *listing.CachedPayload {
	if !s.state.Query().IsDefaultView() {
		return nil
	}
	return &listing.CachedPayload{
		Items:       append([]resource.Entity(nil), s.state.Items...),
		CurrentPage: s.state.CurrentPage,
		TotalPages:  s.state.TotalPages,
		Stats:       s.state.Stats,
	}
}

func (s *ListService) SetActionLoading(id string) {
	s.mu.Lock()
	s.state.ActionLoadingID = id
	s.mu.Unlock()
}

func (s *ListService) ClearActionLoading() {
	s.mu.Lock()
	s.state.ActionLoadingID = ""
	s.mu.Unlock()
}

func (s *ListService) SetBulkLoading(v bool) {
	s.mu.Lock()
	s.state.BulkLoading = v
	s.mu.Unlock()
}

func (s *ListService) State() listing.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

func (s *ListService) Close() {
	s.mu.Lock()
	s.closed = true
	if s.refreshTimer != nil {
		s.refreshTimer.Stop()
	}
	if s.searchTimer != nil {
		s.searchTimer.Stop()
	}
	s.mu.Unlock()
	if s.stopJanitor != nil {
		s.stopJanitor()
	}
}

var _ ports.ListSynchronizer = (*ListService)(nil)
