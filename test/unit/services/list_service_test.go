package services_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	config "github.com/peakhr/console/configs"
	impl "github.com/peakhr/console/internal/application/services"
	"github.com/peakhr/console/internal/core/domain/listing"
	"github.com/peakhr/console/internal/core/domain/resource"
	"github.com/peakhr/console/internal/core/ports"
	tmocks "github.com/peakhr/console/test/mocks"
)

func testCacheConfig() *config.CacheConfig {
	return &config.CacheConfig{
		AdminTTL:       5 * time.Minute,
		FeedTTL:        10 * time.Minute,
		MaxEntryAge:    30 * time.Minute,
		RefreshDelay:   20 * time.Millisecond,
		FeedDelay:      20 * time.Millisecond,
		SearchDebounce: 30 * time.Millisecond,
	}
}

func testPage(ids ...string) *resource.Page {
	p := &resource.Page{CurrentPage: 1, TotalPages: 1, Stats: resource.Stats{"total": float64(len(ids))}}
	for _, id := range ids {
		p.Items = append(p.Items, tmocks.Entity(`{"id":"`+id+`","isActive":true,"title":"x"}`))
	}
	return p
}

func TestLoad_CacheMiss_FetchesWritesAndTogglesLoading(t *testing.T) {
	var loadingDuringFetch bool
	var writes int32
	cacheMock := &tmocks.ListCacheMock{
		WriteFn: func(ctx context.Context, key string, payload *listing.CachedPayload) {
			atomic.AddInt32(&writes, 1)
			if key != resource.Services.Key {
				t.Errorf("unexpected cache key %q", key)
			}
			if len(payload.Items) != 2 {
				t.Errorf("expected 2 cached items, got %d", len(payload.Items))
			}
		},
	}
	api := &tmocks.UpstreamClientMock{}
	svc := impl.NewListService(resource.Services, api, cacheMock, &tmocks.SessionServiceMock{}, &tmocks.NotifierMock{}, testCacheConfig(), nil)
	defer svc.Close()
	api.ListFn = func(ctx context.Context, d resource.Descriptor, q listing.Query) (*resource.Page, error) {
		loadingDuringFetch = svc.State().Loading
		return testPage("a", "b"), nil
	}

	if err := svc.Load(context.Background(), listing.Query{Page: 1}, false); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	st := svc.State()
	if !loadingDuringFetch {
		t.Fatalf("loading flag was not set during the fetch")
	}
	if st.Loading {
		t.Fatalf("loading flag not cleared after the fetch")
	}
	if len(st.Items) != 2 || st.Stats["total"] != 2 {
		t.Fatalf("state not populated from response: %+v", st)
	}
	if atomic.LoadInt32(&writes) != 1 {
		t.Fatalf("expected exactly one cache write, got %d", writes)
	}
}

func TestLoad_CacheHit_ServesSynchronouslyThenOneBackgroundRefresh(t *testing.T) {
	var fetches int32
	cached := &listing.CachedPayload{
		Items:       testPage("a", "b", "c").Items,
		CurrentPage: 1,
		TotalPages:  3,
		Stats:       resource.Stats{"total": 15},
	}
	cacheMock := &tmocks.ListCacheMock{
		ReadFn: func(ctx context.Context, key string) (*listing.CachedPayload, bool) {
			return cached, true
		},
	}
	api := &tmocks.UpstreamClientMock{
		ListFn: func(ctx context.Context, d resource.Descriptor, q listing.Query) (*resource.Page, error) {
			atomic.AddInt32(&fetches, 1)
			return testPage("a", "b", "c"), nil
		},
	}
	svc := impl.NewListService(resource.Services, api, cacheMock, &tmocks.SessionServiceMock{}, &tmocks.NotifierMock{}, testCacheConfig(), nil)
	defer svc.Close()

	if err := svc.Load(context.Background(), listing.Query{Page: 1}, false); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	st := svc.State()
	if st.Loading {
		t.Fatalf("loading flag must never rise on a cache hit")
	}
	if len(st.Items) != 3 || st.TotalPages != 3 {
		t.Fatalf("state not populated from cache: %+v", st)
	}
	if n := atomic.LoadInt32(&fetches); n != 0 {
		t.Fatalf("cache hit must not fetch synchronously, got %d fetches", n)
	}

	time.Sleep(100 * time.Millisecond)
	if n := atomic.LoadInt32(&fetches); n != 1 {
		t.Fatalf("expected exactly one background refresh, got %d", n)
	}
}

func TestLoad_NonDefaultView_NeverWritesCache(t *testing.T) {
	var writes int32
	cacheMock := &tmocks.ListCacheMock{
		WriteFn: func(ctx context.Context, key string, payload *listing.CachedPayload) {
			atomic.AddInt32(&writes, 1)
		},
	}
	api := &tmocks.UpstreamClientMock{
		ListFn: func(ctx context.Context, d resource.Descriptor, q listing.Query) (*resource.Page, error) {
			return testPage("a"), nil
		},
	}
	svc := impl.NewListService(resource.Services, api, cacheMock, &tmocks.SessionServiceMock{}, &tmocks.NotifierMock{}, testCacheConfig(), nil)
	defer svc.Close()

	queries := []listing.Query{
		{Page: 2},
		{Page: 1, Search: "plumbing"},
		{Page: 1, Status: "active"},
		{Page: 1, Secondary: "tech"},
	}
	for _, q := range queries {
		if err := svc.Load(context.Background(), q, false); err != nil {
			t.Fatalf("load %+v failed: %v", q, err)
		}
	}
	if atomic.LoadInt32(&writes) != 0 {
		t.Fatalf("non-default views must not be cached, got %d writes", writes)
	}
}

func TestLoad_FailureKeepsLastGoodStateAndNotifies(t *testing.T) {
	notifier := &tmocks.NotifierMock{}
	api := &tmocks.UpstreamClientMock{}
	svc := impl.NewListService(resource.Services, api, &tmocks.ListCacheMock{}, &tmocks.SessionServiceMock{}, notifier, testCacheConfig(), nil)
	defer svc.Close()

	api.ListFn = func(ctx context.Context, d resource.Descriptor, q listing.Query) (*resource.Page, error) {
		return testPage("a", "b"), nil
	}
	if err := svc.Load(context.Background(), listing.Query{Page: 1}, true); err != nil {
		t.Fatalf("seed load failed: %v", err)
	}

	api.ListFn = func(ctx context.Context, d resource.Descriptor, q listing.Query) (*resource.Page, error) {
		return nil, errors.New("boom")
	}
	if err := svc.Load(context.Background(), listing.Query{Page: 1}, true); err == nil {
		t.Fatalf("expected load error")
	}

	st := svc.State()
	if len(st.Items) != 2 {
		t.Fatalf("failed refresh must not clear the list, got %d items", len(st.Items))
	}
	if st.Loading {
		t.Fatalf("loading flag not cleared on error")
	}
	if notifier.ErrorCount() != 1 {
		t.Fatalf("expected one error toast, got %d", notifier.ErrorCount())
	}
}

func TestLoad_UnauthorizedExpiresSessionWithoutToast(t *testing.T) {
	notifier := &tmocks.NotifierMock{}
	sessions := &tmocks.SessionServiceMock{}
	api := &tmocks.UpstreamClientMock{
		ListFn: func(ctx context.Context, d resource.Descriptor, q listing.Query) (*resource.Page, error) {
			return nil, ports.ErrUnauthorized
		},
	}
	svc := impl.NewListService(resource.Services, api, &tmocks.ListCacheMock{}, sessions, notifier, testCacheConfig(), nil)
	defer svc.Close()

	if err := svc.Load(context.Background(), listing.Query{Page: 1}, true); err == nil {
		t.Fatalf("expected unauthorized error")
	}
	if sessions.ExpiredCount() != 1 {
		t.Fatalf("expected session expiry, got %d", sessions.ExpiredCount())
	}
	if notifier.ErrorCount() != 0 {
		t.Fatalf("401 must never surface as a toast")
	}
}

func TestSelectAll_IdempotentToggle(t *testing.T) {
	api := &tmocks.UpstreamClientMock{
		ListFn: func(ctx context.Context, d resource.Descriptor, q listing.Query) (*resource.Page, error) {
			return testPage("a", "b", "c"), nil
		},
	}
	svc := impl.NewListService(resource.Services, api, &tmocks.ListCacheMock{}, &tmocks.SessionServiceMock{}, &tmocks.NotifierMock{}, testCacheConfig(), nil)
	defer svc.Close()
	if err := svc.Load(context.Background(), listing.Query{Page: 1}, true); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	svc.ToggleSelect("b")
	svc.SelectAll()
	if n := len(svc.State().Selection); n != 3 {
		t.Fatalf("expected full page selected, got %d", n)
	}
	svc.SelectAll()
	if n := len(svc.State().Selection); n != 0 {
		t.Fatalf("second selectAll must clear, got %d", n)
	}
	svc.SelectAll()
	svc.SelectAll()
	if n := len(svc.State().Selection); n != 0 {
		t.Fatalf("double selectAll is not idempotent, got %d selected", n)
	}
}

func TestSetSearch_DebounceSupersedesOlderKeystrokes(t *testing.T) {
	var mu sync.Mutex
	var searched []string
	api := &tmocks.UpstreamClientMock{
		ListFn: func(ctx context.Context, d resource.Descriptor, q listing.Query) (*resource.Page, error) {
			mu.Lock()
			searched = append(searched, q.Search)
			mu.Unlock()
			return testPage("a"), nil
		},
	}
	svc := impl.NewListService(resource.Services, api, &tmocks.ListCacheMock{}, &tmocks.SessionServiceMock{}, &tmocks.NotifierMock{}, testCacheConfig(), nil)
	defer svc.Close()

	// Two keystrokes inside the quiet period: only the newest term fetches.
	svc.SetSearch(context.Background(), "ab")
	svc.SetSearch(context.Background(), "abc")
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(searched) != 1 || searched[0] != "abc" {
		t.Fatalf("expected a single fetch for the newest term, got %v", searched)
	}
}

func TestSetSearch_ConcurrentKeystrokesLeaveOneLiveTimer(t *testing.T) {
	var fetches int32
	api := &tmocks.UpstreamClientMock{
		ListFn: func(ctx context.Context, d resource.Descriptor, q listing.Query) (*resource.Page, error) {
			atomic.AddInt32(&fetches, 1)
			return testPage("a"), nil
		},
	}
	svc := impl.NewListService(resource.Services, api, &tmocks.ListCacheMock{}, &tmocks.SessionServiceMock{}, &tmocks.NotifierMock{}, testCacheConfig(), nil)
	defer svc.Close()

	terms := []string{"al", "alp", "alph", "alpha", "alphab", "alphabe", "alphabet"}
	var wg sync.WaitGroup
	for _, term := range terms {
		wg.Add(1)
		go func(term string) {
			defer wg.Done()
			svc.SetSearch(context.Background(), term)
		}(term)
	}
	wg.Wait()
	time.Sleep(100 * time.Millisecond)

	if n := atomic.LoadInt32(&fetches); n != 1 {
		t.Fatalf("every keystroke but the survivor must be superseded, got %d fetches", n)
	}
}

func TestSetSearch_SingleCharacterFetchesNothing(t *testing.T) {
	var fetches int32
	api := &tmocks.UpstreamClientMock{
		ListFn: func(ctx context.Context, d resource.Descriptor, q listing.Query) (*resource.Page, error) {
			atomic.AddInt32(&fetches, 1)
			return testPage("a"), nil
		},
	}
	svc := impl.NewListService(resource.Services, api, &tmocks.ListCacheMock{}, &tmocks.SessionServiceMock{}, &tmocks.NotifierMock{}, testCacheConfig(), nil)
	defer svc.Close()

	svc.SetSearch(context.Background(), "a")
	time.Sleep(80 * time.Millisecond)

	if atomic.LoadInt32(&fetches) != 0 {
		t.Fatalf("single-character search must not fetch")
	}
	if svc.State().SearchTerm != "a" {
		t.Fatalf("search term not recorded")
	}
}

func TestSetSearch_ClearsSelectionImmediately(t *testing.T) {
	api := &tmocks.UpstreamClientMock{
		ListFn: func(ctx context.Context, d resource.Descriptor, q listing.Query) (*resource.Page, error) {
			return testPage("a", "b"), nil
		},
	}
	svc := impl.NewListService(resource.Services, api, &tmocks.ListCacheMock{}, &tmocks.SessionServiceMock{}, &tmocks.NotifierMock{}, testCacheConfig(), nil)
	defer svc.Close()
	if err := svc.Load(context.Background(), listing.Query{Page: 1}, true); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	svc.ToggleSelect("a")

	svc.SetSearch(context.Background(), "x")
	if len(svc.State().Selection) != 0 {
		t.Fatalf("search keystroke must clear the selection")
	}
}

func TestSetSearch_EmptyTermReappliesCachePath(t *testing.T) {
	var reads int32
	cacheMock := &tmocks.ListCacheMock{
		ReadFn: func(ctx context.Context, key string) (*listing.CachedPayload, bool) {
			atomic.AddInt32(&reads, 1)
			return &listing.CachedPayload{Items: testPage("a").Items, CurrentPage: 1, TotalPages: 1}, true
		},
	}
	svc := impl.NewListService(resource.Services, &tmocks.UpstreamClientMock{}, cacheMock, &tmocks.SessionServiceMock{}, &tmocks.NotifierMock{}, testCacheConfig(), nil)
	defer svc.Close()

	svc.SetSearch(context.Background(), "")
	if atomic.LoadInt32(&reads) != 1 {
		t.Fatalf("empty search must re-apply the cache-or-fetch path synchronously")
	}
	if len(svc.State().Items) != 1 {
		t.Fatalf("state not populated from cache")
	}
}

func TestSetStatusFilter_ResetsPageAndClearsSelection(t *testing.T) {
	var mu sync.Mutex
	var last listing.Query
	api := &tmocks.UpstreamClientMock{
		ListFn: func(ctx context.Context, d resource.Descriptor, q listing.Query) (*resource.Page, error) {
			mu.Lock()
			last = q
			mu.Unlock()
			p := testPage("a", "b")
			p.CurrentPage = q.Page
			p.TotalPages = 5
			return p, nil
		},
	}
	svc := impl.NewListService(resource.Services, api, &tmocks.ListCacheMock{}, &tmocks.SessionServiceMock{}, &tmocks.NotifierMock{}, testCacheConfig(), nil)
	defer svc.Close()

	if err := svc.SetPage(context.Background(), 3); err != nil {
		t.Fatalf("page change failed: %v", err)
	}
	svc.ToggleSelect("a")

	if err := svc.SetStatusFilter(context.Background(), "inactive"); err != nil {
		t.Fatalf("filter change failed: %v", err)
	}

	mu.Lock()
	q := last
	mu.Unlock()
	if q.Page != 1 || q.Status != "inactive" {
		t.Fatalf("filter change must reset to page 1, got %+v", q)
	}
	if len(svc.State().Selection) != 0 {
		t.Fatalf("filter change must clear the selection")
	}
}

func TestSetPage_PreservesFilters(t *testing.T) {
	var mu sync.Mutex
	var last listing.Query
	api := &tmocks.UpstreamClientMock{
		ListFn: func(ctx context.Context, d resource.Descriptor, q listing.Query) (*resource.Page, error) {
			mu.Lock()
			last = q
			mu.Unlock()
			p := testPage("a")
			p.CurrentPage = q.Page
			p.TotalPages = 5
			return p, nil
		},
	}
	svc := impl.NewListService(resource.Testimonials, api, &tmocks.ListCacheMock{}, &tmocks.SessionServiceMock{}, &tmocks.NotifierMock{}, testCacheConfig(), nil)
	defer svc.Close()

	if err := svc.SetSecondaryFilter(context.Background(), "tech"); err != nil {
		t.Fatalf("filter change failed: %v", err)
	}
	if err := svc.SetPage(context.Background(), 4); err != nil {
		t.Fatalf("page change failed: %v", err)
	}

	mu.Lock()
	q := last
	mu.Unlock()
	if q.Page != 4 || q.Secondary != "tech" {
		t.Fatalf("page change must preserve filters, got %+v", q)
	}
}
