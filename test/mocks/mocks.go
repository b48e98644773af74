package mocks

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/peakhr/console/internal/core/domain/listing"
	"github.com/peakhr/console/internal/core/domain/resource"
	"github.com/peakhr/console/internal/core/ports"
)

// UpstreamClientMock is a lightweight mock for ports.UpstreamClient.
type UpstreamClientMock struct {
	ListFn               func(ctx context.Context, d resource.Descriptor, q listing.Query) (*resource.Page, error)
	CreateFn             func(ctx context.Context, d resource.Descriptor, draft json.RawMessage) error
	UpdateFn             func(ctx context.Context, d resource.Descriptor, id string, draft json.RawMessage) error
	SetStatusFn          func(ctx context.Context, d resource.Descriptor, id string, active bool) error
	DeleteFn             func(ctx context.Context, d resource.Descriptor, id string) error
	BulkFn               func(ctx context.Context, d resource.Descriptor, action string, ids []string) error
	ActiveTestimonialsFn func(ctx context.Context) ([]resource.Entity, error)
}

func (m *UpstreamClientMock) List(ctx context.Context, d resource.Descriptor, q listing.Query) (*resource.Page, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, d, q)
	}
	return &resource.Page{CurrentPage: 1, TotalPages: 1}, nil
}
func (m *UpstreamClientMock) Create(ctx context.Context, d resource.Descriptor, draft json.RawMessage) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, d, draft)
	}
	return nil
}
func (m *UpstreamClientMock) Update(ctx context.Context, d resource.Descriptor, id string, draft json.RawMessage) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, d, id, draft)
	}
	return nil
}
func (m *UpstreamClientMock) SetStatus(ctx context.Context, d resource.Descriptor, id string, active bool) error {
	if m.SetStatusFn != nil {
		return m.SetStatusFn(ctx, d, id, active)
	}
	return nil
}
func (m *UpstreamClientMock) Delete(ctx context.Context, d resource.Descriptor, id string) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, d, id)
	}
	return nil
}
func (m *UpstreamClientMock) Bulk(ctx context.Context, d resource.Descriptor, action string, ids []string) error {
	if m.BulkFn != nil {
		return m.BulkFn(ctx, d, action, ids)
	}
	return nil
}
func (m *UpstreamClientMock) ActiveTestimonials(ctx context.Context) ([]resource.Entity, error) {
	if m.ActiveTestimonialsFn != nil {
		return m.ActiveTestimonialsFn(ctx)
	}
	return nil, fmt.Errorf("not configured")
}

// ListCacheMock implements ports.ListCache with overridable behavior.
type ListCacheMock struct {
	WriteFn     func(ctx context.Context, key string, payload *listing.CachedPayload)
	ReadFn      func(ctx context.Context, key string) (*listing.CachedPayload, bool)
	EvictFn     func(ctx context.Context, key string)
	HousekeepFn func(key string) func()
}

func (m *ListCacheMock) Write(ctx context.Context, key string, payload *listing.CachedPayload) {
	if m.WriteFn != nil {
		m.WriteFn(ctx, key, payload)
	}
}
func (m *ListCacheMock) Read(ctx context.Context, key string) (*listing.CachedPayload, bool) {
	if m.ReadFn != nil {
		return m.ReadFn(ctx, key)
	}
	return nil, false
}
func (m *ListCacheMock) Evict(ctx context.Context, key string) {
	if m.EvictFn != nil {
		m.EvictFn(ctx, key)
	}
}
func (m *ListCacheMock) Housekeep(key string) func() {
	if m.HousekeepFn != nil {
		return m.HousekeepFn(key)
	}
	return func() {}
}

// SessionServiceMock is a lightweight mock for ports.SessionService.
type SessionServiceMock struct {
	TokenFn  func(ctx context.Context) (string, bool)
	SignInFn func(ctx context.Context, token, adminData, adminType string) error
	ExpireFn func(ctx context.Context)

	mu      sync.Mutex
	Expired int
}

func (m *SessionServiceMock) Token(ctx context.Context) (string, bool) {
	if m.TokenFn != nil {
		return m.TokenFn(ctx)
	}
	return "token", true
}
func (m *SessionServiceMock) SignIn(ctx context.Context, token, adminData, adminType string) error {
	if m.SignInFn != nil {
		return m.SignInFn(ctx, token, adminData, adminType)
	}
	return nil
}
func (m *SessionServiceMock) Expire(ctx context.Context) {
	m.mu.Lock()
	m.Expired++
	m.mu.Unlock()
	if m.ExpireFn != nil {
		m.ExpireFn(ctx)
	}
}
func (m *SessionServiceMock) ExpiredCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Expired
}

// NotifierMock records toasts; safe for concurrent use because background
// refresh timers may notify from another goroutine.
type NotifierMock struct {
	mu        sync.Mutex
	Successes []string
	Errors    []string
}

func (m *NotifierMock) Success(message string) {
	m.mu.Lock()
	m.Successes = append(m.Successes, message)
	m.mu.Unlock()
}
func (m *NotifierMock) Error(message string) {
	m.mu.Lock()
	m.Errors = append(m.Errors, message)
	m.mu.Unlock()
}
func (m *NotifierMock) ErrorCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Errors)
}
func (m *NotifierMock) LastError() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Errors) == 0 {
		return ""
	}
	return m.Errors[len(m.Errors)-1]
}

// ConfirmerMock confirms everything unless told otherwise.
type ConfirmerMock struct {
	ConfirmFn func(ctx context.Context, message string) bool
	Asked     []string
}

func (m *ConfirmerMock) Confirm(ctx context.Context, message string) bool {
	m.Asked = append(m.Asked, message)
	if m.ConfirmFn != nil {
		return m.ConfirmFn(ctx, message)
	}
	return true
}

// NavigatorMock records login redirects.
type NavigatorMock struct {
	mu        sync.Mutex
	Redirects int
}

func (m *NavigatorMock) RedirectToLogin() {
	m.mu.Lock()
	m.Redirects++
	m.mu.Unlock()
}
func (m *NavigatorMock) RedirectCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Redirects
}

// FeedMock implements ports.Feed.
type FeedMock struct {
	ActiveTestimonialsFn func(ctx context.Context) ([]resource.Entity, error)
}

func (m *FeedMock) ActiveTestimonials(ctx context.Context) ([]resource.Entity, error) {
	if m.ActiveTestimonialsFn != nil {
		return m.ActiveTestimonialsFn(ctx)
	}
	return nil, nil
}
func (m *FeedMock) Close() {}

// Entity builds a test entity from a raw document.
func Entity(doc string) resource.Entity {
	var e resource.Entity
	if err := json.Unmarshal([]byte(doc), &e); err != nil {
		panic(err)
	}
	return e
}

// Compile-time interface checks.
var _ ports.UpstreamClient = (*UpstreamClientMock)(nil)
var _ ports.ListCache = (*ListCacheMock)(nil)
var _ ports.SessionService = (*SessionServiceMock)(nil)
var _ ports.Notifier = (*NotifierMock)(nil)
var _ ports.Confirmer = (*ConfirmerMock)(nil)
var _ ports.Navigator = (*NavigatorMock)(nil)
var _ ports.Feed = (*FeedMock)(nil)
