package ports

import (
	"context"
	"encoding/json"

	"github.com/peakhr/console/internal/core/domain/listing"
	"github.com/peakhr/console/internal/core/domain/resource"
)

// ListSynchronizer produces the list an admin screen currently shows, serving
// cached data instantly where possible and keeping server truth eventually
// authoritative.
type ListSynchronizer interface {
	// Load fetches (or serves from cache) the page described by q. force
	// bypasses the cache and always hits the network.
	Load(ctx context.Context, q listing.Query, force bool) error
	// Reload issues a forced load at the current query.
	Reload(ctx context.Context) error

	SetSearch(ctx context.Context, term string)
	SetStatusFilter(ctx context.Context, v string) error
	SetSecondaryFilter(ctx context.Context, v string) error
	SetPage(ctx context.Context, page int) error

	ToggleSelect(id string)
	SelectAll()
	ClearSelection()

	// ApplyPatch mutates the matching in-memory item in place, drops its id
	// from the selection, and rewrites the cache when the current view is the
	// default view. No network call is made.
	ApplyPatch(ctx context.Context, id string, mutate func(*resource.Entity))
	// RemoveLocal removes the item from the in-memory list and selection,
	// rewriting the cache under the same default-view rule.
	RemoveLocal(ctx context.Context, id string)

	SetActionLoading(id string)
	ClearActionLoading()
	SetBulkLoading(v bool)

	// State returns a snapshot of the screen state.
	State() listing.State
	// Close stops background-refresh, debounce and housekeeping timers.
	Close()
}

// MutationCoordinator applies create/update/toggle/delete/bulk operations
// against the upstream and reconciles the synchronizer's list afterwards.
type MutationCoordinator interface {
	Create(ctx context.Context, draft json.RawMessage) error
	Update(ctx context.Context, id string, draft json.RawMessage) error
	ToggleStatus(ctx context.Context, id string, currentActive bool) error
	Delete(ctx context.Context, id string) error
	Bulk(ctx context.Context, action string, ids []string) error
}

// Feed serves the public testimonials feed backing the marketing site.
type Feed interface {
	ActiveTestimonials(ctx context.Context) ([]resource.Entity, error)
	Close()
}
