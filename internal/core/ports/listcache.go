package ports

import (
	"context"

	"github.com/peakhr/console/internal/core/domain/listing"
)

// ListCache stores the default-view page of a collection under its stable key
// with a freshness window. A missing entry is a normal state, never an error:
// Write swallows backend failures and Read reports absence for entries that
// were never written, are unreadable, or have outlived their TTL (evicting
// them as a side effect).
type ListCache interface {
	Write(ctx context.Context, key string, payload *listing.CachedPayload)
	Read(ctx context.Context, key string) (*listing.CachedPayload, bool)
	Evict(ctx context.Context, key string)
	// Housekeep schedules an unconditional eviction of key after the
	// configured absolute age, bounding worst-case staleness even without
	// reads. The returned func cancels the schedule (screen teardown).
	Housekeep(key string) (stop func())
}
