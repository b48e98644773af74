package ports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/peakhr/console/internal/core/domain/listing"
	"github.com/peakhr/console/internal/core/domain/resource"
)

// ErrUnauthorized is returned by the upstream client for HTTP 401. It is the
// only status with dedicated handling: the session is invalidated and the
// user redirected to login, never shown a data error.
var ErrUnauthorized = errors.New("upstream: unauthorized")

// FieldError is one structured validation failure from a create/update call.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries the upstream's structured field errors so the form
// can surface them verbatim and stay open for correction.
type ValidationError struct {
	Message string
	Fields  []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return strings.Join(msgs, "; ")
}

// UpstreamClient is the remote HR API as consumed by the console. Every
// mutating call resolves to nil only when the API confirmed success.
type UpstreamClient interface {
	List(ctx context.Context, d resource.Descriptor, q listing.Query) (*resource.Page, error)
	Create(ctx context.Context, d resource.Descriptor, draft json.RawMessage) error
	Update(ctx context.Context, d resource.Descriptor, id string, draft json.RawMessage) error
	SetStatus(ctx context.Context, d resource.Descriptor, id string, active bool) error
	Delete(ctx context.Context, d resource.Descriptor, id string) error
	Bulk(ctx context.Context, d resource.Descriptor, action string, ids []string) error
	// ActiveTestimonials is the unauthenticated public feed.
	ActiveTestimonials(ctx context.Context) ([]resource.Entity, error)
}
