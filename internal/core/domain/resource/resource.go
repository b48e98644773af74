package resource

import "slices"

// Descriptor identifies one of the console's managed collections and the
// naming quirks of its upstream endpoints. All admin screens share a single
// generic implementation parameterized by a Descriptor.
type Descriptor struct {
	// Key is the stable cache key for the default view of this collection.
	Key string
	// Path is the URL path segment on the upstream API.
	Path string
	// ItemsField is the field under data holding the page of records
	// ("services", "testimonials", "reasons").
	ItemsField string
	// SecondaryParam names the optional second filter query parameter, or ""
	// when the collection has none.
	SecondaryParam string
	// BulkActions lists the bulk operations the upstream accepts.
	BulkActions []string
}

var Services = Descriptor{
	Key:         "admin_services_cache",
	Path:        "services",
	ItemsField:  "services",
	BulkActions: []string{"activate", "deactivate", "feature", "unfeature", "delete"},
}

var Testimonials = Descriptor{
	Key:            "admin_testimonials_cache",
	Path:           "testimonials",
	ItemsField:     "testimonials",
	SecondaryParam: "industry",
	BulkActions:    []string{"approve", "reject", "highlight", "unhighlight", "delete"},
}

var WhyChooseUs = Descriptor{
	Key:         "admin_why_choose_us_cache",
	Path:        "why-choose-us",
	ItemsField:  "reasons",
	BulkActions: []string{"activate", "deactivate", "highlight", "unhighlight", "delete"},
}

// PublicFeedKey is the cache key for the unauthenticated testimonials feed.
const PublicFeedKey = "testimonials_public"

func (d Descriptor) AllowsBulk(action string) bool {
	return slices.Contains(d.BulkActions, action)
}

// Stats holds server-computed aggregate counters (totals, active counts,
// average rating). The cache layer treats them as opaque.
type Stats map[string]float64
