package listing

import (
	"github.com/peakhr/console/internal/core/domain/resource"
)

// Query is the parameter set of one list request.
type Query struct {
	Page      int
	Search    string
	Status    string
	Secondary string
}

// IsDefaultView reports whether the query is the unfiltered, unsearched first
// page, the only view eligible for caching.
func (q Query) IsDefaultView() bool {
	return q.Page <= 1 && q.Search == "" && q.Status == "" && q.Secondary == ""
}

// CachedPayload is the unit persisted per collection: the default-view page
// as last confirmed by the server.
type CachedPayload struct {
	Items       []resource.Entity `json:"items"`
	CurrentPage int               `json:"currentPage"`
	TotalPages  int               `json:"totalPages"`
	Stats       resource.Stats    `json:"stats"`
}

// State is the in-memory state of one admin screen. It is created on mount
// and discarded on unmount; it is never persisted.
type State struct {
	Items       []resource.Entity
	CurrentPage int
	TotalPages  int
	Stats       resource.Stats

	SearchTerm      string
	StatusFilter    string
	SecondaryFilter string

	Selection map[string]struct{}

	Loading         bool
	Refreshing      bool
	BulkLoading     bool
	ActionLoadingID string
}

func NewState() State {
	return State{
		CurrentPage: 1,
		TotalPages:  1,
		Selection:   map[string]struct{}{},
	}
}

func (s *State) ClearSelection() {
	s.Selection = map[string]struct{}{}
}

func (s *State) Selected(id string) bool {
	_, ok := s.Selection[id]
	return ok
}

// Query returns the list query the state currently represents.
func (s *State) Query() Query {
	return Query{
		Page:      s.CurrentPage,
		Search:    s.SearchTerm,
		Status:    s.StatusFilter,
		Secondary: s.SecondaryFilter,
	}
}

// Clone returns a snapshot safe to hand to a caller while the synchronizer
// keeps mutating the original.
func (s *State) Clone() State {
	out := *s
	out.Items = append([]resource.Entity(nil), s.Items...)
	out.Selection = make(map[string]struct{}, len(s.Selection))
	for id := range s.Selection {
		out.Selection[id] = struct{}{}
	}
	if s.Stats != nil {
		out.Stats = make(resource.Stats, len(s.Stats))
		for k, v := range s.Stats {
			out.Stats[k] = v
		}
	}
	return out
}
