package resource

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Entity is one record of a managed collection. The upstream API owns the
// document shape; the console only recognizes the identity, status, featured
// and ordering fields and carries everything else opaquely so that a cached
// document round-trips byte-for-byte in meaning.
type Entity struct {
	ID         string
	IsActive   bool
	IsFeatured bool
	SortOrder  int

	doc           map[string]json.RawMessage
	idField       string
	featuredField string
}

var idAliases = []string{"id", "_id"}

// The featured flag is named differently per collection.
var featuredAliases = []string{"isFeatured", "isHighlighted", "featured"}

func (e *Entity) UnmarshalJSON(data []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	e.doc = doc
	e.idField = ""
	e.featuredField = ""

	for _, f := range idAliases {
		raw, ok := doc[f]
		if !ok {
			continue
		}
		id, err := decodeID(raw)
		if err != nil {
			return fmt.Errorf("invalid %s field: %w", f, err)
		}
		e.ID = id
		e.idField = f
		break
	}
	if e.idField == "" {
		return fmt.Errorf("entity document has no id field")
	}

	e.IsActive = false
	if raw, ok := doc["isActive"]; ok {
		_ = json.Unmarshal(raw, &e.IsActive)
	}
	e.IsFeatured = false
	for _, f := range featuredAliases {
		if raw, ok := doc[f]; ok {
			_ = json.Unmarshal(raw, &e.IsFeatured)
			e.featuredField = f
			break
		}
	}
	e.SortOrder = 0
	if raw, ok := doc["sortOrder"]; ok {
		_ = json.Unmarshal(raw, &e.SortOrder)
	}
	return nil
}

// MarshalJSON emits the original document with the recognized fields patched
// to the entity's current values, so optimistic edits survive a cache
// round-trip.
func (e Entity) MarshalJSON() ([]byte, error) {
	doc := make(map[string]json.RawMessage, len(e.doc)+2)
	for k, v := range e.doc {
		doc[k] = v
	}
	idField := e.idField
	if idField == "" {
		idField = "id"
	}
	doc[idField] = mustRaw(e.ID)
	doc["isActive"] = mustRaw(e.IsActive)
	if e.featuredField != "" {
		doc[e.featuredField] = mustRaw(e.IsFeatured)
	}
	if _, ok := doc["sortOrder"]; ok || e.SortOrder != 0 {
		doc["sortOrder"] = mustRaw(e.SortOrder)
	}
	return json.Marshal(doc)
}

// SetActive flips the status flag on both the parsed view and the underlying
// document.
func (e *Entity) SetActive(active bool) {
	e.IsActive = active
}

// Field returns a resource-specific field from the underlying document.
func (e *Entity) Field(name string) (json.RawMessage, bool) {
	raw, ok := e.doc[name]
	return raw, ok
}

func decodeID(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.FormatInt(n, 10), nil
	}
	return "", fmt.Errorf("id is neither string nor integer")
}

func mustRaw(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		// Only called with strings, bools and ints.
		panic(err)
	}
	return b
}

// Page is one server-provided page of a collection, order preserved.
type Page struct {
	Items       []Entity `json:"items"`
	CurrentPage int      `json:"currentPage"`
	TotalPages  int      `json:"totalPages"`
	Stats       Stats    `json:"stats"`
}
