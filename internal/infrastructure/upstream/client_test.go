package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	config "github.com/peakhr/console/configs"
	"github.com/peakhr/console/internal/core/domain/listing"
	"github.com/peakhr/console/internal/core/domain/resource"
	"github.com/peakhr/console/internal/core/ports"
)

type tokenStub struct {
	token string
	ok    bool
}

func (t tokenStub) Token(ctx context.Context) (string, bool) { return t.token, t.ok }

func newTestClient(srvURL string) *Client {
	return NewClient(&config.UpstreamConfig{BaseURL: srvURL, Timeout: 5 * time.Second, PageSize: 10}, tokenStub{token: "tok", ok: true}, nil)
}

func TestList_BuildsQueryAndDecodesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/services" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("page") != "2" || q.Get("limit") != "10" || q.Get("status") != "active" {
			t.Errorf("unexpected query %v", q)
		}
		if q.Has("search") {
			t.Errorf("empty search must be omitted from the request")
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("missing bearer token")
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Errorf("missing request id")
		}
		_, _ = w.Write([]byte(`{
			"success": true,
			"data": {
				"services": [{"id":"s1","isActive":true,"title":"Payroll"}],
				"pagination": {"currentPage": 2, "totalPages": 7},
				"stats": {"total": 61, "active": 49.0}
			}
		}`))
	}))
	defer srv.Close()

	page, err := newTestClient(srv.URL).List(context.Background(), resource.Services, listing.Query{Page: 2, Status: "active"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].ID != "s1" {
		t.Fatalf("items not decoded: %+v", page.Items)
	}
	if page.CurrentPage != 2 || page.TotalPages != 7 {
		t.Fatalf("pagination not decoded: %+v", page)
	}
	if page.Stats["total"] != 61 {
		t.Fatalf("stats not decoded: %+v", page.Stats)
	}
}

func TestList_SecondaryFilterUsesDescriptorParam(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("industry") != "tech" {
			t.Errorf("secondary filter not mapped to industry param: %v", r.URL.Query())
		}
		_, _ = w.Write([]byte(`{"success": true, "data": {"testimonials": []}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).List(context.Background(), resource.Testimonials, listing.Query{Page: 1, Secondary: "tech"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
}

func TestList_401MapsToErrUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).List(context.Background(), resource.Services, listing.Query{Page: 1})
	if !errors.Is(err, ports.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestList_MissingTokenShortCircuits(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer srv.Close()

	c := NewClient(&config.UpstreamConfig{BaseURL: srv.URL, Timeout: time.Second, PageSize: 10}, tokenStub{ok: false}, nil)
	_, err := c.List(context.Background(), resource.Services, listing.Query{Page: 1})
	if !errors.Is(err, ports.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if hits != 0 {
		t.Fatalf("an unusable session must not reach the network")
	}
}

func TestCreate_StructuredValidationErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success": false, "message": "validation failed", "errors": [{"field":"title","message":"is required"}]}`))
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).Create(context.Background(), resource.Services, json.RawMessage(`{}`))
	var verr *ports.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Fields) != 1 || verr.Fields[0].Field != "title" {
		t.Fatalf("field errors not decoded: %+v", verr.Fields)
	}
}

func TestSetStatus_SendsNegatedFlag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/why-choose-us/r1/status" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		var payload map[string]bool
		if err := json.Unmarshal(body, &payload); err != nil || payload["isActive"] != false {
			t.Errorf("unexpected body %s", body)
		}
		_, _ = w.Write([]byte(`{"success": true}`))
	}))
	defer srv.Close()

	if err := newTestClient(srv.URL).SetStatus(context.Background(), resource.WhyChooseUs, "r1", false); err != nil {
		t.Fatalf("set status failed: %v", err)
	}
}

func TestBulk_SendsActionAndIDs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/testimonials/bulk" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		var payload struct {
			Action string   `json:"action"`
			IDs    []string `json:"ids"`
		}
		if err := json.Unmarshal(body, &payload); err != nil || payload.Action != "approve" || len(payload.IDs) != 2 {
			t.Errorf("unexpected body %s", body)
		}
		_, _ = w.Write([]byte(`{"success": true}`))
	}))
	defer srv.Close()

	if err := newTestClient(srv.URL).Bulk(context.Background(), resource.Testimonials, "approve", []string{"t1", "t2"}); err != nil {
		t.Fatalf("bulk failed: %v", err)
	}
}

func TestMutation_MissingSuccessFlagIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message": "maybe?"}`))
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).Delete(context.Background(), resource.Services, "s1")
	if err == nil {
		t.Fatalf("a response without the success flag must be treated as failure")
	}
}

func TestActiveTestimonials_NoAuthHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/testimonials/active" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "" {
			t.Errorf("public feed must not send credentials")
		}
		_, _ = w.Write([]byte(`{"success": true, "data": {"testimonials": [{"id":"t1","isActive":true}]}}`))
	}))
	defer srv.Close()

	items, err := newTestClient(srv.URL).ActiveTestimonials(context.Background())
	if err != nil {
		t.Fatalf("feed failed: %v", err)
	}
	if len(items) != 1 || items[0].ID != "t1" {
		t.Fatalf("feed not decoded: %+v", items)
	}
}
