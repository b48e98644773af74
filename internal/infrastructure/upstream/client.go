// Package upstream implements the REST client for the remote HR API.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	config "github.com/peakhr/console/configs"
	"github.com/peakhr/console/internal/core/domain/listing"
	"github.com/peakhr/console/internal/core/domain/resource"
	"github.com/peakhr/console/internal/core/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

var requestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name: "upstream_request_duration_seconds",
		Help: "Latency of calls to the HR API",
	},
	[]string{"method", "path"},
)

func init() {
	prometheus.MustRegister(requestDuration)
}

type Client struct {
	baseURL  string
	pageSize int
	http     *http.Client
	tokens   ports.TokenSource
	logger   *logrus.Logger
}

func NewClient(cfg *config.UpstreamConfig, tokens ports.TokenSource, logger *logrus.Logger) *Client {
	return &Client{
		baseURL:  cfg.BaseURL,
		pageSize: cfg.PageSize,
		http:     &http.Client{Timeout: cfg.Timeout},
		tokens:   tokens,
		logger:   logger,
	}
}

// envelope is the response wrapper every endpoint returns.
type envelope struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Errors  []ports.FieldError `json:"errors"`
	Data    json.RawMessage    `json:"data"`
}

func (c *Client) List(ctx context.Context, d resource.Descriptor, q listing.Query) (*resource.Page, error) {
	params := url.Values{}
	page := q.Page
	if page < 1 {
		page = 1
	}
	params.Set("page", strconv.Itoa(page))
	params.Set("limit", strconv.Itoa(c.pageSize))
	// Empty filters are omitted from the request.
	if q.Search != "" {
		params.Set("search", q.Search)
	}
	if q.Status != "" {
		params.Set("status", q.Status)
	}
	if q.Secondary != "" && d.SecondaryParam != "" {
		params.Set(d.SecondaryParam, q.Secondary)
	}

	env, err := c.do(ctx, http.MethodGet, "/"+d.Path, params, nil, true)
	if err != nil {
		return nil, err
	}

	var data map[string]json.RawMessage
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("decode %s list: %w", d.Path, err)
	}
	page1 := &resource.Page{CurrentPage: 1, TotalPages: 1}
	if raw, ok := data[d.ItemsField]; ok {
		if err := json.Unmarshal(raw, &page1.Items); err != nil {
			return nil, fmt.Errorf("decode %s items: %w", d.Path, err)
		}
	}
	if raw, ok := data["pagination"]; ok {
		var p struct {
			CurrentPage int `json:"currentPage"`
			TotalPages  int `json:"totalPages"`
		}
		if err := json.Unmarshal(raw, &p); err == nil {
			if p.CurrentPage > 0 {
				page1.CurrentPage = p.CurrentPage
			}
			if p.TotalPages > 0 {
				page1.TotalPages = p.TotalPages
			}
		}
	}
	if raw, ok := data["stats"]; ok {
		_ = json.Unmarshal(raw, &page1.Stats)
	}
	return page1, nil
}

func (c *Client) Create(ctx context.Context, d resource.Descriptor, draft json.RawMessage) error {
	_, err := c.do(ctx, http.MethodPost, "/"+d.Path, nil, draft, true)
	return err
}

func (c *Client) Update(ctx context.Context, d resource.Descriptor, id string, draft json.RawMessage) error {
	_, err := c.do(ctx, http.MethodPut, "/"+d.Path+"/"+url.PathEscape(id), nil, draft, true)
	return err
}

func (c *Client) SetStatus(ctx context.Context, d resource.Descriptor, id string, active bool) error {
	body := map[string]bool{"isActive": active}
	b, _ := json.Marshal(body)
	_, err := c.do(ctx, http.MethodPut, "/"+d.Path+"/"+url.PathEscape(id)+"/status", nil, b, true)
	return err
}

func (c *Client) Delete(ctx context.Context, d resource.Descriptor, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/"+d.Path+"/"+url.PathEscape(id), nil, nil, true)
	return err
}

func (c *Client) Bulk(ctx context.Context, d resource.Descriptor, action string, ids []string) error {
	body := map[string]any{"action": action, "ids": ids}
	b, _ := json.Marshal(body)
	_, err := c.do(ctx, http.MethodPost, "/"+d.Path+"/bulk", nil, b, true)
	return err
}

func (c *Client) ActiveTestimonials(ctx context.Context) ([]resource.Entity, error) {
	env, err := c.do(ctx, http.MethodGet, "/testimonials/active", nil, nil, false)
	if err != nil {
		return nil, err
	}
	var data map[string]json.RawMessage
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("decode active testimonials: %w", err)
	}
	var items []resource.Entity
	if raw, ok := data["testimonials"]; ok {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("decode active testimonials: %w", err)
		}
	}
	return items, nil
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body json.RawMessage, auth bool) (*envelope, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if auth {
		token, ok := c.tokens.Token(ctx)
		if !ok {
			// No usable session; treat the same as a server-side 401.
			return nil, ports.ErrUnauthorized
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	requestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("upstream %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ports.ErrUnauthorized
	}

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || decodeErr != nil || !env.Success {
		if c.logger != nil {
			c.logger.WithFields(logrus.Fields{"method": method, "path": path, "status": resp.StatusCode}).Warn("upstream request failed")
		}
		if len(env.Errors) > 0 {
			return nil, &ports.ValidationError{Message: env.Message, Fields: env.Errors}
		}
		if env.Message != "" {
			return nil, fmt.Errorf("upstream %s %s: %s", method, path, env.Message)
		}
		if decodeErr != nil {
			return nil, fmt.Errorf("upstream %s %s: status %d: %w", method, path, resp.StatusCode, decodeErr)
		}
		return nil, fmt.Errorf("upstream %s %s: status %d", method, path, resp.StatusCode)
	}
	return &env, nil
}

var _ ports.UpstreamClient = (*Client)(nil)
