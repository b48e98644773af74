package health

import (
	"context"
	"fmt"
	"net/http"

	goredis "github.com/go-redis/redis/v8"
	"github.com/peakhr/console/internal/core/ports"
)

// RedisHealthChecker pings the cache backend.
type RedisHealthChecker struct {
	client *goredis.Client
}

func NewRedisHealthChecker(client *goredis.Client) *RedisHealthChecker {
	return &RedisHealthChecker{client: client}
}

func (c *RedisHealthChecker) Name() string { return "redis" }

func (c *RedisHealthChecker) Check(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// UpstreamHealthChecker verifies the HR API is reachable.
type UpstreamHealthChecker struct {
	baseURL string
	client  *http.Client
}

func NewUpstreamHealthChecker(baseURL string, client *http.Client) *UpstreamHealthChecker {
	if client == nil {
		client = http.DefaultClient
	}
	return &UpstreamHealthChecker{baseURL: baseURL, client: client}
}

func (c *UpstreamHealthChecker) Name() string { return "upstream" }

func (c *UpstreamHealthChecker) Check(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}
	return nil
}

var _ ports.HealthChecker = (*RedisHealthChecker)(nil)
var _ ports.HealthChecker = (*UpstreamHealthChecker)(nil)
