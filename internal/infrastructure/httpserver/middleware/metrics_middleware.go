package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsMiddleware records per-request counters and latency. The /metrics
// endpoint itself is excluded so scrapes do not inflate the series.
type MetricsMiddleware struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func NewMetricsMiddleware(requestsTotal *prometheus.CounterVec, requestDuration *prometheus.HistogramVec) *MetricsMiddleware {
	return &MetricsMiddleware{
		requestsTotal:   requestsTotal,
		requestDuration: requestDuration,
	}
}

func (m *MetricsMiddleware) CollectHTTPMetrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// Route template when echo matched one, raw path otherwise.
			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}
			if path == "/metrics" {
				return next(c)
			}

			start := time.Now()
			err := next(c)

			method := c.Request().Method
			m.requestsTotal.WithLabelValues(method, path, strconv.Itoa(c.Response().Status)).Inc()
			m.requestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
