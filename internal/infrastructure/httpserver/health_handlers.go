package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (s *Server) healthCheck(c echo.Context) error {
	ctx := c.Request().Context()
	status := http.StatusOK
	checks := make(map[string]string, len(s.healthCheckers))
	for _, checker := range s.healthCheckers {
		if err := checker.Check(ctx); err != nil {
			checks[checker.Name()] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[checker.Name()] = "ok"
	}
	return c.JSON(status, map[string]interface{}{
		"status": http.StatusText(status),
		"checks": checks,
	})
}
