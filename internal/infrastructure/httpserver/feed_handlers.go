package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (s *Server) getActiveTestimonials(c echo.Context) error {
	items, err := s.feed.ActiveTestimonials(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "testimonials are temporarily unavailable")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    map[string]interface{}{"testimonials": items},
	})
}
