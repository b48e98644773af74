package httpserver

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/peakhr/console/internal/core/ports"
	customMiddleware "github.com/peakhr/console/internal/infrastructure/httpserver/middleware"
	"github.com/sirupsen/logrus"
)

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	TLSCertFile  string
	TLSKeyFile   string
}

type ServerDeps struct {
	Feed           ports.Feed
	HealthCheckers []ports.HealthChecker
}

// Server is the public marketing-site surface: the active testimonials feed
// plus health and metrics endpoints.
type Server struct {
	echo           *echo.Echo
	config         *ServerConfig
	logger         *logrus.Logger
	feed           ports.Feed
	healthCheckers []ports.HealthChecker
	middleware     *customMiddleware.MiddlewareCollection
}

func NewServer(serverConfig *ServerConfig, logger *logrus.Logger, deps ServerDeps) *Server {
	e := echo.New()
	e.HideBanner = true

	server := &Server{
		echo:           e,
		config:         serverConfig,
		logger:         logger,
		feed:           deps.Feed,
		healthCheckers: deps.HealthCheckers,
		middleware: customMiddleware.NewMiddlewareCollection(
			logger,
			GetRequestsTotal(),
			GetRequestDuration(),
		),
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}
