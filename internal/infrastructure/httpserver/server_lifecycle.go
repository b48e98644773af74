package httpserver

import (
	"context"
	"net"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Start blocks serving requests until Shutdown or a listener error. TLS is
// enabled when both certificate paths are configured.
func (s *Server) Start() error {
	addr := net.JoinHostPort(s.config.Host, s.config.Port)

	if s.config.TLSCertFile != "" && s.config.TLSKeyFile != "" {
		s.logger.WithField("addr", addr).Info("serving public site over TLS")
		return s.echo.StartTLS(addr, s.config.TLSCertFile, s.config.TLSKeyFile)
	}

	s.logger.WithField("addr", addr).Info("serving public site")
	return s.echo.StartServer(&http.Server{
		Addr:         addr,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	})
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) Echo() *echo.Echo {
	return s.echo
}
