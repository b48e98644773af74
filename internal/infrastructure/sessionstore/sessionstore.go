// Package sessionstore keeps the admin session markers in the local key-value
// store and decides when the session is no longer usable.
package sessionstore

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	config "github.com/peakhr/console/configs"
	"github.com/peakhr/console/internal/core/ports"
	"github.com/sirupsen/logrus"
)

type Service struct {
	kv     ports.Cache
	nav    ports.Navigator
	cfg    config.SessionConfig
	logger *logrus.Logger

	// test seam
	now func() time.Time
}

func New(kv ports.Cache, nav ports.Navigator, cfg config.SessionConfig, logger *logrus.Logger) *Service {
	return &Service{kv: kv, nav: nav, cfg: cfg, logger: logger, now: time.Now}
}

// Token returns the stored bearer token. A token whose JWT exp claim has
// already passed is reported as unusable without a round trip; the console
// has no signing key, so the parse is unverified by design of the contract
// (the server still verifies every call).
func (s *Service) Token(ctx context.Context) (string, bool) {
	b, ok, err := s.kv.Get(ctx, s.cfg.TokenKey)
	if err != nil || !ok || len(b) == 0 {
		return "", false
	}
	token := string(b)
	if expired, known := s.tokenExpired(token); known && expired {
		return "", false
	}
	return token, true
}

func (s *Service) tokenExpired(token string) (expired, known bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		// Opaque (non-JWT) tokens pass through; the server decides.
		return false, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false, false
	}
	return !s.now().Before(exp.Time), true
}

func (s *Service) SignIn(ctx context.Context, token, adminData, adminType string) error {
	if err := s.kv.Set(ctx, s.cfg.TokenKey, []byte(token), 0); err != nil {
		return err
	}
	if err := s.kv.Set(ctx, s.cfg.DataKey, []byte(adminData), 0); err != nil {
		return err
	}
	return s.kv.Set(ctx, s.cfg.TypeKey, []byte(adminType), 0)
}

// Expire clears every stored session marker and hands control to the
// navigation layer. Clearing failures are logged, not surfaced; the redirect
// happens regardless.
func (s *Service) Expire(ctx context.Context) {
	for _, key := range []string{s.cfg.TokenKey, s.cfg.DataKey, s.cfg.TypeKey} {
		if err := s.kv.Delete(ctx, key); err != nil && s.logger != nil {
			s.logger.WithField("key", key).WithError(err).Warn("failed to clear session marker")
		}
	}
	if s.logger != nil {
		s.logger.Info("session expired, redirecting to login")
	}
	if s.nav != nil {
		s.nav.RedirectToLogin()
	}
}

var _ ports.SessionService = (*Service)(nil)
