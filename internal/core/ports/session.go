package ports

import "context"

// TokenSource yields the bearer token for authenticated upstream calls.
// ok=false means no usable session exists (missing or already expired token).
type TokenSource interface {
	Token(ctx context.Context) (token string, ok bool)
}

// SessionService owns the locally stored session markers (admin data, admin
// type, token) and the reaction to an invalid session.
type SessionService interface {
	TokenSource

	SignIn(ctx context.Context, token, adminData, adminType string) error
	// Expire clears all stored session markers and delegates to the
	// Navigator. Called on upstream 401 or a locally detected expired token.
	Expire(ctx context.Context)
}
