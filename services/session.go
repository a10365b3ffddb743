package services

import (
	"context"

	"agriaid/models"
)

// SessionGate supplies the authenticated identity behind a bearer token and
// a revocation signal. The forum core never manages sessions itself; it
// receives identities as values and tears live feeds down when the gate
// reports the session gone.
type SessionGate interface {
	// Identify resolves a token to its identity, or errorz.ErrUnauthenticated.
	Identify(token string) (models.Identity, error)
	// WatchRevoked returns a channel that closes when the token's session is
	// revoked (sign-out) or ctx is done.
	WatchRevoked(ctx context.Context, token string) (<-chan struct{}, error)
}
