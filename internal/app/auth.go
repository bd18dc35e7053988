package app

import (
	"context"

	"trivia-session-service/internal/domain"
)

// Authenticator verifies an opaque client token with the external identity
// provider and yields the verified user id and display name.
type Authenticator interface {
	Verify(ctx context.Context, token string) (domain.Identity, error)
}

// StaticAuthenticator resolves tokens from a fixed table. It stands in for
// the real provider in dev setups and tests.
type StaticAuthenticator struct {
	tokens map[string]domain.Identity
}

func NewStaticAuthenticator(tokens map[string]domain.Identity) *StaticAuthenticator {
	return &StaticAuthenticator{tokens: tokens}
}

func (a *StaticAuthenticator) Verify(_ context.Context, token string) (domain.Identity, error) {
	identity, ok := a.tokens[token]
	if !ok {
		return domain.Identity{}, domain.ErrInvalidToken
	}
	if identity.Nickname == "" {
		identity.Nickname = "Anonymous"
	}
	return identity, nil
}
