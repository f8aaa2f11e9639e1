package service

import (
	"context"
	"errors"
	"time"

	"github.com/lagoonid/oauthd/internal/oauth/domain"
	"github.com/lagoonid/oauthd/internal/oauth/store"
	"github.com/lagoonid/oauthd/pkg/cryptox"
)

// Introspection reports a token's state to a relying party. Inactive
// results carry no other fields, so an absent token and a revoked one
// are indistinguishable.
type Introspection struct {
	Active    bool
	UID       string
	ClientID  string
	Scopes    []string
	TokenType domain.TokenType
	ExpiresAt *time.Time
}

// IntrospectService reports token validity without mutating state.
type IntrospectService struct {
	Tokens store.Tokens
}

// Introspect looks up a token by value. Unknown and expired tokens both
// yield an inactive result, never an error.
func (s *IntrospectService) Introspect(ctx context.Context, tokenValue string) (Introspection, error) {
	token, err := s.Tokens.GetTokenByHash(ctx, cryptox.FingerprintToken(tokenValue))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Introspection{Active: false}, nil
		}
		return Introspection{}, err
	}

	if token.Expired(time.Now().UTC()) {
		return Introspection{Active: false}, nil
	}

	return Introspection{
		Active:    true,
		UID:       token.UID,
		ClientID:  token.ClientID,
		Scopes:    token.Scopes,
		TokenType: token.Type,
		ExpiresAt: token.ExpiresAt,
	}, nil
}
