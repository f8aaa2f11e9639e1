package service

import (
	"context"
	"errors"

	"github.com/lagoonid/oauthd/internal/oauth/domain"
	"github.com/lagoonid/oauthd/internal/oauth/store"
)

// KeyDataService resolves scopes to key-derivation metadata.
type KeyDataService struct {
	Clients    store.Clients
	ScopedKeys store.ScopedKeys
}

// Resolve returns key-derivation metadata for each requested scope,
// keyed by scope name. A scope the client may not request, or one with
// no registered key data, fails ErrUnknownScope.
func (s *KeyDataService) Resolve(ctx context.Context, clientID string, scopes []string) (map[string]domain.ScopedKeyData, error) {
	client, err := s.Clients.GetClientByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnknownClient
		}
		return nil, err
	}

	result := make(map[string]domain.ScopedKeyData, len(scopes))
	for _, scope := range domain.NormalizeScopes(scopes) {
		if !client.CanGrant(scope) {
			return nil, ErrUnknownScope
		}

		data, err := s.ScopedKeys.GetKeyDataByScope(ctx, scope)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, ErrUnknownScope
			}
			return nil, err
		}
		result[scope] = data
	}
	return result, nil
}
