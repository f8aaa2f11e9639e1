package service

import (
	"context"
	"testing"
	"time"

	"github.com/lagoonid/oauthd/internal/oauth/domain"

	"github.com/stretchr/testify/require"
)

func TestKeyDataResolve(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	ctx := context.Background()

	const scope = "https://identity.example.com/apps/notes"

	client := domain.Client{
		ID:            "2222333300000001",
		Name:          "Notes",
		Public:        true,
		RedirectURI:   "https://notes.example.com/cb",
		AllowedScopes: []string{scope, "profile"},
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(t, s.Clients().CreateClient(ctx, client))

	require.NoError(t, s.ScopedKeys().UpsertKeyData(ctx, domain.ScopedKeyData{
		Scope:                scope,
		Identifier:           scope,
		KeyRotationSecret:    "0000000000000000000000000000000000000000000000000000000000000000",
		KeyRotationTimestamp: 1700000000000,
	}))

	svc := &KeyDataService{Clients: s.Clients(), ScopedKeys: s.ScopedKeys()}

	t.Run("Resolves", func(t *testing.T) {
		t.Parallel()

		data, err := svc.Resolve(ctx, client.ID, []string{scope})
		require.NoError(t, err)
		require.Len(t, data, 1)
		require.Equal(t, scope, data[scope].Identifier)
		require.EqualValues(t, 1700000000000, data[scope].KeyRotationTimestamp)
	})

	t.Run("ScopeOutsideAllowance", func(t *testing.T) {
		t.Parallel()

		_, err := svc.Resolve(ctx, client.ID, []string{"contacts"})
		require.ErrorIs(t, err, ErrUnknownScope)
	})

	t.Run("ScopeWithoutKeyData", func(t *testing.T) {
		t.Parallel()

		_, err := svc.Resolve(ctx, client.ID, []string{"profile"})
		require.ErrorIs(t, err, ErrUnknownScope)
	})

	t.Run("UnknownClient", func(t *testing.T) {
		t.Parallel()

		_, err := svc.Resolve(ctx, "ffffffffffffffff", []string{scope})
		require.ErrorIs(t, err, ErrUnknownClient)
	})
}
