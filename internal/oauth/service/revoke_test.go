package service

import (
	"context"
	"testing"

	"github.com/lagoonid/oauthd/internal/oauth/domain"
	"github.com/lagoonid/oauthd/internal/oauth/sessionauth"
	"github.com/lagoonid/oauthd/internal/oauth/store"
	"github.com/lagoonid/oauthd/pkg/cryptox"
	"github.com/lagoonid/oauthd/pkg/idx"

	"github.com/stretchr/testify/require"
)

func TestListingAggregation(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	alpha := seedConfidentialClient(t, s, "aaaa111100000001")
	beta := seedConfidentialClient(t, s, "aaaa111100000002")
	gamma := seedConfidentialClient(t, s, "aaaa111100000003")
	tokens := newTokenService(s)
	tokens.Sessions = staticSessions{identity: sessionauth.Identity{
		UID:        testUID,
		LastAuthAt: 1700000000,
	}}
	rev := &RevocationService{Clients: s.Clients(), Codes: s.Codes(), Tokens: s.Tokens()}
	ctx := context.Background()

	mint := func(clientID string, accessType domain.AccessType) domain.TokenGrant {
		grant, err := tokens.Grant(ctx, TokenRequest{
			GrantType:    GrantTypeCredentials,
			ClientID:     clientID,
			ClientSecret: testSecret,
			SessionToken: "session",
			Scopes:       []string{"profile"},
			AccessType:   accessType,
		})
		require.NoError(t, err)
		return grant
	}

	// Two refresh-backed sessions and one access-only session.
	mint(alpha.ID, domain.AccessTypeOffline)
	mint(beta.ID, domain.AccessTypeOffline)
	mint(gamma.ID, domain.AccessTypeOnline)

	records, err := rev.ListAuthorizedClients(ctx, testUID)
	require.NoError(t, err)
	require.Len(t, records, 3)

	withRefresh := 0
	for _, rec := range records {
		require.NotEmpty(t, rec.ClientName)
		if !rec.RefreshTokenID.IsZero() {
			withRefresh++
		}
	}
	require.Equal(t, 2, withRefresh)

	// Ordered by client name.
	require.Equal(t, alpha.ID, records[0].ClientID)
	require.Equal(t, beta.ID, records[1].ClientID)
	require.Equal(t, gamma.ID, records[2].ClientID)
}

func TestListingCollapsesAccessOnlyUsage(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	client := seedConfidentialClient(t, s, "aaaa111100000004")
	tokens := newTokenService(s)
	tokens.Sessions = staticSessions{identity: sessionauth.Identity{UID: testUID}}
	rev := &RevocationService{Clients: s.Clients(), Codes: s.Codes(), Tokens: s.Tokens()}
	ctx := context.Background()

	for range 3 {
		_, err := tokens.Grant(ctx, TokenRequest{
			GrantType:    GrantTypeCredentials,
			ClientID:     client.ID,
			ClientSecret: testSecret,
			SessionToken: "session",
			Scopes:       []string{"profile"},
		})
		require.NoError(t, err)
	}

	records, err := rev.ListAuthorizedClients(ctx, testUID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.True(t, records[0].RefreshTokenID.IsZero())
	require.Equal(t, []string{"profile"}, records[0].Scopes)
}

func TestDestroyByValueIdempotent(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	client := seedConfidentialClient(t, s, "bbbb111100000001")
	tokens := newTokenService(s)
	tokens.Sessions = staticSessions{identity: sessionauth.Identity{UID: testUID}}
	rev := &RevocationService{Clients: s.Clients(), Codes: s.Codes(), Tokens: s.Tokens()}
	introspect := &IntrospectService{Tokens: s.Tokens()}
	ctx := context.Background()

	grant, err := tokens.Grant(ctx, TokenRequest{
		GrantType:    GrantTypeCredentials,
		ClientID:     client.ID,
		ClientSecret: testSecret,
		SessionToken: "session",
	})
	require.NoError(t, err)

	require.NoError(t, rev.DestroyByValue(ctx, grant.AccessToken))

	result, err := introspect.Introspect(ctx, grant.AccessToken)
	require.NoError(t, err)
	require.False(t, result.Active)

	// Destroying again, or destroying a value that never existed, is
	// still fine.
	require.NoError(t, rev.DestroyByValue(ctx, grant.AccessToken))
	require.NoError(t, rev.DestroyByValue(ctx, cryptox.MustGenerateToken(cryptox.TokenSize256)))
}

func TestDestroyRefreshInstance(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	client := seedConfidentialClient(t, s, "bbbb111100000002")
	tokens := newTokenService(s)
	tokens.Sessions = staticSessions{identity: sessionauth.Identity{UID: testUID}}
	rev := &RevocationService{Clients: s.Clients(), Codes: s.Codes(), Tokens: s.Tokens()}
	ctx := context.Background()

	offline, err := tokens.Grant(ctx, TokenRequest{
		GrantType:    GrantTypeCredentials,
		ClientID:     client.ID,
		ClientSecret: testSecret,
		SessionToken: "session",
		AccessType:   domain.AccessTypeOffline,
	})
	require.NoError(t, err)

	online, err := tokens.Grant(ctx, TokenRequest{
		GrantType:    GrantTypeCredentials,
		ClientID:     client.ID,
		ClientSecret: testSecret,
		SessionToken: "session",
	})
	require.NoError(t, err)

	refresh, err := s.Tokens().GetTokenByHash(ctx, cryptox.FingerprintToken(offline.RefreshToken))
	require.NoError(t, err)

	require.NoError(t, rev.DestroyByClientAndUser(ctx, client.ID, testUID, refresh.ID))

	// The instance is gone.
	_, err = s.Tokens().GetTokenByHash(ctx, cryptox.FingerprintToken(offline.RefreshToken))
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.Tokens().GetTokenByHash(ctx, cryptox.FingerprintToken(offline.AccessToken))
	require.ErrorIs(t, err, store.ErrNotFound)

	// The unrelated access token survives.
	_, err = s.Tokens().GetTokenByHash(ctx, cryptox.FingerprintToken(online.AccessToken))
	require.NoError(t, err)
}

func TestDestroyByClientAndUser(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	client := seedConfidentialClient(t, s, "bbbb111100000003")
	other := seedConfidentialClient(t, s, "bbbb111100000004")
	tokens := newTokenService(s)
	tokens.Sessions = staticSessions{identity: sessionauth.Identity{UID: testUID}}
	rev := &RevocationService{Clients: s.Clients(), Codes: s.Codes(), Tokens: s.Tokens()}
	ctx := context.Background()

	for _, id := range []string{client.ID, other.ID} {
		_, err := tokens.Grant(ctx, TokenRequest{
			GrantType:    GrantTypeCredentials,
			ClientID:     id,
			ClientSecret: testSecret,
			SessionToken: "session",
			AccessType:   domain.AccessTypeOffline,
		})
		require.NoError(t, err)
	}

	require.NoError(t, rev.DestroyByClientAndUser(ctx, client.ID, testUID, idx.Zero))

	records, err := rev.ListAuthorizedClients(ctx, testUID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, other.ID, records[0].ClientID)
}
