package sqlite

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lagoonid/oauthd/internal/oauth/domain"
	"github.com/lagoonid/oauthd/internal/oauth/store"
	"github.com/lagoonid/oauthd/pkg/idx"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestClientsRoundTrip(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	client := domain.Client{
		ID:            "abcdef0123456789",
		Name:          "Example Relier",
		SecretHash:    "$argon2id$hash",
		Trusted:       true,
		RedirectURI:   "https://relier.example.com/cb",
		AllowedScopes: []string{"profile", "email"},
		CreatedAt:     time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, s.Clients().CreateClient(ctx, client))

	got, err := s.Clients().GetClientByID(ctx, "ABCDEF0123456789")
	require.NoError(t, err)
	require.Equal(t, client.Name, got.Name)
	require.Equal(t, client.SecretHash, got.SecretHash)
	require.True(t, got.Trusted)
	require.False(t, got.Public)
	require.Equal(t, []string{"profile", "email"}, got.AllowedScopes)

	_, err = s.Clients().GetClientByID(ctx, "0000000000000000")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestConsumeCodeSingleUse(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	code := domain.AuthorizationCode{
		ID:        idx.New(),
		CodeHash:  "deadbeef",
		ClientID:  "abcdef0123456789",
		UID:       "0123456789abcdef0123456789abcdef",
		Scopes:    []string{"profile"},
		CreatedAt: now,
		ExpiresAt: now.Add(domain.CodeTTL),
	}
	require.NoError(t, s.Codes().CreateCode(ctx, code))

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Codes().ConsumeCodeByHash(ctx, "deadbeef"); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, successes)

	_, err := s.Codes().ConsumeCodeByHash(ctx, "deadbeef")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteExpiredCodes(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	mkCode := func(hash string, expires time.Time) domain.AuthorizationCode {
		return domain.AuthorizationCode{
			ID:        idx.New(),
			CodeHash:  hash,
			ClientID:  "abcdef0123456789",
			UID:       "0123456789abcdef0123456789abcdef",
			CreatedAt: now.Add(-time.Hour),
			ExpiresAt: expires,
		}
	}
	require.NoError(t, s.Codes().CreateCode(ctx, mkCode("old", now.Add(-time.Minute))))
	require.NoError(t, s.Codes().CreateCode(ctx, mkCode("fresh", now.Add(time.Minute))))

	n, err := s.Codes().DeleteExpiredCodes(ctx, now)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	_, err = s.Codes().ConsumeCodeByHash(ctx, "fresh")
	require.NoError(t, err)
}

func TestTokensRefreshInstanceDelete(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	const (
		clientID = "abcdef0123456789"
		uid      = "0123456789abcdef0123456789abcdef"
	)
	now := time.Now().UTC()

	refresh := domain.Token{
		ID:        idx.New(),
		Hash:      "refresh-1",
		ClientID:  clientID,
		UID:       uid,
		Scopes:    []string{"profile"},
		Type:      domain.TokenTypeRefresh,
		CreatedAt: now,
	}
	require.NoError(t, s.Tokens().CreateToken(ctx, refresh))

	derived := domain.Token{
		ID:             idx.New(),
		Hash:           "access-derived",
		ClientID:       clientID,
		UID:            uid,
		Scopes:         []string{"profile"},
		Type:           domain.TokenTypeAccess,
		RefreshTokenID: refresh.ID,
		CreatedAt:      now,
	}
	require.NoError(t, s.Tokens().CreateToken(ctx, derived))

	standalone := domain.Token{
		ID:        idx.New(),
		Hash:      "access-standalone",
		ClientID:  clientID,
		UID:       uid,
		Scopes:    []string{"profile"},
		Type:      domain.TokenTypeAccess,
		CreatedAt: now,
	}
	require.NoError(t, s.Tokens().CreateToken(ctx, standalone))

	n, err := s.Tokens().DeleteTokensByRefreshTokenID(ctx, clientID, uid, refresh.ID)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	_, err = s.Tokens().GetTokenByHash(ctx, "refresh-1")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.Tokens().GetTokenByHash(ctx, "access-derived")
	require.ErrorIs(t, err, store.ErrNotFound)

	got, err := s.Tokens().GetTokenByHash(ctx, "access-standalone")
	require.NoError(t, err)
	require.True(t, got.RefreshTokenID.IsZero())
}

func TestTouchToken(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	tok := domain.Token{
		ID:        idx.New(),
		Hash:      "touch-me",
		ClientID:  "abcdef0123456789",
		UID:       "0123456789abcdef0123456789abcdef",
		Type:      domain.TokenTypeAccess,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.Tokens().CreateToken(ctx, tok))

	got, err := s.Tokens().GetTokenByHash(ctx, "touch-me")
	require.NoError(t, err)
	require.Nil(t, got.LastUsedAt)

	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.Tokens().TouchToken(ctx, "touch-me", at))

	got, err = s.Tokens().GetTokenByHash(ctx, "touch-me")
	require.NoError(t, err)
	require.NotNil(t, got.LastUsedAt)
	require.WithinDuration(t, at, *got.LastUsedAt, time.Second)
}

func TestScopedKeysUpsert(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	data := domain.ScopedKeyData{
		Scope:                "https://identity.example.com/apps/notes",
		Identifier:           "https://identity.example.com/apps/notes",
		KeyRotationSecret:    "0000000000000000000000000000000000000000000000000000000000000000",
		KeyRotationTimestamp: 1700000000000,
	}
	require.NoError(t, s.ScopedKeys().UpsertKeyData(ctx, data))

	data.KeyRotationTimestamp = 1800000000000
	require.NoError(t, s.ScopedKeys().UpsertKeyData(ctx, data))

	got, err := s.ScopedKeys().GetKeyDataByScope(ctx, data.Scope)
	require.NoError(t, err)
	require.EqualValues(t, 1800000000000, got.KeyRotationTimestamp)

	_, err = s.ScopedKeys().GetKeyDataByScope(ctx, "unknown")
	require.ErrorIs(t, err, store.ErrNotFound)
}
