package service

import (
	"context"
	"testing"
	"time"

	"github.com/lagoonid/oauthd/internal/oauth/domain"
	"github.com/lagoonid/oauthd/internal/oauth/store/drivers/sqlite"
	"github.com/lagoonid/oauthd/pkg/cryptox"

	"github.com/stretchr/testify/require"
)

const (
	testUID    = "0123456789abcdef0123456789abcdef"
	testSecret = "correct-horse-battery-staple"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedConfidentialClient(t *testing.T, s *sqlite.Store, id string) domain.Client {
	t.Helper()

	hash, err := cryptox.HashSecret(testSecret)
	require.NoError(t, err)

	client := domain.Client{
		ID:          id,
		Name:        "Client " + id,
		SecretHash:  hash,
		Trusted:     true,
		RedirectURI: "https://relier.example.com/cb",
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, s.Clients().CreateClient(context.Background(), client))
	return client
}

func seedPublicClient(t *testing.T, s *sqlite.Store, id string) domain.Client {
	t.Helper()

	client := domain.Client{
		ID:          id,
		Name:        "Public " + id,
		Public:      true,
		RedirectURI: "https://app.example.com/cb",
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, s.Clients().CreateClient(context.Background(), client))
	return client
}

func testClaims() domain.Claims {
	return domain.Claims{
		UID:           testUID,
		Generation:    1,
		VerifiedEmail: "user@example.com",
		LastAuthAt:    1700000000,
	}
}

func newTokenService(s *sqlite.Store) *TokenService {
	return &TokenService{
		Clients:   s.Clients(),
		Codes:     s.Codes(),
		Tokens:    s.Tokens(),
		AccessTTL: time.Hour,
	}
}
