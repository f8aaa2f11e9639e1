package domain

import (
	"time"

	"github.com/lagoonid/oauthd/pkg/idx"
)

// TokenType distinguishes access from refresh tokens in storage.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Token is a stored access or refresh token. The token value is never
// stored; only its SHA-256 fingerprint is.
type Token struct {
	ID       idx.ID
	Hash     string
	ClientID string
	UID      string
	Scopes   []string
	Type     TokenType

	// RefreshTokenID links an access token to the refresh-token instance
	// it was minted from. Zero for refresh tokens (a refresh token's own
	// ID is its instance id) and for access tokens minted without one.
	RefreshTokenID idx.ID

	CreatedAt  time.Time
	LastUsedAt *time.Time
	ExpiresAt  *time.Time
}

// Expired reports whether the token is past its expiry at the given
// instant. Tokens without an expiry never expire.
func (t *Token) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && now.After(*t.ExpiresAt)
}

// AccessType controls whether a grant mints a refresh token.
type AccessType string

const (
	AccessTypeOnline  AccessType = "online"
	AccessTypeOffline AccessType = "offline"
)

// TokenGrant is the result of a successful grant: the plaintext token
// values handed to the client exactly once.
type TokenGrant struct {
	AccessToken  string
	RefreshToken string
	Scopes       []string
	ExpiresIn    int64
	AuthAt       int64
}

// GrantRecord is one row of a user's active-grant listing: either a
// refresh-token instance or the collapsed access-token-only usage of a
// client.
type GrantRecord struct {
	ClientID   string
	ClientName string

	// RefreshTokenID is set for refresh-token-backed rows and zero for
	// collapsed access-token-only rows.
	RefreshTokenID idx.ID

	Scopes       []string
	CreatedAt    time.Time
	LastAccessAt *time.Time
}
