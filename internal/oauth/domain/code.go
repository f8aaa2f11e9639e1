package domain

import (
	"time"

	"github.com/lagoonid/oauthd/pkg/idx"
)

// CodeTTL is how long an authorization code remains redeemable. Expiry is
// checked at redemption time against the wall clock.
const CodeTTL = 15 * time.Minute

// ChallengeMethodS256 is the only supported PKCE challenge method.
const ChallengeMethodS256 = "S256"

// AuthorizationCode is a short-lived single-use grant binding a client,
// user, and scope set. The code value itself is never stored; only its
// SHA-256 fingerprint is.
type AuthorizationCode struct {
	ID       idx.ID
	CodeHash string
	ClientID string
	UID      string
	Scopes   []string

	// CodeChallenge and CodeChallengeMethod bind redemption to the PKCE
	// verifier presented at issuance. Empty when the client did not use
	// PKCE.
	CodeChallenge       string
	CodeChallengeMethod string

	// AuthAt is the user's last authentication time, carried through to
	// the token response.
	AuthAt int64

	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the code is past its TTL at the given instant.
func (c *AuthorizationCode) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
