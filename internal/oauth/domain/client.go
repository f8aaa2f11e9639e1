package domain

import (
	"regexp"
	"time"
)

var clientIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{16}$`)

// ValidClientID reports whether id is a well-formed client identifier
// (16 hex characters, 8 bytes).
func ValidClientID(id string) bool {
	return clientIDPattern.MatchString(id)
}

// Client is a registered relying party.
type Client struct {
	// ID is 16 hex characters.
	ID string

	Name string

	// SecretHash is the argon2id hash of the client secret. Empty for
	// public clients.
	SecretHash string

	// Public clients (native apps) authenticate with PKCE instead of a
	// secret.
	Public bool

	// Trusted clients skip the consent prompt and may request restricted
	// scopes.
	Trusted bool

	ImageURI    string
	RedirectURI string

	// AllowedScopes restricts which scope values the client may be
	// granted. Empty means no restriction beyond global scope rules.
	AllowedScopes []string

	CreatedAt time.Time
}

// CanGrant reports whether the client is allowed to be granted scope.
// Clients with no AllowedScopes restriction can be granted anything.
func (c *Client) CanGrant(scope string) bool {
	if len(c.AllowedScopes) == 0 {
		return true
	}
	for _, allowed := range c.AllowedScopes {
		if ScopeImplies(allowed, scope) {
			return true
		}
	}
	return false
}
