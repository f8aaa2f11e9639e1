package domain

import "regexp"

var (
	uidPattern = regexp.MustCompile(`^[0-9a-fA-F]{32}$`)
	amrPattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)
)

// Claims is the validated identity extracted from an assertion. Unknown
// claim keys are dropped during extraction; the fields here are the only
// ones the grant flows consume.
type Claims struct {
	// UID is the account identifier, 32 hex characters.
	UID string

	// Generation is the account's key generation counter.
	Generation int64

	// VerifiedEmail is the account's primary verified email.
	VerifiedEmail string

	// LastAuthAt is the unix time of the account's last authentication.
	LastAuthAt int64

	// IssuedAt is the unix time the assertion was issued, when present.
	IssuedAt int64

	// TokenVerified reports whether the backing session was verified.
	TokenVerified bool

	// SessionTokenID identifies the backing session, when present.
	SessionTokenID string

	// AMR lists the authentication methods used (e.g. "pwd", "otp").
	AMR []string

	// AAL is the authenticator assurance level, 0 when unstated.
	AAL int64

	// ProfileChangedAt is the unix time of the last profile change, when
	// present.
	ProfileChangedAt int64
}

// Validate checks the claim constraints. A zero-valued required field is
// only acceptable where the constraint permits it (generation and
// lastAuthAt may be zero, uid and verifiedEmail may not).
func (c *Claims) Validate() error {
	if !uidPattern.MatchString(c.UID) {
		return ErrMalformedClaims
	}
	if c.Generation < 0 {
		return ErrMalformedClaims
	}
	if c.VerifiedEmail == "" || len(c.VerifiedEmail) > 255 {
		return ErrMalformedClaims
	}
	if c.LastAuthAt < 0 {
		return ErrMalformedClaims
	}
	if c.AAL < 0 || c.AAL > 3 {
		return ErrMalformedClaims
	}
	for _, m := range c.AMR {
		if !amrPattern.MatchString(m) {
			return ErrMalformedClaims
		}
	}
	return nil
}
