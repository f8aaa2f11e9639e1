package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func validClaims() Claims {
	return Claims{
		UID:           "0123456789abcdef0123456789abcdef",
		Generation:    12,
		VerifiedEmail: "user@example.com",
		LastAuthAt:    1700000000,
	}
}

func TestClaimsValidate(t *testing.T) {
	t.Parallel()

	t.Run("Valid", func(t *testing.T) {
		t.Parallel()

		c := validClaims()
		require.NoError(t, c.Validate())
	})

	t.Run("BadUID", func(t *testing.T) {
		t.Parallel()

		c := validClaims()
		c.UID = "not-hex"
		require.ErrorIs(t, c.Validate(), ErrMalformedClaims)

		c.UID = "0123456789abcdef" // too short
		require.ErrorIs(t, c.Validate(), ErrMalformedClaims)
	})

	t.Run("MissingEmail", func(t *testing.T) {
		t.Parallel()

		c := validClaims()
		c.VerifiedEmail = ""
		require.ErrorIs(t, c.Validate(), ErrMalformedClaims)
	})

	t.Run("LongEmail", func(t *testing.T) {
		t.Parallel()

		c := validClaims()
		c.VerifiedEmail = strings.Repeat("a", 250) + "@example.com"
		require.ErrorIs(t, c.Validate(), ErrMalformedClaims)
	})

	t.Run("NegativeGeneration", func(t *testing.T) {
		t.Parallel()

		c := validClaims()
		c.Generation = -1
		require.ErrorIs(t, c.Validate(), ErrMalformedClaims)
	})

	t.Run("AALRange", func(t *testing.T) {
		t.Parallel()

		c := validClaims()
		c.AAL = 3
		require.NoError(t, c.Validate())

		c.AAL = 4
		require.ErrorIs(t, c.Validate(), ErrMalformedClaims)
	})

	t.Run("BadAMR", func(t *testing.T) {
		t.Parallel()

		c := validClaims()
		c.AMR = []string{"pwd", "otp"}
		require.NoError(t, c.Validate())

		c.AMR = []string{"pwd", "bad method"}
		require.ErrorIs(t, c.Validate(), ErrMalformedClaims)
	})
}
