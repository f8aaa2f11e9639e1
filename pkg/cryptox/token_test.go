package cryptox

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	t.Run("produces hex of twice the byte length", func(t *testing.T) {
		token, err := GenerateToken(TokenSize256)
		require.NoError(t, err)
		require.Len(t, token, 64)

		_, err = hex.DecodeString(token)
		require.NoError(t, err)
	})

	t.Run("rejects non-positive sizes", func(t *testing.T) {
		_, err := GenerateToken(0)
		require.Error(t, err)
		_, err = GenerateToken(-1)
		require.Error(t, err)
	})

	t.Run("successive tokens differ", func(t *testing.T) {
		a := MustGenerateToken(TokenSize256)
		b := MustGenerateToken(TokenSize256)
		require.NotEqual(t, a, b)
	})
}

func TestFingerprintToken(t *testing.T) {
	t.Parallel()

	fp := FingerprintToken("sample-token")
	require.Len(t, fp, 64)
	require.Equal(t, fp, FingerprintToken("sample-token"))
	require.NotEqual(t, fp, FingerprintToken("other-token"))
}

func TestShortFingerprint(t *testing.T) {
	t.Parallel()

	fp := ShortFingerprint("assertion material")
	require.Len(t, fp, 16)
	// A short fingerprint must never reproduce its input.
	require.NotContains(t, "assertion material", fp)
}
