package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const (
	testAudience = "https://oauth.example.com"
	testIssuer   = "accounts.example.com"
)

var (
	primarySecret = []byte("primary-signing-secret")
	rotatedSecret = []byte("previous-signing-secret")
)

func signedAssertion(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()

	if _, ok := claims["aud"]; !ok {
		claims["aud"] = testAudience
	}
	if _, ok := claims["iss"]; !ok {
		claims["iss"] = testIssuer
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	require.NoError(t, err)
	return signed
}

func newVerifier(remoteURL string) *AssertionService {
	return NewAssertionService(AssertionConfig{
		Audience:        testAudience,
		Issuer:          testIssuer,
		Secrets:         [][]byte{primarySecret, rotatedSecret},
		VerificationURL: remoteURL,
		PoolSize:        2,
		Timeout:         2 * time.Second,
	})
}

func TestVerifyCompact(t *testing.T) {
	t.Parallel()

	v := newVerifier("")
	ctx := context.Background()

	t.Run("Valid", func(t *testing.T) {
		t.Parallel()

		assertion := signedAssertion(t, primarySecret, jwt.MapClaims{
			"sub":           testUID,
			"generation":    float64(3),
			"verifiedEmail": "user@example.com",
			"lastAuthAt":    float64(1700000000),
			"aal":           float64(2),
			"amr":           []any{"pwd", "otp"},
			"unknownClaim":  "dropped",
		})

		claims, err := v.Verify(ctx, assertion)
		require.NoError(t, err)
		require.Equal(t, testUID, claims.UID)
		require.EqualValues(t, 3, claims.Generation)
		require.Equal(t, "user@example.com", claims.VerifiedEmail)
		require.EqualValues(t, 2, claims.AAL)
		require.Equal(t, []string{"pwd", "otp"}, claims.AMR)
	})

	t.Run("RotatedSecret", func(t *testing.T) {
		t.Parallel()

		assertion := signedAssertion(t, rotatedSecret, jwt.MapClaims{
			"sub":           testUID,
			"generation":    float64(1),
			"verifiedEmail": "user@example.com",
			"lastAuthAt":    float64(1700000000),
		})

		claims, err := v.Verify(ctx, assertion)
		require.NoError(t, err)
		require.Equal(t, testUID, claims.UID)
	})

	t.Run("UnknownSecret", func(t *testing.T) {
		t.Parallel()

		assertion := signedAssertion(t, []byte("attacker-secret"), jwt.MapClaims{
			"sub":           testUID,
			"generation":    float64(1),
			"verifiedEmail": "user@example.com",
			"lastAuthAt":    float64(1700000000),
		})

		_, err := v.Verify(ctx, assertion)
		require.ErrorIs(t, err, ErrInvalidAssertion)
	})

	t.Run("WrongAudience", func(t *testing.T) {
		t.Parallel()

		assertion := signedAssertion(t, primarySecret, jwt.MapClaims{
			"sub":           testUID,
			"aud":           "https://elsewhere.example.com",
			"generation":    float64(1),
			"verifiedEmail": "user@example.com",
			"lastAuthAt":    float64(1700000000),
		})

		_, err := v.Verify(ctx, assertion)
		require.ErrorIs(t, err, ErrInvalidAssertion)
	})

	t.Run("WrongIssuer", func(t *testing.T) {
		t.Parallel()

		assertion := signedAssertion(t, primarySecret, jwt.MapClaims{
			"sub":           testUID,
			"iss":           "evil.example.com",
			"generation":    float64(1),
			"verifiedEmail": "user@example.com",
			"lastAuthAt":    float64(1700000000),
		})

		_, err := v.Verify(ctx, assertion)
		require.ErrorIs(t, err, ErrInvalidAssertion)
	})

	t.Run("Expired", func(t *testing.T) {
		t.Parallel()

		assertion := signedAssertion(t, primarySecret, jwt.MapClaims{
			"sub":           testUID,
			"exp":           float64(time.Now().Add(-time.Minute).Unix()),
			"generation":    float64(1),
			"verifiedEmail": "user@example.com",
			"lastAuthAt":    float64(1700000000),
		})

		_, err := v.Verify(ctx, assertion)
		require.ErrorIs(t, err, ErrInvalidAssertion)
	})

	t.Run("InvalidClaims", func(t *testing.T) {
		t.Parallel()

		assertion := signedAssertion(t, primarySecret, jwt.MapClaims{
			"sub":           "not-a-uid",
			"generation":    float64(1),
			"verifiedEmail": "user@example.com",
			"lastAuthAt":    float64(1700000000),
		})

		_, err := v.Verify(ctx, assertion)
		require.ErrorIs(t, err, ErrInvalidAssertion)
	})
}

func TestVerifyRemote(t *testing.T) {
	t.Parallel()

	type verifyRequest struct {
		Assertion string `json:"assertion"`
		Audience  string `json:"audience"`
	}

	t.Run("Valid", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int64
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)

			var req verifyRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Equal(t, testAudience, req.Audience)
			require.Contains(t, req.Assertion, "~")

			_ = json.NewEncoder(w).Encode(map[string]any{
				"status": "okay",
				"email":  testUID + "@" + testIssuer,
				"issuer": testIssuer,
				"idpClaims": map[string]any{
					"generation":    7,
					"verifiedEmail": "user@example.com",
					"lastAuthAt":    1700000000,
				},
			})
		}))
		defer server.Close()

		v := newVerifier(server.URL)
		claims, err := v.Verify(context.Background(), "legacy~bundle~assertion")
		require.NoError(t, err)
		require.Equal(t, testUID, claims.UID)
		require.EqualValues(t, 7, claims.Generation)
		require.EqualValues(t, 1, hits.Load())
	})

	t.Run("RejectedStatus", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "failure"})
		}))
		defer server.Close()

		v := newVerifier(server.URL)
		_, err := v.Verify(context.Background(), "legacy~bundle")
		require.ErrorIs(t, err, ErrInvalidAssertion)
	})

	t.Run("UntrustedIssuer", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"status": "okay",
				"email":  testUID + "@evil.example.com",
				"issuer": "evil.example.com",
				"idpClaims": map[string]any{
					"generation":    1,
					"verifiedEmail": "user@example.com",
					"lastAuthAt":    1700000000,
				},
			})
		}))
		defer server.Close()

		v := newVerifier(server.URL)
		_, err := v.Verify(context.Background(), "legacy~bundle")
		require.ErrorIs(t, err, ErrInvalidAssertion)
	})

	t.Run("NetworkError", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		server.Close()

		v := newVerifier(server.URL)
		_, err := v.Verify(context.Background(), "legacy~bundle")
		require.ErrorIs(t, err, ErrInvalidAssertion)
	})
}
