package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lagoonid/oauthd/internal/oauth/domain"
	"github.com/lagoonid/oauthd/internal/oauth/metrics"
	"github.com/lagoonid/oauthd/pkg/cryptox"
	"github.com/lagoonid/oauthd/pkg/slogx"

	"github.com/golang-jwt/jwt/v5"
)

// legacyDelimiter marks the legacy bundle assertion format; compact
// signed tokens never contain it.
const legacyDelimiter = "~"

// AssertionConfig carries the verification parameters. Everything is
// explicit; the verifier never reads ambient configuration.
type AssertionConfig struct {
	// Audience and Issuer are matched against the assertion's claims.
	Audience string
	Issuer   string

	// Secrets is the ordered set of active HMAC secrets. Rotation works
	// by accepting any secret in the set.
	Secrets [][]byte

	// VerificationURL is the remote endpoint for legacy bundles.
	VerificationURL string

	// PoolSize bounds concurrent connections to the remote verifier.
	PoolSize int

	// Timeout bounds one remote verification round trip.
	Timeout time.Duration
}

// AssertionService proves a caller's identity from an assertion string.
// Compact signed tokens are verified locally against the secret set;
// legacy bundles are delegated to the remote verification endpoint.
// Every trust failure surfaces as ErrInvalidAssertion.
type AssertionService struct {
	Audience string
	Issuer   string

	keys      jwt.VerificationKeySet
	remoteURL string
	client    *http.Client
}

func NewAssertionService(cfg AssertionConfig) *AssertionService {
	keys := jwt.VerificationKeySet{}
	for _, secret := range cfg.Secrets {
		keys.Keys = append(keys.Keys, jwt.VerificationKey(secret))
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 10
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &AssertionService{
		Audience:  cfg.Audience,
		Issuer:    cfg.Issuer,
		keys:      keys,
		remoteURL: cfg.VerificationURL,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxConnsPerHost:     poolSize,
				MaxIdleConnsPerHost: poolSize,
			},
		},
	}
}

// Verify dispatches on the assertion format and returns validated
// claims. The raw assertion is never logged; failures carry a sha256
// fingerprint for correlation.
func (s *AssertionService) Verify(ctx context.Context, assertion string) (domain.Claims, error) {
	var (
		claims domain.Claims
		err    error
		path   string
	)
	if strings.Contains(assertion, legacyDelimiter) {
		path = "remote"
		claims, err = s.verifyRemote(ctx, assertion)
	} else {
		path = "compact"
		claims, err = s.verifyCompact(assertion)
	}
	if err != nil {
		slogx.FromContext(ctx).Warn("assertion verification failed",
			slog.String("path", path),
			slog.String("assertion_fp", cryptox.ShortFingerprint(assertion)),
			slog.String("reason", err.Error()),
		)
		metrics.Verification(path, "fail")
		return domain.Claims{}, ErrInvalidAssertion
	}

	if err := claims.Validate(); err != nil {
		slogx.FromContext(ctx).Warn("assertion claims rejected",
			slog.String("path", path),
			slog.String("assertion_fp", cryptox.ShortFingerprint(assertion)),
		)
		metrics.Verification(path, "fail")
		return domain.Claims{}, ErrInvalidAssertion
	}

	metrics.Verification(path, "ok")
	return claims, nil
}

func (s *AssertionService) verifyCompact(assertion string) (domain.Claims, error) {
	parsed, err := jwt.ParseWithClaims(assertion, jwt.MapClaims{},
		func(*jwt.Token) (any, error) { return s.keys, nil },
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithAudience(s.Audience),
		jwt.WithIssuer(s.Issuer),
	)
	if err != nil {
		return domain.Claims{}, fmt.Errorf("parse compact assertion: %w", err)
	}

	mc, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return domain.Claims{}, fmt.Errorf("unexpected claims type %T", parsed.Claims)
	}

	claims := claimsFromMap(mc)
	sub, err := mc.GetSubject()
	if err != nil || sub == "" {
		return domain.Claims{}, fmt.Errorf("compact assertion missing subject")
	}
	claims.UID = sub
	return claims, nil
}

type remoteVerifyResponse struct {
	Status    string         `json:"status"`
	Email     string         `json:"email"`
	Issuer    string         `json:"issuer"`
	IDPClaims map[string]any `json:"idpClaims"`
}

func (s *AssertionService) verifyRemote(ctx context.Context, assertion string) (domain.Claims, error) {
	body, err := json.Marshal(map[string]string{
		"assertion": assertion,
		"audience":  s.Audience,
	})
	if err != nil {
		return domain.Claims{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.remoteURL, bytes.NewReader(body))
	if err != nil {
		return domain.Claims{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := s.client.Do(req)
	metrics.ObserveRemoteVerification(time.Since(start))
	if err != nil {
		return domain.Claims{}, fmt.Errorf("remote verification call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Claims{}, fmt.Errorf("remote verifier status %d", resp.StatusCode)
	}

	var vr remoteVerifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return domain.Claims{}, fmt.Errorf("decode remote verifier response: %w", err)
	}

	if vr.Status != "okay" {
		return domain.Claims{}, fmt.Errorf("remote verifier rejected assertion")
	}

	local, emailDomain, found := strings.Cut(vr.Email, "@")
	if !found || local == "" {
		return domain.Claims{}, fmt.Errorf("remote verifier returned malformed principal")
	}
	if emailDomain != s.Issuer || vr.Issuer != s.Issuer {
		return domain.Claims{}, fmt.Errorf("remote verifier principal from untrusted issuer")
	}

	claims := claimsFromMap(vr.IDPClaims)
	claims.UID = local
	if claims.VerifiedEmail == "" {
		claims.VerifiedEmail = vr.Email
	}
	return claims, nil
}
