package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"log/slog"
	"regexp"
	"time"

	"github.com/lagoonid/oauthd/internal/oauth/domain"
	"github.com/lagoonid/oauthd/internal/oauth/metrics"
	"github.com/lagoonid/oauthd/internal/oauth/sessionauth"
	"github.com/lagoonid/oauthd/internal/oauth/store"
	"github.com/lagoonid/oauthd/pkg/cryptox"
	"github.com/lagoonid/oauthd/pkg/idx"
	"github.com/lagoonid/oauthd/pkg/slogx"
)

// Grant type values accepted on the token endpoint.
const (
	GrantTypeAuthorizationCode = "authorization_code"
	GrantTypeRefreshToken      = "refresh_token"
	GrantTypeCredentials       = "fxa-credentials"
)

var codeVerifierPattern = regexp.MustCompile(`^[A-Za-z0-9_.~-]{43,128}$`)

// TokenService exchanges grants for access/refresh tokens. Each grant
// type walks the same stages: authenticate the client, establish the
// identity behind the grant, authorize the requested scopes, mint.
type TokenService struct {
	Clients  store.Clients
	Codes    store.Codes
	Tokens   store.Tokens
	Sessions sessionauth.Provider

	AccessTTL time.Duration

	// RefreshTTL bounds refresh token life. Zero means refresh tokens
	// never expire, which is the default policy.
	RefreshTTL time.Duration
}

// TokenRequest is a parsed token-endpoint request.
type TokenRequest struct {
	GrantType    string
	ClientID     string
	ClientSecret string

	// Code and CodeVerifier apply to the authorization_code grant.
	Code         string
	CodeVerifier string

	// RefreshToken applies to the refresh_token grant.
	RefreshToken string

	// SessionToken applies to the direct-credential grant.
	SessionToken string

	Scopes     []string
	AccessType domain.AccessType
}

// Grant dispatches on grant type and records the attempt outcome.
func (s *TokenService) Grant(ctx context.Context, req TokenRequest) (domain.TokenGrant, error) {
	var (
		grant domain.TokenGrant
		err   error
	)
	switch req.GrantType {
	case GrantTypeAuthorizationCode:
		grant, err = s.grantAuthorizationCode(ctx, req)
	case GrantTypeRefreshToken:
		grant, err = s.grantRefreshToken(ctx, req)
	case GrantTypeCredentials:
		grant, err = s.grantCredentials(ctx, req)
	default:
		err = ErrInvalidGrantType
	}

	result := "ok"
	if err != nil {
		result = err.Error()
	}
	metrics.GrantAttempt(req.GrantType, result)
	return grant, err
}

// authenticateClient resolves and authenticates the requesting client.
// Confidential clients must present their secret; public clients have
// none, so a supplied secret is ignored and PKCE carries the proof.
func (s *TokenService) authenticateClient(ctx context.Context, clientID, clientSecret string) (domain.Client, error) {
	client, err := s.Clients.GetClientByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Client{}, ErrUnknownClient
		}
		return domain.Client{}, err
	}

	if !client.Public {
		if clientSecret == "" || cryptox.VerifySecret(clientSecret, client.SecretHash) != nil {
			slogx.FromContext(ctx).Info("client authentication failed",
				slog.String("client_id", clientID))
			return domain.Client{}, ErrIncorrectSecret
		}
	}
	return client, nil
}

func (s *TokenService) grantAuthorizationCode(ctx context.Context, req TokenRequest) (domain.TokenGrant, error) {
	client, err := s.authenticateClient(ctx, req.ClientID, req.ClientSecret)
	if err != nil {
		return domain.TokenGrant{}, err
	}

	// Consume before validating: the atomic fetch-and-delete is what
	// makes redemption single-use under concurrency. A code that fails
	// a later check stays burned.
	code, err := s.Codes.ConsumeCodeByHash(ctx, cryptox.FingerprintToken(req.Code))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenGrant{}, ErrUnknownCode
		}
		return domain.TokenGrant{}, err
	}

	if code.ClientID != client.ID {
		return domain.TokenGrant{}, ErrIncorrectCode
	}
	if code.Expired(time.Now().UTC()) {
		return domain.TokenGrant{}, ErrExpiredCode
	}

	if code.CodeChallenge != "" {
		if req.CodeVerifier == "" {
			return domain.TokenGrant{}, ErrPkceRequired
		}
		if !codeVerifierPattern.MatchString(req.CodeVerifier) {
			return domain.TokenGrant{}, ErrInvalidRequestParam
		}
		if !verifyCodeChallenge(code.CodeChallenge, req.CodeVerifier) {
			return domain.TokenGrant{}, ErrIncorrectChallenge
		}
	}

	scopes := code.Scopes
	if requested := domain.NormalizeScopes(req.Scopes); len(requested) > 0 {
		if !domain.ScopesCover(code.Scopes, requested) {
			return domain.TokenGrant{}, ErrInvalidScope
		}
		scopes = requested
	}

	return s.mint(ctx, client, code.UID, scopes, req.AccessType, code.AuthAt)
}

func (s *TokenService) grantRefreshToken(ctx context.Context, req TokenRequest) (domain.TokenGrant, error) {
	client, err := s.authenticateClient(ctx, req.ClientID, req.ClientSecret)
	if err != nil {
		return domain.TokenGrant{}, err
	}

	refresh, err := s.Tokens.GetTokenByHash(ctx, cryptox.FingerprintToken(req.RefreshToken))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenGrant{}, ErrInvalidToken
		}
		return domain.TokenGrant{}, err
	}
	if refresh.Type != domain.TokenTypeRefresh || refresh.ClientID != client.ID {
		return domain.TokenGrant{}, ErrInvalidToken
	}

	now := time.Now().UTC()
	if refresh.Expired(now) {
		return domain.TokenGrant{}, ErrExpiredToken
	}

	scopes := refresh.Scopes
	if requested := domain.NormalizeScopes(req.Scopes); len(requested) > 0 {
		if !domain.ScopesCover(refresh.Scopes, requested) {
			return domain.TokenGrant{}, ErrInvalidScope
		}
		scopes = requested
	}

	access, accessValue, err := s.mintAccessToken(client.ID, refresh.UID, scopes, refresh.ID, now)
	if err != nil {
		return domain.TokenGrant{}, err
	}
	if err := s.Tokens.CreateToken(ctx, access); err != nil {
		return domain.TokenGrant{}, err
	}

	if err := s.Tokens.TouchToken(ctx, refresh.Hash, now); err != nil {
		slogx.FromContext(ctx).Warn("failed to record refresh token use",
			slog.String("client_id", client.ID))
	}

	return domain.TokenGrant{
		AccessToken: accessValue,
		Scopes:      scopes,
		ExpiresIn:   int64(s.AccessTTL.Seconds()),
	}, nil
}

func (s *TokenService) grantCredentials(ctx context.Context, req TokenRequest) (domain.TokenGrant, error) {
	client, err := s.authenticateClient(ctx, req.ClientID, req.ClientSecret)
	if err != nil {
		return domain.TokenGrant{}, err
	}

	if s.Sessions == nil {
		return domain.TokenGrant{}, ErrInvalidAssertion
	}
	identity, err := s.Sessions.VerifySession(ctx, req.SessionToken)
	if err != nil {
		return domain.TokenGrant{}, ErrInvalidAssertion
	}

	scopes := domain.NormalizeScopes(req.Scopes)
	for _, scope := range scopes {
		if !client.CanGrant(scope) {
			return domain.TokenGrant{}, ErrInvalidScope
		}
	}

	return s.mint(ctx, client, identity.UID, scopes, req.AccessType, identity.LastAuthAt)
}

// mint creates a fresh access token, plus a refresh token when offline
// access was requested. The access token minted alongside a new refresh
// token is linked to it for later per-instance revocation.
func (s *TokenService) mint(ctx context.Context, client domain.Client, uid string, scopes []string, accessType domain.AccessType, authAt int64) (domain.TokenGrant, error) {
	now := time.Now().UTC()

	var (
		refreshID    idx.ID
		refreshValue string
	)
	if accessType == domain.AccessTypeOffline {
		value, err := cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			return domain.TokenGrant{}, err
		}

		refresh := domain.Token{
			ID:        idx.New(),
			Hash:      cryptox.FingerprintToken(value),
			ClientID:  client.ID,
			UID:       uid,
			Scopes:    scopes,
			Type:      domain.TokenTypeRefresh,
			CreatedAt: now,
		}
		if s.RefreshTTL > 0 {
			expires := now.Add(s.RefreshTTL)
			refresh.ExpiresAt = &expires
		}
		if err := s.Tokens.CreateToken(ctx, refresh); err != nil {
			return domain.TokenGrant{}, err
		}
		refreshID = refresh.ID
		refreshValue = value
	}

	access, accessValue, err := s.mintAccessToken(client.ID, uid, scopes, refreshID, now)
	if err != nil {
		return domain.TokenGrant{}, err
	}
	if err := s.Tokens.CreateToken(ctx, access); err != nil {
		return domain.TokenGrant{}, err
	}

	slogx.FromContext(ctx).Info("tokens minted",
		slog.String("client_id", client.ID),
		slog.String("uid", uid),
		slog.Bool("offline", refreshValue != ""),
	)

	return domain.TokenGrant{
		AccessToken:  accessValue,
		RefreshToken: refreshValue,
		Scopes:       scopes,
		ExpiresIn:    int64(s.AccessTTL.Seconds()),
		AuthAt:       authAt,
	}, nil
}

func (s *TokenService) mintAccessToken(clientID, uid string, scopes []string, refreshID idx.ID, now time.Time) (domain.Token, string, error) {
	value, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.Token{}, "", err
	}

	expires := now.Add(s.AccessTTL)
	return domain.Token{
		ID:             idx.New(),
		Hash:           cryptox.FingerprintToken(value),
		ClientID:       clientID,
		UID:            uid,
		Scopes:         scopes,
		Type:           domain.TokenTypeAccess,
		RefreshTokenID: refreshID,
		CreatedAt:      now,
		ExpiresAt:      &expires,
	}, value, nil
}

// verifyCodeChallenge checks the S256 transform of the verifier against
// the stored challenge in constant time.
func verifyCodeChallenge(challenge, verifier string) bool {
	sum := sha256.Sum256([]byte(verifier))
	computed := base64.RawURLEncoding.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(computed), []byte(challenge)) == 1
}
