package service

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"time"

	"github.com/lagoonid/oauthd/internal/oauth/domain"
	"github.com/lagoonid/oauthd/internal/oauth/store"
	"github.com/lagoonid/oauthd/pkg/cryptox"
	"github.com/lagoonid/oauthd/pkg/idx"
	"github.com/lagoonid/oauthd/pkg/slogx"
)

var codeChallengePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{43}$`)

// CodeService issues short-lived single-use authorization codes.
type CodeService struct {
	Clients store.Clients
	Codes   store.Codes
}

// IssueCodeRequest binds a verified identity to a client and scope set.
type IssueCodeRequest struct {
	ClientID            string
	Claims              domain.Claims
	Scopes              []string
	CodeChallenge       string
	CodeChallengeMethod string
}

// IssueCode mints a new authorization code and returns its plaintext
// value. Only the code's fingerprint is persisted. Public clients must
// bind redemption with an S256 PKCE challenge.
func (s *CodeService) IssueCode(ctx context.Context, req IssueCodeRequest) (string, error) {
	client, err := s.Clients.GetClientByID(ctx, req.ClientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrUnknownClient
		}
		return "", err
	}

	scopes := domain.NormalizeScopes(req.Scopes)
	for _, scope := range scopes {
		if !client.CanGrant(scope) {
			return "", ErrInvalidScope
		}
	}

	if client.Public && req.CodeChallenge == "" {
		return "", ErrPkceRequired
	}
	if req.CodeChallenge != "" {
		if req.CodeChallengeMethod != domain.ChallengeMethodS256 {
			return "", ErrInvalidRequestParam
		}
		if !codeChallengePattern.MatchString(req.CodeChallenge) {
			return "", ErrInvalidRequestParam
		}
	}

	code, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	record := domain.AuthorizationCode{
		ID:                  idx.New(),
		CodeHash:            cryptox.FingerprintToken(code),
		ClientID:            client.ID,
		UID:                 req.Claims.UID,
		Scopes:              scopes,
		CodeChallenge:       req.CodeChallenge,
		CodeChallengeMethod: req.CodeChallengeMethod,
		AuthAt:              req.Claims.LastAuthAt,
		CreatedAt:           now,
		ExpiresAt:           now.Add(domain.CodeTTL),
	}
	if err := s.Codes.CreateCode(ctx, record); err != nil {
		return "", err
	}

	slogx.FromContext(ctx).Info("authorization code issued",
		slog.String("client_id", client.ID),
		slog.String("uid", req.Claims.UID),
		slog.Bool("pkce", req.CodeChallenge != ""),
	)
	return code, nil
}
