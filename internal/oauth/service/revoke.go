package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/lagoonid/oauthd/internal/oauth/domain"
	"github.com/lagoonid/oauthd/internal/oauth/metrics"
	"github.com/lagoonid/oauthd/internal/oauth/store"
	"github.com/lagoonid/oauthd/pkg/cryptox"
	"github.com/lagoonid/oauthd/pkg/idx"
	"github.com/lagoonid/oauthd/pkg/slogx"
)

// RevocationService destroys grants and aggregates them for listing.
type RevocationService struct {
	Clients store.Clients
	Codes   store.Codes
	Tokens  store.Tokens
}

// DestroyByValue removes a single token or code by its plaintext value.
// Idempotent: destroying an absent value is not an error.
func (s *RevocationService) DestroyByValue(ctx context.Context, value string) error {
	hash := cryptox.FingerprintToken(value)

	if err := s.Tokens.DeleteTokenByHash(ctx, hash); err != nil {
		return err
	}
	if err := s.Codes.DeleteCodeByHash(ctx, hash); err != nil {
		return err
	}

	metrics.Revocation("value")
	return nil
}

// DestroyByClientAndUser removes one refresh-token instance (the
// refresh token plus its derived access tokens) when refreshTokenID is
// set, or every token for the client+user pair otherwise.
func (s *RevocationService) DestroyByClientAndUser(ctx context.Context, clientID, uid string, refreshTokenID idx.ID) error {
	var (
		n   int64
		err error
	)
	if refreshTokenID.IsZero() {
		n, err = s.Tokens.DeleteTokensByClientAndUID(ctx, clientID, uid)
		metrics.Revocation("client_user")
	} else {
		n, err = s.Tokens.DeleteTokensByRefreshTokenID(ctx, clientID, uid, refreshTokenID)
		metrics.Revocation("refresh_instance")
	}
	if err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("grants revoked",
		slog.String("client_id", clientID),
		slog.String("uid", uid),
		slog.Int64("tokens", n),
	)
	return nil
}

// ListAuthorizedClients aggregates a user's active grants: one record
// per refresh-token instance, plus one collapsed record per client that
// only holds unlinked access tokens. Ordered by client name, then
// creation time.
func (s *RevocationService) ListAuthorizedClients(ctx context.Context, uid string) ([]domain.GrantRecord, error) {
	tokens, err := s.Tokens.ListTokensByUID(ctx, uid)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	instances := make(map[idx.ID]*domain.GrantRecord)
	collapsed := make(map[string]*domain.GrantRecord)

	// Refresh tokens anchor instance rows.
	for _, t := range tokens {
		if t.Type != domain.TokenTypeRefresh || t.Expired(now) {
			continue
		}
		rec := &domain.GrantRecord{
			ClientID:       t.ClientID,
			RefreshTokenID: t.ID,
			Scopes:         t.Scopes,
			CreatedAt:      t.CreatedAt,
			LastAccessAt:   t.LastUsedAt,
		}
		instances[t.ID] = rec
	}

	for _, t := range tokens {
		if t.Type != domain.TokenTypeAccess || t.Expired(now) {
			continue
		}

		if !t.RefreshTokenID.IsZero() {
			// Derived access tokens only refine their instance's
			// last-active time.
			if rec, ok := instances[t.RefreshTokenID]; ok {
				rec.LastAccessAt = laterTime(rec.LastAccessAt, t.LastUsedAt)
			}
			continue
		}

		rec, ok := collapsed[t.ClientID]
		if !ok {
			rec = &domain.GrantRecord{
				ClientID:  t.ClientID,
				CreatedAt: t.CreatedAt,
			}
			collapsed[t.ClientID] = rec
		}
		rec.Scopes = domain.NormalizeScopes(append(rec.Scopes, t.Scopes...))
		if t.CreatedAt.Before(rec.CreatedAt) {
			rec.CreatedAt = t.CreatedAt
		}
		rec.LastAccessAt = laterTime(rec.LastAccessAt, t.LastUsedAt)
	}

	records := make([]domain.GrantRecord, 0, len(instances)+len(collapsed))
	for _, rec := range instances {
		records = append(records, *rec)
	}
	for _, rec := range collapsed {
		records = append(records, *rec)
	}

	for i := range records {
		client, err := s.Clients.GetClientByID(ctx, records[i].ClientID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				// Deregistered client; the grant row still lists.
				continue
			}
			return nil, err
		}
		records[i].ClientName = client.Name
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].ClientName != records[j].ClientName {
			return records[i].ClientName < records[j].ClientName
		}
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
	return records, nil
}

func laterTime(a, b *time.Time) *time.Time {
	if a == nil {
		return b
	}
	if b == nil || a.After(*b) {
		return a
	}
	return b
}
