package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/lagoonid/oauthd/internal/oauth/domain"
	"github.com/lagoonid/oauthd/internal/oauth/store"
	"github.com/lagoonid/oauthd/pkg/idx"

	"github.com/redis/go-redis/v9"
)

type tokensRepo struct {
	rdb *redis.Client
}

type tokenRecord struct {
	ID             string     `json:"id"`
	ClientID       string     `json:"client_id"`
	UID            string     `json:"uid"`
	Scopes         []string   `json:"scopes,omitempty"`
	Type           string     `json:"type"`
	RefreshTokenID string     `json:"refresh_token_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	LastUsedAt     *time.Time `json:"last_used_at,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
}

func toRecord(t domain.Token) tokenRecord {
	rec := tokenRecord{
		ID:         t.ID.String(),
		ClientID:   t.ClientID,
		UID:        t.UID,
		Scopes:     t.Scopes,
		Type:       string(t.Type),
		CreatedAt:  t.CreatedAt,
		LastUsedAt: t.LastUsedAt,
		ExpiresAt:  t.ExpiresAt,
	}
	if !t.RefreshTokenID.IsZero() {
		rec.RefreshTokenID = t.RefreshTokenID.String()
	}
	return rec
}

func fromRecord(hash string, rec tokenRecord) (domain.Token, error) {
	id, err := idx.Parse(rec.ID)
	if err != nil {
		return domain.Token{}, err
	}
	t := domain.Token{
		ID:         id,
		Hash:       hash,
		ClientID:   rec.ClientID,
		UID:        rec.UID,
		Scopes:     rec.Scopes,
		Type:       domain.TokenType(rec.Type),
		CreatedAt:  rec.CreatedAt,
		LastUsedAt: rec.LastUsedAt,
		ExpiresAt:  rec.ExpiresAt,
	}
	if rec.RefreshTokenID != "" {
		t.RefreshTokenID, err = idx.Parse(rec.RefreshTokenID)
		if err != nil {
			return domain.Token{}, err
		}
	}
	return t, nil
}

func (r *tokensRepo) CreateToken(ctx context.Context, token domain.Token) error {
	payload, err := json.Marshal(toRecord(token))
	if err != nil {
		return err
	}

	pipe := r.rdb.TxPipeline()
	if token.ExpiresAt != nil {
		pipe.Set(ctx, tokenKey(token.Hash), payload, time.Until(*token.ExpiresAt))
	} else {
		pipe.Set(ctx, tokenKey(token.Hash), payload, 0)
	}
	pipe.SAdd(ctx, uidKey(token.UID), token.Hash)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *tokensRepo) GetTokenByHash(ctx context.Context, hash string) (domain.Token, error) {
	payload, err := r.rdb.Get(ctx, tokenKey(hash)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Token{}, store.ErrNotFound
	}
	if err != nil {
		return domain.Token{}, err
	}

	var rec tokenRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return domain.Token{}, err
	}
	return fromRecord(hash, rec)
}

func (r *tokensRepo) TouchToken(ctx context.Context, hash string, at time.Time) error {
	t, err := r.GetTokenByHash(ctx, hash)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	t.LastUsedAt = &at
	payload, err := json.Marshal(toRecord(t))
	if err != nil {
		return err
	}
	// KeepTTL preserves the expiry set at creation.
	return r.rdb.Set(ctx, tokenKey(hash), payload, redis.KeepTTL).Err()
}

func (r *tokensRepo) DeleteTokenByHash(ctx context.Context, hash string) error {
	t, err := r.GetTokenByHash(ctx, hash)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	pipe := r.rdb.TxPipeline()
	pipe.Del(ctx, tokenKey(hash))
	pipe.SRem(ctx, uidKey(t.UID), hash)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *tokensRepo) DeleteTokensByClientAndUID(ctx context.Context, clientID, uid string) (int64, error) {
	return r.deleteMatching(ctx, uid, func(t domain.Token) bool {
		return t.ClientID == clientID
	})
}

func (r *tokensRepo) DeleteTokensByRefreshTokenID(ctx context.Context, clientID, uid string, refreshTokenID idx.ID) (int64, error) {
	return r.deleteMatching(ctx, uid, func(t domain.Token) bool {
		return t.ClientID == clientID && (t.ID == refreshTokenID || t.RefreshTokenID == refreshTokenID)
	})
}

func (r *tokensRepo) ListTokensByUID(ctx context.Context, uid string) ([]domain.Token, error) {
	var tokens []domain.Token
	err := r.forEachUIDToken(ctx, uid, func(t domain.Token) error {
		tokens = append(tokens, t)
		return nil
	})
	return tokens, err
}

// DeleteExpiredTokens is a no-op: Redis evicts expiring token keys via
// TTL; the uid index is repaired lazily as stale members are seen.
func (r *tokensRepo) DeleteExpiredTokens(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func (r *tokensRepo) deleteMatching(ctx context.Context, uid string, match func(domain.Token) bool) (int64, error) {
	var deleted int64
	err := r.forEachUIDToken(ctx, uid, func(t domain.Token) error {
		if !match(t) {
			return nil
		}
		pipe := r.rdb.TxPipeline()
		pipe.Del(ctx, tokenKey(t.Hash))
		pipe.SRem(ctx, uidKey(uid), t.Hash)
		if _, err := pipe.Exec(ctx); err != nil {
			return err
		}
		deleted++
		return nil
	})
	return deleted, err
}

func (r *tokensRepo) forEachUIDToken(ctx context.Context, uid string, fn func(domain.Token) error) error {
	hashes, err := r.rdb.SMembers(ctx, uidKey(uid)).Result()
	if err != nil {
		return err
	}

	for _, hash := range hashes {
		t, err := r.GetTokenByHash(ctx, hash)
		if errors.Is(err, store.ErrNotFound) {
			// Token key expired under the index entry; drop the member.
			_ = r.rdb.SRem(ctx, uidKey(uid), hash).Err()
			continue
		}
		if err != nil {
			return err
		}
		if err := fn(t); err != nil {
			return err
		}
	}
	return nil
}
