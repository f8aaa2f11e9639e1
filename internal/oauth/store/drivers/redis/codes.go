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

type codesRepo struct {
	rdb *redis.Client
}

type codeRecord struct {
	ID                  string    `json:"id"`
	ClientID            string    `json:"client_id"`
	UID                 string    `json:"uid"`
	Scopes              []string  `json:"scopes,omitempty"`
	CodeChallenge       string    `json:"code_challenge,omitempty"`
	CodeChallengeMethod string    `json:"code_challenge_method,omitempty"`
	AuthAt              int64     `json:"auth_at"`
	CreatedAt           time.Time `json:"created_at"`
	ExpiresAt           time.Time `json:"expires_at"`
}

func (r *codesRepo) CreateCode(ctx context.Context, code domain.AuthorizationCode) error {
	rec := codeRecord{
		ID:                  code.ID.String(),
		ClientID:            code.ClientID,
		UID:                 code.UID,
		Scopes:              code.Scopes,
		CodeChallenge:       code.CodeChallenge,
		CodeChallengeMethod: code.CodeChallengeMethod,
		AuthAt:              code.AuthAt,
		CreatedAt:           code.CreatedAt,
		ExpiresAt:           code.ExpiresAt,
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	// The key TTL is padded past the logical expiry so redemption sees
	// ExpiredCode rather than UnknownCode near the boundary.
	ttl := time.Until(code.ExpiresAt) + time.Minute
	return r.rdb.Set(ctx, codeKey(code.CodeHash), payload, ttl).Err()
}

// ConsumeCodeByHash uses GETDEL so concurrent redemptions of the same
// code see exactly one success.
func (r *codesRepo) ConsumeCodeByHash(ctx context.Context, hash string) (domain.AuthorizationCode, error) {
	payload, err := r.rdb.GetDel(ctx, codeKey(hash)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.AuthorizationCode{}, store.ErrNotFound
	}
	if err != nil {
		return domain.AuthorizationCode{}, err
	}

	var rec codeRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return domain.AuthorizationCode{}, err
	}

	id, err := idx.Parse(rec.ID)
	if err != nil {
		return domain.AuthorizationCode{}, err
	}
	return domain.AuthorizationCode{
		ID:                  id,
		CodeHash:            hash,
		ClientID:            rec.ClientID,
		UID:                 rec.UID,
		Scopes:              rec.Scopes,
		CodeChallenge:       rec.CodeChallenge,
		CodeChallengeMethod: rec.CodeChallengeMethod,
		AuthAt:              rec.AuthAt,
		CreatedAt:           rec.CreatedAt,
		ExpiresAt:           rec.ExpiresAt,
	}, nil
}

func (r *codesRepo) DeleteCodeByHash(ctx context.Context, hash string) error {
	return r.rdb.Del(ctx, codeKey(hash)).Err()
}

// DeleteExpiredCodes is a no-op: Redis evicts code keys via TTL.
func (r *codesRepo) DeleteExpiredCodes(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}
