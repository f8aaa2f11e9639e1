package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/lagoonid/oauthd/internal/oauth/domain"
	"github.com/lagoonid/oauthd/pkg/idx"
)

type codesRepo struct {
	db *sql.DB
}

func (r *codesRepo) CreateCode(ctx context.Context, code domain.AuthorizationCode) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO authorization_codes
			(id, code_hash, client_id, uid, scopes, code_challenge, code_challenge_method, auth_at, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		code.ID.String(), code.CodeHash, code.ClientID, code.UID,
		domain.JoinScopes(code.Scopes),
		mapStringNull(code.CodeChallenge), mapStringNull(code.CodeChallengeMethod),
		code.AuthAt, code.CreatedAt, code.ExpiresAt)
	return err
}

// ConsumeCodeByHash deletes the code and returns its row in one
// statement, so a code can be redeemed exactly once even under
// concurrent attempts.
func (r *codesRepo) ConsumeCodeByHash(ctx context.Context, hash string) (domain.AuthorizationCode, error) {
	row := r.db.QueryRowContext(ctx, `
		DELETE FROM authorization_codes WHERE code_hash = ?
		RETURNING id, code_hash, client_id, uid, scopes, code_challenge, code_challenge_method, auth_at, created_at, expires_at`,
		hash)
	return scanCode(row)
}

func (r *codesRepo) DeleteCodeByHash(ctx context.Context, hash string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM authorization_codes WHERE code_hash = ?`, hash)
	return err
}

func (r *codesRepo) DeleteExpiredCodes(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM authorization_codes WHERE expires_at < ?`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanCode(row *sql.Row) (domain.AuthorizationCode, error) {
	var (
		c         domain.AuthorizationCode
		id        string
		scopes    string
		challenge sql.NullString
		method    sql.NullString
	)
	err := row.Scan(&id, &c.CodeHash, &c.ClientID, &c.UID, &scopes,
		&challenge, &method, &c.AuthAt, &c.CreatedAt, &c.ExpiresAt)
	if err != nil {
		return domain.AuthorizationCode{}, mapNotFound(err)
	}

	c.ID, err = idx.Parse(id)
	if err != nil {
		return domain.AuthorizationCode{}, err
	}
	c.Scopes = splitAndFilter(scopes)
	c.CodeChallenge = mapNullString(challenge)
	c.CodeChallengeMethod = mapNullString(method)
	return c, nil
}
