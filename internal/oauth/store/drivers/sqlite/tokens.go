package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/lagoonid/oauthd/internal/oauth/domain"
	"github.com/lagoonid/oauthd/pkg/idx"
)

type tokensRepo struct {
	db *sql.DB
}

const tokenColumns = `id, token_hash, client_id, uid, scopes, token_type, refresh_token_id, created_at, last_used_at, expires_at`

func (r *tokensRepo) CreateToken(ctx context.Context, token domain.Token) error {
	var refreshID sql.NullString
	if !token.RefreshTokenID.IsZero() {
		refreshID = sql.NullString{String: token.RefreshTokenID.String(), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tokens (`+tokenColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		token.ID.String(), token.Hash, token.ClientID, token.UID,
		domain.JoinScopes(token.Scopes), string(token.Type), refreshID,
		token.CreatedAt, mapOptionalTime(token.LastUsedAt), mapOptionalTime(token.ExpiresAt))
	return err
}

func (r *tokensRepo) GetTokenByHash(ctx context.Context, hash string) (domain.Token, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+tokenColumns+` FROM tokens WHERE token_hash = ?`, hash)
	return scanToken(row)
}

func (r *tokensRepo) TouchToken(ctx context.Context, hash string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE tokens SET last_used_at = ? WHERE token_hash = ?`, at, hash)
	return err
}

func (r *tokensRepo) DeleteTokenByHash(ctx context.Context, hash string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tokens WHERE token_hash = ?`, hash)
	return err
}

func (r *tokensRepo) DeleteTokensByClientAndUID(ctx context.Context, clientID, uid string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM tokens WHERE client_id = ? AND uid = ?`, clientID, uid)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteTokensByRefreshTokenID removes the refresh token row and every
// access token minted from it.
func (r *tokensRepo) DeleteTokensByRefreshTokenID(ctx context.Context, clientID, uid string, refreshTokenID idx.ID) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM tokens
		WHERE client_id = ? AND uid = ? AND (id = ? OR refresh_token_id = ?)`,
		clientID, uid, refreshTokenID.String(), refreshTokenID.String())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *tokensRepo) ListTokensByUID(ctx context.Context, uid string) ([]domain.Token, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+tokenColumns+` FROM tokens WHERE uid = ? ORDER BY id`, uid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []domain.Token
	for rows.Next() {
		t, err := scanTokenRows(rows)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

func (r *tokensRepo) DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM tokens WHERE expires_at IS NOT NULL AND expires_at < ?`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanToken(row *sql.Row) (domain.Token, error) {
	t, err := scanTokenFrom(row)
	if err != nil {
		return domain.Token{}, mapNotFound(err)
	}
	return t, nil
}

func scanTokenRows(rows *sql.Rows) (domain.Token, error) {
	return scanTokenFrom(rows)
}

func scanTokenFrom(row scannable) (domain.Token, error) {
	var (
		t         domain.Token
		id        string
		scopes    string
		tokenType string
		refreshID sql.NullString
		lastUsed  sql.NullTime
		expires   sql.NullTime
	)
	err := row.Scan(&id, &t.Hash, &t.ClientID, &t.UID, &scopes, &tokenType,
		&refreshID, &t.CreatedAt, &lastUsed, &expires)
	if err != nil {
		return domain.Token{}, err
	}

	t.ID, err = idx.Parse(id)
	if err != nil {
		return domain.Token{}, err
	}
	if refreshID.Valid {
		t.RefreshTokenID, err = idx.Parse(refreshID.String)
		if err != nil {
			return domain.Token{}, err
		}
	}
	t.Scopes = splitAndFilter(scopes)
	t.Type = domain.TokenType(tokenType)
	t.LastUsedAt = mapNullTimePtr(lastUsed)
	t.ExpiresAt = mapNullTimePtr(expires)
	return t, nil
}
