package sqlite

import (
	"context"
	"database/sql"

	"github.com/lagoonid/oauthd/internal/oauth/domain"
)

type scopedKeysRepo struct {
	db *sql.DB
}

func (r *scopedKeysRepo) GetKeyDataByScope(ctx context.Context, scope string) (domain.ScopedKeyData, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT scope, identifier, key_rotation_secret, key_rotation_timestamp
		FROM scoped_keys WHERE scope = ?`, scope)

	var d domain.ScopedKeyData
	err := row.Scan(&d.Scope, &d.Identifier, &d.KeyRotationSecret, &d.KeyRotationTimestamp)
	if err != nil {
		return domain.ScopedKeyData{}, mapNotFound(err)
	}
	return d, nil
}

func (r *scopedKeysRepo) UpsertKeyData(ctx context.Context, data domain.ScopedKeyData) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO scoped_keys (scope, identifier, key_rotation_secret, key_rotation_timestamp)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (scope) DO UPDATE SET
			identifier = excluded.identifier,
			key_rotation_secret = excluded.key_rotation_secret,
			key_rotation_timestamp = excluded.key_rotation_timestamp`,
		data.Scope, data.Identifier, data.KeyRotationSecret, data.KeyRotationTimestamp)
	return err
}
