package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/lagoonid/oauthd/internal/oauth/domain"
)

type clientsRepo struct {
	db *sql.DB
}

func (r *clientsRepo) GetClientByID(ctx context.Context, id string) (domain.Client, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, secret_hash, public, trusted, image_uri, redirect_uri, allowed_scopes, created_at
		FROM clients WHERE id = ?`, strings.ToLower(id))

	var (
		c             domain.Client
		secretHash    sql.NullString
		imageURI      sql.NullString
		allowedScopes string
	)
	err := row.Scan(&c.ID, &c.Name, &secretHash, &c.Public, &c.Trusted,
		&imageURI, &c.RedirectURI, &allowedScopes, &c.CreatedAt)
	if err != nil {
		return domain.Client{}, mapNotFound(err)
	}

	c.SecretHash = mapNullString(secretHash)
	c.ImageURI = mapNullString(imageURI)
	c.AllowedScopes = splitAndFilter(allowedScopes)
	return c, nil
}

func (r *clientsRepo) CreateClient(ctx context.Context, client domain.Client) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO clients (id, name, secret_hash, public, trusted, image_uri, redirect_uri, allowed_scopes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		strings.ToLower(client.ID), client.Name, mapStringNull(client.SecretHash),
		client.Public, client.Trusted, mapStringNull(client.ImageURI),
		client.RedirectURI, domain.JoinScopes(client.AllowedScopes), client.CreatedAt)
	return err
}

func (r *clientsRepo) DeleteClient(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, strings.ToLower(id))
	return err
}

func splitAndFilter(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return domain.NormalizeScopes(strings.Fields(s))
}
