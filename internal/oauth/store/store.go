// Package store defines the persistence interfaces for the oauth
// service. Drivers live in store/drivers.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/lagoonid/oauthd/internal/oauth/domain"
	"github.com/lagoonid/oauthd/pkg/idx"
)

// ErrNotFound is returned by lookups when no row matches.
var ErrNotFound = errors.New("store: not found")

// Store aggregates the sub-repositories a driver provides. Not every
// driver implements every sub-repository; the app composes drivers so
// that each concern is backed by exactly one.
type Store interface {
	Clients() Clients
	Codes() Codes
	Tokens() Tokens
	ScopedKeys() ScopedKeys

	ApplyMigrations() error
	Ping(ctx context.Context) error
	Close() error
}

// Clients is the registered relying-party registry.
type Clients interface {
	GetClientByID(ctx context.Context, id string) (domain.Client, error)
	CreateClient(ctx context.Context, client domain.Client) error
	DeleteClient(ctx context.Context, id string) error
}

// Codes stores single-use authorization codes keyed by value hash.
type Codes interface {
	CreateCode(ctx context.Context, code domain.AuthorizationCode) error

	// ConsumeCodeByHash atomically fetches and deletes the code in one
	// store operation, so concurrent redemptions of the same code yield
	// exactly one success. Returns ErrNotFound for the losers.
	ConsumeCodeByHash(ctx context.Context, hash string) (domain.AuthorizationCode, error)

	DeleteCodeByHash(ctx context.Context, hash string) error
	DeleteExpiredCodes(ctx context.Context, now time.Time) (int64, error)
}

// Tokens stores access and refresh tokens keyed by value hash.
type Tokens interface {
	CreateToken(ctx context.Context, token domain.Token) error
	GetTokenByHash(ctx context.Context, hash string) (domain.Token, error)

	// TouchToken records the token's last use. Best effort; drivers may
	// coalesce writes.
	TouchToken(ctx context.Context, hash string, at time.Time) error

	DeleteTokenByHash(ctx context.Context, hash string) error
	DeleteTokensByClientAndUID(ctx context.Context, clientID, uid string) (int64, error)

	// DeleteTokensByRefreshTokenID removes one refresh-token instance:
	// the refresh token row itself plus every access token carrying its
	// id.
	DeleteTokensByRefreshTokenID(ctx context.Context, clientID, uid string, refreshTokenID idx.ID) (int64, error)

	ListTokensByUID(ctx context.Context, uid string) ([]domain.Token, error)
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}

// ScopedKeys is the scope to key-derivation-metadata registry.
type ScopedKeys interface {
	GetKeyDataByScope(ctx context.Context, scope string) (domain.ScopedKeyData, error)
	UpsertKeyData(ctx context.Context, data domain.ScopedKeyData) error
}
