// Package redis implements the code and token repositories on Redis,
// for deployments that keep grant state in a shared cache instead of
// the relational store. Clients and scoped keys remain relational; the
// app composes the two drivers.
package redis

import (
	"context"

	"github.com/lagoonid/oauthd/internal/oauth/store"

	"github.com/redis/go-redis/v9"
)

type Store struct {
	rdb *redis.Client
}

type Config struct {
	Addr     string
	Password string
	DB       int
}

func NewStore(cfg Config) *Store {
	return &Store{rdb: redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})}
}

func (s *Store) Close() error { return s.rdb.Close() }

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Codes() store.Codes   { return &codesRepo{rdb: s.rdb} }
func (s *Store) Tokens() store.Tokens { return &tokensRepo{rdb: s.rdb} }

func codeKey(hash string) string  { return "oauth:code:" + hash }
func tokenKey(hash string) string { return "oauth:token:" + hash }
func uidKey(uid string) string    { return "oauth:uid:" + uid }
