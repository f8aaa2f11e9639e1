package clientcache

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lagoonid/oauthd/internal/oauth/domain"
	"github.com/lagoonid/oauthd/internal/oauth/store"

	"github.com/stretchr/testify/require"
)

type countingClients struct {
	gets    atomic.Int64
	clients map[string]domain.Client
}

func (c *countingClients) GetClientByID(_ context.Context, id string) (domain.Client, error) {
	c.gets.Add(1)
	client, ok := c.clients[id]
	if !ok {
		return domain.Client{}, store.ErrNotFound
	}
	return client, nil
}

func (c *countingClients) CreateClient(_ context.Context, client domain.Client) error {
	c.clients[client.ID] = client
	return nil
}

func (c *countingClients) DeleteClient(_ context.Context, id string) error {
	delete(c.clients, id)
	return nil
}

func TestCacheHit(t *testing.T) {
	t.Parallel()

	inner := &countingClients{clients: map[string]domain.Client{
		"abcdef0123456789": {ID: "abcdef0123456789", Name: "Relier"},
	}}
	cached := New(inner, time.Minute)
	ctx := context.Background()

	for range 5 {
		got, err := cached.GetClientByID(ctx, "abcdef0123456789")
		require.NoError(t, err)
		require.Equal(t, "Relier", got.Name)
	}
	require.EqualValues(t, 1, inner.gets.Load())
}

func TestMissNotCached(t *testing.T) {
	t.Parallel()

	inner := &countingClients{clients: map[string]domain.Client{}}
	cached := New(inner, time.Minute)
	ctx := context.Background()

	_, err := cached.GetClientByID(ctx, "0000000000000000")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = cached.GetClientByID(ctx, "0000000000000000")
	require.ErrorIs(t, err, store.ErrNotFound)
	require.EqualValues(t, 2, inner.gets.Load())
}

func TestDeleteEvicts(t *testing.T) {
	t.Parallel()

	inner := &countingClients{clients: map[string]domain.Client{
		"abcdef0123456789": {ID: "abcdef0123456789", Name: "Relier"},
	}}
	cached := New(inner, time.Minute)
	ctx := context.Background()

	_, err := cached.GetClientByID(ctx, "abcdef0123456789")
	require.NoError(t, err)

	require.NoError(t, cached.DeleteClient(ctx, "abcdef0123456789"))

	_, err = cached.GetClientByID(ctx, "abcdef0123456789")
	require.ErrorIs(t, err, store.ErrNotFound)
}
