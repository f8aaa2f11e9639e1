// Package clientcache decorates the client registry with a short-lived
// in-memory cache. Client records change rarely and are read on every
// grant, so a small TTL cache removes most registry reads.
package clientcache

import (
	"context"
	"time"

	"github.com/lagoonid/oauthd/internal/oauth/domain"
	"github.com/lagoonid/oauthd/internal/oauth/store"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

type Clients struct {
	inner store.Clients
	cache *gocache.Cache
	group singleflight.Group
}

// New wraps inner with a cache holding entries for ttl. Negative lookups
// are not cached; an unknown client id is a caller error and rare.
func New(inner store.Clients, ttl time.Duration) *Clients {
	return &Clients{
		inner: inner,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func (c *Clients) GetClientByID(ctx context.Context, id string) (domain.Client, error) {
	if cached, ok := c.cache.Get(id); ok {
		return cached.(domain.Client), nil
	}

	// singleflight collapses concurrent misses for the same client into
	// one registry read.
	v, err, _ := c.group.Do(id, func() (any, error) {
		client, err := c.inner.GetClientByID(ctx, id)
		if err != nil {
			return nil, err
		}
		c.cache.SetDefault(id, client)
		return client, nil
	})
	if err != nil {
		return domain.Client{}, err
	}
	return v.(domain.Client), nil
}

func (c *Clients) CreateClient(ctx context.Context, client domain.Client) error {
	return c.inner.CreateClient(ctx, client)
}

func (c *Clients) DeleteClient(ctx context.Context, id string) error {
	c.cache.Delete(id)
	return c.inner.DeleteClient(ctx, id)
}
