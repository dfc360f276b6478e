package cache

import (
	"time"

	"github.com/talecache/talecache/pkg/errors"
)

// Gateway is a key/value view of an ItemPool. Writes are deferred until
// Commit.
type Gateway struct {
	pool ItemPool
}

// NewGateway wraps pool.
func NewGateway(pool ItemPool) *Gateway {
	return &Gateway{pool: pool}
}

// Pool returns the wrapped pool.
func (g *Gateway) Pool() ItemPool {
	return g.pool
}

func (g *Gateway) GetItem(key string) (*Item, error) {
	return g.pool.GetItem(key)
}

func (g *Gateway) Has(key string) (bool, error) {
	return g.pool.HasItem(key)
}

// Get returns the value under key, or nil on a miss.
func (g *Gateway) Get(key string) (any, error) {
	item, err := g.pool.GetItem(key)
	if err != nil {
		return nil, err
	}
	return item.Get(), nil
}

// GetMany returns a value for every key, nil for misses.
func (g *Gateway) GetMany(keys []string) (map[string]any, error) {
	items, err := g.pool.GetItems(keys)
	if err != nil {
		return nil, err
	}
	values := make(map[string]any, len(items))
	for key, item := range items {
		values[key] = item.Get()
	}
	return values, nil
}

// Set queues value under key. A lifeTime of zero or less uses the pool
// default.
func (g *Gateway) Set(key string, value any, lifeTime time.Duration) error {
	item, err := g.pool.GetItem(key)
	if err != nil {
		return err
	}
	g.assign(item, value, lifeTime)
	_, err = g.pool.SaveDeferred(item)
	return err
}

// SetMany queues every entry of values with the same lifetime.
func (g *Gateway) SetMany(values map[string]any, lifeTime time.Duration) error {
	for key, value := range values {
		if err := g.Set(key, value, lifeTime); err != nil {
			return err
		}
	}
	return nil
}

func (g *Gateway) Delete(key string) (bool, error) {
	return g.pool.DeleteItem(key)
}

func (g *Gateway) DeleteMany(keys []string) (bool, error) {
	return g.pool.DeleteItems(keys)
}

func (g *Gateway) Commit() bool {
	return g.pool.Commit()
}

func (g *Gateway) Clear() bool {
	return g.pool.Clear()
}

// Load returns the value under key. On a miss it calls producer once,
// queues the result with lifeTime and returns it. A value queued earlier
// in the session counts as present, so producer is not called again
// before Commit.
func (g *Gateway) Load(key string, producer func() (any, error), lifeTime time.Duration) (any, error) {
	item, err := g.pool.GetItem(key)
	if err != nil {
		return nil, err
	}

	if item.State() == ItemPending || item.IsHit() {
		return item.Get(), nil
	}

	value, err := producer()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeProducerFailed, "value producer failed").
			WithComponent("gateway").
			WithOperation("load").
			WithContext("key", key)
	}

	g.assign(item, value, lifeTime)
	if _, err := g.pool.SaveDeferred(item); err != nil {
		return nil, err
	}
	return value, nil
}

func (g *Gateway) assign(item *Item, value any, lifeTime time.Duration) {
	item.Set(value)
	if lifeTime > 0 {
		item.ExpiresAfter(lifeTime)
	} else {
		item.ClearExpiration()
	}
}
