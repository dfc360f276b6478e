package cache

import (
	"strings"
	"sync"

	"github.com/talecache/talecache/pkg/errors"
	"github.com/talecache/talecache/pkg/types"
)

// Route sends keys starting with Prefix to Pool. The prefix
// types.WildcardPrefix matches every key.
type Route struct {
	Prefix string
	Pool   ItemPool
}

func (r Route) matches(key string) bool {
	return r.Prefix == types.WildcardPrefix || strings.HasPrefix(key, r.Prefix)
}

// RoutingPool dispatches keys to child pools. Routes are tried in order
// and the first match wins; the choice is remembered per key.
type RoutingPool struct {
	mu     sync.Mutex
	routes []Route
	routed map[string]ItemPool
}

// NewRoutingPool creates a routing pool. Route order is significant.
func NewRoutingPool(routes ...Route) *RoutingPool {
	return &RoutingPool{
		routes: append([]Route(nil), routes...),
		routed: make(map[string]ItemPool),
	}
}

// Routes returns the routes in registration order.
func (r *RoutingPool) Routes() []Route {
	return append([]Route(nil), r.routes...)
}

// PoolForKey returns the child pool responsible for key. Invalid keys are
// rejected before routing.
func (r *RoutingPool) PoolForKey(key string) (ItemPool, error) {
	if !IsValidKey(key) {
		return nil, errors.Newf(errors.ErrCodeInvalidKey, "invalid cache key %q", key).
			WithComponent("routing").
			WithContext("key", key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if pool, ok := r.routed[key]; ok {
		return pool, nil
	}

	for _, route := range r.routes {
		if route.matches(key) {
			r.routed[key] = route.Pool
			return route.Pool, nil
		}
	}

	return nil, errors.Newf(errors.ErrCodeUnroutableKey,
		"could not route cache key %s, add a route for %q to catch unrouted keys", key, types.WildcardPrefix).
		WithComponent("routing").
		WithContext("key", key).
		WithDetail("routes", len(r.routes))
}

func (r *RoutingPool) GetItem(key string) (*Item, error) {
	pool, err := r.PoolForKey(key)
	if err != nil {
		return nil, err
	}
	return pool.GetItem(key)
}

func (r *RoutingPool) GetItems(keys []string) (map[string]*Item, error) {
	items := make(map[string]*Item, len(keys))
	for _, key := range keys {
		item, err := r.GetItem(key)
		if err != nil {
			return nil, err
		}
		items[key] = item
	}
	return items, nil
}

func (r *RoutingPool) HasItem(key string) (bool, error) {
	pool, err := r.PoolForKey(key)
	if err != nil {
		return false, err
	}
	return pool.HasItem(key)
}

func (r *RoutingPool) DeleteItem(key string) (bool, error) {
	pool, err := r.PoolForKey(key)
	if err != nil {
		return false, err
	}
	return pool.DeleteItem(key)
}

// DeleteItems routes every key before deleting any of them, then deletes
// all of them and reports whether every deletion succeeded.
func (r *RoutingPool) DeleteItems(keys []string) (bool, error) {
	pools := make([]ItemPool, len(keys))
	for i, key := range keys {
		pool, err := r.PoolForKey(key)
		if err != nil {
			return false, err
		}
		pools[i] = pool
	}

	success := true
	for i, key := range keys {
		ok, err := pools[i].DeleteItem(key)
		if err != nil {
			return false, err
		}
		if !ok {
			success = false
		}
	}
	return success, nil
}

func (r *RoutingPool) Save(item *Item) (bool, error) {
	if item == nil {
		return false, errors.NewError(errors.ErrCodeInvalidItem, "nil item").WithComponent("routing")
	}
	pool, err := r.PoolForKey(item.Key())
	if err != nil {
		return false, err
	}
	return pool.Save(item)
}

func (r *RoutingPool) SaveDeferred(item *Item) (bool, error) {
	if item == nil {
		return false, errors.NewError(errors.ErrCodeInvalidItem, "nil item").WithComponent("routing")
	}
	pool, err := r.PoolForKey(item.Key())
	if err != nil {
		return false, err
	}
	return pool.SaveDeferred(item)
}

// Commit commits every distinct child pool.
func (r *RoutingPool) Commit() bool {
	success := true
	for _, pool := range r.children() {
		if !pool.Commit() {
			success = false
		}
	}
	return success
}

// Clear clears every distinct child pool, continuing past failures.
func (r *RoutingPool) Clear() bool {
	success := true
	for _, pool := range r.children() {
		if !pool.Clear() {
			success = false
		}
	}
	return success
}

// Duplicate duplicates every child once. Routes that shared a child share
// its duplicate.
func (r *RoutingPool) Duplicate() ItemPool {
	return r.duplicate(make(map[ItemPool]ItemPool))
}

func (r *RoutingPool) duplicate(dups map[ItemPool]ItemPool) *RoutingPool {
	routes := make([]Route, len(r.routes))
	for i, route := range r.routes {
		routes[i] = Route{Prefix: route.Prefix, Pool: duplicatePool(route.Pool, dups)}
	}
	return NewRoutingPool(routes...)
}

// duplicatePool duplicates pool once per dups, so pools reachable through
// several routes keep sharing one duplicate.
func duplicatePool(pool ItemPool, dups map[ItemPool]ItemPool) ItemPool {
	if dup, ok := dups[pool]; ok {
		return dup
	}
	var dup ItemPool
	if routing, ok := pool.(*RoutingPool); ok {
		dup = routing.duplicate(dups)
	} else {
		dup = pool.Duplicate()
	}
	dups[pool] = dup
	return dup
}

// Close commits every child pool.
func (r *RoutingPool) Close() bool {
	return r.Commit()
}

func (r *RoutingPool) children() []ItemPool {
	seen := make(map[ItemPool]struct{}, len(r.routes))
	pools := make([]ItemPool, 0, len(r.routes))
	for _, route := range r.routes {
		if _, ok := seen[route.Pool]; ok {
			continue
		}
		seen[route.Pool] = struct{}{}
		pools = append(pools, route.Pool)
	}
	return pools
}
