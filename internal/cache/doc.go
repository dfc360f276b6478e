/*
Package cache implements items, pools and gateways on top of a storage
adapter.

# Items and pools

A Pool hands out one *Item per key and session. An item is a hit when its
adapter reports the key as stored and not expired; the answer is never
cached. Item.Set only changes the item. It is stored by Pool.Save, or
queued with Pool.SaveDeferred and stored by the next Commit.

	pool := cache.NewPool(adapter, cache.WithLifeTime(time.Hour))
	item, err := pool.GetItem("user.42")
	if err != nil {
		return err
	}
	if !item.IsHit() {
		item.Set(loadUser(42)).ExpiresAfter(10 * time.Minute)
		pool.SaveDeferred(item)
	}
	defer pool.Close()

Keys consist of letters, digits, '.', '-' and '_'. The '.' delimiter maps
to a directory level in file storage. Invalid keys and items from another
pool are reported as errors; storage failures are reported through the
boolean results and logged.

# Gateways

A Gateway is the key/value view used by applications:

	gateway := cache.NewGateway(pool)
	user, err := gateway.Load("user.42", func() (any, error) {
		return fetchUser(42)
	}, 10*time.Minute)

Load calls the producer only on a miss. Values queued in the same session
count as present until Commit.

# Routing

A RoutingPool sends each key to the first route whose prefix matches. The
prefix "*" matches every key. Keys without a route fail with
errors.ErrUnroutableKey.

	router := cache.NewRoutingPool(
		cache.Route{Prefix: "user.", Pool: users},
		cache.Route{Prefix: "*", Pool: fallback},
	)

# Managers

A Manager keeps named gateways and can be built from configuration with
NewManagerFromConfig. Duplicate gives every pool fresh in-memory state over
the same durable storage.
*/
package cache
