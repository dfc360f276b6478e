package cache

import (
	"time"
)

// ItemState tracks an item through a pool session.
type ItemState int

const (
	// ItemUnset means no value was assigned in this session.
	ItemUnset ItemState = iota
	// ItemPending means Set was called and the value is not stored yet.
	ItemPending
	// ItemPersisted means the pool wrote the item to its adapter.
	ItemPersisted
	// ItemDiscarded means the item was deleted through its pool.
	ItemDiscarded
)

func (s ItemState) String() string {
	switch s {
	case ItemUnset:
		return "unset"
	case ItemPending:
		return "pending"
	case ItemPersisted:
		return "persisted"
	case ItemDiscarded:
		return "discarded"
	default:
		return "unknown"
	}
}

// Item is one cache slot. Items are created by Pool.GetItem and belong to
// that pool for its lifetime.
type Item struct {
	pool     *Pool
	key      string
	value    any
	loaded   bool
	lifeTime *time.Duration
	state    ItemState

	// hitSeen is set when IsHit last answered true and cleared by Get.
	hitSeen bool
}

func newItem(pool *Pool, key string) *Item {
	return &Item{pool: pool, key: key}
}

// Key returns the item's key.
func (i *Item) Key() string {
	return i.key
}

// Pool returns the owning pool.
func (i *Item) Pool() *Pool {
	return i.pool
}

// State returns the item's session state.
func (i *Item) State() ItemState {
	return i.state
}

// IsHit asks the adapter whether the key is stored and not expired. The
// answer is never cached, but a true answer carries over to the next Get.
func (i *Item) IsHit() bool {
	i.hitSeen = i.pool.has(i.key)
	return i.hitSeen
}

// Get returns the item's value: the pending value after Set, the stored
// value on a hit, nil otherwise. A stored value is read once per item.
// Right after IsHit returned true, Get returns the stored value without
// asking the adapter again.
func (i *Item) Get() any {
	if i.state == ItemPending {
		return i.value
	}
	hit := i.hitSeen || i.IsHit()
	i.hitSeen = false
	if !hit {
		return nil
	}
	if !i.loaded {
		value, ok := i.pool.load(i.key)
		if !ok {
			return nil
		}
		i.value = value
		i.loaded = true
	}
	return i.value
}

// Set assigns a value to be stored on the next save.
func (i *Item) Set(value any) *Item {
	i.value = value
	i.loaded = true
	i.state = ItemPending
	return i
}

// ExpiresAfter sets the item's lifetime.
func (i *Item) ExpiresAfter(d time.Duration) *Item {
	i.lifeTime = &d
	return i
}

// ExpiresAt sets the lifetime to the time left until t, or zero when t
// has passed.
func (i *Item) ExpiresAt(t time.Time) *Item {
	d := t.Sub(i.pool.now())
	if d < 0 {
		d = 0
	}
	return i.ExpiresAfter(d)
}

// ClearExpiration makes the item use the pool's default lifetime.
func (i *Item) ClearExpiration() *Item {
	i.lifeTime = nil
	return i
}

// LifeTime returns the item's own lifetime, if one is set.
func (i *Item) LifeTime() (time.Duration, bool) {
	if i.lifeTime == nil {
		return 0, false
	}
	return *i.lifeTime, true
}
