// Package memory implements a process-local cache storage adapter with the
// same lifetime rules as the file adapter.
package memory

import (
	"strings"
	"sync"
	"time"

	"github.com/talecache/talecache/pkg/types"
)

type entry struct {
	value    any
	storedAt time.Time
	lifeTime int64
}

// Store holds the entries. Adapters created with Duplicate share it.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{entries: make(map[string]entry)}
}

// Len returns the number of stored entries, expired ones included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Adapter is a types.Adapter over a Store.
type Adapter struct {
	store *Store
	now   func() time.Time
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithClock sets the clock used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(a *Adapter) {
		a.now = now
	}
}

// WithStore makes the adapter use an existing store.
func WithStore(store *Store) Option {
	return func(a *Adapter) {
		a.store = store
	}
}

// New creates an adapter over a fresh store unless WithStore is given.
func New(opts ...Option) *Adapter {
	a := &Adapter{now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	if a.store == nil {
		a.store = NewStore()
	}
	return a
}

// Store returns the backing store.
func (a *Adapter) Store() *Store {
	return a.store
}

// Keys are stored without leading or trailing delimiters, like file
// adapter paths.
func normalizeKey(key string) string {
	return strings.Trim(key, types.KeyDelimiter)
}

func (a *Adapter) Has(key string) bool {
	a.store.mu.RLock()
	e, ok := a.store.entries[normalizeKey(key)]
	a.store.mu.RUnlock()

	if !ok || e.lifeTime <= 0 {
		return false
	}
	return int64(a.now().Sub(e.storedAt)/time.Second) <= e.lifeTime
}

// Get returns the stored value, or nil when key is not stored. It does not
// check expiry.
func (a *Adapter) Get(key string) (any, error) {
	a.store.mu.RLock()
	defer a.store.mu.RUnlock()
	return a.store.entries[normalizeKey(key)].value, nil
}

func (a *Adapter) Set(key string, value any, lifeTime time.Duration) bool {
	a.store.mu.Lock()
	defer a.store.mu.Unlock()

	a.store.entries[normalizeKey(key)] = entry{
		value:    value,
		storedAt: a.now(),
		lifeTime: int64(lifeTime / time.Second),
	}
	return true
}

func (a *Adapter) Remove(key string) bool {
	a.store.mu.Lock()
	defer a.store.mu.Unlock()

	delete(a.store.entries, normalizeKey(key))
	return true
}

func (a *Adapter) Clear() bool {
	a.store.mu.Lock()
	defer a.store.mu.Unlock()

	a.store.entries = make(map[string]entry)
	return true
}

// Duplicate returns an adapter on the same store.
func (a *Adapter) Duplicate() types.Adapter {
	return &Adapter{store: a.store, now: a.now}
}
