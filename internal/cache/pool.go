package cache

import (
	"sync"
	"time"

	"github.com/talecache/talecache/pkg/errors"
	"github.com/talecache/talecache/pkg/types"
	"github.com/talecache/talecache/pkg/utils"
)

// ItemPool is the contract shared by Pool and RoutingPool.
//
// Key and ownership problems are returned as errors. Storage failures are
// reported through the boolean results.
type ItemPool interface {
	GetItem(key string) (*Item, error)
	GetItems(keys []string) (map[string]*Item, error)
	HasItem(key string) (bool, error)
	DeleteItem(key string) (bool, error)
	DeleteItems(keys []string) (bool, error)
	Save(item *Item) (bool, error)
	SaveDeferred(item *Item) (bool, error)
	Commit() bool
	Clear() bool

	// Duplicate returns a pool with fresh in-memory state over the same
	// durable storage.
	Duplicate() ItemPool
}

// DefaultLifeTime is used when neither the item nor the pool sets one.
const DefaultLifeTime = types.DefaultLifeTime

// Option configures a Pool.
type Option func(*Pool)

// WithLifeTime sets the pool's default item lifetime. Values below one
// second keep DefaultLifeTime.
func WithLifeTime(d time.Duration) Option {
	return func(p *Pool) {
		if d >= time.Second {
			p.lifeTime = d
		}
	}
}

// WithName sets the name used in logs and metrics.
func WithName(name string) Option {
	return func(p *Pool) {
		p.name = name
	}
}

// WithLogger sets the pool's logger.
func WithLogger(logger *utils.StructuredLogger) Option {
	return func(p *Pool) {
		if logger != nil {
			p.baseLogger = logger
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m types.MetricsCollector) Option {
	return func(p *Pool) {
		if m != nil {
			p.metrics = m
		}
	}
}

// WithClock sets the clock used by Item.ExpiresAt.
func WithClock(now func() time.Time) Option {
	return func(p *Pool) {
		if now != nil {
			p.now = now
		}
	}
}

// Pool manages items on top of an adapter.
type Pool struct {
	mu sync.Mutex

	name     string
	adapter  types.Adapter
	lifeTime time.Duration
	items    map[string]*Item
	deferred []*Item

	baseLogger *utils.StructuredLogger
	logger     *utils.StructuredLogger
	metrics    types.MetricsCollector
	now        func() time.Time
}

// NewPool creates a pool on adapter.
func NewPool(adapter types.Adapter, opts ...Option) *Pool {
	p := &Pool{
		name:       "default",
		adapter:    adapter,
		lifeTime:   DefaultLifeTime,
		items:      make(map[string]*Item),
		baseLogger: utils.NewDiscardLogger(),
		metrics:    types.NoopMetrics{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.baseLogger.WithComponent("pool").WithField("pool", p.name)
	return p
}

// Name returns the pool's name.
func (p *Pool) Name() string {
	return p.name
}

// Adapter returns the storage adapter.
func (p *Pool) Adapter() types.Adapter {
	return p.adapter
}

// LifeTime returns the default item lifetime.
func (p *Pool) LifeTime() time.Duration {
	return p.lifeTime
}

// DeferredItems returns a copy of the commit queue.
func (p *Pool) DeferredItems() []*Item {
	p.mu.Lock()
	defer p.mu.Unlock()

	items := make([]*Item, len(p.deferred))
	copy(items, p.deferred)
	return items
}

// GetItem returns the item for key, creating it on first use.
func (p *Pool) GetItem(key string) (*Item, error) {
	if err := p.checkKey(key, "get_item"); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	item, ok := p.items[key]
	if !ok {
		item = newItem(p, key)
		p.items[key] = item
	}
	return item, nil
}

// GetItems returns the items for keys. It fails on the first invalid key.
func (p *Pool) GetItems(keys []string) (map[string]*Item, error) {
	items := make(map[string]*Item, len(keys))
	for _, key := range keys {
		item, err := p.GetItem(key)
		if err != nil {
			return nil, err
		}
		items[key] = item
	}
	return items, nil
}

// HasItem reports whether key is stored and not expired.
func (p *Pool) HasItem(key string) (bool, error) {
	item, err := p.GetItem(key)
	if err != nil {
		return false, err
	}
	return item.IsHit(), nil
}

// DeleteItem removes key from storage and forgets its item.
func (p *Pool) DeleteItem(key string) (bool, error) {
	if err := p.checkKey(key, "delete_item"); err != nil {
		return false, err
	}

	start := time.Now()
	ok := p.adapter.Remove(key)
	p.metrics.RecordOperation(p.name, "delete", time.Since(start), ok)
	if !ok {
		p.logger.Warn("failed to delete item", map[string]interface{}{"key": key})
	}

	p.mu.Lock()
	if item, exists := p.items[key]; exists {
		item.state = ItemDiscarded
		item.value = nil
		item.loaded = false
		item.hitSeen = false
		delete(p.items, key)
		p.dequeueLocked(item)
	}
	p.mu.Unlock()

	return ok, nil
}

// DeleteItems deletes every key, continuing past failures. Keys are
// validated before anything is deleted.
func (p *Pool) DeleteItems(keys []string) (bool, error) {
	for _, key := range keys {
		if err := p.checkKey(key, "delete_items"); err != nil {
			return false, err
		}
	}

	success := true
	for _, key := range keys {
		ok, err := p.DeleteItem(key)
		if err != nil {
			return false, err
		}
		if !ok {
			success = false
		}
	}
	return success, nil
}

// Save writes item to the adapter now, with its own lifetime or the
// pool default.
func (p *Pool) Save(item *Item) (bool, error) {
	if err := p.validateItem(item, "save"); err != nil {
		return false, err
	}

	lifeTime, ok := item.LifeTime()
	if !ok {
		lifeTime = p.lifeTime
	}

	start := time.Now()
	saved := p.adapter.Set(item.key, item.value, lifeTime)
	p.metrics.RecordOperation(p.name, "save", time.Since(start), saved)

	if !saved {
		p.logger.Warn("failed to save item", map[string]interface{}{
			"key":       item.key,
			"life_time": lifeTime.String(),
		})
		return false, nil
	}

	item.state = ItemPersisted
	item.loaded = true
	return true, nil
}

// SaveDeferred queues item for the next Commit. It returns false when the
// item is already queued.
func (p *Pool) SaveDeferred(item *Item) (bool, error) {
	if err := p.validateItem(item, "save_deferred"); err != nil {
		return false, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, queued := range p.deferred {
		if queued == item {
			return false, nil
		}
	}
	p.deferred = append(p.deferred, item)
	return true, nil
}

// Commit saves every queued item in queue order and empties the queue.
// It returns false if any save failed.
func (p *Pool) Commit() bool {
	p.mu.Lock()
	queue := p.deferred
	p.deferred = nil
	p.mu.Unlock()

	if len(queue) == 0 {
		return true
	}

	success := true
	for _, item := range queue {
		if ok, err := p.Save(item); err != nil || !ok {
			success = false
		}
	}

	p.logger.Debug("committed deferred items", map[string]interface{}{
		"count":   len(queue),
		"success": success,
	})
	return success
}

// Clear empties the adapter and forgets all items.
func (p *Pool) Clear() bool {
	start := time.Now()
	ok := p.adapter.Clear()
	p.metrics.RecordOperation(p.name, "clear", time.Since(start), ok)
	if !ok {
		p.logger.Warn("failed to clear pool")
	}

	p.mu.Lock()
	p.items = make(map[string]*Item)
	p.mu.Unlock()

	return ok
}

// Duplicate returns a pool on a duplicate of the adapter with no items
// and an empty queue.
func (p *Pool) Duplicate() ItemPool {
	return &Pool{
		name:       p.name,
		adapter:    p.adapter.Duplicate(),
		lifeTime:   p.lifeTime,
		items:      make(map[string]*Item),
		baseLogger: p.baseLogger,
		logger:     p.logger,
		metrics:    p.metrics,
		now:        p.now,
	}
}

// Close commits the queue. Call it when the pool is no longer used.
func (p *Pool) Close() bool {
	return p.Commit()
}

func (p *Pool) checkKey(key, op string) error {
	if IsValidKey(key) {
		return nil
	}
	return errors.Newf(errors.ErrCodeInvalidKey, "invalid cache key %q", key).
		WithComponent("pool").
		WithOperation(op).
		WithContext("key", key).
		WithContext("pool", p.name)
}

func (p *Pool) validateItem(item *Item, op string) error {
	if item == nil || item.pool != p {
		err := errors.NewError(errors.ErrCodeInvalidItem, "item does not originate from this pool").
			WithComponent("pool").
			WithOperation(op).
			WithContext("pool", p.name)
		if item != nil {
			err.WithContext("key", item.key)
		}
		return err
	}
	return nil
}

func (p *Pool) dequeueLocked(item *Item) {
	for i, queued := range p.deferred {
		if queued == item {
			p.deferred = append(p.deferred[:i], p.deferred[i+1:]...)
			return
		}
	}
}

func (p *Pool) has(key string) bool {
	start := time.Now()
	hit := p.adapter.Has(key)
	p.metrics.RecordOperation(p.name, "has", time.Since(start), true)
	p.metrics.RecordLookup(p.name, hit)
	p.logger.Trace("lookup", map[string]interface{}{"key": key, "hit": hit})
	return hit
}

func (p *Pool) load(key string) (any, bool) {
	start := time.Now()
	value, err := p.adapter.Get(key)
	p.metrics.RecordOperation(p.name, "get", time.Since(start), err == nil)
	if err != nil {
		p.logger.Warn("failed to load item", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return nil, false
	}
	p.logger.Trace("loaded item", map[string]interface{}{"key": key})
	return value, true
}
