package cache

import (
	"sync"
	"time"

	"github.com/talecache/talecache/internal/config"
	"github.com/talecache/talecache/internal/storage/file"
	"github.com/talecache/talecache/internal/storage/memory"
	"github.com/talecache/talecache/pkg/errors"
	"github.com/talecache/talecache/pkg/types"
	"github.com/talecache/talecache/pkg/utils"
)

// Manager holds named gateways. Pools it builds share the options given
// to NewManager.
type Manager struct {
	mu          sync.RWMutex
	names       []string
	gateways    map[string]*Gateway
	defaultName string

	opts   []Option
	logger *utils.StructuredLogger
	now    func() time.Time
}

// NewManager creates an empty manager. opts apply to every pool the
// manager builds; WithName and WithLifeTime are set per gateway.
func NewManager(opts ...Option) *Manager {
	// A pool without adapter resolves the shared settings.
	settings := NewPool(nil, opts...)
	return &Manager{
		gateways: make(map[string]*Gateway),
		opts:     opts,
		logger:   settings.baseLogger,
		now:      settings.now,
	}
}

// NewManagerFromConfig builds one gateway per configured pool, in
// declaration order. The configuration is validated first.
func NewManagerFromConfig(cfg *config.Configuration, opts ...Option) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := NewManager(opts...)
	for _, pool := range cfg.Pools {
		var err error
		switch pool.Type {
		case config.PoolTypeFile:
			err = m.addFileGateway(pool.Name, &file.Config{
				Path:        pool.Path,
				Format:      pool.Format,
				LifeTimeKey: pool.LifeTimeKey,
				Ignore:      pool.Ignore,
			}, pool.LifeTime)
		case config.PoolTypeMemory:
			err = m.AddAdapterGateway(pool.Name, memory.New(memory.WithClock(m.now)), pool.LifeTime)
		case config.PoolTypeRouting:
			err = m.addRoutingGateway(pool)
		}
		if err != nil {
			return nil, err
		}
	}
	m.defaultName = cfg.DefaultPoolName()

	m.logger.WithComponent("manager").Debug("manager configured", map[string]interface{}{
		"pools":        len(cfg.Pools),
		"default_pool": m.defaultName,
	})
	return m, nil
}

func (m *Manager) addRoutingGateway(pool config.PoolConfig) error {
	routes := make([]Route, 0, len(pool.Routes))
	for _, route := range pool.Routes {
		target, err := m.Gateway(route.Pool)
		if err != nil {
			return err
		}
		routes = append(routes, Route{Prefix: route.Prefix, Pool: target.Pool()})
	}
	return m.AddGateway(pool.Name, NewRoutingPool(routes...))
}

// AddGateway registers pool under name.
func (m *Manager) AddGateway(name string, pool ItemPool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.gateways[name]; exists {
		return errors.Newf(errors.ErrCodeDuplicatePool, "gateway %q already exists", name).
			WithComponent("manager").
			WithOperation("add_gateway")
	}

	m.gateways[name] = NewGateway(pool)
	m.names = append(m.names, name)
	if m.defaultName == "" {
		m.defaultName = name
	}
	return nil
}

// AddAdapterGateway registers a pool over adapter.
func (m *Manager) AddAdapterGateway(name string, adapter types.Adapter, lifeTime time.Duration) error {
	opts := append(append([]Option(nil), m.opts...), WithName(name), WithLifeTime(lifeTime))
	return m.AddGateway(name, NewPool(adapter, opts...))
}

// AddFileGateway registers a pool over a file adapter rooted at path.
func (m *Manager) AddFileGateway(name, path string, lifeTime time.Duration, formatName string) error {
	return m.addFileGateway(name, &file.Config{Path: path, Format: formatName}, lifeTime)
}

func (m *Manager) addFileGateway(name string, cfg *file.Config, lifeTime time.Duration) error {
	cfg.Now = m.now
	cfg.Logger = m.logger.WithField("pool", name)

	adapter, err := file.New(cfg)
	if err != nil {
		return err
	}
	return m.AddAdapterGateway(name, adapter, lifeTime)
}

// Gateway returns the gateway registered under name.
func (m *Manager) Gateway(name string) (*Gateway, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	gateway, ok := m.gateways[name]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeUnknownPool, "unknown gateway %q", name).
			WithComponent("manager").
			WithOperation("gateway").
			WithDetail("known", append([]string(nil), m.names...))
	}
	return gateway, nil
}

// Default returns the default gateway: the configured default pool, or
// the first registered one.
func (m *Manager) Default() (*Gateway, error) {
	m.mu.RLock()
	name := m.defaultName
	m.mu.RUnlock()
	return m.Gateway(name)
}

// Names returns the gateway names in registration order.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.names...)
}

// Commit commits every gateway and reports whether all succeeded.
func (m *Manager) Commit() bool {
	success := true
	for _, name := range m.Names() {
		gateway, err := m.Gateway(name)
		if err != nil {
			continue
		}
		if !gateway.Commit() {
			m.logger.WithComponent("manager").Warn("commit failed", map[string]interface{}{"pool": name})
			success = false
		}
	}
	return success
}

// Close commits every gateway.
func (m *Manager) Close() bool {
	return m.Commit()
}

// Duplicate returns a manager whose gateways wrap duplicates of this
// manager's pools. Routing pools route to the duplicates of the pools
// they shared here.
func (m *Manager) Duplicate() *Manager {
	m.mu.RLock()
	defer m.mu.RUnlock()

	dup := &Manager{
		names:       append([]string(nil), m.names...),
		gateways:    make(map[string]*Gateway, len(m.gateways)),
		defaultName: m.defaultName,
		opts:        m.opts,
		logger:      m.logger,
		now:         m.now,
	}

	dups := make(map[ItemPool]ItemPool)
	for _, name := range m.names {
		dup.gateways[name] = NewGateway(duplicatePool(m.gateways[name].Pool(), dups))
	}
	return dup
}
