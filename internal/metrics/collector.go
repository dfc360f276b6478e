package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/talecache/talecache/pkg/types"
)

// Collector records pool operations in a private Prometheus registry and
// keeps a per-pool summary for Snapshot.
type Collector struct {
	mu       sync.RWMutex
	config   *Config
	registry *prometheus.Registry

	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	lookupsTotal      *prometheus.CounterVec

	pools map[string]*types.PoolStats
}

// Config represents metrics configuration
type Config struct {
	Enabled   bool              `yaml:"enabled"`
	Namespace string            `yaml:"namespace"`
	Subsystem string            `yaml:"subsystem"`
	Labels    map[string]string `yaml:"labels"`
}

// NewCollector creates a new metrics collector. A disabled collector accepts
// every call and records nothing.
func NewCollector(config *Config) (*Collector, error) {
	if config == nil {
		config = &Config{
			Enabled:   true,
			Namespace: "talecache",
		}
	}

	if !config.Enabled {
		return &Collector{config: config}, nil
	}

	collector := &Collector{
		config:   config,
		registry: prometheus.NewRegistry(),
		pools:    make(map[string]*types.PoolStats),
	}

	collector.initMetrics()

	if err := collector.registerMetrics(); err != nil {
		return nil, err
	}

	return collector, nil
}

func (c *Collector) initMetrics() {
	constLabels := prometheus.Labels(c.config.Labels)

	c.operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   c.config.Namespace,
			Subsystem:   c.config.Subsystem,
			Name:        "operations_total",
			Help:        "Total number of pool operations",
			ConstLabels: constLabels,
		},
		[]string{"pool", "operation", "status"},
	)

	c.operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   c.config.Namespace,
			Subsystem:   c.config.Subsystem,
			Name:        "operation_duration_seconds",
			Help:        "Duration of pool operations",
			Buckets:     prometheus.ExponentialBuckets(0.0001, 2, 15),
			ConstLabels: constLabels,
		},
		[]string{"pool", "operation"},
	)

	c.lookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   c.config.Namespace,
			Subsystem:   c.config.Subsystem,
			Name:        "lookups_total",
			Help:        "Total number of hit checks by result",
			ConstLabels: constLabels,
		},
		[]string{"pool", "result"},
	)
}

func (c *Collector) registerMetrics() error {
	collectors := []prometheus.Collector{
		c.operationsTotal,
		c.operationDuration,
		c.lookupsTotal,
	}

	for _, collector := range collectors {
		if err := c.registry.Register(collector); err != nil {
			return err
		}
	}

	return nil
}

// Enabled reports whether the collector records anything.
func (c *Collector) Enabled() bool {
	return c.config.Enabled
}

// RecordOperation records one pool operation.
func (c *Collector) RecordOperation(pool, operation string, duration time.Duration, success bool) {
	if !c.config.Enabled {
		return
	}

	status := "success"
	if !success {
		status = "error"
	}

	c.operationsTotal.WithLabelValues(pool, operation, status).Inc()
	c.operationDuration.WithLabelValues(pool, operation).Observe(duration.Seconds())

	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.poolLocked(pool)
	op := stats.Operations[operation]
	op.Total++
	if !success {
		op.Failed++
	}
	op.TotalDuration += duration
	stats.Operations[operation] = op
}

// RecordLookup records the outcome of a hit check.
func (c *Collector) RecordLookup(pool string, hit bool) {
	if !c.config.Enabled {
		return
	}

	result := "miss"
	if hit {
		result = "hit"
	}
	c.lookupsTotal.WithLabelValues(pool, result).Inc()

	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.poolLocked(pool)
	if hit {
		stats.Hits++
	} else {
		stats.Misses++
	}
}

func (c *Collector) poolLocked(pool string) *types.PoolStats {
	stats, ok := c.pools[pool]
	if !ok {
		stats = &types.PoolStats{
			Pool:       pool,
			Operations: make(map[string]types.OperationStats),
		}
		c.pools[pool] = stats
	}
	return stats
}

// Snapshot returns a copy of the per-pool summaries.
func (c *Collector) Snapshot() map[string]types.PoolStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[string]types.PoolStats, len(c.pools))
	for name, stats := range c.pools {
		ops := make(map[string]types.OperationStats, len(stats.Operations))
		for op, s := range stats.Operations {
			ops[op] = s
		}
		result[name] = types.PoolStats{
			Pool:       stats.Pool,
			Hits:       stats.Hits,
			Misses:     stats.Misses,
			Operations: ops,
		}
	}
	return result
}

// Reset clears the summaries. Prometheus series are reset as well.
func (c *Collector) Reset() {
	if !c.config.Enabled {
		return
	}

	c.operationsTotal.Reset()
	c.operationDuration.Reset()
	c.lookupsTotal.Reset()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pools = make(map[string]*types.PoolStats)
}

// Registry returns the Prometheus registry, or nil when disabled.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns an HTTP handler exposing the registry.
func (c *Collector) Handler() http.Handler {
	if c.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

var _ types.MetricsCollector = (*Collector)(nil)
