package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type mapAdapter struct {
	values map[string]any
}

func (m *mapAdapter) Has(key string) bool { _, ok := m.values[key]; return ok }

func (m *mapAdapter) Get(key string) (any, error) { return m.values[key], nil }

func (m *mapAdapter) Set(key string, value any, _ time.Duration) bool {
	m.values[key] = value
	return true
}

func (m *mapAdapter) Remove(key string) bool { delete(m.values, key); return true }

func (m *mapAdapter) Clear() bool { m.values = map[string]any{}; return true }

func (m *mapAdapter) Duplicate() Adapter { return &mapAdapter{values: m.values} }

func TestInterfaces(t *testing.T) {
	var (
		_ Adapter          = (*mapAdapter)(nil)
		_ MetricsCollector = NoopMetrics{}
	)
}

func TestNoopMetrics(t *testing.T) {
	var m MetricsCollector = NoopMetrics{}
	assert.NotPanics(t, func() {
		m.RecordOperation("default", "save", time.Millisecond, false)
		m.RecordLookup("default", true)
	})
}

func TestOperationStats_SuccessRate(t *testing.T) {
	assert.Equal(t, 1.0, OperationStats{}.SuccessRate())
	assert.Equal(t, 0.75, OperationStats{Total: 4, Failed: 1}.SuccessRate())
}

func TestPoolStats_HitRate(t *testing.T) {
	assert.Equal(t, 0.0, PoolStats{}.HitRate())
	assert.InDelta(t, 0.666, PoolStats{Hits: 2, Misses: 1}.HitRate(), 0.001)
}

func TestDefaultLifeTime(t *testing.T) {
	assert.Equal(t, int64(31622400), int64(DefaultLifeTime/time.Second))
}
