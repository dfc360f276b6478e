package cache

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/talecache/talecache/internal/format"
	"github.com/talecache/talecache/internal/storage/memory"
	"github.com/talecache/talecache/pkg/types"
)

type record struct {
	A, B, C int
}

func init() {
	format.Register(record{})
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// flakyAdapter fails writes or removals on demand.
type flakyAdapter struct {
	types.Adapter
	failSet    bool
	failRemove bool
}

func (a *flakyAdapter) Set(key string, value any, lifeTime time.Duration) bool {
	if a.failSet {
		return false
	}
	return a.Adapter.Set(key, value, lifeTime)
}

func (a *flakyAdapter) Remove(key string) bool {
	if a.failRemove {
		return false
	}
	return a.Adapter.Remove(key)
}

func (a *flakyAdapter) Duplicate() types.Adapter {
	return &flakyAdapter{Adapter: a.Adapter.Duplicate(), failSet: a.failSet, failRemove: a.failRemove}
}

type recordingMetrics struct {
	mu     sync.Mutex
	ops    map[string]int
	failed map[string]int
	hits   int
	misses int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{ops: make(map[string]int), failed: make(map[string]int)}
}

func (m *recordingMetrics) RecordOperation(pool, operation string, _ time.Duration, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops[pool+"/"+operation]++
	if !success {
		m.failed[pool+"/"+operation]++
	}
}

func (m *recordingMetrics) RecordLookup(_ string, hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if hit {
		m.hits++
	} else {
		m.misses++
	}
}

func newMemoryPool(t *testing.T, opts ...Option) (*Pool, *clock) {
	t.Helper()

	c := newClock()
	adapter := memory.New(memory.WithClock(c.Now))
	return NewPool(adapter, append([]Option{WithClock(c.Now)}, opts...)...), c
}

func mustItem(t *testing.T, pool ItemPool, key string) *Item {
	t.Helper()
	item, err := pool.GetItem(key)
	require.NoError(t, err)
	return item
}

// dataEntries lists dir without the housekeeping files Clear keeps.
func dataEntries(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)

	var names []string
	for _, entry := range entries {
		if entry.Name() == ".gitignore" || entry.Name() == ".gitkeep" {
			continue
		}
		names = append(names, entry.Name())
	}
	return names
}

// tickingClock returns a clock that moves forward by step on every reading.
func tickingClock(step time.Duration) func() time.Time {
	var mu sync.Mutex
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(step)
		return now
	}
}
