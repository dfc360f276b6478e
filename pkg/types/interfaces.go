package types

import (
	"time"
)

// Adapter is the storage backend behind a cache pool. Implementations
// report storage failures through their boolean results; only reads return
// errors, for values that exist but cannot be decoded.
type Adapter interface {
	// Has reports whether key is stored and its lifetime has not run out.
	Has(key string) bool

	// Get loads the value stored under key without checking expiry.
	Get(key string) (any, error)

	// Set stores value under key for lifeTime.
	Set(key string, value any, lifeTime time.Duration) bool

	// Remove deletes key. Removing an absent key succeeds.
	Remove(key string) bool

	// Clear deletes every entry.
	Clear() bool

	// Duplicate returns an independent adapter over the same durable state.
	Duplicate() Adapter
}

// Format serializes cache values to files.
type Format interface {
	Name() string

	// Extension is appended to every data file, including the dot.
	Extension() string

	Load(path string) (any, error)
	Save(path string, value any) error

	Duplicate() Format
}

// MetricsCollector receives cache operation outcomes.
type MetricsCollector interface {
	RecordOperation(pool, operation string, duration time.Duration, success bool)
	RecordLookup(pool string, hit bool)
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) RecordOperation(string, string, time.Duration, bool) {}
func (NoopMetrics) RecordLookup(string, bool)                         {}
