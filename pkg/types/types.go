package types

import (
	"time"
)

// KeyDelimiter separates key segments. In file storage each segment
// becomes a directory level.
const KeyDelimiter = "."

// WildcardPrefix routes every key no other route claims.
const WildcardPrefix = "*"

// DefaultLifeTime applies to items saved without an explicit expiration.
const DefaultLifeTime = 31622400 * time.Second

// OperationStats aggregates the outcomes of one operation kind.
type OperationStats struct {
	Total         uint64        `json:"total"`
	Failed        uint64        `json:"failed"`
	TotalDuration time.Duration `json:"total_duration"`
}

// SuccessRate is the share of successful calls, 1 when nothing ran.
func (s OperationStats) SuccessRate() float64 {
	if s.Total == 0 {
		return 1
	}
	return float64(s.Total-s.Failed) / float64(s.Total)
}

// PoolStats summarizes one pool's activity.
type PoolStats struct {
	Pool       string                    `json:"pool"`
	Hits       uint64                    `json:"hits"`
	Misses     uint64                    `json:"misses"`
	Operations map[string]OperationStats `json:"operations"`
}

// HitRate is hits over lookups, 0 when nothing was looked up.
func (s PoolStats) HitRate() float64 {
	lookups := s.Hits + s.Misses
	if lookups == 0 {
		return 0
	}
	return float64(s.Hits) / float64(lookups)
}
