package file

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/talecache/talecache/internal/format"
	"github.com/talecache/talecache/pkg/errors"
	"github.com/talecache/talecache/pkg/types"
	"github.com/talecache/talecache/pkg/utils"
)

// Adapter stores one file per key below a base directory. Key segments
// become directories:
//
//	user.42.profile  ->  <path>/user/42/profile.json
//
// Lifetimes live in a separate file in the same format. An entry is
// present while its file's age in whole seconds does not exceed the
// recorded lifetime.
type Adapter struct {
	mu sync.Mutex

	path        string
	format      types.Format
	lifeTimeKey string
	ignore      map[string]struct{}
	dirMode     os.FileMode
	now         func() time.Time
	logger      *utils.StructuredLogger

	lifeTimes *lifeTimes
}

// New creates a file adapter. A nil config means DefaultConfig.
func New(config *Config) (*Adapter, error) {
	if config == nil {
		config = DefaultConfig()
	}
	cfg := *config
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	f, err := format.New(cfg.Format)
	if err != nil {
		return nil, err
	}

	a := &Adapter{
		path:        filepath.Clean(cfg.Path),
		format:      f,
		lifeTimeKey: cfg.LifeTimeKey,
		ignore:      make(map[string]struct{}, len(cfg.Ignore)),
		dirMode:     cfg.DirMode,
		now:         cfg.Now,
		logger: cfg.Logger.WithComponent("file").WithFields(map[string]interface{}{
			"path":   cfg.Path,
			"format": f.Name(),
		}),
	}
	for _, name := range cfg.Ignore {
		a.ignore[name] = struct{}{}
	}

	lifeTimePath, err := a.KeyPath(cfg.LifeTimeKey)
	if err != nil {
		return nil, err
	}
	a.lifeTimes = newLifeTimes(lifeTimePath)
	a.lifeTimes.load(a.format, a.logger)

	return a, nil
}

// Path returns the cache root directory.
func (a *Adapter) Path() string {
	return a.path
}

// Format returns the serialization format.
func (a *Adapter) Format() types.Format {
	return a.format
}

// LifeTimePath returns the location of the lifetimes file.
func (a *Adapter) LifeTimePath() string {
	return a.lifeTimes.path
}

// KeyPath maps key to its data file.
func (a *Adapter) KeyPath(key string) (string, error) {
	trimmed := strings.Trim(key, types.KeyDelimiter)
	if trimmed == "" {
		return "", errors.Newf(errors.ErrCodeInvalidKey, "key %q has no segments", key).
			WithComponent("file").
			WithOperation("key_path")
	}

	rel := strings.ReplaceAll(trimmed, types.KeyDelimiter, string(filepath.Separator)) + a.format.Extension()
	path, err := utils.SecureJoin(a.path, rel)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInvalidKey, "key escapes the cache directory").
			WithComponent("file").
			WithOperation("key_path").
			WithContext("key", key)
	}
	return path, nil
}

func normalizeKey(key string) string {
	return strings.Trim(key, types.KeyDelimiter)
}

// entryPath is KeyPath for cache entries. The lifetimes key is reserved.
func (a *Adapter) entryPath(key string) (string, error) {
	if normalizeKey(key) == normalizeKey(a.lifeTimeKey) {
		return "", errors.Newf(errors.ErrCodeInvalidKey, "key %q is reserved for the lifetimes file", key).
			WithComponent("file").
			WithOperation("key_path")
	}
	return a.KeyPath(key)
}

// Has reports whether key has a data file younger than its lifetime.
func (a *Adapter) Has(key string) bool {
	path, err := a.entryPath(key)
	if err != nil {
		return false
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.lifeTimes.refresh(a.format, a.logger)

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}

	lifeTime := a.lifeTimes.entries[normalizeKey(key)]
	if lifeTime <= 0 {
		return false
	}

	age := int64(a.now().Sub(info.ModTime()) / time.Second)
	return age <= lifeTime
}

// Get loads the value stored under key. It does not check expiry.
func (a *Adapter) Get(key string) (any, error) {
	path, err := a.entryPath(key)
	if err != nil {
		return nil, err
	}
	return a.format.Load(path)
}

// Set writes the lifetimes file and then the data file. Both are
// attempted; the result is false if either write failed.
func (a *Adapter) Set(key string, value any, lifeTime time.Duration) bool {
	path, err := a.entryPath(key)
	if err != nil {
		a.logger.Warn("refusing to store invalid key", map[string]interface{}{"key": key, "error": err.Error()})
		return false
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := utils.EnsureDir(filepath.Dir(path), a.dirMode); err != nil {
		a.logger.Warn("failed to create cache directory", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return false
	}

	success := true

	a.lifeTimes.entries[normalizeKey(key)] = int64(lifeTime / time.Second)
	if err := a.lifeTimes.save(a.format); err != nil {
		a.logger.Warn("failed to save lifetimes", map[string]interface{}{"key": key, "error": err.Error()})
		success = false
	}

	if err := a.format.Save(path, value); err != nil {
		a.logger.Warn("failed to save value", map[string]interface{}{"key": key, "error": err.Error()})
		success = false
	}

	return success
}

// Remove deletes key's lifetime and data file. A key that is not stored
// counts as removed.
func (a *Adapter) Remove(key string) bool {
	path, err := a.entryPath(key)
	if err != nil {
		return false
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	success := true

	normalized := normalizeKey(key)
	if _, ok := a.lifeTimes.entries[normalized]; ok {
		delete(a.lifeTimes.entries, normalized)
		if err := a.lifeTimes.save(a.format); err != nil {
			a.logger.Warn("failed to save lifetimes", map[string]interface{}{"key": key, "error": err.Error()})
			success = false
		}
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		a.logger.Warn("failed to remove cache file", map[string]interface{}{"key": key, "error": err.Error()})
		success = false
	}

	return success
}

// Clear removes everything directly under the cache directory except the
// ignored names. It keeps going after a failure and reports false at the
// end. A missing cache directory is an empty cache.
func (a *Adapter) Clear() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	defer a.lifeTimes.reset()

	entries, err := os.ReadDir(a.path)
	if err != nil {
		if os.IsNotExist(err) {
			return true
		}
		a.logger.Warn("failed to list cache directory", map[string]interface{}{"error": err.Error()})
		return false
	}

	success := true
	for _, entry := range entries {
		if _, skip := a.ignore[entry.Name()]; skip {
			continue
		}
		if err := os.RemoveAll(filepath.Join(a.path, entry.Name())); err != nil {
			a.logger.Warn("failed to remove cache entry", map[string]interface{}{
				"entry": entry.Name(),
				"error": err.Error(),
			})
			success = false
		}
	}

	a.logger.Debug("cache cleared", map[string]interface{}{"entries": len(entries), "success": success})
	return success
}

// Duplicate returns an adapter on the same directory with its own format
// instance and a copy of the lifetimes table.
func (a *Adapter) Duplicate() types.Adapter {
	a.mu.Lock()
	defer a.mu.Unlock()

	ignore := make(map[string]struct{}, len(a.ignore))
	for name := range a.ignore {
		ignore[name] = struct{}{}
	}

	return &Adapter{
		path:        a.path,
		format:      a.format.Duplicate(),
		lifeTimeKey: a.lifeTimeKey,
		ignore:      ignore,
		dirMode:     a.dirMode,
		now:         a.now,
		logger:      a.logger,
		lifeTimes:   a.lifeTimes.clone(),
	}
}
