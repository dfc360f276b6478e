package file

import (
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/talecache/talecache/internal/format"
	"github.com/talecache/talecache/pkg/errors"
	"github.com/talecache/talecache/pkg/types"
	"github.com/talecache/talecache/pkg/utils"
)

var lifeTimeKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Config configures a file Adapter.
type Config struct {
	// Path is the cache root directory. It is created on first write.
	Path string `yaml:"path"`

	// Format is one of format.Names().
	Format string `yaml:"format"`

	// LifeTimeKey names the lifetimes file, which is stored like a cache
	// entry under this key.
	LifeTimeKey string `yaml:"life_time_key"`

	// Ignore lists file names directly under Path that Clear keeps.
	Ignore []string `yaml:"ignore"`

	DirMode os.FileMode `yaml:"-"`

	// Now is the clock used for expiry checks.
	Now func() time.Time `yaml:"-"`

	Logger *utils.StructuredLogger `yaml:"-"`
}

// DefaultConfig returns the configuration used for zero fields.
func DefaultConfig() *Config {
	return &Config{
		Path:        "./cache",
		Format:      format.JSON,
		LifeTimeKey: "cache-lifetimes",
		Ignore:      []string{".gitignore", ".gitkeep"},
		DirMode:     0o775,
		Now:         time.Now,
	}
}

func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Path == "" {
		c.Path = defaults.Path
	}
	if c.Format == "" {
		c.Format = defaults.Format
	}
	if c.LifeTimeKey == "" {
		c.LifeTimeKey = defaults.LifeTimeKey
	}
	if c.Ignore == nil {
		c.Ignore = defaults.Ignore
	}
	if c.DirMode == 0 {
		c.DirMode = defaults.DirMode
	}
	if c.Now == nil {
		c.Now = defaults.Now
	}
	if c.Logger == nil {
		c.Logger = utils.NewDiscardLogger()
	}
}

// Validate checks the configuration after defaults are applied.
func (c *Config) Validate() error {
	if _, err := format.New(c.Format); err != nil {
		return err
	}

	key := strings.Trim(c.LifeTimeKey, types.KeyDelimiter)
	if key == "" || !lifeTimeKeyPattern.MatchString(key) {
		return errors.Newf(errors.ErrCodeInvalidConfig, "invalid lifetime key %q", c.LifeTimeKey).
			WithComponent("file").
			WithOperation("validate")
	}

	for _, name := range c.Ignore {
		if strings.ContainsRune(name, '/') || strings.ContainsRune(name, os.PathSeparator) {
			return errors.Newf(errors.ErrCodeInvalidConfig, "ignore entry %q must be a plain file name", name).
				WithComponent("file").
				WithOperation("validate")
		}
	}
	return nil
}
