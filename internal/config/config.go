package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/talecache/talecache/internal/format"
	"github.com/talecache/talecache/pkg/errors"
	"github.com/talecache/talecache/pkg/types"
	"github.com/talecache/talecache/pkg/utils"
)

// Pool types
const (
	PoolTypeFile    = "file"
	PoolTypeMemory  = "memory"
	PoolTypeRouting = "routing"
)

// Configuration represents the complete application configuration
type Configuration struct {
	Global  GlobalConfig  `yaml:"global"`
	Metrics MetricsConfig `yaml:"metrics"`
	Pools   []PoolConfig  `yaml:"pools"`
}

// GlobalConfig represents global application settings
type GlobalConfig struct {
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	LogFile     string `yaml:"log_file"`
	DefaultPool string `yaml:"default_pool"`

	// ComponentLevels overrides LogLevel per component, e.g. pool: TRACE.
	ComponentLevels map[string]string `yaml:"component_levels,omitempty"`
}

// MetricsConfig represents metrics settings
type MetricsConfig struct {
	Enabled   bool              `yaml:"enabled"`
	Namespace string            `yaml:"namespace"`
	Subsystem string            `yaml:"subsystem"`
	Labels    map[string]string `yaml:"labels,omitempty"`
}

// PoolConfig declares one named pool. Routing pools may only route to
// pools declared before them.
type PoolConfig struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`

	// file pools
	Path        string   `yaml:"path,omitempty"`
	Format      string   `yaml:"format,omitempty"`
	LifeTimeKey string   `yaml:"life_time_key,omitempty"`
	Ignore      []string `yaml:"ignore,omitempty"`

	// LifeTime is the pool's default item lifetime, e.g. "24h".
	LifeTime time.Duration `yaml:"life_time,omitempty"`

	// routing pools
	Routes []RouteConfig `yaml:"routes,omitempty"`
}

// RouteConfig maps a key prefix, or "*", to a pool name.
type RouteConfig struct {
	Prefix string `yaml:"prefix"`
	Pool   string `yaml:"pool"`
}

// NewDefault returns a configuration with a single JSON file pool.
func NewDefault() *Configuration {
	return &Configuration{
		Global: GlobalConfig{
			LogLevel:    "INFO",
			LogFormat:   "text",
			LogFile:     "",
			DefaultPool: "default",
		},
		Metrics: MetricsConfig{
			Enabled:   false,
			Namespace: "talecache",
			Subsystem: "",
		},
		Pools: []PoolConfig{
			{
				Name:   "default",
				Type:   PoolTypeFile,
				Path:   "./cache",
				Format: format.JSON,
			},
		},
	}
}

// LoadFromFile loads configuration from a YAML file. Pools in the file
// replace the default pools.
func (c *Configuration) LoadFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigLoad, "failed to read config file").
			WithComponent("config").
			WithContext("file", filename)
	}

	c.Pools = nil
	if err := yaml.Unmarshal(data, c); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigLoad, "failed to parse config file").
			WithComponent("config").
			WithContext("file", filename)
	}

	return nil
}

// LoadFromEnv loads configuration from environment variables
func (c *Configuration) LoadFromEnv() error {
	if val := os.Getenv("TALECACHE_LOG_LEVEL"); val != "" {
		c.Global.LogLevel = val
	}
	if val := os.Getenv("TALECACHE_LOG_FORMAT"); val != "" {
		c.Global.LogFormat = val
	}
	if val := os.Getenv("TALECACHE_LOG_FILE"); val != "" {
		c.Global.LogFile = val
	}
	if val := os.Getenv("TALECACHE_DEFAULT_POOL"); val != "" {
		c.Global.DefaultPool = val
	}
	if val := os.Getenv("TALECACHE_METRICS_ENABLED"); val != "" {
		enabled, err := strconv.ParseBool(val)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInvalidConfig, "TALECACHE_METRICS_ENABLED must be a boolean").
				WithComponent("config")
		}
		c.Metrics.Enabled = enabled
	}

	// The cache path override applies to the default pool only.
	if val := os.Getenv("TALECACHE_CACHE_PATH"); val != "" {
		if pool := c.Pool(c.DefaultPoolName()); pool != nil && pool.Type == PoolTypeFile {
			pool.Path = val
		}
	}

	return nil
}

// SaveToFile saves the configuration to a YAML file
func (c *Configuration) SaveToFile(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigSave, "failed to marshal config").WithComponent("config")
	}

	if err := os.MkdirAll(filepath.Dir(filename), 0750); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigSave, "failed to create config directory").WithComponent("config")
	}

	if err := os.WriteFile(filename, data, 0600); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigSave, "failed to write config file").WithComponent("config")
	}

	return nil
}

// Pool returns the pool declaration named name, or nil.
func (c *Configuration) Pool(name string) *PoolConfig {
	for i := range c.Pools {
		if c.Pools[i].Name == name {
			return &c.Pools[i]
		}
	}
	return nil
}

// DefaultPoolName returns Global.DefaultPool, falling back to the first
// declared pool.
func (c *Configuration) DefaultPoolName() string {
	if c.Global.DefaultPool != "" {
		return c.Global.DefaultPool
	}
	if len(c.Pools) > 0 {
		return c.Pools[0].Name
	}
	return ""
}

// Validate validates the configuration
func (c *Configuration) Validate() error {
	if _, err := utils.ParseLogLevel(c.Global.LogLevel); err != nil {
		return invalid("invalid log_level: %s (must be one of: TRACE, DEBUG, INFO, WARN, ERROR, FATAL)", c.Global.LogLevel)
	}
	for component, level := range c.Global.ComponentLevels {
		if _, err := utils.ParseLogLevel(level); err != nil {
			return invalid("invalid component_levels.%s: %s", component, level)
		}
	}
	if _, err := utils.ParseLogFormat(c.Global.LogFormat); err != nil {
		return invalid("invalid log_format: %s (must be text or json)", c.Global.LogFormat)
	}

	if len(c.Pools) == 0 {
		return invalid("at least one pool must be configured")
	}

	declared := make(map[string]bool, len(c.Pools))
	for i, pool := range c.Pools {
		if strings.TrimSpace(pool.Name) == "" {
			return invalid("pool #%d has no name", i+1)
		}
		if declared[pool.Name] {
			return errors.Newf(errors.ErrCodeDuplicatePool, "pool %q is declared twice", pool.Name).
				WithComponent("config").
				WithOperation("validate")
		}
		if pool.LifeTime < 0 {
			return invalid("pool %q: life_time must not be negative", pool.Name)
		}

		switch pool.Type {
		case PoolTypeFile:
			if pool.Format != "" {
				if _, err := format.New(pool.Format); err != nil {
					return invalid("pool %q: unknown format %q (must be one of: %s)",
						pool.Name, pool.Format, strings.Join(format.Names(), ", "))
				}
			}
		case PoolTypeMemory:
		case PoolTypeRouting:
			if len(pool.Routes) == 0 {
				return invalid("routing pool %q has no routes", pool.Name)
			}
			for _, route := range pool.Routes {
				if route.Prefix == "" {
					return invalid("routing pool %q: route prefix must not be empty, use %q to match everything",
						pool.Name, types.WildcardPrefix)
				}
				if !declared[route.Pool] {
					return invalid("routing pool %q: route %q refers to pool %q, which is not declared before it",
						pool.Name, route.Prefix, route.Pool)
				}
			}
		default:
			return invalid("pool %q: unknown type %q (must be file, memory or routing)", pool.Name, pool.Type)
		}

		declared[pool.Name] = true
	}

	if name := c.Global.DefaultPool; name != "" && !declared[name] {
		return errors.Newf(errors.ErrCodeUnknownPool, "default_pool %q is not declared", name).
			WithComponent("config").
			WithOperation("validate")
	}

	return nil
}

func invalid(msg string, args ...interface{}) error {
	return errors.Newf(errors.ErrCodeConfigValidation, msg, args...).
		WithComponent("config").
		WithOperation("validate")
}
