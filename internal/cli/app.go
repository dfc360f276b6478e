// Package cli provides the command-line interface for talecache.
package cli

import (
	"fmt"
	"io"

	"github.com/talecache/talecache/internal/cache"
	"github.com/talecache/talecache/internal/config"
	"github.com/talecache/talecache/internal/metrics"
	"github.com/talecache/talecache/pkg/utils"
)

// App holds the configuration, pools and logger for one CLI invocation.
type App struct {
	Config  *config.Configuration
	Manager *cache.Manager
	Metrics *metrics.Collector
	Logger  *utils.StructuredLogger

	logOutput io.Closer
}

// LoadConfig loads the configuration from configPath, or the defaults when
// it is empty, and applies environment overrides.
func LoadConfig(configPath string) (*config.Configuration, error) {
	cfg := config.NewDefault()
	if configPath != "" {
		if err := cfg.LoadFromFile(configPath); err != nil {
			return nil, err
		}
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewApp validates cfg and builds the logger, metrics collector and every
// pool.
func NewApp(cfg *config.Configuration) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, output, err := newLogger(cfg.Global)
	if err != nil {
		return nil, err
	}

	collector, err := metrics.NewCollector(&metrics.Config{
		Enabled:   cfg.Metrics.Enabled,
		Namespace: cfg.Metrics.Namespace,
		Subsystem: cfg.Metrics.Subsystem,
		Labels:    cfg.Metrics.Labels,
	})
	if err != nil {
		_ = output.Close()
		return nil, fmt.Errorf("failed to create metrics collector: %w", err)
	}

	manager, err := cache.NewManagerFromConfig(cfg,
		cache.WithLogger(logger),
		cache.WithMetrics(collector),
	)
	if err != nil {
		_ = output.Close()
		return nil, err
	}

	logger.WithComponent("cli").Debug("pools ready", map[string]interface{}{
		"pools": manager.Names(),
	})

	return &App{
		Config:    cfg,
		Manager:   manager,
		Metrics:   collector,
		Logger:    logger,
		logOutput: output,
	}, nil
}

func newLogger(global config.GlobalConfig) (*utils.StructuredLogger, io.Closer, error) {
	level, err := utils.ParseLogLevel(global.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	logFormat, err := utils.ParseLogFormat(global.LogFormat)
	if err != nil {
		return nil, nil, err
	}

	output, err := utils.OpenLogOutput(global.LogFile)
	if err != nil {
		return nil, nil, err
	}

	logger, err := utils.NewStructuredLogger(&utils.StructuredLoggerConfig{
		Level:         level,
		Output:        output,
		Format:        logFormat,
		IncludeCaller: level <= utils.DEBUG,
		IncludeStack:  level <= utils.DEBUG,
	})
	if err != nil {
		_ = output.Close()
		return nil, nil, err
	}

	for component, name := range global.ComponentLevels {
		componentLevel, err := utils.ParseLogLevel(name)
		if err != nil {
			_ = output.Close()
			return nil, nil, err
		}
		logger.SetComponentLevel(component, componentLevel)
	}
	return logger, output, nil
}

// Gateway returns the gateway named pool, or the default gateway when pool
// is empty.
func (a *App) Gateway(pool string) (*cache.Gateway, error) {
	if pool == "" {
		return a.Manager.Default()
	}
	return a.Manager.Gateway(pool)
}

// Close commits pending writes and closes the log output.
func (a *App) Close() error {
	committed := a.Manager.Close()
	closeErr := a.logOutput.Close()
	if !committed {
		return fmt.Errorf("failed to commit pending cache writes")
	}
	return closeErr
}
