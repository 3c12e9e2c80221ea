// Package cli implements the stackdepth command-line interface.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackdepth/pkg/cache"
	"github.com/matzehuels/stackdepth/pkg/config"
	"github.com/matzehuels/stackdepth/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "stackdepth"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// stdout receives all human-readable command output. Tests swap it.
var stdout io.Writer = os.Stdout

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance logging to w at level.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner backed by the cache cfg selects.
func (c *CLI) newRunner(ctx context.Context, cfg *config.Config, noCache bool) *pipeline.Runner {
	backend, keyer := c.newCache(ctx, cfg, noCache)
	r := pipeline.NewRunner(backend, keyer, c.Logger)
	if ttl := cfg.Cache.Duration(); ttl > 0 {
		r.TTL = ttl
	}
	return r
}

// newCache picks the parse cache: none when disabled, Redis when the project
// file names one, otherwise the per-user file cache. Any backend that cannot
// be opened degrades to the next one so a cache never fails a run.
func (c *CLI) newCache(ctx context.Context, cfg *config.Config, noCache bool) (cache.Cache, cache.Keyer) {
	if noCache || cfg.Cache.Disabled {
		return cache.NewNullCache(), nil
	}
	if cfg.Cache.URL != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.Cache.URL)
		if err == nil {
			c.Logger.Debug("using redis cache", "url", cfg.Cache.URL)
			return rc, cache.NewScopedKeyer(nil, appName+":")
		}
		c.Logger.Warn("redis cache unavailable, falling back to file cache", "err", err)
	}
	dir, err := cache.DefaultDir(appName)
	if err != nil {
		return cache.NewNullCache(), nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		c.Logger.Debug("file cache unavailable", "dir", dir, "err", err)
		return cache.NewNullCache(), nil
	}
	return fc, nil
}
