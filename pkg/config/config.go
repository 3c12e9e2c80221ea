// Package config loads stackdepth.toml project files.
//
// A project file records the inputs of an analysis so CI jobs and developers
// run the same command:
//
//	elf_file     = "build/firmware.elf"
//	su_dirs      = ["build"]
//	entry_points = ["main"]
//	vector_table = "g_pfnVectors"
//	ignore_calls = "stack/ignore.txt"
//	add_calls    = ["stack/uart_callbacks.txt", "stack/rtos_hooks.txt"]
//	max_stack    = 4096
//
//	[cache]
//	url = "redis://ci-cache:6379/2"
//	ttl = "168h"
//
// Relative paths are resolved against the directory of the file.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/stackdepth/pkg/errors"
)

// FileName is the project file looked up in the working directory.
const FileName = "stackdepth.toml"

// Config is the decoded project file.
type Config struct {
	ELFFile     string   `toml:"elf_file"`
	SUDirs      []string `toml:"su_dirs"`
	CGraphDirs  []string `toml:"cgraph_dirs"`
	EntryPoints []string `toml:"entry_points"`
	VectorTable string   `toml:"vector_table"`
	IgnoreCalls string   `toml:"ignore_calls"`
	AddCalls    []string `toml:"add_calls"`
	Debug       bool     `toml:"debug"`
	MaxStack    int      `toml:"max_stack"`
	Cache       Cache    `toml:"cache"`

	// Path is the file the config was loaded from (empty if none).
	Path string `toml:"-"`
}

// Cache configures the parse cache.
type Cache struct {
	Disabled bool   `toml:"disabled"`
	URL      string `toml:"url"`
	TTL      string `toml:"ttl"`

	ttl time.Duration
}

// Duration returns the parsed TTL, or 0 when none is set.
func (c Cache) Duration() time.Duration { return c.ttl }

// Load decodes and validates the file at path.
func Load(path string) (*Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file not found: %s", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown key %q", path, undecoded[0].String())
	}
	if cfg.MaxStack < 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "%s: max_stack must not be negative", path)
	}
	if cfg.Cache.TTL != "" {
		d, err := time.ParseDuration(cfg.Cache.TTL)
		if err != nil || d < 0 {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "%s: invalid cache ttl %q", path, cfg.Cache.TTL)
		}
		cfg.Cache.ttl = d
	}

	cfg.Path = path
	cfg.resolve(filepath.Dir(path))
	return &cfg, nil
}

// Find returns the project file in dir, or "" when there is none.
func Find(dir string) string {
	path := filepath.Join(dir, FileName)
	if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
		return path
	}
	return ""
}

func (c *Config) resolve(base string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	c.ELFFile = abs(c.ELFFile)
	c.IgnoreCalls = abs(c.IgnoreCalls)
	for _, list := range [][]string{c.SUDirs, c.CGraphDirs, c.AddCalls} {
		for i, p := range list {
			list[i] = abs(p)
		}
	}
}
