// Package config loads mathtex settings from YAML or TOML files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"

	"github.com/wudi/mathtex/svgraster"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound     = errors.New("config file not found")
	ErrConfigParse        = errors.New("failed to parse config")
	ErrUnsupportedFormat  = errors.New("unsupported config format")
	ErrInvalidScale       = errors.New("invalid scale")
	ErrInvalidDPI         = errors.New("invalid dpi")
	ErrInvalidColor       = errors.New("invalid color")
	ErrInvalidImageFormat = errors.New("invalid image format")
	ErrInvalidCache       = errors.New("invalid cache settings")
	ErrInvalidMarkup      = errors.New("invalid markup backend")
	ErrInvalidTimeout     = errors.New("invalid timeout")
	ErrInvalidWorkers     = errors.New("invalid worker count")
)

// MaxInputSize limits config files to prevent memory exhaustion.
var MaxInputSize int64 = 1 << 20

// Markup backends.
const (
	MarkupEngine = "engine" // MathJax tex2mml in the script engine
	MarkupNative = "native" // pure-Go treeblood converter
)

// Cache kinds.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheSQLite = "sqlite"
)

// Config holds all settings for conversion and rendering.
type Config struct {
	Engine EngineConfig `yaml:"engine" toml:"engine"`
	Render RenderConfig `yaml:"render" toml:"render"`
	Cache  CacheConfig  `yaml:"cache" toml:"cache"`
}

// EngineConfig locates the typesetting scripts and sets conversion defaults.
type EngineConfig struct {
	BundlePath  string  `yaml:"bundlePath" toml:"bundle_path"`    // MathJax tex-svg-full.js
	DOMShimPath string  `yaml:"domShimPath" toml:"dom_shim_path"` // Optional DOM shim script
	AutoLoad    bool    `yaml:"autoLoad" toml:"auto_load"`        // Load on first conversion
	Timeout     string  `yaml:"timeout" toml:"timeout"`           // Per-conversion limit, e.g. "5s"
	Inline      bool    `yaml:"inline" toml:"inline"`             // Inline instead of display style
	Em          float64 `yaml:"em" toml:"em"`                     // Em size in pixels (0 = engine default)
	Family      string  `yaml:"family" toml:"family"`             // Text font family
	Markup      string  `yaml:"markup" toml:"markup"`             // "engine" or "native"
}

// RenderConfig sets rasterization defaults.
type RenderConfig struct {
	Scale      float64 `yaml:"scale" toml:"scale"`
	DPI        int     `yaml:"dpi" toml:"dpi"`
	Background string  `yaml:"background" toml:"background"` // Empty = transparent
	Foreground string  `yaml:"foreground" toml:"foreground"` // Empty = black
	Format     string  `yaml:"format" toml:"format"`         // png, tiff, bmp
	Workers    int     `yaml:"workers" toml:"workers"`       // 0 = GOMAXPROCS
}

// CacheConfig selects a conversion cache.
type CacheConfig struct {
	Kind string `yaml:"kind" toml:"kind"` // none, memory, sqlite
	Size int    `yaml:"size" toml:"size"` // Memory entries
	Path string `yaml:"path" toml:"path"` // SQLite database file
}

// Default returns the settings used when no file is given.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{AutoLoad: true, Markup: MarkupEngine},
		Render: RenderConfig{Scale: svgraster.DefaultScale, DPI: svgraster.DefaultDPI, Format: string(svgraster.FormatPNG)},
		Cache:  CacheConfig{Kind: CacheNone, Size: 256},
	}
}

// Load reads path over the defaults. The format follows the extension:
// .yaml/.yml (strict, unknown keys rejected) or .toml.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if info.Size() > MaxInputSize {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrConfigParse, path, MaxInputSize)
	}
	data, err := os.ReadFile(path) // #nosec G304 -- config path is user-provided
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.UnmarshalWithOptions(data, cfg, yaml.Strict()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
		}
	case ".toml":
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("%w: unknown keys %v", ErrConfigParse, undecoded)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field and returns the first problem found.
func (c *Config) Validate() error {
	if c.Render.Scale < svgraster.MinScale {
		return fmt.Errorf("%w: %g (minimum %g)", ErrInvalidScale, c.Render.Scale, svgraster.MinScale)
	}
	if c.Render.DPI <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDPI, c.Render.DPI)
	}
	for _, col := range []string{c.Render.Background, c.Render.Foreground} {
		if col == "" {
			continue
		}
		if _, err := svgraster.ParseColor(col); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidColor, col)
		}
	}
	if _, err := svgraster.ParseFormat(c.Render.Format); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidImageFormat, c.Render.Format)
	}
	if c.Render.Workers < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, c.Render.Workers)
	}
	if _, err := c.Engine.TimeoutDuration(); err != nil {
		return err
	}
	switch c.Engine.Markup {
	case "", MarkupEngine, MarkupNative:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMarkup, c.Engine.Markup)
	}
	switch c.Cache.Kind {
	case "", CacheNone:
	case CacheMemory:
		if c.Cache.Size <= 0 {
			return fmt.Errorf("%w: memory cache size %d", ErrInvalidCache, c.Cache.Size)
		}
	case CacheSQLite:
		if c.Cache.Path == "" {
			return fmt.Errorf("%w: sqlite cache needs a path", ErrInvalidCache)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidCache, c.Cache.Kind)
	}
	return nil
}

// TimeoutDuration parses Timeout. Empty means no limit.
func (e EngineConfig) TimeoutDuration() (time.Duration, error) {
	if e.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(e.Timeout)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeout, e.Timeout)
	}
	return d, nil
}
