// Package config loads the nodemap configuration file.
//
// The file is TOML at $XDG_CONFIG_HOME/nodemap/config.toml (by default
// ~/.config/nodemap/config.toml). Every key is optional; a missing file
// yields [Default]. Command-line flags override file values.
//
//	[simulation]
//	threshold = 0.05
//	timeout   = "4s"
//	tick      = "10ms"
//
//	[viewport]
//	width  = 800
//	height = 600
//
//	[cache]
//	backend = "file"   # file, redis or none
//	redis   = "localhost:6379"
//
//	[store]
//	driver = "sqlite"
//	dsn    = "~/.local/share/nodemap/layouts.db"
//
//	[server]
//	addr        = ":8080"
//	session_ttl = "30m"
//	frame_rate  = 30
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const appName = "nodemap"

// Config is the file configuration.
type Config struct {
	Simulation Simulation `toml:"simulation"`
	Viewport   Viewport   `toml:"viewport"`
	Cache      Cache      `toml:"cache"`
	Store      Store      `toml:"store"`
	Server     Server     `toml:"server"`
}

type Simulation struct {
	Threshold float64  `toml:"threshold"`
	Timeout   Duration `toml:"timeout"`
	Tick      Duration `toml:"tick"`
}

type Viewport struct {
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
}

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

type Cache struct {
	Backend string `toml:"backend"`
	Dir     string `toml:"dir"`
	Redis   string `toml:"redis"`
	Prefix  string `toml:"prefix"`
}

type Store struct {
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn"`
}

type Server struct {
	Addr       string   `toml:"addr"`
	SessionTTL Duration `toml:"session_ttl"`
	FrameRate  int      `toml:"frame_rate"`
}

// Duration is a time.Duration written as a string like "4s" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Simulation: Simulation{
			Threshold: 0.05,
			Timeout:   Duration{4 * time.Second},
			Tick:      Duration{10 * time.Millisecond},
		},
		Viewport: Viewport{Width: 800, Height: 600},
		Cache:    Cache{Backend: CacheFile, Redis: "localhost:6379", Prefix: appName + ":"},
		Store:    Store{Driver: "sqlite", DSN: filepath.Join(DataDir(), "layouts.db")},
		Server:   Server{Addr: ":8080", SessionTTL: Duration{30 * time.Minute}, FrameRate: 30},
	}
}

// Load reads the file at path on top of the defaults. An empty path means
// the default location. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = Path()
	}
	md, err := toml.DecodeFile(path, &cfg)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	cfg.Store.DSN = expandHome(cfg.Store.DSN)
	cfg.Cache.Dir = expandHome(cfg.Cache.Dir)
	return cfg, cfg.Validate()
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Simulation.Threshold < 0 {
		return fmt.Errorf("simulation.threshold must not be negative")
	}
	if c.Simulation.Timeout.Duration <= 0 || c.Simulation.Tick.Duration <= 0 {
		return fmt.Errorf("simulation.timeout and simulation.tick must be positive")
	}
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		return fmt.Errorf("viewport must be positive, got %vx%v", c.Viewport.Width, c.Viewport.Height)
	}
	switch c.Cache.Backend {
	case CacheFile, CacheRedis, CacheNone:
	default:
		return fmt.Errorf("cache.backend must be file, redis or none, got %q", c.Cache.Backend)
	}
	if c.Server.FrameRate <= 0 {
		return fmt.Errorf("server.frame_rate must be positive")
	}
	return nil
}

// Path returns the default configuration file location.
func Path() string {
	return filepath.Join(xdgDir("XDG_CONFIG_HOME", ".config"), "config.toml")
}

// CacheDir returns the default file cache directory.
func CacheDir() string {
	return xdgDir("XDG_CACHE_HOME", ".cache")
}

// DataDir returns the directory of the default layout database.
func DataDir() string {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func xdgDir(env, fallback string) string {
	if base := os.Getenv(env); base != "" {
		return filepath.Join(base, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), appName)
	}
	return filepath.Join(home, fallback, appName)
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
