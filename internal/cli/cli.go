// Package cli implements the nodemap command-line interface.
//
// The commands cover the headless pipeline (render, visualize), the
// interactive terminal viewer (play), the live server (serve) and the
// stored layouts (layouts). The CLI is built using cobra and logs with
// charmbracelet/log; --verbose (-v) switches to debug level.
//
// # Configuration
//
// Settings are read from $XDG_CONFIG_HOME/nodemap/config.toml, or the file
// given with --config. Flags override file values.
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/nodemap/pkg/buildinfo"
	"github.com/matzehuels/nodemap/pkg/cache"
	"github.com/matzehuels/nodemap/pkg/config"
	"github.com/matzehuels/nodemap/pkg/nodemap"
	"github.com/matzehuels/nodemap/pkg/pipeline"
	"github.com/matzehuels/nodemap/pkg/store"
)

// appName is the application name used for display.
const appName = "nodemap"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        config.Config
}

// New creates a new CLI instance with a default logger and the built-in
// configuration.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		cfg:    config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "nodemap lays out site maps as force-directed node maps",
		Long:         `nodemap turns a nested outline (HTML navigation, Markdown lists, YAML, TOML or JSON) into a node map that relaxes under spring and repulsion forces, then renders it or lets you drag it around live.`,
		Version:      buildinfo.Get().Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.loadConfig(); err != nil {
				return err
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default "+config.Path()+")")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.visualizeCommand())
	root.AddCommand(c.playCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.layoutsCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	return nil
}

// =============================================================================
// Factories
// =============================================================================

// newRunner creates a pipeline runner backed by the configured cache.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	ch, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(ch, cache.NewScopedKeyer(nil, c.cfg.Cache.Prefix), c.Logger), nil
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch c.cfg.Cache.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{Addr: c.cfg.Cache.Redis})
		if err != nil {
			return nil, fmt.Errorf("connect redis cache: %w", err)
		}
		return rc, nil
	default:
		fc, err := cache.NewFileCache(c.cacheDir())
		if err != nil {
			c.Logger.Warn("file cache unavailable, caching disabled", "err", err)
			return cache.NewNullCache(), nil
		}
		return fc, nil
	}
}

// cacheDir returns the file cache directory.
func (c *CLI) cacheDir() string {
	if c.cfg.Cache.Dir != "" {
		return c.cfg.Cache.Dir
	}
	return config.CacheDir()
}

// openStore opens the configured layout store.
func (c *CLI) openStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, c.cfg.Store.Driver, c.cfg.Store.DSN)
	if err != nil {
		return nil, fmt.Errorf("open layout store: %w", err)
	}
	return st, nil
}

// simFlags are the simulation flags shared by the commands that run a map.
type simFlags struct {
	width     float64
	height    float64
	threshold float64
	timeout   time.Duration
}

func (f *simFlags) register(cmd *cobra.Command, viewport bool) {
	if viewport {
		cmd.Flags().Float64Var(&f.width, "width", pipeline.DefaultWidth, "viewport width")
		cmd.Flags().Float64Var(&f.height, "height", pipeline.DefaultHeight, "viewport height")
	}
	cmd.Flags().Float64Var(&f.threshold, "threshold", nodemap.DefaultThreshold, "stability threshold")
	cmd.Flags().DurationVar(&f.timeout, "timeout", nodemap.DefaultMovementTimeout, "movement timeout")
}

// apply overrides opts with the flags set on the command line.
func (f *simFlags) apply(cmd *cobra.Command, opts *pipeline.Options) {
	flags := cmd.Flags()
	if flags.Changed("width") {
		opts.Width = f.width
	}
	if flags.Changed("height") {
		opts.Height = f.height
	}
	if flags.Changed("threshold") {
		opts.Threshold = f.threshold
	}
	if flags.Changed("timeout") {
		opts.Timeout = f.timeout
	}
}

// settleOptions returns pipeline options carrying the simulation and
// viewport settings of the configuration.
func (c *CLI) settleOptions() pipeline.Options {
	return pipeline.Options{
		Width:     c.cfg.Viewport.Width,
		Height:    c.cfg.Viewport.Height,
		Threshold: c.cfg.Simulation.Threshold,
		Timeout:   c.cfg.Simulation.Timeout.Duration,
		Tick:      c.cfg.Simulation.Tick.Duration,
		Scale:     pipeline.DefaultScale,
		Links:     true,
	}
}
