package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nodemap/pkg/cache"
	"github.com/matzehuels/nodemap/pkg/graph"
	"github.com/matzehuels/nodemap/pkg/observability"
	"github.com/matzehuels/nodemap/pkg/outline"
)

// Runner runs the pipeline against a cache. The CLI and the server share
// it so that both hit the same layout and artifact keys.
//
// A Runner holds no per-run state and may be used from several goroutines.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner fills in nil arguments with a DefaultKeyer, a NullCache and
// log.Default.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	r := &Runner{Cache: c, Keyer: keyer, Logger: logger}
	if r.Cache == nil {
		r.Cache = cache.NewNullCache()
	}
	if r.Keyer == nil {
		r.Keyer = cache.NewDefaultKeyer()
	}
	if r.Logger == nil {
		r.Logger = log.Default()
	}
	return r
}

// Execute parses opts.Source, settles the map and renders opts.Formats.
// A map stopped by the movement timeout is not an error; the result's
// layout reports TimedOut instead.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	res := &Result{}
	var err error

	t := time.Now()
	if res.Document, err = r.Parse(ctx, opts); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	res.OutlineHash = outline.Hash(res.Document)
	res.Stats.NodeCount = res.Document.Len()
	res.Stats.EdgeCount = res.Stats.NodeCount - 1
	res.Stats.ParseTime = time.Since(t)
	r.Logger.Info("parsed outline", "nodes", res.Stats.NodeCount, "duration", res.Stats.ParseTime)

	t = time.Now()
	if res.Layout, res.CacheInfo.LayoutHit, err = r.SettleWithCacheInfo(ctx, res.Document, opts); err != nil {
		return nil, fmt.Errorf("settle: %w", err)
	}
	res.Stats.SettleTime = time.Since(t)
	r.Logger.Info("settled map", "settled", res.Layout.Settled, "timed_out", res.Layout.TimedOut,
		"cached", res.CacheInfo.LayoutHit, "duration", res.Stats.SettleTime)

	t = time.Now()
	if res.Artifacts, res.CacheInfo.RenderHit, err = r.RenderWithCacheInfo(ctx, res.Layout, opts); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	res.Stats.RenderTime = time.Since(t)
	r.Logger.Info("rendered outputs", "formats", opts.Formats, "duration", res.Stats.RenderTime)

	return res, nil
}

// Parse reads the outline named by opts.
func (r *Runner) Parse(ctx context.Context, opts Options) (*outline.Document, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForParse(); err != nil {
		return nil, err
	}
	return Parse(ctx, opts)
}

// SettleWithCacheInfo returns the cached layout of doc under opts, settling
// and storing it on a miss. The flag reports a cache hit. An unreadable
// cache entry counts as a miss.
func (r *Runner) SettleWithCacheInfo(ctx context.Context, doc *outline.Document, opts Options) (graph.Layout, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForSettle(); err != nil {
		return graph.Layout{}, false, err
	}
	hooks := observability.Cache()
	cacheKey := r.Keyer.LayoutKey(outline.Hash(doc), opts.LayoutKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if cached, err := graph.UnmarshalLayout(data); err == nil {
				hooks.OnCacheHit(ctx, "layout")
				return cached, true, nil
			}
		} else if err != nil {
			opts.Logger.Warn("layout cache read failed", "err", err)
		}
	}
	hooks.OnCacheMiss(ctx, "layout")

	layout, simulated, err := Settle(ctx, doc, opts)
	if err != nil {
		return graph.Layout{}, false, err
	}
	opts.Logger.Debug("simulation finished", "virtual_time", simulated)

	if data, err := graph.MarshalLayout(layout); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLLayout); err != nil {
			opts.Logger.Warn("layout cache write failed", "err", err)
		} else {
			hooks.OnCacheSet(ctx, "layout", len(data))
		}
	}
	return layout, false, nil
}

// Settle is SettleWithCacheInfo without the hit flag.
func (r *Runner) Settle(ctx context.Context, doc *outline.Document, opts Options) (graph.Layout, error) {
	layout, _, err := r.SettleWithCacheInfo(ctx, doc, opts)
	return layout, err
}

// RenderWithCacheInfo renders layout in every format of opts, rendering
// only the formats missing from the cache. The flag is set when all of
// them were cached.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, layout graph.Layout, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	hooks := observability.Cache()

	layoutData, err := graph.MarshalLayout(layout)
	if err != nil {
		return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	layoutHash := cache.Hash(layoutData)

	artifacts := make(map[string][]byte, len(opts.Formats))
	var missing []string
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			hooks.OnCacheHit(ctx, "artifact")
			artifacts[format] = data
		} else {
			hooks.OnCacheMiss(ctx, "artifact")
			missing = append(missing, format)
		}
	}
	if len(missing) == 0 {
		return artifacts, true, nil
	}

	renderOpts := opts
	renderOpts.Formats = missing
	rendered, err := Render(ctx, layout, renderOpts)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		artifacts[format] = data
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err == nil {
			hooks.OnCacheSet(ctx, "artifact", len(data))
		}
	}
	return artifacts, false, nil
}

// Render is RenderWithCacheInfo without the hit flag.
func (r *Runner) Render(ctx context.Context, layout graph.Layout, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, layout, opts)
	return artifacts, err
}

// Close closes the cache.
func (r *Runner) Close() error {
	return r.Cache.Close()
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
