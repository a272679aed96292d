// Package pipeline provides the headless render pipeline of nodemap.
//
// The pipeline turns an outline into static artifacts without a live
// viewer. The CLI render command and the HTTP API share it so that a map
// settles and renders the same way everywhere.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Parse: read the outline (HTML, Markdown, YAML, TOML or JSON)
//  2. Settle: attach it to a map and run the relaxation loop on a virtual
//     clock until nothing moves or the movement timeout stops it
//  3. Render: generate output in various formats (SVG, PNG, DOT, JSON)
//
// Settled layouts and rendered artifacts are cached; parsing is cheap and
// is not.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Source:  "sitemap.md",
//	    Formats: []string{"svg", "png"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	doc, err := runner.Parse(ctx, opts)
//	layout, err := runner.Settle(ctx, doc, opts)
//	artifacts, err := runner.Render(ctx, layout, opts)
package pipeline

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nodemap/pkg/cache"
	"github.com/matzehuels/nodemap/pkg/graph"
	"github.com/matzehuels/nodemap/pkg/nodemap"
	"github.com/matzehuels/nodemap/pkg/outline"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultWidth is the default viewport width in pixels.
	DefaultWidth = 800.0

	// DefaultHeight is the default viewport height in pixels.
	DefaultHeight = 600.0

	// DefaultScale is the default PNG scale factor.
	DefaultScale = 2.0
)

// Format constants for output formats.
const (
	FormatSVG   = "svg"
	FormatPNG   = "png"
	FormatDOT   = "dot"
	FormatNeato = "neato" // DOT laid out and drawn by Graphviz
	FormatJSON  = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:   true,
	FormatPNG:   true,
	FormatDOT:   true,
	FormatNeato: true,
	FormatJSON:  true,
}

// Extension returns the file extension for an output format.
func Extension(format string) string {
	if format == FormatNeato {
		return "neato.svg"
	}
	return format
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the render pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Parse options. Outline holds inline content and takes precedence over
	// Source, a file path. Format overrides detection from the extension.
	Source  string         `json:"source,omitempty"`
	Outline []byte         `json:"outline,omitempty"`
	Format  outline.Format `json:"format,omitempty"`

	// Settle options
	Width     float64       `json:"width,omitempty"`
	Height    float64       `json:"height,omitempty"`
	Threshold float64       `json:"threshold,omitempty"`
	Timeout   time.Duration `json:"timeout,omitempty"`
	Tick      time.Duration `json:"tick,omitempty"`
	Refresh   bool          `json:"refresh,omitempty"` // skip the layout cache read

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Margin   float64  `json:"margin,omitempty"`
	Scale    float64  `json:"scale,omitempty"`
	Links    bool     `json:"links,omitempty"`
	Detailed bool     `json:"detailed,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Document is the parsed outline.
	Document *outline.Document

	// OutlineHash is the content hash of the outline.
	OutlineHash string

	// Layout is the settled map snapshot.
	Layout graph.Layout

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	ParseTime  time.Duration
	SettleTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the settled layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: svg, png, dot, neato, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ParseFormats splits a comma-separated format list. An empty string
// means SVG only.
func ParseFormats(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{FormatSVG}
	}
	var out []string
	seen := make(map[string]bool)
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" && !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForParse(); err != nil {
		return err
	}
	if err := o.ValidateForSettle(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForParse checks required fields for parsing.
func (o *Options) ValidateForParse() error {
	if len(o.Outline) == 0 && o.Source == "" {
		return fmt.Errorf("outline or source is required")
	}
	if len(o.Outline) > 0 && o.Format == "" {
		return fmt.Errorf("format is required for inline outlines")
	}
	if o.Format != "" {
		f, err := outline.ParseFormat(string(o.Format))
		if err != nil {
			return err
		}
		o.Format = f
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetSettleDefaults sets default values for the simulation.
func (o *Options) SetSettleDefaults() {
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.Threshold == 0 {
		o.Threshold = nodemap.DefaultThreshold
	}
	if o.Timeout == 0 {
		o.Timeout = nodemap.DefaultMovementTimeout
	}
	if o.Tick == 0 {
		o.Tick = nodemap.DefaultTickInterval
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForSettle validates and sets defaults for the simulation.
func (o *Options) ValidateForSettle() error {
	o.SetSettleDefaults()
	if o.Width < 0 || o.Height < 0 {
		return fmt.Errorf("viewport must be positive, got %vx%v", o.Width, o.Height)
	}
	if o.Threshold < 0 {
		return fmt.Errorf("threshold must be positive, got %v", o.Threshold)
	}
	if o.Timeout < 0 || o.Tick < 0 {
		return fmt.Errorf("timeout and tick must be positive")
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if o.Margin < 0 || o.Scale < 0 {
		return fmt.Errorf("margin and scale must be positive")
	}
	return ValidateFormats(o.Formats)
}

// LayoutKeyOpts returns cache key options for the simulation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Width:     o.Width,
		Height:    o.Height,
		Threshold: o.Threshold,
		Timeout:   o.Timeout,
		Tick:      o.Tick,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{Format: format, Margin: o.Margin}
	switch format {
	case FormatSVG:
		k.Links = o.Links
	case FormatPNG:
		k.Scale = o.Scale
	case FormatDOT, FormatNeato:
		k.Detailed = o.Detailed
	}
	return k
}
