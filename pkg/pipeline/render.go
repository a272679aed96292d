package pipeline

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/nodemap/pkg/graph"
	"github.com/matzehuels/nodemap/pkg/observability"
	"github.com/matzehuels/nodemap/pkg/render/nodelink"
	"github.com/matzehuels/nodemap/pkg/render/raster"
	"github.com/matzehuels/nodemap/pkg/render/svg"
)

// Render generates output artifacts of l in the requested formats. Formats
// render concurrently.
func Render(ctx context.Context, l graph.Layout, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()

	artifacts, err := renderAll(ctx, l, opts, opts.Formats)

	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	return artifacts, err
}

func renderAll(ctx context.Context, l graph.Layout, opts Options, formats []string) (map[string][]byte, error) {
	out := make([][]byte, len(formats))
	g, ctx := errgroup.WithContext(ctx)
	for i, format := range formats {
		g.Go(func() error {
			data, err := renderFormat(ctx, l, opts, format)
			if err != nil {
				return fmt.Errorf("render %s: %w", format, err)
			}
			out[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	artifacts := make(map[string][]byte, len(formats))
	for i, format := range formats {
		artifacts[format] = out[i]
	}
	return artifacts, nil
}

func renderFormat(ctx context.Context, l graph.Layout, opts Options, format string) ([]byte, error) {
	switch format {
	case FormatSVG:
		return svg.Render(l, svg.Options{Margin: opts.Margin, Links: opts.Links}), nil
	case FormatPNG:
		return raster.Render(l, raster.Options{Margin: opts.Margin, Scale: opts.Scale})
	case FormatDOT:
		return []byte(nodelink.ToDOT(l, nodelink.Options{Detailed: opts.Detailed})), nil
	case FormatNeato:
		return nodelink.RenderSVG(ctx, nodelink.ToDOT(l, nodelink.Options{Detailed: opts.Detailed}))
	case FormatJSON:
		return graph.MarshalLayout(l)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}
