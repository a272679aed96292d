package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nodemap/pkg/outline"
	"github.com/matzehuels/nodemap/pkg/pipeline"
)

// renderCommand creates the render command: outline in, artifacts out.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		sim        simFlags
		formatsStr string
		inFormat   string
		output     string
		noCache    bool
		refresh    bool
		margin     float64
		scale      float64
		noLinks    bool
		detailed   bool
	)

	cmd := &cobra.Command{
		Use:   "render [outline]",
		Short: "Settle an outline headlessly and render it",
		Long: `Settle an outline headlessly and render it.

The outline is attached to a node map that relaxes on a virtual clock until
every node is stable or the movement timeout stops it. The settled layout is
then rendered to the requested formats:

  svg    vector drawing with connectors, node boxes and links
  png    raster drawing
  dot    Graphviz source with pinned positions
  neato  the DOT source drawn by Graphviz
  json   the layout itself, for 'visualize' and the server

Layouts and artifacts are cached; --refresh recomputes the layout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.settleOptions()
			sim.apply(cmd, &opts)
			opts.Source = args[0]
			opts.Formats = pipeline.ParseFormats(formatsStr)
			opts.Refresh = refresh
			opts.Margin = margin
			opts.Detailed = detailed
			opts.Links = !noLinks
			if cmd.Flags().Changed("scale") {
				opts.Scale = scale
			}
			if inFormat != "" {
				f, err := outline.ParseFormat(inFormat)
				if err != nil {
					return err
				}
				opts.Format = f
			}
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), opts, output, noCache)
		},
	}

	sim.register(cmd, true)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format), base path (multiple) or - for stdout")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, dot, neato, json (comma-separated)")
	cmd.Flags().StringVar(&inFormat, "input-format", "", "outline format: html, markdown, yaml, toml, json (default: from extension)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute the layout even if cached")
	cmd.Flags().Float64Var(&margin, "margin", 0, "drawing margin around the outermost nodes (0 for the default)")
	cmd.Flags().Float64Var(&scale, "scale", pipeline.DefaultScale, "png pixel scale")
	cmd.Flags().BoolVar(&noLinks, "no-links", false, "do not link labels to their href (svg)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "label DOT nodes with depth and href")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, opts pipeline.Options, output string, noCache bool) error {
	logger := loggerFromContext(ctx)
	logger.Debug("rendering", "source", opts.Source, "formats", opts.Formats)

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinner(ctx, fmt.Sprintf("Settling %s...", filepath.Base(opts.Source)))
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	if result.Layout.TimedOut {
		printWarning("Movement timeout reached before the map settled")
	}
	return writeArtifacts(artifactWriteParams{
		artifacts: result.Artifacts,
		formats:   opts.Formats,
		input:     opts.Source,
		output:    output,
		stats: mapStats{
			nodes:    result.Stats.NodeCount,
			edges:    result.Stats.EdgeCount,
			timedOut: result.Layout.TimedOut,
			cached:   result.CacheInfo.LayoutHit,
		},
	})
}

// =============================================================================
// Output
// =============================================================================

// artifactWriteParams describes rendered artifacts to write.
type artifactWriteParams struct {
	artifacts map[string][]byte
	formats   []string
	input     string
	output    string
	stats     mapStats
}

// writeArtifacts writes one file per format and prints a summary. An
// output of "-" writes a single artifact to stdout.
func writeArtifacts(p artifactWriteParams) error {
	if p.output == "-" {
		if len(p.formats) != 1 {
			return fmt.Errorf("stdout output needs exactly one format, got %d", len(p.formats))
		}
		_, err := os.Stdout.Write(p.artifacts[p.formats[0]])
		return err
	}

	paths := make([]string, 0, len(p.formats))
	for _, format := range p.formats {
		path := outputPath(p.output, p.input, format, len(p.formats))
		if err := writeFile(path, p.artifacts[format]); err != nil {
			return err
		}
		paths = append(paths, path)
	}

	printSuccess("Rendered %s", filepath.Base(p.input))
	for _, path := range paths {
		printFile(path)
	}
	printStats(p.stats)
	return nil
}

// outputPath names the file for one format. A single format uses output
// as given; several formats derive <base>.<ext> from it.
func outputPath(output, input, format string, count int) string {
	if output != "" && count == 1 {
		return output
	}
	return basePath(output, input) + "." + pipeline.Extension(format)
}

// basePath strips a known format extension from output, or derives the
// base from the input file when output is empty.
func basePath(output, input string) string {
	if output == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		return strings.TrimSuffix(base, ".layout")
	}
	for _, format := range extOrder {
		if ext := "." + pipeline.Extension(format); strings.HasSuffix(output, ext) {
			return strings.TrimSuffix(output, ext)
		}
	}
	return output
}

// extOrder lists formats longest extension first.
var extOrder = []string{
	pipeline.FormatNeato, pipeline.FormatJSON, pipeline.FormatSVG, pipeline.FormatPNG, pipeline.FormatDOT,
}

func writeFile(path string, data []byte) error {
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	if _, err := out.Write(data); err != nil {
		out.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return out.Close()
}

// nopCloser wraps an io.Writer with a no-op Close method.
type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// openOutput returns a WriteCloser for the given path, stdout if empty.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.Create(path)
}
