package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nodemap/pkg/graph"
	"github.com/matzehuels/nodemap/pkg/pipeline"
	"github.com/matzehuels/nodemap/pkg/store"
)

// layoutsCommand creates the command group for stored layouts.
func (c *CLI) layoutsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layouts",
		Short: "Manage layouts saved in the layout store",
	}

	cmd.AddCommand(c.layoutsListCommand())
	cmd.AddCommand(c.layoutsShowCommand())
	cmd.AddCommand(c.layoutsImportCommand())

	return cmd
}

// withStore opens the store for the duration of fn.
func (c *CLI) withStore(ctx context.Context, fn func(store.Store) error) error {
	st, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

func (c *CLI) layoutsListCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved layouts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(st store.Store) error {
				list, err := st.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if len(list) == 0 {
					printInfo("No saved layouts")
					return nil
				}
				for _, s := range list {
					printKeyValue(s.ID[:min(len(s.ID), 12)], fmt.Sprintf("%s %s",
						s.Name, StyleDim.Render(fmt.Sprintf("(%d nodes, %s)", s.Nodes, s.CreatedAt.Local().Format("2006-01-02 15:04")))))
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of layouts (0 for all)")
	return cmd
}

func (c *CLI) layoutsShowCommand() *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "show [id]",
		Short: "Print a saved layout or render it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withStore(ctx, func(st store.Store) error {
				rec, err := st.Get(ctx, args[0])
				if err != nil {
					return fmt.Errorf("layout %s: %w", args[0], err)
				}
				if format == "" || format == pipeline.FormatJSON {
					out, err := openOutput(output)
					if err != nil {
						return err
					}
					defer out.Close()
					return graph.WriteLayout(rec.Layout, out)
				}
				return c.renderRecord(ctx, rec, format, output)
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "render to svg, png, dot or neato instead of printing JSON")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout for JSON, <name>.<ext> otherwise)")
	return cmd
}

func (c *CLI) renderRecord(ctx context.Context, rec store.Record, format, output string) error {
	if err := pipeline.ValidateFormat(format); err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, false)
	if err != nil {
		return err
	}
	defer runner.Close()

	opts := pipeline.Options{Formats: []string{format}, Links: true}
	artifacts, hit, err := runner.RenderWithCacheInfo(ctx, rec.Layout, opts)
	if err != nil {
		return err
	}
	return writeArtifacts(artifactWriteParams{
		artifacts: artifacts,
		formats:   opts.Formats,
		input:     rec.ID,
		output:    output,
		stats: mapStats{
			nodes:    len(rec.Layout.Nodes),
			edges:    len(rec.Layout.Edges),
			timedOut: rec.Layout.TimedOut,
			cached:   hit,
		},
	})
}

func (c *CLI) layoutsImportCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "import [layout.json]",
		Short: "Save a layout file to the layout store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l, err := graph.ReadLayoutFile(args[0])
			if err != nil {
				return err
			}
			return c.withStore(ctx, func(st store.Store) error {
				rec, err := st.Put(ctx, store.Record{Name: name, Layout: l})
				if err != nil {
					return err
				}
				printSuccess("Saved %s", rec.Name)
				printKeyValue("id", rec.ID)
				printNextStep("Render", appName+" layouts show "+rec.ID+" -f svg")
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "layout name (default: the root label)")
	return cmd
}
