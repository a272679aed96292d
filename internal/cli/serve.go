package cli

import (
	"context"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/nodemap/pkg/outline"
	"github.com/matzehuels/nodemap/pkg/server"
	"github.com/matzehuels/nodemap/pkg/session"
	"github.com/matzehuels/nodemap/pkg/store"
	"github.com/matzehuels/nodemap/pkg/watcher"
)

// serveCommand creates the live server command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		sim         simFlags
		addr        string
		noStore     bool
		noCache     bool
		watchPath   string
		maxSessions int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve live node maps over HTTP and WebSocket",
		Long: `Serve live node maps over HTTP and WebSocket.

Clients post an outline to /api/sessions and stream frames from
/api/sessions/{id}/ws while dragging nodes. Snapshots are saved to the
configured layout store ([store] in the config file).

With --watch, a session is created from the given outline file at startup
and extended whenever the file changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.settleOptions()
			sim.apply(cmd, &opts)
			if cmd.Flags().Changed("addr") {
				c.cfg.Server.Addr = addr
			}
			return c.runServe(cmd.Context(), session.MapOptions{
				Width:     opts.Width,
				Height:    opts.Height,
				Threshold: opts.Threshold,
				Timeout:   opts.Timeout,
				Tick:      opts.Tick,
			}, serveParams{noStore: noStore, noCache: noCache, watch: watchPath, maxSessions: maxSessions})
		},
	}

	sim.register(cmd, true)
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "run without a layout store")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching for /api/render")
	cmd.Flags().StringVar(&watchPath, "watch", "", "outline file to serve as a live session")
	cmd.Flags().IntVar(&maxSessions, "max-sessions", 0, "maximum live sessions (0 for no limit)")

	return cmd
}

type serveParams struct {
	noStore     bool
	noCache     bool
	watch       string
	maxSessions int
}

func (c *CLI) runServe(ctx context.Context, mapOpts session.MapOptions, p serveParams) error {
	logger := loggerFromContext(ctx)

	runner, err := c.newRunner(ctx, p.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	var st store.Store
	if !p.noStore {
		prog := newProgress(logger)
		if st, err = c.openStore(ctx); err != nil {
			return err
		}
		defer st.Close()
		prog.done("Opened " + c.cfg.Store.Driver + " layout store")
	}

	sessions := session.NewManager(session.Config{
		TTL:         c.cfg.Server.SessionTTL.Duration,
		MaxSessions: p.maxSessions,
		Logger:      logger,
	})

	srv, err := server.New(server.Config{
		Addr:          c.cfg.Server.Addr,
		Sessions:      sessions,
		Store:         st,
		Runner:        runner,
		Map:           mapOpts,
		FrameInterval: time.Second / time.Duration(c.cfg.Server.FrameRate),
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(ctx) })
	g.Go(func() error { return sessions.Run(ctx) })
	if p.watch != "" {
		g.Go(func() error { return c.watchSession(ctx, sessions, mapOpts, p.watch) })
	}

	printInfo("Listening on %s", StyleLink.Render("http://"+displayAddr(c.cfg.Server.Addr)))
	return g.Wait()
}

// watchSession serves path as a session and extends it on every change.
func (c *CLI) watchSession(ctx context.Context, sessions *session.Manager, opts session.MapOptions, path string) error {
	logger := loggerFromContext(ctx)

	doc, err := outline.ParseFile(path)
	if err != nil {
		return err
	}
	sess, err := sessions.Create(ctx, doc, opts)
	if err != nil {
		return err
	}
	printInfo("Watching %s as session %s", filepath.Base(path), StyleHighlight.Render(sess.ID))

	w, err := watcher.New(path,
		watcher.WithLogger(logger),
		watcher.WithOnChange(func(doc *outline.Document) {
			if _, err := sess.Extend(ctx, doc); err != nil {
				logger.Warn("extend watched session", "err", err)
			}
		}),
		watcher.WithOnError(func(err error) {
			logger.Warn("watched outline", "path", path, "err", err)
		}),
	)
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

// displayAddr turns a listen address like ":8080" into a dialable one.
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
