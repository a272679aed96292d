// Package server serves live node maps over HTTP and WebSocket.
//
// Clients create a session by posting an outline, then either poll its
// layout or open a websocket that streams frames while the map moves and
// accepts drag, drop and resize messages. Snapshots of a session can be
// saved to a [store.Store] and rendered again later.
//
// # Routes
//
//	GET    /healthz
//	POST   /api/render                  headless render of an outline
//	POST   /api/sessions                create a session from an outline
//	GET    /api/sessions                list sessions
//	GET    /api/sessions/{id}           current layout
//	DELETE /api/sessions/{id}
//	POST   /api/sessions/{id}/snapshots save the current layout
//	GET    /api/sessions/{id}/ws        live frames
//	GET    /api/frames/{pattern}        frame of the session matching a glob
//	GET    /api/layouts                 saved layouts
//	GET    /api/layouts/{id}            saved layout, ?format= renders it
//
// Outline bodies are sent raw; the ?format= query parameter names their
// format (html, markdown, yaml, toml or json) and defaults to markdown.
package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/nodemap/pkg/observability"
	"github.com/matzehuels/nodemap/pkg/pipeline"
	"github.com/matzehuels/nodemap/pkg/session"
	"github.com/matzehuels/nodemap/pkg/store"
)

// Defaults for Config.
const (
	DefaultAddr          = ":8080"
	DefaultFrameInterval = time.Second / 30
	DefaultMaxBody       = 1 << 20
)

// Config configures a Server.
type Config struct {
	Addr string

	// Sessions holds the live maps. Required.
	Sessions *session.Manager

	// Store persists snapshots. Without it the snapshot and layout routes
	// answer 501.
	Store store.Store

	// Runner serves /api/render. Without it a runner without cache is used.
	Runner *pipeline.Runner

	// Map configures the maps of new sessions.
	Map session.MapOptions

	// FrameInterval is the websocket push period.
	FrameInterval time.Duration

	// MaxBody bounds outline uploads in bytes.
	MaxBody int64

	Logger *log.Logger
}

// Server is the HTTP front end of the session manager.
type Server struct {
	cfg      Config
	router   chi.Router
	upgrader websocket.Upgrader
	hooks    observability.ServerHooks
	logger   *log.Logger
}

// New creates a server.
func New(cfg Config) (*Server, error) {
	if cfg.Sessions == nil {
		return nil, errors.New("server: session manager is required")
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = DefaultFrameInterval
	}
	if cfg.MaxBody <= 0 {
		cfg.MaxBody = DefaultMaxBody
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if cfg.Runner == nil {
		cfg.Runner = pipeline.NewRunner(nil, nil, cfg.Logger)
	}

	s := &Server{
		cfg:    cfg,
		hooks:  observability.Server(),
		logger: cfg.Logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/render", s.handleRender)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Get("/", s.handleListSessions)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleDeleteSession)
				r.Post("/snapshots", s.handleSaveSnapshot)
				r.Get("/ws", s.handleLive)
			})
		})

		r.Get("/frames/{pattern}", s.handleFrame)

		r.Route("/layouts", func(r chi.Router) {
			r.Get("/", s.handleListLayouts)
			r.Get("/{id}", s.handleGetLayout)
		})
	})
	return r
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on cfg.Addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.logger.Info("serving", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// observe logs requests and reports them to the server hooks.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "status", status, "duration", elapsed)
		s.hooks.OnRequest(r.Context(), r.Method, r.URL.Path, status, elapsed)
	})
}
