// Package session manages live node maps for the server.
//
// A [Session] owns one map together with the event loop it runs on and the
// [render.Recorder] it draws on. Everything that touches the map (drags,
// resizes, snapshots, outline extensions) is handed to the loop, so HTTP
// handlers and websocket readers on other goroutines never race the
// relaxation ticks.
//
// A [Manager] creates sessions, finds them by ID and expires the ones that
// have not been used for its TTL.
//
// # Usage
//
//	mgr := session.NewManager(session.Config{TTL: 30 * time.Minute})
//	go mgr.Run(ctx) // reaper
//
//	sess, err := mgr.Create(ctx, doc, session.MapOptions{Width: 1024, Height: 768})
//	err = sess.Drag(ctx, 2, 300, 120)
//	layout, err := sess.Snapshot(ctx)
package session

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/nodemap/pkg/errors"
	"github.com/matzehuels/nodemap/pkg/graph"
	"github.com/matzehuels/nodemap/pkg/loop"
	"github.com/matzehuels/nodemap/pkg/nodemap"
	"github.com/matzehuels/nodemap/pkg/outline"
	"github.com/matzehuels/nodemap/pkg/render"
)

// Default durations.
const (
	// DefaultTTL is how long an unused session lives.
	DefaultTTL = 30 * time.Minute

	// DefaultCleanupInterval is how often the reaper looks for expired
	// sessions.
	DefaultCleanupInterval = time.Minute
)

// MapOptions configures the map of a new session. Zero values mean the
// map defaults.
type MapOptions struct {
	Width     float64
	Height    float64
	Threshold float64
	Timeout   time.Duration
	Tick      time.Duration
}

// Session is a live map.
type Session struct {
	ID        string
	Name      string
	CreatedAt time.Time

	loop    *loop.EventLoop
	m       *nodemap.Map
	surface *render.Recorder
	logger  *log.Logger
	cancel  context.CancelFunc

	mu       sync.Mutex
	lastUsed time.Time
}

func newSession(ctx context.Context, id string, doc *outline.Document, opts MapOptions, logger *log.Logger) (*Session, error) {
	runCtx, cancel := context.WithCancel(context.Background())
	l := loop.NewEventLoop()
	go l.Run(runCtx)

	w, h := opts.Width, opts.Height
	if w <= 0 || h <= 0 {
		w, h = 800, 600
	}
	s := &Session{
		ID:        id,
		Name:      doc.Root.Label,
		CreatedAt: time.Now(),
		loop:      l,
		surface:   render.NewRecorder(w, h),
		logger:    logger.With("session", shortID(id)),
		cancel:    cancel,
		lastUsed:  time.Now(),
	}

	var err error
	callErr := l.Call(ctx, func() {
		s.m, err = nodemap.New(l, s.surface,
			nodemap.WithViewport(w, h),
			nodemap.WithThreshold(opts.Threshold),
			nodemap.WithMovementTimeout(opts.Timeout),
			nodemap.WithTickInterval(opts.Tick),
			nodemap.WithLogger(s.logger),
		)
		if err == nil {
			err = outline.Ingest(s.m, doc)
		}
	})
	if callErr != nil {
		err = callErr
	}
	if err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Do runs fn on the session's loop with exclusive access to the map and
// waits for it.
func (s *Session) Do(ctx context.Context, fn func(m *nodemap.Map) error) error {
	s.Touch()
	var err error
	if callErr := s.loop.Call(ctx, func() { err = fn(s.m) }); callErr != nil {
		if callErr == loop.ErrClosed {
			return errors.New(errors.ErrCodeSessionNotFound, "session %s is closed", s.ID)
		}
		return callErr
	}
	return err
}

// Snapshot returns the current layout.
func (s *Session) Snapshot(ctx context.Context) (graph.Layout, error) {
	var l graph.Layout
	err := s.Do(ctx, func(m *nodemap.Map) error {
		l = m.Snapshot()
		return nil
	})
	return l, err
}

// Moving reports whether any relaxation loop of the map is running.
func (s *Session) Moving(ctx context.Context) (bool, error) {
	var moving bool
	err := s.Do(ctx, func(m *nodemap.Map) error {
		moving = !m.Idle()
		return nil
	})
	return moving, err
}

// Drag moves node id to (x, y).
func (s *Session) Drag(ctx context.Context, id int, x, y float64) error {
	return s.Do(ctx, func(m *nodemap.Map) error {
		n, err := lookup(m, id)
		if err != nil {
			return err
		}
		return m.Drag(n, r2.Vec{X: x, Y: y})
	})
}

// Drop releases node id.
func (s *Session) Drop(ctx context.Context, id int) error {
	return s.Do(ctx, func(m *nodemap.Map) error {
		n, err := lookup(m, id)
		if err != nil {
			return err
		}
		return m.Drop(n)
	})
}

// Resize changes the viewport.
func (s *Session) Resize(ctx context.Context, w, h float64) error {
	if w <= 0 || h <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "viewport must be positive, got %vx%v", w, h)
	}
	return s.Do(ctx, func(m *nodemap.Map) error {
		m.Resize(w, h)
		return nil
	})
}

// Extend attaches the items of doc that the map does not have yet.
func (s *Session) Extend(ctx context.Context, doc *outline.Document) (outline.ExtendResult, error) {
	var res outline.ExtendResult
	err := s.Do(ctx, func(m *nodemap.Map) error {
		var err error
		res, err = outline.Extend(m, doc)
		return err
	})
	if err == nil && res.Changed() {
		s.logger.Info("outline extended", "added", res.Added, "skipped", len(res.Skipped))
	}
	return res, err
}

// Frame returns what the session's surface currently shows. It does not
// go through the loop.
func (s *Session) Frame() render.Frame {
	return s.surface.Frame()
}

// Revision changes whenever the session's surface has been drawn on.
func (s *Session) Revision() render.Counters {
	return s.surface.Counters()
}

// Touch marks the session as used now.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastUsed = time.Now()
	s.mu.Unlock()
}

// LastUsed returns when the session was last used.
func (s *Session) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// Done is closed once the session has been closed.
func (s *Session) Done() <-chan struct{} {
	return s.loop.Done()
}

// Close stops the session's loop. Pending ticks are discarded.
func (s *Session) Close() {
	s.cancel()
	s.loop.Close()
}

func lookup(m *nodemap.Map, id int) (*nodemap.Node, error) {
	n := m.Node(id)
	if n == nil {
		return nil, errors.New(errors.ErrCodeNotFound, "node %d not found", id)
	}
	return n, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// NewID creates a session ID.
func NewID() string {
	return uuid.NewString()
}
