package session

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nodemap/pkg/errors"
	"github.com/matzehuels/nodemap/pkg/observability"
	"github.com/matzehuels/nodemap/pkg/outline"
	"github.com/matzehuels/nodemap/pkg/render"
)

// surfacePrefix names session surfaces in the manager's registry.
const surfacePrefix = "sessions/"

// Config configures a Manager.
type Config struct {
	// TTL is how long a session may go unused. Zero means DefaultTTL.
	TTL time.Duration

	// CleanupInterval is the reaper period. Zero means
	// DefaultCleanupInterval.
	CleanupInterval time.Duration

	// MaxSessions bounds the number of live sessions. Zero means no bound.
	MaxSessions int

	Logger *log.Logger
}

// Manager owns the live sessions of a server.
type Manager struct {
	cfg   Config
	hooks observability.ServerHooks
	now   func() time.Time

	surfaces *render.Registry

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates an empty manager. Start the reaper with Run.
func NewManager(cfg Config) *Manager {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = DefaultCleanupInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Manager{
		cfg:      cfg,
		hooks:    observability.Server(),
		now:      time.Now,
		surfaces: render.NewRegistry(),
		sessions: make(map[string]*Session),
	}
}

// Create starts a session running doc.
func (mgr *Manager) Create(ctx context.Context, doc *outline.Document, opts MapOptions) (*Session, error) {
	if err := outline.Validate(doc); err != nil {
		return nil, err
	}
	if mgr.cfg.MaxSessions > 0 && mgr.Len() >= mgr.cfg.MaxSessions {
		return nil, errors.New(errors.ErrCodeUnsupported, "too many live sessions (max %d)", mgr.cfg.MaxSessions)
	}

	s, err := newSession(ctx, NewID(), doc, opts, mgr.cfg.Logger)
	if err != nil {
		return nil, err
	}

	if err := mgr.surfaces.Register(surfacePrefix+s.ID, s.surface); err != nil {
		s.Close()
		return nil, err
	}
	mgr.mu.Lock()
	mgr.sessions[s.ID] = s
	mgr.mu.Unlock()

	mgr.cfg.Logger.Info("created session", "id", s.ID, "name", s.Name, "nodes", doc.Len())
	mgr.hooks.OnSessionOpen(ctx, s.ID, doc.Len())
	return s, nil
}

// Get returns the session with the given ID and marks it used.
func (mgr *Manager) Get(id string) (*Session, error) {
	mgr.mu.RLock()
	s, ok := mgr.sessions[id]
	mgr.mu.RUnlock()
	if !ok {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session %s not found", id)
	}
	s.Touch()
	return s, nil
}

// Frame returns the current frame of the single session whose ID matches
// pattern, a glob such as "3f2a*". No match or several matches are an
// INVALID_TARGET error.
func (mgr *Manager) Frame(pattern string) (render.Frame, error) {
	surface, err := mgr.surfaces.Resolve(surfacePrefix + pattern)
	if err != nil {
		return render.Frame{}, err
	}
	rec, ok := surface.(*render.Recorder)
	if !ok {
		return render.Frame{}, errors.New(errors.ErrCodeInternal, "session surface is %T", surface)
	}
	return rec.Frame(), nil
}

// List returns the live sessions, oldest first.
func (mgr *Manager) List() []*Session {
	mgr.mu.RLock()
	out := make([]*Session, 0, len(mgr.sessions))
	for _, s := range mgr.sessions {
		out = append(out, s)
	}
	mgr.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Len returns the number of live sessions.
func (mgr *Manager) Len() int {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()
	return len(mgr.sessions)
}

// Delete closes and removes a session.
func (mgr *Manager) Delete(ctx context.Context, id string) error {
	mgr.mu.Lock()
	s, ok := mgr.sessions[id]
	if ok {
		delete(mgr.sessions, id)
	}
	mgr.mu.Unlock()

	if !ok {
		return errors.New(errors.ErrCodeSessionNotFound, "session %s not found", id)
	}
	mgr.close(ctx, s)
	return nil
}

// Cleanup removes the sessions unused for longer than the TTL and returns
// their IDs.
func (mgr *Manager) Cleanup(ctx context.Context) []string {
	now := mgr.now()
	mgr.mu.Lock()
	var expired []*Session
	for id, s := range mgr.sessions {
		if now.Sub(s.LastUsed()) > mgr.cfg.TTL {
			expired = append(expired, s)
			delete(mgr.sessions, id)
		}
	}
	mgr.mu.Unlock()

	ids := make([]string, len(expired))
	for i, s := range expired {
		ids[i] = s.ID
		mgr.close(ctx, s)
	}
	if len(ids) > 0 {
		mgr.cfg.Logger.Info("expired sessions", "count", len(ids))
	}
	return ids
}

// Run removes expired sessions periodically until ctx is done, then
// closes every session.
func (mgr *Manager) Run(ctx context.Context) error {
	ticker := time.NewTicker(mgr.cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			mgr.Close()
			return nil
		case <-ticker.C:
			mgr.Cleanup(ctx)
		}
	}
}

// Close closes every session.
func (mgr *Manager) Close() {
	mgr.mu.Lock()
	sessions := mgr.sessions
	mgr.sessions = make(map[string]*Session)
	mgr.mu.Unlock()

	for _, s := range sessions {
		mgr.close(context.Background(), s)
	}
}

func (mgr *Manager) close(ctx context.Context, s *Session) {
	mgr.surfaces.Unregister(surfacePrefix + s.ID)
	s.Close()
	lifetime := mgr.now().Sub(s.CreatedAt)
	mgr.cfg.Logger.Debug("closed session", "id", s.ID, "lifetime", lifetime)
	mgr.hooks.OnSessionClose(ctx, s.ID, lifetime)
}
