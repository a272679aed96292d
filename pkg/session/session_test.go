package session

import (
	"context"
	"testing"
	"time"

	"github.com/matzehuels/nodemap/pkg/errors"
	"github.com/matzehuels/nodemap/pkg/nodemap"
	"github.com/matzehuels/nodemap/pkg/outline"
)

func site(children ...string) *outline.Document {
	root := &outline.Item{Label: "Home", Href: "/"}
	for _, c := range children {
		root.Children = append(root.Children, &outline.Item{Label: c})
	}
	return &outline.Document{Root: root}
}

var fastMap = MapOptions{Width: 640, Height: 480, Timeout: 300 * time.Millisecond}

func newManager(t *testing.T) *Manager {
	t.Helper()
	mgr := NewManager(Config{TTL: time.Minute})
	t.Cleanup(mgr.Close)
	return mgr
}

// waitIdle polls until no relaxation loop is running.
func waitIdle(t *testing.T, s *Session) {
	t.Helper()
	ctx := context.Background()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		moving, err := s.Moving(ctx)
		if err != nil {
			t.Fatalf("Moving: %v", err)
		}
		if !moving {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("map did not come to rest")
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	mgr := newManager(t)

	s, err := mgr.Create(ctx, site("About", "Blog"), fastMap)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if s.Name != "Home" || s.ID == "" {
		t.Errorf("session = %q %q", s.ID, s.Name)
	}
	if got, err := mgr.Get(s.ID); err != nil || got != s {
		t.Fatalf("Get = %v, %v", got, err)
	}

	l, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(l.Nodes) != 3 || len(l.Edges) != 2 {
		t.Errorf("snapshot has %d nodes, %d edges", len(l.Nodes), len(l.Edges))
	}
	if l.Width < 640 || l.Height < 480 {
		t.Errorf("viewport = %vx%v", l.Width, l.Height)
	}

	waitIdle(t, s)
	frame := s.Frame()
	if len(frame.Nodes) != 3 {
		t.Errorf("frame placed %d nodes", len(frame.Nodes))
	}
	if !frame.Finalized {
		t.Error("connectors should be finalized once the map rests")
	}
}

func TestCreateErrors(t *testing.T) {
	mgr := newManager(t)
	ctx := context.Background()

	if _, err := mgr.Create(ctx, &outline.Document{}, fastMap); !errors.Is(err, errors.ErrCodeNoRoot) {
		t.Errorf("Create without root = %v", err)
	}

	limited := NewManager(Config{MaxSessions: 1})
	defer limited.Close()
	if _, err := limited.Create(ctx, site(), fastMap); err != nil {
		t.Fatal(err)
	}
	if _, err := limited.Create(ctx, site(), fastMap); err == nil {
		t.Error("Create beyond MaxSessions should fail")
	}
}

func TestSessionInput(t *testing.T) {
	ctx := context.Background()
	s, err := newManager(t).Create(ctx, site("About", "Blog"), fastMap)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Drag(ctx, 1, 100, 80); err != nil {
		t.Fatalf("Drag: %v", err)
	}
	err = s.Do(ctx, func(m *nodemap.Map) error {
		if !m.DragActive() || !m.Node(1).Dragging() {
			t.Error("drag flags should be set")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Drop(ctx, 1); err != nil {
		t.Fatalf("Drop: %v", err)
	}

	if err := s.Drag(ctx, 42, 0, 0); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Drag of unknown node = %v", err)
	}
	if err := s.Resize(ctx, 0, 100); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Resize to zero = %v", err)
	}
	if err := s.Resize(ctx, 1000, 700); err != nil {
		t.Fatalf("Resize: %v", err)
	}

	waitIdle(t, s)
	l, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if l.Width < 1000 || l.Height < 700 {
		t.Errorf("viewport after resize = %vx%v", l.Width, l.Height)
	}
}

func TestSessionExtend(t *testing.T) {
	ctx := context.Background()
	s, err := newManager(t).Create(ctx, site("About"), fastMap)
	if err != nil {
		t.Fatal(err)
	}

	res, err := s.Extend(ctx, site("About", "Blog", "Shop"))
	if err != nil {
		t.Fatalf("Extend: %v", err)
	}
	if res.Added != 2 || len(res.Skipped) != 0 {
		t.Errorf("Extend = %+v", res)
	}
	l, _ := s.Snapshot(ctx)
	if len(l.Nodes) != 4 {
		t.Errorf("snapshot has %d nodes after extend", len(l.Nodes))
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	mgr := newManager(t)
	s, err := mgr.Create(ctx, site("About"), fastMap)
	if err != nil {
		t.Fatal(err)
	}

	if err := mgr.Delete(ctx, s.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := mgr.Get(s.ID); !errors.Is(err, errors.ErrCodeSessionNotFound) {
		t.Errorf("Get after Delete = %v", err)
	}
	if err := mgr.Delete(ctx, s.ID); !errors.Is(err, errors.ErrCodeSessionNotFound) {
		t.Errorf("second Delete = %v", err)
	}

	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("deleted session should be closed")
	}
	if _, err := s.Snapshot(ctx); !errors.Is(err, errors.ErrCodeSessionNotFound) {
		t.Errorf("Snapshot of closed session = %v", err)
	}
}

func TestCleanup(t *testing.T) {
	ctx := context.Background()
	mgr := newManager(t)
	a, err := mgr.Create(ctx, site(), fastMap)
	if err != nil {
		t.Fatal(err)
	}
	b, err := mgr.Create(ctx, site(), fastMap)
	if err != nil {
		t.Fatal(err)
	}

	if expired := mgr.Cleanup(ctx); len(expired) != 0 {
		t.Errorf("fresh sessions expired: %v", expired)
	}

	mgr.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	expired := mgr.Cleanup(ctx)
	if len(expired) != 2 {
		t.Fatalf("Cleanup expired %v, want both sessions", expired)
	}
	if mgr.Len() != 0 {
		t.Errorf("Len = %d after cleanup", mgr.Len())
	}
	for _, s := range []*Session{a, b} {
		select {
		case <-s.Done():
		default:
			t.Errorf("session %s should be closed", s.ID)
		}
	}
}

func TestList(t *testing.T) {
	ctx := context.Background()
	mgr := newManager(t)
	for i := 0; i < 3; i++ {
		if _, err := mgr.Create(ctx, site(), fastMap); err != nil {
			t.Fatal(err)
		}
	}
	list := mgr.List()
	if len(list) != 3 {
		t.Fatalf("List = %d sessions", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i].CreatedAt.Before(list[i-1].CreatedAt) {
			t.Error("List should be oldest first")
		}
	}
}

func TestRunClosesSessionsOnCancel(t *testing.T) {
	mgr := NewManager(Config{CleanupInterval: 10 * time.Millisecond})
	s, err := mgr.Create(context.Background(), site(), fastMap)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- mgr.Run(ctx) }()
	cancel()

	if err := <-done; err != nil {
		t.Errorf("Run = %v", err)
	}
	if mgr.Len() != 0 {
		t.Error("Run should close every session on return")
	}
	<-s.Done()
}

func TestFrame(t *testing.T) {
	ctx := context.Background()
	mgr := newManager(t)
	s, err := mgr.Create(ctx, site("About", "Blog"), fastMap)
	if err != nil {
		t.Fatal(err)
	}
	waitIdle(t, s)

	frame, err := mgr.Frame(s.ID[:6] + "*")
	if err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if len(frame.Nodes) != 3 {
		t.Errorf("frame placed %d nodes", len(frame.Nodes))
	}

	if _, err := mgr.Create(ctx, site(), fastMap); err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.Frame("*"); !errors.Is(err, errors.ErrCodeInvalidTarget) {
		t.Errorf("ambiguous Frame = %v", err)
	}

	if err := mgr.Delete(ctx, s.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.Frame(s.ID); !errors.Is(err, errors.ErrCodeInvalidTarget) {
		t.Errorf("Frame of deleted session = %v", err)
	}
}
