package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/nodemap/pkg/graph"
)

func sampleLayout(root string) graph.Layout {
	return graph.Layout{
		Width:   800,
		Height:  600,
		Settled: true,
		Nodes: []graph.Node{
			{ID: 0, Label: root, Parent: graph.NoParent, X: 400, Y: 300, Width: 40, Height: 20, Stable: true, HasPosition: true},
			{ID: 1, Label: "About", Href: "/about", Depth: 1, Parent: 0, X: 520, Y: 300, Width: 48, Height: 20, Stable: true, HasPosition: true},
		},
		Edges: []graph.Edge{{From: 1, To: 0}},
	}
}

func openTestStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "db", "layouts.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenSQLiteCreatesFile(t *testing.T) {
	s := openTestStore(t)
	if _, err := os.Stat(s.Path()); err != nil {
		t.Errorf("expected database file at %s: %v", s.Path(), err)
	}
}

func TestSQLitePutGet(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	s.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }

	saved, err := s.Put(ctx, Record{Layout: sampleLayout("Home")})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if saved.ID == "" {
		t.Error("Put should assign an ID")
	}
	if saved.Name != "Home" {
		t.Errorf("Name = %q, want root label", saved.Name)
	}
	if !saved.CreatedAt.Equal(s.now()) {
		t.Errorf("CreatedAt = %v", saved.CreatedAt)
	}

	got, err := s.Get(ctx, saved.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != saved.Name || !got.CreatedAt.Equal(saved.CreatedAt) {
		t.Errorf("Get = %+v, want %+v", got, saved)
	}
	if len(got.Layout.Nodes) != 2 || got.Layout.Nodes[1].Href != "/about" || !got.Layout.Settled {
		t.Errorf("layout not round-tripped: %+v", got.Layout)
	}
}

func TestSQLiteGetMissing(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Get(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get missing = %v, want ErrNotFound", err)
	}
}

func TestSQLitePutRejectsInvalidLayout(t *testing.T) {
	s := openTestStore(t)
	bad := sampleLayout("Home")
	bad.Nodes[1].Parent = graph.NoParent
	if _, err := s.Put(context.Background(), Record{Layout: bad}); err == nil {
		t.Error("Put should reject a layout with two roots")
	}
}

func TestSQLitePutReplaces(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	first, err := s.Put(ctx, Record{ID: "fixed", Name: "v1", Layout: sampleLayout("Home")})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Put(ctx, Record{ID: first.ID, Name: "v2", Layout: sampleLayout("Home")}); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(ctx, "fixed")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "v2" {
		t.Errorf("Name = %q, want v2", got.Name)
	}
	list, _ := s.List(ctx, 0)
	if len(list) != 1 {
		t.Errorf("List has %d records, want 1", len(list))
	}
}

func TestSQLiteList(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, name := range []string{"old", "mid", "new"} {
		_, err := s.Put(ctx, Record{
			Name:      name,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
			Layout:    sampleLayout(name),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name  string
		limit int
		want  []string
	}{
		{"all", 0, []string{"new", "mid", "old"}},
		{"limited", 2, []string{"new", "mid"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := s.List(ctx, tt.limit)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(list) != len(tt.want) {
				t.Fatalf("List returned %d, want %d", len(list), len(tt.want))
			}
			for i, sum := range list {
				if sum.Name != tt.want[i] {
					t.Errorf("list[%d] = %q, want %q", i, sum.Name, tt.want[i])
				}
				if sum.Nodes != 2 {
					t.Errorf("list[%d].Nodes = %d", i, sum.Nodes)
				}
			}
		})
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, "sqlite", filepath.Join(t.TempDir(), "x.db"))
	if err != nil {
		t.Fatalf("Open sqlite: %v", err)
	}
	s.Close()

	if _, err := Open(ctx, "postgres", "x"); err == nil {
		t.Error("Open should reject unknown drivers")
	}
}

func TestMongoDatabase(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"mongodb://localhost:27017", DefaultMongoDatabase},
		{"mongodb://localhost:27017/", DefaultMongoDatabase},
		{"mongodb://user:pw@db:27017/maps?authSource=admin", "maps"},
	}
	for _, tt := range tests {
		if got := mongoDatabase(tt.uri); got != tt.want {
			t.Errorf("mongoDatabase(%q) = %q, want %q", tt.uri, got, tt.want)
		}
	}
}
