package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/nodemap/pkg/graph"
	"github.com/matzehuels/nodemap/pkg/store"
)

const siteMarkdown = `- [Home](/)
  - [About](/about)
    - [Team](/about/team)
  - [Blog](/blog)
  - Contact
`

// testEnv is a temp dir holding an outline and a config file that keeps
// the cache and the store inside it.
type testEnv struct {
	dir     string
	outline string
	config  string
	dbPath  string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	env := testEnv{
		dir:     dir,
		outline: filepath.Join(dir, "site.md"),
		config:  filepath.Join(dir, "config.toml"),
		dbPath:  filepath.Join(dir, "layouts.db"),
	}
	cfg := `[simulation]
timeout = "500ms"

[cache]
dir = "` + filepath.Join(dir, "cache") + `"

[store]
driver = "sqlite"
dsn = "` + env.dbPath + `"
`
	if err := os.WriteFile(env.config, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(env.outline, []byte(siteMarkdown), 0o644); err != nil {
		t.Fatal(err)
	}
	return env
}

func (env testEnv) run(t *testing.T, args ...string) error {
	t.Helper()
	root := New(io.Discard, LogInfo).RootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs(append(args, "--config", env.config))
	return root.ExecuteContext(context.Background())
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		name   string
		output string
		input  string
		format string
		count  int
		want   string
	}{
		{"derived from input", "", "docs/site.md", "svg", 1, "docs/site.svg"},
		{"explicit single", "map.png", "site.md", "png", 1, "map.png"},
		{"base for several", "out/map", "site.md", "dot", 2, "out/map.dot"},
		{"known extension stripped", "out/map.svg", "site.md", "png", 2, "out/map.png"},
		{"neato extension", "", "site.yaml", "neato", 2, "site.neato.svg"},
		{"neato output stripped", "map.neato.svg", "site.md", "json", 2, "map.json"},
		{"layout suffix dropped", "", "site.layout.json", "svg", 1, "site.svg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := outputPath(tt.output, tt.input, tt.format, tt.count); got != tt.want {
				t.Errorf("outputPath(%q, %q, %q, %d) = %q, want %q",
					tt.output, tt.input, tt.format, tt.count, got, tt.want)
			}
		})
	}
}

func TestWriteArtifactsStdoutNeedsOneFormat(t *testing.T) {
	err := writeArtifacts(artifactWriteParams{
		artifacts: map[string][]byte{"svg": nil, "png": nil},
		formats:   []string{"svg", "png"},
		output:    "-",
	})
	if err == nil {
		t.Error("expected error for two formats on stdout")
	}
}

func TestRenderVisualizeAndLayouts(t *testing.T) {
	env := newTestEnv(t)

	if err := env.run(t, "render", env.outline, "-f", "svg,json"); err != nil {
		t.Fatalf("render: %v", err)
	}
	svg, err := os.ReadFile(filepath.Join(env.dir, "site.svg"))
	if err != nil {
		t.Fatalf("read svg: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Errorf("site.svg = %.60s", svg)
	}
	layoutPath := filepath.Join(env.dir, "site.json")
	l, err := graph.ReadLayoutFile(layoutPath)
	if err != nil {
		t.Fatalf("read layout: %v", err)
	}
	if len(l.Nodes) != 5 || !l.Finalized {
		t.Errorf("layout has %d nodes, finalized %v", len(l.Nodes), l.Finalized)
	}

	dotPath := filepath.Join(env.dir, "out", "map.dot")
	if err := env.run(t, "visualize", layoutPath, "-f", "dot", "-o", dotPath); err != nil {
		t.Fatalf("visualize: %v", err)
	}
	dot, err := os.ReadFile(dotPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(dot), "graph G {") {
		t.Errorf("map.dot = %.40s", dot)
	}

	if err := env.run(t, "layouts", "import", layoutPath, "--name", "demo"); err != nil {
		t.Fatalf("layouts import: %v", err)
	}
	if err := env.run(t, "layouts", "list"); err != nil {
		t.Fatalf("layouts list: %v", err)
	}

	st, err := store.OpenSQLite(env.dbPath)
	if err != nil {
		t.Fatal(err)
	}
	list, err := st.List(context.Background(), 0)
	st.Close()
	if err != nil || len(list) != 1 || list[0].Name != "demo" {
		t.Fatalf("stored layouts = %+v, %v", list, err)
	}

	pngPath := filepath.Join(env.dir, "demo.png")
	if err := env.run(t, "layouts", "show", list[0].ID, "-f", "png", "-o", pngPath); err != nil {
		t.Fatalf("layouts show: %v", err)
	}
	png, err := os.ReadFile(pngPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(png), "\x89PNG") {
		t.Error("demo.png is not a PNG")
	}

	if err := env.run(t, "layouts", "show", "missing"); err == nil {
		t.Error("expected error for a missing layout")
	}
}

func TestRenderErrors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		args []string
	}{
		{"unknown output format", []string{"render", env.outline, "-f", "gif"}},
		{"unknown input format", []string{"render", env.outline, "--input-format", "docx"}},
		{"missing outline", []string{"render", filepath.Join(env.dir, "nope.md")}},
		{"missing layout", []string{"visualize", filepath.Join(env.dir, "nope.json")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := env.run(t, tt.args...); err == nil {
				t.Errorf("%v: expected error", tt.args)
			}
		})
	}
}
