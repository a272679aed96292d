package server

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/nodemap/pkg/graph"
	"github.com/matzehuels/nodemap/pkg/session"
	"github.com/matzehuels/nodemap/pkg/store"
)

const siteMarkdown = `- [Home](/)
  - [About](/about)
    - [Team](/about/team)
  - [Blog](/blog)
  - Contact
`

var fastMap = session.MapOptions{Width: 640, Height: 480, Timeout: 300 * time.Millisecond}

func newTestServer(t *testing.T, st store.Store) *httptest.Server {
	t.Helper()
	mgr := session.NewManager(session.Config{TTL: time.Minute})
	t.Cleanup(mgr.Close)

	srv, err := New(Config{
		Sessions:      mgr,
		Store:         st,
		Map:           fastMap,
		FrameInterval: 10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.OpenSQLite(filepath.Join(t.TempDir(), "layouts.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func do(t *testing.T, method, url string, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func decode(t *testing.T, data []byte, v any) {
	t.Helper()
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
}

func createSession(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	resp, body := do(t, http.MethodPost, ts.URL+"/api/sessions", siteMarkdown)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d: %s", resp.StatusCode, body)
	}
	var created struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Nodes int    `json:"nodes"`
	}
	decode(t, body, &created)
	if created.Name != "Home" || created.Nodes != 5 {
		t.Errorf("created = %+v", created)
	}
	return created.ID
}

func TestNewRequiresSessions(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected error without a session manager")
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil)
	resp, body := do(t, http.MethodGet, ts.URL+"/healthz", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var health map[string]any
	decode(t, body, &health)
	if health["status"] != "ok" {
		t.Errorf("health = %v", health)
	}
}

func TestSessionLifecycle(t *testing.T) {
	ts := newTestServer(t, nil)
	id := createSession(t, ts)
	url := ts.URL + "/api/sessions/" + id

	resp, body := do(t, http.MethodGet, url, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d: %s", resp.StatusCode, body)
	}
	l, err := graph.UnmarshalLayout(body)
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	if len(l.Nodes) != 5 || len(l.Edges) != 4 {
		t.Errorf("layout has %d nodes, %d edges", len(l.Nodes), len(l.Edges))
	}

	resp, body = do(t, http.MethodGet, ts.URL+"/api/sessions", "")
	var list []sessionInfo
	decode(t, body, &list)
	if resp.StatusCode != http.StatusOK || len(list) != 1 || list[0].ID != id {
		t.Errorf("list = %d %+v", resp.StatusCode, list)
	}

	resp, body = do(t, http.MethodGet, ts.URL+"/api/frames/"+id[:8]+"*", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("frame status = %d: %s", resp.StatusCode, body)
	}
	resp, _ = do(t, http.MethodGet, ts.URL+"/api/frames/zzz*", "")
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("unmatched frame status = %d", resp.StatusCode)
	}

	resp, _ = do(t, http.MethodDelete, url, "")
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d", resp.StatusCode)
	}

	resp, body = do(t, http.MethodGet, url, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete = %d", resp.StatusCode)
	}
	var e errorBody
	decode(t, body, &e)
	if e.Error != "SESSION_NOT_FOUND" {
		t.Errorf("error = %+v", e)
	}
}

func TestCreateSessionErrors(t *testing.T) {
	ts := newTestServer(t, nil)

	tests := []struct {
		name   string
		query  string
		body   string
		status int
	}{
		{"unknown format", "?format=docx", siteMarkdown, http.StatusBadRequest},
		{"no root", "", "just text\n", http.StatusUnprocessableEntity},
		{"bad yaml", "?format=yaml", "label: [", http.StatusBadRequest},
		{"bad width", "?width=-3", siteMarkdown, http.StatusBadRequest},
		{"width not a number", "?width=wide", siteMarkdown, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, http.MethodPost, ts.URL+"/api/sessions"+tt.query, tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d: %s", resp.StatusCode, tt.status, body)
			}
		})
	}
}

func TestStoreRoutesWithoutStore(t *testing.T) {
	ts := newTestServer(t, nil)
	id := createSession(t, ts)

	for _, req := range []struct{ method, path string }{
		{http.MethodPost, "/api/sessions/" + id + "/snapshots"},
		{http.MethodGet, "/api/layouts"},
		{http.MethodGet, "/api/layouts/abc"},
	} {
		resp, _ := do(t, req.method, ts.URL+req.path, "")
		if resp.StatusCode != http.StatusNotImplemented {
			t.Errorf("%s %s = %d, want 501", req.method, req.path, resp.StatusCode)
		}
	}
}

func TestSnapshots(t *testing.T) {
	ts := newTestServer(t, newTestStore(t))
	id := createSession(t, ts)

	resp, body := do(t, http.MethodPost, ts.URL+"/api/sessions/"+id+"/snapshots?name=first", "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("save status = %d: %s", resp.StatusCode, body)
	}
	var saved store.Summary
	decode(t, body, &saved)
	if saved.ID == "" || saved.Name != "first" || saved.Nodes != 5 {
		t.Errorf("saved = %+v", saved)
	}

	resp, body = do(t, http.MethodGet, ts.URL+"/api/layouts", "")
	var list []store.Summary
	decode(t, body, &list)
	if resp.StatusCode != http.StatusOK || len(list) != 1 || list[0].ID != saved.ID {
		t.Errorf("list = %d %+v", resp.StatusCode, list)
	}

	resp, body = do(t, http.MethodGet, ts.URL+"/api/layouts/"+saved.ID, "")
	var rec store.Record
	decode(t, body, &rec)
	if resp.StatusCode != http.StatusOK || len(rec.Layout.Nodes) != 5 {
		t.Errorf("get = %d, %d nodes", resp.StatusCode, len(rec.Layout.Nodes))
	}

	resp, body = do(t, http.MethodGet, ts.URL+"/api/layouts/"+saved.ID+"?format=svg", "")
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/svg+xml" {
		t.Errorf("svg = %d %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	if !bytes.Contains(body, []byte("<svg")) {
		t.Errorf("svg body = %.60s", body)
	}

	resp, _ = do(t, http.MethodGet, ts.URL+"/api/layouts/"+saved.ID+"?format=gif", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("gif status = %d", resp.StatusCode)
	}

	resp, _ = do(t, http.MethodGet, ts.URL+"/api/layouts/missing", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing status = %d", resp.StatusCode)
	}

	resp, _ = do(t, http.MethodGet, ts.URL+"/api/layouts?limit=x", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad limit status = %d", resp.StatusCode)
	}
}

func TestRender(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, body := do(t, http.MethodPost, ts.URL+"/api/render?output=dot", siteMarkdown)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	if !strings.HasPrefix(string(body), "graph G {") {
		t.Errorf("dot = %.40s", body)
	}
	if got := resp.Header.Get("X-Layout-Cache"); got != "miss" {
		t.Errorf("X-Layout-Cache = %q", got)
	}

	resp, _ = do(t, http.MethodPost, ts.URL+"/api/render?output=bmp", siteMarkdown)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bmp status = %d", resp.StatusCode)
	}
}

// readUntil reads messages until one of type want arrives.
func readUntil(t *testing.T, conn *websocket.Conn, want string) outbound {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	for {
		var msg outbound
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("waiting for %q: %v", want, err)
		}
		if msg.Type == want {
			return msg
		}
	}
}

func TestLive(t *testing.T) {
	ts := newTestServer(t, nil)
	id := createSession(t, ts)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/sessions/" + id + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	first := readUntil(t, conn, msgLayout)
	if first.Layout == nil || len(first.Layout.Nodes) != 5 {
		t.Fatalf("first message = %+v", first)
	}

	if err := conn.WriteJSON(inbound{Type: msgDrag, Node: 1, X: 40, Y: 40}); err != nil {
		t.Fatalf("write drag: %v", err)
	}
	frame := readUntil(t, conn, msgFrame)
	if frame.Frame == nil || len(frame.Frame.Nodes) != 5 {
		t.Errorf("frame = %+v", frame.Frame)
	}
	if err := conn.WriteJSON(inbound{Type: msgDrop, Node: 1}); err != nil {
		t.Fatalf("write drop: %v", err)
	}

	if err := conn.WriteJSON(inbound{Type: msgDrag, Node: 99}); err != nil {
		t.Fatalf("write drag: %v", err)
	}
	e := readUntil(t, conn, msgError)
	if e.Error != "NOT_FOUND" {
		t.Errorf("error = %+v", e)
	}

	if err := conn.WriteJSON(map[string]string{"type": "spin"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	e = readUntil(t, conn, msgError)
	if e.Error != "INVALID_INPUT" {
		t.Errorf("error = %+v", e)
	}
}

func TestLiveUnknownSession(t *testing.T) {
	ts := newTestServer(t, nil)
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/sessions/nope/ws"
	_, resp, err := websocket.DefaultDialer.DialContext(context.Background(), wsURL, nil)
	if err == nil {
		t.Fatal("expected dial to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Errorf("resp = %v", resp)
	}
}
