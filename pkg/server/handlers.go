package server

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/nodemap/pkg/buildinfo"
	"github.com/matzehuels/nodemap/pkg/errors"
	"github.com/matzehuels/nodemap/pkg/graph"
	"github.com/matzehuels/nodemap/pkg/outline"
	"github.com/matzehuels/nodemap/pkg/pipeline"
	"github.com/matzehuels/nodemap/pkg/session"
	"github.com/matzehuels/nodemap/pkg/store"
)

// sessionInfo is the JSON view of a live session.
type sessionInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	LastUsed  time.Time `json:"last_used"`
}

func infoOf(sess *session.Session) sessionInfo {
	return sessionInfo{ID: sess.ID, Name: sess.Name, CreatedAt: sess.CreatedAt, LastUsed: sess.LastUsed()}
}

var contentTypes = map[string]string{
	pipeline.FormatSVG:   "image/svg+xml",
	pipeline.FormatNeato: "image/svg+xml",
	pipeline.FormatPNG:   "image/png",
	pipeline.FormatDOT:   "text/vnd.graphviz",
	pipeline.FormatJSON:  "application/json",
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"build":    buildinfo.Get(),
		"sessions": s.cfg.Sessions.Len(),
	})
}

// readOutline parses the request body as an outline in the ?format= format,
// markdown by default.
func (s *Server) readOutline(w http.ResponseWriter, r *http.Request) (*outline.Document, []byte, outline.Format, error) {
	format := outline.FormatMarkdown
	if raw := r.URL.Query().Get("format"); raw != "" {
		var err error
		if format, err = outline.ParseFormat(raw); err != nil {
			return nil, nil, "", err
		}
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBody))
	if err != nil {
		return nil, nil, "", errors.Wrap(errors.ErrCodeInvalidInput, err, "read outline")
	}
	doc, err := outline.ParseBytes(body, format)
	if err != nil {
		return nil, nil, "", err
	}
	return doc, body, format, nil
}

// floatParam reads an optional positive number from the query.
func floatParam(r *http.Request, name string, def float64) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return 0, errors.New(errors.ErrCodeInvalidInput, "%s must be a positive number, got %q", name, raw)
	}
	return v, nil
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	doc, _, _, err := s.readOutline(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts := s.cfg.Map
	if opts.Width, err = floatParam(r, "width", opts.Width); err != nil {
		s.writeError(w, r, err)
		return
	}
	if opts.Height, err = floatParam(r, "height", opts.Height); err != nil {
		s.writeError(w, r, err)
		return
	}

	sess, err := s.cfg.Sessions.Create(r.Context(), doc, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/sessions/"+sess.ID)
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":    sess.ID,
		"name":  sess.Name,
		"nodes": doc.Len(),
	})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.cfg.Sessions.List()
	out := make([]sessionInfo, len(sessions))
	for i, sess := range sessions {
		out[i] = infoOf(sess)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.cfg.Sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	l, err := sess.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	frame, err := s.cfg.Sessions.Frame(chi.URLParam(r, "pattern"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, frame)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.cfg.Sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) requireStore(w http.ResponseWriter, r *http.Request) bool {
	if s.cfg.Store == nil {
		writeJSON(w, http.StatusNotImplemented, errorBody{
			Error:   string(errors.ErrCodeUnsupported),
			Message: "no layout store configured",
		})
		return false
	}
	return true
}

func (s *Server) handleSaveSnapshot(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w, r) {
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	l, err := sess.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = sess.Name
	}
	rec, err := s.cfg.Store.Put(r.Context(), store.Record{Name: name, Layout: l})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("saved snapshot", "session", sess.ID, "layout", rec.ID, "nodes", len(l.Nodes))
	w.Header().Set("Location", "/api/layouts/"+rec.ID)
	writeJSON(w, http.StatusCreated, store.Summary{
		ID: rec.ID, Name: rec.Name, CreatedAt: rec.CreatedAt, Nodes: len(rec.Layout.Nodes),
	})
}

func (s *Server) handleListLayouts(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w, r) {
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "limit must be a non-negative integer"))
			return
		}
		limit = v
	}
	list, err := s.cfg.Store.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []store.Summary{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetLayout(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w, r) {
		return
	}
	rec, err := s.cfg.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		writeJSON(w, http.StatusOK, rec)
		return
	}
	s.writeArtifact(w, r, rec.Layout, pipeline.Options{Formats: []string{format}, Links: true})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	_, body, format, err := s.readOutline(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	output := r.URL.Query().Get("output")
	if output == "" {
		output = pipeline.FormatSVG
	}
	opts := pipeline.Options{
		Outline:   body,
		Format:    format,
		Width:     s.cfg.Map.Width,
		Height:    s.cfg.Map.Height,
		Threshold: s.cfg.Map.Threshold,
		Timeout:   s.cfg.Map.Timeout,
		Tick:      s.cfg.Map.Tick,
		Formats:   []string{output},
		Links:     true,
	}
	if err := pipeline.ValidateFormat(output); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidFormat, err, "unsupported output"))
		return
	}
	result, err := s.cfg.Runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("X-Layout-Cache", hitOrMiss(result.CacheInfo.LayoutHit))
	w.Header().Set("Content-Type", contentTypes[output])
	w.Write(result.Artifacts[output])
}

func (s *Server) writeArtifact(w http.ResponseWriter, r *http.Request, l graph.Layout, opts pipeline.Options) {
	format := opts.Formats[0]
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidFormat, err, "unsupported output"))
		return
	}
	artifacts, err := s.cfg.Runner.Render(r.Context(), l, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.Write(artifacts[format])
}

func hitOrMiss(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}
