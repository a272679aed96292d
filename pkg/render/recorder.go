package render

import (
	"sync"

	"gonum.org/v1/gonum/spatial/r2"
)

// Segment is a connector drawn on a Recorder.
type Segment struct {
	From r2.Vec `json:"from"`
	To   r2.Vec `json:"to"`
}

// Placement is the last top-left corner reported for a node.
type Placement struct {
	Left float64 `json:"left"`
	Top  float64 `json:"top"`
}

// Frame is a copy of what a Recorder currently shows.
type Frame struct {
	Width     float64           `json:"width"`
	Height    float64           `json:"height"`
	Lines     []Segment         `json:"lines"`
	Nodes     map[int]Placement `json:"nodes"`
	Finalized bool              `json:"finalized"`
}

// Counters tallies surface calls.
type Counters struct {
	Clears    int
	Lines     int
	Places    int
	Resizes   int
	Finalizes int
}

// Recorder is an in-memory Surface. It is safe for concurrent use, so a
// map can draw on it from its loop while another goroutine reads frames.
type Recorder struct {
	Metrics TextMetrics

	mu        sync.Mutex
	width     float64
	height    float64
	lines     []Segment
	nodes     map[int]Placement
	finalized bool
	counts    Counters
}

// NewRecorder creates a recorder with the given container size.
func NewRecorder(w, h float64) *Recorder {
	return &Recorder{
		Metrics: DefaultMetrics,
		width:   w,
		height:  h,
		nodes:   make(map[int]Placement),
	}
}

func (r *Recorder) Size() (float64, float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width, r.height
}

func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = r.lines[:0]
	r.finalized = false
	r.counts.Clears++
}

func (r *Recorder) DrawLine(from, to r2.Vec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, Segment{From: from, To: to})
	r.counts.Lines++
}

func (r *Recorder) PlaceNode(id int, left, top float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes[id] = Placement{Left: left, Top: top}
	r.counts.Places++
}

func (r *Recorder) Resize(w, h float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.width, r.height = w, h
	r.counts.Resizes++
}

// FinalizeConnectors marks the frame finalized until the next Clear.
func (r *Recorder) FinalizeConnectors() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finalized = true
	r.counts.Finalizes++
}

// Footprint implements Measurer using the recorder's metrics.
func (r *Recorder) Footprint(label string) (float64, float64) {
	return r.Metrics.Footprint(label)
}

// Frame returns a copy of the current frame.
func (r *Recorder) Frame() Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	f := Frame{
		Width:     r.width,
		Height:    r.height,
		Lines:     append([]Segment(nil), r.lines...),
		Nodes:     make(map[int]Placement, len(r.nodes)),
		Finalized: r.finalized,
	}
	for id, p := range r.nodes {
		f.Nodes[id] = p
	}
	return f
}

// Counters returns the call tallies so far.
func (r *Recorder) Counters() Counters {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts
}
