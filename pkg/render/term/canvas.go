// Package term draws node maps into a grid of terminal cells.
package term

import (
	"math"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"gonum.org/v1/gonum/spatial/r2"
)

// Default cell size in map units. Terminal cells are roughly twice as tall
// as they are wide.
const (
	DefaultCellWidth  = 8.0
	DefaultCellHeight = 16.0
)

var (
	styleNode     = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	styleRoot     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("36"))
	styleSelected = lipgloss.NewStyle().Reverse(true)
	styleFaint    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	styleLine     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

type cellKind uint8

const (
	cellEmpty cellKind = iota
	cellLine
	cellNode
	cellRoot
	cellSelected
)

type cell struct {
	r    rune
	kind cellKind
}

type segment struct{ from, to r2.Vec }

// Canvas is a render.Surface that keeps the current frame and draws it as
// text. It is safe for concurrent use: the map draws from its loop while
// the terminal program renders from its own goroutine.
type Canvas struct {
	CellWidth  float64
	CellHeight float64

	mu        sync.Mutex
	cols      int
	rows      int
	width     float64
	height    float64
	lines     []segment
	nodes     map[int]r2.Vec // top-left corners
	finalized bool
}

// NewCanvas creates a canvas for a terminal of cols by rows cells.
func NewCanvas(cols, rows int) *Canvas {
	c := &Canvas{
		CellWidth:  DefaultCellWidth,
		CellHeight: DefaultCellHeight,
		nodes:      make(map[int]r2.Vec),
	}
	c.SetTerminalSize(cols, rows)
	return c
}

// SetTerminalSize changes the cell grid and returns the matching map
// viewport.
func (c *Canvas) SetTerminalSize(cols, rows int) (w, h float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cols, c.rows = max(cols, 1), max(rows, 1)
	c.width = float64(c.cols) * c.CellWidth
	c.height = float64(c.rows) * c.CellHeight
	return c.width, c.height
}

func (c *Canvas) Size() (float64, float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

func (c *Canvas) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = c.lines[:0]
	c.finalized = false
}

func (c *Canvas) DrawLine(from, to r2.Vec) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, segment{from, to})
}

func (c *Canvas) PlaceNode(id int, left, top float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nodes[id] = r2.Vec{X: left, Y: top}
}

func (c *Canvas) Resize(w, h float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.width, c.height = w, h
}

func (c *Canvas) FinalizeConnectors() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.finalized = true
}

// Footprint sizes a node as its label in brackets on a single row.
func (c *Canvas) Footprint(label string) (float64, float64) {
	return float64(utf8.RuneCountInString(label)+2) * c.CellWidth, c.CellHeight
}

// Cell converts a map position to the cell it is drawn in.
func (c *Canvas) Cell(p r2.Vec) (col, row int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cell(p, c.scale())
}

// Point converts a cell to the map position at its center.
func (c *Canvas) Point(col, row int) r2.Vec {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.scale()
	return r2.Vec{
		X: (float64(col) + 0.5) * c.CellWidth * s,
		Y: (float64(row) + 0.5) * c.CellHeight * s,
	}
}

// scale is the zoom-out factor that fits a grown viewport into the grid.
func (c *Canvas) scale() float64 {
	sx := c.width / (float64(c.cols) * c.CellWidth)
	sy := c.height / (float64(c.rows) * c.CellHeight)
	return math.Max(1, math.Max(sx, sy))
}

func (c *Canvas) cell(p r2.Vec, s float64) (int, int) {
	return int(math.Floor(p.X / (c.CellWidth * s))), int(math.Floor(p.Y / (c.CellHeight * s)))
}

// Render draws the current frame. labels holds the node labels by id;
// the node selected is highlighted, pass -1 for none.
func (c *Canvas) Render(labels []string, selected int) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	grid := make([][]cell, c.rows)
	for i := range grid {
		grid[i] = make([]cell, c.cols)
	}
	s := c.scale()

	dot := '·'
	if c.finalized {
		dot = '•'
	}
	for _, l := range c.lines {
		c0, r0 := c.cell(l.from, s)
		c1, r1 := c.cell(l.to, s)
		plot(grid, c0, r0, c1, r1, cell{dot, cellLine})
	}

	for id, corner := range c.nodes {
		if id < 0 || id >= len(labels) {
			continue
		}
		kind := cellNode
		switch {
		case id == selected:
			kind = cellSelected
		case id == 0:
			kind = cellRoot
		}
		col, row := c.cell(corner, s)
		text := "[" + labels[id] + "]"
		for _, r := range text {
			put(grid, col, row, cell{r, kind})
			col++
		}
	}

	var sb strings.Builder
	for i, row := range grid {
		if i > 0 {
			sb.WriteByte('\n')
		}
		writeRow(&sb, row, c.finalized)
	}
	return sb.String()
}

// writeRow renders runs of equally styled cells.
func writeRow(sb *strings.Builder, row []cell, finalized bool) {
	start := 0
	for i := 1; i <= len(row); i++ {
		if i < len(row) && row[i].kind == row[start].kind {
			continue
		}
		var run strings.Builder
		for _, c := range row[start:i] {
			if c.r == 0 {
				run.WriteByte(' ')
			} else {
				run.WriteRune(c.r)
			}
		}
		sb.WriteString(style(row[start].kind, finalized).Render(run.String()))
		start = i
	}
}

func style(k cellKind, finalized bool) lipgloss.Style {
	switch k {
	case cellLine:
		if finalized {
			return styleLine
		}
		return styleFaint
	case cellNode:
		return styleNode
	case cellRoot:
		return styleRoot
	case cellSelected:
		return styleSelected
	}
	return lipgloss.NewStyle()
}

func put(grid [][]cell, col, row int, c cell) {
	if row < 0 || row >= len(grid) || col < 0 || col >= len(grid[row]) {
		return
	}
	if c.kind == cellLine && grid[row][col].kind != cellEmpty {
		return
	}
	grid[row][col] = c
}

// plot draws a line of cells with Bresenham's algorithm.
func plot(grid [][]cell, x0, y0, x1, y1 int, c cell) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		put(grid, x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
