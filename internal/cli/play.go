package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/nodemap/pkg/loop"
	"github.com/matzehuels/nodemap/pkg/nodemap"
	"github.com/matzehuels/nodemap/pkg/outline"
	"github.com/matzehuels/nodemap/pkg/pipeline"
	"github.com/matzehuels/nodemap/pkg/render/term"
	"github.com/matzehuels/nodemap/pkg/watcher"
)

// frameInterval is the redraw period of the terminal viewer.
const frameInterval = 33 * time.Millisecond

// playCommand creates the interactive terminal viewer.
func (c *CLI) playCommand() *cobra.Command {
	var (
		sim      simFlags
		inFormat string
		watch    bool
		logFile  string
	)

	cmd := &cobra.Command{
		Use:   "play [outline]",
		Short: "Explore an outline as a live node map in the terminal",
		Long: `Explore an outline as a live node map in the terminal.

Keys:
  tab, shift+tab   select the next or previous node
  arrows, hjkl     drag the selected node one cell
  space            drop the dragged node
  q, ctrl+c        quit

With --watch, items added to the outline file appear on the map as soon as
the file is saved.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.settleOptions()
			sim.apply(cmd, &opts)
			if inFormat != "" {
				f, err := outline.ParseFormat(inFormat)
				if err != nil {
					return err
				}
				opts.Format = f
			}
			return c.runPlay(cmd.Context(), args[0], opts, watch, logFile)
		},
	}

	sim.register(cmd, false)
	cmd.Flags().StringVar(&inFormat, "input-format", "", "outline format: html, markdown, yaml, toml, json (default: from extension)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "extend the map when the outline file changes")
	cmd.Flags().StringVar(&logFile, "log-file", "", "write logs to this file while the viewer runs")

	return cmd
}

func (c *CLI) runPlay(ctx context.Context, path string, opts pipeline.Options, watch bool, logFile string) error {
	var (
		doc *outline.Document
		err error
	)
	if opts.Format != "" {
		doc, err = outline.ParseFileAs(path, opts.Format)
	} else {
		doc, err = outline.ParseFile(path)
	}
	if err != nil {
		return err
	}

	// The viewer owns the terminal; logs go to a file or nowhere.
	logger := log.NewWithOptions(io.Discard, log.Options{})
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logger = newLogger(f, c.Logger.GetLevel())
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lp := loop.NewEventLoop()
	go lp.Run(ctx)
	defer lp.Close()

	canvas := term.NewCanvas(80, 23)
	var m *nodemap.Map
	callErr := lp.Call(ctx, func() {
		m, err = nodemap.New(lp, canvas,
			nodemap.WithViewport(canvas.Size()),
			nodemap.WithThreshold(opts.Threshold),
			nodemap.WithMovementTimeout(opts.Timeout),
			nodemap.WithTickInterval(opts.Tick),
			nodemap.WithLogger(logger),
			nodemap.WithContext(ctx),
		)
		if err == nil {
			err = outline.Ingest(m, doc)
		}
	})
	if callErr != nil {
		return callErr
	}
	if err != nil {
		return err
	}

	p := tea.NewProgram(newPlayModel(ctx, lp, m, canvas, filepath.Base(path)), tea.WithAltScreen(), tea.WithContext(ctx))

	if watch {
		w, err := watcher.New(path,
			watcher.WithLogger(logger),
			watcher.WithOnChange(func(doc *outline.Document) {
				lp.Post(func() {
					res, err := outline.Extend(m, doc)
					p.Send(extendedMsg{res: res, err: err})
				})
			}),
			watcher.WithOnError(func(err error) { p.Send(noticeMsg{err: err}) }),
		)
		if err != nil {
			return err
		}
		go func() {
			if err := w.Run(ctx); err != nil && ctx.Err() == nil {
				p.Send(noticeMsg{err: err})
			}
		}()
	}

	_, err = p.Run()
	return err
}

// =============================================================================
// Viewer Model
// =============================================================================

type frameMsg time.Time

// extendedMsg reports an outline extension applied on the map's loop.
type extendedMsg struct {
	res outline.ExtendResult
	err error
}

type noticeMsg struct{ err error }

type playStatus struct {
	nodes    int
	moving   bool
	settled  bool
	timedOut bool
}

// playModel is the bubbletea model of the viewer. The map is only touched
// on its event loop; the canvas is safe to read from here.
type playModel struct {
	ctx    context.Context
	loop   *loop.EventLoop
	m      *nodemap.Map
	canvas *term.Canvas
	title  string

	labels   []string
	selected int
	dragging bool
	dragPos  r2.Vec
	status   playStatus
	notice   string
}

func newPlayModel(ctx context.Context, lp *loop.EventLoop, m *nodemap.Map, canvas *term.Canvas, title string) playModel {
	pm := playModel{ctx: ctx, loop: lp, m: m, canvas: canvas, title: title}
	pm.sync()
	return pm
}

func frameTick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return frameMsg(t) })
}

func (pm playModel) Init() tea.Cmd {
	return frameTick()
}

func (pm playModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w, h := pm.canvas.SetTerminalSize(msg.Width, msg.Height-1)
		pm.call(func() { pm.m.Resize(w, h) })
		return pm, nil

	case frameMsg:
		pm.sync()
		return pm, frameTick()

	case extendedMsg:
		switch {
		case msg.err != nil:
			pm.notice = msg.err.Error()
		case msg.res.Changed():
			pm.notice = fmt.Sprintf("added %d nodes", msg.res.Added)
		}
		pm.sync()
		return pm, nil

	case noticeMsg:
		pm.notice = msg.err.Error()
		return pm, nil

	case tea.KeyMsg:
		return pm.handleKey(msg)
	}
	return pm, nil
}

func (pm playModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return pm, tea.Quit
	case "tab":
		pm = pm.drop()
		pm.selected = (pm.selected + 1) % max(len(pm.labels), 1)
	case "shift+tab":
		pm = pm.drop()
		n := max(len(pm.labels), 1)
		pm.selected = (pm.selected + n - 1) % n
	case "up", "k":
		pm = pm.drag(0, -1)
	case "down", "j":
		pm = pm.drag(0, 1)
	case "left", "h":
		pm = pm.drag(-1, 0)
	case "right", "l":
		pm = pm.drag(1, 0)
	case " ":
		pm = pm.drop()
	}
	return pm, nil
}

// drag moves the selected node by whole cells.
func (pm playModel) drag(dcol, drow int) playModel {
	if !pm.dragging {
		pm.call(func() {
			if n := pm.m.Node(pm.selected); n != nil {
				pm.dragPos = n.Position()
			}
		})
		pm.dragging = true
	}
	col, row := pm.canvas.Cell(pm.dragPos)
	pm.dragPos = pm.canvas.Point(col+dcol, row+drow)

	var err error
	pm.call(func() {
		if n := pm.m.Node(pm.selected); n != nil {
			err = pm.m.Drag(n, pm.dragPos)
		}
	})
	if err != nil {
		pm.notice = err.Error()
	}
	return pm
}

func (pm playModel) drop() playModel {
	if !pm.dragging {
		return pm
	}
	pm.dragging = false
	pm.call(func() {
		if n := pm.m.Node(pm.selected); n != nil {
			pm.m.Drop(n)
		}
	})
	return pm
}

// sync copies the map state the view needs.
func (pm *playModel) sync() {
	var (
		st     playStatus
		labels []string
	)
	pm.call(func() {
		st = playStatus{
			nodes:    pm.m.Len(),
			moving:   !pm.m.Idle(),
			settled:  pm.m.Settled(),
			timedOut: pm.m.TimedOut(),
		}
		if pm.m.Len() != len(pm.labels) {
			for _, n := range pm.m.Nodes() {
				labels = append(labels, n.Label())
			}
		}
	})
	pm.status = st
	if labels != nil {
		pm.labels = labels
	}
}

// call runs fn on the map's loop and waits for it.
func (pm playModel) call(fn func()) {
	ctx, cancel := context.WithTimeout(pm.ctx, time.Second)
	defer cancel()
	pm.loop.Call(ctx, fn)
}

func (pm playModel) View() string {
	var sb strings.Builder
	sb.WriteString(pm.canvas.Render(pm.labels, pm.selected))
	sb.WriteByte('\n')
	sb.WriteString(pm.statusLine())
	return sb.String()
}

func (pm playModel) statusLine() string {
	state := "settled"
	switch {
	case pm.dragging:
		state = "dragging"
	case pm.status.moving:
		state = "moving"
	case pm.status.timedOut || !pm.status.settled:
		state = "stopped"
	}

	parts := []string{
		StyleTitle.Render(pm.title),
		StyleNumber.Render(fmt.Sprintf("%d", pm.status.nodes)) + StyleDim.Render(" nodes"),
		StyleHighlight.Render(state),
	}
	if pm.selected < len(pm.labels) {
		parts = append(parts, StyleValue.Render(pm.labels[pm.selected]))
	}
	if pm.notice != "" {
		parts = append(parts, StyleWarning.Render(pm.notice))
	}
	parts = append(parts, StyleDim.Render("tab select · arrows drag · space drop · q quit"))
	return strings.Join(parts, StyleDim.Render(" · "))
}
