package nodemap

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nodemap/pkg/observability"
)

// Defaults for map options.
const (
	DefaultThreshold       = 0.05
	DefaultMovementTimeout = 4 * time.Second
	DefaultTickInterval    = 10 * time.Millisecond
)

const (
	// stepScale converts a raw force into the stored force vector and the
	// stored vector into a position step.
	stepScale = 10.0

	// centerAmplification is the pull of the selected node toward the
	// viewport center.
	centerAmplification = 10.0
)

// Option configures a Map.
type Option func(*settings)

type settings struct {
	threshold float64
	width     float64
	height    float64
	timeout   time.Duration
	tick      time.Duration
	logger    *log.Logger
	hooks     observability.SimulationHooks
	ctx       context.Context
}

func defaultSettings() settings {
	return settings{
		threshold: DefaultThreshold,
		timeout:   DefaultMovementTimeout,
		tick:      DefaultTickInterval,
		logger:    log.NewWithOptions(io.Discard, log.Options{}),
		ctx:       context.Background(),
	}
}

// WithThreshold sets the minimum force component that still moves a node.
func WithThreshold(v float64) Option {
	return func(s *settings) { s.threshold = v }
}

// WithViewport sets the initial viewport size. Without it the map uses the
// surface's reported size.
func WithViewport(w, h float64) Option {
	return func(s *settings) { s.width, s.height = w, h }
}

// WithMovementTimeout sets how long a relaxation loop may run before the
// tree is forced to rest.
func WithMovementTimeout(d time.Duration) Option {
	return func(s *settings) { s.timeout = d }
}

// WithTickInterval sets the delay between relaxation ticks.
func WithTickInterval(d time.Duration) Option {
	return func(s *settings) { s.tick = d }
}

// WithLogger sets the logger. Maps log nothing by default.
func WithLogger(l *log.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithHooks sets the simulation hooks. Without it the globally registered
// hooks are used.
func WithHooks(h observability.SimulationHooks) Option {
	return func(s *settings) { s.hooks = h }
}

// WithContext sets the context passed to hooks.
func WithContext(ctx context.Context) Option {
	return func(s *settings) {
		if ctx != nil {
			s.ctx = ctx
		}
	}
}
