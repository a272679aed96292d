package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/nodemap/pkg/errors"
	"github.com/matzehuels/nodemap/pkg/graph"
	"github.com/matzehuels/nodemap/pkg/loop"
	"github.com/matzehuels/nodemap/pkg/nodemap"
	"github.com/matzehuels/nodemap/pkg/observability"
	"github.com/matzehuels/nodemap/pkg/outline"
	"github.com/matzehuels/nodemap/pkg/render"
)

// clockStart is the virtual time a headless map starts at. A fixed value
// keeps settled layouts reproducible.
var clockStart = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

const (
	// settleStep is how much virtual time runs between context checks.
	settleStep = 250 * time.Millisecond

	// settleBudget bounds the virtual time spent settling, in movement
	// timeouts. The timeout normally ends every loop well before it.
	settleBudget = 16
)

// Settle attaches doc to a fresh map and runs its relaxation loop on a
// virtual clock until nothing is pending. It returns the final snapshot and
// the virtual time the map took.
func Settle(ctx context.Context, doc *outline.Document, opts Options) (graph.Layout, time.Duration, error) {
	if err := opts.ValidateForSettle(); err != nil {
		return graph.Layout{}, 0, err
	}
	hooks := observability.Pipeline()
	hooks.OnSettleStart(ctx, doc.Len())
	start := time.Now()

	l, simulated, err := settle(ctx, doc, opts)

	hooks.OnSettleComplete(ctx, l.Settled, time.Since(start), err)
	return l, simulated, err
}

func settle(ctx context.Context, doc *outline.Document, opts Options) (graph.Layout, time.Duration, error) {
	clock := loop.NewManual(clockStart)
	surface := render.NewRecorder(opts.Width, opts.Height)

	m, err := nodemap.New(clock, surface,
		nodemap.WithViewport(opts.Width, opts.Height),
		nodemap.WithThreshold(opts.Threshold),
		nodemap.WithMovementTimeout(opts.Timeout),
		nodemap.WithTickInterval(opts.Tick),
		nodemap.WithLogger(opts.Logger),
		nodemap.WithContext(ctx),
	)
	if err != nil {
		return graph.Layout{}, 0, err
	}
	if err := outline.Ingest(m, doc); err != nil {
		return graph.Layout{}, 0, err
	}

	limit := settleBudget * opts.Timeout
	for {
		if err := ctx.Err(); err != nil {
			return graph.Layout{}, clock.Elapsed(), err
		}
		if _, idle := clock.RunUntilIdle(settleStep); idle {
			break
		}
		if clock.Elapsed() >= limit {
			return graph.Layout{}, clock.Elapsed(), errors.New(errors.ErrCodeTimeout,
				"map did not come to rest within %v of simulated time", limit)
		}
	}

	l := m.Snapshot()
	opts.Logger.Debug("settled map",
		"nodes", len(l.Nodes),
		"settled", l.Settled,
		"timed_out", l.TimedOut,
		"simulated", clock.Elapsed())
	return l, clock.Elapsed(), nil
}
