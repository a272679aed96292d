// Package observability lets a binary observe nodemap without the libraries
// depending on a metrics or tracing backend.
//
// Four hook interfaces cover the relaxation loops of a map, the headless
// pipeline, the layout cache and the live server. Each starts out as a
// no-op; main registers real implementations before doing any work:
//
//	observability.SetSimulationHooks(promHooks)
//
// and the libraries emit through the registered value:
//
//	observability.Simulation().OnSettled(ctx, nodeID, ticks, elapsed, forced)
//
// A map captures its simulation hooks when it is created, so hooks
// registered later only affect maps created later. nodemap.WithHooks
// overrides the registry for a single map.
package observability

import (
	"context"
	"sync"
	"time"
)

// SimulationHooks observes the relaxation loops of a map. Node IDs are the
// insertion order of nodes in their map.
type SimulationHooks interface {
	OnAnimate(ctx context.Context, nodeID int)
	// OnSettled fires once per loop. forced is set when the movement
	// timeout ended the loop before equilibrium.
	OnSettled(ctx context.Context, nodeID int, ticks int, duration time.Duration, forced bool)
	OnTimeout(ctx context.Context, nodeID int)
	// OnGrow reports the container size after it grew to fit the nodes.
	OnGrow(ctx context.Context, width, height float64)
}

// PipelineHooks brackets the parse, settle and render stages. Complete
// events carry the stage error, if any.
type PipelineHooks interface {
	OnParseStart(ctx context.Context, format, source string)
	OnParseComplete(ctx context.Context, format, source string, nodeCount int, duration time.Duration, err error)
	OnSettleStart(ctx context.Context, nodeCount int)
	OnSettleComplete(ctx context.Context, settled bool, duration time.Duration, err error)
	OnRenderStart(ctx context.Context, formats []string)
	OnRenderComplete(ctx context.Context, formats []string, duration time.Duration, err error)
}

// CacheHooks observes pipeline cache lookups. keyType is "layout" or
// "artifact".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// ServerHooks observes the live server.
type ServerHooks interface {
	OnRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration)
	OnSessionOpen(ctx context.Context, sessionID string, nodeCount int)
	// OnSessionClose fires on deletion, idle expiry and shutdown.
	OnSessionClose(ctx context.Context, sessionID string, lifetime time.Duration)
}

// =============================================================================
// No-op hooks
// =============================================================================

type (
	NoopSimulationHooks struct{}
	NoopPipelineHooks   struct{}
	NoopCacheHooks      struct{}
	NoopServerHooks     struct{}
)

func (NoopSimulationHooks) OnAnimate(context.Context, int)                           {}
func (NoopSimulationHooks) OnSettled(context.Context, int, int, time.Duration, bool) {}
func (NoopSimulationHooks) OnTimeout(context.Context, int)                           {}
func (NoopSimulationHooks) OnGrow(context.Context, float64, float64)                 {}

func (NoopPipelineHooks) OnParseStart(context.Context, string, string) {}
func (NoopPipelineHooks) OnParseComplete(context.Context, string, string, int, time.Duration, error) {
}
func (NoopPipelineHooks) OnSettleStart(context.Context, int)                               {}
func (NoopPipelineHooks) OnSettleComplete(context.Context, bool, time.Duration, error)     {}
func (NoopPipelineHooks) OnRenderStart(context.Context, []string)                          {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, []string, time.Duration, error) {}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

func (NoopServerHooks) OnRequest(context.Context, string, string, int, time.Duration) {}
func (NoopServerHooks) OnSessionOpen(context.Context, string, int)                    {}
func (NoopServerHooks) OnSessionClose(context.Context, string, time.Duration)         {}

// =============================================================================
// Registry
// =============================================================================

// slot holds the registered implementation of one hook interface.
type slot[T any] struct {
	mu   sync.RWMutex
	cur  T
	noop T
}

func newSlot[T any](noop T) *slot[T] {
	return &slot[T]{cur: noop, noop: noop}
}

func (s *slot[T]) get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// set ignores a nil interface value, keeping the current hooks.
func (s *slot[T]) set(h T) {
	if any(h) == nil {
		return
	}
	s.mu.Lock()
	s.cur = h
	s.mu.Unlock()
}

func (s *slot[T]) reset() {
	s.mu.Lock()
	s.cur = s.noop
	s.mu.Unlock()
}

var (
	simulationSlot = newSlot[SimulationHooks](NoopSimulationHooks{})
	pipelineSlot   = newSlot[PipelineHooks](NoopPipelineHooks{})
	cacheSlot      = newSlot[CacheHooks](NoopCacheHooks{})
	serverSlot     = newSlot[ServerHooks](NoopServerHooks{})
)

// SetSimulationHooks registers the hooks of maps created from now on.
func SetSimulationHooks(h SimulationHooks) { simulationSlot.set(h) }

func SetPipelineHooks(h PipelineHooks) { pipelineSlot.set(h) }

func SetCacheHooks(h CacheHooks) { cacheSlot.set(h) }

func SetServerHooks(h ServerHooks) { serverSlot.set(h) }

func Simulation() SimulationHooks { return simulationSlot.get() }

func Pipeline() PipelineHooks { return pipelineSlot.get() }

func Cache() CacheHooks { return cacheSlot.get() }

func Server() ServerHooks { return serverSlot.get() }

// Reset restores the no-op hooks. Tests that register hooks defer it.
func Reset() {
	simulationSlot.reset()
	pipelineSlot.reset()
	cacheSlot.reset()
	serverSlot.reset()
}
