package observability

import (
	"context"
	"testing"
	"time"
)

type countingSimulation struct {
	NoopSimulationHooks
	settled int
}

func (c *countingSimulation) OnSettled(context.Context, int, int, time.Duration, bool) { c.settled++ }

type countingCache struct {
	NoopCacheHooks
	hits map[string]int
}

func (c *countingCache) OnCacheHit(_ context.Context, keyType string) { c.hits[keyType]++ }

func TestRegistryDefaultsToNoop(t *testing.T) {
	Reset()
	ctx := context.Background()

	Simulation().OnSettled(ctx, 0, 42, time.Second, false)
	Pipeline().OnParseComplete(ctx, "markdown", "site.md", 12, time.Millisecond, nil)
	Cache().OnCacheSet(ctx, "artifact", 1024)
	Server().OnSessionClose(ctx, "abc", time.Minute)

	if _, ok := Simulation().(NoopSimulationHooks); !ok {
		t.Errorf("Simulation() = %T, want NoopSimulationHooks", Simulation())
	}
	if _, ok := Server().(NoopServerHooks); !ok {
		t.Errorf("Server() = %T, want NoopServerHooks", Server())
	}
}

func TestRegisteredHooksReceiveEvents(t *testing.T) {
	defer Reset()
	ctx := context.Background()

	sim := &countingSimulation{}
	cache := &countingCache{hits: map[string]int{}}
	SetSimulationHooks(sim)
	SetCacheHooks(cache)

	Simulation().OnSettled(ctx, 3, 80, time.Second, true)
	Cache().OnCacheHit(ctx, "layout")
	Cache().OnCacheHit(ctx, "layout")
	Cache().OnCacheMiss(ctx, "artifact")

	if sim.settled != 1 {
		t.Errorf("settled = %d, want 1", sim.settled)
	}
	if cache.hits["layout"] != 2 || cache.hits["artifact"] != 0 {
		t.Errorf("hits = %v", cache.hits)
	}

	Reset()
	Simulation().OnSettled(ctx, 3, 80, time.Second, true)
	if sim.settled != 1 {
		t.Error("hooks still receive events after Reset")
	}
}

func TestSetNilKeepsHooks(t *testing.T) {
	defer Reset()

	sim := &countingSimulation{}
	SetSimulationHooks(sim)
	SetSimulationHooks(nil)
	SetPipelineHooks(nil)

	if Simulation() != SimulationHooks(sim) {
		t.Error("SetSimulationHooks(nil) replaced the registered hooks")
	}
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Errorf("Pipeline() = %T after SetPipelineHooks(nil)", Pipeline())
	}
}
