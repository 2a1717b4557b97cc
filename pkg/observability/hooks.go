// Package observability provides hooks for instrumenting trace and sweep
// runs.
//
// The core packages stay free of metrics backends: main registers hook
// implementations at startup, libraries emit events through the registry.
// The defaults are no-ops, so an uninstrumented binary pays only a map of
// empty method calls.
//
// Register hooks before any trace work starts:
//
//	observability.SetTraceHooks(&myTraceHooks{})
//
// Libraries emit events:
//
//	observability.Trace().OnTreePass(ctx, "verbose", nodeCount, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// TraceHooks receives events from the trace pipeline.
type TraceHooks interface {
	// OnTreePass records one dependency-tree pass. Mode is "verbose" or
	// "plain"; nodes is the parsed node count.
	OnTreePass(ctx context.Context, mode string, nodes int, err error)

	// OnPOMPass records an effective-POM or pom.xml harvesting pass.
	OnPOMPass(ctx context.Context, pass string, records int, err error)

	// OnCopyBatch records a completed mirror batch.
	OnCopyBatch(ctx context.Context, copied, skipped, failed int, duration time.Duration)
}

// CacheHooks receives events from invocation-output caching.
type CacheHooks interface {
	OnHit(ctx context.Context, goal string)
	OnMiss(ctx context.Context, goal string)
}

// SweepHooks receives events from repository sweeps.
type SweepHooks interface {
	OnSweep(ctx context.Context, files, dirs int, bytesFreed int64, duration time.Duration)
}

// NoopTraceHooks is the default TraceHooks.
type NoopTraceHooks struct{}

func (NoopTraceHooks) OnTreePass(context.Context, string, int, error)           {}
func (NoopTraceHooks) OnPOMPass(context.Context, string, int, error)            {}
func (NoopTraceHooks) OnCopyBatch(context.Context, int, int, int, time.Duration) {}

// NoopCacheHooks is the default CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnHit(context.Context, string)  {}
func (NoopCacheHooks) OnMiss(context.Context, string) {}

// NoopSweepHooks is the default SweepHooks.
type NoopSweepHooks struct{}

func (NoopSweepHooks) OnSweep(context.Context, int, int, int64, time.Duration) {}

var (
	traceHooks TraceHooks = NoopTraceHooks{}
	cacheHooks CacheHooks = NoopCacheHooks{}
	sweepHooks SweepHooks = NoopSweepHooks{}
	hooksMu    sync.RWMutex
)

// SetTraceHooks registers custom trace hooks. Call once at startup.
func SetTraceHooks(h TraceHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		traceHooks = h
	}
}

// SetCacheHooks registers custom cache hooks. Call once at startup.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetSweepHooks registers custom sweep hooks. Call once at startup.
func SetSweepHooks(h SweepHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		sweepHooks = h
	}
}

// Trace returns the registered trace hooks.
func Trace() TraceHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return traceHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Sweep returns the registered sweep hooks.
func Sweep() SweepHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return sweepHooks
}

// Reset restores the no-op defaults. Primarily useful in tests.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	traceHooks = NoopTraceHooks{}
	cacheHooks = NoopCacheHooks{}
	sweepHooks = NoopSweepHooks{}
}
