// Package ratelimit implements the per-source minimum-interval pacing
// gate described in spec.md §4.1: any call on a gate blocks until at
// least Δ has elapsed since the previous call admitted on that same
// gate. Gates are keyed by source and are process-wide singletons,
// mirroring the per-host limiter map in the upstream scanner's
// internal/net/ratelimit package, which backs each per-host limiter with
// golang.org/x/time/rate rather than hand timing elapsed calls.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Gate enforces a minimum separation between admitted calls for a single
// source key, expressed as a single-token rate.Limiter: rate.Every(Δ)
// refills exactly one token every Δ, so Wait admits one call per
// interval and blocks (rather than drops) every call in between.
type Gate struct {
	limiter *rate.Limiter
}

// NewGate creates a gate with minimum separation interval.
func NewGate(interval time.Duration) *Gate {
	if interval <= 0 {
		return &Gate{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Gate{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait blocks until the gate's limiter admits a token, or ctx is done.
func (g *Gate) Wait(ctx context.Context) error {
	return g.limiter.Wait(ctx)
}

// Manager holds one Gate per source key, created lazily and reused for
// the lifetime of the process — the only module-level pacing state, per
// spec.md §5.
type Manager struct {
	mu    sync.Mutex
	gates map[string]*Gate
}

// NewManager creates an empty gate manager.
func NewManager() *Manager {
	return &Manager{gates: make(map[string]*Gate)}
}

// Configure sets (or replaces) the interval for a source's gate. Safe to
// call concurrently with Wait; in-flight waiters on the old gate are
// unaffected, new callers see the new interval.
func (m *Manager) Configure(source string, interval time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gates[source] = NewGate(interval)
}

// Wait blocks on the named source's gate, lazily creating an
// always-admit gate if none was configured.
func (m *Manager) Wait(ctx context.Context, source string) error {
	m.mu.Lock()
	g, ok := m.gates[source]
	if !ok {
		g = NewGate(0)
		m.gates[source] = g
	}
	m.mu.Unlock()
	return g.Wait(ctx)
}
