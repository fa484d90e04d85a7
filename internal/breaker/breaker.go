// Package breaker implements the per-source circuit breaker of
// spec.md §4.1 on top of sony/gobreaker, the circuit-breaker library the
// upstream scanner's infra/breakers package wraps. gobreaker's
// closed/open/half-open state machine already matches the spec exactly
// when configured with consecutive-failure tripping, a single half-open
// probe (its default MaxRequests=1) and Timeout=C: N consecutive
// failures opens the breaker for C seconds, after which the next call is
// admitted as a lone probe — success closes it and resets the counter,
// failure reopens it for another C seconds.
package breaker

import (
	"errors"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker"

	"github.com/MaxShih147/brew-signal/internal/collector"
)

// Breaker is a named, process-wide circuit breaker for one source.
type Breaker struct {
	name string
	cb   *gobreaker.CircuitBreaker
}

// New constructs a breaker that opens after threshold consecutive
// failures and stays open for cooldown.
func New(name string, threshold int, cooldown time.Duration) *Breaker {
	st := gobreaker.Settings{
		Name:    name,
		Timeout: cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return int(counts.ConsecutiveFailures) >= threshold
		},
	}
	return &Breaker{name: name, cb: gobreaker.NewCircuitBreaker(st)}
}

// IsOpen reports whether the breaker is currently open (short-circuiting
// calls). A half-open breaker is not considered open: its single probe
// is admitted.
func (b *Breaker) IsOpen() bool {
	return b.cb.State() == gobreaker.StateOpen
}

// Execute runs fn through the breaker. If the breaker is open, fn is
// never called and Execute returns a FetchResult carrying a rate_limit
// Failure, per spec.md §4.1 ("calls short-circuit with rate_limit
// error"). A structured Failure returned by fn (HTTP-level error, empty
// result, etc.) counts as a breaker failure even when fn's own error
// return is nil, so the breaker's consecutive-failure count reflects
// collector outcomes, not just Go-level panics/errors.
func (b *Breaker) Execute(fn func() (collector.FetchResult, error)) (collector.FetchResult, error) {
	raw, err := b.cb.Execute(func() (interface{}, error) {
		r, fnErr := fn()
		if fnErr != nil {
			return r, fnErr
		}
		if r.IsFailure() {
			return r, errors.New(string(r.Failure.Kind))
		}
		return r, nil
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return collector.FetchResult{
				Failure: &collector.Failure{Kind: collector.ErrRateLimit, Message: "circuit open"},
			}, nil
		}
		if fr, ok := raw.(collector.FetchResult); ok {
			// fn returned a non-nil Go error alongside a FetchResult;
			// surface the FetchResult (already marked as a Failure in
			// nearly every call site) rather than swallowing detail.
			return fr, err
		}
		return collector.FetchResult{}, err
	}
	return raw.(collector.FetchResult), nil
}

// Name returns the breaker's source key.
func (b *Breaker) Name() string { return b.name }

// Manager holds one Breaker per source, created lazily and reused for
// the lifetime of the process — the only module-level breaker state, per
// spec.md §5.
type Manager struct {
	mu        sync.Mutex
	threshold int
	cooldown  time.Duration
	breakers  map[string]*Breaker
}

// NewManager creates a breaker manager whose threshold and cooldown are
// shared by every source's breaker.
func NewManager(threshold int, cooldown time.Duration) *Manager {
	return &Manager{threshold: threshold, cooldown: cooldown, breakers: make(map[string]*Breaker)}
}

// For returns the named source's breaker, creating it with the
// manager's default threshold/cooldown on first use.
func (m *Manager) For(source string) *Breaker {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.breakers[source]; ok {
		return b
	}
	b := New(source, m.threshold, m.cooldown)
	m.breakers[source] = b
	return b
}
