// Package collector defines the polymorphic collector capability of
// spec.md §4.1: fetch(keyword, geo, timeframe) -> FetchResult. Concrete
// collectors (search-trends, video-statistics, catalogue metadata, and
// the e-commerce supply-count surfaces) implement Collector; the
// retry/backoff/circuit-breaker decorators in internal/retry and
// internal/breaker wrap a Collector without needing to know its
// concrete type, the same decorator-not-inheritance shape spec.md §9
// calls for.
package collector

import (
	"context"
	"errors"
	"time"
)

// ErrorKind classifies a collector failure. auth is terminal for the
// current attempt; every other kind is retryable subject to the retry
// policy (spec.md §7).
type ErrorKind string

const (
	ErrAuth      ErrorKind = "auth"
	ErrRateLimit ErrorKind = "rate_limit"
	ErrTimeout   ErrorKind = "timeout"
	ErrEmpty     ErrorKind = "empty"
	ErrNetwork   ErrorKind = "network"
	ErrUnknown   ErrorKind = "unknown"
)

// Retryable reports whether a failure of this kind should be retried.
func (k ErrorKind) Retryable() bool {
	return k != ErrAuth
}

// ErrShortCircuited names the open-breaker condition. breaker.Execute
// does not return it: an open breaker yields a FetchResult whose
// Failure has Kind ErrRateLimit and a nil error.
var ErrShortCircuited = errors.New("collector: circuit open, short-circuited")

// DataPoint is one (date, value) sample returned by a successful fetch.
type DataPoint struct {
	Date  time.Time
	Value int // in [0,100]
}

// Failure describes a non-fatal collector error, recorded on the run log
// rather than raised out of the pipeline (spec.md §7).
type Failure struct {
	Kind    ErrorKind
	Message string
	HTTPCode int // 0 if not an HTTP-transport failure
}

// FetchResult is the outcome of one keyword-fetch: either a non-empty
// set of DataPoints, or a Failure. Exactly one of Points/Failure is
// meaningful; IsFailure distinguishes them.
type FetchResult struct {
	Points   []DataPoint
	HTTPCode int
	Failure  *Failure
}

// IsFailure reports whether this result represents a failed fetch.
func (r FetchResult) IsFailure() bool { return r.Failure != nil }

// Request is the input to a single Collector.Fetch call.
type Request struct {
	Keyword   string
	Geo       string
	Timeframe string
}

// Collector is the capability every data source implements.
type Collector interface {
	// SourceKey names the source this collector reads from, matching a
	// SourceRegistry row.
	SourceKey() string
	Fetch(ctx context.Context, req Request) (FetchResult, error)
}
