// Package pipeline implements run_collection (spec.md §4.1's per-IP
// orchestration): serialised per-alias fetches, sample upserts, one
// run-log row per alias attempt, source-health refresh, and finally the
// trend aggregator — invoked only after every alias of the run has
// completed, per spec.md §5's ordering guarantee.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/MaxShih147/brew-signal/internal/aggregate"
	"github.com/MaxShih147/brew-signal/internal/breaker"
	"github.com/MaxShih147/brew-signal/internal/collector"
	"github.com/MaxShih147/brew-signal/internal/domain"
	"github.com/MaxShih147/brew-signal/internal/health"
	"github.com/MaxShih147/brew-signal/internal/logging"
	"github.com/MaxShih147/brew-signal/internal/ratelimit"
	"github.com/MaxShih147/brew-signal/internal/retry"
	"github.com/MaxShih147/brew-signal/internal/store"
)

// Outcome is run_collection's final classification (spec.md §4.1).
type Outcome string

const (
	OutcomeSuccess        Outcome = "success"
	OutcomeSuccessPartial Outcome = "success-partial"
	OutcomeFail           Outcome = "fail"
)

// AliasOutcome is one alias's fetch result within a run.
type AliasOutcome struct {
	AliasID uuid.UUID
	Success bool
	Points  int
	Error   string
}

// RunSummary is RunCollection's return value.
type RunSummary struct {
	IPID      uuid.UUID
	Geo       string
	Timeframe string
	SourceKey string
	Outcome   Outcome
	Aliases   []AliasOutcome
	Composite []domain.CompositeDaily
}

// Runner wires collectors, pacing, circuit-breaking, retry and storage
// together for run_collection. One Runner serves all (ip, geo, tf) runs
// in the process; per-source rate limiters and breakers are the module-
// level singletons spec.md §5 requires.
type Runner struct {
	Collectors map[string]collector.Collector
	RateLimits *ratelimit.Manager
	Breakers   *breaker.Manager
	Retry      retry.Policy
	Store      store.Store
	Thresholds aggregate.Thresholds
	Freshness  map[string]Freshness
	Logger     zerolog.Logger
}

// Freshness configures a source's health-status thresholds (spec.md
// §4.7).
type Freshness struct {
	FreshHours int
	WarnHours  int
}

// RunCollection serialises the alias fetches for one (ip, geo, tf) run
// against sourceKey, upserts samples, logs one SourceRun row per alias
// attempt, refreshes source health, and — only once every alias has
// completed — rebuilds the composite series.
func (r *Runner) RunCollection(ctx context.Context, ipID uuid.UUID, geo, timeframe, sourceKey string) (RunSummary, error) {
	coll, ok := r.Collectors[sourceKey]
	if !ok {
		return RunSummary{}, fmt.Errorf("pipeline: no collector configured for source %q", sourceKey)
	}

	aliases, err := r.Store.Aliases.ListEnabledByIP(ctx, ipID)
	if err != nil {
		return RunSummary{}, fmt.Errorf("list enabled aliases: %w", err)
	}

	gate := r.RateLimits
	brk := r.Breakers.For(sourceKey)

	runLog := logging.ForRun(ipID.String(), geo, timeframe)
	summary := RunSummary{IPID: ipID, Geo: geo, Timeframe: timeframe, SourceKey: sourceKey}
	succeeded := 0

	for _, alias := range aliases {
		log := logging.ForSource(sourceKey).With().Str("alias", alias.Text).Logger()
		runLog.Debug().Str("alias", alias.Text).Msg("starting alias fetch")
		res, fetchErr := r.fetchOne(ctx, gate, brk, coll, collector.Request{Keyword: alias.Text, Geo: geo, Timeframe: timeframe})

		outcome := AliasOutcome{AliasID: alias.ID}
		run := domain.SourceRun{SourceKey: sourceKey, StartedAt: time.Now(), ItemsProcessed: 1}

		switch {
		case fetchErr != nil:
			outcome.Error = fetchErr.Error()
			run.ItemsFailed = 1
			run.Status = domain.StatusDown
			run.SampleError = fetchErr.Error()
			log.Warn().Err(fetchErr).Msg("alias fetch failed")
		case res.IsFailure():
			outcome.Error = string(res.Failure.Kind) + ": " + res.Failure.Message
			run.ItemsFailed = 1
			run.Status = domain.StatusWarn
			run.SampleError = res.Failure.Message
			log.Warn().Str("kind", string(res.Failure.Kind)).Msg("alias fetch returned failure")
		default:
			outcome.Success = true
			outcome.Points = len(res.Points)
			run.ItemsSucceeded = 1
			run.Status = domain.StatusOK
			succeeded++
			for _, p := range res.Points {
				sample := domain.Sample{
					IPID:      ipID,
					AliasID:   alias.ID,
					Geo:       geo,
					Timeframe: timeframe,
					Date:      p.Date,
					Value:     p.Value,
					Source:    sourceKey,
					FetchedAt: time.Now(),
				}
				if err := r.Store.Samples.Upsert(ctx, sample); err != nil {
					log.Error().Err(err).Msg("sample upsert failed")
				}
			}
		}

		finished := time.Now()
		run.FinishedAt = &finished
		if _, err := r.Store.SourceRuns.Create(ctx, run); err != nil {
			log.Error().Err(err).Msg("run-log write failed")
		}
		summary.Aliases = append(summary.Aliases, outcome)
	}

	r.refreshHealth(ctx, ipID, sourceKey, succeeded > 0)

	switch {
	case len(aliases) == 0 || succeeded == 0:
		summary.Outcome = OutcomeFail
	case succeeded == len(aliases):
		summary.Outcome = OutcomeSuccess
	default:
		summary.Outcome = OutcomeSuccessPartial
	}

	composite, err := r.rebuildComposite(ctx, ipID, geo, timeframe)
	if err != nil {
		return summary, fmt.Errorf("rebuild composite: %w", err)
	}
	summary.Composite = composite
	return summary, nil
}

func (r *Runner) fetchOne(ctx context.Context, gate *ratelimit.Manager, brk *breaker.Breaker, coll collector.Collector, req collector.Request) (collector.FetchResult, error) {
	return r.Retry.Do(ctx, func(attempt int) (collector.FetchResult, error) {
		if err := gate.Wait(ctx, coll.SourceKey()); err != nil {
			return collector.FetchResult{}, err
		}
		return brk.Execute(func() (collector.FetchResult, error) {
			return coll.Fetch(ctx, req)
		})
	})
}

// rebuildComposite re-derives the full CompositeDaily series for
// (ipID, geo, timeframe) from every enabled alias's current samples,
// invoked only after the alias loop above has fully drained.
func (r *Runner) rebuildComposite(ctx context.Context, ipID uuid.UUID, geo, timeframe string) ([]domain.CompositeDaily, error) {
	aliases, err := r.Store.Aliases.ListEnabledByIP(ctx, ipID)
	if err != nil {
		return nil, err
	}
	weights := aggregate.AliasWeight{}
	for _, a := range aliases {
		weights[a.ID.String()] = a.Weight
	}

	samples, err := r.Store.Samples.ListForComposite(ctx, ipID, geo, timeframe)
	if err != nil {
		return nil, err
	}
	inputs := make([]aggregate.SampleInput, 0, len(samples))
	for _, s := range samples {
		inputs = append(inputs, aggregate.SampleInput{AliasID: s.AliasID.String(), Date: s.Date, Value: s.Value})
	}

	rows := aggregate.Build(geo, timeframe, inputs, weights, r.Thresholds)
	for i := range rows {
		rows[i].IPID = ipID
	}
	if err := r.Store.Composites.ReplaceSeries(ctx, ipID, geo, timeframe, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Runner) refreshHealth(ctx context.Context, ipID uuid.UUID, sourceKey string, success bool) {
	prev, err := r.Store.SourceHealth.Get(ctx, ipID, sourceKey)
	if err != nil {
		r.Logger.Error().Err(err).Msg("source health lookup failed")
		return
	}
	var row domain.IPSourceHealth
	if prev != nil {
		row = *prev
	} else {
		row = domain.IPSourceHealth{IPID: ipID, SourceKey: sourceKey}
	}

	freshHours, warnHours := r.Freshness[sourceKey].FreshHours, r.Freshness[sourceKey].WarnHours
	if freshHours == 0 && warnHours == 0 {
		freshHours, warnHours = 24, 72
	}
	row = health.UpdateSourceHealth(row, time.Now(), success, row.LastError, 0, freshHours, warnHours)

	if err := r.Store.SourceHealth.Upsert(ctx, row); err != nil {
		r.Logger.Error().Err(err).Msg("source health upsert failed")
	}
}
