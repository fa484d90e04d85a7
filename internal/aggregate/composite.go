// Package aggregate implements the trend aggregation engine of
// spec.md §4.2: it folds per-alias Samples into a weighted daily
// composite series and derives moving averages, week-over-week growth,
// acceleration, breakout percentile and a traffic-light signal. The
// computation is pure and deterministic, so a caller can re-run it
// idempotently whenever alias weights, enablement, or sample values
// change, per §4.2's closing invariant.
package aggregate

import (
	"sort"
	"time"

	"github.com/MaxShih147/brew-signal/internal/domain"
)

// AliasWeight carries the enabled alias weights a date's samples are
// folded against. Disabled aliases must simply be absent from this map;
// the aggregator never looks at Alias.Enabled itself.
type AliasWeight map[string]float64 // alias id (string form) -> weight

// SampleInput is the subset of a Sample the aggregator needs.
type SampleInput struct {
	AliasID string
	Date    time.Time
	Value   int
}

// Thresholds configures the signal-light boundary (spec.md §4.2).
type Thresholds struct {
	TWow   float64 // default 0.30
	PBreak float64 // default 85
}

// breakoutWindowDays is the trailing window for the breakout-percentile
// distribution (spec.md §4.2).
const breakoutWindowDays = 180

// Build computes the full CompositeDaily series for one (ip, geo,
// timeframe) from its enabled aliases' samples. Samples belonging to
// aliases not present in weights are ignored even if the rows still
// exist in storage — the caller is responsible for passing only enabled
// aliases' samples, satisfying the "disabled aliases are excluded even
// if their rows still exist" invariant. If the input is empty, Build
// returns an empty slice; the caller deletes any existing CompositeDaily
// rows for that (ip, geo, tf) when this happens (spec.md §4.2).
func Build(geo, timeframe string, samples []SampleInput, weights AliasWeight, th Thresholds) []domain.CompositeDaily {
	byDate := map[time.Time]map[string]int{}
	for _, s := range samples {
		w, ok := weights[s.AliasID]
		if !ok || w == 0 {
			continue
		}
		d := s.Date.UTC().Truncate(24 * time.Hour)
		if byDate[d] == nil {
			byDate[d] = map[string]int{}
		}
		byDate[d][s.AliasID] = s.Value
	}
	if len(byDate) == 0 {
		return nil
	}

	dates := make([]time.Time, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	composites := make([]float64, len(dates))
	for i, d := range dates {
		var numerator, denominator float64
		for aliasID, v := range byDate[d] {
			w := weights[aliasID]
			numerator += float64(v) * w
			denominator += w
		}
		if denominator == 0 {
			composites[i] = 0
		} else {
			composites[i] = numerator / denominator
		}
	}

	ma7s := make([]*float64, len(dates))
	for i := range dates {
		ma7s[i] = movingAverage(composites, i, 7)
	}

	out := make([]domain.CompositeDaily, len(dates))
	var prevWoW *float64

	for i, d := range dates {
		ma7 := ma7s[i]
		ma28 := movingAverage(composites, i, 28)
		wow := weekOverWeekGrowth(composites, i)
		accel := acceleration(wow, prevWoW)
		breakout := breakoutPercentile(ma7s, i, ma7)
		light := signalLight(wow, accel, breakout, ma7, ma28, th)

		out[i] = domain.CompositeDaily{
			Geo:                geo,
			Timeframe:          timeframe,
			Date:               d,
			CompositeValue:     composites[i],
			MA7:                ma7,
			MA28:               ma28,
			WoWGrowth:          wow,
			Acceleration:       &accel,
			BreakoutPercentile: breakout,
			SignalLight:        &light,
		}
		prevWoW = wow
	}
	return out
}

// movingAverage returns the mean of the trailing window values ending at
// index i (inclusive), or nil if fewer than window values precede it.
func movingAverage(series []float64, i, window int) *float64 {
	if i+1 < window {
		return nil
	}
	sum := 0.0
	for j := i - window + 1; j <= i; j++ {
		sum += series[j]
	}
	v := sum / float64(window)
	return &v
}

// weekOverWeekGrowth compares the mean of the trailing 7 values to the
// mean of the preceding 7 (spec.md §4.2). Requires at least 14 values;
// returns 0 (not nil) when the prior week's mean is 0.
func weekOverWeekGrowth(series []float64, i int) *float64 {
	if i+1 < 14 {
		return nil
	}
	last7 := 0.0
	for j := i - 6; j <= i; j++ {
		last7 += series[j]
	}
	last7 /= 7

	prior7 := 0.0
	for j := i - 13; j <= i-7; j++ {
		prior7 += series[j]
	}
	prior7 /= 7

	if prior7 == 0 {
		zero := 0.0
		return &zero
	}
	v := last7/prior7 - 1
	return &v
}

// acceleration is true iff wow is positive, the immediately preceding
// step's wow_growth was also positive, and wow strictly exceeds it
// (spec.md §4.2).
func acceleration(wow, prevWoW *float64) bool {
	if wow == nil || prevWoW == nil {
		return false
	}
	return *wow > 0 && *prevWoW > 0 && *wow > *prevWoW
}

// breakoutPercentile ranks ma7(d) within the distribution of the ma7
// series itself over the trailing window of up to 180 days ending at i
// (days with no defined ma7 are excluded from the distribution), using
// a "<=" ranking convention: percentile = (count of window values
// <= ma7(d)) / N * 100. Requires at least 7 defined observations in the
// window and a defined ma7(d).
func breakoutPercentile(ma7s []*float64, i int, ma7 *float64) *float64 {
	if ma7 == nil {
		return nil
	}
	start := i - breakoutWindowDays + 1
	if start < 0 {
		start = 0
	}
	rank, n := 0, 0
	for j := start; j <= i; j++ {
		if ma7s[j] == nil {
			continue
		}
		n++
		if *ma7s[j] <= *ma7 {
			rank++
		}
	}
	if n < 7 {
		return nil
	}
	pct := float64(rank) / float64(n) * 100
	return &pct
}

// signalLight derives the traffic-light state (spec.md §4.2).
func signalLight(wow *float64, accel bool, breakout, ma7, ma28 *float64, th Thresholds) domain.SignalLight {
	if wow != nil && *wow > th.TWow && accel && breakout != nil && *breakout >= th.PBreak {
		return domain.SignalGreen
	}
	if ma7 != nil && ma28 != nil && wow != nil && *ma7 < *ma28 && *wow < 0 {
		return domain.SignalRed
	}
	return domain.SignalYellow
}
