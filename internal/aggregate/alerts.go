package aggregate

import (
	"fmt"
	"math"
	"time"

	"github.com/MaxShih147/brew-signal/internal/domain"
)

// spikeWindowDays is the trailing window the spike alert's mean/stdev is
// computed over (spec.md §4.2 / original signal service).
const spikeWindowDays = 30

// Alert is one signal-derived notice surfaced alongside a CompositeDaily
// row: a breakout into a high percentile, a peak-turn reversal, or a
// statistical spike in the raw composite value.
type Alert struct {
	Type      string
	Message   string
	AlertDate time.Time
}

// Alerts derives breakout/peak-turn/spike alerts from an ascending-by-
// date CompositeDaily series, evaluated against its last row. series is
// expected to cover a trailing window (the HTTP layer passes the last 90
// days); the three checks each degrade gracefully when that window is
// too short for them.
func Alerts(series []domain.CompositeDaily, th Thresholds) []Alert {
	if len(series) == 0 {
		return nil
	}
	latest := series[len(series)-1]
	var alerts []Alert

	if latest.BreakoutPercentile != nil && *latest.BreakoutPercentile >= th.PBreak {
		alerts = append(alerts, Alert{
			Type:      "breakout",
			Message:   fmt.Sprintf("Breakout detected: 7d avg at P%.0f of 6-month range", *latest.BreakoutPercentile),
			AlertDate: latest.Date,
		})
	}

	if len(series) >= 2 {
		prev := series[len(series)-2]
		if prev.MA7 != nil && prev.MA28 != nil && latest.MA7 != nil && latest.MA28 != nil &&
			*prev.MA7 >= *prev.MA28 && *latest.MA7 < *latest.MA28 {
			alerts = append(alerts, Alert{
				Type:      "peak_turn",
				Message:   "Peak turn: MA7 crossed below MA28 — trend may be declining",
				AlertDate: latest.Date,
			})
		}
	}

	if len(series) >= spikeWindowDays {
		window := series[len(series)-spikeWindowDays:]
		vals := make([]float64, len(window))
		for i, row := range window {
			vals[i] = row.CompositeValue
		}
		mean, stdev := meanStdev(vals)
		if stdev > 0 && latest.CompositeValue > mean+2*stdev {
			alerts = append(alerts, Alert{
				Type:      "spike",
				Message:   fmt.Sprintf("Spike: current value %.0f exceeds mean+2σ (%.0f)", latest.CompositeValue, mean+2*stdev),
				AlertDate: latest.Date,
			})
		}
	}

	return alerts
}

// meanStdev returns the sample mean and sample standard deviation
// (n-1 denominator, matching Python's statistics.stdev) of vals.
func meanStdev(vals []float64) (float64, float64) {
	n := len(vals)
	if n == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	mean := sum / float64(n)
	if n < 2 {
		return mean, 0
	}
	var sqDiff float64
	for _, v := range vals {
		d := v - mean
		sqDiff += d * d
	}
	return mean, math.Sqrt(sqDiff / float64(n-1))
}
