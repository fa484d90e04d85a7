// Package indicator computes the 13 scalar indicators of spec.md §4.3,
// grouped into dimensions {demand, diffusion, fit, supply, gatekeeper}.
// Three indicators are LIVE (derived from composites/events/samples),
// ten are MANUAL (human-supplied as ManualIndicatorInput rows).
// A failed LIVE computation degrades to MISSING with a neutral score of
// 50 rather than propagating an error, per spec.md §7.
package indicator

import (
	"math"
	"time"

	"github.com/MaxShih147/brew-signal/internal/domain"
)

// Status is an indicator's provenance.
type Status string

const (
	StatusLive    Status = "LIVE"
	StatusManual  Status = "MANUAL"
	StatusMissing Status = "MISSING"
)

// Dimension groups indicators for the opportunity scorer's per-dimension
// means.
type Dimension string

const (
	DimDemand     Dimension = "demand"
	DimDiffusion  Dimension = "diffusion"
	DimFit        Dimension = "fit"
	DimSupply     Dimension = "supply"
	DimGatekeeper Dimension = "gatekeeper"
)

// Indicator is one scored component.
type Indicator struct {
	Key       string
	Label     string
	Dimension Dimension
	Status    Status
	Score     float64 // [0,100]
	Raw       map[string]float64
	Debug     string
}

const neutralScore = 50.0

// manualIndicatorDefs is the fixed set of 10 MANUAL indicators named in
// spec.md §4.3. The spec's parenthetical "(8 total: ...)" lists ten keys
// and the document's indicator total of 13 only reconciles as
// 3 LIVE + 10 MANUAL = 13; this repo treats the enumerated list, not the
// miscounted parenthetical, as authoritative (recorded in DESIGN.md).
var manualIndicatorDefs = []struct {
	Key   string
	Label string
	Dim   Dimension
}{
	{"social_buzz", "Social Buzz", DimDemand},
	{"video_momentum", "Video Momentum", DimDemand},
	{"cross_platform_presence", "Cross-Platform Presence", DimDiffusion},
	{"ecommerce_density", "E-commerce Density", DimSupply},
	{"fnb_collab_saturation", "F&B Collab Saturation", DimSupply},
	{"merch_pressure", "Merch Pressure", DimSupply},
	{"rightsholder_intensity", "Rightsholder Intensity", DimGatekeeper},
	{"adult_fit", "Adult Fit", DimFit},
	{"giftability", "Giftability", DimFit},
	{"brand_aesthetic", "Brand Aesthetic", DimFit},
}

// ManualInputs maps indicator_key -> value in [0,1] (ManualIndicatorInput
// rows for one IP).
type ManualInputs map[string]float64

// IsValidManualKey reports whether key is one of the 10 MANUAL indicator
// keys spec.md §7 allows in a manual-input PUT body.
func IsValidManualKey(key string) bool {
	for _, def := range manualIndicatorDefs {
		if def.Key == key {
			return true
		}
	}
	return false
}

// AliasSampleStats is the per-alias sample summary cross_alias_consistency
// needs: whether the alias has at least 10 samples in the trailing 14
// days with a mean value >= 5, plus its most-recent-7-day and
// previous-7-day means.
type AliasSampleStats struct {
	AliasID        string
	SampleCount14d int
	AvgValue14d    float64
	Mean7dRecent   float64
	Mean7dPrevious float64
}

// Input bundles everything the indicator engine needs for one IP.
type Input struct {
	Today            time.Time
	LatestComposite  *domain.CompositeDaily // most recent CompositeDaily row, any geo/tf chosen by the caller
	AliasStats       []AliasSampleStats
	Events           []domain.Event
	Manual           ManualInputs
	LeadTimeWeeks    float64 // L, default 12
}

// Compute produces all 13 indicators for one IP.
func Compute(in Input) []Indicator {
	out := make([]Indicator, 0, 13)
	out = append(out, searchMomentum(in.LatestComposite))
	out = append(out, crossAliasConsistency(in.AliasStats))
	out = append(out, timingWindow(in))
	out = append(out, manualIndicators(in.Manual)...)
	return out
}

func clamp(lo, hi, v float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// searchMomentum is a LIVE demand indicator (spec.md §4.3).
func searchMomentum(latest *domain.CompositeDaily) Indicator {
	base := Indicator{Key: "search_momentum", Label: "Search Momentum", Dimension: DimDemand}
	if latest == nil {
		base.Status = StatusMissing
		base.Score = neutralScore
		return base
	}

	score := 50.0
	raw := map[string]float64{}
	if latest.WoWGrowth != nil {
		delta := clamp(-20, 20, *latest.WoWGrowth*50)
		score += delta
		raw["wow_growth"] = *latest.WoWGrowth
	}
	if latest.Acceleration != nil && *latest.Acceleration {
		score += 15
		raw["acceleration"] = 1
	}
	if latest.BreakoutPercentile != nil {
		score += clamp(-15, 15, (*latest.BreakoutPercentile-50)*0.3)
		raw["breakout_percentile"] = *latest.BreakoutPercentile
	}

	base.Status = StatusLive
	base.Score = clamp(0, 100, score)
	base.Raw = raw
	return base
}

// crossAliasConsistency is a LIVE diffusion indicator (spec.md §4.3).
func crossAliasConsistency(stats []AliasSampleStats) Indicator {
	base := Indicator{Key: "cross_alias_consistency", Label: "Cross-Alias Consistency", Dimension: DimDiffusion}

	qualified := 0
	rising := 0
	for _, s := range stats {
		if s.SampleCount14d < 10 || s.AvgValue14d < 5 {
			continue
		}
		qualified++
		if s.Mean7dRecent > s.Mean7dPrevious {
			rising++
		}
	}
	if qualified == 0 {
		base.Status = StatusMissing
		base.Score = neutralScore
		return base
	}

	base.Status = StatusLive
	base.Score = clamp(0, 100, float64(rising)/float64(qualified)*100)
	base.Raw = map[string]float64{"qualified_aliases": float64(qualified), "rising_aliases": float64(rising)}
	return base
}

// timingWindow is a LIVE gatekeeper indicator (spec.md §4.3). Priority:
// manual override, then event proximity, then signal_light, then
// MISSING.
func timingWindow(in Input) Indicator {
	base := Indicator{Key: "timing_window", Label: "Timing Window", Dimension: DimGatekeeper}
	leadWeeks := in.LeadTimeWeeks
	if leadWeeks == 0 {
		leadWeeks = 12
	}

	if v, ok := in.Manual["timing_window"]; ok && v != 0.5 {
		base.Status = StatusManual
		base.Score = clamp(0, 100, v*100)
		base.Raw = map[string]float64{"override": v}
		return base
	}

	if nearest, weeksUntil, ok := nearestFutureEvent(in.Events, in.Today); ok {
		score := timingScoreForWeeksUntil(weeksUntil, leadWeeks)
		base.Status = StatusLive
		base.Score = score
		base.Raw = map[string]float64{"weeks_until": weeksUntil}
		base.Debug = nearest.Title
		return base
	}

	if mostRecent, daysSince, ok := mostRecentPastEvent(in.Events, in.Today, 28); ok {
		score := math.Max(20, 60-daysSince*1.5)
		base.Status = StatusLive
		base.Score = clamp(0, 100, score)
		base.Raw = map[string]float64{"days_since": daysSince}
		base.Debug = mostRecent.Title
		return base
	}

	if in.LatestComposite != nil && in.LatestComposite.SignalLight != nil {
		switch *in.LatestComposite.SignalLight {
		case domain.SignalGreen:
			base.Status = StatusLive
			base.Score = 75
			return base
		case domain.SignalYellow:
			base.Status = StatusLive
			base.Score = 50
			return base
		case domain.SignalRed:
			base.Status = StatusLive
			base.Score = 25
			return base
		}
	}

	base.Status = StatusMissing
	base.Score = neutralScore
	return base
}

func timingScoreForWeeksUntil(w, leadWeeks float64) float64 {
	switch {
	case w >= 8 && w <= 14:
		return clamp(0, 100, 95-math.Abs(w-(leadWeeks-1))/3*15)
	case w > 14 && w <= 20:
		return clamp(0, 100, 75-(w-14)*2.5)
	case w > 20:
		return math.Max(40, 60-(w-20))
	case w >= 4 && w < 8:
		return 50 + (w-4)*5
	default: // w < 4
		return 25 + w*6
	}
}

func nearestFutureEvent(events []domain.Event, today time.Time) (domain.Event, float64, bool) {
	var best *domain.Event
	var bestWeeks float64
	for i := range events {
		e := events[i]
		if e.Date.Before(today) {
			continue
		}
		weeks := e.Date.Sub(today).Hours() / (24 * 7)
		if best == nil || weeks < bestWeeks {
			best = &events[i]
			bestWeeks = weeks
		}
	}
	if best == nil {
		return domain.Event{}, 0, false
	}
	return *best, bestWeeks, true
}

func mostRecentPastEvent(events []domain.Event, today time.Time, withinDays float64) (domain.Event, float64, bool) {
	var best *domain.Event
	var bestDays float64
	for i := range events {
		e := events[i]
		if !e.Date.Before(today) {
			continue
		}
		days := today.Sub(e.Date).Hours() / 24
		if days > withinDays {
			continue
		}
		if best == nil || days < bestDays {
			best = &events[i]
			bestDays = days
		}
	}
	if best == nil {
		return domain.Event{}, 0, false
	}
	return *best, bestDays, true
}

// manualIndicators scores the 10 MANUAL indicators: v*100, or MISSING
// (neutral 50) when no input is present.
func manualIndicators(manual ManualInputs) []Indicator {
	out := make([]Indicator, 0, len(manualIndicatorDefs))
	for _, def := range manualIndicatorDefs {
		ind := Indicator{Key: def.Key, Label: def.Label, Dimension: def.Dim}
		if v, ok := manual[def.Key]; ok {
			ind.Status = StatusManual
			ind.Score = clamp(0, 100, v*100)
		} else {
			ind.Status = StatusMissing
			ind.Score = neutralScore
		}
		out = append(out, ind)
	}
	return out
}
