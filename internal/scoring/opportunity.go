// Package scoring implements the composite scoring engine of spec.md
// §4.4-§4.6: the opportunity scorer, the BD allocation gate, and the
// weekly launch-timing grid. The opportunity scorer and the BD gate
// build on the indicator engine's output (the BD gate also folds in
// confidence); the launch grid works from ma28 history, events and
// merch totals. All follow the weighted-component-then-clamp
// shape the upstream scanner's domain/scoring package uses for its own
// composite score.
package scoring

import (
	"math"

	"github.com/MaxShih147/brew-signal/internal/indicator"
)

// OpportunityWeights configures §4.4's formula. Defaults per spec.md.
type OpportunityWeights struct {
	WDemand     float64
	WDiffusion  float64
	WFit        float64
	RSupply     float64
	RGatekeeper float64
	TimingLo    float64
	TimingHi    float64
	K           float64
}

// DefaultOpportunityWeights returns spec.md §4.4's defaults.
func DefaultOpportunityWeights() OpportunityWeights {
	return OpportunityWeights{
		WDemand: 0.30, WDiffusion: 0.20, WFit: 0.15,
		RSupply: 0.25, RGatekeeper: 0.10,
		TimingLo: 0.8, TimingHi: 0.4, K: 1.35,
	}
}

// Light is the traffic-light bucket for a score.
type Light string

const (
	LightGreen  Light = "green"
	LightYellow Light = "yellow"
	LightRed    Light = "red"
)

// OpportunityResult is the output of the opportunity scorer.
type OpportunityResult struct {
	Score           float64
	Light           Light
	CoverageRatio   float64
	DominantDriver  string
	DominantRisk    string
	TimingAdvice    string
	Demand          float64
	Diffusion       float64
	Fit             float64
	Supply          float64
	RightsholderIntensity float64
	Timing          float64
}

// dimensionMean returns the mean score of indicators in dimension dim.
// Indicators with Status MISSING still contribute their neutral score,
// matching spec.md §4.4 — only the coverage ratio, which counts LIVE
// indicators alone, reflects where the scores came from.
func dimensionMean(inds []indicator.Indicator, dim indicator.Dimension) float64 {
	sum, n := 0.0, 0
	for _, ind := range inds {
		if ind.Dimension == dim {
			sum += ind.Score
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func byKey(inds []indicator.Indicator, key string) (indicator.Indicator, bool) {
	for _, ind := range inds {
		if ind.Key == key {
			return ind, true
		}
	}
	return indicator.Indicator{}, false
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

// ComputeOpportunity fuses the 13 indicators into an opportunity score,
// traffic light, coverage ratio and three explanation strings, per
// spec.md §4.4.
func ComputeOpportunity(inds []indicator.Indicator, w OpportunityWeights) OpportunityResult {
	D := dimensionMean(inds, indicator.DimDemand)
	F := dimensionMean(inds, indicator.DimFit)
	Df := dimensionMean(inds, indicator.DimDiffusion)
	S := dimensionMean(inds, indicator.DimSupply)

	rInd, _ := byKey(inds, "rightsholder_intensity")
	R := rInd.Score
	tInd, _ := byKey(inds, "timing_window")
	T := tInd.Score

	base := w.WDemand*D + w.WDiffusion*Df + w.WFit*F
	timingMult := w.TimingLo + w.TimingHi*(T/100)
	riskMult := 1 / (1 + w.RSupply*(S/100) + w.RGatekeeper*(R/100))
	opportunity := clamp(0, 100, base*timingMult*riskMult*w.K)

	light := LightRed
	switch {
	case opportunity >= 70:
		light = LightGreen
	case opportunity >= 40:
		light = LightYellow
	}

	live := 0
	for _, ind := range inds {
		if ind.Status == indicator.StatusLive {
			live++
		}
	}
	coverage := 0.0
	if len(inds) > 0 {
		coverage = float64(live) / float64(len(inds))
	}

	return OpportunityResult{
		Score:                 opportunity,
		Light:                 light,
		CoverageRatio:         coverage,
		DominantDriver:        dominantDriver(D, Df, F, w),
		DominantRisk:          dominantRisk(S, R, w),
		TimingAdvice:          timingAdvice(T),
		Demand:                D,
		Diffusion:             Df,
		Fit:                   F,
		Supply:                S,
		RightsholderIntensity: R,
		Timing:                T,
	}
}

func dominantDriver(D, Df, F float64, w OpportunityWeights) string {
	contribs := map[string]float64{
		"demand":    w.WDemand * D,
		"diffusion": w.WDiffusion * Df,
		"fit":       w.WFit * F,
	}
	return argmax(contribs)
}

func dominantRisk(S, R float64, w OpportunityWeights) string {
	contribs := map[string]float64{
		"supply_saturation":    w.RSupply * S,
		"gatekeeper_intensity": w.RGatekeeper * R,
	}
	return argmax(contribs)
}

func timingAdvice(T float64) string {
	switch {
	case T >= 75:
		return "act now — timing window is near-optimal"
	case T >= 50:
		return "favorable window approaching, prepare outreach"
	default:
		return "no near-term timing catalyst, deprioritize urgency"
	}
}

func argmax(m map[string]float64) string {
	best, bestV := "", math.Inf(-1)
	for k, v := range m {
		if v > bestV {
			best, bestV = k, v
		}
	}
	return best
}
