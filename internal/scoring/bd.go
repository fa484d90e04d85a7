package scoring

import (
	"sort"

	"github.com/MaxShih147/brew-signal/internal/indicator"
)

// BDWeights configures spec.md §4.5's BD allocation formula.
type BDWeights struct {
	BTiming      float64
	BDemand      float64
	BMarket      float64
	BFeasibility float64
	FitGate      float64
	TauStart     float64
	TauMonitor   float64
	Gamma        float64
}

// DefaultBDWeights returns spec.md §4.5's defaults.
func DefaultBDWeights() BDWeights {
	return BDWeights{
		BTiming: 0.35, BDemand: 0.30, BMarket: 0.20, BFeasibility: 0.15,
		FitGate: 30, TauStart: 70, TauMonitor: 40, Gamma: 0.3,
	}
}

// Decision is the BD allocation outcome.
type Decision string

const (
	DecisionStart   Decision = "START"
	DecisionMonitor Decision = "MONITOR"
	DecisionReject  Decision = "REJECT"
)

// BDResult is the output of the BD allocation gate.
type BDResult struct {
	Score          float64
	Decision       Decision
	FitGateValue   float64
	FitGatePassed  bool
}

// ComputeBD applies the fit gate and composite BD formula of spec.md
// §4.5. confidenceScore is the IP's current IPConfidence.ConfidenceScore
// in [0,100].
func ComputeBD(inds []indicator.Indicator, confidenceScore float64, w BDWeights) BDResult {
	adultFit, _ := byKey(inds, "adult_fit")
	giftability, _ := byKey(inds, "giftability")
	brandAesthetic, _ := byKey(inds, "brand_aesthetic")
	fitGate := minOf(adultFit.Score, giftability.Score, brandAesthetic.Score)

	if fitGate < w.FitGate {
		return BDResult{FitGateValue: fitGate, FitGatePassed: false, Decision: DecisionReject}
	}

	D := dimensionMean(inds, indicator.DimDemand)
	Df := dimensionMean(inds, indicator.DimDiffusion)
	S := dimensionMean(inds, indicator.DimSupply)
	rInd, _ := byKey(inds, "rightsholder_intensity")
	R := rInd.Score
	tInd, _ := byKey(inds, "timing_window")
	T := tInd.Score
	smInd, _ := byKey(inds, "search_momentum")
	accelerating := smInd.Raw != nil && smInd.Raw["acceleration"] != 0

	timingUrgency := clamp(0, 100, T*(1+w.Gamma*R/100))
	demandTrajectory := D
	if accelerating {
		demandTrajectory += 10
	}
	demandTrajectory = clamp(0, 100, demandTrajectory)
	marketGap := 100 - S
	feasibility := clamp(0, 100, 0.5*Df+0.5*(100-R))

	raw := w.BTiming*timingUrgency + w.BDemand*demandTrajectory + w.BMarket*marketGap + w.BFeasibility*feasibility
	bdScore := clamp(0, 100, raw*confidenceScore/100)

	decision := DecisionReject
	switch {
	case bdScore >= w.TauStart:
		decision = DecisionStart
	case bdScore >= w.TauMonitor:
		decision = DecisionMonitor
	}

	return BDResult{Score: bdScore, Decision: decision, FitGateValue: fitGate, FitGatePassed: true}
}

func minOf(values ...float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// RankedIP pairs an IP identifier with its BD score for ranking.
type RankedIP struct {
	IPID  string
	Score float64
}

// RankByBDScore sorts IPs descending by bd_score, per spec.md §4.5.
func RankByBDScore(ranked []RankedIP) []RankedIP {
	out := make([]RankedIP, len(ranked))
	copy(out, ranked)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}
