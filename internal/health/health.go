// Package health derives per-source freshness status and per-IP
// confidence scores (spec.md §4.7). Neither computation ever returns an
// error: missing evidence degrades coverage and band, it never aborts a
// sync or an opportunity response, mirroring the indicator engine's
// fail-soft posture.
package health

import (
	"time"

	"github.com/MaxShih147/brew-signal/internal/config"
	"github.com/MaxShih147/brew-signal/internal/domain"
	"github.com/MaxShih147/brew-signal/internal/indicator"
)

// DeriveSourceStatus computes the freshness-derived status of a single
// (ip, source) pair from its last successful sync.
func DeriveSourceStatus(lastSuccessAt *time.Time, now time.Time, freshHours, warnHours int) domain.SourceStatus {
	if lastSuccessAt == nil {
		return domain.StatusDown
	}
	age := now.Sub(*lastSuccessAt)
	fresh := time.Duration(freshHours) * time.Hour
	warn := time.Duration(warnHours) * time.Hour
	switch {
	case age <= fresh:
		return domain.StatusOK
	case age <= warn:
		return domain.StatusWarn
	default:
		return domain.StatusDown
	}
}

// UpdateSourceHealth folds the outcome of one source-run attempt into an
// (ip, source) health row, recomputing status from the resulting
// last_success_at.
func UpdateSourceHealth(prev domain.IPSourceHealth, now time.Time, success bool, errMsg string, itemsUpdated int, freshHours, warnHours int) domain.IPSourceHealth {
	out := prev
	out.LastAttemptAt = &now
	if success {
		out.LastSuccessAt = &now
		out.LastError = ""
		items := itemsUpdated
		out.UpdatedItems = &items
	} else {
		out.LastError = errMsg
	}

	out.Status = DeriveSourceStatus(out.LastSuccessAt, now, freshHours, warnHours)
	if out.LastSuccessAt != nil {
		hours := int(now.Sub(*out.LastSuccessAt).Hours())
		out.StalenessHours = &hours
	}
	return out
}

func availFactor(level string) float64 {
	switch level {
	case "high":
		return 1.0
	case "medium":
		return 0.8
	case "low":
		return 0.5
	default:
		return 0.8
	}
}

// SourceHealthRow is the per-source evidence ComputeConfidence folds into
// source_coverage, risk_adj and the key-source penalty.
type SourceHealthRow struct {
	SourceKey         string
	Attempted         bool
	Status            domain.SourceStatus
	IsKeySource       bool
	PriorityWeight    float64
	AvailabilityLevel string
}

// ConfidenceInput bundles the evidence ComputeConfidence needs for one IP.
type ConfidenceInput struct {
	IPID            string
	Indicators      []indicator.Indicator
	Sources         []SourceHealthRow
	ExpectedSources int
	Now             time.Time
	Weights         config.ConfidenceConfig
}

// ComputeConfidence implements spec.md §4.7's formula: indicator and
// source coverage blended into a base score, discounted by a capped
// key-source/missing-indicator penalty and a source-availability risk
// factor.
//
// "missing_key_indicators" in the formula has no separate key/non-key
// distinction among the 13 indicators elsewhere in this system (unlike
// sources, which do carry IsKeySource); this implementation counts every
// MISSING indicator toward the penalty term, treating the formula's
// "key" qualifier as inherited from the surrounding key-source penalty
// rather than a distinct indicator attribute.
func ComputeConfidence(in ConfidenceInput) domain.IPConfidence {
	totalIndicators := len(in.Indicators)
	activeIndicators := 0
	var missingIndicators []string
	for _, ind := range in.Indicators {
		if ind.Status != indicator.StatusMissing {
			activeIndicators++
		} else {
			missingIndicators = append(missingIndicators, ind.Key)
		}
	}
	indicatorCoverage := 0.0
	if totalIndicators > 0 {
		indicatorCoverage = float64(activeIndicators) / float64(totalIndicators)
	}

	attempted := 0
	activeSources := 0
	var missingSources []string
	penalty := 0.0
	riskNumerator, riskDenominator := 0.0, 0.0

	for _, src := range in.Sources {
		if !src.Attempted {
			continue
		}
		attempted++
		if src.Status == domain.StatusOK {
			activeSources++
		} else {
			missingSources = append(missingSources, src.SourceKey)
		}

		if src.IsKeySource {
			switch src.Status {
			case domain.StatusDown:
				penalty += in.Weights.PenaltyDown
			case domain.StatusWarn:
				penalty += in.Weights.PenaltyWarn
			}
		}

		w := src.PriorityWeight
		if w == 0 {
			w = 1
		}
		riskNumerator += w * availFactor(src.AvailabilityLevel)
		riskDenominator += w
	}

	sourceCoverage := 0.0
	if attempted > 0 && in.ExpectedSources > 0 {
		sourceCoverage = (float64(activeSources) / float64(attempted)) * (float64(attempted) / float64(in.ExpectedSources))
	}

	base := 100 * (in.Weights.WIndicator*indicatorCoverage + in.Weights.WSource*sourceCoverage)

	missingPenalty := float64(len(missingIndicators)) * in.Weights.PenaltyMissing
	if missingPenalty > in.Weights.PenaltyCap {
		missingPenalty = in.Weights.PenaltyCap
	}
	penalty += missingPenalty

	riskAdj := 1.0
	if riskDenominator > 0 {
		riskAdj = riskNumerator / riskDenominator
	}

	reduction := penalty / 100
	if reduction > 0.8 {
		reduction = 0.8
	}

	score := base * riskAdj * (1 - reduction)
	score = clampScore(score)

	band := domain.BandInsufficient
	switch {
	case score >= 80:
		band = domain.BandHigh
	case score >= 60:
		band = domain.BandMedium
	case score >= 40:
		band = domain.BandLow
	}

	now := in.Now
	return domain.IPConfidence{
		ConfidenceScore:   int(score + 0.5),
		ConfidenceBand:    band,
		ActiveIndicators:  activeIndicators,
		TotalIndicators:   totalIndicators,
		ActiveSources:     activeSources,
		ExpectedSources:   in.ExpectedSources,
		MissingSources:    missingSources,
		MissingIndicators: missingIndicators,
		LastCalculatedAt:  &now,
	}
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
