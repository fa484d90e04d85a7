package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/MaxShih147/brew-signal/internal/config"
	"github.com/MaxShih147/brew-signal/internal/domain"
	"github.com/MaxShih147/brew-signal/internal/indicator"
)

func TestDeriveSourceStatus(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	fresh := now.Add(-2 * time.Hour)
	warn := now.Add(-10 * time.Hour)
	stale := now.Add(-100 * time.Hour)

	assert.Equal(t, domain.StatusOK, DeriveSourceStatus(&fresh, now, 6, 24))
	assert.Equal(t, domain.StatusWarn, DeriveSourceStatus(&warn, now, 6, 24))
	assert.Equal(t, domain.StatusDown, DeriveSourceStatus(&stale, now, 6, 24))
	assert.Equal(t, domain.StatusDown, DeriveSourceStatus(nil, now, 6, 24))
}

func weights() config.ConfidenceConfig {
	return config.ConfidenceConfig{WIndicator: 0.6, WSource: 0.4, PenaltyDown: 15, PenaltyWarn: 7, PenaltyMissing: 10, PenaltyCap: 30}
}

func fullIndicatorSet(missing int) []indicator.Indicator {
	inds := make([]indicator.Indicator, 13)
	for i := range inds {
		inds[i] = indicator.Indicator{Key: "ind", Status: indicator.StatusLive}
	}
	for i := 0; i < missing; i++ {
		inds[i].Status = indicator.StatusMissing
	}
	return inds
}

func TestComputeConfidence_PenaltyCapScenario(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	in := ConfidenceInput{
		Indicators: fullIndicatorSet(3), // 3 missing * p_miss(10) = 30, capped at p_cap(30)
		Sources: []SourceHealthRow{
			{SourceKey: "pytrends", Attempted: true, Status: domain.StatusOK, IsKeySource: true, PriorityWeight: 1, AvailabilityLevel: "high"},
		},
		ExpectedSources: 5,
		Now:             now,
		Weights:         weights(),
	}
	out := ComputeConfidence(in)
	assert.Len(t, out.MissingIndicators, 3)
	assert.True(t, out.ConfidenceScore < 100)
}

func TestComputeConfidence_MonotoneCoverage(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	base := ConfidenceInput{
		Indicators:      fullIndicatorSet(0),
		ExpectedSources: 5,
		Now:             now,
		Weights:         weights(),
	}
	before := ComputeConfidence(base)

	withSource := base
	withSource.Sources = []SourceHealthRow{
		{SourceKey: "pytrends", Attempted: true, Status: domain.StatusOK, PriorityWeight: 1, AvailabilityLevel: "high"},
	}
	after := ComputeConfidence(withSource)

	assert.GreaterOrEqual(t, after.ConfidenceScore, before.ConfidenceScore)
}

func TestComputeConfidence_UnattemptedSourcesDoNotPenalise(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	in := ConfidenceInput{
		Indicators: fullIndicatorSet(0),
		Sources: []SourceHealthRow{
			{SourceKey: "mal", Attempted: false, IsKeySource: true},
		},
		ExpectedSources: 5,
		Now:             now,
		Weights:         weights(),
	}
	out := ComputeConfidence(in)
	assert.Equal(t, 0, out.ActiveSources)
	assert.Empty(t, out.MissingSources)
}

func TestUpdateSourceHealth_SuccessClearsError(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	prev := domain.IPSourceHealth{LastError: "timeout"}
	out := UpdateSourceHealth(prev, now, true, "", 42, 6, 24)
	assert.Empty(t, out.LastError)
	assert.Equal(t, domain.StatusOK, out.Status)
	assert.Equal(t, 42, *out.UpdatedItems)
}
