package indicator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MaxShih147/brew-signal/internal/domain"
)

func TestTimingWindow_NearEvent(t *testing.T) {
	today := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	event := domain.Event{Title: "anime air", Date: today.AddDate(0, 0, 70)} // 10 weeks out

	ind := timingWindow(Input{Today: today, Events: []domain.Event{event}, LeadTimeWeeks: 12})
	require.Equal(t, StatusLive, ind.Status)
	assert.InDelta(t, 90.0, ind.Score, 0.1)
}

func TestTimingWindow_ManualOverride(t *testing.T) {
	today := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ind := timingWindow(Input{Today: today, Manual: ManualInputs{"timing_window": 0.9}})
	assert.Equal(t, StatusManual, ind.Status)
	assert.InDelta(t, 90.0, ind.Score, 1e-9)
}

func TestTimingWindow_FallsBackToSignalLight(t *testing.T) {
	today := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	green := domain.SignalGreen
	ind := timingWindow(Input{Today: today, LatestComposite: &domain.CompositeDaily{SignalLight: &green}})
	assert.Equal(t, StatusLive, ind.Status)
	assert.Equal(t, 75.0, ind.Score)
}

func TestTimingWindow_MissingWhenNoEvidence(t *testing.T) {
	today := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ind := timingWindow(Input{Today: today})
	assert.Equal(t, StatusMissing, ind.Status)
	assert.Equal(t, 50.0, ind.Score)
}

func TestManualIndicators_MissingWhenAbsent(t *testing.T) {
	inds := manualIndicators(ManualInputs{"social_buzz": 0.8})
	require.Len(t, inds, 10)
	var buzz, gift *Indicator
	for i := range inds {
		switch inds[i].Key {
		case "social_buzz":
			buzz = &inds[i]
		case "giftability":
			gift = &inds[i]
		}
	}
	require.NotNil(t, buzz)
	require.NotNil(t, gift)
	assert.Equal(t, StatusManual, buzz.Status)
	assert.InDelta(t, 80.0, buzz.Score, 1e-9)
	assert.Equal(t, StatusMissing, gift.Status)
	assert.Equal(t, 50.0, gift.Score)
}

func TestCrossAliasConsistency_MissingWhenNoneQualify(t *testing.T) {
	ind := crossAliasConsistency([]AliasSampleStats{{AliasID: "a", SampleCount14d: 3, AvgValue14d: 10}})
	assert.Equal(t, StatusMissing, ind.Status)
}

func TestCrossAliasConsistency_Fraction(t *testing.T) {
	stats := []AliasSampleStats{
		{AliasID: "a", SampleCount14d: 12, AvgValue14d: 8, Mean7dRecent: 10, Mean7dPrevious: 5},
		{AliasID: "b", SampleCount14d: 12, AvgValue14d: 8, Mean7dRecent: 4, Mean7dPrevious: 5},
	}
	ind := crossAliasConsistency(stats)
	assert.Equal(t, StatusLive, ind.Status)
	assert.InDelta(t, 50.0, ind.Score, 1e-9)
}
