package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func daysFrom(base time.Time, offsets []int, values []int) []SampleInput {
	out := make([]SampleInput, len(values))
	for i, v := range values {
		out[i] = SampleInput{AliasID: "a1", Date: base.AddDate(0, 0, offsets[i]), Value: v}
	}
	return out
}

// TestBuild_GreenLight reproduces spec.md §8 scenario 1: 28 days of
// strictly-increasing values whose last 7 average 75 and prior 7
// average 65, yielding wow_growth ~ 0.154, acceleration true, and a
// breakout percentile of 100 against a lowered T_wow/P_break.
func TestBuild_GreenLight(t *testing.T) {
	values := []int{
		48, 49, 50, 51, 52, 53, 54, 55, 56, 57, 58, 59, 60, 61, // 14
		62, 63, 64, 65, 66, 67, 68, // prior 7, avg 65
		72, 73, 74, 75, 76, 77, 78, // last 7, avg 75
	}
	require.Len(t, values, 28)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	offsets := make([]int, 28)
	for i := range offsets {
		offsets[i] = i
	}
	samples := daysFrom(base, offsets, values)
	weights := AliasWeight{"a1": 1.0}

	out := Build("TW", "12m", samples, weights, Thresholds{TWow: 0.10, PBreak: 85})
	require.Len(t, out, 28)

	last := out[27]
	require.NotNil(t, last.MA7)
	assert.InDelta(t, 75.0, *last.MA7, 1e-9)
	require.NotNil(t, last.WoWGrowth)
	assert.InDelta(t, 0.15384615, *last.WoWGrowth, 1e-6)
	require.NotNil(t, last.Acceleration)
	assert.True(t, *last.Acceleration)
	require.NotNil(t, last.BreakoutPercentile)
	assert.InDelta(t, 100.0, *last.BreakoutPercentile, 1e-9)
	require.NotNil(t, last.SignalLight)
	assert.Equal(t, "green", string(*last.SignalLight))
}

func TestWeekOverWeekGrowth_ZeroPriorWeek(t *testing.T) {
	series := make([]float64, 14)
	for i := 7; i < 14; i++ {
		series[i] = 10
	}
	v := weekOverWeekGrowth(series, 13)
	require.NotNil(t, v)
	assert.Equal(t, 0.0, *v)
}

func TestMovingAverage_NullBeforeWindow(t *testing.T) {
	series := []float64{1, 2, 3, 4, 5, 6}
	assert.Nil(t, movingAverage(series, 5, 7))
	series = append(series, 7)
	v := movingAverage(series, 6, 7)
	require.NotNil(t, v)
	assert.InDelta(t, 4.0, *v, 1e-9)
}

func TestAcceleration(t *testing.T) {
	pos1, pos2, neg := 0.2, 0.1, -0.1
	assert.True(t, acceleration(&pos1, &pos2))
	assert.False(t, acceleration(&pos2, &pos1))
	assert.False(t, acceleration(&pos1, &neg))
	assert.False(t, acceleration(nil, &pos1))
}

func TestBuild_ExcludesDisabledAliasWeights(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	samples := []SampleInput{
		{AliasID: "enabled", Date: base, Value: 10},
		{AliasID: "disabled", Date: base, Value: 100},
	}
	out := Build("TW", "12m", samples, AliasWeight{"enabled": 1.0}, Thresholds{TWow: 0.3, PBreak: 85})
	require.Len(t, out, 1)
	assert.InDelta(t, 10.0, out[0].CompositeValue, 1e-9)
}

func TestBuild_EmptyWhenNoEnabledAliases(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	samples := []SampleInput{{AliasID: "disabled", Date: base, Value: 100}}
	out := Build("TW", "12m", samples, AliasWeight{}, Thresholds{TWow: 0.3, PBreak: 85})
	assert.Empty(t, out)
}
