package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MaxShih147/brew-signal/internal/domain"
)

func TestComputeLaunchPlan_FallbackWindow(t *testing.T) {
	today := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC) // a Monday
	plan := ComputeLaunchPlan(LaunchInput{
		Today: today,
		MA28Last60Days: []MA28Point{
			{Date: today.AddDate(0, 0, -56), Value: 40},
			{Date: today, Value: 60},
		},
		MerchTotal: 100,
	}, DefaultLaunchWeights())

	require.NotEmpty(t, plan.Grid)
	assert.True(t, !plan.Recommended.IsZero())
	assert.Len(t, plan.Backups, 2)
	assert.Len(t, plan.Milestones, 4)
	for _, wk := range plan.Grid {
		assert.True(t, !wk.WeekStart.Before(today.AddDate(0, 0, 12*7)))
	}
}

func TestComputeLaunchPlan_EventBoostPeaksBeforeEvent(t *testing.T) {
	today := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	eventDate := today.AddDate(0, 0, 14*7) // 14 weeks out, inside the fallback window
	start := eventDate.AddDate(0, 0, -7*4)
	end := eventDate.AddDate(0, 0, 7*4)

	plan := ComputeLaunchPlan(LaunchInput{
		Today:              today,
		Events:             []domain.Event{{Title: "con", Date: eventDate}},
		LicenceWindowStart: &start,
		LicenceWindowEnd:   &end,
	}, DefaultLaunchWeights())

	var idealWeek time.Time
	bestBoost := -1.0
	for _, wk := range plan.Grid {
		if wk.EventBoost > bestBoost {
			bestBoost = wk.EventBoost
			idealWeek = wk.WeekStart
		}
	}
	wantIdeal := alignToMonday(eventDate.AddDate(0, 0, -4*7))
	assert.Equal(t, wantIdeal, idealWeek)
	assert.InDelta(t, 100.0, bestBoost, 0.5)
}

func TestDemandSlope_SinglePoint(t *testing.T) {
	slope, base := demandSlope([]MA28Point{{Value: 42}})
	assert.Equal(t, 0.0, slope)
	assert.Equal(t, 42.0, base)
}

func TestDemandSlope_NoPoints(t *testing.T) {
	slope, base := demandSlope(nil)
	assert.Equal(t, 0.0, slope)
	assert.Equal(t, 0.0, base)
}

func TestAlignToMonday(t *testing.T) {
	sunday := time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC)
	monday := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, monday, alignToMonday(sunday))
	assert.Equal(t, monday, alignToMonday(monday))
}
