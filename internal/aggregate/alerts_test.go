package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/MaxShih147/brew-signal/internal/domain"
)

func f(v float64) *float64 { return &v }

func TestAlerts_Breakout(t *testing.T) {
	date := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	series := []domain.CompositeDaily{
		{Date: date, CompositeValue: 90, BreakoutPercentile: f(92)},
	}
	alerts := Alerts(series, Thresholds{PBreak: 85})
	assert.Len(t, alerts, 1)
	assert.Equal(t, "breakout", alerts[0].Type)
}

func TestAlerts_PeakTurn(t *testing.T) {
	d0 := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	d1 := d0.AddDate(0, 0, 1)
	series := []domain.CompositeDaily{
		{Date: d0, MA7: f(60), MA28: f(50)},
		{Date: d1, MA7: f(45), MA28: f(50)},
	}
	alerts := Alerts(series, Thresholds{PBreak: 85})
	assert.Len(t, alerts, 1)
	assert.Equal(t, "peak_turn", alerts[0].Type)
}

func TestAlerts_Spike(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	series := make([]domain.CompositeDaily, 30)
	for i := 0; i < 29; i++ {
		series[i] = domain.CompositeDaily{Date: base.AddDate(0, 0, i), CompositeValue: 50}
	}
	series[29] = domain.CompositeDaily{Date: base.AddDate(0, 0, 29), CompositeValue: 500}

	alerts := Alerts(series, Thresholds{PBreak: 85})
	var found bool
	for _, a := range alerts {
		if a.Type == "spike" {
			found = true
		}
	}
	assert.True(t, found, "expected a spike alert, got %#v", alerts)
}

func TestAlerts_EmptySeries(t *testing.T) {
	assert.Nil(t, Alerts(nil, Thresholds{PBreak: 85}))
}
