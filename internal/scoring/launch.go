package scoring

import (
	"math"
	"sort"
	"time"

	"github.com/MaxShih147/brew-signal/internal/domain"
)

// LaunchWeights configures spec.md §4.6's weekly launch-value formula.
type LaunchWeights struct {
	WDemand         float64
	WEvent          float64
	WSaturation     float64
	WOpsRisk        float64
	EventPeakWeeks  float64 // P, default 4
	EventSigmaWeeks float64 // sigma, default 3
}

// DefaultLaunchWeights returns spec.md §4.6's defaults.
func DefaultLaunchWeights() LaunchWeights {
	return LaunchWeights{
		WDemand: 0.4, WEvent: 0.3, WSaturation: 0.15, WOpsRisk: 0.15,
		EventPeakWeeks: 4, EventSigmaWeeks: 3,
	}
}

// MA28Point is one (date, ma28) observation feeding the demand
// extrapolation.
type MA28Point struct {
	Date  time.Time
	Value float64
}

// LaunchMilestone is a fixed lead-time offset from the recommended
// launch week, named after the production/marketing step it marks.
type LaunchMilestone struct {
	Name       string
	LeadWeeks  float64
	Date       time.Time
}

// milestoneLeadWeeks are the fixed lead times subtracted from the
// recommended launch week, per spec.md §4.6's closing sentence.
var milestoneLeadWeeks = []struct {
	Name string
	Lead float64
}{
	{"production_start", 16},
	{"sample_approval", 10},
	{"marketing_kickoff", 8},
	{"retail_commitment", 4},
}

// WeekPlan is one row of the weekly launch grid.
type WeekPlan struct {
	WeekStart       time.Time
	Demand          float64
	EventBoost      float64
	Saturation      float64
	OperationalRisk float64
	LaunchValue     float64
}

// LaunchPlan is the full output of the launch-timing engine.
type LaunchPlan struct {
	Grid        []WeekPlan
	Recommended time.Time
	Backups     []time.Time
	Milestones  []LaunchMilestone
}

// LaunchInput bundles the demand history, events and merch totals for
// one IP's launch-timing computation.
type LaunchInput struct {
	Today              time.Time
	MA28Last60Days     []MA28Point // ascending by date
	Events             []domain.Event
	MerchTotal         int
	LicenceWindowStart *time.Time
	LicenceWindowEnd   *time.Time
}

// ComputeLaunchPlan produces the weekly grid and recommendation of
// spec.md §4.6.
func ComputeLaunchPlan(in LaunchInput, w LaunchWeights) LaunchPlan {
	start, end := launchWindow(in)
	weeks := mondayAlignedWeeks(start, end)

	slope, base := demandSlope(in.MA28Last60Days)
	saturation := clamp(0, 95, 100*(1-math.Exp(-float64(in.MerchTotal)/800)))

	grid := make([]WeekPlan, 0, len(weeks))
	for _, wk := range weeks {
		weeksFromToday := wk.Sub(in.Today).Hours() / (24 * 7)
		demand := clamp(0, 100, base+slope*weeksFromToday)
		boost := eventBoost(wk, in.Events, w.EventPeakWeeks, w.EventSigmaWeeks)
		opsRisk := 100 / (1 + math.Exp(0.3*(weeksFromToday-15)))

		value := w.WDemand*demand + w.WEvent*boost - w.WSaturation*saturation - w.WOpsRisk*opsRisk
		grid = append(grid, WeekPlan{
			WeekStart:       wk,
			Demand:          demand,
			EventBoost:      boost,
			Saturation:      saturation,
			OperationalRisk: opsRisk,
			LaunchValue:     value,
		})
	}

	recommended, backups := pickTopThree(grid)

	milestones := make([]LaunchMilestone, 0, len(milestoneLeadWeeks))
	for _, m := range milestoneLeadWeeks {
		milestones = append(milestones, LaunchMilestone{
			Name:      m.Name,
			LeadWeeks: m.Lead,
			Date:      recommended.AddDate(0, 0, -int(m.Lead*7)),
		})
	}

	return LaunchPlan{Grid: grid, Recommended: recommended, Backups: backups, Milestones: milestones}
}

func launchWindow(in LaunchInput) (time.Time, time.Time) {
	if in.LicenceWindowStart != nil && in.LicenceWindowEnd != nil {
		return *in.LicenceWindowStart, *in.LicenceWindowEnd
	}
	start := in.Today.AddDate(0, 0, 12*7)
	end := in.Today.AddDate(0, 6, 0)
	return start, end
}

func mondayAlignedWeeks(start, end time.Time) []time.Time {
	cur := alignToMonday(start)
	var out []time.Time
	for !cur.After(end) {
		out = append(out, cur)
		cur = cur.AddDate(0, 0, 7)
	}
	return out
}

func alignToMonday(t time.Time) time.Time {
	t = t.UTC().Truncate(24 * time.Hour)
	offset := (8 - int(t.Weekday())) % 7 // days until the next Monday (0 on a Monday)
	return t.AddDate(0, 0, offset)
}

// demandSlope fits a per-week slope over the oldest-to-newest pair of
// the trailing-60-day ma28 series (spec.md §4.6) and returns it along
// with the newest (base) value to extrapolate from.
func demandSlope(points []MA28Point) (slope, base float64) {
	if len(points) < 2 {
		if len(points) == 1 {
			return 0, points[0].Value
		}
		return 0, 0
	}
	oldest := points[0]
	newest := points[len(points)-1]
	weeksBetween := newest.Date.Sub(oldest.Date).Hours() / (24 * 7)
	if weeksBetween == 0 {
		return 0, newest.Value
	}
	return (newest.Value - oldest.Value) / weeksBetween, newest.Value
}

// eventBoost returns the maximum gaussian contribution of any event
// within ±8 weeks of week w, peaked P weeks before the event date.
func eventBoost(w time.Time, events []domain.Event, peakWeeks, sigmaWeeks float64) float64 {
	best := 0.0
	for _, e := range events {
		weeksToEvent := e.Date.Sub(w).Hours() / (24 * 7)
		if math.Abs(weeksToEvent) > 8 {
			continue
		}
		idealOffset := weeksToEvent - peakWeeks // w is "peakWeeks" before event at its ideal slot
		g := 100 * math.Exp(-(idealOffset*idealOffset)/(2*sigmaWeeks*sigmaWeeks))
		if g > best {
			best = g
		}
	}
	return best
}

func pickTopThree(grid []WeekPlan) (time.Time, []time.Time) {
	if len(grid) == 0 {
		return time.Time{}, nil
	}
	ranked := make([]WeekPlan, len(grid))
	copy(ranked, grid)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].LaunchValue > ranked[j].LaunchValue })

	recommended := ranked[0].WeekStart
	backups := make([]time.Time, 0, 2)
	for _, r := range ranked[1:] {
		if len(backups) == 2 {
			break
		}
		backups = append(backups, r.WeekStart)
	}
	return recommended, backups
}
