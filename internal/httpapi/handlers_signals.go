package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/MaxShih147/brew-signal/internal/aggregate"
	"github.com/MaxShih147/brew-signal/internal/domain"
	"github.com/MaxShih147/brew-signal/internal/health"
	"github.com/MaxShih147/brew-signal/internal/indicator"
)

// signalsWindowDays bounds how much trailing composite history feeds
// alert derivation, matching the original signals endpoint's 90-day
// lookback.
const signalsWindowDays = 90

type alertOut struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	AlertDate string `json:"alert_date,omitempty"`
}

type signalsResponse struct {
	IPID               uuid.UUID           `json:"ip_id"`
	Geo                string              `json:"geo"`
	Timeframe          string              `json:"timeframe"`
	WoWGrowth          *float64            `json:"wow_growth,omitempty"`
	Acceleration       *bool               `json:"acceleration,omitempty"`
	BreakoutPercentile *float64            `json:"breakout_percentile,omitempty"`
	SignalLight        *domain.SignalLight `json:"signal_light,omitempty"`
	Alerts             []alertOut          `json:"alerts"`
}

type trendPointAlias struct {
	Date   time.Time `json:"date"`
	Value  int       `json:"value"`
	Alias  string    `json:"alias"`
	Source string    `json:"source"`
}

type trendResponse struct {
	IPID      uuid.UUID   `json:"ip_id"`
	Geo       string      `json:"geo"`
	Timeframe string      `json:"timeframe"`
	Mode      string      `json:"mode"`
	Points    interface{} `json:"points"`
}

func queryOr(r *http.Request, key, def string) string {
	if v := r.URL.Query().Get(key); v != "" {
		return v
	}
	return def
}

func (s *Server) defaultGeoTimeframe(r *http.Request) (string, string) {
	return queryOr(r, "geo", "TW"), queryOr(r, "timeframe", "today 3-m")
}

// buildIndicatorInput gathers the evidence indicator.Compute needs for
// one IP: the latest composite row, per-alias 14-day sample stats,
// events and manual inputs.
func (s *Server) buildIndicatorInput(ctx context.Context, ipID uuid.UUID, geo, timeframe string) (indicator.Input, error) {
	latest, err := s.store.Composites.Latest(ctx, ipID, geo, timeframe)
	if err != nil {
		return indicator.Input{}, err
	}

	aliases, err := s.store.Aliases.ListEnabledByIP(ctx, ipID)
	if err != nil {
		return indicator.Input{}, err
	}
	now := time.Now()
	since := now.AddDate(0, 0, -14)
	stats := make([]indicator.AliasSampleStats, 0, len(aliases))
	for _, a := range aliases {
		samples, err := s.store.Samples.ListByAliasSince(ctx, a.ID, since)
		if err != nil {
			return indicator.Input{}, err
		}
		stats = append(stats, summarizeAliasSamples(a.ID.String(), samples, now))
	}

	events, err := s.store.Events.ListByIP(ctx, ipID)
	if err != nil {
		return indicator.Input{}, err
	}

	manualRows, err := s.store.ManualIndicators.ListByIP(ctx, ipID)
	if err != nil {
		return indicator.Input{}, err
	}
	manual := indicator.ManualInputs{}
	for _, m := range manualRows {
		manual[m.IndicatorKey] = m.Value
	}

	return indicator.Input{
		Today:           now,
		LatestComposite: latest,
		AliasStats:      stats,
		Events:          events,
		Manual:          manual,
		LeadTimeWeeks:   s.cfg.Signal.LeadTimeWeeks,
	}, nil
}

// summarizeAliasSamples reduces one alias's trailing-14-day samples into
// the rolling means cross_alias_consistency needs.
func summarizeAliasSamples(aliasID string, samples []domain.Sample, now time.Time) indicator.AliasSampleStats {
	stats := indicator.AliasSampleStats{AliasID: aliasID}
	if len(samples) == 0 {
		return stats
	}

	sevenDaysAgo := now.AddDate(0, 0, -7)
	fourteenDaysAgo := now.AddDate(0, 0, -14)

	var sum14 float64
	var sumRecent, sumPrevious float64
	var nRecent, nPrevious int
	for _, smp := range samples {
		stats.SampleCount14d++
		sum14 += float64(smp.Value)
		if smp.Date.After(sevenDaysAgo) {
			sumRecent += float64(smp.Value)
			nRecent++
		} else if smp.Date.After(fourteenDaysAgo) {
			sumPrevious += float64(smp.Value)
			nPrevious++
		}
	}
	stats.AvgValue14d = sum14 / float64(stats.SampleCount14d)
	if nRecent > 0 {
		stats.Mean7dRecent = sumRecent / float64(nRecent)
	}
	if nPrevious > 0 {
		stats.Mean7dPrevious = sumPrevious / float64(nPrevious)
	}
	return stats
}

// computeConfidence recomputes an IP's confidence score from the
// migration-seeded source registry and its current per-source health
// rows, alongside the 13 indicators just computed.
func (s *Server) computeConfidence(ctx context.Context, ipID uuid.UUID, inds []indicator.Indicator) (domain.IPConfidence, error) {
	registry, err := s.store.SourceRegistry.List(ctx)
	if err != nil {
		return domain.IPConfidence{}, err
	}

	rows := make([]health.SourceHealthRow, 0, len(registry))
	for _, src := range registry {
		row := health.SourceHealthRow{
			SourceKey:         src.SourceKey,
			IsKeySource:       src.IsKeySource,
			PriorityWeight:    src.PriorityWeight,
			AvailabilityLevel: src.AvailabilityLevel,
		}
		h, err := s.store.SourceHealth.Get(ctx, ipID, src.SourceKey)
		if err != nil {
			return domain.IPConfidence{}, err
		}
		if h != nil {
			row.Attempted = true
			row.Status = h.Status
		}
		rows = append(rows, row)
	}

	conf := health.ComputeConfidence(health.ConfidenceInput{
		IPID:            ipID.String(),
		Indicators:      inds,
		Sources:         rows,
		ExpectedSources: len(registry),
		Now:             time.Now(),
		Weights:         s.cfg.Confidence,
	})
	conf.IPID = ipID
	return conf, nil
}

func (s *Server) getTrend(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ip id")
		return
	}
	geo, timeframe := s.defaultGeoTimeframe(r)
	mode := queryOr(r, "mode", "composite")

	if mode == "by_alias" {
		points, err := s.trendByAlias(r.Context(), id, geo, timeframe)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, trendResponse{IPID: id, Geo: geo, Timeframe: timeframe, Mode: mode, Points: points})
		return
	}

	series, err := s.store.Composites.ListSeries(r.Context(), id, geo, timeframe)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trendResponse{IPID: id, Geo: geo, Timeframe: timeframe, Mode: mode, Points: series})
}

// trendByAlias joins a sample's enabled alias against its raw samples,
// the by_alias rendering of spec.md §6's `GET /ip/{id}/trend?mode=by_alias`.
func (s *Server) trendByAlias(ctx context.Context, ipID uuid.UUID, geo, timeframe string) ([]trendPointAlias, error) {
	aliases, err := s.store.Aliases.ListEnabledByIP(ctx, ipID)
	if err != nil {
		return nil, err
	}
	aliasNames := make(map[uuid.UUID]string, len(aliases))
	for _, a := range aliases {
		aliasNames[a.ID] = a.Text
	}

	samples, err := s.store.Samples.ListForComposite(ctx, ipID, geo, timeframe)
	if err != nil {
		return nil, err
	}
	points := make([]trendPointAlias, 0, len(samples))
	for _, smp := range samples {
		name, ok := aliasNames[smp.AliasID]
		if !ok {
			continue
		}
		points = append(points, trendPointAlias{Date: smp.Date, Value: smp.Value, Alias: name, Source: smp.Source})
	}
	return points, nil
}

func (s *Server) getSignals(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ip id")
		return
	}
	geo, timeframe := s.defaultGeoTimeframe(r)

	series, err := s.store.Composites.ListSeries(r.Context(), id, geo, timeframe)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if len(series) > signalsWindowDays {
		series = series[len(series)-signalsWindowDays:]
	}

	alerts := aggregate.Alerts(series, aggregate.Thresholds{TWow: s.cfg.Signal.TWow, PBreak: s.cfg.Signal.PBreak})
	out := make([]alertOut, len(alerts))
	for i, a := range alerts {
		out[i] = alertOut{Type: a.Type, Message: a.Message, AlertDate: a.AlertDate.Format("2006-01-02")}
	}

	resp := signalsResponse{IPID: id, Geo: geo, Timeframe: timeframe, Alerts: out}
	if len(series) > 0 {
		latest := series[len(series)-1]
		resp.WoWGrowth = latest.WoWGrowth
		resp.Acceleration = latest.Acceleration
		resp.BreakoutPercentile = latest.BreakoutPercentile
		resp.SignalLight = latest.SignalLight
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ip id")
		return
	}
	rows, err := s.store.SourceHealth.ListByIP(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
