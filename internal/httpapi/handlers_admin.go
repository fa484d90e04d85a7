package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/MaxShih147/brew-signal/internal/domain"
)

// recentRunWindow bounds how many of a source's most recent runs feed
// the 24h/7d success-rate windows below, mirroring the original
// admin data-health view's per-source recency cutoff.
const recentRunWindow = 500

type sourceHealthSummary struct {
	SourceKey         string     `json:"source_key"`
	IsKeySource       bool       `json:"is_key_source"`
	PriorityWeight    float64    `json:"priority_weight"`
	AvailabilityLevel string     `json:"availability_level"`
	LastSuccessAt     *time.Time `json:"last_success_at,omitempty"`
	SuccessRate24h    *float64   `json:"success_rate_24h,omitempty"`
	SuccessRate7d     *float64   `json:"success_rate_7d,omitempty"`
}

func lastSuccessAt(runs []domain.SourceRun) *time.Time {
	var last *time.Time
	for _, run := range runs {
		if run.Status != domain.StatusOK {
			continue
		}
		if last == nil || run.StartedAt.After(*last) {
			t := run.StartedAt
			last = &t
		}
	}
	return last
}

func successRateWithin(runs []domain.SourceRun, now time.Time, window time.Duration) *float64 {
	cutoff := now.Add(-window)
	var total, ok int
	for _, run := range runs {
		if run.StartedAt.Before(cutoff) {
			continue
		}
		total++
		if run.Status == domain.StatusOK {
			ok++
		}
	}
	if total == 0 {
		return nil
	}
	rate := float64(ok) / float64(total)
	return &rate
}

// getDataHealthSources serves `GET /admin/data-health/sources`: per-
// registered-source reliability summary across every IP.
func (s *Server) getDataHealthSources(w http.ResponseWriter, r *http.Request) {
	registry, err := s.store.SourceRegistry.List(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}

	now := time.Now()
	out := make([]sourceHealthSummary, 0, len(registry))
	for _, reg := range registry {
		runs, err := s.store.SourceRuns.ListBySource(r.Context(), reg.SourceKey, recentRunWindow)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		out = append(out, sourceHealthSummary{
			SourceKey:         reg.SourceKey,
			IsKeySource:       reg.IsKeySource,
			PriorityWeight:    reg.PriorityWeight,
			AvailabilityLevel: reg.AvailabilityLevel,
			LastSuccessAt:     lastSuccessAt(runs),
			SuccessRate24h:    successRateWithin(runs, now, 24*time.Hour),
			SuccessRate7d:     successRateWithin(runs, now, 7*24*time.Hour),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type coverageCell struct {
	SourceKey string              `json:"source_key"`
	Status    domain.SourceStatus `json:"status"`
}

type coverageMatrixRow struct {
	IPID  string         `json:"ip_id"`
	Name  string         `json:"name"`
	Cells []coverageCell `json:"cells"`
}

// getDataHealthMatrix serves `GET /admin/data-health/matrix`: an IP x
// source coverage grid, optionally filtered to rows with any non-ok
// cell.
func (s *Server) getDataHealthMatrix(w http.ResponseWriter, r *http.Request) {
	registry, err := s.store.SourceRegistry.List(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	ips, err := s.store.IPs.List(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	health, err := s.store.SourceHealth.ListAll(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	byIPSource := make(map[string]domain.SourceStatus, len(health))
	for _, h := range health {
		byIPSource[h.IPID.String()+"/"+h.SourceKey] = h.Status
	}

	limit := 50
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	onlyIssues := r.URL.Query().Get("only_issues") == "true"

	rows := make([]coverageMatrixRow, 0, len(ips))
	for _, ip := range ips {
		if len(rows) >= limit {
			break
		}
		cells := make([]coverageCell, 0, len(registry))
		hasIssue := false
		for _, reg := range registry {
			status, ok := byIPSource[ip.ID.String()+"/"+reg.SourceKey]
			if !ok {
				status = domain.StatusDown
			}
			if status != domain.StatusOK {
				hasIssue = true
			}
			cells = append(cells, coverageCell{SourceKey: reg.SourceKey, Status: status})
		}
		if onlyIssues && !hasIssue {
			continue
		}
		rows = append(rows, coverageMatrixRow{IPID: ip.ID.String(), Name: ip.Name, Cells: cells})
	}
	writeJSON(w, http.StatusOK, rows)
}

// getDataHealthRuns serves `GET /admin/data-health/runs`, optionally
// filtered to one source_key.
func (s *Server) getDataHealthRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	sourceKey := r.URL.Query().Get("source_key")

	var (
		runs []domain.SourceRun
		err  error
	)
	if sourceKey != "" {
		runs, err = s.store.SourceRuns.ListBySource(r.Context(), sourceKey, limit)
	} else {
		runs, err = s.store.SourceRuns.ListRecent(r.Context(), limit)
	}
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

// getDataHealthRegistry serves `GET /admin/data-health/registry`: the
// raw migration-seeded source registry rows.
func (s *Server) getDataHealthRegistry(w http.ResponseWriter, r *http.Request) {
	registry, err := s.store.SourceRegistry.List(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, registry)
}
