package httpapi

import (
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/MaxShih147/brew-signal/internal/domain"
	"github.com/MaxShih147/brew-signal/internal/indicator"
	"github.com/MaxShih147/brew-signal/internal/scoring"
)

// validPipelineStages is the fixed BD-stage enum spec.md §7 validates
// `PUT /ip/{id}/pipeline`'s stage field against.
var validPipelineStages = map[domain.PipelineStage]bool{
	domain.StageCandidate:   true,
	domain.StageNegotiating: true,
	domain.StageSecured:     true,
	domain.StageLaunched:    true,
	domain.StageArchived:    true,
}

func (s *Server) getOpportunity(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ip id")
		return
	}
	geo, timeframe := s.defaultGeoTimeframe(r)
	in, err := s.buildIndicatorInput(r.Context(), id, geo, timeframe)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	inds := indicatorSet(in)
	result := scoring.ComputeOpportunity(inds, opportunityWeights(s.cfg.Opportunity))
	writeJSON(w, http.StatusOK, result)
}

type manualInputRequest map[string]float64

func (s *Server) putOpportunity(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ip id")
		return
	}
	var req manualInputRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	for key, value := range req {
		if !indicator.IsValidManualKey(key) {
			writeError(w, http.StatusBadRequest, "unknown manual indicator key: "+key)
			return
		}
		if value < 0 || value > 1 {
			writeError(w, http.StatusBadRequest, "manual indicator values must be in [0,1]: "+key)
			return
		}
		input := domain.ManualIndicatorInput{IPID: id, IndicatorKey: key, Value: value, UpdatedAt: time.Now()}
		if err := s.store.ManualIndicators.Upsert(r.Context(), input); err != nil {
			writeStoreError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, req)
}

func (s *Server) getBDScore(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ip id")
		return
	}
	geo, timeframe := s.defaultGeoTimeframe(r)
	in, err := s.buildIndicatorInput(r.Context(), id, geo, timeframe)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	inds := indicatorSet(in)
	conf, err := s.computeConfidence(r.Context(), id, inds)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	result := scoring.ComputeBD(inds, float64(conf.ConfidenceScore), bdWeights(s.cfg.BD))
	writeJSON(w, http.StatusOK, result)
}

type bdRankingEntry struct {
	IPID     uuid.UUID        `json:"ip_id"`
	Name     string           `json:"name"`
	Score    float64          `json:"score"`
	Decision scoring.Decision `json:"decision"`
}

func (s *Server) getBDRanking(w http.ResponseWriter, r *http.Request) {
	ips, err := s.store.IPs.List(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	geo, timeframe := s.defaultGeoTimeframe(r)

	entries := make([]bdRankingEntry, 0, len(ips))
	for _, ip := range ips {
		in, err := s.buildIndicatorInput(r.Context(), ip.ID, geo, timeframe)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		inds := indicatorSet(in)
		conf, err := s.computeConfidence(r.Context(), ip.ID, inds)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		result := scoring.ComputeBD(inds, float64(conf.ConfidenceScore), bdWeights(s.cfg.BD))
		entries = append(entries, bdRankingEntry{IPID: ip.ID, Name: ip.Name, Score: result.Score, Decision: result.Decision})
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Score > entries[j].Score })
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) getLaunchPlan(w http.ResponseWriter, r *http.Request) {
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
	cutoff := time.Now().AddDate(0, 0, -60)
	points := make([]scoring.MA28Point, 0, len(series))
	for _, row := range series {
		if row.MA28 == nil || row.Date.Before(cutoff) {
			continue
		}
		points = append(points, scoring.MA28Point{Date: row.Date, Value: *row.MA28})
	}

	events, err := s.store.Events.ListByIP(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	merchTotal, err := s.store.MerchCounts.Total(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	var licenceStart, licenceEnd *time.Time
	pipeline, err := s.store.Pipelines.Get(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if pipeline != nil {
		licenceStart, licenceEnd = pipeline.LicenceWindowStart, pipeline.LicenceWindowEnd
	}

	plan := scoring.ComputeLaunchPlan(scoring.LaunchInput{
		Today:              time.Now(),
		MA28Last60Days:     points,
		Events:             events,
		MerchTotal:         merchTotal,
		LicenceWindowStart: licenceStart,
		LicenceWindowEnd:   licenceEnd,
	}, launchWeights(s.cfg.Launch))
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) getConfidence(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ip id")
		return
	}
	conf, err := s.store.Confidence.Get(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if conf == nil {
		writeError(w, http.StatusNotFound, "confidence not yet calculated for this ip")
		return
	}
	writeJSON(w, http.StatusOK, conf)
}

func (s *Server) postRecalculateConfidence(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ip id")
		return
	}
	geo, timeframe := s.defaultGeoTimeframe(r)
	in, err := s.buildIndicatorInput(r.Context(), id, geo, timeframe)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	inds := indicatorSet(in)
	conf, err := s.computeConfidence(r.Context(), id, inds)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if err := s.store.Confidence.Upsert(r.Context(), conf); err != nil {
		writeStoreError(w, err)
		return
	}
	if s.metrics != nil {
		s.metrics.ConfidenceScore.WithLabelValues(id.String()).Set(float64(conf.ConfidenceScore))
	}
	writeJSON(w, http.StatusOK, conf)
}

type pipelineStageRequest struct {
	Stage              domain.PipelineStage `json:"stage"`
	TargetDate         *string              `json:"target_date,omitempty"`
	LicenceWindowStart *string              `json:"licence_window_start,omitempty"`
	LicenceWindowEnd   *string              `json:"licence_window_end,omitempty"`
	MinimumGuarantee   *float64             `json:"minimum_guarantee,omitempty"`
}

func parseDatePtr(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Server) putPipelineStage(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ip id")
		return
	}
	var req pipelineStageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	targetDate, err := parseDatePtr(req.TargetDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid target_date")
		return
	}
	licenceStart, err := parseDatePtr(req.LicenceWindowStart)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid licence_window_start")
		return
	}
	licenceEnd, err := parseDatePtr(req.LicenceWindowEnd)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid licence_window_end")
		return
	}

	existing, err := s.store.Pipelines.Get(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	stage := req.Stage
	if stage == "" {
		stage = domain.StageCandidate
	}
	if !validPipelineStages[stage] {
		writeError(w, http.StatusBadRequest, "unknown pipeline stage: "+string(stage))
		return
	}
	row := domain.IPPipeline{
		IPID: id, Stage: stage, TargetDate: targetDate,
		LicenceWindowStart: licenceStart, LicenceWindowEnd: licenceEnd,
		MinimumGuarantee: req.MinimumGuarantee,
	}
	if existing == nil {
		created, err := s.store.Pipelines.Create(r.Context(), row)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
		return
	}
	if err := s.store.Pipelines.Update(r.Context(), row); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

type collectRunRequest struct {
	IPID      uuid.UUID `json:"ip_id"`
	Geo       string    `json:"geo"`
	Timeframe string    `json:"timeframe"`
	SourceKey string    `json:"source_key"`
}

func (s *Server) postCollectRun(w http.ResponseWriter, r *http.Request) {
	var req collectRunRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.IPID == uuid.Nil || req.SourceKey == "" {
		writeError(w, http.StatusBadRequest, "ip_id and source_key are required")
		return
	}
	geo := req.Geo
	if geo == "" {
		geo = "TW"
	}
	timeframe := req.Timeframe
	if timeframe == "" {
		timeframe = "today 3-m"
	}
	summary, err := s.runner.RunCollection(r.Context(), req.IPID, geo, timeframe, req.SourceKey)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// postCollectSync serves spec.md §6's generic
// `POST /collect/{source}-sync/{id}`, the genericized form of the
// original's per-source mal-sync/youtube-sync/merch-sync endpoints: the
// {source} path segment names the collector's source key directly.
func (s *Server) postCollectSync(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ip id")
		return
	}
	sourceKey, ok := mux.Vars(r)["source"]
	if !ok || sourceKey == "" {
		writeError(w, http.StatusBadRequest, "missing source")
		return
	}
	geo, timeframe := s.defaultGeoTimeframe(r)
	summary, err := s.runner.RunCollection(r.Context(), id, geo, timeframe, sourceKey)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
