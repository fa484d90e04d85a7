// Package domain holds the entities of §3: IPs, aliases, samples, derived
// composites, events, source bookkeeping, and the scoring inputs/outputs
// that flow between the collector, aggregator, indicator engine and
// scorer packages.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates the external-calendar entry kinds an Event can carry.
type EventType string

const (
	EventAnimeAir      EventType = "anime_air"
	EventMovieRelease  EventType = "movie_release"
	EventGameRelease   EventType = "game_release"
	EventAnniversary   EventType = "anniversary"
	EventOther         EventType = "other"
)

// SignalLight is the traffic-light momentum state of a CompositeDaily row.
type SignalLight string

const (
	SignalGreen  SignalLight = "green"
	SignalYellow SignalLight = "yellow"
	SignalRed    SignalLight = "red"
)

// SourceStatus is the health state derived for a (IP, source) pair or a
// SourceRun attempt.
type SourceStatus string

const (
	StatusOK   SourceStatus = "ok"
	StatusWarn SourceStatus = "warn"
	StatusDown SourceStatus = "down"
)

// ConfidenceBand buckets an IPConfidence score.
type ConfidenceBand string

const (
	BandHigh         ConfidenceBand = "high"
	BandMedium       ConfidenceBand = "medium"
	BandLow          ConfidenceBand = "low"
	BandInsufficient ConfidenceBand = "insufficient"
)

// PipelineStage is the BD-stage state machine for an IP.
type PipelineStage string

const (
	StageCandidate   PipelineStage = "candidate"
	StageNegotiating PipelineStage = "negotiating"
	StageSecured     PipelineStage = "secured"
	StageLaunched    PipelineStage = "launched"
	StageArchived    PipelineStage = "archived"
)

// BDDecision is the output of the BD allocation gate (§4.5).
type BDDecision string

const (
	DecisionStart   BDDecision = "START"
	DecisionMonitor BDDecision = "MONITOR"
	DecisionReject  BDDecision = "REJECT"
)

// IP is the root entity: a tracked intellectual property. Created once,
// immutable except Name. Owns Aliases, Samples, Composites, Events, health
// rows, its Confidence row and its Pipeline row; deletion cascades.
type IP struct {
	ID            uuid.UUID `db:"id"`
	Name          string    `db:"name"`
	ExternalRefID *string   `db:"external_ref_id"` // e.g. MyAnimeList id
	CreatedAt     time.Time `db:"created_at"`
}

// Alias is one searchable surface form of an IP in a given locale.
// A disabled alias never contributes to composites and never triggers a
// fetch.
type Alias struct {
	ID             uuid.UUID `db:"id"`
	IPID           uuid.UUID `db:"ip_id"`
	Text           string    `db:"alias"`
	Locale         string    `db:"locale"`
	Weight         float64   `db:"weight"`
	OriginalWeight float64   `db:"original_weight"`
	Enabled        bool      `db:"enabled"`
}

// Sample is a raw data point, unique on (ip, alias, geo, timeframe, date).
// Upsert-on-conflict overwrites Value and FetchedAt only.
type Sample struct {
	ID        uuid.UUID `db:"id"`
	IPID      uuid.UUID `db:"ip_id"`
	AliasID   uuid.UUID `db:"alias_id"`
	Geo       string    `db:"geo"`
	Timeframe string    `db:"timeframe"`
	Date      time.Time `db:"date"`
	Value     int       `db:"value"` // in [0,100]
	Source    string    `db:"source"`
	FetchedAt time.Time `db:"fetched_at"`
}

// CompositeDaily is the per (ip, geo, timeframe, date) aggregate produced
// by the trend aggregation engine. Fully reproducible from Samples.
type CompositeDaily struct {
	IPID               uuid.UUID    `db:"ip_id"`
	Geo                string       `db:"geo"`
	Timeframe          string       `db:"timeframe"`
	Date               time.Time    `db:"date"`
	CompositeValue     float64      `db:"composite_value"`
	MA7                *float64     `db:"ma7"`
	MA28               *float64     `db:"ma28"`
	WoWGrowth          *float64     `db:"wow_growth"`
	Acceleration       *bool        `db:"acceleration"`
	BreakoutPercentile *float64     `db:"breakout_percentile"`
	SignalLight        *SignalLight `db:"signal_light"`
}

// Event is an external calendar entry attached to an IP, used by the
// timing indicator and the launch-timing engine.
type Event struct {
	ID        uuid.UUID `db:"id"`
	IPID      uuid.UUID `db:"ip_id"`
	Type      EventType `db:"event_type"`
	Title     string    `db:"title"`
	Date      time.Time `db:"event_date"`
	Source    string    `db:"source"`
	URL       string    `db:"source_url"`
	CreatedAt time.Time `db:"created_at"`
}

// SourceRegistry is the static, migration-seeded table of known data
// sources.
type SourceRegistry struct {
	SourceKey         string  `db:"source_key"`
	AvailabilityLevel string  `db:"availability_level"` // high|medium|low
	RiskClass         string  `db:"risk_class"`
	IsKeySource       bool    `db:"is_key_source"`
	PriorityWeight    float64 `db:"priority_weight"`
	Notes             string  `db:"notes"`
}

// SourceRun is one row per end-to-end collection attempt against a source.
type SourceRun struct {
	ID              uuid.UUID    `db:"id"`
	SourceKey       string       `db:"source_key"`
	StartedAt       time.Time    `db:"started_at"`
	FinishedAt      *time.Time   `db:"finished_at"`
	Status          SourceStatus `db:"status"`
	ItemsProcessed  int          `db:"items_processed"`
	ItemsSucceeded  int          `db:"items_succeeded"`
	ItemsFailed     int          `db:"items_failed"`
	SampleError     string       `db:"error_sample"`
}

// IPSourceHealth is one row per (ip, source), unique on the pair.
type IPSourceHealth struct {
	IPID           uuid.UUID    `db:"ip_id"`
	SourceKey      string       `db:"source_key"`
	LastSuccessAt  *time.Time   `db:"last_success_at"`
	LastAttemptAt  *time.Time   `db:"last_attempt_at"`
	StalenessHours *int         `db:"staleness_hours"`
	Status         SourceStatus `db:"status"`
	LastError      string       `db:"last_error"`
	UpdatedItems   *int         `db:"updated_items"`
}

// IPConfidence is one row per IP summarising evidence coverage.
type IPConfidence struct {
	IPID               uuid.UUID      `db:"ip_id"`
	ConfidenceScore    int            `db:"confidence_score"`
	ConfidenceBand     ConfidenceBand `db:"confidence_band"`
	ActiveIndicators   int            `db:"active_indicators"`
	TotalIndicators    int            `db:"total_indicators"`
	ActiveSources      int            `db:"active_sources"`
	ExpectedSources    int            `db:"expected_sources"`
	MissingSources     []string       `db:"-"`
	MissingIndicators  []string       `db:"-"`
	LastCalculatedAt   *time.Time     `db:"last_calculated_at"`
}

// ManualIndicatorInput is a human-supplied scalar for a MANUAL indicator,
// unique on (ip, indicator_key).
type ManualIndicatorInput struct {
	IPID          uuid.UUID `db:"ip_id"`
	IndicatorKey  string    `db:"indicator_key"`
	Value         float64   `db:"value"` // in [0,1]
	UpdatedAt     time.Time `db:"updated_at"`
}

// VideoMetric is a per-video view/engagement snapshot, unique on
// (ip, video_id) per spec.md §6. The collection pipeline does not write
// these rows, and confidence is computed from source health, not from
// them; the video_momentum indicator stays MANUAL (§4.3).
type VideoMetric struct {
	ID          uuid.UUID `db:"id"`
	IPID        uuid.UUID `db:"ip_id"`
	VideoID     string    `db:"video_id"`
	Title       string    `db:"title"`
	ViewCount   int64     `db:"view_count"`
	LikeCount   int64     `db:"like_count"`
	CommentCount int64    `db:"comment_count"`
	PublishedAt time.Time `db:"published_at"`
	FetchedAt   time.Time `db:"fetched_at"`
}

// MerchProductCount is a per-platform product-listing count, unique on
// (ip, platform) per spec.md §6. The launch-timing engine's saturation
// term (§4.6) sums these across platforms; the e-commerce collectors do
// not write them.
type MerchProductCount struct {
	IPID        uuid.UUID `db:"ip_id"`
	Platform    string    `db:"platform"`
	ProductCount int      `db:"product_count"`
	FetchedAt   time.Time `db:"fetched_at"`
}

// IPPipeline is the BD-stage state for an IP.
type IPPipeline struct {
	IPID               uuid.UUID      `db:"ip_id"`
	Stage              PipelineStage  `db:"stage"`
	TargetDate         *time.Time     `db:"target_date"`
	LicenceWindowStart *time.Time     `db:"licence_window_start"`
	LicenceWindowEnd   *time.Time     `db:"licence_window_end"`
	MinimumGuarantee   *float64       `db:"minimum_guarantee"`
	BDScore            *float64       `db:"bd_score"`
	BDDecision         *BDDecision    `db:"bd_decision"`
}
