// Package store defines the persistence contracts for every entity in
// spec.md §3. Implementations upsert on the normative unique keys listed
// in §6; callers never see a uniqueness violation, it is absorbed by the
// on-conflict-update semantics of the concrete store.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/MaxShih147/brew-signal/internal/domain"
)

// IPRepo persists IP rows.
type IPRepo interface {
	Create(ctx context.Context, ip domain.IP) (domain.IP, error)
	Get(ctx context.Context, id uuid.UUID) (domain.IP, error)
	List(ctx context.Context) ([]domain.IP, error)
	Update(ctx context.Context, ip domain.IP) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// AliasRepo persists Alias rows and the weight-reset operation.
type AliasRepo interface {
	Create(ctx context.Context, alias domain.Alias) (domain.Alias, error)
	ListByIP(ctx context.Context, ipID uuid.UUID) ([]domain.Alias, error)
	ListEnabledByIP(ctx context.Context, ipID uuid.UUID) ([]domain.Alias, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Alias, error)
	Update(ctx context.Context, alias domain.Alias) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ResetWeight sets Weight back to OriginalWeight, per spec.md §6's
	// `POST /ip/alias/{aid}/reset-weight`.
	ResetWeight(ctx context.Context, id uuid.UUID) (domain.Alias, error)
}

// SampleRepo persists raw fetch samples, unique on
// (ip, alias, geo, timeframe, date).
type SampleRepo interface {
	// Upsert overwrites Value and FetchedAt on conflict; it never creates
	// a second row for the same unique key.
	Upsert(ctx context.Context, sample domain.Sample) error
	ListForComposite(ctx context.Context, ipID uuid.UUID, geo, timeframe string) ([]domain.Sample, error)
	ListByAliasSince(ctx context.Context, aliasID uuid.UUID, since time.Time) ([]domain.Sample, error)
}

// CompositeRepo persists the derived CompositeDaily series, unique on
// (ip, geo, timeframe, date).
type CompositeRepo interface {
	// ReplaceSeries atomically deletes all existing rows for
	// (ipID, geo, timeframe) and inserts rows, keeping the series
	// fully reproducible from Samples (spec.md §4.2). An empty rows
	// slice simply clears the series (the "disable-zero" law).
	ReplaceSeries(ctx context.Context, ipID uuid.UUID, geo, timeframe string, rows []domain.CompositeDaily) error
	ListSeries(ctx context.Context, ipID uuid.UUID, geo, timeframe string) ([]domain.CompositeDaily, error)
	Latest(ctx context.Context, ipID uuid.UUID, geo, timeframe string) (*domain.CompositeDaily, error)
}

// EventRepo persists calendar Events attached to an IP.
type EventRepo interface {
	Create(ctx context.Context, event domain.Event) (domain.Event, error)
	ListByIP(ctx context.Context, ipID uuid.UUID) ([]domain.Event, error)
}

// SourceRegistryRepo reads the migration-seeded source registry.
type SourceRegistryRepo interface {
	List(ctx context.Context) ([]domain.SourceRegistry, error)
	Get(ctx context.Context, sourceKey string) (domain.SourceRegistry, error)
}

// SourceRunRepo logs one row per collection attempt against a source.
type SourceRunRepo interface {
	Create(ctx context.Context, run domain.SourceRun) (domain.SourceRun, error)
	ListBySource(ctx context.Context, sourceKey string, limit int) ([]domain.SourceRun, error)
	// ListRecent returns the most recent runs across every source,
	// newest first, for the operator-facing data-health view (spec.md
	// §6's `GET /admin/data-health/runs`).
	ListRecent(ctx context.Context, limit int) ([]domain.SourceRun, error)
}

// SourceHealthRepo persists per (ip, source) health rows, unique on the
// pair.
type SourceHealthRepo interface {
	Upsert(ctx context.Context, health domain.IPSourceHealth) error
	ListByIP(ctx context.Context, ipID uuid.UUID) ([]domain.IPSourceHealth, error)
	Get(ctx context.Context, ipID uuid.UUID, sourceKey string) (*domain.IPSourceHealth, error)
	// ListAll returns every (ip, source) health row, for the operator-
	// facing coverage matrix (spec.md §6's `GET /admin/data-health/matrix`).
	ListAll(ctx context.Context) ([]domain.IPSourceHealth, error)
}

// ConfidenceRepo persists one IPConfidence row per IP, upserted on every
// recompute.
type ConfidenceRepo interface {
	Upsert(ctx context.Context, confidence domain.IPConfidence) error
	Get(ctx context.Context, ipID uuid.UUID) (*domain.IPConfidence, error)
}

// ManualIndicatorRepo persists ManualIndicatorInput rows, unique on
// (ip, indicator_key).
type ManualIndicatorRepo interface {
	Upsert(ctx context.Context, input domain.ManualIndicatorInput) error
	ListByIP(ctx context.Context, ipID uuid.UUID) ([]domain.ManualIndicatorInput, error)
}

// VideoMetricRepo persists VideoMetric rows, unique on (ip, video_id).
type VideoMetricRepo interface {
	Upsert(ctx context.Context, metric domain.VideoMetric) error
	ListByIP(ctx context.Context, ipID uuid.UUID) ([]domain.VideoMetric, error)
}

// MerchProductCountRepo persists MerchProductCount rows, unique on
// (ip, platform).
type MerchProductCountRepo interface {
	Upsert(ctx context.Context, count domain.MerchProductCount) error
	ListByIP(ctx context.Context, ipID uuid.UUID) ([]domain.MerchProductCount, error)
	Total(ctx context.Context, ipID uuid.UUID) (int, error)
}

// PipelineRepo persists the BD-stage state machine, unique on ip_id.
type PipelineRepo interface {
	Get(ctx context.Context, ipID uuid.UUID) (*domain.IPPipeline, error)
	// Create returns a 409-equivalent error (ErrAlreadyExists) if a row
	// already exists for ipID, per spec.md §7.
	Create(ctx context.Context, pipeline domain.IPPipeline) (domain.IPPipeline, error)
	Update(ctx context.Context, pipeline domain.IPPipeline) error
}

// Store bundles every repo the application wires up, grounded on the
// upstream scanner's persistence.Repositories aggregate.
type Store struct {
	IPs               IPRepo
	Aliases           AliasRepo
	Samples           SampleRepo
	Composites        CompositeRepo
	Events            EventRepo
	SourceRegistry    SourceRegistryRepo
	SourceRuns        SourceRunRepo
	SourceHealth      SourceHealthRepo
	Confidence        ConfidenceRepo
	ManualIndicators  ManualIndicatorRepo
	VideoMetrics      VideoMetricRepo
	MerchCounts       MerchProductCountRepo
	Pipelines         PipelineRepo
}
