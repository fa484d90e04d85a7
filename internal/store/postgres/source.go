package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/MaxShih147/brew-signal/internal/domain"
)

// sourceRegistryRepo reads the migration-seeded source registry; rows
// are never written at runtime.
type sourceRegistryRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

func (r *sourceRegistryRepo) List(ctx context.Context) ([]domain.SourceRegistry, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var rows []domain.SourceRegistry
	const q = `SELECT source_key, availability_level, risk_class, is_key_source, priority_weight, notes FROM source_registry`
	if err := r.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *sourceRegistryRepo) Get(ctx context.Context, sourceKey string) (domain.SourceRegistry, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var row domain.SourceRegistry
	const q = `SELECT source_key, availability_level, risk_class, is_key_source, priority_weight, notes FROM source_registry WHERE source_key = $1`
	if err := r.db.GetContext(ctx, &row, q, sourceKey); err != nil {
		return domain.SourceRegistry{}, err
	}
	return row, nil
}

type sourceRunRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

func (r *sourceRunRepo) Create(ctx context.Context, run domain.SourceRun) (domain.SourceRun, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	const q = `
		INSERT INTO source_runs (id, source_key, started_at, finished_at, status, items_processed, items_succeeded, items_failed, error_sample)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := r.db.ExecContext(ctx, q, run.ID, run.SourceKey, run.StartedAt, run.FinishedAt, run.Status,
		run.ItemsProcessed, run.ItemsSucceeded, run.ItemsFailed, run.SampleError); err != nil {
		return domain.SourceRun{}, err
	}
	return run, nil
}

func (r *sourceRunRepo) ListBySource(ctx context.Context, sourceKey string, limit int) ([]domain.SourceRun, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var runs []domain.SourceRun
	const q = `
		SELECT id, source_key, started_at, finished_at, status, items_processed, items_succeeded, items_failed, error_sample
		FROM source_runs WHERE source_key = $1 ORDER BY started_at DESC LIMIT $2`
	if err := r.db.SelectContext(ctx, &runs, q, sourceKey, limit); err != nil {
		return nil, err
	}
	return runs, nil
}

func (r *sourceRunRepo) ListRecent(ctx context.Context, limit int) ([]domain.SourceRun, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var runs []domain.SourceRun
	const q = `
		SELECT id, source_key, started_at, finished_at, status, items_processed, items_succeeded, items_failed, error_sample
		FROM source_runs ORDER BY started_at DESC LIMIT $1`
	if err := r.db.SelectContext(ctx, &runs, q, limit); err != nil {
		return nil, err
	}
	return runs, nil
}

type sourceHealthRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// Upsert writes an (ip, source) health row, unique on the pair, per
// spec.md §6.
func (r *sourceHealthRepo) Upsert(ctx context.Context, h domain.IPSourceHealth) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	const q = `
		INSERT INTO ip_source_health (ip_id, source_key, last_success_at, last_attempt_at, staleness_hours, status, last_error, updated_items)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (ip_id, source_key) DO UPDATE SET
			last_success_at = EXCLUDED.last_success_at,
			last_attempt_at = EXCLUDED.last_attempt_at,
			staleness_hours = EXCLUDED.staleness_hours,
			status = EXCLUDED.status,
			last_error = EXCLUDED.last_error,
			updated_items = EXCLUDED.updated_items`
	_, err := r.db.ExecContext(ctx, q, h.IPID, h.SourceKey, h.LastSuccessAt, h.LastAttemptAt, h.StalenessHours, h.Status, h.LastError, h.UpdatedItems)
	return err
}

func (r *sourceHealthRepo) ListByIP(ctx context.Context, ipID uuid.UUID) ([]domain.IPSourceHealth, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var rows []domain.IPSourceHealth
	const q = `
		SELECT ip_id, source_key, last_success_at, last_attempt_at, staleness_hours, status, last_error, updated_items
		FROM ip_source_health WHERE ip_id = $1`
	if err := r.db.SelectContext(ctx, &rows, q, ipID); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *sourceHealthRepo) Get(ctx context.Context, ipID uuid.UUID, sourceKey string) (*domain.IPSourceHealth, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var row domain.IPSourceHealth
	const q = `
		SELECT ip_id, source_key, last_success_at, last_attempt_at, staleness_hours, status, last_error, updated_items
		FROM ip_source_health WHERE ip_id = $1 AND source_key = $2`
	if err := r.db.GetContext(ctx, &row, q, ipID, sourceKey); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *sourceHealthRepo) ListAll(ctx context.Context) ([]domain.IPSourceHealth, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var rows []domain.IPSourceHealth
	const q = `
		SELECT ip_id, source_key, last_success_at, last_attempt_at, staleness_hours, status, last_error, updated_items
		FROM ip_source_health`
	if err := r.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, err
	}
	return rows, nil
}
