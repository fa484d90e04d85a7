package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/MaxShih147/brew-signal/internal/domain"
)

type sampleRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// Upsert overwrites value and fetched_at on (ip, alias, geo, timeframe,
// date) conflicts, per spec.md §6.
func (r *sampleRepo) Upsert(ctx context.Context, s domain.Sample) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.FetchedAt.IsZero() {
		s.FetchedAt = time.Now()
	}
	const q = `
		INSERT INTO samples (id, ip_id, alias_id, geo, timeframe, date, value, source, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (ip_id, alias_id, geo, timeframe, date) DO UPDATE SET
			value = EXCLUDED.value,
			fetched_at = EXCLUDED.fetched_at`
	_, err := r.db.ExecContext(ctx, q, s.ID, s.IPID, s.AliasID, s.Geo, s.Timeframe, s.Date, s.Value, s.Source, s.FetchedAt)
	return err
}

func (r *sampleRepo) ListForComposite(ctx context.Context, ipID uuid.UUID, geo, timeframe string) ([]domain.Sample, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var samples []domain.Sample
	const q = `
		SELECT s.id, s.ip_id, s.alias_id, s.geo, s.timeframe, s.date, s.value, s.source, s.fetched_at
		FROM samples s
		JOIN aliases a ON a.id = s.alias_id
		WHERE s.ip_id = $1 AND s.geo = $2 AND s.timeframe = $3 AND a.enabled = true
		ORDER BY s.date`
	if err := r.db.SelectContext(ctx, &samples, q, ipID, geo, timeframe); err != nil {
		return nil, err
	}
	return samples, nil
}

func (r *sampleRepo) ListByAliasSince(ctx context.Context, aliasID uuid.UUID, since time.Time) ([]domain.Sample, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var samples []domain.Sample
	const q = `
		SELECT id, ip_id, alias_id, geo, timeframe, date, value, source, fetched_at
		FROM samples WHERE alias_id = $1 AND date >= $2 ORDER BY date`
	if err := r.db.SelectContext(ctx, &samples, q, aliasID, since); err != nil {
		return nil, err
	}
	return samples, nil
}
