package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/MaxShih147/brew-signal/internal/domain"
)

type manualIndicatorRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// Upsert writes one (ip, indicator_key) row, unique on the pair, per
// spec.md §6. Callers validate value in [0,1] and the key against the
// fixed MANUAL set before calling (spec.md §7's 400 path).
func (r *manualIndicatorRepo) Upsert(ctx context.Context, in domain.ManualIndicatorInput) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	const q = `
		INSERT INTO manual_indicator_inputs (ip_id, indicator_key, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (ip_id, indicator_key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = now()`
	_, err := r.db.ExecContext(ctx, q, in.IPID, in.IndicatorKey, in.Value)
	return err
}

func (r *manualIndicatorRepo) ListByIP(ctx context.Context, ipID uuid.UUID) ([]domain.ManualIndicatorInput, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var rows []domain.ManualIndicatorInput
	const q = `SELECT ip_id, indicator_key, value, updated_at FROM manual_indicator_inputs WHERE ip_id = $1`
	if err := r.db.SelectContext(ctx, &rows, q, ipID); err != nil {
		return nil, err
	}
	return rows, nil
}
