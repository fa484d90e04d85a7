package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/MaxShih147/brew-signal/internal/domain"
)

type merchProductCountRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// Upsert writes one (ip, platform) row, unique on the pair, per
// spec.md §6. The launch-timing engine's saturation term sums these
// across platforms.
func (r *merchProductCountRepo) Upsert(ctx context.Context, m domain.MerchProductCount) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	const q = `
		INSERT INTO merch_product_counts (ip_id, platform, product_count, fetched_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (ip_id, platform) DO UPDATE SET
			product_count = EXCLUDED.product_count,
			fetched_at = EXCLUDED.fetched_at`
	_, err := r.db.ExecContext(ctx, q, m.IPID, m.Platform, m.ProductCount, m.FetchedAt)
	return err
}

func (r *merchProductCountRepo) ListByIP(ctx context.Context, ipID uuid.UUID) ([]domain.MerchProductCount, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var rows []domain.MerchProductCount
	const q = `SELECT ip_id, platform, product_count, fetched_at FROM merch_product_counts WHERE ip_id = $1`
	if err := r.db.SelectContext(ctx, &rows, q, ipID); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *merchProductCountRepo) Total(ctx context.Context, ipID uuid.UUID) (int, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var total int
	const q = `SELECT COALESCE(SUM(product_count), 0) FROM merch_product_counts WHERE ip_id = $1`
	if err := r.db.GetContext(ctx, &total, q, ipID); err != nil {
		return 0, err
	}
	return total, nil
}
