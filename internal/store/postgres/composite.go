package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/MaxShih147/brew-signal/internal/domain"
)

type compositeRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// ReplaceSeries deletes every existing row for (ipID, geo, timeframe)
// and inserts rows inside one transaction, keeping CompositeDaily fully
// reproducible from Samples (spec.md §4.2) and honouring the
// "disable-zero" law — an empty rows slice simply clears the series.
func (r *compositeRepo) ReplaceSeries(ctx context.Context, ipID uuid.UUID, geo, timeframe string, rows []domain.CompositeDaily) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const del = `DELETE FROM composite_daily WHERE ip_id = $1 AND geo = $2 AND timeframe = $3`
	if _, err := tx.ExecContext(ctx, del, ipID, geo, timeframe); err != nil {
		return err
	}

	const ins = `
		INSERT INTO composite_daily
			(ip_id, geo, timeframe, date, composite_value, ma7, ma28, wow_growth, acceleration, breakout_percentile, signal_light)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	for _, row := range rows {
		if _, err := tx.ExecContext(ctx, ins, ipID, geo, timeframe, row.Date, row.CompositeValue,
			row.MA7, row.MA28, row.WoWGrowth, row.Acceleration, row.BreakoutPercentile, row.SignalLight); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *compositeRepo) ListSeries(ctx context.Context, ipID uuid.UUID, geo, timeframe string) ([]domain.CompositeDaily, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var rows []domain.CompositeDaily
	const q = `
		SELECT ip_id, geo, timeframe, date, composite_value, ma7, ma28, wow_growth, acceleration, breakout_percentile, signal_light
		FROM composite_daily WHERE ip_id = $1 AND geo = $2 AND timeframe = $3 ORDER BY date`
	if err := r.db.SelectContext(ctx, &rows, q, ipID, geo, timeframe); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *compositeRepo) Latest(ctx context.Context, ipID uuid.UUID, geo, timeframe string) (*domain.CompositeDaily, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var row domain.CompositeDaily
	const q = `
		SELECT ip_id, geo, timeframe, date, composite_value, ma7, ma28, wow_growth, acceleration, breakout_percentile, signal_light
		FROM composite_daily WHERE ip_id = $1 AND geo = $2 AND timeframe = $3
		ORDER BY date DESC LIMIT 1`
	if err := r.db.GetContext(ctx, &row, q, ipID, geo, timeframe); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}
