package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/MaxShih147/brew-signal/internal/domain"
)

type confidenceRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// Upsert writes the IPConfidence row, upserted on every recompute per
// spec.md §4.7. MissingSources/MissingIndicators are stored as
// comma-joined text rather than a separate table — they are explanatory
// output, not queried state.
func (r *confidenceRepo) Upsert(ctx context.Context, c domain.IPConfidence) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	const q = `
		INSERT INTO ip_confidence
			(ip_id, confidence_score, confidence_band, active_indicators, total_indicators,
			 active_sources, expected_sources, missing_sources, missing_indicators, last_calculated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (ip_id) DO UPDATE SET
			confidence_score = EXCLUDED.confidence_score,
			confidence_band = EXCLUDED.confidence_band,
			active_indicators = EXCLUDED.active_indicators,
			total_indicators = EXCLUDED.total_indicators,
			active_sources = EXCLUDED.active_sources,
			expected_sources = EXCLUDED.expected_sources,
			missing_sources = EXCLUDED.missing_sources,
			missing_indicators = EXCLUDED.missing_indicators,
			last_calculated_at = EXCLUDED.last_calculated_at`
	_, err := r.db.ExecContext(ctx, q, c.IPID, c.ConfidenceScore, c.ConfidenceBand, c.ActiveIndicators, c.TotalIndicators,
		c.ActiveSources, c.ExpectedSources, strings.Join(c.MissingSources, ","), strings.Join(c.MissingIndicators, ","), c.LastCalculatedAt)
	return err
}

func (r *confidenceRepo) Get(ctx context.Context, ipID uuid.UUID) (*domain.IPConfidence, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var row struct {
		domain.IPConfidence
		MissingSourcesRaw    string `db:"missing_sources"`
		MissingIndicatorsRaw string `db:"missing_indicators"`
	}
	const q = `
		SELECT ip_id, confidence_score, confidence_band, active_indicators, total_indicators,
			active_sources, expected_sources, missing_sources, missing_indicators, last_calculated_at
		FROM ip_confidence WHERE ip_id = $1`
	if err := r.db.GetContext(ctx, &row, q, ipID); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	out := row.IPConfidence
	if row.MissingSourcesRaw != "" {
		out.MissingSources = strings.Split(row.MissingSourcesRaw, ",")
	}
	if row.MissingIndicatorsRaw != "" {
		out.MissingIndicators = strings.Split(row.MissingIndicatorsRaw, ",")
	}
	return &out, nil
}
