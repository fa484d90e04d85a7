package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/MaxShih147/brew-signal/internal/domain"
)

type videoMetricRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// Upsert writes one (ip, video_id) row, unique on the pair, per
// spec.md §6.
func (r *videoMetricRepo) Upsert(ctx context.Context, m domain.VideoMetric) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	const q = `
		INSERT INTO video_metrics (id, ip_id, video_id, title, view_count, like_count, comment_count, published_at, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (ip_id, video_id) DO UPDATE SET
			title = EXCLUDED.title,
			view_count = EXCLUDED.view_count,
			like_count = EXCLUDED.like_count,
			comment_count = EXCLUDED.comment_count,
			fetched_at = EXCLUDED.fetched_at`
	_, err := r.db.ExecContext(ctx, q, m.ID, m.IPID, m.VideoID, m.Title, m.ViewCount, m.LikeCount, m.CommentCount, m.PublishedAt, m.FetchedAt)
	return err
}

func (r *videoMetricRepo) ListByIP(ctx context.Context, ipID uuid.UUID) ([]domain.VideoMetric, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var rows []domain.VideoMetric
	const q = `
		SELECT id, ip_id, video_id, title, view_count, like_count, comment_count, published_at, fetched_at
		FROM video_metrics WHERE ip_id = $1 ORDER BY published_at DESC`
	if err := r.db.SelectContext(ctx, &rows, q, ipID); err != nil {
		return nil, err
	}
	return rows, nil
}
