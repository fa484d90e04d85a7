package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/MaxShih147/brew-signal/internal/domain"
)

type eventRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

func (r *eventRepo) Create(ctx context.Context, e domain.Event) (domain.Event, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	const q = `
		INSERT INTO events (id, ip_id, event_type, title, event_date, source, source_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		RETURNING created_at`
	if err := r.db.QueryRowxContext(ctx, q, e.ID, e.IPID, e.Type, e.Title, e.Date, e.Source, e.URL).Scan(&e.CreatedAt); err != nil {
		return domain.Event{}, err
	}
	return e, nil
}

func (r *eventRepo) ListByIP(ctx context.Context, ipID uuid.UUID) ([]domain.Event, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var events []domain.Event
	const q = `
		SELECT id, ip_id, event_type, title, event_date, source, source_url, created_at
		FROM events WHERE ip_id = $1 ORDER BY event_date`
	if err := r.db.SelectContext(ctx, &events, q, ipID); err != nil {
		return nil, err
	}
	return events, nil
}
