package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/MaxShih147/brew-signal/internal/domain"
	"github.com/MaxShih147/brew-signal/internal/store"
)

type ipRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

func (r *ipRepo) Create(ctx context.Context, ip domain.IP) (domain.IP, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	if ip.ID == uuid.Nil {
		ip.ID = uuid.New()
	}
	const q = `
		INSERT INTO ips (id, name, external_ref_id, created_at)
		VALUES ($1, $2, $3, now())
		RETURNING created_at`
	if err := r.db.QueryRowxContext(ctx, q, ip.ID, ip.Name, ip.ExternalRefID).Scan(&ip.CreatedAt); err != nil {
		return domain.IP{}, err
	}
	return ip, nil
}

func (r *ipRepo) Get(ctx context.Context, id uuid.UUID) (domain.IP, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var ip domain.IP
	const q = `SELECT id, name, external_ref_id, created_at FROM ips WHERE id = $1`
	if err := r.db.GetContext(ctx, &ip, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.IP{}, store.ErrNotFound
		}
		return domain.IP{}, err
	}
	return ip, nil
}

func (r *ipRepo) List(ctx context.Context) ([]domain.IP, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var ips []domain.IP
	const q = `SELECT id, name, external_ref_id, created_at FROM ips ORDER BY name`
	if err := r.db.SelectContext(ctx, &ips, q); err != nil {
		return nil, err
	}
	return ips, nil
}

func (r *ipRepo) Update(ctx context.Context, ip domain.IP) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	const q = `UPDATE ips SET name = $2, external_ref_id = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, ip.ID, ip.Name, ip.ExternalRefID)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (r *ipRepo) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	const q = `DELETE FROM ips WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
