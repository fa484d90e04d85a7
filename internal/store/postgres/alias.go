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

type aliasRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

func (r *aliasRepo) Create(ctx context.Context, a domain.Alias) (domain.Alias, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.OriginalWeight == 0 {
		a.OriginalWeight = a.Weight
	}
	const q = `
		INSERT INTO aliases (id, ip_id, alias, locale, weight, original_weight, enabled)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := r.db.ExecContext(ctx, q, a.ID, a.IPID, a.Text, a.Locale, a.Weight, a.OriginalWeight, a.Enabled); err != nil {
		return domain.Alias{}, err
	}
	return a, nil
}

func (r *aliasRepo) ListByIP(ctx context.Context, ipID uuid.UUID) ([]domain.Alias, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var aliases []domain.Alias
	const q = `SELECT id, ip_id, alias, locale, weight, original_weight, enabled FROM aliases WHERE ip_id = $1`
	if err := r.db.SelectContext(ctx, &aliases, q, ipID); err != nil {
		return nil, err
	}
	return aliases, nil
}

func (r *aliasRepo) ListEnabledByIP(ctx context.Context, ipID uuid.UUID) ([]domain.Alias, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var aliases []domain.Alias
	const q = `SELECT id, ip_id, alias, locale, weight, original_weight, enabled
		FROM aliases WHERE ip_id = $1 AND enabled = true`
	if err := r.db.SelectContext(ctx, &aliases, q, ipID); err != nil {
		return nil, err
	}
	return aliases, nil
}

func (r *aliasRepo) Get(ctx context.Context, id uuid.UUID) (domain.Alias, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var a domain.Alias
	const q = `SELECT id, ip_id, alias, locale, weight, original_weight, enabled FROM aliases WHERE id = $1`
	if err := r.db.GetContext(ctx, &a, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Alias{}, store.ErrNotFound
		}
		return domain.Alias{}, err
	}
	return a, nil
}

func (r *aliasRepo) Update(ctx context.Context, a domain.Alias) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	const q = `UPDATE aliases SET alias = $2, locale = $3, weight = $4, enabled = $5 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, a.ID, a.Text, a.Locale, a.Weight, a.Enabled)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (r *aliasRepo) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	const q = `DELETE FROM aliases WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (r *aliasRepo) ResetWeight(ctx context.Context, id uuid.UUID) (domain.Alias, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var a domain.Alias
	const q = `
		UPDATE aliases SET weight = original_weight WHERE id = $1
		RETURNING id, ip_id, alias, locale, weight, original_weight, enabled`
	if err := r.db.GetContext(ctx, &a, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Alias{}, store.ErrNotFound
		}
		return domain.Alias{}, err
	}
	return a, nil
}
