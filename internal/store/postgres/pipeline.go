package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/MaxShih147/brew-signal/internal/domain"
	"github.com/MaxShih147/brew-signal/internal/store"
)

type pipelineRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

func (r *pipelineRepo) Get(ctx context.Context, ipID uuid.UUID) (*domain.IPPipeline, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var p domain.IPPipeline
	const q = `
		SELECT ip_id, stage, target_date, licence_window_start, licence_window_end, minimum_guarantee, bd_score, bd_decision
		FROM ip_pipelines WHERE ip_id = $1`
	if err := r.db.GetContext(ctx, &p, q, ipID); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// Create inserts the pipeline row for ipID, failing with
// store.ErrAlreadyExists if one already exists (spec.md §7's 409 path).
func (r *pipelineRepo) Create(ctx context.Context, p domain.IPPipeline) (domain.IPPipeline, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	const q = `
		INSERT INTO ip_pipelines (ip_id, stage, target_date, licence_window_start, licence_window_end, minimum_guarantee, bd_score, bd_decision)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, q, p.IPID, p.Stage, p.TargetDate, p.LicenceWindowStart, p.LicenceWindowEnd, p.MinimumGuarantee, p.BDScore, p.BDDecision)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return domain.IPPipeline{}, store.ErrAlreadyExists
		}
		return domain.IPPipeline{}, err
	}
	return p, nil
}

func (r *pipelineRepo) Update(ctx context.Context, p domain.IPPipeline) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	const q = `
		UPDATE ip_pipelines SET stage = $2, target_date = $3, licence_window_start = $4,
			licence_window_end = $5, minimum_guarantee = $6, bd_score = $7, bd_decision = $8
		WHERE ip_id = $1`
	res, err := r.db.ExecContext(ctx, q, p.IPID, p.Stage, p.TargetDate, p.LicenceWindowStart, p.LicenceWindowEnd, p.MinimumGuarantee, p.BDScore, p.BDDecision)
	if err != nil {
		return err
	}
	return checkAffected(res)
}
