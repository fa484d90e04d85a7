// Package postgres implements the internal/store contracts on top of
// jmoiron/sqlx and lib/pq, the persistence stack the upstream scanner's
// internal/persistence/postgres package uses, adapted from a single
// trade-ledger schema to brew-signal's IP/alias/sample/composite
// entity set.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/MaxShih147/brew-signal/internal/store"
)

// Open connects to Postgres via dsn and configures the pool per
// spec.md §6's DatabaseConfig.
func Open(dsn string, maxOpen, maxIdle int, connMaxLife time.Duration) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(connMaxLife)
	return db, nil
}

// NewStore wires every repository onto one *sqlx.DB, each scoped to the
// same per-call query timeout.
func NewStore(db *sqlx.DB, timeout time.Duration) store.Store {
	return store.Store{
		IPs:              &ipRepo{db: db, timeout: timeout},
		Aliases:          &aliasRepo{db: db, timeout: timeout},
		Samples:          &sampleRepo{db: db, timeout: timeout},
		Composites:       &compositeRepo{db: db, timeout: timeout},
		Events:           &eventRepo{db: db, timeout: timeout},
		SourceRegistry:   &sourceRegistryRepo{db: db, timeout: timeout},
		SourceRuns:       &sourceRunRepo{db: db, timeout: timeout},
		SourceHealth:     &sourceHealthRepo{db: db, timeout: timeout},
		Confidence:       &confidenceRepo{db: db, timeout: timeout},
		ManualIndicators: &manualIndicatorRepo{db: db, timeout: timeout},
		VideoMetrics:     &videoMetricRepo{db: db, timeout: timeout},
		MerchCounts:      &merchProductCountRepo{db: db, timeout: timeout},
		Pipelines:        &pipelineRepo{db: db, timeout: timeout},
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, d)
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
