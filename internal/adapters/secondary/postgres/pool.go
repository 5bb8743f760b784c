package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PoolConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewPool opens and pings a connection pool.
func NewPool(ctx context.Context, cfg PoolConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		poolCfg.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create db pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return pool, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS tracking_run (
	id          TEXT PRIMARY KEY,
	experiment  TEXT NOT NULL,
	status      TEXT NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL,
	ended_at    TIMESTAMPTZ,
	error       TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS tracking_metric (
	id         BIGSERIAL PRIMARY KEY,
	run_id     TEXT NOT NULL REFERENCES tracking_run(id) ON DELETE CASCADE,
	name       TEXT NOT NULL,
	value      DOUBLE PRECISION NOT NULL,
	step       BIGINT NOT NULL,
	logged_at  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS tracking_metric_run_name_idx ON tracking_metric (run_id, name, id);

CREATE TABLE IF NOT EXISTS registered_model (
	id          UUID PRIMARY KEY,
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL,
	name        TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT '',
	state       TEXT NOT NULL,
	labels      JSONB NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS model_version (
	id                  UUID PRIMARY KEY,
	created_at          TIMESTAMPTZ NOT NULL,
	updated_at          TIMESTAMPTZ NOT NULL,
	registered_model_id UUID NOT NULL REFERENCES registered_model(id),
	name                TEXT NOT NULL,
	version             INTEGER NOT NULL,
	description         TEXT NOT NULL DEFAULT '',
	state               TEXT NOT NULL,
	status              TEXT NOT NULL,
	artifact_type       TEXT NOT NULL,
	model_framework     TEXT NOT NULL DEFAULT '',
	uri                 TEXT NOT NULL,
	run_id              TEXT NOT NULL DEFAULT '',
	labels              JSONB NOT NULL DEFAULT '{}',
	UNIQUE (registered_model_id, version)
);
`

// EnsureSchema creates the tracking and registry tables when missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
