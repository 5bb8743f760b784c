package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"model-training-step/internal/core/domain"
	"model-training-step/internal/core/ports/output"
)

type runRepo struct {
	pool *pgxpool.Pool
}

func NewRunRepository(pool *pgxpool.Pool) ports.RunRepository {
	return &runRepo{pool: pool}
}

func (r *runRepo) Create(ctx context.Context, run *domain.Run) error {
	query := `
		INSERT INTO tracking_run (id, experiment, status, started_at, ended_at, error)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		run.ID, run.Experiment, string(run.Status), run.StartedAt, run.EndedAt, run.Error,
	)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

func (r *runRepo) Get(ctx context.Context, runID string) (*domain.Run, error) {
	query := `
		SELECT id, experiment, status, started_at, ended_at, error
		FROM tracking_run
		WHERE id = $1
	`
	run := &domain.Run{}
	err := r.pool.QueryRow(ctx, query, runID).Scan(
		&run.ID, &run.Experiment, &run.Status, &run.StartedAt, &run.EndedAt, &run.Error,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRunNotFound
		}
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

func (r *runRepo) UpdateStatus(ctx context.Context, run *domain.Run) error {
	query := `
		UPDATE tracking_run
		SET status = $1, ended_at = $2, error = $3
		WHERE id = $4
	`
	result, err := r.pool.Exec(ctx, query, string(run.Status), run.EndedAt, run.Error, run.ID)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrRunNotFound
	}
	return nil
}

func (r *runRepo) LogMetric(ctx context.Context, runID string, metric domain.Metric) error {
	query := `
		INSERT INTO tracking_metric (run_id, name, value, step, logged_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query, runID, metric.Name, metric.Value, metric.Step, metric.Timestamp)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return domain.ErrRunNotFound
		}
		return fmt.Errorf("log metric: %w", err)
	}
	return nil
}

// ListMetrics returns metrics in logging order. An empty name returns all of them.
func (r *runRepo) ListMetrics(ctx context.Context, runID string, name string) ([]domain.Metric, error) {
	if _, err := r.Get(ctx, runID); err != nil {
		return nil, err
	}

	query := `
		SELECT name, value, step, logged_at
		FROM tracking_metric
		WHERE run_id = $1 AND ($2 = '' OR name = $2)
		ORDER BY id
	`
	rows, err := r.pool.Query(ctx, query, runID, name)
	if err != nil {
		return nil, fmt.Errorf("list metrics: %w", err)
	}
	defer rows.Close()

	metrics := []domain.Metric{}
	for rows.Next() {
		var m domain.Metric
		if err := rows.Scan(&m.Name, &m.Value, &m.Step, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("scan metric row: %w", err)
		}
		metrics = append(metrics, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate metric rows: %w", err)
	}
	return metrics, nil
}
