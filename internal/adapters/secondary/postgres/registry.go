package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"model-training-step/internal/core/domain"
	"model-training-step/internal/core/ports/output"
)

type modelRegistry struct {
	pool *pgxpool.Pool
}

func NewModelRegistry(pool *pgxpool.Pool) ports.ModelRegistry {
	return &modelRegistry{pool: pool}
}

// Register upserts the model row, which locks it for the rest of the
// transaction, then inserts the next version number.
func (r *modelRegistry) Register(ctx context.Context, req domain.RegisterModelRequest) (*domain.RegisteredModel, *domain.ModelVersion, error) {
	if req.ModelName == "" {
		return nil, nil, domain.ErrInvalidModelName
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	model, err := upsertModel(ctx, tx, req)
	if err != nil {
		return nil, nil, err
	}

	var next int
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(version), 0) + 1 FROM model_version WHERE registered_model_id = $1`,
		model.ID,
	).Scan(&next)
	if err != nil {
		return nil, nil, fmt.Errorf("next model version: %w", err)
	}

	version, err := insertVersion(ctx, tx, model.ID, next, req)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit registration: %w", err)
	}
	return model, version, nil
}

func upsertModel(ctx context.Context, tx pgx.Tx, req domain.RegisterModelRequest) (*domain.RegisteredModel, error) {
	now := time.Now().UTC()
	query := `
		INSERT INTO registered_model (id, created_at, updated_at, name, description, state, labels)
		VALUES ($1, $2, $2, $3, $4, $5, '{}')
		ON CONFLICT (name) DO UPDATE SET updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, updated_at, name, description, state, labels
	`
	m := &domain.RegisteredModel{}
	var labelsJSON []byte
	err := tx.QueryRow(ctx, query,
		uuid.New(), now, req.ModelName, req.Description, string(domain.ModelStateLive),
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt, &m.Name, &m.Description, &m.State, &labelsJSON)
	if err != nil {
		return nil, fmt.Errorf("upsert registered model: %w", err)
	}

	if len(labelsJSON) > 0 {
		if err := json.Unmarshal(labelsJSON, &m.Labels); err != nil {
			return nil, fmt.Errorf("unmarshal labels: %w", err)
		}
	}
	return m, nil
}

func insertVersion(ctx context.Context, tx pgx.Tx, modelID uuid.UUID, next int, req domain.RegisterModelRequest) (*domain.ModelVersion, error) {
	labels := req.Labels
	if labels == nil {
		labels = map[string]string{}
	}
	labelsJSON, err := json.Marshal(labels)
	if err != nil {
		return nil, fmt.Errorf("marshal labels: %w", err)
	}

	now := time.Now().UTC()
	v := &domain.ModelVersion{
		ID:                uuid.New(),
		CreatedAt:         now,
		UpdatedAt:         now,
		RegisteredModelID: modelID,
		Name:              domain.VersionName(next),
		Version:           next,
		Description:       req.Description,
		State:             domain.ModelStateLive,
		Status:            domain.VersionStatusReady,
		ArtifactType:      domain.ArtifactTypeModel,
		ModelFramework:    req.ModelFramework,
		URI:               req.URI,
		RunID:             req.RunID,
		Labels:            labels,
	}

	query := `
		INSERT INTO model_version
			(id, created_at, updated_at, registered_model_id, name, version,
			 description, state, status, artifact_type, model_framework,
			 uri, run_id, labels)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`
	_, err = tx.Exec(ctx, query,
		v.ID, v.CreatedAt, v.UpdatedAt, v.RegisteredModelID, v.Name, v.Version,
		v.Description, string(v.State), string(v.Status), string(v.ArtifactType), v.ModelFramework,
		v.URI, v.RunID, labelsJSON,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrVersionNameConflict
		}
		return nil, fmt.Errorf("create model version: %w", err)
	}
	return v, nil
}
