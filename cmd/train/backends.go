package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"model-training-step/internal/adapters/secondary/filesystem"
	"model-training-step/internal/adapters/secondary/mlflow"
	"model-training-step/internal/adapters/secondary/postgres"
	"model-training-step/internal/adapters/secondary/registry"
	"model-training-step/internal/config"
	"model-training-step/internal/core/domain"
	"model-training-step/internal/core/ports/output"
)

type backends struct {
	runs      ports.RunRepository
	artifacts ports.ArtifactStore
	registry  ports.ModelRegistry
	pool      *pgxpool.Pool
}

func (b *backends) Close() {
	if b.pool != nil {
		b.pool.Close()
	}
}

// openBackends builds the tracking and registry adapters named by cfg.
// Postgres-backed runs keep their files in the offline artifact store.
func openBackends(ctx context.Context, cfg *config.Config) (*backends, error) {
	b := &backends{}

	if cfg.UsesDatabase() {
		pool, err := postgres.NewPool(ctx, postgres.PoolConfig{
			DSN:             cfg.Database.DSN(),
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		})
		if err != nil {
			return nil, err
		}
		b.pool = pool
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			b.Close()
			return nil, err
		}
		log.Info("database connection established")
	}

	switch cfg.Tracking.Backend {
	case config.TrackingOffline:
		b.runs = filesystem.NewRunRepository(cfg.Tracking.Dir)
		b.artifacts = filesystem.NewArtifactStore(cfg.Tracking.Dir)
	case config.TrackingMLflow:
		client := mlflow.NewClient(cfg.Tracking.URL, cfg.Tracking.Timeout)
		b.runs = mlflow.NewRunRepository(client)
		b.artifacts = mlflow.NewArtifactStore(client)
	case config.TrackingPostgres:
		b.runs = postgres.NewRunRepository(b.pool)
		b.artifacts = filesystem.NewArtifactStore(cfg.Tracking.Dir)
	default:
		b.Close()
		return nil, fmt.Errorf("%w: tracking %q", domain.ErrUnknownBackend, cfg.Tracking.Backend)
	}

	switch cfg.Registry.Backend {
	case config.RegistryLocal:
		b.registry = filesystem.NewModelRegistry(cfg.Tracking.Dir)
	case config.RegistryHTTP:
		projectID, err := parseProjectID(cfg.Registry.ProjectID)
		if err != nil {
			b.Close()
			return nil, err
		}
		reg, err := registry.NewModelRegistry(registry.Config{
			URL:                   cfg.Registry.URL,
			ProjectID:             projectID,
			Timeout:               cfg.Registry.Timeout,
			ModelFramework:        cfg.Registry.ModelFramework,
			ModelFrameworkVersion: cfg.Registry.ModelFrameworkVersion,
		})
		if err != nil {
			b.Close()
			return nil, err
		}
		b.registry = reg
	case config.RegistryPostgres:
		b.registry = postgres.NewModelRegistry(b.pool)
	default:
		b.Close()
		return nil, fmt.Errorf("%w: registry %q", domain.ErrUnknownBackend, cfg.Registry.Backend)
	}

	return b, nil
}

func parseProjectID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, domain.ErrMissingProjectID
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse REGISTRY_PROJECT_ID: %w", err)
	}
	return id, nil
}
