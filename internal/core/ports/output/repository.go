package ports

import (
	"context"
	"io"

	"model-training-step/internal/core/domain"
)

// RunRepository stores run lifecycle and metric history.
type RunRepository interface {
	Create(ctx context.Context, run *domain.Run) error
	Get(ctx context.Context, runID string) (*domain.Run, error)
	UpdateStatus(ctx context.Context, run *domain.Run) error
	LogMetric(ctx context.Context, runID string, metric domain.Metric) error
	ListMetrics(ctx context.Context, runID string, name string) ([]domain.Metric, error)
}

// ArtifactStore holds files uploaded to a run under their remote names.
type ArtifactStore interface {
	Upload(ctx context.Context, runID string, name string, content io.Reader) error
	List(ctx context.Context, runID string) ([]string, error)
	// URI is the location a registry should record for an uploaded file.
	URI(runID string, name string) string
}

// ModelRegistry records named, versioned pointers to uploaded artifacts.
type ModelRegistry interface {
	Register(ctx context.Context, req domain.RegisterModelRequest) (*domain.RegisteredModel, *domain.ModelVersion, error)
}
