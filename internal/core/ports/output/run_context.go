package ports

import (
	"context"

	"model-training-step/internal/core/domain"
)

// RunContext is the handle one pipeline execution reports through.
type RunContext interface {
	ID() string
	Log(ctx context.Context, name string, value float64) error
	GetFileNames(ctx context.Context) ([]string, error)
	UploadFile(ctx context.Context, name string, localPath string) error
	RegisterModel(ctx context.Context, modelName string, modelPath string) (*domain.Model, error)
	Complete(ctx context.Context) error
	Fail(ctx context.Context, cause error) error
}
