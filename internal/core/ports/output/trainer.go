package ports

import (
	"context"

	"model-training-step/internal/core/domain"
)

// Trainer produces a model from the training input.
type Trainer interface {
	Train(ctx context.Context, input domain.TrainingInput) (domain.TrainedModel, error)
}
