package training

import (
	"context"

	log "github.com/sirupsen/logrus"

	"model-training-step/internal/core/domain"
	"model-training-step/internal/core/ports/output"
)

// PlaceholderTrainer stands in for a real algorithm. It reads nothing and
// returns an empty model.
type PlaceholderTrainer struct{}

func NewPlaceholderTrainer() ports.Trainer {
	return &PlaceholderTrainer{}
}

func (t *PlaceholderTrainer) Train(ctx context.Context, input domain.TrainingInput) (domain.TrainedModel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// TODO: read features from DataDir/InputCSVFile once a real model replaces this one.
	log.WithFields(log.Fields{
		"data_dir":           input.DataDir,
		"input_csv_file":     input.InputCSVFile,
		"sparsity_threshold": input.SparsityThreshold,
	}).Debug("placeholder trainer ignores its input")

	return domain.TrainedModel{}, nil
}
