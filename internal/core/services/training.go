package services

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"model-training-step/internal/core/domain"
	"model-training-step/internal/core/ports/output"
)

type TrainingService struct {
	trainer   ports.Trainer
	outputDir string
}

func NewTrainingService(trainer ports.Trainer, outputDir string) *TrainingService {
	if outputDir == "" {
		outputDir = domain.DefaultOutputDir
	}
	return &TrainingService{trainer: trainer, outputDir: outputDir}
}

// ArtifactPath is the local file Train writes.
func (s *TrainingService) ArtifactPath() string {
	return filepath.Join(s.outputDir, domain.LocalModelFile)
}

// Train validates the input, runs the trainer and saves its model to
// ArtifactPath. The returned path exists whenever err is nil.
func (s *TrainingService) Train(ctx context.Context, input domain.TrainingInput) (domain.TrainedModel, string, error) {
	if err := ValidateTrainingInput(input); err != nil {
		return nil, "", err
	}

	model, err := s.trainer.Train(ctx, input)
	if err != nil {
		return nil, "", fmt.Errorf("train model: %w", err)
	}
	if model == nil {
		model = domain.TrainedModel{}
	}

	path := s.ArtifactPath()
	if err := saveModel(path, model); err != nil {
		return nil, "", err
	}

	log.WithField("path", path).Info("model saved")
	return model, path, nil
}

// ValidateTrainingInput checks that the data directory exists and that the
// CSV file in it has a readable header row.
func ValidateTrainingInput(input domain.TrainingInput) error {
	info, err := os.Stat(input.DataDir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidDataDir, input.DataDir)
	}

	if input.InputCSVFile == "" {
		return fmt.Errorf("%w: no file name given", domain.ErrInputFileUnreadable)
	}
	csvPath := filepath.Join(input.DataDir, input.InputCSVFile)
	f, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInputFileUnreadable, err)
	}
	defer f.Close()

	if _, err := csv.NewReader(f).Read(); err != nil {
		return fmt.Errorf("%w: %s: read header: %v", domain.ErrInputFileUnreadable, csvPath, err)
	}
	return nil
}

func saveModel(path string, model domain.TrainedModel) error {
	data, err := json.Marshal(model)
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", domain.ErrArtifactWrite, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrArtifactWrite, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".model-*")
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrArtifactWrite, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", domain.ErrArtifactWrite, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrArtifactWrite, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrArtifactWrite, err)
	}
	return nil
}
