package services

import (
	"context"
	"fmt"
	"io"
	"time"

	log "github.com/sirupsen/logrus"

	"model-training-step/internal/core/domain"
	"model-training-step/internal/core/ports/output"
)

// ProgressMetric is the metric the step reports its position through.
const ProgressMetric = "Training step"

// failTimeout bounds marking a run failed. That call is detached from the
// caller's context, which an interrupt cancels.
const failTimeout = 10 * time.Second

type PipelineParams struct {
	DataDir           string
	InputCSVFile      string
	ModelName         string
	SparsityThreshold float64
}

type PipelineResult struct {
	Model        *domain.Model
	ArtifactPath string
	FileNames    []string
}

type PipelineService struct {
	training *TrainingService
	out      io.Writer
}

// NewPipelineService writes the registered model line to out.
func NewPipelineService(training *TrainingService, out io.Writer) *PipelineService {
	if out == nil {
		out = io.Discard
	}
	return &PipelineService{training: training, out: out}
}

// Execute trains, uploads and registers the model, then completes run.
// The first failing step stops the sequence and marks run failed.
func (s *PipelineService) Execute(ctx context.Context, run ports.RunContext, params PipelineParams) (*PipelineResult, error) {
	result, err := s.execute(ctx, run, params)
	if err != nil {
		failCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failTimeout)
		defer cancel()
		if failErr := run.Fail(failCtx, err); failErr != nil {
			log.WithError(failErr).WithField("run_id", run.ID()).Warn("could not mark run failed")
		}
		return nil, err
	}
	return result, nil
}

func (s *PipelineService) execute(ctx context.Context, run ports.RunContext, params PipelineParams) (*PipelineResult, error) {
	if params.ModelName == "" {
		return nil, domain.ErrInvalidModelName
	}

	if err := s.progress(ctx, run, 1); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"run_id":             run.ID(),
		"data_dir":           params.DataDir,
		"input_csv_file":     params.InputCSVFile,
		"sparsity_threshold": params.SparsityThreshold,
	}).Info("training model")

	_, artifactPath, err := s.training.Train(ctx, domain.TrainingInput{
		DataDir:           params.DataDir,
		InputCSVFile:      params.InputCSVFile,
		SparsityThreshold: params.SparsityThreshold,
	})
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}

	if err := s.progress(ctx, run, 2); err != nil {
		return nil, err
	}
	log.WithField("run_id", run.ID()).Info("model trained")

	names, err := run.GetFileNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("list run files: %w", err)
	}
	log.WithFields(log.Fields{
		"run_id": run.ID(),
		"files":  names,
	}).Info("run files before upload")

	if err := run.UploadFile(ctx, domain.LocalModelFile, artifactPath); err != nil {
		return nil, fmt.Errorf("upload artifact: %w", err)
	}

	model, err := run.RegisterModel(ctx, params.ModelName, domain.LocalModelFile)
	if err != nil {
		return nil, fmt.Errorf("register model: %w", err)
	}
	fmt.Fprintf(s.out, "%s\t%s\t%d\n", model.Name, model.ID, model.Version)

	if err := s.progress(ctx, run, 3); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"run_id":  run.ID(),
		"model":   model.Name,
		"version": model.Version,
	}).Info("model registered")

	if err := run.Complete(ctx); err != nil {
		return nil, fmt.Errorf("complete run: %w", err)
	}

	return &PipelineResult{
		Model:        model,
		ArtifactPath: artifactPath,
		FileNames:    names,
	}, nil
}

func (s *PipelineService) progress(ctx context.Context, run ports.RunContext, step float64) error {
	if err := run.Log(ctx, ProgressMetric, step); err != nil {
		return fmt.Errorf("log progress %v: %w", step, err)
	}
	return nil
}
