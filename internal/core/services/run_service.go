package services

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"model-training-step/internal/core/domain"
	"model-training-step/internal/core/ports/output"
)

type RunService struct {
	runs      ports.RunRepository
	artifacts ports.ArtifactStore
	registry  ports.ModelRegistry

	modelFramework   string
	modelDescription string
}

type RunServiceOption func(*RunService)

// WithModelFramework sets the framework recorded on registered versions.
func WithModelFramework(framework string) RunServiceOption {
	return func(s *RunService) { s.modelFramework = framework }
}

// WithModelDescription sets the description recorded on registered models and versions.
func WithModelDescription(description string) RunServiceOption {
	return func(s *RunService) { s.modelDescription = description }
}

func NewRunService(runs ports.RunRepository, artifacts ports.ArtifactStore, registry ports.ModelRegistry, opts ...RunServiceOption) *RunService {
	s := &RunService{runs: runs, artifacts: artifacts, registry: registry}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Acquire returns the handle for runID, which must be RUNNING. An empty runID
// starts a new run in experiment instead.
func (s *RunService) Acquire(ctx context.Context, runID string, experiment string) (*Run, error) {
	if runID == "" {
		run := domain.NewRun(experiment)
		if err := s.runs.Create(ctx, run); err != nil {
			return nil, fmt.Errorf("start run: %w", err)
		}
		log.WithFields(log.Fields{
			"run_id":     run.ID,
			"experiment": experiment,
		}).Info("started new run")
		return s.newRun(run, false), nil
	}

	run, err := s.runs.Get(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run.Status != domain.RunStatusRunning {
		return nil, fmt.Errorf("%w: %s is %s", domain.ErrRunNotActive, runID, run.Status)
	}

	log.WithField("run_id", run.ID).Info("attached to run")
	return s.newRun(run, true), nil
}

func (s *RunService) newRun(run *domain.Run, resumed bool) *Run {
	r := NewRun(run, s.runs, s.artifacts, s.registry)
	r.resumed = resumed
	r.modelFramework = s.modelFramework
	r.modelDescription = s.modelDescription
	return r
}
