package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"model-training-step/internal/core/domain"
	"model-training-step/internal/core/ports/output"
)

// Run is the RunContext backed by a run repository, an artifact store and a
// model registry.
type Run struct {
	mu        sync.Mutex
	run       domain.Run
	runs      ports.RunRepository
	artifacts ports.ArtifactStore
	registry  ports.ModelRegistry
	steps     map[string]int64

	// resumed runs may already hold metric history; seeded marks the names
	// whose step counter has been loaded from it.
	resumed bool
	seeded  map[string]bool

	modelFramework   string
	modelDescription string
}

var _ ports.RunContext = (*Run)(nil)

func NewRun(run *domain.Run, runs ports.RunRepository, artifacts ports.ArtifactStore, registry ports.ModelRegistry) *Run {
	return &Run{
		run:       *run,
		runs:      runs,
		artifacts: artifacts,
		registry:  registry,
		steps:     make(map[string]int64),
		seeded:    make(map[string]bool),
	}
}

func (r *Run) ID() string {
	return r.run.ID
}

// Status returns the last status this handle recorded.
func (r *Run) Status() domain.RunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.run.Status
}

// Log appends a value to the named metric. Steps count from zero per name.
func (r *Run) Log(ctx context.Context, name string, value float64) error {
	if name == "" {
		return domain.ErrInvalidMetricName
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkActive(); err != nil {
		return err
	}

	if err := r.seedStep(ctx, name); err != nil {
		return err
	}

	metric := domain.Metric{
		Name:      name,
		Value:     value,
		Step:      r.steps[name],
		Timestamp: time.Now().UTC(),
	}
	if err := r.runs.LogMetric(ctx, r.run.ID, metric); err != nil {
		return err
	}
	r.steps[name]++

	log.WithFields(log.Fields{
		"run_id": r.run.ID,
		"metric": name,
		"value":  value,
		"step":   metric.Step,
	}).Debug("metric logged")
	return nil
}

// seedStep continues a resumed run's counter for name after its last
// recorded step. Callers hold r.mu.
func (r *Run) seedStep(ctx context.Context, name string) error {
	if !r.resumed || r.seeded[name] {
		return nil
	}

	history, err := r.runs.ListMetrics(ctx, r.run.ID, name)
	if err != nil {
		return fmt.Errorf("load %q history: %w", name, err)
	}
	for _, m := range history {
		if m.Step >= r.steps[name] {
			r.steps[name] = m.Step + 1
		}
	}
	r.seeded[name] = true
	return nil
}

func (r *Run) GetFileNames(ctx context.Context) ([]string, error) {
	names, err := r.artifacts.List(ctx, r.run.ID)
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// UploadFile copies localPath into the run under name. Names are write-once.
func (r *Run) UploadFile(ctx context.Context, name string, localPath string) error {
	if name == "" {
		return domain.ErrInvalidFileName
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkActive(); err != nil {
		return err
	}

	f, err := os.Open(localPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", domain.ErrLocalFileNotFound, localPath)
		}
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	existing, err := r.artifacts.List(ctx, r.run.ID)
	if err != nil {
		return err
	}
	if contains(existing, name) {
		return fmt.Errorf("%w: %s", domain.ErrFileNameConflict, name)
	}

	if err := r.artifacts.Upload(ctx, r.run.ID, name, f); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"run_id": r.run.ID,
		"name":   name,
		"path":   localPath,
	}).Info("file uploaded")
	return nil
}

// RegisterModel records modelPath, which must already be uploaded to this
// run, as a new version of modelName.
func (r *Run) RegisterModel(ctx context.Context, modelName string, modelPath string) (*domain.Model, error) {
	if modelName == "" {
		return nil, domain.ErrInvalidModelName
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkActive(); err != nil {
		return nil, err
	}

	files, err := r.artifacts.List(ctx, r.run.ID)
	if err != nil {
		return nil, err
	}
	if !contains(files, modelPath) {
		return nil, fmt.Errorf("%w: %s", domain.ErrArtifactNotUploaded, modelPath)
	}

	model, version, err := r.registry.Register(ctx, domain.RegisterModelRequest{
		ModelName:      modelName,
		ModelPath:      modelPath,
		RunID:          r.run.ID,
		URI:            r.artifacts.URI(r.run.ID, modelPath),
		Description:    r.modelDescription,
		ModelFramework: r.modelFramework,
		Labels: map[string]string{
			"run_id":     r.run.ID,
			"model_path": modelPath,
		},
	})
	if err != nil {
		return nil, err
	}

	return version.ToModel(model.Name), nil
}

func (r *Run) Complete(ctx context.Context) error {
	return r.finish(ctx, domain.RunStatusCompleted, "")
}

// Fail marks the run failed and records cause.
func (r *Run) Fail(ctx context.Context, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return r.finish(ctx, domain.RunStatusFailed, msg)
}

func (r *Run) finish(ctx context.Context, status domain.RunStatus, msg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkActive(); err != nil {
		return err
	}

	now := time.Now().UTC()
	updated := r.run
	updated.Status = status
	updated.EndedAt = &now
	updated.Error = msg

	if err := r.runs.UpdateStatus(ctx, &updated); err != nil {
		return err
	}
	r.run = updated

	log.WithFields(log.Fields{
		"run_id": r.run.ID,
		"status": status,
	}).Info("run finished")
	return nil
}

func (r *Run) checkActive() error {
	if r.run.Status.IsTerminal() {
		return fmt.Errorf("%w: %s is %s", domain.ErrRunNotActive, r.run.ID, r.run.Status)
	}
	return nil
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
