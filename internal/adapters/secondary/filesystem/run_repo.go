package filesystem

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"model-training-step/internal/core/domain"
	"model-training-step/internal/core/ports/output"
)

const (
	runFileName     = "run.json"
	metricsFileName = "metrics.jsonl"
)

// runRepo keeps each run in <root>/<run-id>/ with the run record in run.json
// and metrics appended to metrics.jsonl.
type runRepo struct {
	root string
	mu   sync.Mutex
}

func NewRunRepository(root string) ports.RunRepository {
	return &runRepo{root: root}
}

func (r *runRepo) Create(ctx context.Context, run *domain.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	dir := filepath.Join(r.root, run.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create run dir: %w", err)
	}
	if err := writeJSON(filepath.Join(dir, runFileName), run); err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

func (r *runRepo) Get(ctx context.Context, runID string) (*domain.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.get(runID)
}

func (r *runRepo) get(runID string) (*domain.Run, error) {
	if runID == "" {
		return nil, domain.ErrRunNotFound
	}
	run := &domain.Run{}
	if err := readJSON(filepath.Join(r.root, runID, runFileName), run); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrRunNotFound
		}
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

func (r *runRepo) UpdateStatus(ctx context.Context, run *domain.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.get(run.ID); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(r.root, run.ID, runFileName), run); err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return nil
}

func (r *runRepo) LogMetric(ctx context.Context, runID string, metric domain.Metric) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.get(runID); err != nil {
		return err
	}

	line, err := json.Marshal(metric)
	if err != nil {
		return fmt.Errorf("marshal metric: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(r.root, runID, metricsFileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open metrics: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append metric: %w", err)
	}
	return nil
}

// ListMetrics returns the history of name in logging order. An empty name
// returns every metric.
func (r *runRepo) ListMetrics(ctx context.Context, runID string, name string) ([]domain.Metric, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.get(runID); err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(r.root, runID, metricsFileName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []domain.Metric{}, nil
		}
		return nil, fmt.Errorf("open metrics: %w", err)
	}
	defer f.Close()

	metrics := []domain.Metric{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var m domain.Metric
		if err := json.Unmarshal(scanner.Bytes(), &m); err != nil {
			return nil, fmt.Errorf("decode metric: %w", err)
		}
		if name == "" || m.Name == name {
			metrics = append(metrics, m)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read metrics: %w", err)
	}
	return metrics, nil
}
