package mlflow

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"model-training-step/internal/core/domain"
	"model-training-step/internal/core/ports/output"
)

type runRepo struct {
	client *Client
}

func NewRunRepository(client *Client) ports.RunRepository {
	return &runRepo{client: client}
}

// Create starts a run in run.Experiment, creating the experiment by name if
// needed. MLflow assigns the id, so run.ID is overwritten.
func (r *runRepo) Create(ctx context.Context, run *domain.Run) error {
	experimentID, err := r.experimentID(ctx, run.Experiment)
	if err != nil {
		return err
	}

	var resp runEnvelope
	err = r.client.post(ctx, apiPrefix+"/runs/create", createRunRequest{
		ExperimentID: experimentID,
		StartTime:    run.StartedAt.UnixMilli(),
		RunName:      run.ID,
	}, &resp)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}

	run.ID = resp.Run.Info.RunID
	run.Status = fromMLflowStatus(resp.Run.Info.Status)
	return nil
}

func (r *runRepo) Get(ctx context.Context, runID string) (*domain.Run, error) {
	info, err := getRunInfo(ctx, r.client, runID)
	if err != nil {
		return nil, err
	}
	return toRun(*info), nil
}

func (r *runRepo) UpdateStatus(ctx context.Context, run *domain.Run) error {
	req := updateRunRequest{
		RunID:  run.ID,
		Status: toMLflowStatus(run.Status),
	}
	if run.EndedAt != nil {
		req.EndTime = run.EndedAt.UnixMilli()
	}
	if err := r.client.post(ctx, apiPrefix+"/runs/update", req, nil); err != nil {
		if errors.Is(err, errNotFound) {
			return domain.ErrRunNotFound
		}
		return fmt.Errorf("update run: %w", err)
	}
	return nil
}

func (r *runRepo) LogMetric(ctx context.Context, runID string, metric domain.Metric) error {
	ts := metric.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	err := r.client.post(ctx, apiPrefix+"/runs/log-metric", metricPayload{
		RunID:     runID,
		Key:       metric.Name,
		Value:     metric.Value,
		Timestamp: ts.UnixMilli(),
		Step:      metric.Step,
	}, nil)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return domain.ErrRunNotFound
		}
		return fmt.Errorf("log metric: %w", err)
	}
	return nil
}

// ListMetrics returns the history of one metric. MLflow has no call for every
// metric of a run, so name is required.
func (r *runRepo) ListMetrics(ctx context.Context, runID string, name string) ([]domain.Metric, error) {
	if name == "" {
		return nil, domain.ErrInvalidMetricName
	}

	var resp metricHistoryResponse
	query := url.Values{"run_id": {runID}, "metric_key": {name}}
	if err := r.client.get(ctx, apiPrefix+"/metrics/get-history", query, &resp); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, domain.ErrRunNotFound
		}
		return nil, fmt.Errorf("get metric history: %w", err)
	}

	metrics := make([]domain.Metric, 0, len(resp.Metrics))
	for _, m := range resp.Metrics {
		metrics = append(metrics, domain.Metric{
			Name:      m.Key,
			Value:     m.Value,
			Step:      m.Step,
			Timestamp: time.UnixMilli(m.Timestamp).UTC(),
		})
	}
	return metrics, nil
}

func (r *runRepo) experimentID(ctx context.Context, experiment string) (string, error) {
	if experiment == "" {
		return "0", nil
	}
	if isExperimentID(experiment) {
		return experiment, nil
	}

	var found experimentResponse
	err := r.client.get(ctx, apiPrefix+"/experiments/get-by-name", url.Values{"experiment_name": {experiment}}, &found)
	if err == nil {
		return found.Experiment.ExperimentID, nil
	}
	if !errors.Is(err, errNotFound) {
		return "", fmt.Errorf("get experiment: %w", err)
	}

	var created createExperimentResponse
	if err := r.client.post(ctx, apiPrefix+"/experiments/create", map[string]string{"name": experiment}, &created); err != nil {
		return "", fmt.Errorf("create experiment: %w", err)
	}
	return created.ExperimentID, nil
}

func getRunInfo(ctx context.Context, client *Client, runID string) (*runInfo, error) {
	if runID == "" {
		return nil, domain.ErrRunNotFound
	}
	var resp runEnvelope
	if err := client.get(ctx, apiPrefix+"/runs/get", url.Values{"run_id": {runID}}, &resp); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, domain.ErrRunNotFound
		}
		return nil, fmt.Errorf("get run: %w", err)
	}
	return &resp.Run.Info, nil
}
