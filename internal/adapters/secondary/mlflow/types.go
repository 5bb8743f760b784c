package mlflow

import (
	"strconv"
	"time"

	"model-training-step/internal/core/domain"
)

type runInfo struct {
	RunID        string `json:"run_id"`
	ExperimentID string `json:"experiment_id"`
	RunName      string `json:"run_name,omitempty"`
	Status       string `json:"status"`
	StartTime    int64  `json:"start_time"`
	EndTime      int64  `json:"end_time,omitempty"`
	ArtifactURI  string `json:"artifact_uri"`
}

type runEnvelope struct {
	Run struct {
		Info runInfo `json:"info"`
	} `json:"run"`
}

type createRunRequest struct {
	ExperimentID string `json:"experiment_id"`
	StartTime    int64  `json:"start_time"`
	RunName      string `json:"run_name,omitempty"`
}

type updateRunRequest struct {
	RunID   string `json:"run_id"`
	Status  string `json:"status"`
	EndTime int64  `json:"end_time,omitempty"`
}

type metricPayload struct {
	RunID     string  `json:"run_id,omitempty"`
	Key       string  `json:"key"`
	Value     float64 `json:"value"`
	Timestamp int64   `json:"timestamp"`
	Step      int64   `json:"step"`
}

type metricHistoryResponse struct {
	Metrics []metricPayload `json:"metrics"`
}

type experimentResponse struct {
	Experiment struct {
		ExperimentID string `json:"experiment_id"`
		Name         string `json:"name"`
	} `json:"experiment"`
}

type createExperimentResponse struct {
	ExperimentID string `json:"experiment_id"`
}

type fileInfo struct {
	Path     string `json:"path"`
	IsDir    bool   `json:"is_dir"`
	FileSize int64  `json:"file_size,omitempty"`
}

type listArtifactsResponse struct {
	RootURI string     `json:"root_uri"`
	Files   []fileInfo `json:"files"`
}

// MLflow names the completed state FINISHED and has KILLED and SCHEDULED,
// which fold into FAILED and RUNNING.
func toMLflowStatus(s domain.RunStatus) string {
	switch s {
	case domain.RunStatusCompleted:
		return "FINISHED"
	case domain.RunStatusFailed:
		return "FAILED"
	default:
		return "RUNNING"
	}
}

func fromMLflowStatus(s string) domain.RunStatus {
	switch s {
	case "FINISHED":
		return domain.RunStatusCompleted
	case "FAILED", "KILLED":
		return domain.RunStatusFailed
	default:
		return domain.RunStatusRunning
	}
}

func toRun(info runInfo) *domain.Run {
	run := &domain.Run{
		ID:         info.RunID,
		Experiment: info.ExperimentID,
		Status:     fromMLflowStatus(info.Status),
		StartedAt:  time.UnixMilli(info.StartTime).UTC(),
	}
	if info.EndTime > 0 {
		ended := time.UnixMilli(info.EndTime).UTC()
		run.EndedAt = &ended
	}
	return run
}

// isExperimentID reports whether the configured experiment is already an id.
func isExperimentID(experiment string) bool {
	_, err := strconv.ParseInt(experiment, 10, 64)
	return err == nil
}
