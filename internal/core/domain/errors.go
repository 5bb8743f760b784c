package domain

import "errors"

// ============================================================================
// Tracking Errors
// ============================================================================

var (
	ErrRunNotFound         = errors.New("run not found")
	ErrRunNotActive        = errors.New("run is not active")
	ErrInvalidMetricName   = errors.New("metric name is required")
	ErrFileNameConflict    = errors.New("file with this name is already uploaded to the run")
	ErrInvalidFileName     = errors.New("file name is required")
	ErrLocalFileNotFound   = errors.New("local file not found")
	ErrArtifactNotUploaded = errors.New("model path is not among the run's uploaded files")
)

// ============================================================================
// Model Registry Errors
// ============================================================================

var (
	ErrModelNotFound       = errors.New("registered model not found")
	ErrModelNameConflict   = errors.New("model with this name already exists")
	ErrVersionNameConflict = errors.New("version with this name already exists for this model")
	ErrInvalidModelName    = errors.New("model name is required")
	ErrInvalidVersion      = errors.New("invalid model version")
	ErrMissingProjectID    = errors.New("project ID is required (Project-ID header)")
)

// ============================================================================
// Training Errors
// ============================================================================

var (
	ErrInvalidDataDir      = errors.New("data directory does not exist or is not a directory")
	ErrInputFileUnreadable = errors.New("input csv file is missing or unreadable")
	ErrArtifactWrite       = errors.New("model artifact could not be written")
)

// ============================================================================
// Configuration Errors
// ============================================================================

var (
	ErrUnknownBackend = errors.New("unknown backend")
)
