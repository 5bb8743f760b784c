package domain

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

type VersionStatus string

const (
	VersionStatusPending VersionStatus = "PENDING"
	VersionStatusReady   VersionStatus = "READY"
	VersionStatusFailed  VersionStatus = "FAILED"
)

type ArtifactType string

const (
	ArtifactTypeModel ArtifactType = "model-artifact"
)

type ModelVersion struct {
	ID                uuid.UUID         `json:"id"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
	RegisteredModelID uuid.UUID         `json:"registered_model_id"`
	Name              string            `json:"name"`
	Version           int               `json:"version"`
	Description       string            `json:"description"`
	State             ModelState        `json:"state"`
	Status            VersionStatus     `json:"status"`
	ArtifactType      ArtifactType      `json:"artifact_type"`
	ModelFramework    string            `json:"model_framework"`
	URI               string            `json:"uri"`
	RunID             string            `json:"run_id"`
	Labels            map[string]string `json:"labels"`
}

// VersionName is the version label used by registries that name versions
// instead of numbering them.
func VersionName(version int) string {
	return strconv.Itoa(version)
}

// ParseVersionName is the inverse of VersionName.
func ParseVersionName(name string) (int, error) {
	v, err := strconv.Atoi(name)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("parse version name %q: %w", name, ErrInvalidVersion)
	}
	return v, nil
}

// ToModel projects a version onto the tuple reported back to the pipeline.
func (v *ModelVersion) ToModel(modelName string) *Model {
	return &Model{
		ID:      fmt.Sprintf("%s:%d", modelName, v.Version),
		Name:    modelName,
		Version: v.Version,
	}
}
