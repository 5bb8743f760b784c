package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"model-training-step/internal/core/domain"
	"model-training-step/internal/core/ports/output"
)

const registryFileName = "registry.json"

type registryState struct {
	Models   []*domain.RegisteredModel `json:"models"`
	Versions []*domain.ModelVersion    `json:"versions"`
}

// modelRegistry keeps every registered model and version in one JSON document.
type modelRegistry struct {
	path string
	mu   sync.Mutex
}

func NewModelRegistry(root string) ports.ModelRegistry {
	return &modelRegistry{path: filepath.Join(root, registryFileName)}
}

// Register creates the model on first use and appends the next version number.
func (r *modelRegistry) Register(ctx context.Context, req domain.RegisterModelRequest) (*domain.RegisteredModel, *domain.ModelVersion, error) {
	if req.ModelName == "" {
		return nil, nil, domain.ErrInvalidModelName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	state := &registryState{}
	if err := readJSON(r.path, state); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("load registry: %w", err)
	}

	now := time.Now().UTC()
	var model *domain.RegisteredModel
	for _, m := range state.Models {
		if m.Name == req.ModelName {
			model = m
			break
		}
	}
	if model == nil {
		model = &domain.RegisteredModel{
			ID:          uuid.New(),
			CreatedAt:   now,
			UpdatedAt:   now,
			Name:        req.ModelName,
			Description: req.Description,
			State:       domain.ModelStateLive,
			Labels:      map[string]string{},
		}
		state.Models = append(state.Models, model)
	}

	next := 1
	for _, v := range state.Versions {
		if v.RegisteredModelID == model.ID && v.Version >= next {
			next = v.Version + 1
		}
	}

	labels := req.Labels
	if labels == nil {
		labels = map[string]string{}
	}
	version := &domain.ModelVersion{
		ID:                uuid.New(),
		CreatedAt:         now,
		UpdatedAt:         now,
		RegisteredModelID: model.ID,
		Name:              domain.VersionName(next),
		Version:           next,
		Description:       req.Description,
		State:             domain.ModelStateLive,
		Status:            domain.VersionStatusReady,
		ArtifactType:      domain.ArtifactTypeModel,
		ModelFramework:    req.ModelFramework,
		URI:               req.URI,
		RunID:             req.RunID,
		Labels:            labels,
	}
	state.Versions = append(state.Versions, version)
	model.UpdatedAt = now

	if err := writeJSON(r.path, state); err != nil {
		return nil, nil, fmt.Errorf("save registry: %w", err)
	}
	return model, version, nil
}
