package registry

import "github.com/google/uuid"

type createRegisteredModelRequest struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	ModelType   string            `json:"model_type"`
	Labels      map[string]string `json:"labels"`
}

type registeredModelResponse struct {
	ID          uuid.UUID         `json:"id"`
	CreatedAt   string            `json:"created_at"`
	UpdatedAt   string            `json:"updated_at"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	State       string            `json:"state"`
	Labels      map[string]string `json:"labels"`
}

type createModelVersionRequest struct {
	Name                  string            `json:"name"`
	Description           string            `json:"description"`
	ArtifactType          string            `json:"artifact_type"`
	ModelFramework        string            `json:"model_framework"`
	ModelFrameworkVersion string            `json:"model_framework_version"`
	URI                   string            `json:"uri"`
	Labels                map[string]string `json:"labels"`
}

type modelVersionResponse struct {
	ID                uuid.UUID         `json:"id"`
	CreatedAt         string            `json:"created_at"`
	UpdatedAt         string            `json:"updated_at"`
	RegisteredModelID uuid.UUID         `json:"registered_model_id"`
	Name              string            `json:"name"`
	Description       string            `json:"description"`
	State             string            `json:"state"`
	Status            string            `json:"status"`
	ArtifactType      string            `json:"artifact_type"`
	ModelFramework    string            `json:"model_framework"`
	URI               string            `json:"uri"`
	Labels            map[string]string `json:"labels"`
}

type listModelVersionsResponse struct {
	Items      []modelVersionResponse `json:"items"`
	Total      int                    `json:"total"`
	PageSize   int                    `json:"page_size"`
	NextOffset int                    `json:"next_offset"`
}

type errorResponse struct {
	Error string `json:"error"`
}
