package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"model-training-step/internal/core/domain"
	"model-training-step/internal/core/ports/output"
)

const (
	apiPrefix     = "/api/v1/model-registry"
	pageSize      = 100
	customTrain   = "CUSTOMTRAIN"
	headerProject = "Project-ID"
)

var (
	errNotFound = errors.New("registry resource not found")
	errConflict = errors.New("registry resource conflict")
)

type Config struct {
	URL                   string
	ProjectID             uuid.UUID
	Timeout               time.Duration
	ModelFramework        string
	ModelFrameworkVersion string
}

// client registers versions with the model-registry REST API. Models are
// created on first registration and versions are named "1", "2", ...
type client struct {
	httpClient *http.Client
	baseURL    string
	projectID  uuid.UUID
	framework  string
	fwVersion  string
}

func NewModelRegistry(cfg Config) (ports.ModelRegistry, error) {
	if cfg.ProjectID == uuid.Nil {
		return nil, domain.ErrMissingProjectID
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:   strings.TrimRight(cfg.URL, "/") + apiPrefix,
		projectID: cfg.ProjectID,
		framework: cfg.ModelFramework,
		fwVersion: cfg.ModelFrameworkVersion,
	}, nil
}

func (c *client) Register(ctx context.Context, req domain.RegisterModelRequest) (*domain.RegisteredModel, *domain.ModelVersion, error) {
	if req.ModelName == "" {
		return nil, nil, domain.ErrInvalidModelName
	}

	model, err := c.findOrCreateModel(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	latest, err := c.latestVersion(ctx, model.ID)
	if err != nil {
		return nil, nil, err
	}

	framework := req.ModelFramework
	if framework == "" {
		framework = c.framework
	}
	next := latest + 1

	var created modelVersionResponse
	err = c.do(ctx, http.MethodPost, "/models/"+model.ID.String()+"/versions", nil, createModelVersionRequest{
		Name:                  domain.VersionName(next),
		Description:           req.Description,
		ArtifactType:          string(domain.ArtifactTypeModel),
		ModelFramework:        framework,
		ModelFrameworkVersion: c.fwVersion,
		URI:                   req.URI,
		Labels:                req.Labels,
	}, &created)
	if err != nil {
		if errors.Is(err, errConflict) {
			return nil, nil, fmt.Errorf("%w: %s version %d", domain.ErrVersionNameConflict, req.ModelName, next)
		}
		return nil, nil, fmt.Errorf("create model version: %w", err)
	}

	version := toModelVersion(created)
	version.Version = next
	version.RunID = req.RunID
	return model, version, nil
}

func (c *client) findOrCreateModel(ctx context.Context, req domain.RegisterModelRequest) (*domain.RegisteredModel, error) {
	model, err := c.findModel(ctx, req.ModelName)
	if err == nil {
		return model, nil
	}
	if !errors.Is(err, domain.ErrModelNotFound) {
		return nil, err
	}

	var created registeredModelResponse
	err = c.do(ctx, http.MethodPost, "/models", nil, createRegisteredModelRequest{
		Name:        req.ModelName,
		Description: req.Description,
		ModelType:   customTrain,
		Labels:      map[string]string{},
	}, &created)
	if err != nil {
		// Another step registered the same name first.
		if errors.Is(err, errConflict) {
			return c.findModel(ctx, req.ModelName)
		}
		return nil, fmt.Errorf("create registered model: %w", err)
	}

	log.WithFields(log.Fields{
		"model":    created.Name,
		"model_id": created.ID,
	}).Info("registered new model")
	return toRegisteredModel(created), nil
}

func (c *client) findModel(ctx context.Context, name string) (*domain.RegisteredModel, error) {
	var resp registeredModelResponse
	if err := c.do(ctx, http.MethodGet, "/model", url.Values{"name": {name}}, nil, &resp); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, domain.ErrModelNotFound
		}
		return nil, fmt.Errorf("find registered model: %w", err)
	}
	return toRegisteredModel(resp), nil
}

// latestVersion returns the highest numeric version name of the model, or 0.
func (c *client) latestVersion(ctx context.Context, modelID uuid.UUID) (int, error) {
	latest := 0
	offset := 0
	for {
		var page listModelVersionsResponse
		query := url.Values{
			"limit":  {strconv.Itoa(pageSize)},
			"offset": {strconv.Itoa(offset)},
		}
		if err := c.do(ctx, http.MethodGet, "/models/"+modelID.String()+"/versions", query, nil, &page); err != nil {
			if errors.Is(err, errNotFound) {
				return 0, domain.ErrModelNotFound
			}
			return 0, fmt.Errorf("list model versions: %w", err)
		}

		for _, item := range page.Items {
			if v, err := domain.ParseVersionName(item.Name); err == nil && v > latest {
				latest = v
			}
		}

		offset += len(page.Items)
		if len(page.Items) == 0 || offset >= page.Total {
			return latest, nil
		}
	}
}

func (c *client) do(ctx context.Context, method, path string, query url.Values, body interface{}, out interface{}) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, payload)
	if err != nil {
		return fmt.Errorf("create registry request: %w", err)
	}
	req.Header.Set(headerProject, c.projectID.String())
	req.Header.Set("X-Request-ID", uuid.New().String())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log.WithFields(log.Fields{
		"method": method,
		"url":    reqURL,
	}).Debug("sending request to model registry")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("registry request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		switch resp.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", errNotFound, apiErr.Error)
		case http.StatusConflict:
			return fmt.Errorf("%w: %s", errConflict, apiErr.Error)
		default:
			return fmt.Errorf("registry %s %s: status %d: %s", method, path, resp.StatusCode, apiErr.Error)
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode registry response: %w", err)
	}
	return nil
}

func toRegisteredModel(r registeredModelResponse) *domain.RegisteredModel {
	return &domain.RegisteredModel{
		ID:          r.ID,
		CreatedAt:   parseTime(r.CreatedAt),
		UpdatedAt:   parseTime(r.UpdatedAt),
		Name:        r.Name,
		Description: r.Description,
		State:       domain.ModelState(r.State),
		Labels:      r.Labels,
	}
}

func toModelVersion(r modelVersionResponse) *domain.ModelVersion {
	return &domain.ModelVersion{
		ID:                r.ID,
		CreatedAt:         parseTime(r.CreatedAt),
		UpdatedAt:         parseTime(r.UpdatedAt),
		RegisteredModelID: r.RegisteredModelID,
		Name:              r.Name,
		Description:       r.Description,
		State:             domain.ModelState(r.State),
		Status:            domain.VersionStatus(r.Status),
		ArtifactType:      domain.ArtifactType(r.ArtifactType),
		ModelFramework:    r.ModelFramework,
		URI:               r.URI,
		Labels:            r.Labels,
	}
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
