package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"model-training-step/internal/core/domain"
)

// fakeRegistry serves the model-registry endpoints the client calls.
type fakeRegistry struct {
	mu        sync.Mutex
	projectID uuid.UUID
	models    map[string]registeredModelResponse
	versions  map[uuid.UUID][]modelVersionResponse
	requests  []createModelVersionRequest
}

func newFakeRegistry(t *testing.T) (*fakeRegistry, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &fakeRegistry{
		projectID: uuid.New(),
		models:    map[string]registeredModelResponse{},
		versions:  map[uuid.UUID][]modelVersionResponse{},
	}

	r := gin.New()
	api := r.Group("/api/v1/model-registry")
	api.Use(f.requireProject)
	api.GET("/model", f.getModelByName)
	api.POST("/models", f.createModel)
	api.GET("/models/:id/versions", f.listVersions)
	api.POST("/models/:id/versions", f.createVersion)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeRegistry) requireProject(c *gin.Context) {
	if c.GetHeader("Project-ID") != f.projectID.String() {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": domain.ErrMissingProjectID.Error()})
		return
	}
	c.Next()
}

func (f *fakeRegistry) getModelByName(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.models[c.Query("name")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": domain.ErrModelNotFound.Error()})
		return
	}
	c.JSON(http.StatusOK, m)
}

func (f *fakeRegistry) createModel(c *gin.Context) {
	var req createRegisteredModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.models[req.Name]; ok {
		c.JSON(http.StatusConflict, gin.H{"error": domain.ErrModelNameConflict.Error()})
		return
	}
	now := time.Now().UTC().Format(time.RFC3339)
	m := registeredModelResponse{ID: uuid.New(), CreatedAt: now, UpdatedAt: now, Name: req.Name, State: "LIVE", Labels: req.Labels}
	f.models[req.Name] = m
	c.JSON(http.StatusCreated, m)
}

func (f *fakeRegistry) listVersions(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid model id"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	f.mu.Lock()
	defer f.mu.Unlock()
	all := f.versions[id]
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	items := []modelVersionResponse{}
	if offset < len(all) {
		items = all[offset:end]
	}
	c.JSON(http.StatusOK, listModelVersionsResponse{Items: items, Total: len(all), PageSize: limit, NextOffset: offset + len(items)})
}

func (f *fakeRegistry) createVersion(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid model id"})
		return
	}
	var req createModelVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ModelFramework == "" || req.ModelFrameworkVersion == "" || req.URI == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "model_framework, model_framework_version and uri are required"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.versions[id] {
		if v.Name == req.Name {
			c.JSON(http.StatusConflict, gin.H{"error": domain.ErrVersionNameConflict.Error()})
			return
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	v := modelVersionResponse{
		ID: uuid.New(), CreatedAt: now, UpdatedAt: now, RegisteredModelID: id,
		Name: req.Name, State: "LIVE", Status: "PENDING", ArtifactType: req.ArtifactType,
		ModelFramework: req.ModelFramework, URI: req.URI, Labels: req.Labels,
	}
	f.versions[id] = append(f.versions[id], v)
	f.requests = append(f.requests, req)
	c.JSON(http.StatusCreated, v)
}

func (f *fakeRegistry) lastRequest() createModelVersionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func (f *fakeRegistry) seedVersions(modelName string, names ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := registeredModelResponse{ID: uuid.New(), Name: modelName, State: "LIVE"}
	f.models[modelName] = m
	for _, n := range names {
		f.versions[m.ID] = append(f.versions[m.ID], modelVersionResponse{ID: uuid.New(), RegisteredModelID: m.ID, Name: n})
	}
}

func newTestRegistry(t *testing.T, srv *httptest.Server, projectID uuid.UUID) *client {
	t.Helper()
	reg, err := NewModelRegistry(Config{
		URL:                   srv.URL,
		ProjectID:             projectID,
		Timeout:               time.Second,
		ModelFramework:        "custom",
		ModelFrameworkVersion: "0",
	})
	require.NoError(t, err)
	return reg.(*client)
}

func TestNewModelRegistry_MissingProjectID(t *testing.T) {
	_, err := NewModelRegistry(Config{URL: "http://localhost:8080"})
	assert.ErrorIs(t, err, domain.ErrMissingProjectID)
}

func TestModelRegistry_Register_CreatesModelAndFirstVersion(t *testing.T) {
	fake, srv := newFakeRegistry(t)
	reg := newTestRegistry(t, srv, fake.projectID)

	model, version, err := reg.Register(context.Background(), domain.RegisterModelRequest{
		ModelName: "sample-model",
		ModelPath: "samle.pkl",
		RunID:     "run-1",
		URI:       "runs:/run-1/samle.pkl",
		Labels:    map[string]string{"run_id": "run-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "sample-model", model.Name)
	assert.Equal(t, 1, version.Version)
	assert.Equal(t, "1", version.Name)
	assert.Equal(t, model.ID, version.RegisteredModelID)
	assert.Equal(t, "run-1", version.RunID)

	sent := fake.lastRequest()
	assert.Equal(t, "model-artifact", sent.ArtifactType)
	assert.Equal(t, "custom", sent.ModelFramework)
	assert.Equal(t, "runs:/run-1/samle.pkl", sent.URI)
	assert.Equal(t, "run-1", sent.Labels["run_id"])
}

func TestModelRegistry_Register_NextVersionAfterExisting(t *testing.T) {
	fake, srv := newFakeRegistry(t)
	fake.seedVersions("sample-model", "1", "2", "champion", "7")
	reg := newTestRegistry(t, srv, fake.projectID)

	_, version, err := reg.Register(context.Background(), domain.RegisterModelRequest{
		ModelName: "sample-model",
		URI:       "runs:/run-2/samle.pkl",
	})
	require.NoError(t, err)
	assert.Equal(t, 8, version.Version)
}

func TestModelRegistry_Register_PaginatesVersions(t *testing.T) {
	fake, srv := newFakeRegistry(t)
	names := make([]string, 0, 150)
	for i := 1; i <= 150; i++ {
		names = append(names, strconv.Itoa(i))
	}
	fake.seedVersions("big-model", names...)
	reg := newTestRegistry(t, srv, fake.projectID)

	_, version, err := reg.Register(context.Background(), domain.RegisterModelRequest{
		ModelName: "big-model",
		URI:       "runs:/run-3/samle.pkl",
	})
	require.NoError(t, err)
	assert.Equal(t, 151, version.Version)
}

func TestModelRegistry_Register_WrongProject(t *testing.T) {
	_, srv := newFakeRegistry(t)
	reg := newTestRegistry(t, srv, uuid.New())

	_, _, err := reg.Register(context.Background(), domain.RegisterModelRequest{
		ModelName: "sample-model",
		URI:       "runs:/run-1/samle.pkl",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

func TestModelRegistry_Register_EmptyName(t *testing.T) {
	fake, srv := newFakeRegistry(t)
	reg := newTestRegistry(t, srv, fake.projectID)

	_, _, err := reg.Register(context.Background(), domain.RegisterModelRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidModelName)
}
