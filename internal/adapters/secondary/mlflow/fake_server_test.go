package mlflow

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
)

// fakeMLflow serves the subset of the MLflow REST API the adapters use.
type fakeMLflow struct {
	mu          sync.Mutex
	experiments map[string]string
	runs        map[string]*runInfo
	metrics     map[string][]metricPayload
	files       map[string]map[string][]byte
	// artifactScheme lets tests hand out artifact roots the proxy cannot serve.
	artifactScheme string
	nextID         int
}

func newFakeMLflow(t *testing.T) (*fakeMLflow, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &fakeMLflow{
		experiments:    map[string]string{"Default": "0"},
		runs:           map[string]*runInfo{},
		metrics:        map[string][]metricPayload{},
		files:          map[string]map[string][]byte{},
		artifactScheme: "mlflow-artifacts:",
	}

	r := gin.New()
	api := r.Group("/api/2.0/mlflow")
	api.GET("/experiments/get-by-name", f.getExperiment)
	api.POST("/experiments/create", f.createExperiment)
	api.POST("/runs/create", f.createRun)
	api.GET("/runs/get", f.getRun)
	api.POST("/runs/update", f.updateRun)
	api.POST("/runs/log-metric", f.logMetric)
	api.GET("/metrics/get-history", f.metricHistory)
	api.GET("/artifacts/list", f.listArtifacts)
	r.PUT("/api/2.0/mlflow-artifacts/artifacts/*path", f.putArtifact)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return f, srv
}

func notFound(c *gin.Context, what string) {
	c.JSON(http.StatusNotFound, gin.H{"error_code": "RESOURCE_DOES_NOT_EXIST", "message": what + " not found"})
}

func (f *fakeMLflow) getExperiment(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.experiments[c.Query("experiment_name")]
	if !ok {
		notFound(c, "experiment")
		return
	}
	c.JSON(http.StatusOK, gin.H{"experiment": gin.H{"experiment_id": id, "name": c.Query("experiment_name")}})
}

func (f *fakeMLflow) createExperiment(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error_code": "INVALID_PARAMETER_VALUE", "message": err.Error()})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id := fmt.Sprintf("%d", len(f.experiments))
	f.experiments[req.Name] = id
	c.JSON(http.StatusOK, gin.H{"experiment_id": id})
}

func (f *fakeMLflow) createRun(c *gin.Context) {
	var req createRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error_code": "INVALID_PARAMETER_VALUE", "message": err.Error()})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := fmt.Sprintf("run%04d", f.nextID)
	info := &runInfo{
		RunID:        id,
		ExperimentID: req.ExperimentID,
		RunName:      req.RunName,
		Status:       "RUNNING",
		StartTime:    req.StartTime,
		ArtifactURI:  fmt.Sprintf("%s/%s/%s/artifacts", f.artifactScheme, req.ExperimentID, id),
	}
	f.runs[id] = info
	c.JSON(http.StatusOK, gin.H{"run": gin.H{"info": info}})
}

func (f *fakeMLflow) getRun(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	info, ok := f.runs[c.Query("run_id")]
	if !ok {
		notFound(c, "run")
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": gin.H{"info": info}})
}

func (f *fakeMLflow) updateRun(c *gin.Context) {
	var req updateRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error_code": "INVALID_PARAMETER_VALUE", "message": err.Error()})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	info, ok := f.runs[req.RunID]
	if !ok {
		notFound(c, "run")
		return
	}
	info.Status = req.Status
	info.EndTime = req.EndTime
	c.JSON(http.StatusOK, gin.H{"run_info": info})
}

func (f *fakeMLflow) logMetric(c *gin.Context) {
	var req metricPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error_code": "INVALID_PARAMETER_VALUE", "message": err.Error()})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.runs[req.RunID]; !ok {
		notFound(c, "run")
		return
	}
	f.metrics[req.RunID] = append(f.metrics[req.RunID], req)
	c.JSON(http.StatusOK, gin.H{})
}

func (f *fakeMLflow) metricHistory(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	runID := c.Query("run_id")
	if _, ok := f.runs[runID]; !ok {
		notFound(c, "run")
		return
	}
	history := []metricPayload{}
	for _, m := range f.metrics[runID] {
		if m.Key == c.Query("metric_key") {
			m.RunID = ""
			history = append(history, m)
		}
	}
	c.JSON(http.StatusOK, gin.H{"metrics": history})
}

func (f *fakeMLflow) listArtifacts(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	runID := c.Query("run_id")
	info, ok := f.runs[runID]
	if !ok {
		notFound(c, "run")
		return
	}

	prefix := ""
	if p := c.Query("path"); p != "" {
		prefix = p + "/"
	}
	seenDirs := map[string]bool{}
	files := []fileInfo{}
	for name, content := range f.files[runID] {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		rest := strings.TrimPrefix(name, prefix)
		if i := strings.Index(rest, "/"); i >= 0 {
			dir := prefix + rest[:i]
			if !seenDirs[dir] {
				seenDirs[dir] = true
				files = append(files, fileInfo{Path: dir, IsDir: true})
			}
			continue
		}
		files = append(files, fileInfo{Path: name, FileSize: int64(len(content))})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	c.JSON(http.StatusOK, gin.H{"root_uri": info.ArtifactURI, "files": files})
}

func (f *fakeMLflow) putArtifact(c *gin.Context) {
	parts := strings.SplitN(strings.TrimPrefix(c.Param("path"), "/"), "/", 4)
	if len(parts) != 4 || parts[2] != "artifacts" {
		c.JSON(http.StatusBadRequest, gin.H{"error_code": "INVALID_PARAMETER_VALUE", "message": "bad artifact path"})
		return
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error_code": "INVALID_PARAMETER_VALUE", "message": err.Error()})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	runID := parts[1]
	if f.files[runID] == nil {
		f.files[runID] = map[string][]byte{}
	}
	f.files[runID][parts[3]] = body
	c.JSON(http.StatusOK, gin.H{})
}

func (f *fakeMLflow) run(id string) runInfo {
	f.mu.Lock()
	defer f.mu.Unlock()
	if info, ok := f.runs[id]; ok {
		return *info
	}
	return runInfo{}
}

func (f *fakeMLflow) file(runID, name string) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.files[runID][name]
}

func (f *fakeMLflow) hasExperiment(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.experiments[name]
	return ok
}

func (f *fakeMLflow) setArtifactScheme(scheme string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.artifactScheme = scheme
}
