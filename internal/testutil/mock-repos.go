package testutil

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"model-training-step/internal/core/domain"
)

// MockRunRepo is a mock of RunRepository.
type MockRunRepo struct {
	mock.Mock
}

func (m *MockRunRepo) Create(ctx context.Context, run *domain.Run) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockRunRepo) Get(ctx context.Context, runID string) (*domain.Run, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Run), args.Error(1)
}

func (m *MockRunRepo) UpdateStatus(ctx context.Context, run *domain.Run) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockRunRepo) LogMetric(ctx context.Context, runID string, metric domain.Metric) error {
	args := m.Called(ctx, runID, metric)
	return args.Error(0)
}

func (m *MockRunRepo) ListMetrics(ctx context.Context, runID string, name string) ([]domain.Metric, error) {
	args := m.Called(ctx, runID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Metric), args.Error(1)
}

// MockArtifactStore is a mock of ArtifactStore. Upload drains the reader into
// Uploaded so tests can inspect what was sent.
type MockArtifactStore struct {
	mock.Mock
	Uploaded map[string][]byte
}

func (m *MockArtifactStore) Upload(ctx context.Context, runID string, name string, content io.Reader) error {
	data, err := io.ReadAll(content)
	if err != nil {
		return err
	}
	if m.Uploaded == nil {
		m.Uploaded = make(map[string][]byte)
	}
	m.Uploaded[name] = data

	args := m.Called(ctx, runID, name, content)
	return args.Error(0)
}

func (m *MockArtifactStore) List(ctx context.Context, runID string) ([]string, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockArtifactStore) URI(runID string, name string) string {
	args := m.Called(runID, name)
	return args.String(0)
}

// MockModelRegistry is a mock of ModelRegistry.
type MockModelRegistry struct {
	mock.Mock
}

func (m *MockModelRegistry) Register(ctx context.Context, req domain.RegisterModelRequest) (*domain.RegisteredModel, *domain.ModelVersion, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.RegisteredModel), args.Get(1).(*domain.ModelVersion), args.Error(2)
}

// MockTrainer is a mock of Trainer.
type MockTrainer struct {
	mock.Mock
}

func (m *MockTrainer) Train(ctx context.Context, input domain.TrainingInput) (domain.TrainedModel, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.TrainedModel), args.Error(1)
}
