package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"model-training-step/internal/core/domain"
)

// MockRunContext is a mock of RunContext.
type MockRunContext struct {
	mock.Mock
}

func (m *MockRunContext) ID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockRunContext) Log(ctx context.Context, name string, value float64) error {
	args := m.Called(ctx, name, value)
	return args.Error(0)
}

func (m *MockRunContext) GetFileNames(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockRunContext) UploadFile(ctx context.Context, name string, localPath string) error {
	args := m.Called(ctx, name, localPath)
	return args.Error(0)
}

func (m *MockRunContext) RegisterModel(ctx context.Context, modelName string, modelPath string) (*domain.Model, error) {
	args := m.Called(ctx, modelName, modelPath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Model), args.Error(1)
}

func (m *MockRunContext) Complete(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockRunContext) Fail(ctx context.Context, cause error) error {
	args := m.Called(ctx, cause)
	return args.Error(0)
}
