package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"appforge/internal/model"
)

type MockPreviewService struct {
	mock.Mock
}

func (m *MockPreviewService) Create(ctx context.Context, projectID string) (*model.PreviewEnvironment, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PreviewEnvironment), args.Error(1)
}

func (m *MockPreviewService) Get(ctx context.Context, id string) (*model.PreviewEnvironment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PreviewEnvironment), args.Error(1)
}

func (m *MockPreviewService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPreviewService) ExpireDue(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockPreviewService) StartSweeper(ctx context.Context) {
	m.Called(ctx)
}
