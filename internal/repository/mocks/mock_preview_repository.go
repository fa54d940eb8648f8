package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"appforge/internal/model"
)

type MockPreviewRepository struct {
	mock.Mock
}

func (m *MockPreviewRepository) Create(ctx context.Context, p *model.PreviewEnvironment) (*model.PreviewEnvironment, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PreviewEnvironment), args.Error(1)
}

func (m *MockPreviewRepository) FindByID(ctx context.Context, id string) (*model.PreviewEnvironment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PreviewEnvironment), args.Error(1)
}

func (m *MockPreviewRepository) FindActiveByProject(ctx context.Context, projectID string) (*model.PreviewEnvironment, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PreviewEnvironment), args.Error(1)
}

func (m *MockPreviewRepository) UpdateStatus(ctx context.Context, id string, status model.PreviewStatus, url string) error {
	args := m.Called(ctx, id, status, url)
	return args.Error(0)
}

func (m *MockPreviewRepository) ListExpired(ctx context.Context, cutoff time.Time) ([]model.PreviewEnvironment, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PreviewEnvironment), args.Error(1)
}
