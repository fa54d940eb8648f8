package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"appforge/internal/model"
)

type MockAppFileRepository struct {
	mock.Mock
}

func (m *MockAppFileRepository) Create(ctx context.Context, f *model.AppFile) (*model.AppFile, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AppFile), args.Error(1)
}

func (m *MockAppFileRepository) FindByID(ctx context.Context, id string) (*model.AppFile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AppFile), args.Error(1)
}

func (m *MockAppFileRepository) ListByProject(ctx context.Context, projectID string) ([]model.AppFile, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AppFile), args.Error(1)
}

func (m *MockAppFileRepository) DeleteByProject(ctx context.Context, projectID string) error {
	args := m.Called(ctx, projectID)
	return args.Error(0)
}
