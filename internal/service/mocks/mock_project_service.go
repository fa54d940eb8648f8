package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"appforge/internal/model"
	"appforge/internal/service"
)

type MockProjectService struct {
	mock.Mock
}

func (m *MockProjectService) Create(ctx context.Context, name, description string) (*model.Project, error) {
	args := m.Called(ctx, name, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Project), args.Error(1)
}

func (m *MockProjectService) List(ctx context.Context, limit, offset int) (*service.ProjectListResult, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ProjectListResult), args.Error(1)
}

func (m *MockProjectService) Get(ctx context.Context, id string) (*model.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Project), args.Error(1)
}

func (m *MockProjectService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
