package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"appforge/internal/model"
)

type MockAppFileService struct {
	mock.Mock
}

func (m *MockAppFileService) ListByProject(ctx context.Context, projectID string) ([]model.AppFile, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AppFile), args.Error(1)
}

func (m *MockAppFileService) PresignDownload(ctx context.Context, fileID string) (string, error) {
	args := m.Called(ctx, fileID)
	return args.String(0), args.Error(1)
}
