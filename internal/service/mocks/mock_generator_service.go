package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"appforge/internal/model"
	"appforge/internal/service"
)

type MockGeneratorService struct {
	mock.Mock
}

func (m *MockGeneratorService) StartGeneration(ctx context.Context, projectID, prompt string) (*model.GenerationJob, error) {
	args := m.Called(ctx, projectID, prompt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.GenerationJob), args.Error(1)
}

func (m *MockGeneratorService) GetJob(ctx context.Context, id string) (*model.GenerationJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.GenerationJob), args.Error(1)
}

func (m *MockGeneratorService) ListJobs(ctx context.Context, projectID string, limit, offset int) (*service.JobListResult, error) {
	args := m.Called(ctx, projectID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.JobListResult), args.Error(1)
}

func (m *MockGeneratorService) ListLogsAfter(ctx context.Context, jobID string, afterSeq int) ([]model.JobLogLine, error) {
	args := m.Called(ctx, jobID, afterSeq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.JobLogLine), args.Error(1)
}
