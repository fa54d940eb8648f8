package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"appforge/internal/model"
	"appforge/internal/repository"
)

type MockGenerationJobRepository struct {
	mock.Mock
}

func (m *MockGenerationJobRepository) Create(ctx context.Context, job *model.GenerationJob) (*model.GenerationJob, error) {
	args := m.Called(ctx, job)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.GenerationJob), args.Error(1)
}

func (m *MockGenerationJobRepository) FindByID(ctx context.Context, id string) (*model.GenerationJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.GenerationJob), args.Error(1)
}

func (m *MockGenerationJobRepository) ListByProject(ctx context.Context, projectID string, pq repository.PageQuery) (*repository.PageResult[model.GenerationJob], error) {
	args := m.Called(ctx, projectID, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.GenerationJob]), args.Error(1)
}

func (m *MockGenerationJobRepository) UpdateStatus(ctx context.Context, id string, status model.JobStatus, attempts int, errMsg string) error {
	args := m.Called(ctx, id, status, attempts, errMsg)
	return args.Error(0)
}

func (m *MockGenerationJobRepository) AppendLog(ctx context.Context, line *model.JobLogLine) error {
	args := m.Called(ctx, line)
	return args.Error(0)
}

func (m *MockGenerationJobRepository) ListLogsAfter(ctx context.Context, jobID string, afterSeq int) ([]model.JobLogLine, error) {
	args := m.Called(ctx, jobID, afterSeq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.JobLogLine), args.Error(1)
}
