package repository

import (
	"context"

	"appforge/internal/model"
)

// GenerationJobRepository defines data access for generation jobs and their logs.
type GenerationJobRepository interface {
	// Create inserts a new job record and returns the stored row.
	Create(ctx context.Context, job *model.GenerationJob) (*model.GenerationJob, error)

	// FindByID returns a job by its ID.
	FindByID(ctx context.Context, id string) (*model.GenerationJob, error)

	// ListByProject returns jobs for a project, newest first.
	ListByProject(ctx context.Context, projectID string, pq PageQuery) (*PageResult[model.GenerationJob], error)

	// UpdateStatus sets status, attempts and error message, bumping updated_at.
	UpdateStatus(ctx context.Context, id string, status model.JobStatus, attempts int, errMsg string) error

	// AppendLog inserts a log line for a job.
	AppendLog(ctx context.Context, line *model.JobLogLine) error

	// ListLogsAfter returns log lines for a job with seq > afterSeq, in seq order.
	ListLogsAfter(ctx context.Context, jobID string, afterSeq int) ([]model.JobLogLine, error)
}
