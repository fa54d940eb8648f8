package model

import "time"

// JobStatus is the lifecycle state of a generation job.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusFixing    JobStatus = "fixing"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
)

// Terminal reports whether the status is a final state.
func (s JobStatus) Terminal() bool {
	return s == JobStatusSucceeded || s == JobStatusFailed
}

// GenerationJob tracks a single request to scaffold an application from a prompt.
type GenerationJob struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Status    JobStatus `json:"status"`
	Prompt    string    `json:"prompt"`
	Model     string    `json:"model"`
	Attempts  int       `json:"attempts"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// JobLogLine is a single log entry produced while a generation job runs.
// Seq is monotonically increasing per job and drives incremental streaming.
type JobLogLine struct {
	ID        string    `json:"id"`
	JobID     string    `json:"job_id"`
	Seq       int       `json:"seq"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
