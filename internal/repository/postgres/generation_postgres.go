package postgres

import (
	"context"
	"database/sql"

	"appforge/internal/model"
	"appforge/internal/repository"
)

// GenerationJobPostgres is a PostgreSQL implementation of repository.GenerationJobRepository.
type GenerationJobPostgres struct {
	db *sql.DB
}

// NewGenerationJobPostgres creates a new GenerationJobPostgres repository.
func NewGenerationJobPostgres(db *sql.DB) *GenerationJobPostgres {
	return &GenerationJobPostgres{db: db}
}

var _ repository.GenerationJobRepository = (*GenerationJobPostgres)(nil)

// Create inserts a new job row and returns the stored record.
func (r *GenerationJobPostgres) Create(ctx context.Context, job *model.GenerationJob) (*model.GenerationJob, error) {
	const q = `
		INSERT INTO generation_jobs (id, project_id, status, prompt, model, attempts, error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, project_id, status, prompt, model, attempts, error, created_at, updated_at
	`
	row := r.db.QueryRowContext(ctx, q,
		job.ID,
		job.ProjectID,
		job.Status,
		job.Prompt,
		job.Model,
		job.Attempts,
		job.Error,
		job.CreatedAt,
		job.UpdatedAt,
	)
	var out model.GenerationJob
	if err := scanJob(row, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FindByID fetches a single job by its ID.
func (r *GenerationJobPostgres) FindByID(ctx context.Context, id string) (*model.GenerationJob, error) {
	const q = `
		SELECT id, project_id, status, prompt, model, attempts, error, created_at, updated_at
		FROM generation_jobs
		WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, q, id)
	var job model.GenerationJob
	if err := scanJob(row, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// ListByProject returns jobs for a project, newest first.
func (r *GenerationJobPostgres) ListByProject(ctx context.Context, projectID string, pq repository.PageQuery) (*repository.PageResult[model.GenerationJob], error) {
	const qCount = `SELECT COUNT(*) FROM generation_jobs WHERE project_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount, projectID).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT id, project_id, status, prompt, model, attempts, error, created_at, updated_at
		FROM generation_jobs
		WHERE project_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, qList, projectID, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.GenerationJob, 0)
	for rows.Next() {
		var job model.GenerationJob
		if err := rows.Scan(
			&job.ID,
			&job.ProjectID,
			&job.Status,
			&job.Prompt,
			&job.Model,
			&job.Attempts,
			&job.Error,
			&job.CreatedAt,
			&job.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, job)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.GenerationJob]{Items: items, Total: total}, nil
}

// UpdateStatus sets status, attempts and error message, bumping updated_at.
func (r *GenerationJobPostgres) UpdateStatus(ctx context.Context, id string, status model.JobStatus, attempts int, errMsg string) error {
	const q = `
		UPDATE generation_jobs
		SET status = $2, attempts = $3, error = $4, updated_at = now()
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, q, id, status, attempts, errMsg)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AppendLog inserts a log line for a job.
func (r *GenerationJobPostgres) AppendLog(ctx context.Context, line *model.JobLogLine) error {
	const q = `
		INSERT INTO generation_logs (id, job_id, seq, level, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, q,
		line.ID,
		line.JobID,
		line.Seq,
		line.Level,
		line.Message,
		line.CreatedAt,
	)
	return err
}

// ListLogsAfter returns log lines for a job with seq greater than afterSeq, in seq order.
func (r *GenerationJobPostgres) ListLogsAfter(ctx context.Context, jobID string, afterSeq int) ([]model.JobLogLine, error) {
	const q = `
		SELECT id, job_id, seq, level, message, created_at
		FROM generation_logs
		WHERE job_id = $1 AND seq > $2
		ORDER BY seq ASC
	`
	rows, err := r.db.QueryContext(ctx, q, jobID, afterSeq)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := make([]model.JobLogLine, 0)
	for rows.Next() {
		var l model.JobLogLine
		if err := rows.Scan(
			&l.ID,
			&l.JobID,
			&l.Seq,
			&l.Level,
			&l.Message,
			&l.CreatedAt,
		); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func scanJob(row *sql.Row, job *model.GenerationJob) error {
	return row.Scan(
		&job.ID,
		&job.ProjectID,
		&job.Status,
		&job.Prompt,
		&job.Model,
		&job.Attempts,
		&job.Error,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
}
