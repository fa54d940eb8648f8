package postgres

import (
	"context"
	"database/sql"

	"appforge/internal/model"
	"appforge/internal/repository"
)

// AppFilePostgres is a PostgreSQL implementation of repository.AppFileRepository.
type AppFilePostgres struct {
	db *sql.DB
}

// NewAppFilePostgres creates a new AppFilePostgres repository.
func NewAppFilePostgres(db *sql.DB) *AppFilePostgres {
	return &AppFilePostgres{db: db}
}

var _ repository.AppFileRepository = (*AppFilePostgres)(nil)

// Create inserts a new file row and returns the stored record.
func (r *AppFilePostgres) Create(ctx context.Context, f *model.AppFile) (*model.AppFile, error) {
	const q = `
		INSERT INTO app_files (id, project_id, job_id, path, storage_key, size, content_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, project_id, job_id, path, storage_key, size, content_type, created_at
	`
	row := r.db.QueryRowContext(ctx, q,
		f.ID,
		f.ProjectID,
		f.JobID,
		f.Path,
		f.StorageKey,
		f.Size,
		f.ContentType,
		f.CreatedAt,
	)
	var out model.AppFile
	if err := row.Scan(
		&out.ID,
		&out.ProjectID,
		&out.JobID,
		&out.Path,
		&out.StorageKey,
		&out.Size,
		&out.ContentType,
		&out.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &out, nil
}

// FindByID fetches a single file record by its ID.
func (r *AppFilePostgres) FindByID(ctx context.Context, id string) (*model.AppFile, error) {
	const q = `
		SELECT id, project_id, job_id, path, storage_key, size, content_type, created_at
		FROM app_files
		WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, q, id)
	var f model.AppFile
	if err := row.Scan(
		&f.ID,
		&f.ProjectID,
		&f.JobID,
		&f.Path,
		&f.StorageKey,
		&f.Size,
		&f.ContentType,
		&f.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &f, nil
}

// ListByProject returns all file records for a project, ordered by path.
func (r *AppFilePostgres) ListByProject(ctx context.Context, projectID string) ([]model.AppFile, error) {
	const q = `
		SELECT id, project_id, job_id, path, storage_key, size, content_type, created_at
		FROM app_files
		WHERE project_id = $1
		ORDER BY path ASC
	`
	rows, err := r.db.QueryContext(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.AppFile, 0)
	for rows.Next() {
		var f model.AppFile
		if err := rows.Scan(
			&f.ID,
			&f.ProjectID,
			&f.JobID,
			&f.Path,
			&f.StorageKey,
			&f.Size,
			&f.ContentType,
			&f.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// DeleteByProject removes all file records for a project.
func (r *AppFilePostgres) DeleteByProject(ctx context.Context, projectID string) error {
	const q = `DELETE FROM app_files WHERE project_id = $1`
	res, err := r.db.ExecContext(ctx, q, projectID)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}
