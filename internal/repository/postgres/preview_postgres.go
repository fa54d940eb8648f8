package postgres

import (
	"context"
	"database/sql"
	"time"

	"appforge/internal/model"
	"appforge/internal/repository"
)

// PreviewPostgres is a PostgreSQL implementation of repository.PreviewRepository.
type PreviewPostgres struct {
	db *sql.DB
}

// NewPreviewPostgres creates a new PreviewPostgres repository.
func NewPreviewPostgres(db *sql.DB) *PreviewPostgres {
	return &PreviewPostgres{db: db}
}

var _ repository.PreviewRepository = (*PreviewPostgres)(nil)

// Create inserts a new preview row and returns the stored record.
func (r *PreviewPostgres) Create(ctx context.Context, p *model.PreviewEnvironment) (*model.PreviewEnvironment, error) {
	const q = `
		INSERT INTO previews (id, project_id, status, url, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, project_id, status, url, expires_at, created_at, updated_at
	`
	row := r.db.QueryRowContext(ctx, q,
		p.ID,
		p.ProjectID,
		p.Status,
		p.URL,
		p.ExpiresAt,
		p.CreatedAt,
		p.UpdatedAt,
	)
	var out model.PreviewEnvironment
	if err := scanPreviewRow(row, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FindByID fetches a single preview by its ID.
func (r *PreviewPostgres) FindByID(ctx context.Context, id string) (*model.PreviewEnvironment, error) {
	const q = `
		SELECT id, project_id, status, url, expires_at, created_at, updated_at
		FROM previews
		WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, q, id)
	var p model.PreviewEnvironment
	if err := scanPreviewRow(row, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// FindActiveByProject returns the newest non-terminal preview for a project.
func (r *PreviewPostgres) FindActiveByProject(ctx context.Context, projectID string) (*model.PreviewEnvironment, error) {
	const q = `
		SELECT id, project_id, status, url, expires_at, created_at, updated_at
		FROM previews
		WHERE project_id = $1 AND status IN ('pending', 'building', 'running')
		ORDER BY created_at DESC
		LIMIT 1
	`
	row := r.db.QueryRowContext(ctx, q, projectID)
	var p model.PreviewEnvironment
	if err := scanPreviewRow(row, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateStatus sets status and URL, bumping updated_at.
func (r *PreviewPostgres) UpdateStatus(ctx context.Context, id string, status model.PreviewStatus, url string) error {
	const q = `UPDATE previews SET status = $2, url = $3, updated_at = now() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id, status, url)
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

// ListExpired returns non-terminal previews whose expires_at is before the
// cutoff. Pending and building rows are included so a preview whose build
// goroutine was lost still expires instead of blocking the project forever.
func (r *PreviewPostgres) ListExpired(ctx context.Context, cutoff time.Time) ([]model.PreviewEnvironment, error) {
	const q = `
		SELECT id, project_id, status, url, expires_at, created_at, updated_at
		FROM previews
		WHERE status IN ('pending', 'building', 'running') AND expires_at < $1
	`
	rows, err := r.db.QueryContext(ctx, q, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.PreviewEnvironment, 0)
	for rows.Next() {
		var p model.PreviewEnvironment
		if err := rows.Scan(
			&p.ID,
			&p.ProjectID,
			&p.Status,
			&p.URL,
			&p.ExpiresAt,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanPreviewRow(row *sql.Row, p *model.PreviewEnvironment) error {
	return row.Scan(
		&p.ID,
		&p.ProjectID,
		&p.Status,
		&p.URL,
		&p.ExpiresAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}
