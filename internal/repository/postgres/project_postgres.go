package postgres

import (
	"context"
	"database/sql"

	"appforge/internal/model"
	"appforge/internal/repository"
)

// ProjectPostgres is a PostgreSQL implementation of repository.ProjectRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type ProjectPostgres struct {
	db *sql.DB
}

// NewProjectPostgres creates a new ProjectPostgres repository.
func NewProjectPostgres(db *sql.DB) *ProjectPostgres {
	return &ProjectPostgres{db: db}
}

var _ repository.ProjectRepository = (*ProjectPostgres)(nil)

// Create inserts a new project row and returns the stored record.
func (r *ProjectPostgres) Create(ctx context.Context, p *model.Project) (*model.Project, error) {
	const q = `
		INSERT INTO projects (id, name, description, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, name, description, status, created_at, updated_at
	`
	row := r.db.QueryRowContext(ctx, q,
		p.ID,
		p.Name,
		p.Description,
		p.Status,
		p.CreatedAt,
		p.UpdatedAt,
	)
	var out model.Project
	if err := row.Scan(
		&out.ID,
		&out.Name,
		&out.Description,
		&out.Status,
		&out.CreatedAt,
		&out.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &out, nil
}

// FindByID fetches a single project by its ID.
func (r *ProjectPostgres) FindByID(ctx context.Context, id string) (*model.Project, error) {
	const q = `
		SELECT id, name, description, status, created_at, updated_at
		FROM projects
		WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, q, id)
	var p model.Project
	if err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns projects using LIMIT/OFFSET pagination and a total count.
func (r *ProjectPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Project], error) {
	const qCount = `SELECT COUNT(*) FROM projects`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT id, name, description, status, created_at, updated_at
		FROM projects
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Project, 0)
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.Description,
			&p.Status,
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

	return &repository.PageResult[model.Project]{
		Items: items,
		Total: total,
	}, nil
}

// UpdateStatus sets the project status and bumps updated_at.
func (r *ProjectPostgres) UpdateStatus(ctx context.Context, id string, status model.ProjectStatus) error {
	const q = `UPDATE projects SET status = $2, updated_at = now() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id, status)
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

// Delete removes a project by ID. It does not return an error if the row does not exist.
func (r *ProjectPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM projects WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}
