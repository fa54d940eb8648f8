package repository

import (
	"context"

	"appforge/internal/model"
)

// ProjectRepository defines data access for projects using SQL queries only.
// No business logic here — strictly persistence operations.
type ProjectRepository interface {
	// Create inserts a new project record and returns the stored row.
	Create(ctx context.Context, p *model.Project) (*model.Project, error)

	// FindByID returns a project by its ID.
	FindByID(ctx context.Context, id string) (*model.Project, error)

	// List returns a paginated list of projects and the total row count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Project], error)

	// UpdateStatus sets the project status and bumps updated_at.
	UpdateStatus(ctx context.Context, id string, status model.ProjectStatus) error

	// Delete removes a project by ID. It returns nil if the row was deleted or did not exist.
	Delete(ctx context.Context, id string) error
}
