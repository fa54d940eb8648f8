package repository

import (
	"context"

	"appforge/internal/model"
)

// AppFileRepository defines data access for generated app file metadata.
type AppFileRepository interface {
	// Create inserts a new file record and returns the stored row.
	Create(ctx context.Context, f *model.AppFile) (*model.AppFile, error)

	// FindByID returns a file record by its ID.
	FindByID(ctx context.Context, id string) (*model.AppFile, error)

	// ListByProject returns all file records for a project, ordered by path.
	ListByProject(ctx context.Context, projectID string) ([]model.AppFile, error)

	// DeleteByProject removes all file records for a project.
	DeleteByProject(ctx context.Context, projectID string) error
}
