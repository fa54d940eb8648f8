package repository

import (
	"context"
	"time"

	"appforge/internal/model"
)

// PreviewRepository defines data access for preview environments.
type PreviewRepository interface {
	// Create inserts a new preview record and returns the stored row.
	Create(ctx context.Context, p *model.PreviewEnvironment) (*model.PreviewEnvironment, error)

	// FindByID returns a preview by its ID.
	FindByID(ctx context.Context, id string) (*model.PreviewEnvironment, error)

	// FindActiveByProject returns the newest non-terminal preview for a project, if any.
	FindActiveByProject(ctx context.Context, projectID string) (*model.PreviewEnvironment, error)

	// UpdateStatus sets status and URL, bumping updated_at.
	UpdateStatus(ctx context.Context, id string, status model.PreviewStatus, url string) error

	// ListExpired returns non-terminal previews whose expires_at is before the cutoff.
	ListExpired(ctx context.Context, cutoff time.Time) ([]model.PreviewEnvironment, error)
}
