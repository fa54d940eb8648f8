package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"appforge/internal/model"
	"appforge/internal/repository"
	"appforge/internal/storage"
)

var (
	ErrIDRequired      = errors.New("id is required")
	ErrNameRequired    = errors.New("name is required")
	ErrProjectNotFound = errors.New("project not found")
)

// ProjectListResult is the service-level DTO for paginated projects.
type ProjectListResult struct {
	Items []model.Project `json:"data"`
	Total int             `json:"total"`
}

// ProjectService defines the use cases for managing projects.
type ProjectService interface {
	// Create validates the input and stores a new draft project.
	Create(ctx context.Context, name, description string) (*model.Project, error)

	// List returns projects using limit/offset and a total count.
	List(ctx context.Context, limit, offset int) (*ProjectListResult, error)

	// Get returns a single project by its ID.
	Get(ctx context.Context, id string) (*model.Project, error)

	// Delete removes a project, its generated files in object storage, and their metadata rows.
	Delete(ctx context.Context, id string) error
}

// projectService is a concrete implementation of ProjectService.
type projectService struct {
	store    storage.Storage
	projects repository.ProjectRepository
	files    repository.AppFileRepository
}

// NewProjectService constructs a new ProjectService.
func NewProjectService(store storage.Storage, projects repository.ProjectRepository, files repository.AppFileRepository) ProjectService {
	return &projectService{store: store, projects: projects, files: files}
}

func (s *projectService) Create(ctx context.Context, name, description string) (*model.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	now := time.Now().UTC()
	p := &model.Project{
		ID:          uuid.New().String(),
		Name:        name,
		Description: strings.TrimSpace(description),
		Status:      model.ProjectStatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	stored, err := s.projects.Create(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return stored, nil
}

// List returns paginated projects without exposing repository types.
func (s *projectService) List(ctx context.Context, limit, offset int) (*ProjectListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.projects.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &ProjectListResult{Items: res.Items, Total: res.Total}, nil
}

// Get returns a project by ID.
func (s *projectService) Get(ctx context.Context, id string) (*model.Project, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	p, err := s.projects.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return p, nil
}

// Delete removes generated objects from storage first, then the metadata rows.
// The project row is deleted last so a storage failure keeps references intact.
func (s *projectService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	if _, err := s.projects.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrProjectNotFound
		}
		return err
	}

	files, err := s.files.ListByProject(ctx, id)
	if err != nil {
		return fmt.Errorf("list project files: %w", err)
	}
	for _, f := range files {
		if err := s.store.Delete(ctx, f.StorageKey); err != nil {
			return fmt.Errorf("delete storage object %s: %w", f.StorageKey, err)
		}
	}
	if err := s.files.DeleteByProject(ctx, id); err != nil {
		return fmt.Errorf("delete file rows: %w", err)
	}
	return s.projects.Delete(ctx, id)
}
