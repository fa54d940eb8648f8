package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"appforge/internal/model"
	"appforge/internal/repository"
	"appforge/internal/storage"
)

// ErrFileNotFound indicates no app file exists for the given ID.
var ErrFileNotFound = errors.New("file not found")

// downloadURLExpiry bounds how long a presigned download link stays valid.
const downloadURLExpiry = 15 * time.Minute

// AppFileService exposes generated application files.
type AppFileService interface {
	// ListByProject returns the file metadata for a project, ordered by path.
	ListByProject(ctx context.Context, projectID string) ([]model.AppFile, error)

	// PresignDownload returns a time-limited download URL for a file.
	PresignDownload(ctx context.Context, fileID string) (string, error)
}

type appFileService struct {
	store storage.Storage
	files repository.AppFileRepository
}

// NewAppFileService constructs a new AppFileService.
func NewAppFileService(store storage.Storage, files repository.AppFileRepository) AppFileService {
	return &appFileService{store: store, files: files}
}

func (s *appFileService) ListByProject(ctx context.Context, projectID string) ([]model.AppFile, error) {
	if projectID == "" {
		return nil, ErrIDRequired
	}
	return s.files.ListByProject(ctx, projectID)
}

func (s *appFileService) PresignDownload(ctx context.Context, fileID string) (string, error) {
	if fileID == "" {
		return "", ErrIDRequired
	}
	f, err := s.files.FindByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrFileNotFound
		}
		return "", err
	}
	return s.store.PresignGet(ctx, f.StorageKey, downloadURLExpiry)
}
