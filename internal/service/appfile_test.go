package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"

	"appforge/internal/model"
	repoMocks "appforge/internal/repository/mocks"
	storeMocks "appforge/internal/storage/mocks"
)

func TestAppFileService_ListByProject(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path", func(t *testing.T) {
		mFiles := new(repoMocks.MockAppFileRepository)
		mFiles.On("ListByProject", ctx, "p1").Return([]model.AppFile{
			{ID: "f1", Path: "go.mod"},
			{ID: "f2", Path: "main.go"},
		}, nil)

		svc := NewAppFileService(nil, mFiles)
		files, err := svc.ListByProject(ctx, "p1")

		assert.NoError(t, err)
		assert.Len(t, files, 2)
		mFiles.AssertExpectations(t)
	})

	t.Run("validation - empty project id", func(t *testing.T) {
		svc := NewAppFileService(nil, new(repoMocks.MockAppFileRepository))
		files, err := svc.ListByProject(ctx, "")

		assert.ErrorIs(t, err, ErrIDRequired)
		assert.Nil(t, files)
	})
}

func TestAppFileService_PresignDownload(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mFiles := new(repoMocks.MockAppFileRepository)
		mFiles.On("FindByID", ctx, "f1").Return(&model.AppFile{ID: "f1", StorageKey: "apps/p1/main.go"}, nil)
		mStore.On("PresignGet", ctx, "apps/p1/main.go", downloadURLExpiry).
			Return("https://minio.local/apps/p1/main.go?sig=abc", nil)

		svc := NewAppFileService(mStore, mFiles)
		url, err := svc.PresignDownload(ctx, "f1")

		assert.NoError(t, err)
		assert.Contains(t, url, "apps/p1/main.go")
		mStore.AssertExpectations(t)
		mFiles.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		mFiles := new(repoMocks.MockAppFileRepository)
		mFiles.On("FindByID", ctx, "missing").Return(nil, sql.ErrNoRows)

		svc := NewAppFileService(nil, mFiles)
		url, err := svc.PresignDownload(ctx, "missing")

		assert.ErrorIs(t, err, ErrFileNotFound)
		assert.Empty(t, url)
	})
}
