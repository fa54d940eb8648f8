package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"appforge/internal/model"
	"appforge/internal/repository"
	repoMocks "appforge/internal/repository/mocks"
	storeMocks "appforge/internal/storage/mocks"
)

func TestProjectService_Create(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		projectName string
		description string
		setupMocks  func(mRepo *repoMocks.MockProjectRepository)
		wantErr     error
	}{
		{
			name:        "happy path",
			projectName: "todo-app",
			description: "  a small todo app  ",
			setupMocks: func(mRepo *repoMocks.MockProjectRepository) {
				mRepo.On("Create", ctx, mock.MatchedBy(func(p *model.Project) bool {
					return p.Name == "todo-app" &&
						p.Description == "a small todo app" &&
						p.Status == model.ProjectStatusDraft &&
						p.ID != ""
				})).Return(&model.Project{ID: "gen-id", Name: "todo-app"}, nil)
			},
		},
		{
			name:        "validation - empty name",
			projectName: "   ",
			setupMocks:  func(mRepo *repoMocks.MockProjectRepository) {},
			wantErr:     ErrNameRequired,
		},
		{
			name:        "repository error",
			projectName: "todo-app",
			setupMocks: func(mRepo *repoMocks.MockProjectRepository) {
				mRepo.On("Create", ctx, mock.Anything).Return(nil, errors.New("db fail"))
			},
			wantErr: errors.New("db fail"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockProjectRepository)
			svc := NewProjectService(nil, mRepo, nil)

			tt.setupMocks(mRepo)

			p, err := svc.Create(ctx, tt.projectName, tt.description)

			if tt.wantErr != nil {
				if errors.Is(tt.wantErr, ErrNameRequired) {
					assert.ErrorIs(t, err, tt.wantErr)
				} else {
					assert.Error(t, err)
				}
				assert.Nil(t, p)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, p)
			}
			mRepo.AssertExpectations(t)
		})
	}
}

func TestProjectService_Get(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		id         string
		setupMocks func(mRepo *repoMocks.MockProjectRepository)
		wantErr    error
	}{
		{
			name: "happy path",
			id:   "valid-id",
			setupMocks: func(mRepo *repoMocks.MockProjectRepository) {
				mRepo.On("FindByID", ctx, "valid-id").Return(&model.Project{ID: "valid-id"}, nil)
			},
		},
		{
			name:       "validation - empty id",
			id:         "",
			setupMocks: func(mRepo *repoMocks.MockProjectRepository) {},
			wantErr:    ErrIDRequired,
		},
		{
			name: "not found - mapping sql.ErrNoRows",
			id:   "missing-id",
			setupMocks: func(mRepo *repoMocks.MockProjectRepository) {
				mRepo.On("FindByID", ctx, "missing-id").Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrProjectNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockProjectRepository)
			svc := NewProjectService(nil, mRepo, nil)

			tt.setupMocks(mRepo)

			p, err := svc.Get(ctx, tt.id)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, p)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.id, p.ID)
			}
			mRepo.AssertExpectations(t)
		})
	}
}

func TestProjectService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("pagination boundary - zero limit uses default", func(t *testing.T) {
		mRepo := new(repoMocks.MockProjectRepository)
		mRepo.On("List", ctx, repository.PageQuery{Limit: 10, Offset: 0}).
			Return(&repository.PageResult[model.Project]{Items: []model.Project{}, Total: 0}, nil)

		svc := NewProjectService(nil, mRepo, nil)
		res, err := svc.List(ctx, 0, -1)

		assert.NoError(t, err)
		assert.Equal(t, 0, res.Total)
		mRepo.AssertExpectations(t)
	})

	t.Run("happy path", func(t *testing.T) {
		mRepo := new(repoMocks.MockProjectRepository)
		mRepo.On("List", ctx, repository.PageQuery{Limit: 5, Offset: 10}).
			Return(&repository.PageResult[model.Project]{
				Items: []model.Project{{ID: "1"}, {ID: "2"}},
				Total: 12,
			}, nil)

		svc := NewProjectService(nil, mRepo, nil)
		res, err := svc.List(ctx, 5, 10)

		assert.NoError(t, err)
		assert.Len(t, res.Items, 2)
		assert.Equal(t, 12, res.Total)
	})
}

func TestProjectService_Delete(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		id         string
		setupMocks func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockProjectRepository, mFiles *repoMocks.MockAppFileRepository)
		wantErr    error
		wantErrMsg string
	}{
		{
			name: "happy path with generated files",
			id:   "valid-id",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockProjectRepository, mFiles *repoMocks.MockAppFileRepository) {
				mRepo.On("FindByID", ctx, "valid-id").Return(&model.Project{ID: "valid-id"}, nil)
				mFiles.On("ListByProject", ctx, "valid-id").Return([]model.AppFile{
					{ID: "f1", StorageKey: "apps/valid-id/main.go"},
					{ID: "f2", StorageKey: "apps/valid-id/go.mod"},
				}, nil)
				mStore.On("Delete", ctx, "apps/valid-id/main.go").Return(nil)
				mStore.On("Delete", ctx, "apps/valid-id/go.mod").Return(nil)
				mFiles.On("DeleteByProject", ctx, "valid-id").Return(nil)
				mRepo.On("Delete", ctx, "valid-id").Return(nil)
			},
		},
		{
			name: "not found",
			id:   "missing-id",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockProjectRepository, mFiles *repoMocks.MockAppFileRepository) {
				mRepo.On("FindByID", ctx, "missing-id").Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrProjectNotFound,
		},
		{
			name: "storage delete error keeps rows",
			id:   "storage-fail-id",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockProjectRepository, mFiles *repoMocks.MockAppFileRepository) {
				mRepo.On("FindByID", ctx, "storage-fail-id").Return(&model.Project{ID: "storage-fail-id"}, nil)
				mFiles.On("ListByProject", ctx, "storage-fail-id").Return([]model.AppFile{
					{ID: "f1", StorageKey: "apps/storage-fail-id/main.go"},
				}, nil)
				mStore.On("Delete", ctx, "apps/storage-fail-id/main.go").Return(errors.New("storage fail"))
			},
			wantErrMsg: "storage fail",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			mRepo := new(repoMocks.MockProjectRepository)
			mFiles := new(repoMocks.MockAppFileRepository)
			svc := NewProjectService(mStore, mRepo, mFiles)

			tt.setupMocks(mStore, mRepo, mFiles)

			err := svc.Delete(ctx, tt.id)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else if tt.wantErrMsg != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrMsg)
			} else {
				assert.NoError(t, err)
			}
			mStore.AssertExpectations(t)
			mRepo.AssertExpectations(t)
			mFiles.AssertExpectations(t)
		})
	}
}
