package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"appforge/internal/model"
	"appforge/internal/repository"
)

func jobColumns() []string {
	return []string{"id", "project_id", "status", "prompt", "model", "attempts", "error", "created_at", "updated_at"}
}

func TestGenerationJobPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewGenerationJobPostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	job := &model.GenerationJob{
		ID:        "job-id",
		ProjectID: "project-id",
		Status:    model.JobStatusQueued,
		Prompt:    "build a todo app",
		Model:     "gpt-4o-mini",
		CreatedAt: now,
		UpdatedAt: now,
	}

	rows := sqlmock.NewRows(jobColumns()).
		AddRow(job.ID, job.ProjectID, string(job.Status), job.Prompt, job.Model, 0, "", now, now)

	mock.ExpectQuery("INSERT INTO generation_jobs").
		WithArgs(job.ID, job.ProjectID, job.Status, job.Prompt, job.Model, job.Attempts, job.Error, job.CreatedAt, job.UpdatedAt).
		WillReturnRows(rows)

	result, err := repo.Create(ctx, job)

	assert.NoError(t, err)
	assert.Equal(t, model.JobStatusQueued, result.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerationJobPostgres_ListByProject(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewGenerationJobPostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()

	mock.ExpectQuery("SELECT COUNT(.+) FROM generation_jobs").
		WithArgs("project-id").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	rows := sqlmock.NewRows(jobColumns()).
		AddRow("job-2", "project-id", "succeeded", "add auth", "gpt-4o-mini", 1, "", now, now).
		AddRow("job-1", "project-id", "failed", "build a todo app", "gpt-4o-mini", 2, "manifest invalid", now.Add(-time.Hour), now.Add(-time.Hour))

	mock.ExpectQuery("SELECT (.+) FROM generation_jobs").
		WithArgs("project-id", 10, 0).
		WillReturnRows(rows)

	res, err := repo.ListByProject(ctx, "project-id", repository.PageQuery{Limit: 10, Offset: 0})

	assert.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	assert.Len(t, res.Items, 2)
	assert.Equal(t, "job-2", res.Items[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerationJobPostgres_UpdateStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewGenerationJobPostgres(db)
	ctx := context.Background()

	t.Run("updated", func(t *testing.T) {
		mock.ExpectExec("UPDATE generation_jobs").
			WithArgs("job-id", model.JobStatusFailed, 2, "manifest invalid").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateStatus(ctx, "job-id", model.JobStatusFailed, 2, "manifest invalid")
		assert.NoError(t, err)
	})

	t.Run("missing row", func(t *testing.T) {
		mock.ExpectExec("UPDATE generation_jobs").
			WithArgs("missing", model.JobStatusRunning, 1, "").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateStatus(ctx, "missing", model.JobStatusRunning, 1, "")
		assert.True(t, errors.Is(err, sql.ErrNoRows))
	})
}

func TestGenerationJobPostgres_AppendLogAndList(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewGenerationJobPostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	line := &model.JobLogLine{
		ID:        "log-id",
		JobID:     "job-id",
		Seq:       1,
		Level:     "info",
		Message:   "calling model",
		CreatedAt: now,
	}

	mock.ExpectExec("INSERT INTO generation_logs").
		WithArgs(line.ID, line.JobID, line.Seq, line.Level, line.Message, line.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.AppendLog(ctx, line))

	rows := sqlmock.NewRows([]string{"id", "job_id", "seq", "level", "message", "created_at"}).
		AddRow("log-id-2", "job-id", 2, "info", "manifest parsed", now)

	mock.ExpectQuery("SELECT (.+) FROM generation_logs").
		WithArgs("job-id", 1).
		WillReturnRows(rows)

	lines, err := repo.ListLogsAfter(ctx, "job-id", 1)

	assert.NoError(t, err)
	assert.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Seq)
	assert.NoError(t, mock.ExpectationsWereMet())
}
