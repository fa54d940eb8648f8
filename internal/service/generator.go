package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"appforge/internal/config"
	"appforge/internal/llm"
	"appforge/internal/model"
	"appforge/internal/repository"
	"appforge/internal/storage"
)

var (
	ErrPromptRequired = errors.New("prompt is required")
	ErrJobNotFound    = errors.New("generation job not found")
)

const generatorSystemPrompt = "You are an application scaffolding assistant. " +
	"Reply with a single JSON object of the form " +
	`{"files":[{"path":"relative/path","content":"file content","content_type":"text/plain"}]} ` +
	"and nothing else. Paths must be relative and unique."

// JobListResult is the service-level DTO for paginated generation jobs.
type JobListResult struct {
	Items []model.GenerationJob `json:"data"`
	Total int                   `json:"total"`
}

// GeneratorService defines the use cases for generation jobs.
type GeneratorService interface {
	// StartGeneration validates the request, records a queued job, and runs it
	// asynchronously. The returned job is in the queued state.
	StartGeneration(ctx context.Context, projectID, prompt string) (*model.GenerationJob, error)

	// GetJob returns a job by its ID.
	GetJob(ctx context.Context, id string) (*model.GenerationJob, error)

	// ListJobs returns a project's generation jobs, newest first, with a total count.
	ListJobs(ctx context.Context, projectID string, limit, offset int) (*JobListResult, error)

	// ListLogsAfter returns job log lines with seq greater than afterSeq.
	ListLogsAfter(ctx context.Context, jobID string, afterSeq int) ([]model.JobLogLine, error)
}

// generatorService implements GeneratorService. The generation pipeline is:
// prompt -> model call -> manifest parse/validate -> bounded fix loop ->
// object storage upload -> file metadata rows -> job terminal state.
type generatorService struct {
	client   llm.Client
	store    storage.Storage
	projects repository.ProjectRepository
	jobs     repository.GenerationJobRepository
	files    repository.AppFileRepository
	cfg      config.LLMConfig
}

// NewGeneratorService constructs a new GeneratorService.
func NewGeneratorService(
	client llm.Client,
	store storage.Storage,
	projects repository.ProjectRepository,
	jobs repository.GenerationJobRepository,
	files repository.AppFileRepository,
	cfg config.LLMConfig,
) GeneratorService {
	return &generatorService{
		client:   client,
		store:    store,
		projects: projects,
		jobs:     jobs,
		files:    files,
		cfg:      cfg,
	}
}

func (s *generatorService) StartGeneration(ctx context.Context, projectID, prompt string) (*model.GenerationJob, error) {
	if projectID == "" {
		return nil, ErrIDRequired
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrPromptRequired
	}
	if _, err := s.projects.FindByID(ctx, projectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}

	now := time.Now().UTC()
	job := &model.GenerationJob{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Status:    model.JobStatusQueued,
		Prompt:    prompt,
		Model:     s.cfg.Model,
		CreatedAt: now,
		UpdatedAt: now,
	}
	stored, err := s.jobs.Create(ctx, job)
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	// The job outlives the HTTP request; bound it by the configured LLM
	// timeout plus headroom for storage uploads instead.
	timeout := time.Duration(s.cfg.TimeoutSec)*time.Second + 30*time.Second
	go func() {
		runCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		s.run(runCtx, stored)
	}()

	return stored, nil
}

func (s *generatorService) GetJob(ctx context.Context, id string) (*model.GenerationJob, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	job, err := s.jobs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return job, nil
}

func (s *generatorService) ListJobs(ctx context.Context, projectID string, limit, offset int) (*JobListResult, error) {
	if projectID == "" {
		return nil, ErrIDRequired
	}
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.jobs.ListByProject(ctx, projectID, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &JobListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *generatorService) ListLogsAfter(ctx context.Context, jobID string, afterSeq int) ([]model.JobLogLine, error) {
	if jobID == "" {
		return nil, ErrIDRequired
	}
	return s.jobs.ListLogsAfter(ctx, jobID, afterSeq)
}

// jobRun tracks per-run state: the monotonically increasing log sequence.
type jobRun struct {
	job *model.GenerationJob
	seq int
}

// run executes the full generation pipeline for a job. It is called once per
// job and always leaves the job in exactly one terminal state.
func (s *generatorService) run(ctx context.Context, job *model.GenerationJob) {
	r := &jobRun{job: job}

	if err := s.jobs.UpdateStatus(ctx, job.ID, model.JobStatusRunning, 1, ""); err != nil {
		// The job must not stay queued forever; record the failure instead.
		s.fail(ctx, r, 1, fmt.Errorf("mark job running: %w", err))
		return
	}
	s.log(ctx, r, "info", "generation started")

	m, attempts, err := s.generateManifest(ctx, r)
	if err != nil {
		s.fail(ctx, r, attempts, err)
		return
	}

	if err := s.replaceProjectFiles(ctx, r, m); err != nil {
		s.fail(ctx, r, attempts, err)
		return
	}

	if err := s.projects.UpdateStatus(ctx, job.ProjectID, model.ProjectStatusGenerated); err != nil {
		s.fail(ctx, r, attempts, fmt.Errorf("update project status: %w", err))
		return
	}

	s.log(ctx, r, "info", fmt.Sprintf("generation succeeded with %d file(s)", len(m.Files)))
	_ = s.jobs.UpdateStatus(ctx, job.ID, model.JobStatusSucceeded, attempts, "")
}

// generateManifest calls the model and repairs invalid manifests in a bounded
// loop. Attempts never exceed 1 + MaxFixAttempts.
func (s *generatorService) generateManifest(ctx context.Context, r *jobRun) (*manifest, int, error) {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: generatorSystemPrompt},
		{Role: llm.RoleUser, Content: r.job.Prompt},
	}

	maxAttempts := 1 + s.cfg.MaxFixAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 1; ; attempt++ {
		s.log(ctx, r, "info", fmt.Sprintf("calling model (attempt %d/%d)", attempt, maxAttempts))

		resp, err := s.client.Complete(ctx, llm.Request{Model: r.job.Model, Messages: messages})
		if err != nil {
			return nil, attempt, fmt.Errorf("model call failed: %w", err)
		}

		m, err := parseManifest(resp.Content)
		if err == nil {
			s.log(ctx, r, "info", fmt.Sprintf("manifest parsed: %d file(s)", len(m.Files)))
			return m, attempt, nil
		}

		s.log(ctx, r, "warn", fmt.Sprintf("manifest rejected: %v", err))
		if attempt >= maxAttempts {
			return nil, attempt, fmt.Errorf("manifest invalid after %d attempt(s): %w", attempt, err)
		}

		_ = s.jobs.UpdateStatus(ctx, r.job.ID, model.JobStatusFixing, attempt+1, "")
		messages = append(messages,
			llm.Message{Role: llm.RoleUser, Content: fmt.Sprintf(
				"Your previous reply was rejected: %v. Reply again with only the corrected JSON manifest.", err)},
		)
	}
}

// replaceProjectFiles clears any previously generated files, uploads the new
// set, and records metadata rows. On a mid-flight failure all objects uploaded
// in this run are removed so a failed job leaves no partial file rows.
func (s *generatorService) replaceProjectFiles(ctx context.Context, r *jobRun, m *manifest) error {
	existing, err := s.files.ListByProject(ctx, r.job.ProjectID)
	if err != nil {
		return fmt.Errorf("list existing files: %w", err)
	}
	for _, f := range existing {
		if err := s.store.Delete(ctx, f.StorageKey); err != nil {
			return fmt.Errorf("remove stale object %s: %w", f.StorageKey, err)
		}
	}
	if err := s.files.DeleteByProject(ctx, r.job.ProjectID); err != nil {
		return fmt.Errorf("remove stale file rows: %w", err)
	}
	if len(existing) > 0 {
		s.log(ctx, r, "info", fmt.Sprintf("replaced %d stale file(s)", len(existing)))
	}

	uploaded := make([]string, 0, len(m.Files))
	rollback := func() {
		for _, key := range uploaded {
			_ = s.store.Delete(ctx, key)
		}
		_ = s.files.DeleteByProject(ctx, r.job.ProjectID)
	}

	for _, mf := range m.Files {
		key := path.Join("apps", r.job.ProjectID, mf.Path)
		info, err := s.store.Put(ctx, key, strings.NewReader(mf.Content), storage.PutObjectOptions{
			Size:        int64(len(mf.Content)),
			ContentType: mf.contentType(),
		})
		if err != nil {
			rollback()
			return fmt.Errorf("upload %s: %w", mf.Path, err)
		}
		uploaded = append(uploaded, key)

		if _, err := s.files.Create(ctx, &model.AppFile{
			ID:          uuid.New().String(),
			ProjectID:   r.job.ProjectID,
			JobID:       r.job.ID,
			Path:        mf.Path,
			StorageKey:  key,
			Size:        info.Size,
			ContentType: mf.contentType(),
			CreatedAt:   time.Now().UTC(),
		}); err != nil {
			rollback()
			return fmt.Errorf("record file %s: %w", mf.Path, err)
		}
		s.log(ctx, r, "info", "stored "+mf.Path)
	}
	return nil
}

func (s *generatorService) fail(ctx context.Context, r *jobRun, attempts int, err error) {
	s.log(ctx, r, "error", err.Error())
	_ = s.jobs.UpdateStatus(ctx, r.job.ID, model.JobStatusFailed, attempts, err.Error())
}

// log appends a job log line. Logging is best-effort: a failed insert must not
// abort the pipeline.
func (s *generatorService) log(ctx context.Context, r *jobRun, level, message string) {
	r.seq++
	_ = s.jobs.AppendLog(ctx, &model.JobLogLine{
		ID:        uuid.New().String(),
		JobID:     r.job.ID,
		Seq:       r.seq,
		Level:     level,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	})
}

// manifest is the strict JSON document the model must return.
type manifest struct {
	Files []manifestFile `json:"files"`
}

type manifestFile struct {
	Path        string `json:"path"`
	Content     string `json:"content"`
	ContentType string `json:"content_type"`
}

func (f manifestFile) contentType() string {
	if f.ContentType == "" {
		return "text/plain"
	}
	return f.ContentType
}

// parseManifest decodes and validates a model reply. Markdown code fences are
// tolerated since models frequently wrap JSON in them.
func parseManifest(raw string) (*manifest, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var m manifest
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("not valid JSON: %w", err)
	}
	if len(m.Files) == 0 {
		return nil, errors.New("manifest contains no files")
	}

	seen := make(map[string]bool, len(m.Files))
	for i := range m.Files {
		p := strings.TrimSpace(m.Files[i].Path)
		if p == "" {
			return nil, errors.New("manifest file with empty path")
		}
		if strings.HasPrefix(p, "/") || strings.Contains(p, "..") {
			return nil, fmt.Errorf("unsafe path %q", p)
		}
		if seen[p] {
			return nil, fmt.Errorf("duplicate path %q", p)
		}
		seen[p] = true
		m.Files[i].Path = p
	}
	return &m, nil
}
