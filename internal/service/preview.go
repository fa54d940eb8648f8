package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"appforge/internal/config"
	"appforge/internal/model"
	"appforge/internal/repository"
)

var (
	ErrPreviewNotFound = errors.New("preview not found")
	ErrPreviewActive   = errors.New("project already has an active preview")
)

// PreviewService defines the use cases for simulated preview environments.
// Builds are simulated with a fixed delay rather than real process
// supervision: a created preview moves pending -> building -> running on a
// timer and is expired by the sweeper once past its TTL.
type PreviewService interface {
	// Create records a pending preview for the project and starts the
	// simulated build. At most one non-terminal preview exists per project.
	Create(ctx context.Context, projectID string) (*model.PreviewEnvironment, error)

	// Get returns a preview by its ID.
	Get(ctx context.Context, id string) (*model.PreviewEnvironment, error)

	// Delete marks a preview deleted. Deleting an already-terminal preview is a no-op.
	Delete(ctx context.Context, id string) error

	// ExpireDue marks non-terminal previews past their TTL as expired and
	// returns how many were expired. The sweeper calls this on an interval.
	ExpireDue(ctx context.Context) (int, error)

	// StartSweeper runs the TTL sweeper until the context is cancelled.
	StartSweeper(ctx context.Context)
}

type previewService struct {
	previews repository.PreviewRepository
	projects repository.ProjectRepository
	cfg      config.PreviewConfig
	appHost  string
}

// NewPreviewService constructs a new PreviewService.
func NewPreviewService(previews repository.PreviewRepository, projects repository.ProjectRepository, cfg config.PreviewConfig, appHost string) PreviewService {
	return &previewService{previews: previews, projects: projects, cfg: cfg, appHost: appHost}
}

func (s *previewService) Create(ctx context.Context, projectID string) (*model.PreviewEnvironment, error) {
	if projectID == "" {
		return nil, ErrIDRequired
	}
	if _, err := s.projects.FindByID(ctx, projectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}

	if _, err := s.previews.FindActiveByProject(ctx, projectID); err == nil {
		return nil, ErrPreviewActive
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	now := time.Now().UTC()
	p := &model.PreviewEnvironment{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Status:    model.PreviewStatusPending,
		ExpiresAt: now.Add(time.Duration(s.cfg.TTLSec) * time.Second),
		CreatedAt: now,
		UpdatedAt: now,
	}
	stored, err := s.previews.Create(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("create preview: %w", err)
	}

	go s.runBuild(stored.ID)

	return stored, nil
}

// runBuild simulates the build with a fixed timer. Transitions are skipped if
// the preview was deleted while the timer ran (forward-only transitions).
func (s *previewService) runBuild(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second+2*time.Duration(s.cfg.BuildDelaySec)*time.Second)
	defer cancel()

	delay := time.Duration(s.cfg.BuildDelaySec) * time.Second

	time.Sleep(delay / 2)
	if !s.advance(ctx, id, model.PreviewStatusPending, model.PreviewStatusBuilding, "") {
		return
	}

	time.Sleep(delay - delay/2)
	url := fmt.Sprintf("https://%s.preview.%s", id, s.appHost)
	s.advance(ctx, id, model.PreviewStatusBuilding, model.PreviewStatusRunning, url)
}

// advance moves the preview to next only if it is still in the expected state.
func (s *previewService) advance(ctx context.Context, id string, expected, next model.PreviewStatus, url string) bool {
	p, err := s.previews.FindByID(ctx, id)
	if err != nil || p.Status != expected {
		return false
	}
	if err := s.previews.UpdateStatus(ctx, id, next, url); err != nil {
		logPreviewEvent("preview_transition_failed", id, err)
		return false
	}
	return true
}

func (s *previewService) Get(ctx context.Context, id string) (*model.PreviewEnvironment, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	p, err := s.previews.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPreviewNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *previewService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	p, err := s.previews.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrPreviewNotFound
		}
		return err
	}
	if p.Status.Terminal() {
		return nil
	}
	return s.previews.UpdateStatus(ctx, id, model.PreviewStatusDeleted, p.URL)
}

func (s *previewService) ExpireDue(ctx context.Context) (int, error) {
	due, err := s.previews.ListExpired(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, p := range due {
		if err := s.previews.UpdateStatus(ctx, p.ID, model.PreviewStatusExpired, p.URL); err != nil {
			logPreviewEvent("preview_expire_failed", p.ID, err)
			continue
		}
		expired++
	}
	return expired, nil
}

func (s *previewService) StartSweeper(ctx context.Context) {
	interval := time.Duration(s.cfg.SweepIntervalSec) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := s.ExpireDue(ctx); err != nil {
				logPreviewEvent("preview_sweep_failed", "", err)
			} else if n > 0 {
				logPreviewSweep(n)
			}
		}
	}
}

func logPreviewEvent(event, id string, err error) {
	b, _ := json.Marshal(map[string]any{
		"ts":         time.Now().UTC().Format(time.RFC3339Nano),
		"level":      "error",
		"component":  "preview",
		"event":      event,
		"preview_id": id,
		"error":      err.Error(),
	})
	log.SetFlags(0)
	log.Println(string(b))
}

func logPreviewSweep(n int) {
	b, _ := json.Marshal(map[string]any{
		"ts":        time.Now().UTC().Format(time.RFC3339Nano),
		"level":     "info",
		"component": "preview",
		"event":     "preview_sweep",
		"expired":   n,
	})
	log.SetFlags(0)
	log.Println(string(b))
}
