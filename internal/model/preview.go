package model

import "time"

// PreviewStatus is the lifecycle state of a preview environment.
// Transitions only move forward: pending -> building -> running -> expired/deleted.
type PreviewStatus string

const (
	PreviewStatusPending  PreviewStatus = "pending"
	PreviewStatusBuilding PreviewStatus = "building"
	PreviewStatusRunning  PreviewStatus = "running"
	PreviewStatusExpired  PreviewStatus = "expired"
	PreviewStatusDeleted  PreviewStatus = "deleted"
)

// Terminal reports whether the status is a final state.
func (s PreviewStatus) Terminal() bool {
	return s == PreviewStatusExpired || s == PreviewStatusDeleted
}

// PreviewEnvironment is an ephemeral, simulated deployment record standing in
// for a real running instance of a generated application.
type PreviewEnvironment struct {
	ID        string        `json:"id"`
	ProjectID string        `json:"project_id"`
	Status    PreviewStatus `json:"status"`
	URL       string        `json:"url,omitempty"`
	ExpiresAt time.Time     `json:"expires_at"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
