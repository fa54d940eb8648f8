package model

import "time"

// AppFile is the metadata record for a generated application file stored in
// object storage. Path is the logical path inside the generated app;
// StorageKey is the object key in the bucket.
type AppFile struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	JobID       string    `json:"job_id"`
	Path        string    `json:"path"`
	StorageKey  string    `json:"storage_key"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
}
