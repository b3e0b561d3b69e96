package models

import "time"

// Import log statuses
const (
	ImportLogStatusRunning  = "running"
	ImportLogStatusFinished = "finished"
	ImportLogStatusFailed   = "failed"
)

// ImportLog records one importer run for one data model. Rows are never
// deleted by the pipeline; they are the operator-facing audit trail.
// Field order matches schema: id, data_model, repo_name, commit_hash, ...
type ImportLog struct {
	ID           string     `json:"id" db:"id"`
	DataModel    string     `json:"data_model" db:"data_model"`
	RepoName     string     `json:"repo_name" db:"repo_name"`
	CommitHash   string     `json:"commit_hash" db:"commit_hash"` // empty if the source is not version-tracked
	Status       string     `json:"status" db:"status"`
	CreatedRows  int        `json:"created_rows" db:"created_rows"`
	UpdatedRows  int        `json:"updated_rows" db:"updated_rows"`
	DeletedRows  int        `json:"deleted_rows" db:"deleted_rows"`
	ErrorMessage *string    `json:"error_message,omitempty" db:"error_message"`
	StartedAt    time.Time  `json:"started_at" db:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty" db:"finished_at"`
}

// ImportLogListResponse is the response for listing import logs
type ImportLogListResponse struct {
	Items      []ImportLog `json:"items"`
	TotalCount int         `json:"total_count"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
}
