package models

import "time"

// WrglRepo tracks, per data model, the last successfully imported commit of
// the external versioned CSV source and the latest commit known to exist.
// When the two match there is nothing new to import.
type WrglRepo struct {
	ID               string    `json:"id" db:"id"`
	DataModel        string    `json:"data_model" db:"data_model"`
	RepoName         string    `json:"repo_name" db:"repo_name"`
	CommitHash       string    `json:"commit_hash" db:"commit_hash"`
	LatestCommitHash string    `json:"latest_commit_hash" db:"latest_commit_hash"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}
