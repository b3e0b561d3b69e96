package snapshot

import "context"

// Snapshot is one versioned CSV extract of an entity's full current dataset.
type Snapshot struct {
	CommitHash string
	Columns    []string
	Rows       [][]string
}

// Source provides access to the external versioned CSV store. Each data
// model maps to one repo; each commit of a repo is a full snapshot.
type Source interface {
	// LatestCommit returns the newest commit hash of the repo.
	LatestCommit(ctx context.Context, repoName string) (string, error)
	// Fetch loads the snapshot at the given commit.
	Fetch(ctx context.Context, repoName, commitHash string) (*Snapshot, error)
}
