package snapshot

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Gobusters/ectologger"
	"github.com/pkg/errors"

	"github.com/Ramsey-B/magnolia/pkg/tracing"
)

// FileSource reads snapshots from a local directory tree kept in sync with
// the external versioned store. Layout: <root>/<repo>/LATEST holds the newest
// commit hash, <root>/<repo>/<hash>.csv holds that commit's full extract.
type FileSource struct {
	root   string
	logger ectologger.Logger
}

func NewFileSource(root string, logger ectologger.Logger) *FileSource {
	return &FileSource{
		root:   root,
		logger: logger,
	}
}

func (s *FileSource) LatestCommit(ctx context.Context, repoName string) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "snapshot.FileSource.LatestCommit")
	defer span.End()

	path := filepath.Join(s.root, repoName, "LATEST")
	data, err := os.ReadFile(path)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"repo_name": repoName, "path": path}).Error("Failed to read latest commit pointer")
		return "", errors.Wrap(err, fmt.Sprintf("failed to read latest commit for repo %s", repoName))
	}

	return strings.TrimSpace(string(data)), nil
}

func (s *FileSource) Fetch(ctx context.Context, repoName, commitHash string) (*Snapshot, error) {
	ctx, span := tracing.StartSpan(ctx, "snapshot.FileSource.Fetch")
	defer span.End()

	path := filepath.Join(s.root, repoName, commitHash+".csv")
	file, err := os.Open(path)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"repo_name": repoName, "commit_hash": commitHash, "path": path}).Error("Failed to open snapshot file")
		return nil, errors.Wrap(err, fmt.Sprintf("failed to open snapshot %s@%s", repoName, commitHash))
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // short rows are normalized downstream

	records, err := reader.ReadAll()
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"repo_name": repoName, "commit_hash": commitHash}).Error("Failed to parse snapshot CSV")
		return nil, errors.Wrap(err, fmt.Sprintf("failed to parse snapshot %s@%s", repoName, commitHash))
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("snapshot %s@%s has no header row", repoName, commitHash)
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"repo_name":   repoName,
		"commit_hash": commitHash,
		"rows":        len(records) - 1,
	}).Debug("Loaded snapshot")

	return &Snapshot{
		CommitHash: commitHash,
		Columns:    records[0],
		Rows:       records[1:],
	}, nil
}
