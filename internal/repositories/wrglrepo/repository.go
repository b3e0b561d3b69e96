package wrglrepo

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/magnolia/pkg/database"
	"github.com/Ramsey-B/magnolia/pkg/models"
	"github.com/Ramsey-B/magnolia/pkg/tracing"
)

// Repository tracks commit pointers of the external versioned CSV source,
// one row per data model.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new wrgl repo repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Get returns the commit pointers for a data model, or nil if the data model
// has never been imported.
func (r *Repository) Get(ctx context.Context, dataModel string) (*models.WrglRepo, error) {
	ctx, span := tracing.StartSpan(ctx, "wrglrepo.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "data_model", "repo_name", "commit_hash", "latest_commit_hash", "created_at", "updated_at")
	sb.From("wrgl_repos")
	sb.Where(sb.Equal("data_model", dataModel))

	query, args := sb.Build()
	var repo models.WrglRepo
	if err := r.db.GetContext(ctx, &repo, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"data_model": dataModel}).Error("Failed to get wrgl repo")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get wrgl repo")
	}

	return &repo, nil
}

// UpsertLatest records the newest known commit of the external source for a
// data model, creating the pointer row on first sight.
func (r *Repository) UpsertLatest(ctx context.Context, dataModel, repoName, latestCommitHash string) error {
	ctx, span := tracing.StartSpan(ctx, "wrglrepo.Repository.UpsertLatest")
	defer span.End()

	now := time.Now().UTC()
	ib := database.NewInsertBuilder()
	ib.InsertInto("wrgl_repos")
	ib.Cols("id", "data_model", "repo_name", "commit_hash", "latest_commit_hash", "created_at", "updated_at")
	ib.Values(uuid.New().String(), dataModel, repoName, "", latestCommitHash, now, now)

	ub := ib.OnConflict("data_model")
	ub.Set(
		ub.Assign("repo_name", database.Excluded("repo_name")),
		ub.Assign("latest_commit_hash", database.Excluded("latest_commit_hash")),
		ub.Assign("updated_at", database.Excluded("updated_at")),
	)

	query, args := ib.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"data_model": dataModel, "latest_commit_hash": latestCommitHash}).Error("Failed to upsert latest commit")
		return httperror.NewHTTPErrorf(http.StatusInternalServerError, "failed to upsert latest commit: %v", err)
	}

	return nil
}

// AdvanceCommit moves the last-imported pointer forward after a successful
// run. Only called on success; a failed run leaves the pointer untouched so
// the next run retries the same commit.
func (r *Repository) AdvanceCommit(ctx context.Context, dataModel, commitHash string) error {
	ctx, span := tracing.StartSpan(ctx, "wrglrepo.Repository.AdvanceCommit")
	defer span.End()

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("wrgl_repos")
	ub.Set(
		ub.Assign("commit_hash", commitHash),
		ub.Assign("updated_at", time.Now().UTC()),
	)
	ub.Where(ub.Equal("data_model", dataModel))

	query, args := ub.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"data_model": dataModel, "commit_hash": commitHash}).Error("Failed to advance commit pointer")
		return httperror.NewHTTPErrorf(http.StatusInternalServerError, "failed to advance commit pointer: %v", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("wrgl repo for %s not found", dataModel))
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"data_model": dataModel, "commit_hash": commitHash}).Info("Advanced commit pointer")
	return nil
}
