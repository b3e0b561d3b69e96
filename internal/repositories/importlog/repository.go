package importlog

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

var columns = []string{
	"id", "data_model", "repo_name", "commit_hash", "status",
	"created_rows", "updated_rows", "deleted_rows", "error_message",
	"started_at", "finished_at",
}

// Repository handles import log persistence. Logs are append-and-update
// only; nothing in the pipeline ever deletes one.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new import log repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create opens a new run record with status running.
func (r *Repository) Create(ctx context.Context, dataModel, repoName, commitHash string) (*models.ImportLog, error) {
	ctx, span := tracing.StartSpan(ctx, "importlog.Repository.Create")
	defer span.End()

	log := &models.ImportLog{
		ID:         uuid.New().String(),
		DataModel:  dataModel,
		RepoName:   repoName,
		CommitHash: commitHash,
		Status:     models.ImportLogStatusRunning,
		StartedAt:  time.Now().UTC(),
	}

	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertInto("import_logs")
	ib.Cols("id", "data_model", "repo_name", "commit_hash", "status", "started_at")
	ib.Values(log.ID, log.DataModel, log.RepoName, log.CommitHash, log.Status, log.StartedAt)

	query, args := ib.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"data_model": dataModel, "repo_name": repoName}).Error("Failed to create import log")
		return nil, httperror.NewHTTPErrorf(http.StatusInternalServerError, "failed to create import log: %v", err)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"id": log.ID, "data_model": dataModel, "commit_hash": commitHash}).Info("Started import run")
	return log, nil
}

// MarkFinished closes a run as finished with its row counts.
func (r *Repository) MarkFinished(ctx context.Context, id string, createdRows, updatedRows, deletedRows int) error {
	ctx, span := tracing.StartSpan(ctx, "importlog.Repository.MarkFinished")
	defer span.End()

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("import_logs")
	ub.Set(
		ub.Assign("status", models.ImportLogStatusFinished),
		ub.Assign("created_rows", createdRows),
		ub.Assign("updated_rows", updatedRows),
		ub.Assign("deleted_rows", deletedRows),
		ub.Assign("finished_at", time.Now().UTC()),
	)
	ub.Where(ub.Equal("id", id))

	query, args := ub.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to mark import log finished")
		return httperror.NewHTTPErrorf(http.StatusInternalServerError, "failed to finish import log: %v", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("import log %s not found", id))
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":           id,
		"created_rows": createdRows,
		"updated_rows": updatedRows,
		"deleted_rows": deletedRows,
	}).Info("Finished import run")
	return nil
}

// MarkFailed closes a run as failed, keeping the error text verbatim.
func (r *Repository) MarkFailed(ctx context.Context, id string, errorMessage string) error {
	ctx, span := tracing.StartSpan(ctx, "importlog.Repository.MarkFailed")
	defer span.End()

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("import_logs")
	ub.Set(
		ub.Assign("status", models.ImportLogStatusFailed),
		ub.Assign("error_message", errorMessage),
		ub.Assign("finished_at", time.Now().UTC()),
	)
	ub.Where(ub.Equal("id", id))

	query, args := ub.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to mark import log failed")
		return httperror.NewHTTPErrorf(http.StatusInternalServerError, "failed to fail import log: %v", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("import log %s not found", id))
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"id": id, "error_message": errorMessage}).Warn("Failed import run")
	return nil
}

// Get retrieves an import log by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.ImportLog, error) {
	ctx, span := tracing.StartSpan(ctx, "importlog.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("import_logs")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var log models.ImportLog
	if err := r.db.GetContext(ctx, &log, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "import log %s not found", id)
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to get import log")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get import log")
	}

	return &log, nil
}

// List retrieves import logs with filtering and pagination, newest first.
func (r *Repository) List(ctx context.Context, dataModel, status *string, page, pageSize int) (*models.ImportLogListResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "importlog.Repository.List")
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	countSb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	countSb.Select("COUNT(*)")
	countSb.From("import_logs")
	countWhere := []string{}
	if dataModel != nil {
		countWhere = append(countWhere, countSb.Equal("data_model", *dataModel))
	}
	if status != nil {
		countWhere = append(countWhere, countSb.Equal("status", *status))
	}
	if len(countWhere) > 0 {
		countSb.Where(countWhere...)
	}

	countQuery, countArgs := countSb.Build()
	var totalCount int
	if err := r.db.GetContext(ctx, &totalCount, countQuery, countArgs...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"data_model": dataModel, "status": status}).Error("Failed to count import logs")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count import logs")
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("import_logs")
	where := []string{}
	if dataModel != nil {
		where = append(where, sb.Equal("data_model", *dataModel))
	}
	if status != nil {
		where = append(where, sb.Equal("status", *status))
	}
	if len(where) > 0 {
		sb.Where(where...)
	}
	sb.OrderBy("started_at DESC")
	sb.Limit(pageSize).Offset(offset)

	query, args := sb.Build()
	var logs []models.ImportLog
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"data_model": dataModel, "status": status, "page": page, "page_size": pageSize}).Error("Failed to list import logs")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list import logs")
	}

	return &models.ImportLogListResponse{
		Items:      logs,
		TotalCount: totalCount,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

// LatestPerDataModel returns the newest run for each data model.
func (r *Repository) LatestPerDataModel(ctx context.Context) ([]models.ImportLog, error) {
	ctx, span := tracing.StartSpan(ctx, "importlog.Repository.LatestPerDataModel")
	defer span.End()

	query := `
		SELECT DISTINCT ON (data_model)
		       id, data_model, repo_name, commit_hash, status,
		       created_rows, updated_rows, deleted_rows, error_message,
		       started_at, finished_at
		FROM import_logs
		ORDER BY data_model, started_at DESC
	`

	var logs []models.ImportLog
	if err := r.db.SelectContext(ctx, &logs, query); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list latest import logs")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list latest import logs")
	}

	return logs, nil
}
