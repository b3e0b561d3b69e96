package entitystore

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/magnolia/pkg/database"
	"github.com/Ramsey-B/magnolia/pkg/importerrors"
	"github.com/Ramsey-B/magnolia/pkg/metrics"
	"github.com/Ramsey-B/magnolia/pkg/models"
	"github.com/Ramsey-B/magnolia/pkg/tracing"
)

// Repository is the schema-driven store shared by every entity importer.
// One instance serves all entity tables; the EntitySchema passed to each
// call decides the table and column set.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new entity store repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// SelectFixedRows returns the entity table projected to the schema's fixed
// fields, every value cast to text with NULL as "". Reconciliation compares
// these against raw CSV values, so the projection must stay stringly.
func (r *Repository) SelectFixedRows(ctx context.Context, schema *models.EntitySchema) ([][]string, error) {
	ctx, span := tracing.StartSpan(ctx, "entitystore.Repository.SelectFixedRows")
	defer span.End()

	fixed := schema.FixedFields()
	cols := make([]string, len(fixed))
	for i, field := range fixed {
		cols[i] = fmt.Sprintf("COALESCE(%s::text, '')", field)
	}
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), schema.Table)

	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"table": schema.Table}).Error("Failed to select fixed-field projection")
		return nil, httperror.NewHTTPErrorf(http.StatusInternalServerError, "failed to select %s projection: %v", schema.Table, err)
	}
	defer rows.Close()

	var result [][]string
	for rows.Next() {
		values := make([]string, len(fixed))
		scan := make([]any, len(fixed))
		for i := range values {
			scan[i] = &values[i]
		}
		if err := rows.Scan(scan...); err != nil {
			r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"table": schema.Table}).Error("Failed to scan projection row")
			return nil, httperror.NewHTTPErrorf(http.StatusInternalServerError, "failed to scan %s projection: %v", schema.Table, err)
		}
		result = append(result, values)
	}
	if err := rows.Err(); err != nil {
		return nil, httperror.NewHTTPErrorf(http.StatusInternalServerError, "failed to read %s projection: %v", schema.Table, err)
	}

	return result, nil
}

// IDsByKey returns surrogate ids keyed by a natural-key column, loaded in a
// single query. Importers call this once per referenced table at the start of
// a run instead of resolving keys row by row.
func (r *Repository) IDsByKey(ctx context.Context, table, keyColumn string) (map[string]string, error) {
	ctx, span := tracing.StartSpan(ctx, "entitystore.Repository.IDsByKey")
	defer span.End()

	query := fmt.Sprintf("SELECT id, %s::text FROM %s WHERE %s IS NOT NULL", keyColumn, table, keyColumn)

	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"table": table, "key_column": keyColumn}).Error("Failed to load id lookup table")
		return nil, httperror.NewHTTPErrorf(http.StatusInternalServerError, "failed to load %s lookup: %v", table, err)
	}
	defer rows.Close()

	lookup := make(map[string]string)
	for rows.Next() {
		var id, key string
		if err := rows.Scan(&id, &key); err != nil {
			return nil, httperror.NewHTTPErrorf(http.StatusInternalServerError, "failed to scan %s lookup: %v", table, err)
		}
		lookup[key] = id
	}
	if err := rows.Err(); err != nil {
		return nil, httperror.NewHTTPErrorf(http.StatusInternalServerError, "failed to read %s lookup: %v", table, err)
	}

	return lookup, nil
}

// writeColumns is the column set the importer stages: fixed fields plus the
// resolved foreign-key columns.
func writeColumns(schema *models.EntitySchema) []string {
	return append(append([]string{}, schema.FixedFields()...), schema.CustomFields...)
}

// BulkInsert creates all staged rows in one multi-row INSERT. Ids and
// timestamps are assigned here; the staged attributes stay as the raw text
// the snapshot carried and Postgres coerces them to the column types.
func (r *Repository) BulkInsert(ctx context.Context, schema *models.EntitySchema, rows []map[string]any) error {
	ctx, span := tracing.StartSpan(ctx, "entitystore.Repository.BulkInsert")
	defer span.End()

	if len(rows) == 0 {
		return nil
	}

	cols := append([]string{"id"}, writeColumns(schema)...)
	cols = append(cols, "created_at", "updated_at")

	now := time.Now().UTC()
	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertInto(schema.Table)
	ib.Cols(cols...)
	for _, row := range rows {
		values := make([]any, 0, len(cols))
		values = append(values, uuid.New().String())
		for _, col := range writeColumns(schema) {
			values = append(values, row[col])
		}
		values = append(values, now, now)
		ib.Values(values...)
	}

	query, args := ib.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"table": schema.Table, "rows": len(rows)}).Error("Failed to bulk insert rows")
		return importerrors.NewBulkWriteError(schema.Table, "insert", err)
	}

	metrics.RowsWritten.WithLabelValues(schema.Table, "insert").Add(float64(len(rows)))
	r.logger.WithContext(ctx).WithFields(map[string]any{"table": schema.Table, "rows": len(rows)}).Info("Bulk inserted rows")
	return nil
}

// BulkUpdate rewrites all staged rows in one INSERT .. ON CONFLICT (id)
// DO UPDATE. Each staged row carries the pre-existing surrogate id, so the
// conflict branch is the one that fires; routing the update through INSERT
// lets Postgres coerce the text parameters against the target column types,
// which a plain UPDATE FROM VALUES would not.
func (r *Repository) BulkUpdate(ctx context.Context, schema *models.EntitySchema, rows []map[string]any) error {
	ctx, span := tracing.StartSpan(ctx, "entitystore.Repository.BulkUpdate")
	defer span.End()

	if len(rows) == 0 {
		return nil
	}

	updateCols := writeColumns(schema)
	cols := append([]string{"id"}, updateCols...)
	cols = append(cols, "created_at", "updated_at")

	now := time.Now().UTC()
	ib := database.NewInsertBuilder()
	ib.InsertInto(schema.Table)
	ib.Cols(cols...)
	for _, row := range rows {
		values := make([]any, 0, len(cols))
		values = append(values, row["id"])
		for _, col := range updateCols {
			values = append(values, row[col])
		}
		values = append(values, now, now)
		ib.Values(values...)
	}

	ub := ib.OnConflict("id")
	assignments := make([]string, 0, len(updateCols)+1)
	for _, col := range updateCols {
		assignments = append(assignments, ub.Assign(col, database.Excluded(col)))
	}
	assignments = append(assignments, ub.Assign("updated_at", database.Excluded("updated_at")))
	ub.Set(assignments...)

	query, args := ib.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"table": schema.Table, "rows": len(rows)}).Error("Failed to bulk update rows")
		return importerrors.NewBulkWriteError(schema.Table, "update", err)
	}

	metrics.RowsWritten.WithLabelValues(schema.Table, "update").Add(float64(len(rows)))
	r.logger.WithContext(ctx).WithFields(map[string]any{"table": schema.Table, "rows": len(rows)}).Info("Bulk updated rows")
	return nil
}

// BulkDelete removes all staged ids in one DELETE.
func (r *Repository) BulkDelete(ctx context.Context, schema *models.EntitySchema, ids []string) error {
	ctx, span := tracing.StartSpan(ctx, "entitystore.Repository.BulkDelete")
	defer span.End()

	if len(ids) == 0 {
		return nil
	}

	db := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	db.DeleteFrom(schema.Table)
	db.Where(db.In("id", sqlbuilder.Flatten(ids)...))

	query, args := db.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"table": schema.Table, "rows": len(ids)}).Error("Failed to bulk delete rows")
		return importerrors.NewBulkWriteError(schema.Table, "delete", err)
	}

	metrics.RowsWritten.WithLabelValues(schema.Table, "delete").Add(float64(len(ids)))
	r.logger.WithContext(ctx).WithFields(map[string]any{"table": schema.Table, "rows": len(ids)}).Info("Bulk deleted rows")
	return nil
}
