package reconcile

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/magnolia/pkg/models"
	"github.com/Ramsey-B/magnolia/pkg/snapshot"
	"github.com/Ramsey-B/magnolia/pkg/tracing"
)

// EntityStore is the slice of the entity store reconciliation needs: the
// current table contents projected to the schema's fixed fields, every value
// cast to text with NULL as "".
type EntityStore interface {
	SelectFixedRows(ctx context.Context, schema *models.EntitySchema) ([][]string, error)
}

// Reconciler diffs CSV snapshots against the live table contents.
type Reconciler struct {
	store  EntityStore
	logger ectologger.Logger
}

func NewReconciler(store EntityStore, logger ectologger.Logger) *Reconciler {
	return &Reconciler{
		store:  store,
		logger: logger,
	}
}

// Reconcile loads the current table projection and computes the diff against
// the snapshot. Reconciliation always compares against current database
// state, never against the previously imported commit.
func (r *Reconciler) Reconcile(ctx context.Context, schema *models.EntitySchema, snap *snapshot.Snapshot) (*Result, error) {
	ctx, span := tracing.StartSpan(ctx, "reconcile.Reconciler.Reconcile")
	defer span.End()

	dbRows, err := r.store.SelectFixedRows(ctx, schema)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"data_model": schema.Name, "table": schema.Table}).Error("Failed to load current table projection")
		return nil, err
	}

	result, err := Diff(schema, snap.Columns, snap.Rows, schema.FixedFields(), dbRows)
	if err != nil {
		return nil, err
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"data_model": schema.Name,
		"added":      len(result.Added),
		"updated":    len(result.Updated),
		"deleted":    len(result.Deleted),
	}).Info("Reconciled snapshot against current table")

	return result, nil
}
