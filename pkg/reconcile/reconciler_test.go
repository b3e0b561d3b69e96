package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ramsey-B/magnolia/pkg/models"
	"github.com/Ramsey-B/magnolia/pkg/snapshot"
)

type fakeEntityStore struct {
	rows [][]string
	err  error
}

func (f *fakeEntityStore) SelectFixedRows(ctx context.Context, schema *models.EntitySchema) ([][]string, error) {
	return f.rows, f.err
}

func TestReconciler(t *testing.T) {
	logger := zapadapter.NewZapEctoLogger(zap.NewNop(), nil)
	schema := officerSchema()
	ctx := context.Background()

	t.Run("should diff the snapshot against the store projection", func(t *testing.T) {
		store := &fakeEntityStore{rows: [][]string{dbRow("o-1", "smith", "john", "1980")}}
		reconciler := NewReconciler(store, logger)

		result, err := reconciler.Reconcile(ctx, schema, &snapshot.Snapshot{
			CommitHash: "abc123",
			Columns:    csvColumns,
			Rows: [][]string{
				csvRow("o-1", "smith", "john", "1980"),
				csvRow("o-2", "jones", "mary", "1975"),
			},
		})
		require.NoError(t, err)
		assert.Len(t, result.Added, 1)
		assert.Empty(t, result.Updated)
		assert.Empty(t, result.Deleted)
	})

	t.Run("should propagate store failures", func(t *testing.T) {
		store := &fakeEntityStore{err: errors.New("connection refused")}
		reconciler := NewReconciler(store, logger)

		_, err := reconciler.Reconcile(ctx, schema, &snapshot.Snapshot{Columns: csvColumns})
		assert.Error(t, err)
	})
}
