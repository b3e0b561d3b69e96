package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/magnolia/pkg/importerrors"
	"github.com/Ramsey-B/magnolia/pkg/models"
)

func officerSchema() *models.EntitySchema {
	return &models.EntitySchema{
		Name:       "Officer",
		Table:      "officers",
		NaturalKey: "uid",
		AllFields: []string{
			"id", "uid", "last_name", "first_name", "birth_year",
			"department_id", "created_at", "updated_at",
		},
		BaseFields:   []string{"id", "created_at", "updated_at"},
		CustomFields: []string{"department_id"},
		Kinds: map[string]models.FieldKind{
			"birth_year": models.FieldInt,
		},
	}
}

// CSV headers carry an extra agency_slug column the fixed-field set ignores;
// DB rows are in fixed-field order: uid, last_name, first_name, birth_year.
var csvColumns = []string{"uid", "last_name", "first_name", "birth_year", "agency_slug"}

func csvRow(uid, last, first, birthYear string) []string {
	return []string{uid, last, first, birthYear, "nola-pd"}
}

func dbRow(uid, last, first, birthYear string) []string {
	return []string{uid, last, first, birthYear}
}

func TestDiff(t *testing.T) {
	schema := officerSchema()
	fixed := schema.FixedFields()

	t.Run("should compute fixed fields once in schema order", func(t *testing.T) {
		assert.Equal(t, []string{"uid", "last_name", "first_name", "birth_year"}, fixed)
	})

	t.Run("should split rows into added, deleted and updated", func(t *testing.T) {
		// 6 CSV rows; DB has 4: 3 matching exactly, 1 not in the CSV.
		csvRows := [][]string{
			csvRow("o-1", "smith", "john", "1980"),
			csvRow("o-2", "jones", "mary", "1975"),
			csvRow("o-3", "brown", "jim", "1990"),
			csvRow("o-4", "davis", "anne", "1985"),
			csvRow("o-5", "wilson", "bob", "1970"),
			csvRow("o-6", "moore", "sue", "1965"),
		}
		dbRows := [][]string{
			dbRow("o-1", "smith", "john", "1980"),
			dbRow("o-2", "jones", "mary", "1975"),
			dbRow("o-3", "brown", "jim", "1990"),
			dbRow("o-4", "davis", "anne", "1985"),
			dbRow("o-9", "gone", "al", "1960"),
		}

		result, err := Diff(schema, csvColumns, csvRows, fixed, dbRows)
		require.NoError(t, err)

		assert.Equal(t, [][]string{
			csvRow("o-5", "wilson", "bob", "1970"),
			csvRow("o-6", "moore", "sue", "1965"),
		}, result.Added)
		assert.Empty(t, result.Updated)
		assert.Equal(t, [][]string{dbRow("o-9", "gone", "al", "1960")}, result.Deleted)
	})

	t.Run("should report a row changed in one fixed column as updated", func(t *testing.T) {
		csvRows := [][]string{csvRow("o-1", "smith", "john", "1981")}
		dbRows := [][]string{dbRow("o-1", "smith", "john", "1980")}

		result, err := Diff(schema, csvColumns, csvRows, fixed, dbRows)
		require.NoError(t, err)
		assert.Empty(t, result.Added)
		assert.Empty(t, result.Deleted)
		assert.Equal(t, [][]string{csvRow("o-1", "smith", "john", "1981")}, result.Updated)
	})

	t.Run("should be idempotent over unchanged inputs", func(t *testing.T) {
		csvRows := [][]string{
			csvRow("o-1", "smith", "john", "1980"),
			csvRow("o-2", "jones", "mary", "1975"),
		}
		dbRows := [][]string{
			dbRow("o-1", "smith", "john", "1980"),
			dbRow("o-2", "jones", "mary", "1975"),
		}

		for i := 0; i < 2; i++ {
			result, err := Diff(schema, csvColumns, csvRows, fixed, dbRows)
			require.NoError(t, err)
			assert.False(t, result.HasChanges())
		}
	})

	t.Run("should place every key in exactly one bucket", func(t *testing.T) {
		csvRows := [][]string{
			csvRow("o-1", "smith", "john", "1980"),   // unchanged
			csvRow("o-2", "jones", "maria", "1975"),  // updated
			csvRow("o-3", "brown", "jim", "1990"),    // added
		}
		dbRows := [][]string{
			dbRow("o-1", "smith", "john", "1980"),
			dbRow("o-2", "jones", "mary", "1975"),
			dbRow("o-4", "gone", "al", "1960"), // deleted
		}

		result, err := Diff(schema, csvColumns, csvRows, fixed, dbRows)
		require.NoError(t, err)

		buckets := map[string]int{}
		for _, row := range result.Added {
			buckets[row[0]]++
		}
		for _, row := range result.Updated {
			buckets[row[0]]++
		}
		for _, row := range result.Deleted {
			buckets[row[0]]++
		}
		assert.Equal(t, map[string]int{"o-2": 1, "o-3": 1, "o-4": 1}, buckets)
	})

	t.Run("should delete the whole table for an empty snapshot", func(t *testing.T) {
		dbRows := [][]string{
			dbRow("o-2", "jones", "mary", "1975"),
			dbRow("o-1", "smith", "john", "1980"),
		}

		result, err := Diff(schema, csvColumns, nil, fixed, dbRows)
		require.NoError(t, err)
		assert.Empty(t, result.Added)
		assert.Empty(t, result.Updated)
		// Deleted rows are ordered by natural key for deterministic output.
		assert.Equal(t, [][]string{
			dbRow("o-1", "smith", "john", "1980"),
			dbRow("o-2", "jones", "mary", "1975"),
		}, result.Deleted)
	})

	t.Run("should treat an empty table as all added", func(t *testing.T) {
		csvRows := [][]string{
			csvRow("o-1", "smith", "john", "1980"),
			csvRow("o-2", "jones", "mary", "1975"),
		}

		result, err := Diff(schema, csvColumns, csvRows, fixed, nil)
		require.NoError(t, err)
		assert.Equal(t, csvRows, result.Added)
		assert.Empty(t, result.Updated)
		assert.Empty(t, result.Deleted)
	})

	t.Run("should keep duplicate CSV keys without deduplicating", func(t *testing.T) {
		csvRows := [][]string{
			csvRow("o-1", "smith", "john", "1980"),
			csvRow("o-1", "smythe", "john", "1980"),
		}

		result, err := Diff(schema, csvColumns, csvRows, fixed, nil)
		require.NoError(t, err)
		assert.Len(t, result.Added, 2)
	})

	t.Run("should normalize short rows to empty strings", func(t *testing.T) {
		csvRows := [][]string{{"o-1", "smith"}}
		dbRows := [][]string{dbRow("o-1", "smith", "", "")}

		result, err := Diff(schema, csvColumns, csvRows, fixed, dbRows)
		require.NoError(t, err)
		assert.False(t, result.HasChanges())
	})

	t.Run("should fail with a schema error when a fixed column is missing", func(t *testing.T) {
		_, err := Diff(schema, []string{"uid", "last_name"}, nil, fixed, nil)
		assert.Error(t, err)
		assert.True(t, importerrors.IsSchemaError(err))
	})
}
