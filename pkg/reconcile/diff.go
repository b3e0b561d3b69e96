package reconcile

import (
	"sort"

	"github.com/Ramsey-B/magnolia/pkg/columnmap"
	"github.com/Ramsey-B/magnolia/pkg/models"
)

// Result is the set difference between a CSV snapshot and the current table.
//
// Added and Updated carry the raw CSV rows in their original CSV column order
// (indexed by CSVColumns) so the importer can still reach natural-key columns
// that are not fixed fields. Deleted carries the database projection in
// fixed-field order. Rows matching exactly appear in no bucket.
type Result struct {
	CSVColumns []string
	Added      [][]string
	Updated    [][]string
	Deleted    [][]string
}

// HasChanges reports whether any bucket is non-empty.
func (r *Result) HasChanges() bool {
	return len(r.Added) > 0 || len(r.Updated) > 0 || len(r.Deleted) > 0
}

// Diff performs a keyed outer join between the snapshot rows and the current
// database rows over the schema's fixed-field projection. All values are
// compared as strings after missing values are normalized to "". Typed
// parsing is deferred to the importer so CSV and database representations
// never disagree on formatting.
//
// Added and Updated preserve the CSV's row order; Deleted is ordered by
// natural key. Duplicate natural keys within the CSV are not deduplicated
// here; the importer suppresses them when staging.
func Diff(schema *models.EntitySchema, csvColumns []string, csvRows [][]string, dbColumns []string, dbRows [][]string) (*Result, error) {
	fixed := schema.FixedFields()

	csvIdx := columnmap.Index(csvColumns)
	for _, field := range fixed {
		if _, err := columnmap.Lookup(schema, nil, csvIdx, field); err != nil {
			return nil, err
		}
	}
	dbIdx := columnmap.Index(dbColumns)

	keyPos := csvIdx[schema.NaturalKey]

	// Current table keyed by natural key, projected to fixed-field order.
	dbByKey := make(map[string][]string, len(dbRows))
	for _, row := range dbRows {
		projected := project(row, dbIdx, fixed)
		dbByKey[projected[keyIndex(schema, fixed)]] = projected
	}

	result := &Result{CSVColumns: csvColumns}
	matched := make(map[string]bool, len(dbRows))

	for _, row := range csvRows {
		key := value(row, keyPos)
		dbRow, exists := dbByKey[key]
		if !exists {
			result.Added = append(result.Added, row)
			continue
		}
		matched[key] = true
		if !equal(project(row, csvIdx, fixed), dbRow) {
			result.Updated = append(result.Updated, row)
		}
	}

	for key, dbRow := range dbByKey {
		if !matched[key] {
			result.Deleted = append(result.Deleted, dbRow)
		}
	}
	keyPosFixed := keyIndex(schema, fixed)
	sort.Slice(result.Deleted, func(i, j int) bool {
		return result.Deleted[i][keyPosFixed] < result.Deleted[j][keyPosFixed]
	})

	return result, nil
}

func keyIndex(schema *models.EntitySchema, fixed []string) int {
	for i, field := range fixed {
		if field == schema.NaturalKey {
			return i
		}
	}
	return 0
}

func project(row []string, idx map[string]int, fields []string) []string {
	projected := make([]string, len(fields))
	for i, field := range fields {
		projected[i] = value(row, idx[field])
	}
	return projected
}

func value(row []string, pos int) string {
	if pos >= len(row) {
		return ""
	}
	return row[pos]
}

func equal(a, b []string) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
