package columnmap

import (
	"github.com/Ramsey-B/magnolia/pkg/importerrors"
	"github.com/Ramsey-B/magnolia/pkg/models"
)

// Index builds a column name -> position map from a snapshot's header row.
// Later duplicates win, matching how most CSV tooling resolves repeated
// headers.
func Index(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	return idx
}

// Lookup returns the raw value of a single column in a row. Returns a
// SchemaError when the column is absent from the index.
func Lookup(schema *models.EntitySchema, row []string, idx map[string]int, column string) (string, error) {
	pos, ok := idx[column]
	if !ok {
		return "", importerrors.NewSchemaError(schema.Name, column)
	}
	if pos >= len(row) {
		return "", nil
	}
	return row[pos], nil
}

// RowAttributes maps a raw row into a named attribute dict restricted to the
// given fields. Empty strings become nil for any non-text field so Postgres
// receives NULL rather than an uncastable ''. Pure, no side effects.
func RowAttributes(schema *models.EntitySchema, row []string, idx map[string]int, fields []string) (map[string]any, error) {
	attrs := make(map[string]any, len(fields))
	for _, field := range fields {
		value, err := Lookup(schema, row, idx, field)
		if err != nil {
			return nil, err
		}
		if value == "" && schema.Kind(field) != models.FieldText {
			attrs[field] = nil
			continue
		}
		attrs[field] = value
	}
	return attrs, nil
}
