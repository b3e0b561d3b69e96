package columnmap

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/magnolia/pkg/importerrors"
	"github.com/Ramsey-B/magnolia/pkg/models"
)

func testSchema() *models.EntitySchema {
	return &models.EntitySchema{
		Name:       "Officer",
		Table:      "officers",
		NaturalKey: "uid",
		AllFields:  []string{"id", "uid", "last_name", "birth_year", "created_at", "updated_at"},
		BaseFields: []string{"id", "created_at", "updated_at"},
		Kinds: map[string]models.FieldKind{
			"birth_year": models.FieldInt,
		},
	}
}

func TestIndex(t *testing.T) {
	t.Run("should map column names to positions", func(t *testing.T) {
		idx := Index([]string{"uid", "last_name", "birth_year"})
		assert.Equal(t, map[string]int{"uid": 0, "last_name": 1, "birth_year": 2}, idx)
	})

	t.Run("should let a later duplicate header win", func(t *testing.T) {
		idx := Index([]string{"uid", "uid"})
		assert.Equal(t, 1, idx["uid"])
	})

	t.Run("should return an empty map for an empty header", func(t *testing.T) {
		assert.Empty(t, Index(nil))
	})
}

func TestLookup(t *testing.T) {
	schema := testSchema()
	idx := Index([]string{"uid", "last_name"})

	t.Run("should return the raw value", func(t *testing.T) {
		value, err := Lookup(schema, []string{"officer-1", "smith"}, idx, "last_name")
		assert.NoError(t, err)
		assert.Equal(t, "smith", value)
	})

	t.Run("should return a schema error for an unknown column", func(t *testing.T) {
		_, err := Lookup(schema, []string{"officer-1", "smith"}, idx, "birth_year")
		assert.Error(t, err)
		assert.True(t, importerrors.IsSchemaError(err))
		assert.Equal(t, "column 'birth_year' is missing from the Officer snapshot", err.Error())
	})

	t.Run("should treat a short row as empty", func(t *testing.T) {
		value, err := Lookup(schema, []string{"officer-1"}, idx, "last_name")
		assert.NoError(t, err)
		assert.Equal(t, "", value)
	})
}

func TestRowAttributes(t *testing.T) {
	schema := testSchema()
	idx := Index([]string{"uid", "last_name", "birth_year"})

	t.Run("should restrict attributes to the requested fields", func(t *testing.T) {
		attrs, err := RowAttributes(schema, []string{"officer-1", "smith", "1980"}, idx, []string{"uid", "last_name"})
		assert.NoError(t, err)
		assert.Equal(t, map[string]any{"uid": "officer-1", "last_name": "smith"}, attrs)
	})

	t.Run("should null empty values for non-text fields", func(t *testing.T) {
		attrs, err := RowAttributes(schema, []string{"officer-1", "", ""}, idx, schema.FixedFields())
		assert.NoError(t, err)
		assert.Equal(t, map[string]any{"uid": "officer-1", "last_name": "", "birth_year": nil}, attrs)
	})

	t.Run("should fail when a fixed field is missing from the header", func(t *testing.T) {
		shortIdx := Index([]string{"uid", "last_name"})
		_, err := RowAttributes(schema, []string{"officer-1", "smith"}, shortIdx, schema.FixedFields())
		assert.Error(t, err)
		assert.True(t, importerrors.IsSchemaError(err))
	})
}
