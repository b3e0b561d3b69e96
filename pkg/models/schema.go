package models

// FieldKind describes how an imported column is typed in Postgres.
// Reconciliation always compares values as text; the kind only matters when
// mapping a raw CSV row into attributes, where "" becomes nil for any
// non-text kind.
type FieldKind string

const (
	FieldText  FieldKind = "text"
	FieldInt   FieldKind = "int"
	FieldFloat FieldKind = "float"
	FieldBool  FieldKind = "bool"
	FieldDate  FieldKind = "date"
)

// EntitySchema statically declares the import shape of one entity table.
// Field order matches the table schema so projections are deterministic.
type EntitySchema struct {
	Name       string // data model name recorded on import logs, e.g. "Officer"
	Table      string // Postgres table name
	RepoName   string // versioned snapshot repo this entity is imported from
	NaturalKey string // column matching CSV rows to existing DB rows

	// AllFields is every column on the table, in schema order.
	// BaseFields are generated columns never present in import data.
	// CustomFields are foreign-key columns resolved at import time,
	// never diffed directly.
	AllFields    []string
	BaseFields   []string
	CustomFields []string

	// Kinds holds the non-text column kinds; absent columns are text.
	Kinds map[string]FieldKind

	fixedFields []string
}

// FixedFields returns all fields minus base and custom fields, preserving
// schema order. Both reconciliation and the importers use this same set so
// the compared columns and the written columns cannot drift apart.
func (s *EntitySchema) FixedFields() []string {
	if s.fixedFields != nil {
		return s.fixedFields
	}

	skip := make(map[string]bool, len(s.BaseFields)+len(s.CustomFields))
	for _, f := range s.BaseFields {
		skip[f] = true
	}
	for _, f := range s.CustomFields {
		skip[f] = true
	}

	fixed := make([]string, 0, len(s.AllFields))
	for _, f := range s.AllFields {
		if !skip[f] {
			fixed = append(fixed, f)
		}
	}
	s.fixedFields = fixed
	return s.fixedFields
}

// Kind returns the declared kind of a field, defaulting to text.
func (s *EntitySchema) Kind(field string) FieldKind {
	if k, ok := s.Kinds[field]; ok {
		return k
	}
	return FieldText
}
