package importerrors

import (
	"fmt"
	"strings"
)

// SchemaError reports a CSV snapshot missing a column the entity requires.
// Detected before any row processing; aborts the entity's import run.
type SchemaError struct {
	DataModel string
	Column    string
	Message   string
}

func NewSchemaError(dataModel, column string) *SchemaError {
	return &SchemaError{
		DataModel: dataModel,
		Column:    column,
		Message:   fmt.Sprintf("column '%s' is missing from the %s snapshot", column, dataModel),
	}
}

func (e *SchemaError) Error() string {
	return e.Message
}

func IsSchemaError(err error) bool {
	_, ok := err.(*SchemaError)
	return ok
}

// ForeignKeyResolutionError reports a referenced natural key with no matching
// row in the referenced table, for an entity where that link is mandatory.
type ForeignKeyResolutionError struct {
	DataModel string
	Column    string
	Key       string
	RefTable  string
}

func NewForeignKeyResolutionError(dataModel, column, key, refTable string) *ForeignKeyResolutionError {
	return &ForeignKeyResolutionError{
		DataModel: dataModel,
		Column:    column,
		Key:       key,
		RefTable:  refTable,
	}
}

func (e *ForeignKeyResolutionError) Error() string {
	return fmt.Sprintf("%s row references %s '%s' with no matching row in %s", e.DataModel, e.Column, e.Key, e.RefTable)
}

func IsForeignKeyResolutionError(err error) bool {
	_, ok := err.(*ForeignKeyResolutionError)
	return ok
}

// BulkWriteError reports the storage layer rejecting a batch. The underlying
// driver message is kept verbatim so the import log captures it unchanged.
type BulkWriteError struct {
	Table     string
	Operation string // "insert", "update" or "delete"
	Err       error
}

func NewBulkWriteError(table, operation string, err error) *BulkWriteError {
	return &BulkWriteError{
		Table:     table,
		Operation: operation,
		Err:       err,
	}
}

func (e *BulkWriteError) Error() string {
	parts := []string{fmt.Sprintf("bulk %s on %s failed", e.Operation, e.Table)}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *BulkWriteError) Unwrap() error {
	return e.Err
}

func IsBulkWriteError(err error) bool {
	_, ok := err.(*BulkWriteError)
	return ok
}
