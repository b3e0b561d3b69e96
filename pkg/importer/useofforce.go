package importer

import (
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/magnolia/pkg/models"
	"github.com/Ramsey-B/magnolia/pkg/snapshot"
)

// NewUseOfForceImporter imports use-of-force incidents. The officer link is
// mandatory; the department link is optional.
func NewUseOfForceImporter(store EntityStore, logs LogStore, commits CommitStore, source snapshot.Source, logger ectologger.Logger) *Importer {
	return New(Definition{
		Schema: models.UseOfForceSchema,
		ForeignKeys: []ForeignKey{
			{Column: "uid", RefTable: "officers", RefKey: "uid", TargetColumn: "officer_id", Required: true},
			{Column: "agency_slug", RefTable: "departments", RefKey: "agency_slug", TargetColumn: "department_id"},
		},
	}, store, logs, commits, source, logger)
}
