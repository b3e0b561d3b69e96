package importer

import (
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/magnolia/pkg/models"
	"github.com/Ramsey-B/magnolia/pkg/snapshot"
)

// NewBradyImporter imports Brady-list entries. A Brady entry is meaningless
// without its officer, so that link is mandatory and an unmatched uid fails
// the run; the department link stays optional.
func NewBradyImporter(store EntityStore, logs LogStore, commits CommitStore, source snapshot.Source, logger ectologger.Logger) *Importer {
	return New(Definition{
		Schema: models.BradySchema,
		ForeignKeys: []ForeignKey{
			{Column: "uid", RefTable: "officers", RefKey: "uid", TargetColumn: "officer_id", Required: true},
			{Column: "agency_slug", RefTable: "departments", RefKey: "agency_slug", TargetColumn: "department_id"},
		},
	}, store, logs, commits, source, logger)
}
