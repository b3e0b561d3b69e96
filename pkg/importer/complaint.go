package importer

import (
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/magnolia/pkg/models"
	"github.com/Ramsey-B/magnolia/pkg/snapshot"
)

// NewComplaintImporter imports misconduct allegations. Both links are
// optional: complaints can predate the officer roster or name an agency the
// department dataset does not track.
func NewComplaintImporter(store EntityStore, logs LogStore, commits CommitStore, source snapshot.Source, logger ectologger.Logger) *Importer {
	return New(Definition{
		Schema: models.ComplaintSchema,
		ForeignKeys: []ForeignKey{
			{Column: "uid", RefTable: "officers", RefKey: "uid", TargetColumn: "officer_id"},
			{Column: "agency_slug", RefTable: "departments", RefKey: "agency_slug", TargetColumn: "department_id"},
		},
	}, store, logs, commits, source, logger)
}
