package importer

import (
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/magnolia/pkg/models"
	"github.com/Ramsey-B/magnolia/pkg/snapshot"
)

// NewOfficerImporter imports officers. The department link is optional:
// rosters routinely carry officers whose agency is not in the department
// dataset yet, and those rows land with a NULL department.
func NewOfficerImporter(store EntityStore, logs LogStore, commits CommitStore, source snapshot.Source, logger ectologger.Logger) *Importer {
	return New(Definition{
		Schema: models.OfficerSchema,
		ForeignKeys: []ForeignKey{
			{Column: "agency_slug", RefTable: "departments", RefKey: "agency_slug", TargetColumn: "department_id"},
		},
	}, store, logs, commits, source, logger)
}
