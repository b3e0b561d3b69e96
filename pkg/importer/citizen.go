package importer

import (
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/magnolia/pkg/models"
	"github.com/Ramsey-B/magnolia/pkg/snapshot"
)

// NewCitizenImporter imports citizens involved in complaint and use-of-force
// events. The complaint/use-of-force uids stay as plain text columns; only
// the optional department link is resolved.
func NewCitizenImporter(store EntityStore, logs LogStore, commits CommitStore, source snapshot.Source, logger ectologger.Logger) *Importer {
	return New(Definition{
		Schema: models.CitizenSchema,
		ForeignKeys: []ForeignKey{
			{Column: "agency_slug", RefTable: "departments", RefKey: "agency_slug", TargetColumn: "department_id"},
		},
	}, store, logs, commits, source, logger)
}
