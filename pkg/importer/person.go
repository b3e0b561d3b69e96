package importer

import (
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/magnolia/pkg/models"
	"github.com/Ramsey-B/magnolia/pkg/snapshot"
)

// NewPersonImporter imports person groupings of duplicate officer records.
// Persons run last: the canonical officer link is mandatory and every uid it
// references must already exist.
func NewPersonImporter(store EntityStore, logs LogStore, commits CommitStore, source snapshot.Source, logger ectologger.Logger) *Importer {
	return New(Definition{
		Schema: models.PersonSchema,
		ForeignKeys: []ForeignKey{
			{Column: "canonical_uid", RefTable: "officers", RefKey: "uid", TargetColumn: "canonical_officer_id", Required: true},
		},
	}, store, logs, commits, source, logger)
}
