package importer

import (
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/magnolia/pkg/models"
	"github.com/Ramsey-B/magnolia/pkg/snapshot"
)

// NewPostOfficerHistoryImporter imports POST employment-history rows. The
// natural key doubles as the officer natural key, and the officer link is
// mandatory.
func NewPostOfficerHistoryImporter(store EntityStore, logs LogStore, commits CommitStore, source snapshot.Source, logger ectologger.Logger) *Importer {
	return New(Definition{
		Schema: models.PostOfficerHistorySchema,
		ForeignKeys: []ForeignKey{
			{Column: "uid", RefTable: "officers", RefKey: "uid", TargetColumn: "officer_id", Required: true},
		},
	}, store, logs, commits, source, logger)
}
