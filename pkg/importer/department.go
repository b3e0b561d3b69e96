package importer

import (
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/magnolia/pkg/models"
	"github.com/Ramsey-B/magnolia/pkg/snapshot"
)

// NewDepartmentImporter imports law-enforcement agencies. Departments carry
// no relational columns and must run before every entity that links to them.
func NewDepartmentImporter(store EntityStore, logs LogStore, commits CommitStore, source snapshot.Source, logger ectologger.Logger) *Importer {
	return New(Definition{Schema: models.DepartmentSchema}, store, logs, commits, source, logger)
}
