package importer

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/magnolia/pkg/columnmap"
	"github.com/Ramsey-B/magnolia/pkg/importerrors"
	"github.com/Ramsey-B/magnolia/pkg/models"
	"github.com/Ramsey-B/magnolia/pkg/reconcile"
	"github.com/Ramsey-B/magnolia/pkg/snapshot"
	"github.com/Ramsey-B/magnolia/pkg/tracing"
)

// EntityStore is the storage surface one import run needs.
type EntityStore interface {
	SelectFixedRows(ctx context.Context, schema *models.EntitySchema) ([][]string, error)
	IDsByKey(ctx context.Context, table, keyColumn string) (map[string]string, error)
	BulkInsert(ctx context.Context, schema *models.EntitySchema, rows []map[string]any) error
	BulkUpdate(ctx context.Context, schema *models.EntitySchema, rows []map[string]any) error
	BulkDelete(ctx context.Context, schema *models.EntitySchema, ids []string) error
}

// LogStore records the audit trail of import runs.
type LogStore interface {
	Create(ctx context.Context, dataModel, repoName, commitHash string) (*models.ImportLog, error)
	MarkFinished(ctx context.Context, id string, createdRows, updatedRows, deletedRows int) error
	MarkFailed(ctx context.Context, id string, errorMessage string) error
}

// CommitStore tracks the commit pointers of the external versioned source.
type CommitStore interface {
	Get(ctx context.Context, dataModel string) (*models.WrglRepo, error)
	UpsertLatest(ctx context.Context, dataModel, repoName, latestCommitHash string) error
	AdvanceCommit(ctx context.Context, dataModel, commitHash string) error
}

// ForeignKey declares one relational column resolved at import time: the
// natural key read from Column is looked up against RefTable.RefKey and the
// matching surrogate id is written to TargetColumn. Required links abort the
// run when the key has no match; optional links store NULL.
type ForeignKey struct {
	Column       string
	RefTable     string
	RefKey       string
	TargetColumn string
	Required     bool
}

// Definition declares the import shape of one entity.
type Definition struct {
	Schema      *models.EntitySchema
	ForeignKeys []ForeignKey
}

// Importer runs the reconcile-resolve-write pipeline for one entity.
type Importer struct {
	def        Definition
	store      EntityStore
	logs       LogStore
	commits    CommitStore
	source     snapshot.Source
	reconciler *reconcile.Reconciler
	logger     ectologger.Logger
}

// New creates an importer from a declarative definition.
func New(def Definition, store EntityStore, logs LogStore, commits CommitStore, source snapshot.Source, logger ectologger.Logger) *Importer {
	return &Importer{
		def:        def,
		store:      store,
		logs:       logs,
		commits:    commits,
		source:     source,
		reconciler: reconcile.NewReconciler(store, logger),
		logger:     logger,
	}
}

// DataModel returns the entity name this importer writes.
func (i *Importer) DataModel() string {
	return i.def.Schema.Name
}

// Process runs one import for this entity and reports whether any row was
// created, updated or deleted. The run is recorded in the import log from
// start to finish; errors propagate to the caller after the log has been
// marked failed.
func (i *Importer) Process(ctx context.Context) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "importer.Importer.Process")
	defer span.End()

	schema := i.def.Schema
	log := i.logger.WithContext(ctx).WithFields(map[string]any{"data_model": schema.Name, "repo_name": schema.RepoName})

	latest, err := i.source.LatestCommit(ctx, schema.RepoName)
	if err != nil {
		return false, err
	}
	if err := i.commits.UpsertLatest(ctx, schema.Name, schema.RepoName, latest); err != nil {
		return false, err
	}

	repo, err := i.commits.Get(ctx, schema.Name)
	if err != nil {
		return false, err
	}

	runLog, err := i.logs.Create(ctx, schema.Name, schema.RepoName, latest)
	if err != nil {
		return false, err
	}

	// Nothing new upstream; close the run without reconciling.
	if repo != nil && repo.CommitHash == latest {
		log.WithFields(map[string]any{"commit_hash": latest}).Info("Snapshot unchanged since last import, skipping")
		if err := i.logs.MarkFinished(ctx, runLog.ID, 0, 0, 0); err != nil {
			return false, err
		}
		return false, nil
	}

	created, updated, deleted, err := i.run(ctx, latest)
	if err != nil {
		log.WithError(err).Error("Import run failed")
		if logErr := i.logs.MarkFailed(ctx, runLog.ID, err.Error()); logErr != nil {
			log.WithError(logErr).Error("Failed to record import failure")
		}
		return false, err
	}

	if err := i.logs.MarkFinished(ctx, runLog.ID, created, updated, deleted); err != nil {
		return false, err
	}
	if err := i.commits.AdvanceCommit(ctx, schema.Name, latest); err != nil {
		return false, err
	}

	return created+updated+deleted > 0, nil
}

// run executes the reconcile-resolve-write steps and returns the staged
// counts. Any error aborts before or between the bulk calls; each bulk call
// is its own atomic statement, there is no whole-run transaction.
func (i *Importer) run(ctx context.Context, commitHash string) (created, updated, deleted int, err error) {
	schema := i.def.Schema

	snap, err := i.source.Fetch(ctx, schema.RepoName, commitHash)
	if err != nil {
		return 0, 0, 0, err
	}

	diff, err := i.reconciler.Reconcile(ctx, schema, snap)
	if err != nil {
		return 0, 0, 0, err
	}

	lookups, err := i.loadLookups(ctx)
	if err != nil {
		return 0, 0, 0, err
	}

	// One id+key projection of the current table serves both the update and
	// delete stages.
	existingIDs, err := i.store.IDsByKey(ctx, schema.Table, schema.NaturalKey)
	if err != nil {
		return 0, 0, 0, err
	}

	idx := columnmap.Index(diff.CSVColumns)
	fixed := schema.FixedFields()
	seen := make(map[string]bool, len(diff.Added)+len(diff.Updated))

	var creates []map[string]any
	for _, row := range diff.Added {
		key, err := columnmap.Lookup(schema, row, idx, schema.NaturalKey)
		if err != nil {
			return 0, 0, 0, err
		}
		// Duplicate natural key within one batch: first occurrence wins.
		if seen[key] {
			continue
		}
		seen[key] = true

		attrs, err := i.resolveRow(row, idx, fixed, lookups)
		if err != nil {
			return 0, 0, 0, err
		}
		creates = append(creates, attrs)
	}

	var updates []map[string]any
	for _, row := range diff.Updated {
		key, err := columnmap.Lookup(schema, row, idx, schema.NaturalKey)
		if err != nil {
			return 0, 0, 0, err
		}
		if seen[key] {
			continue
		}
		seen[key] = true

		id, exists := existingIDs[key]
		if !exists {
			// Row vanished between reconciliation and the id load; the next
			// run will pick it up as added.
			continue
		}
		attrs, err := i.resolveRow(row, idx, fixed, lookups)
		if err != nil {
			return 0, 0, 0, err
		}
		attrs["id"] = id
		updates = append(updates, attrs)
	}

	keyPos := fixedKeyIndex(schema, fixed)
	var deleteIDs []string
	for _, row := range diff.Deleted {
		id, exists := existingIDs[row[keyPos]]
		if !exists {
			// Already gone; nothing to delete.
			continue
		}
		deleteIDs = append(deleteIDs, id)
	}

	if err := i.store.BulkInsert(ctx, schema, creates); err != nil {
		return 0, 0, 0, err
	}
	if err := i.store.BulkUpdate(ctx, schema, updates); err != nil {
		return 0, 0, 0, err
	}
	if err := i.store.BulkDelete(ctx, schema, deleteIDs); err != nil {
		return 0, 0, 0, err
	}

	return len(creates), len(updates), len(deleteIDs), nil
}

// loadLookups builds the run-scoped natural-key lookup tables, one query per
// referenced table. The maps live only for this run.
func (i *Importer) loadLookups(ctx context.Context) (map[string]map[string]string, error) {
	lookups := make(map[string]map[string]string, len(i.def.ForeignKeys))
	for _, fk := range i.def.ForeignKeys {
		ref := fk.RefTable + "." + fk.RefKey
		if _, loaded := lookups[ref]; loaded {
			continue
		}
		lookup, err := i.store.IDsByKey(ctx, fk.RefTable, fk.RefKey)
		if err != nil {
			return nil, err
		}
		lookups[ref] = lookup
	}
	return lookups, nil
}

// resolveRow parses a raw CSV row into named fixed-field attributes and
// resolves every declared foreign key against the run-scoped lookups.
func (i *Importer) resolveRow(row []string, idx map[string]int, fixed []string, lookups map[string]map[string]string) (map[string]any, error) {
	schema := i.def.Schema

	attrs, err := columnmap.RowAttributes(schema, row, idx, fixed)
	if err != nil {
		return nil, err
	}

	for _, fk := range i.def.ForeignKeys {
		key, err := columnmap.Lookup(schema, row, idx, fk.Column)
		if err != nil {
			return nil, err
		}
		if key == "" {
			if fk.Required {
				return nil, importerrors.NewForeignKeyResolutionError(schema.Name, fk.Column, key, fk.RefTable)
			}
			attrs[fk.TargetColumn] = nil
			continue
		}

		id, exists := lookups[fk.RefTable+"."+fk.RefKey][key]
		if !exists {
			if fk.Required {
				return nil, importerrors.NewForeignKeyResolutionError(schema.Name, fk.Column, key, fk.RefTable)
			}
			attrs[fk.TargetColumn] = nil
			continue
		}
		attrs[fk.TargetColumn] = id
	}

	return attrs, nil
}

func fixedKeyIndex(schema *models.EntitySchema, fixed []string) int {
	for i, field := range fixed {
		if field == schema.NaturalKey {
			return i
		}
	}
	return 0
}
