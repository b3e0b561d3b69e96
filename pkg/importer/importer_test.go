package importer

import (
	"context"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ramsey-B/magnolia/pkg/importerrors"
	"github.com/Ramsey-B/magnolia/pkg/models"
	"github.com/Ramsey-B/magnolia/pkg/snapshot"
)

func testLogger() ectologger.Logger {
	return zapadapter.NewZapEctoLogger(zap.NewNop(), nil)
}

type fakeStore struct {
	fixedRows map[string][][]string        // table -> fixed-field projection
	lookups   map[string]map[string]string // "table.key" -> natural key -> id

	inserted  []map[string]any
	updated   []map[string]any
	deletedID []string

	insertErr error
	updateErr error
	deleteErr error
}

func (f *fakeStore) SelectFixedRows(ctx context.Context, schema *models.EntitySchema) ([][]string, error) {
	return f.fixedRows[schema.Table], nil
}

func (f *fakeStore) IDsByKey(ctx context.Context, table, keyColumn string) (map[string]string, error) {
	return f.lookups[table+"."+keyColumn], nil
}

func (f *fakeStore) BulkInsert(ctx context.Context, schema *models.EntitySchema, rows []map[string]any) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, rows...)
	return nil
}

func (f *fakeStore) BulkUpdate(ctx context.Context, schema *models.EntitySchema, rows []map[string]any) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated = append(f.updated, rows...)
	return nil
}

func (f *fakeStore) BulkDelete(ctx context.Context, schema *models.EntitySchema, ids []string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletedID = append(f.deletedID, ids...)
	return nil
}

type fakeLogs struct {
	created  []*models.ImportLog
	finished map[string][3]int
	failed   map[string]string
}

func newFakeLogs() *fakeLogs {
	return &fakeLogs{
		finished: map[string][3]int{},
		failed:   map[string]string{},
	}
}

func (f *fakeLogs) Create(ctx context.Context, dataModel, repoName, commitHash string) (*models.ImportLog, error) {
	log := &models.ImportLog{
		ID:         dataModel + "-run",
		DataModel:  dataModel,
		RepoName:   repoName,
		CommitHash: commitHash,
		Status:     models.ImportLogStatusRunning,
	}
	f.created = append(f.created, log)
	return log, nil
}

func (f *fakeLogs) MarkFinished(ctx context.Context, id string, createdRows, updatedRows, deletedRows int) error {
	f.finished[id] = [3]int{createdRows, updatedRows, deletedRows}
	return nil
}

func (f *fakeLogs) MarkFailed(ctx context.Context, id string, errorMessage string) error {
	f.failed[id] = errorMessage
	return nil
}

type fakeCommits struct {
	repos    map[string]*models.WrglRepo
	latest   map[string]string
	advanced map[string]string
}

func newFakeCommits() *fakeCommits {
	return &fakeCommits{
		repos:    map[string]*models.WrglRepo{},
		latest:   map[string]string{},
		advanced: map[string]string{},
	}
}

func (f *fakeCommits) Get(ctx context.Context, dataModel string) (*models.WrglRepo, error) {
	return f.repos[dataModel], nil
}

func (f *fakeCommits) UpsertLatest(ctx context.Context, dataModel, repoName, latestCommitHash string) error {
	f.latest[dataModel] = latestCommitHash
	return nil
}

func (f *fakeCommits) AdvanceCommit(ctx context.Context, dataModel, commitHash string) error {
	f.advanced[dataModel] = commitHash
	return nil
}

type fakeSource struct {
	commit    string
	snapshots map[string]*snapshot.Snapshot
	fetched   int
}

func (f *fakeSource) LatestCommit(ctx context.Context, repoName string) (string, error) {
	return f.commit, nil
}

func (f *fakeSource) Fetch(ctx context.Context, repoName, commitHash string) (*snapshot.Snapshot, error) {
	f.fetched++
	snap, ok := f.snapshots[commitHash]
	if !ok {
		return nil, errors.New("no such commit")
	}
	return snap, nil
}

// Department CSVs carry exactly the fixed fields, which keeps the fixtures
// small: agency_slug, agency_name, city, parish, location_map_url.
func departmentSnapshot(rows ...[]string) *snapshot.Snapshot {
	return &snapshot.Snapshot{
		CommitHash: "commit-2",
		Columns:    []string{"agency_slug", "agency_name", "city", "parish", "location_map_url"},
		Rows:       rows,
	}
}

func departmentImporter(store *fakeStore, logs *fakeLogs, commits *fakeCommits, source *fakeSource) *Importer {
	return NewDepartmentImporter(store, logs, commits, source, testLogger())
}

func TestImporterProcess(t *testing.T) {
	ctx := context.Background()

	t.Run("should create, update and delete reconciled rows", func(t *testing.T) {
		store := &fakeStore{
			fixedRows: map[string][][]string{
				"departments": {
					{"nola-pd", "New Orleans PD", "New Orleans", "Orleans", ""},
					{"br-pd", "Baton Rouge PD", "Baton Rouge", "East Baton Rouge", ""},
				},
			},
			lookups: map[string]map[string]string{
				"departments.agency_slug": {"nola-pd": "id-nola", "br-pd": "id-br"},
			},
		}
		logs := newFakeLogs()
		commits := newFakeCommits()
		source := &fakeSource{
			commit: "commit-2",
			snapshots: map[string]*snapshot.Snapshot{
				"commit-2": departmentSnapshot(
					[]string{"nola-pd", "New Orleans Police Department", "New Orleans", "Orleans", ""},
					[]string{"lafayette-pd", "Lafayette PD", "Lafayette", "Lafayette", ""},
				),
			},
		}

		changed, err := departmentImporter(store, logs, commits, source).Process(ctx)
		require.NoError(t, err)
		assert.True(t, changed)

		require.Len(t, store.inserted, 1)
		assert.Equal(t, "lafayette-pd", store.inserted[0]["agency_slug"])
		require.Len(t, store.updated, 1)
		assert.Equal(t, "id-nola", store.updated[0]["id"])
		assert.Equal(t, "New Orleans Police Department", store.updated[0]["agency_name"])
		assert.Equal(t, []string{"id-br"}, store.deletedID)

		assert.Equal(t, [3]int{1, 1, 1}, logs.finished["Department-run"])
		assert.Equal(t, "commit-2", commits.advanced["Department"])
	})

	t.Run("should skip without reconciling when the commit is unchanged", func(t *testing.T) {
		store := &fakeStore{}
		logs := newFakeLogs()
		commits := newFakeCommits()
		commits.repos["Department"] = &models.WrglRepo{DataModel: "Department", CommitHash: "commit-2"}
		source := &fakeSource{commit: "commit-2"}

		changed, err := departmentImporter(store, logs, commits, source).Process(ctx)
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Zero(t, source.fetched)
		assert.Equal(t, [3]int{0, 0, 0}, logs.finished["Department-run"])
		assert.Empty(t, commits.advanced)
	})

	t.Run("should keep only the first occurrence of a duplicate key", func(t *testing.T) {
		store := &fakeStore{lookups: map[string]map[string]string{}}
		logs := newFakeLogs()
		commits := newFakeCommits()
		source := &fakeSource{
			commit: "commit-2",
			snapshots: map[string]*snapshot.Snapshot{
				"commit-2": departmentSnapshot(
					[]string{"nola-pd", "New Orleans PD", "New Orleans", "Orleans", ""},
					[]string{"nola-pd", "NOPD duplicate", "New Orleans", "Orleans", ""},
				),
			},
		}

		changed, err := departmentImporter(store, logs, commits, source).Process(ctx)
		require.NoError(t, err)
		assert.True(t, changed)
		require.Len(t, store.inserted, 1)
		assert.Equal(t, "New Orleans PD", store.inserted[0]["agency_name"])
		assert.Equal(t, [3]int{1, 0, 0}, logs.finished["Department-run"])
	})

	t.Run("should silently skip deleting rows already gone", func(t *testing.T) {
		store := &fakeStore{
			fixedRows: map[string][][]string{
				"departments": {{"ghost-pd", "Ghost PD", "", "", ""}},
			},
			// The id+key projection no longer has the row.
			lookups: map[string]map[string]string{},
		}
		logs := newFakeLogs()
		commits := newFakeCommits()
		source := &fakeSource{
			commit:    "commit-2",
			snapshots: map[string]*snapshot.Snapshot{"commit-2": departmentSnapshot()},
		}

		changed, err := departmentImporter(store, logs, commits, source).Process(ctx)
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Empty(t, store.deletedID)
		assert.Equal(t, [3]int{0, 0, 0}, logs.finished["Department-run"])
	})

	t.Run("should fail the log and re-raise on a bulk write error", func(t *testing.T) {
		store := &fakeStore{
			lookups:   map[string]map[string]string{},
			insertErr: importerrors.NewBulkWriteError("departments", "insert", errors.New(`duplicate key value violates unique constraint "departments_agency_slug_key"`)),
		}
		logs := newFakeLogs()
		commits := newFakeCommits()
		source := &fakeSource{
			commit: "commit-2",
			snapshots: map[string]*snapshot.Snapshot{
				"commit-2": departmentSnapshot([]string{"nola-pd", "New Orleans PD", "New Orleans", "Orleans", ""}),
			},
		}

		changed, err := departmentImporter(store, logs, commits, source).Process(ctx)
		assert.Error(t, err)
		assert.True(t, importerrors.IsBulkWriteError(err))
		assert.False(t, changed)

		assert.Contains(t, logs.failed["Department-run"], "duplicate key value")
		assert.Empty(t, logs.finished)
		assert.Empty(t, commits.advanced, "a failed run must not advance the commit pointer")
	})

	t.Run("should fail the run when a required officer link cannot be resolved", func(t *testing.T) {
		store := &fakeStore{
			lookups: map[string]map[string]string{
				"officers.uid":            {},
				"departments.agency_slug": {"nola-pd": "id-nola"},
			},
		}
		logs := newFakeLogs()
		commits := newFakeCommits()
		source := &fakeSource{
			commit: "commit-1",
			snapshots: map[string]*snapshot.Snapshot{
				"commit-1": {
					CommitHash: "commit-1",
					Columns:    []string{"brady_uid", "tracking_id_og", "source_agency", "charging_agency", "disposition", "action", "uid", "agency_slug"},
					Rows: [][]string{
						{"brady-1", "t-1", "nola-da", "nola-da", "sustained", "", "missing-officer", "nola-pd"},
					},
				},
			},
		}

		importer := NewBradyImporter(store, logs, commits, source, testLogger())
		_, err := importer.Process(ctx)
		assert.Error(t, err)
		assert.True(t, importerrors.IsForeignKeyResolutionError(err))
		assert.Contains(t, logs.failed["Brady-run"], "missing-officer")
		assert.Empty(t, store.inserted)
	})

	t.Run("should store a null link when an optional officer cannot be resolved", func(t *testing.T) {
		store := &fakeStore{
			lookups: map[string]map[string]string{
				"officers.uid":            {},
				"departments.agency_slug": {"nola-pd": "id-nola"},
			},
		}
		logs := newFakeLogs()
		commits := newFakeCommits()
		source := &fakeSource{
			commit: "commit-1",
			snapshots: map[string]*snapshot.Snapshot{
				"commit-1": {
					CommitHash: "commit-1",
					Columns:    []string{"allegation_uid", "tracking_id", "allegation", "allegation_desc", "disposition", "action", "occur_date", "uid", "agency_slug"},
					Rows: [][]string{
						{"alleg-1", "t-1", "neglect of duty", "", "sustained", "suspended", "2019-03-07", "missing-officer", "nola-pd"},
					},
				},
			},
		}

		importer := NewComplaintImporter(store, logs, commits, source, testLogger())
		changed, err := importer.Process(ctx)
		require.NoError(t, err)
		assert.True(t, changed)

		require.Len(t, store.inserted, 1)
		assert.Nil(t, store.inserted[0]["officer_id"])
		assert.Equal(t, "id-nola", store.inserted[0]["department_id"])
		assert.Equal(t, [3]int{1, 0, 0}, logs.finished["Complaint-run"])
	})

	t.Run("should fail with a schema error when the snapshot misses a fixed column", func(t *testing.T) {
		store := &fakeStore{}
		logs := newFakeLogs()
		commits := newFakeCommits()
		source := &fakeSource{
			commit: "commit-1",
			snapshots: map[string]*snapshot.Snapshot{
				"commit-1": {
					CommitHash: "commit-1",
					Columns:    []string{"agency_slug", "agency_name"},
				},
			},
		}

		_, err := departmentImporter(store, logs, commits, source).Process(ctx)
		assert.Error(t, err)
		assert.True(t, importerrors.IsSchemaError(err))
		assert.NotEmpty(t, logs.failed["Department-run"])
	})
}
