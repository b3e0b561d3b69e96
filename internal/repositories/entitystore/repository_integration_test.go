package entitystore_test

import (
	"context"
	"os"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ramsey-B/magnolia/internal/repositories/entitystore"
	"github.com/Ramsey-B/magnolia/pkg/database"
	"github.com/Ramsey-B/magnolia/pkg/models"
)

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func getTestDB(t *testing.T) database.DB {
	// Use environment variables or defaults for test DB
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}
	dbUser := os.Getenv("DB_USER_NAME")
	if dbUser == "" {
		dbUser = "user"
	}
	dbPass := os.Getenv("DB_PASSWORD")
	if dbPass == "" {
		dbPass = "password"
	}
	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "magnolia"
	}

	dsn := "host=" + dbHost + " user=" + dbUser + " password=" + dbPass + " dbname=" + dbName + " sslmode=disable"
	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err, "Failed to connect to test database")

	return database.NewDatabaseInstance(db, getTestLogger())
}

func departmentRow(slug, name, city string) map[string]any {
	return map[string]any{
		"agency_slug":      slug,
		"agency_name":      name,
		"city":             city,
		"parish":           "orleans",
		"location_map_url": nil,
	}
}

func TestEntityStoreRepository_BulkWrites(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	repo := entitystore.NewRepository(db, getTestLogger())
	ctx := context.Background()
	schema := models.DepartmentSchema

	slugA := "test-agency-" + uuid.New().String()
	slugB := "test-agency-" + uuid.New().String()

	// Insert assigns ids and timestamps
	err := repo.BulkInsert(ctx, schema, []map[string]any{
		departmentRow(slugA, "Agency A", "New Orleans"),
		departmentRow(slugB, "Agency B", "Baton Rouge"),
	})
	require.NoError(t, err)

	lookup, err := repo.IDsByKey(ctx, schema.Table, schema.NaturalKey)
	require.NoError(t, err)
	require.Contains(t, lookup, slugA)
	require.Contains(t, lookup, slugB)
	idA := lookup[slugA]
	idB := lookup[slugB]

	defer func() {
		_ = repo.BulkDelete(ctx, schema, []string{idA, idB})
	}()

	// The projection carries fixed fields in schema order, text-cast with
	// NULL as ""
	rows, err := repo.SelectFixedRows(ctx, schema)
	require.NoError(t, err)

	var rowA []string
	for _, row := range rows {
		if row[0] == slugA {
			rowA = row
		}
	}
	require.NotNil(t, rowA)
	require.Len(t, rowA, len(schema.FixedFields()))
	assert.Equal(t, "Agency A", rowA[1])
	assert.Equal(t, "New Orleans", rowA[2])
	assert.Equal(t, "", rowA[4])

	// Update rewrites the staged columns under the existing id
	updatedRow := departmentRow(slugA, "Agency A", "Metairie")
	updatedRow["id"] = idA
	err = repo.BulkUpdate(ctx, schema, []map[string]any{updatedRow})
	require.NoError(t, err)

	rows, err = repo.SelectFixedRows(ctx, schema)
	require.NoError(t, err)
	for _, row := range rows {
		if row[0] == slugA {
			assert.Equal(t, "Metairie", row[2])
		}
	}

	// Delete removes both staged ids
	err = repo.BulkDelete(ctx, schema, []string{idA, idB})
	require.NoError(t, err)

	lookup, err = repo.IDsByKey(ctx, schema.Table, schema.NaturalKey)
	require.NoError(t, err)
	assert.NotContains(t, lookup, slugA)
	assert.NotContains(t, lookup, slugB)

	// Empty batches are no-ops
	assert.NoError(t, repo.BulkInsert(ctx, schema, nil))
	assert.NoError(t, repo.BulkUpdate(ctx, schema, nil))
	assert.NoError(t, repo.BulkDelete(ctx, schema, nil))
}
