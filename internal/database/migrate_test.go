//go:build integration

package database_test

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/accesssync/internal/database"
)

func TestMigratorIntegration(t *testing.T) {
	pool := startPostgres(t)
	db := database.OpenDB(pool)
	defer func() { _ = db.Close() }()

	require.NoError(t, database.HealthCheck(context.Background(), pool))

	t.Run("Up runs migrations successfully", func(t *testing.T) {
		migrator, err := database.NewMigrator(db, "accesssync_test")
		require.NoError(t, err)

		require.NoError(t, migrator.Up())

		assertTableExists(t, db, "workers")
		assertTableExists(t, db, "request_logs")
		assertTableExists(t, db, "cache_entries")
	})

	t.Run("Up is idempotent", func(t *testing.T) {
		migrator, err := database.NewMigrator(db, "accesssync_test")
		require.NoError(t, err)

		require.NoError(t, migrator.Up())

		version, dirty, err := migrator.Version()
		require.NoError(t, err)
		assert.False(t, dirty, "migration should not be dirty")
		assert.Equal(t, uint(2), version)
	})

	t.Run("workers table has correct columns", func(t *testing.T) {
		columns := getTableColumns(t, db, "workers")
		for _, col := range []string{
			"internal_id", "national_id", "name", "face_image_url", "valid_to",
			"status", "external_person_id", "provision_pending", "biometric_vector",
		} {
			assert.Contains(t, columns, col)
		}
	})

	t.Run("national id unique only when present", func(t *testing.T) {
		_, err := db.Exec(`INSERT INTO workers (internal_id, national_id) VALUES ('a', ''), ('b', '')`)
		require.NoError(t, err)

		_, err = db.Exec(`INSERT INTO workers (internal_id, national_id) VALUES ('c', '123'), ('d', '123')`)
		assert.Error(t, err)
	})

	t.Run("status is constrained", func(t *testing.T) {
		_, err := db.Exec(`INSERT INTO workers (internal_id, status) VALUES ('e', 'archived')`)
		assert.Error(t, err)
	})
}

func assertTableExists(t *testing.T, db *sql.DB, tableName string) {
	t.Helper()

	var exists bool
	err := db.QueryRow(`
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_schema = 'public'
			AND table_name = $1
		)
	`, tableName).Scan(&exists)

	require.NoError(t, err)
	assert.True(t, exists, "table %s should exist", tableName)
}

func getTableColumns(t *testing.T, db *sql.DB, tableName string) []string {
	t.Helper()

	rows, err := db.Query(`
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = 'public'
		AND table_name = $1
		ORDER BY ordinal_position
	`, tableName)
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	var columns []string
	for rows.Next() {
		var col string
		require.NoError(t, rows.Scan(&col))
		columns = append(columns, col)
	}

	return columns
}

func TestMigrateIntegration(t *testing.T) {
	pool := startPostgres(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	require.NoError(t, database.Migrate(pool, "accesssync_test", logger))
	// second run is a no-op and the pool stays usable
	require.NoError(t, database.Migrate(pool, "accesssync_test", logger))

	var count int
	require.NoError(t, pool.QueryRow(context.Background(), "SELECT COUNT(*) FROM workers").Scan(&count))
	assert.Equal(t, 0, count)
}
