package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openRaw(t *testing.T) *sqlx.DB {
	t.Helper()

	raw, err := sqlx.Open(driverName, filepath.Join(t.TempDir(), "raw.db"))
	require.NoError(t, err)
	raw.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = raw.Close() })

	return raw
}

func TestGetCurrentSchema(t *testing.T) {
	schema := GetCurrentSchema()

	assert.Equal(t, 1, schema.Version)
	assert.NotEmpty(t, schema.Tables)
	assert.NotEmpty(t, schema.Indexes)
	assert.Empty(t, schema.Migrations)
	assert.Contains(t, schema.RequiredTables, RanksTable)
}

func TestMigrator_InitializeSchema(t *testing.T) {
	ctx := context.Background()
	m := NewMigrator(openRaw(t), GetCurrentSchema())

	require.NoError(t, m.InitializeSchema(ctx))
	require.NoError(t, m.ValidateSchema(ctx))

	version, err := m.GetCurrentVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, version)
}

func TestMigrator_MigrateToLatestIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m := NewMigrator(openRaw(t), GetCurrentSchema())

	for i := 0; i < 3; i++ {
		require.NoError(t, m.MigrateToLatest(ctx))
	}

	history, err := m.GetMigrationHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Initial schema creation", history[0].Description)
}

func TestMigrator_GetCurrentVersionFresh(t *testing.T) {
	m := NewMigrator(openRaw(t), GetCurrentSchema())

	version, err := m.GetCurrentVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, version)
}

func TestMigrator_AdoptsUnversionedRanksTable(t *testing.T) {
	ctx := context.Background()
	raw := openRaw(t)

	// Layout written by releases without version tracking
	_, err := raw.Exec(`CREATE TABLE ranks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		session_id TEXT NOT NULL,
		rank INTEGER NOT NULL,
		cmd TEXT NOT NULL
	)`)
	require.NoError(t, err)

	ts := time.Now().Format(time.RFC3339)
	for _, row := range []struct {
		rank int
		cmd  string
	}{{1, "ls"}, {2, "ls"}, {0, "pwd"}} {
		_, err := raw.Exec(`INSERT INTO ranks (timestamp, session_id, rank, cmd) VALUES (?, 's', ?, ?)`, ts, row.rank, row.cmd)
		require.NoError(t, err)
	}

	m := NewMigrator(raw, GetCurrentSchema())
	require.NoError(t, m.MigrateToLatest(ctx))
	require.NoError(t, m.ValidateSchema(ctx))

	var ranks []int
	require.NoError(t, raw.Select(&ranks, `SELECT rank FROM ranks ORDER BY cmd`))
	assert.Equal(t, []int{2, 1}, ranks)
}

func TestMigrator_AppliesPendingMigrations(t *testing.T) {
	ctx := context.Background()
	raw := openRaw(t)
	require.NoError(t, NewMigrator(raw, GetCurrentSchema()).InitializeSchema(ctx))

	_, err := raw.Exec(`INSERT INTO ranks (timestamp, session_id, rank, cmd) VALUES ('2024-01-01T00:00:00Z', 's', 3, 'make')`)
	require.NoError(t, err)

	next := GetCurrentSchema()
	next.Version = 2
	next.Migrations = map[int][]string{
		2: {`CREATE INDEX IF NOT EXISTS idx_ranks_cmd ON ranks(cmd)`},
	}

	m := NewMigrator(raw, next)
	require.NoError(t, m.MigrateToLatest(ctx))
	require.NoError(t, m.ValidateSchema(ctx))
	require.NoError(t, m.validateIndexExists(ctx, "idx_ranks_cmd"))

	var count int
	require.NoError(t, raw.Get(&count, `SELECT COUNT(*) FROM ranks`))
	assert.Equal(t, 1, count)

	history, err := m.GetMigrationHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 2, history[1].Version)
}

func TestMigrator_MissingMigrationFails(t *testing.T) {
	ctx := context.Background()
	raw := openRaw(t)
	require.NoError(t, NewMigrator(raw, GetCurrentSchema()).InitializeSchema(ctx))

	next := GetCurrentSchema()
	next.Version = 2

	err := NewMigrator(raw, next).MigrateToLatest(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no migration found for version 2")
}

func TestMigrator_RejectsNewerSchema(t *testing.T) {
	ctx := context.Background()
	raw := openRaw(t)
	m := NewMigrator(raw, GetCurrentSchema())
	require.NoError(t, m.InitializeSchema(ctx))

	_, err := raw.Exec(`INSERT INTO schema_version (version, applied_at, description) VALUES (99, 0, 'future')`)
	require.NoError(t, err)

	assert.Error(t, m.MigrateToLatest(ctx))
	assert.Error(t, m.ValidateSchema(ctx))
}

func TestMigrator_ValidateSchema_MissingTable(t *testing.T) {
	m := NewMigrator(openRaw(t), GetCurrentSchema())

	err := m.ValidateSchema(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestMigrator_CheckIntegrity(t *testing.T) {
	ctx := context.Background()
	m := NewMigrator(openRaw(t), GetCurrentSchema())
	require.NoError(t, m.InitializeSchema(ctx))

	assert.NoError(t, m.CheckIntegrity(ctx))
}

func TestRankCheckConstraint(t *testing.T) {
	db := newTestDatabase(t)

	_, err := db.DB().Exec(`INSERT INTO ranks (timestamp, session_id, rank, cmd) VALUES ('x', 's', 0, 'ls')`)
	assert.Error(t, err)
}
