package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NeverVane/historic/internal/config"
)

func testConfig(dbPath string) *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{
			Path:          dbPath,
			MaxOpenConns:  1,
			MaxIdleConns:  1,
			BusyTimeoutMS: 1000,
			WALMode:       true,
			SyncMode:      "NORMAL",
		},
	}
}

func newTestDatabase(t *testing.T) *Database {
	t.Helper()

	db, err := NewDatabase(testConfig(filepath.Join(t.TempDir(), "historic.db")), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func TestNewDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "historic.db")

	db, err := NewDatabase(testConfig(dbPath), nil)
	require.NoError(t, err)
	require.NotNil(t, db)
	defer db.Close()

	assert.FileExists(t, dbPath)
	assert.Equal(t, dbPath, db.GetPath())

	info, err := os.Stat(dbPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestNewDatabase_ExistingDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "existing.db")

	db1, err := NewDatabase(testConfig(dbPath), nil)
	require.NoError(t, err)
	require.NoError(t, db1.Close())

	db2, err := NewDatabase(testConfig(dbPath), nil)
	require.NoError(t, err)
	defer db2.Close()

	history, err := db2.GetMigrator().GetMigrationHistory(context.Background())
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestNewDatabase_CreateIfMissingFalse(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "missing.db")
	cfg := testConfig(dbPath)

	_, err := NewDatabase(cfg, &DatabaseOptions{CreateIfMissing: false})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
	assert.NoFileExists(t, dbPath)
}

func TestDatabase_DirectoryCreation(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "deeper", "historic.db")

	db, err := NewDatabase(testConfig(dbPath), nil)
	require.NoError(t, err)
	defer db.Close()

	info, err := os.Stat(filepath.Dir(dbPath))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
}

func TestDatabase_BuildConnectionString(t *testing.T) {
	db := &Database{
		path:   "/tmp/historic.db",
		config: &config.DatabaseConfig{BusyTimeoutMS: 250, SyncMode: "full"},
	}

	connStr := db.buildConnectionString()
	assert.True(t, strings.HasPrefix(connStr, "/tmp/historic.db?"))
	assert.Contains(t, connStr, "busy_timeout%28250%29")
	assert.Contains(t, connStr, "synchronous%28FULL%29")
	assert.Contains(t, connStr, "_txlock=immediate")
}

func TestDatabase_JournalMode(t *testing.T) {
	tests := []struct {
		name string
		wal  bool
		want string
	}{
		{name: "wal", wal: true, want: "wal"},
		{name: "rollback journal", wal: false, want: "delete"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(filepath.Join(t.TempDir(), "j.db"))
			cfg.Database.WALMode = tt.wal

			db, err := NewDatabase(cfg, nil)
			require.NoError(t, err)
			defer db.Close()

			var mode string
			require.NoError(t, db.DB().Get(&mode, "PRAGMA journal_mode"))
			assert.Equal(t, tt.want, mode)
		})
	}
}

func TestDatabase_Close(t *testing.T) {
	db := newTestDatabase(t)

	require.NoError(t, db.Close())
	assert.Nil(t, db.DB())

	// Closing twice is harmless
	assert.NoError(t, db.Close())
}

func TestDatabase_Status(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "historic.db")

	db, err := NewDatabase(testConfig(dbPath), nil)
	require.NoError(t, err)
	defer db.Close()

	st, err := db.Status(context.Background())
	require.NoError(t, err)

	assert.Equal(t, dbPath, st.Path)
	assert.Equal(t, GetCurrentSchema().Version, st.Version)
	require.Len(t, st.History, 1)
	assert.Equal(t, "Initial schema creation", st.History[0].Description)
	assert.NoError(t, st.Integrity)
}
