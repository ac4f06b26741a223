package storage

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/NeverVane/historic/internal/config"
	"github.com/NeverVane/historic/internal/logger"
)

// driverName is the database/sql name registered by modernc.org/sqlite
const driverName = "sqlite"

// Database wraps sqlx.DB with the connection setup historic needs
type Database struct {
	db       *sqlx.DB
	config   *config.DatabaseConfig
	logger   *logger.Logger
	migrator *Migrator
	path     string
}

// DatabaseOptions contains options for database initialization
type DatabaseOptions struct {
	Config          *config.DatabaseConfig
	CreateIfMissing bool
	MigrateOnOpen   bool
	ValidateSchema  bool
}

// NewDatabase creates a new database instance with the given configuration
func NewDatabase(cfg *config.Config, opts *DatabaseOptions) (*Database, error) {
	if opts == nil {
		opts = &DatabaseOptions{
			Config:          &cfg.Database,
			CreateIfMissing: true,
			MigrateOnOpen:   true,
			ValidateSchema:  true,
		}
	}

	if opts.Config == nil {
		opts.Config = &cfg.Database
	}

	db := &Database{
		config: opts.Config,
		logger: logger.GetLogger().Storage(),
		path:   opts.Config.Path,
	}

	if err := db.initialize(opts); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return db, nil
}

// initialize sets up the database connection and configuration
func (db *Database) initialize(opts *DatabaseOptions) error {
	// Ensure database directory exists with secure permissions
	if err := os.MkdirAll(filepath.Dir(db.path), 0700); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	dbExists := true
	if _, err := os.Stat(db.path); os.IsNotExist(err) {
		dbExists = false
		if !opts.CreateIfMissing {
			return fmt.Errorf("database file does not exist: %s", db.path)
		}
	}

	connStr := db.buildConnectionString()

	db.logger.Debug().
		Str("path", db.path).
		Str("connection_string", connStr).
		Msg("Opening database connection")

	sqlDB, err := sqlx.Open(driverName, connStr)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	db.db = sqlDB

	db.configureConnectionPool()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.applyPragmas(ctx); err != nil {
		db.db.Close()
		return fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := db.setSecurePermissions(); err != nil {
		db.db.Close()
		return fmt.Errorf("failed to set secure permissions: %w", err)
	}

	db.migrator = NewMigrator(db.db, GetCurrentSchema())

	if !dbExists || opts.MigrateOnOpen {
		if err := db.migrator.MigrateToLatest(ctx); err != nil {
			db.db.Close()
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	if opts.ValidateSchema {
		if err := db.migrator.ValidateSchema(ctx); err != nil {
			db.db.Close()
			return fmt.Errorf("schema validation failed: %w", err)
		}
	}

	if err := db.ping(ctx); err != nil {
		db.db.Close()
		return fmt.Errorf("database connection test failed: %w", err)
	}

	db.logger.Debug().
		Str("path", db.path).
		Bool("new_database", !dbExists).
		Msg("Database initialized successfully")

	return nil
}

// buildConnectionString creates the SQLite DSN. Per-connection pragmas go
// in the DSN so every pooled connection gets them.
func (db *Database) buildConnectionString() string {
	params := url.Values{}
	params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", db.config.BusyTimeoutMS))
	if db.config.SyncMode != "" {
		params.Add("_pragma", fmt.Sprintf("synchronous(%s)", strings.ToUpper(db.config.SyncMode)))
	}
	params.Add("_pragma", "temp_store(memory)")
	params.Add("_txlock", "immediate")

	return db.path + "?" + params.Encode()
}

// configureConnectionPool sets up connection pool parameters
func (db *Database) configureConnectionPool() {
	db.db.SetMaxOpenConns(db.config.MaxOpenConns)
	db.db.SetMaxIdleConns(db.config.MaxIdleConns)
	db.db.SetConnMaxIdleTime(5 * time.Minute)
}

// applyPragmas sets database-wide pragmas that persist in the file
func (db *Database) applyPragmas(ctx context.Context) error {
	journal := "DELETE"
	if db.config.WALMode {
		journal = "WAL"
	}

	pragmas := []struct {
		name  string
		value string
	}{
		{"journal_mode", journal},
		{"secure_delete", "ON"},
	}

	for _, p := range pragmas {
		query := fmt.Sprintf("PRAGMA %s = %s", p.name, p.value)
		if _, err := db.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to set pragma %s: %w", p.name, err)
		}
		db.logger.Debug().Str("pragma", p.name).Str("value", p.value).Msg("Applied pragma")
	}

	return nil
}

// setSecurePermissions restricts the database and its WAL files to the owner
func (db *Database) setSecurePermissions() error {
	if err := os.Chmod(db.path, 0600); err != nil {
		return fmt.Errorf("failed to set database file permissions: %w", err)
	}

	for _, suffix := range []string{"-wal", "-shm"} {
		side := db.path + suffix
		if _, err := os.Stat(side); err == nil {
			if err := os.Chmod(side, 0600); err != nil {
				db.logger.Warn().Err(err).Str("file", side).Msg("Failed to set file permissions")
			}
		}
	}

	return nil
}

// ping tests the database connection
func (db *Database) ping(ctx context.Context) error {
	if err := db.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}

	var result int
	if err := db.db.GetContext(ctx, &result, "SELECT 1"); err != nil {
		return fmt.Errorf("test query failed: %w", err)
	}

	if result != 1 {
		return fmt.Errorf("test query returned unexpected result: %d", result)
	}

	return nil
}

// DB returns the underlying sqlx.DB instance
func (db *Database) DB() *sqlx.DB {
	return db.db
}

// GetMigrator returns the database migrator
func (db *Database) GetMigrator() *Migrator {
	return db.migrator
}

// Status summarizes the database file for diagnostics
type Status struct {
	Path    string
	Version int
	History []SchemaVersion

	// Integrity is nil when SQLite's integrity check passes
	Integrity error
}

// Status reports the schema version, the applied migrations and the result
// of an integrity check. A failed check is reported in Status, not as err.
func (db *Database) Status(ctx context.Context) (Status, error) {
	st := Status{Path: db.path}

	version, err := db.migrator.GetCurrentVersion(ctx)
	if err != nil {
		return st, err
	}
	st.Version = version

	st.History, err = db.migrator.GetMigrationHistory(ctx)
	if err != nil {
		return st, err
	}

	st.Integrity = db.migrator.CheckIntegrity(ctx)
	if st.Integrity != nil {
		db.logger.Warn().Err(st.Integrity).Str("path", db.path).Msg("Database integrity check failed")
	}

	return st, nil
}

// GetPath returns the database file path
func (db *Database) GetPath() string {
	return db.path
}

// Close closes the database connection
func (db *Database) Close() error {
	if db.db == nil {
		return nil
	}

	if db.config.WALMode {
		if _, err := db.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
			db.logger.Warn().Err(err).Msg("Failed to perform final WAL checkpoint")
		}
	}

	if err := db.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	db.db = nil
	return nil
}
