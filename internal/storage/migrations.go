package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/NeverVane/historic/internal/logger"
)

// Migrator handles database schema migrations
type Migrator struct {
	db     *sqlx.DB
	schema *DatabaseSchema
	logger *logger.Logger
}

// NewMigrator creates a new database migrator
func NewMigrator(db *sqlx.DB, schema *DatabaseSchema) *Migrator {
	return &Migrator{
		db:     db,
		schema: schema,
		logger: logger.GetLogger().Storage(),
	}
}

// GetCurrentVersion returns the current schema version from the database
func (m *Migrator) GetCurrentVersion(ctx context.Context) (int, error) {
	exists, err := m.tableExists(ctx, "schema_version")
	if err != nil {
		return 0, err
	}
	if !exists {
		// No schema version table exists, this is a fresh or legacy database
		return 0, nil
	}

	var version sql.NullInt64
	if err := m.db.GetContext(ctx, &version, `SELECT MAX(version) FROM schema_version`); err != nil {
		return 0, fmt.Errorf("failed to get current schema version: %w", err)
	}
	if !version.Valid {
		return 0, nil
	}

	return int(version.Int64), nil
}

// InitializeSchema creates the schema in one transaction
func (m *Migrator) InitializeSchema(ctx context.Context) error {
	m.logger.Info().Msg("Initializing database schema")

	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	steps := [][]string{m.schema.Tables, m.schema.Adopt, m.schema.Indexes}
	for _, statements := range steps {
		for i, statement := range statements {
			if _, err := tx.ExecContext(ctx, statement); err != nil {
				return fmt.Errorf("failed to execute schema statement %d: %w", i, err)
			}
		}
	}

	if err := m.recordSchemaVersion(ctx, tx, m.schema.Version, "Initial schema creation"); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema initialization: %w", err)
	}

	m.logger.Info().Int("version", m.schema.Version).Msg("Database schema initialized successfully")
	return nil
}

// MigrateToLatest migrates the database to the latest schema version
func (m *Migrator) MigrateToLatest(ctx context.Context) error {
	currentVersion, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	targetVersion := m.schema.Version

	if currentVersion == 0 {
		return m.InitializeSchema(ctx)
	}

	if currentVersion == targetVersion {
		m.logger.Debug().Int("version", currentVersion).Msg("Database schema is up to date")
		return nil
	}

	if currentVersion > targetVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", currentVersion, targetVersion)
	}

	for version := currentVersion + 1; version <= targetVersion; version++ {
		if err := m.applyMigration(ctx, version); err != nil {
			return fmt.Errorf("failed to apply migration to version %d: %w", version, err)
		}
	}

	return nil
}

// applyMigration applies a specific migration version
func (m *Migrator) applyMigration(ctx context.Context, version int) error {
	migrations, exists := m.schema.Migrations[version]
	if !exists {
		return fmt.Errorf("no migration found for version %d", version)
	}

	m.logger.Info().Int("version", version).Msg("Applying database migration")

	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration transaction: %w", err)
	}
	defer tx.Rollback()

	for i, statement := range migrations {
		m.logger.Debug().Int("version", version).Int("statement", i).Msg("Executing migration statement")
		if _, err := tx.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("failed to execute migration statement %d for version %d: %w", i, version, err)
		}
	}

	description := fmt.Sprintf("Migration to version %d", version)
	if err := m.recordSchemaVersion(ctx, tx, version, description); err != nil {
		return fmt.Errorf("failed to record migration version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}

	m.logger.Info().Int("version", version).Msg("Migration applied successfully")
	return nil
}

// recordSchemaVersion records a schema version in the database
func (m *Migrator) recordSchemaVersion(ctx context.Context, tx *sqlx.Tx, version int, description string) error {
	query := `INSERT OR REPLACE INTO schema_version (version, applied_at, description) VALUES (?, ?, ?)`
	_, err := tx.ExecContext(ctx, query, version, time.Now().UnixMilli(), description)
	return err
}

// ValidateSchema checks the required tables, indexes and version
func (m *Migrator) ValidateSchema(ctx context.Context) error {
	for _, table := range m.schema.RequiredTables {
		exists, err := m.tableExists(ctx, table)
		if err != nil {
			return fmt.Errorf("table validation failed: %w", err)
		}
		if !exists {
			return fmt.Errorf("table validation failed: required table %s does not exist", table)
		}
	}

	for _, index := range m.schema.RequiredIndexes {
		if err := m.validateIndexExists(ctx, index); err != nil {
			return fmt.Errorf("index validation failed: %w", err)
		}
	}

	if err := m.validateSchemaVersion(ctx); err != nil {
		return fmt.Errorf("schema version validation failed: %w", err)
	}

	return nil
}

func (m *Migrator) tableExists(ctx context.Context, tableName string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`
	if err := m.db.GetContext(ctx, &count, query, tableName); err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", tableName, err)
	}
	return count > 0, nil
}

// validateIndexExists checks if an index exists in the database
func (m *Migrator) validateIndexExists(ctx context.Context, indexName string) error {
	var name string
	query := `SELECT name FROM sqlite_master WHERE type='index' AND name=?`
	err := m.db.GetContext(ctx, &name, query, indexName)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("required index %s does not exist", indexName)
	}
	if err != nil {
		return fmt.Errorf("failed to check index %s: %w", indexName, err)
	}
	return nil
}

// validateSchemaVersion ensures the schema version is consistent
func (m *Migrator) validateSchemaVersion(ctx context.Context) error {
	currentVersion, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	if currentVersion < MinSupportedVersion {
		return fmt.Errorf("schema version %d is below minimum supported version %d", currentVersion, MinSupportedVersion)
	}

	if currentVersion > m.schema.Version {
		return fmt.Errorf("schema version %d is newer than application version %d", currentVersion, m.schema.Version)
	}

	return nil
}

// GetMigrationHistory returns the migration history
func (m *Migrator) GetMigrationHistory(ctx context.Context) ([]SchemaVersion, error) {
	var history []SchemaVersion
	query := `SELECT version, applied_at, description FROM schema_version ORDER BY version ASC`
	if err := m.db.SelectContext(ctx, &history, query); err != nil {
		return nil, fmt.Errorf("failed to query migration history: %w", err)
	}
	return history, nil
}

// CheckIntegrity runs SQLite's integrity check
func (m *Migrator) CheckIntegrity(ctx context.Context) error {
	var result string
	if err := m.db.GetContext(ctx, &result, "PRAGMA integrity_check"); err != nil {
		return fmt.Errorf("failed to run integrity check: %w", err)
	}

	if result != "ok" {
		return fmt.Errorf("database integrity check failed: %s", result)
	}

	return nil
}
