package storage

// MinSupportedVersion is the oldest schema version this build can open
const MinSupportedVersion = 1

// RanksTable holds one row per distinct command per session
const RanksTable = "ranks"

// DatabaseSchema contains all SQL statements for database initialization
type DatabaseSchema struct {
	// Current schema version
	Version int

	// DDL statements
	Tables  []string
	Indexes []string

	// Adopt runs between Tables and Indexes on a database without version
	// tracking, so a ranks table written by older releases satisfies the
	// unique index.
	Adopt []string

	// Migration statements keyed by the version they produce
	Migrations map[int][]string

	// Names checked by ValidateSchema
	RequiredTables  []string
	RequiredIndexes []string
}

// GetCurrentSchema returns the current database schema
func GetCurrentSchema() *DatabaseSchema {
	return &DatabaseSchema{
		Version: 1,
		Tables: []string{
			`CREATE TABLE IF NOT EXISTS ranks (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				timestamp TEXT NOT NULL,
				session_id TEXT NOT NULL,
				rank INTEGER NOT NULL CHECK (rank >= 1),
				cmd TEXT NOT NULL
			)`,

			`CREATE TABLE IF NOT EXISTS schema_version (
				version INTEGER PRIMARY KEY,
				applied_at INTEGER NOT NULL,
				description TEXT
			)`,
		},

		Adopt: []string{
			`DELETE FROM ranks WHERE id NOT IN (
				SELECT MAX(id) FROM ranks GROUP BY session_id, cmd
			)`,
			`UPDATE ranks SET rank = 1 WHERE rank < 1`,
		},

		Indexes: []string{
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_ranks_session_cmd ON ranks(session_id, cmd)`,
			`CREATE INDEX IF NOT EXISTS idx_ranks_session_rank ON ranks(session_id, rank)`,
		},

		// Upgrades to later versions go here, keyed by the version they produce
		Migrations: map[int][]string{},

		RequiredTables: []string{RanksTable, "schema_version"},
		RequiredIndexes: []string{
			"idx_ranks_session_cmd",
			"idx_ranks_session_rank",
		},
	}
}

// SchemaVersion represents the schema version tracking
type SchemaVersion struct {
	Version     int    `db:"version"`
	AppliedAt   int64  `db:"applied_at"`
	Description string `db:"description"`
}
