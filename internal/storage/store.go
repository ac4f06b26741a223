package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/NeverVane/historic/internal/apperr"
	"github.com/NeverVane/historic/internal/history"
	"github.com/NeverVane/historic/internal/logger"
)

const selectRecord = `SELECT id, timestamp, session_id, rank, cmd FROM ranks`

// HistoryStore implements history.Store on top of Database
type HistoryStore struct {
	db     *Database
	logger *logger.Logger
}

var _ history.Store = (*HistoryStore)(nil)

// NewHistoryStore creates a store over an open database
func NewHistoryStore(db *Database) *HistoryStore {
	return &HistoryStore{
		db:     db,
		logger: logger.GetLogger().Storage(),
	}
}

// EnsureSchema brings the schema to the current version
func (s *HistoryStore) EnsureSchema(ctx context.Context) error {
	if err := s.db.migrator.MigrateToLatest(ctx); err != nil {
		return apperr.Storage("ensure schema", err)
	}
	return nil
}

// Find returns the record for (sessionID, cmd), or nil when there is none
func (s *HistoryStore) Find(ctx context.Context, sessionID, cmd string) (*history.CommandRecord, error) {
	var rec history.CommandRecord
	query := selectRecord + ` WHERE session_id = ? AND cmd = ? LIMIT 1`

	err := s.db.db.GetContext(ctx, &rec, query, sessionID, cmd)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Storage("find record", err)
	}

	return &rec, nil
}

// MaxRank returns the highest rank in the session
func (s *HistoryStore) MaxRank(ctx context.Context, sessionID string) (int64, bool, error) {
	var best sql.NullInt64
	query := `SELECT MAX(rank) FROM ranks WHERE session_id = ?`

	if err := s.db.db.GetContext(ctx, &best, query, sessionID); err != nil {
		return 0, false, apperr.Storage("read max rank", err)
	}

	return best.Int64, best.Valid, nil
}

// Insert creates a record and returns its id
func (s *HistoryStore) Insert(ctx context.Context, sessionID, cmd string, rank int64, ts time.Time) (int64, error) {
	query := `INSERT INTO ranks (timestamp, session_id, rank, cmd) VALUES (?, ?, ?, ?)`

	res, err := s.db.db.ExecContext(ctx, query, history.FormatTimestamp(ts), sessionID, rank, cmd)
	if err != nil {
		return 0, apperr.Storage("insert record", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, apperr.Storage("insert record", err)
	}

	s.logger.Debug().Int64("id", id).Int64("rank", rank).Msg("Inserted record")
	return id, nil
}

// UpdateRank sets the rank and last-use time of a record
func (s *HistoryStore) UpdateRank(ctx context.Context, id, rank int64, ts time.Time) error {
	query := `UPDATE ranks SET rank = ?, timestamp = ? WHERE id = ?`

	res, err := s.db.db.ExecContext(ctx, query, rank, history.FormatTimestamp(ts), id)
	if err != nil {
		return apperr.Storage("update rank", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return apperr.Storage("update rank", err)
	}
	if affected != 1 {
		return apperr.Storage("update rank", fmt.Errorf("record %d not found", id))
	}

	return nil
}

// ListBySession returns the session's records ascending by rank. Equal
// ranks keep insertion order.
func (s *HistoryStore) ListBySession(ctx context.Context, sessionID string) ([]history.CommandRecord, error) {
	records := []history.CommandRecord{}
	query := selectRecord + ` WHERE session_id = ? ORDER BY rank ASC, id ASC`

	if err := s.db.db.SelectContext(ctx, &records, query, sessionID); err != nil {
		return nil, apperr.Storage("list records", err)
	}

	return records, nil
}
