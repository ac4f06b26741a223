// Package history holds the command record model, the store contract and the
// frecency ranking applied every time a command is recorded.
package history

import (
	"context"
	"time"

	"github.com/NeverVane/historic/internal/apperr"
)

// CommandRecord is one distinct command within one session
type CommandRecord struct {
	ID        int64  `db:"id"`
	Timestamp string `db:"timestamp"`
	SessionID string `db:"session_id"`
	Rank      int64  `db:"rank"`
	Cmd       string `db:"cmd"`
}

// FormatTimestamp renders t the way records store it
func FormatTimestamp(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

// LastUsed parses the stored timestamp
func (r CommandRecord) LastUsed() (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, r.Timestamp)
	if err != nil {
		return time.Time{}, apperr.TimeParse(r.Timestamp, err)
	}
	return t, nil
}

// Store is the persistence contract the ranking needs. Implementations
// report every failure as an apperr storage error.
type Store interface {
	// EnsureSchema creates the record table if needed; safe on every start
	EnsureSchema(ctx context.Context) error

	// Find returns the record for (sessionID, cmd), or nil when absent
	Find(ctx context.Context, sessionID, cmd string) (*CommandRecord, error)

	// MaxRank returns the highest rank in the session; ok is false for an empty session
	MaxRank(ctx context.Context, sessionID string) (rank int64, ok bool, err error)

	// Insert creates a record and returns its id
	Insert(ctx context.Context, sessionID, cmd string, rank int64, ts time.Time) (int64, error)

	// UpdateRank sets the rank and last-use time of a record
	UpdateRank(ctx context.Context, id, rank int64, ts time.Time) error

	// ListBySession returns the session's records ascending by rank
	ListBySession(ctx context.Context, sessionID string) ([]CommandRecord, error)
}

// Commands extracts the command text of records, keeping their order
func Commands(records []CommandRecord) []string {
	cmds := make([]string, len(records))
	for i, r := range records {
		cmds[i] = r.Cmd
	}
	return cmds
}
