package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/NeverVane/historic/internal/logger"
)

var (
	// ErrEmptyCommand is returned when asked to record blank command text
	ErrEmptyCommand = errors.New("command text is empty")

	// ErrEmptySession is returned when the session fingerprint is missing
	ErrEmptySession = errors.New("session id is empty")
)

// Action says which write a Record call performed
type Action int

const (
	Inserted Action = iota
	Updated
)

func (a Action) String() string {
	switch a {
	case Inserted:
		return "inserted"
	case Updated:
		return "updated"
	default:
		return "unknown"
	}
}

// Result describes the row a Record call wrote
type Result struct {
	Action Action
	ID     int64
	Rank   int64
}

// Recorder applies the ranking policy to a Store
type Recorder struct {
	store  Store
	now    func() time.Time
	logger *logger.Logger
}

// Option configures a Recorder
type Option func(*Recorder)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		r.now = now
	}
}

// WithLogger replaces the component logger
func WithLogger(l *logger.Logger) Option {
	return func(r *Recorder) {
		r.logger = l
	}
}

// NewRecorder creates a recorder over store
func NewRecorder(store Store, opts ...Option) *Recorder {
	r := &Recorder{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logger.GetLogger().Ranking()
	}
	return r
}

// Record registers one use of cmd in the session. A known command is
// re-ranked with Decay, a new one starts one above the session's best rank.
// Each call performs exactly one write.
func (r *Recorder) Record(ctx context.Context, sessionID, cmd string) (Result, error) {
	if sessionID == "" {
		return Result{}, ErrEmptySession
	}
	if strings.TrimSpace(cmd) == "" {
		return Result{}, ErrEmptyCommand
	}

	now := r.now()
	log := r.logger.WithSessionID(sessionID).WithOperation("record")

	existing, err := r.store.Find(ctx, sessionID, cmd)
	if err != nil {
		return Result{}, fmt.Errorf("failed to look up command: %w", err)
	}

	if existing != nil {
		rank := r.rerank(log, *existing, now)
		if err := r.store.UpdateRank(ctx, existing.ID, rank, now); err != nil {
			return Result{}, fmt.Errorf("failed to update command rank: %w", err)
		}

		log.Debug().
			Int64("id", existing.ID).
			Int64("old_rank", existing.Rank).
			Int64("new_rank", rank).
			Msg("Command re-ranked")

		return Result{Action: Updated, ID: existing.ID, Rank: rank}, nil
	}

	best, ok, err := r.store.MaxRank(ctx, sessionID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read session max rank: %w", err)
	}

	rank := NextRank(best, ok)
	id, err := r.store.Insert(ctx, sessionID, cmd, rank, now)
	if err != nil {
		return Result{}, fmt.Errorf("failed to insert command: %w", err)
	}

	log.Debug().Int64("id", id).Int64("rank", rank).Msg("Command recorded")

	return Result{Action: Inserted, ID: id, Rank: rank}, nil
}

// rerank decays the record's rank; a corrupt timestamp keeps the rank as is
func (r *Recorder) rerank(log *logger.Logger, rec CommandRecord, now time.Time) int64 {
	lastUsed, err := rec.LastUsed()
	if err != nil {
		log.WithError(err).Warn().
			Int64("id", rec.ID).
			Msg("Skipping rank decay for record with unreadable timestamp")
		return clampRank(rec.Rank)
	}
	return Decay(rec.Rank, now.Sub(lastUsed))
}

// List returns the session's commands ascending by rank
func (r *Recorder) List(ctx context.Context, sessionID string) ([]CommandRecord, error) {
	records, err := r.store.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list session commands: %w", err)
	}
	return records, nil
}
