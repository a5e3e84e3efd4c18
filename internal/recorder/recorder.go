// Package recorder implements MatchRecorder: the durable sink a finished
// match is written to, and the means to enumerate recent matches. Two real
// backends are provided (SQLite and PostgreSQL, selected the same way the
// teacher's internal/database package chooses a driver by DB_TYPE) plus an
// in-memory fake for tests that don't want a filesystem or network
// dependency.
package recorder

import "time"

// Record is one finished match, matching the persisted document described
// in the wire spec: game_id, start/end time, secret code, per-player
// attempt counts, and winner (nil when nobody won).
type Record struct {
	GameID     string
	StartTime  time.Time
	EndTime    time.Time
	SecretCode string
	Winner     *string
	Players    []PlayerAttempt
}

// PlayerAttempt is one row of the persisted players collection.
type PlayerAttempt struct {
	ID       string
	Attempts int
}

// Recorder is the MatchRecorder contract. Implementations must make Record
// atomic with respect to a crash: either the full record is present after
// recovery, or it is entirely absent.
type Recorder interface {
	// Record writes one finished match and returns a storage locator (the
	// backend-specific identifier by which it was stored; both SQL
	// backends use the game_id itself).
	Record(rec Record) (string, error)

	// Recent returns up to limit records ordered by write time, newest
	// first. Malformed rows are skipped with a logged warning, never
	// aborting the rest of the scan.
	Recent(limit int) ([]Record, error)

	// Close releases any resources (database handles) held by the backend.
	Close() error
}
