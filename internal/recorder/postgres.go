package recorder

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS match_records (
    game_id      TEXT PRIMARY KEY,
    start_time   TIMESTAMPTZ NOT NULL,
    end_time     TIMESTAMPTZ NOT NULL,
    secret_code  TEXT NOT NULL,
    winner       TEXT NOT NULL,
    players_json TEXT NOT NULL
);
`

// PostgresRecorder is the alternate MatchRecorder backend for deployments
// that already run PostgreSQL — the teacher's database.go lists lib/pq as a
// dependency for exactly this path but never finishes wiring it; here it
// backs a real Recorder implementation with the same transactional-write
// guarantee as SQLiteRecorder.
type PostgresRecorder struct {
	db *sql.DB
}

// NewPostgresRecorder opens a connection using a "postgres://" DSN or a
// libpq keyword/value connection string, and ensures match_records exists.
func NewPostgresRecorder(dsn string) (*PostgresRecorder, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open match recorder database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to match recorder database: %w", err)
	}

	if _, err := db.Exec(postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize match recorder schema: %w", err)
	}

	return &PostgresRecorder{db: db}, nil
}

func (r *PostgresRecorder) Record(rec Record) (string, error) {
	playersJSON, err := json.Marshal(rec.Players)
	if err != nil {
		return "", fmt.Errorf("failed to marshal player attempts: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin match record transaction: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO match_records (game_id, start_time, end_time, secret_code, winner, players_json)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, rec.GameID, rec.StartTime, rec.EndTime, rec.SecretCode, winnerOrNone(rec.Winner), string(playersJSON))
	if err != nil {
		tx.Rollback()
		return "", fmt.Errorf("failed to insert match record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit match record: %w", err)
	}

	return rec.GameID, nil
}

func (r *PostgresRecorder) Recent(limit int) ([]Record, error) {
	rows, err := r.db.Query(`
		SELECT game_id, start_time, end_time, secret_code, winner, players_json
		FROM match_records
		ORDER BY end_time DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent match records: %w", err)
	}
	defer rows.Close()

	return scanRecentRows(rows)
}

func (r *PostgresRecorder) Close() error {
	return r.db.Close()
}
