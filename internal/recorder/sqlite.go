package recorder

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS match_records (
    game_id      TEXT PRIMARY KEY,
    start_time   TIMESTAMP NOT NULL,
    end_time     TIMESTAMP NOT NULL,
    secret_code  TEXT NOT NULL,
    winner       TEXT NOT NULL,
    players_json TEXT NOT NULL
);
`

// SQLiteRecorder is the default MatchRecorder backend: one row per finished
// match in a local SQLite file, written inside a transaction so a crash
// mid-write leaves no partial row behind.
type SQLiteRecorder struct {
	db *sql.DB
}

// NewSQLiteRecorder opens (creating if necessary) the SQLite database at
// path and ensures the match_records table exists.
func NewSQLiteRecorder(path string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create match recorder directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open match recorder database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		log.Warn().Err(err).Msg("failed to set WAL mode on match recorder")
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize match recorder schema: %w", err)
	}

	return &SQLiteRecorder{db: db}, nil
}

func (r *SQLiteRecorder) Record(rec Record) (string, error) {
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
		VALUES (?, ?, ?, ?, ?, ?)
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

func (r *SQLiteRecorder) Recent(limit int) ([]Record, error) {
	rows, err := r.db.Query(`
		SELECT game_id, start_time, end_time, secret_code, winner, players_json
		FROM match_records
		ORDER BY end_time DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent match records: %w", err)
	}
	defer rows.Close()

	return scanRecentRows(rows)
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}

// rowScanner abstracts over *sql.Rows so scanRecentRows can be shared
// between backends.
type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanRecentRows(rows rowScanner) ([]Record, error) {
	var records []Record
	for rows.Next() {
		var (
			gameID, secretCode, winner, playersJSON string
			startTime, endTime                      time.Time
		)
		if err := rows.Scan(&gameID, &startTime, &endTime, &secretCode, &winner, &playersJSON); err != nil {
			log.Warn().Err(err).Msg("skipping malformed match record row")
			continue
		}

		var players []PlayerAttempt
		if err := json.Unmarshal([]byte(playersJSON), &players); err != nil {
			log.Warn().Err(err).Str("game_id", gameID).Msg("skipping match record with malformed players column")
			continue
		}

		rec := Record{
			GameID:     gameID,
			StartTime:  startTime,
			EndTime:    endTime,
			SecretCode: secretCode,
			Winner:     noneToNilWinner(winner),
			Players:    players,
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return records, fmt.Errorf("error iterating match records: %w", err)
	}
	return records, nil
}

// winnerOrNone renders winner the way the original implementation's XML
// writer did: the literal string "None" when nobody won, so the persisted
// shape is recognizable to anything that already expects that convention.
func winnerOrNone(winner *string) string {
	if winner == nil {
		return "None"
	}
	return *winner
}

func noneToNilWinner(winner string) *string {
	if winner == "None" {
		return nil
	}
	w := winner
	return &w
}
