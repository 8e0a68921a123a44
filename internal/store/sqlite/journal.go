// Package sqlite persists an audit journal of emitted signals. The journal is
// strictly write-behind bookkeeping: deduplication stays in the in-memory
// gate, so a restart may re-notify the current anchor.
package sqlite

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"rpdbot/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// JournalConfig configures the SQLite signal journal.
type JournalConfig struct {
	DBPath string // path to SQLite database file, e.g. "data/signals.db"
}

// Journal is a single-writer SQLite store for emitted signals.
type Journal struct {
	db *sql.DB
}

// DB returns the underlying sql.DB for health checks.
func (j *Journal) DB() *sql.DB { return j.db }

// New creates a new Journal, initializes the database with WAL mode and schema.
func New(cfg JournalConfig) (*Journal, error) {
	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Set connection pool for single-writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened signal journal at %s", cfg.DBPath)
	return &Journal{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS rpd_signals (
			asset      TEXT    NOT NULL,
			symbol     TEXT    NOT NULL,
			interval   TEXT    NOT NULL,
			kind       TEXT    NOT NULL,
			ts         INTEGER NOT NULL,
			price      REAL    NOT NULL,
			confidence REAL    NOT NULL,
			sent_at    INTEGER NOT NULL,
			PRIMARY KEY (asset, ts)
		);
	`)
	return err
}

// Record inserts one emitted signal. Re-recording the same asset+anchor (e.g.
// after a restart) overwrites rather than duplicating.
func (j *Journal) Record(sig *model.Signal) error {
	_, err := j.db.Exec(`
		INSERT OR REPLACE INTO rpd_signals (asset, symbol, interval, kind, ts, price, confidence, sent_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, sig.Asset, sig.Symbol, sig.Interval, string(sig.Kind), sig.TS.Unix(), sig.Price, sig.Confidence, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("sqlite insert signal: %w", err)
	}
	return nil
}

// Recent returns up to limit most recently emitted signals, newest first.
func (j *Journal) Recent(limit int) ([]model.Signal, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.Query(`
		SELECT asset, symbol, interval, kind, ts, price, confidence
		FROM rpd_signals ORDER BY sent_at DESC, ts DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite query signals: %w", err)
	}
	defer rows.Close()

	var out []model.Signal
	for rows.Next() {
		var sig model.Signal
		var kind string
		var ts int64
		if err := rows.Scan(&sig.Asset, &sig.Symbol, &sig.Interval, &kind, &ts, &sig.Price, &sig.Confidence); err != nil {
			return nil, fmt.Errorf("sqlite scan signal: %w", err)
		}
		sig.Kind = model.SignalKind(kind)
		sig.TS = time.Unix(ts, 0).UTC()
		out = append(out, sig)
	}
	return out, rows.Err()
}

// LastAnchor returns the last journaled anchor timestamp for an asset.
// Returns zero time if none exists. Informational only, the dedup gate does
// not read it.
func (j *Journal) LastAnchor(asset string) (time.Time, error) {
	var ts sql.NullInt64
	err := j.db.QueryRow(
		`SELECT MAX(ts) FROM rpd_signals WHERE asset = ?`, asset,
	).Scan(&ts)
	if err != nil {
		return time.Time{}, err
	}
	if !ts.Valid {
		return time.Time{}, nil
	}
	return time.Unix(ts.Int64, 0).UTC(), nil
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}
