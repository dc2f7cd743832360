// Package runlog records every post a bot makes and answers the one
// question that keeps the bots idempotent: has this (location, series)
// pair already been posted for this data date?
package runlog

import (
	"database/sql"
	"fmt"
	"math"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const dateLayout = "2006-01-02"

// DB wraps the log database connection.
type DB struct {
	*sql.DB
}

// Open opens (and if necessary creates) the log database at path.
// Use ":memory:" for tests.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping log database: %w", err)
	}
	if err := initSchema(db); err != nil {
		return nil, err
	}
	return &DB{db}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS tweet_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			location TEXT NOT NULL,
			series TEXT NOT NULL,
			data_date TEXT NOT NULL,
			status TEXT,
			plot_path TEXT,
			quality_score REAL,
			posted_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_tweet_log_key
			ON tweet_log (location, series, data_date);
	`)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Record is one posted tweet's metadata.
type Record struct {
	Location string
	Series   string
	DataDate time.Time
	Status   string
	PlotPath string
	Score    float64
}

// Append adds a record for a post that was just made. It is a single
// insert: a failed run never leaves a partial log behind.
func (d *DB) Append(rec Record) error {
	_, err := d.Exec(
		`INSERT INTO tweet_log (location, series, data_date, status, plot_path, quality_score, posted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Location, rec.Series, rec.DataDate.Format(dateLayout),
		rec.Status, rec.PlotPath, rec.Score,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to append log record: %w", err)
	}
	return nil
}

// LastPosted returns the newest data date already posted for a
// (location, series) pair. ok is false when nothing has been posted yet.
func (d *DB) LastPosted(location, series string) (last time.Time, ok bool, err error) {
	var s sql.NullString
	err = d.QueryRow(
		`SELECT MAX(data_date) FROM tweet_log WHERE location = ? AND series = ?`,
		location, series,
	).Scan(&s)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to read watermark: %w", err)
	}
	if !s.Valid || s.String == "" {
		return time.Time{}, false, nil
	}
	last, err = time.Parse(dateLayout, s.String)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("bad stored date %q: %w", s.String, err)
	}
	return last, true, nil
}

// ShouldPost reports whether a post for (location, series) with the given
// newest data date and value may go out. Posting requires the date to be
// strictly newer than the watermark and the value to be valid and
// non-negative.
func (d *DB) ShouldPost(location, series string, newest time.Time, newestValue float64) (bool, error) {
	if math.IsNaN(newestValue) || newestValue < 0 {
		return false, nil
	}
	last, ok, err := d.LastPosted(location, series)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	return newest.After(last), nil
}
