package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned by Get when no blob is stored under the key.
	ErrNotFound = errors.New("key not found")
	// ErrReadOnly is returned by writes through a handle from OpenReadOnly.
	ErrReadOnly = errors.New("database is read-only")
)

type Database struct {
	db       *sql.DB
	readOnly bool
}

type NotificationRecord struct {
	ID       int64     `json:"id"`
	Kind     string    `json:"kind"`
	RefID    string    `json:"refId"`
	Title    string    `json:"title"`
	Body     string    `json:"body"`
	Notifier string    `json:"notifier"`
	Success  bool      `json:"success"`
	SentAt   time.Time `json:"sentAt"`
}

// New opens (creating if needed) the database at dbPath.
func New(dbPath string) (*Database, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL lets the widget process read while the app writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	d := &Database{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Infof("Database initialized at %s", dbPath)
	return d, nil
}

// OpenReadOnly opens an existing database for a reader process. Writes fail.
func OpenReadOnly(dbPath string) (*Database, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", dbPath, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA query_only=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set query_only: %w", err)
	}
	db.SetMaxOpenConns(1)

	log.Debugf("Database opened read-only at %s", dbPath)
	return &Database{db: db, readOnly: true}, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS blobs (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS notification_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			kind TEXT NOT NULL,
			ref_id TEXT NOT NULL DEFAULT '',
			title TEXT NOT NULL,
			body TEXT NOT NULL DEFAULT '',
			notifier TEXT NOT NULL DEFAULT '',
			success INTEGER NOT NULL DEFAULT 1,
			sent_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notification_history_sent_at ON notification_history(sent_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_notification_history_ref ON notification_history(kind, ref_id)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}

	return nil
}

// Put replaces the blob stored under key in a single statement, so a reader
// sees either the previous value or the new one.
func (d *Database) Put(key string, value []byte) error {
	if d.readOnly {
		return fmt.Errorf("put %s: %w", key, ErrReadOnly)
	}
	_, err := d.db.Exec(
		`INSERT INTO blobs (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to put %s: %w", key, err)
	}
	return nil
}

func (d *Database) Get(key string) ([]byte, error) {
	var value []byte
	err := d.db.QueryRow(`SELECT value FROM blobs WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, nil
}

// UpdatedAt returns when key was last written.
func (d *Database) UpdatedAt(key string) (time.Time, error) {
	var updatedAt string
	err := d.db.QueryRow(`SELECT updated_at FROM blobs WHERE key = ?`, key).Scan(&updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get %s timestamp: %w", key, err)
	}
	return parseTimestamp(updatedAt), nil
}

// RecordNotification appends a dispatched notification to the history.
func (d *Database) RecordNotification(r NotificationRecord) error {
	if d.readOnly {
		return fmt.Errorf("record notification: %w", ErrReadOnly)
	}
	sentAt := r.SentAt
	if sentAt.IsZero() {
		sentAt = time.Now()
	}
	success := 0
	if r.Success {
		success = 1
	}
	_, err := d.db.Exec(
		`INSERT INTO notification_history (kind, ref_id, title, body, notifier, success, sent_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.Kind, r.RefID, r.Title, r.Body, r.Notifier, success, sentAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to record notification: %w", err)
	}
	return nil
}

// GetNotificationHistory returns the most recent notifications, newest first.
func (d *Database) GetNotificationHistory(limit int) ([]NotificationRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := d.db.Query(
		`SELECT id, kind, ref_id, title, body, notifier, success, sent_at
		 FROM notification_history
		 ORDER BY sent_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query notification history: %w", err)
	}
	defer rows.Close()

	var records []NotificationRecord
	for rows.Next() {
		var r NotificationRecord
		var success int
		var sentAt string
		if err := rows.Scan(&r.ID, &r.Kind, &r.RefID, &r.Title, &r.Body, &r.Notifier, &success, &sentAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification row: %w", err)
		}
		r.Success = success == 1
		r.SentAt = parseTimestamp(sentAt)
		records = append(records, r)
	}
	return records, rows.Err()
}

func parseTimestamp(s string) time.Time {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t
		}
	}
	log.Warnf("failed to parse timestamp '%s' with all known formats", s)
	return time.Time{}
}
