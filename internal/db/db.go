package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultPath is the default database location
const DefaultPath = "/var/lib/usbstatus/inventory.db"

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
	path string
}

// New opens or creates the SQLite database at the given path
func New(path string) (*DB, error) {
	if path == "" {
		path = DefaultPath
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// pragmas are per connection
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	db := &DB{conn: conn, path: path}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.conn.Close()
}

// Path returns the database file path
func (d *DB) Path() string {
	return d.path
}

func (d *DB) migrate() error {
	_, err := d.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return err
	}

	var version int
	err = d.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return err
	}

	migrations := []string{
		migrationV1,
	}

	for i, migration := range migrations {
		v := i + 1
		if v <= version {
			continue
		}

		tx, err := d.conn.Begin()
		if err != nil {
			return err
		}

		if _, err := tx.Exec(migration); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration v%d failed: %w", v, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", v); err != nil {
			tx.Rollback()
			return err
		}

		if err := tx.Commit(); err != nil {
			return err
		}
	}

	return nil
}

const migrationV1 = `
-- One row per status scan that was recorded
CREATE TABLE IF NOT EXISTS scans (
    id TEXT PRIMARY KEY,
    started_at TIMESTAMP NOT NULL,
    device_count INTEGER NOT NULL,
    full_text TEXT
);

CREATE INDEX IF NOT EXISTS idx_scans_time ON scans(started_at);

-- Every removable device ever displayed, keyed by filesystem UUID or path
CREATE TABLE IF NOT EXISTS devices (
    id INTEGER PRIMARY KEY,
    device_key TEXT UNIQUE NOT NULL,
    path TEXT NOT NULL,
    kernel_name TEXT,
    parent_kernel_name TEXT,
    kind TEXT NOT NULL,
    state TEXT NOT NULL,
    fs_type TEXT,
    label TEXT,
    mount_point TEXT,
    first_seen TIMESTAMP NOT NULL,
    last_seen TIMESTAMP NOT NULL,
    present INTEGER NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_devices_present ON devices(present);

CREATE TABLE IF NOT EXISTS device_events (
    id INTEGER PRIMARY KEY,
    device_id INTEGER NOT NULL REFERENCES devices(id),
    scan_id TEXT NOT NULL REFERENCES scans(id),
    event_type TEXT NOT NULL,
    old_state TEXT,
    new_state TEXT,
    path TEXT,
    timestamp TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_device ON device_events(device_id);
CREATE INDEX IF NOT EXISTS idx_events_time ON device_events(timestamp);
`

// ScanRecord is one recorded scan
type ScanRecord struct {
	ID          string
	StartedAt   time.Time
	DeviceCount int
	FullText    string
}

// DeviceRecord is the last known state of a device
type DeviceRecord struct {
	ID               int64
	Key              string
	Path             string
	KernelName       string
	ParentKernelName string
	Kind             string
	State            string
	FSType           string
	Label            string
	MountPoint       string
	FirstSeen        time.Time
	LastSeen         time.Time
	Present          bool
}

// DeviceEvent is a change observed between two scans
type DeviceEvent struct {
	ID        int64
	DeviceID  int64
	DeviceKey string
	ScanID    string
	EventType string
	OldState  string
	NewState  string
	Path      string
	Timestamp time.Time
}

// Event types
const (
	EventDiscovered   = "discovered"
	EventReconnected  = "reconnected"
	EventStateChanged = "state_changed"
	EventRemoved      = "removed"
)
