package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yang-ling/i3pystatus/internal/device"
)

// DeviceKey identifies a device across scans: the filesystem UUID when it
// has one, its path otherwise.
func DeviceKey(d device.Device) string {
	if d.FSUUID != "" {
		return d.FSUUID
	}
	return d.Path
}

// RecordScan stores one scan and reconciles the device inventory with it.
// Devices seen for the first time produce a discovered event, devices
// whose state changed a state_changed event, and devices that were present
// before but are missing from this scan a removed event.
func (d *DB) RecordScan(startedAt time.Time, fullText string, devices []device.Device) (*ScanRecord, error) {
	startedAt = startedAt.UTC()
	scan := &ScanRecord{
		ID:          uuid.NewString(),
		StartedAt:   startedAt,
		DeviceCount: len(devices),
		FullText:    fullText,
	}

	tx, err := d.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin scan: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO scans (id, started_at, device_count, full_text)
		VALUES (?, ?, ?, ?)
	`, scan.ID, startedAt, scan.DeviceCount, fullText)
	if err != nil {
		return nil, fmt.Errorf("failed to record scan: %w", err)
	}

	seen := make(map[string]bool, len(devices))
	for _, dev := range devices {
		key := DeviceKey(dev)
		if seen[key] {
			continue
		}
		seen[key] = true

		if err := upsertDevice(tx, scan.ID, key, dev, startedAt); err != nil {
			return nil, err
		}
	}

	if err := markRemoved(tx, scan.ID, seen, startedAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit scan: %w", err)
	}

	return scan, nil
}

func upsertDevice(tx *sql.Tx, scanID, key string, dev device.Device, now time.Time) error {
	var (
		id       int64
		oldState string
		present  bool
	)
	err := tx.QueryRow("SELECT id, state, present FROM devices WHERE device_key = ?", key).
		Scan(&id, &oldState, &present)

	newState := dev.State.String()

	switch {
	case err == sql.ErrNoRows:
		result, err := tx.Exec(`
			INSERT INTO devices (
				device_key, path, kernel_name, parent_kernel_name, kind, state,
				fs_type, label, mount_point, first_seen, last_seen, present
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
		`,
			key, dev.Path, nullString(dev.KernelName), nullString(dev.ParentKernelName),
			dev.Kind.String(), newState, nullString(dev.FSType), nullString(dev.Label),
			nullString(dev.MountPoint), now, now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert device %s: %w", key, err)
		}
		id, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to insert device %s: %w", key, err)
		}
		return recordEvent(tx, id, scanID, EventDiscovered, "", newState, dev.Path, now)

	case err != nil:
		return fmt.Errorf("failed to look up device %s: %w", key, err)
	}

	_, err = tx.Exec(`
		UPDATE devices SET
			path = ?, kernel_name = ?, parent_kernel_name = ?, kind = ?, state = ?,
			fs_type = ?, label = ?, mount_point = ?, last_seen = ?, present = 1
		WHERE id = ?
	`,
		dev.Path, nullString(dev.KernelName), nullString(dev.ParentKernelName),
		dev.Kind.String(), newState, nullString(dev.FSType), nullString(dev.Label),
		nullString(dev.MountPoint), now, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update device %s: %w", key, err)
	}

	switch {
	case !present:
		return recordEvent(tx, id, scanID, EventReconnected, oldState, newState, dev.Path, now)
	case oldState != newState:
		return recordEvent(tx, id, scanID, EventStateChanged, oldState, newState, dev.Path, now)
	}
	return nil
}

func markRemoved(tx *sql.Tx, scanID string, seen map[string]bool, now time.Time) error {
	rows, err := tx.Query("SELECT id, device_key, state, path FROM devices WHERE present = 1")
	if err != nil {
		return fmt.Errorf("failed to query present devices: %w", err)
	}

	type gone struct {
		id          int64
		state, path string
	}
	var removed []gone
	for rows.Next() {
		var (
			g   gone
			key string
		)
		if err := rows.Scan(&g.id, &key, &g.state, &g.path); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan device: %w", err)
		}
		if !seen[key] {
			removed = append(removed, g)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, g := range removed {
		if _, err := tx.Exec("UPDATE devices SET present = 0 WHERE id = ?", g.id); err != nil {
			return fmt.Errorf("failed to mark device removed: %w", err)
		}
		if err := recordEvent(tx, g.id, scanID, EventRemoved, g.state, "", g.path, now); err != nil {
			return err
		}
	}

	return nil
}

// GetRecentScans returns the most recent scans, newest first
func (d *DB) GetRecentScans(limit int) ([]*ScanRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := d.conn.Query(`
		SELECT id, started_at, device_count, full_text
		FROM scans
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent scans: %w", err)
	}
	defer rows.Close()

	var scans []*ScanRecord
	for rows.Next() {
		var (
			scan     ScanRecord
			fullText sql.NullString
		)
		if err := rows.Scan(&scan.ID, &scan.StartedAt, &scan.DeviceCount, &fullText); err != nil {
			return nil, fmt.Errorf("failed to scan scan record: %w", err)
		}
		scan.FullText = fullText.String
		scans = append(scans, &scan)
	}

	return scans, rows.Err()
}
