package db

import (
	"database/sql"
	"fmt"
	"time"
)

func recordEvent(tx *sql.Tx, deviceID int64, scanID, eventType, oldState, newState, path string, at time.Time) error {
	_, err := tx.Exec(`
		INSERT INTO device_events (device_id, scan_id, event_type, old_state, new_state, path, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, deviceID, scanID, eventType, nullString(oldState), nullString(newState), nullString(path), at)
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}
	return nil
}

const eventColumns = `
	e.id, e.device_id, d.device_key, e.scan_id, e.event_type,
	e.old_state, e.new_state, e.path, e.timestamp`

// GetRecentEvents returns the most recent events across all devices
func (d *DB) GetRecentEvents(limit int) ([]*DeviceEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := d.conn.Query(`SELECT`+eventColumns+`
		FROM device_events e JOIN devices d ON d.id = e.device_id
		ORDER BY e.timestamp DESC, e.id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// GetDeviceEvents returns the events of one device, newest first
func (d *DB) GetDeviceEvents(key string, limit int) ([]*DeviceEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := d.conn.Query(`SELECT`+eventColumns+`
		FROM device_events e JOIN devices d ON d.id = e.device_id
		WHERE d.device_key = ?
		ORDER BY e.timestamp DESC, e.id DESC
		LIMIT ?
	`, key, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query device events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]*DeviceEvent, error) {
	var events []*DeviceEvent
	for rows.Next() {
		var event DeviceEvent
		var oldState, newState, path sql.NullString

		err := rows.Scan(
			&event.ID, &event.DeviceID, &event.DeviceKey, &event.ScanID, &event.EventType,
			&oldState, &newState, &path, &event.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}

		event.OldState = oldState.String
		event.NewState = newState.String
		event.Path = path.String

		events = append(events, &event)
	}

	return events, rows.Err()
}
