package db

import (
	"database/sql"
	"fmt"
)

const deviceColumns = `
	id, device_key, path, kernel_name, parent_kernel_name, kind, state,
	fs_type, label, mount_point, first_seen, last_seen, present`

// GetAllDevices returns every device ever recorded, most recently seen first
func (d *DB) GetAllDevices() ([]*DeviceRecord, error) {
	rows, err := d.conn.Query(`SELECT` + deviceColumns + `
		FROM devices
		ORDER BY last_seen DESC, device_key
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query devices: %w", err)
	}
	defer rows.Close()

	return scanDevices(rows)
}

// GetPresentDevices returns the devices seen in the latest recorded scan
func (d *DB) GetPresentDevices() ([]*DeviceRecord, error) {
	rows, err := d.conn.Query(`SELECT` + deviceColumns + `
		FROM devices
		WHERE present = 1
		ORDER BY path
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query present devices: %w", err)
	}
	defer rows.Close()

	return scanDevices(rows)
}

// GetDeviceByKey returns a device by its key, or nil when unknown
func (d *DB) GetDeviceByKey(key string) (*DeviceRecord, error) {
	rows, err := d.conn.Query(`SELECT`+deviceColumns+`
		FROM devices WHERE device_key = ?
	`, key)
	if err != nil {
		return nil, fmt.Errorf("failed to query device: %w", err)
	}
	defer rows.Close()

	devices, err := scanDevices(rows)
	if err != nil || len(devices) == 0 {
		return nil, err
	}
	return devices[0], nil
}

func scanDevices(rows *sql.Rows) ([]*DeviceRecord, error) {
	var devices []*DeviceRecord
	for rows.Next() {
		var rec DeviceRecord
		var kernelName, parent, fsType, label, mountPoint sql.NullString

		err := rows.Scan(
			&rec.ID, &rec.Key, &rec.Path, &kernelName, &parent, &rec.Kind, &rec.State,
			&fsType, &label, &mountPoint, &rec.FirstSeen, &rec.LastSeen, &rec.Present,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}

		rec.KernelName = kernelName.String
		rec.ParentKernelName = parent.String
		rec.FSType = fsType.String
		rec.Label = label.String
		rec.MountPoint = mountPoint.String

		devices = append(devices, &rec)
	}

	return devices, rows.Err()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
