/*
 * Copyright 2025 ilvi Software.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ilvi/link/pkg/models"
)

const (
	selectDevicesSQL = `
SELECT id, active, office_code, store_code, sink_store_code, mac_address,
       opening_time, closing_time, created_at, updated_at
FROM devices
ORDER BY store_code`

	selectActiveDevicesSQL = `
SELECT id, active, office_code, store_code, sink_store_code, mac_address,
       opening_time, closing_time, created_at, updated_at
FROM devices
WHERE active
ORDER BY store_code`

	selectDeviceSQL = `
SELECT id, active, office_code, store_code, sink_store_code, mac_address,
       opening_time, closing_time, created_at, updated_at
FROM devices
WHERE id = $1`

	insertDeviceSQL = `
INSERT INTO devices (
	active,
	office_code,
	store_code,
	sink_store_code,
	mac_address,
	opening_time,
	closing_time
) VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING id, created_at, updated_at`

	updateDeviceSQL = `
UPDATE devices SET
	active          = $2,
	office_code     = $3,
	store_code      = $4,
	sink_store_code = $5,
	mac_address     = $6,
	opening_time    = $7,
	closing_time    = $8,
	updated_at      = now()
WHERE id = $1
RETURNING updated_at`

	deleteDeviceSQL = `DELETE FROM devices WHERE id = $1`
)

// ListDevices returns every configured device.
func (s *Store) ListDevices(ctx context.Context) ([]models.Device, error) {
	return s.queryDevices(ctx, selectDevicesSQL)
}

// ListActiveDevices returns the devices eligible for synchronization.
// The result is a read-only snapshot for one cycle.
func (s *Store) ListActiveDevices(ctx context.Context) ([]models.Device, error) {
	return s.queryDevices(ctx, selectActiveDevicesSQL)
}

func (s *Store) queryDevices(ctx context.Context, query string) ([]models.Device, error) {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db: query devices: %w", err)
	}
	defer rows.Close()

	var devices []models.Device

	for rows.Next() {
		var d models.Device

		if err := rows.Scan(
			&d.ID, &d.Active, &d.OfficeCode, &d.StoreCode, &d.SinkStoreCode,
			&d.MACAddress, &d.OpeningTime, &d.ClosingTime, &d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("db: scan device: %w", err)
		}

		devices = append(devices, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db: iterate devices: %w", err)
	}

	return devices, nil
}

// GetDevice fetches a single device; ErrNotFound when the id is unknown.
func (s *Store) GetDevice(ctx context.Context, id int64) (*models.Device, error) {
	var d models.Device

	err := s.pool.QueryRow(ctx, selectDeviceSQL, id).Scan(
		&d.ID, &d.Active, &d.OfficeCode, &d.StoreCode, &d.SinkStoreCode,
		&d.MACAddress, &d.OpeningTime, &d.ClosingTime, &d.CreatedAt, &d.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("db: get device %d: %w", id, err)
	}

	return &d, nil
}

// CreateDevice inserts the device and fills in its generated fields.
func (s *Store) CreateDevice(ctx context.Context, device *models.Device) error {
	err := s.pool.QueryRow(ctx, insertDeviceSQL,
		device.Active, device.OfficeCode, device.StoreCode, device.SinkStoreCode,
		device.MACAddress, device.OpeningTime, device.ClosingTime,
	).Scan(&device.ID, &device.CreatedAt, &device.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db: create device: %w", err)
	}

	return nil
}

// UpdateDevice rewrites the editable fields of an existing device.
func (s *Store) UpdateDevice(ctx context.Context, device *models.Device) error {
	err := s.pool.QueryRow(ctx, updateDeviceSQL,
		device.ID, device.Active, device.OfficeCode, device.StoreCode,
		device.SinkStoreCode, device.MACAddress, device.OpeningTime, device.ClosingTime,
	).Scan(&device.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	if err != nil {
		return fmt.Errorf("db: update device %d: %w", device.ID, err)
	}

	return nil
}

// DeleteDevice removes a device; ErrNotFound when nothing was deleted.
func (s *Store) DeleteDevice(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, deleteDeviceSQL, id)
	if err != nil {
		return fmt.Errorf("db: delete device %d: %w", id, err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
