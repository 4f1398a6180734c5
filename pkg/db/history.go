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
	"fmt"

	"github.com/ilvi/link/pkg/models"
)

const (
	insertSyncHistorySQL = `
INSERT INTO sync_history (
	run_time,
	device_store_code,
	status,
	message
) VALUES ($1,$2,$3,$4)
RETURNING id`

	selectSyncHistorySQL = `
SELECT id, run_time, device_store_code, status, message
FROM sync_history
ORDER BY run_time DESC
LIMIT $1`

	selectLatestSyncByStoreSQL = `
SELECT DISTINCT ON (device_store_code)
       id, run_time, device_store_code, status, message
FROM sync_history
ORDER BY device_store_code, run_time DESC`
)

// InsertSyncHistory appends one outcome row.
func (s *Store) InsertSyncHistory(ctx context.Context, entry *models.SyncHistory) error {
	err := s.pool.QueryRow(ctx, insertSyncHistorySQL,
		entry.RunTime, entry.DeviceStoreCode, entry.Status, entry.Message,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("db: insert sync history: %w", err)
	}

	return nil
}

// ListSyncHistory returns the most recent outcome rows, newest first.
func (s *Store) ListSyncHistory(ctx context.Context, limit int) ([]models.SyncHistory, error) {
	rows, err := s.pool.Query(ctx, selectSyncHistorySQL, limit)
	if err != nil {
		return nil, fmt.Errorf("db: list sync history: %w", err)
	}
	defer rows.Close()

	return scanHistory(rows)
}

// LatestSyncByStore returns the newest outcome row per store for the
// dashboard.
func (s *Store) LatestSyncByStore(ctx context.Context) ([]models.SyncHistory, error) {
	rows, err := s.pool.Query(ctx, selectLatestSyncByStoreSQL)
	if err != nil {
		return nil, fmt.Errorf("db: latest sync by store: %w", err)
	}
	defer rows.Close()

	return scanHistory(rows)
}

type pgxRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanHistory(rows pgxRows) ([]models.SyncHistory, error) {
	var entries []models.SyncHistory

	for rows.Next() {
		var h models.SyncHistory

		if err := rows.Scan(&h.ID, &h.RunTime, &h.DeviceStoreCode, &h.Status, &h.Message); err != nil {
			return nil, fmt.Errorf("db: scan sync history: %w", err)
		}

		entries = append(entries, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db: iterate sync history: %w", err)
	}

	return entries, nil
}
