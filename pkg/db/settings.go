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
)

const (
	selectSettingSQL  = `SELECT value FROM settings WHERE key = $1`
	selectSettingsSQL = `SELECT key, value FROM settings ORDER BY key`

	upsertSettingSQL = `
INSERT INTO settings (key, value) VALUES ($1, $2)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`
)

// GetSetting returns the stored value for key. The second return value
// reports whether the key exists; an absent key is not an error.
func (s *Store) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var value string

	err := s.pool.QueryRow(ctx, selectSettingSQL, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}

	if err != nil {
		return "", false, fmt.Errorf("db: get setting %q: %w", key, err)
	}

	return value, true, nil
}

// ListSettings returns all settings as stored, secrets included in their
// encrypted form.
func (s *Store) ListSettings(ctx context.Context) (map[string]string, error) {
	rows, err := s.pool.Query(ctx, selectSettingsSQL)
	if err != nil {
		return nil, fmt.Errorf("db: list settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string)

	for rows.Next() {
		var key, value string

		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("db: scan setting: %w", err)
		}

		settings[key] = value
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db: iterate settings: %w", err)
	}

	return settings, nil
}

// UpsertSettings writes the given key/value pairs in one transaction.
func (s *Store) UpsertSettings(ctx context.Context, settings map[string]string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("db: begin settings tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for key, value := range settings {
		if _, err := tx.Exec(ctx, upsertSettingSQL, key, value); err != nil {
			return fmt.Errorf("db: upsert setting %q: %w", key, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("db: commit settings tx: %w", err)
	}

	return nil
}
