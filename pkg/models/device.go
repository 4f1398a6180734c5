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

// Package models holds the shared data model for the link service.
package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidTimeOfDay indicates an operating-window value that is not "HH:MM".
var ErrInvalidTimeOfDay = errors.New("invalid time of day, expected HH:MM")

// Device is one managed people-counting device bound to a store.
// OfficeCode and StoreCode are the stable keys into both the Pronet and
// Nebim sides; SinkStoreCode overrides the Nebim store code for the rare
// installations where the two systems disagree.
type Device struct {
	ID            int64     `json:"id"`
	Active        bool      `json:"active"`
	OfficeCode    string    `json:"office_code"`
	StoreCode     string    `json:"store_code"`
	SinkStoreCode string    `json:"sink_store_code,omitempty"`
	MACAddress    string    `json:"mac_address,omitempty"`
	OpeningTime   string    `json:"opening_time"` // "HH:MM"
	ClosingTime   string    `json:"closing_time"` // "HH:MM"
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// SinkCode returns the store code used on the Nebim side.
func (d *Device) SinkCode() string {
	if d.SinkStoreCode != "" {
		return d.SinkStoreCode
	}

	return d.StoreCode
}

// Validate checks the fields required before a device can be scheduled.
func (d *Device) Validate() error {
	if d.OfficeCode == "" || d.StoreCode == "" {
		return errMissingDeviceCodes
	}

	if _, err := parseTimeOfDay(d.OpeningTime); err != nil {
		return fmt.Errorf("opening_time: %w", err)
	}

	if _, err := parseTimeOfDay(d.ClosingTime); err != nil {
		return fmt.Errorf("closing_time: %w", err)
	}

	return nil
}

// InOperatingWindow reports whether t falls inside the device's daily
// operating window. The range is inclusive on both ends.
func (d *Device) InOperatingWindow(t time.Time) (bool, error) {
	open, err := parseTimeOfDay(d.OpeningTime)
	if err != nil {
		return false, fmt.Errorf("opening_time: %w", err)
	}

	closing, err := parseTimeOfDay(d.ClosingTime)
	if err != nil {
		return false, fmt.Errorf("closing_time: %w", err)
	}

	now := t.Hour()*3600 + t.Minute()*60 + t.Second()

	return now >= open && now <= closing, nil
}

var errMissingDeviceCodes = errors.New("device requires office_code and store_code")

// parseTimeOfDay converts "HH:MM" to seconds since midnight.
func parseTimeOfDay(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}

	return hour*3600 + minute*60, nil
}
