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

package models

import "time"

// History status values. The Turkish literals are part of the dashboard
// contract and must not be translated.
const (
	SyncStatusSuccess = "Başarılı"
	SyncStatusFailure = "Hata"
)

// SyncHistory is one append-only outcome row: one device, one cycle.
// The service only ever writes these; the dashboard reads them.
type SyncHistory struct {
	ID              int64     `json:"id"`
	RunTime         time.Time `json:"run_time"`
	DeviceStoreCode string    `json:"device_store_code"`
	Status          string    `json:"status"`
	Message         string    `json:"message"`
}
