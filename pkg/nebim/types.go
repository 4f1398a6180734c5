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

package nebim

import "time"

// Model types understood by the integrator service. 0 opens a session,
// 11 carries a store-traffic (in/out) document.
const (
	modelTypeConnect = 0
	modelTypeInOut   = 11
)

type connectRequest struct {
	ModelType int `json:"ModelType"`
}

type connectResponse struct {
	SessionID   string `json:"SessionID"`
	IsSucceeded bool   `json:"IsSucceeded"`
}

type postResponse struct {
	IsSucceeded  bool   `json:"IsSucceeded"`
	ErrorMessage string `json:"ErrorMessage"`
}

// RecordHeader identifies the store and the hour bucket a traffic
// document belongs to. DocDate/DocTime are formatted from the bucket
// start ("20060102" / "150405").
type RecordHeader struct {
	ModelType     int    `json:"ModelType"`
	Description   string `json:"Description"`
	OfficeCode    string `json:"OfficeCode"`
	StoreCode     string `json:"StoreCode"`
	WarehouseCode string `json:"WarehouseCode"`
	DocDate       string `json:"DocDate"`
	DocTime       string `json:"DocTime"`
}

// RecordLine carries one visitor count. Outgoing counts are not
// tracked; the line always reports zero.
type RecordLine struct {
	InComingQty     int    `json:"InComingQty"`
	OutGoingQty     int    `json:"OutGoingQty"`
	LineDescription string `json:"LineDescription"`
}

// SinkRecord is one store-traffic document posted to the integrator
// service.
type SinkRecord struct {
	Header RecordHeader `json:"Header"`
	Lines  []RecordLine `json:"Lines"`
}

const (
	docDateFormat = "20060102"
	docTimeFormat = "150405"

	recordDescription = "INOUT"
	lineDescription   = "Giren-Çıkan Adet"
)

// NewSinkRecord builds the traffic document for one store and one hour
// bucket. The warehouse code mirrors the store code; Nebim requires
// both.
func NewSinkRecord(officeCode, storeCode string, bucketStart time.Time, enterCount int) *SinkRecord {
	return &SinkRecord{
		Header: RecordHeader{
			ModelType:     modelTypeInOut,
			Description:   recordDescription,
			OfficeCode:    officeCode,
			StoreCode:     storeCode,
			WarehouseCode: storeCode,
			DocDate:       bucketStart.Format(docDateFormat),
			DocTime:       bucketStart.Format(docTimeFormat),
		},
		Lines: []RecordLine{
			{
				InComingQty:     enterCount,
				OutGoingQty:     0,
				LineDescription: lineDescription,
			},
		},
	}
}
