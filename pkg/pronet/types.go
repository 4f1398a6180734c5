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

package pronet

// statisticsRequest is the JSON body the Pronet statistics endpoint
// expects. Field names are part of the wire contract.
type statisticsRequest struct {
	UserName   string `json:"userName"`
	PassWord   string `json:"passWord"`
	StartTime  string `json:"startTime"` // "yyyy-MM-dd HH:mm:ss"
	EndTime    string `json:"endTime"`
	Interval   string `json:"interval"` // "0" = hourly
	StoreCode  string `json:"storeCode,omitempty"`
	MACAddress string `json:"macAddress,omitempty"`
}

type responseEnvelope struct {
	Result *responseResult `json:"Result"`
}

type responseResult struct {
	ResponseText string        `json:"ResponseText"`
	ResponseCode string        `json:"ResponseCode"`
	Data         *responseData `json:"Data"`
}

type responseData struct {
	StoreStatistics []StoreStatistic `json:"StoreStatistics"`
}

// StoreStatistic is one aggregated visitor count line. Pronet also
// reports exit counts but only the enter count feeds Nebim.
type StoreStatistic struct {
	StoreCode       string `json:"StoreCode"`
	TotalEnterCount int    `json:"TotalEnterCount"`
}

// Statistics is the usable part of a Pronet answer for one device and
// one time bucket.
type Statistics struct {
	StoreStatistics []StoreStatistic
}

// Empty reports whether the answer carries no usable lines.
func (s *Statistics) Empty() bool {
	return s == nil || len(s.StoreStatistics) == 0
}
