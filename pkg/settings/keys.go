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

package settings

// Setting keys. The colon hierarchy is shared with the settings table and
// the admin UI; keys containing "Password" are stored encrypted.
const (
	KeyPronetAPIURL   = "ApiUrls:Pronet"
	KeyNebimAPIURL    = "ApiUrls:Nebim"
	KeyPronetUserName = "Credentials:Pronet:UserName"
	KeyPronetPassword = "Credentials:Pronet:Password"

	// KeySchedulerFrequency holds the sync interval in minutes. Re-read
	// before every cycle so it can be changed without a restart.
	KeySchedulerFrequency = "Scheduler:FrequencyMinutes"
)
