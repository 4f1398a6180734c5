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

package sync

import "time"

// previousHourBucket returns the query window for one cycle: the last
// fully elapsed wall-clock hour, [floor(now,1h)-1h, floor(now,1h)-1s].
// The floor is computed in now's location; Truncate would floor in UTC
// and drift in zones with a non-whole-hour offset.
func previousHourBucket(now time.Time) (start, end time.Time) {
	hour := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, now.Location())

	start = hour.Add(-time.Hour)
	end = hour.Add(-time.Second)

	return start, end
}
