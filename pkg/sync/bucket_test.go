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

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreviousHourBucket(t *testing.T) {
	now := time.Date(2024, 1, 1, 14, 37, 0, 0, time.UTC)

	start, end := previousHourBucket(now)

	assert.Equal(t, time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 1, 1, 13, 59, 59, 0, time.UTC), end)
}

func TestPreviousHourBucketMidnight(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 12, 0, 0, time.UTC)

	start, end := previousHourBucket(now)

	assert.Equal(t, time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC), end)
}

func TestPreviousHourBucketHalfHourZone(t *testing.T) {
	// In a UTC+5:45 zone a UTC-based truncation would land mid-hour.
	zone := time.FixedZone("NPT", 5*3600+45*60)
	now := time.Date(2024, 6, 15, 9, 5, 30, 0, zone)

	start, end := previousHourBucket(now)

	require.Equal(t, time.Date(2024, 6, 15, 8, 0, 0, 0, zone), start)
	require.Equal(t, time.Date(2024, 6, 15, 8, 59, 59, 0, zone), end)
}
