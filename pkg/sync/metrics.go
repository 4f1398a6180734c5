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
	gosync "sync"
	"time"
)

// Metrics collects counters for the sync loop. The admin API exposes a
// snapshot of them.
type Metrics interface {
	RecordCycleStart(at time.Time)
	RecordCycleAborted()
	RecordCycleComplete(duration time.Duration)
	RecordDeviceSkipped(storeCode string)
	RecordDeviceSuccess(storeCode string)
	RecordDeviceFailure(storeCode string)

	GetMetrics() map[string]interface{}
}

// NoOpMetrics discards everything.
type NoOpMetrics struct{}

func (*NoOpMetrics) RecordCycleStart(time.Time)             {}
func (*NoOpMetrics) RecordCycleAborted()                    {}
func (*NoOpMetrics) RecordCycleComplete(time.Duration)      {}
func (*NoOpMetrics) RecordDeviceSkipped(string)             {}
func (*NoOpMetrics) RecordDeviceSuccess(string)             {}
func (*NoOpMetrics) RecordDeviceFailure(string)             {}
func (*NoOpMetrics) GetMetrics() map[string]interface{}     { return map[string]interface{}{} }

// InMemoryMetrics keeps counters in memory, guarded by a mutex.
type InMemoryMetrics struct {
	mu gosync.RWMutex

	cyclesStarted   int
	cyclesAborted   int
	cyclesCompleted int
	lastCycleStart  time.Time
	lastCycleTook   time.Duration

	devicesSkipped map[string]int
	devicesSuccess map[string]int
	devicesFailed  map[string]int
}

// NewInMemoryMetrics creates an empty metrics collector.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		devicesSkipped: make(map[string]int),
		devicesSuccess: make(map[string]int),
		devicesFailed:  make(map[string]int),
	}
}

func (m *InMemoryMetrics) RecordCycleStart(at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cyclesStarted++
	m.lastCycleStart = at
}

func (m *InMemoryMetrics) RecordCycleAborted() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cyclesAborted++
}

func (m *InMemoryMetrics) RecordCycleComplete(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cyclesCompleted++
	m.lastCycleTook = duration
}

func (m *InMemoryMetrics) RecordDeviceSkipped(storeCode string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.devicesSkipped[storeCode]++
}

func (m *InMemoryMetrics) RecordDeviceSuccess(storeCode string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.devicesSuccess[storeCode]++
}

func (m *InMemoryMetrics) RecordDeviceFailure(storeCode string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.devicesFailed[storeCode]++
}

// GetMetrics returns a copy of the counters for the status endpoint.
func (m *InMemoryMetrics) GetMetrics() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	skipped := make(map[string]int, len(m.devicesSkipped))
	for k, v := range m.devicesSkipped {
		skipped[k] = v
	}

	success := make(map[string]int, len(m.devicesSuccess))
	for k, v := range m.devicesSuccess {
		success[k] = v
	}

	failed := make(map[string]int, len(m.devicesFailed))
	for k, v := range m.devicesFailed {
		failed[k] = v
	}

	return map[string]interface{}{
		"cycles_started":    m.cyclesStarted,
		"cycles_aborted":    m.cyclesAborted,
		"cycles_completed":  m.cyclesCompleted,
		"last_cycle_start":  m.lastCycleStart,
		"last_cycle_ms":     m.lastCycleTook.Milliseconds(),
		"devices_skipped":   skipped,
		"devices_succeeded": success,
		"devices_failed":    failed,
	}
}
