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
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ilvi/link/pkg/logger"
	"github.com/ilvi/link/pkg/models"
	"github.com/ilvi/link/pkg/nebim"
	"github.com/ilvi/link/pkg/pronet"
	"github.com/ilvi/link/pkg/settings"
)

// cycleNow is 14:37; the expected bucket is [13:00:00, 13:59:59].
var cycleNow = time.Date(2024, 1, 1, 14, 37, 0, 0, time.UTC)

type stubClock struct {
	now   time.Time
	after chan time.Time
}

func (c *stubClock) Now() time.Time { return c.now }

func (c *stubClock) After(time.Duration) <-chan time.Time { return c.after }

type stubResolver map[string]string

func (r stubResolver) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := r[key]
	return v, ok, nil
}

type fixture struct {
	source  *MockSourceClient
	sink    *MockSinkClient
	devices *MockDeviceStore
	history *MockHistoryStore
	clock   *stubClock
	metrics *InMemoryMetrics
	svc     *Service
}

func newFixture(t *testing.T, resolver settings.Resolver) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)

	f := &fixture{
		source:  NewMockSourceClient(ctrl),
		sink:    NewMockSinkClient(ctrl),
		devices: NewMockDeviceStore(ctrl),
		history: NewMockHistoryStore(ctrl),
		clock:   &stubClock{now: cycleNow, after: make(chan time.Time)},
		metrics: NewInMemoryMetrics(),
	}

	if resolver == nil {
		resolver = stubResolver{}
	}

	f.svc = New(f.source, f.sink, f.devices, f.history, resolver, f.clock, f.metrics, logger.NewTestLogger())

	return f
}

func openDevice(store string) models.Device {
	return models.Device{
		Active:      true,
		OfficeCode:  "O1",
		StoreCode:   store,
		OpeningTime: "09:00",
		ClosingTime: "22:00",
	}
}

func testSession() *models.Session {
	return &models.Session{ID: "7f2cc98e-9d54-4f83-9e0f-57a3b7e0a8f1", BaseURL: "http://nebim.local/session-1"}
}

func statsFor(store string, counts ...int) *pronet.Statistics {
	s := &pronet.Statistics{}
	for _, c := range counts {
		s.StoreStatistics = append(s.StoreStatistics, pronet.StoreStatistic{StoreCode: store, TotalEnterCount: c})
	}

	return s
}

func TestCycleConnectFailureSkipsEverything(t *testing.T) {
	f := newFixture(t, nil)

	f.sink.EXPECT().Connect(gomock.Any()).Return(nil, errors.New("handshake refused"))

	// No device listing, no fetches, no history: the controller fails
	// the test on any unexpected call.
	f.svc.runCycle(context.Background())

	m := f.metrics.GetMetrics()
	assert.Equal(t, 1, m["cycles_aborted"])
}

func TestCycleInvalidSessionSkipsEverything(t *testing.T) {
	f := newFixture(t, nil)

	f.sink.EXPECT().Connect(gomock.Any()).Return(&models.Session{}, nil)

	f.svc.runCycle(context.Background())

	m := f.metrics.GetMetrics()
	assert.Equal(t, 1, m["cycles_aborted"])
}

func TestCycleSuccessWritesOneRowForManyLines(t *testing.T) {
	f := newFixture(t, nil)
	device := openDevice("M001")

	f.sink.EXPECT().Connect(gomock.Any()).Return(testSession(), nil)
	f.devices.EXPECT().ListActiveDevices(gomock.Any()).Return([]models.Device{device}, nil)

	bucketStart := time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC)
	bucketEnd := time.Date(2024, 1, 1, 13, 59, 59, 0, time.UTC)

	f.source.EXPECT().
		GetStatistics(gomock.Any(), gomock.Any(), bucketStart, bucketEnd).
		Return(statsFor("M001", 12, 7), nil)

	var posted []*nebim.SinkRecord

	f.sink.EXPECT().
		Post(gomock.Any(), testSession(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *models.Session, record *nebim.SinkRecord) error {
			posted = append(posted, record)
			return nil
		}).
		Times(2)

	var entry *models.SyncHistory

	f.history.EXPECT().
		InsertSyncHistory(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e *models.SyncHistory) error {
			entry = e
			return nil
		})

	f.svc.runCycle(context.Background())

	require.Len(t, posted, 2)
	assert.Equal(t, "20240101", posted[0].Header.DocDate)
	assert.Equal(t, "130000", posted[0].Header.DocTime)
	assert.Equal(t, 12, posted[0].Lines[0].InComingQty)
	assert.Equal(t, 7, posted[1].Lines[0].InComingQty)

	require.NotNil(t, entry)
	assert.Equal(t, models.SyncStatusSuccess, entry.Status)
	assert.Equal(t, "Veri başarıyla aktarıldı.", entry.Message)
	assert.Equal(t, "M001", entry.DeviceStoreCode)
	assert.Equal(t, cycleNow, entry.RunTime)
}

func TestCycleClosedDeviceLeavesNoTrace(t *testing.T) {
	f := newFixture(t, nil)

	device := openDevice("M001")
	device.OpeningTime = "15:00" // cycleNow is 14:37
	device.ClosingTime = "23:00"

	f.sink.EXPECT().Connect(gomock.Any()).Return(testSession(), nil)
	f.devices.EXPECT().ListActiveDevices(gomock.Any()).Return([]models.Device{device}, nil)

	f.svc.runCycle(context.Background())

	m := f.metrics.GetMetrics()
	assert.Equal(t, map[string]int{"M001": 1}, m["devices_skipped"])
}

func TestCycleWindowBoundariesAreInclusive(t *testing.T) {
	for _, boundary := range []string{"14:37", "09:00"} {
		f := newFixture(t, nil)

		device := openDevice("M001")
		device.OpeningTime = boundary
		device.ClosingTime = "14:37"

		f.sink.EXPECT().Connect(gomock.Any()).Return(testSession(), nil)
		f.devices.EXPECT().ListActiveDevices(gomock.Any()).Return([]models.Device{device}, nil)
		f.source.EXPECT().GetStatistics(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)

		f.svc.runCycle(context.Background())
	}
}

func TestCycleEmptyDataIsSilentSkip(t *testing.T) {
	for name, stats := range map[string]*pronet.Statistics{
		"absent": nil,
		"empty":  {},
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, nil)

			f.sink.EXPECT().Connect(gomock.Any()).Return(testSession(), nil)
			f.devices.EXPECT().ListActiveDevices(gomock.Any()).Return([]models.Device{openDevice("M001")}, nil)
			f.source.EXPECT().GetStatistics(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(stats, nil)

			// No posts, no history.
			f.svc.runCycle(context.Background())
		})
	}
}

func TestCyclePostFailureRecordsFailureAndContinues(t *testing.T) {
	f := newFixture(t, nil)

	first := openDevice("M001")
	second := openDevice("M002")

	f.sink.EXPECT().Connect(gomock.Any()).Return(testSession(), nil)
	f.devices.EXPECT().ListActiveDevices(gomock.Any()).Return([]models.Device{first, second}, nil)

	f.source.EXPECT().
		GetStatistics(gomock.Any(), deviceWithStore("M001"), gomock.Any(), gomock.Any()).
		Return(statsFor("M001", 5, 3), nil)
	f.source.EXPECT().
		GetStatistics(gomock.Any(), deviceWithStore("M002"), gomock.Any(), gomock.Any()).
		Return(statsFor("M002", 9), nil)

	// First line of the first device fails; its second line must not be
	// attempted.
	f.sink.EXPECT().
		Post(gomock.Any(), gomock.Any(), recordWithStore("M001")).
		Return(errors.New("nebim rejected the posted record: session expired"))
	f.sink.EXPECT().
		Post(gomock.Any(), gomock.Any(), recordWithStore("M002")).
		Return(nil)

	var entries []*models.SyncHistory

	f.history.EXPECT().
		InsertSyncHistory(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e *models.SyncHistory) error {
			entries = append(entries, e)
			return nil
		}).
		Times(2)

	f.svc.runCycle(context.Background())

	require.Len(t, entries, 2)
	assert.Equal(t, models.SyncStatusFailure, entries[0].Status)
	assert.Equal(t, "M001", entries[0].DeviceStoreCode)
	assert.NotEmpty(t, entries[0].Message)
	assert.Equal(t, models.SyncStatusSuccess, entries[1].Status)
	assert.Equal(t, "M002", entries[1].DeviceStoreCode)
}

func TestCycleUsesSinkStoreCodeOverride(t *testing.T) {
	f := newFixture(t, nil)

	device := openDevice("M001")
	device.SinkStoreCode = "N-77"

	f.sink.EXPECT().Connect(gomock.Any()).Return(testSession(), nil)
	f.devices.EXPECT().ListActiveDevices(gomock.Any()).Return([]models.Device{device}, nil)
	f.source.EXPECT().GetStatistics(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(statsFor("M001", 4), nil)

	f.sink.EXPECT().
		Post(gomock.Any(), gomock.Any(), recordWithStore("N-77")).
		Return(nil)

	f.history.EXPECT().
		InsertSyncHistory(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e *models.SyncHistory) error {
			assert.Equal(t, "N-77", e.DeviceStoreCode)
			return nil
		})

	f.svc.runCycle(context.Background())
}

func TestCycleIsNotIdempotent(t *testing.T) {
	f := newFixture(t, nil)

	f.sink.EXPECT().Connect(gomock.Any()).Return(testSession(), nil).Times(2)
	f.devices.EXPECT().ListActiveDevices(gomock.Any()).Return([]models.Device{openDevice("M001")}, nil).Times(2)
	f.source.EXPECT().GetStatistics(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(statsFor("M001", 8), nil).Times(2)
	f.sink.EXPECT().Post(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(2)

	var entries []*models.SyncHistory

	f.history.EXPECT().
		InsertSyncHistory(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e *models.SyncHistory) error {
			entries = append(entries, e)
			return nil
		}).
		Times(2)

	f.svc.runCycle(context.Background())
	f.svc.runCycle(context.Background())

	require.Len(t, entries, 2)
	assert.Equal(t, models.SyncStatusSuccess, entries[0].Status)
	assert.Equal(t, models.SyncStatusSuccess, entries[1].Status)
}

func TestCycleHistoryWriteErrorDoesNotAbort(t *testing.T) {
	f := newFixture(t, nil)

	f.sink.EXPECT().Connect(gomock.Any()).Return(testSession(), nil)
	f.devices.EXPECT().ListActiveDevices(gomock.Any()).
		Return([]models.Device{openDevice("M001"), openDevice("M002")}, nil)
	f.source.EXPECT().GetStatistics(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(statsFor("M001", 1), nil).Times(2)
	f.sink.EXPECT().Post(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(2)
	f.history.EXPECT().InsertSyncHistory(gomock.Any(), gomock.Any()).
		Return(errors.New("db: connection reset")).Times(2)

	f.svc.runCycle(context.Background())
}

func TestFrequency(t *testing.T) {
	tests := []struct {
		name  string
		value string
		set   bool
		want  time.Duration
	}{
		{name: "absent", set: false, want: 60 * time.Minute},
		{name: "valid", value: "15", set: true, want: 15 * time.Minute},
		{name: "non numeric", value: "hourly", set: true, want: 60 * time.Minute},
		{name: "zero", value: "0", set: true, want: 60 * time.Minute},
		{name: "negative", value: "-5", set: true, want: 60 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := stubResolver{}
			if tt.set {
				resolver[settings.KeySchedulerFrequency] = tt.value
			}

			f := newFixture(t, resolver)

			assert.Equal(t, tt.want, f.svc.frequency(context.Background()))
		})
	}
}

func TestStartStop(t *testing.T) {
	f := newFixture(t, nil)

	// Every cycle fails at connect; the loop must keep running until
	// stopped regardless.
	f.sink.EXPECT().Connect(gomock.Any()).Return(nil, errors.New("unreachable")).AnyTimes()

	require.NoError(t, f.svc.Start(context.Background()))

	// Let the first cycle run, then release one sleep to prove the loop
	// schedules another pass before shutting down.
	f.clock.after <- time.Now()

	require.NoError(t, f.svc.Stop(context.Background()))

	m := f.metrics.GetMetrics()
	started, _ := m["cycles_started"].(int)
	assert.GreaterOrEqual(t, started, 2)
}

func TestStopIsIdempotent(t *testing.T) {
	f := newFixture(t, nil)

	f.sink.EXPECT().Connect(gomock.Any()).Return(nil, errors.New("unreachable")).AnyTimes()

	require.NoError(t, f.svc.Start(context.Background()))
	require.NoError(t, f.svc.Stop(context.Background()))
	require.NoError(t, f.svc.Stop(context.Background()))
}

// deviceWithStore matches a *models.Device by store code.
func deviceWithStore(code string) gomock.Matcher {
	return gomock.Cond(func(x any) bool {
		d, ok := x.(*models.Device)
		return ok && d.StoreCode == code
	})
}

// recordWithStore matches a *nebim.SinkRecord by header store code.
func recordWithStore(code string) gomock.Matcher {
	return gomock.Cond(func(x any) bool {
		r, ok := x.(*nebim.SinkRecord)
		return ok && r.Header.StoreCode == code
	})
}
