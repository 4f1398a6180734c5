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

// Package sync runs the Pronet to Nebim synchronization loop: one
// perpetual scheduler that, every cycle, opens a Nebim session, walks
// the active devices in order and posts the previous hour's visitor
// counts.
package sync

import (
	"context"
	"strconv"
	gosync "sync"
	"time"

	"github.com/ilvi/link/pkg/logger"
	"github.com/ilvi/link/pkg/models"
	"github.com/ilvi/link/pkg/nebim"
	"github.com/ilvi/link/pkg/pronet"
	"github.com/ilvi/link/pkg/settings"
)

const (
	defaultFrequency = 60 * time.Minute

	// successMessage is the fixed dashboard text for a clean transfer.
	successMessage = "Veri başarıyla aktarıldı."
)

// Service is the synchronization orchestrator. One instance runs one
// loop; no state survives between cycles except the counters in
// metrics.
type Service struct {
	source   SourceClient
	sink     SinkClient
	devices  DeviceStore
	history  HistoryStore
	settings settings.Resolver
	clock    Clock
	metrics  Metrics
	logger   logger.Logger

	done     chan struct{}
	stopOnce gosync.Once
	wg       gosync.WaitGroup
}

// New wires the orchestrator. clock may be nil for the real clock and
// metrics may be nil to discard counters.
func New(
	source SourceClient,
	sink SinkClient,
	devices DeviceStore,
	history HistoryStore,
	resolver settings.Resolver,
	clock Clock,
	metrics Metrics,
	log logger.Logger,
) *Service {
	if clock == nil {
		clock = realClock{}
	}

	if metrics == nil {
		metrics = &NoOpMetrics{}
	}

	return &Service{
		source:   source,
		sink:     sink,
		devices:  devices,
		history:  history,
		settings: resolver,
		clock:    clock,
		metrics:  metrics,
		logger:   log,
		done:     make(chan struct{}),
	}
}

// Start launches the scheduling loop. It returns immediately; the loop
// runs until ctx is canceled or Stop is called.
func (s *Service) Start(ctx context.Context) error {
	s.logger.Info().Msg("Starting sync service")

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()

	return nil
}

// Stop signals the loop to exit and waits for the current cycle to
// finish.
func (s *Service) Stop(_ context.Context) error {
	s.stopOnce.Do(func() { close(s.done) })
	s.wg.Wait()

	s.logger.Info().Msg("Sync service stopped")

	return nil
}

// run is the perpetual loop: cycle, then sleep the currently configured
// interval. The frequency is re-read before each sleep so operators can
// retune the schedule without a restart.
func (s *Service) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		default:
		}

		s.runCycle(ctx)

		interval := s.frequency(ctx)

		s.logger.Debug().Dur("interval", interval).Msg("Cycle finished, sleeping")

		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-s.clock.After(interval):
		}
	}
}

// frequency resolves the schedule interval. Absent, non-numeric or
// non-positive values fall back to one hour.
func (s *Service) frequency(ctx context.Context) time.Duration {
	raw, ok, err := s.settings.Get(ctx, settings.KeySchedulerFrequency)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read scheduler frequency")
		return defaultFrequency
	}

	if !ok {
		return defaultFrequency
	}

	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes <= 0 {
		s.logger.Warn().Str("value", raw).Msg("Unusable scheduler frequency, using default")
		return defaultFrequency
	}

	return time.Duration(minutes) * time.Minute
}

// runCycle executes one pass over the active devices. A failed Nebim
// connect aborts the whole cycle; every later failure stays scoped to
// its device.
func (s *Service) runCycle(ctx context.Context) {
	started := s.clock.Now()
	s.metrics.RecordCycleStart(started)

	session, err := s.sink.Connect(ctx)
	if err != nil || !session.Valid() {
		s.logger.Error().Err(err).Msg("Nebim connect failed, skipping cycle")
		s.metrics.RecordCycleAborted()

		return
	}

	devices, err := s.devices.ListActiveDevices(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list active devices, skipping cycle")
		s.metrics.RecordCycleAborted()

		return
	}

	// One timestamp for the whole cycle keeps the window check and the
	// bucket consistent across devices.
	now := s.clock.Now()

	for i := range devices {
		if ctx.Err() != nil {
			return
		}

		s.processDevice(ctx, session, &devices[i], now)
	}

	s.metrics.RecordCycleComplete(s.clock.Now().Sub(started))
}

// processDevice runs the per-device step: window gate, fetch, post,
// outcome row. Only devices that get past the gate and have data leave
// a history row.
func (s *Service) processDevice(ctx context.Context, session *models.Session, device *models.Device, now time.Time) {
	log := s.logger.With().Str("store_code", device.StoreCode).Logger()

	open, err := device.InOperatingWindow(now)
	if err != nil {
		log.Warn().Err(err).Msg("Unusable operating window, skipping device")
		s.metrics.RecordDeviceSkipped(device.StoreCode)

		return
	}

	if !open {
		log.Debug().Msg("Outside operating window, skipping device")
		s.metrics.RecordDeviceSkipped(device.StoreCode)

		return
	}

	start, end := previousHourBucket(now)

	stats, err := s.source.GetStatistics(ctx, device, start, end)
	if err != nil {
		// Reserved for cancellation; the cycle is ending anyway.
		log.Error().Err(err).Msg("Statistics fetch interrupted")
		return
	}

	if stats.Empty() {
		log.Warn().Time("bucket_start", start).Msg("No statistics for device, skipping")
		s.metrics.RecordDeviceSkipped(device.StoreCode)

		return
	}

	postErr := s.postStatistics(ctx, session, device, start, stats.StoreStatistics)

	entry := &models.SyncHistory{
		RunTime:         s.clock.Now(),
		DeviceStoreCode: device.SinkCode(),
	}

	if postErr != nil {
		entry.Status = models.SyncStatusFailure
		entry.Message = postErr.Error()

		log.Error().Err(postErr).Msg("Device sync failed")
		s.metrics.RecordDeviceFailure(device.StoreCode)
	} else {
		entry.Status = models.SyncStatusSuccess
		entry.Message = successMessage

		log.Info().Int("lines", len(stats.StoreStatistics)).Msg("Device synced")
		s.metrics.RecordDeviceSuccess(device.StoreCode)
	}

	if err := s.history.InsertSyncHistory(ctx, entry); err != nil {
		log.Error().Err(err).Msg("Failed to record sync outcome")
	}
}

// postStatistics posts one document per statistic line under the cycle
// session. The first failure aborts the remaining lines.
func (s *Service) postStatistics(ctx context.Context, session *models.Session, device *models.Device, bucketStart time.Time, lines []pronet.StoreStatistic) error {
	for _, line := range lines {
		record := nebim.NewSinkRecord(device.OfficeCode, device.SinkCode(), bucketStart, line.TotalEnterCount)

		if err := s.sink.Post(ctx, session, record); err != nil {
			return err
		}
	}

	return nil
}
