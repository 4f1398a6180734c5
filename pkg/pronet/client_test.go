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

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ilvi/link/pkg/logger"
	"github.com/ilvi/link/pkg/models"
	"github.com/ilvi/link/pkg/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapResolver map[string]string

func (m mapResolver) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m[key]
	return v, ok, nil
}

func testResolver(apiURL string) mapResolver {
	return mapResolver{
		settings.KeyPronetAPIURL:   apiURL,
		settings.KeyPronetUserName: "integration",
		settings.KeyPronetPassword: "hunter2",
	}
}

func testDevice() *models.Device {
	return &models.Device{
		OfficeCode:  "O1",
		StoreCode:   "M001",
		MACAddress:  "00:11:22:33:44:55",
		OpeningTime: "09:00",
		ClosingTime: "22:00",
	}
}

func bucket() (time.Time, time.Time) {
	start := time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC)
	return start, start.Add(time.Hour - time.Second)
}

func TestGetStatistics(t *testing.T) {
	var captured statisticsRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"Result": map[string]any{
				"ResponseText": "Başarılı",
				"ResponseCode": "200",
				"Data": map[string]any{
					"StoreStatistics": []map[string]any{
						{"StoreCode": "M001", "TotalEnterCount": 42},
					},
				},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(testResolver(srv.URL), srv.Client(), logger.NewTestLogger())

	start, end := bucket()

	stats, err := c.GetStatistics(context.Background(), testDevice(), start, end)
	require.NoError(t, err)
	require.NotNil(t, stats)
	require.Len(t, stats.StoreStatistics, 1)
	assert.Equal(t, 42, stats.StoreStatistics[0].TotalEnterCount)

	assert.Equal(t, "integration", captured.UserName)
	assert.Equal(t, "hunter2", captured.PassWord)
	assert.Equal(t, "2024-01-01 13:00:00", captured.StartTime)
	assert.Equal(t, "2024-01-01 13:59:59", captured.EndTime)
	assert.Equal(t, "0", captured.Interval)
	assert.Equal(t, "M001", captured.StoreCode)
	assert.Equal(t, "00:11:22:33:44:55", captured.MACAddress)
}

func TestGetStatisticsMissingSettings(t *testing.T) {
	c := NewClient(mapResolver{}, nil, logger.NewTestLogger())

	start, end := bucket()

	stats, err := c.GetStatistics(context.Background(), testDevice(), start, end)
	require.NoError(t, err)
	assert.Nil(t, stats)
}

func TestGetStatisticsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"Result": map[string]any{"ResponseText": "Hatalı kullanıcı", "ResponseCode": "401"},
		})
	}))
	defer srv.Close()

	c := NewClient(testResolver(srv.URL), srv.Client(), logger.NewTestLogger())

	start, end := bucket()

	stats, err := c.GetStatistics(context.Background(), testDevice(), start, end)
	require.NoError(t, err)
	assert.Nil(t, stats)
}

func TestGetStatisticsHTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(testResolver(srv.URL), srv.Client(), logger.NewTestLogger())

	start, end := bucket()

	stats, err := c.GetStatistics(context.Background(), testDevice(), start, end)
	require.NoError(t, err)
	assert.Nil(t, stats)
}

func TestGetStatisticsMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>gateway error</html>"))
	}))
	defer srv.Close()

	c := NewClient(testResolver(srv.URL), srv.Client(), logger.NewTestLogger())

	start, end := bucket()

	stats, err := c.GetStatistics(context.Background(), testDevice(), start, end)
	require.NoError(t, err)
	assert.Nil(t, stats)
}

func TestGetStatisticsEmptyData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"Result": map[string]any{
				"ResponseText": "Başarılı",
				"Data":         map[string]any{"StoreStatistics": []map[string]any{}},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(testResolver(srv.URL), srv.Client(), logger.NewTestLogger())

	start, end := bucket()

	stats, err := c.GetStatistics(context.Background(), testDevice(), start, end)
	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.True(t, stats.Empty())
}

func TestTestConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"Result": map[string]any{"ResponseText": "Başarılı"},
		})
	}))
	defer srv.Close()

	c := NewClient(testResolver(srv.URL), srv.Client(), logger.NewTestLogger())
	assert.True(t, c.TestConnection(context.Background()))

	bad := NewClient(mapResolver{}, nil, logger.NewTestLogger())
	assert.False(t, bad.TestConnection(context.Background()))
}
