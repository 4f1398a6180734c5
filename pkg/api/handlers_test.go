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

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ilvi/link/pkg/crypto/secrets"
	"github.com/ilvi/link/pkg/db"
	"github.com/ilvi/link/pkg/logger"
	"github.com/ilvi/link/pkg/models"
	"github.com/ilvi/link/pkg/settings"
)

type stubTester struct{ ok bool }

func (s *stubTester) TestConnection(context.Context) bool { return s.ok }

func newTestServer(t *testing.T) (*Server, *db.MockService, *secrets.Cipher) {
	t.Helper()

	ctrl := gomock.NewController(t)
	mockDB := db.NewMockService(ctrl)

	cipher, err := secrets.NewCipher("api-test-key")
	require.NoError(t, err)

	srv := NewServer(mockDB, cipher, &stubTester{ok: true}, nil, logger.NewTestLogger())

	return srv, mockDB, cipher
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	return rec
}

func TestGetSettingsMasksSecrets(t *testing.T) {
	srv, mockDB, cipher := newTestServer(t)

	sealed, err := cipher.Encrypt("hunter2")
	require.NoError(t, err)

	mockDB.EXPECT().ListSettings(gomock.Any()).Return(map[string]string{
		settings.KeyPronetAPIURL:   "https://api.pronet.example",
		settings.KeyPronetPassword: sealed,
	}, nil)

	rec := doJSON(t, srv, http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var values map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &values))

	assert.Equal(t, "https://api.pronet.example", values[settings.KeyPronetAPIURL])
	assert.Equal(t, maskedSecret, values[settings.KeyPronetPassword])
}

func TestPostSettingsEncryptsSecrets(t *testing.T) {
	srv, mockDB, cipher := newTestServer(t)

	var saved map[string]string

	mockDB.EXPECT().
		UpsertSettings(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, values map[string]string) error {
			saved = values
			return nil
		})

	rec := doJSON(t, srv, http.MethodPost, "/api/settings", map[string]string{
		settings.KeyPronetAPIURL:   "https://api.pronet.example",
		settings.KeyPronetPassword: "hunter2",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "https://api.pronet.example", saved[settings.KeyPronetAPIURL])
	require.NotEqual(t, "hunter2", saved[settings.KeyPronetPassword])

	plain, err := cipher.Decrypt(saved[settings.KeyPronetPassword])
	require.NoError(t, err)
	assert.Equal(t, "hunter2", plain)
}

func TestPostSettingsSkipsMaskedSecrets(t *testing.T) {
	srv, mockDB, _ := newTestServer(t)

	mockDB.EXPECT().
		UpsertSettings(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, values map[string]string) error {
			_, hasSecret := values[settings.KeyPronetPassword]
			assert.False(t, hasSecret)
			return nil
		})

	rec := doJSON(t, srv, http.MethodPost, "/api/settings", map[string]string{
		settings.KeyPronetPassword: maskedSecret,
		settings.KeyPronetUserName: "integration",
	})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestDashboardStatus(t *testing.T) {
	srv, mockDB, _ := newTestServer(t)

	mockDB.EXPECT().LatestSyncByStore(gomock.Any()).Return([]models.SyncHistory{
		{
			RunTime:         time.Date(2024, 1, 1, 14, 0, 0, 0, time.UTC),
			DeviceStoreCode: "M001",
			Status:          models.SyncStatusSuccess,
			Message:         "Veri başarıyla aktarıldı.",
		},
	}, nil)

	rec := doJSON(t, srv, http.MethodGet, "/api/dashboard/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var rows []models.SyncHistory
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "M001", rows[0].DeviceStoreCode)
}

func TestCreateDevice(t *testing.T) {
	srv, mockDB, _ := newTestServer(t)

	mockDB.EXPECT().CreateDevice(gomock.Any(), gomock.Any()).Return(nil)

	rec := doJSON(t, srv, http.MethodPost, "/api/devices", models.Device{
		Active:      true,
		OfficeCode:  "O1",
		StoreCode:   "M001",
		OpeningTime: "09:00",
		ClosingTime: "22:00",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateDeviceRejectsInvalid(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/devices", models.Device{
		OfficeCode:  "O1",
		StoreCode:   "M001",
		OpeningTime: "morning",
		ClosingTime: "22:00",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateDeviceNotFound(t *testing.T) {
	srv, mockDB, _ := newTestServer(t)

	mockDB.EXPECT().UpdateDevice(gomock.Any(), gomock.Any()).Return(db.ErrNotFound)

	rec := doJSON(t, srv, http.MethodPut, "/api/devices/42", models.Device{
		OfficeCode:  "O1",
		StoreCode:   "M001",
		OpeningTime: "09:00",
		ClosingTime: "22:00",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteDevice(t *testing.T) {
	srv, mockDB, _ := newTestServer(t)

	mockDB.EXPECT().DeleteDevice(gomock.Any(), int64(7)).Return(nil)

	rec := doJSON(t, srv, http.MethodDelete, "/api/devices/7", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, srv, http.MethodDelete, "/api/devices/not-a-number", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTestPronet(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/test/pronet", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var result map[string]bool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result["success"])
}

func TestStatusIncludesMetrics(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockDB := db.NewMockService(ctrl)

	srv := NewServer(mockDB, nil, nil, stubMetrics{}, logger.NewTestLogger())

	rec := doJSON(t, srv, http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "running", payload["status"])
	assert.NotNil(t, payload["sync"])
}

type stubMetrics struct{}

func (stubMetrics) GetMetrics() map[string]interface{} {
	return map[string]interface{}{"cycles_completed": 3}
}
