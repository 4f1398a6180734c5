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
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/ilvi/link/pkg/db"
	"github.com/ilvi/link/pkg/models"
	"github.com/ilvi/link/pkg/settings"
)

// maskedSecret replaces stored secret values in GET responses. Posting
// it back leaves the stored value untouched.
const maskedSecret = "********"

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode API response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	payload := map[string]interface{}{"status": "running"}

	if s.metrics != nil {
		payload["sync"] = s.metrics.GetMetrics()
	}

	s.writeJSON(w, http.StatusOK, payload)
}

// getDashboardStatus returns the most recent history row per store.
func (s *Server) getDashboardStatus(w http.ResponseWriter, r *http.Request) {
	rows, err := s.db.LatestSyncByStore(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load dashboard status")
		s.writeError(w, http.StatusInternalServerError, "failed to load dashboard status")

		return
	}

	s.writeJSON(w, http.StatusOK, rows)
}

func (s *Server) getSettings(w http.ResponseWriter, r *http.Request) {
	values, err := s.db.ListSettings(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list settings")
		s.writeError(w, http.StatusInternalServerError, "failed to list settings")

		return
	}

	for key, value := range values {
		if settings.IsSecretKey(key) && value != "" {
			values[key] = maskedSecret
		}
	}

	s.writeJSON(w, http.StatusOK, values)
}

func (s *Server) postSettings(w http.ResponseWriter, r *http.Request) {
	var values map[string]string

	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid settings payload")
		return
	}

	sealed := make(map[string]string, len(values))

	for key, value := range values {
		if settings.IsSecretKey(key) {
			if value == maskedSecret {
				// The UI echoes the mask back for untouched secrets.
				continue
			}

			if s.secrets == nil {
				s.writeError(w, http.StatusInternalServerError, "secret storage is not configured")
				return
			}

			enc, err := s.secrets.Encrypt(value)
			if err != nil {
				s.logger.Error().Err(err).Str("key", key).Msg("Failed to encrypt setting")
				s.writeError(w, http.StatusInternalServerError, "failed to encrypt setting")

				return
			}

			sealed[key] = enc

			continue
		}

		sealed[key] = value
	}

	if err := s.db.UpsertSettings(r.Context(), sealed); err != nil {
		s.logger.Error().Err(err).Msg("Failed to save settings")
		s.writeError(w, http.StatusInternalServerError, "failed to save settings")

		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (s *Server) listDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.db.ListDevices(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list devices")
		s.writeError(w, http.StatusInternalServerError, "failed to list devices")

		return
	}

	s.writeJSON(w, http.StatusOK, devices)
}

func (s *Server) createDevice(w http.ResponseWriter, r *http.Request) {
	var device models.Device

	if err := json.NewDecoder(r.Body).Decode(&device); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid device payload")
		return
	}

	if err := device.Validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.db.CreateDevice(r.Context(), &device); err != nil {
		s.logger.Error().Err(err).Msg("Failed to create device")
		s.writeError(w, http.StatusInternalServerError, "failed to create device")

		return
	}

	s.writeJSON(w, http.StatusCreated, device)
}

func (s *Server) updateDevice(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid device id")
		return
	}

	var device models.Device

	if err := json.NewDecoder(r.Body).Decode(&device); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid device payload")
		return
	}

	device.ID = id

	if err := device.Validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.db.UpdateDevice(r.Context(), &device); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "device not found")
			return
		}

		s.logger.Error().Err(err).Int64("device_id", id).Msg("Failed to update device")
		s.writeError(w, http.StatusInternalServerError, "failed to update device")

		return
	}

	s.writeJSON(w, http.StatusOK, device)
}

func (s *Server) deleteDevice(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid device id")
		return
	}

	if err := s.db.DeleteDevice(r.Context(), id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "device not found")
			return
		}

		s.logger.Error().Err(err).Int64("device_id", id).Msg("Failed to delete device")
		s.writeError(w, http.StatusInternalServerError, "failed to delete device")

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) testPronet(w http.ResponseWriter, r *http.Request) {
	if s.tester == nil {
		s.writeError(w, http.StatusServiceUnavailable, "connection test unavailable")
		return
	}

	ok := s.tester.TestConnection(r.Context())

	s.writeJSON(w, http.StatusOK, map[string]bool{"success": ok})
}
