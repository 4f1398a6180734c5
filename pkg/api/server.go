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

// Package api provides the HTTP admin API for the link service: device
// and settings management plus the dashboard read endpoints.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/ilvi/link/pkg/db"
	srHTTP "github.com/ilvi/link/pkg/http"
	"github.com/ilvi/link/pkg/logger"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 5 * time.Second
)

// ConnectionTester checks that the configured Pronet credentials work.
type ConnectionTester interface {
	TestConnection(ctx context.Context) bool
}

// MetricsSnapshot exposes the sync loop's counters.
type MetricsSnapshot interface {
	GetMetrics() map[string]interface{}
}

// Server is the admin API server.
type Server struct {
	router  *mux.Router
	db      db.Service
	secrets SecretSealer
	tester  ConnectionTester
	metrics MetricsSnapshot
	logger  logger.Logger

	httpServer *http.Server
}

// SecretSealer encrypts values before they reach the settings table.
type SecretSealer interface {
	Encrypt(plaintext string) (string, error)
}

// NewServer builds the admin API around its collaborators. tester and
// metrics may be nil; the corresponding endpoints then report
// unavailable data instead of panicking.
func NewServer(database db.Service, sealer SecretSealer, tester ConnectionTester, metrics MetricsSnapshot, log logger.Logger) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		db:      database,
		secrets: sealer,
		tester:  tester,
		metrics: metrics,
		logger:  log,
	}

	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(func(next http.Handler) http.Handler {
		return srHTTP.CommonMiddleware(next, s.logger)
	})

	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/status", s.getStatus).Methods(http.MethodGet)
	api.HandleFunc("/dashboard/status", s.getDashboardStatus).Methods(http.MethodGet)

	api.HandleFunc("/settings", s.getSettings).Methods(http.MethodGet)
	api.HandleFunc("/settings", s.postSettings).Methods(http.MethodPost)

	api.HandleFunc("/devices", s.listDevices).Methods(http.MethodGet)
	api.HandleFunc("/devices", s.createDevice).Methods(http.MethodPost)
	api.HandleFunc("/devices/{id}", s.updateDevice).Methods(http.MethodPut)
	api.HandleFunc("/devices/{id}", s.deleteDevice).Methods(http.MethodDelete)

	api.HandleFunc("/test/pronet", s.testPronet).Methods(http.MethodPost)
}

// Router exposes the handler for tests and for embedding.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start begins serving on addr. It returns once the listener is
// running; serve errors are logged, not returned.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	s.logger.Info().Str("addr", addr).Msg("Starting admin API")

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Admin API server failed")
		}
	}()

	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	return s.httpServer.Shutdown(shutdownCtx)
}
