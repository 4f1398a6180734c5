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

package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ilvi/link/pkg/api"
	"github.com/ilvi/link/pkg/config"
	"github.com/ilvi/link/pkg/crypto/secrets"
	"github.com/ilvi/link/pkg/db"
	"github.com/ilvi/link/pkg/logger"
	"github.com/ilvi/link/pkg/nebim"
	"github.com/ilvi/link/pkg/pronet"
	"github.com/ilvi/link/pkg/settings"
	"github.com/ilvi/link/pkg/sync"
)

func main() {
	configPath := flag.String("config", "/etc/link/link.json", "Path to config file")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var cfg sync.Config

	if err := config.NewConfig(nil).LoadAndValidate(ctx, *configPath, &cfg); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logCfg := logger.DefaultConfig()
	if cfg.Logging != nil {
		logCfg = *cfg.Logging
	}

	if err := logger.Init(logCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	rootLog := logger.Root()

	pool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		rootLog.Fatal().Err(err).Msg("Failed to connect to database")
	}

	store := db.New(pool, rootLog)
	defer func() { _ = store.Close() }()

	if err := db.RunMigrations(ctx, pool, rootLog); err != nil {
		rootLog.Fatal().Err(err).Msg("Failed to run migrations")
	}

	cipher := buildCipher(&cfg, rootLog)
	resolver := settings.NewDBResolver(store, cipher, rootLog)

	httpClient := &http.Client{Timeout: time.Duration(cfg.HTTPTimeout)}
	noRedirectClient := &http.Client{
		Timeout: time.Duration(cfg.HTTPTimeout),
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	source := pronet.NewClient(resolver, httpClient, rootLog)
	sink := nebim.NewClient(resolver, noRedirectClient, rootLog)

	metrics := sync.NewInMemoryMetrics()
	syncer := sync.New(source, sink, store, store, resolver, nil, metrics, rootLog)

	var sealer api.SecretSealer
	if cipher != nil {
		sealer = cipher
	}

	apiServer := api.NewServer(store, sealer, source, metrics, rootLog)

	if err := apiServer.Start(cfg.ListenAddr); err != nil {
		rootLog.Fatal().Err(err).Msg("Failed to start admin API")
	}

	if err := syncer.Start(ctx); err != nil {
		rootLog.Fatal().Err(err).Msg("Failed to start sync service")
	}

	<-ctx.Done()
	rootLog.Info().Msg("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := syncer.Stop(shutdownCtx); err != nil {
		rootLog.Error().Err(err).Msg("Sync service shutdown failed")
	}

	if err := apiServer.Stop(shutdownCtx); err != nil {
		rootLog.Error().Err(err).Msg("Admin API shutdown failed")
	}
}

// buildCipher derives the settings cipher from the config file or the
// LINK_SECRETS_KEY environment variable. Without a key the service still
// runs, but secret settings resolve as absent.
func buildCipher(cfg *sync.Config, log logger.Logger) *secrets.Cipher {
	keyMaterial := cfg.SecretsKey
	if keyMaterial == "" {
		keyMaterial = os.Getenv("LINK_SECRETS_KEY")
	}

	if keyMaterial == "" {
		log.Warn().Msg("No secrets key configured, password settings will be unavailable")
		return nil
	}

	cipher, err := secrets.NewCipher(keyMaterial)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize secrets cipher")
	}

	return cipher
}
