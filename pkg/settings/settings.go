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

// Package settings resolves named configuration values from the settings
// store, decrypting secret values on the way out.
package settings

import (
	"context"
	"os"
	"strings"

	"github.com/ilvi/link/pkg/crypto/secrets"
	"github.com/ilvi/link/pkg/logger"
)

// Resolver resolves a setting by key. The boolean reports presence;
// absence is signaled, not an error.
type Resolver interface {
	Get(ctx context.Context, key string) (string, bool, error)
}

// Store is the slice of the database service the resolver needs.
type Store interface {
	GetSetting(ctx context.Context, key string) (string, bool, error)
}

// DBResolver reads settings from the settings table and falls back to the
// process environment for keys that were never saved through the admin
// API. Values under a key containing "Password" are decrypted before
// being returned.
type DBResolver struct {
	store  Store
	cipher *secrets.Cipher
	logger logger.Logger
}

// NewDBResolver builds a resolver. cipher may be nil, in which case
// secret keys resolve as absent.
func NewDBResolver(store Store, cipher *secrets.Cipher, log logger.Logger) *DBResolver {
	return &DBResolver{store: store, cipher: cipher, logger: log}
}

// Get implements Resolver.
func (r *DBResolver) Get(ctx context.Context, key string) (string, bool, error) {
	value, ok, err := r.store.GetSetting(ctx, key)
	if err != nil {
		return "", false, err
	}

	if ok && value != "" {
		if !IsSecretKey(key) {
			return value, true, nil
		}

		return r.decrypt(key, value)
	}

	if env, found := os.LookupEnv(EnvName(key)); found && env != "" {
		return env, true, nil
	}

	return "", false, nil
}

func (r *DBResolver) decrypt(key, value string) (string, bool, error) {
	if r.cipher == nil {
		r.logger.Error().Str("key", key).Msg("Secret setting requested but no secrets key is configured")
		return "", false, nil
	}

	plain, err := r.cipher.Decrypt(value)
	if err != nil {
		// Fail closed: a secret we cannot decrypt is treated as absent.
		r.logger.Error().Err(err).Str("key", key).Msg("Failed to decrypt setting")
		return "", false, nil
	}

	return plain, true, nil
}

// IsSecretKey reports whether the key's value is stored encrypted.
func IsSecretKey(key string) bool {
	return strings.Contains(strings.ToLower(key), "password")
}

// EnvName converts a colon-hierarchy setting key to its environment
// variable form, e.g. "ApiUrls:Pronet" -> "APIURLS_PRONET".
func EnvName(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, ":", "_"))
}
