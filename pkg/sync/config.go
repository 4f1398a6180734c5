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
	"errors"
	"time"

	"github.com/ilvi/link/pkg/db"
	"github.com/ilvi/link/pkg/logger"
	"github.com/ilvi/link/pkg/models"
)

const (
	defaultListenAddr  = ":8090"
	defaultHTTPTimeout = 30 * time.Second
)

var errMissingDatabase = errors.New("database host and name are required")

// Config is the service configuration loaded from the JSON config file.
type Config struct {
	ListenAddr string    `json:"listen_addr"` // admin API bind address
	Database   db.Config `json:"database"`

	// SecretsKey derives the AES key protecting password settings. May
	// also come from the LINK_SECRETS_KEY environment variable.
	SecretsKey string `json:"secrets_key"`

	// HTTPTimeout bounds every outbound Pronet/Nebim call so a hung
	// endpoint cannot stall the rest of the cycle.
	HTTPTimeout models.Duration `json:"http_timeout"`

	Logging *logger.Config `json:"logging"`
}

func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		c.ListenAddr = defaultListenAddr
	}

	if time.Duration(c.HTTPTimeout) == 0 {
		c.HTTPTimeout = models.Duration(defaultHTTPTimeout)
	}

	if c.Database.Host == "" || c.Database.Database == "" {
		return errMissingDatabase
	}

	return nil
}
