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

// Package pronet fetches per-store visitor statistics from the Pronet
// people-counting API.
package pronet

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ilvi/link/pkg/logger"
	"github.com/ilvi/link/pkg/models"
	"github.com/ilvi/link/pkg/settings"
)

// successResponseText is the literal marker Pronet uses for a successful
// answer; anything else is a failure regardless of HTTP status.
const successResponseText = "Başarılı"

const (
	wireTimeFormat = "2006-01-02 15:04:05"
	defaultTimeout = 30 * time.Second
)

// HTTPClient abstracts the HTTP transport for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the Pronet statistics endpoint. All ordinary failure
// modes (missing settings, transport errors, API-level errors) resolve
// to an absent result, never an error: the caller distinguishes "no
// data" from "broken device step" and Pronet trouble is always the
// former.
type Client struct {
	settings settings.Resolver
	http     HTTPClient
	logger   logger.Logger
}

// NewClient builds a Pronet client. httpClient may be nil, in which
// case a default client with a 30s timeout is used.
func NewClient(resolver settings.Resolver, httpClient HTTPClient, log logger.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	return &Client{settings: resolver, http: httpClient, logger: log}
}

// GetStatistics fetches the aggregate enter/exit counts for one device
// over [start, end]. A nil Statistics with nil error means "nothing
// usable"; the error return is reserved for context cancellation.
func (c *Client) GetStatistics(ctx context.Context, device *models.Device, start, end time.Time) (*Statistics, error) {
	apiURL, userName, password, ok := c.credentials(ctx)
	if !ok {
		return nil, nil
	}

	reqBody := statisticsRequest{
		UserName:   userName,
		PassWord:   password,
		StartTime:  start.Format(wireTimeFormat),
		EndTime:    end.Format(wireTimeFormat),
		Interval:   "0",
		StoreCode:  device.StoreCode,
		MACAddress: device.MACAddress,
	}

	envelope, err := c.post(ctx, apiURL, &reqBody)
	if err != nil || envelope == nil {
		return nil, err
	}

	if envelope.Result == nil || envelope.Result.Data == nil {
		c.logger.Warn().Str("store_code", device.StoreCode).Msg("Pronet response carried no data")
		return nil, nil
	}

	return &Statistics{StoreStatistics: envelope.Result.Data.StoreStatistics}, nil
}

// TestConnection checks the configured credentials by querying an
// arbitrary recent window. Used by the admin API's connection test.
func (c *Client) TestConnection(ctx context.Context) bool {
	apiURL, userName, password, ok := c.credentials(ctx)
	if !ok {
		return false
	}

	now := time.Now()
	reqBody := statisticsRequest{
		UserName:  userName,
		PassWord:  password,
		StartTime: now.Add(-2 * time.Hour).Format(wireTimeFormat),
		EndTime:   now.Add(-time.Hour).Format(wireTimeFormat),
		Interval:  "0",
	}

	envelope, err := c.post(ctx, apiURL, &reqBody)

	return err == nil && envelope != nil
}

// credentials resolves the Pronet settings; any missing value fails the
// operation closed.
func (c *Client) credentials(ctx context.Context) (apiURL, userName, password string, ok bool) {
	apiURL = c.resolve(ctx, settings.KeyPronetAPIURL)
	userName = c.resolve(ctx, settings.KeyPronetUserName)
	password = c.resolve(ctx, settings.KeyPronetPassword)

	if apiURL == "" || userName == "" || password == "" {
		c.logger.Error().Msg("Pronet API settings are incomplete")
		return "", "", "", false
	}

	return apiURL, userName, password, true
}

func (c *Client) resolve(ctx context.Context, key string) string {
	value, _, err := c.settings.Get(ctx, key)
	if err != nil {
		c.logger.Error().Err(err).Str("key", key).Msg("Failed to resolve setting")
		return ""
	}

	return value
}

// post sends the request and returns the decoded envelope only when
// Pronet reports success. (nil, nil) covers every ordinary failure.
func (c *Client) post(ctx context.Context, apiURL string, body *statisticsRequest) (*responseEnvelope, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to encode Pronet request")
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(payload))
	if err != nil {
		c.logger.Error().Err(err).Str("url", apiURL).Msg("Failed to build Pronet request")
		return nil, nil
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		c.logger.Error().Err(err).Msg("Pronet request failed")

		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		c.logger.Error().Int("status", resp.StatusCode).Msg("Pronet returned a non-success status")
		return nil, nil
	}

	var envelope responseEnvelope

	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		c.logger.Error().Err(err).Msg("Failed to decode Pronet response")
		return nil, nil
	}

	if envelope.Result == nil || envelope.Result.ResponseText != successResponseText {
		text := ""
		if envelope.Result != nil {
			text = envelope.Result.ResponseText
		}

		c.logger.Error().Str("response_text", text).Msg("Pronet API reported an error")

		return nil, nil
	}

	return &envelope, nil
}
