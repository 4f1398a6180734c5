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

// Package nebim opens sessions against the Nebim V3 integrator service
// and posts store-traffic documents into them.
package nebim

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ilvi/link/pkg/logger"
	"github.com/ilvi/link/pkg/models"
	"github.com/ilvi/link/pkg/settings"
)

const (
	connectPath = "/IntegratorService/Connect"
	postPath    = "/IntegratorService/Post"

	defaultTimeout = 30 * time.Second
)

var (
	// ErrNotConfigured is returned when the Nebim API URL setting is
	// missing or empty.
	ErrNotConfigured = errors.New("nebim API URL is not configured")

	// ErrNoSessionEndpoint is returned when the handshake does not
	// yield a session-scoped base URL.
	ErrNoSessionEndpoint = errors.New("nebim handshake returned no session endpoint")

	// ErrConnectRejected is returned when the integrator refuses to
	// open a session or returns an unusable session ID.
	ErrConnectRejected = errors.New("nebim rejected the connect request")

	// ErrInvalidSession is returned by Post when the session value is
	// missing or incomplete.
	ErrInvalidSession = errors.New("nebim session is invalid")

	// ErrPostRejected is returned when the integrator refuses a posted
	// document.
	ErrPostRejected = errors.New("nebim rejected the posted record")
)

// HTTPClient abstracts the HTTP transport for testing. The client it
// wraps must not follow redirects; the handshake depends on reading the
// Location header of the first response.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a stateless integrator client. Sessions are values returned
// by Connect and passed back into Post; the client itself never caches
// one.
type Client struct {
	settings settings.Resolver
	http     HTTPClient
	logger   logger.Logger
}

// NewClient builds a Nebim client. httpClient may be nil, in which case
// a default non-redirecting client with a 30s timeout is used.
func NewClient(resolver settings.Resolver, httpClient HTTPClient, log logger.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: defaultTimeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}

	return &Client{settings: resolver, http: httpClient, logger: log}
}

// Connect performs the two-step handshake: an unauthenticated GET whose
// redirect Location reveals the session-scoped base URL, then a connect
// POST against that base. The returned session is valid for the caller's
// current cycle only.
func (c *Client) Connect(ctx context.Context) (*models.Session, error) {
	apiURL, ok, err := c.settings.Get(ctx, settings.KeyNebimAPIURL)
	if err != nil {
		return nil, fmt.Errorf("resolving nebim API URL: %w", err)
	}

	if !ok || apiURL == "" {
		return nil, ErrNotConfigured
	}

	base, err := c.discoverBase(ctx, apiURL)
	if err != nil {
		return nil, err
	}

	sessionID, err := c.openSession(ctx, base)
	if err != nil {
		return nil, err
	}

	c.logger.Info().Str("base_url", base).Msg("Opened Nebim session")

	return &models.Session{ID: sessionID, BaseURL: base}, nil
}

// Post sends one traffic document under the given session. Any non-2xx
// answer or an IsSucceeded=false body is an error; the caller decides
// whether to keep going.
func (c *Client) Post(ctx context.Context, session *models.Session, record *SinkRecord) error {
	if session == nil || !session.Valid() {
		return ErrInvalidSession
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, session.BaseURL+postPath, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building post request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("posting record: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: status %d: %s", ErrPostRejected, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var answer postResponse

	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		// Some deployments answer 200 with an empty body; treat only
		// an explicit refusal as failure.
		return nil
	}

	if !answer.IsSucceeded && answer.ErrorMessage != "" {
		return fmt.Errorf("%w: %s", ErrPostRejected, answer.ErrorMessage)
	}

	return nil
}

// discoverBase issues the redirect-probing GET. The integrator answers
// with a 3xx whose Location points at the per-session service root.
func (c *Client) discoverBase(ctx context.Context, apiURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("building handshake request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("nebim handshake: %w", err)
	}
	defer resp.Body.Close()

	location := resp.Header.Get("Location")
	if location == "" {
		return "", ErrNoSessionEndpoint
	}

	loc, err := resp.Request.URL.Parse(location)
	if err != nil {
		return "", fmt.Errorf("%w: bad location %q", ErrNoSessionEndpoint, location)
	}

	return strings.TrimSuffix(loc.String(), "/"), nil
}

func (c *Client) openSession(ctx context.Context, base string) (string, error) {
	payload, err := json.Marshal(connectRequest{ModelType: modelTypeConnect})
	if err != nil {
		return "", fmt.Errorf("encoding connect request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+connectPath, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("building connect request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("nebim connect: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("%w: status %d", ErrConnectRejected, resp.StatusCode)
	}

	var answer connectResponse

	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		return "", fmt.Errorf("decoding connect response: %w", err)
	}

	if !answer.IsSucceeded {
		return "", ErrConnectRejected
	}

	id, err := uuid.Parse(answer.SessionID)
	if err != nil || id == uuid.Nil {
		return "", fmt.Errorf("%w: session ID %q", ErrConnectRejected, answer.SessionID)
	}

	return id.String(), nil
}
