/*
 * Copyright (c) 2025-2026, WSO2 LLC. (http://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

// Package client talks to the identity platform's REST API. Every call is
// funneled through the execution queue; nothing in this package performs a
// remote call outside of it.
package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/wso2/identity-account-fusion/internal/system/cache"
	"github.com/wso2/identity-account-fusion/internal/system/config"
	"github.com/wso2/identity-account-fusion/internal/system/errors"
	"github.com/wso2/identity-account-fusion/internal/system/log"
	"github.com/wso2/identity-account-fusion/internal/system/queue"
)

// PlatformClient is the REST client for the identity platform.
type PlatformClient struct {
	baseURL    string
	tenantID   string
	httpClient *http.Client
	queue      *queue.ExecutionQueue
	tokens     *tokenManager
	schemas    *cache.Cache
}

// schemaCacheTTL bounds how long a fetched schema list is reused. A run
// that outlives it simply refetches.
const schemaCacheTTL = 10 * time.Minute

// NewPlatformClient creates a client bound to the given execution queue.
func NewPlatformClient(cfg config.Config, q *queue.ExecutionQueue) *PlatformClient {
	baseHostPort := cfg.Platform.Host
	if cfg.Platform.Port != "" {
		baseHostPort = cfg.Platform.Host + ":" + cfg.Platform.Port
	}
	log.GetLogger().Info("Creating platform client with base URL: " + baseHostPort)

	httpClient := newOutboundHTTPClient()
	return &PlatformClient{
		baseURL:    baseHostPort,
		tenantID:   cfg.Platform.TenantID,
		httpClient: httpClient,
		queue:      q,
		tokens:     newTokenManager(cfg.AuthServer, httpClient),
		schemas:    cache.NewCache(schemaCacheTTL),
	}
}

// newOutboundHTTPClient builds the HTTP client used for all platform
// traffic. The transport timeout here is a network-level floor; the
// per-call wall-clock timeout lives in the execution queue.
func newOutboundHTTPClient() *http.Client {
	tr := &http.Transport{
		TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
		TLSHandshakeTimeout: 10 * time.Second,
		IdleConnTimeout:     60 * time.Second,
		MaxIdleConns:        100,
		MaxConnsPerHost:     100,
	}
	return &http.Client{
		Transport: tr,
		Timeout:   60 * time.Second,
	}
}

func (c *PlatformClient) endpoint(path string) string {
	return fmt.Sprintf("https://%s/t/%s%s", c.baseURL, c.tenantID, path)
}

// execute routes one HTTP exchange through the queue at the given
// priority and decodes the JSON response into out (when non-nil).
func (c *PlatformClient) execute(ctx context.Context, priority int, method, path string,
	body interface{}, out interface{},
) error {
	_, err := c.queue.Execute(ctx, priority, func(callCtx context.Context) (interface{}, error) {
		return nil, c.doJSON(callCtx, method, path, body, out)
	})
	return err
}

// doJSON performs the HTTP exchange and classifies failures per the
// connector error taxonomy: 429 and 5xx are transient and carry any
// Retry-After hint; 404 is a not-found client error; other non-2xx are
// server errors.
func (c *PlatformClient) doJSON(ctx context.Context, method, path string,
	body interface{}, out interface{},
) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return errors.NewServerError(errors.REMOTE_CALL_FAILED,
				pkgerrors.Wrap(err, "encoding request body"))
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), reader)
	if err != nil {
		return errors.NewServerError(errors.REMOTE_CALL_FAILED,
			pkgerrors.Wrap(err, "building request"))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewTransientError(errors.REMOTE_CALL_FAILED,
			pkgerrors.Wrapf(err, "%s %s", method, path))
	}
	defer resp.Body.Close()

	payload, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return errors.NewThrottledError(errors.REMOTE_CALL_FAILED,
			fmt.Errorf("%s %s returned 429", method, path),
			retryAfterHint(resp))
	case resp.StatusCode >= http.StatusInternalServerError:
		return errors.NewTransientError(errors.REMOTE_CALL_FAILED,
			fmt.Errorf("%s %s returned %d: %s", method, path, resp.StatusCode, trim(payload)))
	case resp.StatusCode == http.StatusNotFound:
		return errors.NewClientErrorWithDescription(errors.FUSION_ACCOUNT_NOT_FOUND,
			fmt.Sprintf("%s %s returned 404", method, path))
	case resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices:
		return errors.NewServerError(errors.REMOTE_CALL_FAILED,
			fmt.Errorf("%s %s returned %d: %s", method, path, resp.StatusCode, trim(payload)))
	}

	if out != nil && len(payload) > 0 {
		if err := json.Unmarshal(payload, out); err != nil {
			return errors.NewServerError(errors.REMOTE_CALL_FAILED,
				pkgerrors.Wrapf(err, "decoding %s %s response", method, path))
		}
	}
	return nil
}

// retryAfterHint reads the server's wait hint in seconds, zero when the
// header is missing or malformed.
func retryAfterHint(resp *http.Response) float64 {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}
	seconds, err := strconv.ParseFloat(header, 64)
	if err != nil || seconds < 0 {
		return 0
	}
	return seconds
}

func trim(payload []byte) string {
	const limit = 256
	if len(payload) > limit {
		payload = payload[:limit]
	}
	return string(payload)
}

// notFound rewrites the generic 404 classification into the
// entity-specific not-found code the caller knows it was fetching.
func notFound(err error, msg errors.ErrorMessage, description string) error {
	if clientErr, ok := err.(*errors.ClientError); ok && clientErr.Code == errors.FUSION_ACCOUNT_NOT_FOUND.Code {
		return errors.NewClientErrorWithDescription(msg, description)
	}
	return err
}
