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

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/golang-jwt/jwt/v5"

	"github.com/wso2/identity-account-fusion/internal/system/cache"
	"github.com/wso2/identity-account-fusion/internal/system/config"
	"github.com/wso2/identity-account-fusion/internal/system/errors"
	"github.com/wso2/identity-account-fusion/internal/system/log"
)

const (
	tokenCacheKey = "platform_access_token"
	// tokenExpirySkew refreshes the token this long before it expires.
	tokenExpirySkew = 60 * time.Second
	defaultTokenTTL = 5 * time.Minute
)

// tokenManager fetches and caches OAuth client-credentials tokens for the
// platform. Token fetches bypass the execution queue: they are the
// prerequisite of every queued call.
type tokenManager struct {
	cfg        config.AuthServerConfig
	httpClient *http.Client
	cache      *cache.Cache
}

func newTokenManager(cfg config.AuthServerConfig, httpClient *http.Client) *tokenManager {
	return &tokenManager{
		cfg:        cfg,
		httpClient: httpClient,
		cache:      cache.NewCache(defaultTokenTTL),
	}
}

// Token returns a valid access token, fetching a fresh one when the
// cached token is missing or close to expiry.
func (t *tokenManager) Token(ctx context.Context) (string, error) {
	if cached, ok := t.cache.Get(tokenCacheKey); ok {
		return cached.(string), nil
	}

	token, err := retry.DoWithData(
		func() (string, error) { return t.fetchToken(ctx) },
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.MaxJitter(250*time.Millisecond),
		retry.RetryIf(errors.IsTransient),
		retry.OnRetry(func(n uint, err error) {
			log.GetLogger().Debug("Retrying token fetch",
				log.Int("attempt", int(n)+1), log.Error(err))
		}),
	)
	if err != nil {
		return "", err
	}

	t.cache.SetWithTTL(tokenCacheKey, token, tokenTTL(token))
	return token, nil
}

func (t *tokenManager) fetchToken(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.TokenEndpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", errors.NewServerError(errors.TOKEN_FETCH_FAILED, err)
	}
	req.SetBasicAuth(t.cfg.ClientID, t.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", errors.NewTransientError(errors.TOKEN_FETCH_FAILED, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		cause := fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, trim(body))
		if resp.StatusCode >= http.StatusInternalServerError ||
			resp.StatusCode == http.StatusTooManyRequests {
			return "", errors.NewTransientError(errors.TOKEN_FETCH_FAILED, cause)
		}
		return "", errors.NewServerError(errors.TOKEN_FETCH_FAILED, cause)
	}

	var result struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", errors.NewServerError(errors.TOKEN_FETCH_FAILED, err)
	}
	if result.AccessToken == "" {
		return "", errors.NewServerError(errors.TOKEN_FETCH_FAILED,
			fmt.Errorf("token endpoint returned an empty access_token"))
	}
	return result.AccessToken, nil
}

// tokenTTL derives the cache TTL from the token's own exp claim, minus a
// safety skew. Opaque tokens fall back to a fixed TTL.
func tokenTTL(token string) time.Duration {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return defaultTokenTTL
	}
	expiry, err := claims.GetExpirationTime()
	if err != nil || expiry == nil {
		return defaultTokenTTL
	}
	ttl := time.Until(expiry.Time) - tokenExpirySkew
	if ttl <= 0 {
		return defaultTokenTTL
	}
	return ttl
}
