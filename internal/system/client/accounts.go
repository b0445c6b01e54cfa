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
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/wso2/identity-account-fusion/internal/system/constants"
	"github.com/wso2/identity-account-fusion/internal/system/errors"
	"github.com/wso2/identity-account-fusion/internal/system/pagination"
)

// GetAccount fetches one source account by its platform ID.
func (c *PlatformClient) GetAccount(ctx context.Context, accountID string) (*Account, error) {
	var account Account
	err := c.execute(ctx, constants.PriorityMedium, http.MethodGet,
		"/v3/accounts/"+url.PathEscape(accountID), nil, &account)
	if err != nil {
		return nil, notFound(err, errors.ACCOUNT_NOT_FOUND,
			fmt.Sprintf("No account exists with ID %q.", accountID))
	}
	return &account, nil
}

// listAccounts pages through /v3/accounts with the given filter
// expression.
func (c *PlatformClient) listAccounts(ctx context.Context, filter string) ([]Account, error) {
	fetch := func(fetchCtx context.Context, offset, limit int) ([]Account, error) {
		query := url.Values{}
		query.Set("filters", filter)
		query.Set("offset", strconv.Itoa(offset))
		query.Set("limit", strconv.Itoa(limit))

		var page []Account
		err := c.execute(fetchCtx, constants.PriorityLow, http.MethodGet,
			"/v3/accounts?"+query.Encode(), nil, &page)
		if err != nil {
			return nil, err
		}
		return page, nil
	}
	return pagination.FetchOffset(ctx, pagination.Options{}, fetch)
}

// ListAccountsBySource lists every account of one source.
func (c *PlatformClient) ListAccountsBySource(ctx context.Context, sourceID string) ([]Account, error) {
	return c.listAccounts(ctx, fmt.Sprintf("sourceId eq %q", sourceID))
}

// ListAccountsByIdentity lists every account correlated to one identity.
func (c *PlatformClient) ListAccountsByIdentity(ctx context.Context, identityID string) ([]Account, error) {
	return c.listAccounts(ctx, fmt.Sprintf("identityId eq %q", identityID))
}

// GetAccountBySourceAndNativeIdentity resolves an account by its source
// and source-native identifier, nil when the source no longer holds it.
func (c *PlatformClient) GetAccountBySourceAndNativeIdentity(ctx context.Context,
	sourceID, nativeIdentity string,
) (*Account, error) {
	accounts, err := c.listAccounts(ctx,
		fmt.Sprintf("sourceId eq %q and nativeIdentity eq %q", sourceID, nativeIdentity))
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, nil
	}
	return &accounts[0], nil
}

// CorrelateAccount manually correlates an uncorrelated account to an
// identity. Correlation is a write that later reads depend on, so it
// runs at high priority.
func (c *PlatformClient) CorrelateAccount(ctx context.Context, accountID, identityID string) error {
	body := []map[string]interface{}{
		{"op": "replace", "path": "/identityId", "value": identityID},
	}
	err := c.execute(ctx, constants.PriorityHigh, http.MethodPatch,
		"/v3/accounts/"+url.PathEscape(accountID), body, nil)
	if err != nil {
		return errors.NewServerError(errors.CORRELATE_ACCOUNT_FAILED,
			fmt.Errorf("correlating account %s to identity %s: %w", accountID, identityID, err))
	}
	return nil
}
