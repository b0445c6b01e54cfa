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

	"github.com/wso2/identity-account-fusion/internal/system/constants"
	"github.com/wso2/identity-account-fusion/internal/system/errors"
	"github.com/wso2/identity-account-fusion/internal/system/pagination"
)

// GetIdentity fetches one identity by its platform ID.
func (c *PlatformClient) GetIdentity(ctx context.Context, identityID string) (*Identity, error) {
	var identity Identity
	err := c.execute(ctx, constants.PriorityMedium, http.MethodGet,
		"/v3/identities/"+url.PathEscape(identityID), nil, &identity)
	if err != nil {
		return nil, notFound(err, errors.IDENTITY_NOT_FOUND,
			fmt.Sprintf("No identity exists with ID %q.", identityID))
	}
	return &identity, nil
}

// GetIdentityByUID fetches the identity holding the given stable user
// identifier, nil when no identity carries it.
func (c *PlatformClient) GetIdentityByUID(ctx context.Context, uid string) (*Identity, error) {
	query := url.Values{}
	query.Set("filters", fmt.Sprintf("attributes.uid eq %q", uid))
	query.Set("limit", "2")

	var identities []Identity
	err := c.execute(ctx, constants.PriorityMedium, http.MethodGet,
		"/v3/identities?"+query.Encode(), nil, &identities)
	if err != nil {
		return nil, err
	}
	if len(identities) == 0 {
		return nil, nil
	}
	return &identities[0], nil
}

// searchRequest is the platform's search API body.
type searchRequest struct {
	Indices     []string          `json:"indices"`
	Query       map[string]string `json:"query"`
	Sort        []string          `json:"sort"`
	SearchAfter []string          `json:"searchAfter,omitempty"`
	Count       bool              `json:"count,omitempty"`
	Limit       int               `json:"limit"`
}

// SearchIdentities runs a free-text search over identities, paging with
// the search-after cursor. Results are sorted by ID so the cursor is
// stable across pages.
func (c *PlatformClient) SearchIdentities(ctx context.Context, queryText string) ([]Identity, error) {
	fetch := func(fetchCtx context.Context, after string, limit int, wantCount bool) ([]Identity, int, error) {
		body := searchRequest{
			Indices: []string{"identities"},
			Query:   map[string]string{"query": queryText},
			Sort:    []string{"id"},
			Count:   wantCount,
			Limit:   limit,
		}
		if after != "" {
			body.SearchAfter = []string{after}
		}

		var page []Identity
		err := c.execute(fetchCtx, constants.PriorityLow, http.MethodPost, "/v3/search", body, &page)
		if err != nil {
			return nil, 0, errors.NewServerError(errors.SEARCH_FAILED, err)
		}
		return page, 0, nil
	}

	return pagination.FetchSearchAfter(ctx, pagination.Options{}, fetch,
		func(identity Identity) string { return identity.ID })
}
