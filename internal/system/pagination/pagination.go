/*
 * Copyright (c) 2026, WSO2 LLC. (http://www.wso2.com).
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

// Package pagination assembles full result sets from the platform's paged
// list APIs. Page fetchers are expected to route through the execution
// queue; this package only drives them.
package pagination

import (
	"context"

	"github.com/wso2/identity-account-fusion/internal/system/constants"
	"github.com/wso2/identity-account-fusion/internal/system/log"
)

// Options tunes a paged fetch.
type Options struct {
	// PageSize is the requested page size, capped at the platform
	// maximum. Zero means the maximum.
	PageSize int
	// Limit bounds the total number of items fetched. Zero means all.
	Limit int
}

func (o Options) pageSize() int {
	if o.PageSize <= 0 || o.PageSize > constants.MaxPageSize {
		return constants.MaxPageSize
	}
	return o.PageSize
}

// OffsetPage fetches one page at the given offset. The limit parameter is
// always explicit; the first request never relies on a server-side
// default page size.
type OffsetPage[T any] func(ctx context.Context, offset, limit int) ([]T, error)

// FetchOffset assembles a full result set with offset paging: the offset
// advances by the number of items actually returned, and the fetch stops
// on a short page, an empty page, or once the item limit is reached
// (trimming any overshoot).
func FetchOffset[T any](ctx context.Context, opts Options, fetch OffsetPage[T]) ([]T, error) {
	pageSize := opts.pageSize()
	var items []T
	offset := 0

	for {
		limit := pageSize
		if opts.Limit > 0 {
			remaining := opts.Limit - len(items)
			if remaining <= 0 {
				break
			}
			if remaining < limit {
				limit = remaining
			}
		}

		page, err := fetch(ctx, offset, limit)
		if err != nil {
			return nil, err
		}
		items = append(items, page...)
		if opts.Limit > 0 && len(items) >= opts.Limit {
			items = items[:opts.Limit]
			break
		}
		if len(page) < limit {
			break
		}
		offset += len(page)
	}
	return items, nil
}

// SearchPage fetches one search-after page. The after argument is the
// previous page's last identifier, empty on the first request; wantCount
// asks the platform for the total result count and is set only on the
// first request. Results must be sorted by the identifier field.
type SearchPage[T any] func(ctx context.Context, after string, limit int, wantCount bool) ([]T, int, error)

// FetchSearchAfter assembles a full result set with cursor paging. The
// fetch stops when a page comes back short or the last item yields no
// usable identifier.
func FetchSearchAfter[T any](ctx context.Context, opts Options,
	fetch SearchPage[T], id func(T) string,
) ([]T, error) {
	pageSize := opts.pageSize()
	var items []T
	after := ""
	first := true

	for {
		page, total, err := fetch(ctx, after, pageSize, first)
		if err != nil {
			return nil, err
		}
		if first {
			log.GetLogger().Debug("Search-after fetch started", log.Int("total", total))
			first = false
		}
		items = append(items, page...)
		if len(page) < pageSize {
			break
		}
		after = id(page[len(page)-1])
		if after == "" {
			break
		}
	}
	return items, nil
}
