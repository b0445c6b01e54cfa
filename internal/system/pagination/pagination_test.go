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

package pagination

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/identity-account-fusion/internal/system/constants"
	"github.com/wso2/identity-account-fusion/internal/system/log"
)

func TestMain(m *testing.M) {
	_ = log.Init("ERROR")
	os.Exit(m.Run())
}

func dataset(n int) []string {
	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf("item-%04d", i)
	}
	return items
}

func offsetFetcher(data []string, calls *[]int) OffsetPage[string] {
	return func(_ context.Context, offset, limit int) ([]string, error) {
		if calls != nil {
			*calls = append(*calls, limit)
		}
		if offset >= len(data) {
			return nil, nil
		}
		end := offset + limit
		if end > len(data) {
			end = len(data)
		}
		return data[offset:end], nil
	}
}

// ---------------------------------------------------------------------------
// Offset paging
// ---------------------------------------------------------------------------

func TestFetchOffset_ReturnsEverything(t *testing.T) {
	data := dataset(57)
	items, err := FetchOffset(context.Background(), Options{PageSize: 10}, offsetFetcher(data, nil))
	require.NoError(t, err)
	assert.Equal(t, data, items)
}

func TestFetchOffset_IdempotentAgainstStaticDataset(t *testing.T) {
	data := dataset(123)
	first, err := FetchOffset(context.Background(), Options{PageSize: 25}, offsetFetcher(data, nil))
	require.NoError(t, err)
	second, err := FetchOffset(context.Background(), Options{PageSize: 25}, offsetFetcher(data, nil))
	require.NoError(t, err)

	assert.Len(t, first, len(data), "paged total must equal the unpaged dataset size")
	assert.Equal(t, first, second)
}

func TestFetchOffset_FirstRequestAlwaysCarriesExplicitLimit(t *testing.T) {
	var calls []int
	_, err := FetchOffset(context.Background(), Options{}, offsetFetcher(dataset(3), &calls))
	require.NoError(t, err)
	require.NotEmpty(t, calls)
	assert.Equal(t, constants.MaxPageSize, calls[0])
}

func TestFetchOffset_PageSizeCappedAtPlatformMax(t *testing.T) {
	var calls []int
	_, err := FetchOffset(context.Background(), Options{PageSize: 10000}, offsetFetcher(dataset(5), &calls))
	require.NoError(t, err)
	for _, limit := range calls {
		assert.LessOrEqual(t, limit, constants.MaxPageSize)
	}
}

func TestFetchOffset_LimitTrimsOvershoot(t *testing.T) {
	items, err := FetchOffset(context.Background(), Options{PageSize: 10, Limit: 23},
		offsetFetcher(dataset(100), nil))
	require.NoError(t, err)
	assert.Len(t, items, 23)
}

func TestFetchOffset_EmptyDataset(t *testing.T) {
	items, err := FetchOffset(context.Background(), Options{PageSize: 10}, offsetFetcher(nil, nil))
	require.NoError(t, err)
	assert.Empty(t, items)
}

// ---------------------------------------------------------------------------
// Search-after paging
// ---------------------------------------------------------------------------

func searchFetcher(data []string) SearchPage[string] {
	return func(_ context.Context, after string, limit int, _ bool) ([]string, int, error) {
		start := 0
		if after != "" {
			for i, item := range data {
				if item == after {
					start = i + 1
					break
				}
			}
		}
		end := start + limit
		if end > len(data) {
			end = len(data)
		}
		return data[start:end], len(data), nil
	}
}

func TestFetchSearchAfter_ReturnsEverything(t *testing.T) {
	data := dataset(57)
	items, err := FetchSearchAfter(context.Background(), Options{PageSize: 10},
		searchFetcher(data), func(s string) string { return s })
	require.NoError(t, err)
	assert.Equal(t, data, items)
}

func TestFetchSearchAfter_StopsOnMissingIdentifier(t *testing.T) {
	data := dataset(30)
	items, err := FetchSearchAfter(context.Background(), Options{PageSize: 10},
		searchFetcher(data), func(string) string { return "" })
	require.NoError(t, err)
	// Only the first page is usable without a cursor.
	assert.Len(t, items, 10)
}
