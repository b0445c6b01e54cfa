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

package run

import (
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/identity-account-fusion/internal/fusion/model"
	"github.com/wso2/identity-account-fusion/internal/system/constants"
	"github.com/wso2/identity-account-fusion/internal/system/log"
)

func TestMain(m *testing.M) {
	_ = log.Init("ERROR")
	os.Exit(m.Run())
}

func TestUUIDPool_NeverHandsOutSeenUUID(t *testing.T) {
	pool := NewUUIDPool([]string{"seed-1", "seed-2"})

	assert.False(t, pool.Reserve("seed-1"))
	assert.True(t, pool.Reserve("fresh"))
	assert.False(t, pool.Reserve("fresh"))
}

func TestUUIDPool_AllocateIsUniqueUnderConcurrency(t *testing.T) {
	pool := NewUUIDPool(nil)

	var mu sync.Mutex
	seen := map[string]bool{}
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := pool.Allocate()
			require.NoError(t, err)
			mu.Lock()
			defer mu.Unlock()
			assert.False(t, seen[id], "uuid %s allocated twice", id)
			seen[id] = true
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 100)
}

func TestUniqueIDAllocator_SuffixesOnCollision(t *testing.T) {
	allocator := NewUniqueIDAllocator(constants.ScopeTenant)

	assert.Equal(t, "alovelace", allocator.Allocate("hr", "alovelace"))
	assert.Equal(t, "alovelace2", allocator.Allocate("crm", "alovelace"))
	assert.Equal(t, "alovelace3", allocator.Allocate("hr", "alovelace"))
}

func TestUniqueIDAllocator_SourceScopeIsolatesSources(t *testing.T) {
	allocator := NewUniqueIDAllocator(constants.ScopeSource)

	assert.Equal(t, "alovelace", allocator.Allocate("hr", "alovelace"))
	// A different source can reuse the same uniqueID.
	assert.Equal(t, "alovelace", allocator.Allocate("crm", "alovelace"))
	assert.Equal(t, "alovelace2", allocator.Allocate("hr", "alovelace"))
}

func TestUniqueIDAllocator_SeedBlocksExistingIDs(t *testing.T) {
	allocator := NewUniqueIDAllocator(constants.ScopeTenant)
	allocator.Seed("hr", "jdoe")

	assert.Equal(t, "jdoe2", allocator.Allocate("hr", "jdoe"))
}

func TestUniqueIDBase_FirstInitialPlusLastName(t *testing.T) {
	account := &model.SourceAccount{
		ID: "acc-1",
		Attributes: model.AttributeBag{
			"givenName": model.ScalarValue("Ada"),
			"sn":        model.ScalarValue("Lovelace"),
		},
	}
	assert.Equal(t, "alovelace", uniqueIDBase(account, ""))
}

func TestUniqueIDBase_FallsBackToAccountName(t *testing.T) {
	account := &model.SourceAccount{ID: "acc-1", Attributes: model.AttributeBag{}}
	assert.Equal(t, "adalovelace", uniqueIDBase(account, "Ada.Lovelace"))
}

func TestUniqueIDBase_LastResortIsAccountID(t *testing.T) {
	account := &model.SourceAccount{ID: "ACC-1", Attributes: model.AttributeBag{}}
	assert.Equal(t, "acc-1", uniqueIDBase(account, ""))
}
