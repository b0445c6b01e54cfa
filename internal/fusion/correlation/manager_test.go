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

package correlation

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/identity-account-fusion/internal/fusion/model"
	"github.com/wso2/identity-account-fusion/internal/system/client"
	"github.com/wso2/identity-account-fusion/internal/system/errors"
	"github.com/wso2/identity-account-fusion/internal/system/log"
)

func TestMain(m *testing.M) {
	_ = log.Init("ERROR")
	os.Exit(m.Run())
}

type fakePlatform struct {
	accounts   map[string]client.Account
	correlated map[string]string
	failOn     map[string]bool
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		accounts:   map[string]client.Account{},
		correlated: map[string]string{},
		failOn:     map[string]bool{},
	}
}

func (f *fakePlatform) GetAccount(_ context.Context, accountID string) (*client.Account, error) {
	account, ok := f.accounts[accountID]
	if !ok {
		return nil, errors.NewClientError(errors.ACCOUNT_NOT_FOUND)
	}
	return &account, nil
}

func (f *fakePlatform) CorrelateAccount(_ context.Context, accountID, identityID string) error {
	if f.failOn[accountID] {
		return errors.NewServerError(errors.CORRELATE_ACCOUNT_FAILED,
			fmt.Errorf("simulated failure"))
	}
	f.correlated[accountID] = identityID
	return nil
}

func fusionWith(accountIDs ...string) *model.FusionAccount {
	return &model.FusionAccount{UniqueID: "jdoe", AccountIDs: accountIDs}
}

func TestReconcile_CorrelatesUncorrelatedAccounts(t *testing.T) {
	platform := newFakePlatform()
	platform.accounts["acc-1"] = client.Account{ID: "acc-1", Uncorrelated: true}
	platform.accounts["acc-2"] = client.Account{ID: "acc-2", Uncorrelated: true}

	manager := NewManager(platform)
	known := map[string]struct{}{}
	linked := manager.Reconcile(context.Background(), fusionWith("acc-1", "acc-2"), "id-9", known)

	require.Len(t, linked, 2)
	assert.Equal(t, "id-9", platform.correlated["acc-1"])
	assert.Equal(t, "id-9", platform.correlated["acc-2"])
	assert.Contains(t, known, "acc-1")
	assert.Contains(t, known, "acc-2")
	assert.EqualValues(t, 2, manager.Count())
}

func TestReconcile_SkipsAccountsAlreadyKnown(t *testing.T) {
	platform := newFakePlatform()
	manager := NewManager(platform)

	known := map[string]struct{}{"acc-1": {}}
	linked := manager.Reconcile(context.Background(), fusionWith("acc-1"), "id-9", known)

	assert.Empty(t, linked)
	assert.Empty(t, platform.correlated)
	assert.EqualValues(t, 0, manager.Count())
}

func TestReconcile_MissingAccountLoggedAndSkipped(t *testing.T) {
	platform := newFakePlatform()
	platform.accounts["acc-2"] = client.Account{ID: "acc-2", Uncorrelated: true}

	manager := NewManager(platform)
	known := map[string]struct{}{}
	linked := manager.Reconcile(context.Background(), fusionWith("acc-gone", "acc-2"), "id-9", known)

	require.Len(t, linked, 1)
	assert.Equal(t, "acc-2", linked[0].ID)
	assert.NotContains(t, known, "acc-gone")
}

func TestReconcile_FailedCorrelationDoesNotAbortRemaining(t *testing.T) {
	platform := newFakePlatform()
	platform.accounts["acc-1"] = client.Account{ID: "acc-1", Uncorrelated: true}
	platform.accounts["acc-2"] = client.Account{ID: "acc-2", Uncorrelated: true}
	platform.failOn["acc-1"] = true

	manager := NewManager(platform)
	known := map[string]struct{}{}
	linked := manager.Reconcile(context.Background(), fusionWith("acc-1", "acc-2"), "id-9", known)

	require.Len(t, linked, 1)
	assert.Equal(t, "acc-2", linked[0].ID)
	assert.NotContains(t, known, "acc-1")
	assert.EqualValues(t, 1, manager.Count())
}

func TestReconcile_AlreadyLinkedAccountOnlyRefreshesKnownSet(t *testing.T) {
	platform := newFakePlatform()
	platform.accounts["acc-1"] = client.Account{ID: "acc-1", IdentityID: "id-9"}

	manager := NewManager(platform)
	known := map[string]struct{}{}
	linked := manager.Reconcile(context.Background(), fusionWith("acc-1"), "id-9", known)

	assert.Empty(t, linked)
	assert.Empty(t, platform.correlated)
	assert.Contains(t, known, "acc-1")
}

func TestReconcile_ForeignOwnedAccountNeverCorrelated(t *testing.T) {
	platform := newFakePlatform()
	platform.accounts["acc-1"] = client.Account{ID: "acc-1", IdentityID: "id-other"}

	manager := NewManager(platform)
	known := map[string]struct{}{}
	linked := manager.Reconcile(context.Background(), fusionWith("acc-1"), "id-9", known)

	assert.Empty(t, linked)
	assert.Empty(t, platform.correlated)
	assert.NotContains(t, known, "acc-1")
}

func TestLogBatch_ResetsCounter(t *testing.T) {
	platform := newFakePlatform()
	platform.accounts["acc-1"] = client.Account{ID: "acc-1", Uncorrelated: true}

	manager := NewManager(platform)
	manager.Reconcile(context.Background(), fusionWith("acc-1"), "id-9", map[string]struct{}{})
	require.EqualValues(t, 1, manager.Count())

	manager.LogBatch(1)
	assert.EqualValues(t, 0, manager.Count())
}
