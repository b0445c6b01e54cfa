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

// Package correlation repairs the links between fusion accounts and the
// source accounts they record as contributors.
package correlation

import (
	"context"
	"sync/atomic"

	"github.com/wso2/identity-account-fusion/internal/fusion/model"
	"github.com/wso2/identity-account-fusion/internal/system/client"
	"github.com/wso2/identity-account-fusion/internal/system/log"
)

// Platform is the slice of the platform client the manager needs.
type Platform interface {
	GetAccount(ctx context.Context, accountID string) (*client.Account, error)
	CorrelateAccount(ctx context.Context, accountID, identityID string) error
}

// Manager reconciles recorded contributing accounts against an identity's
// live account list and issues correlate calls for the unlinked ones. The
// correlation counter is run scoped and safe under concurrent batch
// processing.
type Manager struct {
	platform     Platform
	correlations atomic.Int64
}

// NewManager creates a correlation manager.
func NewManager(platform Platform) *Manager {
	return &Manager{platform: platform}
}

// Reconcile walks the fusion account's recorded contributing-account IDs
// and links every one the identity does not yet hold. knownIDs is the
// identity's live account-ID set and is extended in place as links are
// made. Newly linked accounts are returned so the caller can extend its
// working accumulator. A failure on one account is logged and the rest
// are still attempted.
func (m *Manager) Reconcile(ctx context.Context, account *model.FusionAccount,
	identityID string, knownIDs map[string]struct{},
) []client.Account {
	logger := log.GetLogger()
	var linked []client.Account

	for _, accountID := range account.AccountIDs {
		if _, ok := knownIDs[accountID]; ok {
			continue
		}

		source, err := m.platform.GetAccount(ctx, accountID)
		if err != nil {
			logger.Warn("Skipping unresolvable contributing account",
				log.String("accountId", accountID),
				log.String("uniqueId", account.UniqueID),
				log.Error(err))
			continue
		}

		switch {
		case source.IdentityID == identityID:
			// Already linked, the live list was just missing it.
			knownIDs[accountID] = struct{}{}
		case source.Uncorrelated || source.IdentityID == "":
			if err := m.platform.CorrelateAccount(ctx, accountID, identityID); err != nil {
				logger.Error("Failed to correlate contributing account",
					log.String("accountId", accountID),
					log.String("identityId", identityID),
					log.Error(err))
				continue
			}
			m.correlations.Add(1)
			source.IdentityID = identityID
			source.Uncorrelated = false
			knownIDs[accountID] = struct{}{}
			linked = append(linked, *source)
		default:
			logger.Warn("Contributing account is owned by another identity",
				log.String("accountId", accountID),
				log.String("identityId", source.IdentityID),
				log.String("uniqueId", account.UniqueID))
		}
	}
	return linked
}

// Count reports the correlate calls issued since the last reset.
func (m *Manager) Count() int64 {
	return m.correlations.Load()
}

// LogBatch logs the correlate calls issued during one batch and resets
// the counter for the next.
func (m *Manager) LogBatch(batch int) {
	count := m.correlations.Swap(0)
	if count > 0 {
		log.GetLogger().Info("Issued correlate calls during batch",
			log.Int("batch", batch), log.Int64("correlations", count))
	}
}
