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

package model

import (
	"time"

	"github.com/wso2/identity-account-fusion/internal/system/constants"
)

// SourceAccount is a raw account snapshot from one contributing system.
// Immutable per run; re-fetched on every run.
type SourceAccount struct {
	ID         string       `json:"id"`
	Source     string       `json:"source"`
	IdentityID string       `json:"identity_id"` // empty means uncorrelated
	Attributes AttributeBag `json:"attributes"`
	Modified   time.Time    `json:"modified"`
}

// Uncorrelated reports whether the account is linked to no identity yet.
func (a *SourceAccount) Uncorrelated() bool {
	return a.IdentityID == ""
}

// HistoryEntry is one dated message from the fusion account's append-only
// history log.
type HistoryEntry struct {
	Date    time.Time `json:"date"`
	Message string    `json:"message"`
}

// FusionAccount is the deduplicated identity record merging attributes
// from several source accounts. Never physically deleted by the engine;
// disabling is a status mutation, not removal.
type FusionAccount struct {
	UniqueID   string         `json:"uniqueID"`
	UUID       string         `json:"uuid"`
	IdentityID string         `json:"identity_id"`
	AccountIDs []string       `json:"accounts"` // ordered contributing source account ids
	Statuses   []string       `json:"statuses"`
	History    []HistoryEntry `json:"history"`
	Attributes AttributeBag   `json:"attributes"`
}

// HasStatus reports whether the account carries the given lifecycle tag.
func (f *FusionAccount) HasStatus(status string) bool {
	for _, s := range f.Statuses {
		if s == status {
			return true
		}
	}
	return false
}

// AddStatus appends the status tag unless already present.
func (f *FusionAccount) AddStatus(status string) {
	if !f.HasStatus(status) {
		f.Statuses = append(f.Statuses, status)
	}
}

// RemoveStatus drops the status tag if present.
func (f *FusionAccount) RemoveStatus(status string) {
	kept := f.Statuses[:0]
	for _, s := range f.Statuses {
		if s != status {
			kept = append(kept, s)
		}
	}
	f.Statuses = kept
}

// AppendHistory records a dated message on the append-only history log.
func (f *FusionAccount) AppendHistory(message string) {
	f.History = append(f.History, HistoryEntry{
		Date:    time.Now().UTC(),
		Message: message,
	})
}

// HasAccount reports whether the source account id is already in the
// contributing list.
func (f *FusionAccount) HasAccount(accountID string) bool {
	for _, id := range f.AccountIDs {
		if id == accountID {
			return true
		}
	}
	return false
}

// AddAccount appends the source account id unless already contributing.
func (f *FusionAccount) AddAccount(accountID string) {
	if !f.HasAccount(accountID) {
		f.AccountIDs = append(f.AccountIDs, accountID)
	}
}

// IsReserved reports whether the attribute name is lifecycle-owned.
func IsReserved(attribute string) bool {
	return constants.ReservedAttributes[attribute]
}
