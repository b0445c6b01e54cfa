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
	"strings"
	"time"

	"github.com/wso2/identity-account-fusion/internal/fusion/model"
	"github.com/wso2/identity-account-fusion/internal/system/client"
	"github.com/wso2/identity-account-fusion/internal/system/constants"
)

// historySeparator splits the date from the message in a rendered
// history entry.
const historySeparator = " | "

// ParseFusionAccount reads a fusion-source account back into the domain
// representation. Lifecycle attributes live alongside the merged ones in
// the platform's attribute map.
func ParseFusionAccount(account client.Account) model.FusionAccount {
	bag := model.BagFromRaw(account.Attributes)

	fusion := model.FusionAccount{
		UniqueID:   bag.Get(constants.AttrUniqueID).First(),
		UUID:       bag.Get(constants.AttrUUID).First(),
		IdentityID: account.IdentityID,
		AccountIDs: bag.Get(constants.AttrAccounts).List(),
		Statuses:   bag.Get(constants.AttrStatuses).List(),
		History:    parseHistory(bag.Get(constants.AttrHistory).List()),
		Attributes: model.AttributeBag{},
	}
	if fusion.UniqueID == "" {
		fusion.UniqueID = account.Name
	}

	for name, value := range bag {
		if !model.IsReserved(name) {
			fusion.Attributes[name] = value
		}
	}
	return fusion
}

// RenderFusionAccount flattens a fusion account into the platform's
// attribute map shape for output.
func RenderFusionAccount(fusion *model.FusionAccount) map[string]interface{} {
	out := make(map[string]interface{}, len(fusion.Attributes)+6)
	for name, value := range fusion.Attributes {
		if value.Kind() == model.List {
			out[name] = value.List()
		} else {
			out[name] = value.First()
		}
	}

	out[constants.AttrUniqueID] = fusion.UniqueID
	out[constants.AttrUUID] = fusion.UUID
	out[constants.AttrAccounts] = fusion.AccountIDs
	out[constants.AttrStatuses] = fusion.Statuses
	if len(fusion.History) > 0 {
		out[constants.AttrHistory] = renderHistory(fusion.History)
	}
	return out
}

func parseHistory(entries []string) []model.HistoryEntry {
	history := make([]model.HistoryEntry, 0, len(entries))
	for _, entry := range entries {
		date, message, found := strings.Cut(entry, historySeparator)
		if !found {
			history = append(history, model.HistoryEntry{Message: entry})
			continue
		}
		parsed, err := time.Parse(time.RFC3339, date)
		if err != nil {
			history = append(history, model.HistoryEntry{Message: entry})
			continue
		}
		history = append(history, model.HistoryEntry{Date: parsed, Message: message})
	}
	return history
}

func renderHistory(history []model.HistoryEntry) []string {
	entries := make([]string, 0, len(history))
	for _, entry := range history {
		entries = append(entries,
			entry.Date.UTC().Format(time.RFC3339)+historySeparator+entry.Message)
	}
	return entries
}
