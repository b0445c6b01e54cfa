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

// Package refresh decides, once per run, whether a fusion account's merged
// attributes are stale and must be recomputed.
package refresh

import (
	"time"

	"github.com/wso2/identity-account-fusion/internal/fusion/model"
	"github.com/wso2/identity-account-fusion/internal/system/constants"
	"github.com/wso2/identity-account-fusion/internal/system/log"
)

// Facts are the inputs the planner evaluates for one fusion account.
type Facts struct {
	// KnownAccountIDs is the owning identity's live contributing-account
	// list, after correlation repair.
	KnownAccountIDs []string
	// ConfigModified is the source configuration's last-modified time.
	ConfigModified time.Time
	// AccountModified maps contributing account id to its last-modified
	// time.
	AccountModified map[string]time.Time
	// LastAggregation is the last successful aggregation time recorded
	// for the fusion source.
	LastAggregation time.Time
}

// Decision is advisory to the merge resolver: a required refresh triggers
// attribute recomputation, and a recompute failure retains the prior
// attribute set.
type Decision struct {
	Required bool
	Reason   string
}

// Plan evaluates the refresh rules for one fusion account. Membership
// drift clears a manual `edited` status, because external changes
// supersede a manual edit; that mutation happens here.
func Plan(account *model.FusionAccount, facts Facts) Decision {

	// Nothing to merge: an empty contributing list never needs a refresh,
	// whatever else changed.
	if len(facts.KnownAccountIDs) == 0 {
		return Decision{Reason: "no contributing accounts"}
	}

	// Rule A: membership drift. The union being strictly larger than the
	// smaller of the two lists means accounts joined or left.
	if membershipDrifted(account.AccountIDs, facts.KnownAccountIDs) {
		if account.HasStatus(constants.StatusEdited) {
			account.RemoveStatus(constants.StatusEdited)
			account.AppendHistory("Removed edited status: contributing accounts changed")
			log.GetLogger().Debug("Cleared edited status on membership drift",
				log.String("uniqueID", account.UniqueID))
		}
		return Decision{Required: true, Reason: "contributing account membership changed"}
	}

	// Rule C: time-based checks only apply to edited or orphaned
	// accounts; a stable, untouched account is skipped.
	if !account.HasStatus(constants.StatusEdited) && !account.HasStatus(constants.StatusOrphan) {
		return Decision{Reason: "membership stable"}
	}

	if facts.ConfigModified.After(facts.LastAggregation) {
		return Decision{Required: true, Reason: "source configuration changed since last aggregation"}
	}
	for id, modified := range facts.AccountModified {
		if modified.After(facts.LastAggregation) {
			return Decision{Required: true, Reason: "account " + id + " modified since last aggregation"}
		}
	}
	return Decision{Reason: "merged attributes up to date"}
}

// membershipDrifted reports whether the id sets differ: the union is
// strictly larger than the smaller of the two lists, which holds exactly
// when an account joined or left.
func membershipDrifted(oldIDs, newIDs []string) bool {
	union := make(map[string]bool, len(oldIDs)+len(newIDs))
	for _, id := range oldIDs {
		union[id] = true
	}
	for _, id := range newIDs {
		union[id] = true
	}

	smaller := len(oldIDs)
	if len(newIDs) < smaller {
		smaller = len(newIDs)
	}
	return len(union) > smaller
}
