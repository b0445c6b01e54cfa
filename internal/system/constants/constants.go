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

package constants

// Lifecycle statuses carried by a fusion account.
const (
	StatusEdited    = "edited"    // attributes were manually edited through an edit form
	StatusOrphan    = "orphan"    // has no contributing accounts left
	StatusUnmatched = "unmatched" // created new, no candidate identity matched
	StatusAuto      = "auto"      // appended to an identity by automatic identical-match merge
	StatusReviewer  = "reviewer"  // assignment decided by a human reviewer
)

// Merge strategies for a single fusion attribute.
const (
	MergeStrategyFirst       = "first"
	MergeStrategySource      = "source"
	MergeStrategyMulti       = "multi"
	MergeStrategyConcatenate = "concatenate"
)

// Similarity threshold enforcement modes.
const (
	AttributeMergeGlobal       = "global"
	AttributeMergePerAttribute = "per_attribute"
)

// AllowedMergeStrategies defines the valid set of merge strategies.
var AllowedMergeStrategies = map[string]bool{
	MergeStrategyFirst:       true, // First non-empty value across sources in precedence order.
	MergeStrategySource:      true, // Only the value from the one source named in the rule.
	MergeStrategyMulti:       true, // All values, deduplicated and sorted, as a multi-valued attribute.
	MergeStrategyConcatenate: true, // Same as multi, then joined into one delimited string.
}

// Fusion attribute names owned by the account lifecycle. The merge resolver
// never writes these.
const (
	AttrUniqueID = "uniqueID"
	AttrUUID     = "uuid"
	AttrStatuses = "statuses"
	AttrActions  = "actions"
	AttrAccounts = "accounts"
	AttrHistory  = "history"
	AttrReviews  = "reviews"
	AttrSources  = "sources"
)

// ReservedAttributes is the set of lifecycle-owned fusion attribute names.
var ReservedAttributes = map[string]bool{
	AttrUniqueID: true,
	AttrUUID:     true,
	AttrStatuses: true,
	AttrActions:  true,
	AttrAccounts: true,
	AttrHistory:  true,
	AttrReviews:  true,
	AttrSources:  true,
}

// Scope of uniqueID / UUID uniqueness enforcement.
const (
	ScopeTenant = "tenant"
	ScopeSource = "source"
)

// Execution queue priorities, highest first.
const (
	PriorityCritical = 0
	PriorityHigh     = 1
	PriorityMedium   = 2
	PriorityLow      = 3
)

const (
	// MaxPageSize is the page-size ceiling the platform list APIs enforce.
	MaxPageSize = 250

	// DefaultBatchSize is how many accounts a processing batch holds.
	DefaultBatchSize = 50

	// DefaultChunkSize is how many accounts of a batch run concurrently.
	DefaultChunkSize = 25

	// DefaultMaxRetries bounds requeues of a failed queue task.
	DefaultMaxRetries = 5

	// DefaultRequestsPerSecond is the outbound rate budget.
	DefaultRequestsPerSecond = 10

	// DefaultMaxConcurrentRequests caps in-flight remote calls.
	DefaultMaxConcurrentRequests = 10
)

const (
	// MultiValueDelimiter joins concatenated attribute values.
	MultiValueDelimiter = " "

	SpaceSeparator = " "
)
