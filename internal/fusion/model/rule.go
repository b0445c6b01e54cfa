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

package model

// MergingRule is the per-fusion-attribute merge configuration.
type MergingRule struct {
	// Target is the fusion attribute this rule produces.
	Target string
	// SourceAttributes maps a source name to the candidate attribute
	// names on that source's accounts, tried in order.
	SourceAttributes map[string][]string
	// Source names the one source consulted under the "source" strategy.
	Source string
	// Strategy is one of first, source, multi, concatenate.
	Strategy string
	// Threshold overrides the per-attribute similarity threshold when > 0.
	Threshold int
}

// AttributesFor returns the candidate source attribute names the rule maps
// for the given source. When the rule names none, the target attribute
// name itself is the fallback mapping.
func (r *MergingRule) AttributesFor(source string) []string {
	if attrs, ok := r.SourceAttributes[source]; ok && len(attrs) > 0 {
		return attrs
	}
	return []string{r.Target}
}

// SimilarityMatch is the result of comparing an uncorrelated account
// against one candidate identity.
type SimilarityMatch struct {
	IdentityID string
	// Scores maps compared attribute name to its [0,100] score. Under
	// global-threshold mode only Overall is populated.
	Scores  map[string]int
	Overall int
}

// Identical reports whether every compared attribute scored exactly 100.
func (m *SimilarityMatch) Identical() bool {
	if len(m.Scores) == 0 {
		return m.Overall == 100
	}
	for _, score := range m.Scores {
		if score != 100 {
			return false
		}
	}
	return true
}

// ReviewCase bundles a pending human-adjudication request for an
// ambiguous match. Owned by the adjudication workflow once created.
type ReviewCase struct {
	AccountID string
	// Attributes are the account's normalized comparable attributes.
	Attributes AttributeBag
	// Matches are the surviving candidates, ranked best first.
	Matches []SimilarityMatch
	// ReviewerID is the identity the case is assigned to.
	ReviewerID string
}
