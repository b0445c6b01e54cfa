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

// Package report renders per-account match explanations and aggregates
// the non-fatal errors of a run into one end-of-run notification.
package report

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/wso2/identity-account-fusion/internal/fusion/model"
)

// Analysis renders a textual explanation of how an uncorrelated account
// was matched, one line per candidate, ranked best first.
func Analysis(accountID string, attributes model.AttributeBag, matches []model.SimilarityMatch) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Account %s compared on %s.\n", accountID, attributeList(attributes))

	if len(matches) == 0 {
		b.WriteString("No candidate identity survived the similarity thresholds.\n")
		return b.String()
	}
	for _, match := range matches {
		if len(match.Scores) == 0 {
			fmt.Fprintf(&b, "Identity %s: overall score %d.\n", match.IdentityID, match.Overall)
			continue
		}
		fmt.Fprintf(&b, "Identity %s: overall score %d (%s).\n",
			match.IdentityID, match.Overall, scoreList(match.Scores))
	}
	return b.String()
}

func attributeList(attributes model.AttributeBag) string {
	if len(attributes) == 0 {
		return "no comparable attributes"
	}
	names := make([]string, 0, len(attributes))
	for name := range attributes {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func scoreList(scores map[string]int) string {
	names := make([]string, 0, len(scores))
	for name := range scores {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%d", name, scores[name]))
	}
	return strings.Join(parts, ", ")
}

// Accumulator collects non-fatal run errors for the end-of-run summary.
// Safe under concurrent batch processing.
type Accumulator struct {
	mu      sync.Mutex
	entries []string
}

// NewAccumulator creates an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Add records one non-fatal failure with the stage it happened in.
func (a *Accumulator) Add(stage string, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, fmt.Sprintf("%s: %v", stage, err))
}

// Count reports how many failures were recorded.
func (a *Accumulator) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}

// Summary renders the accumulated failures as the notification body,
// empty when the run was clean.
func (a *Accumulator) Summary() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.entries) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "The fusion run finished with %d non-fatal issue(s):\n", len(a.entries))
	for _, entry := range a.entries {
		b.WriteString(" - ")
		b.WriteString(entry)
		b.WriteByte('\n')
	}
	return b.String()
}
