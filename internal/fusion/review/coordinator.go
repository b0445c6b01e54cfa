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

// Package review matches uncorrelated source accounts against known
// identities and decides between automatic merge, human review, and a
// brand-new fusion account.
package review

import (
	"fmt"
	"sort"

	"github.com/wso2/identity-account-fusion/internal/fusion/model"
	"github.com/wso2/identity-account-fusion/internal/fusion/similarity"
	"github.com/wso2/identity-account-fusion/internal/system/config"
	"github.com/wso2/identity-account-fusion/internal/system/constants"
	"github.com/wso2/identity-account-fusion/internal/system/errors"
)

// Candidate is one known identity offered for matching.
type Candidate struct {
	IdentityID string
	Attributes model.AttributeBag
}

// Decision is the coordinator's verdict for one uncorrelated account.
type Decision int

const (
	// DecisionNew finalizes the account as a new unmatched fusion account.
	DecisionNew Decision = iota
	// DecisionAutoMerge appends the account to an identical identity.
	DecisionAutoMerge
	// DecisionReview defers to a human reviewer.
	DecisionReview
)

// Outcome carries the decision plus whatever artifact it produced.
type Outcome struct {
	Decision Decision
	// Match is the identical match driving an auto merge.
	Match *model.SimilarityMatch
	// Case is the pending review case, set only under DecisionReview.
	Case *model.ReviewCase
	// Matches are all surviving candidates, ranked best first.
	Matches []model.SimilarityMatch
}

// Coordinator classifies uncorrelated accounts against known identities
// using the configured merge rules and similarity thresholds.
type Coordinator struct {
	rules                 map[string]model.MergingRule
	targets               []string
	globalMode            bool
	globalThreshold       int
	perAttributeThreshold int
	mergeIdentical        bool
	reviewerID            string
}

// NewCoordinator builds a coordinator from the merging configuration.
func NewCoordinator(cfg config.MergingConfig, reviewerID string) *Coordinator {
	rules := make(map[string]model.MergingRule, len(cfg.Rules))
	targets := make([]string, 0, len(cfg.Rules))
	for _, rc := range cfg.Rules {
		if model.IsReserved(rc.Target) {
			continue
		}
		rules[rc.Target] = model.MergingRule{
			Target:           rc.Target,
			SourceAttributes: rc.SourceAttributes,
			Source:           rc.Source,
			Strategy:         rc.Strategy,
			Threshold:        rc.Threshold,
		}
		targets = append(targets, rc.Target)
	}
	sort.Strings(targets)

	return &Coordinator{
		rules:                 rules,
		targets:               targets,
		globalMode:            cfg.AttributeMerge == constants.AttributeMergeGlobal,
		globalThreshold:       cfg.GlobalThreshold,
		perAttributeThreshold: cfg.PerAttributeThreshold,
		mergeIdentical:        cfg.MergeIdentical,
		reviewerID:            reviewerID,
	}
}

// Comparable builds the account's normalized comparable attribute set:
// for each configured target, the first non-empty mapped source value,
// lowercased with diacritics and punctuation stripped.
func (c *Coordinator) Comparable(account *model.SourceAccount) model.AttributeBag {
	comparable := make(model.AttributeBag, len(c.targets))
	for _, target := range c.targets {
		rule := c.rules[target]
		raw := account.Attributes.FirstNonEmpty(rule.AttributesFor(account.Source)...)
		if raw.IsEmpty() {
			continue
		}
		if normalized := similarity.Comparable(raw.First()); normalized != "" {
			comparable[target] = model.ScalarValue(normalized)
		}
	}
	return comparable
}

// Classify evaluates the account against every candidate and decides.
// An identical match auto-merges when enabled; surviving similar matches
// become a review case; no matches means a new fusion account. A review
// case without a configured reviewer is a fatal configuration error.
func (c *Coordinator) Classify(account *model.SourceAccount, candidates []Candidate) (*Outcome, error) {
	comparable := c.Comparable(account)

	var matches []model.SimilarityMatch
	for _, candidate := range candidates {
		if match := c.evaluate(comparable, candidate); match != nil {
			matches = append(matches, *match)
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Overall > matches[j].Overall
	})

	if c.mergeIdentical {
		for i := range matches {
			if matches[i].Identical() {
				return &Outcome{
					Decision: DecisionAutoMerge,
					Match:    &matches[i],
					Matches:  matches,
				}, nil
			}
		}
	}

	if len(matches) > 0 {
		if c.reviewerID == "" {
			return nil, errors.NewClientErrorWithDescription(errors.REVIEWER_MISSING,
				fmt.Sprintf("Account %q has similar matches but no reviewer is configured.", account.ID))
		}
		return &Outcome{
			Decision: DecisionReview,
			Case: &model.ReviewCase{
				AccountID:  account.ID,
				Attributes: comparable,
				Matches:    matches,
				ReviewerID: c.reviewerID,
			},
			Matches: matches,
		}, nil
	}

	return &Outcome{Decision: DecisionNew}, nil
}

// verdict tags the result of one attribute comparison.
type verdict int

const (
	verdictSkip verdict = iota
	verdictScore
	verdictReject
)

// compareAttribute applies the short-circuit rule: both values absent is
// neutral, exactly one present rejects the candidate outright, both
// present is scored.
func compareAttribute(accountValue, candidateValue model.Value) (int, verdict) {
	a := accountValue.First()
	b := similarity.Comparable(candidateValue.First())
	switch {
	case a == "" && b == "":
		return 0, verdictSkip
	case a == "" || b == "":
		return 0, verdictReject
	default:
		return similarity.Percent(a, b), verdictScore
	}
}

// evaluate scores one candidate, nil when rejected.
func (c *Coordinator) evaluate(comparable model.AttributeBag, candidate Candidate) *model.SimilarityMatch {
	if c.globalMode {
		return c.evaluateGlobal(comparable, candidate)
	}
	return c.evaluatePerAttribute(comparable, candidate)
}

// evaluatePerAttribute rejects the candidate as soon as any compared
// attribute falls below its threshold. Overall annotates the mean of the
// compared scores for ranking.
func (c *Coordinator) evaluatePerAttribute(comparable model.AttributeBag,
	candidate Candidate,
) *model.SimilarityMatch {
	scores := make(map[string]int, len(c.targets))
	sum := 0

	for _, target := range c.targets {
		score, result := compareAttribute(comparable.Get(target), candidate.Attributes.Get(target))
		switch result {
		case verdictReject:
			return nil
		case verdictSkip:
			continue
		}
		threshold := c.perAttributeThreshold
		if rule := c.rules[target]; rule.Threshold > 0 {
			threshold = rule.Threshold
		}
		if score < threshold {
			return nil
		}
		scores[target] = score
		sum += score
	}
	if len(scores) == 0 {
		return nil
	}

	return &model.SimilarityMatch{
		IdentityID: candidate.IdentityID,
		Scores:     scores,
		Overall:    sum / len(scores),
	}
}

// evaluateGlobal compares the mean score against the one overall
// threshold. The mean divides by the number of configured comparable
// attributes, so a pair absent on both sides counts as zero toward it.
func (c *Coordinator) evaluateGlobal(comparable model.AttributeBag,
	candidate Candidate,
) *model.SimilarityMatch {
	if len(c.targets) == 0 {
		return nil
	}
	sum := 0
	compared := 0

	for _, target := range c.targets {
		score, result := compareAttribute(comparable.Get(target), candidate.Attributes.Get(target))
		switch result {
		case verdictReject:
			return nil
		case verdictSkip:
			continue
		}
		sum += score
		compared++
	}
	if compared == 0 {
		return nil
	}

	overall := sum / len(c.targets)
	if overall < c.globalThreshold {
		return nil
	}
	return &model.SimilarityMatch{IdentityID: candidate.IdentityID, Overall: overall}
}

// AutoMerge appends the account to the fusion account's contributing
// list. External evidence supersedes a manual edit, so an edited status
// is dropped; the caller forces a re-merge afterwards.
func AutoMerge(account *model.FusionAccount, accountID string) {
	account.AddAccount(accountID)
	account.AddStatus(constants.StatusAuto)
	if account.HasStatus(constants.StatusEdited) {
		account.RemoveStatus(constants.StatusEdited)
		account.AppendHistory(fmt.Sprintf(
			"Removed edited status: account %s auto-merged by identical match.", accountID))
	}
	account.AppendHistory(fmt.Sprintf("Auto-merged identical account %s.", accountID))
}
