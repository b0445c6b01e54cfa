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

// Package merge consolidates attribute values from multiple contributing
// accounts into one fusion-account attribute set.
package merge

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wso2/identity-account-fusion/internal/fusion/model"
	"github.com/wso2/identity-account-fusion/internal/system/config"
	"github.com/wso2/identity-account-fusion/internal/system/constants"
	"github.com/wso2/identity-account-fusion/internal/system/log"
)

// Resolver computes the merged attribute mapping for a fusion account from
// its current contributing source accounts.
type Resolver struct {
	sources         []string
	rules           map[string]model.MergingRule
	defaultStrategy string
	delimiter       string
}

// NewResolver builds a resolver from the merging configuration.
func NewResolver(cfg config.MergingConfig) *Resolver {
	rules := make(map[string]model.MergingRule, len(cfg.Rules))
	for _, rc := range cfg.Rules {
		strategy := rc.Strategy
		if strategy == "" {
			strategy = cfg.DefaultStrategy
		}
		rules[rc.Target] = model.MergingRule{
			Target:           rc.Target,
			SourceAttributes: rc.SourceAttributes,
			Source:           rc.Source,
			Strategy:         strategy,
			Threshold:        rc.Threshold,
		}
	}
	delimiter := cfg.Delimiter
	if delimiter == "" {
		delimiter = constants.MultiValueDelimiter
	}
	return &Resolver{
		sources:         cfg.Sources,
		rules:           rules,
		defaultStrategy: cfg.DefaultStrategy,
		delimiter:       delimiter,
	}
}

// Rules exposes the configured per-attribute rules, keyed by target.
func (r *Resolver) Rules() map[string]model.MergingRule {
	return r.rules
}

// Sources returns the contributing source names in precedence order.
func (r *Resolver) Sources() []string {
	return r.sources
}

// Resolve produces the merged attribute mapping for the given contributing
// accounts. Reserved lifecycle attributes are never produced; the computed
// `sources` summary is the one lifecycle attribute this component owns.
func (r *Resolver) Resolve(accounts []model.SourceAccount) model.AttributeBag {
	bySource := r.groupBySource(accounts)
	merged := make(model.AttributeBag)

	for _, target := range r.targets(accounts) {
		value := r.resolveAttribute(target, bySource)
		if !value.IsEmpty() {
			merged[target] = value
		}
	}

	if summary := r.sourcesSummary(bySource); summary != "" {
		merged[constants.AttrSources] = model.ScalarValue(summary)
	}
	return merged
}

// resolveAttribute applies the attribute's rule, or the default strategy,
// across sources in precedence order.
func (r *Resolver) resolveAttribute(target string, bySource map[string][]model.SourceAccount) model.Value {
	rule, hasRule := r.rules[target]
	strategy := r.defaultStrategy
	if hasRule {
		strategy = rule.Strategy
	}

	switch strategy {
	case constants.MergeStrategyFirst:
		return scalarize(r.firstValue(target, rule, hasRule, bySource, ""))
	case constants.MergeStrategySource:
		return scalarize(r.firstValue(target, rule, hasRule, bySource, rule.Source))
	case constants.MergeStrategyMulti:
		return model.ListValue(r.collectAll(target, rule, hasRule, bySource)...)
	case constants.MergeStrategyConcatenate:
		values := r.collectAll(target, rule, hasRule, bySource)
		if len(values) == 0 {
			return model.NoValue
		}
		return model.ScalarValue(strings.Join(values, r.delimiter))
	default:
		return scalarize(r.firstValue(target, rule, hasRule, bySource, ""))
	}
}

// firstValue scans sources in precedence order and returns the first
// non-empty collected value. When only is non-empty the scan consults
// solely that source and stops once it is reached, even if empty.
func (r *Resolver) firstValue(target string, rule model.MergingRule, hasRule bool,
	bySource map[string][]model.SourceAccount, only string,
) model.Value {
	for _, source := range r.sources {
		if only != "" && source != only {
			continue
		}
		for _, account := range bySource[source] {
			if value := r.collectFrom(&account, target, rule, hasRule); !value.IsEmpty() {
				return value
			}
		}
		if only != "" {
			// Named source reached; scanning stops regardless of result.
			return model.NoValue
		}
	}
	return model.NoValue
}

// collectAll accumulates every value from every source into a
// deduplicated, alphabetically sorted set.
func (r *Resolver) collectAll(target string, rule model.MergingRule, hasRule bool,
	bySource map[string][]model.SourceAccount,
) []string {
	seen := make(map[string]bool)
	var values []string
	for _, source := range r.sources {
		for _, account := range bySource[source] {
			value := r.collectFrom(&account, target, rule, hasRule)
			for _, item := range r.split(value) {
				if item == "" || seen[item] {
					continue
				}
				seen[item] = true
				values = append(values, item)
			}
		}
	}
	sort.Strings(values)
	return values
}

// collectFrom reads the configured source attribute value(s) off one
// account. An account with no attribute mapping at all is logged and
// skipped; it never aborts the resolution.
func (r *Resolver) collectFrom(account *model.SourceAccount, target string,
	rule model.MergingRule, hasRule bool,
) model.Value {
	if account.Attributes == nil {
		log.GetLogger().Warn("Contributing account has no attribute mapping; skipping",
			log.String("account_id", account.ID),
			log.String("source", account.Source))
		return model.NoValue
	}
	if hasRule {
		return account.Attributes.FirstNonEmpty(rule.AttributesFor(account.Source)...)
	}
	return account.Attributes.Get(target)
}

// split flattens a collected value into its component values, splitting
// any delimited multi-value string. Nested splits flatten out.
func (r *Resolver) split(value model.Value) []string {
	var out []string
	for _, item := range value.List() {
		for _, part := range strings.Split(item, r.delimiter) {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out
}

// sourcesSummary renders the contributing sources bracket-delimited,
// space-joined, in configured source order.
func (r *Resolver) sourcesSummary(bySource map[string][]model.SourceAccount) string {
	var parts []string
	for _, source := range r.sources {
		if len(bySource[source]) > 0 {
			parts = append(parts, fmt.Sprintf("[%s]", source))
		}
	}
	return strings.Join(parts, constants.SpaceSeparator)
}

func (r *Resolver) groupBySource(accounts []model.SourceAccount) map[string][]model.SourceAccount {
	bySource := make(map[string][]model.SourceAccount)
	for _, account := range accounts {
		bySource[account.Source] = append(bySource[account.Source], account)
	}
	return bySource
}

// targets enumerates the attributes to resolve: every rule target plus
// every non-reserved attribute observed on a contributing account.
func (r *Resolver) targets(accounts []model.SourceAccount) []string {
	seen := make(map[string]bool)
	var targets []string
	for target := range r.rules {
		if model.IsReserved(target) {
			continue
		}
		seen[target] = true
		targets = append(targets, target)
	}
	for _, account := range accounts {
		for name := range account.Attributes {
			if seen[name] || model.IsReserved(name) {
				continue
			}
			seen[name] = true
			targets = append(targets, name)
		}
	}
	sort.Strings(targets)
	return targets
}

// scalarize collapses a single collected value under first/source into a
// scalar rather than a one-element collection.
func scalarize(value model.Value) model.Value {
	if value.Kind() == model.List {
		items := value.List()
		if len(items) == 1 {
			return model.ScalarValue(items[0])
		}
	}
	return value
}
