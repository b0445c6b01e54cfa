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

package config

type LogConfig struct {
	LogLevel string `yaml:"log_level"`
}

type AuthServerConfig struct {
	TokenEndpoint string `yaml:"token_endpoint"`
	ClientID      string `yaml:"client_id"`
	ClientSecret  string `yaml:"client_secret"`
}

type PlatformConfig struct {
	Host        string `yaml:"host"`
	Port        string `yaml:"port"`
	TenantID    string `yaml:"tenant_id"`
	CallTimeout int    `yaml:"call_timeout_seconds"`
}

// MergingRuleConfig is the per-attribute merge configuration.
type MergingRuleConfig struct {
	// Target is the fusion attribute the rule produces.
	Target string `yaml:"target"`
	// SourceAttributes maps a source name to the candidate attribute names
	// on that source's accounts, tried in order.
	SourceAttributes map[string][]string `yaml:"source_attributes"`
	// Source names the one source consulted under the "source" strategy.
	Source string `yaml:"source"`
	// Strategy is one of first, source, multi, concatenate.
	Strategy string `yaml:"strategy"`
	// Threshold overrides the per-attribute similarity threshold when > 0.
	Threshold int `yaml:"threshold"`
}

type MergingConfig struct {
	Enabled bool `yaml:"enabled"`
	// Sources lists contributing source names in precedence order.
	Sources []string `yaml:"sources"`
	// DefaultStrategy applies to attributes that carry no explicit rule.
	DefaultStrategy string              `yaml:"default_strategy"`
	Rules           []MergingRuleConfig `yaml:"rules"`
	// AttributeMerge selects threshold enforcement: "global" compares the
	// mean score against GlobalThreshold, "per_attribute" rejects a
	// candidate on any attribute below its threshold.
	AttributeMerge        string `yaml:"attribute_merge"`
	GlobalThreshold       int    `yaml:"global_threshold"`
	PerAttributeThreshold int    `yaml:"per_attribute_threshold"`
	// MergeIdentical automatically appends accounts whose every compared
	// attribute scores 100 against an existing identity.
	MergeIdentical bool `yaml:"merge_identical"`
	// Delimiter joins concatenated multi-values; defaults to a space.
	Delimiter string `yaml:"delimiter"`
}

type FusionConfig struct {
	// SourceName is the name of the fusion source on the platform.
	SourceName string `yaml:"source_name"`
	// OwnerID is the identity that receives run notifications. Required.
	OwnerID string `yaml:"owner_id"`
	// ReviewerID receives review cases. Required when review is reachable.
	ReviewerID string `yaml:"reviewer_id"`
	// UIDScope is "tenant" or "source" uniqueness for uniqueID and UUID.
	UIDScope string `yaml:"uid_scope"`
	// ForceAggregation triggers source aggregations before the run.
	ForceAggregation bool `yaml:"force_aggregation"`
}

type QueueConfig struct {
	RequestsPerSecond     int `yaml:"requests_per_second"`
	MaxConcurrentRequests int `yaml:"max_concurrent_requests"`
	MaxRetries            int `yaml:"max_retries"`
	// StatsInterval is the period, in seconds, between statistics logs.
	// Zero disables periodic logging.
	StatsInterval int `yaml:"stats_interval_seconds"`
}

type Config struct {
	Log        LogConfig        `yaml:"log"`
	AuthServer AuthServerConfig `yaml:"auth_server"`
	Platform   PlatformConfig   `yaml:"platform"`
	Fusion     FusionConfig     `yaml:"fusion"`
	Merging    MergingConfig    `yaml:"merging"`
	Queue      QueueConfig      `yaml:"queue"`
}
