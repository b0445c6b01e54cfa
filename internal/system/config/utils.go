/*
 * Copyright (c) 2025, WSO2 LLC. (http://www.wso2.com).
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

import (
	"os"
	"path"

	"gopkg.in/yaml.v2"

	"github.com/wso2/identity-account-fusion/internal/system/constants"
	"github.com/wso2/identity-account-fusion/internal/system/errors"
)

// LoadConfig reads the deployment file, expanding ${ENV} references.
func LoadConfig(fusionHome, filePath string) (*Config, error) {
	file, err := os.ReadFile(path.Join(fusionHome, filePath))
	if err != nil {
		return nil, err
	}

	expanded := os.ExpandEnv(string(file))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Queue.RequestsPerSecond <= 0 {
		cfg.Queue.RequestsPerSecond = constants.DefaultRequestsPerSecond
	}
	if cfg.Queue.MaxConcurrentRequests <= 0 {
		cfg.Queue.MaxConcurrentRequests = constants.DefaultMaxConcurrentRequests
	}
	if cfg.Queue.MaxRetries <= 0 {
		cfg.Queue.MaxRetries = constants.DefaultMaxRetries
	}
	if cfg.Merging.DefaultStrategy == "" {
		cfg.Merging.DefaultStrategy = constants.MergeStrategyFirst
	}
	if cfg.Merging.Delimiter == "" {
		cfg.Merging.Delimiter = constants.MultiValueDelimiter
	}
	if cfg.Fusion.UIDScope == "" {
		cfg.Fusion.UIDScope = constants.ScopeSource
	}
	if cfg.Merging.AttributeMerge == "" {
		cfg.Merging.AttributeMerge = constants.AttributeMergePerAttribute
	}
	if cfg.Log.LogLevel == "" {
		cfg.Log.LogLevel = "INFO"
	}
}

// Validate enforces the settings without which a run cannot start. A
// missing source owner is a fatal configuration error, surfaced here
// rather than mid-run.
func Validate(cfg *Config) error {
	if cfg.Fusion.SourceName == "" {
		return errors.NewClientErrorWithDescription(errors.INVALID_CONFIGURATION,
			"fusion.source_name is required")
	}
	if cfg.Fusion.OwnerID == "" {
		return errors.NewClientError(errors.SOURCE_OWNER_MISSING)
	}
	if cfg.Fusion.UIDScope != constants.ScopeTenant && cfg.Fusion.UIDScope != constants.ScopeSource {
		return errors.NewClientErrorWithDescription(errors.INVALID_CONFIGURATION,
			"fusion.uid_scope must be 'tenant' or 'source'")
	}
	if cfg.Merging.AttributeMerge != constants.AttributeMergeGlobal &&
		cfg.Merging.AttributeMerge != constants.AttributeMergePerAttribute {
		return errors.NewClientErrorWithDescription(errors.INVALID_CONFIGURATION,
			"merging.attribute_merge must be 'global' or 'per_attribute'")
	}
	if !constants.AllowedMergeStrategies[cfg.Merging.DefaultStrategy] {
		return errors.NewClientErrorWithDescription(errors.INVALID_CONFIGURATION,
			"merging.default_strategy must be one of first, source, multi, concatenate")
	}
	for _, rule := range cfg.Merging.Rules {
		if rule.Target == "" {
			return errors.NewClientErrorWithDescription(errors.INVALID_CONFIGURATION,
				"merging rule without a target attribute")
		}
		if constants.ReservedAttributes[rule.Target] {
			return errors.NewClientErrorWithDescription(errors.INVALID_CONFIGURATION,
				"merging rule may not target reserved attribute "+rule.Target)
		}
		if rule.Strategy != "" && !constants.AllowedMergeStrategies[rule.Strategy] {
			return errors.NewClientErrorWithDescription(errors.INVALID_CONFIGURATION,
				"invalid merge strategy for attribute "+rule.Target)
		}
		if rule.Strategy == constants.MergeStrategySource && rule.Source == "" {
			return errors.NewClientErrorWithDescription(errors.INVALID_CONFIGURATION,
				"merge strategy 'source' requires a source name for attribute "+rule.Target)
		}
	}
	return nil
}
