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

package config

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/identity-account-fusion/internal/system/constants"
	"github.com/wso2/identity-account-fusion/internal/system/errors"
)

func validConfig() *Config {
	return &Config{
		Fusion: FusionConfig{
			SourceName: "fusion",
			OwnerID:    "owner-1",
			UIDScope:   constants.ScopeSource,
		},
		Merging: MergingConfig{
			DefaultStrategy: constants.MergeStrategyFirst,
			AttributeMerge:  constants.AttributeMergePerAttribute,
		},
	}
}

func assertInvalid(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var clientErr *errors.ClientError
	require.True(t, stderrors.As(err, &clientErr))
	assert.Equal(t, code, clientErr.Code)
}

func TestValidate_AcceptsCompleteConfig(t *testing.T) {
	assert.NoError(t, Validate(validConfig()))
}

func TestValidate_RequiresSourceName(t *testing.T) {
	cfg := validConfig()
	cfg.Fusion.SourceName = ""

	assertInvalid(t, Validate(cfg), errors.INVALID_CONFIGURATION.Code)
}

func TestValidate_RequiresOwner(t *testing.T) {
	cfg := validConfig()
	cfg.Fusion.OwnerID = ""

	assertInvalid(t, Validate(cfg), errors.SOURCE_OWNER_MISSING.Code)
}

func TestValidate_RejectsUnknownScope(t *testing.T) {
	cfg := validConfig()
	cfg.Fusion.UIDScope = "global"

	assertInvalid(t, Validate(cfg), errors.INVALID_CONFIGURATION.Code)
}

func TestValidate_RejectsUnknownStrategy(t *testing.T) {
	cfg := validConfig()
	cfg.Merging.Rules = []MergingRuleConfig{{Target: "first_name", Strategy: "newest"}}

	assertInvalid(t, Validate(cfg), errors.INVALID_CONFIGURATION.Code)
}

func TestValidate_SourceStrategyNeedsSource(t *testing.T) {
	cfg := validConfig()
	cfg.Merging.Rules = []MergingRuleConfig{{
		Target:   "email",
		Strategy: constants.MergeStrategySource,
	}}

	assertInvalid(t, Validate(cfg), errors.INVALID_CONFIGURATION.Code)
}

func TestValidate_RejectsReservedRuleTarget(t *testing.T) {
	cfg := validConfig()
	cfg.Merging.Rules = []MergingRuleConfig{{
		Target:   constants.AttrStatuses,
		Strategy: constants.MergeStrategyMulti,
	}}

	assertInvalid(t, Validate(cfg), errors.INVALID_CONFIGURATION.Code)
}

func TestApplyDefaults_FillsUnsetFields(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	assert.Equal(t, constants.DefaultRequestsPerSecond, cfg.Queue.RequestsPerSecond)
	assert.Equal(t, constants.DefaultMaxConcurrentRequests, cfg.Queue.MaxConcurrentRequests)
	assert.Equal(t, constants.DefaultMaxRetries, cfg.Queue.MaxRetries)
	assert.Equal(t, constants.MergeStrategyFirst, cfg.Merging.DefaultStrategy)
	assert.Equal(t, constants.MultiValueDelimiter, cfg.Merging.Delimiter)
	assert.Equal(t, constants.ScopeSource, cfg.Fusion.UIDScope)
	assert.Equal(t, constants.AttributeMergePerAttribute, cfg.Merging.AttributeMerge)
	assert.Equal(t, "INFO", cfg.Log.LogLevel)
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Queue.RequestsPerSecond = 3
	cfg.Merging.DefaultStrategy = constants.MergeStrategyMulti
	applyDefaults(cfg)

	assert.Equal(t, 3, cfg.Queue.RequestsPerSecond)
	assert.Equal(t, constants.MergeStrategyMulti, cfg.Merging.DefaultStrategy)
}
