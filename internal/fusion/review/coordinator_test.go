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

package review

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/identity-account-fusion/internal/fusion/model"
	"github.com/wso2/identity-account-fusion/internal/system/config"
	"github.com/wso2/identity-account-fusion/internal/system/constants"
	"github.com/wso2/identity-account-fusion/internal/system/errors"
	"github.com/wso2/identity-account-fusion/internal/system/log"
)

func TestMain(m *testing.M) {
	_ = log.Init("ERROR")
	os.Exit(m.Run())
}

func mergingConfig(mode string, mergeIdentical bool) config.MergingConfig {
	return config.MergingConfig{
		Sources:         []string{"hr"},
		DefaultStrategy: constants.MergeStrategyFirst,
		AttributeMerge:  mode,
		GlobalThreshold: 80,
		PerAttributeThreshold: 80,
		MergeIdentical:        mergeIdentical,
		Rules: []config.MergingRuleConfig{
			{Target: "first_name", SourceAttributes: map[string][]string{"hr": {"givenName"}}},
			{Target: "last_name", SourceAttributes: map[string][]string{"hr": {"sn"}}},
			{Target: "email", SourceAttributes: map[string][]string{"hr": {"mail"}}},
		},
	}
}

func hrAccount(id string, attrs map[string]string) *model.SourceAccount {
	bag := make(model.AttributeBag, len(attrs))
	for name, value := range attrs {
		bag[name] = model.ScalarValue(value)
	}
	return &model.SourceAccount{ID: id, Source: "hr", Attributes: bag}
}

func candidate(id string, attrs map[string]string) Candidate {
	bag := make(model.AttributeBag, len(attrs))
	for name, value := range attrs {
		bag[name] = model.ScalarValue(value)
	}
	return Candidate{IdentityID: id, Attributes: bag}
}

// ---------------------------------------------------------------------------
// Comparable attribute building
// ---------------------------------------------------------------------------

func TestComparable_NormalizesMappedAttributes(t *testing.T) {
	coordinator := NewCoordinator(mergingConfig(constants.AttributeMergePerAttribute, false), "rev-1")

	account := hrAccount("acc-1", map[string]string{
		"givenName": "José",
		"sn":        "O'Connor",
		"mail":      "JOSE@EXAMPLE.COM",
	})
	comparable := coordinator.Comparable(account)

	assert.Equal(t, "jose", comparable.Get("first_name").First())
	assert.Equal(t, "oconnor", comparable.Get("last_name").First())
	assert.Equal(t, "joseexamplecom", comparable.Get("email").First())
}

func TestComparable_OmitsMissingAttributes(t *testing.T) {
	coordinator := NewCoordinator(mergingConfig(constants.AttributeMergePerAttribute, false), "rev-1")

	comparable := coordinator.Comparable(hrAccount("acc-1", map[string]string{"givenName": "Ada"}))

	assert.Len(t, comparable, 1)
	assert.True(t, comparable.Get("last_name").IsEmpty())
}

// ---------------------------------------------------------------------------
// Short-circuit and threshold rules
// ---------------------------------------------------------------------------

func TestClassify_OneSidedAttributeRejectsCandidate(t *testing.T) {
	coordinator := NewCoordinator(mergingConfig(constants.AttributeMergePerAttribute, false), "rev-1")

	account := hrAccount("acc-1", map[string]string{"givenName": "ada", "sn": "lovelace"})
	// Same names but the candidate also carries an email the account lacks.
	outcome, err := coordinator.Classify(account, []Candidate{
		candidate("id-1", map[string]string{
			"first_name": "ada", "last_name": "lovelace", "email": "ada@example.com",
		}),
	})

	require.NoError(t, err)
	assert.Equal(t, DecisionNew, outcome.Decision)
}

func TestClassify_BothAbsentIsNeutral(t *testing.T) {
	coordinator := NewCoordinator(mergingConfig(constants.AttributeMergePerAttribute, true), "rev-1")

	account := hrAccount("acc-1", map[string]string{"givenName": "ada", "sn": "lovelace"})
	outcome, err := coordinator.Classify(account, []Candidate{
		candidate("id-1", map[string]string{"first_name": "ada", "last_name": "lovelace"}),
	})

	require.NoError(t, err)
	assert.Equal(t, DecisionAutoMerge, outcome.Decision)
	assert.Equal(t, "id-1", outcome.Match.IdentityID)
}

func TestClassify_PerAttributeBelowThresholdRejects(t *testing.T) {
	coordinator := NewCoordinator(mergingConfig(constants.AttributeMergePerAttribute, false), "rev-1")

	account := hrAccount("acc-1", map[string]string{"givenName": "ada", "sn": "lovelace"})
	outcome, err := coordinator.Classify(account, []Candidate{
		candidate("id-1", map[string]string{"first_name": "ada", "last_name": "hopper"}),
	})

	require.NoError(t, err)
	assert.Equal(t, DecisionNew, outcome.Decision)
}

func TestClassify_GlobalMeanDividesByRequestedAttributeCount(t *testing.T) {
	// Two attributes match perfectly but a third is absent on both
	// sides; with three configured attributes the mean is 200/3 = 66,
	// below the global threshold of 80.
	coordinator := NewCoordinator(mergingConfig(constants.AttributeMergeGlobal, false), "rev-1")

	account := hrAccount("acc-1", map[string]string{"givenName": "ada", "sn": "lovelace"})
	outcome, err := coordinator.Classify(account, []Candidate{
		candidate("id-1", map[string]string{"first_name": "ada", "last_name": "lovelace"}),
	})

	require.NoError(t, err)
	assert.Equal(t, DecisionNew, outcome.Decision)
}

func TestClassify_GlobalModeSurvivesThreshold(t *testing.T) {
	coordinator := NewCoordinator(mergingConfig(constants.AttributeMergeGlobal, false), "rev-1")

	account := hrAccount("acc-1", map[string]string{
		"givenName": "ada", "sn": "lovelace", "mail": "ada@example.com",
	})
	outcome, err := coordinator.Classify(account, []Candidate{
		candidate("id-1", map[string]string{
			"first_name": "ada", "last_name": "lovelace", "email": "ada@example.com",
		}),
	})

	require.NoError(t, err)
	assert.Equal(t, DecisionReview, outcome.Decision)
	require.Len(t, outcome.Matches, 1)
	assert.Equal(t, 100, outcome.Matches[0].Overall)
}

// ---------------------------------------------------------------------------
// Decisioning
// ---------------------------------------------------------------------------

func TestClassify_IdenticalNormalizedMatchAutoMerges(t *testing.T) {
	coordinator := NewCoordinator(mergingConfig(constants.AttributeMergePerAttribute, true), "rev-1")

	account := hrAccount("acc-1", map[string]string{
		"givenName": "José", "sn": "García", "mail": "jose@example.com",
	})
	outcome, err := coordinator.Classify(account, []Candidate{
		candidate("id-1", map[string]string{
			"first_name": "jose", "last_name": "garcia", "email": "jose@example.com",
		}),
		candidate("id-2", map[string]string{
			"first_name": "pepe", "last_name": "garcia", "email": "pepe@example.com",
		}),
	})

	require.NoError(t, err)
	assert.Equal(t, DecisionAutoMerge, outcome.Decision)
	require.NotNil(t, outcome.Match)
	assert.Equal(t, "id-1", outcome.Match.IdentityID)
	assert.True(t, outcome.Match.Identical())
}

func TestClassify_IdenticalMatchWithoutAutoMergeGoesToReview(t *testing.T) {
	coordinator := NewCoordinator(mergingConfig(constants.AttributeMergePerAttribute, false), "rev-1")

	account := hrAccount("acc-1", map[string]string{"givenName": "ada", "sn": "lovelace"})
	outcome, err := coordinator.Classify(account, []Candidate{
		candidate("id-1", map[string]string{"first_name": "ada", "last_name": "lovelace"}),
	})

	require.NoError(t, err)
	assert.Equal(t, DecisionReview, outcome.Decision)
	require.NotNil(t, outcome.Case)
	assert.Equal(t, "acc-1", outcome.Case.AccountID)
	assert.Equal(t, "rev-1", outcome.Case.ReviewerID)
}

func TestClassify_SimilarMatchesRankedBestFirst(t *testing.T) {
	coordinator := NewCoordinator(mergingConfig(constants.AttributeMergePerAttribute, false), "rev-1")

	account := hrAccount("acc-1", map[string]string{"givenName": "smith", "sn": "johnson"})
	outcome, err := coordinator.Classify(account, []Candidate{
		candidate("id-low", map[string]string{"first_name": "smyth", "last_name": "johnsen"}),
		candidate("id-high", map[string]string{"first_name": "smith", "last_name": "johnson"}),
	})

	require.NoError(t, err)
	require.Equal(t, DecisionReview, outcome.Decision)
	require.Len(t, outcome.Case.Matches, 2)
	assert.Equal(t, "id-high", outcome.Case.Matches[0].IdentityID)
	assert.Equal(t, "id-low", outcome.Case.Matches[1].IdentityID)
}

func TestClassify_NoMatchesMeansNewAccount(t *testing.T) {
	coordinator := NewCoordinator(mergingConfig(constants.AttributeMergePerAttribute, false), "rev-1")

	account := hrAccount("acc-1", map[string]string{"givenName": "ada", "sn": "lovelace"})
	outcome, err := coordinator.Classify(account, []Candidate{
		candidate("id-1", map[string]string{"first_name": "grace", "last_name": "hopper"}),
	})

	require.NoError(t, err)
	assert.Equal(t, DecisionNew, outcome.Decision)
	assert.Nil(t, outcome.Case)
}

func TestClassify_MissingReviewerIsFatal(t *testing.T) {
	coordinator := NewCoordinator(mergingConfig(constants.AttributeMergePerAttribute, false), "")

	account := hrAccount("acc-1", map[string]string{"givenName": "ada", "sn": "lovelace"})
	_, err := coordinator.Classify(account, []Candidate{
		candidate("id-1", map[string]string{"first_name": "ada", "last_name": "lovelace"}),
	})

	require.Error(t, err)
	clientErr, ok := err.(*errors.ClientError)
	require.True(t, ok)
	assert.Equal(t, errors.REVIEWER_MISSING.Code, clientErr.Code)
}

// ---------------------------------------------------------------------------
// Auto-merge mutation
// ---------------------------------------------------------------------------

func TestAutoMerge_AppendsAccountAndClearsEdited(t *testing.T) {
	fusion := &model.FusionAccount{UniqueID: "alovelace", AccountIDs: []string{"acc-0"}}
	fusion.AddStatus(constants.StatusEdited)

	AutoMerge(fusion, "acc-1")

	assert.True(t, fusion.HasAccount("acc-1"))
	assert.True(t, fusion.HasStatus(constants.StatusAuto))
	assert.False(t, fusion.HasStatus(constants.StatusEdited))
	require.NotEmpty(t, fusion.History)
}
