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

package report

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wso2/identity-account-fusion/internal/fusion/model"
)

func TestAnalysis_ExplainsEachCandidate(t *testing.T) {
	attributes := model.AttributeBag{
		"first_name": model.ScalarValue("ada"),
		"last_name":  model.ScalarValue("lovelace"),
	}
	matches := []model.SimilarityMatch{
		{IdentityID: "id-1", Overall: 92, Scores: map[string]int{"first_name": 100, "last_name": 85}},
		{IdentityID: "id-2", Overall: 81},
	}

	text := Analysis("acc-1", attributes, matches)

	assert.Contains(t, text, "Account acc-1 compared on first_name, last_name.")
	assert.Contains(t, text, "Identity id-1: overall score 92 (first_name=100, last_name=85).")
	assert.Contains(t, text, "Identity id-2: overall score 81.")
}

func TestAnalysis_NoMatches(t *testing.T) {
	text := Analysis("acc-1", model.AttributeBag{}, nil)

	assert.Contains(t, text, "no comparable attributes")
	assert.Contains(t, text, "No candidate identity survived")
}

func TestAccumulator_SummarizesFailures(t *testing.T) {
	accumulator := NewAccumulator()
	assert.Empty(t, accumulator.Summary())

	accumulator.Add("correlation", fmt.Errorf("account acc-1 not found"))
	accumulator.Add("refresh", fmt.Errorf("merge failed for jdoe"))

	summary := accumulator.Summary()
	assert.Contains(t, summary, "2 non-fatal issue(s)")
	assert.Contains(t, summary, "correlation: account acc-1 not found")
	assert.Contains(t, summary, "refresh: merge failed for jdoe")
	assert.Equal(t, 2, accumulator.Count())
}

func TestAccumulator_SafeUnderConcurrentAdds(t *testing.T) {
	accumulator := NewAccumulator()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			accumulator.Add("batch", fmt.Errorf("item %d", n))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, accumulator.Count())
}
