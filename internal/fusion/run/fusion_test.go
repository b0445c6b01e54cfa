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

package run

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/identity-account-fusion/internal/fusion/model"
	"github.com/wso2/identity-account-fusion/internal/system/client"
	"github.com/wso2/identity-account-fusion/internal/system/constants"
)

func TestParseFusionAccount_SplitsLifecycleFromMergedAttributes(t *testing.T) {
	wire := client.Account{
		ID:         "fus-1",
		Name:       "jdoe",
		IdentityID: "id-1",
		Attributes: map[string]interface{}{
			"uniqueID":   "jdoe",
			"uuid":       "uuid-1",
			"accounts":   []interface{}{"hr-1", "crm-1"},
			"statuses":   []interface{}{"edited"},
			"history":    []interface{}{"2026-03-01T10:00:00Z | Edited by reviewer"},
			"first_name": "John",
			"groups":     []interface{}{"dev", "ops"},
		},
	}

	fusion := ParseFusionAccount(wire)

	assert.Equal(t, "jdoe", fusion.UniqueID)
	assert.Equal(t, "uuid-1", fusion.UUID)
	assert.Equal(t, "id-1", fusion.IdentityID)
	assert.Equal(t, []string{"hr-1", "crm-1"}, fusion.AccountIDs)
	assert.True(t, fusion.HasStatus(constants.StatusEdited))

	require.Len(t, fusion.History, 1)
	assert.Equal(t, "Edited by reviewer", fusion.History[0].Message)
	assert.Equal(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), fusion.History[0].Date)

	assert.Equal(t, "John", fusion.Attributes.Get("first_name").First())
	assert.Equal(t, []string{"dev", "ops"}, fusion.Attributes.Get("groups").List())
	assert.True(t, fusion.Attributes.Get("uuid").IsEmpty(), "lifecycle attributes stay out of the merged set")
}

func TestParseFusionAccount_UniqueIDFallsBackToName(t *testing.T) {
	fusion := ParseFusionAccount(client.Account{Name: "legacy-name", Attributes: map[string]interface{}{}})
	assert.Equal(t, "legacy-name", fusion.UniqueID)
}

func TestRenderFusionAccount_RoundTripsThroughParse(t *testing.T) {
	fusion := model.FusionAccount{
		UniqueID:   "jdoe",
		UUID:       "uuid-1",
		IdentityID: "id-1",
		AccountIDs: []string{"hr-1"},
		Statuses:   []string{constants.StatusAuto},
		Attributes: model.AttributeBag{
			"first_name": model.ScalarValue("John"),
			"groups":     model.ListValue("dev", "ops"),
		},
	}
	fusion.AppendHistory("Auto-merged identical account hr-2.")

	rendered := RenderFusionAccount(&fusion)
	parsed := ParseFusionAccount(client.Account{IdentityID: "id-1", Attributes: rendered})

	assert.Equal(t, fusion.UniqueID, parsed.UniqueID)
	assert.Equal(t, fusion.UUID, parsed.UUID)
	assert.Equal(t, fusion.AccountIDs, parsed.AccountIDs)
	assert.Equal(t, fusion.Statuses, parsed.Statuses)
	assert.Equal(t, "John", parsed.Attributes.Get("first_name").First())
	assert.Equal(t, []string{"dev", "ops"}, parsed.Attributes.Get("groups").List())
	require.Len(t, parsed.History, 1)
	assert.Equal(t, "Auto-merged identical account hr-2.", parsed.History[0].Message)
}

func TestParseHistory_KeepsMalformedEntriesAsMessages(t *testing.T) {
	history := parseHistory([]string{"not a dated entry", "bad-date | trailing message"})

	require.Len(t, history, 2)
	assert.Equal(t, "not a dated entry", history[0].Message)
	assert.True(t, history[0].Date.IsZero())
	assert.Equal(t, "bad-date | trailing message", history[1].Message)
}
