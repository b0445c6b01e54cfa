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
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/identity-account-fusion/internal/fusion/model"
	"github.com/wso2/identity-account-fusion/internal/system/client"
)

type fakeForms struct {
	definitions []client.FormDefinition
	instances   []client.FormInstance
	cancelled   []string
}

func (f *fakeForms) ListFormDefinitions(context.Context) ([]client.FormDefinition, error) {
	return f.definitions, nil
}

func (f *fakeForms) CreateFormDefinition(_ context.Context,
	definition client.FormDefinition,
) (*client.FormDefinition, error) {
	definition.ID = definition.Name
	f.definitions = append(f.definitions, definition)
	return &definition, nil
}

func (f *fakeForms) ListFormInstances(_ context.Context, definitionID string) ([]client.FormInstance, error) {
	var matching []client.FormInstance
	for _, instance := range f.instances {
		if instance.FormDefinitionID == definitionID {
			matching = append(matching, instance)
		}
	}
	return matching, nil
}

func (f *fakeForms) CreateFormInstance(_ context.Context,
	instance client.FormInstance,
) (*client.FormInstance, error) {
	f.instances = append(f.instances, instance)
	return &instance, nil
}

func (f *fakeForms) CancelFormInstance(_ context.Context, instanceID string) error {
	f.cancelled = append(f.cancelled, instanceID)
	return nil
}

func TestEnsureDefinitions_CreatesMissingForms(t *testing.T) {
	forms := &fakeForms{}
	publisher := NewPublisher(forms, "rev-1")

	require.NoError(t, publisher.EnsureDefinitions(context.Background()))
	assert.Len(t, forms.definitions, 2)

	// A second pass reuses what exists.
	require.NoError(t, publisher.EnsureDefinitions(context.Background()))
	assert.Len(t, forms.definitions, 2)
}

func TestPublish_SkipsAccountsWithPendingInstance(t *testing.T) {
	forms := &fakeForms{}
	publisher := NewPublisher(forms, "rev-1")
	require.NoError(t, publisher.EnsureDefinitions(context.Background()))

	reviewCase := &model.ReviewCase{
		AccountID:  "acc-1",
		Attributes: model.AttributeBag{"first_name": model.ScalarValue("ada")},
		Matches:    []model.SimilarityMatch{{IdentityID: "id-1", Overall: 85}},
		ReviewerID: "rev-1",
	}

	pending := map[string]string{}
	require.NoError(t, publisher.Publish(context.Background(), reviewCase, pending))
	require.NoError(t, publisher.Publish(context.Background(), reviewCase, pending))

	assert.Len(t, forms.instances, 1)
	assert.Contains(t, pending, "acc-1")
	assert.Equal(t, "acc-1", forms.instances[0].Input["accountId"])
}

func TestRetireStale_CancelsOnlyResolvedAccounts(t *testing.T) {
	forms := &fakeForms{}
	publisher := NewPublisher(forms, "rev-1")
	require.NoError(t, publisher.EnsureDefinitions(context.Background()))

	pending := map[string]string{"acc-done": "inst-1", "acc-open": "inst-2"}
	publisher.RetireStale(context.Background(), pending, map[string]struct{}{"acc-open": {}})

	assert.Equal(t, []string{"inst-1"}, forms.cancelled)
	assert.NotContains(t, pending, "acc-done")
	assert.Contains(t, pending, "acc-open")
}

func TestPendingInstances_FiltersByAssignedState(t *testing.T) {
	forms := &fakeForms{}
	publisher := NewPublisher(forms, "rev-1")
	require.NoError(t, publisher.EnsureDefinitions(context.Background()))

	forms.instances = []client.FormInstance{
		{ID: "inst-1", FormDefinitionID: ReviewFormName, State: formStateAssigned,
			Input: map[string]interface{}{"accountId": "acc-1"}},
		{ID: "inst-2", FormDefinitionID: ReviewFormName, State: "COMPLETED",
			Input: map[string]interface{}{"accountId": "acc-2"}},
	}

	pending, err := publisher.PendingInstances(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"acc-1": "inst-1"}, pending)
}
