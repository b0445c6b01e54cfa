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

	"github.com/google/uuid"

	"github.com/wso2/identity-account-fusion/internal/fusion/model"
	"github.com/wso2/identity-account-fusion/internal/system/client"
	"github.com/wso2/identity-account-fusion/internal/system/log"
)

const (
	// ReviewFormName is the definition presenting match candidates.
	ReviewFormName = "Account Fusion Review"
	// EditFormName is the definition for manual attribute edits.
	EditFormName = "Account Fusion Edit"

	formInputAccountID = "accountId"
	formStateAssigned  = "ASSIGNED"
)

// Forms is the slice of the platform client the publisher needs.
type Forms interface {
	ListFormDefinitions(ctx context.Context) ([]client.FormDefinition, error)
	CreateFormDefinition(ctx context.Context, definition client.FormDefinition) (*client.FormDefinition, error)
	ListFormInstances(ctx context.Context, definitionID string) ([]client.FormInstance, error)
	CreateFormInstance(ctx context.Context, instance client.FormInstance) (*client.FormInstance, error)
	CancelFormInstance(ctx context.Context, instanceID string) error
}

// Publisher maintains the review and edit form definitions on the
// platform and turns review cases into assigned form instances.
type Publisher struct {
	platform   Forms
	reviewerID string
	reviewDef  string
	editDef    string
}

// NewPublisher creates a form publisher for the given reviewer.
func NewPublisher(platform Forms, reviewerID string) *Publisher {
	return &Publisher{platform: platform, reviewerID: reviewerID}
}

// EnsureDefinitions finds the review and edit form definitions, creating
// whichever is absent. Must run before cases are published.
func (p *Publisher) EnsureDefinitions(ctx context.Context) error {
	definitions, err := p.platform.ListFormDefinitions(ctx)
	if err != nil {
		return err
	}
	for _, definition := range definitions {
		switch definition.Name {
		case ReviewFormName:
			p.reviewDef = definition.ID
		case EditFormName:
			p.editDef = definition.ID
		}
	}

	if p.reviewDef == "" {
		created, err := p.platform.CreateFormDefinition(ctx, reviewDefinition(p.reviewerID))
		if err != nil {
			return err
		}
		p.reviewDef = created.ID
		log.GetLogger().Info("Created review form definition", log.String("formId", created.ID))
	}
	if p.editDef == "" {
		created, err := p.platform.CreateFormDefinition(ctx, editDefinition(p.reviewerID))
		if err != nil {
			return err
		}
		p.editDef = created.ID
		log.GetLogger().Info("Created edit form definition", log.String("formId", created.ID))
	}
	return nil
}

// Publish assigns one review case to the reviewer as a form instance,
// unless the account already has a pending instance.
func (p *Publisher) Publish(ctx context.Context, reviewCase *model.ReviewCase,
	pending map[string]string,
) error {
	if _, ok := pending[reviewCase.AccountID]; ok {
		return nil
	}

	created, err := p.platform.CreateFormInstance(ctx, client.FormInstance{
		ID:               uuid.NewString(),
		FormDefinitionID: p.reviewDef,
		State:            formStateAssigned,
		Recipients:       []client.FormOwner{{ID: reviewCase.ReviewerID, Type: "IDENTITY"}},
		Input:            caseInput(reviewCase),
	})
	if err != nil {
		return err
	}
	pending[reviewCase.AccountID] = created.ID
	return nil
}

// PendingInstances maps account IDs with an open review instance to the
// instance ID.
func (p *Publisher) PendingInstances(ctx context.Context) (map[string]string, error) {
	instances, err := p.platform.ListFormInstances(ctx, p.reviewDef)
	if err != nil {
		return nil, err
	}
	pending := make(map[string]string, len(instances))
	for _, instance := range instances {
		if instance.State != formStateAssigned {
			continue
		}
		if accountID, ok := instance.Input[formInputAccountID].(string); ok && accountID != "" {
			pending[accountID] = instance.ID
		}
	}
	return pending, nil
}

// RetireStale cancels pending instances whose account is no longer
// awaiting review. Cancellation failures are logged per instance.
func (p *Publisher) RetireStale(ctx context.Context, pending map[string]string,
	stillPending map[string]struct{},
) {
	for accountID, instanceID := range pending {
		if _, ok := stillPending[accountID]; ok {
			continue
		}
		if err := p.platform.CancelFormInstance(ctx, instanceID); err != nil {
			log.GetLogger().Warn("Failed to cancel stale review instance",
				log.String("instanceId", instanceID),
				log.String("accountId", accountID),
				log.Error(err))
			continue
		}
		delete(pending, accountID)
	}
}

// caseInput flattens a review case into the form input payload.
func caseInput(reviewCase *model.ReviewCase) map[string]interface{} {
	attributes := make(map[string]interface{}, len(reviewCase.Attributes))
	for name, value := range reviewCase.Attributes {
		attributes[name] = value.First()
	}

	matches := make([]interface{}, 0, len(reviewCase.Matches))
	for _, match := range reviewCase.Matches {
		entry := map[string]interface{}{
			"identityId": match.IdentityID,
			"overall":    match.Overall,
		}
		if len(match.Scores) > 0 {
			scores := make(map[string]interface{}, len(match.Scores))
			for attribute, score := range match.Scores {
				scores[attribute] = score
			}
			entry["scores"] = scores
		}
		matches = append(matches, entry)
	}

	return map[string]interface{}{
		formInputAccountID: reviewCase.AccountID,
		"attributes":       attributes,
		"matches":          matches,
	}
}

func reviewDefinition(ownerID string) client.FormDefinition {
	return client.FormDefinition{
		Name:        ReviewFormName,
		Description: "Adjudicate ambiguous account-to-identity matches.",
		Owner:       client.FormOwner{ID: ownerID, Type: "IDENTITY"},
		Elements: []map[string]interface{}{
			{"key": formInputAccountID, "type": "TEXT", "config": map[string]interface{}{"label": "Account"}},
			{"key": "matches", "type": "SELECT", "config": map[string]interface{}{
				"label": "Candidate identities", "required": true,
			}},
			{"key": "decision", "type": "SELECT", "config": map[string]interface{}{
				"label":   "Decision",
				"options": []string{"merge", "new-identity"},
			}},
		},
	}
}

func editDefinition(ownerID string) client.FormDefinition {
	return client.FormDefinition{
		Name:        EditFormName,
		Description: "Manually edit merged fusion account attributes.",
		Owner:       client.FormOwner{ID: ownerID, Type: "IDENTITY"},
		Elements: []map[string]interface{}{
			{"key": formInputAccountID, "type": "TEXT", "config": map[string]interface{}{"label": "Account"}},
			{"key": "attributes", "type": "TEXT", "config": map[string]interface{}{
				"label": "Attribute overrides",
			}},
		},
	}
}

// EditFormID exposes the edit definition for report links.
func (p *Publisher) EditFormID() string {
	return p.editDef
}
