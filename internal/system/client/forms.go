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

package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/wso2/identity-account-fusion/internal/system/constants"
	"github.com/wso2/identity-account-fusion/internal/system/errors"
	"github.com/wso2/identity-account-fusion/internal/system/pagination"
)

// ListFormDefinitions pages through all form definitions in the tenant.
func (c *PlatformClient) ListFormDefinitions(ctx context.Context) ([]FormDefinition, error) {
	fetch := func(fetchCtx context.Context, offset, limit int) ([]FormDefinition, error) {
		query := url.Values{}
		query.Set("offset", strconv.Itoa(offset))
		query.Set("limit", strconv.Itoa(limit))

		// The forms API wraps its page in a results envelope.
		var envelope struct {
			Results []FormDefinition `json:"results"`
		}
		err := c.execute(fetchCtx, constants.PriorityLow, http.MethodGet,
			"/v3/form-definitions?"+query.Encode(), nil, &envelope)
		if err != nil {
			return nil, err
		}
		return envelope.Results, nil
	}

	definitions, err := pagination.FetchOffset(ctx, pagination.Options{}, fetch)
	if err != nil {
		return nil, errors.NewServerError(errors.FORM_FAILED,
			fmt.Errorf("listing form definitions: %w", err))
	}
	return definitions, nil
}

// CreateFormDefinition creates a form definition.
func (c *PlatformClient) CreateFormDefinition(ctx context.Context,
	definition FormDefinition,
) (*FormDefinition, error) {
	var created FormDefinition
	err := c.execute(ctx, constants.PriorityHigh, http.MethodPost,
		"/v3/form-definitions", definition, &created)
	if err != nil {
		return nil, errors.NewServerError(errors.FORM_FAILED,
			fmt.Errorf("creating form definition %s: %w", definition.Name, err))
	}
	return &created, nil
}

// DeleteFormDefinition removes a form definition.
func (c *PlatformClient) DeleteFormDefinition(ctx context.Context, definitionID string) error {
	err := c.execute(ctx, constants.PriorityLow, http.MethodDelete,
		"/v3/form-definitions/"+url.PathEscape(definitionID), nil, nil)
	if err != nil {
		return errors.NewServerError(errors.FORM_FAILED,
			fmt.Errorf("deleting form definition %s: %w", definitionID, err))
	}
	return nil
}

// ListFormInstances pages through all form instances of one definition.
func (c *PlatformClient) ListFormInstances(ctx context.Context,
	definitionID string,
) ([]FormInstance, error) {
	fetch := func(fetchCtx context.Context, offset, limit int) ([]FormInstance, error) {
		query := url.Values{}
		query.Set("filters", fmt.Sprintf("formDefinitionId eq %q", definitionID))
		query.Set("offset", strconv.Itoa(offset))
		query.Set("limit", strconv.Itoa(limit))

		var envelope struct {
			Results []FormInstance `json:"results"`
		}
		err := c.execute(fetchCtx, constants.PriorityLow, http.MethodGet,
			"/v3/form-instances?"+query.Encode(), nil, &envelope)
		if err != nil {
			return nil, err
		}
		return envelope.Results, nil
	}

	instances, err := pagination.FetchOffset(ctx, pagination.Options{}, fetch)
	if err != nil {
		return nil, errors.NewServerError(errors.FORM_FAILED,
			fmt.Errorf("listing instances of form %s: %w", definitionID, err))
	}
	return instances, nil
}

// CreateFormInstance assigns a form instance to its recipients.
func (c *PlatformClient) CreateFormInstance(ctx context.Context,
	instance FormInstance,
) (*FormInstance, error) {
	var created FormInstance
	err := c.execute(ctx, constants.PriorityHigh, http.MethodPost,
		"/v3/form-instances", instance, &created)
	if err != nil {
		return nil, errors.NewServerError(errors.FORM_FAILED,
			fmt.Errorf("creating instance of form %s: %w", instance.FormDefinitionID, err))
	}
	return &created, nil
}

// CancelFormInstance marks a pending form instance cancelled. The forms
// API has no hard delete for instances; cancellation retires them.
func (c *PlatformClient) CancelFormInstance(ctx context.Context, instanceID string) error {
	body := []map[string]interface{}{
		{"op": "replace", "path": "/state", "value": "CANCELLED"},
	}
	err := c.execute(ctx, constants.PriorityLow, http.MethodPatch,
		"/v3/form-instances/"+url.PathEscape(instanceID), body, nil)
	if err != nil {
		return errors.NewServerError(errors.FORM_FAILED,
			fmt.Errorf("cancelling form instance %s: %w", instanceID, err))
	}
	return nil
}
