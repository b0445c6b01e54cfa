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

	"github.com/wso2/identity-account-fusion/internal/system/constants"
	"github.com/wso2/identity-account-fusion/internal/system/errors"
)

// ListSchemas lists the account schemas of one source. Results are cached
// for the duration of a run since schemas do not change mid-run.
func (c *PlatformClient) ListSchemas(ctx context.Context, sourceID string) ([]Schema, error) {
	if cached, found := c.schemas.Get(sourceID); found {
		return cached.([]Schema), nil
	}

	var schemas []Schema
	err := c.execute(ctx, constants.PriorityMedium, http.MethodGet,
		"/v3/sources/"+url.PathEscape(sourceID)+"/schemas", nil, &schemas)
	if err != nil {
		return nil, errors.NewServerError(errors.GET_SCHEMA_FAILED,
			fmt.Errorf("listing schemas of source %s: %w", sourceID, err))
	}
	c.schemas.Set(sourceID, schemas)
	return schemas, nil
}

// GetSchema fetches one schema of a source.
func (c *PlatformClient) GetSchema(ctx context.Context, sourceID, schemaID string) (*Schema, error) {
	var schema Schema
	err := c.execute(ctx, constants.PriorityMedium, http.MethodGet,
		"/v3/sources/"+url.PathEscape(sourceID)+"/schemas/"+url.PathEscape(schemaID), nil, &schema)
	if err != nil {
		return nil, notFound(err, errors.SCHEMA_NOT_FOUND,
			fmt.Sprintf("Source %q has no schema with ID %q.", sourceID, schemaID))
	}
	return &schema, nil
}

// CreateSchema creates a schema on the source.
func (c *PlatformClient) CreateSchema(ctx context.Context, sourceID string, schema Schema) (*Schema, error) {
	var created Schema
	err := c.execute(ctx, constants.PriorityHigh, http.MethodPost,
		"/v3/sources/"+url.PathEscape(sourceID)+"/schemas", schema, &created)
	if err != nil {
		return nil, errors.NewServerError(errors.UPDATE_SCHEMA_FAILED,
			fmt.Errorf("creating schema %s on source %s: %w", schema.Name, sourceID, err))
	}
	c.schemas.Delete(sourceID)
	return &created, nil
}

// UpdateSchema replaces a schema on the source.
func (c *PlatformClient) UpdateSchema(ctx context.Context, sourceID string, schema Schema) (*Schema, error) {
	var updated Schema
	err := c.execute(ctx, constants.PriorityHigh, http.MethodPut,
		"/v3/sources/"+url.PathEscape(sourceID)+"/schemas/"+url.PathEscape(schema.ID), schema, &updated)
	if err != nil {
		return nil, errors.NewServerError(errors.UPDATE_SCHEMA_FAILED,
			fmt.Errorf("updating schema %s on source %s: %w", schema.ID, sourceID, err))
	}
	c.schemas.Delete(sourceID)
	return &updated, nil
}

// ListTransforms lists all attribute transforms in the tenant.
func (c *PlatformClient) ListTransforms(ctx context.Context) ([]Transform, error) {
	var transforms []Transform
	err := c.execute(ctx, constants.PriorityLow, http.MethodGet, "/v3/transforms", nil, &transforms)
	if err != nil {
		return nil, err
	}
	return transforms, nil
}

// CreateTransform creates an attribute transform.
func (c *PlatformClient) CreateTransform(ctx context.Context, transform Transform) (*Transform, error) {
	var created Transform
	err := c.execute(ctx, constants.PriorityHigh, http.MethodPost, "/v3/transforms", transform, &created)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateTransform replaces an attribute transform.
func (c *PlatformClient) UpdateTransform(ctx context.Context, transform Transform) (*Transform, error) {
	var updated Transform
	err := c.execute(ctx, constants.PriorityHigh, http.MethodPut,
		"/v3/transforms/"+url.PathEscape(transform.ID), transform, &updated)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// ListWorkflows lists all workflows in the tenant.
func (c *PlatformClient) ListWorkflows(ctx context.Context) ([]Workflow, error) {
	var workflows []Workflow
	err := c.execute(ctx, constants.PriorityLow, http.MethodGet, "/v3/workflows", nil, &workflows)
	if err != nil {
		return nil, errors.NewServerError(errors.WORKFLOW_FAILED,
			fmt.Errorf("listing workflows: %w", err))
	}
	return workflows, nil
}

// CreateWorkflow creates a workflow.
func (c *PlatformClient) CreateWorkflow(ctx context.Context, workflow Workflow) (*Workflow, error) {
	var created Workflow
	err := c.execute(ctx, constants.PriorityHigh, http.MethodPost, "/v3/workflows", workflow, &created)
	if err != nil {
		return nil, errors.NewServerError(errors.WORKFLOW_FAILED,
			fmt.Errorf("creating workflow %s: %w", workflow.Name, err))
	}
	return &created, nil
}

// UpdateWorkflow replaces a workflow.
func (c *PlatformClient) UpdateWorkflow(ctx context.Context, workflow Workflow) (*Workflow, error) {
	var updated Workflow
	err := c.execute(ctx, constants.PriorityHigh, http.MethodPut,
		"/v3/workflows/"+url.PathEscape(workflow.ID), workflow, &updated)
	if err != nil {
		return nil, errors.NewServerError(errors.WORKFLOW_FAILED,
			fmt.Errorf("updating workflow %s: %w", workflow.ID, err))
	}
	return &updated, nil
}

// TriggerWorkflow fires an external-trigger workflow with the given
// input, used for outbound notification email.
func (c *PlatformClient) TriggerWorkflow(ctx context.Context, workflowID string,
	input map[string]interface{},
) error {
	err := c.execute(ctx, constants.PriorityLow, http.MethodPost,
		"/v3/workflows/execute/external/"+url.PathEscape(workflowID), input, nil)
	if err != nil {
		return errors.NewServerError(errors.WORKFLOW_FAILED,
			fmt.Errorf("triggering workflow %s: %w", workflowID, err))
	}
	return nil
}
