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
	"time"

	"github.com/wso2/identity-account-fusion/internal/fusion/model"
)

// Identity is the platform's identity representation.
type Identity struct {
	ID         string                 `json:"id"`
	Name       string                 `json:"name"`
	UID        string                 `json:"uid,omitempty"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

// Account is the platform's source-account representation.
type Account struct {
	ID             string                 `json:"id"`
	Name           string                 `json:"name"`
	SourceID       string                 `json:"sourceId"`
	SourceName     string                 `json:"sourceName,omitempty"`
	NativeIdentity string                 `json:"nativeIdentity"`
	IdentityID     string                 `json:"identityId,omitempty"`
	Uncorrelated   bool                   `json:"uncorrelated"`
	Attributes     map[string]interface{} `json:"attributes,omitempty"`
	Modified       time.Time              `json:"modified,omitempty"`
}

// ToSource converts the wire account into the domain representation.
func (a Account) ToSource() model.SourceAccount {
	return model.SourceAccount{
		ID:         a.ID,
		Source:     a.SourceName,
		IdentityID: a.IdentityID,
		Attributes: model.BagFromRaw(a.Attributes),
		Modified:   a.Modified,
	}
}

// AggregationJob is a source aggregation task as reported by the
// platform.
type AggregationJob struct {
	ID        string     `json:"id"`
	Status    string     `json:"status"`
	Launched  *time.Time `json:"launched,omitempty"`
	Completed *time.Time `json:"completed,omitempty"`
}

// Aggregation job terminal statuses.
const (
	JobStatusSuccess    = "SUCCESS"
	JobStatusWarning    = "WARNING"
	JobStatusError      = "ERROR"
	JobStatusTerminated = "TERMINATED"
)

// Finished reports whether the job has reached a terminal status.
func (j AggregationJob) Finished() bool {
	switch j.Status {
	case JobStatusSuccess, JobStatusWarning, JobStatusError, JobStatusTerminated:
		return true
	default:
		return false
	}
}

// Succeeded reports whether the job finished without failing.
func (j AggregationJob) Succeeded() bool {
	return j.Status == JobStatusSuccess || j.Status == JobStatusWarning
}

// SchemaAttribute is one attribute definition within a source schema.
type SchemaAttribute struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	MultiValued bool   `json:"isMulti,omitempty"`
}

// Schema is a source account schema.
type Schema struct {
	ID         string            `json:"id,omitempty"`
	Name       string            `json:"name"`
	Attributes []SchemaAttribute `json:"attributes"`
}

// Transform is a platform attribute transform definition.
type Transform struct {
	ID         string                 `json:"id,omitempty"`
	Name       string                 `json:"name"`
	Type       string                 `json:"type"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

// Workflow is a platform workflow definition.
type Workflow struct {
	ID          string                 `json:"id,omitempty"`
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Enabled     bool                   `json:"enabled"`
	Definition  map[string]interface{} `json:"definition,omitempty"`
}

// FormDefinition is a review or edit form layout.
type FormDefinition struct {
	ID          string                   `json:"id,omitempty"`
	Name        string                   `json:"name"`
	Description string                   `json:"description,omitempty"`
	Owner       FormOwner                `json:"owner"`
	Elements    []map[string]interface{} `json:"formElements,omitempty"`
}

// FormOwner identifies the identity that owns a form.
type FormOwner struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// FormInstance is a single assigned form awaiting action.
type FormInstance struct {
	ID               string                 `json:"id,omitempty"`
	FormDefinitionID string                 `json:"formDefinitionId"`
	State            string                 `json:"state,omitempty"`
	Recipients       []FormOwner            `json:"recipients,omitempty"`
	Input            map[string]interface{} `json:"formInput,omitempty"`
	Expire           string                 `json:"expire,omitempty"`
}
