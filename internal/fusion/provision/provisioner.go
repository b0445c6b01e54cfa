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

// Package provision keeps the fusion source's platform metadata in step
// with the merging configuration: the account schema must carry every
// attribute a run can write, and the normalization transform used by
// attribute mappings must exist.
package provision

import (
	"context"

	"github.com/wso2/identity-account-fusion/internal/system/client"
	"github.com/wso2/identity-account-fusion/internal/system/config"
	"github.com/wso2/identity-account-fusion/internal/system/constants"
	"github.com/wso2/identity-account-fusion/internal/system/log"
)

const (
	accountSchemaName = "account"
	transformName     = "Account Fusion Normalize"

	attributeTypeString = "STRING"
)

// Platform is the slice of the platform client provisioning needs.
type Platform interface {
	ListSchemas(ctx context.Context, sourceID string) ([]client.Schema, error)
	CreateSchema(ctx context.Context, sourceID string, schema client.Schema) (*client.Schema, error)
	UpdateSchema(ctx context.Context, sourceID string, schema client.Schema) (*client.Schema, error)
	ListTransforms(ctx context.Context) ([]client.Transform, error)
	CreateTransform(ctx context.Context, transform client.Transform) (*client.Transform, error)
}

// Provisioner reconciles the fusion source's schema and transforms with
// the configured merging rules before a run touches any account.
type Provisioner struct {
	platform Platform
	merging  config.MergingConfig
	sourceID string
}

func NewProvisioner(platform Platform, cfg *config.Config) *Provisioner {
	return &Provisioner{
		platform: platform,
		merging:  cfg.Merging,
		sourceID: cfg.Fusion.SourceName,
	}
}

// Ensure brings the fusion source's account schema and the normalization
// transform up to date. Existing schema attributes are never removed,
// only missing ones are added, so manual additions survive.
func (p *Provisioner) Ensure(ctx context.Context) error {
	if err := p.ensureSchema(ctx); err != nil {
		return err
	}
	return p.ensureTransform(ctx)
}

func (p *Provisioner) ensureSchema(ctx context.Context) error {
	logger := log.GetLogger()

	schemas, err := p.platform.ListSchemas(ctx, p.sourceID)
	if err != nil {
		return err
	}

	desired := p.desiredAttributes()

	var existing *client.Schema
	for i := range schemas {
		if schemas[i].Name == accountSchemaName {
			existing = &schemas[i]
			break
		}
	}

	if existing == nil {
		created, err := p.platform.CreateSchema(ctx, p.sourceID, client.Schema{
			Name:       accountSchemaName,
			Attributes: desired,
		})
		if err != nil {
			return err
		}
		logger.Info("Created fusion account schema",
			log.String("schemaId", created.ID),
			log.Int("attributes", len(created.Attributes)))
		return nil
	}

	present := make(map[string]bool, len(existing.Attributes))
	for _, attribute := range existing.Attributes {
		present[attribute.Name] = true
	}

	var added int
	for _, attribute := range desired {
		if present[attribute.Name] {
			continue
		}
		existing.Attributes = append(existing.Attributes, attribute)
		added++
	}
	if added == 0 {
		return nil
	}

	if _, err := p.platform.UpdateSchema(ctx, p.sourceID, *existing); err != nil {
		return err
	}
	logger.Info("Updated fusion account schema",
		log.String("schemaId", existing.ID), log.Int("added", added))
	return nil
}

// desiredAttributes is the full attribute set a run can write: the
// lifecycle attributes plus every configured merge target.
func (p *Provisioner) desiredAttributes() []client.SchemaAttribute {
	attributes := []client.SchemaAttribute{
		{Name: constants.AttrUniqueID, Type: attributeTypeString,
			Description: "Stable human-readable account identifier."},
		{Name: constants.AttrUUID, Type: attributeTypeString,
			Description: "Immutable account UUID."},
		{Name: constants.AttrStatuses, Type: attributeTypeString, MultiValued: true,
			Description: "Lifecycle statuses."},
		{Name: constants.AttrAccounts, Type: attributeTypeString, MultiValued: true,
			Description: "Contributing account IDs."},
		{Name: constants.AttrHistory, Type: attributeTypeString, MultiValued: true,
			Description: "Audit history entries."},
		{Name: constants.AttrActions, Type: attributeTypeString, MultiValued: true},
		{Name: constants.AttrReviews, Type: attributeTypeString, MultiValued: true},
		{Name: constants.AttrSources, Type: attributeTypeString,
			Description: "Contributing source names."},
	}

	seen := make(map[string]bool, len(p.merging.Rules))
	for _, rule := range p.merging.Rules {
		if seen[rule.Target] || constants.ReservedAttributes[rule.Target] {
			continue
		}
		seen[rule.Target] = true
		attributes = append(attributes, client.SchemaAttribute{
			Name:        rule.Target,
			Type:        attributeTypeString,
			MultiValued: rule.Strategy == constants.MergeStrategyMulti,
		})
	}
	return attributes
}

// ensureTransform creates the shared normalization transform when it is
// missing. The definition is static, so an existing one is left alone.
func (p *Provisioner) ensureTransform(ctx context.Context) error {
	transforms, err := p.platform.ListTransforms(ctx)
	if err != nil {
		return err
	}
	for _, transform := range transforms {
		if transform.Name == transformName {
			return nil
		}
	}

	created, err := p.platform.CreateTransform(ctx, client.Transform{
		Name: transformName,
		Type: "lower",
		Attributes: map[string]interface{}{
			"input": map[string]interface{}{
				"type": "trim",
			},
		},
	})
	if err != nil {
		return err
	}
	log.GetLogger().Info("Created normalization transform",
		log.String("transformId", created.ID))
	return nil
}
