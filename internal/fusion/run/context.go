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

// Package run drives one end-to-end fusion run: it builds the per-run
// lookup indices from fresh fetches, refreshes existing fusion accounts,
// and routes uncorrelated accounts through match classification.
package run

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wso2/identity-account-fusion/internal/system/client"
	"github.com/wso2/identity-account-fusion/internal/system/config"
	"github.com/wso2/identity-account-fusion/internal/system/log"
)

// Platform is the slice of the platform client a run needs to load its
// indices and drive aggregation.
type Platform interface {
	ListAccountsBySource(ctx context.Context, sourceID string) ([]client.Account, error)
	SearchIdentities(ctx context.Context, query string) ([]client.Identity, error)
	TriggerAggregation(ctx context.Context, sourceID string) (*client.AggregationJob, error)
	AwaitAggregation(ctx context.Context, jobID string) (*client.AggregationJob, error)
	LastAggregationTime(ctx context.Context, sourceID string) (time.Time, error)
}

// Context holds one run's state: lookup indices built once from fresh
// fetches, read-only during batch processing.
type Context struct {
	// FusionAccounts is every account of the fusion source, input order.
	FusionAccounts []client.Account
	// IdentityByID indexes all known identities.
	IdentityByID map[string]client.Identity
	// AccountsByIdentity indexes contributing-source accounts by their
	// owning identity.
	AccountsByIdentity map[string][]client.Account
	// AccountByID indexes every authoritative contributing account.
	AccountByID map[string]client.Account
	// Uncorrelated lists contributing accounts with no owning identity,
	// input order per source.
	Uncorrelated []client.Account
	// LastAggregation is the fusion source's last completed aggregation.
	LastAggregation time.Time
	// ConfigModified is when the merging configuration last changed.
	ConfigModified time.Time
}

// BuildContext fetches everything a run needs and assembles the indices.
// Contributing sources are fetched concurrently; the index maps are
// never written after this returns.
func BuildContext(ctx context.Context, platform Platform, cfg *config.Config) (*Context, error) {
	runCtx := &Context{
		IdentityByID:       map[string]client.Identity{},
		AccountsByIdentity: map[string][]client.Account{},
		AccountByID:        map[string]client.Account{},
	}

	fusionAccounts, err := platform.ListAccountsBySource(ctx, cfg.Fusion.SourceName)
	if err != nil {
		return nil, err
	}
	runCtx.FusionAccounts = fusionAccounts

	identities, err := platform.SearchIdentities(ctx, "*")
	if err != nil {
		return nil, err
	}
	for _, identity := range identities {
		runCtx.IdentityByID[identity.ID] = identity
	}

	lastAggregation, err := platform.LastAggregationTime(ctx, cfg.Fusion.SourceName)
	if err != nil {
		return nil, err
	}
	runCtx.LastAggregation = lastAggregation

	bySource := make([][]client.Account, len(cfg.Merging.Sources))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, source := range cfg.Merging.Sources {
		group.Go(func() error {
			accounts, err := platform.ListAccountsBySource(groupCtx, source)
			if err != nil {
				return err
			}
			bySource[i] = accounts
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	for _, accounts := range bySource {
		for _, account := range accounts {
			runCtx.AccountByID[account.ID] = account
			if account.IdentityID == "" || account.Uncorrelated {
				runCtx.Uncorrelated = append(runCtx.Uncorrelated, account)
				continue
			}
			runCtx.AccountsByIdentity[account.IdentityID] =
				append(runCtx.AccountsByIdentity[account.IdentityID], account)
		}
	}

	log.GetLogger().Info("Run context built",
		log.Int("fusionAccounts", len(runCtx.FusionAccounts)),
		log.Int("identities", len(runCtx.IdentityByID)),
		log.Int("contributingAccounts", len(runCtx.AccountByID)),
		log.Int("uncorrelated", len(runCtx.Uncorrelated)))
	return runCtx, nil
}

// ForceAggregation triggers and awaits a fresh aggregation on every
// contributing source and the fusion source, capturing the fusion
// source's completion time as the run's aggregation watermark.
func ForceAggregation(ctx context.Context, platform Platform, cfg *config.Config) (time.Time, error) {
	logger := log.GetLogger()
	var watermark time.Time

	sources := append(append([]string{}, cfg.Merging.Sources...), cfg.Fusion.SourceName)
	for _, source := range sources {
		job, err := platform.TriggerAggregation(ctx, source)
		if err != nil {
			return time.Time{}, err
		}
		finished, err := platform.AwaitAggregation(ctx, job.ID)
		if err != nil {
			return time.Time{}, err
		}
		logger.Info("Aggregation finished",
			log.String("source", source), log.String("status", finished.Status))
		if source == cfg.Fusion.SourceName && finished.Completed != nil {
			watermark = *finished.Completed
		}
	}
	return watermark, nil
}
