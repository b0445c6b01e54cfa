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
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wso2/identity-account-fusion/internal/fusion/correlation"
	"github.com/wso2/identity-account-fusion/internal/fusion/merge"
	"github.com/wso2/identity-account-fusion/internal/fusion/model"
	"github.com/wso2/identity-account-fusion/internal/fusion/provision"
	"github.com/wso2/identity-account-fusion/internal/fusion/refresh"
	"github.com/wso2/identity-account-fusion/internal/fusion/report"
	"github.com/wso2/identity-account-fusion/internal/fusion/review"
	"github.com/wso2/identity-account-fusion/internal/system/client"
	"github.com/wso2/identity-account-fusion/internal/system/config"
	"github.com/wso2/identity-account-fusion/internal/system/constants"
	"github.com/wso2/identity-account-fusion/internal/system/errors"
	"github.com/wso2/identity-account-fusion/internal/system/log"
	"github.com/wso2/identity-account-fusion/internal/system/queue"
)

// summaryWorkflowName is the workflow that mails the run summary to the
// source owner.
const summaryWorkflowName = "Account Fusion Run Summary"

// Action tags what a run did with one fusion account.
type Action string

const (
	ActionRefreshed  Action = "refreshed"
	ActionUnchanged  Action = "unchanged"
	ActionCreated    Action = "created"
	ActionAutoMerged Action = "auto-merged"
	ActionReview     Action = "review"
)

// Result is one finalized fusion account, streamed as its batch
// completes.
type Result struct {
	Action  Action
	Account model.FusionAccount
	// Analysis is the textual match explanation, set for uncorrelated
	// account outcomes.
	Analysis string
}

// RunnerPlatform is everything a run needs from the platform client.
type RunnerPlatform interface {
	Platform
	correlation.Platform
	provision.Platform
	review.Forms
	ListWorkflows(ctx context.Context) ([]client.Workflow, error)
	TriggerWorkflow(ctx context.Context, workflowID string, input map[string]interface{}) error
}

// Runner drives one full fusion run.
type Runner struct {
	cfg          *config.Config
	platform     RunnerPlatform
	queue        *queue.ExecutionQueue
	resolver     *merge.Resolver
	coordinator  *review.Coordinator
	correlations *correlation.Manager
	publisher    *review.Publisher
	provisioner  *provision.Provisioner
	failures     *report.Accumulator

	// lifecycle guards fusion-account mutations reachable from two
	// concurrent batch items, such as auto-merges into one identity.
	lifecycle sync.Mutex
}

// NewRunner wires a runner from the loaded configuration.
func NewRunner(cfg *config.Config, platform RunnerPlatform, q *queue.ExecutionQueue) *Runner {
	return &Runner{
		cfg:          cfg,
		platform:     platform,
		queue:        q,
		resolver:     merge.NewResolver(cfg.Merging),
		coordinator:  review.NewCoordinator(cfg.Merging, cfg.Fusion.ReviewerID),
		correlations: correlation.NewManager(platform),
		publisher:    review.NewPublisher(platform, cfg.Fusion.OwnerID),
		provisioner:  provision.NewProvisioner(platform, cfg),
		failures:     report.NewAccumulator(),
	}
}

// Run executes one fusion run, streaming finalized accounts to results
// as each batch completes. The channel is closed when the run ends. A
// run either completes or fails at the first unrecoverable error; there
// is no whole-run cancellation beyond the context.
func (r *Runner) Run(ctx context.Context, results chan<- Result) error {
	defer close(results)
	logger := log.GetLogger()
	started := time.Now()

	if err := r.provisioner.Ensure(ctx); err != nil {
		return err
	}

	if r.cfg.Fusion.ForceAggregation {
		if _, err := ForceAggregation(ctx, r.platform, r.cfg); err != nil {
			return err
		}
	}

	runCtx, err := BuildContext(ctx, r.platform, r.cfg)
	if err != nil {
		return err
	}

	uuids, uniqueIDs, fusionByIdentity := r.seedIdentifiers(runCtx)

	if err := r.refreshPass(ctx, runCtx, fusionByIdentity, results); err != nil {
		return err
	}
	if err := r.reviewPass(ctx, runCtx, uuids, uniqueIDs, fusionByIdentity, results); err != nil {
		return err
	}

	r.notifyOwner(ctx)

	snapshot := r.queue.Snapshot()
	logger.Info("Fusion run finished",
		log.Duration("elapsed", time.Since(started)),
		log.Int64("processedCalls", snapshot.Processed),
		log.Int64("failedCalls", snapshot.Failed),
		log.Int64("retriedCalls", snapshot.Retried),
		log.Int("runIssues", r.failures.Count()))
	return nil
}

// seedIdentifiers parses every fusion account once to seed the UUID pool
// and uniqueID allocator, and indexes the parsed accounts by identity.
func (r *Runner) seedIdentifiers(runCtx *Context) (*UUIDPool, *UniqueIDAllocator, map[string]*model.FusionAccount) {
	uniqueIDs := NewUniqueIDAllocator(r.cfg.Fusion.UIDScope)
	fusionByIdentity := make(map[string]*model.FusionAccount, len(runCtx.FusionAccounts))

	var seen []string
	for _, wire := range runCtx.FusionAccounts {
		fusion := ParseFusionAccount(wire)
		seen = append(seen, fusion.UUID)

		seeded := false
		for _, accountID := range fusion.AccountIDs {
			if contributing, ok := runCtx.AccountByID[accountID]; ok {
				uniqueIDs.Seed(contributing.SourceName, fusion.UniqueID)
				seeded = true
			}
		}
		if !seeded {
			uniqueIDs.Seed("", fusion.UniqueID)
		}
		if fusion.IdentityID != "" {
			indexed := fusion
			fusionByIdentity[fusion.IdentityID] = &indexed
		}
	}
	return NewUUIDPool(seen), uniqueIDs, fusionByIdentity
}

// refreshPass walks every fusion account: repairs correlation links,
// asks the planner whether the merged attributes are stale, and
// recomputes them when they are. Refresh is best effort; a recompute
// problem keeps the prior attribute set.
func (r *Runner) refreshPass(ctx context.Context, runCtx *Context,
	fusionByIdentity map[string]*model.FusionAccount, results chan<- Result,
) error {
	process := func(procCtx context.Context, wire client.Account) (Result, error) {
		fusion := ParseFusionAccount(wire)
		if indexed, ok := fusionByIdentity[fusion.IdentityID]; ok {
			// Work on the shared parsed copy so later auto-merges see
			// this pass's mutations.
			fusion = *indexed
		}

		live := runCtx.AccountsByIdentity[fusion.IdentityID]
		knownIDs := make(map[string]struct{}, len(live))
		for _, account := range live {
			knownIDs[account.ID] = struct{}{}
		}

		if fusion.IdentityID != "" {
			linked := r.correlations.Reconcile(procCtx, &fusion, fusion.IdentityID, knownIDs)
			live = append(append([]client.Account{}, live...), linked...)
		}

		facts := refresh.Facts{
			ConfigModified:  runCtx.ConfigModified,
			LastAggregation: runCtx.LastAggregation,
			AccountModified: make(map[string]time.Time, len(live)),
		}
		for _, account := range live {
			facts.KnownAccountIDs = append(facts.KnownAccountIDs, account.ID)
			facts.AccountModified[account.ID] = account.Modified
		}

		if len(facts.KnownAccountIDs) == 0 {
			if !fusion.HasStatus(constants.StatusOrphan) {
				fusion.AddStatus(constants.StatusOrphan)
				fusion.AppendHistory("Marked orphan: no contributing accounts remain.")
			}
		} else {
			fusion.RemoveStatus(constants.StatusOrphan)
		}

		decision := refresh.Plan(&fusion, facts)
		if !decision.Required {
			r.syncIndexed(fusionByIdentity, &fusion)
			return Result{Action: ActionUnchanged, Account: fusion}, nil
		}

		r.remerge(&fusion, live, decision.Reason)
		r.syncIndexed(fusionByIdentity, &fusion)
		return Result{Action: ActionRefreshed, Account: fusion}, nil
	}

	return processBatches(ctx, runCtx.FusionAccounts,
		constants.DefaultBatchSize, constants.DefaultChunkSize,
		process,
		func(result Result) { results <- result },
		func(wire client.Account, err error) {
			log.GetLogger().Error("Fusion account refresh failed",
				log.String("accountId", wire.ID), log.Error(err))
			r.failures.Add("refresh", err)
		},
		func(batch int) { r.correlations.LogBatch(batch) },
	)
}

// remerge recomputes the merged attributes from the live contributing
// accounts and records why.
func (r *Runner) remerge(fusion *model.FusionAccount, live []client.Account, reason string) {
	contributing := make([]model.SourceAccount, 0, len(live))
	ids := make([]string, 0, len(live))
	for _, account := range live {
		contributing = append(contributing, account.ToSource())
		ids = append(ids, account.ID)
	}

	fusion.Attributes = r.resolver.Resolve(contributing)
	fusion.AccountIDs = ids
	fusion.AppendHistory("Refreshed merged attributes: " + reason + ".")
}

// syncIndexed publishes the refreshed state for the review pass.
func (r *Runner) syncIndexed(fusionByIdentity map[string]*model.FusionAccount, fusion *model.FusionAccount) {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()
	if indexed, ok := fusionByIdentity[fusion.IdentityID]; ok {
		*indexed = *fusion
	}
}

// reviewPass classifies every uncorrelated contributing account:
// identical matches auto-merge when enabled, ambiguous matches become
// review form instances, and unmatched accounts become new fusion
// accounts.
func (r *Runner) reviewPass(ctx context.Context, runCtx *Context,
	uuids *UUIDPool, uniqueIDs *UniqueIDAllocator,
	fusionByIdentity map[string]*model.FusionAccount, results chan<- Result,
) error {
	logger := log.GetLogger()
	if !r.cfg.Merging.Enabled {
		logger.Info("Merging is disabled; skipping uncorrelated accounts",
			log.Int("uncorrelated", len(runCtx.Uncorrelated)))
		return nil
	}
	if len(runCtx.Uncorrelated) == 0 {
		return nil
	}

	if err := r.publisher.EnsureDefinitions(ctx); err != nil {
		return err
	}
	pending, err := r.publisher.PendingInstances(ctx)
	if err != nil {
		return err
	}

	candidates := make([]review.Candidate, 0, len(runCtx.IdentityByID))
	for _, identity := range runCtx.IdentityByID {
		candidates = append(candidates, review.Candidate{
			IdentityID: identity.ID,
			Attributes: model.BagFromRaw(identity.Attributes),
		})
	}

	var fatal error
	stillPending := map[string]struct{}{}

	process := func(procCtx context.Context, wire client.Account) (Result, error) {
		source := wire.ToSource()
		outcome, err := r.coordinator.Classify(&source, candidates)
		if err != nil {
			r.lifecycle.Lock()
			if fatal == nil {
				fatal = err
			}
			r.lifecycle.Unlock()
			return Result{}, err
		}

		switch outcome.Decision {
		case review.DecisionAutoMerge:
			return r.applyAutoMerge(procCtx, &source, outcome, runCtx, fusionByIdentity)
		case review.DecisionReview:
			analysis := report.Analysis(source.ID, outcome.Case.Attributes, outcome.Case.Matches)
			r.lifecycle.Lock()
			stillPending[source.ID] = struct{}{}
			err := r.publisher.Publish(procCtx, outcome.Case, pending)
			r.lifecycle.Unlock()
			if err != nil {
				return Result{}, err
			}
			return Result{Action: ActionReview, Analysis: analysis}, nil
		default:
			return r.createFusionAccount(&source, uuids, uniqueIDs)
		}
	}

	err = processBatches(ctx, runCtx.Uncorrelated,
		constants.DefaultBatchSize, constants.DefaultChunkSize,
		process,
		func(result Result) { results <- result },
		func(wire client.Account, err error) {
			logger.Error("Uncorrelated account classification failed",
				log.String("accountId", wire.ID), log.Error(err))
			r.failures.Add("review", err)
		},
		func(batch int) { r.correlations.LogBatch(batch) },
	)
	if err != nil {
		return err
	}
	if fatal != nil {
		// Missing reviewer configuration aborts the run.
		return fatal
	}

	r.publisher.RetireStale(ctx, pending, stillPending)
	return nil
}

// applyAutoMerge appends the account to the identical identity's fusion
// account, correlates it, and forces a re-merge over the grown
// contributing list. A failed correlate call is logged; the local merge
// still happens and the next run repairs the link.
func (r *Runner) applyAutoMerge(ctx context.Context, source *model.SourceAccount,
	outcome *review.Outcome, runCtx *Context, fusionByIdentity map[string]*model.FusionAccount,
) (Result, error) {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()

	fusion, ok := fusionByIdentity[outcome.Match.IdentityID]
	if !ok {
		return Result{}, errors.NewClientErrorWithDescription(errors.FUSION_ACCOUNT_NOT_FOUND,
			fmt.Sprintf("Identity %q matched account %q but has no fusion account.",
				outcome.Match.IdentityID, source.ID))
	}

	if err := r.platform.CorrelateAccount(ctx, source.ID, fusion.IdentityID); err != nil {
		log.GetLogger().Error("Failed to correlate auto-merged account",
			log.String("accountId", source.ID),
			log.String("identityId", fusion.IdentityID),
			log.Error(err))
		r.failures.Add("auto-merge", err)
	}

	review.AutoMerge(fusion, source.ID)

	live := append(append([]client.Account{}, runCtx.AccountsByIdentity[fusion.IdentityID]...),
		runCtx.AccountByID[source.ID])
	r.remerge(fusion, live, "account "+source.ID+" auto-merged")

	analysis := report.Analysis(source.ID, r.coordinator.Comparable(source), outcome.Matches)
	return Result{Action: ActionAutoMerged, Account: *fusion, Analysis: analysis}, nil
}

// createFusionAccount finalizes an unmatched account as a brand-new
// fusion account with a fresh UUID and scoped uniqueID.
func (r *Runner) createFusionAccount(source *model.SourceAccount,
	uuids *UUIDPool, uniqueIDs *UniqueIDAllocator,
) (Result, error) {
	id, err := uuids.Allocate()
	if err != nil {
		return Result{}, err
	}

	fusion := model.FusionAccount{
		UniqueID:   uniqueIDs.Allocate(source.Source, uniqueIDBase(source, "")),
		UUID:       id,
		AccountIDs: []string{source.ID},
		Attributes: r.resolver.Resolve([]model.SourceAccount{*source}),
	}
	fusion.AddStatus(constants.StatusUnmatched)
	fusion.AppendHistory(fmt.Sprintf("Created from uncorrelated account %s; no identity matched.", source.ID))

	analysis := report.Analysis(source.ID, r.coordinator.Comparable(source), nil)
	return Result{Action: ActionCreated, Account: fusion, Analysis: analysis}, nil
}

// notifyOwner mails the accumulated non-fatal issues to the source owner
// through the summary workflow. A missing workflow or a failed trigger
// is logged, never fatal.
func (r *Runner) notifyOwner(ctx context.Context) {
	logger := log.GetLogger()
	summary := r.failures.Summary()
	if summary == "" {
		return
	}

	workflows, err := r.platform.ListWorkflows(ctx)
	if err != nil {
		logger.Warn("Could not list workflows for the run summary", log.Error(err))
		return
	}
	for _, workflow := range workflows {
		if workflow.Name != summaryWorkflowName || !workflow.Enabled {
			continue
		}
		input := map[string]interface{}{
			"recipientId": r.cfg.Fusion.OwnerID,
			"subject":     "Account fusion run summary",
			"body":        summary,
		}
		if err := r.platform.TriggerWorkflow(ctx, workflow.ID, input); err != nil {
			logger.Warn("Failed to trigger the run summary workflow", log.Error(err))
		}
		return
	}
	logger.Warn("No enabled run summary workflow found; issues were only logged",
		log.Int("runIssues", r.failures.Count()))
}
