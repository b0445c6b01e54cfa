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
	"time"

	"github.com/codeGROOVE-dev/retry"

	"github.com/wso2/identity-account-fusion/internal/system/constants"
	"github.com/wso2/identity-account-fusion/internal/system/errors"
	"github.com/wso2/identity-account-fusion/internal/system/log"
)

const (
	aggregationPollInterval = 5 * time.Second
	aggregationPollBudget   = 120
)

// TriggerAggregation starts a fresh account aggregation on the source.
func (c *PlatformClient) TriggerAggregation(ctx context.Context, sourceID string) (*AggregationJob, error) {
	var job AggregationJob
	err := c.execute(ctx, constants.PriorityCritical, http.MethodPost,
		"/v3/sources/"+url.PathEscape(sourceID)+"/load", nil, &job)
	if err != nil {
		return nil, errors.NewServerError(errors.AGGREGATION_FAILED,
			fmt.Errorf("triggering aggregation on source %s: %w", sourceID, err))
	}
	return &job, nil
}

// GetAggregationJob fetches the current state of an aggregation job.
func (c *PlatformClient) GetAggregationJob(ctx context.Context, jobID string) (*AggregationJob, error) {
	var job AggregationJob
	err := c.execute(ctx, constants.PriorityCritical, http.MethodGet,
		"/v3/aggregations/"+url.PathEscape(jobID), nil, &job)
	if err != nil {
		return nil, errors.NewServerError(errors.AGGREGATION_FAILED,
			fmt.Errorf("fetching aggregation job %s: %w", jobID, err))
	}
	return &job, nil
}

// errJobRunning drives the poll loop; it never escapes AwaitAggregation.
var errJobRunning = fmt.Errorf("aggregation job still running")

// AwaitAggregation polls the job until it reaches a terminal status. It
// fails on a terminated or errored job and returns the finished job,
// whose completion timestamp the run uses as its aggregation watermark.
func (c *PlatformClient) AwaitAggregation(ctx context.Context, jobID string) (*AggregationJob, error) {
	job, err := retry.DoWithData(
		func() (*AggregationJob, error) {
			current, err := c.GetAggregationJob(ctx, jobID)
			if err != nil {
				return nil, err
			}
			if !current.Finished() {
				return nil, errJobRunning
			}
			return current, nil
		},
		retry.Context(ctx),
		retry.Attempts(aggregationPollBudget),
		retry.Delay(aggregationPollInterval),
		retry.DelayType(retry.FixedDelay),
		retry.MaxJitter(time.Second),
		retry.RetryIf(func(err error) bool { return err == errJobRunning }),
		retry.OnRetry(func(n uint, _ error) {
			log.GetLogger().Debug("Waiting for aggregation job to finish",
				log.String("jobId", jobID), log.Int("poll", int(n)+1))
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		if err == errJobRunning {
			return nil, errors.NewServerError(errors.AGGREGATION_FAILED,
				fmt.Errorf("aggregation job %s did not finish within the poll budget", jobID))
		}
		return nil, err
	}
	if !job.Succeeded() {
		return nil, errors.NewServerError(errors.AGGREGATION_FAILED,
			fmt.Errorf("aggregation job %s finished with status %s", jobID, job.Status))
	}
	return job, nil
}

// LastAggregationTime reports the completion timestamp of the source's
// most recent finished aggregation, zero when none has run.
func (c *PlatformClient) LastAggregationTime(ctx context.Context, sourceID string) (time.Time, error) {
	query := url.Values{}
	query.Set("filters", fmt.Sprintf("sourceId eq %q", sourceID))
	query.Set("sorters", "-completed")
	query.Set("limit", "1")

	var jobs []AggregationJob
	err := c.execute(ctx, constants.PriorityMedium, http.MethodGet,
		"/v3/aggregations?"+query.Encode(), nil, &jobs)
	if err != nil {
		return time.Time{}, errors.NewServerError(errors.AGGREGATION_FAILED,
			fmt.Errorf("fetching aggregation history for source %s: %w", sourceID, err))
	}
	if len(jobs) == 0 || jobs[0].Completed == nil {
		return time.Time{}, nil
	}
	return *jobs[0].Completed, nil
}
