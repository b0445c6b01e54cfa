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

	"golang.org/x/sync/errgroup"

	"github.com/wso2/identity-account-fusion/internal/system/constants"
	"github.com/wso2/identity-account-fusion/internal/system/log"
)

// processBatches runs process over items in sequential batches of
// batchSize, each batch split into concurrency chunks of chunkSize. A
// chunk's items run concurrently and are awaited together before the
// next chunk starts. Within a chunk ordering is unspecified, but each
// batch's results are emitted in input order as soon as the batch
// completes, before the next batch begins. A per-item failure is passed
// to onError and does not abort its siblings; only context cancellation
// stops the walk.
func processBatches[T, R any](ctx context.Context, items []T, batchSize, chunkSize int,
	process func(ctx context.Context, item T) (R, error),
	emit func(result R),
	onError func(item T, err error),
	afterBatch func(batch int),
) error {
	if batchSize <= 0 {
		batchSize = constants.DefaultBatchSize
	}
	if chunkSize <= 0 {
		chunkSize = constants.DefaultChunkSize
	}

	logger := log.GetLogger()
	for start, batch := 0, 1; start < len(items); start, batch = start+batchSize, batch+1 {
		end := start + batchSize
		if end > len(items) {
			end = len(items)
		}
		window := items[start:end]
		results := make([]*R, len(window))

		for chunkStart := 0; chunkStart < len(window); chunkStart += chunkSize {
			chunkEnd := chunkStart + chunkSize
			if chunkEnd > len(window) {
				chunkEnd = len(window)
			}

			group, groupCtx := errgroup.WithContext(ctx)
			for i := chunkStart; i < chunkEnd; i++ {
				group.Go(func() error {
					result, err := process(groupCtx, window[i])
					if err != nil {
						onError(window[i], err)
						return nil
					}
					results[i] = &result
					return nil
				})
			}
			if err := group.Wait(); err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		for _, result := range results {
			if result != nil {
				emit(*result)
			}
		}
		logger.Debug("Batch completed",
			log.Int("batch", batch), log.Int("items", len(window)))
		if afterBatch != nil {
			afterBatch(batch)
		}
	}
	return nil
}
