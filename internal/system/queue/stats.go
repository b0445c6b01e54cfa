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

package queue

import (
	"sync/atomic"
	"time"
)

// Stats holds the running queue counters. All updates are atomic relative
// to task completion.
type Stats struct {
	processed atomic.Int64
	failed    atomic.Int64
	retried   atomic.Int64
	active    atomic.Int64

	started         atomic.Int64
	totalWaitNs     atomic.Int64
	finished        atomic.Int64
	totalRunNs      atomic.Int64
}

// StatsSnapshot is a point-in-time view of the queue counters.
type StatsSnapshot struct {
	Processed         int64
	Failed            int64
	Retried           int64
	QueueLength       int
	Active            int64
	AverageWait       time.Duration
	AverageProcessing time.Duration
}

func newStats() *Stats {
	return &Stats{}
}

func (s *Stats) taskStarted(waited time.Duration) {
	s.active.Add(1)
	s.started.Add(1)
	s.totalWaitNs.Add(int64(waited))
}

func (s *Stats) taskFinished(ran time.Duration) {
	s.active.Add(-1)
	s.finished.Add(1)
	s.totalRunNs.Add(int64(ran))
}

func (s *Stats) taskProcessed() {
	s.processed.Add(1)
}

func (s *Stats) taskFailed() {
	s.failed.Add(1)
}

func (s *Stats) taskRetried() {
	s.retried.Add(1)
}

func (s *Stats) snapshot(queueLength int) StatsSnapshot {
	snap := StatsSnapshot{
		Processed:   s.processed.Load(),
		Failed:      s.failed.Load(),
		Retried:     s.retried.Load(),
		QueueLength: queueLength,
		Active:      s.active.Load(),
	}
	if started := s.started.Load(); started > 0 {
		snap.AverageWait = time.Duration(s.totalWaitNs.Load() / started)
	}
	if finished := s.finished.Load(); finished > 0 {
		snap.AverageProcessing = time.Duration(s.totalRunNs.Load() / finished)
	}
	return snap
}
