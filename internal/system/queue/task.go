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
	"container/heap"
	"context"
	"time"
)

// Callable is one unit of deferred remote work.
type Callable func(ctx context.Context) (interface{}, error)

// Result resolves a task back to its submitter.
type Result struct {
	Value interface{}
	Err   error
}

// Task is owned exclusively by the execution queue for its lifetime.
type Task struct {
	priority   int
	seq        uint64
	call       Callable
	retries    int
	maxRetries int
	timeout    time.Duration
	enqueuedAt time.Time
	done       chan Result
}

// taskHeap orders tasks by priority, then FIFO by submission sequence
// within the same priority.
type taskHeap []*Task

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	return h[i].seq < h[j].seq
}

func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *taskHeap) Push(x any) {
	*h = append(*h, x.(*Task))
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	task := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return task
}

var _ heap.Interface = (*taskHeap)(nil)
