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

// Package queue implements the priority-ordered, rate-limited, retrying
// execution pipeline that every outbound call to the identity platform
// passes through.
package queue

import (
	"container/heap"
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/wso2/identity-account-fusion/internal/system/constants"
	"github.com/wso2/identity-account-fusion/internal/system/errors"
	"github.com/wso2/identity-account-fusion/internal/system/log"
)

const (
	baseRetryDelay = 500 * time.Millisecond
	maxRetryDelay  = 30 * time.Second
	jitterFraction = 0.2
)

// Options tunes the execution queue.
type Options struct {
	RequestsPerSecond     int
	MaxConcurrentRequests int
	MaxRetries            int
	// CallTimeout is the per-call wall-clock limit. Zero disables it.
	CallTimeout time.Duration
	// StatsInterval is the period between statistics logs. Zero disables
	// periodic logging.
	StatsInterval time.Duration
}

// ExecutionQueue is a bounded-concurrency, rate-limited, priority-aware
// task runner. Tasks of equal priority are served first-in-first-out.
type ExecutionQueue struct {
	opts    Options
	limiter *rate.Limiter
	gate    *semaphore.Weighted
	stats   *Stats

	mu      sync.Mutex
	pending taskHeap
	seq     uint64
	closed  bool

	wake chan struct{}
	done chan struct{}
	wg   sync.WaitGroup
}

// New creates an execution queue. Start must be called before Execute.
func New(opts Options) *ExecutionQueue {
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = constants.DefaultRequestsPerSecond
	}
	if opts.MaxConcurrentRequests <= 0 {
		opts.MaxConcurrentRequests = constants.DefaultMaxConcurrentRequests
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = constants.DefaultMaxRetries
	}
	return &ExecutionQueue{
		opts:    opts,
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.RequestsPerSecond),
		gate:    semaphore.NewWeighted(int64(opts.MaxConcurrentRequests)),
		stats:   newStats(),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// Start launches the scheduler loop and, when configured, the periodic
// statistics logger.
func (q *ExecutionQueue) Start(ctx context.Context) {
	q.wg.Add(1)
	go q.schedule(ctx)

	if q.opts.StatsInterval > 0 {
		q.wg.Add(1)
		go q.logStatsPeriodically()
	}
}

// Stop shuts the scheduler down. Pending tasks resolve with a failure.
func (q *ExecutionQueue) Stop() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	drained := q.pending
	q.pending = nil
	q.mu.Unlock()

	close(q.done)
	for _, task := range drained {
		task.done <- Result{Err: errors.NewServerError(errors.REMOTE_CALL_FAILED,
			context.Canceled)}
	}
	q.wg.Wait()
}

// Execute submits a callable at the given priority and blocks until it
// resolves. The error is the task's terminal failure after the retry
// budget is exhausted; the queue itself never panics the process.
func (q *ExecutionQueue) Execute(ctx context.Context, priority int, call Callable) (interface{}, error) {
	task, err := q.submit(priority, call)
	if err != nil {
		return nil, err
	}
	select {
	case res := <-task.done:
		return res.Value, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ExecuteLow is a convenience wrapper for bulk reads.
func (q *ExecutionQueue) ExecuteLow(ctx context.Context, call Callable) (interface{}, error) {
	return q.Execute(ctx, constants.PriorityLow, call)
}

// Snapshot returns a point-in-time view of the queue counters.
func (q *ExecutionQueue) Snapshot() StatsSnapshot {
	q.mu.Lock()
	depth := len(q.pending)
	q.mu.Unlock()
	return q.stats.snapshot(depth)
}

func (q *ExecutionQueue) submit(priority int, call Callable) (*Task, error) {
	if priority < constants.PriorityCritical || priority > constants.PriorityLow {
		priority = constants.PriorityLow
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil, errors.NewServerError(errors.REMOTE_CALL_FAILED, context.Canceled)
	}
	q.seq++
	task := &Task{
		priority:   priority,
		seq:        q.seq,
		call:       call,
		maxRetries: q.opts.MaxRetries,
		timeout:    q.opts.CallTimeout,
		enqueuedAt: time.Now(),
		done:       make(chan Result, 1),
	}
	heap.Push(&q.pending, task)
	q.mu.Unlock()

	q.signal()
	return task, nil
}

// requeue puts a failed task back after its retry delay has elapsed.
func (q *ExecutionQueue) requeue(task *Task) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		task.done <- Result{Err: errors.NewServerError(errors.REMOTE_CALL_FAILED,
			context.Canceled)}
		return
	}
	q.seq++
	task.seq = q.seq
	task.enqueuedAt = time.Now()
	heap.Push(&q.pending, task)
	q.mu.Unlock()

	q.signal()
}

func (q *ExecutionQueue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// schedule is the single dispatch loop. A task is only dispatched while
// both the rate budget and the concurrency cap allow it.
func (q *ExecutionQueue) schedule(ctx context.Context) {
	defer q.wg.Done()
	for {
		task := q.next()
		if task == nil {
			select {
			case <-q.wake:
				continue
			case <-q.done:
				return
			case <-ctx.Done():
				return
			}
		}

		if err := q.limiter.Wait(ctx); err != nil {
			task.done <- Result{Err: err}
			return
		}
		if err := q.gate.Acquire(ctx, 1); err != nil {
			task.done <- Result{Err: err}
			return
		}

		q.stats.taskStarted(time.Since(task.enqueuedAt))
		go q.run(ctx, task)
	}
}

func (q *ExecutionQueue) next() *Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil
	}
	return heap.Pop(&q.pending).(*Task)
}

// run executes one task attempt and settles or requeues it.
func (q *ExecutionQueue) run(ctx context.Context, task *Task) {
	defer q.gate.Release(1)

	started := time.Now()
	value, err := q.invoke(ctx, task)
	q.stats.taskFinished(time.Since(started))

	if err == nil {
		q.stats.taskProcessed()
		task.done <- Result{Value: value}
		return
	}

	if !errors.IsTransient(err) || task.retries >= task.maxRetries {
		q.stats.taskFailed()
		if task.retries >= task.maxRetries && errors.IsTransient(err) {
			err = errors.NewServerError(errors.RETRIES_EXHAUSTED, err)
		}
		task.done <- Result{Err: err}
		return
	}

	task.retries++
	q.stats.taskRetried()
	delay := retryDelay(err, task.retries)
	log.GetLogger().Debug("Requeueing failed task",
		log.Int("attempt", task.retries),
		log.Duration("delay", delay),
		log.Error(err))
	time.AfterFunc(delay, func() { q.requeue(task) })
}

// invoke races the call against the per-call timeout. On expiry the call
// is abandoned; a result arriving later is discarded via the buffered
// channel.
func (q *ExecutionQueue) invoke(ctx context.Context, task *Task) (interface{}, error) {
	if task.timeout <= 0 {
		return task.call(ctx)
	}

	callCtx, cancel := context.WithTimeout(ctx, task.timeout)
	defer cancel()

	type outcome struct {
		value interface{}
		err   error
	}
	ch := make(chan outcome, 1)
	go func() {
		value, err := task.call(callCtx)
		ch <- outcome{value, err}
	}()

	select {
	case out := <-ch:
		return out.value, out.err
	case <-callCtx.Done():
		return nil, errors.NewTransientError(errors.REMOTE_CALL_TIMEOUT, callCtx.Err())
	}
}

// retryDelay computes the wait before the given retry attempt. A
// rate-limit signal carrying an explicit wait hint is honored, plus a
// jitter fraction of the hint. Otherwise exponential backoff from the
// base delay, with jitter, capped at the maximum delay.
func retryDelay(err error, attempt int) time.Duration {
	if hint, ok := errors.RetryAfterSeconds(err); ok {
		hinted := time.Duration(hint * float64(time.Second))
		jitter := time.Duration(rand.Float64() * jitterFraction * float64(hinted))
		return hinted + jitter
	}

	backoff := float64(baseRetryDelay) * math.Pow(2, float64(attempt-1))
	if backoff > float64(maxRetryDelay) {
		backoff = float64(maxRetryDelay)
	}
	jitter := rand.Float64() * jitterFraction * backoff
	return time.Duration(backoff + jitter)
}

func (q *ExecutionQueue) logStatsPeriodically() {
	defer q.wg.Done()
	ticker := time.NewTicker(q.opts.StatsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			snap := q.Snapshot()
			log.GetLogger().Info("Execution queue statistics",
				log.Int64("processed", snap.Processed),
				log.Int64("failed", snap.Failed),
				log.Int64("retried", snap.Retried),
				log.Int("queue_length", snap.QueueLength),
				log.Int64("active", snap.Active),
				log.Duration("avg_wait", snap.AverageWait),
				log.Duration("avg_processing", snap.AverageProcessing))
		case <-q.done:
			return
		}
	}
}
