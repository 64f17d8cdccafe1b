// Copyright (c) 2026 - for information on the respective copyright owner
// see the NOTICE file and/or the repository at
// https://github.com/starkbridge/starkbridge
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package async

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// TaskID identifies a task within the bridge that spawned it.
type TaskID uint64

// Token is the cooperative cancellation flag of a task.
type Token struct {
	cancelled atomic.Bool
}

// Cancel sets the flag. The task observes it at its next check.
func (t *Token) Cancel() {
	t.cancelled.Store(true)
}

// Cancelled reports whether Cancel was called.
func (t *Token) Cancelled() bool {
	return t.cancelled.Load()
}

// Task is a unit of background work. It must check tok before each blocking
// call and return early once it is cancelled.
type Task[T any] func(tok *Token) (T, error)

// Completion is the result of a task, delivered exactly once.
type Completion[T any] struct {
	ID    TaskID
	Value T
	Err   error
	// Cancelled is true if the token of the task was cancelled before the
	// result was produced. The result of such a task is usually discarded.
	Cancelled bool
}

// Bridge is the completion queue of one foreground component. Results are
// delivered in completion order.
type Bridge[T any] struct {
	rt *Runtime

	mu        sync.Mutex
	lastID    TaskID
	completed []Completion[T]
}

// NewBridge returns a bridge that runs its tasks on rt.
func NewBridge[T any](rt *Runtime) *Bridge[T] {
	return &Bridge[T]{rt: rt}
}

// Spawn starts the task in the background and returns immediately.
// It fails with ErrUnavailable if the runtime was shut down.
func (b *Bridge[T]) Spawn(task Task[T]) (TaskID, *Token, error) {
	return b.SpawnAfter(0, task)
}

// SpawnAfter is like Spawn, but the task starts only after the delay. No
// worker is occupied while waiting.
func (b *Bridge[T]) SpawnAfter(delay time.Duration, task Task[T]) (TaskID, *Token, error) {
	b.mu.Lock()
	b.lastID++
	id := b.lastID
	b.mu.Unlock()

	tok := &Token{}
	run := func() {
		value, err := runRecovered(task, tok)
		b.push(Completion[T]{ID: id, Value: value, Err: err, Cancelled: tok.Cancelled()})
	}
	drop := func() {
		b.push(Completion[T]{ID: id, Err: errors.WithStack(ErrUnavailable), Cancelled: tok.Cancelled()})
	}
	if err := b.rt.submit(delay, run, drop); err != nil {
		return 0, nil, err
	}
	return id, tok, nil
}

func runRecovered[T any](task Task[T], tok *Token) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("task panicked: %v", r)
		}
	}()
	return task(tok)
}

func (b *Bridge[T]) push(c Completion[T]) {
	b.mu.Lock()
	b.completed = append(b.completed, c)
	b.mu.Unlock()
}

// PollCompleted returns all results that completed since the previous call,
// or nil if there are none. It never blocks on background work.
func (b *Bridge[T]) PollCompleted() []Completion[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := b.completed
	b.completed = nil
	return out
}

// Runtime returns the runtime the bridge spawns on.
func (b *Bridge[T]) Runtime() *Runtime {
	return b.rt
}
