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
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/starkbridge/starkbridge/log"
)

// Error type is used to define error constants for this package.
type Error string

// Error implements error interface.
func (e Error) Error() string {
	return string(e)
}

// ErrUnavailable is returned when work is spawned after the runtime was shut down.
const ErrUnavailable Error = "runtime is shut down"

// RuntimeConfig defines the parameters of the background executor.
type RuntimeConfig struct {
	// Workers is the number of pool workers running tasks concurrently.
	Workers int `mapstructure:"workers"`
}

// DefaultRuntimeConfig returns the configuration used when none is given.
func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{Workers: 8}
}

// Runtime is the shared multi-worker executor for background tasks.
//
// Spawning never blocks: accepted work is appended to an unbounded intake
// queue and a dispatcher goroutine hands it to the worker pool as workers
// become free.
type Runtime struct {
	log.Logger

	pool    *ants.Pool
	metrics *metrics

	mu      sync.Mutex
	closed  bool
	intake  []func()
	delayed map[*delayedTask]struct{}

	wake     chan struct{}
	done     chan struct{}
	tasks    sync.WaitGroup
	inflight atomic.Int64
}

type delayedTask struct {
	timer *time.Timer
	drop  func()
}

// NewRuntime starts a runtime with the given number of workers. Metrics are
// registered with reg, if it is not nil.
func NewRuntime(cfg RuntimeConfig, reg prometheus.Registerer) (*Runtime, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultRuntimeConfig().Workers
	}
	m, err := newMetrics(reg)
	if err != nil {
		return nil, errors.WithMessage(err, "registering runtime metrics")
	}

	rt := &Runtime{
		Logger:  log.NewLoggerWithField("component", "async-runtime"),
		metrics: m,
		delayed: make(map[*delayedTask]struct{}),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	rt.pool, err = ants.NewPool(cfg.Workers,
		ants.WithLogger(rt.Logger),
		ants.WithPanicHandler(func(p interface{}) {
			rt.WithField("panic", p).Error("Task panicked outside of its recovery handler")
		}))
	if err != nil {
		return nil, errors.Wrap(err, "creating worker pool")
	}

	go rt.dispatch()
	rt.WithField("workers", cfg.Workers).Debug("Runtime started")
	return rt, nil
}

// submit accepts a unit of work. If delay is positive the work is queued
// only after the delay has passed. drop is called instead of run if the
// runtime shuts down before the delayed work could be queued.
func (rt *Runtime) submit(delay time.Duration, run func(), drop func()) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.closed {
		return errors.WithStack(ErrUnavailable)
	}
	rt.tasks.Add(1)
	rt.inflight.Add(1)
	rt.metrics.spawned.Inc()
	rt.metrics.inflight.Inc()

	wrapped := func() {
		defer rt.finish(outcomeRun)
		run()
	}
	dropped := func() {
		defer rt.finish(outcomeDropped)
		drop()
	}

	if delay <= 0 {
		rt.enqueueLocked(wrapped)
		return nil
	}

	dt := &delayedTask{drop: dropped}
	rt.delayed[dt] = struct{}{}
	dt.timer = time.AfterFunc(delay, func() {
		rt.mu.Lock()
		if _, ok := rt.delayed[dt]; !ok {
			// Already dropped by Shutdown.
			rt.mu.Unlock()
			return
		}
		delete(rt.delayed, dt)
		rt.enqueueLocked(wrapped)
		rt.mu.Unlock()
	})
	return nil
}

func (rt *Runtime) enqueueLocked(fn func()) {
	rt.intake = append(rt.intake, fn)
	select {
	case rt.wake <- struct{}{}:
	default:
	}
}

func (rt *Runtime) finish(outcome string) {
	rt.metrics.completed.WithLabelValues(outcome).Inc()
	rt.metrics.inflight.Dec()
	rt.inflight.Add(-1)
	rt.tasks.Done()
}

// dispatch moves work from the intake queue into the pool. Submit on the
// pool blocks while all workers are busy, which only ever stalls this
// goroutine.
func (rt *Runtime) dispatch() {
	defer close(rt.done)
	defer rt.pool.Release()

	for {
		rt.mu.Lock()
		batch := rt.intake
		rt.intake = nil
		closed := rt.closed
		rt.mu.Unlock()

		for _, fn := range batch {
			if err := rt.pool.Submit(fn); err != nil {
				rt.WithError(err).Warn("Pool refused task, running it on a dedicated goroutine")
				go fn()
			}
		}
		if len(batch) != 0 {
			continue
		}
		if closed {
			return
		}
		<-rt.wake
	}
}

// Shutdown stops accepting new work. Tasks that were already accepted and
// queued run to completion. Delayed tasks whose delay has not yet passed are
// dropped; their owners receive a completion carrying ErrUnavailable.
func (rt *Runtime) Shutdown() {
	rt.mu.Lock()
	if rt.closed {
		rt.mu.Unlock()
		return
	}
	rt.closed = true
	dropped := make([]func(), 0, len(rt.delayed))
	for dt := range rt.delayed {
		// A timer that already fired is blocked on rt.mu and returns once it
		// finds its entry gone, so every entry is dropped here exactly once.
		dt.timer.Stop()
		dropped = append(dropped, dt.drop)
		delete(rt.delayed, dt)
	}
	select {
	case rt.wake <- struct{}{}:
	default:
	}
	rt.mu.Unlock()

	for _, drop := range dropped {
		drop()
	}
	rt.WithField("dropped-delayed", len(dropped)).Debug("Runtime shut down")
}

// Wait blocks until all accepted tasks have finished or the context expires.
// It should be called after Shutdown.
func (rt *Runtime) Wait(ctx context.Context) error {
	finished := make(chan struct{})
	go func() {
		rt.tasks.Wait()
		<-rt.done
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "waiting for background tasks")
	}
}

// IsShutdown reports whether Shutdown was called.
func (rt *Runtime) IsShutdown() bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.closed
}

// Inflight returns the number of accepted tasks that have not yet finished,
// including delayed tasks that are still waiting.
func (rt *Runtime) Inflight() int64 {
	return rt.inflight.Load()
}
