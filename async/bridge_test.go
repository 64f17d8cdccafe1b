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

package async_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starkbridge/starkbridge/async"
)

func newRuntime(t *testing.T, workers int) *async.Runtime {
	t.Helper()
	rt, err := async.NewRuntime(async.RuntimeConfig{Workers: workers}, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		rt.Shutdown()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, rt.Wait(ctx))
	})
	return rt
}

// drain polls the bridge until n completions were collected or the timeout expires.
func drain[T any](t *testing.T, b *async.Bridge[T], n int) []async.Completion[T] {
	t.Helper()
	var got []async.Completion[T]
	require.Eventually(t, func() bool {
		got = append(got, b.PollCompleted()...)
		return len(got) >= n
	}, 5*time.Second, 5*time.Millisecond)
	return got
}

func Test_Bridge_Spawn_DeliversExactlyOnce(t *testing.T) {
	rt := newRuntime(t, 4)
	b := async.NewBridge[int](rt)

	const n = 50
	ids := make(map[async.TaskID]int, n)
	for i := 0; i < n; i++ {
		i := i
		id, tok, err := b.Spawn(func(*async.Token) (int, error) { return i, nil })
		require.NoError(t, err)
		require.NotNil(t, tok)
		ids[id] = i
	}
	require.Len(t, ids, n, "task ids must be unique")

	got := drain(t, b, n)
	require.Len(t, got, n)
	seen := make(map[async.TaskID]bool, n)
	for _, c := range got {
		assert.False(t, seen[c.ID], "task %d delivered twice", c.ID)
		seen[c.ID] = true
		assert.NoError(t, c.Err)
		assert.Equal(t, ids[c.ID], c.Value)
	}

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, b.PollCompleted())
}

func Test_Bridge_PollCompleted_CompletionOrder(t *testing.T) {
	rt := newRuntime(t, 2)
	b := async.NewBridge[string](rt)

	release := make(chan struct{})
	_, _, err := b.Spawn(func(*async.Token) (string, error) {
		<-release
		return "slow", nil
	})
	require.NoError(t, err)
	_, _, err = b.Spawn(func(*async.Token) (string, error) { return "fast", nil })
	require.NoError(t, err)

	first := drain(t, b, 1)
	require.Len(t, first, 1)
	assert.Equal(t, "fast", first[0].Value)

	close(release)
	second := drain(t, b, 1)
	require.Len(t, second, 1)
	assert.Equal(t, "slow", second[0].Value)
}

func Test_Bridge_PollCompleted_Empty(t *testing.T) {
	b := async.NewBridge[int](newRuntime(t, 1))
	assert.Nil(t, b.PollCompleted())
}

func Test_Bridge_Spawn_NonBlockingWhenWorkersBusy(t *testing.T) {
	rt := newRuntime(t, 1)
	b := async.NewBridge[int](rt)

	release := make(chan struct{})
	blocking := func(*async.Token) (int, error) {
		<-release
		return 0, nil
	}

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			_, _, err := b.Spawn(blocking)
			assert.NoError(t, err)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("spawn blocked while all workers were busy")
	}
	assert.EqualValues(t, 10, rt.Inflight())

	close(release)
	drain(t, b, 10)
	require.Eventually(t, func() bool { return rt.Inflight() == 0 }, time.Second, 5*time.Millisecond)
}

func Test_Bridge_BridgesAreIsolated(t *testing.T) {
	rt := newRuntime(t, 2)
	b1 := async.NewBridge[int](rt)
	b2 := async.NewBridge[int](rt)

	_, _, err := b1.Spawn(func(*async.Token) (int, error) { return 1, nil })
	require.NoError(t, err)

	got := drain(t, b1, 1)
	assert.Equal(t, 1, got[0].Value)
	assert.Empty(t, b2.PollCompleted())
}

func Test_Bridge_Token(t *testing.T) {
	rt := newRuntime(t, 1)
	b := async.NewBridge[int](rt)

	started := make(chan struct{})
	proceed := make(chan struct{})
	_, tok, err := b.Spawn(func(tok *async.Token) (int, error) {
		close(started)
		<-proceed
		if tok.Cancelled() {
			return 0, errors.New("cancelled")
		}
		return 1, nil
	})
	require.NoError(t, err)

	<-started
	tok.Cancel()
	assert.True(t, tok.Cancelled())
	close(proceed)

	got := drain(t, b, 1)
	assert.True(t, got[0].Cancelled)
	assert.Error(t, got[0].Err)
}

func Test_Bridge_Spawn_RecoversPanic(t *testing.T) {
	rt := newRuntime(t, 1)
	b := async.NewBridge[int](rt)

	_, _, err := b.Spawn(func(*async.Token) (int, error) { panic("boom") })
	require.NoError(t, err)

	got := drain(t, b, 1)
	require.Error(t, got[0].Err)
	assert.Contains(t, got[0].Err.Error(), "boom")
}

func Test_Bridge_SpawnAfter(t *testing.T) {
	rt := newRuntime(t, 1)
	b := async.NewBridge[time.Time](rt)

	start := time.Now()
	_, _, err := b.SpawnAfter(50*time.Millisecond, func(*async.Token) (time.Time, error) {
		return time.Now(), nil
	})
	require.NoError(t, err)
	assert.Empty(t, b.PollCompleted())
	assert.EqualValues(t, 1, rt.Inflight())

	got := drain(t, b, 1)
	assert.GreaterOrEqual(t, got[0].Value.Sub(start), 50*time.Millisecond)
}

func Test_Runtime_Shutdown(t *testing.T) {
	t.Run("spawn_after_shutdown", func(t *testing.T) {
		rt := newRuntime(t, 1)
		b := async.NewBridge[int](rt)
		rt.Shutdown()

		assert.True(t, rt.IsShutdown())
		_, tok, err := b.Spawn(func(*async.Token) (int, error) { return 0, nil })
		require.Error(t, err)
		assert.True(t, errors.Is(err, async.ErrUnavailable))
		assert.Nil(t, tok)
	})

	t.Run("queued_tasks_finish", func(t *testing.T) {
		rt := newRuntime(t, 1)
		b := async.NewBridge[int](rt)

		var wg sync.WaitGroup
		wg.Add(5)
		for i := 0; i < 5; i++ {
			_, _, err := b.Spawn(func(*async.Token) (int, error) {
				defer wg.Done()
				time.Sleep(5 * time.Millisecond)
				return 1, nil
			})
			require.NoError(t, err)
		}
		rt.Shutdown()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, rt.Wait(ctx))
		wg.Wait()
		got := b.PollCompleted()
		assert.Len(t, got, 5)
		assert.Zero(t, rt.Inflight())
	})

	t.Run("delayed_tasks_dropped", func(t *testing.T) {
		rt := newRuntime(t, 1)
		b := async.NewBridge[int](rt)

		id, _, err := b.SpawnAfter(time.Hour, func(*async.Token) (int, error) { return 1, nil })
		require.NoError(t, err)
		rt.Shutdown()

		got := b.PollCompleted()
		require.Len(t, got, 1)
		assert.Equal(t, id, got[0].ID)
		assert.True(t, errors.Is(got[0].Err, async.ErrUnavailable))
		assert.Zero(t, rt.Inflight())
	})

	t.Run("twice", func(t *testing.T) {
		rt := newRuntime(t, 1)
		rt.Shutdown()
		assert.NotPanics(t, rt.Shutdown)
	})
}

func Test_Runtime_Wait_ContextExpires(t *testing.T) {
	rt := newRuntime(t, 1)
	b := async.NewBridge[int](rt)

	release := make(chan struct{})
	defer close(release)
	_, _, err := b.Spawn(func(*async.Token) (int, error) {
		<-release
		return 0, nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, rt.Wait(ctx))
}

func Test_Runtime_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	rt, err := async.NewRuntime(async.RuntimeConfig{Workers: 1}, reg)
	require.NoError(t, err)
	b := async.NewBridge[int](rt)

	_, _, err = b.Spawn(func(*async.Token) (int, error) { return 1, nil })
	require.NoError(t, err)
	drain(t, b, 1)
	rt.Shutdown()
	require.NoError(t, rt.Wait(context.Background()))

	n, err := testutil.GatherAndCount(reg, "starkbridge_async_tasks_spawned_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = async.NewRuntime(async.RuntimeConfig{Workers: 1}, reg)
	assert.Error(t, err, "registering the same collectors twice must fail")
}
