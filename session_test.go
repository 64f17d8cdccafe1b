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

package starkbridge_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starkbridge/starkbridge"
	"github.com/starkbridge/starkbridge/felt"
	"github.com/starkbridge/starkbridge/internal/mocks"
)

func newTestSession(t *testing.T) (*starkbridge.Session, *mocks.ChainClient) {
	t.Helper()
	client := mocks.NewChainClient(t)
	signer := mocks.NewSigner(t)
	signer.On("PublicKey").Return(felt.FromUint64(7)).Once()

	s := starkbridge.NewSession("session-1", "http://localhost:5050", felt.FromUint64(1),
		felt.FromUint64(2), client, signer)
	return s, client
}

func Test_NewSession(t *testing.T) {
	s, _ := newTestSession(t)
	assert.Equal(t, "session-1", s.ID)
	assert.Equal(t, felt.FromUint64(2), s.Account)
	assert.Equal(t, felt.FromUint64(7), s.PublicKey)
	assert.Equal(t, 1, s.Refs())
}

func Test_Session_AcquireRelease(t *testing.T) {
	s, client := newTestSession(t)

	require.True(t, s.Acquire())
	require.True(t, s.Acquire())
	assert.Equal(t, 3, s.Refs())

	s.Release()
	s.Release()
	assert.Equal(t, 1, s.Refs())
	client.AssertNotCalled(t, "Close")

	client.On("Close").Return().Once()
	s.Release()
	assert.Zero(t, s.Refs())

	t.Run("no_acquire_after_close", func(t *testing.T) {
		assert.False(t, s.Acquire())
		assert.Zero(t, s.Refs())
	})

	t.Run("extra_release_is_noop", func(t *testing.T) {
		s.Release()
		assert.Zero(t, s.Refs())
	})
}

func Test_Session_ConcurrentRelease(t *testing.T) {
	s, client := newTestSession(t)
	client.On("Close").Return().Once()

	const n = 16
	for i := 0; i < n; i++ {
		require.True(t, s.Acquire())
	}

	var wg sync.WaitGroup
	for i := 0; i <= n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Release()
		}()
	}
	wg.Wait()
	assert.Zero(t, s.Refs())
}
