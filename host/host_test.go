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

package host_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starkbridge/starkbridge"
	"github.com/starkbridge/starkbridge/blockchain"
	"github.com/starkbridge/starkbridge/blockchain/starknet/starknettest"
	"github.com/starkbridge/starkbridge/bridgetest"
	"github.com/starkbridge/starkbridge/felt"
	"github.com/starkbridge/starkbridge/host"
	"github.com/starkbridge/starkbridge/transaction"
)

func testConfig() host.Config {
	cfg := host.DefaultConfig()
	cfg.LogLevel = ""
	cfg.Runtime.Workers = 4
	cfg.Transaction.Backoff = transaction.Backoff{Base: time.Millisecond, Max: 4 * time.Millisecond, Multiplier: 2}
	cfg.Transaction.PollInterval = time.Millisecond
	cfg.Transaction.MaxAttempts = 3
	return cfg
}

func newHost(t *testing.T, chain *starknettest.Chain, reg prometheus.Registerer) *host.Host {
	t.Helper()
	h, err := host.New(testConfig(), chain, reg)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, err := h.Shutdown(ctx)
		assert.NoError(t, err)
	})
	return h
}

// tick polls like a host frame loop until done returns true and collects all
// deltas seen on the way.
func tick(t *testing.T, h *host.Host, done func() bool) []host.Delta {
	t.Helper()
	var deltas []host.Delta
	require.Eventually(t, func() bool {
		deltas = append(deltas, h.Poll()...)
		return done()
	}, 5*time.Second, time.Millisecond)
	return deltas
}

func connect(t *testing.T, h *host.Host) {
	t.Helper()
	require.NoError(t, h.Connect(starknettest.NewConfig()))
	assert.True(t, h.IsConnecting())
	deltas := tick(t, h, h.IsConnected)
	require.Len(t, deltas, 1)
	assert.True(t, deltas[0].IsConnection())
	assert.Equal(t, starkbridge.Connected, deltas[0].Connection.Phase)
}

func someCalls() []starkbridge.Call {
	return []starkbridge.Call{{
		To:       felt.MustFromHex("0x123"),
		Selector: felt.MustFromHex("0x456"),
	}}
}

func Test_Host_RoundTrip(t *testing.T) {
	chain := starknettest.NewChain()
	h := newHost(t, chain, nil)
	connect(t, h)

	id, apiErr := h.Execute(someCalls())
	require.NoError(t, apiErr)
	assert.Equal(t, "tx-1", id)
	rec, apiErr := h.Status(id)
	require.NoError(t, apiErr)
	assert.Equal(t, starkbridge.Submitted, rec.Status)
	assert.Equal(t, 1, h.PendingCount())

	deltas := tick(t, h, func() bool { return h.PendingCount() == 0 })
	var seen []starkbridge.TxStatus
	for _, d := range deltas {
		require.False(t, d.IsConnection())
		assert.Equal(t, id, d.TrackingID)
		seen = append(seen, d.Transaction.Record.Status)
	}
	assert.Equal(t, []starkbridge.TxStatus{
		starkbridge.Pending,
		starkbridge.AcceptedOnL2,
		starkbridge.AcceptedOnL1,
	}, seen)
	assert.Equal(t, starkbridge.Submitted, deltas[0].Transaction.From)

	rec, apiErr = h.Status(id)
	require.NoError(t, apiErr)
	assert.Equal(t, starkbridge.AcceptedOnL1, rec.Status)
	require.NotNil(t, rec.Hash)
	assert.Equal(t, chain.Hashes()[0], *rec.Hash)
	assert.Len(t, h.Records(), 1)

	require.NoError(t, h.Discard(id))
	assert.Empty(t, h.Records())
}

func Test_Host_Execute_NotConnected(t *testing.T) {
	h := newHost(t, starknettest.NewChain(), nil)

	_, apiErr := h.Execute(someCalls())
	bridgetest.AssertAPIError(t, apiErr, starkbridge.ClientError, starkbridge.ErrNotConnected)
	assert.Empty(t, h.Poll())
}

func Test_Host_Connect_Failure(t *testing.T) {
	chain := starknettest.NewChain()
	chain.FailTransient(blockchain.OpChainID, -1)
	h := newHost(t, chain, nil)

	require.NoError(t, h.Connect(starknettest.NewConfig()))
	deltas := tick(t, h, func() bool { return h.State().Phase == starkbridge.Failed })
	require.Len(t, deltas, 1)
	require.True(t, deltas[0].IsConnection())
	bridgetest.AssertAPIError(t, deltas[0].Connection.Err, starkbridge.ChainError, starkbridge.ErrNetwork)
	assert.False(t, h.IsConnected())
	assert.False(t, h.IsConnecting())
}

func Test_Host_Disconnect_KeepsMonitoring(t *testing.T) {
	chain := starknettest.NewChain()
	chain.SetScript(starknettest.AcceptAfter(3)...)
	h := newHost(t, chain, nil)
	connect(t, h)

	id, apiErr := h.Execute(someCalls())
	require.NoError(t, apiErr)
	tick(t, h, func() bool {
		rec, _ := h.Status(id)
		return rec.Status == starkbridge.Pending
	})

	require.NoError(t, h.Disconnect())
	assert.Equal(t, starkbridge.Disconnected, h.State().Phase)
	tick(t, h, func() bool { return h.PendingCount() == 0 })

	rec, apiErr := h.Status(id)
	require.NoError(t, apiErr)
	assert.Equal(t, starkbridge.AcceptedOnL1, rec.Status)
	assert.Equal(t, 1, chain.Closed())
}

func Test_Host_Cancel(t *testing.T) {
	chain := starknettest.NewChain()
	chain.SetScript(starknettest.StepReceived)
	h := newHost(t, chain, nil)
	connect(t, h)

	id, apiErr := h.Execute(someCalls())
	require.NoError(t, apiErr)
	tick(t, h, func() bool {
		rec, _ := h.Status(id)
		return rec.Status == starkbridge.Pending
	})

	require.NoError(t, h.Cancel(id))
	assert.Zero(t, h.PendingCount())
	rec, apiErr := h.Status(id)
	require.NoError(t, apiErr)
	assert.True(t, rec.MonitoringStopped)

	apiErr = h.Cancel("tx-99")
	bridgetest.AssertAPIError(t, apiErr, starkbridge.ClientError, starkbridge.ErrResourceNotFound)
}

func Test_Host_Shutdown(t *testing.T) {
	chain := starknettest.NewChain()
	chain.SetScript(starknettest.StepReceived)
	h, err := host.New(testConfig(), chain, nil)
	require.NoError(t, err)
	connect(t, h)

	id, apiErr := h.Execute(someCalls())
	require.NoError(t, apiErr)
	tick(t, h, func() bool {
		rec, _ := h.Status(id)
		return rec.Status == starkbridge.Pending
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err = h.Shutdown(ctx)
	require.NoError(t, err)

	// Results of tasks that were running at shutdown may still arrive.
	tick(t, h, func() bool { return h.PendingCount() == 0 })
	rec, apiErr := h.Status(id)
	require.NoError(t, apiErr)
	assert.Equal(t, starkbridge.Unknown, rec.Status)

	apiErr = h.Connect(starknettest.NewConfig())
	bridgetest.AssertAPIError(t, apiErr, starkbridge.InternalError, starkbridge.ErrBridgeUnavailable)
	assert.Equal(t, 1, chain.Closed())
}

func Test_Host_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := newHost(t, starknettest.NewChain(), reg)
	connect(t, h)

	id, apiErr := h.Execute(someCalls())
	require.NoError(t, apiErr)
	tick(t, h, func() bool { return h.PendingCount() == 0 })
	_, apiErr = h.Status(id)
	require.NoError(t, apiErr)

	n, err := testutil.GatherAndCount(reg, "starkbridge_async_tasks_spawned_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = testutil.GatherAndCount(reg, "starkbridge_transaction_status_changes_total")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = host.New(testConfig(), starknettest.NewChain(), reg)
	assert.Error(t, err)
}
