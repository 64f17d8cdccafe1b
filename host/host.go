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

package host

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/starkbridge/starkbridge"
	"github.com/starkbridge/starkbridge/async"
	"github.com/starkbridge/starkbridge/blockchain/starknet"
	"github.com/starkbridge/starkbridge/connection"
	"github.com/starkbridge/starkbridge/log"
	"github.com/starkbridge/starkbridge/transaction"
)

// Config holds the parameters of all components driven by a host.
type Config struct {
	// LogLevel and LogFile initialize the package logger, which can be done
	// only once per process. An empty LogLevel leaves the logger as it is.
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`

	Runtime          async.RuntimeConfig   `mapstructure:"runtime"`
	Client           starknet.ClientConfig `mapstructure:"client"`
	Transaction      transaction.Config    `mapstructure:"transaction"`
	HandshakeTimeout time.Duration         `mapstructure:"handshake_timeout"`
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		LogLevel:         "info",
		Runtime:          async.DefaultRuntimeConfig(),
		Client:           starknet.DefaultClientConfig(),
		Transaction:      transaction.DefaultConfig(),
		HandshakeTimeout: connection.DefaultHandshakeTimeout,
	}
}

// Delta is one change observed in a Poll: either the connection moved to a
// new phase or a transaction moved to a new status.
type Delta struct {
	// TrackingID is empty for changes of the connection.
	TrackingID  string
	Connection  starkbridge.ConnState
	Transaction transaction.Update
}

// IsConnection reports whether the delta is a change of the connection.
func (d Delta) IsConnection() bool {
	return d.TrackingID == ""
}

// Host is the entry point for a tick driven application. It owns one
// connection, one transaction executor and the runtime they share. All
// methods except Shutdown are non blocking and meant to be called from the
// tick loop.
type Host struct {
	log.Logger

	rt   *async.Runtime
	conn *connection.Manager
	txs  *transaction.Executor
}

// New starts a host. The dialer defaults to the JSON-RPC client. Metrics are
// registered with reg, if it is not nil.
func New(cfg Config, dialer connection.Dialer, reg prometheus.Registerer) (*Host, error) {
	if cfg.LogLevel != "" {
		if err := log.InitLogger(cfg.LogLevel, cfg.LogFile); err != nil {
			return nil, errors.WithMessage(err, "initializing logger for host")
		}
	}
	if dialer == nil {
		dialer = starknet.NewDialer(cfg.Client)
	}

	rt, err := async.NewRuntime(cfg.Runtime, reg)
	if err != nil {
		return nil, errors.WithMessage(err, "starting runtime")
	}
	txMetrics, err := transaction.NewMetrics(reg)
	if err != nil {
		rt.Shutdown()
		return nil, errors.WithMessage(err, "registering transaction metrics")
	}

	h := &Host{
		Logger: log.NewLoggerWithField("component", "host"),
		rt:     rt,
		conn: connection.New(async.NewBridge[connection.Result](rt), dialer,
			connection.WithHandshakeTimeout(cfg.HandshakeTimeout)),
		txs: transaction.New(async.NewBridge[transaction.Event](rt), cfg.Transaction,
			transaction.WithMetrics(txMetrics)),
	}
	h.Info("Host started")
	return h, nil
}

// Connect starts connecting with the config. Progress is reported by Poll.
func (h *Host) Connect(cfg starkbridge.ConnectionConfig) starkbridge.APIError {
	return h.conn.RequestConnect(cfg)
}

// Disconnect drops the connection. Transactions submitted before keep being
// tracked until they are final.
func (h *Host) Disconnect() starkbridge.APIError {
	return h.conn.Disconnect()
}

// Execute submits the calls as one transaction and returns its tracking ID.
func (h *Host) Execute(calls []starkbridge.Call) (string, starkbridge.APIError) {
	return h.txs.Execute(calls, h.conn)
}

// Poll applies all background results that completed since the previous
// call and returns the changes they caused. The connection change, if any,
// comes first.
func (h *Host) Poll() []Delta {
	var deltas []Delta
	if state, changed := h.conn.PollStatus(); changed {
		deltas = append(deltas, Delta{Connection: state})
	}
	for _, u := range h.txs.PollPending() {
		deltas = append(deltas, Delta{TrackingID: u.TrackingID, Transaction: u})
	}
	return deltas
}

// Status returns a snapshot of the transaction record.
func (h *Host) Status(trackingID string) (starkbridge.TransactionRecord, starkbridge.APIError) {
	return h.txs.StatusOf(trackingID)
}

// Records returns snapshots of all transaction records, oldest first.
func (h *Host) Records() []starkbridge.TransactionRecord {
	return h.txs.Records()
}

// Cancel stops tracking the transaction.
func (h *Host) Cancel(trackingID string) starkbridge.APIError {
	return h.txs.Cancel(trackingID)
}

// Discard removes a transaction record that is no longer tracked.
func (h *Host) Discard(trackingID string) starkbridge.APIError {
	return h.txs.Discard(trackingID)
}

// State returns a snapshot of the connection state.
func (h *Host) State() starkbridge.ConnState {
	return h.conn.CurrentState()
}

// IsConnected reports whether the connection is established.
func (h *Host) IsConnected() bool {
	return h.conn.CurrentState().Phase == starkbridge.Connected
}

// IsConnecting reports whether a handshake is in progress.
func (h *Host) IsConnecting() bool {
	return h.conn.CurrentState().Phase == starkbridge.Connecting
}

// PendingCount returns the number of transactions still being tracked.
func (h *Host) PendingCount() int {
	return h.txs.PendingCount()
}

// Shutdown disconnects, stops accepting work and waits for the running
// tasks until ctx is done. The results of the tasks are applied by a final
// Poll, whose deltas are returned.
func (h *Host) Shutdown(ctx context.Context) ([]Delta, error) {
	h.WithField("method", "Shutdown").Info("Received request")
	if h.conn.CurrentState().Phase != starkbridge.Disconnected {
		_ = h.conn.Disconnect()
	}
	h.rt.Shutdown()
	if err := h.rt.Wait(ctx); err != nil {
		return nil, err
	}
	return h.Poll(), nil
}
