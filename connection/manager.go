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

package connection

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/starkbridge/starkbridge"
	"github.com/starkbridge/starkbridge/async"
	"github.com/starkbridge/starkbridge/blockchain"
	"github.com/starkbridge/starkbridge/log"
)

// Definition of error constants for this package.
var (
	ErrAlreadyConnecting = errors.New("a connection attempt is already in progress")
	ErrAlreadyConnected  = errors.New("already connected, disconnect first")
	ErrNotConnected      = errors.New("not connected")

	errHandshakeCancelled = errors.New("handshake cancelled")
)

// DefaultHandshakeTimeout bounds all network calls of one handshake.
const DefaultHandshakeTimeout = 30 * time.Second

// Dialer opens a client to the node and a signer for the account in the
// config. Dial is called on a background worker and may block.
type Dialer interface {
	Dial(ctx context.Context, cfg starkbridge.ValidConfig) (starkbridge.ChainClient, starkbridge.Signer, error)
}

// Result is the outcome of a handshake task. Exactly one of Session and Err
// is set.
type Result struct {
	Session *starkbridge.Session
	Err     starkbridge.APIError
}

// Option configures a Manager.
type Option func(*Manager)

// WithHandshakeTimeout sets the time limit for the network calls of a
// handshake. Non positive values are ignored.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// Manager drives the lifecycle of one connection: Disconnected, Connecting,
// Connected or Failed. All methods are non blocking; the handshake runs in
// the background and its result is applied by PollStatus.
type Manager struct {
	log.Logger

	bridge  *async.Bridge[Result]
	dialer  Dialer
	timeout time.Duration

	sync.Mutex
	state    starkbridge.ConnState
	inflight bool
	taskID   async.TaskID
	token    *async.Token
}

// New returns a manager in Disconnected phase that spawns its handshakes on
// the bridge.
func New(bridge *async.Bridge[Result], dialer Dialer, opts ...Option) *Manager {
	m := &Manager{
		Logger:  log.NewLoggerWithField("component", "connection"),
		bridge:  bridge,
		dialer:  dialer,
		timeout: DefaultHandshakeTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RequestConnect validates the config and starts a handshake.
//
// It is allowed from Disconnected or Failed phase. While a handshake is in
// progress it returns AlreadyConnecting without starting another one.
func (m *Manager) RequestConnect(cfg starkbridge.ConnectionConfig) starkbridge.APIError {
	m.WithField("method", "RequestConnect").Info("Received request with params:", cfg.RPCURL)
	m.Lock()
	defer m.Unlock()

	var apiErr starkbridge.APIError
	switch m.state.Phase {
	case starkbridge.Connecting:
		apiErr = starkbridge.NewAPIErrAlreadyConnecting(ErrAlreadyConnecting)
	case starkbridge.Connected:
		apiErr = starkbridge.NewAPIErrFailedPreCondition(ErrAlreadyConnected)
	}
	if apiErr != nil {
		m.WithFields(starkbridge.APIErrAsMap("RequestConnect", apiErr)).Error(apiErr.Message())
		return apiErr
	}

	valid, apiErr := cfg.Validate()
	if apiErr != nil {
		m.WithFields(starkbridge.APIErrAsMap("RequestConnect", apiErr)).Error(apiErr.Message())
		return apiErr
	}

	id, tok, err := m.bridge.Spawn(m.handshake(valid))
	if err != nil {
		apiErr = starkbridge.NewAPIErrBridgeUnavailable(err)
		m.WithFields(starkbridge.APIErrAsMap("RequestConnect", apiErr)).Error(apiErr.Message())
		return apiErr
	}
	m.state = starkbridge.ConnState{Phase: starkbridge.Connecting}
	m.inflight, m.taskID, m.token = true, id, tok
	m.WithFields(log.Fields{"method": "RequestConnect", "config": valid}).Info("Connecting")
	return nil
}

// handshake returns the background task that establishes a session. The
// token is checked before each network call; a call already in flight runs
// to completion.
func (m *Manager) handshake(cfg starkbridge.ValidConfig) async.Task[Result] {
	logger := log.NewDerivedLoggerWithField(m.Logger, "rpc", cfg.RPCURL)
	timeout := m.timeout

	return func(tok *async.Token) (Result, error) {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if tok.Cancelled() {
			return Result{}, errHandshakeCancelled
		}
		client, signer, err := m.dialer.Dial(ctx, cfg)
		if err != nil {
			logger.WithError(err).Debug("Dialing failed")
			if blockchain.IsRejection(err) {
				return Result{Err: starkbridge.NewAPIErrAuth(err, cfg.Account.String())}, nil
			}
			return Result{Err: starkbridge.NewAPIErrNetwork(err, cfg.RPCURL)}, nil
		}

		res, err := verify(ctx, tok, cfg, client, signer)
		if err != nil || res.Session == nil {
			client.Close()
		}
		if err == nil && res.Err != nil {
			logger.WithError(res.Err).Debug("Handshake failed")
		}
		return res, err
	}
}

func verify(ctx context.Context, tok *async.Token, cfg starkbridge.ValidConfig,
	client starkbridge.ChainClient, signer starkbridge.Signer) (Result, error) {
	if tok.Cancelled() {
		return Result{}, errHandshakeCancelled
	}
	chainID, err := client.ChainID(ctx)
	if err != nil {
		return Result{Err: starkbridge.NewAPIErrNetwork(err, cfg.RPCURL)}, nil
	}
	if cfg.ChainID != nil && !cfg.ChainID.Equal(chainID) {
		return Result{Err: starkbridge.NewAPIErrChainMismatch(
			starkbridge.ChainIDString(*cfg.ChainID), starkbridge.ChainIDString(chainID))}, nil
	}

	if tok.Cancelled() {
		return Result{}, errHandshakeCancelled
	}
	// The nonce can only be read for deployed accounts.
	if _, err = client.Nonce(ctx, cfg.Account); err != nil {
		if blockchain.IsRejection(err) {
			return Result{Err: starkbridge.NewAPIErrAuth(err, cfg.Account.String())}, nil
		}
		return Result{Err: starkbridge.NewAPIErrNetwork(err, cfg.RPCURL)}, nil
	}

	s := starkbridge.NewSession(uuid.NewString(), cfg.RPCURL, chainID, cfg.Account, client, signer)
	return Result{Session: s}, nil
}

// PollStatus applies the result of the current handshake, if it completed,
// and returns the state together with whether the phase changed in this
// call. Results of handshakes that were abandoned by Disconnect are
// discarded and their sessions released.
func (m *Manager) PollStatus() (starkbridge.ConnState, bool) {
	m.Lock()
	defer m.Unlock()

	before := m.state.Phase
	for _, c := range m.bridge.PollCompleted() {
		if !m.inflight || c.ID != m.taskID {
			if c.Value.Session != nil {
				c.Value.Session.Release()
			}
			m.WithField("task", c.ID).Debug("Discarded result of abandoned handshake")
			continue
		}
		m.inflight, m.token = false, nil

		switch {
		case c.Err != nil:
			apiErr := starkbridge.NewAPIErrBridgeUnavailable(c.Err)
			m.state = starkbridge.ConnState{Phase: starkbridge.Failed, Err: apiErr}
			m.WithFields(starkbridge.APIErrAsMap("PollStatus", apiErr)).Error(apiErr.Message())
		case c.Value.Err != nil:
			m.state = starkbridge.ConnState{Phase: starkbridge.Failed, Err: c.Value.Err}
			m.WithFields(starkbridge.APIErrAsMap("PollStatus", c.Value.Err)).Error(c.Value.Err.Message())
		default:
			m.state = starkbridge.ConnState{Phase: starkbridge.Connected, Session: c.Value.Session}
			m.WithFields(log.Fields{
				"method":  "PollStatus",
				"session": c.Value.Session.ID,
				"chainID": starkbridge.ChainIDString(c.Value.Session.ChainID),
			}).Info("Connected")
		}
	}
	return m.state, m.state.Phase != before
}

// Disconnect moves the manager to Disconnected phase. An in progress
// handshake is cancelled and its result discarded; an established session
// is released. Transactions still holding the session keep it alive until
// they finish.
func (m *Manager) Disconnect() starkbridge.APIError {
	m.WithField("method", "Disconnect").Info("Received request")
	m.Lock()
	defer m.Unlock()

	switch m.state.Phase {
	case starkbridge.Disconnected:
		apiErr := starkbridge.NewAPIErrNotConnected(ErrNotConnected)
		m.WithFields(starkbridge.APIErrAsMap("Disconnect", apiErr)).Error(apiErr.Message())
		return apiErr
	case starkbridge.Connecting:
		m.token.Cancel()
		m.inflight, m.token = false, nil
	case starkbridge.Connected:
		m.state.Session.Release()
	}
	m.state = starkbridge.ConnState{Phase: starkbridge.Disconnected}
	m.WithField("method", "Disconnect").Info("Disconnected")
	return nil
}

// CurrentState returns a snapshot of the state.
func (m *Manager) CurrentState() starkbridge.ConnState {
	m.Lock()
	defer m.Unlock()
	return m.state
}
