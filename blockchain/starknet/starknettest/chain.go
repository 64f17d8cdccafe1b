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

package starknettest

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/starkbridge/starkbridge"
	"github.com/starkbridge/starkbridge/blockchain"
	"github.com/starkbridge/starkbridge/blockchain/starknet"
	"github.com/starkbridge/starkbridge/felt"
)

// Parameters of the simulated chain used in tests.
const (
	RPCURL         = "http://localhost:5050"
	AccountAddress = "0x1"
	PrivateKey     = "0x2"
)

// ChainID is the chain id reported by the simulated chain unless changed.
var ChainID = felt.MustFromHex("0x534e5f5345504f4c4941") // SN_SEPOLIA

// NewConfig returns a connection config for the simulated chain.
func NewConfig() starkbridge.ConnectionConfig {
	return starkbridge.ConnectionConfig{
		RPCURL:         RPCURL,
		AccountAddress: AccountAddress,
		PrivateKey:     PrivateKey,
	}
}

// Step is one receipt returned by the simulated chain for a transaction.
type Step struct {
	Finality     string
	Execution    string
	RevertReason string
}

// Steps for building status scripts.
var (
	StepReceived     = Step{Finality: starkbridge.FinalityReceived, Execution: starkbridge.ExecutionSucceeded}
	StepAcceptedOnL2 = Step{Finality: starkbridge.FinalityAcceptedOnL2, Execution: starkbridge.ExecutionSucceeded}
	StepAcceptedOnL1 = Step{Finality: starkbridge.FinalityAcceptedOnL1, Execution: starkbridge.ExecutionSucceeded}
)

// StepReverted returns a step reporting a reverted execution.
func StepReverted(reason string) Step {
	return Step{Finality: starkbridge.FinalityAcceptedOnL2, Execution: starkbridge.ExecutionReverted, RevertReason: reason}
}

// AcceptAfter returns a script in which the transaction is received for the
// given number of polls and then accepted on L2 and L1 on the next polls.
func AcceptAfter(polls int) []Step {
	script := make([]Step, 0, polls+2)
	for i := 0; i < polls; i++ {
		script = append(script, StepReceived)
	}
	return append(script, StepAcceptedOnL2, StepAcceptedOnL1)
}

type failure struct {
	err   error
	times int // negative means always
}

type txState struct {
	script []Step
	polls  int
}

// Chain is an in memory chain that scripts the responses of a node. It is
// safe for concurrent use and can be dialed any number of times.
type Chain struct {
	mu       sync.Mutex
	chainID  felt.Felt
	nonces   map[felt.Felt]uint64
	keys     map[felt.Felt]felt.Felt
	script   []Step
	txs      map[felt.Felt]*txState
	hashes   []felt.Felt
	failures map[blockchain.Operation]*failure
	lost     map[blockchain.Operation]int
	gates    map[blockchain.Operation]chan struct{}
	calls    map[blockchain.Operation]int
	dialErr  error

	dials  atomic.Int64
	closed atomic.Int64
}

// NewChain returns a simulated chain with the given deployed accounts. If
// none are given, the account of NewConfig is deployed. All accounts are
// controlled by the public key of PrivateKey until changed with SetAccountKey.
func NewChain(accounts ...felt.Felt) *Chain {
	if len(accounts) == 0 {
		accounts = []felt.Felt{felt.MustFromHex(AccountAddress)}
	}
	signer, err := starknet.NewKeySigner(felt.MustFromHex(PrivateKey))
	if err != nil {
		panic(err)
	}
	c := &Chain{
		chainID:  ChainID,
		nonces:   make(map[felt.Felt]uint64),
		keys:     make(map[felt.Felt]felt.Felt),
		script:   AcceptAfter(1),
		txs:      make(map[felt.Felt]*txState),
		failures: make(map[blockchain.Operation]*failure),
		lost:     make(map[blockchain.Operation]int),
		gates:    make(map[blockchain.Operation]chan struct{}),
		calls:    make(map[blockchain.Operation]int),
	}
	for _, a := range accounts {
		c.nonces[a] = 0
		c.keys[a] = signer.PublicKey()
	}
	return c
}

// SetAccountKey sets the public key the account contract validates
// signatures against.
func (c *Chain) SetAccountKey(account, pub felt.Felt) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys[account] = pub
}

// Nonce returns the current nonce of the account.
func (c *Chain) Nonce(account felt.Felt) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nonces[account]
}

// SetChainID changes the chain id reported by the node.
func (c *Chain) SetChainID(id felt.Felt) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chainID = id
}

// SetScript sets the receipts returned for transactions added from now on.
// The last step repeats once the script is exhausted.
func (c *Chain) SetScript(steps ...Step) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.script = steps
}

// Fail makes the next times calls of op fail with err. A negative times
// makes every call fail until Heal is called.
func (c *Chain) Fail(op blockchain.Operation, err error, times int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures[op] = &failure{err: err, times: times}
}

// FailTransient makes the next times calls of op fail with a network error.
func (c *Chain) FailTransient(op blockchain.Operation, times int) {
	c.Fail(op, blockchain.NewTransientError(op, errors.New("connection refused")), times)
}

// Reject makes every call of op fail with a permanent rejection.
func (c *Chain) Reject(op blockchain.Operation, code int, reason string) {
	c.Fail(op, blockchain.NewRejectionError(op, code, reason), -1)
}

// LoseResponses makes the next times calls of op take effect on the chain
// while the caller gets a network error, as if the response was lost.
func (c *Chain) LoseResponses(op blockchain.Operation, times int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lost[op] = times
}

// Heal removes the failure injected for op.
func (c *Chain) Heal(op blockchain.Operation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.failures, op)
	delete(c.lost, op)
}

// FailDial makes every dial fail with err. Nil restores dialing.
func (c *Chain) FailDial(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dialErr = err
}

// Hold blocks every call of op until the returned release func is called.
// Blocked calls also return when their context is done.
func (c *Chain) Hold(op blockchain.Operation) (release func()) {
	gate := make(chan struct{})
	c.mu.Lock()
	c.gates[op] = gate
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			if c.gates[op] == gate {
				delete(c.gates, op)
			}
			c.mu.Unlock()
			close(gate)
		})
	}
}

// Calls returns the number of calls of op made so far, including failed ones.
func (c *Chain) Calls(op blockchain.Operation) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[op]
}

// Hashes returns the hashes of all transactions added, in order.
func (c *Chain) Hashes() []felt.Felt {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]felt.Felt(nil), c.hashes...)
}

// Dials returns the number of successful dials.
func (c *Chain) Dials() int {
	return int(c.dials.Load())
}

// Closed returns the number of clients that were closed.
func (c *Chain) Closed() int {
	return int(c.closed.Load())
}

// Dial implements the dialer used by the connection manager. The signer
// is a real key signer for the private key in the config.
func (c *Chain) Dial(_ context.Context, cfg starkbridge.ValidConfig) (
	starkbridge.ChainClient, starkbridge.Signer, error) {
	c.mu.Lock()
	err := c.dialErr
	c.mu.Unlock()
	if err != nil {
		return nil, nil, err
	}

	signer, err := starknet.NewKeySigner(cfg.PrivateKey)
	if err != nil {
		return nil, nil, blockchain.NewRejectionError(blockchain.OpSign, 0, err.Error())
	}
	c.dials.Add(1)
	return &client{chain: c}, signer, nil
}

// enter records a call of op, waits on its gate and returns the injected
// failure, if any.
func (c *Chain) enter(ctx context.Context, op blockchain.Operation) error {
	c.mu.Lock()
	c.calls[op]++
	gate := c.gates[op]
	c.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return blockchain.NewTransientError(op, ctx.Err())
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.failures[op]
	if !ok {
		return nil
	}
	if f.times > 0 {
		f.times--
		if f.times == 0 {
			delete(c.failures, op)
		}
	}
	return f.err
}

// loseLocked returns the error for a lost response of op, if one is due.
func (c *Chain) loseLocked(op blockchain.Operation) error {
	if c.lost[op] <= 0 {
		return nil
	}
	c.lost[op]--
	return blockchain.NewTransientError(op, errors.New("i/o timeout"))
}

// client is one dialed connection to the chain.
type client struct {
	chain  *Chain
	closed atomic.Bool
}

func (cl *client) ChainID(ctx context.Context) (felt.Felt, error) {
	if err := cl.chain.enter(ctx, blockchain.OpChainID); err != nil {
		return felt.Felt{}, err
	}
	cl.chain.mu.Lock()
	defer cl.chain.mu.Unlock()
	return cl.chain.chainID, nil
}

func (cl *client) Nonce(ctx context.Context, account felt.Felt) (felt.Felt, error) {
	if err := cl.chain.enter(ctx, blockchain.OpNonce); err != nil {
		return felt.Felt{}, err
	}
	cl.chain.mu.Lock()
	defer cl.chain.mu.Unlock()
	nonce, ok := cl.chain.nonces[account]
	if !ok {
		return felt.Felt{}, blockchain.NewRejectionError(blockchain.OpNonce, starknet.CodeContractNotFound,
			"Contract not found")
	}
	return felt.FromUint64(nonce), nil
}

func (cl *client) EstimateFee(ctx context.Context, _ starkbridge.InvokeTx) (starkbridge.FeeEstimate, error) {
	if err := cl.chain.enter(ctx, blockchain.OpEstimateFee); err != nil {
		return starkbridge.FeeEstimate{}, err
	}
	return starkbridge.FeeEstimate{
		GasConsumed: felt.FromUint64(10),
		GasPrice:    felt.FromUint64(100),
		OverallFee:  felt.FromUint64(1000),
		Unit:        "FRI",
	}, nil
}

func (cl *client) AddInvokeTransaction(ctx context.Context, tx starkbridge.InvokeTx) (felt.Felt, error) {
	if err := cl.chain.enter(ctx, blockchain.OpAddInvokeTx); err != nil {
		return felt.Felt{}, err
	}
	cl.chain.mu.Lock()
	defer cl.chain.mu.Unlock()

	c := cl.chain
	nonce, ok := c.nonces[tx.SenderAddress]
	if !ok {
		return felt.Felt{}, blockchain.NewRejectionError(blockchain.OpAddInvokeTx, starknet.CodeContractNotFound,
			"Contract not found")
	}
	hash, err := starknet.InvokeHash(tx, c.chainID)
	if err != nil {
		return felt.Felt{}, blockchain.NewRejectionError(blockchain.OpAddInvokeTx, starknet.CodeValidationFailure,
			err.Error())
	}
	if _, ok := c.txs[hash]; ok {
		return felt.Felt{}, blockchain.NewRejectionError(blockchain.OpAddInvokeTx, starknet.CodeDuplicateTx,
			"A transaction with the same hash already exists in the mempool")
	}
	if !tx.Nonce.Equal(felt.FromUint64(nonce)) {
		return felt.Felt{}, blockchain.NewRejectionError(blockchain.OpAddInvokeTx, starknet.CodeInvalidTxNonce,
			"Invalid transaction nonce")
	}
	if valid, err := starknet.Verify(c.keys[tx.SenderAddress], hash, tx.Signature); err != nil || !valid {
		return felt.Felt{}, blockchain.NewRejectionError(blockchain.OpAddInvokeTx, starknet.CodeValidationFailure,
			"Account validation failed: invalid signature")
	}

	c.nonces[tx.SenderAddress]++
	c.txs[hash] = &txState{script: append([]Step(nil), c.script...)}
	c.hashes = append(c.hashes, hash)
	if err := c.loseLocked(blockchain.OpAddInvokeTx); err != nil {
		return felt.Felt{}, err
	}
	return hash, nil
}

func (cl *client) TransactionReceipt(ctx context.Context, txHash felt.Felt) (starkbridge.Receipt, error) {
	if err := cl.chain.enter(ctx, blockchain.OpTxReceipt); err != nil {
		return starkbridge.Receipt{}, err
	}
	cl.chain.mu.Lock()
	defer cl.chain.mu.Unlock()

	tx, ok := cl.chain.txs[txHash]
	if !ok || len(tx.script) == 0 {
		return starkbridge.Receipt{}, blockchain.NewTransientError(blockchain.OpTxReceipt,
			errors.New("transaction hash not found"))
	}
	i := tx.polls
	if i >= len(tx.script) {
		i = len(tx.script) - 1
	}
	tx.polls++
	step := tx.script[i]
	return starkbridge.Receipt{
		TransactionHash: txHash,
		FinalityStatus:  step.Finality,
		ExecutionStatus: step.Execution,
		RevertReason:    step.RevertReason,
	}, nil
}

func (cl *client) Close() {
	if cl.closed.CompareAndSwap(false, true) {
		cl.chain.closed.Add(1)
	}
}
