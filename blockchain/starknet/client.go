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

package starknet

import (
	"context"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/starkbridge/starkbridge"
	"github.com/starkbridge/starkbridge/blockchain"
	"github.com/starkbridge/starkbridge/felt"
	"github.com/starkbridge/starkbridge/log"
)

// RPCSpecVersion is the version of the Starknet JSON-RPC API that the
// client speaks.
const RPCSpecVersion = "0.7.0"

// JSON-RPC methods of the Starknet node API used by the client.
const (
	methodChainID          = "starknet_chainId"
	methodGetNonce         = "starknet_getNonce"
	methodEstimateFee      = "starknet_estimateFee"
	methodAddInvokeTx      = "starknet_addInvokeTransaction"
	methodGetTxStatus      = "starknet_getTransactionStatus"
	methodGetTxReceipt     = "starknet_getTransactionReceipt"
	blockTagPending        = "pending"
	simulationSkipValidate = "SKIP_VALIDATE"
)

// ClientConfig defines the parameters of the JSON-RPC client.
type ClientConfig struct {
	// RequestTimeout bounds each request made to the node.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	// RateLimit is the number of requests per second allowed towards the
	// node. Zero disables limiting.
	RateLimit float64 `mapstructure:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst"`
}

// DefaultClientConfig returns the configuration used when none is given.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		RequestTimeout: 10 * time.Second,
		RateLimit:      30,
		RateBurst:      60,
	}
}

// Client is a JSON-RPC client for a Starknet node. It implements
// starkbridge.ChainClient.
type Client struct {
	log.Logger

	url     string
	rpc     *rpc.Client
	limiter *rate.Limiter
	timeout time.Duration
}

// Compile time check that Client implements the chain client interface.
var _ starkbridge.ChainClient = &Client{}

// NewClient dials the node at url. For http(s) urls no request is made until
// the first call, for ws(s) urls the connection is established here.
func NewClient(ctx context.Context, url string, cfg ClientConfig) (*Client, error) {
	rpcClient, err := rpc.DialOptions(ctx, url, rpc.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}))
	if err != nil {
		return nil, blockchain.NewTransientError(blockchain.OpChainID, errors.Wrap(err, "dialing node at "+url))
	}
	c := &Client{
		Logger:  log.NewLoggerWithField("rpc", url),
		url:     url,
		rpc:     rpcClient,
		timeout: cfg.RequestTimeout,
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return c, nil
}

// URL returns the url of the node.
func (c *Client) URL() string {
	return c.url
}

func (c *Client) call(ctx context.Context, op blockchain.Operation, result interface{}, method string,
	args ...interface{}) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return blockchain.NewTransientError(op, errors.Wrap(err, "waiting for rate limiter"))
		}
	}
	err := c.rpc.CallContext(ctx, result, method, args...)
	if err != nil {
		c.WithError(err).WithField("method", method).Debug("Request failed")
		return classify(op, err)
	}
	return nil
}

// ChainID returns the chain id reported by the node.
func (c *Client) ChainID(ctx context.Context) (felt.Felt, error) {
	var id felt.Felt
	err := c.call(ctx, blockchain.OpChainID, &id, methodChainID)
	return id, err
}

// Nonce returns the nonce of the account in the pending block.
func (c *Client) Nonce(ctx context.Context, account felt.Felt) (felt.Felt, error) {
	var nonce felt.Felt
	err := c.call(ctx, blockchain.OpNonce, &nonce, methodGetNonce, blockTagPending, account)
	return nonce, err
}

// EstimateFee estimates the fee of the transaction without validating its
// signature.
func (c *Client) EstimateFee(ctx context.Context, tx starkbridge.InvokeTx) (starkbridge.FeeEstimate, error) {
	var estimates []starkbridge.FeeEstimate
	err := c.call(ctx, blockchain.OpEstimateFee, &estimates, methodEstimateFee,
		[]starkbridge.InvokeTx{tx}, []string{simulationSkipValidate}, blockTagPending)
	if err != nil {
		return starkbridge.FeeEstimate{}, err
	}
	if len(estimates) != 1 {
		return starkbridge.FeeEstimate{}, blockchain.NewTransientError(blockchain.OpEstimateFee,
			errors.Errorf("expected 1 estimate, got %d", len(estimates)))
	}
	return estimates[0], nil
}

// AddInvokeTransaction broadcasts the signed transaction and returns its hash.
func (c *Client) AddInvokeTransaction(ctx context.Context, tx starkbridge.InvokeTx) (felt.Felt, error) {
	var resp struct {
		TransactionHash felt.Felt `json:"transaction_hash"`
	}
	err := c.call(ctx, blockchain.OpAddInvokeTx, &resp, methodAddInvokeTx, tx)
	return resp.TransactionHash, err
}

// TransactionReceipt returns the status of the transaction. The revert reason
// is fetched from the full receipt only when the execution reverted.
func (c *Client) TransactionReceipt(ctx context.Context, txHash felt.Felt) (starkbridge.Receipt, error) {
	var status struct {
		FinalityStatus  string `json:"finality_status"`
		ExecutionStatus string `json:"execution_status"`
		FailureReason   string `json:"failure_reason"`
	}
	if err := c.call(ctx, blockchain.OpTxReceipt, &status, methodGetTxStatus, txHash); err != nil {
		return starkbridge.Receipt{}, err
	}
	r := starkbridge.Receipt{
		TransactionHash: txHash,
		FinalityStatus:  status.FinalityStatus,
		ExecutionStatus: status.ExecutionStatus,
		RevertReason:    status.FailureReason,
	}
	if r.ExecutionStatus != starkbridge.ExecutionReverted || r.RevertReason != "" {
		return r, nil
	}

	var full starkbridge.Receipt
	if err := c.call(ctx, blockchain.OpTxReceipt, &full, methodGetTxReceipt, txHash); err != nil {
		// The status is already known, only the reason is missing.
		c.WithError(err).Debug("Fetching revert reason")
		return r, nil
	}
	r.RevertReason = full.RevertReason
	return r, nil
}

// Close closes the underlying connection.
func (c *Client) Close() {
	c.rpc.Close()
}
